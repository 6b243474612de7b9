// pkg/buildstyle/golang.go
package buildstyle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/arc-language/cbuild/pkg/hook"
)

// Go builds with the Go toolchain. make_build_args names the packages to
// build (default "."); every binary lands in MakeDir and is installed to
// usr/bin.
type Go struct{}

func (Go) Name() string { return "go" }

func (Go) Configure(ctx context.Context, bc *hook.Context) error {
	return bc.Do(ctx, "go", "mod", "download")
}

func (Go) Build(ctx context.Context, bc *hook.Context) error {
	if err := os.MkdirAll(bc.MakeDir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", bc.MakeDir, err)
	}

	pkgs := bc.Template.MakeBuildArgs
	if len(pkgs) == 0 {
		pkgs = []string{"."}
	}

	args := []string{
		"build",
		"-trimpath",
		"-p", jobs(bc),
		"-o", bc.MakeDir + string(filepath.Separator),
	}
	args = append(args, pkgs...)
	return bc.Do(ctx, "go", args...)
}

func (Go) Check(ctx context.Context, bc *hook.Context) error {
	return bc.Do(ctx, "go", "test", "-p", jobs(bc), "./...")
}

func (Go) Install(ctx context.Context, bc *hook.Context) error {
	entries, err := os.ReadDir(bc.MakeDir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", bc.MakeDir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		if info.Mode()&0111 == 0 {
			continue
		}
		if err := bc.InstallBin(filepath.Join(bc.MakeDir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}
