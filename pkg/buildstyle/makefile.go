// pkg/buildstyle/makefile.go
package buildstyle

import (
	"context"

	"github.com/arc-language/cbuild/pkg/hook"
)

// Makefile drives a plain GNU make build in the source tree
type Makefile struct{}

func (Makefile) Name() string { return "makefile" }

func (Makefile) Configure(ctx context.Context, bc *hook.Context) error { return nil }

func (Makefile) Build(ctx context.Context, bc *hook.Context) error {
	args := append([]string{"-j" + jobs(bc), "PREFIX=/usr"}, bc.Template.MakeBuildArgs...)
	return bc.Do(ctx, "gmake", args...)
}

func (Makefile) Check(ctx context.Context, bc *hook.Context) error {
	return bc.Do(ctx, "gmake", "-j"+jobs(bc), "check")
}

func (Makefile) Install(ctx context.Context, bc *hook.Context) error {
	return bc.Do(ctx, "gmake", "PREFIX=/usr", "DESTDIR="+bc.DestDir, "install")
}
