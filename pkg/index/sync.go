// pkg/index/sync.go
package index

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-git/v5"
)

// Sync replaces dir with the template tree of repoURL. Templates live in
// the repository's templates/ directory, or at its root when there is none.
func Sync(ctx context.Context, repoURL, dir string, logger *log.Logger) error {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", parent, err)
	}

	tempDir, err := os.MkdirTemp(parent, ".cbuild-clone-*")
	if err != nil {
		return fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	logger.Info("updating templates", "repo", repoURL)

	clone := filepath.Join(tempDir, "repo")
	_, err = git.PlainCloneContext(ctx, clone, false, &git.CloneOptions{
		URL:          repoURL,
		SingleBranch: true,
		Depth:        1,
	})
	if err != nil {
		return fmt.Errorf("git clone failed: %w", err)
	}

	src := filepath.Join(clone, "templates")
	if info, err := os.Stat(src); err != nil || !info.IsDir() {
		src = clone
	}

	staged := filepath.Join(tempDir, "templates")
	if err := copyDir(src, staged); err != nil {
		return fmt.Errorf("copying templates: %w", err)
	}

	// the old tree stays in place unless every new template is valid
	reg, err := Load(staged)
	if err != nil {
		return err
	}
	var errs []error
	for _, name := range reg.Names() {
		rc, err := reg.Get(name)
		if err != nil {
			return err
		}
		if err := rc.Template.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("removing old templates: %w", err)
	}
	if err := os.Rename(staged, dir); err != nil {
		return fmt.Errorf("installing templates: %w", err)
	}

	logger.Info("templates updated", "count", len(reg.Names()))
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

func copyDir(src, dst string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dst, 0755); err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.Name() == ".git" {
			continue
		}
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		if entry.IsDir() {
			if err := copyDir(srcPath, dstPath); err != nil {
				return err
			}
		} else if entry.Type().IsRegular() {
			if err := copyFile(srcPath, dstPath); err != nil {
				return err
			}
		}
	}

	return nil
}
