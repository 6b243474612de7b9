// pkg/hook/install.go
package hook

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
)

// InstallLicense installs path as usr/share/licenses/<pkgname>/<base>
func (c *Context) InstallLicense(path string) error {
	dest := filepath.Join("usr/share/licenses", c.Template.PkgName, filepath.Base(path))
	return c.install(path, dest, 0644)
}

// InstallMan installs a man page into the man directory of its section,
// taken from the file extension (sbctl.8 -> usr/share/man/man8/sbctl.8)
func (c *Context) InstallMan(path string) error {
	base := filepath.Base(path)
	section := strings.TrimPrefix(filepath.Ext(base), ".")
	if section == "" || section[0] < '1' || section[0] > '9' {
		return fmt.Errorf("install_man %s: cannot determine man section", path)
	}
	dest := filepath.Join("usr/share/man", "man"+section, base)
	return c.install(path, dest, 0644)
}

// InstallCompletion installs a shell completion under the name the shell
// looks it up by
func (c *Context) InstallCompletion(path, shell string) error {
	name := c.Template.PkgName

	var dest string
	switch shell {
	case "bash":
		dest = filepath.Join("usr/share/bash-completion/completions", name)
	case "zsh":
		dest = filepath.Join("usr/share/zsh/site-functions", "_"+name)
	case "fish":
		dest = filepath.Join("usr/share/fish/vendor_completions.d", name+".fish")
	default:
		return fmt.Errorf("install_completion %s: unknown shell %q", path, shell)
	}
	return c.install(path, dest, 0644)
}

// InstallBin installs an executable as usr/bin/<base>
func (c *Context) InstallBin(path string) error {
	dest := filepath.Join("usr/bin", filepath.Base(path))
	return c.install(path, dest, 0755)
}

// install copies src (relative to the source tree) to dest (relative to
// DestDir). The write is atomic, so installing the same file twice leaves
// the same tree.
func (c *Context) install(src, dest string, mode os.FileMode) error {
	srcPath := c.path(src)
	target := filepath.Join(c.DestDir, dest)

	f, err := os.Open(srcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrMissingFile, srcPath)
		}
		return fmt.Errorf("opening %s: %w", srcPath, err)
	}
	defer f.Close()

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(target), err)
	}
	if err := atomic.WriteFile(target, f); err != nil {
		return fmt.Errorf("installing %s: %w", dest, err)
	}
	if err := os.Chmod(target, mode); err != nil {
		return fmt.Errorf("chmod %s: %w", dest, err)
	}

	c.logger().Debug("installed", "src", src, "dest", dest)
	return nil
}
