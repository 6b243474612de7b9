// pkg/hook/context.go
package hook

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/arc-language/cbuild/pkg/profile"
	"github.com/arc-language/cbuild/pkg/template"
)

// Context is the build context handed to build styles and hooks. One
// Context belongs to exactly one template build.
type Context struct {
	Template *template.Template // resolved for Profile.Arch
	Profile  *profile.Profile

	Cwd     string // extracted source tree
	MakeDir string // where built binaries land
	DestDir string // install tree that becomes the package

	Jobs   int // parallel build jobs, at least 1
	Env    []string
	Runner Runner
	Logger *log.Logger
	Stdout io.Writer
	Stderr io.Writer
}

// Do runs program in the source tree
func (c *Context) Do(ctx context.Context, program string, args ...string) error {
	return c.DoOutput(ctx, c.Stdout, program, args...)
}

// DoOutput runs program in the source tree with stdout sent to w
func (c *Context) DoOutput(ctx context.Context, w io.Writer, program string, args ...string) error {
	return c.run(ctx, &Command{
		Program: program,
		Args:    args,
		Dir:     c.Cwd,
		Env:     c.env(),
		Stdout:  w,
		Stderr:  c.Stderr,
	})
}

func (c *Context) run(ctx context.Context, cmd *Command) error {
	runner := c.Runner
	if runner == nil {
		runner = &ExecRunner{Logger: c.Logger}
	}
	c.logger().Info("running", "cmd", cmd.String())
	return runner.Run(ctx, cmd)
}

// CreateFile creates (or truncates) name relative to the source tree,
// for use as a command's stdout
func (c *Context) CreateFile(name string) (*os.File, error) {
	path := c.path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating directory for %s: %w", name, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return f, nil
}

// path resolves name against the source tree
func (c *Context) path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Cwd, name)
}

// env is the environment every build command sees on top of the host's
func (c *Context) env() []string {
	env := []string{
		"pkgname=" + c.Template.PkgName,
		"pkgver=" + c.Template.PkgVer,
		"wrksrc=" + c.Cwd,
		"make_dir=" + c.MakeDir,
		"DESTDIR=" + c.DestDir,
	}
	if c.Profile != nil {
		env = append(env, c.Profile.Env()...)
	}
	return append(env, c.Env...)
}

func (c *Context) logger() *log.Logger {
	if c.Logger == nil {
		c.Logger = log.New(io.Discard)
	}
	return c.Logger
}

func orDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
