// pkg/hook/hook.go
package hook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/arc-language/cbuild/pkg/template"
)

// Stage names a point in the build pipeline where a hook may run
type Stage string

const (
	PreBuild    Stage = "pre_build"
	PostBuild   Stage = "post_build"
	PreInstall  Stage = "pre_install"
	PostInstall Stage = "post_install"
)

// Stages lists the hook points in pipeline order
var Stages = []Stage{PreBuild, PostBuild, PreInstall, PostInstall}

// Func is a lifecycle hook
type Func func(ctx context.Context, bc *Context) error

// Set is the optional hooks of one template
type Set struct {
	PreBuild    Func
	PostBuild   Func
	PreInstall  Func
	PostInstall Func
}

// Get returns the hook bound to stage, or nil
func (s Set) Get(stage Stage) Func {
	switch stage {
	case PreBuild:
		return s.PreBuild
	case PostBuild:
		return s.PostBuild
	case PreInstall:
		return s.PreInstall
	case PostInstall:
		return s.PostInstall
	}
	return nil
}

// Run invokes the hook for stage. A missing hook is a no-op.
func (s Set) Run(ctx context.Context, stage Stage, bc *Context) error {
	fn := s.Get(stage)
	if fn == nil {
		return nil
	}
	bc.logger().Info("hook", "stage", string(stage))
	if err := fn(ctx, bc); err != nil {
		return fmt.Errorf("%s: %w", stage, err)
	}
	return nil
}

// FromTemplate builds a Set from the shell snippets in t.Hooks
func FromTemplate(t *template.Template) Set {
	var s Set
	for stage, script := range t.Hooks {
		fn := Shell(script)
		switch Stage(stage) {
		case PreBuild:
			s.PreBuild = fn
		case PostBuild:
			s.PostBuild = fn
		case PreInstall:
			s.PreInstall = fn
		case PostInstall:
			s.PostInstall = fn
		}
	}
	return s
}

// Shell turns a POSIX shell snippet into a hook. The snippet runs
// in-process in the source tree with the build context's environment.
func Shell(script string) Func {
	return func(ctx context.Context, bc *Context) error {
		prog, err := syntax.NewParser().Parse(strings.NewReader(script), "hook")
		if err != nil {
			return fmt.Errorf("parsing hook: %w", err)
		}

		tail := &tailBuffer{max: stderrTail}
		env := append(os.Environ(), bc.env()...)
		runner, err := interp.New(
			interp.Dir(bc.Cwd),
			interp.Env(expand.ListEnviron(env...)),
			interp.StdIO(nil, orDiscard(bc.Stdout), io.MultiWriter(orDiscard(bc.Stderr), tail)),
		)
		if err != nil {
			return fmt.Errorf("creating interpreter: %w", err)
		}

		if err := runner.Run(ctx, prog); err != nil {
			cmdErr := &CommandError{
				Command:  "sh: " + firstLine(script),
				ExitCode: -1,
				Err:      err,
				Stderr:   strings.TrimSpace(tail.String()),
			}
			var status interp.ExitStatus
			if errors.As(err, &status) {
				cmdErr.ExitCode = int(status)
				cmdErr.Err = nil
			}
			return cmdErr
		}
		return nil
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i != -1 {
		return s[:i] + " ..."
	}
	return s
}
