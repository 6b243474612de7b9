// pkg/buildstyle/style.go
package buildstyle

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/arc-language/cbuild/pkg/hook"
	"github.com/arc-language/cbuild/pkg/template"
)

// Style is a build strategy providing the default configure, build, check
// and install steps of a template
type Style interface {
	Name() string
	Configure(ctx context.Context, bc *hook.Context) error
	Build(ctx context.Context, bc *hook.Context) error
	Check(ctx context.Context, bc *hook.Context) error
	Install(ctx context.Context, bc *hook.Context) error
}

var styles = map[string]Style{}

func register(s Style) {
	styles[s.Name()] = s
}

func init() {
	register(CMake{})
	register(Go{})
	register(Makefile{})
	register(Meta{})
}

// Get returns the style registered under name. An empty name selects meta,
// leaving all work to the template's hooks.
func Get(name string) (Style, error) {
	if name == "" {
		name = "meta"
	}
	s, ok := styles[name]
	if !ok {
		return nil, fmt.Errorf("unknown build style: %s", name)
	}
	return s, nil
}

// Available returns the registered style names
func Available() []string {
	names := make([]string, 0, len(styles))
	for name := range styles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func jobs(bc *hook.Context) string {
	n := bc.Jobs
	if n < 1 || !bc.Template.Options.Enabled(template.OptParallel) {
		n = 1
	}
	return strconv.Itoa(n)
}

// Meta does nothing; the package is built by hooks or has no files
type Meta struct{}

func (Meta) Name() string                                           { return "meta" }
func (Meta) Configure(ctx context.Context, bc *hook.Context) error { return nil }
func (Meta) Build(ctx context.Context, bc *hook.Context) error     { return nil }
func (Meta) Check(ctx context.Context, bc *hook.Context) error     { return nil }
func (Meta) Install(ctx context.Context, bc *hook.Context) error   { return nil }
