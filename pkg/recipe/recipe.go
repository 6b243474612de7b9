// pkg/recipe/recipe.go
package recipe

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/arc-language/cbuild/pkg/hook"
	"github.com/arc-language/cbuild/pkg/template"
)

// ErrNotFound indicates no recipe is known under the requested name
var ErrNotFound = errors.New("template not found")

// Recipe is a template together with its lifecycle hooks
type Recipe struct {
	Template *template.Template
	Hooks    hook.Set
}

// Registry holds recipes keyed by pkgname
type Registry struct {
	mu      sync.RWMutex
	recipes map[string]*Recipe
}

// New creates an empty registry
func New() *Registry {
	return &Registry{recipes: make(map[string]*Recipe)}
}

// Default is the registry compiled-in templates register with
var Default = New()

// Register adds rc. The name must not be taken.
func (r *Registry) Register(rc *Recipe) error {
	if rc == nil || rc.Template == nil {
		return fmt.Errorf("recipe: template cannot be nil")
	}
	name := rc.Template.PkgName

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.recipes[name]; ok {
		return fmt.Errorf("recipe: %s registered twice", name)
	}
	r.recipes[name] = rc
	return nil
}

// Get returns the recipe for name. The template is a copy, so callers
// can resolve or modify it freely.
func (r *Registry) Get(name string) (*Recipe, error) {
	r.mu.RLock()
	rc, ok := r.recipes[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return &Recipe{Template: rc.Template.Clone(), Hooks: rc.Hooks}, nil
}

// Names returns every registered pkgname, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.recipes))
	for name := range r.recipes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MustRegister parses templateYAML and registers it with hooks in Default.
// It is meant for init functions of compiled-in templates and panics on a
// template that does not parse.
func MustRegister(templateYAML []byte, filename string, hooks hook.Set) {
	t, err := template.Parse(templateYAML, filename)
	if err != nil {
		panic(err)
	}
	if err := Default.Register(&Recipe{Template: t, Hooks: hooks}); err != nil {
		panic(err)
	}
}
