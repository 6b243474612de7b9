// pkg/index/index.go
package index

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/arc-language/cbuild/pkg/hook"
	"github.com/arc-language/cbuild/pkg/recipe"
	"github.com/arc-language/cbuild/pkg/template"
)

// TemplateFile is the file name every template directory carries
const TemplateFile = "template.yaml"

// Load reads every <category>/<pkgname>/template.yaml below dir into a new
// registry. Hooks come from the template's hooks: entries. A missing dir
// yields an empty registry.
func Load(dir string) (*recipe.Registry, error) {
	reg := recipe.New()

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return reg, nil
	}

	var errs []error
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() != TemplateFile {
			return nil
		}

		rel, _ := filepath.Rel(dir, path)
		if len(strings.Split(rel, string(filepath.Separator))) != 3 {
			return nil
		}

		if err := load(reg, path); err != nil {
			errs = append(errs, err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}

	return reg, errors.Join(errs...)
}

func load(reg *recipe.Registry, path string) error {
	t, err := template.Load(path)
	if err != nil {
		return err
	}

	if name := filepath.Base(filepath.Dir(path)); t.PkgName != name {
		return fmt.Errorf("%s: pkgname %q does not match directory %q", path, t.PkgName, name)
	}

	return reg.Register(&recipe.Recipe{Template: t, Hooks: hook.FromTemplate(t)})
}
