// Package neovim is the template of the neovim editor.
package neovim

import (
	"context"
	_ "embed"

	"github.com/arc-language/cbuild/pkg/hook"
	"github.com/arc-language/cbuild/pkg/recipe"
)

//go:embed template.yaml
var templateYAML []byte

func init() {
	recipe.MustRegister(templateYAML, "contrib/neovim/template.yaml", Hooks)
}

// Hooks are the lifecycle hooks of neovim
var Hooks = hook.Set{
	PostInstall: func(ctx context.Context, bc *hook.Context) error {
		return bc.InstallLicense("LICENSE.txt")
	},
}
