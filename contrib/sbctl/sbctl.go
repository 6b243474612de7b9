// Package sbctl is the template of the Secure Boot key manager.
package sbctl

import (
	"context"
	_ "embed"
	"path/filepath"

	"github.com/arc-language/cbuild/pkg/hook"
	"github.com/arc-language/cbuild/pkg/recipe"
)

//go:embed template.yaml
var templateYAML []byte

var shells = []string{"bash", "zsh", "fish"}

func init() {
	recipe.MustRegister(templateYAML, "contrib/sbctl/template.yaml", Hooks)
}

// Hooks are the lifecycle hooks of sbctl
var Hooks = hook.Set{
	PostBuild:   postBuild,
	PostInstall: postInstall,
}

func postBuild(ctx context.Context, bc *hook.Context) error {
	// the man page target needs GNU make, bmake chokes on it
	if err := bc.Do(ctx, "gmake", "man"); err != nil {
		return err
	}

	for _, shell := range shells {
		if err := generateCompletion(ctx, bc, shell); err != nil {
			return err
		}
	}
	return nil
}

func generateCompletion(ctx context.Context, bc *hook.Context, shell string) error {
	f, err := bc.CreateFile("sbctl." + shell)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := bc.DoOutput(ctx, f, filepath.Join(bc.MakeDir, "sbctl"), "completion", shell); err != nil {
		return err
	}
	return f.Close()
}

func postInstall(ctx context.Context, bc *hook.Context) error {
	if err := bc.InstallMan("docs/sbctl.8"); err != nil {
		return err
	}
	for _, shell := range shells {
		if err := bc.InstallCompletion("sbctl."+shell, shell); err != nil {
			return err
		}
	}
	return bc.InstallLicense("LICENSE")
}
