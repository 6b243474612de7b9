// internal/cli/sync.go
package cli

import (
	"github.com/spf13/cobra"

	"github.com/arc-language/cbuild/pkg/index"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Update templates from the template repository",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return index.Sync(cmd.Context(), cfg.TemplatesRepo, cfg.TemplatesDir, logger())
	},
}
