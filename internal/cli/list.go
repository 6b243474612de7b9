// internal/cli/list.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available templates",
	Long:  `List all compiled-in and synced templates.`,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	b, err := newBuilder(cmd)
	if err != nil {
		return err
	}
	defer b.Close()

	out := cmd.OutOrStdout()
	for _, name := range b.Names() {
		rc, err := b.Lookup(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%-20s %-14s %s\n", name, rc.Template.FullVersion(), rc.Template.PkgDesc)
	}
	return nil
}
