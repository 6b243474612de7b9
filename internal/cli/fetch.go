// internal/cli/fetch.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [package...]",
	Short: "Download and verify sources",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFetch,
}

func runFetch(cmd *cobra.Command, args []string) error {
	b, err := newBuilder(cmd)
	if err != nil {
		return err
	}
	defer b.Close()

	for _, name := range args {
		path, err := b.Fetch(cmd.Context(), name)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", okMark(), path)
	}
	return nil
}
