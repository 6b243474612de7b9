// internal/cli/lint.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var lintCmd = &cobra.Command{
	Use:   "lint [package...]",
	Short: "Validate templates",
	Long:  `Validate the named templates, or every known template when none is named.`,
	RunE:  runLint,
}

func runLint(cmd *cobra.Command, args []string) error {
	b, err := newBuilder(cmd)
	if err != nil {
		return err
	}
	defer b.Close()

	names := args
	if len(names) == 0 {
		names = b.Names()
	}

	failed := 0
	for _, name := range names {
		if err := b.Lint(name); err != nil {
			failed++
			fmt.Fprintf(cmd.OutOrStdout(), "%s %v\n", failMark(), err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", okMark(), name)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d templates invalid", failed, len(names))
	}
	return nil
}
