// internal/cli/history.go
package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/arc-language/cbuild/pkg/journal"
)

var historyCmd = &cobra.Command{
	Use:   "history [package]",
	Short: "Show recorded builds",
	Long:  `Show every build of a package, newest first, or the latest build of every package.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	b, err := newBuilder(cmd)
	if err != nil {
		return err
	}
	defer b.Close()

	j := b.Journal()
	if j == nil {
		return fmt.Errorf("journal disabled in config")
	}

	var entries []*journal.Entry
	if len(args) == 1 {
		entries, err = j.History(cmd.Context(), args[0])
	} else {
		entries, err = j.LatestAll(cmd.Context())
	}
	if err != nil {
		return err
	}

	printEntries(cmd.OutOrStdout(), entries)
	return nil
}

func printEntries(w io.Writer, entries []*journal.Entry) {
	for _, e := range entries {
		mark := okMark()
		if e.Status != journal.StatusOK {
			mark = failMark()
		}
		fmt.Fprintf(w, "%s %s %-20s %-14s %-8s %s\n", mark,
			e.Started.Format("2006-01-02 15:04"), e.Package, e.Version, e.Arch, e.Duration.Round(time.Millisecond))
		if e.Error != "" {
			fmt.Fprintf(w, "    %s\n", e.Error)
		}
	}
}
