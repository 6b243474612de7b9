// internal/cli/build.go
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build [package...]",
	Short: "Build one or more packages",
	Long: `Build packages through the whole pipeline: fetch, extract, configure,
build, check and install into a staging directory. Packages build
concurrently; one failure does not stop the others.

Examples:
  cbuild build sbctl
  cbuild build neovim --arch riscv64
  cbuild build -j 8 neovim sbctl`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBuild,
}

func runBuild(cmd *cobra.Command, args []string) error {
	b, err := newBuilder(cmd)
	if err != nil {
		return err
	}
	defer b.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Building %d package(s) for %s\n", len(args), b.Arch())

	results, err := b.BuildAll(cmd.Context(), args)
	for _, res := range results {
		fmt.Fprintf(out, "%s %s %s → %s (%s)\n", okMark(), res.Package, res.Version, res.DestDir, res.Duration.Round(time.Millisecond))
	}
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %v\n", failMark(), err)
		return fmt.Errorf("%d of %d builds failed", len(args)-len(results), len(args))
	}
	return nil
}
