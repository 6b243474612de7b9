// internal/cli/info.go
package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arc-language/cbuild"
)

var infoCmd = &cobra.Command{
	Use:   "info [package]",
	Short: "Show information about a template",
	Long: `Display a template resolved for the target architecture, with the arch
conditional applied. Use --arch to resolve for another architecture.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	b, err := newBuilder(cmd)
	if err != nil {
		return err
	}
	defer b.Close()

	plan, err := b.Plan(args[0], "")
	if err != nil {
		return err
	}

	renderInfo(cmd.OutOrStdout(), plan)
	return nil
}

func renderInfo(w io.Writer, plan *cbuild.Plan) {
	t := plan.Template

	fmt.Fprintln(w, titleStyle.Render(t.PkgName)+" "+t.FullVersion())
	if t.PkgDesc != "" {
		fmt.Fprintln(w, t.PkgDesc)
	}
	fmt.Fprintln(w)

	row := func(label, value string) {
		if value == "" {
			return
		}
		fmt.Fprintln(w, labelStyle.Render(label)+valueStyle.Render(value))
	}
	list := func(label string, values []string) {
		row(label, strings.Join(values, " "))
	}

	row("Architecture", string(plan.Profile.Arch))
	if plan.Cross {
		row("Cross build", plan.Profile.Triplet)
	}
	row("Build style", plan.Style.Name())
	row("License", t.License)
	row("Maintainer", t.Maintainer)
	row("Homepage", t.URL)
	row("Source", t.SourceURL())
	row("SHA256", t.SHA256)
	list("Configure args", t.ConfigureArgs)
	list("Make build args", t.MakeBuildArgs)
	list("Host make deps", t.HostMakeDepends)
	list("Make deps", t.MakeDepends)
	list("Runtime deps", t.Depends)
	list("Options", t.Options)
}
