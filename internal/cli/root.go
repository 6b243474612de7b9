// internal/cli/root.go
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/arc-language/cbuild"
	"github.com/arc-language/cbuild/pkg/config"
)

// Version is set via -ldflags
var Version = "dev"

var (
	cfgFile string
	arch    string
	jobs    int
	debug   bool
	cfg     *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "cbuild",
	Short: "Build packages from templates",
	Long: `cbuild - package template builder

Fetches, verifies and builds packages described by templates, running
each template's lifecycle hooks along the way. Templates are compiled in
or synced from a template repository.`,
	SilenceUsage: true,
}

// Execute executes the root command
func Execute(ctx context.Context) error {
	return fang.Execute(ctx, rootCmd,
		fang.WithVersion(Version),
		fang.WithNotifySignal(os.Interrupt),
	)
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/cbuild/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&arch, "arch", "", "target architecture (default is the host)")
	rootCmd.PersistentFlags().IntVarP(&jobs, "jobs", "j", 0, "parallel jobs")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	// Add commands
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(lintCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	var err error
	cfg, err = config.LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		cfg = config.DefaultConfig()
	}

	// Override config with flags
	if arch != "" {
		cfg.Arch = arch
	}
	if jobs > 0 {
		cfg.Jobs = jobs
	}
	if debug {
		cfg.Debug = true
	}
}

func logger() *log.Logger {
	level := log.InfoLevel
	if cfg.Debug {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{Prefix: "cbuild", Level: level})
}

func newBuilder(cmd *cobra.Command) (*cbuild.Builder, error) {
	opts := []cbuild.Option{cbuild.WithOutput(cmd.OutOrStdout(), cmd.ErrOrStderr())}
	if cfg.Debug {
		opts = append(opts, cbuild.WithLogger(logger()))
	}
	return cbuild.NewBuilder(cfg, opts...)
}
