// Package cli defines the market-brief command line.
package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Adda-Baaj/market-brief/internal/config"
	"github.com/Adda-Baaj/market-brief/internal/logger"
	"github.com/Adda-Baaj/market-brief/internal/pipeline"
)

// BuildInfo is stamped at build time via -ldflags.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

type app struct {
	info       BuildInfo
	configFile string
	strategy   string
	logLevel   string
	cfg        *config.Config
	factory    func(log logger.Logger) pipeline.Factory
}

// NewRootCommand returns the market-brief command tree.
func NewRootCommand(info BuildInfo) *cobra.Command {
	return newRootCommand(&app{info: info, factory: componentFactory})
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "market-brief",
		Short: "Daily US market brief by email",
		Long: `market-brief collects financial news headlines, asks an LLM for a
Korean-language market report with stock picks, and emails it to the
configured address. Each invocation runs once and exits.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.loadConfig,
		RunE:              a.run,
	}

	root.PersistentFlags().StringVar(&a.configFile, "config", "", "config file path (default: ./market-brief.yaml)")
	root.PersistentFlags().StringVar(&a.strategy, "strategy", "", "news source strategy: markup or feed")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(a.sourcesCommand(), a.versionCommand())
	return root
}

func (a *app) loadConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Override(a.strategy, a.logLevel); err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

// run executes the pipeline once. Every pipeline outcome, including a
// fail-fast on missing credentials, is reported through the log only.
func (a *app) run(cmd *cobra.Command, _ []string) error {
	log, err := logger.New(logger.Options{Level: a.cfg.Logging.Level, Format: a.cfg.Logging.Format})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	pipeline.New(a.cfg, a.factory(log), log).Run(cmd.Context())
	return nil
}

func (a *app) sourcesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the news sources for the active strategy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sources, err := loadSources(a.cfg)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tTYPE\tLIMIT\tURL")
			for _, p := range sources {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", p.ID, p.DisplayName(), p.Type, p.LimitValue(), p.SourceURL)
			}
			return w.Flush()
		},
	}
}

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// Version needs no configuration.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "market-brief %s (commit: %s, built: %s)\n", a.info.Version, a.info.Commit, a.info.Date)
		},
	}
}
