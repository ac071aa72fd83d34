package main

import (
	"fmt"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"native_find/internal/app"
	"native_find/internal/cache"
	"native_find/internal/config"
	"native_find/internal/logger"
	"native_find/internal/nativesearch"
	"native_find/internal/preview"
	"native_find/internal/winutil"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version string

const configFlag = "config"

// session holds what PersistentPreRunE builds for the subcommands.
type session struct {
	cfg config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	s := &session{}

	root := &cobra.Command{
		Use:   "nfind <command> [flags]",
		Short: "Find files through the operating system's file index",
		Long: heredoc.Doc(`
			Find PDF and image files by name through the file index the
			operating system already maintains: Windows Search on Windows,
			Spotlight on macOS.
		`),
		SilenceErrors: true,
		SilenceUsage:  true,
		Example: heredoc.Doc(`
			$ nfind search invoice
			$ nfind search "scan*2024" --json
			$ nfind search report --preview --contains revenue
			$ nfind ui
			$ nfind diagnose
		`),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString(configFlag)
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.Logging.Env, cfg.Logging.Level)
			if err != nil {
				return err
			}
			s.cfg, s.log = cfg, log
			cmd.SetContext(logger.WithContext(cmd.Context(), log))
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if s.log != nil {
				_ = s.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringP(configFlag, "c", "", "Config file (default $"+config.EnvConfigPath+")")

	root.AddCommand(
		searchCmd(s),
		uiCmd(s),
		diagnoseCmd(),
		versionCmd(),
	)
	return root
}

// env wires the searcher, previewer and reveal action from the loaded config.
func (s *session) env(cmd *cobra.Command, withPreview bool) (app.Env, error) {
	env := app.Env{
		Searcher: nativesearch.New(s.cfg.Filters(), nativesearch.WithLogger(s.log)),
		Reveal:   winutil.RevealInExplorer,
		Timeout:  s.cfg.Timeout(),
		Out:      cmd.OutOrStdout(),
	}
	if withPreview {
		c, err := cache.New(s.cfg.Preview.CacheDir, s.cfg.Preview.MaxTextBytes)
		if err != nil {
			return app.Env{}, fmt.Errorf("preview cache: %w", err)
		}
		env.Previewer = preview.New(c, s.cfg.Preview.MaxChars)
	}
	return env, nil
}

func searchCmd(s *session) *cobra.Command {
	var (
		opts       app.CLIOptions
		maxResults int
	)
	cmd := &cobra.Command{
		Use:   "search <name fragment>",
		Short: "Search the file index by file name",
		Long: heredoc.Doc(`
			Search the file index for files whose name contains the fragment.
			* matches any run of characters and ? matches one character.
			Results are limited to the configured extensions and size.
		`),
		Args: cobra.ExactArgs(1),
		Example: heredoc.Doc(`
			$ nfind search invoice
			$ nfind search invoice --open 2
			$ nfind search invoice --max 10 --json
		`),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Query = args[0]
			if opts.Contains != "" {
				opts.Preview = true
			}
			if cmd.Flags().Changed("max") {
				if maxResults < 1 {
					return fmt.Errorf("--max must be at least 1, got %d", maxResults)
				}
				s.cfg.Search.MaxResults = maxResults
				if err := s.cfg.Validate(); err != nil {
					return err
				}
			}
			env, err := s.env(cmd, opts.Preview)
			if err != nil {
				return err
			}
			return app.RunCLI(cmd.Context(), opts, env)
		},
	}
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Print one JSON object per line")
	cmd.Flags().IntVar(&opts.OpenIdx, "open", 0, "Reveal the Nth result (1-based) in the file manager")
	cmd.Flags().BoolVar(&opts.Preview, "preview", false, "Add a text snippet for PDF results")
	cmd.Flags().StringVar(&opts.Contains, "contains", "", "Center PDF snippets on this text (implies --preview)")
	cmd.Flags().IntVar(&maxResults, "max", nativesearch.MaxResultsCeiling, "Maximum number of results")
	return cmd
}

func uiCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Open the search window (Windows)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := s.env(cmd, true)
			if err != nil {
				return err
			}
			return app.RunUI(cmd.Context(), env)
		},
	}
}

func diagnoseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diagnose",
		Short: "Check that the file index is reachable",
		Long: heredoc.Doc(`
			Report the state of the platform file index and run one trial
			query with the default filters.
		`),
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprint(cmd.OutOrStdout(), nativesearch.Diagnose())
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Aliases: []string{"v"},
		Short:   "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			if Version == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Version information not available")
				return
			}
			fmt.Fprintf(cmd.OutOrStdout(), "nfind version %s\n", Version)
		},
	}
}
