package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	winlog "github.com/werbes/evtlist"
)

// Overridden in tests.
var (
	openSource = winlog.OpenBackend
	now        = time.Now
)

type options struct {
	window   time.Duration
	config   string
	backend  string
	file     string
	logLevel string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "evtlist:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "evtlist [logon|kernel|system]",
		Short: "List recent Windows event log entries",
		Long: "evtlist prints the events of one preset category from the Windows Event Log\n" +
			"that were created within a trailing window, as an aligned table.",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return applyEnv(cmd, opts)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args)
		},
	}

	cmd.Flags().DurationVar(&opts.window, "window", 0, "trailing window, overrides the config (e.g. 5h, 90m)")
	cmd.Flags().StringVar(&opts.config, "config", "", "YAML preset file [$EVTLIST_CONFIG]")
	cmd.Flags().StringVar(&opts.backend, "backend", "evtapi", "event log backend: evtapi or wmi [$EVTLIST_BACKEND]")
	cmd.Flags().StringVar(&opts.file, "file", "", "query an exported .evtx file instead of the live channel")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "warn", "diagnostic log level on stderr [$EVTLIST_LOG_LEVEL]")

	return cmd
}

// applyEnv loads an optional .env file and fills flags the user did not set.
func applyEnv(cmd *cobra.Command, opts *options) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	for _, e := range []struct {
		flag, env string
		dst       *string
	}{
		{"config", "EVTLIST_CONFIG", &opts.config},
		{"backend", "EVTLIST_BACKEND", &opts.backend},
		{"log-level", "EVTLIST_LOG_LEVEL", &opts.logLevel},
	} {
		if cmd.Flags().Changed(e.flag) {
			continue
		}
		if v := os.Getenv(e.env); v != "" {
			*e.dst = v
		}
	}
	return nil
}

func run(cmd *cobra.Command, opts *options, args []string) error {
	logger, err := newLogger(opts.logLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg, err := winlog.LoadConfig(opts.config)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("window") {
		if opts.window <= 0 {
			return fmt.Errorf("--window must be positive, got %s", opts.window)
		}
		cfg.Window = opts.window
	}

	out := cmd.OutOrStdout()
	var token string
	if len(args) > 0 {
		token = args[0]
	}
	preset, ok := cfg.Lookup(token)
	if !ok {
		logger.Debug("no preset selected", zap.String("token", token))
		return cfg.WriteHelp(out)
	}

	if err := preset.WriteBanner(out); err != nil {
		return err
	}
	q := preset.Build(now(), cfg.Window)
	q.Path = opts.file

	src, err := openSource(opts.backend, logger)
	if err != nil {
		return err
	}
	rows, err := winlog.NewLister(src, logger).List(cmd.Context(), out, q)
	if err != nil {
		return err
	}
	logger.Debug("listed events", zap.String("preset", preset.Name), zap.Int("rows", rows))
	return nil
}
