package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/fliphawk/backend/config"
	"github.com/fliphawk/backend/internal/bootstrap"
	"github.com/fliphawk/backend/internal/domain"
	"github.com/fliphawk/backend/internal/usecase"
	logx "github.com/fliphawk/backend/pkg/logger"
)

// Scanner is the scan API the commands depend on
type Scanner interface {
	RunScan(ctx context.Context, request domain.ScanRequest, onProgress usecase.ProgressFunc) (*domain.ScanResult, error)
	ListScans(ctx context.Context, limit int) ([]domain.ScanSummary, error)
}

// GlobalOptions are the flags shared by every command
type GlobalOptions struct {
	FixturesPath string
	JSON         bool
	Verbose      bool
}

// Opener builds the scanner for commands that need one. The returned close
// function releases everything it opened.
type Opener func(ctx context.Context, opts *GlobalOptions) (Scanner, func() error, error)

// NewRootCommand creates the root command for the CLI
func NewRootCommand(open Opener) *cobra.Command {
	opts := &GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "fliphawk",
		Short: "FlipHawk CLI - find resale arbitrage across marketplaces",
		Long: `FlipHawk searches marketplaces for the same item listed at different prices
and reports pairs that stay profitable after fees, shipping and tax.

Examples:
  fliphawk categories
  fliphawk keywords Headphones --limit 10
  fliphawk scan --category Tech --sub Headphones --sub Keyboards
  fliphawk scan --category Tech --sub Headphones --fixtures testdata/fixtures.json --json
  fliphawk history --limit 5`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.FixturesPath, "fixtures", "",
		"Serve listings from a JSON fixture feed instead of live marketplaces")
	rootCmd.PersistentFlags().BoolVar(&opts.JSON, "json", false,
		"Print machine-readable JSON")
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false,
		"Enable debug logging")

	rootCmd.AddCommand(NewCategoriesCommand(opts))
	rootCmd.AddCommand(NewKeywordsCommand(opts))
	rootCmd.AddCommand(NewScanCommand(opts, open))
	rootCmd.AddCommand(NewHistoryCommand(opts, open))

	return rootCmd
}

// OpenApp loads configuration and wires the application. Logs go to stderr
// so stdout stays clean for results.
func OpenApp(ctx context.Context, opts *GlobalOptions) (Scanner, func() error, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.FixturesPath != "" {
		cfg.Scan.FixturesPath = opts.FixturesPath
	}

	level := cfg.Logging.Level
	if opts.Verbose {
		level = "debug"
	} else if level == "" || level == "info" || level == "debug" {
		level = "warn"
	}
	logx.Init(logx.Options{
		Environment: cfg.Server.Environment,
		Level:       level,
		Format:      cfg.Logging.Format,
		Output:      os.Stderr,
	})

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return app.Scans, app.Close, nil
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCommand(OpenApp)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// printJSON writes v as indented JSON
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
