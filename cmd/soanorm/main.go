package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tordrt/soanorm"
	"github.com/tordrt/soanorm/internal/builder"
	"github.com/tordrt/soanorm/internal/validate"
)

var (
	inputFile   string
	outputDir   string
	databaseURL string
	outputFile  string
	format      string
	runChecks   bool
	verbose     bool
)

var (
	configFile string
	listenAddr string
	dbPath     string
)

var rootCmd = &cobra.Command{
	Use:   "soanorm",
	Short: "Normalize a Schedule of Activities matrix into relational tables",
	Long: `soanorm reads a wide Schedule of Activities CSV (activities as rows, visits
as columns, free-text cells) and produces five referentially consistent
tables: visits, activities, visit-activity assignments, activity categories,
and extracted schedule rules.`,
	RunE: run,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the interactive SoA builder HTTP API",
	RunE:  serve,
}

func init() {
	rootCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input SoA CSV file (required)")
	rootCmd.Flags().StringVarP(&outputDir, "output-dir", "d", "", "Output directory for per-table CSV files")
	rootCmd.Flags().StringVar(&databaseURL, "db-url", "", "Database sink URL (sqlite://, postgres://, or mysql://)")
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Summary output file (default: stdout)")
	rootCmd.Flags().StringVarP(&format, "format", "f", "text", "Summary format: text or markdown (default: text)")
	rootCmd.Flags().BoolVar(&runChecks, "validate", false, "Run consistency checks and print findings to stderr")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log recoverable input problems")

	serveCmd.Flags().StringVarP(&configFile, "config", "c", "", "YAML config file")
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "HTTP listen address (overrides config)")
	serveCmd.Flags().StringVar(&dbPath, "db", "", "Builder SQLite database path (overrides config)")

	rootCmd.AddCommand(serveCmd)
}

// validateFlags checks the root command's flag combinations.
func validateFlags(input, format string) error {
	if input == "" {
		return fmt.Errorf("--input must be specified")
	}
	if format != "text" && format != "markdown" {
		return fmt.Errorf("invalid format: %s (must be 'text' or 'markdown')", format)
	}
	return nil
}

func run(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if err := validateFlags(inputFile, format); err != nil {
		return err
	}

	var opts soanorm.Options
	if verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		defer func() { _ = logger.Sync() }()
		opts.Logger = logger
	}

	outOpts := soanorm.OutputOptions{
		OutputDir:   outputDir,
		DatabaseURL: databaseURL,
		Format:      format,
	}

	// The summary goes to stdout unless CSV or database output was requested,
	// in which case it is only written when --output names a file.
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to close output file: %v\n", err)
			}
		}()
		outOpts.Writer = f
	} else if outputDir == "" && databaseURL == "" {
		outOpts.Writer = os.Stdout
	}

	tables, err := soanorm.NormalizeAndWrite(ctx, inputFile, &opts, &outOpts)
	if err != nil {
		return err
	}

	if runChecks {
		for _, f := range validate.Check(tables) {
			fmt.Fprintf(os.Stderr, "%s: %s\n", f.Code, f.Message)
		}
	}
	return nil
}

func serve(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg := builder.DefaultConfig()
	if configFile != "" {
		var err error
		cfg, err = builder.LoadConfig(configFile)
		if err != nil {
			return err
		}
	}
	if listenAddr != "" {
		cfg.Listen = listenAddr
	}
	if dbPath != "" {
		cfg.Database = dbPath
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	store, err := builder.OpenStore(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open builder database: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close builder database", zap.Error(err))
		}
	}()

	handlers := builder.NewHandlers(store, logger, cfg.NormalizedRoot)
	logger.Info("builder listening", zap.String("addr", cfg.Listen))
	if err := http.ListenAndServe(cfg.Listen, handlers.Router()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
