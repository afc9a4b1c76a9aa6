package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"autosense/app"
	"autosense/internal"
	"autosense/internal/config"
	"autosense/internal/container"
	"autosense/internal/errors"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:           "autosense-cli",
		Short:         "AutoSense CLI for analyzing CSV and Excel files from the shell",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "WARN", "Log level (ERROR, WARN, INFO, DEBUG, TRACE)")

	env := &cliEnv{logLevel: &logLevel}
	rootCmd.AddCommand(
		newAnalyzeCmd(env),
		newIntentCmd(env),
		newQualityCmd(env),
		newCorrelationsCmd(env),
		newPruneCmd(env),
	)
	return rootCmd
}

// cliEnv builds the container lazily so that commands which never touch the
// analysis service do not pay for it.
type cliEnv struct {
	logLevel *string
}

func (e *cliEnv) container(ctx context.Context) (*container.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := internal.NewLogger(internal.ParseLogLevel(*e.logLevel, internal.LogLevelWarn))
	return container.New(ctx, cfg, logger)
}

func newAnalyzeCmd(env *cliEnv) *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Analyze a file and print charts, insights and quality as JSON",
		Long: `Run the full analysis for a CSV or Excel file.

Example: autosense-cli analyze sales.csv --query "top 5 regions by revenue"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			upload, err := readUpload(args[0])
			if err != nil {
				return err
			}
			c, err := env.container(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			result, err := c.Service.Analyze(cmd.Context(), upload, query)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "Natural-language question about the data")
	return cmd
}

func newIntentCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "intent [query]",
		Short: "Classify a query without loading data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := env.container(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())
			return printJSON(cmd, c.Service.ClassifyQuery(args[0]))
		},
	}
}

func newQualityCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "quality [file]",
		Short: "Print the data quality report for a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			upload, err := readUpload(args[0])
			if err != nil {
				return err
			}
			c, err := env.container(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			report, err := c.Service.Quality(cmd.Context(), upload)
			if err != nil {
				return err
			}
			return printJSON(cmd, report)
		},
	}
}

func newCorrelationsCmd(env *cliEnv) *cobra.Command {
	var threshold float64

	cmd := &cobra.Command{
		Use:   "correlations [file]",
		Short: "List strongly correlated numeric column pairs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			upload, err := readUpload(args[0])
			if err != nil {
				return err
			}
			c, err := env.container(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			pairs, err := c.Service.Correlations(cmd.Context(), upload, threshold)
			if err != nil {
				return err
			}
			return printJSON(cmd, pairs)
		},
	}

	cmd.Flags().Float64Var(&threshold, "threshold", -1, "Minimum |r| to report (negative uses CORRELATION_THRESHOLD)")
	return cmd
}

func newPruneCmd(env *cliEnv) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete stored analysis results older than --days",
		Long: `Delete analysis results persisted in PostgreSQL.

Requires DATABASE_URL. Example: autosense-cli prune --days 30`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 0 {
				return errors.InvalidInput("--days must not be negative")
			}
			c, err := env.container(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())
			if c.Repository == nil {
				return errors.ConfigInvalid("DATABASE_URL is required to prune stored analyses")
			}

			n, err := c.Repository.DeleteOlderThan(cmd.Context(), days)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d analyses older than %d days\n", n, days)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "Retention window in days")
	return cmd
}

func readUpload(path string) (app.Upload, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return app.Upload{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return app.Upload{Filename: filepath.Base(path), Content: content}, nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
