package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	internalCmd "github.com/hainenber/sieve/internal/cmd"
	"github.com/hainenber/sieve/internal/config"
	"github.com/spf13/cobra"
)

var (
	LogLevel     string
	ConfigFile   string
	OutputPath   string
	OutputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "sieve [flags] [input...]",
	Short: "sieve turns semi-structured log lines into structured records",
	Long: `Sieve extracts timestamps, error types, base64 payloads and JSON fragments
from log lines and writes one normalized record per line as CSV or JSON Lines.
Inputs may be files, glob patterns or "-" for stdin, and override configured input paths.`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Intercept termination signals like Ctrl-C, stopping between lines
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		runner := internalCmd.Runner{
			ConfigFile:         ConfigFile,
			ConfigFileRequired: cmd.Flags().Changed("config-file"),
			LogLevel:           LogLevel,
			Inputs:             args,
			OutputPath:         OutputPath,
			OutputFormat:       OutputFormat,
		}
		summary, err := runner.Run(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%d records written, %d lines skipped\n", summary.Records, summary.Skipped)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&LogLevel, "log-level", "", "Log level, overrides \"log_level\" in config file")
	rootCmd.PersistentFlags().StringVar(&ConfigFile, "config-file", config.DefaultConfigPath, "Config file for sieve")
	rootCmd.Flags().StringVarP(&OutputPath, "output", "o", "", "Output path, \"-\" for stdout")
	rootCmd.Flags().StringVar(&OutputFormat, "format", "", "Output format. Eligible values are \"csv\", \"jsonl\"")

	rootCmd.AddCommand(versionCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
