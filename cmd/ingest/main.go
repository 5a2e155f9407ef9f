// Package main implements the ingest CLI: profile ingestion and session
// maintenance against the upstream.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// configPath is the optional YAML config file
	configPath string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest upstream profiles into sectioned text documents",
	Long: `ingest fetches public profiles through a single authenticated upstream
session and renders them as documents of named text sections.

Configuration comes from an optional YAML file and INGEST_* environment
variables, e.g. INGEST_LINKEDIN_USERNAME and INGEST_SESSION_MIN_DELAY.`,
	Version:       version,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(historyCmd)
	sessionCmd.AddCommand(sessionLoginCmd)
	sessionCmd.AddCommand(sessionStatusCmd)
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "number of records to show")
}
