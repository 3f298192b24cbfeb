// Package main provides the entry point for the gigfeed ingestion CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gigfeed",
	Short: "Freelance job ingestion pipeline",
	Long:  "Gigfeed searches freelance platforms through a failover provider router, normalizes postings into canonical jobs, and persists them idempotently per team.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
