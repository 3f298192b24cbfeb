package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/gigfeed/internal/ingest"
	"github.com/jonathan/gigfeed/internal/observability"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run one ingestion pass for a query plan file",
	Long:  "Run one ingestion pass: search every planned query through the provider router, normalize results, and persist them for the plan's team.",
	RunE:  runIngest,
}

var (
	ingestPlanPath   string
	ingestConfigPath string
	ingestVerbose    bool
)

func init() {
	ingestCmd.Flags().StringVarP(&ingestPlanPath, "plan", "p", "", "Path to query plan JSON file (required)")
	ingestCmd.Flags().StringVarP(&ingestConfigPath, "config", "c", "", "Path to config JSON file")
	ingestCmd.Flags().BoolVarP(&ingestVerbose, "verbose", "v", false, "Print detailed progress")

	ingestCmd.MarkFlagRequired("plan")

	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadMergedConfig(ingestConfigPath)
	if err != nil {
		return err
	}

	plan, err := ingest.LoadPlanFile(ingestPlanPath)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	pipe, err := buildPipeline(ctx, cfg, ingestVerbose || cfg.Verbose)
	if err != nil {
		return err
	}
	defer pipe.Close()

	printer := observability.NewPrinter(os.Stdout)
	if ingestVerbose || cfg.Verbose {
		printer.PrintQueryPlans(plan.Queries)
	}

	summary, err := pipe.task.Run(ctx, plan.TeamID, plan.Queries)
	if summary != nil {
		printer.PrintRunSummary(summary)
	}
	if err != nil {
		return fmt.Errorf("ingestion run failed: %w", err)
	}

	return nil
}
