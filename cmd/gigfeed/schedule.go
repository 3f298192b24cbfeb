package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/jonathan/gigfeed/internal/ingest"
	"github.com/jonathan/gigfeed/internal/observability"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run ingestion on a recurring schedule",
	Long:  "Run the ingestion pass on a cron schedule (standard cron spec or @every duration). The first pass runs immediately; the process blocks until interrupted.",
	RunE:  runSchedule,
}

var (
	scheduleSpec       string
	schedulePlanPath   string
	scheduleConfigPath string
	scheduleVerbose    bool
)

func init() {
	scheduleCmd.Flags().StringVarP(&scheduleSpec, "every", "e", "", "Cron spec or @every duration, e.g. \"@every 30m\" (overrides config)")
	scheduleCmd.Flags().StringVarP(&schedulePlanPath, "plan", "p", "", "Path to query plan JSON file (required)")
	scheduleCmd.Flags().StringVarP(&scheduleConfigPath, "config", "c", "", "Path to config JSON file")
	scheduleCmd.Flags().BoolVarP(&scheduleVerbose, "verbose", "v", false, "Print detailed progress")

	scheduleCmd.MarkFlagRequired("plan")

	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, err := loadMergedConfig(scheduleConfigPath)
	if err != nil {
		return err
	}

	spec := scheduleSpec
	if spec == "" {
		spec = cfg.ScheduleEvery
	}
	if spec == "" {
		spec = "@every 1h"
	}

	plan, err := ingest.LoadPlanFile(schedulePlanPath)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	pipe, err := buildPipeline(ctx, cfg, scheduleVerbose || cfg.Verbose)
	if err != nil {
		return err
	}
	defer pipe.Close()

	printer := observability.NewPrinter(os.Stdout)
	runOnce := func() {
		summary, err := pipe.task.Run(ctx, plan.TeamID, plan.Queries)
		if summary != nil {
			printer.PrintRunSummary(summary)
		}
		if err != nil {
			log.Printf("scheduled run failed: %v", err)
		}
	}

	// First pass runs immediately; the scheduler handles the rest.
	runOnce()

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(spec, runOnce); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	log.Printf("scheduler running (%s), press Ctrl+C to stop", spec)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}

	log.Printf("scheduler stopping")
	return nil
}
