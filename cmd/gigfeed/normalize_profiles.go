package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/gigfeed/internal/db"
	"github.com/jonathan/gigfeed/internal/observability"
	"github.com/jonathan/gigfeed/internal/profile"
	"github.com/jonathan/gigfeed/internal/types"
)

var normalizeProfilesCmd = &cobra.Command{
	Use:   "normalize-profiles",
	Short: "Recompute normalized profiles from stored raw profiles",
	Long:  "Recompute the deterministic normalized projection for every stored raw profile of a team and persist the results.",
	RunE:  runNormalizeProfiles,
}

var (
	profilesTeamID     string
	profilesConfigPath string
	profilesVerbose    bool
)

func init() {
	normalizeProfilesCmd.Flags().StringVarP(&profilesTeamID, "team", "t", "", "Team ID to normalize profiles for (required)")
	normalizeProfilesCmd.Flags().StringVarP(&profilesConfigPath, "config", "c", "", "Path to config JSON file")
	normalizeProfilesCmd.Flags().BoolVarP(&profilesVerbose, "verbose", "v", false, "Print the normalized profile")

	normalizeProfilesCmd.MarkFlagRequired("team")

	rootCmd.AddCommand(normalizeProfilesCmd)
}

func runNormalizeProfiles(cmd *cobra.Command, args []string) error {
	cfg, err := loadMergedConfig(profilesConfigPath)
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("database URL not configured (set DATABASE_URL or database_url)")
	}

	ctx := cmd.Context()
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	rows, err := database.ListRawProfiles(ctx, profilesTeamID)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no raw profiles stored for team %s", profilesTeamID)
	}

	printer := observability.NewPrinter(os.Stdout)
	now := time.Now().UTC()

	normalized := 0
	for _, row := range rows {
		var raw types.RawProfile
		if err := json.Unmarshal(row.Payload, &raw); err != nil {
			return fmt.Errorf("raw profile %s is malformed: %w", row.ID, err)
		}

		result := profile.NormalizeProfile(raw, profile.Options{
			ReferenceDate: now,
			NormalizedAt:  now,
		})

		if err := database.UpsertNormalizedProfile(ctx, row.TeamID, result); err != nil {
			return err
		}
		normalized++

		if profilesVerbose || cfg.Verbose {
			printer.PrintNormalizedProfile(&result)
		}
	}

	fmt.Fprintf(os.Stdout, "Normalized %d profile(s) for team %s\n", normalized, profilesTeamID)
	return nil
}
