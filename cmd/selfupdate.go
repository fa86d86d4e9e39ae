package cmd

import (
	"context"
	"fmt"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

const githubRepository = "rebuildarr/buildarr-jellyseerr"

var checkOnly bool

// selfupdateCmd represents the selfupdate command
var selfupdateCmd = &cobra.Command{
	Use:               "selfupdate",
	Short:             "Update buildarr-jellyseerr to the latest release",
	Long:              `Check GitHub for a newer release and replace the running binary with it.`,
	PersistentPreRunE: initializeLogger,
	RunE:              runSelfupdate,
}

func init() {
	rootCmd.AddCommand(selfupdateCmd)

	selfupdateCmd.Flags().BoolVar(&checkOnly, "check-only", false, "only check whether a newer release exists")
}

func runSelfupdate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	latest, found, err := selfupdate.DetectLatest(ctx, selfupdate.ParseSlug(githubRepository))
	if err != nil {
		return fmt.Errorf("failed to check for updates: %w", err)
	}
	if !found || latest.LessOrEqual(appVersion) {
		logger.Info().Str("version", appVersion).Msg("Already running the latest version")
		return nil
	}

	logger.Info().
		Str("current", appVersion).
		Str("latest", latest.Version()).
		Msg("Update available")

	if checkOnly {
		return nil
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("could not locate executable: %w", err)
	}
	if err := selfupdate.UpdateTo(ctx, latest.AssetURL, latest.AssetName, exe); err != nil {
		return fmt.Errorf("failed to update binary: %w", err)
	}

	logger.Info().Str("version", latest.Version()).Msg("Successfully updated")
	return nil
}
