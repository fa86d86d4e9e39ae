package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rebuildarr/buildarr-jellyseerr/config"
	"github.com/rebuildarr/buildarr-jellyseerr/jellyseerr"
	"github.com/rebuildarr/buildarr-jellyseerr/secrets"
)

var dryRun bool

// applyCmd represents the apply command
var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply the configured settings to all Jellyseerr instances",
	Long: `Compare the configured settings trees with the live configuration of
every Jellyseerr instance and apply whatever differs. Instances that
have not completed their initial setup are initialized first.`,
	RunE: runApply,
}

func init() {
	rootCmd.AddCommand(applyCmd)

	applyCmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "log planned changes without applying them")
}

func runApply(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// Linked Radarr and Sonarr instances are probed up front, so a bad
	// credential fails the run before anything is changed.
	store := cfg.SecretsStore()
	if err := store.Probe(ctx, logger, cfg.Jellyseerr.RequestTimeout); err != nil {
		return fmt.Errorf("linked instance check failed: %w", err)
	}

	changed := false
	for _, name := range cfg.Jellyseerr.InstanceNames() {
		instance := cfg.Jellyseerr.Instance(name)
		instanceChanged, err := applyInstance(ctx, instanceTree(name), instance, store)
		if err != nil {
			return fmt.Errorf("instance '%s': %w", name, err)
		}
		changed = changed || instanceChanged
	}

	if dryRun {
		logger.Info().Msg("Dry run complete, no changes were applied")
	} else if changed {
		logger.Info().Msg("Remote configuration successfully updated")
	} else {
		logger.Info().Msg("Remote configuration is up to date")
	}
	return nil
}

// instanceTree returns the log prefix for one instance's settings tree.
func instanceTree(name string) string {
	if name == "default" {
		return "jellyseerr.settings"
	}
	return fmt.Sprintf("jellyseerr.instances['%s'].settings", name)
}

func applyInstance(ctx context.Context, tree string, instance config.InstanceConfig, store *secrets.Store) (bool, error) {
	setup, err := jellyseerr.NewSetup(instance.HostURL(), logger,
		jellyseerr.WithTimeout(instance.RequestTimeout))
	if err != nil {
		return false, err
	}
	initialized, err := setup.IsInitialized(ctx)
	if err != nil {
		return false, err
	}

	changed := false
	if !initialized {
		if dryRun {
			logger.Info().Msgf("%s: instance is not initialized, would initialize", tree)
			return true, nil
		}
		if err := instance.Settings.Jellyfin.Initialize(ctx, setup, tree+".jellyfin"); err != nil {
			return false, fmt.Errorf("initialize instance: %w", err)
		}
		changed = true
	}

	client, err := jellyseerr.New(ctx, instance.HostURL(), instance.APIKey, logger,
		jellyseerr.WithTimeout(instance.RequestTimeout))
	if err != nil {
		return changed, err
	}

	reconciler := jellyseerr.NewReconciler(client, store, logger, dryRun)
	reconciled, err := reconciler.Run(ctx, tree, &instance.Settings)
	return changed || reconciled, err
}
