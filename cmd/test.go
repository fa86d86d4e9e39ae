package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rebuildarr/buildarr-jellyseerr/jellyseerr"
)

// testCmd represents the test command
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test connections to all configured instances",
	Long: `Test the connection to every configured Jellyseerr instance and all
linked Radarr and Sonarr instances, and display basic information.`,
	RunE: runTest,
}

func init() {
	rootCmd.AddCommand(testCmd)
}

func runTest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	for _, name := range cfg.Jellyseerr.InstanceNames() {
		instance := cfg.Jellyseerr.Instance(name)
		fmt.Printf("Testing connection to Jellyseerr at %s...\n", instance.HostURL())

		client, err := jellyseerr.New(ctx, instance.HostURL(), instance.APIKey, logger,
			jellyseerr.WithTimeout(instance.RequestTimeout))
		if err != nil {
			return fmt.Errorf("instance '%s': %w", name, err)
		}

		initialized, err := client.IsInitialized(ctx)
		if err != nil {
			return fmt.Errorf("instance '%s': %w", name, err)
		}

		fmt.Println("✓ Connection successful!")
		fmt.Printf("- Version: %s\n", client.Version())
		fmt.Printf("- Initialized: %s\n", boolToStatus(initialized))
	}

	linked := len(cfg.Radarr.Instances) + len(cfg.Sonarr.Instances)
	if linked == 0 {
		fmt.Println("\nLinked Radarr/Sonarr instances: none configured")
		return nil
	}

	fmt.Printf("\nTesting %d linked instances...\n", linked)
	store := cfg.SecretsStore()
	if err := store.Probe(ctx, logger, cfg.Jellyseerr.RequestTimeout); err != nil {
		return err
	}
	fmt.Println("✓ All linked instances reachable!")
	return nil
}

func boolToStatus(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
