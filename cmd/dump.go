package cmd

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/rebuildarr/buildarr-jellyseerr/jellyseerr"
)

var dumpAPIKey string

// dumpCmd represents the dump command
var dumpCmd = &cobra.Command{
	Use:   "dump URL",
	Short: "Dump the configuration of a remote Jellyseerr instance",
	Long: `Read the full settings tree of a remote Jellyseerr instance and print
it to standard output as configuration-compatible YAML. The API key is
prompted for when not passed on the command line.`,
	Args:              cobra.ExactArgs(1),
	PersistentPreRunE: initializeLogger,
	RunE:              runDump,
}

func init() {
	rootCmd.AddCommand(dumpCmd)

	dumpCmd.Flags().StringVarP(&dumpAPIKey, "api-key", "k", "", "API key of the Jellyseerr instance (prompted when not set)")
}

// dumpDocument mirrors the layout of an instance configuration block.
type dumpDocument struct {
	Hostname string              `yaml:"hostname"`
	Port     int                 `yaml:"port"`
	Protocol string              `yaml:"protocol"`
	Settings jellyseerr.Settings `yaml:"settings"`
}

func runDump(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	protocol, hostname, port, err := parseInstanceURL(args[0])
	if err != nil {
		return err
	}

	apiKey := dumpAPIKey
	if apiKey == "" {
		apiKey, err = promptAPIKey()
		if err != nil {
			return err
		}
	}

	client, err := jellyseerr.New(ctx, jellyseerr.HostURL(protocol, hostname, port, ""), apiKey, logger)
	if err != nil {
		return err
	}

	settings, err := jellyseerr.SettingsFromRemote(ctx, client)
	if err != nil {
		return fmt.Errorf("failed to read remote configuration: %w", err)
	}

	out, err := yaml.Marshal(dumpDocument{
		Hostname: hostname,
		Port:     port,
		Protocol: protocol,
		Settings: *settings,
	})
	if err != nil {
		return fmt.Errorf("failed to render configuration: %w", err)
	}
	fmt.Print(string(out))
	return nil
}

// parseInstanceURL splits an instance URL into protocol, hostname and
// port, filling in the standard port for the protocol when absent.
func parseInstanceURL(raw string) (protocol, hostname string, port int, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", 0, fmt.Errorf("invalid instance URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", "", 0, fmt.Errorf("invalid instance URL %q: protocol must be http or https", raw)
	}
	if u.Hostname() == "" {
		return "", "", 0, fmt.Errorf("invalid instance URL %q: missing hostname", raw)
	}

	port = 80
	if u.Scheme == "https" {
		port = 443
	}
	if u.Port() != "" {
		port, err = strconv.Atoi(u.Port())
		if err != nil {
			return "", "", 0, fmt.Errorf("invalid instance URL %q: malformed port", raw)
		}
	}
	return u.Scheme, u.Hostname(), port, nil
}

// promptAPIKey reads the API key from the terminal without echoing it.
func promptAPIKey() (string, error) {
	fmt.Fprint(os.Stderr, "Jellyseerr instance API key: ")
	key, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read API key: %w", err)
	}
	return strings.TrimSpace(string(key)), nil
}
