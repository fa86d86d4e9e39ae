package jellyseerr

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rebuildarr/buildarr-jellyseerr/remotemap"
)

// JellyfinSettings configures the link between Jellyseerr and its
// Jellyfin media server.
//
// ServerURL, Username, Password and EmailAddress are only used when
// initializing a fresh Jellyseerr instance. ExternalURL and Libraries
// are reconciled on every run.
type JellyfinSettings struct {
	ServerURL    string   `mapstructure:"server_url" yaml:"server_url,omitempty"`
	Username     string   `mapstructure:"username" yaml:"username,omitempty"`
	Password     string   `mapstructure:"password" yaml:"password,omitempty"`
	EmailAddress string   `mapstructure:"email_address" yaml:"email_address,omitempty"`
	ExternalURL  string   `mapstructure:"external_url" yaml:"external_url"`
	Libraries    []string `mapstructure:"libraries" yaml:"libraries"`
}

func (s *JellyfinSettings) Field(name string) (any, error) {
	switch name {
	case "external_url":
		return s.ExternalURL, nil
	case "libraries":
		return s.Libraries, nil
	}
	return nil, fmt.Errorf("unknown jellyfin settings field %q", name)
}

func (s *JellyfinSettings) SetField(name string, value any) error {
	var err error
	switch name {
	case "external_url":
		s.ExternalURL, err = remotemap.String(value)
	case "libraries":
		s.Libraries, err = remotemap.StringSlice(value)
	default:
		return fmt.Errorf("unknown jellyfin settings field %q", name)
	}
	return err
}

// remoteMap maps the reconciled Jellyfin attributes. The library
// encoder needs the current library listing to translate names into
// the IDs the enable endpoint expects; decoding works without it.
func (s *JellyfinSettings) remoteMap(libraries []Library) []remotemap.Entry {
	return []remotemap.Entry{
		{Local: "external_url", Remote: "externalHostname"},
		{
			Local:  "libraries",
			Remote: "libraries",
			Decode: func(v any) (any, error) {
				remote, err := parseLibraries(v)
				if err != nil {
					return nil, err
				}
				var names []string
				for _, library := range remote {
					if library.Enabled {
						names = append(names, library.Name)
					}
				}
				sort.Strings(names)
				return names, nil
			},
			Encode: func(v any) (any, error) {
				enabled := v.([]string)
				var ids []string
				for _, library := range libraries {
					for _, name := range enabled {
						if library.Name == name {
							ids = append(ids, library.ID)
							break
						}
					}
				}
				sort.Strings(ids)
				return ids, nil
			},
		},
	}
}

func parseLibraries(value any) ([]Library, error) {
	items, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("expected library list, got %T", value)
	}
	libraries := make([]Library, 0, len(items))
	for _, item := range items {
		doc, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected library object, got %T", item)
		}
		id, err := remotemap.String(doc["id"])
		if err != nil {
			return nil, fmt.Errorf("library id: %w", err)
		}
		name, err := remotemap.String(doc["name"])
		if err != nil {
			return nil, fmt.Errorf("library name: %w", err)
		}
		enabled, _ := doc["enabled"].(bool)
		libraries = append(libraries, Library{ID: id, Name: name, Enabled: enabled})
	}
	return libraries, nil
}

// JellyfinFromRemote reads the active Jellyfin settings from the
// instance.
func JellyfinFromRemote(ctx context.Context, c *Client) (*JellyfinSettings, error) {
	remote, err := c.JellyfinSettings(ctx)
	if err != nil {
		return nil, err
	}
	var settings JellyfinSettings
	if err := remotemap.Decode(&settings, settings.remoteMap(nil), remote); err != nil {
		return nil, fmt.Errorf("jellyfin settings: %w", err)
	}
	return &settings, nil
}

// UpdateRemote pushes the desired Jellyfin settings to the instance
// when they differ from the remote state. Library changes go through
// the enable endpoint, everything else through the settings document.
func (s *JellyfinSettings) UpdateRemote(ctx context.Context, c *Client, tree string, remote *JellyfinSettings, dryRun bool) (bool, error) {
	current, err := c.JellyfinSettings(ctx)
	if err != nil {
		return false, err
	}
	libraries, err := parseLibraries(current["libraries"])
	if err != nil {
		return false, fmt.Errorf("jellyfin settings: %w", err)
	}

	diff, err := remotemap.Diff(s, remote, s.remoteMap(libraries))
	if err != nil {
		return false, fmt.Errorf("jellyfin settings: %w", err)
	}
	if !diff.Changed {
		c.logger.Debug().Msgf("%s: remote configuration up to date", tree)
		return false, nil
	}
	logChanges(c.logger, tree, diff.Changes)
	if dryRun {
		return true, nil
	}

	ids, _ := diff.Payload["libraries"].([]string)
	if _, err := c.EnableJellyfinLibraries(ctx, ids); err != nil {
		return false, fmt.Errorf("jellyfin settings: %w", err)
	}
	delete(diff.Payload, "libraries")
	if err := c.UpdateJellyfinSettings(ctx, diff.Payload); err != nil {
		return false, fmt.Errorf("jellyfin settings: %w", err)
	}
	return true, nil
}

// missingInitializeAttrs lists the attributes that still need to be
// configured before a fresh instance can be initialized automatically.
func (s *JellyfinSettings) missingInitializeAttrs() []string {
	var missing []string
	for _, attr := range []struct {
		name  string
		empty bool
	}{
		{"server_url", strings.TrimSpace(s.ServerURL) == ""},
		{"username", strings.TrimSpace(s.Username) == ""},
		{"password", s.Password == ""},
		{"email_address", strings.TrimSpace(s.EmailAddress) == ""},
		{"libraries", len(s.Libraries) == 0},
	} {
		if attr.empty {
			missing = append(missing, attr.name)
		}
	}
	return missing
}

// Initialize runs the initial setup wizard against a fresh Jellyseerr
// instance: sign in to the media server, sync and enable the configured
// libraries, then finalize. setup must be a NewSetup client so the
// session cookie from the sign-in carries across the calls.
func (s *JellyfinSettings) Initialize(ctx context.Context, setup *Client, tree string) error {
	if missing := s.missingInitializeAttrs(); len(missing) > 0 {
		for i, name := range missing {
			missing[i] = fmt.Sprintf("'%s.%s'", tree, name)
		}
		return fmt.Errorf(
			"unable to initialize jellyseerr instance, required attributes are missing: %s "+
				"(either initialize the instance manually, or set these attributes so it can be initialized automatically)",
			strings.Join(missing, ", "),
		)
	}

	setup.logger.Info().Msgf("%s: authenticating jellyseerr with jellyfin", tree)
	err := setup.SignInJellyfin(ctx, JellyfinAuth{
		Username: s.Username,
		Password: s.Password,
		Hostname: s.ServerURL,
		Email:    s.EmailAddress,
	})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == 500 &&
			strings.Contains(apiErr.Body, "Jellyfin") && strings.Contains(apiErr.Body, "configured") {
			return errors.New(
				"jellyseerr has already been configured with a jellyfin instance " +
					"but the session data has been lost, recreate the jellyseerr instance " +
					"and initialize it again",
			)
		}
		return err
	}

	setup.logger.Info().Msgf("%s: syncing jellyfin libraries", tree)
	libraries, err := setup.JellyfinLibraries(ctx, true)
	if err != nil {
		return err
	}

	var ids []string
	for _, name := range s.Libraries {
		found := false
		for _, library := range libraries {
			if library.Name == name {
				ids = append(ids, library.ID)
				found = true
				break
			}
		}
		if !found {
			available := make([]string, 0, len(libraries))
			for _, library := range libraries {
				available = append(available, "'"+library.Name+"'")
			}
			return fmt.Errorf(
				"enabled library '%s' not found in jellyfin (available libraries: %s)",
				name, strings.Join(available, ", "),
			)
		}
	}
	sort.Strings(ids)

	setup.logger.Info().Msgf("%s: enabling jellyfin libraries: %s", tree, strings.Join(s.Libraries, ", "))
	if _, err := setup.EnableJellyfinLibraries(ctx, ids); err != nil {
		return err
	}

	setup.logger.Info().Msgf("%s: finalizing initialization", tree)
	return setup.FinalizeInitialization(ctx)
}

// Validate checks field formats that do not require contacting the instance.
func (s *JellyfinSettings) Validate() error {
	if err := checkEmailAddress("email_address", s.EmailAddress); err != nil {
		return err
	}
	return checkHTTPURL("external_url", s.ExternalURL)
}
