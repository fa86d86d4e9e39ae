package jellyseerr

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rebuildarr/buildarr-jellyseerr/remotemap"
)

// Settings is the full managed settings tree of a Jellyseerr instance.
type Settings struct {
	General       GeneralSettings       `mapstructure:"general" yaml:"general"`
	Jellyfin      JellyfinSettings      `mapstructure:"jellyfin" yaml:"jellyfin"`
	Users         UsersSettings         `mapstructure:"users" yaml:"users"`
	Radarr        RadarrSettings        `mapstructure:"radarr" yaml:"radarr"`
	Sonarr        SonarrSettings        `mapstructure:"sonarr" yaml:"sonarr"`
	Notifications NotificationsSettings `mapstructure:"notifications" yaml:"notifications"`
}

// DefaultSettings returns the settings tree a fresh Jellyseerr
// instance starts with.
func DefaultSettings() Settings {
	return Settings{
		General:       DefaultGeneralSettings(),
		Users:         DefaultUsersSettings(),
		Notifications: DefaultNotificationsSettings(),
	}
}

// Validate checks the settings tree for conflicts and malformed values
// that can be caught without contacting the instance.
func (s *Settings) Validate() error {
	if err := s.General.Validate(); err != nil {
		return fmt.Errorf("general: %w", err)
	}
	if err := s.Jellyfin.Validate(); err != nil {
		return fmt.Errorf("jellyfin: %w", err)
	}
	if err := s.Users.Validate(); err != nil {
		return fmt.Errorf("users: %w", err)
	}
	if err := s.Radarr.Validate(); err != nil {
		return fmt.Errorf("radarr: %w", err)
	}
	if err := s.Sonarr.Validate(); err != nil {
		return fmt.Errorf("sonarr: %w", err)
	}
	if err := s.Notifications.Validate(); err != nil {
		return fmt.Errorf("notifications: %w", err)
	}
	return nil
}

// SettingsFromRemote reads the full settings tree from the instance.
func SettingsFromRemote(ctx context.Context, c *Client) (*Settings, error) {
	general, err := GeneralFromRemote(ctx, c)
	if err != nil {
		return nil, err
	}
	jellyfin, err := JellyfinFromRemote(ctx, c)
	if err != nil {
		return nil, err
	}
	users, err := UsersFromRemote(ctx, c)
	if err != nil {
		return nil, err
	}
	radarr, err := RadarrFromRemote(ctx, c)
	if err != nil {
		return nil, err
	}
	sonarr, err := SonarrFromRemote(ctx, c)
	if err != nil {
		return nil, err
	}
	notifications, err := NotificationsFromRemote(ctx, c)
	if err != nil {
		return nil, err
	}
	return &Settings{
		General:       *general,
		Jellyfin:      *jellyfin,
		Users:         *users,
		Radarr:        *radarr,
		Sonarr:        *sonarr,
		Notifications: *notifications,
	}, nil
}

// secretFields lists local field names whose values never appear in
// change logs.
var secretFields = map[string]bool{
	"api_key":              true,
	"user_key":             true,
	"access_token":         true,
	"password":             true,
	"smtp_password":        true,
	"pgp_private_key":      true,
	"pgp_password":         true,
	"authorization_header": true,
}

// logChanges reports each field whose desired value differs from the
// remote state, in the order the remote map declares them.
func logChanges(logger zerolog.Logger, tree string, changes []remotemap.FieldChange) {
	for _, change := range changes {
		if secretFields[change.Field] {
			logger.Info().Msgf("%s.%s: (secret) -> (secret)", tree, change.Field)
			continue
		}
		logger.Info().Msgf("%s.%s: %s -> %s",
			tree, change.Field, formatValue(change.Old), formatValue(change.New))
	}
}

// formatValue renders a local-form field value for change logs.
func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "<unset>"
	case string:
		return fmt.Sprintf("'%s'", v)
	}
	return fmt.Sprintf("%v", value)
}
