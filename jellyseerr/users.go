package jellyseerr

import (
	"context"
	"fmt"

	"github.com/rebuildarr/buildarr-jellyseerr/remotemap"
)

// UsersSettings configures how Jellyseerr handles user sign-ins,
// request quotas and the permissions granted to new users.
type UsersSettings struct {
	EnableLocalSignin        bool         `mapstructure:"enable_local_signin" yaml:"enable_local_signin"`
	EnableNewJellyfinSignin  bool         `mapstructure:"enable_new_jellyfin_signin" yaml:"enable_new_jellyfin_signin"`
	GlobalMovieRequestLimit  int          `mapstructure:"global_movie_request_limit" yaml:"global_movie_request_limit"`
	GlobalMovieRequestDays   int          `mapstructure:"global_movie_request_days" yaml:"global_movie_request_days"`
	GlobalSeriesRequestLimit int          `mapstructure:"global_series_request_limit" yaml:"global_series_request_limit"`
	GlobalSeriesRequestDays  int          `mapstructure:"global_series_request_days" yaml:"global_series_request_days"`
	DefaultPermissions       []Permission `mapstructure:"default_permissions" yaml:"default_permissions"`
}

// DefaultUsersSettings returns the users settings a fresh Jellyseerr
// instance starts with. Request limits of zero mean unlimited.
func DefaultUsersSettings() UsersSettings {
	return UsersSettings{
		EnableLocalSignin:       true,
		EnableNewJellyfinSignin: true,
		GlobalMovieRequestDays:  7,
		GlobalSeriesRequestDays: 7,
		DefaultPermissions:      []Permission{PermissionRequest, PermissionRequest4K},
	}
}

func (s *UsersSettings) Field(name string) (any, error) {
	switch name {
	case "enable_local_signin":
		return s.EnableLocalSignin, nil
	case "enable_new_jellyfin_signin":
		return s.EnableNewJellyfinSignin, nil
	case "global_movie_request_limit":
		return s.GlobalMovieRequestLimit, nil
	case "global_movie_request_days":
		return s.GlobalMovieRequestDays, nil
	case "global_series_request_limit":
		return s.GlobalSeriesRequestLimit, nil
	case "global_series_request_days":
		return s.GlobalSeriesRequestDays, nil
	case "default_permissions":
		return s.DefaultPermissions, nil
	}
	return nil, fmt.Errorf("unknown users settings field %q", name)
}

func (s *UsersSettings) SetField(name string, value any) error {
	var err error
	switch name {
	case "enable_local_signin":
		s.EnableLocalSignin, err = remotemap.Bool(value)
	case "enable_new_jellyfin_signin":
		s.EnableNewJellyfinSignin, err = remotemap.Bool(value)
	case "global_movie_request_limit":
		s.GlobalMovieRequestLimit, err = remotemap.Int(value)
	case "global_movie_request_days":
		s.GlobalMovieRequestDays, err = remotemap.Int(value)
	case "global_series_request_limit":
		s.GlobalSeriesRequestLimit, err = remotemap.Int(value)
	case "global_series_request_days":
		s.GlobalSeriesRequestDays, err = remotemap.Int(value)
	case "default_permissions":
		permissions, ok := value.([]Permission)
		if !ok {
			return fmt.Errorf("expected permission set, got %T", value)
		}
		s.DefaultPermissions = permissions
	default:
		return fmt.Errorf("unknown users settings field %q", name)
	}
	return err
}

func (s *UsersSettings) remoteMap() []remotemap.Entry {
	return []remotemap.Entry{
		{Local: "enable_local_signin", Remote: "localLogin"},
		{Local: "enable_new_jellyfin_signin", Remote: "newPlexLogin"},
		{Local: "global_movie_request_limit", Remote: "movieQuotaLimit"},
		{Local: "global_movie_request_days", Remote: "movieQuotaDays"},
		{Local: "global_series_request_limit", Remote: "tvQuotaLimit"},
		{Local: "global_series_request_days", Remote: "tvQuotaDays"},
		{
			Local:  "default_permissions",
			Remote: "defaultPermissions",
			Decode: func(v any) (any, error) {
				mask, err := remotemap.Int64(v)
				if err != nil {
					return nil, err
				}
				return DecodePermissions(mask)
			},
			Encode: func(v any) (any, error) {
				return EncodePermissions(v.([]Permission)), nil
			},
		},
	}
}

// The request quotas live in a nested defaultQuotas object on the main
// settings document, while the remote map works on flat attributes.
// flattenDefaultQuotas lifts the nested values into flat quota
// attributes on decode, and nestDefaultQuotas folds them back into the
// update payload.

func flattenDefaultQuotas(remote map[string]any) error {
	quotas, _ := remote["defaultQuotas"].(map[string]any)
	delete(remote, "defaultQuotas")

	defaults := DefaultUsersSettings()
	for category, fallback := range map[string]struct{ limit, days int }{
		"movie": {defaults.GlobalMovieRequestLimit, defaults.GlobalMovieRequestDays},
		"tv":    {defaults.GlobalSeriesRequestLimit, defaults.GlobalSeriesRequestDays},
	} {
		categoryQuotas, _ := quotas[category].(map[string]any)

		limit := fallback.limit
		if raw, ok := categoryQuotas["quotaLimit"]; ok {
			var err error
			if limit, err = remotemap.Int(raw); err != nil {
				return fmt.Errorf("defaultQuotas.%s.quotaLimit: %w", category, err)
			}
		}
		days := fallback.days
		if raw, ok := categoryQuotas["quotaDays"]; ok {
			var err error
			if days, err = remotemap.Int(raw); err != nil {
				return fmt.Errorf("defaultQuotas.%s.quotaDays: %w", category, err)
			}
		}

		remote[category+"QuotaLimit"] = limit
		remote[category+"QuotaDays"] = days
	}
	return nil
}

func nestDefaultQuotas(payload map[string]any) {
	payload["defaultQuotas"] = map[string]any{
		"movie": map[string]any{
			"quotaLimit": payload["movieQuotaLimit"],
			"quotaDays":  payload["movieQuotaDays"],
		},
		"tv": map[string]any{
			"quotaLimit": payload["tvQuotaLimit"],
			"quotaDays":  payload["tvQuotaDays"],
		},
	}
	for _, key := range []string{"movieQuotaLimit", "movieQuotaDays", "tvQuotaLimit", "tvQuotaDays"} {
		delete(payload, key)
	}
}

// UsersFromRemote reads the active users settings from the instance.
func UsersFromRemote(ctx context.Context, c *Client) (*UsersSettings, error) {
	remote, err := c.MainSettings(ctx)
	if err != nil {
		return nil, err
	}
	if err := flattenDefaultQuotas(remote); err != nil {
		return nil, fmt.Errorf("users settings: %w", err)
	}
	settings := DefaultUsersSettings()
	if err := remotemap.Decode(&settings, settings.remoteMap(), remote); err != nil {
		return nil, fmt.Errorf("users settings: %w", err)
	}
	return &settings, nil
}

// UpdateRemote pushes the desired users settings to the instance when
// they differ from the remote state. It reports whether an update was
// needed.
func (s *UsersSettings) UpdateRemote(ctx context.Context, c *Client, tree string, remote *UsersSettings, dryRun bool) (bool, error) {
	diff, err := remotemap.Diff(s, remote, s.remoteMap())
	if err != nil {
		return false, fmt.Errorf("users settings: %w", err)
	}
	if !diff.Changed {
		c.logger.Debug().Msgf("%s: remote configuration up to date", tree)
		return false, nil
	}
	logChanges(c.logger, tree, diff.Changes)
	if dryRun {
		return true, nil
	}
	nestDefaultQuotas(diff.Payload)
	if err := c.UpdateMainSettings(ctx, diff.Payload); err != nil {
		return false, fmt.Errorf("users settings: %w", err)
	}
	return true, nil
}

// Validate checks that the default permission set does not grant a
// permission whose prerequisite is missing.
func (s *UsersSettings) Validate() error {
	if _, err := ReducePermissions(s.DefaultPermissions); err != nil {
		return fmt.Errorf("default_permissions: %w", err)
	}
	return nil
}
