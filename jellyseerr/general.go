package jellyseerr

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rebuildarr/buildarr-jellyseerr/remotemap"
)

// GeneralSettings configures the main application options of a
// Jellyseerr instance.
type GeneralSettings struct {
	ApplicationTitle           string   `mapstructure:"application_title" yaml:"application_title"`
	ApplicationURL             string   `mapstructure:"application_url" yaml:"application_url"`
	EnableProxySupport         bool     `mapstructure:"enable_proxy_support" yaml:"enable_proxy_support"`
	EnableCSRFProtection       bool     `mapstructure:"enable_csrf_protection" yaml:"enable_csrf_protection"`
	EnableImageCaching         bool     `mapstructure:"enable_image_caching" yaml:"enable_image_caching"`
	DisplayLanguage            string   `mapstructure:"display_language" yaml:"display_language"`
	DiscoverRegion             string   `mapstructure:"discover_region" yaml:"discover_region"`
	DiscoverLanguages          []string `mapstructure:"discover_languages" yaml:"discover_languages"`
	HideAvailableMedia         bool     `mapstructure:"hide_available_media" yaml:"hide_available_media"`
	AllowPartialSeriesRequests bool     `mapstructure:"allow_partial_series_requests" yaml:"allow_partial_series_requests"`
}

// DefaultGeneralSettings returns the general settings a fresh
// Jellyseerr instance starts with.
func DefaultGeneralSettings() GeneralSettings {
	return GeneralSettings{
		ApplicationTitle:           "Jellyseerr",
		DisplayLanguage:            "en",
		AllowPartialSeriesRequests: true,
	}
}

func (s *GeneralSettings) Field(name string) (any, error) {
	switch name {
	case "application_title":
		return s.ApplicationTitle, nil
	case "application_url":
		return s.ApplicationURL, nil
	case "enable_proxy_support":
		return s.EnableProxySupport, nil
	case "enable_csrf_protection":
		return s.EnableCSRFProtection, nil
	case "enable_image_caching":
		return s.EnableImageCaching, nil
	case "display_language":
		return s.DisplayLanguage, nil
	case "discover_region":
		return s.DiscoverRegion, nil
	case "discover_languages":
		return s.DiscoverLanguages, nil
	case "hide_available_media":
		return s.HideAvailableMedia, nil
	case "allow_partial_series_requests":
		return s.AllowPartialSeriesRequests, nil
	}
	return nil, fmt.Errorf("unknown general settings field %q", name)
}

func (s *GeneralSettings) SetField(name string, value any) error {
	var err error
	switch name {
	case "application_title":
		s.ApplicationTitle, err = remotemap.String(value)
	case "application_url":
		s.ApplicationURL, err = remotemap.String(value)
	case "enable_proxy_support":
		s.EnableProxySupport, err = remotemap.Bool(value)
	case "enable_csrf_protection":
		s.EnableCSRFProtection, err = remotemap.Bool(value)
	case "enable_image_caching":
		s.EnableImageCaching, err = remotemap.Bool(value)
	case "display_language":
		s.DisplayLanguage, err = remotemap.String(value)
	case "discover_region":
		s.DiscoverRegion, err = remotemap.String(value)
	case "discover_languages":
		s.DiscoverLanguages, err = remotemap.StringSlice(value)
	case "hide_available_media":
		s.HideAvailableMedia, err = remotemap.Bool(value)
	case "allow_partial_series_requests":
		s.AllowPartialSeriesRequests, err = remotemap.Bool(value)
	default:
		return fmt.Errorf("unknown general settings field %q", name)
	}
	return err
}

func (s *GeneralSettings) remoteMap() []remotemap.Entry {
	return []remotemap.Entry{
		{Local: "application_title", Remote: "applicationTitle"},
		{Local: "application_url", Remote: "applicationUrl"},
		{Local: "enable_proxy_support", Remote: "trustProxy"},
		{Local: "enable_csrf_protection", Remote: "csrfProtection"},
		{Local: "enable_image_caching", Remote: "cacheImages"},
		{
			Local:  "display_language",
			Remote: "locale",
			// Sometimes comes back as an empty string.
			Decode: func(v any) (any, error) {
				locale, err := remotemap.String(v)
				if err != nil || locale == "" {
					return "en", err
				}
				return locale, nil
			},
		},
		{
			Local:  "discover_languages",
			Remote: "originalLanguage",
			Decode: func(v any) (any, error) {
				joined, err := remotemap.String(v)
				if err != nil || joined == "" {
					return []string(nil), err
				}
				languages := strings.Split(joined, "|")
				for i, language := range languages {
					languages[i] = strings.TrimSpace(language)
				}
				return languages, nil
			},
			Encode: func(v any) (any, error) {
				languages := v.([]string)
				if len(languages) == 0 {
					return "", nil
				}
				sorted := make([]string, len(languages))
				copy(sorted, languages)
				sort.Strings(sorted)
				return strings.Join(sorted, "|"), nil
			},
		},
		{Local: "discover_region", Remote: "region"},
		{Local: "hide_available_media", Remote: "hideAvailable"},
		{Local: "allow_partial_series_requests", Remote: "partialRequestsEnabled"},
	}
}

// GeneralFromRemote reads the active general settings from the
// instance.
func GeneralFromRemote(ctx context.Context, c *Client) (*GeneralSettings, error) {
	remote, err := c.MainSettings(ctx)
	if err != nil {
		return nil, err
	}
	settings := DefaultGeneralSettings()
	if err := remotemap.Decode(&settings, settings.remoteMap(), remote); err != nil {
		return nil, fmt.Errorf("general settings: %w", err)
	}
	return &settings, nil
}

// UpdateRemote pushes the desired general settings to the instance when
// they differ from the remote state. It reports whether an update was
// needed.
func (s *GeneralSettings) UpdateRemote(ctx context.Context, c *Client, tree string, remote *GeneralSettings, dryRun bool) (bool, error) {
	diff, err := remotemap.Diff(s, remote, s.remoteMap())
	if err != nil {
		return false, fmt.Errorf("general settings: %w", err)
	}
	if !diff.Changed {
		c.logger.Debug().Msgf("%s: remote configuration up to date", tree)
		return false, nil
	}
	logChanges(c.logger, tree, diff.Changes)
	if dryRun {
		return true, nil
	}
	if err := c.UpdateMainSettings(ctx, diff.Payload); err != nil {
		return false, fmt.Errorf("general settings: %w", err)
	}
	return true, nil
}

// Validate checks field formats that do not require contacting the instance.
func (s *GeneralSettings) Validate() error {
	return checkHTTPURL("application_url", s.ApplicationURL)
}
