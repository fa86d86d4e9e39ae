package jellyseerr

import (
	"context"
	"fmt"

	"github.com/rebuildarr/buildarr-jellyseerr/remotemap"
	"github.com/rebuildarr/buildarr-jellyseerr/resource"
	"github.com/rebuildarr/buildarr-jellyseerr/secrets"
)

// SonarrService defines one Sonarr server linked to Jellyseerr, used
// to fulfil series requests. Series classified as anime can be routed
// to separate folders, profiles and tags.
type SonarrService struct {
	ArrServerSettings `mapstructure:",squash" yaml:",inline"`

	RootFolder           string         `mapstructure:"root_folder" yaml:"root_folder"`
	QualityProfile       resource.Ref   `mapstructure:"quality_profile" yaml:"quality_profile"`
	LanguageProfile      resource.Ref   `mapstructure:"language_profile" yaml:"language_profile"`
	Tags                 []resource.Ref `mapstructure:"tags" yaml:"tags"`
	AnimeRootFolder      string         `mapstructure:"anime_root_folder" yaml:"anime_root_folder,omitempty"`
	AnimeQualityProfile  resource.Ref   `mapstructure:"anime_quality_profile" yaml:"anime_quality_profile,omitempty"`
	AnimeLanguageProfile resource.Ref   `mapstructure:"anime_language_profile" yaml:"anime_language_profile,omitempty"`
	AnimeTags            []resource.Ref `mapstructure:"anime_tags" yaml:"anime_tags"`
	EnableSeasonFolders  bool           `mapstructure:"enable_season_folders" yaml:"enable_season_folders"`
}

// DefaultSonarrService returns the defaults a Sonarr definition starts
// from before the configuration is applied on top.
func DefaultSonarrService() SonarrService {
	return SonarrService{
		ArrServerSettings: ArrServerSettings{
			Port:                  8989,
			EnableAutomaticSearch: true,
		},
	}
}

func (s *SonarrService) Field(name string) (any, error) {
	switch name {
	case "root_folder":
		return s.RootFolder, nil
	case "quality_profile":
		return s.QualityProfile, nil
	case "language_profile":
		return s.LanguageProfile, nil
	case "tags":
		return s.Tags, nil
	case "anime_root_folder":
		return s.AnimeRootFolder, nil
	case "anime_quality_profile":
		return s.AnimeQualityProfile, nil
	case "anime_language_profile":
		return s.AnimeLanguageProfile, nil
	case "anime_tags":
		return s.AnimeTags, nil
	case "enable_season_folders":
		return s.EnableSeasonFolders, nil
	}
	return s.ArrServerSettings.Field(name)
}

func (s *SonarrService) SetField(name string, value any) error {
	var err error
	switch name {
	case "root_folder":
		s.RootFolder, err = remotemap.String(value)
	case "quality_profile":
		s.QualityProfile, err = refValue(value)
	case "language_profile":
		s.LanguageProfile, err = refValue(value)
	case "tags":
		s.Tags, err = refList(value)
	case "anime_root_folder":
		s.AnimeRootFolder, err = remotemap.String(value)
	case "anime_quality_profile":
		s.AnimeQualityProfile, err = refValue(value)
	case "anime_language_profile":
		s.AnimeLanguageProfile, err = refValue(value)
	case "anime_tags":
		s.AnimeTags, err = refList(value)
	case "enable_season_folders":
		s.EnableSeasonFolders, err = remotemap.Bool(value)
	default:
		return s.ArrServerSettings.SetField(name, value)
	}
	return err
}

// remoteMap maps the full definition. Anime attributes are only sent
// when configured, since Jellyseerr treats them as overrides on top of
// the standard routing.
func (s *SonarrService) remoteMap(tables serviceTables) []remotemap.Entry {
	return append(s.baseRemoteMap(),
		remotemap.Entry{Local: "root_folder", Remote: "activeDirectory"},
		remotemap.Entry{
			Local:  "quality_profile",
			Remote: "activeProfileId",
			Decode: decodeRef,
			Encode: encodeRefID("quality profile", tables.profiles),
		},
		remotemap.Entry{
			Local:  "quality_profile",
			Remote: "activeProfileName",
			Decode: decodeRef,
			Encode: encodeRefValue,
		},
		remotemap.Entry{
			Local:  "language_profile",
			Remote: "activeLanguageProfileId",
			Decode: decodeRef,
			Encode: encodeRefID("language profile", tables.languageProfiles),
		},
		remotemap.Entry{
			Local:  "tags",
			Remote: "tags",
			Decode: decodeRefList,
			Encode: encodeRefIDs("tag", tables.tags),
		},
		remotemap.Entry{Local: "anime_root_folder", Remote: "activeAnimeDirectory"},
		remotemap.Entry{
			Local:    "anime_quality_profile",
			Remote:   "activeAnimeProfileId",
			Optional: true,
			SetIf:    refSet,
			Decode:   decodeRef,
			Encode:   encodeRefID("quality profile", tables.profiles),
		},
		remotemap.Entry{
			Local:    "anime_quality_profile",
			Remote:   "activeAnimeProfileName",
			Optional: true,
			SetIf:    refSet,
			Decode:   decodeRef,
			Encode:   encodeRefValue,
		},
		remotemap.Entry{
			Local:    "anime_language_profile",
			Remote:   "activeAnimeLanguageProfileId",
			Optional: true,
			SetIf:    refSet,
			Decode:   decodeRef,
			Encode:   encodeRefID("language profile", tables.languageProfiles),
		},
		remotemap.Entry{
			Local:  "anime_tags",
			Remote: "animeTags",
			Decode: decodeRefList,
			Encode: encodeRefIDs("tag", tables.tags),
		},
		remotemap.Entry{Local: "enable_season_folders", Remote: "enableSeasonFolders"},
	)
}

// resolve returns a copy of the definition with the effective API key
// applied and every profile and tag reference canonicalized against
// the server's resource tables. Anime overrides resolve only when set.
func (s *SonarrService) resolve(apiKey string, tables serviceTables, required bool) (*SonarrService, error) {
	resolved := *s
	resolved.APIKey = apiKey
	if err := tables.checkRootFolder(s.RootFolder, required); err != nil {
		return nil, err
	}
	var err error
	if resolved.QualityProfile, err = resource.Resolve("quality profile", tables.profiles, s.QualityProfile, required); err != nil {
		return nil, err
	}
	if resolved.LanguageProfile, err = resource.Resolve("language profile", tables.languageProfiles, s.LanguageProfile, required); err != nil {
		return nil, err
	}
	if resolved.Tags, err = resolveRefs("tag", tables.tags, s.Tags, required); err != nil {
		return nil, err
	}
	if !s.AnimeQualityProfile.IsZero() {
		if resolved.AnimeQualityProfile, err = resource.Resolve("quality profile", tables.profiles, s.AnimeQualityProfile, required); err != nil {
			return nil, err
		}
	}
	if !s.AnimeLanguageProfile.IsZero() {
		if resolved.AnimeLanguageProfile, err = resource.Resolve("language profile", tables.languageProfiles, s.AnimeLanguageProfile, required); err != nil {
			return nil, err
		}
	}
	if resolved.AnimeTags, err = resolveRefs("tag", tables.tags, s.AnimeTags, required); err != nil {
		return nil, err
	}
	return &resolved, nil
}

// SonarrSettings manages the set of Sonarr server definitions linked
// to a Jellyseerr instance, keyed by the server name shown in the UI.
type SonarrSettings struct {
	DeleteUnmanaged bool                     `mapstructure:"delete_unmanaged" yaml:"delete_unmanaged"`
	Definitions     map[string]SonarrService `mapstructure:"definitions" yaml:"definitions"`
}

// Validate checks the definition set for conflicts before any remote
// call is made.
func (s *SonarrSettings) Validate() error {
	for _, name := range sortedNames(s.Definitions) {
		definition := s.Definitions[name]
		if definition.InstanceName == "" && definition.APIKey == "" {
			return fmt.Errorf("definitions['%s'].api_key: required when 'instance_name' is not defined", name)
		}
		if definition.Hostname == "" {
			return fmt.Errorf("definitions['%s'].hostname: required", name)
		}
		if definition.RootFolder == "" {
			return fmt.Errorf("definitions['%s'].root_folder: required", name)
		}
		if definition.QualityProfile.IsZero() {
			return fmt.Errorf("definitions['%s'].quality_profile: required", name)
		}
		if definition.LanguageProfile.IsZero() {
			return fmt.Errorf("definitions['%s'].language_profile: required", name)
		}
	}
	servers := make(map[string]ArrServerSettings, len(s.Definitions))
	for name, definition := range s.Definitions {
		servers[name] = definition.ArrServerSettings
	}
	return checkDefaultSlots(servers)
}

// SonarrFromRemote reads every Sonarr definition currently linked to
// the instance.
func SonarrFromRemote(ctx context.Context, c *Client) (*SonarrSettings, error) {
	services, err := c.ListServices(ctx, ServiceSonarr)
	if err != nil {
		return nil, err
	}
	settings := &SonarrSettings{Definitions: make(map[string]SonarrService, len(services))}
	for _, doc := range services {
		name, err := remotemap.String(doc["name"])
		if err != nil {
			return nil, fmt.Errorf("sonarr service name: %w", err)
		}
		service := DefaultSonarrService()
		if err := remotemap.Decode(&service, service.remoteMap(serviceTables{}), doc); err != nil {
			return nil, fmt.Errorf("sonarr service '%s': %w", name, err)
		}
		settings.Definitions[name] = service
	}
	return settings, nil
}

// UpdateRemote reconciles the configured Sonarr definitions against the
// remote state, creating missing servers and updating drifted ones. It
// reports whether anything had to change.
func (s *SonarrSettings) UpdateRemote(ctx context.Context, c *Client, store *secrets.Store, tree string, remote *SonarrSettings, dryRun bool) (bool, error) {
	serviceIDs, err := listServiceIDs(ctx, c, ServiceSonarr)
	if err != nil {
		return false, err
	}
	changed := false
	for _, name := range sortedNames(s.Definitions) {
		service := s.Definitions[name]
		serviceTree := fmt.Sprintf("%s.definitions['%s']", tree, name)

		apiKey, err := service.effectiveAPIKey(store, ServiceSonarr)
		if err != nil {
			return changed, fmt.Errorf("%s: %w", serviceTree, err)
		}
		metadata, err := c.TestService(ctx, ServiceSonarr, service.testPayload(apiKey))
		if err != nil {
			return changed, fmt.Errorf("%s: %w", serviceTree, err)
		}
		tables := newServiceTables(metadata)

		resolved, err := service.resolve(apiKey, tables, true)
		if err != nil {
			return changed, fmt.Errorf("%s: %w", serviceTree, err)
		}

		remoteService, exists := remote.Definitions[name]
		if !exists {
			c.logger.Info().Msgf("%s: (...) -> (created)", serviceTree)
			if !dryRun {
				payload, err := remotemap.Encode(resolved, resolved.remoteMap(tables))
				if err != nil {
					return changed, fmt.Errorf("%s: %w", serviceTree, err)
				}
				payload["name"] = name
				if err := c.CreateService(ctx, ServiceSonarr, payload); err != nil {
					return changed, fmt.Errorf("%s: %w", serviceTree, err)
				}
			}
			changed = true
			continue
		}

		remoteResolved, err := remoteService.resolve(apiKey, tables, false)
		if err != nil {
			return changed, fmt.Errorf("%s: %w", serviceTree, err)
		}
		diff, err := remotemap.Diff(resolved, remoteResolved, resolved.remoteMap(tables))
		if err != nil {
			return changed, fmt.Errorf("%s: %w", serviceTree, err)
		}
		if !diff.Changed {
			c.logger.Debug().Msgf("%s: remote configuration up to date", serviceTree)
			continue
		}
		logChanges(c.logger, serviceTree, diff.Changes)
		if !dryRun {
			id, ok := serviceIDs[name]
			if !ok {
				return changed, fmt.Errorf("%s: service not found on the instance", serviceTree)
			}
			diff.Payload["name"] = name
			if err := c.UpdateService(ctx, ServiceSonarr, id, diff.Payload); err != nil {
				return changed, fmt.Errorf("%s: %w", serviceTree, err)
			}
		}
		changed = true
	}
	return changed, nil
}

// DeleteRemote removes remote Sonarr definitions that are not managed
// in the configuration, when unmanaged deletion is enabled. Otherwise
// they are only reported.
func (s *SonarrSettings) DeleteRemote(ctx context.Context, c *Client, tree string, remote *SonarrSettings, dryRun bool) (bool, error) {
	serviceIDs, err := listServiceIDs(ctx, c, ServiceSonarr)
	if err != nil {
		return false, err
	}
	changed := false
	for _, name := range sortedNames(remote.Definitions) {
		if _, managed := s.Definitions[name]; managed {
			continue
		}
		serviceTree := fmt.Sprintf("%s.definitions['%s']", tree, name)
		if !s.DeleteUnmanaged {
			c.logger.Debug().Msgf("%s: (...) (unmanaged)", serviceTree)
			continue
		}
		c.logger.Info().Msgf("%s: (...) -> (deleted)", serviceTree)
		if !dryRun {
			id, ok := serviceIDs[name]
			if !ok {
				return changed, fmt.Errorf("%s: service not found on the instance", serviceTree)
			}
			if err := c.DeleteService(ctx, ServiceSonarr, id); err != nil {
				return changed, fmt.Errorf("%s: %w", serviceTree, err)
			}
		}
		changed = true
	}
	return changed, nil
}
