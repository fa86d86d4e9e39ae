package jellyseerr

import (
	"context"
	"fmt"

	"github.com/rebuildarr/buildarr-jellyseerr/remotemap"
	"github.com/rebuildarr/buildarr-jellyseerr/resource"
	"github.com/rebuildarr/buildarr-jellyseerr/secrets"
)

// MinimumAvailability is the release stage at which a requested movie
// is added to Radarr.
type MinimumAvailability string

const (
	AvailabilityAnnounced MinimumAvailability = "announced"
	AvailabilityInCinemas MinimumAvailability = "in-cinemas"
	AvailabilityReleased  MinimumAvailability = "released"
)

// minimumAvailabilityWire maps each stage to the value Jellyseerr
// stores.
var minimumAvailabilityWire = map[MinimumAvailability]string{
	AvailabilityAnnounced: "announced",
	AvailabilityInCinemas: "inCinemas",
	AvailabilityReleased:  "released",
}

func (m MinimumAvailability) String() string { return string(m) }

// MarshalYAML renders the stage under its configuration name.
func (m MinimumAvailability) MarshalYAML() (any, error) { return string(m), nil }

// ParseMinimumAvailability converts a configuration name into a
// MinimumAvailability. The remote spelling is accepted as well.
func ParseMinimumAvailability(name string) (MinimumAvailability, error) {
	for stage, wire := range minimumAvailabilityWire {
		if name == string(stage) || name == wire {
			return stage, nil
		}
	}
	return "", fmt.Errorf("unknown minimum availability %q", name)
}

func decodeMinimumAvailability(value any) (any, error) {
	wire, err := remotemap.String(value)
	if err != nil {
		return nil, err
	}
	for stage, stored := range minimumAvailabilityWire {
		if wire == stored {
			return stage, nil
		}
	}
	return nil, fmt.Errorf("unknown minimum availability %q", wire)
}

func encodeMinimumAvailability(value any) (any, error) {
	stage, ok := value.(MinimumAvailability)
	if !ok {
		return nil, fmt.Errorf("expected minimum availability, got %T", value)
	}
	wire, ok := minimumAvailabilityWire[stage]
	if !ok {
		return nil, fmt.Errorf("unknown minimum availability %q", stage)
	}
	return wire, nil
}

// RadarrService defines one Radarr server linked to Jellyseerr, used
// to fulfil movie requests.
type RadarrService struct {
	ArrServerSettings `mapstructure:",squash" yaml:",inline"`

	RootFolder          string              `mapstructure:"root_folder" yaml:"root_folder"`
	QualityProfile      resource.Ref        `mapstructure:"quality_profile" yaml:"quality_profile"`
	MinimumAvailability MinimumAvailability `mapstructure:"minimum_availability" yaml:"minimum_availability"`
	Tags                []resource.Ref      `mapstructure:"tags" yaml:"tags"`
}

// DefaultRadarrService returns the defaults a Radarr definition starts
// from before the configuration is applied on top.
func DefaultRadarrService() RadarrService {
	return RadarrService{
		ArrServerSettings: ArrServerSettings{
			Port:                  7878,
			EnableAutomaticSearch: true,
		},
		MinimumAvailability: AvailabilityReleased,
	}
}

func (s *RadarrService) Field(name string) (any, error) {
	switch name {
	case "root_folder":
		return s.RootFolder, nil
	case "quality_profile":
		return s.QualityProfile, nil
	case "minimum_availability":
		return s.MinimumAvailability, nil
	case "tags":
		return s.Tags, nil
	}
	return s.ArrServerSettings.Field(name)
}

func (s *RadarrService) SetField(name string, value any) error {
	var err error
	switch name {
	case "root_folder":
		s.RootFolder, err = remotemap.String(value)
	case "quality_profile":
		s.QualityProfile, err = refValue(value)
	case "minimum_availability":
		stage, ok := value.(MinimumAvailability)
		if !ok {
			return fmt.Errorf("expected minimum availability, got %T", value)
		}
		s.MinimumAvailability = stage
	case "tags":
		s.Tags, err = refList(value)
	default:
		return s.ArrServerSettings.SetField(name, value)
	}
	return err
}

// remoteMap maps the full definition. The quality profile feeds both
// the remote ID and name attributes, with the name winning on decode
// so reads come back in resolved form.
func (s *RadarrService) remoteMap(tables serviceTables) []remotemap.Entry {
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
			Local:  "tags",
			Remote: "tags",
			Decode: decodeRefList,
			Encode: encodeRefIDs("tag", tables.tags),
		},
		remotemap.Entry{
			Local:    "minimum_availability",
			Remote:   "minimumAvailability",
			Optional: true,
			Decode:   decodeMinimumAvailability,
			Encode:   encodeMinimumAvailability,
		},
	)
}

// resolve returns a copy of the definition with the effective API key
// applied and profile and tag references canonicalized against the
// server's resource tables. When required is false unknown references
// pass through, preserving unmanaged remote state.
func (s *RadarrService) resolve(apiKey string, tables serviceTables, required bool) (*RadarrService, error) {
	resolved := *s
	resolved.APIKey = apiKey
	if err := tables.checkRootFolder(s.RootFolder, required); err != nil {
		return nil, err
	}
	var err error
	if resolved.QualityProfile, err = resource.Resolve("quality profile", tables.profiles, s.QualityProfile, required); err != nil {
		return nil, err
	}
	if resolved.Tags, err = resolveRefs("tag", tables.tags, s.Tags, required); err != nil {
		return nil, err
	}
	return &resolved, nil
}

// RadarrSettings manages the set of Radarr server definitions linked
// to a Jellyseerr instance, keyed by the server name shown in the UI.
type RadarrSettings struct {
	DeleteUnmanaged bool                     `mapstructure:"delete_unmanaged" yaml:"delete_unmanaged"`
	Definitions     map[string]RadarrService `mapstructure:"definitions" yaml:"definitions"`
}

// Validate checks the definition set for conflicts before any remote
// call is made.
func (s *RadarrSettings) Validate() error {
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
	}
	servers := make(map[string]ArrServerSettings, len(s.Definitions))
	for name, definition := range s.Definitions {
		servers[name] = definition.ArrServerSettings
	}
	return checkDefaultSlots(servers)
}

// RadarrFromRemote reads every Radarr definition currently linked to
// the instance. Profile references decode to names and tags to raw IDs,
// the form the list endpoint provides them in.
func RadarrFromRemote(ctx context.Context, c *Client) (*RadarrSettings, error) {
	services, err := c.ListServices(ctx, ServiceRadarr)
	if err != nil {
		return nil, err
	}
	settings := &RadarrSettings{Definitions: make(map[string]RadarrService, len(services))}
	for _, doc := range services {
		name, err := remotemap.String(doc["name"])
		if err != nil {
			return nil, fmt.Errorf("radarr service name: %w", err)
		}
		service := DefaultRadarrService()
		if err := remotemap.Decode(&service, service.remoteMap(serviceTables{}), doc); err != nil {
			return nil, fmt.Errorf("radarr service '%s': %w", name, err)
		}
		settings.Definitions[name] = service
	}
	return settings, nil
}

// UpdateRemote reconciles the configured Radarr definitions against the
// remote state, creating missing servers and updating drifted ones. It
// reports whether anything had to change.
func (s *RadarrSettings) UpdateRemote(ctx context.Context, c *Client, store *secrets.Store, tree string, remote *RadarrSettings, dryRun bool) (bool, error) {
	serviceIDs, err := listServiceIDs(ctx, c, ServiceRadarr)
	if err != nil {
		return false, err
	}
	changed := false
	for _, name := range sortedNames(s.Definitions) {
		service := s.Definitions[name]
		serviceTree := fmt.Sprintf("%s.definitions['%s']", tree, name)

		apiKey, err := service.effectiveAPIKey(store, ServiceRadarr)
		if err != nil {
			return changed, fmt.Errorf("%s: %w", serviceTree, err)
		}
		metadata, err := c.TestService(ctx, ServiceRadarr, service.testPayload(apiKey))
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
				if err := c.CreateService(ctx, ServiceRadarr, payload); err != nil {
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
			if err := c.UpdateService(ctx, ServiceRadarr, id, diff.Payload); err != nil {
				return changed, fmt.Errorf("%s: %w", serviceTree, err)
			}
		}
		changed = true
	}
	return changed, nil
}

// DeleteRemote removes remote Radarr definitions that are not managed
// in the configuration, when unmanaged deletion is enabled. Otherwise
// they are only reported.
func (s *RadarrSettings) DeleteRemote(ctx context.Context, c *Client, tree string, remote *RadarrSettings, dryRun bool) (bool, error) {
	serviceIDs, err := listServiceIDs(ctx, c, ServiceRadarr)
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
			if err := c.DeleteService(ctx, ServiceRadarr, id); err != nil {
				return changed, fmt.Errorf("%s: %w", serviceTree, err)
			}
		}
		changed = true
	}
	return changed, nil
}
