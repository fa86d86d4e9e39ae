// Package secrets holds the credentials of linked Radarr and Sonarr
// instances. Jellyseerr service definitions that name a linked
// instance instead of carrying their own API key borrow it from here,
// after the store has verified the credentials against the live
// services.
package secrets

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golift.io/starr"
	"golift.io/starr/radarr"
	"golift.io/starr/sonarr"
)

// ServiceCredentials locates one linked service instance.
type ServiceCredentials struct {
	URL    string
	APIKey string
}

// Store indexes linked service credentials by instance name.
type Store struct {
	radarr map[string]ServiceCredentials
	sonarr map[string]ServiceCredentials
}

// NewStore returns an empty credentials store.
func NewStore() *Store {
	return &Store{
		radarr: make(map[string]ServiceCredentials),
		sonarr: make(map[string]ServiceCredentials),
	}
}

// AddRadarr registers a linked Radarr instance.
func (s *Store) AddRadarr(name string, credentials ServiceCredentials) {
	s.radarr[name] = credentials
}

// AddSonarr registers a linked Sonarr instance.
func (s *Store) AddSonarr(name string, credentials ServiceCredentials) {
	s.sonarr[name] = credentials
}

// RadarrAPIKey returns the API key of the named linked Radarr
// instance.
func (s *Store) RadarrAPIKey(name string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("radarr instance '%s' not defined (no instances configured)", name)
	}
	return lookupKey("radarr", s.radarr, name)
}

// SonarrAPIKey returns the API key of the named linked Sonarr
// instance.
func (s *Store) SonarrAPIKey(name string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("sonarr instance '%s' not defined (no instances configured)", name)
	}
	return lookupKey("sonarr", s.sonarr, name)
}

func lookupKey(kind string, instances map[string]ServiceCredentials, name string) (string, error) {
	if credentials, ok := instances[name]; ok {
		return credentials.APIKey, nil
	}
	if len(instances) == 0 {
		return "", fmt.Errorf("%s instance '%s' not defined (no instances configured)", kind, name)
	}
	names := make([]string, 0, len(instances))
	for defined := range instances {
		names = append(names, fmt.Sprintf("'%s'", defined))
	}
	sort.Strings(names)
	return "", fmt.Errorf("%s instance '%s' not defined (defined instances: %s)",
		kind, name, strings.Join(names, ", "))
}

// Probe verifies every stored credential against its live service,
// concurrently. A failed probe aborts with an error naming the
// instance, so a bad linked key is caught before it is ever written
// into Jellyseerr.
func (s *Store) Probe(ctx context.Context, logger zerolog.Logger, timeout time.Duration) error {
	if s == nil {
		return nil
	}
	group, ctx := errgroup.WithContext(ctx)
	for name, credentials := range s.radarr {
		group.Go(func() error {
			client := radarr.New(starr.New(credentials.APIKey, credentials.URL, timeout))
			if err := client.PingContext(ctx); err != nil {
				return fmt.Errorf("radarr instance '%s': %w", name, err)
			}
			status, err := client.GetSystemStatusContext(ctx)
			if err != nil {
				return fmt.Errorf("radarr instance '%s': %w", name, err)
			}
			logger.Debug().Msgf("Verified Radarr instance '%s' (version %s)", name, status.Version)
			return nil
		})
	}
	for name, credentials := range s.sonarr {
		group.Go(func() error {
			client := sonarr.New(starr.New(credentials.APIKey, credentials.URL, timeout))
			if err := client.PingContext(ctx); err != nil {
				return fmt.Errorf("sonarr instance '%s': %w", name, err)
			}
			status, err := client.GetSystemStatusContext(ctx)
			if err != nil {
				return fmt.Errorf("sonarr instance '%s': %w", name, err)
			}
			logger.Debug().Msgf("Verified Sonarr instance '%s' (version %s)", name, status.Version)
			return nil
		})
	}
	return group.Wait()
}
