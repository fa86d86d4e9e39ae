package config

import (
	"sort"
	"time"

	"github.com/rebuildarr/buildarr-jellyseerr/jellyseerr"
	"github.com/rebuildarr/buildarr-jellyseerr/secrets"
)

// Config represents the complete configuration structure
type Config struct {
	Jellyseerr JellyseerrConfig `mapstructure:"jellyseerr"`
	Radarr     LinkedConfig     `mapstructure:"radarr"`
	Sonarr     LinkedConfig     `mapstructure:"sonarr"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// JellyseerrConfig holds the global Jellyseerr configuration plus any
// named instances. Global values act as defaults for every named
// instance; when no instances are defined, the global block itself
// describes a single instance called "default".
type JellyseerrConfig struct {
	InstanceConfig `mapstructure:",squash"`

	Instances map[string]InstanceConfig `mapstructure:"instances"`
}

// InstanceConfig holds connection details and the desired settings
// tree for a single Jellyseerr instance.
type InstanceConfig struct {
	Hostname       string        `mapstructure:"hostname"`
	Port           int           `mapstructure:"port"`
	Protocol       string        `mapstructure:"protocol"`
	URLBase        string        `mapstructure:"url_base"`
	APIKey         string        `mapstructure:"api_key"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	Settings jellyseerr.Settings `mapstructure:"settings"`
}

// HostURL returns the base URL used to connect to this instance.
func (c InstanceConfig) HostURL() string {
	return jellyseerr.HostURL(c.Protocol, c.Hostname, c.Port, c.URLBase)
}

// LinkedConfig holds connection details for external service instances
// (Radarr or Sonarr) that Jellyseerr service definitions may reference
// by instance name instead of carrying their own API key.
type LinkedConfig struct {
	Instances map[string]LinkedInstance `mapstructure:"instances"`
}

// LinkedInstance holds the URL and API key of one linked instance.
type LinkedInstance struct {
	URL    string `mapstructure:"url"`
	APIKey string `mapstructure:"api_key"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}

// SecretsStore builds the store of linked Radarr and Sonarr
// credentials that service definitions resolve instance names against.
func (c *Config) SecretsStore() *secrets.Store {
	store := secrets.NewStore()
	for name, instance := range c.Radarr.Instances {
		store.AddRadarr(name, secrets.ServiceCredentials{
			URL:    instance.URL,
			APIKey: instance.APIKey,
		})
	}
	for name, instance := range c.Sonarr.Instances {
		store.AddSonarr(name, secrets.ServiceCredentials{
			URL:    instance.URL,
			APIKey: instance.APIKey,
		})
	}
	return store
}

// InstanceNames returns the names of all configured Jellyseerr
// instances in sorted order. When no named instances are defined, a
// single "default" instance is assumed.
func (c *JellyseerrConfig) InstanceNames() []string {
	if len(c.Instances) == 0 {
		return []string{"default"}
	}
	names := make([]string, 0, len(c.Instances))
	for name := range c.Instances {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Instance returns the effective configuration for the named instance.
// Named instances are already merged with the global defaults at load
// time, so unknown names fall back to the global configuration.
func (c *JellyseerrConfig) Instance(name string) InstanceConfig {
	if instance, ok := c.Instances[name]; ok {
		return instance
	}
	return c.InstanceConfig
}
