package config

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/rebuildarr/buildarr-jellyseerr/jellyseerr"
	"github.com/rebuildarr/buildarr-jellyseerr/resource"
)

const defaultHostname = "jellyseerr"

var apiKeyPattern = regexp.MustCompile(`^[A-Za-z0-9]+=$`)

// Load loads the configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		// Check home directory
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "buildarr-jellyseerr"))
		}

		// Check /etc
		v.AddConfigPath("/etc/buildarr-jellyseerr/")
	}

	v.SetEnvPrefix("BUILDARR_JELLYSEERR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil, fmt.Errorf("config file not found: %w", err)
		}
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	// Viper lowercases every configuration key, which would corrupt
	// name-keyed maps such as instance names and service definition
	// names. The tree is decoded from the config file directly, with
	// viper supplying defaults and environment overrides for the
	// connection and logging values.
	raw, err := readRawConfig(v.ConfigFileUsed())
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	cfg.Jellyseerr.InstanceConfig = defaultInstance()
	rawInstances := popInstances(raw)
	if err := decode(raw, cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	applyOverrides(v, cfg)

	if len(rawInstances) > 0 {
		cfg.Jellyseerr.Instances = make(map[string]InstanceConfig, len(rawInstances))
		for name, rawInstance := range rawInstances {
			instance, err := mergeInstance(cfg.Jellyseerr.InstanceConfig, name, rawInstance)
			if err != nil {
				return nil, fmt.Errorf("instance '%s': %w", name, err)
			}
			cfg.Jellyseerr.Instances[name] = instance
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// readRawConfig parses the config file with key case preserved.
func readRawConfig(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config: %w", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	return raw, nil
}

// popInstances removes the named instance blocks from the raw tree so
// they can be decoded on top of the fully resolved global values.
func popInstances(raw map[string]any) map[string]any {
	section, ok := raw["jellyseerr"].(map[string]any)
	if !ok {
		return nil
	}
	instances, ok := section["instances"].(map[string]any)
	if !ok {
		return nil
	}
	delete(section, "instances")
	return instances
}

// mergeInstance decodes one named instance block on top of a copy of
// the global configuration, so unset instance values inherit the
// global ones. The hostname falls back to the instance name unless it
// is set explicitly.
func mergeInstance(global InstanceConfig, name string, rawInstance any) (InstanceConfig, error) {
	instance := cloneInstance(global)
	if instance.Hostname == defaultHostname {
		instance.Hostname = name
	}
	if rawInstance == nil {
		return instance, nil
	}
	block, ok := rawInstance.(map[string]any)
	if !ok {
		return instance, fmt.Errorf("expected a mapping, got %T", rawInstance)
	}
	if err := decode(block, &instance); err != nil {
		return instance, err
	}
	return instance, nil
}

// cloneInstance copies the service definition maps, so that decoding
// one instance block cannot leak definitions into another instance
// sharing the same global defaults.
func cloneInstance(instance InstanceConfig) InstanceConfig {
	clone := instance
	clone.Settings.Radarr.Definitions = maps.Clone(instance.Settings.Radarr.Definitions)
	clone.Settings.Sonarr.Definitions = maps.Clone(instance.Settings.Sonarr.Definitions)
	return clone
}

// applyOverrides copies the connection and logging values back out of
// viper, so that environment variables such as
// BUILDARR_JELLYSEERR_JELLYSEERR_API_KEY override the config file.
func applyOverrides(v *viper.Viper, cfg *Config) {
	cfg.Jellyseerr.Hostname = v.GetString("jellyseerr.hostname")
	cfg.Jellyseerr.Port = v.GetInt("jellyseerr.port")
	cfg.Jellyseerr.Protocol = v.GetString("jellyseerr.protocol")
	cfg.Jellyseerr.URLBase = v.GetString("jellyseerr.url_base")
	cfg.Jellyseerr.APIKey = v.GetString("jellyseerr.api_key")
	cfg.Jellyseerr.RequestTimeout = v.GetDuration("jellyseerr.request_timeout")
	cfg.Logging.Level = v.GetString("logging.level")
	cfg.Logging.Format = v.GetString("logging.format")
	cfg.Logging.Color = v.GetBool("logging.color")
}

// defaultInstance returns the configuration every instance starts from.
func defaultInstance() InstanceConfig {
	return InstanceConfig{
		Hostname:       defaultHostname,
		Port:           5055,
		Protocol:       "http",
		RequestTimeout: 30 * time.Second,
		Settings:       jellyseerr.DefaultSettings(),
	}
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Jellyseerr connection defaults
	v.SetDefault("jellyseerr.hostname", defaultHostname)
	v.SetDefault("jellyseerr.port", 5055)
	v.SetDefault("jellyseerr.protocol", "http")
	v.SetDefault("jellyseerr.request_timeout", 30*time.Second)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// decode unmarshals a raw configuration map into target, converting
// plain strings and integers into the richer types the settings tree
// uses.
func decode(input map[string]any, target any) error {
	return decodeWith(decodeHooks(), input, target)
}

func decodeWith(hook mapstructure.DecodeHookFunc, input any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       hook,
		WeaklyTypedInput: true,
		Result:           target,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

func decodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		refHook,
		permissionHook,
		notificationTypeHook,
		encryptionMethodHook,
		minimumAvailabilityHook,
		serviceDefaultsHook(),
	)
}

// refHook converts bare strings and integers into resource references.
func refHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(resource.Ref{}) {
		return data, nil
	}
	switch from.Kind() {
	case reflect.String, reflect.Int, reflect.Int64, reflect.Float64:
		return resource.FromValue(data)
	default:
		return data, nil
	}
}

// permissionHook converts permission names into permission flags.
func permissionHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from != reflect.TypeOf("") || to != reflect.TypeOf(jellyseerr.PermissionAdmin) {
		return data, nil
	}
	return jellyseerr.ParsePermission(data.(string))
}

// notificationTypeHook converts notification type names into flags.
func notificationTypeHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from != reflect.TypeOf("") || to != reflect.TypeOf(jellyseerr.NotificationMediaPending) {
		return data, nil
	}
	return jellyseerr.ParseNotificationType(data.(string))
}

// encryptionMethodHook validates email encryption method names.
func encryptionMethodHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from != reflect.TypeOf("") || to != reflect.TypeOf(jellyseerr.EncryptionMethod("")) {
		return data, nil
	}
	return jellyseerr.ParseEncryptionMethod(data.(string))
}

// minimumAvailabilityHook validates minimum availability names.
func minimumAvailabilityHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from != reflect.TypeOf("") || to != reflect.TypeOf(jellyseerr.MinimumAvailability("")) {
		return data, nil
	}
	return jellyseerr.ParseMinimumAvailability(data.(string))
}

// serviceDefaultsHook converts service definition maps into definitions
// pre-filled with the standard defaults, so unset fields keep their
// default values instead of zeroing out.
func serviceDefaultsHook() mapstructure.DecodeHookFuncType {
	inner := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		refHook,
		permissionHook,
		notificationTypeHook,
		encryptionMethodHook,
		minimumAvailabilityHook,
	)
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.Map {
			return data, nil
		}
		switch to {
		case reflect.TypeOf(jellyseerr.RadarrService{}):
			service := jellyseerr.DefaultRadarrService()
			if err := decodeWith(inner, data, &service); err != nil {
				return nil, err
			}
			return service, nil
		case reflect.TypeOf(jellyseerr.SonarrService{}):
			service := jellyseerr.DefaultSonarrService()
			if err := decodeWith(inner, data, &service); err != nil {
				return nil, err
			}
			return service, nil
		}
		return data, nil
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	for _, name := range c.Jellyseerr.InstanceNames() {
		if err := validateInstance(c.Jellyseerr.Instance(name)); err != nil {
			return fmt.Errorf("jellyseerr instance '%s': %w", name, err)
		}
	}

	if err := validateLinked("radarr", c.Radarr); err != nil {
		return err
	}
	if err := validateLinked("sonarr", c.Sonarr); err != nil {
		return err
	}

	// Validate logging level
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", c.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", c.Logging.Format)
	}

	return nil
}

func validateInstance(instance InstanceConfig) error {
	if instance.Hostname == "" {
		return fmt.Errorf("hostname is required")
	}
	if instance.Port < 1 || instance.Port > 65535 {
		return fmt.Errorf("invalid port: %d", instance.Port)
	}
	if instance.Protocol != "http" && instance.Protocol != "https" {
		return fmt.Errorf("invalid protocol: %s (must be http or https)", instance.Protocol)
	}
	if instance.APIKey == "" {
		return fmt.Errorf("api_key must be set to a valid API key")
	}
	if !apiKeyPattern.MatchString(instance.APIKey) {
		return fmt.Errorf("api_key is not a valid Jellyseerr API key")
	}
	if err := instance.Settings.Validate(); err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	return nil
}

func validateLinked(section string, linked LinkedConfig) error {
	for name, instance := range linked.Instances {
		if instance.URL == "" {
			return fmt.Errorf("%s instance '%s': url is required", section, name)
		}
		if len(instance.APIKey) != 32 {
			return fmt.Errorf("%s instance '%s': api_key must be a 32 character API key", section, name)
		}
	}
	return nil
}
