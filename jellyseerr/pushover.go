package jellyseerr

import (
	"fmt"
	"regexp"

	"github.com/rebuildarr/buildarr-jellyseerr/remotemap"
)

var pushoverKeyPattern = regexp.MustCompile(`^[A-Za-z0-9]{30}$`)

// PushoverSettings configures notifications to Pushover clients.
//
// Application and user keys are 30 character alphanumeric tokens
// issued by Pushover, checked during configuration validation.
type PushoverSettings struct {
	Enable            bool               `mapstructure:"enable" yaml:"enable"`
	NotificationTypes []NotificationType `mapstructure:"notification_types" yaml:"notification_types"`
	APIKey            string             `mapstructure:"api_key" yaml:"api_key"`
	UserKey           string             `mapstructure:"user_key" yaml:"user_key"`
	Sound             string             `mapstructure:"sound" yaml:"sound"`
}

func (s *PushoverSettings) agentType() string { return "pushover" }

func (s *PushoverSettings) Field(name string) (any, error) {
	switch name {
	case "enable":
		return s.Enable, nil
	case "notification_types":
		return s.NotificationTypes, nil
	case "api_key":
		return s.APIKey, nil
	case "user_key":
		return s.UserKey, nil
	case "sound":
		return s.Sound, nil
	}
	return nil, fmt.Errorf("unknown pushover notification field %q", name)
}

func (s *PushoverSettings) SetField(name string, value any) error {
	var err error
	switch name {
	case "enable":
		s.Enable, err = remotemap.Bool(value)
	case "notification_types":
		s.NotificationTypes, err = notificationTypeList(value)
	case "api_key":
		s.APIKey, err = remotemap.String(value)
	case "user_key":
		s.UserKey, err = remotemap.String(value)
	case "sound":
		s.Sound, err = remotemap.String(value)
	default:
		return fmt.Errorf("unknown pushover notification field %q", name)
	}
	return err
}

func (s *PushoverSettings) baseMap() []remotemap.Entry { return notificationTypesBaseMap() }

func (s *PushoverSettings) optionsMap() []remotemap.Entry {
	return []remotemap.Entry{
		{Local: "api_key", Remote: "accessToken"},
		{Local: "user_key", Remote: "userToken"},
		// An empty sound keeps the device default.
		{Local: "sound", Remote: "sound", Optional: true},
	}
}

func (s *PushoverSettings) requiredWhenEnabled() []string {
	return []string{"api_key", "user_key"}
}

func (s *PushoverSettings) validate() error {
	if s.APIKey != "" && !pushoverKeyPattern.MatchString(s.APIKey) {
		return fmt.Errorf("api_key: must be a 30 character alphanumeric key")
	}
	if s.UserKey != "" && !pushoverKeyPattern.MatchString(s.UserKey) {
		return fmt.Errorf("user_key: must be a 30 character alphanumeric key")
	}
	return nil
}
