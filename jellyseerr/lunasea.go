package jellyseerr

import (
	"fmt"

	"github.com/rebuildarr/buildarr-jellyseerr/remotemap"
)

// LunaSeaSettings configures notifications to the LunaSea companion
// app through its notification relay.
type LunaSeaSettings struct {
	Enable            bool               `mapstructure:"enable" yaml:"enable"`
	NotificationTypes []NotificationType `mapstructure:"notification_types" yaml:"notification_types"`
	WebhookURL        string             `mapstructure:"webhook_url" yaml:"webhook_url"`
	ProfileName       string             `mapstructure:"profile_name" yaml:"profile_name"`
}

func (s *LunaSeaSettings) agentType() string { return "lunasea" }

func (s *LunaSeaSettings) Field(name string) (any, error) {
	switch name {
	case "enable":
		return s.Enable, nil
	case "notification_types":
		return s.NotificationTypes, nil
	case "webhook_url":
		return s.WebhookURL, nil
	case "profile_name":
		return s.ProfileName, nil
	}
	return nil, fmt.Errorf("unknown lunasea notification field %q", name)
}

func (s *LunaSeaSettings) SetField(name string, value any) error {
	var err error
	switch name {
	case "enable":
		s.Enable, err = remotemap.Bool(value)
	case "notification_types":
		s.NotificationTypes, err = notificationTypeList(value)
	case "webhook_url":
		s.WebhookURL, err = remotemap.String(value)
	case "profile_name":
		s.ProfileName, err = remotemap.String(value)
	default:
		return fmt.Errorf("unknown lunasea notification field %q", name)
	}
	return err
}

func (s *LunaSeaSettings) baseMap() []remotemap.Entry { return notificationTypesBaseMap() }

func (s *LunaSeaSettings) optionsMap() []remotemap.Entry {
	return []remotemap.Entry{
		{Local: "webhook_url", Remote: "webhookUrl"},
		{
			// The default profile is selected by omitting the
			// attribute, not by sending an empty name.
			Local:    "profile_name",
			Remote:   "profileName",
			Optional: true,
			SetIf: func(value any) bool {
				return value.(string) != ""
			},
		},
	}
}

func (s *LunaSeaSettings) requiredWhenEnabled() []string { return []string{"webhook_url"} }
