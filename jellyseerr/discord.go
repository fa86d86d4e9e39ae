package jellyseerr

import (
	"fmt"

	"github.com/rebuildarr/buildarr-jellyseerr/remotemap"
)

// DiscordSettings configures notifications to a Discord channel through
// an incoming webhook.
type DiscordSettings struct {
	Enable            bool               `mapstructure:"enable" yaml:"enable"`
	NotificationTypes []NotificationType `mapstructure:"notification_types" yaml:"notification_types"`
	WebhookURL        string             `mapstructure:"webhook_url" yaml:"webhook_url"`
	Username          string             `mapstructure:"username" yaml:"username"`
	AvatarURL         string             `mapstructure:"avatar_url" yaml:"avatar_url"`
	EnableMentions    bool               `mapstructure:"enable_mentions" yaml:"enable_mentions"`
}

// DefaultDiscordSettings returns the Discord agent defaults.
func DefaultDiscordSettings() DiscordSettings {
	return DiscordSettings{EnableMentions: true}
}

func (s *DiscordSettings) agentType() string { return "discord" }

func (s *DiscordSettings) Field(name string) (any, error) {
	switch name {
	case "enable":
		return s.Enable, nil
	case "notification_types":
		return s.NotificationTypes, nil
	case "webhook_url":
		return s.WebhookURL, nil
	case "username":
		return s.Username, nil
	case "avatar_url":
		return s.AvatarURL, nil
	case "enable_mentions":
		return s.EnableMentions, nil
	}
	return nil, fmt.Errorf("unknown discord notification field %q", name)
}

func (s *DiscordSettings) SetField(name string, value any) error {
	var err error
	switch name {
	case "enable":
		s.Enable, err = remotemap.Bool(value)
	case "notification_types":
		s.NotificationTypes, err = notificationTypeList(value)
	case "webhook_url":
		s.WebhookURL, err = remotemap.String(value)
	case "username":
		s.Username, err = remotemap.String(value)
	case "avatar_url":
		s.AvatarURL, err = remotemap.String(value)
	case "enable_mentions":
		s.EnableMentions, err = remotemap.Bool(value)
	default:
		return fmt.Errorf("unknown discord notification field %q", name)
	}
	return err
}

func (s *DiscordSettings) baseMap() []remotemap.Entry { return notificationTypesBaseMap() }

func (s *DiscordSettings) optionsMap() []remotemap.Entry {
	return []remotemap.Entry{
		{Local: "webhook_url", Remote: "webhookUrl"},
		{Local: "username", Remote: "botUsername", Optional: true},
		{Local: "avatar_url", Remote: "botAvatarUrl", Optional: true},
		{Local: "enable_mentions", Remote: "enableMentions", Optional: true},
	}
}

func (s *DiscordSettings) requiredWhenEnabled() []string { return []string{"webhook_url"} }

func (s *DiscordSettings) validate() error {
	if err := checkHTTPURL("webhook_url", s.WebhookURL); err != nil {
		return err
	}
	return checkHTTPURL("avatar_url", s.AvatarURL)
}
