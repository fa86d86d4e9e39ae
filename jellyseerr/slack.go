package jellyseerr

import (
	"fmt"

	"github.com/rebuildarr/buildarr-jellyseerr/remotemap"
)

// SlackSettings configures notifications to a Slack channel through an
// incoming webhook.
type SlackSettings struct {
	Enable            bool               `mapstructure:"enable" yaml:"enable"`
	NotificationTypes []NotificationType `mapstructure:"notification_types" yaml:"notification_types"`
	WebhookURL        string             `mapstructure:"webhook_url" yaml:"webhook_url"`
}

func (s *SlackSettings) agentType() string { return "slack" }

func (s *SlackSettings) Field(name string) (any, error) {
	switch name {
	case "enable":
		return s.Enable, nil
	case "notification_types":
		return s.NotificationTypes, nil
	case "webhook_url":
		return s.WebhookURL, nil
	}
	return nil, fmt.Errorf("unknown slack notification field %q", name)
}

func (s *SlackSettings) SetField(name string, value any) error {
	var err error
	switch name {
	case "enable":
		s.Enable, err = remotemap.Bool(value)
	case "notification_types":
		s.NotificationTypes, err = notificationTypeList(value)
	case "webhook_url":
		s.WebhookURL, err = remotemap.String(value)
	default:
		return fmt.Errorf("unknown slack notification field %q", name)
	}
	return err
}

func (s *SlackSettings) baseMap() []remotemap.Entry { return notificationTypesBaseMap() }

func (s *SlackSettings) optionsMap() []remotemap.Entry {
	return []remotemap.Entry{
		{Local: "webhook_url", Remote: "webhookUrl"},
	}
}

func (s *SlackSettings) requiredWhenEnabled() []string { return []string{"webhook_url"} }

func (s *SlackSettings) validate() error {
	return checkHTTPURL("webhook_url", s.WebhookURL)
}
