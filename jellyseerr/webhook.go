package jellyseerr

import (
	"fmt"

	"github.com/rebuildarr/buildarr-jellyseerr/remotemap"
)

// DefaultWebhookPayload is the JSON payload template a fresh
// Jellyseerr instance ships with. Template variables are substituted
// by the server when the webhook fires.
const DefaultWebhookPayload = `{
    "notification_type": "{{notification_type}}",
    "event": "{{event}}",
    "subject": "{{subject}}",
    "message": "{{message}}",
    "image": "{{image}}",
    "{{media}}": {
        "media_type": "{{media_type}}",
        "tmdbId": "{{media_tmdbid}}",
        "tvdbId": "{{media_tvdbid}}",
        "status": "{{media_status}}",
        "status4k": "{{media_status4k}}"
    },
    "{{request}}": {
        "request_id": "{{request_id}}",
        "requestedBy_email": "{{requestedBy_email}}",
        "requestedBy_username": "{{requestedBy_username}}",
        "requestedBy_avatar": "{{requestedBy_avatar}}"
    },
    "{{issue}}": {
        "issue_id": "{{issue_id}}",
        "issue_type": "{{issue_type}}",
        "issue_status": "{{issue_status}}",
        "reportedBy_email": "{{reportedBy_email}}",
        "reportedBy_username": "{{reportedBy_username}}",
        "reportedBy_avatar": "{{reportedBy_avatar}}"
    },
    "{{comment}}": {
        "comment_message": "{{comment_message}}",
        "commentedBy_email": "{{commentedBy_email}}",
        "commentedBy_username": "{{commentedBy_username}}",
        "commentedBy_avatar": "{{commentedBy_avatar}}"
    }
}`

// WebhookSettings configures notifications posted to an arbitrary URL
// as a templated JSON document.
type WebhookSettings struct {
	Enable              bool               `mapstructure:"enable" yaml:"enable"`
	NotificationTypes   []NotificationType `mapstructure:"notification_types" yaml:"notification_types"`
	WebhookURL          string             `mapstructure:"webhook_url" yaml:"webhook_url"`
	AuthorizationHeader string             `mapstructure:"authorization_header" yaml:"authorization_header"`
	PayloadTemplate     string             `mapstructure:"payload_template" yaml:"payload_template"`
}

// DefaultWebhookSettings returns the webhook agent defaults.
func DefaultWebhookSettings() WebhookSettings {
	return WebhookSettings{PayloadTemplate: DefaultWebhookPayload}
}

func (s *WebhookSettings) agentType() string { return "webhook" }

func (s *WebhookSettings) Field(name string) (any, error) {
	switch name {
	case "enable":
		return s.Enable, nil
	case "notification_types":
		return s.NotificationTypes, nil
	case "webhook_url":
		return s.WebhookURL, nil
	case "authorization_header":
		return s.AuthorizationHeader, nil
	case "payload_template":
		return s.PayloadTemplate, nil
	}
	return nil, fmt.Errorf("unknown webhook notification field %q", name)
}

func (s *WebhookSettings) SetField(name string, value any) error {
	var err error
	switch name {
	case "enable":
		s.Enable, err = remotemap.Bool(value)
	case "notification_types":
		s.NotificationTypes, err = notificationTypeList(value)
	case "webhook_url":
		s.WebhookURL, err = remotemap.String(value)
	case "authorization_header":
		s.AuthorizationHeader, err = remotemap.String(value)
	case "payload_template":
		s.PayloadTemplate, err = remotemap.String(value)
	default:
		return fmt.Errorf("unknown webhook notification field %q", name)
	}
	return err
}

func (s *WebhookSettings) baseMap() []remotemap.Entry { return notificationTypesBaseMap() }

func (s *WebhookSettings) optionsMap() []remotemap.Entry {
	return []remotemap.Entry{
		{Local: "webhook_url", Remote: "webhookUrl"},
		{Local: "authorization_header", Remote: "authHeader", Optional: true},
		{Local: "payload_template", Remote: "jsonPayload"},
	}
}

func (s *WebhookSettings) requiredWhenEnabled() []string { return []string{"webhook_url"} }

func (s *WebhookSettings) validate() error {
	return checkHTTPURL("webhook_url", s.WebhookURL)
}
