package jellyseerr

import (
	"fmt"

	"github.com/rebuildarr/buildarr-jellyseerr/remotemap"
)

// GotifySettings configures notifications to a Gotify server.
type GotifySettings struct {
	Enable            bool               `mapstructure:"enable" yaml:"enable"`
	NotificationTypes []NotificationType `mapstructure:"notification_types" yaml:"notification_types"`
	ServerURL         string             `mapstructure:"server_url" yaml:"server_url"`
	AccessToken       string             `mapstructure:"access_token" yaml:"access_token"`
}

func (s *GotifySettings) agentType() string { return "gotify" }

func (s *GotifySettings) Field(name string) (any, error) {
	switch name {
	case "enable":
		return s.Enable, nil
	case "notification_types":
		return s.NotificationTypes, nil
	case "server_url":
		return s.ServerURL, nil
	case "access_token":
		return s.AccessToken, nil
	}
	return nil, fmt.Errorf("unknown gotify notification field %q", name)
}

func (s *GotifySettings) SetField(name string, value any) error {
	var err error
	switch name {
	case "enable":
		s.Enable, err = remotemap.Bool(value)
	case "notification_types":
		s.NotificationTypes, err = notificationTypeList(value)
	case "server_url":
		s.ServerURL, err = remotemap.String(value)
	case "access_token":
		s.AccessToken, err = remotemap.String(value)
	default:
		return fmt.Errorf("unknown gotify notification field %q", name)
	}
	return err
}

func (s *GotifySettings) baseMap() []remotemap.Entry { return notificationTypesBaseMap() }

func (s *GotifySettings) optionsMap() []remotemap.Entry {
	return []remotemap.Entry{
		{Local: "server_url", Remote: "url"},
		{Local: "access_token", Remote: "token"},
	}
}

func (s *GotifySettings) requiredWhenEnabled() []string {
	return []string{"server_url", "access_token"}
}

func (s *GotifySettings) validate() error {
	return checkHTTPURL("server_url", s.ServerURL)
}
