package jellyseerr

import (
	"fmt"

	"github.com/rebuildarr/buildarr-jellyseerr/remotemap"
)

// PushbulletSettings configures notifications to Pushbullet devices.
type PushbulletSettings struct {
	Enable            bool               `mapstructure:"enable" yaml:"enable"`
	NotificationTypes []NotificationType `mapstructure:"notification_types" yaml:"notification_types"`
	AccessToken       string             `mapstructure:"access_token" yaml:"access_token"`
	ChannelTag        string             `mapstructure:"channel_tag" yaml:"channel_tag"`
}

func (s *PushbulletSettings) agentType() string { return "pushbullet" }

func (s *PushbulletSettings) Field(name string) (any, error) {
	switch name {
	case "enable":
		return s.Enable, nil
	case "notification_types":
		return s.NotificationTypes, nil
	case "access_token":
		return s.AccessToken, nil
	case "channel_tag":
		return s.ChannelTag, nil
	}
	return nil, fmt.Errorf("unknown pushbullet notification field %q", name)
}

func (s *PushbulletSettings) SetField(name string, value any) error {
	var err error
	switch name {
	case "enable":
		s.Enable, err = remotemap.Bool(value)
	case "notification_types":
		s.NotificationTypes, err = notificationTypeList(value)
	case "access_token":
		s.AccessToken, err = remotemap.String(value)
	case "channel_tag":
		s.ChannelTag, err = remotemap.String(value)
	default:
		return fmt.Errorf("unknown pushbullet notification field %q", name)
	}
	return err
}

func (s *PushbulletSettings) baseMap() []remotemap.Entry { return notificationTypesBaseMap() }

func (s *PushbulletSettings) optionsMap() []remotemap.Entry {
	return []remotemap.Entry{
		{Local: "access_token", Remote: "accessToken"},
		{Local: "channel_tag", Remote: "channelTag", Optional: true},
	}
}

func (s *PushbulletSettings) requiredWhenEnabled() []string { return []string{"access_token"} }
