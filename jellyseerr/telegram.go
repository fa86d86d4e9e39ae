package jellyseerr

import (
	"fmt"

	"github.com/rebuildarr/buildarr-jellyseerr/remotemap"
)

// TelegramSettings configures notifications to a Telegram chat through
// a bot.
type TelegramSettings struct {
	Enable            bool               `mapstructure:"enable" yaml:"enable"`
	NotificationTypes []NotificationType `mapstructure:"notification_types" yaml:"notification_types"`
	AccessToken       string             `mapstructure:"access_token" yaml:"access_token"`
	Username          string             `mapstructure:"username" yaml:"username"`
	ChatID            string             `mapstructure:"chat_id" yaml:"chat_id"`
	SendSilently      bool               `mapstructure:"send_silently" yaml:"send_silently"`
}

func (s *TelegramSettings) agentType() string { return "telegram" }

func (s *TelegramSettings) Field(name string) (any, error) {
	switch name {
	case "enable":
		return s.Enable, nil
	case "notification_types":
		return s.NotificationTypes, nil
	case "access_token":
		return s.AccessToken, nil
	case "username":
		return s.Username, nil
	case "chat_id":
		return s.ChatID, nil
	case "send_silently":
		return s.SendSilently, nil
	}
	return nil, fmt.Errorf("unknown telegram notification field %q", name)
}

func (s *TelegramSettings) SetField(name string, value any) error {
	var err error
	switch name {
	case "enable":
		s.Enable, err = remotemap.Bool(value)
	case "notification_types":
		s.NotificationTypes, err = notificationTypeList(value)
	case "access_token":
		s.AccessToken, err = remotemap.String(value)
	case "username":
		s.Username, err = remotemap.String(value)
	case "chat_id":
		s.ChatID, err = remotemap.String(value)
	case "send_silently":
		s.SendSilently, err = remotemap.Bool(value)
	default:
		return fmt.Errorf("unknown telegram notification field %q", name)
	}
	return err
}

func (s *TelegramSettings) baseMap() []remotemap.Entry { return notificationTypesBaseMap() }

func (s *TelegramSettings) optionsMap() []remotemap.Entry {
	return []remotemap.Entry{
		{Local: "access_token", Remote: "botAPI"},
		{Local: "username", Remote: "botUsername", Optional: true},
		{Local: "chat_id", Remote: "chatId"},
		{Local: "send_silently", Remote: "sendSilently"},
	}
}

func (s *TelegramSettings) requiredWhenEnabled() []string {
	return []string{"access_token", "chat_id"}
}
