package jellyseerr

import (
	"fmt"

	"github.com/rebuildarr/buildarr-jellyseerr/remotemap"
)

// WebpushSettings configures browser push notifications. The agent has
// no options of its own and is switched on or off as a whole.
type WebpushSettings struct {
	Enable bool `mapstructure:"enable" yaml:"enable"`
}

func (s *WebpushSettings) agentType() string { return "webpush" }

func (s *WebpushSettings) Field(name string) (any, error) {
	if name == "enable" {
		return s.Enable, nil
	}
	return nil, fmt.Errorf("unknown webpush notification field %q", name)
}

func (s *WebpushSettings) SetField(name string, value any) error {
	if name != "enable" {
		return fmt.Errorf("unknown webpush notification field %q", name)
	}
	enable, err := remotemap.Bool(value)
	if err != nil {
		return err
	}
	s.Enable = enable
	return nil
}

func (s *WebpushSettings) baseMap() []remotemap.Entry { return notificationBaseMap() }

func (s *WebpushSettings) optionsMap() []remotemap.Entry { return nil }

func (s *WebpushSettings) requiredWhenEnabled() []string { return nil }
