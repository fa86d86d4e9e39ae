package jellyseerr

import (
	"context"
	"fmt"
	"strings"

	"github.com/rebuildarr/buildarr-jellyseerr/bitmask"
	"github.com/rebuildarr/buildarr-jellyseerr/remotemap"
)

// NotificationType is a single event class Jellyseerr can notify on.
//
// The numeric values are the bits Jellyseerr packs into the per-agent
// types bitmask. Unlike permissions there is no hierarchy, every flag
// stands on its own.
type NotificationType int64

const (
	NotificationMediaPending       NotificationType = 2
	NotificationMediaApproved      NotificationType = 4
	NotificationMediaAvailable     NotificationType = 8
	NotificationMediaFailed        NotificationType = 16
	NotificationTestNotification   NotificationType = 32
	NotificationMediaDeclined      NotificationType = 64
	NotificationMediaAutoApproved  NotificationType = 128
	NotificationIssueCreated       NotificationType = 256
	NotificationIssueComment       NotificationType = 512
	NotificationIssueResolved      NotificationType = 1024
	NotificationIssueReopened      NotificationType = 2048
	NotificationMediaAutoRequested NotificationType = 4096
)

var notificationTypeNames = map[NotificationType]string{
	NotificationMediaPending:       "media-pending",
	NotificationMediaApproved:      "media-approved",
	NotificationMediaAvailable:     "media-available",
	NotificationMediaFailed:        "media-failed",
	NotificationTestNotification:   "test-notification",
	NotificationMediaDeclined:      "media-declined",
	NotificationMediaAutoApproved:  "media-auto-approved",
	NotificationIssueCreated:       "issue-created",
	NotificationIssueComment:       "issue-comment",
	NotificationIssueResolved:      "issue-resolved",
	NotificationIssueReopened:      "issue-reopened",
	NotificationMediaAutoRequested: "media-auto-requested",
}

var notificationTypeValues = func() map[string]NotificationType {
	values := make(map[string]NotificationType, len(notificationTypeNames))
	for notificationType, name := range notificationTypeNames {
		values[name] = notificationType
	}
	return values
}()

// notificationTypeRegistry lists every flag in ascending bit order, the
// order decoded sets are reported in.
var notificationTypeRegistry = []NotificationType{
	NotificationMediaPending,
	NotificationMediaApproved,
	NotificationMediaAvailable,
	NotificationMediaFailed,
	NotificationTestNotification,
	NotificationMediaDeclined,
	NotificationMediaAutoApproved,
	NotificationIssueCreated,
	NotificationIssueComment,
	NotificationIssueResolved,
	NotificationIssueReopened,
	NotificationMediaAutoRequested,
}

func (t NotificationType) String() string {
	if name, ok := notificationTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("notification-type(%d)", int64(t))
}

// MarshalYAML renders the notification type under its configuration
// name.
func (t NotificationType) MarshalYAML() (any, error) {
	return t.String(), nil
}

// ParseNotificationType converts a configuration name into a
// NotificationType.
func ParseNotificationType(name string) (NotificationType, error) {
	if notificationType, ok := notificationTypeValues[name]; ok {
		return notificationType, nil
	}
	return 0, fmt.Errorf("unknown notification type %q", name)
}

// EncodeNotificationTypes packs a notification type set into the
// bitmask value stored on the agent.
func EncodeNotificationTypes(types []NotificationType) int64 {
	return bitmask.Encode(types)
}

// DecodeNotificationTypes unpacks an agent's types bitmask into the set
// of notification types it selects.
func DecodeNotificationTypes(mask int64) []NotificationType {
	return bitmask.Decode(notificationTypeRegistry, mask)
}

// notificationAgent is the surface each notification service settings
// object exposes to the shared read and update flow. The base map holds
// the attributes stored at the top level of the agent document, the
// options map the ones nested under "options".
type notificationAgent interface {
	remotemap.Object

	// agentType returns the service name used in API paths and
	// messages, for example "email".
	agentType() string
	baseMap() []remotemap.Entry
	optionsMap() []remotemap.Entry
	// requiredWhenEnabled lists local option fields that must be
	// non-empty whenever the agent is enabled.
	requiredWhenEnabled() []string
}

// notificationBaseMap maps the attributes every agent stores at the top
// level of its settings document.
func notificationBaseMap() []remotemap.Entry {
	return []remotemap.Entry{
		{Local: "enable", Remote: "enabled"},
	}
}

// notificationTypesBaseMap extends the base map with the event type
// selection bitmask carried by every agent except web push.
func notificationTypesBaseMap() []remotemap.Entry {
	return append(notificationBaseMap(), remotemap.Entry{
		Local:  "notification_types",
		Remote: "types",
		Decode: func(v any) (any, error) {
			mask, err := remotemap.Int64(v)
			if err != nil {
				return nil, err
			}
			return DecodeNotificationTypes(mask), nil
		},
		Encode: func(v any) (any, error) {
			return EncodeNotificationTypes(v.([]NotificationType)), nil
		},
	})
}

// notificationTypeList coerces a decoded notification type set, used by
// the SetField switches of the typed agents.
func notificationTypeList(value any) ([]NotificationType, error) {
	if types, ok := value.([]NotificationType); ok {
		return types, nil
	}
	return nil, fmt.Errorf("expected notification type list, got %T", value)
}

// notificationOptions extracts the nested options document from an
// agent settings document.
func notificationOptions(doc map[string]any) map[string]any {
	if options, ok := doc["options"].(map[string]any); ok {
		return options
	}
	return map[string]any{}
}

// notificationFromRemote fills agent with the live settings of its
// service.
func notificationFromRemote(ctx context.Context, c *Client, agent notificationAgent) error {
	name := agent.agentType()
	doc, err := c.NotificationSettings(ctx, name)
	if err != nil {
		return fmt.Errorf("%s notifications: %w", name, err)
	}
	if err := remotemap.Decode(agent, agent.baseMap(), doc); err != nil {
		return fmt.Errorf("%s notifications: %w", name, err)
	}
	if entries := agent.optionsMap(); len(entries) > 0 {
		if err := remotemap.Decode(agent, entries, notificationOptions(doc)); err != nil {
			return fmt.Errorf("%s notifications: %w", name, err)
		}
	}
	return nil
}

// notificationUpdateRemote diffs the desired agent settings against the
// remote state and posts the merged document back when anything
// differs. Top level attributes and options are diffed separately but
// always travel together in the update, layered over a fresh copy of
// the remote document so unmapped attributes survive.
func notificationUpdateRemote(ctx context.Context, c *Client, tree string, local, remote notificationAgent, dryRun bool) (bool, error) {
	name := local.agentType()

	baseDiff, err := remotemap.Diff(local, remote, local.baseMap())
	if err != nil {
		return false, fmt.Errorf("%s notifications: %w", name, err)
	}
	optionsDiff := &remotemap.DiffResult{Payload: map[string]any{}}
	if entries := local.optionsMap(); len(entries) > 0 {
		if optionsDiff, err = remotemap.Diff(local, remote, entries); err != nil {
			return false, fmt.Errorf("%s notifications: %w", name, err)
		}
	}

	if enabled, _ := baseDiff.Payload["enabled"].(bool); enabled {
		if err := checkRequiredNotificationOptions(local, optionsDiff.Payload); err != nil {
			return false, err
		}
	}

	if !baseDiff.Changed && !optionsDiff.Changed {
		c.logger.Debug().Msgf("%s: remote configuration up to date", tree)
		return false, nil
	}
	logChanges(c.logger, tree, append(baseDiff.Changes, optionsDiff.Changes...))
	if dryRun {
		return true, nil
	}

	// Refetch so attributes outside the mapping are posted back intact.
	doc, err := c.NotificationSettings(ctx, name)
	if err != nil {
		return false, fmt.Errorf("%s notifications: %w", name, err)
	}
	options := notificationOptions(doc)
	for remoteName, value := range optionsDiff.Payload {
		options[remoteName] = value
	}
	for remoteName, value := range baseDiff.Payload {
		doc[remoteName] = value
	}
	doc["options"] = options
	if err := c.UpdateNotificationSettings(ctx, name, doc); err != nil {
		return false, fmt.Errorf("%s notifications: %w", name, err)
	}
	return true, nil
}

// checkRequiredNotificationOptions rejects an enabled agent whose
// required option fields encode to empty values, before any update is
// sent.
func checkRequiredNotificationOptions(agent notificationAgent, payload map[string]any) error {
	required := agent.requiredWhenEnabled()
	if len(required) == 0 {
		return nil
	}
	remoteName := make(map[string]string, len(required))
	for _, entry := range agent.optionsMap() {
		remoteName[entry.Local] = entry.Remote
	}
	var empty []string
	for _, field := range required {
		value := payload[remoteName[field]]
		blank := value == nil
		if text, ok := value.(string); ok {
			blank = strings.TrimSpace(text) == ""
		}
		if blank {
			empty = append(empty, fmt.Sprintf("'%s'", field))
		}
	}
	if len(empty) > 0 {
		return fmt.Errorf("attributes for notification type '%s' must not be empty when 'enable' is true: %s",
			agent.agentType(), strings.Join(empty, ", "))
	}
	return nil
}

// NotificationsSettings configures every notification service of a
// Jellyseerr instance.
type NotificationsSettings struct {
	Discord    DiscordSettings    `mapstructure:"discord" yaml:"discord"`
	Email      EmailSettings      `mapstructure:"email" yaml:"email"`
	Gotify     GotifySettings     `mapstructure:"gotify" yaml:"gotify"`
	LunaSea    LunaSeaSettings    `mapstructure:"lunasea" yaml:"lunasea"`
	Pushbullet PushbulletSettings `mapstructure:"pushbullet" yaml:"pushbullet"`
	Pushover   PushoverSettings   `mapstructure:"pushover" yaml:"pushover"`
	Slack      SlackSettings      `mapstructure:"slack" yaml:"slack"`
	Telegram   TelegramSettings   `mapstructure:"telegram" yaml:"telegram"`
	Webhook    WebhookSettings    `mapstructure:"webhook" yaml:"webhook"`
	Webpush    WebpushSettings    `mapstructure:"webpush" yaml:"webpush"`
}

// DefaultNotificationsSettings returns the notification settings a
// fresh Jellyseerr instance starts with, every agent disabled. Agents
// without a constructor here default to their zero value.
func DefaultNotificationsSettings() NotificationsSettings {
	return NotificationsSettings{
		Discord: DefaultDiscordSettings(),
		Email:   DefaultEmailSettings(),
		Webhook: DefaultWebhookSettings(),
	}
}

// NotificationsFromRemote reads the settings of every notification
// service from the instance.
func NotificationsFromRemote(ctx context.Context, c *Client) (*NotificationsSettings, error) {
	settings := DefaultNotificationsSettings()
	agents := []notificationAgent{
		&settings.Discord,
		&settings.Email,
		&settings.Gotify,
		&settings.LunaSea,
		&settings.Pushbullet,
		&settings.Pushover,
		&settings.Slack,
		&settings.Telegram,
		&settings.Webhook,
		&settings.Webpush,
	}
	for _, agent := range agents {
		if err := notificationFromRemote(ctx, c, agent); err != nil {
			return nil, err
		}
	}
	return &settings, nil
}

// UpdateRemote pushes the desired settings of every notification
// service to the instance. It reports whether any service needed an
// update.
func (s *NotificationsSettings) UpdateRemote(ctx context.Context, c *Client, tree string, remote *NotificationsSettings, dryRun bool) (bool, error) {
	changed := false
	agents := []struct {
		name          string
		local, remote notificationAgent
	}{
		{"discord", &s.Discord, &remote.Discord},
		{"email", &s.Email, &remote.Email},
		{"gotify", &s.Gotify, &remote.Gotify},
		{"lunasea", &s.LunaSea, &remote.LunaSea},
		{"pushbullet", &s.Pushbullet, &remote.Pushbullet},
		{"pushover", &s.Pushover, &remote.Pushover},
		{"slack", &s.Slack, &remote.Slack},
		{"telegram", &s.Telegram, &remote.Telegram},
		{"webhook", &s.Webhook, &remote.Webhook},
		{"webpush", &s.Webpush, &remote.Webpush},
	}
	for _, agent := range agents {
		agentChanged, err := notificationUpdateRemote(ctx, c, fmt.Sprintf("%s.%s", tree, agent.name), agent.local, agent.remote, dryRun)
		if err != nil {
			return changed, err
		}
		changed = changed || agentChanged
	}
	return changed, nil
}

// Validate checks agent field formats that do not require contacting
// the instance.
func (s *NotificationsSettings) Validate() error {
	checks := []struct {
		name     string
		validate func() error
	}{
		{"discord", s.Discord.validate},
		{"email", s.Email.validate},
		{"gotify", s.Gotify.validate},
		{"pushover", s.Pushover.validate},
		{"slack", s.Slack.validate},
		{"webhook", s.Webhook.validate},
	}
	for _, check := range checks {
		if err := check.validate(); err != nil {
			return fmt.Errorf("%s: %w", check.name, err)
		}
	}
	return nil
}
