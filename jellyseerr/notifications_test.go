package jellyseerr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// notificationsHarness serves one settings document per notification
// agent and records the documents posted back.
type notificationsHarness struct {
	docs    map[string]map[string]any
	updates map[string][]map[string]any
	server  *httptest.Server
}

func newNotificationsHarness(t *testing.T, docs map[string]map[string]any) *notificationsHarness {
	t.Helper()
	h := &notificationsHarness{docs: docs, updates: make(map[string][]map[string]any)}
	h.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/status" {
			json.NewEncoder(w).Encode(map[string]any{"version": "1.9.2"})
			return
		}
		agent := strings.TrimPrefix(r.URL.Path, "/api/v1/settings/notifications/")
		doc, ok := h.docs[agent]
		if !ok {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
			return
		}
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(doc)
		case http.MethodPost:
			h.updates[agent] = append(h.updates[agent], decodeBody(t, r))
			json.NewEncoder(w).Encode(doc)
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(h.server.Close)
	return h
}

func (h *notificationsHarness) client(t *testing.T) *Client {
	t.Helper()
	client, err := New(context.Background(), h.server.URL, "test-key", zerolog.Nop())
	require.NoError(t, err)
	return client
}

func agentDoc(options map[string]any) map[string]any {
	return map[string]any{
		"enabled": false,
		"types":   0,
		"options": options,
	}
}

// notificationDocs returns the agent documents of a fresh instance,
// matching DefaultNotificationsSettings.
func notificationDocs() map[string]map[string]any {
	return map[string]map[string]any{
		"discord": agentDoc(map[string]any{"webhookUrl": ""}),
		"email": agentDoc(map[string]any{
			"senderName":      "Jellyseerr",
			"emailFrom":       "",
			"smtpHost":        "",
			"smtpPort":        587,
			"secure":          false,
			"ignoreTls":       false,
			"requireTls":      false,
			"allowSelfSigned": false,
		}),
		"gotify":     agentDoc(map[string]any{"url": "", "token": ""}),
		"lunasea":    agentDoc(map[string]any{"webhookUrl": ""}),
		"pushbullet": agentDoc(map[string]any{"accessToken": ""}),
		"pushover":   agentDoc(map[string]any{"accessToken": "", "userToken": ""}),
		"slack":      agentDoc(map[string]any{"webhookUrl": ""}),
		"telegram":   agentDoc(map[string]any{"botAPI": "", "chatId": "", "sendSilently": false}),
		"webhook":    agentDoc(map[string]any{"webhookUrl": "", "jsonPayload": DefaultWebhookPayload}),
		"webpush":    {"enabled": false, "options": map[string]any{}},
	}
}

func TestNotificationsFromRemote(t *testing.T) {
	docs := notificationDocs()
	docs["discord"] = map[string]any{
		"enabled": true,
		"types":   260,
		"options": map[string]any{
			"webhookUrl":  "https://discord.com/api/webhooks/123/abc",
			"botUsername": "Jellyseerr Bot",
		},
	}
	docs["webpush"]["enabled"] = true
	h := newNotificationsHarness(t, docs)
	client := h.client(t)

	settings, err := NotificationsFromRemote(context.Background(), client)
	require.NoError(t, err)

	assert.True(t, settings.Discord.Enable)
	assert.Equal(t, []NotificationType{NotificationMediaApproved, NotificationIssueCreated}, settings.Discord.NotificationTypes)
	assert.Equal(t, "https://discord.com/api/webhooks/123/abc", settings.Discord.WebhookURL)
	assert.Equal(t, "Jellyseerr Bot", settings.Discord.Username)
	// absent optional attributes keep their defaults
	assert.True(t, settings.Discord.EnableMentions)

	assert.Equal(t, EncryptionSTARTTLSPrefer, settings.Email.EncryptionMethod)
	assert.Equal(t, 587, settings.Email.SMTPPort)
	assert.Equal(t, DefaultWebhookPayload, settings.Webhook.PayloadTemplate)
	assert.True(t, settings.Webpush.Enable)
}

func TestNotificationsUpdateRemote(t *testing.T) {
	t.Run("up to date", func(t *testing.T) {
		h := newNotificationsHarness(t, notificationDocs())
		client := h.client(t)

		remote, err := NotificationsFromRemote(context.Background(), client)
		require.NoError(t, err)
		desired := DefaultNotificationsSettings()

		changed, err := desired.UpdateRemote(context.Background(), client, "notifications", remote, false)
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Empty(t, h.updates)
	})

	t.Run("enable discord", func(t *testing.T) {
		docs := notificationDocs()
		docs["discord"]["options"].(map[string]any)["supplementaryKey"] = "kept"
		h := newNotificationsHarness(t, docs)
		client := h.client(t)

		remote, err := NotificationsFromRemote(context.Background(), client)
		require.NoError(t, err)
		desired := DefaultNotificationsSettings()
		desired.Discord.Enable = true
		desired.Discord.NotificationTypes = []NotificationType{NotificationMediaApproved}
		desired.Discord.WebhookURL = "https://discord.com/api/webhooks/123/abc"

		changed, err := desired.UpdateRemote(context.Background(), client, "notifications", remote, false)
		require.NoError(t, err)
		assert.True(t, changed)

		require.Len(t, h.updates["discord"], 1)
		payload := h.updates["discord"][0]
		assert.Equal(t, true, payload["enabled"])
		assert.Equal(t, float64(4), payload["types"])
		options := payload["options"].(map[string]any)
		assert.Equal(t, "https://discord.com/api/webhooks/123/abc", options["webhookUrl"])
		// attributes outside the mapping survive the round trip
		assert.Equal(t, "kept", options["supplementaryKey"])
		// untouched agents are not posted back
		assert.NotContains(t, h.updates, "email")
	})

	t.Run("required when enabled", func(t *testing.T) {
		h := newNotificationsHarness(t, notificationDocs())
		client := h.client(t)

		remote, err := NotificationsFromRemote(context.Background(), client)
		require.NoError(t, err)
		desired := DefaultNotificationsSettings()
		desired.Discord.Enable = true

		_, err = desired.UpdateRemote(context.Background(), client, "notifications", remote, false)
		require.Error(t, err)
		assert.Equal(t,
			"attributes for notification type 'discord' must not be empty when 'enable' is true: 'webhook_url'",
			err.Error())
		assert.Empty(t, h.updates)
	})

	t.Run("required when enabled lists every empty field", func(t *testing.T) {
		h := newNotificationsHarness(t, notificationDocs())
		client := h.client(t)

		remote, err := NotificationsFromRemote(context.Background(), client)
		require.NoError(t, err)
		desired := DefaultNotificationsSettings()
		desired.Email.Enable = true
		desired.Email.SenderName = ""

		_, err = desired.UpdateRemote(context.Background(), client, "notifications", remote, false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "notification type 'email'")
		assert.Contains(t, err.Error(), "'sender_name', 'sender_address', 'smtp_host'")
	})

	t.Run("dry run", func(t *testing.T) {
		h := newNotificationsHarness(t, notificationDocs())
		client := h.client(t)

		remote, err := NotificationsFromRemote(context.Background(), client)
		require.NoError(t, err)
		desired := DefaultNotificationsSettings()
		desired.Discord.Enable = true
		desired.Discord.WebhookURL = "https://discord.com/api/webhooks/123/abc"

		changed, err := desired.UpdateRemote(context.Background(), client, "notifications", remote, true)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Empty(t, h.updates)
	})
}

func TestEncryptionMethodDecode(t *testing.T) {
	tests := []struct {
		name                          string
		secure, ignoreTLS, requireTLS bool
		want                          EncryptionMethod
	}{
		{"starttls prefer", false, false, false, EncryptionSTARTTLSPrefer},
		{"smtps", true, false, false, EncryptionSMTPS},
		{"none", false, true, false, EncryptionNone},
		{"starttls strict", false, false, true, EncryptionSTARTTLSStrict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method, err := decodeEncryptionMethod(map[string]any{
				"secure":     tt.secure,
				"ignoreTls":  tt.ignoreTLS,
				"requireTls": tt.requireTLS,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, method)
		})
	}

	t.Run("conflicting flags", func(t *testing.T) {
		_, err := decodeEncryptionMethod(map[string]any{
			"secure":     true,
			"ignoreTls":  false,
			"requireTls": true,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid encryption attribute combination")
	})

	t.Run("missing flag", func(t *testing.T) {
		_, err := decodeEncryptionMethod(map[string]any{
			"secure":    true,
			"ignoreTls": false,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"requireTls"`)
	})
}

func TestParseEncryptionMethod(t *testing.T) {
	method, err := ParseEncryptionMethod("smtps")
	require.NoError(t, err)
	assert.Equal(t, EncryptionSMTPS, method)

	_, err = ParseEncryptionMethod("rot13")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown encryption method")
}

func TestNotificationTypesCodec(t *testing.T) {
	types := []NotificationType{NotificationMediaApproved, NotificationIssueCreated}
	mask := EncodeNotificationTypes(types)
	assert.Equal(t, int64(260), mask)
	assert.Equal(t, types, DecodeNotificationTypes(mask))
	assert.Empty(t, DecodeNotificationTypes(0))

	parsed, err := ParseNotificationType("media-available")
	require.NoError(t, err)
	assert.Equal(t, NotificationMediaAvailable, parsed)

	_, err = ParseNotificationType("carrier-pigeon")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown notification type")
}
