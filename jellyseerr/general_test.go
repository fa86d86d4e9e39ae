package jellyseerr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mainSettingsHarness serves the main settings document and records
// the update payloads pushed back to it.
type mainSettingsHarness struct {
	doc     map[string]any
	updates []map[string]any
	server  *httptest.Server
}

func newMainSettingsHarness(t *testing.T, doc map[string]any) *mainSettingsHarness {
	t.Helper()
	h := &mainSettingsHarness{doc: doc}
	h.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/v1/status":
			json.NewEncoder(w).Encode(map[string]any{"version": "1.9.2"})
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/settings/main":
			json.NewEncoder(w).Encode(h.doc)
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/settings/main":
			h.updates = append(h.updates, decodeBody(t, r))
			json.NewEncoder(w).Encode(h.doc)
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(h.server.Close)
	return h
}

func (h *mainSettingsHarness) client(t *testing.T) *Client {
	t.Helper()
	client, err := New(context.Background(), h.server.URL, "test-key", zerolog.Nop())
	require.NoError(t, err)
	return client
}

// mainSettingsDoc is the main settings document of a freshly
// initialized instance.
func mainSettingsDoc() map[string]any {
	return map[string]any{
		"applicationTitle":       "Jellyseerr",
		"applicationUrl":         "",
		"trustProxy":             false,
		"csrfProtection":         false,
		"cacheImages":            false,
		"locale":                 "en",
		"originalLanguage":       "",
		"region":                 "",
		"hideAvailable":          false,
		"partialRequestsEnabled": true,
		"localLogin":             true,
		"newPlexLogin":           true,
		"defaultQuotas": map[string]any{
			"movie": map[string]any{"quotaLimit": 0, "quotaDays": 7},
			"tv":    map[string]any{"quotaLimit": 0, "quotaDays": 7},
		},
		"defaultPermissions": 1056,
	}
}

func TestGeneralFromRemote(t *testing.T) {
	doc := mainSettingsDoc()
	doc["locale"] = ""
	doc["originalLanguage"] = "en|ja"
	doc["region"] = "US"
	h := newMainSettingsHarness(t, doc)
	client := h.client(t)

	settings, err := GeneralFromRemote(context.Background(), client)
	require.NoError(t, err)

	// an empty remote locale reads back as the default language
	assert.Equal(t, "en", settings.DisplayLanguage)
	assert.Equal(t, []string{"en", "ja"}, settings.DiscoverLanguages)
	assert.Equal(t, "US", settings.DiscoverRegion)
	assert.Equal(t, "Jellyseerr", settings.ApplicationTitle)
	assert.True(t, settings.AllowPartialSeriesRequests)
}

func TestGeneralUpdateRemote(t *testing.T) {
	t.Run("up to date", func(t *testing.T) {
		h := newMainSettingsHarness(t, mainSettingsDoc())
		client := h.client(t)

		remote, err := GeneralFromRemote(context.Background(), client)
		require.NoError(t, err)
		desired := DefaultGeneralSettings()

		changed, err := desired.UpdateRemote(context.Background(), client, "general", remote, false)
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Empty(t, h.updates)
	})

	t.Run("drifted", func(t *testing.T) {
		h := newMainSettingsHarness(t, mainSettingsDoc())
		client := h.client(t)

		remote, err := GeneralFromRemote(context.Background(), client)
		require.NoError(t, err)
		desired := DefaultGeneralSettings()
		desired.ApplicationTitle = "Requests"
		desired.DiscoverLanguages = []string{"ja", "en"}

		changed, err := desired.UpdateRemote(context.Background(), client, "general", remote, false)
		require.NoError(t, err)
		assert.True(t, changed)

		require.Len(t, h.updates, 1)
		payload := h.updates[0]
		assert.Equal(t, "Requests", payload["applicationTitle"])
		// languages are joined in sorted order for a stable wire form
		assert.Equal(t, "en|ja", payload["originalLanguage"])
		// the settings endpoint expects the whole document back
		assert.Equal(t, "en", payload["locale"])
		assert.Equal(t, true, payload["partialRequestsEnabled"])
	})

	t.Run("dry run", func(t *testing.T) {
		h := newMainSettingsHarness(t, mainSettingsDoc())
		client := h.client(t)

		remote, err := GeneralFromRemote(context.Background(), client)
		require.NoError(t, err)
		desired := DefaultGeneralSettings()
		desired.ApplicationTitle = "Requests"

		changed, err := desired.UpdateRemote(context.Background(), client, "general", remote, true)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Empty(t, h.updates)
	})
}

func TestGeneralSettingsValidate(t *testing.T) {
	settings := DefaultGeneralSettings()
	assert.NoError(t, settings.Validate())

	settings.ApplicationURL = "https://requests.example.com"
	assert.NoError(t, settings.Validate())

	settings.ApplicationURL = "ftp://requests.example.com"
	err := settings.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "application_url")
}
