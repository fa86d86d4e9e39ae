package jellyseerr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebuildarr/buildarr-jellyseerr/resource"
	"github.com/rebuildarr/buildarr-jellyseerr/secrets"
)

// serviceHarness fakes the service settings endpoints for one service
// kind and records every mutating request, so tests can assert on the
// exact API traffic a reconcile pass produces.
type serviceHarness struct {
	services []map[string]any
	test     ServiceTestResult

	testPayloads []map[string]any
	created      []map[string]any
	updated      map[int]map[string]any
	deleted      []int

	server *httptest.Server
}

func newServiceHarness(t *testing.T, kind ServiceKind) *serviceHarness {
	t.Helper()
	h := &serviceHarness{updated: make(map[int]map[string]any)}
	base := "/api/v1/settings/" + kind.String()
	h.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		switch {
		case r.URL.Path == "/api/v1/status":
			json.NewEncoder(w).Encode(map[string]any{"version": "1.9.2"})
		case r.Method == http.MethodPost && r.URL.Path == base+"/test":
			h.testPayloads = append(h.testPayloads, decodeBody(t, r))
			json.NewEncoder(w).Encode(h.test)
		case r.Method == http.MethodGet && r.URL.Path == base:
			docs := h.services
			if docs == nil {
				docs = []map[string]any{}
			}
			json.NewEncoder(w).Encode(docs)
		case r.Method == http.MethodPost && r.URL.Path == base:
			h.created = append(h.created, decodeBody(t, r))
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]any{})
		case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, base+"/"):
			h.updated[pathID(t, r.URL.Path)] = decodeBody(t, r)
			json.NewEncoder(w).Encode(map[string]any{})
		case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, base+"/"):
			h.deleted = append(h.deleted, pathID(t, r.URL.Path))
			json.NewEncoder(w).Encode(map[string]any{})
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(h.server.Close)
	return h
}

func (h *serviceHarness) client(t *testing.T) *Client {
	t.Helper()
	client, err := New(context.Background(), h.server.URL, "test-key", zerolog.Nop())
	require.NoError(t, err)
	return client
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
	return payload
}

func pathID(t *testing.T, path string) int {
	t.Helper()
	id, err := strconv.Atoi(path[strings.LastIndex(path, "/")+1:])
	require.NoError(t, err)
	return id
}

func radarrTestResult() ServiceTestResult {
	return ServiceTestResult{
		RootFolders: []ServiceRootFolder{{ID: 1, Path: "/movies"}},
		Profiles: []ServiceProfile{
			{ID: 5, Name: "HD - 1080p"},
			{ID: 6, Name: "Ultra-HD"},
		},
		Tags: []ServiceTag{
			{ID: 1, Label: "requests"},
			{ID: 2, Label: "anime"},
		},
	}
}

// managedRadarr is a fully specified definition matching
// remoteRadarrDoc, so the pair diffs clean.
func managedRadarr() RadarrService {
	service := DefaultRadarrService()
	service.IsDefaultServer = true
	service.Hostname = "radarr"
	service.APIKey = "1234567890abcdef1234567890abcdef"
	service.RootFolder = "/movies"
	service.QualityProfile = resource.ByName("HD - 1080p")
	service.Tags = []resource.Ref{resource.ByName("requests")}
	return service
}

func remoteRadarrDoc() map[string]any {
	return map[string]any{
		"id":                  1,
		"name":                "Radarr (HD)",
		"hostname":            "radarr",
		"port":                7878,
		"useSsl":              false,
		"baseUrl":             "",
		"activeDirectory":     "/movies",
		"activeProfileId":     5,
		"activeProfileName":   "HD - 1080p",
		"tags":                []any{1},
		"minimumAvailability": "released",
		"isDefault":           true,
		"is4k":                false,
		"syncEnabled":         false,
		"preventSearch":       false,
		"apiKey":              "1234567890abcdef1234567890abcdef",
	}
}

func TestRadarrUpdateRemoteCreate(t *testing.T) {
	h := newServiceHarness(t, ServiceRadarr)
	h.test = radarrTestResult()
	client := h.client(t)

	desired := &RadarrSettings{Definitions: map[string]RadarrService{
		"Radarr (HD)": managedRadarr(),
	}}
	remote := &RadarrSettings{Definitions: map[string]RadarrService{}}

	changed, err := desired.UpdateRemote(context.Background(), client, secrets.NewStore(), "radarr", remote, false)
	require.NoError(t, err)
	assert.True(t, changed)

	require.Len(t, h.testPayloads, 1)
	assert.Equal(t, "radarr", h.testPayloads[0]["hostname"])
	assert.Equal(t, float64(7878), h.testPayloads[0]["port"])
	assert.Equal(t, "1234567890abcdef1234567890abcdef", h.testPayloads[0]["apiKey"])

	require.Len(t, h.created, 1)
	payload := h.created[0]
	assert.Equal(t, "Radarr (HD)", payload["name"])
	assert.Equal(t, "radarr", payload["hostname"])
	assert.Equal(t, float64(7878), payload["port"])
	assert.Equal(t, false, payload["useSsl"])
	assert.Equal(t, "/movies", payload["activeDirectory"])
	assert.Equal(t, float64(5), payload["activeProfileId"])
	assert.Equal(t, "HD - 1080p", payload["activeProfileName"])
	assert.Equal(t, []any{float64(1)}, payload["tags"])
	assert.Equal(t, "released", payload["minimumAvailability"])
	assert.Equal(t, true, payload["isDefault"])
	assert.Equal(t, false, payload["is4k"])
	assert.Equal(t, false, payload["preventSearch"])
	assert.Equal(t, "1234567890abcdef1234567890abcdef", payload["apiKey"])
	assert.NotContains(t, payload, "externalUrl")
	assert.Empty(t, h.updated)
}

func TestRadarrUpdateRemoteUpToDate(t *testing.T) {
	h := newServiceHarness(t, ServiceRadarr)
	h.test = radarrTestResult()
	h.services = []map[string]any{remoteRadarrDoc()}
	client := h.client(t)

	remote, err := RadarrFromRemote(context.Background(), client)
	require.NoError(t, err)

	desired := &RadarrSettings{Definitions: map[string]RadarrService{
		"Radarr (HD)": managedRadarr(),
	}}
	changed, err := desired.UpdateRemote(context.Background(), client, secrets.NewStore(), "radarr", remote, false)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Empty(t, h.created)
	assert.Empty(t, h.updated)
}

func TestRadarrUpdateRemoteDrift(t *testing.T) {
	h := newServiceHarness(t, ServiceRadarr)
	h.test = radarrTestResult()
	doc := remoteRadarrDoc()
	doc["activeProfileId"] = 6
	doc["activeProfileName"] = "Ultra-HD"
	h.services = []map[string]any{doc}
	client := h.client(t)

	remote, err := RadarrFromRemote(context.Background(), client)
	require.NoError(t, err)

	desired := &RadarrSettings{Definitions: map[string]RadarrService{
		"Radarr (HD)": managedRadarr(),
	}}
	changed, err := desired.UpdateRemote(context.Background(), client, secrets.NewStore(), "radarr", remote, false)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Empty(t, h.created)

	require.Contains(t, h.updated, 1)
	payload := h.updated[1]
	assert.Equal(t, "Radarr (HD)", payload["name"])
	assert.Equal(t, float64(5), payload["activeProfileId"])
	assert.Equal(t, "HD - 1080p", payload["activeProfileName"])
	// update payloads carry the whole document, not a sparse patch
	assert.Equal(t, "radarr", payload["hostname"])
	assert.Equal(t, "/movies", payload["activeDirectory"])
}

func TestRadarrUpdateRemoteDryRun(t *testing.T) {
	h := newServiceHarness(t, ServiceRadarr)
	h.test = radarrTestResult()
	client := h.client(t)

	desired := &RadarrSettings{Definitions: map[string]RadarrService{
		"Radarr (HD)": managedRadarr(),
	}}
	remote := &RadarrSettings{Definitions: map[string]RadarrService{}}

	changed, err := desired.UpdateRemote(context.Background(), client, secrets.NewStore(), "radarr", remote, true)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Empty(t, h.created)
	assert.Empty(t, h.updated)
}

func TestRadarrFromRemote(t *testing.T) {
	h := newServiceHarness(t, ServiceRadarr)
	doc := remoteRadarrDoc()
	doc["minimumAvailability"] = "inCinemas"
	doc["preventSearch"] = true
	doc["externalUrl"] = "https://radarr.example.com"
	doc["tags"] = []any{1, 2}
	h.services = []map[string]any{doc}
	client := h.client(t)

	settings, err := RadarrFromRemote(context.Background(), client)
	require.NoError(t, err)
	require.Contains(t, settings.Definitions, "Radarr (HD)")

	service := settings.Definitions["Radarr (HD)"]
	assert.Equal(t, "radarr", service.Hostname)
	assert.Equal(t, 7878, service.Port)
	assert.True(t, service.IsDefaultServer)
	assert.False(t, service.Is4KServer)
	assert.Equal(t, AvailabilityInCinemas, service.MinimumAvailability)
	assert.False(t, service.EnableAutomaticSearch)
	assert.Equal(t, "https://radarr.example.com", service.ExternalURL)
	// the profile name wins over the raw ID so reads come back resolved
	assert.Equal(t, resource.ByName("HD - 1080p"), service.QualityProfile)
	assert.Equal(t, []resource.Ref{resource.ByID(1), resource.ByID(2)}, service.Tags)
}

func TestRadarrFromRemoteDefaults(t *testing.T) {
	h := newServiceHarness(t, ServiceRadarr)
	doc := remoteRadarrDoc()
	delete(doc, "minimumAvailability")
	delete(doc, "externalUrl")
	h.services = []map[string]any{doc}
	client := h.client(t)

	settings, err := RadarrFromRemote(context.Background(), client)
	require.NoError(t, err)

	service := settings.Definitions["Radarr (HD)"]
	assert.Equal(t, AvailabilityReleased, service.MinimumAvailability)
	assert.Empty(t, service.ExternalURL)
}

func TestRadarrDeleteRemote(t *testing.T) {
	newRemote := func(t *testing.T) (*serviceHarness, *Client, *RadarrSettings) {
		h := newServiceHarness(t, ServiceRadarr)
		doc4k := remoteRadarrDoc()
		doc4k["id"] = 2
		doc4k["name"] = "Radarr (4K)"
		doc4k["is4k"] = true
		doc4k["activeProfileId"] = 6
		doc4k["activeProfileName"] = "Ultra-HD"
		h.services = []map[string]any{remoteRadarrDoc(), doc4k}
		client := h.client(t)
		remote, err := RadarrFromRemote(context.Background(), client)
		require.NoError(t, err)
		return h, client, remote
	}
	managed := map[string]RadarrService{"Radarr (HD)": managedRadarr()}

	t.Run("unmanaged reported only", func(t *testing.T) {
		h, client, remote := newRemote(t)
		desired := &RadarrSettings{Definitions: managed}

		changed, err := desired.DeleteRemote(context.Background(), client, "radarr", remote, false)
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Empty(t, h.deleted)
	})

	t.Run("unmanaged deleted", func(t *testing.T) {
		h, client, remote := newRemote(t)
		desired := &RadarrSettings{DeleteUnmanaged: true, Definitions: managed}

		changed, err := desired.DeleteRemote(context.Background(), client, "radarr", remote, false)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, []int{2}, h.deleted)
	})

	t.Run("dry run", func(t *testing.T) {
		h, client, remote := newRemote(t)
		desired := &RadarrSettings{DeleteUnmanaged: true, Definitions: managed}

		changed, err := desired.DeleteRemote(context.Background(), client, "radarr", remote, true)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Empty(t, h.deleted)
	})
}

func TestRadarrInstanceNameBorrowsKey(t *testing.T) {
	h := newServiceHarness(t, ServiceRadarr)
	h.test = radarrTestResult()
	client := h.client(t)

	store := secrets.NewStore()
	store.AddRadarr("radarr-main", secrets.ServiceCredentials{
		URL:    "http://radarr:7878",
		APIKey: "abcdef1234567890abcdef1234567890",
	})

	service := managedRadarr()
	service.APIKey = ""
	service.InstanceName = "radarr-main"
	desired := &RadarrSettings{Definitions: map[string]RadarrService{
		"Radarr (HD)": service,
	}}
	remote := &RadarrSettings{Definitions: map[string]RadarrService{}}

	changed, err := desired.UpdateRemote(context.Background(), client, store, "radarr", remote, false)
	require.NoError(t, err)
	assert.True(t, changed)

	require.Len(t, h.testPayloads, 1)
	assert.Equal(t, "abcdef1234567890abcdef1234567890", h.testPayloads[0]["apiKey"])
	require.Len(t, h.created, 1)
	assert.Equal(t, "abcdef1234567890abcdef1234567890", h.created[0]["apiKey"])

	t.Run("unknown instance", func(t *testing.T) {
		service := managedRadarr()
		service.APIKey = ""
		service.InstanceName = "radarr-other"
		desired := &RadarrSettings{Definitions: map[string]RadarrService{
			"Radarr (HD)": service,
		}}

		_, err := desired.UpdateRemote(context.Background(), client, store, "radarr", remote, false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "radarr.definitions['Radarr (HD)']")
		assert.Contains(t, err.Error(), "radarr-other")
	})
}

func TestRadarrUpdateRemoteResolveErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RadarrService)
		errMsg string
	}{
		{
			name: "unknown quality profile",
			mutate: func(s *RadarrService) {
				s.QualityProfile = resource.ByName("Nonexistent")
			},
			errMsg: "invalid quality profile name 'Nonexistent'",
		},
		{
			name: "unknown root folder",
			mutate: func(s *RadarrService) {
				s.RootFolder = "/bad"
			},
			errMsg: "invalid root folder '/bad' (expected one of: '/movies')",
		},
		{
			name: "unknown tag",
			mutate: func(s *RadarrService) {
				s.Tags = []resource.Ref{resource.ByName("ghost")}
			},
			errMsg: "invalid tag name 'ghost'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newServiceHarness(t, ServiceRadarr)
			h.test = radarrTestResult()
			client := h.client(t)

			service := managedRadarr()
			tt.mutate(&service)
			desired := &RadarrSettings{Definitions: map[string]RadarrService{
				"Radarr (HD)": service,
			}}
			remote := &RadarrSettings{Definitions: map[string]RadarrService{}}

			_, err := desired.UpdateRemote(context.Background(), client, secrets.NewStore(), "radarr", remote, false)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "radarr.definitions['Radarr (HD)']")
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.Empty(t, h.created)
		})
	}
}

func TestRadarrSettingsValidate(t *testing.T) {
	valid := func() RadarrService { return managedRadarr() }

	tests := []struct {
		name        string
		definitions map[string]RadarrService
		errMsg      string
	}{
		{
			name:        "no definitions",
			definitions: nil,
		},
		{
			name:        "valid definition",
			definitions: map[string]RadarrService{"Radarr (HD)": valid()},
		},
		{
			name: "missing api key",
			definitions: map[string]RadarrService{"Radarr (HD)": func() RadarrService {
				s := valid()
				s.APIKey = ""
				return s
			}()},
			errMsg: "definitions['Radarr (HD)'].api_key: required when 'instance_name' is not defined",
		},
		{
			name: "missing hostname",
			definitions: map[string]RadarrService{"Radarr (HD)": func() RadarrService {
				s := valid()
				s.Hostname = ""
				return s
			}()},
			errMsg: "definitions['Radarr (HD)'].hostname: required",
		},
		{
			name: "missing root folder",
			definitions: map[string]RadarrService{"Radarr (HD)": func() RadarrService {
				s := valid()
				s.RootFolder = ""
				return s
			}()},
			errMsg: "definitions['Radarr (HD)'].root_folder: required",
		},
		{
			name: "missing quality profile",
			definitions: map[string]RadarrService{"Radarr (HD)": func() RadarrService {
				s := valid()
				s.QualityProfile = resource.Ref{}
				return s
			}()},
			errMsg: "definitions['Radarr (HD)'].quality_profile: required",
		},
		{
			name: "duplicate non-4k default",
			definitions: map[string]RadarrService{
				"Radarr (A)": valid(),
				"Radarr (B)": valid(),
			},
			errMsg: "more than one instance set as the non-4K default: 'Radarr (A)', 'Radarr (B)'",
		},
		{
			name: "duplicate 4k default",
			definitions: map[string]RadarrService{
				"Radarr (A)": func() RadarrService {
					s := valid()
					s.Is4KServer = true
					return s
				}(),
				"Radarr (B)": func() RadarrService {
					s := valid()
					s.Is4KServer = true
					return s
				}(),
			},
			errMsg: "more than one instance set as the 4K default: 'Radarr (A)', 'Radarr (B)'",
		},
		{
			name: "one default per slot",
			definitions: map[string]RadarrService{
				"Radarr (HD)": valid(),
				"Radarr (4K)": func() RadarrService {
					s := valid()
					s.Is4KServer = true
					return s
				}(),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := &RadarrSettings{Definitions: tt.definitions}
			err := settings.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
