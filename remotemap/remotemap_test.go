package remotemap

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// endpoint is a minimal settings object exercising every entry option.
type endpoint struct {
	Host    string
	Port    int
	Secure  bool
	Label   string
	Contact string
}

func (e *endpoint) Field(name string) (any, error) {
	switch name {
	case "host":
		return e.Host, nil
	case "port":
		return e.Port, nil
	case "secure":
		return e.Secure, nil
	case "label":
		return e.Label, nil
	case "contact":
		return e.Contact, nil
	}
	return nil, fmt.Errorf("unknown field %q", name)
}

func (e *endpoint) SetField(name string, value any) error {
	var err error
	switch name {
	case "host":
		e.Host, err = String(value)
	case "port":
		e.Port, err = Int(value)
	case "secure":
		e.Secure, err = Bool(value)
	case "label":
		e.Label, err = String(value)
	case "contact":
		e.Contact, err = String(value)
	default:
		return fmt.Errorf("unknown field %q", name)
	}
	return err
}

func endpointEntries() []Entry {
	return []Entry{
		{Local: "host", Remote: "hostname"},
		{Local: "port", Remote: "port"},
		{Local: "secure", Remote: "useSsl"},
		{
			Local:    "label",
			Remote:   "label",
			Optional: true,
			SetIf:    func(v any) bool { return v.(string) != "" },
		},
		{
			Local:  "contact",
			Remote: "contact",
			DecodeRoot: func(remote map[string]any) (any, error) {
				name, _ := remote["contactName"].(string)
				domain, _ := remote["contactDomain"].(string)
				if name == "" || domain == "" {
					return "", nil
				}
				return name + "@" + domain, nil
			},
		},
	}
}

func TestDecode(t *testing.T) {
	t.Run("decodes all mapped fields", func(t *testing.T) {
		var e endpoint
		err := Decode(&e, endpointEntries(), map[string]any{
			"hostname":      "jellyseerr",
			"port":          float64(5055),
			"useSsl":        true,
			"label":         "primary",
			"contactName":   "admin",
			"contactDomain": "example.com",
		})
		require.NoError(t, err)
		assert.Equal(t, endpoint{
			Host:    "jellyseerr",
			Port:    5055,
			Secure:  true,
			Label:   "primary",
			Contact: "admin@example.com",
		}, e)
	})

	t.Run("optional field keeps local default when absent", func(t *testing.T) {
		e := endpoint{Label: "default"}
		err := Decode(&e, endpointEntries(), map[string]any{
			"hostname": "jellyseerr",
			"port":     float64(5055),
			"useSsl":   false,
		})
		require.NoError(t, err)
		assert.Equal(t, "default", e.Label)
	})

	t.Run("missing required field errors", func(t *testing.T) {
		var e endpoint
		err := Decode(&e, endpointEntries(), map[string]any{
			"port":   float64(5055),
			"useSsl": false,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"hostname"`)
	})

	t.Run("later entry for the same local field wins", func(t *testing.T) {
		entries := []Entry{
			{Local: "host", Remote: "hostId", Decode: func(v any) (any, error) {
				id, err := Int(v)
				return fmt.Sprintf("host-%d", id), err
			}},
			{Local: "host", Remote: "hostName"},
		}
		var e endpoint
		err := Decode(&e, entries, map[string]any{
			"hostId":   float64(7),
			"hostName": "media-server",
		})
		require.NoError(t, err)
		assert.Equal(t, "media-server", e.Host)
	})

	t.Run("decoder errors carry the field name", func(t *testing.T) {
		entries := []Entry{{Local: "port", Remote: "port", Decode: func(any) (any, error) {
			return nil, errors.New("bad value")
		}}}
		var e endpoint
		err := Decode(&e, entries, map[string]any{"port": "oops"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode port")
	})
}

func TestEncode(t *testing.T) {
	e := endpoint{Host: "jellyseerr", Port: 5055, Secure: true, Contact: "admin@example.com"}

	payload, err := Encode(&e, endpointEntries())
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"hostname": "jellyseerr",
		"port":     5055,
		"useSsl":   true,
		"contact":  "admin@example.com",
	}, payload)

	// Empty label fails its SetIf gate and stays out of the payload.
	assert.NotContains(t, payload, "label")

	e.Label = "primary"
	payload, err = Encode(&e, endpointEntries())
	require.NoError(t, err)
	assert.Equal(t, "primary", payload["label"])
}

func TestDiff(t *testing.T) {
	base := endpoint{Host: "jellyseerr", Port: 5055, Secure: false, Label: "primary"}

	t.Run("identical objects report no change but a full payload", func(t *testing.T) {
		local, remote := base, base
		result, err := Diff(&local, &remote, endpointEntries())
		require.NoError(t, err)
		assert.False(t, result.Changed)
		assert.Empty(t, result.Changes)
		assert.Equal(t, map[string]any{
			"hostname": "jellyseerr",
			"port":     5055,
			"useSsl":   false,
			"label":    "primary",
			"contact":  "",
		}, result.Payload)
	})

	t.Run("differing fields are reported with old and new values", func(t *testing.T) {
		local, remote := base, base
		local.Port = 5056
		local.Secure = true

		result, err := Diff(&local, &remote, endpointEntries())
		require.NoError(t, err)
		assert.True(t, result.Changed)
		assert.Equal(t, []FieldChange{
			{Field: "port", Old: 5055, New: 5056},
			{Field: "secure", Old: false, New: true},
		}, result.Changes)
		assert.Equal(t, 5056, result.Payload["port"])
		assert.Equal(t, true, result.Payload["useSsl"])
	})

	t.Run("set_if gates the payload but not change detection", func(t *testing.T) {
		local, remote := base, base
		local.Label = ""

		result, err := Diff(&local, &remote, endpointEntries())
		require.NoError(t, err)
		assert.True(t, result.Changed)
		require.Len(t, result.Changes, 1)
		assert.Equal(t, "label", result.Changes[0].Field)
		assert.NotContains(t, result.Payload, "label")
	})

	t.Run("comparison happens on encoded values", func(t *testing.T) {
		entries := []Entry{{
			Local:  "host",
			Remote: "hostname",
			Encode: func(v any) (any, error) {
				return strings.ToLower(v.(string)), nil
			},
		}}
		local := endpoint{Host: "Jellyseerr"}
		remote := endpoint{Host: "JELLYSEERR"}

		result, err := Diff(&local, &remote, entries)
		require.NoError(t, err)
		assert.False(t, result.Changed)
		assert.Equal(t, "jellyseerr", result.Payload["hostname"])
	})

	t.Run("encoder errors abort the diff", func(t *testing.T) {
		entries := []Entry{{
			Local:  "host",
			Remote: "hostname",
			Encode: func(any) (any, error) { return nil, errors.New("no table") },
		}}
		local := endpoint{Host: "a"}
		remote := endpoint{Host: "b"}

		_, err := Diff(&local, &remote, entries)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "encode host")
	})
}

func TestCoerce(t *testing.T) {
	port, err := Int(float64(8080))
	require.NoError(t, err)
	assert.Equal(t, 8080, port)

	_, err = Int("8080")
	assert.Error(t, err)

	s, err := String(nil)
	require.NoError(t, err)
	assert.Equal(t, "", s)

	list, err := StringSlice([]any{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, list)

	_, err = StringSlice([]any{"a", 1})
	assert.Error(t, err)
}
