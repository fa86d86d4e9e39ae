package jellyseerr

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Status retrieves the version and update state of the instance
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var status Status
	if err := c.Get(ctx, "/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// PublicSettings retrieves the publicly readable settings. No API key
// is required, so this also works against uninitialized instances.
func (c *Client) PublicSettings(ctx context.Context) (*PublicSettings, error) {
	var settings PublicSettings
	if err := c.Get(ctx, "/settings/public", &settings, WithoutAPIKey()); err != nil {
		return nil, err
	}
	return &settings, nil
}

// IsInitialized reports whether the instance has completed its initial
// setup wizard
func (c *Client) IsInitialized(ctx context.Context) (bool, error) {
	settings, err := c.PublicSettings(ctx)
	if err != nil {
		return false, err
	}
	return settings.Initialized, nil
}

// MainSettings retrieves the raw main settings document
func (c *Client) MainSettings(ctx context.Context) (map[string]any, error) {
	var settings map[string]any
	if err := c.Get(ctx, "/settings/main", &settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// UpdateMainSettings submits a full main settings document
func (c *Client) UpdateMainSettings(ctx context.Context, payload map[string]any) error {
	return c.Post(ctx, "/settings/main", payload, nil, ExpectStatus(http.StatusOK))
}

// JellyfinSettings retrieves the raw Jellyfin settings document
func (c *Client) JellyfinSettings(ctx context.Context) (map[string]any, error) {
	var settings map[string]any
	if err := c.Get(ctx, "/settings/jellyfin", &settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// UpdateJellyfinSettings submits a full Jellyfin settings document
func (c *Client) UpdateJellyfinSettings(ctx context.Context, payload map[string]any) error {
	return c.Post(ctx, "/settings/jellyfin", payload, nil, ExpectStatus(http.StatusOK))
}

// JellyfinLibraries lists the libraries known to Jellyseerr. With sync
// set, Jellyseerr rescans the media server for new libraries first.
func (c *Client) JellyfinLibraries(ctx context.Context, sync bool) ([]Library, error) {
	path := "/settings/jellyfin/library"
	if sync {
		path += "?sync=true"
	}
	var libraries []Library
	if err := c.Get(ctx, path, &libraries); err != nil {
		return nil, err
	}
	return libraries, nil
}

// EnableJellyfinLibraries sets the exact list of enabled library IDs
func (c *Client) EnableJellyfinLibraries(ctx context.Context, ids []string) ([]Library, error) {
	path := "/settings/jellyfin/library?enable=" + strings.Join(ids, ",")
	var libraries []Library
	if err := c.Get(ctx, path, &libraries); err != nil {
		return nil, err
	}
	return libraries, nil
}

// SignInJellyfin authenticates against the media server during initial
// setup, establishing the session cookie the remaining setup calls use
func (c *Client) SignInJellyfin(ctx context.Context, auth JellyfinAuth) error {
	return c.Post(ctx, "/auth/jellyfin", auth, nil, ExpectStatus(http.StatusOK), WithoutAPIKey())
}

// FinalizeInitialization marks the initial setup wizard as completed
func (c *Client) FinalizeInitialization(ctx context.Context) error {
	return c.Post(ctx, "/settings/initialize", map[string]any{}, nil, ExpectStatus(http.StatusOK), WithoutAPIKey())
}

// NotificationSettings retrieves the raw settings document for one
// notification agent
func (c *Client) NotificationSettings(ctx context.Context, agent string) (map[string]any, error) {
	var settings map[string]any
	if err := c.Get(ctx, "/settings/notifications/"+agent, &settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// UpdateNotificationSettings submits a full settings document for one
// notification agent
func (c *Client) UpdateNotificationSettings(ctx context.Context, agent string, payload map[string]any) error {
	return c.Post(ctx, "/settings/notifications/"+agent, payload, nil, ExpectStatus(http.StatusOK))
}

// ListServices retrieves the raw service definition documents for a
// service kind
func (c *Client) ListServices(ctx context.Context, kind ServiceKind) ([]map[string]any, error) {
	var services []map[string]any
	if err := c.Get(ctx, "/settings/"+kind.String(), &services); err != nil {
		return nil, err
	}
	return services, nil
}

// TestService checks connectivity to a Radarr or Sonarr instance and
// returns the resources available on it
func (c *Client) TestService(ctx context.Context, kind ServiceKind, payload map[string]any) (*ServiceTestResult, error) {
	var result ServiceTestResult
	if err := c.Post(ctx, "/settings/"+kind.String()+"/test", payload, &result, ExpectStatus(http.StatusOK)); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateService adds a new service definition
func (c *Client) CreateService(ctx context.Context, kind ServiceKind, payload map[string]any) error {
	return c.Post(ctx, "/settings/"+kind.String(), payload, nil)
}

// UpdateService replaces an existing service definition
func (c *Client) UpdateService(ctx context.Context, kind ServiceKind, id int, payload map[string]any) error {
	return c.Put(ctx, fmt.Sprintf("/settings/%s/%d", kind, id), payload, nil)
}

// DeleteService removes a service definition
func (c *Client) DeleteService(ctx context.Context, kind ServiceKind, id int) error {
	return c.Delete(ctx, fmt.Sprintf("/settings/%s/%d", kind, id))
}
