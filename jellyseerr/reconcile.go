package jellyseerr

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rebuildarr/buildarr-jellyseerr/secrets"
)

// Reconciler applies a desired settings tree to a Jellyseerr instance
// with the minimal set of API calls. Sections are processed in a fixed
// order, and definition delete passes run only after every section has
// been brought up to date.
type Reconciler struct {
	client *Client
	store  *secrets.Store
	logger zerolog.Logger
	dryRun bool
}

// NewReconciler returns a reconciler for the given instance. The
// secrets store lends linked service API keys to definitions that name
// an instance instead of carrying a key, and may be nil when no links
// are configured.
func NewReconciler(client *Client, store *secrets.Store, logger zerolog.Logger, dryRun bool) *Reconciler {
	return &Reconciler{
		client: client,
		store:  store,
		logger: logger,
		dryRun: dryRun,
	}
}

// Run reads the remote settings tree, diffs the desired tree against
// it and applies whatever differs. The tree argument prefixes every
// change log line, for example "jellyseerr.settings". It reports
// whether anything had to change.
func (r *Reconciler) Run(ctx context.Context, tree string, desired *Settings) (bool, error) {
	remote, err := SettingsFromRemote(ctx, r.client)
	if err != nil {
		return false, fmt.Errorf("read remote configuration: %w", err)
	}

	changed := false
	generalChanged, err := desired.General.UpdateRemote(ctx, r.client, tree+".general", &remote.General, r.dryRun)
	if err != nil {
		return changed, err
	}
	changed = changed || generalChanged

	jellyfinChanged, err := desired.Jellyfin.UpdateRemote(ctx, r.client, tree+".jellyfin", &remote.Jellyfin, r.dryRun)
	if err != nil {
		return changed, err
	}
	changed = changed || jellyfinChanged

	usersChanged, err := desired.Users.UpdateRemote(ctx, r.client, tree+".users", &remote.Users, r.dryRun)
	if err != nil {
		return changed, err
	}
	changed = changed || usersChanged

	radarrChanged, err := desired.Radarr.UpdateRemote(ctx, r.client, r.store, tree+".radarr", &remote.Radarr, r.dryRun)
	if err != nil {
		return changed, err
	}
	changed = changed || radarrChanged

	sonarrChanged, err := desired.Sonarr.UpdateRemote(ctx, r.client, r.store, tree+".sonarr", &remote.Sonarr, r.dryRun)
	if err != nil {
		return changed, err
	}
	changed = changed || sonarrChanged

	notificationsChanged, err := desired.Notifications.UpdateRemote(ctx, r.client, tree+".notifications", &remote.Notifications, r.dryRun)
	if err != nil {
		return changed, err
	}
	changed = changed || notificationsChanged

	radarrDeleted, err := desired.Radarr.DeleteRemote(ctx, r.client, tree+".radarr", &remote.Radarr, r.dryRun)
	if err != nil {
		return changed, err
	}
	changed = changed || radarrDeleted

	sonarrDeleted, err := desired.Sonarr.DeleteRemote(ctx, r.client, tree+".sonarr", &remote.Sonarr, r.dryRun)
	if err != nil {
		return changed, err
	}
	changed = changed || sonarrDeleted

	return changed, nil
}
