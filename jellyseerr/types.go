package jellyseerr

// ServiceKind selects which *arr service settings endpoints to use
type ServiceKind string

const (
	// ServiceRadarr addresses the Radarr service endpoints
	ServiceRadarr ServiceKind = "radarr"
	// ServiceSonarr addresses the Sonarr service endpoints
	ServiceSonarr ServiceKind = "sonarr"
)

func (k ServiceKind) String() string {
	return string(k)
}

// Status is the response from the status endpoint
type Status struct {
	Version         string `json:"version"`
	CommitTag       string `json:"commitTag"`
	UpdateAvailable bool   `json:"updateAvailable"`
	CommitsBehind   int    `json:"commitsBehind"`
	RestartRequired bool   `json:"restartRequired"`
}

// PublicSettings is the subset of the public settings endpoint the
// reconciler cares about. It is readable without an API key.
type PublicSettings struct {
	Initialized bool `json:"initialized"`
}

// Library is a media server library as known to Jellyseerr
type Library struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// JellyfinAuth is the sign-in request for a Jellyfin media server
type JellyfinAuth struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Hostname string `json:"hostname"`
	Email    string `json:"email"`
}

// ServiceProfile is a quality or language profile advertised by a
// linked Radarr or Sonarr instance
type ServiceProfile struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ServiceTag is a tag advertised by a linked Radarr or Sonarr instance
type ServiceTag struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

// ServiceRootFolder is a root folder advertised by a linked Radarr or
// Sonarr instance
type ServiceRootFolder struct {
	ID   int    `json:"id"`
	Path string `json:"path"`
}

// ServiceTestResult is the connection test response for a Radarr or
// Sonarr instance, listing the resources available on it
type ServiceTestResult struct {
	RootFolders      []ServiceRootFolder `json:"rootFolders"`
	Profiles         []ServiceProfile    `json:"profiles"`
	LanguageProfiles []ServiceProfile    `json:"languageProfiles"`
	Tags             []ServiceTag        `json:"tags"`
}
