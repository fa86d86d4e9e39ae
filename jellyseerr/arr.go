package jellyseerr

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rebuildarr/buildarr-jellyseerr/remotemap"
	"github.com/rebuildarr/buildarr-jellyseerr/resource"
	"github.com/rebuildarr/buildarr-jellyseerr/secrets"
)

// ArrServerSettings holds the connection attributes shared by every
// service definition, regardless of the application type behind it.
//
// A definition identifies its server either by an explicit api_key or
// by instance_name, which borrows the API key of a linked instance
// registered in the secrets store.
type ArrServerSettings struct {
	InstanceName          string `mapstructure:"instance_name" yaml:"instance_name,omitempty"`
	IsDefaultServer       bool   `mapstructure:"is_default_server" yaml:"is_default_server"`
	Is4KServer            bool   `mapstructure:"is_4k_server" yaml:"is_4k_server"`
	Hostname              string `mapstructure:"hostname" yaml:"hostname"`
	Port                  int    `mapstructure:"port" yaml:"port"`
	UseSSL                bool   `mapstructure:"use_ssl" yaml:"use_ssl"`
	URLBase               string `mapstructure:"url_base" yaml:"url_base,omitempty"`
	ExternalURL           string `mapstructure:"external_url" yaml:"external_url,omitempty"`
	EnableScan            bool   `mapstructure:"enable_scan" yaml:"enable_scan"`
	EnableAutomaticSearch bool   `mapstructure:"enable_automatic_search" yaml:"enable_automatic_search"`
	APIKey                string `mapstructure:"api_key" yaml:"api_key,omitempty"`
}

func (s *ArrServerSettings) Field(name string) (any, error) {
	switch name {
	case "instance_name":
		return s.InstanceName, nil
	case "is_default_server":
		return s.IsDefaultServer, nil
	case "is_4k_server":
		return s.Is4KServer, nil
	case "hostname":
		return s.Hostname, nil
	case "port":
		return s.Port, nil
	case "use_ssl":
		return s.UseSSL, nil
	case "url_base":
		return s.URLBase, nil
	case "external_url":
		return s.ExternalURL, nil
	case "enable_scan":
		return s.EnableScan, nil
	case "enable_automatic_search":
		return s.EnableAutomaticSearch, nil
	case "api_key":
		return s.APIKey, nil
	}
	return nil, fmt.Errorf("unknown service field %q", name)
}

func (s *ArrServerSettings) SetField(name string, value any) error {
	var err error
	switch name {
	case "instance_name":
		s.InstanceName, err = remotemap.String(value)
	case "is_default_server":
		s.IsDefaultServer, err = remotemap.Bool(value)
	case "is_4k_server":
		s.Is4KServer, err = remotemap.Bool(value)
	case "hostname":
		s.Hostname, err = remotemap.String(value)
	case "port":
		s.Port, err = remotemap.Int(value)
	case "use_ssl":
		s.UseSSL, err = remotemap.Bool(value)
	case "url_base":
		s.URLBase, err = remotemap.String(value)
	case "external_url":
		s.ExternalURL, err = remotemap.String(value)
	case "enable_scan":
		s.EnableScan, err = remotemap.Bool(value)
	case "enable_automatic_search":
		s.EnableAutomaticSearch, err = remotemap.Bool(value)
	case "api_key":
		s.APIKey, err = remotemap.String(value)
	default:
		return fmt.Errorf("unknown service field %q", name)
	}
	return err
}

// baseRemoteMap maps the shared connection attributes. The search
// toggle is stored inverted on the remote side.
func (s *ArrServerSettings) baseRemoteMap() []remotemap.Entry {
	negate := func(value any) (any, error) {
		flag, err := remotemap.Bool(value)
		return !flag, err
	}
	return []remotemap.Entry{
		{Local: "is_default_server", Remote: "isDefault"},
		{Local: "is_4k_server", Remote: "is4k"},
		{Local: "hostname", Remote: "hostname"},
		{Local: "port", Remote: "port"},
		{Local: "use_ssl", Remote: "useSsl"},
		{Local: "url_base", Remote: "baseUrl"},
		{
			Local:    "external_url",
			Remote:   "externalUrl",
			Optional: true,
			SetIf: func(value any) bool {
				return value.(string) != ""
			},
		},
		{Local: "enable_scan", Remote: "syncEnabled"},
		{Local: "enable_automatic_search", Remote: "preventSearch", Decode: negate, Encode: negate},
		{Local: "api_key", Remote: "apiKey"},
	}
}

// testPayload builds the body for the connection test endpoint, which
// trades server credentials for the resource tables used to resolve
// profile and tag references.
func (s *ArrServerSettings) testPayload(apiKey string) map[string]any {
	payload := map[string]any{
		"hostname": s.Hostname,
		"port":     s.Port,
		"useSsl":   s.UseSSL,
		"apiKey":   apiKey,
	}
	if s.URLBase != "" {
		payload["urlBase"] = s.URLBase
	}
	return payload
}

// effectiveAPIKey returns the API key to configure for the definition,
// borrowing the linked instance's key from the secrets store when no
// explicit one is set.
func (s *ArrServerSettings) effectiveAPIKey(store *secrets.Store, kind ServiceKind) (string, error) {
	if s.APIKey != "" || s.InstanceName == "" {
		if s.APIKey == "" {
			return "", fmt.Errorf("api_key required when instance_name is not defined")
		}
		return s.APIKey, nil
	}
	switch kind {
	case ServiceRadarr:
		return store.RadarrAPIKey(s.InstanceName)
	case ServiceSonarr:
		return store.SonarrAPIKey(s.InstanceName)
	}
	return "", fmt.Errorf("no secrets available for service type %q", kind)
}

// serviceTables converts a connection test response into lookup tables.
type serviceTables struct {
	rootFolders      []string
	profiles         *resource.Table
	languageProfiles *resource.Table
	tags             *resource.Table
}

func newServiceTables(result *ServiceTestResult) serviceTables {
	tables := serviceTables{
		profiles:         resource.NewTable(),
		languageProfiles: resource.NewTable(),
		tags:             resource.NewTable(),
	}
	for _, folder := range result.RootFolders {
		tables.rootFolders = append(tables.rootFolders, folder.Path)
	}
	for _, profile := range result.Profiles {
		tables.profiles.Add(profile.Name, profile.ID)
	}
	for _, profile := range result.LanguageProfiles {
		tables.languageProfiles.Add(profile.Name, profile.ID)
	}
	for _, tag := range result.Tags {
		tables.tags.Add(tag.Label, tag.ID)
	}
	return tables
}

func (t serviceTables) checkRootFolder(folder string, required bool) error {
	if !required {
		return nil
	}
	for _, known := range t.rootFolders {
		if known == folder {
			return nil
		}
	}
	quoted := make([]string, len(t.rootFolders))
	for i, known := range t.rootFolders {
		quoted[i] = fmt.Sprintf("'%s'", known)
	}
	return fmt.Errorf("invalid root folder '%s' (expected one of: %s)",
		folder, strings.Join(quoted, ", "))
}

// resolveRefs canonicalizes a reference list against a lookup table,
// preserving the configured order.
func resolveRefs(description string, table *resource.Table, refs []resource.Ref, required bool) ([]resource.Ref, error) {
	resolved := make([]resource.Ref, 0, len(refs))
	for _, ref := range refs {
		r, err := resource.Resolve(description, table, ref, required)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, r)
	}
	return resolved, nil
}

// Reference codecs shared by the per-service remote maps. Decoding
// never consults the lookup tables, IDs stay IDs until resolution.

func decodeRef(value any) (any, error) {
	if value == nil {
		return resource.Ref{}, nil
	}
	if text, ok := value.(string); ok {
		if text == "" {
			return resource.Ref{}, nil
		}
		return resource.ByName(text), nil
	}
	return resource.FromValue(value)
}

func decodeRefList(value any) (any, error) {
	if value == nil {
		return []resource.Ref{}, nil
	}
	items, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("expected resource reference list, got %T", value)
	}
	refs := make([]resource.Ref, 0, len(items))
	for _, item := range items {
		ref, err := resource.FromValue(item)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// encodeRefID encodes a reference as the remote numeric ID.
func encodeRefID(description string, table *resource.Table) func(any) (any, error) {
	return func(value any) (any, error) {
		ref := value.(resource.Ref)
		switch {
		case ref.IsZero():
			return nil, nil
		case ref.IsID():
			return ref.ID(), nil
		}
		id, ok := table.ID(ref.Name())
		if !ok {
			return nil, fmt.Errorf("unknown %s '%s'", description, ref.Name())
		}
		return id, nil
	}
}

// encodeRefValue encodes a reference as it stands, the name for
// resolved references and the raw ID otherwise.
func encodeRefValue(value any) (any, error) {
	ref := value.(resource.Ref)
	switch {
	case ref.IsZero():
		return nil, nil
	case ref.IsID():
		return ref.ID(), nil
	}
	return ref.Name(), nil
}

// encodeRefIDs encodes a reference list as a sorted remote ID list.
func encodeRefIDs(description string, table *resource.Table) func(any) (any, error) {
	return func(value any) (any, error) {
		refs := value.([]resource.Ref)
		ids := make([]int, 0, len(refs))
		for _, ref := range refs {
			if ref.IsID() {
				ids = append(ids, ref.ID())
				continue
			}
			id, ok := table.ID(ref.Name())
			if !ok {
				return nil, fmt.Errorf("unknown %s '%s'", description, ref.Name())
			}
			ids = append(ids, id)
		}
		sort.Ints(ids)
		return ids, nil
	}
}

func refSet(value any) bool {
	return !value.(resource.Ref).IsZero()
}

// listServiceIDs maps remote service names to their numeric IDs.
func listServiceIDs(ctx context.Context, c *Client, kind ServiceKind) (map[string]int, error) {
	services, err := c.ListServices(ctx, kind)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]int, len(services))
	for _, doc := range services {
		name, err := remotemap.String(doc["name"])
		if err != nil {
			return nil, fmt.Errorf("%s service name: %w", kind, err)
		}
		id, err := remotemap.Int(doc["id"])
		if err != nil {
			return nil, fmt.Errorf("%s service ID: %w", kind, err)
		}
		ids[name] = id
	}
	return ids, nil
}

// sortedNames returns the map keys in lexical order, for deterministic
// traversal and messages.
func sortedNames[V any](definitions map[string]V) []string {
	names := make([]string, 0, len(definitions))
	for name := range definitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// checkDefaultSlots enforces the two default server slots, one non-4K
// and one 4K.
func checkDefaultSlots(servers map[string]ArrServerSettings) error {
	var defaults, defaults4K []string
	for _, name := range sortedNames(servers) {
		server := servers[name]
		if !server.IsDefaultServer {
			continue
		}
		if server.Is4KServer {
			defaults4K = append(defaults4K, fmt.Sprintf("'%s'", name))
		} else {
			defaults = append(defaults, fmt.Sprintf("'%s'", name))
		}
	}
	if len(defaults) > 1 {
		return fmt.Errorf("more than one instance set as the non-4K default: %s", strings.Join(defaults, ", "))
	}
	if len(defaults4K) > 1 {
		return fmt.Errorf("more than one instance set as the 4K default: %s", strings.Join(defaults4K, ", "))
	}
	return nil
}

func refList(value any) ([]resource.Ref, error) {
	if refs, ok := value.([]resource.Ref); ok {
		return refs, nil
	}
	return nil, fmt.Errorf("expected resource reference list, got %T", value)
}

func refValue(value any) (resource.Ref, error) {
	if ref, ok := value.(resource.Ref); ok {
		return ref, nil
	}
	return resource.Ref{}, fmt.Errorf("expected resource reference, got %T", value)
}
