package jellyseerr

import (
	"fmt"
	"slices"

	"github.com/rebuildarr/buildarr-jellyseerr/bitmask"
)

// Permission is a single Jellyseerr user permission flag.
//
// The numeric values are the bits Jellyseerr packs into the
// defaultPermissions bitmask. Several flags are group flags that grant
// all of their member flags at once, and a few only make sense when a
// matching request permission is also granted.
type Permission int64

const (
	PermissionAdmin               Permission = 2
	PermissionManageSettings      Permission = 4
	PermissionManageUsers         Permission = 8
	PermissionManageRequests      Permission = 16
	PermissionRequest             Permission = 32
	PermissionVote                Permission = 64
	PermissionAutoApprove         Permission = 128
	PermissionAutoApproveMovie    Permission = 256
	PermissionAutoApproveSeries   Permission = 512
	PermissionRequest4K           Permission = 1024
	PermissionRequest4KMovie      Permission = 2048
	PermissionRequest4KSeries     Permission = 4096
	PermissionRequestAdvanced     Permission = 8192
	PermissionRequestView         Permission = 16384
	PermissionAutoApprove4K       Permission = 32768
	PermissionAutoApprove4KMovie  Permission = 65536
	PermissionAutoApprove4KSeries Permission = 131072
	PermissionRequestMovie        Permission = 262144
	PermissionRequestSeries       Permission = 524288
	PermissionManageIssues        Permission = 1048576
	PermissionViewIssues          Permission = 2097152
	PermissionCreateIssues        Permission = 4194304
	PermissionAutoRequest         Permission = 8388608
	PermissionAutoRequestMovie    Permission = 16777216
	PermissionAutoRequestSeries   Permission = 33554432
	PermissionRecentView          Permission = 67108864
	PermissionWatchlistView       Permission = 134217728
)

var permissionNames = map[Permission]string{
	PermissionAdmin:               "admin",
	PermissionManageSettings:      "manage-settings",
	PermissionManageUsers:         "manage-users",
	PermissionManageRequests:      "manage-requests",
	PermissionRequest:             "request",
	PermissionVote:                "vote",
	PermissionAutoApprove:         "auto-approve",
	PermissionAutoApproveMovie:    "auto-approve-movie",
	PermissionAutoApproveSeries:   "auto-approve-series",
	PermissionRequest4K:           "request-4k",
	PermissionRequest4KMovie:      "request-4k-movie",
	PermissionRequest4KSeries:     "request-4k-series",
	PermissionRequestAdvanced:     "request-advanced",
	PermissionRequestView:         "request-view",
	PermissionAutoApprove4K:       "auto-approve-4k",
	PermissionAutoApprove4KMovie:  "auto-approve-4k-movie",
	PermissionAutoApprove4KSeries: "auto-approve-4k-series",
	PermissionRequestMovie:        "request-movie",
	PermissionRequestSeries:       "request-series",
	PermissionManageIssues:        "manage-issues",
	PermissionViewIssues:          "view-issues",
	PermissionCreateIssues:        "create-issues",
	PermissionAutoRequest:         "auto-request",
	PermissionAutoRequestMovie:    "auto-request-movie",
	PermissionAutoRequestSeries:   "auto-request-series",
	PermissionRecentView:          "recent-view",
	PermissionWatchlistView:       "watchlist-view",
}

var permissionValues = func() map[string]Permission {
	values := make(map[string]Permission, len(permissionNames))
	for permission, name := range permissionNames {
		values[name] = permission
	}
	return values
}()

func (p Permission) String() string {
	if name, ok := permissionNames[p]; ok {
		return name
	}
	return fmt.Sprintf("permission(%d)", int64(p))
}

// MarshalYAML renders the permission under its configuration name.
func (p Permission) MarshalYAML() (any, error) {
	return p.String(), nil
}

// ParsePermission converts a configuration name into a Permission.
func ParsePermission(name string) (Permission, error) {
	if permission, ok := permissionValues[name]; ok {
		return permission, nil
	}
	return 0, fmt.Errorf("unknown permission %q", name)
}

// EncodePermissions packs a permission set into the bitmask value the
// Jellyseerr API stores.
func EncodePermissions(permissions []Permission) int64 {
	return bitmask.Encode(permissions)
}

// DecodePermissions unpacks a bitmask value into the canonical
// permission set it grants, applying Jellyseerr's permission
// hierarchy:
//
//   - admin grants everything and decodes to {admin} alone
//   - a group flag subsumes its members: when the group bit is set only
//     the group flag is reported, otherwise each member bit is reported
//     individually
//   - auto-request and auto-approve flags are only valid alongside the
//     matching request permission, and decoding fails when the
//     requirement is not met
//
// The returned set is sorted by bit value.
func DecodePermissions(mask int64) ([]Permission, error) {
	if bitmask.Has(mask, PermissionAdmin) {
		return []Permission{PermissionAdmin}, nil
	}

	var permissions []Permission
	has := func(p Permission) bool { return bitmask.Has(mask, p) }
	add := func(p Permission) { permissions = append(permissions, p) }
	granted := func(p Permission) bool { return slices.Contains(permissions, p) }

	for _, p := range []Permission{PermissionManageSettings, PermissionManageUsers, PermissionVote} {
		if has(p) {
			add(p)
		}
	}

	group := func(groupFlag Permission, members ...Permission) {
		if has(groupFlag) {
			add(groupFlag)
			return
		}
		for _, m := range members {
			if has(m) {
				add(m)
			}
		}
	}
	group(PermissionManageIssues, PermissionCreateIssues, PermissionViewIssues)
	group(PermissionManageRequests, PermissionRequestAdvanced, PermissionRequestView, PermissionRecentView, PermissionWatchlistView)
	group(PermissionRequest, PermissionRequestMovie, PermissionRequestSeries)
	group(PermissionRequest4K, PermissionRequest4KMovie, PermissionRequest4KSeries)

	// Like group, but every added flag requires its counterpart
	// request permission to have decoded already.
	dependentGroup := func(groupFlag, groupRequires Permission, members [][2]Permission) error {
		if has(groupFlag) {
			if !granted(groupRequires) {
				return permissionError(groupFlag, groupRequires)
			}
			add(groupFlag)
			return nil
		}
		for _, m := range members {
			flag, requires := m[0], m[1]
			if has(flag) {
				if !granted(requires) {
					return permissionError(flag, requires)
				}
				add(flag)
			}
		}
		return nil
	}

	if err := dependentGroup(PermissionAutoRequest, PermissionRequest, [][2]Permission{
		{PermissionAutoRequestMovie, PermissionRequestMovie},
		{PermissionAutoRequestSeries, PermissionRequestSeries},
	}); err != nil {
		return nil, err
	}
	if err := dependentGroup(PermissionAutoApprove, PermissionRequest, [][2]Permission{
		{PermissionAutoApproveMovie, PermissionRequestMovie},
		{PermissionAutoApproveSeries, PermissionRequestSeries},
	}); err != nil {
		return nil, err
	}
	if err := dependentGroup(PermissionAutoApprove4K, PermissionRequest4K, [][2]Permission{
		{PermissionAutoApprove4KMovie, PermissionRequest4KMovie},
		{PermissionAutoApprove4KSeries, PermissionRequest4KSeries},
	}); err != nil {
		return nil, err
	}

	slices.Sort(permissions)
	return permissions, nil
}

// ReducePermissions canonicalizes a permission set by round-tripping it
// through the bitmask form, folding member flags granted alongside
// their group flag into the group flag alone and validating request
// requirements.
func ReducePermissions(permissions []Permission) ([]Permission, error) {
	return DecodePermissions(EncodePermissions(permissions))
}

func permissionError(flag, requires Permission) error {
	return fmt.Errorf("permission '%s' requires permission '%s', which is not set", flag, requires)
}
