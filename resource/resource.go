// Package resource models references to remote Jellyseerr resources such
// as quality profiles, language profiles and tags. A reference is either
// a human-readable name or the numeric ID the remote service knows it by,
// and resolution canonicalizes IDs back to names against the lookup
// tables returned by the service test endpoints.
package resource

import (
	"fmt"
	"strconv"
	"strings"
)

// Ref identifies a remote resource by name or by numeric ID.
// The zero Ref means the field is unset.
type Ref struct {
	name string
	id   int
	byID bool
}

// ByName returns a reference identifying a resource by name.
func ByName(name string) Ref {
	return Ref{name: name}
}

// ByID returns a reference identifying a resource by its remote ID.
func ByID(id int) Ref {
	return Ref{id: id, byID: true}
}

// FromValue converts a decoded JSON or YAML scalar into a Ref.
func FromValue(value any) (Ref, error) {
	switch v := value.(type) {
	case string:
		return ByName(v), nil
	case int:
		return ByID(v), nil
	case int64:
		return ByID(int(v)), nil
	case float64:
		return ByID(int(v)), nil
	default:
		return Ref{}, fmt.Errorf("cannot use %T value %v as a resource reference", value, value)
	}
}

// IsID reports whether the reference is numeric.
func (r Ref) IsID() bool { return r.byID }

// IsZero reports whether the reference is unset.
func (r Ref) IsZero() bool { return !r.byID && r.name == "" }

// Name returns the referenced name. Only meaningful when IsID is false.
func (r Ref) Name() string { return r.name }

// ID returns the referenced remote ID. Only meaningful when IsID is true.
func (r Ref) ID() int { return r.id }

func (r Ref) String() string {
	if r.byID {
		return strconv.Itoa(r.id)
	}
	return r.name
}

// MarshalYAML renders the reference the way it is written in
// configuration files: a plain integer for ID references, a string
// otherwise.
func (r Ref) MarshalYAML() (any, error) {
	if r.byID {
		return r.id, nil
	}
	return r.name, nil
}

// Table maps resource names to their remote IDs, preserving the order
// the remote service listed them in.
type Table struct {
	names []string
	ids   map[string]int
}

// NewTable returns an empty lookup table.
func NewTable() *Table {
	return &Table{ids: make(map[string]int)}
}

// Add records a name to ID mapping. Re-adding a name updates its ID
// without changing its position.
func (t *Table) Add(name string, id int) {
	if _, ok := t.ids[name]; !ok {
		t.names = append(t.names, name)
	}
	t.ids[name] = id
}

// ID looks up the remote ID for a name.
func (t *Table) ID(name string) (int, bool) {
	id, ok := t.ids[name]
	return id, ok
}

// NameOf looks up the name registered for a remote ID.
func (t *Table) NameOf(id int) (string, bool) {
	for _, name := range t.names {
		if t.ids[name] == id {
			return name, true
		}
	}
	return "", false
}

// Len returns the number of entries in the table.
func (t *Table) Len() int { return len(t.names) }

// Names returns the registered names in listing order.
func (t *Table) Names() []string {
	names := make([]string, len(t.names))
	copy(names, t.names)
	return names
}

func (t *Table) choices() string {
	parts := make([]string, 0, len(t.names))
	for _, name := range t.names {
		parts = append(parts, fmt.Sprintf("'%s' (%d)", name, t.ids[name]))
	}
	return strings.Join(parts, ", ")
}

// Resolve canonicalizes ref against the table of known resources.
//
// An ID reference found in the table resolves to the matching name
// reference. An unknown ID is an error when required, and passes
// through unchanged otherwise so that unmanaged remote state is
// preserved in diffs. A name reference passes through unless it is
// required and absent from the table.
func Resolve(description string, t *Table, ref Ref, required bool) (Ref, error) {
	if ref.IsID() {
		if name, ok := t.NameOf(ref.ID()); ok {
			return ByName(name), nil
		}
		if required {
			return Ref{}, fmt.Errorf("invalid %s ID %d (expected one of: %s)", description, ref.ID(), t.choices())
		}
		return ref, nil
	}
	if !required {
		return ref, nil
	}
	if _, ok := t.ID(ref.Name()); ok {
		return ref, nil
	}
	return Ref{}, fmt.Errorf("invalid %s name '%s' (expected one of: %s)", description, ref.Name(), t.choices())
}
