// Package remotemap implements the declarative field mapping layer that
// converts between local configuration objects and the JSON documents
// the Jellyseerr API exchanges.
//
// Each settings object publishes an ordered list of entries describing
// how its fields map onto remote attributes. The same entry list drives
// three operations: decoding a remote document into a local object,
// encoding a local object into a create payload, and diffing a desired
// object against remote state to produce an update payload.
package remotemap

import (
	"fmt"
	"reflect"
)

// Object is the field accessor surface a settings object exposes to the
// mapping engine. Implementations are plain switch statements over the
// object's field names, keeping the mapping free of reflection.
type Object interface {
	// Field returns the current value of the named local field.
	Field(name string) (any, error)
	// SetField replaces the value of the named local field.
	SetField(name string, value any) error
}

// Entry maps one local field to one remote attribute.
//
// Entries are evaluated in list order. When several entries share a
// local field, decoding lets the last entry win while encoding emits
// every remote attribute, which is how a single local field can feed
// paired remote attributes such as a profile's ID and name.
type Entry struct {
	// Local is the local field name passed to Object accessors and
	// used in change logs.
	Local string
	// Remote is the remote attribute name.
	Remote string

	// Decode converts the remote attribute value into the local form.
	// When nil the value is passed through unchanged.
	Decode func(value any) (any, error)
	// DecodeRoot derives the local value from the whole remote
	// document instead of a single attribute. It takes precedence
	// over Decode and ignores Optional.
	DecodeRoot func(remote map[string]any) (any, error)
	// Encode converts the local value into the remote form. When nil
	// the value is passed through unchanged.
	Encode func(value any) (any, error)

	// Optional skips decoding when the remote attribute is absent,
	// leaving the local default in place.
	Optional bool
	// SetIf gates whether the encoded value is included in outgoing
	// payloads. It receives the local value before encoding and never
	// affects change detection.
	SetIf func(value any) bool
}

// FieldChange records one field whose desired value differs from the
// remote state. Old and New hold the local-form values.
type FieldChange struct {
	Field string
	Old   any
	New   any
}

// DiffResult is the outcome of comparing a desired object against
// remote state. Payload always carries the full attribute set expected
// by Jellyseerr's whole-object update endpoints, not a sparse patch.
type DiffResult struct {
	Changed bool
	Payload map[string]any
	Changes []FieldChange
}

// Decode applies the entries to a remote document, storing the decoded
// values on obj. Non-optional attributes missing from the document are
// an error.
func Decode(obj Object, entries []Entry, remote map[string]any) error {
	for _, e := range entries {
		if e.DecodeRoot != nil {
			value, err := e.DecodeRoot(remote)
			if err != nil {
				return fmt.Errorf("decode %s: %w", e.Local, err)
			}
			if err := obj.SetField(e.Local, value); err != nil {
				return err
			}
			continue
		}

		raw, ok := remote[e.Remote]
		if !ok {
			if e.Optional {
				continue
			}
			return fmt.Errorf("required remote field %q not found", e.Remote)
		}

		value := raw
		if e.Decode != nil {
			var err error
			if value, err = e.Decode(raw); err != nil {
				return fmt.Errorf("decode %s: %w", e.Local, err)
			}
		}
		if err := obj.SetField(e.Local, value); err != nil {
			return err
		}
	}
	return nil
}

// Encode produces the full outgoing payload for obj, used when creating
// a remote object that does not exist yet.
func Encode(obj Object, entries []Entry) (map[string]any, error) {
	payload := make(map[string]any, len(entries))
	for _, e := range entries {
		value, err := obj.Field(e.Local)
		if err != nil {
			return nil, err
		}
		if e.SetIf != nil && !e.SetIf(value) {
			continue
		}
		encoded, err := encodeValue(e, value)
		if err != nil {
			return nil, err
		}
		payload[e.Remote] = encoded
	}
	return payload, nil
}

// Diff compares the desired object against the remote state, both in
// local form, and reports whether any mapped field differs. Comparison
// happens on the encoded form of both sides so that values equivalent
// on the wire never produce spurious updates. The returned payload
// carries every mapped attribute regardless of whether it changed.
func Diff(local, remote Object, entries []Entry) (*DiffResult, error) {
	result := &DiffResult{Payload: make(map[string]any, len(entries))}
	for _, e := range entries {
		localValue, err := local.Field(e.Local)
		if err != nil {
			return nil, err
		}
		remoteValue, err := remote.Field(e.Local)
		if err != nil {
			return nil, err
		}

		localEncoded, err := encodeValue(e, localValue)
		if err != nil {
			return nil, err
		}
		remoteEncoded, err := encodeValue(e, remoteValue)
		if err != nil {
			return nil, err
		}

		if !reflect.DeepEqual(localEncoded, remoteEncoded) {
			result.Changed = true
			result.Changes = append(result.Changes, FieldChange{
				Field: e.Local,
				Old:   remoteValue,
				New:   localValue,
			})
		}

		if e.SetIf == nil || e.SetIf(localValue) {
			result.Payload[e.Remote] = localEncoded
		}
	}
	return result, nil
}

func encodeValue(e Entry, value any) (any, error) {
	if e.Encode == nil {
		return value, nil
	}
	encoded, err := e.Encode(value)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", e.Local, err)
	}
	return encoded, nil
}
