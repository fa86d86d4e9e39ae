// Package bitmask packs sets of named flags into the integer bitmask
// values the Jellyseerr API stores them as.
package bitmask

// Flag is a single bit in a packed bitmask value.
type Flag interface {
	~int64
}

// Has reports whether the flag's bit is set in mask.
func Has[F Flag](mask int64, flag F) bool {
	return mask&int64(flag) != 0
}

// Encode packs a flag set into its integer bitmask value.
func Encode[F Flag](flags []F) int64 {
	var mask int64
	for _, f := range flags {
		mask |= int64(f)
	}
	return mask
}

// Decode unpacks mask into the registry flags whose bits are set.
// Flags are returned in registry order, so registries declared in
// ascending bit order decode to canonically sorted sets.
func Decode[F Flag](registry []F, mask int64) []F {
	var flags []F
	for _, f := range registry {
		if Has(mask, f) {
			flags = append(flags, f)
		}
	}
	return flags
}
