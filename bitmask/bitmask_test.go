package bitmask

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type testFlag int64

const (
	flagAlpha testFlag = 2
	flagBeta  testFlag = 4
	flagGamma testFlag = 8
	flagDelta testFlag = 16
)

var testRegistry = []testFlag{flagAlpha, flagBeta, flagGamma, flagDelta}

func TestEncode(t *testing.T) {
	tests := []struct {
		name  string
		flags []testFlag
		want  int64
	}{
		{"empty set", nil, 0},
		{"single flag", []testFlag{flagBeta}, 4},
		{"multiple flags", []testFlag{flagAlpha, flagGamma}, 10},
		{"duplicates collapse", []testFlag{flagAlpha, flagAlpha}, 2},
		{"all flags", testRegistry, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Encode(tt.flags))
		})
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		mask int64
		want []testFlag
	}{
		{"zero mask", 0, nil},
		{"single bit", 8, []testFlag{flagGamma}},
		{"multiple bits in registry order", 20, []testFlag{flagBeta, flagDelta}},
		{"unknown bits ignored", 1 | 2 | 64, []testFlag{flagAlpha}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decode(testRegistry, tt.mask))
		})
	}
}

func TestRoundTrip(t *testing.T) {
	// decode(encode(S)) == S for every subset of a flat registry.
	for mask := int64(0); mask < 1<<len(testRegistry); mask++ {
		var set []testFlag
		for i, f := range testRegistry {
			if mask&(1<<i) != 0 {
				set = append(set, f)
			}
		}
		assert.Equal(t, set, Decode(testRegistry, Encode(set)))
	}
}

func TestHas(t *testing.T) {
	mask := Encode([]testFlag{flagAlpha, flagDelta})
	assert.True(t, Has(mask, flagAlpha))
	assert.True(t, Has(mask, flagDelta))
	assert.False(t, Has(mask, flagBeta))
	assert.False(t, Has(int64(0), flagAlpha))
}
