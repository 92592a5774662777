package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripDiacritics(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "polish ogonki and acute accents",
			input:    "Śródmieście",
			expected: "Srodmiescie",
		},
		{
			name:     "dot above folds",
			input:    "Żoliborz",
			expected: "Zoliborz",
		},
		{
			name:     "stroke l folds despite not decomposing",
			input:    "Łódź",
			expected: "Lodz",
		},
		{
			name:     "plain ascii passes through",
			input:    "Mokotow",
			expected: "Mokotow",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripDiacritics(tt.input))
		})
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "lowercases and strips diacritics",
			input:    "Śródmieście",
			expected: "srodmiescie",
		},
		{
			name:     "collapses whitespace runs to dashes",
			input:    "  Stare   Miasto  ",
			expected: "stare-miasto",
		},
		{
			name:     "existing dashes survive",
			input:    "Praga-Południe",
			expected: "praga-poludnie",
		},
		{
			name:     "mixed case with trailing space",
			input:    "KRAKÓW ",
			expected: "krakow",
		},
		{
			name:     "whitespace only",
			input:    "   ",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Slug(tt.input))
		})
	}
}

func newWarsawSet() *CandidateSet {
	return NewCandidateSet(map[string]string{
		"Śródmieście":    "srodmiescie",
		"Stare Miasto":   "stare-miasto",
		"Praga-Południe": "praga-poludnie",
		"Mokotów":        "mokotow",
	})
}

func TestCandidateSet_ResolveExact(t *testing.T) {
	set := newWarsawSet()
	require.Equal(t, 4, set.Len())

	got, ok := set.Resolve("Śródmieście")
	assert.True(t, ok)
	assert.Equal(t, "srodmiescie", got)

	// Already-normalized input matches too.
	got, ok = set.Resolve("srodmiescie")
	assert.True(t, ok)
	assert.Equal(t, "srodmiescie", got)
}

func TestCandidateSet_ResolveDashSpaceVariants(t *testing.T) {
	set := newWarsawSet()

	// Dash form of a space-joined key.
	got, ok := set.Resolve("stare-miasto")
	assert.True(t, ok)
	assert.Equal(t, "stare-miasto", got)

	// Space form of a dash-joined key.
	got, ok = set.Resolve("praga południe")
	assert.True(t, ok)
	assert.Equal(t, "praga-poludnie", got)
}

func TestCandidateSet_ResolveSubstring(t *testing.T) {
	set := newWarsawSet()

	// Input contains a candidate.
	got, ok := set.Resolve("Warszawa Śródmieście")
	assert.True(t, ok)
	assert.Equal(t, "srodmiescie", got)

	// Candidate contains the input.
	got, ok = set.Resolve("Praga")
	assert.True(t, ok)
	assert.Equal(t, "praga-poludnie", got)
}

func TestCandidateSet_ResolvePrefersLongestCandidate(t *testing.T) {
	set := NewCandidateSet(map[string]string{
		"Praga":          "praga",
		"Praga-Południe": "praga-poludnie",
	})

	// Both candidates are substrings of the input; the longer, more
	// specific one wins.
	got, ok := set.Resolve("Warszawa Praga-Południe")
	assert.True(t, ok)
	assert.Equal(t, "praga-poludnie", got)
}

func TestCandidateSet_ResolveUnknown(t *testing.T) {
	set := newWarsawSet()

	_, ok := set.Resolve("Atlantis")
	assert.False(t, ok)

	_, ok = set.Resolve("")
	assert.False(t, ok)

	_, ok = set.Resolve("   ")
	assert.False(t, ok)
}

func TestCandidateSet_AddEmptyKeyIgnored(t *testing.T) {
	set := NewCandidateSet(nil)
	set.Add("  ", "anything")
	assert.Equal(t, 0, set.Len())
}
