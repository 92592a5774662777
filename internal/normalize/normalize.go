// Package normalize maps free-text location fragments onto the canonical
// district taxonomy. Source pages spell the same district many ways
// ("Śródmieście", "srodmiescie", "Warszawa Śródmieście"); everything is
// folded to an ASCII slug before matching so those variants collapse.
package normalize

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldChain = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Stroke letters carry no combining mark, so NFD leaves them alone and they
// need an explicit mapping.
var strokeFold = strings.NewReplacer("ł", "l", "Ł", "L")

// StripDiacritics removes combining marks and folds stroke letters:
// "Śródmieście" becomes "Srodmiescie", "Łódź" becomes "Lodz". Input that
// fails to transform is returned unchanged.
func StripDiacritics(s string) string {
	out, _, err := transform.String(foldChain, s)
	if err != nil {
		return strokeFold.Replace(s)
	}
	return strokeFold.Replace(out)
}

// Slug folds s into the canonical matching form: lowercased, trimmed,
// diacritics stripped, whitespace runs collapsed to single dashes.
func Slug(s string) string {
	s = StripDiacritics(strings.ToLower(strings.TrimSpace(s)))
	return strings.Join(strings.Fields(s), "-")
}

// CandidateSet holds the normalized district keys for one city. Build it
// once per city and reuse it across a whole ingest batch; construction
// sorts keys for deterministic substring matching.
type CandidateSet struct {
	keys    map[string]string
	ordered []string
}

// NewCandidateSet builds a set from key -> canonical slug pairs. Keys are
// slugified on the way in, so callers may pass raw district names.
func NewCandidateSet(candidates map[string]string) *CandidateSet {
	set := &CandidateSet{keys: make(map[string]string, len(candidates)*2)}
	for key, canonical := range candidates {
		set.Add(key, canonical)
	}
	return set
}

// Add registers one key for a canonical district slug. Both the dash-joined
// and space-joined forms are recognized afterwards.
func (c *CandidateSet) Add(key, canonical string) {
	slug := Slug(key)
	if slug == "" {
		return
	}
	if _, exists := c.keys[slug]; !exists {
		c.ordered = append(c.ordered, slug)
	}
	c.keys[slug] = canonical
	c.keys[strings.ReplaceAll(slug, "-", " ")] = canonical

	// Longest key first, then lexical, so substring fallback is
	// deterministic and prefers the most specific candidate.
	sort.Slice(c.ordered, func(i, j int) bool {
		if len(c.ordered[i]) != len(c.ordered[j]) {
			return len(c.ordered[i]) > len(c.ordered[j])
		}
		return c.ordered[i] < c.ordered[j]
	})
}

func (c *CandidateSet) Len() int {
	return len(c.ordered)
}

// Resolve maps a raw location fragment to a canonical district slug. Exact
// slug matches win (dash- and space-joined forms are equivalent); otherwise
// the first candidate related to the input by substring containment, in
// either direction, is used. ok is false when nothing matches, in which
// case the caller drops the listing rather than guessing.
func (c *CandidateSet) Resolve(raw string) (canonical string, ok bool) {
	key := Slug(raw)
	if key == "" {
		return "", false
	}
	if canonical, ok := c.keys[key]; ok {
		return canonical, true
	}
	if canonical, ok := c.keys[strings.ReplaceAll(key, "-", " ")]; ok {
		return canonical, true
	}
	for _, k := range c.ordered {
		if strings.Contains(key, k) || strings.Contains(k, key) {
			return c.keys[k], true
		}
	}
	return "", false
}
