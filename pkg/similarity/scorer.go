// Package similarity ranks feature requests against free-text queries. The
// database narrows candidates with a literal substring match; the scorer
// orders them.
package similarity

import "strings"

// Scorer provides string comparison algorithms for ranking candidates
type Scorer struct{}

// NewScorer creates a new Scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Normalize lowercases a string and collapses runs of whitespace so scoring
// is insensitive to casing and spacing.
func (s *Scorer) Normalize(str string) string {
	return strings.Join(strings.Fields(strings.ToLower(str)), " ")
}

// JaroWinkler calculates the Jaro-Winkler similarity between two strings
// Returns a value between 0.0 (no similarity) and 1.0 (exact match)
func (s *Scorer) JaroWinkler(a, b string) float64 {
	if a == b {
		return 1.0
	}

	jaro := s.jaro(a, b)

	// Winkler modification: boost for common prefix
	prefixLen := 0
	maxPrefix := 4
	for i := 0; i < len(a) && i < len(b) && i < maxPrefix; i++ {
		if a[i] == b[i] {
			prefixLen++
		} else {
			break
		}
	}

	// Winkler scaling factor is typically 0.1
	scalingFactor := 0.1
	return jaro + float64(prefixLen)*scalingFactor*(1.0-jaro)
}

// jaro calculates the Jaro similarity between two strings
func (s *Scorer) jaro(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	// Maximum distance for character matching
	matchDist := max(len(a), len(b))/2 - 1
	if matchDist < 0 {
		matchDist = 0
	}

	aMatches := make([]bool, len(a))
	bMatches := make([]bool, len(b))

	matches := 0
	transpositions := 0

	// Find matches
	for i := 0; i < len(a); i++ {
		start := max(0, i-matchDist)
		end := min(len(b), i+matchDist+1)

		for j := start; j < end; j++ {
			if bMatches[j] || a[i] != b[j] {
				continue
			}
			aMatches[i] = true
			bMatches[j] = true
			matches++
			break
		}
	}

	if matches == 0 {
		return 0.0
	}

	// Count transpositions
	k := 0
	for i := 0; i < len(a); i++ {
		if !aMatches[i] {
			continue
		}
		for !bMatches[k] {
			k++
		}
		if a[i] != b[k] {
			transpositions++
		}
		k++
	}

	m := float64(matches)
	t := float64(transpositions) / 2

	return (m/float64(len(a)) + m/float64(len(b)) + (m-t)/m) / 3
}
