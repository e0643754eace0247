package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeName lowercases a name and drops all whitespace.
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.TrimSpace(name)
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

// CollapseSpace trims s, drops non printable runes and collapses inner
// whitespace runs into a single space.
func CollapseSpace(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, s)
	return whitespaceRegex.ReplaceAllString(strings.TrimSpace(s), " ")
}

// MatchName reports whether name contains one of the already normalized
// matchers.
func MatchName(name string, matchers []string) bool {
	name = NormalizeName(name)
	for _, m := range matchers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}

// DefaultTitleThreshold is the Jaro-Winkler similarity above which two
// movie titles are considered the same film.
const DefaultTitleThreshold = 0.92

// MatchTitle reports whether a listed movie title refers to one of the
// targets. Titles are compared normalized, an exact or substring hit
// always matches, otherwise the best Jaro-Winkler similarity must reach
// threshold. An empty target list matches everything.
func MatchTitle(title string, targets []string, threshold float64) bool {
	if len(targets) == 0 {
		return true
	}
	if threshold <= 0 {
		threshold = DefaultTitleThreshold
	}

	normalized := NormalizeName(title)
	for _, target := range targets {
		t := NormalizeName(target)
		if t == "" {
			continue
		}
		if strings.Contains(normalized, t) {
			return true
		}
		if matchr.JaroWinkler(normalized, t, false) >= threshold {
			return true
		}
	}
	return false
}
