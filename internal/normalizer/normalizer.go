// Package normalizer reduces raw apartment names to canonical comparison
// keys. Every function is pure and total: bad input yields an empty key,
// never an error.
package normalizer

import (
	"regexp"
	"strings"
)

var (
	parentheticalRe = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]`)
	phaseSuffixRe   = regexp.MustCompile(`제?[0-9]+(차|단지|블록|블럭)$`)
)

// Trailing tokens that carry no discriminating signal. Checked per pass in
// order; stripping repeats until the name stops changing so the result is a
// fixed point of Normalize.
var buildingSuffixes = []string{
	"아파트먼트",
	"아파트",
	"apt",
	"맨션",
	"연립주택",
	"연립",
	"빌라",
}

const strippedRunes = " \t .,·'\"`~!&+_/\\-"

// Normalize returns the canonical comparison key for a raw apartment name.
// Normalize(Normalize(x)) == Normalize(x) for all x.
func Normalize(name string) string {
	return normalize(name, foldToCanonical, true)
}

// Variants returns every plausible normalization of name: both alias
// directions, each with and without special-character stripping. Alias
// folding is lossy in one direction only, so the matcher tries all keys
// instead of committing to one.
func Variants(name string) []string {
	seen := make(map[string]struct{}, 4)
	var out []string
	for _, rules := range [][]aliasRule{foldToCanonical, foldToLatin} {
		for _, strip := range []bool{true, false} {
			key := normalize(name, rules, strip)
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, key)
		}
	}
	return out
}

func normalize(name string, rules []aliasRule, stripSpecial bool) string {
	s := strings.ToLower(strings.TrimSpace(name))
	if s == "" {
		return ""
	}

	s = parentheticalRe.ReplaceAllString(s, "")
	if stripSpecial {
		s = stripRunes(s)
	} else {
		s = strings.Join(strings.Fields(s), "")
	}
	s = applyAliases(s, rules)

	for {
		next := stripBuildingSuffix(s)
		next = stripPhaseSuffix(next)
		if next == s {
			break
		}
		s = next
	}
	return s
}

func stripRunes(s string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(strippedRunes, r) {
			return -1
		}
		return r
	}, s)
}

func stripBuildingSuffix(s string) string {
	for _, suffix := range buildingSuffixes {
		if trimmed, ok := strings.CutSuffix(s, suffix); ok {
			if trimmed == "" {
				return s
			}
			return trimmed
		}
	}
	return s
}

func stripPhaseSuffix(s string) string {
	trimmed := phaseSuffixRe.ReplaceAllString(s, "")
	if trimmed == "" {
		return s
	}
	return trimmed
}
