package normalizer

import (
	"sort"
	"strings"
)

// brandAlias pairs a canonical native-script brand spelling with the
// Latin-script forms the sources use interchangeably for it.
type brandAlias struct {
	Canonical string
	Latin     []string
}

// Developer brands observed under multiple scripts across the sources.
// Latin forms are matched after punctuation stripping, so "e-편한세상" and
// "i-park" arrive here as "e편한세상" and "ipark".
var brandAliases = []brandAlias{
	{Canonical: "이편한세상", Latin: []string{"e편한세상"}},
	{Canonical: "아이파크", Latin: []string{"ipark", "i파크"}},
	{Canonical: "래미안", Latin: []string{"raemian"}},
	{Canonical: "힐스테이트", Latin: []string{"hillstate"}},
	{Canonical: "푸르지오", Latin: []string{"prugio"}},
	{Canonical: "더샵", Latin: []string{"thesharp", "the샵"}},
	{Canonical: "롯데캐슬", Latin: []string{"lottecastle", "lotte캐슬"}},
	{Canonical: "에스케이뷰", Latin: []string{"skview", "sk뷰"}},
	{Canonical: "케이씨씨스위첸", Latin: []string{"kcc스위첸"}},
	{Canonical: "위브", Latin: []string{"weve", "we브"}},
	{Canonical: "자이", Latin: []string{"xi"}},
}

type aliasRule struct {
	from string
	to   string
}

var (
	foldToCanonical []aliasRule
	foldToLatin     []aliasRule
)

func init() {
	for _, alias := range brandAliases {
		for _, latin := range alias.Latin {
			foldToCanonical = append(foldToCanonical, aliasRule{from: latin, to: alias.Canonical})
		}
		// The first Latin form is the representative spelling for the
		// reverse direction.
		foldToLatin = append(foldToLatin, aliasRule{from: alias.Canonical, to: alias.Latin[0]})
	}
	// Longest alias first so a short alias never corrupts a longer one
	// that contains it as a substring.
	sortRules(foldToCanonical)
	sortRules(foldToLatin)
}

func sortRules(rules []aliasRule) {
	sort.SliceStable(rules, func(i, j int) bool {
		return len(rules[i].from) > len(rules[j].from)
	})
}

func applyAliases(s string, rules []aliasRule) string {
	for _, rule := range rules {
		if strings.Contains(s, rule.from) {
			s = strings.ReplaceAll(s, rule.from, rule.to)
		}
	}
	return s
}
