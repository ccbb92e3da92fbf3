package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeIsIdempotent(t *testing.T) {
	names := []string{
		"래미안 강남 포레스트",
		"e편한세상 1차",
		"이편한세상",
		"힐스테이트 서초 (임대동 제외)",
		"삼성아파트",
		"신반포자이아파트 3단지",
		"두산 We've 센티움",
		"LOTTE캐슬 골드파크 2차",
		"",
		"   ",
	}
	for _, name := range names {
		key := Normalize(name)
		assert.Equal(t, key, Normalize(key), "normalize not a fixed point for %q", name)
	}
}

func TestNormalizeStripsNoise(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"래미안 강남", "래미안강남"},
		{"삼성아파트", "삼성"},
		{"개나리 맨션", "개나리"},
		{"한강타운 3차", "한강타운"},
		{"한강타운 제3단지", "한강타운"},
		{"현대홈타운 (201동)", "현대홈타운"},
		{"신길 센트럴 자이 아파트 2단지", "신길센트럴자이"},
		{"아파트", "아파트"}, // never strip down to empty
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Normalize(tc.in), "input %q", tc.in)
	}
}

func TestNormalizeFoldsBrandAliases(t *testing.T) {
	assert.Equal(t, Normalize("이편한세상"), Normalize("e편한세상"))
	assert.Equal(t, Normalize("이편한세상"), Normalize("E-편한세상"))
	assert.Equal(t, Normalize("아이파크"), Normalize("I-PARK"))
	assert.Equal(t, Normalize("두산위브"), Normalize("두산 We've"))
}

func TestVariantsBridgeAliasSpellings(t *testing.T) {
	a := Variants("e편한세상 1차")
	b := Variants("이편한세상")

	intersects := false
	for _, va := range a {
		for _, vb := range b {
			if va == vb {
				intersects = true
			}
		}
	}
	assert.True(t, intersects, "variants %v and %v should share a key", a, b)
}

func TestVariantsIncludeBothScripts(t *testing.T) {
	variants := Variants("이편한세상 송파")
	assert.Contains(t, variants, "이편한세상송파")
	assert.Contains(t, variants, "e편한세상송파")
}

func TestVariantsEmptyInput(t *testing.T) {
	assert.Empty(t, Variants(""))
	assert.Empty(t, Variants("  ( ) "))
}

func TestSimilarityBounds(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("래미안강남", "래미안강남"))
	assert.Equal(t, 0.0, Similarity("", "래미안강남"))
	assert.Equal(t, 0.0, Similarity("래미안강남", ""))

	score := Similarity("래미안강남포레스트", "래미안강남")
	assert.Greater(t, score, 0.2)
	assert.Less(t, score, 1.0)

	unrelated := Similarity("래미안강남", "개나리")
	assert.Less(t, unrelated, 0.2)
}

func TestSimilarityIsSymmetric(t *testing.T) {
	a, b := "한강타운", "한강타워"
	assert.InDelta(t, Similarity(a, b), Similarity(b, a), 1e-9)
}
