package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	p, err := Parse("202401")
	require.NoError(t, err)
	assert.Equal(t, 2024, p.Year)
	assert.Equal(t, time.January, p.Month)
	assert.Equal(t, "202401", p.String())

	_, err = Parse("2024")
	assert.Error(t, err)
	_, err = Parse("202413")
	assert.Error(t, err)
	_, err = Parse("20240a")
	assert.Error(t, err)
}

func TestNextWrapsYear(t *testing.T) {
	p := New(2023, time.December)
	next := p.Next()
	assert.Equal(t, New(2024, time.January), next)
}

func TestRange(t *testing.T) {
	periods := Range(New(2023, time.November), New(2024, time.February))
	require.Len(t, periods, 4)
	assert.Equal(t, "202311", periods[0].String())
	assert.Equal(t, "202402", periods[3].String())

	assert.Empty(t, Range(New(2024, time.March), New(2024, time.January)))
	assert.Len(t, Range(New(2024, time.March), New(2024, time.March)), 1)
}

func TestOrdering(t *testing.T) {
	a := New(2023, time.May)
	b := New(2023, time.June)
	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.False(t, a.Before(a))
}
