package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func berlinGate(t *testing.T) *Gate {
	t.Helper()
	g, err := LoadGate("Europe/Berlin")
	require.NoError(t, err)
	return g
}

func TestGate_Evaluate(t *testing.T) {
	g := berlinGate(t)
	now := time.Date(2024, time.December, 5, 12, 0, 0, 0, g.Location())

	t.Run("matching day is allowed", func(t *testing.T) {
		d := g.Evaluate(5, now)
		assert.True(t, d.Allowed)
		assert.Equal(t, ReasonNone, d.Reason)
		assert.Empty(t, d.Message())
	})

	t.Run("future day is too early", func(t *testing.T) {
		d := g.Evaluate(6, now)
		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonTooEarly, d.Reason)
		assert.Contains(t, d.Message(), "erst am 6. Dezember")
	})

	t.Run("past day is too late", func(t *testing.T) {
		d := g.Evaluate(4, now)
		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonTooLate, d.Reason)
		assert.Contains(t, d.Message(), "nur am 4. Dezember")
	})
}

func TestGate_WrongMonth(t *testing.T) {
	g := berlinGate(t)

	for _, month := range []time.Month{time.January, time.June, time.November} {
		now := time.Date(2024, month, 5, 12, 0, 0, 0, g.Location())
		for _, day := range []int{1, 5, 24} {
			d := g.Evaluate(day, now)
			assert.False(t, d.Allowed, "month %s day %d", month, day)
			assert.Equal(t, ReasonWrongMonth, d.Reason, "month %s day %d", month, day)
		}
	}
}

func TestGate_UsesReferenceTimezone(t *testing.T) {
	g := berlinGate(t)

	// 23:30 UTC on Nov 30 is already Dec 1 in Berlin.
	now := time.Date(2024, time.November, 30, 23, 30, 0, 0, time.UTC)
	assert.True(t, g.Evaluate(1, now).Allowed)

	// 23:30 UTC on Dec 1 is Dec 2 in Berlin, so door 1 is gone.
	now = time.Date(2024, time.December, 1, 23, 30, 0, 0, time.UTC)
	d := g.Evaluate(1, now)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonTooLate, d.Reason)

	// Same instant expressed in a far-away zone gives the same answer.
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	assert.Equal(t, d, g.Evaluate(1, now.In(tokyo)))
}

func TestValidDay(t *testing.T) {
	assert.False(t, ValidDay(0))
	assert.True(t, ValidDay(1))
	assert.True(t, ValidDay(24))
	assert.False(t, ValidDay(25))
	assert.False(t, ValidDay(-3))
}

func TestLoadGate_UnknownZone(t *testing.T) {
	_, err := LoadGate("Mars/Olympus_Mons")
	assert.Error(t, err)
}
