package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"advent/internal/models"
)

func TestDrawer_Draw(t *testing.T) {
	pool := []models.Prize{{ID: 1}, {ID: 2}, {ID: 3}}

	t.Run("index comes from the source", func(t *testing.T) {
		d := NewDrawer(&seqSource{vals: []int{2, 0, 1}})
		for _, want := range []int64{3, 1, 2} {
			p, err := d.Draw(pool)
			require.NoError(t, err)
			assert.Equal(t, want, p.ID)
		}
	})

	t.Run("every candidate is reachable", func(t *testing.T) {
		src := &seqSource{}
		for i := 0; i < len(pool); i++ {
			src.vals = append(src.vals, i)
		}
		d := NewDrawer(src)
		seen := map[int64]bool{}
		for range pool {
			p, err := d.Draw(pool)
			require.NoError(t, err)
			seen[p.ID] = true
		}
		assert.Len(t, seen, len(pool))
	})

	t.Run("empty pool", func(t *testing.T) {
		_, err := NewDrawer(nil).Draw(nil)
		assert.ErrorIs(t, err, ErrEmptyPool)
	})

	t.Run("source bounded by candidate count", func(t *testing.T) {
		src := &boundSource{}
		d := NewDrawer(src)
		_, err := d.Draw(pool[:2])
		require.NoError(t, err)
		assert.Equal(t, []int{2}, src.ns)
	})
}

type boundSource struct{ ns []int }

func (b *boundSource) Intn(n int) int {
	b.ns = append(b.ns, n)
	return n - 1
}
