package services

import (
	"math/rand"
	"sync"
	"time"

	"advent/internal/models"
)

// Source is the randomness behind a draw. *rand.Rand satisfies it; tests
// pass a fixed sequence.
type Source interface {
	Intn(n int) int
}

// Drawer picks one prize uniformly from the candidates it is handed. It
// never decides availability itself.
type Drawer struct {
	mu  sync.Mutex
	src Source
}

// NewDrawer creates a Drawer. A nil src uses a time-seeded math/rand source.
func NewDrawer(src Source) *Drawer {
	if src == nil {
		src = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Drawer{src: src}
}

// Draw returns one element of available, or ErrEmptyPool when there is none.
func (d *Drawer) Draw(available []models.Prize) (models.Prize, error) {
	if len(available) == 0 {
		return models.Prize{}, ErrEmptyPool
	}

	d.mu.Lock()
	idx := d.src.Intn(len(available))
	d.mu.Unlock()

	return available[idx], nil
}
