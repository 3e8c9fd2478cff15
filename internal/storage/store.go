// Package storage holds the prize pool and the history ledger.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"advent/internal/models"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyWon       = errors.New("prize already won")
	ErrConflict         = errors.New("prize already won and cannot be removed")
	ErrDayAlreadyPlayed = errors.New("day already played")
	ErrInvalidPrize     = errors.New("invalid prize")
)

// PrizePool is the fixed catalog plus the won flag of every prize.
type PrizePool interface {
	// ListPrizes returns every prize in creation order.
	ListPrizes(ctx context.Context) ([]models.Prize, error)
	// ListAvailable returns the prizes that have not been won, in creation order.
	ListAvailable(ctx context.Context) ([]models.Prize, error)
	GetPrize(ctx context.Context, id int64) (models.Prize, error)
	// MarkWon flips the won flag. Of two concurrent calls for the same id
	// exactly one succeeds; the other gets ErrAlreadyWon.
	MarkWon(ctx context.Context, id int64) error
	AddPrize(ctx context.Context, spec models.PrizeSpec) (models.Prize, error)
	// RemovePrize deletes an unwon prize. Won prizes yield ErrConflict.
	RemovePrize(ctx context.Context, id int64) error
	Stats(ctx context.Context) (models.Stats, error)
}

// Ledger is the per-day award record. Day is a uniqueness key.
type Ledger interface {
	IsPlayed(ctx context.Context, day int) (bool, error)
	GetEntry(ctx context.Context, day int) (models.HistoryEntry, error)
	// Record inserts the row for day, failing with ErrDayAlreadyPlayed when
	// one exists. It does not touch the prize pool; spins go through Commit.
	Record(ctx context.Context, day int, prizeID int64, at time.Time) (models.HistoryEntry, error)
	// ListHistory returns all entries, most recent award first.
	ListHistory(ctx context.Context) ([]models.HistoryEntry, error)
}

// Store is the durable state behind the calendar.
type Store interface {
	PrizePool
	Ledger

	// Commit marks prizeID won and records it for day as one atomic step.
	// Either both happen or neither does. Errors are ErrDayAlreadyPlayed,
	// ErrAlreadyWon or ErrNotFound, or a wrapped I/O failure.
	Commit(ctx context.Context, day int, prizeID int64, at time.Time) (models.HistoryEntry, error)

	// SeedIfEmpty inserts specs when the prize table is empty and returns
	// the number of prizes inserted.
	SeedIfEmpty(ctx context.Context, specs []models.PrizeSpec) (int, error)

	Close() error
}

// ValidateSpec checks a prize spec before it is stored.
func ValidateSpec(spec models.PrizeSpec) error {
	if !spec.Kind.Valid() {
		return fmt.Errorf("%w: type must be voucher or challenge", ErrInvalidPrize)
	}
	var missing []string
	if strings.TrimSpace(spec.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(spec.Description) == "" {
		missing = append(missing, "description")
	}
	if strings.TrimSpace(spec.Emoji) == "" {
		missing = append(missing, "emoji")
	}
	if strings.TrimSpace(spec.Color) == "" {
		missing = append(missing, "color")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidPrize, strings.Join(missing, ", "))
	}
	return nil
}

func statsOf(prizes []models.Prize) models.Stats {
	st := models.Stats{Total: len(prizes)}
	for _, p := range prizes {
		if p.Won {
			st.Won++
		}
	}
	st.Remaining = st.Total - st.Won
	return st
}
