package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/logger"

	"advent/internal/calendar"
	"advent/internal/models"
)

// MemoryStore keeps the pool and ledger in process memory. State is lost on
// restart, so it only stands in for the SQLite store in tests and ephemeral
// preview runs.
type MemoryStore struct {
	mu      sync.RWMutex
	prizes  []*models.Prize
	history map[int]*models.HistoryEntry
	nextID  int64
	nextRow int64
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		prizes:  make([]*models.Prize, 0),
		history: make(map[int]*models.HistoryEntry),
		nextID:  1,
		nextRow: 1,
	}
}

// findPrize must be called with mu held.
func (s *MemoryStore) findPrize(id int64) (int, *models.Prize) {
	for i, p := range s.prizes {
		if p.ID == id {
			return i, p
		}
	}
	return -1, nil
}

func (s *MemoryStore) ListPrizes(ctx context.Context) ([]models.Prize, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Prize, 0, len(s.prizes))
	for _, p := range s.prizes {
		out = append(out, *p)
	}
	return out, nil
}

func (s *MemoryStore) ListAvailable(ctx context.Context) ([]models.Prize, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Prize, 0, len(s.prizes))
	for _, p := range s.prizes {
		if !p.Won {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *MemoryStore) GetPrize(ctx context.Context, id int64) (models.Prize, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, p := s.findPrize(id)
	if p == nil {
		return models.Prize{}, ErrNotFound
	}
	return *p, nil
}

// markWonLocked must be called with the write lock held.
func (s *MemoryStore) markWonLocked(id int64) error {
	_, p := s.findPrize(id)
	if p == nil {
		return ErrNotFound
	}
	if p.Won {
		return ErrAlreadyWon
	}
	p.Won = true
	return nil
}

func (s *MemoryStore) MarkWon(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.markWonLocked(id)
}

func (s *MemoryStore) addLocked(spec models.PrizeSpec, now time.Time) (models.Prize, error) {
	if err := ValidateSpec(spec); err != nil {
		return models.Prize{}, err
	}
	p := &models.Prize{
		ID:          s.nextID,
		Kind:        spec.Kind,
		Title:       spec.Title,
		Description: spec.Description,
		Emoji:       spec.Emoji,
		Color:       spec.Color,
		CreatedAt:   now.UTC(),
	}
	s.nextID++
	s.prizes = append(s.prizes, p)
	return *p, nil
}

func (s *MemoryStore) AddPrize(ctx context.Context, spec models.PrizeSpec) (models.Prize, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(spec, time.Now())
}

func (s *MemoryStore) RemovePrize(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, p := s.findPrize(id)
	if p == nil {
		return ErrNotFound
	}
	if p.Won {
		return ErrConflict
	}
	s.prizes = append(s.prizes[:i], s.prizes[i+1:]...)
	logger.Infof("storage: removed prize %d (%s)", id, p.Title)
	return nil
}

func (s *MemoryStore) Stats(ctx context.Context) (models.Stats, error) {
	prizes, _ := s.ListPrizes(ctx)
	return statsOf(prizes), nil
}

func (s *MemoryStore) IsPlayed(ctx context.Context, day int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.history[day]
	return ok, nil
}

// entryLocked returns a copy of the entry for day joined with its prize.
func (s *MemoryStore) entryLocked(day int) (models.HistoryEntry, bool) {
	e, ok := s.history[day]
	if !ok {
		return models.HistoryEntry{}, false
	}
	out := *e
	if _, p := s.findPrize(e.PrizeID); p != nil {
		cp := *p
		out.Prize = &cp
	}
	return out, true
}

func (s *MemoryStore) GetEntry(ctx context.Context, day int) (models.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entryLocked(day)
	if !ok {
		return models.HistoryEntry{}, ErrNotFound
	}
	return e, nil
}

func (s *MemoryStore) recordLocked(day int, prizeID int64, at time.Time) error {
	if !calendar.ValidDay(day) {
		return calendar.ErrInvalidDay
	}
	if _, ok := s.history[day]; ok {
		return ErrDayAlreadyPlayed
	}
	if _, p := s.findPrize(prizeID); p == nil {
		return ErrNotFound
	}
	s.history[day] = &models.HistoryEntry{
		ID:        s.nextRow,
		Day:       day,
		PrizeID:   prizeID,
		AwardedAt: at.UTC(),
	}
	s.nextRow++
	return nil
}

func (s *MemoryStore) Record(ctx context.Context, day int, prizeID int64, at time.Time) (models.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.recordLocked(day, prizeID, at); err != nil {
		return models.HistoryEntry{}, err
	}
	e, _ := s.entryLocked(day)
	return e, nil
}

func (s *MemoryStore) ListHistory(ctx context.Context) ([]models.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.HistoryEntry, 0, len(s.history))
	for day := range s.history {
		e, _ := s.entryLocked(day)
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AwardedAt.Equal(out[j].AwardedAt) {
			return out[i].AwardedAt.After(out[j].AwardedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// Commit validates both halves before mutating so a failure leaves no trace.
func (s *MemoryStore) Commit(ctx context.Context, day int, prizeID int64, at time.Time) (models.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !calendar.ValidDay(day) {
		return models.HistoryEntry{}, calendar.ErrInvalidDay
	}
	if _, ok := s.history[day]; ok {
		return models.HistoryEntry{}, ErrDayAlreadyPlayed
	}
	_, p := s.findPrize(prizeID)
	if p == nil {
		return models.HistoryEntry{}, ErrNotFound
	}
	if p.Won {
		return models.HistoryEntry{}, ErrAlreadyWon
	}

	if err := s.recordLocked(day, prizeID, at); err != nil {
		return models.HistoryEntry{}, err
	}
	p.Won = true
	e, _ := s.entryLocked(day)
	return e, nil
}

func (s *MemoryStore) SeedIfEmpty(ctx context.Context, specs []models.PrizeSpec) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.prizes) > 0 {
		return 0, nil
	}
	for _, spec := range specs {
		if err := ValidateSpec(spec); err != nil {
			return 0, err
		}
	}
	now := time.Now()
	for _, spec := range specs {
		if _, err := s.addLocked(spec, now); err != nil {
			return 0, err
		}
	}
	return len(specs), nil
}

func (s *MemoryStore) Close() error {
	return nil
}
