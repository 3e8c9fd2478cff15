package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/logger"

	"advent/internal/calendar"
	"advent/internal/models"
	"advent/internal/storage"
)

const (
	reasonAlreadyPlayed = "Du hast heute schon am Glücksrad gedreht! 🎡"
	reasonPoolExhausted = "Alle Preise wurden schon gewonnen! 🎉"

	// DefaultMaxCommitAttempts bounds redraws when another day's spin takes
	// the drawn prize between the read and the commit.
	DefaultMaxCommitAttempts = 3
)

// Spin outcomes reported to the Observer.
const (
	OutcomeWon           = "won"
	OutcomeDemo          = "demo"
	OutcomeAlreadyPlayed = "already_played"
	OutcomeGateClosed    = "gate_closed"
	OutcomeEmptyPool     = "empty_pool"
	OutcomeInvalidDay    = "invalid_day"
	OutcomeError         = "error"
)

// Observer is notified of every spin outcome and of the remaining pool size
// whenever the service reads it.
type Observer interface {
	SpinObserved(outcome string)
	RemainingObserved(n int)
}

type nopObserver struct{}

func (nopObserver) SpinObserved(string)  {}
func (nopObserver) RemainingObserved(int) {}

// Availability answers "can door N be played now?". It is advisory; Spin
// checks everything again.
type Availability struct {
	CanPlay       bool          `json:"canPlay"`
	Reason        string        `json:"reason,omitempty"`
	ReasonCode    string        `json:"reasonCode,omitempty"`
	AlreadyPlayed bool          `json:"alreadyPlayed,omitempty"`
	Prize         *models.Prize `json:"prize,omitempty"`
	WonAt         *time.Time    `json:"wonAt,omitempty"`
	Remaining     int           `json:"remainingPrizes,omitempty"`
}

// SpinResult is the outcome of a successful spin. Demo spins carry no
// history entry and no stats.
type SpinResult struct {
	Prize        models.Prize         `json:"prize"`
	HistoryEntry *models.HistoryEntry `json:"historyEntry,omitempty"`
	Stats        *models.Stats        `json:"stats,omitempty"`
	Demo         bool                 `json:"demo,omitempty"`
}

// HistoryReport is the full ledger plus current pool stats.
type HistoryReport struct {
	History []models.HistoryEntry `json:"history"`
	Stats   models.Stats          `json:"stats"`
}

// DayStatus describes one calendar door.
type DayStatus struct {
	Day    int                  `json:"day"`
	State  models.DayState      `json:"state"`
	Reason calendar.Reason      `json:"reason,omitempty"`
	Entry  *models.HistoryEntry `json:"entry,omitempty"`
}

// AdventService composes gate, pool, ledger and draw into the spin state
// machine. It is the only writer of awards.
type AdventService struct {
	store       storage.Store
	gate        *calendar.Gate
	drawer      *Drawer
	clock       func() time.Time
	observer    Observer
	maxAttempts int
}

// Option configures an AdventService.
type Option func(*AdventService)

// WithClock overrides time.Now.
func WithClock(clock func() time.Time) Option {
	return func(s *AdventService) { s.clock = clock }
}

// WithObserver reports spin outcomes to o.
func WithObserver(o Observer) Option {
	return func(s *AdventService) { s.observer = o }
}

// WithMaxCommitAttempts sets how many times a spin may redraw after losing
// a prize to a concurrent spin.
func WithMaxCommitAttempts(n int) Option {
	return func(s *AdventService) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// NewAdventService creates the service. A nil drawer uses NewDrawer(nil).
func NewAdventService(store storage.Store, gate *calendar.Gate, drawer *Drawer, opts ...Option) *AdventService {
	if drawer == nil {
		drawer = NewDrawer(nil)
	}
	s := &AdventService{
		store:       store,
		gate:        gate,
		drawer:      drawer,
		clock:       time.Now,
		observer:    nopObserver{},
		maxAttempts: DefaultMaxCommitAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the service clock's current time.
func (s *AdventService) Now() time.Time {
	return s.clock()
}

// Gate returns the calendar gate in use.
func (s *AdventService) Gate() *calendar.Gate {
	return s.gate
}

// Seed loads specs into an empty prize table.
func (s *AdventService) Seed(ctx context.Context, specs []models.PrizeSpec) (int, error) {
	n, err := s.store.SeedIfEmpty(ctx, specs)
	if err != nil {
		return 0, fmt.Errorf("seed prizes: %w", err)
	}
	if n > 0 {
		logger.Infof("Seeded %d prizes", n)
	}
	return n, nil
}

// playedEntry returns the ledger entry for day, or nil if unplayed.
func (s *AdventService) playedEntry(ctx context.Context, day int) (*models.HistoryEntry, error) {
	played, err := s.store.IsPlayed(ctx, day)
	if err != nil {
		return nil, err
	}
	if !played {
		return nil, nil
	}
	entry, err := s.store.GetEntry(ctx, day)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// CheckAvailability reports whether day can be played at now.
func (s *AdventService) CheckAvailability(ctx context.Context, day int, now time.Time) (Availability, error) {
	if !calendar.ValidDay(day) {
		return Availability{}, ErrInvalidDay
	}

	if d := s.gate.Evaluate(day, now); !d.Allowed {
		return Availability{Reason: d.Message(), ReasonCode: string(d.Reason)}, nil
	}

	entry, err := s.playedEntry(ctx, day)
	if err != nil {
		return Availability{}, fmt.Errorf("check day %d: %w", day, err)
	}
	if entry != nil {
		wonAt := entry.AwardedAt
		return Availability{
			Reason:        reasonAlreadyPlayed,
			ReasonCode:    OutcomeAlreadyPlayed,
			AlreadyPlayed: true,
			Prize:         entry.Prize,
			WonAt:         &wonAt,
		}, nil
	}

	available, err := s.store.ListAvailable(ctx)
	if err != nil {
		return Availability{}, fmt.Errorf("check day %d: %w", day, err)
	}
	if len(available) == 0 {
		return Availability{Reason: reasonPoolExhausted, ReasonCode: "pool_exhausted"}, nil
	}

	return Availability{CanPlay: true, Remaining: len(available)}, nil
}

// Spin draws and commits the prize for day. With demo set it only previews
// a draw: no gate, no ledger, no state change.
func (s *AdventService) Spin(ctx context.Context, day int, now time.Time, demo bool) (SpinResult, error) {
	res, err := s.spin(ctx, day, now, demo)
	s.observer.SpinObserved(outcomeOf(err, demo))
	return res, err
}

func outcomeOf(err error, demo bool) string {
	switch {
	case err == nil && demo:
		return OutcomeDemo
	case err == nil:
		return OutcomeWon
	case errors.Is(err, ErrInvalidDay):
		return OutcomeInvalidDay
	case errors.Is(err, ErrGateClosed):
		return OutcomeGateClosed
	case errors.Is(err, ErrAlreadyPlayed):
		return OutcomeAlreadyPlayed
	case errors.Is(err, ErrEmptyPool):
		return OutcomeEmptyPool
	default:
		return OutcomeError
	}
}

func (s *AdventService) spin(ctx context.Context, day int, now time.Time, demo bool) (SpinResult, error) {
	if !calendar.ValidDay(day) {
		return SpinResult{}, ErrInvalidDay
	}

	if demo {
		available, err := s.store.ListAvailable(ctx)
		if err != nil {
			return SpinResult{}, fmt.Errorf("demo spin: %w", err)
		}
		prize, err := s.drawer.Draw(available)
		if err != nil {
			return SpinResult{}, err
		}
		return SpinResult{Prize: prize, Demo: true}, nil
	}

	if d := s.gate.Evaluate(day, now); !d.Allowed {
		return SpinResult{}, &GateClosedError{Decision: d}
	}

	for attempt := 1; ; attempt++ {
		entry, err := s.playedEntry(ctx, day)
		if err != nil {
			return SpinResult{}, fmt.Errorf("spin day %d: %w", day, err)
		}
		if entry != nil {
			return SpinResult{}, &AlreadyPlayedError{Entry: *entry}
		}

		available, err := s.store.ListAvailable(ctx)
		if err != nil {
			return SpinResult{}, fmt.Errorf("spin day %d: %w", day, err)
		}
		prize, err := s.drawer.Draw(available)
		if err != nil {
			return SpinResult{}, err
		}

		committed, err := s.store.Commit(ctx, day, prize.ID, now)
		switch {
		case err == nil:
			logger.Infof("Day %d awarded prize %d (%s)", day, prize.ID, prize.Title)
			return s.spinResult(ctx, committed), nil

		case errors.Is(err, storage.ErrDayAlreadyPlayed):
			// Lost the race for this day. The ledger now holds the winner.
			existing, gerr := s.store.GetEntry(ctx, day)
			if gerr != nil {
				return SpinResult{}, fmt.Errorf("spin day %d: %w", day, gerr)
			}
			return SpinResult{}, &AlreadyPlayedError{Entry: existing}

		case errors.Is(err, storage.ErrAlreadyWon) && attempt < s.maxAttempts:
			logger.Warningf("Day %d: prize %d was taken concurrently, redrawing (attempt %d)", day, prize.ID, attempt)
			continue

		default:
			return SpinResult{}, fmt.Errorf("spin day %d: %w", day, err)
		}
	}
}

func (s *AdventService) spinResult(ctx context.Context, entry models.HistoryEntry) SpinResult {
	res := SpinResult{HistoryEntry: &entry}
	if entry.Prize != nil {
		res.Prize = *entry.Prize
	}
	// The award is already durable; a stats failure must not hide it.
	st, err := s.store.Stats(ctx)
	if err != nil {
		logger.Errorf("Stats after spin for day %d: %v", entry.Day, err)
		return res
	}
	res.Stats = &st
	s.observer.RemainingObserved(st.Remaining)
	return res
}

// History returns the ledger, most recent first, with pool stats.
func (s *AdventService) History(ctx context.Context) (HistoryReport, error) {
	entries, err := s.store.ListHistory(ctx)
	if err != nil {
		return HistoryReport{}, fmt.Errorf("list history: %w", err)
	}
	st, err := s.store.Stats(ctx)
	if err != nil {
		return HistoryReport{}, fmt.Errorf("list history: %w", err)
	}
	s.observer.RemainingObserved(st.Remaining)
	return HistoryReport{History: entries, Stats: st}, nil
}

// Days reports the state of every door at now.
func (s *AdventService) Days(ctx context.Context, now time.Time) ([]DayStatus, error) {
	entries, err := s.store.ListHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("list days: %w", err)
	}
	byDay := make(map[int]models.HistoryEntry, len(entries))
	for _, e := range entries {
		byDay[e.Day] = e
	}

	days := make([]DayStatus, 0, calendar.SeasonDays)
	for day := 1; day <= calendar.SeasonDays; day++ {
		if e, ok := byDay[day]; ok {
			days = append(days, DayStatus{Day: day, State: models.DayPlayed, Entry: &e})
			continue
		}
		d := s.gate.Evaluate(day, now)
		if d.Allowed {
			days = append(days, DayStatus{Day: day, State: models.DayOpen})
		} else {
			days = append(days, DayStatus{Day: day, State: models.DayLocked, Reason: d.Reason})
		}
	}
	return days, nil
}

// Prizes lists the catalog, or only unwon prizes, with pool stats.
func (s *AdventService) Prizes(ctx context.Context, availableOnly bool) ([]models.Prize, models.Stats, error) {
	var (
		prizes []models.Prize
		err    error
	)
	if availableOnly {
		prizes, err = s.store.ListAvailable(ctx)
	} else {
		prizes, err = s.store.ListPrizes(ctx)
	}
	if err != nil {
		return nil, models.Stats{}, fmt.Errorf("list prizes: %w", err)
	}
	st, err := s.store.Stats(ctx)
	if err != nil {
		return nil, models.Stats{}, fmt.Errorf("list prizes: %w", err)
	}
	s.observer.RemainingObserved(st.Remaining)
	return prizes, st, nil
}

// AddPrize adds one prize to the pool.
func (s *AdventService) AddPrize(ctx context.Context, spec models.PrizeSpec) (models.Prize, error) {
	p, err := s.store.AddPrize(ctx, spec)
	if err != nil {
		return models.Prize{}, err
	}
	logger.Infof("Added prize %d (%s)", p.ID, p.Title)
	return p, nil
}

// RemovePrize deletes an unwon prize.
func (s *AdventService) RemovePrize(ctx context.Context, id int64) error {
	return s.store.RemovePrize(ctx, id)
}

// ImportPrizes validates every spec before adding any of them.
func (s *AdventService) ImportPrizes(ctx context.Context, specs []models.PrizeSpec) ([]models.Prize, error) {
	for i, spec := range specs {
		if err := storage.ValidateSpec(spec); err != nil {
			return nil, fmt.Errorf("prize %d: %w", i+1, err)
		}
	}
	added := make([]models.Prize, 0, len(specs))
	for _, spec := range specs {
		p, err := s.store.AddPrize(ctx, spec)
		if err != nil {
			return added, err
		}
		added = append(added, p)
	}
	logger.Infof("Imported %d prizes", len(added))
	return added, nil
}
