package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/logger"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"advent/internal/calendar"
	"advent/internal/models"
)

// timeLayout is fixed-width so that TEXT ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStore is the durable Store backed by a single SQLite file.
type SQLiteStore struct {
	path string
	db   *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies
// pending migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	dsn := "file:" + path +
		"?_pragma=foreign_keys(1)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=journal_mode(WAL)" +
		"&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One writer connection serialises every transaction in-process.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{path: path, db: db}
	if err := s.init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteStore wraps an already-open database. The schema must exist;
// call Migrate otherwise.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) init(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	if err := s.Migrate(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Migrate applies the embedded schema migrations.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	sub, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("access migrations: %w", err)
	}
	_, err = migrate(ctx, s.db, sub)
	return err
}

// Path returns the database file path, empty for wrapped handles.
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

const prizeColumns = `id, kind, title, description, emoji, color, won, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanPrize(row scanner) (models.Prize, error) {
	var (
		p       models.Prize
		kind    string
		won     int
		created string
	)
	if err := row.Scan(&p.ID, &kind, &p.Title, &p.Description, &p.Emoji, &p.Color, &won, &created); err != nil {
		return models.Prize{}, err
	}
	p.Kind = models.PrizeKind(kind)
	p.Won = won != 0
	p.CreatedAt = parseTime(created)
	return p, nil
}

func parseTime(s string) time.Time {
	for _, layout := range []string{timeLayout, time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// isConstraint matches an extended constraint code. Builds that only report
// the primary SQLITE_CONSTRAINT code are matched on the message instead.
func isConstraint(err error, code int) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	if se.Code() == code {
		return true
	}
	if se.Code() != sqlite3.SQLITE_CONSTRAINT {
		return false
	}
	switch code {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return strings.Contains(se.Error(), "UNIQUE constraint failed")
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return strings.Contains(se.Error(), "FOREIGN KEY constraint failed")
	}
	return false
}

func (s *SQLiteStore) listPrizes(ctx context.Context, where string) ([]models.Prize, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+prizeColumns+` FROM prizes `+where+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query prizes: %w", err)
	}
	defer rows.Close()

	prizes := make([]models.Prize, 0)
	for rows.Next() {
		p, err := scanPrize(rows)
		if err != nil {
			return nil, fmt.Errorf("scan prize: %w", err)
		}
		prizes = append(prizes, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prizes: %w", err)
	}
	return prizes, nil
}

func (s *SQLiteStore) ListPrizes(ctx context.Context) ([]models.Prize, error) {
	return s.listPrizes(ctx, "")
}

func (s *SQLiteStore) ListAvailable(ctx context.Context) ([]models.Prize, error) {
	return s.listPrizes(ctx, "WHERE won = 0")
}

func getPrize(ctx context.Context, q querier, id int64) (models.Prize, error) {
	p, err := scanPrize(q.QueryRowContext(ctx, `SELECT `+prizeColumns+` FROM prizes WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Prize{}, ErrNotFound
	}
	if err != nil {
		return models.Prize{}, fmt.Errorf("get prize %d: %w", id, err)
	}
	return p, nil
}

func (s *SQLiteStore) GetPrize(ctx context.Context, id int64) (models.Prize, error) {
	return getPrize(ctx, s.db, id)
}

// markWon relies on the conditional update, not on a prior read, to decide
// which of two racing callers wins.
func markWon(ctx context.Context, q querier, id int64) error {
	res, err := q.ExecContext(ctx, `UPDATE prizes SET won = 1 WHERE id = ? AND won = 0`, id)
	if err != nil {
		return fmt.Errorf("mark prize %d won: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark prize %d won: %w", id, err)
	}
	if n == 1 {
		return nil
	}
	if _, err := getPrize(ctx, q, id); err != nil {
		return err
	}
	return ErrAlreadyWon
}

func (s *SQLiteStore) MarkWon(ctx context.Context, id int64) error {
	return markWon(ctx, s.db, id)
}

func addPrize(ctx context.Context, q querier, spec models.PrizeSpec, now time.Time) (models.Prize, error) {
	if err := ValidateSpec(spec); err != nil {
		return models.Prize{}, err
	}
	res, err := q.ExecContext(ctx,
		`INSERT INTO prizes (kind, title, description, emoji, color, won, created_at) VALUES (?, ?, ?, ?, ?, 0, ?)`,
		string(spec.Kind), spec.Title, spec.Description, spec.Emoji, spec.Color, formatTime(now))
	if err != nil {
		return models.Prize{}, fmt.Errorf("insert prize: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Prize{}, fmt.Errorf("insert prize: %w", err)
	}
	return models.Prize{
		ID:          id,
		Kind:        spec.Kind,
		Title:       spec.Title,
		Description: spec.Description,
		Emoji:       spec.Emoji,
		Color:       spec.Color,
		CreatedAt:   now.UTC(),
	}, nil
}

func (s *SQLiteStore) AddPrize(ctx context.Context, spec models.PrizeSpec) (models.Prize, error) {
	return addPrize(ctx, s.db, spec, time.Now())
}

func (s *SQLiteStore) RemovePrize(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin remove: %w", err)
	}
	defer tx.Rollback()

	p, err := getPrize(ctx, tx, id)
	if err != nil {
		return err
	}
	if p.Won {
		return ErrConflict
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM prizes WHERE id = ? AND won = 0`, id); err != nil {
		return fmt.Errorf("delete prize %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit remove: %w", err)
	}
	logger.Infof("storage: removed prize %d (%s)", id, p.Title)
	return nil
}

func (s *SQLiteStore) Stats(ctx context.Context) (models.Stats, error) {
	var st models.Stats
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(won), 0) FROM prizes`).Scan(&st.Total, &st.Won)
	if err != nil {
		return models.Stats{}, fmt.Errorf("query stats: %w", err)
	}
	st.Remaining = st.Total - st.Won
	return st, nil
}

func (s *SQLiteStore) IsPlayed(ctx context.Context, day int) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM history WHERE day = ?`, day).Scan(&n); err != nil {
		return false, fmt.Errorf("check day %d: %w", day, err)
	}
	return n > 0, nil
}

const historySelect = `
	SELECT h.id, h.day, h.prize_id, h.won_at,
	       p.id, p.kind, p.title, p.description, p.emoji, p.color, p.won, p.created_at
	FROM history h
	JOIN prizes p ON p.id = h.prize_id`

func scanEntry(row scanner) (models.HistoryEntry, error) {
	var (
		e       models.HistoryEntry
		p       models.Prize
		wonAt   string
		kind    string
		won     int
		created string
	)
	err := row.Scan(&e.ID, &e.Day, &e.PrizeID, &wonAt,
		&p.ID, &kind, &p.Title, &p.Description, &p.Emoji, &p.Color, &won, &created)
	if err != nil {
		return models.HistoryEntry{}, err
	}
	e.AwardedAt = parseTime(wonAt)
	p.Kind = models.PrizeKind(kind)
	p.Won = won != 0
	p.CreatedAt = parseTime(created)
	e.Prize = &p
	return e, nil
}

func getEntry(ctx context.Context, q querier, day int) (models.HistoryEntry, error) {
	e, err := scanEntry(q.QueryRowContext(ctx, historySelect+` WHERE h.day = ?`, day))
	if errors.Is(err, sql.ErrNoRows) {
		return models.HistoryEntry{}, ErrNotFound
	}
	if err != nil {
		return models.HistoryEntry{}, fmt.Errorf("get history for day %d: %w", day, err)
	}
	return e, nil
}

func (s *SQLiteStore) GetEntry(ctx context.Context, day int) (models.HistoryEntry, error) {
	return getEntry(ctx, s.db, day)
}

// record leans on UNIQUE(day): a duplicate insert is the authoritative
// already-played signal.
func record(ctx context.Context, q querier, day int, prizeID int64, at time.Time) error {
	if !calendar.ValidDay(day) {
		return calendar.ErrInvalidDay
	}
	_, err := q.ExecContext(ctx, `INSERT INTO history (day, prize_id, won_at) VALUES (?, ?, ?)`,
		day, prizeID, formatTime(at))
	switch {
	case err == nil:
		return nil
	case isConstraint(err, sqlite3.SQLITE_CONSTRAINT_UNIQUE):
		return ErrDayAlreadyPlayed
	case isConstraint(err, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY):
		return ErrNotFound
	default:
		return fmt.Errorf("record day %d: %w", day, err)
	}
}

func (s *SQLiteStore) Record(ctx context.Context, day int, prizeID int64, at time.Time) (models.HistoryEntry, error) {
	if err := record(ctx, s.db, day, prizeID, at); err != nil {
		return models.HistoryEntry{}, err
	}
	return getEntry(ctx, s.db, day)
}

func (s *SQLiteStore) ListHistory(ctx context.Context) ([]models.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, historySelect+` ORDER BY h.won_at DESC, h.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	entries := make([]models.HistoryEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}

// Commit inserts the ledger row first so that a lost day race surfaces as
// ErrDayAlreadyPlayed even when both spins drew the same prize.
func (s *SQLiteStore) Commit(ctx context.Context, day int, prizeID int64, at time.Time) (models.HistoryEntry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.HistoryEntry{}, fmt.Errorf("begin commit: %w", err)
	}
	defer tx.Rollback()

	if err := record(ctx, tx, day, prizeID, at); err != nil {
		return models.HistoryEntry{}, err
	}
	if err := markWon(ctx, tx, prizeID); err != nil {
		return models.HistoryEntry{}, err
	}
	entry, err := getEntry(ctx, tx, day)
	if err != nil {
		return models.HistoryEntry{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.HistoryEntry{}, fmt.Errorf("commit day %d: %w", day, err)
	}
	return entry, nil
}

func (s *SQLiteStore) SeedIfEmpty(ctx context.Context, specs []models.PrizeSpec) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM prizes`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count prizes: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	now := time.Now()
	for _, spec := range specs {
		if _, err := addPrize(ctx, tx, spec, now); err != nil {
			return 0, fmt.Errorf("seed %q: %w", spec.Title, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed: %w", err)
	}
	return len(specs), nil
}
