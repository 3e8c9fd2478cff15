package storage

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"testing/fstest"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"advent/internal/models"
)

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "advent.db")

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	_, err = s.SeedIfEmpty(ctx, twoPrizes())
	require.NoError(t, err)
	prizes, err := s.ListPrizes(ctx)
	require.NoError(t, err)
	at := time.Date(2024, time.December, 3, 7, 30, 0, 123456789, time.UTC)
	_, err = s.Commit(ctx, 3, prizes[0].ID, at)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	e, err := s.GetEntry(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, prizes[0].ID, e.PrizeID)
	assert.True(t, e.AwardedAt.Equal(at), "awardedAt %v != %v", e.AwardedAt, at)

	// Reopening must not reseed.
	n, err := s.SeedIfEmpty(ctx, DefaultCatalog())
	require.NoError(t, err)
	assert.Zero(t, n)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Stats{Total: 2, Won: 1, Remaining: 1}, st)
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t).(*SQLiteStore)

	t.Run("embedded migrations are applied once", func(t *testing.T) {
		v, err := schemaVersion(ctx, s.db)
		require.NoError(t, err)
		assert.Equal(t, 1, v)

		require.NoError(t, s.Migrate(ctx))
		v, err = schemaVersion(ctx, s.db)
		require.NoError(t, err)
		assert.Equal(t, 1, v)
	})

	t.Run("newer database is refused", func(t *testing.T) {
		fsys := fstest.MapFS{
			"001_init.sql": {Data: []byte("SELECT 1;")},
		}
		_, err := s.db.ExecContext(ctx, `UPDATE schema_version SET version = 9`)
		require.NoError(t, err)
		_, err = migrate(ctx, s.db, fsys)
		assert.ErrorContains(t, err, "newer than supported")
	})

	t.Run("bad filenames are rejected", func(t *testing.T) {
		_, err := readMigrations(fstest.MapFS{"init.sql": {Data: []byte("")}})
		assert.Error(t, err)
		_, err = readMigrations(fstest.MapFS{
			"001_a.sql": {Data: []byte("")},
			"001_b.sql": {Data: []byte("")},
		})
		assert.ErrorContains(t, err, "duplicate")
	})
}

func TestSQLiteStore_IOErrorsAreWrapped(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ioErr := errors.New("disk I/O error")
	s := NewSQLiteStore(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*), COALESCE(SUM(won), 0) FROM prizes`)).WillReturnError(ioErr)
	_, err = s.Stats(ctx)
	assert.ErrorIs(t, err, ioErr)
	assert.NotErrorIs(t, err, ErrNotFound)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM history WHERE day = ?`)).WithArgs(5).WillReturnError(ioErr)
	_, err = s.IsPlayed(ctx, 5)
	assert.ErrorIs(t, err, ioErr)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_CommitRollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ioErr := errors.New("disk I/O error")
	s := NewSQLiteStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO history (day, prize_id, won_at)`)).
		WithArgs(4, int64(2), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE prizes SET won = 1 WHERE id = ? AND won = 0`)).
		WithArgs(int64(2)).
		WillReturnError(ioErr)
	mock.ExpectRollback()

	_, err = s.Commit(context.Background(), 4, 2, time.Now())
	assert.ErrorIs(t, err, ioErr)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestParseCatalog(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		specs, err := ParseCatalog([]byte(`
prizes:
  - type: voucher
    title: Kinoabend
    description: Filmabend mit Popcorn
    emoji: "🎬"
    color: "#DDA0DD"
  - type: challenge
    title: Dankbarkeit
    description: Schreibe 5 Dinge auf
    emoji: "🙏"
    color: "#F0E68C"
`))
		require.NoError(t, err)
		require.Len(t, specs, 2)
		assert.Equal(t, models.KindChallenge, specs[1].Kind)
		assert.Equal(t, "#DDA0DD", specs[0].Color)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := ParseCatalog([]byte("prizes: []"))
		assert.Error(t, err)
	})

	t.Run("invalid entry", func(t *testing.T) {
		_, err := ParseCatalog([]byte("prizes:\n  - type: gift\n    title: x\n"))
		assert.ErrorIs(t, err, ErrInvalidPrize)
	})

	t.Run("default catalog is valid", func(t *testing.T) {
		specs, err := LoadCatalog("")
		require.NoError(t, err)
		assert.Len(t, specs, 12)
		for _, spec := range specs {
			assert.NoError(t, ValidateSpec(spec))
		}
	})
}
