package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type root struct {
	Config `embed:""`
}

func parse(t *testing.T, args ...string) Config {
	t.Helper()
	var r root
	parser, err := kong.New(&r, kong.Exit(func(int) { t.Fatal("kong exited") }))
	require.NoError(t, err)
	_, err = parser.Parse(args)
	require.NoError(t, err)
	return r.Config
}

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"ADVENT_ADDR", "ADVENT_DB", "DATABASE_PATH", "ADVENT_TIMEZONE", "ADVENT_SEED_FILE",
		"ADVENT_LOG_FILE", "ADVENT_VERBOSE", "ADVENT_SPIN_RATE", "ADVENT_MEMORY",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestConfig_Defaults(t *testing.T) {
	clearEnv(t)
	c := parse(t)

	assert.Equal(t, ":8080", c.Addr)
	assert.Equal(t, "data/advent.db", c.DB)
	assert.Equal(t, "Europe/Berlin", c.Timezone)
	assert.Equal(t, 5.0, c.SpinRate)
	assert.False(t, c.Memory)
	assert.NoError(t, c.Validate())
}

func TestConfig_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("ADVENT_ADDR", "127.0.0.1:9000")
	t.Setenv("DATABASE_PATH", "/tmp/legacy.db")
	t.Setenv("ADVENT_TIMEZONE", "UTC")
	t.Setenv("ADVENT_SPIN_RATE", "0.5")
	t.Setenv("ADVENT_MEMORY", "true")

	c := parse(t)
	assert.Equal(t, "127.0.0.1:9000", c.Addr)
	assert.Equal(t, "/tmp/legacy.db", c.DB)
	assert.Equal(t, "UTC", c.Timezone)
	assert.Equal(t, 0.5, c.SpinRate)
	assert.True(t, c.Memory)

	t.Run("flags win over environment", func(t *testing.T) {
		c := parse(t, "--addr", ":7000", "--db", "other.db")
		assert.Equal(t, ":7000", c.Addr)
		assert.Equal(t, "other.db", c.DB)
	})
}

func TestConfig_Validate(t *testing.T) {
	base := Config{Addr: ":8080", DB: "x.db", Timezone: "Europe/Berlin", SpinRate: 1}
	require.NoError(t, base.Validate())

	bad := base
	bad.SpinRate = -1
	assert.Error(t, bad.Validate())

	bad = base
	bad.Timezone = "Mars/Olympus_Mons"
	assert.Error(t, bad.Validate())

	bad = base
	bad.DB = ""
	assert.Error(t, bad.Validate())
	bad.Memory = true
	assert.NoError(t, bad.Validate())
}

func TestLoadDotEnv(t *testing.T) {
	const (
		fresh  = "ADVENT_TEST_DOTENV_FRESH"
		preset = "ADVENT_TEST_DOTENV_PRESET"
	)
	t.Setenv(preset, "from-process")
	t.Cleanup(func() { os.Unsetenv(fresh) })

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(fresh+"=from-file\n"+preset+"=from-file\n"), 0o600))

	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"), path))
	assert.Equal(t, "from-file", os.Getenv(fresh))
	assert.Equal(t, "from-process", os.Getenv(preset))
}
