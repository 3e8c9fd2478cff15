// Package cli implements the advent command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/google/logger"
	"gopkg.in/natefinch/lumberjack.v2"

	"advent/internal/calendar"
	"advent/internal/config"
	"advent/internal/metrics"
	"advent/internal/models"
	"advent/internal/services"
	"advent/internal/storage"
)

// CLI is the kong grammar. Global settings come from config.Config.
type CLI struct {
	config.Config `embed:""`

	Version kong.VersionFlag `help:"Print the version and exit."`

	Serve ServeCmd `cmd:"" help:"Run the HTTP server." default:"1"`
	Prize struct {
		List   PrizeListCmd   `cmd:"" help:"List prizes."`
		Add    PrizeAddCmd    `cmd:"" help:"Add a prize."`
		Remove PrizeRemoveCmd `cmd:"" help:"Remove an unwon prize."`
		Import PrizeImportCmd `cmd:"" help:"Import prizes from a CSV or YAML file."`
	} `cmd:"" help:"Manage the prize pool."`
	History HistoryCmd `cmd:"" help:"Show awarded prizes."`
	Check   CheckCmd   `cmd:"" help:"Check whether a door can be opened."`
	Spin    SpinCmd    `cmd:"" help:"Open a door and draw its prize."`
	Days    DaysCmd    `cmd:"" help:"Show the state of all doors."`
}

// Context is passed to every command's Run method.
type Context struct {
	Config  config.Config
	Store   storage.Store
	Service *services.AdventService
	Metrics *metrics.Metrics
	Out     io.Writer
}

// Open builds the store, seeds it if empty and wires the service.
func Open(ctx context.Context, cfg config.Config, opts ...services.Option) (*Context, error) {
	gate, err := calendar.LoadGate(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	catalog, err := storage.LoadCatalog(cfg.SeedFile)
	if err != nil {
		return nil, err
	}

	var store storage.Store
	if cfg.Memory {
		logger.Warning("Using the in-memory store; awards are lost on restart")
		store = storage.NewMemoryStore()
	} else {
		s, err := storage.OpenSQLite(ctx, cfg.DB)
		if err != nil {
			return nil, err
		}
		logger.Infof("Opened database %s", s.Path())
		store = s
	}

	m := metrics.New()
	svc := services.NewAdventService(store, gate, nil, append([]services.Option{services.WithObserver(m)}, opts...)...)
	if _, err := svc.Seed(ctx, catalog); err != nil {
		store.Close()
		return nil, err
	}

	return &Context{Config: cfg, Store: store, Service: svc, Metrics: m, Out: os.Stdout}, nil
}

// Close releases the store.
func (c *Context) Close() error {
	return c.Store.Close()
}

// InitLogging installs the process logger. Logs also go to a rotated file
// when cfg.LogFile is set; verbose echoes info and warnings to stdout.
func InitLogging(cfg config.Config, verbose bool) func() {
	var (
		w   io.Writer = io.Discard
		rot *lumberjack.Logger
	)
	if cfg.LogFile != "" {
		rot = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		w = rot
	}
	l := logger.Init("advent", verbose, false, w)
	return func() {
		l.Close()
		if rot != nil {
			rot.Close()
		}
	}
}

func printPrize(w io.Writer, p models.Prize) {
	fmt.Fprintf(w, "%s %s (%s): %s\n", p.Emoji, p.Title, p.Kind, p.Description)
}
