package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"

	"advent/internal/handlers"
)

type ServeCmd struct {
	ShutdownTimeout time.Duration `help:"How long to wait for in-flight requests on shutdown." default:"10s"`
}

func (c *ServeCmd) Run(app *Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", app.Config.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", app.Config.Addr, err)
	}
	return c.serve(ctx, app, ln)
}

// serve runs until ctx is done, then drains in-flight requests.
func (c *ServeCmd) serve(ctx context.Context, app *Context, ln net.Listener) error {
	if !app.Config.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	h := handlers.NewHTTPHandler(app.Service, app.Metrics, app.Config.SpinRate)
	srv := &http.Server{
		Handler:           handlers.NewRouter(h),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on http://%s", ln.Addr())
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), c.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
