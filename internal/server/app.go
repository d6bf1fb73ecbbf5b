// Package server initializes and runs the board: it opens and migrates the
// database, selects the image backend, builds the HTTP router and serves it
// until a shutdown signal arrives.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/swapboard/internal/logging"
	"github.com/dmitrijs2005/swapboard/internal/server/config"
	"github.com/dmitrijs2005/swapboard/internal/server/images"
	"github.com/dmitrijs2005/swapboard/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/swapboard/internal/server/services"
	"github.com/dmitrijs2005/swapboard/internal/server/web"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	manager *repomanager.Manager
	handler http.Handler
	closers []io.Closer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, c.LogLevel)
	return newApp(ctx, c, logger)
}

// for tests
var openManager = repomanager.Open

func newApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	app := &App{config: c, logger: logger}
	if err := app.init(ctx); err != nil {
		app.close()
		return nil, err
	}
	return app, nil
}

// init opens every resource the app owns. Whatever was opened before a
// failure stays in app.closers for the caller to release.
func (app *App) init(ctx context.Context) error {
	c := app.config

	um, err := openManager(ctx, c.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	app.manager = um
	app.closers = append(app.closers, um)

	if err := um.RunMigrations(ctx); err != nil {
		return fmt.Errorf("db migrate error: %w", err)
	}

	backend, uploadDir, err := newImageBackend(ctx, c)
	if err != nil {
		return fmt.Errorf("image backend init error: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc := services.NewListingService(um.Listings(), images.NewUploader(backend, c.AllowedExtensions), services.NewMetrics(reg), app.logger)

	var limiter *web.RateLimiter
	if c.RedisURL != "" {
		rdb, err := web.NewRedisClient(ctx, c.RedisURL)
		if err != nil {
			return fmt.Errorf("redis init error: %w", err)
		}
		app.closers = append(app.closers, rdb)
		limiter = web.NewRateLimiter(web.NewRedisCounter(rdb), c.RateLimitPerMinute, time.Minute, app.logger)
	}

	gin.SetMode(gin.ReleaseMode)
	router, err := web.NewRouter(svc, web.Options{
		MaxBodyBytes: c.MaxBodyBytes,
		UploadDir:    uploadDir,
		Registry:     reg,
		Limiter:      limiter,
		Pinger:       um,
	}, app.logger)
	if err != nil {
		return err
	}
	app.handler = router

	return nil
}

// newImageBackend returns the configured backend and, for the local one, the
// directory to serve under /static/uploads.
func newImageBackend(ctx context.Context, c *config.Config) (images.Backend, string, error) {
	switch c.ImageBackend {
	case config.ImageBackendS3:
		b, err := images.NewS3Backend(ctx, images.S3Options{
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			AccessKey:    c.S3AccessKey,
			SecretKey:    c.S3SecretKey,
		})
		return b, "", err
	default:
		b, err := images.NewLocalBackend(c.UploadDir, "/static/uploads")
		if err != nil {
			return nil, "", err
		}
		return b, b.Dir(), nil
	}
}

// Handler exposes the router, mostly for tests.
func (app *App) Handler() http.Handler {
	return app.handler
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := web.NewServer(app.config.Addr(), app.handler, app.config.ShutdownTimeout, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// releases the database and Redis connections.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "address", app.config.Addr(), "db", app.manager.Dialect(), "images", app.config.ImageBackend)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.close()
	app.logger.Info(context.Background(), "App stopped")
}

func (app *App) close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i].Close(); err != nil {
			app.logger.Warn(context.Background(), "close failed", "error", err)
		}
	}
	app.closers = nil
}
