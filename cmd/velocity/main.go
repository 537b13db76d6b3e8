package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"velocity/internal/config"
	"velocity/internal/db"
	applog "velocity/internal/logger"
	"velocity/internal/server"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	client "github.com/influxdata/influxdb1-client/v2"
	"github.com/redis/go-redis/v9"
)

var mainDepsProvider = defaultDeps
var mainRunner = realMain

func main() {
	mainRunner(mainDepsProvider())
}

type mainDeps struct {
	loadConfig    func() config.Config
	initSentry    func(config.Config) error
	connectRedis  func(config.Config) *redis.Client
	connectInflux func(config.Config) (client.Client, error)
	notify        func(chan<- os.Signal, ...os.Signal)
	run           func(context.Context, config.Config, *redis.Client, client.Client, <-chan os.Signal, ListenFunc) error
}

func defaultDeps() mainDeps {
	return mainDeps{
		loadConfig:    config.Load,
		initSentry:    initSentry,
		connectRedis:  db.ConnectRedis,
		connectInflux: db.ConnectInflux,
		notify:        signal.Notify,
		run:           Run,
	}
}

func initSentry(cfg config.Config) error {
	return sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		EnableTracing:    true,
		TracesSampleRate: 1.0,
		AttachStacktrace: true,
	})
}

func realMain(deps mainDeps) {
	cfg := deps.loadConfig()

	if err := deps.initSentry(cfg); err != nil {
		log.Printf("sentry init failed: %v", err)
	}
	defer sentry.Flush(2 * time.Second)

	influx, err := deps.connectInflux(cfg)
	if err != nil {
		log.Printf("influx connection failed: %v", err)
		influx = nil
	}

	rdb := deps.connectRedis(cfg)

	signals := make(chan os.Signal, 1)
	deps.notify(signals, syscall.SIGINT, syscall.SIGTERM)

	if err := deps.run(context.Background(), cfg, rdb, influx, signals, nil); err != nil {
		log.Printf("server exited with error: %v", err)
	}
}

type ListenFunc func(app *fiber.App, addr string) error

var defaultListen ListenFunc = func(app *fiber.App, addr string) error {
	return app.Listen(addr)
}

var shutdownFn = func(app *fiber.App, ctx context.Context) error {
	return app.ShutdownWithContext(ctx)
}

// Run starts the HTTP server and waits for termination signals. An active
// session is stopped, not uploaded, on shutdown.
func Run(ctx context.Context, cfg config.Config, rdb *redis.Client, influx client.Client, signals <-chan os.Signal, listen ListenFunc) error {
	logger := applog.New(cfg.LogLevel, os.Stdout)
	srv, err := server.NewServer(cfg, rdb, influx, logger)
	if err != nil {
		return err
	}
	defer closeResources(srv, rdb, influx)

	if listen == nil {
		listen = defaultListen
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- listen(srv.App, cfg.ServerPort)
	}()

	select {
	case <-signals:
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return shutdownFn(srv.App, shutdownCtx)
}

func closeResources(srv *server.Server, rdb *redis.Client, influx client.Client) {
	srv.Close()
	if rdb != nil {
		_ = rdb.Close()
	}
	if influx != nil {
		_ = influx.Close()
	}
}
