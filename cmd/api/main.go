package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"travlysis/internal/config"
	"travlysis/internal/db"
	"travlysis/internal/ingest"
	"travlysis/internal/server"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

var mainDepsProvider = defaultDeps
var mainRunner = realMain

func main() {
	mainRunner(mainDepsProvider())
}

type mainDeps struct {
	loadConfig   func() config.Config
	connectRedis func(config.Config) *redis.Client
	connectNATS  func(config.Config) (*nats.Conn, error)
	notify       func(chan<- os.Signal, ...os.Signal)
	run          func(context.Context, config.Config, *redis.Client, *nats.Conn, <-chan os.Signal, ListenFunc) error
}

func defaultDeps() mainDeps {
	return mainDeps{
		loadConfig:   config.Load,
		connectRedis: db.ConnectRedis,
		connectNATS:  connectNATS,
		notify:       signal.Notify,
		run:          Run,
	}
}

func connectNATS(cfg config.Config) (*nats.Conn, error) {
	if cfg.NATSURL == "" {
		return nil, nil
	}
	return ingest.Connect(cfg.NATSURL)
}

func realMain(deps mainDeps) {
	cfg := deps.loadConfig()

	rdb := deps.connectRedis(cfg)

	nc, err := deps.connectNATS(cfg)
	if err != nil {
		log.Printf("nats connection failed, fix ingestion disabled: %v", err)
	}

	signals := make(chan os.Signal, 1)
	deps.notify(signals, syscall.SIGINT, syscall.SIGTERM)

	if err := deps.run(context.Background(), cfg, rdb, nc, signals, nil); err != nil {
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

// Run starts the HTTP server and the NATS fix consumer, then waits for
// termination signals.
func Run(ctx context.Context, cfg config.Config, rdb *redis.Client, nc *nats.Conn, signals <-chan os.Signal, listen ListenFunc) error {
	srv := server.NewServer(cfg, rdb)

	var consumer *ingest.Consumer
	if nc != nil {
		consumer = ingest.NewConsumer(nc, srv.Tracking, srv.Metrics)
		if err := consumer.Start(cfg.NATSSubject); err != nil {
			log.Printf("nats subscribe failed: %v", err)
		}
	}

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if consumer != nil {
		consumer.Close()
	}
	if err := shutdownFn(srv.App, shutdownCtx); err != nil {
		return err
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	return nil
}
