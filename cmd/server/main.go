package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	"verilist/internal/audit"
	audithandler "verilist/internal/audit/handler"
	"verilist/internal/decision"
	decisionhandler "verilist/internal/decision/handler"
	decisionmetrics "verilist/internal/decision/metrics"
	"verilist/internal/outbox"
	"verilist/internal/platform/config"
	"verilist/internal/platform/httpserver"
	"verilist/internal/platform/logger"
	"verilist/internal/platform/metrics"
	"verilist/internal/platform/postgres"
	platformredis "verilist/internal/platform/redis"
	"verilist/internal/platform/token"
	"verilist/internal/reference"
	"verilist/internal/request"
	requesthandler "verilist/internal/request/handler"
	httptransport "verilist/internal/transport/http"
	"verilist/internal/user"
	userhandler "verilist/internal/user/handler"
	"verilist/pkg/platform/tx"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal services.
func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Warn("redis unavailable, serving status reads from postgres", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	userStore := user.NewPostgres(db)
	requestStore := request.NewPostgres(db)
	referenceStore := reference.NewPostgres(db)
	auditStore := audit.NewPostgres(db)
	outboxStore := outbox.NewPostgres(db)

	if err := reference.EnsureSeeded(ctx, referenceStore, cfg.SeedFile, log); err != nil {
		return err
	}

	cache := user.NewCachedStatus(userStore, redisClient, cfg.Redis.StatusTTL)
	auditor := audit.NewPublisher(auditStore)
	txr := tx.SQL(db)
	m := metrics.New()

	requestService := request.NewService(requestStore, userStore, cache, txr, log, m)
	decisionService := decision.NewService(
		requestStore, referenceStore, userStore, cache, auditor, outboxStore,
		txr, log, decisionmetrics.New(),
	)

	jwt := token.NewJWTService(cfg.JWTSigningKey)
	router := httptransport.NewRouter(httptransport.Handlers{
		Requests:  requesthandler.New(requestService, log),
		Decisions: decisionhandler.New(decisionService, log),
		Audit:     audithandler.New(auditor, log),
		Users:     userhandler.New(cache, log),
	}, jwt, log, m)

	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting verilist", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if len(cfg.Kafka.Brokers) > 0 {
		client, err := kgo.NewClient(kgo.SeedBrokers(cfg.Kafka.Brokers...))
		if err != nil {
			return err
		}
		defer client.Close()

		worker := outbox.NewWorker(outboxStore, client, cfg.Kafka.Topic, cfg.Kafka.PollInterval, log)
		if err := worker.EnsureTopic(ctx); err != nil {
			return err
		}
		g.Go(func() error {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	} else {
		log.Warn("no kafka brokers configured, notification events stay queued in the outbox")
	}

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("shutdown complete")
	return nil
}
