package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"foodorder/internal/blob"
	"foodorder/internal/config"
	"foodorder/internal/db"
	"foodorder/internal/events"
	"foodorder/internal/httpserver"
	"foodorder/internal/live"
	"foodorder/internal/logging"
	accountrepo "foodorder/internal/repository/account"
	menuitemrepo "foodorder/internal/repository/menuitem"
	orderrepo "foodorder/internal/repository/order"
	restaurantrepo "foodorder/internal/repository/restaurant"
	tokenrepo "foodorder/internal/repository/token"
	userrepo "foodorder/internal/repository/user"
	userprofilerepo "foodorder/internal/repository/userprofile"
	authsvc "foodorder/internal/service/auth"
	checkoutsvc "foodorder/internal/service/checkout"
	menusvc "foodorder/internal/service/menu"
	ordersvc "foodorder/internal/service/order"
	profilesvc "foodorder/internal/service/profile"
	"foodorder/internal/session"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load(".env")
	logger := logging.New("api", cfg.LogLevel)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect to db")
	}
	defer dbpool.Close()

	broker, closeBroker := newBroker(cfg, logger)
	defer closeBroker()
	publisher := newPublisher(cfg, logger)
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn().Err(err).Msg("close event publisher")
		}
	}()

	uploader := blob.NewUploader(blob.Config{
		Account:   cfg.Blob.Account,
		Container: cfg.Blob.Container,
		SASToken:  cfg.Blob.SASToken,
		BaseURL:   cfg.Blob.BaseURL,
	}, &http.Client{Timeout: 30 * time.Second}, logger)
	if !uploader.Configured() {
		logger.Warn().Msg("blob storage not configured, image uploads will fail")
	}

	users := userrepo.NewPostgres(dbpool)
	orders := orderrepo.NewPostgres(dbpool, logger)

	authService := authsvc.New(
		accountrepo.NewPostgres(dbpool, logger),
		users,
		tokenrepo.NewPostgres(dbpool),
		authsvc.LogMailer{Logger: logger},
		logger,
	)
	sessions := session.NewManager(authService, session.NewSharedLookup(users), logger, session.ManagerConfig{
		Gate:        session.DefaultGateConfig(),
		IdleTimeout: cfg.SessionIdleTimeout,
	})

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Sessions:    sessions,
		Auth:        authService,
		Menu:        menusvc.New(menuitemrepo.NewPostgres(dbpool, logger), uploader, broker, logger),
		Orders:      ordersvc.New(orders, broker, publisher, logger),
		Checkout:    checkoutsvc.New(orders, broker, publisher, logger),
		Profiles:    profilesvc.New(restaurantrepo.NewPostgres(dbpool), userprofilerepo.NewPostgres(dbpool)),
		Live:        broker,
		CORSOrigins: cfg.CORSOrigins,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("init server")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return sessions.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
	logger.Info().Msg("server stopped")
}

// newBroker uses Redis pub/sub when REDIS_ADDR is set so that every API
// instance sees the same menu and order changes. A single instance fans out
// in memory.
func newBroker(cfg config.Config, logger zerolog.Logger) (live.Broker, func()) {
	if cfg.RedisAddr == "" {
		return live.NewMemoryBroker(), func() {}
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	return live.NewRedisBroker(client, logger), func() {
		if err := client.Close(); err != nil {
			logger.Warn().Err(err).Msg("close redis client")
		}
	}
}

func newPublisher(cfg config.Config, logger zerolog.Logger) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		return events.NopPublisher{}
	}
	logger.Info().Strs("brokers", cfg.KafkaBrokers).Msg("publishing order events to kafka")
	return events.NewKafkaPublisher(cfg.KafkaBrokers...)
}
