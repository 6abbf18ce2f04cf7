package main

import (
	"context"

	"foodorder/internal/config"
	"foodorder/internal/db"
	"foodorder/internal/logging"
	"foodorder/internal/seed"
)

func main() {
	cfg, err := config.Load(".env")
	logger := logging.New("seed", cfg.LogLevel)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect db")
	}
	defer pool.Close()

	if err := seed.Apply(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("seed apply")
	}

	logger.Info().Str("password", seed.DemoPassword).Msg("seed applied")
}
