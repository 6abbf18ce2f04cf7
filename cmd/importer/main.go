package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"foodorder/internal/blob"
	"foodorder/internal/config"
	"foodorder/internal/db"
	"foodorder/internal/domain"
	"foodorder/internal/importer"
	"foodorder/internal/live"
	"foodorder/internal/logging"
	accountrepo "foodorder/internal/repository/account"
	menuitemrepo "foodorder/internal/repository/menuitem"
	userrepo "foodorder/internal/repository/user"
	menusvc "foodorder/internal/service/menu"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	var (
		filePath string
		owner    string
	)
	flag.StringVar(&filePath, "file", "", "Path to menu CSV (name,description,price,imageUrl)")
	flag.StringVar(&owner, "owner", "", "Restaurant account email or user id to import into")
	flag.Parse()

	if filePath == "" || owner == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(".env")
	logger := logging.New("importer", cfg.LogLevel)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect db")
	}
	defer pool.Close()

	ownerID, err := resolveOwner(ctx, pool, logger, owner)
	if err != nil {
		logger.Fatal().Err(err).Str("owner", owner).Msg("resolve owner")
	}

	var broker live.Broker = live.NopBroker{}
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		broker = live.NewRedisBroker(client, logger)
	}
	uploader := blob.NewUploader(blob.Config{}, &http.Client{Timeout: 30 * time.Second}, logger)
	menu := menusvc.New(menuitemrepo.NewPostgres(pool, logger), uploader, broker, logger)

	f, err := os.Open(filePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("open file")
	}
	defer f.Close()

	start := time.Now()
	res, err := importer.NewCSVImporter(f, menu, ownerID).Run(ctx)
	if err != nil {
		logger.Fatal().Err(err).Int("imported", res.Imported).Msg("import failed")
	}

	fmt.Printf("Imported %d menu items for %s (%d already present) in %s\n",
		res.Imported, owner, res.Skipped, time.Since(start).Truncate(time.Millisecond))
}

// resolveOwner accepts a user id or an account email and checks that the
// account is a restaurant.
func resolveOwner(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger, owner string) (string, error) {
	id := owner
	if _, err := uuid.Parse(owner); err != nil {
		acc, err := accountrepo.NewPostgres(pool, logger).GetByEmail(ctx, owner)
		if err != nil {
			return "", err
		}
		id = acc.ID
	}

	profile, err := userrepo.NewPostgres(pool).GetProfile(ctx, id)
	if err != nil {
		return "", err
	}
	if profile.Role != domain.RoleRestaurant {
		return "", fmt.Errorf("account %s is a %s, not a restaurant", owner, profile.Role)
	}
	return id, nil
}
