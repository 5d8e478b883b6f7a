// Command seed upserts the country groups and countries used for
// purchasing power discounts. Safe to run repeatedly.
package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"parity-app/database"
	"parity-app/internal/domain/countries"
	"parity-app/internal/infra/cache"
	"parity-app/internal/logging"
	"parity-app/internal/repository"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

//go:embed countries-by-discount.json
var defaultDataset []byte

type seedConfig struct {
	DBURL     string `env:"DB_URL,required,notEmpty"`
	RedisURL  string `env:"REDIS_URL"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

func main() {
	file := flag.String("file", "", "country groups JSON file (defaults to the embedded dataset)")
	flag.Parse()

	_ = godotenv.Load()
	var cfg seedConfig
	if err := env.Parse(&cfg); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	data := defaultDataset
	if *file != "" {
		b, err := os.ReadFile(*file)
		if err != nil {
			slog.Error("read dataset failed", "file", *file, "error", err)
			os.Exit(1)
		}
		data = b
	}

	seeds, err := parseDataset(data)
	if err != nil {
		slog.Error("invalid dataset", "error", err)
		os.Exit(1)
	}

	db, err := database.InitDB(cfg.DBURL)
	if err != nil {
		slog.Error("database init failed", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Point at the server's Redis so cached country reads are dropped.
	var c *cache.Cache
	if cfg.RedisURL != "" {
		client, err := cache.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			slog.Warn("redis unavailable, cached countries expire on their own", "error", err)
		} else {
			defer client.Close()
			c = cache.New(cache.NewRedisStore(client, cache.KeyPrefix), cache.DefaultTTL)
		}
	}

	groups, written, err := repository.NewCountries(db, c).Seed(ctx, seeds)
	if err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}
	slog.Info("seeded countries", "groups", groups, "countries", written)
}

func parseDataset(data []byte) ([]countries.GroupSeed, error) {
	var seeds []countries.GroupSeed
	if err := json.Unmarshal(data, &seeds); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	if len(seeds) == 0 {
		return nil, fmt.Errorf("dataset has no country groups")
	}

	groups := map[string]bool{}
	codes := map[string]string{}
	for _, g := range seeds {
		if strings.TrimSpace(g.Name) == "" {
			return nil, fmt.Errorf("country group without a name")
		}
		if groups[g.Name] {
			return nil, fmt.Errorf("duplicate country group %q", g.Name)
		}
		groups[g.Name] = true
		if g.RecommendedDiscountPercentage < 0 || g.RecommendedDiscountPercentage > 1 {
			return nil, fmt.Errorf("group %q: discount %v out of range", g.Name, g.RecommendedDiscountPercentage)
		}
		for _, c := range g.Countries {
			code := strings.ToUpper(strings.TrimSpace(c.Code))
			if len(code) != 2 {
				return nil, fmt.Errorf("group %q: bad country code %q", g.Name, c.Code)
			}
			if other, ok := codes[code]; ok {
				return nil, fmt.Errorf("country %s listed in both %q and %q", code, other, g.Name)
			}
			codes[code] = g.Name
		}
	}
	return seeds, nil
}
