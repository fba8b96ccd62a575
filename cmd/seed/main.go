package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/obinstory-alt/kkh/internal/config"
	"github.com/obinstory-alt/kkh/internal/domain"
	"github.com/obinstory-alt/kkh/internal/snapshot"
	"github.com/obinstory-alt/kkh/internal/store"
)

// channelPreset is a delivery platform with its standard commission rate.
type channelPreset struct {
	name string
	fee  string
}

// Default fee presets for the common Korean delivery platforms, plus
// walk-in card sales.
var defaultChannels = []channelPreset{
	{name: "배민", fee: "6.8"},
	{name: "쿠팡", fee: "9.8"},
	{name: "요기요", fee: "12.5"},
	{name: "네이버", fee: "3.5"},
	{name: "매장", fee: "1.5"},
}

var defaultItems = []string{"닭강정", "국밥", "냉면"}

func main() {
	force := flag.Bool("force", false, "Overwrite existing configuration")
	flag.Parse()

	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}
	cfg := config.Load()
	ctx := context.Background()

	var (
		persister store.Persister
		existing  *snapshot.Document
	)

	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Unable to connect to database: %v", err)
		}
		defer pool.Close()

		pg := store.NewPGPersister(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatalf("Unable to prepare database schema: %v", err)
		}
		existing, err = pg.Load(ctx)
		if err != nil {
			log.Fatalf("Unable to load state from database: %v", err)
		}
		persister = pg
	} else {
		fp := store.NewFilePersister(cfg.DataFile)
		var err error
		existing, err = fp.Load()
		if err != nil {
			log.Fatalf("Unable to load state file: %v", err)
		}
		persister = fp
	}

	if existing != nil && (len(existing.Channels) > 0 || len(existing.Items) > 0) && !*force {
		log.Fatal("Configuration already present; re-run with -force to overwrite it")
	}

	channels := make([]domain.Channel, len(defaultChannels))
	for i, preset := range defaultChannels {
		fee, err := decimal.NewFromString(preset.fee)
		if err != nil {
			log.Fatalf("Invalid preset fee %q: %v", preset.fee, err)
		}
		channels[i] = domain.Channel{
			ID:                uuid.New(),
			Name:              preset.name,
			FeePercent:        fee,
			AdjustmentPercent: decimal.Zero,
		}
		log.Printf("Channel '%s' at %s%%", preset.name, preset.fee)
	}

	items := make([]domain.Item, len(defaultItems))
	for i, name := range defaultItems {
		items[i] = domain.Item{ID: uuid.New(), Name: name}
		log.Printf("Item '%s'", name)
	}

	// Keep any existing ledger, expenses and memos; only the configuration
	// collections are replaced.
	doc := snapshot.Export(items, channels, nil, nil, nil, time.Now())
	if existing != nil {
		doc.Ledger = existing.Ledger
		doc.Expenses = existing.Expenses
		doc.Memos = existing.Memos
	}

	if err := persister.Persist(ctx, doc); err != nil {
		log.Fatalf("Failed to write seed data: %v", err)
	}

	log.Println("Seed completed successfully")
}
