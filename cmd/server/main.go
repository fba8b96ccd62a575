package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/obinstory-alt/kkh/internal/config"
	"github.com/obinstory-alt/kkh/internal/router"
	"github.com/obinstory-alt/kkh/internal/snapshot"
	"github.com/obinstory-alt/kkh/internal/staging"
	"github.com/obinstory-alt/kkh/internal/store"
	"github.com/obinstory-alt/kkh/internal/ws"
)

func main() {
	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	cfg := config.Load()
	ctx := context.Background()

	var (
		persister store.Persister
		initial   *snapshot.Document
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
		initial, err = pg.Load(ctx)
		if err != nil {
			log.Fatalf("Unable to load state from database: %v", err)
		}
		persister = pg
		log.Println("Persisting to PostgreSQL")
	} else {
		fp := store.NewFilePersister(cfg.DataFile)
		var err error
		initial, err = fp.Load()
		if err != nil {
			log.Fatalf("Unable to load state file: %v", err)
		}
		persister = fp
		log.Printf("Persisting to %s", cfg.DataFile)
	}

	hub := ws.NewHub()
	go hub.Run()

	st := store.New(initial, persister, hub)
	queue := staging.NewQueue()

	r := router.New(cfg, st, queue, hub)

	log.Printf("Starting server on :%s", cfg.Port)
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), r); err != nil {
		log.Fatal(err)
	}
}
