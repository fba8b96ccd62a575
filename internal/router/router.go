package router

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/obinstory-alt/kkh/internal/config"
	"github.com/obinstory-alt/kkh/internal/handler"
	"github.com/obinstory-alt/kkh/internal/staging"
	"github.com/obinstory-alt/kkh/internal/store"
	"github.com/obinstory-alt/kkh/internal/ws"
)

// New creates a Chi router with all application routes wired up.
func New(cfg *config.Config, st *store.Store, queue *staging.Queue, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// WebSocket route; clients receive a mutation event per committed change
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, w, r)
	})

	// Configuration
	itemHandler := handler.NewItemHandler(st)
	r.Route("/items", itemHandler.RegisterRoutes)

	channelHandler := handler.NewChannelHandler(st)
	r.Route("/channels", channelHandler.RegisterRoutes)

	expenseHandler := handler.NewExpenseHandler(st)
	r.Route("/expenses", expenseHandler.RegisterRoutes)

	// Ledger
	salesHandler := handler.NewSalesHandler(st)
	r.Route("/sales", salesHandler.RegisterRoutes)

	// Staging queue and CSV import
	stagingHandler := handler.NewStagingHandler(st, queue)
	r.Route("/staging", stagingHandler.RegisterRoutes)
	r.Get("/import/template", stagingHandler.Template)

	// Reports
	reportsHandler := handler.NewReportsHandler(st)
	r.Route("/reports", reportsHandler.RegisterRoutes)

	// Memos
	memoHandler := handler.NewMemoHandler(st)
	r.Route("/memos", memoHandler.RegisterRoutes)

	// Snapshot export / restore
	snapshotHandler := handler.NewSnapshotHandler(st)
	r.Route("/snapshot", snapshotHandler.RegisterRoutes)

	log.Println("Router initialized with all handlers")
	return r
}
