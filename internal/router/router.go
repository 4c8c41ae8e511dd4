package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/silid-lounge/api/internal/cache"
	"github.com/silid-lounge/api/internal/config"
	"github.com/silid-lounge/api/internal/database"
	"github.com/silid-lounge/api/internal/handler"
	mw "github.com/silid-lounge/api/internal/middleware"
	"github.com/silid-lounge/api/internal/notify"
	"github.com/silid-lounge/api/internal/service"
	"github.com/silid-lounge/api/internal/storage"
	"github.com/silid-lounge/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub, reportCache *cache.ReportCache, photos *storage.PhotoStore, notifications *notify.Store) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173",          // SvelteKit dev server
			"https://pos.silidlounge.com",    // Production counter app
			"https://staff.silidlounge.com",  // Staff tablets
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`)) //nolint:errcheck
	})

	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	events := &handler.Events{Hub: hub, Cache: reportCache}

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		sessionService := service.NewSessionService(pool, func(db database.DBTX) service.CancelStore {
			return database.New(db)
		})
		sessionsHandler := handler.NewSessionsHandler(queries, sessionService, events)
		r.Route("/sessions", sessionsHandler.RegisterRoutes)

		addonService := service.NewAddonService(pool, func(db database.DBTX) service.CheckoutStore {
			return database.New(db)
		})
		addonsHandler := handler.NewAddonsHandler(queries, addonService, nil, events)
		r.Route("/addons", addonsHandler.RegisterRoutes)

		bookingsHandler := handler.NewBookingsHandler(queries, events)
		r.Route("/bookings", bookingsHandler.RegisterRoutes)

		seatsHandler := handler.NewSeatsHandler(queries, events)
		r.Route("/seats", seatsHandler.RegisterRoutes)

		consignmentService := service.NewConsignmentService(pool, func(db database.DBTX) service.StockStore {
			return database.New(db)
		})
		consignmentHandler := handler.NewConsignmentHandler(queries, consignmentService, photos, events)
		r.Route("/consignment", consignmentHandler.RegisterRoutes)

		lossesHandler := handler.NewLossesHandler(queries, events)
		r.Route("/losses", lossesHandler.RegisterRoutes)

		notificationsHandler := handler.NewNotificationsHandler(notifications)
		r.Route("/notifications", notificationsHandler.RegisterRoutes)

		reportService := service.NewReportService(queries, pool, func(db database.DBTX) service.ReportTxStore {
			return database.New(db)
		}, nil)
		reportsHandler := handler.NewReportsHandler(reportService, reportCache)
		r.Route("/reports", func(r chi.Router) {
			r.Get("/daily", reportsHandler.Daily)

			// Balances and submission stay behind the admin role.
			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole("ADMIN"))
				r.Put("/daily", reportsHandler.SetBalances)
				r.Put("/daily/denominations", reportsHandler.SetDenominations)
				r.Post("/daily/submit", reportsHandler.Submit)
			})
		})
	})

	return r
}
