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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/DiomarGoncalves/ElectraVolt/internal/config"
	"github.com/DiomarGoncalves/ElectraVolt/internal/db"
	"github.com/DiomarGoncalves/ElectraVolt/internal/logger"
	"github.com/DiomarGoncalves/ElectraVolt/internal/metrics"
	"github.com/DiomarGoncalves/ElectraVolt/internal/migrations"
	"github.com/DiomarGoncalves/ElectraVolt/internal/production"
	"github.com/DiomarGoncalves/ElectraVolt/internal/sales"
	"github.com/DiomarGoncalves/ElectraVolt/internal/seed"
	"github.com/DiomarGoncalves/ElectraVolt/internal/store"
)

// costRecorder counts cost resolutions served by the API.
type costRecorder interface {
	CostResolved(kind string, unresolved int)
}

type server struct {
	auth    *authService
	store   *store.Store
	ledger  *production.Ledger
	sales   *sales.Ledger
	costs   costRecorder
	log     *slog.Logger
	metrics http.Handler
}

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env, cfg.LogLevel)
	for _, w := range cfg.Warnings() {
		log.Warn("configuration incomplete", "detail", w)
	}

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	if cfg.IsDev() {
		version, err := migrations.Up(ctx, database, cfg.MigrationsDir)
		if err != nil {
			return err
		}
		log.Info("database migrated", "version", version)
	}

	stats, err := seed.Run(ctx, database, seed.Config{
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
		Demo:          cfg.IsDev() && cfg.SeedDemo,
	})
	if err != nil {
		return err
	}
	log.Info("seed applied", "inserts", stats.Inserts, "updates", stats.Updates)

	m := metrics.New()
	st := store.New(database)
	srv := &server{
		auth:   newAuthService(database, cfg.SessionSecret),
		store:  st,
		ledger: production.NewLedger(st, log, production.WithRecorder(m)),
		sales:  sales.NewLedger(st, log, sales.WithRecorder(m)),
		costs:  m,
		log:    log,
	}
	if cfg.MetricsEnabled {
		srv.metrics = m.Handler()
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", httpServer.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("shutting down")
	return httpServer.Shutdown(shutdownCtx)
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.requireSession)

		r.Route("/suppliers", func(r chi.Router) {
			r.Get("/", s.handleSuppliersList)
			r.Post("/", s.handleSupplierCreate)
			r.Get("/{id}", s.handleSupplierGet)
			r.Put("/{id}", s.handleSupplierUpdate)
			r.Delete("/{id}", s.handleSupplierDelete)
		})

		r.Route("/materials", func(r chi.Router) {
			r.Get("/", s.handleMaterialsList)
			r.Post("/", s.handleMaterialCreate)
			r.Get("/low-stock", s.handleMaterialsLowStock)
			r.Get("/{id}", s.handleMaterialGet)
			r.Put("/{id}", s.handleMaterialUpdate)
			r.Delete("/{id}", s.handleMaterialDelete)
			r.Get("/{id}/quotes", s.handleMaterialQuotes)
		})

		r.Route("/prices", func(r chi.Router) {
			r.Get("/", s.handlePricesList)
			r.Put("/", s.handlePriceUpsert)
			r.Delete("/{materialID}/{supplierID}", s.handlePriceDelete)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", s.handleProductsList)
			r.Post("/", s.handleProductCreate)
			r.Get("/{id}", s.handleProductGet)
			r.Put("/{id}", s.handleProductUpdate)
			r.Delete("/{id}", s.handleProductDelete)
			r.Get("/{id}/cost", s.handleProductCost)
			r.Get("/{id}/optimize", s.handleProductOptimize)
			r.Post("/{id}/optimize", s.handleProductOptimize)
			r.Post("/{id}/simulate", s.handleProductSimulate)
			r.Get("/{id}/capacity", s.handleProductCapacity)
		})

		r.Route("/production", func(r chi.Router) {
			r.Get("/", s.handleRunsList)
			r.Post("/", s.handleRunCreate)
			r.Get("/{id}", s.handleRunGet)
			r.Put("/{id}/status", s.handleRunStatus)
		})

		r.Route("/sales", func(r chi.Router) {
			r.Get("/", s.handleSalesList)
			r.Post("/", s.handleSaleCreate)
			r.Get("/{id}", s.handleSaleGet)
		})

		r.Get("/dashboard", s.handleDashboard)
	})

	return r
}

// requestLogger logs one line per request with the chi request id.
func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.log.InfoContext(r.Context(), "http request",
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}
