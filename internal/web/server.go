package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/patrickmn/go-cache"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/nfhs-dash/internal/etl"
	"github.com/nfhs-dash/internal/web/handlers"
	"github.com/nfhs-dash/internal/web/middleware"
)

// Server represents the web server
type Server struct {
	config     Config
	store      *etl.Store
	cache      *cache.Cache
	logger     *zap.Logger
	httpServer *http.Server
	router     *mux.Router
}

// NewServer creates a new web server instance
func NewServer(config Config, store *etl.Store, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	server := &Server{
		config: config,
		store:  store,
		cache:  cache.New(config.Cache.TTL, config.Cache.Cleanup),
		logger: logger,
	}

	// views of a replaced snapshot are never requested again
	store.OnSwap(func(*etl.Snapshot) { server.cache.Flush() })

	server.setupRoutes()

	server.httpServer = &http.Server{
		Addr:         config.Addr(),
		Handler:      server.Handler(),
		ReadTimeout:  config.Server.ReadTimeout,
		WriteTimeout: config.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return server
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()

	// Convert config for handlers (to avoid import cycle)
	handlerConfig := &handlers.Config{}
	handlerConfig.Features.RefreshEnabled = s.config.Features.RefreshEnabled
	handlerConfig.Features.ManualOverrideEnabled = s.config.Features.ManualOverrideEnabled

	apiHandler := &handlers.APIHandler{Store: s.store, Config: handlerConfig}
	recordsHandler := &handlers.RecordsHandler{Store: s.store}
	mapsHandler := &handlers.MapsHandler{Store: s.store, Cache: s.cache}
	adminHandler := &handlers.AdminHandler{Store: s.store, Config: handlerConfig, Logger: s.logger.Named("admin")}

	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", apiHandler.Health).Methods("GET")
	api.HandleFunc("/snapshot", apiHandler.GetSnapshot).Methods("GET")
	api.HandleFunc("/options/scopes", apiHandler.GetScopes).Methods("GET")
	api.HandleFunc("/options/indicators", apiHandler.GetIndicators).Methods("GET")

	// Reports
	api.HandleFunc("/reconciliation", recordsHandler.GetReconciliation).Methods("GET")
	api.HandleFunc("/rejections", recordsHandler.GetRejections).Methods("GET")

	// Views
	api.HandleFunc("/views/map", mapsHandler.GetMap).Methods("GET")
	api.HandleFunc("/views/scatter", mapsHandler.GetScatter).Methods("GET")
	api.HandleFunc("/views/trend", mapsHandler.GetTrend).Methods("GET")
	api.HandleFunc("/views/equity", mapsHandler.GetEquity).Methods("GET")

	// Rebuild endpoints (if features enabled)
	auth := middleware.Authentication(s.config.Auth.Token)
	if s.config.Features.RefreshEnabled {
		api.Handle("/refresh", auth(http.HandlerFunc(adminHandler.TriggerRefresh))).Methods("POST")
	}
	if s.config.Features.ManualOverrideEnabled {
		api.Handle("/overrides", auth(http.HandlerFunc(adminHandler.ApplyOverrides))).Methods("POST")
	}

	s.router.Use(middleware.Recovery(s.logger))
	s.router.Use(middleware.RequestLogging(s.logger.Named("http")))
}

// Handler returns the router wrapped in the CORS policy
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.config.CORS.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Origin", "X-API-Key"},
		MaxAge:         86400,
	})
	return c.Handler(s.router)
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	<-errCh

	s.logger.Info("server stopped")
	return nil
}
