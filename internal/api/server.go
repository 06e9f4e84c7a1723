// Package api provides the HTTP server for the journal frontend.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/journal-desktop/journal-backend/internal/auth"
	"github.com/journal-desktop/journal-backend/internal/config"
	"github.com/journal-desktop/journal-backend/internal/journal"
	"github.com/journal-desktop/journal-backend/internal/news"
	"github.com/journal-desktop/journal-backend/internal/push"
	"github.com/journal-desktop/journal-backend/internal/tax"
)

// Server is the journal HTTP API server.
type Server struct {
	logger     *zap.Logger
	config     config.ServerConfig
	router     *mux.Router
	httpServer *http.Server

	sessions *auth.Manager
	journal  *journal.Service
	push     *push.Service
	tax      *tax.Estimator
	news     *news.Aggregator
}

// NewServer wires the services into routes. The caller starts and stops it.
func NewServer(
	logger *zap.Logger,
	cfg config.ServerConfig,
	sessions *auth.Manager,
	journalSvc *journal.Service,
	pushSvc *push.Service,
	taxEst *tax.Estimator,
	newsAgg *news.Aggregator,
) *Server {
	s := &Server{
		logger:   logger,
		config:   cfg,
		router:   mux.NewRouter(),
		sessions: sessions,
		journal:  journalSvc,
		push:     pushSvc,
		tax:      taxEst,
		news:     newsAgg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestLogging, s.requestMetrics)

	s.router.HandleFunc("/api/v1/health", s.handleHealth).Methods("GET")

	// Auth
	s.router.HandleFunc("/api/v1/auth/register", s.handleRegister).Methods("POST")
	s.router.HandleFunc("/api/v1/auth/login", s.handleLogin).Methods("POST")
	s.router.HandleFunc("/api/v1/auth/logout", s.handleLogout).Methods("POST")

	// The VAPID public key is needed before a browser can subscribe, and it
	// is public by definition.
	s.router.HandleFunc("/api/v1/push/vapid-key", s.handleVAPIDKey).Methods("GET")

	// Everything below requires a session.
	authed := s.router.PathPrefix("/api/v1").Subrouter()
	authed.Use(s.requireSession)

	authed.HandleFunc("/trades", s.handleListTrades).Methods("GET")
	authed.HandleFunc("/trades", s.handleCreateTrade).Methods("POST")
	authed.HandleFunc("/trades/{id}", s.handleUpdateTrade).Methods("PUT")
	authed.HandleFunc("/trades/{id}", s.handleDeleteTrade).Methods("DELETE")

	authed.HandleFunc("/withdrawals", s.handleListWithdrawals).Methods("GET")
	authed.HandleFunc("/withdrawals", s.handleCreateWithdrawal).Methods("POST")
	authed.HandleFunc("/withdrawals/{id}", s.handleUpdateWithdrawal).Methods("PUT")
	authed.HandleFunc("/withdrawals/{id}", s.handleDeleteWithdrawal).Methods("DELETE")

	authed.HandleFunc("/stats", s.handleStats).Methods("GET")
	authed.HandleFunc("/insights", s.handleInsights).Methods("GET")
	authed.HandleFunc("/tax/estimate", s.handleTaxEstimate).Methods("GET")

	authed.HandleFunc("/push/subscribe", s.handlePushSubscribe).Methods("POST")
	authed.HandleFunc("/push/unsubscribe", s.handlePushUnsubscribe).Methods("POST")

	authed.HandleFunc("/news", s.handleNews).Methods("GET")
}

// Router exposes the route tree for tests.
func (s *Server) Router() http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   s.config.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(s.router)
}

// Start runs the HTTP server until it fails or is shut down.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         s.config.ListenAddr,
		Handler:      s.Router(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	s.logger.Info("starting API server", zap.String("addr", s.config.ListenAddr))
	return s.httpServer.ListenAndServe()
}

// Stop gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("response encode failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
