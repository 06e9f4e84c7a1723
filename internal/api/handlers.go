package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/journal-desktop/journal-backend/internal/analytics"
	"github.com/journal-desktop/journal-backend/internal/auth"
	"github.com/journal-desktop/journal-backend/internal/journal"
	"github.com/journal-desktop/journal-backend/pkg/types"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		s.writeError(w, http.StatusBadRequest, "username and password required")
		return
	}
	user, err := s.sessions.Register(r.Context(), req.Username, req.Password)
	if errors.Is(err, auth.ErrUserExists) {
		s.writeError(w, http.StatusConflict, "username already taken")
		return
	}
	if err != nil {
		s.internalError(w, "register", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	session, err := s.sessions.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		s.writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		s.internalError(w, "login", err)
		return
	}
	s.writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := bearerToken(r); token != "" {
		s.sessions.Logout(token)
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// tradeRequest is a trade plus the unit its position size was entered in.
type tradeRequest struct {
	types.Trade
	SizeUnit journal.SizeUnit `json:"sizeUnit,omitempty"`
}

func (s *Server) handleListTrades(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	trades, err := s.journal.ListTrades(r.Context(), session.Username)
	if err != nil {
		s.internalError(w, "list trades", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"trades": trades,
		"count":  len(trades),
	})
}

func (s *Server) handleCreateTrade(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	created, err := s.journal.CreateTrade(r.Context(), session.Username, req.Trade, req.SizeUnit)
	if err != nil {
		s.journalError(w, "create trade", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateTrade(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Trade.ID = mux.Vars(r)["id"]
	updated, err := s.journal.UpdateTrade(r.Context(), session.Username, req.Trade, req.SizeUnit)
	if err != nil {
		s.journalError(w, "update trade", err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTrade(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	if err := s.journal.DeleteTrade(r.Context(), session.Username, mux.Vars(r)["id"]); err != nil {
		s.journalError(w, "delete trade", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleListWithdrawals(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	withdrawals, err := s.journal.ListWithdrawals(r.Context(), session.Username)
	if err != nil {
		s.internalError(w, "list withdrawals", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"withdrawals": withdrawals,
		"count":       len(withdrawals),
	})
}

func (s *Server) handleCreateWithdrawal(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	var req types.Withdrawal
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	created, err := s.journal.CreateWithdrawal(r.Context(), session.Username, req)
	if err != nil {
		s.journalError(w, "create withdrawal", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateWithdrawal(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	var req types.Withdrawal
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.ID = mux.Vars(r)["id"]
	updated, err := s.journal.UpdateWithdrawal(r.Context(), session.Username, req)
	if err != nil {
		s.journalError(w, "update withdrawal", err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteWithdrawal(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	if err := s.journal.DeleteWithdrawal(r.Context(), session.Username, mux.Vars(r)["id"]); err != nil {
		s.journalError(w, "delete withdrawal", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// statsResponse bundles the dashboard aggregates into one round trip.
type statsResponse struct {
	Summary      analytics.Summary      `json:"summary"`
	ByStrategy   []analytics.GroupStat  `json:"byStrategy"`
	ByTimeFrame  []analytics.GroupStat  `json:"byTimeFrame"`
	ByDirection  []analytics.GroupStat  `json:"byDirection"`
	ByPattern    []analytics.GroupStat  `json:"byPattern"`
	BestStrategy *analytics.GroupStat   `json:"bestStrategy,omitempty"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	trades, err := s.journal.ListTrades(r.Context(), session.Username)
	if err != nil {
		s.internalError(w, "stats", err)
		return
	}
	resp := statsResponse{
		Summary:     analytics.Summarize(trades),
		ByStrategy:  analytics.GroupByStrategy(trades),
		ByTimeFrame: analytics.GroupByTimeFrame(trades),
		ByDirection: analytics.GroupByDirection(trades),
		ByPattern:   analytics.GroupByPattern(trades),
	}
	if best, ok := analytics.BestStrategy(trades); ok {
		resp.BestStrategy = &best
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	trades, err := s.journal.ListTrades(r.Context(), session.Username)
	if err != nil {
		s.internalError(w, "insights", err)
		return
	}
	s.writeJSON(w, http.StatusOK, analytics.Analyze(trades))
}

func (s *Server) handleTaxEstimate(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	withdrawals, err := s.journal.ListWithdrawals(r.Context(), session.Username)
	if err != nil {
		s.internalError(w, "tax estimate", err)
		return
	}
	year := r.URL.Query().Get("year")
	s.writeJSON(w, http.StatusOK, s.tax.Estimate(withdrawals, year))
}

func (s *Server) handleVAPIDKey(w http.ResponseWriter, r *http.Request) {
	key := s.push.VAPIDPublicKey()
	if key == "" {
		s.writeError(w, http.StatusServiceUnavailable, "push not configured")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"publicKey": key})
}

func (s *Server) handlePushSubscribe(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	var sub types.Subscription
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sub.Username = session.Username
	sub.UserID = session.UserID
	if err := s.push.Subscribe(r.Context(), sub); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"status": "subscribed"})
}

func (s *Server) handlePushUnsubscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Endpoint string `json:"endpoint"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Endpoint == "" {
		s.writeError(w, http.StatusBadRequest, "endpoint required")
		return
	}
	if err := s.push.Unsubscribe(r.Context(), req.Endpoint); err != nil {
		s.internalError(w, "unsubscribe", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "unsubscribed"})
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	items := s.news.Headlines(r.Context())
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
		"count": len(items),
	})
}

// journalError maps service errors to HTTP statuses.
func (s *Server) journalError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, journal.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "record not found")
	case errors.Is(err, journal.ErrOwnership):
		s.writeError(w, http.StatusForbidden, "record owned by another user")
	case errors.Is(err, journal.ErrInvalidDirection), errors.Is(err, journal.ErrInvalidAmount):
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.internalError(w, op, err)
	}
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	s.logger.Error(op+" failed", zap.Error(err))
	s.writeError(w, http.StatusInternalServerError, "internal error")
}
