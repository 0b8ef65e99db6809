package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dmuriuki/soko/internal/domain"
)

type recommendationRequest struct {
	UserID      string             `json:"user_id"`
	RiskProfile domain.RiskProfile `json:"risk_profile"`
	Portfolio   domain.Portfolio   `json:"portfolio"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"time":       time.Now().UTC(),
		"refreshing": s.refresher.Active(),
	})
}

func (s *Server) handleQuotes(w http.ResponseWriter, r *http.Request) {
	quotes, err := s.market.Quotes(r.Context())
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, quotes)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.market.Summary(r.Context())
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleGainers(w http.ResponseWriter, r *http.Request) {
	gainers, err := s.market.Gainers(r.Context())
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, gainers)
}

func (s *Server) handleLosers(w http.ResponseWriter, r *http.Request) {
	losers, err := s.market.Losers(r.Context())
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, losers)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	index, err := s.market.Index(r.Context())
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, index)
}

func (s *Server) handleRisk(w http.ResponseWriter, r *http.Request) {
	var portfolio domain.Portfolio
	if err := json.NewDecoder(r.Body).Decode(&portfolio); err != nil {
		s.badRequest(w, "invalid portfolio payload")
		return
	}

	s.writeJSON(w, http.StatusOK, s.facade.AnalyzeRisk(r.Context(), portfolio, nil))
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	var req recommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, "invalid recommendation payload")
		return
	}
	if req.RiskProfile == "" {
		req.RiskProfile = domain.ProfileModerate
	}

	advice := s.facade.Recommend(r.Context(), req.UserID, req.RiskProfile, req.Portfolio, nil)
	s.writeJSON(w, http.StatusOK, advice)
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	var portfolio domain.Portfolio
	if err := json.NewDecoder(r.Body).Decode(&portfolio); err != nil {
		s.badRequest(w, "invalid portfolio payload")
		return
	}

	s.writeJSON(w, http.StatusOK, s.facade.Alerts(r.Context(), portfolio))
}

func (s *Server) handleModelPerformance(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.facade.ModelPerformance())
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.refresher.Pause()
	s.writeJSON(w, http.StatusOK, map[string]bool{"active": s.refresher.Active()})
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	s.refresher.Resume()
	s.writeJSON(w, http.StatusOK, map[string]bool{"active": s.refresher.Active()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (s *Server) badRequest(w http.ResponseWriter, msg string) {
	s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

func (s *Server) serviceError(w http.ResponseWriter, err error) {
	s.log.Error().Err(err).Msg("Service call failed")
	s.writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
}
