package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/wagerhub/platform/internal/domain"
	"github.com/wagerhub/platform/internal/settlement"
)

// SettlementHandler handles payout settlement endpoints.
type SettlementHandler struct {
	engine *settlement.Engine
}

// NewSettlementHandler creates a new SettlementHandler.
func NewSettlementHandler(engine *settlement.Engine) *SettlementHandler {
	return &SettlementHandler{engine: engine}
}

type settleRequest struct {
	WinningOutcomeID uuid.UUID `json:"winning_outcome_id"`
	ActualScore      *float64  `json:"actual_score,omitempty"`
}

func (req settleRequest) data() *domain.SettlementData {
	if req.ActualScore == nil {
		return nil
	}
	return &domain.SettlementData{ActualScore: req.ActualScore}
}

// Settle handles POST /markets/{marketID}/settle.
func (h *SettlementHandler) Settle(w http.ResponseWriter, r *http.Request) {
	hostID, marketID, err := hostAndMarket(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	var req settleRequest
	if err := DecodeJSON(r, &req); err != nil || req.WinningOutcomeID == uuid.Nil {
		RespondError(w, domain.ErrValidation("winning_outcome_id is required"))
		return
	}

	result, err := h.engine.Settle(r.Context(), hostID, marketID, req.WinningOutcomeID, req.data())
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, result)
}

// Preview handles POST /markets/{marketID}/settle/preview. Computes payouts
// without committing anything.
func (h *SettlementHandler) Preview(w http.ResponseWriter, r *http.Request) {
	marketID, err := marketIDFromURL(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	var req settleRequest
	if err := DecodeJSON(r, &req); err != nil || req.WinningOutcomeID == uuid.Nil {
		RespondError(w, domain.ErrValidation("winning_outcome_id is required"))
		return
	}

	plan, err := h.engine.Preview(r.Context(), marketID, req.WinningOutcomeID, req.data())
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, plan)
}

// SettleTournament handles POST /tournaments/{tournamentID}/settle.
func (h *SettlementHandler) SettleTournament(w http.ResponseWriter, r *http.Request) {
	hostID, err := hostIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}
	tournamentID, err := uuid.Parse(chi.URLParam(r, "tournamentID"))
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid tournament id"))
		return
	}

	report, err := h.engine.SettleTournament(r.Context(), hostID, tournamentID)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"tournament_id": tournamentID,
		"markets":       report,
	})
}
