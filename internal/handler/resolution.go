package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/wagerhub/platform/internal/domain"
	"github.com/wagerhub/platform/internal/resolution"
)

// ResolutionHandler handles market lifecycle and resolution endpoints.
type ResolutionHandler struct {
	svc *resolution.Service
}

// NewResolutionHandler creates a new ResolutionHandler.
func NewResolutionHandler(svc *resolution.Service) *ResolutionHandler {
	return &ResolutionHandler{svc: svc}
}

// Pause handles POST /markets/{marketID}/pause.
func (h *ResolutionHandler) Pause(w http.ResponseWriter, r *http.Request) {
	hostID, marketID, err := hostAndMarket(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	var input struct {
		Reason string `json:"reason"`
	}
	// Body is optional for pause.
	DecodeJSON(r, &input)

	if err := h.svc.Pause(r.Context(), hostID, marketID, input.Reason); err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]string{"status": "paused"})
}

// Resume handles POST /markets/{marketID}/resume.
func (h *ResolutionHandler) Resume(w http.ResponseWriter, r *http.Request) {
	hostID, marketID, err := hostAndMarket(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	if err := h.svc.Resume(r.Context(), hostID, marketID); err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]string{"status": "open"})
}

// Propose handles POST /markets/{marketID}/propose. The winner comes from
// the external verifier, not the request body.
func (h *ResolutionHandler) Propose(w http.ResponseWriter, r *http.Request) {
	marketID, err := marketIDFromURL(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	winner, err := h.svc.Propose(r.Context(), marketID)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "proposed",
		"proposed_winner": winner,
	})
}

// Approve handles POST /markets/{marketID}/approve.
func (h *ResolutionHandler) Approve(w http.ResponseWriter, r *http.Request) {
	hostID, marketID, err := hostAndMarket(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	if err := h.svc.Approve(r.Context(), hostID, marketID); err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]string{"status": "settled"})
}

// Reject handles POST /markets/{marketID}/reject.
func (h *ResolutionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	hostID, marketID, err := hostAndMarket(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	if err := h.svc.Reject(r.Context(), hostID, marketID); err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]string{"status": "open"})
}

// Resolve handles POST /markets/{marketID}/resolve.
func (h *ResolutionHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	hostID, marketID, err := hostAndMarket(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	var input struct {
		WinningOutcomeID uuid.UUID `json:"winning_outcome_id"`
	}
	if err := DecodeJSON(r, &input); err != nil || input.WinningOutcomeID == uuid.Nil {
		RespondError(w, domain.ErrValidation("winning_outcome_id is required"))
		return
	}

	if err := h.svc.ResolveManual(r.Context(), hostID, marketID, input.WinningOutcomeID); err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]string{"status": "settled"})
}

// CancelTournament handles POST /tournaments/{tournamentID}/cancel.
func (h *ResolutionHandler) CancelTournament(w http.ResponseWriter, r *http.Request) {
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

	cancelled, err := h.svc.CancelTournament(r.Context(), hostID, tournamentID)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"cancelled_markets": cancelled,
	})
}

func hostAndMarket(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	hostID, err := hostIDFromContext(r)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	marketID, err := marketIDFromURL(r)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return hostID, marketID, nil
}
