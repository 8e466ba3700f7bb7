package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/wagerhub/platform/internal/auth"
	"github.com/wagerhub/platform/internal/domain"
	"github.com/wagerhub/platform/internal/service"
)

// BetHandler handles bet placement and lookup endpoints.
type BetHandler struct {
	intake *service.BetIntakeService
}

// NewBetHandler creates a new BetHandler.
func NewBetHandler(intake *service.BetIntakeService) *BetHandler {
	return &BetHandler{intake: intake}
}

// Place handles POST /markets/{marketID}/bets.
func (h *BetHandler) Place(w http.ResponseWriter, r *http.Request) {
	playerID, err := playerIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}
	marketID, err := marketIDFromURL(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	var input service.PlaceBetInput
	if err := DecodeJSON(r, &input); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}
	input.MarketID = marketID
	input.PlayerID = playerID
	input.IdempotencyKey = r.Header.Get("Idempotency-Key")

	bet, err := h.intake.PlaceBet(r.Context(), input)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusCreated, bet)
}

// MyBets handles GET /bets/me.
func (h *BetHandler) MyBets(w http.ResponseWriter, r *http.Request) {
	playerID, err := playerIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	bets, err := h.intake.ListPlayerBets(r.Context(), playerID, limit)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, bets)
}

// ByBookingCode handles GET /bets/code/{bookingCode}.
func (h *BetHandler) ByBookingCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "bookingCode")
	if code == "" {
		RespondError(w, domain.ErrValidation("booking code is required"))
		return
	}

	bet, err := h.intake.FindByBookingCode(r.Context(), code)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, bet)
}

func playerIDFromContext(r *http.Request) (uuid.UUID, error) {
	return subjectFromContext(r)
}

func hostIDFromContext(r *http.Request) (uuid.UUID, error) {
	return subjectFromContext(r)
}

func subjectFromContext(r *http.Request) (uuid.UUID, error) {
	sub := auth.SubjectFromContext(r.Context())
	if sub == "" {
		return uuid.Nil, domain.ErrUnauthorized("no subject in context")
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, domain.ErrUnauthorized("invalid subject")
	}
	return id, nil
}
