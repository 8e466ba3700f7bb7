package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/wagerhub/platform/internal/domain"
	"github.com/wagerhub/platform/internal/service"
)

// MarketHandler handles market creation and read endpoints.
type MarketHandler struct {
	markets *service.MarketService
	odds    *service.OddsService
}

// NewMarketHandler creates a new MarketHandler.
func NewMarketHandler(markets *service.MarketService, odds *service.OddsService) *MarketHandler {
	return &MarketHandler{markets: markets, odds: odds}
}

// Create handles POST /markets.
func (h *MarketHandler) Create(w http.ResponseWriter, r *http.Request) {
	hostID, err := hostIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	var input service.CreateMarketInput
	if err := DecodeJSON(r, &input); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	view, err := h.markets.Create(r.Context(), hostID, input)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusCreated, view)
}

// Get handles GET /markets/{marketID}.
func (h *MarketHandler) Get(w http.ResponseWriter, r *http.Request) {
	marketID, err := marketIDFromURL(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	view, err := h.markets.Get(r.Context(), marketID)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, view)
}

// List handles GET /markets.
func (h *MarketHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	if tournament := r.URL.Query().Get("tournament_id"); tournament != "" {
		tournamentID, err := uuid.Parse(tournament)
		if err != nil {
			RespondError(w, domain.ErrValidation("invalid tournament id"))
			return
		}
		markets, err := h.markets.ListByTournament(r.Context(), tournamentID)
		if err != nil {
			RespondError(w, err)
			return
		}
		RespondJSON(w, http.StatusOK, markets)
		return
	}

	markets, err := h.markets.List(r.Context(), limit)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, markets)
}

// Odds handles GET /markets/{marketID}/odds.
func (h *MarketHandler) Odds(w http.ResponseWriter, r *http.Request) {
	marketID, err := marketIDFromURL(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	quotes, err := h.odds.Quote(r.Context(), marketID)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"market_id": marketID,
		"quotes":    quotes,
	})
}

func marketIDFromURL(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "marketID"))
	if err != nil {
		return uuid.Nil, domain.ErrValidation("invalid market id")
	}
	return id, nil
}
