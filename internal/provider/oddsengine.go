package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// OddsEngine prices outcomes through an external model. Callers treat it as
// advisory: on failure they fall back to weight-derived odds.
type OddsEngine interface {
	QuoteOdds(ctx context.Context, marketID uuid.UUID, outcomes []OddsRequestOutcome) (map[uuid.UUID]float64, error)
}

// OddsRequestOutcome is one outcome sent to the pricing model.
type OddsRequestOutcome struct {
	OutcomeID      uuid.UUID `json:"outcome_id"`
	Label          string    `json:"label"`
	Weight         float64   `json:"weight"`
	TotalBetsMinor int64     `json:"total_bets_minor"`
}

// HTTPOddsEngine calls the external pricing service.
type HTTPOddsEngine struct {
	baseURL string
	client  *http.Client
}

// NewHTTPOddsEngine creates a pricing client against baseURL.
func NewHTTPOddsEngine(baseURL string, timeout time.Duration) *HTTPOddsEngine {
	return &HTTPOddsEngine{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (e *HTTPOddsEngine) QuoteOdds(ctx context.Context, marketID uuid.UUID, outcomes []OddsRequestOutcome) (map[uuid.UUID]float64, error) {
	reqBody, err := json.Marshal(map[string]interface{}{
		"market_id": marketID.String(),
		"outcomes":  outcomes,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal odds request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/quote", e.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("build odds request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quote odds: %w", err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("odds engine returned status %d", resp.StatusCode)
	}

	var body struct {
		Quotes []struct {
			OutcomeID uuid.UUID `json:"outcome_id"`
			Odds      float64   `json:"odds"`
		} `json:"quotes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode odds response: %w", err)
	}

	quotes := make(map[uuid.UUID]float64, len(body.Quotes))
	for _, q := range body.Quotes {
		quotes[q.OutcomeID] = q.Odds
	}
	return quotes, nil
}
