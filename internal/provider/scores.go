package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ScoreSource returns the final numeric score of an external match, used to
// settle score-prediction markets when the host does not supply one.
type ScoreSource interface {
	FinalScore(ctx context.Context, matchRef string) (float64, error)
}

// HTTPScoreSource fetches final scores from the stats service.
type HTTPScoreSource struct {
	baseURL string
	client  *http.Client
}

// NewHTTPScoreSource creates a score source client against baseURL.
func NewHTTPScoreSource(baseURL string, timeout time.Duration) *HTTPScoreSource {
	return &HTTPScoreSource{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *HTTPScoreSource) FinalScore(ctx context.Context, matchRef string) (float64, error) {
	url := fmt.Sprintf("%s/v1/matches/%s/score", s.baseURL, matchRef)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build score request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch final score: %w", err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("score source returned status %d", resp.StatusCode)
	}

	var body struct {
		Final      bool    `json:"final"`
		FinalScore float64 `json:"final_score"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode score response: %w", err)
	}
	if !body.Final {
		return 0, fmt.Errorf("match %s has no final score yet", matchRef)
	}
	return body.FinalScore, nil
}
