package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// VerifyResult is the verifier's answer for a finished match.
type VerifyResult struct {
	Verified       bool     `json:"verified"`
	WinnerLabel    string   `json:"winner_label"`
	FinalStandings []string `json:"final_standings,omitempty"`
}

// ResultVerifier resolves the ground-truth result of an external match.
// Unverified results never advance a market's resolution state.
type ResultVerifier interface {
	Verify(ctx context.Context, matchRef string) (*VerifyResult, error)
}

// HTTPResultVerifier queries the verification service over HTTP with a
// small bounded retry for transient failures.
type HTTPResultVerifier struct {
	baseURL string
	client  *http.Client
	retries int
}

// NewHTTPResultVerifier creates a verifier client against baseURL.
func NewHTTPResultVerifier(baseURL string, timeout time.Duration) *HTTPResultVerifier {
	return &HTTPResultVerifier{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		retries: 2,
	}
}

func (v *HTTPResultVerifier) Verify(ctx context.Context, matchRef string) (*VerifyResult, error) {
	url := fmt.Sprintf("%s/v1/matches/%s/result", v.baseURL, matchRef)

	var lastErr error
	for attempt := 0; attempt <= v.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}

		result, retriable, err := v.fetch(ctx, url)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !retriable {
			break
		}
	}
	return nil, fmt.Errorf("verify match %s: %w", matchRef, lastErr)
}

func (v *HTTPResultVerifier) fetch(ctx context.Context, url string) (*VerifyResult, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("build verifier request: %w", err)
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		// 4xx will not improve on retry.
		retriable := resp.StatusCode >= 500
		return nil, retriable, fmt.Errorf("verifier returned status %d", resp.StatusCode)
	}

	var result VerifyResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, false, fmt.Errorf("decode verifier response: %w", err)
	}
	return &result, false, nil
}
