// Package inference generates replacement locator candidates from page
// evidence using the Gemini generateContent API.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"locheal/internal/healing"
	"locheal/internal/locator"
	"locheal/internal/logging"
)

// Options configures the Gemini provider.
type Options struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Gemini calls the generateContent endpoint with a response schema so the
// model is constrained to emit exactly one locator candidate.
type Gemini struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client

	mu          sync.Mutex
	lastRequest time.Time

	maxRetries int
	// retryBase is the unit for the 1<<i backoff between rate-limited
	// attempts. Tests shrink it.
	retryBase time.Duration
}

// NewGemini creates a Gemini provider. Zero fields get defaults.
func NewGemini(opts Options) *Gemini {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "gemini-3-flash-preview"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Gemini{
		apiKey:     opts.APIKey,
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: 3,
		retryBase:  time.Second,
	}
}

// Suggest implements healing.Provider.
func (g *Gemini) Suggest(ctx context.Context, req healing.GenerationRequest) (*healing.Candidate, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("API key not configured")
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.httpClient.Timeout)
		defer cancel()
	}

	startTime := time.Now()
	logging.InferenceDebug("[Gemini] Suggest: model=%s locator=%q", g.model, req.Locator)

	// Rate limiting
	g.mu.Lock()
	elapsed := time.Since(g.lastRequest)
	if elapsed < 100*time.Millisecond {
		time.Sleep(100*time.Millisecond - elapsed)
	}
	g.lastRequest = time.Now()
	g.mu.Unlock()

	reqBody := geminiRequest{
		Contents: []geminiContent{
			{
				Role:  "user",
				Parts: []geminiPart{{Text: buildUserPrompt(req)}},
			},
		},
		SystemInstruction: &geminiContent{
			Parts: []geminiPart{{Text: systemPrompt}},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:      0.2,
			MaxOutputTokens:  1024,
			ResponseMimeType: "application/json",
			ResponseSchema:   candidateSchema,
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)

	// Retry loop for rate limits
	var lastErr error
	for i := 0; i <= g.maxRetries; i++ {
		if i > 0 {
			time.Sleep(time.Duration(1<<uint(i-1)) * g.retryBase)
		}

		httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonData))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := g.httpClient.Do(httpReq)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limit exceeded (429)")
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
		}

		cand, err := g.parseCandidate(body)
		if err != nil {
			return nil, err
		}
		logging.Inference("[Gemini] Suggest: %q -> %q (%s, confidence %.0f) in %v",
			req.Locator, cand.Locator, cand.Strategy, cand.Confidence, time.Since(startTime))
		return cand, nil
	}

	logging.InferenceError("[Gemini] Suggest: max retries exceeded after %v: %v", time.Since(startTime), lastErr)
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// parseCandidate decodes the API envelope and the structured completion
// inside it, and validates the candidate's shape.
func (g *Gemini) parseCandidate(body []byte) (*healing.Candidate, error) {
	var apiResp geminiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if apiResp.Error != nil {
		return nil, fmt.Errorf("API error: %s", apiResp.Error.Message)
	}
	if len(apiResp.Candidates) == 0 || len(apiResp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no completion returned")
	}

	var text strings.Builder
	for _, part := range apiResp.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}

	var payload candidatePayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(text.String())), &payload); err != nil {
		return nil, fmt.Errorf("completion is not valid candidate JSON: %w", err)
	}
	if strings.TrimSpace(payload.Locator) == "" {
		return nil, fmt.Errorf("completion has no locator")
	}
	strategy, ok := locator.ParseStrategy(payload.Strategy)
	if !ok {
		return nil, fmt.Errorf("completion has unknown strategy %q", payload.Strategy)
	}

	confidence := payload.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}

	return &healing.Candidate{
		Locator:    strings.TrimSpace(payload.Locator),
		Strategy:   strategy,
		Confidence: confidence,
		Rationale:  payload.Rationale,
	}, nil
}
