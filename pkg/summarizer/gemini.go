package summarizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Adda-Baaj/blog-digest/internal/logger"
	"github.com/Adda-Baaj/blog-digest/pkg/httpclient"
)

const (
	DefaultModel       = "gemini-2.5-flash-lite"
	DefaultBaseURL     = "https://generativelanguage.googleapis.com"
	DefaultTemperature = 0.1
	defaultTimeout     = 60 * time.Second
)

// ErrNoCandidates is returned when the backend answers without any text.
var ErrNoCandidates = errors.New("gemini returned no candidates")

// APIError carries the status and payload of a rejected backend call.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("gemini api status %d (%s): %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("gemini api status %d: %s", e.StatusCode, e.Message)
}

// Option configures a Gemini client.
type Option func(*Gemini)

// WithModel sets the model name.
func WithModel(model string) Option {
	return func(g *Gemini) {
		if strings.TrimSpace(model) != "" {
			g.model = strings.TrimSpace(model)
		}
	}
}

// WithBaseURL points the client at another endpoint.
func WithBaseURL(base string) Option {
	return func(g *Gemini) {
		if strings.TrimSpace(base) != "" {
			g.baseURL = strings.TrimRight(strings.TrimSpace(base), "/")
		}
	}
}

// WithTemperature sets the generation temperature.
func WithTemperature(t float64) Option {
	return func(g *Gemini) { g.temperature = t }
}

// WithProfile replaces the prompt profile.
func WithProfile(p Profile) Option {
	return func(g *Gemini) { g.profile = p.withDefaults() }
}

// WithHTTPClient swaps the transport.
func WithHTTPClient(c httpclient.Client) Option {
	return func(g *Gemini) {
		if c != nil {
			g.client = c
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(l logger.Logger) Option {
	return func(g *Gemini) {
		if l != nil {
			g.log = l
		}
	}
}

// Gemini summarizes text through the Generative Language REST API.
type Gemini struct {
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	profile     Profile
	client      httpclient.Client
	log         logger.Logger
}

// NewGemini builds a Gemini summarizer authenticated with apiKey.
func NewGemini(apiKey string, opts ...Option) *Gemini {
	g := &Gemini{
		apiKey:      strings.TrimSpace(apiKey),
		model:       DefaultModel,
		baseURL:     DefaultBaseURL,
		temperature: DefaultTemperature,
		profile:     DefaultProfile(),
		client:      httpclient.NewRestyClient(defaultTimeout),
		log:         logger.NopLogger{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Summarize builds the prompt for req and asks the backend for a summary.
// Backend errors are logged and returned as StatusFailed.
func (g *Gemini) Summarize(ctx context.Context, req Request) Result {
	prompt := BuildPrompt(g.profile, req)

	text, err := g.generate(ctx, prompt)
	if err != nil {
		fields := map[string]any{
			"facet": req.Key(),
			"model": g.model,
			"error": err.Error(),
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			fields["status_code"] = apiErr.StatusCode
		}
		g.log.ErrorObj("gemini summarize failed", "summarize_error", fields)
		return Result{Status: StatusFailed, Err: err}
	}

	res := classify(text)
	g.log.DebugObj("gemini summary generated", "summarize_done", map[string]any{
		"facet":  req.Key(),
		"status": res.Status.String(),
		"words":  len(strings.Fields(res.Text)),
	})
	return res
}

func (g *Gemini) generate(ctx context.Context, prompt string) (string, error) {
	body := generateRequest{
		Contents: []content{{
			Role:  "user",
			Parts: []part{{Text: prompt}},
		}},
		GenerationConfig: &generationConfig{Temperature: g.temperature},
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.baseURL, url.PathEscape(g.model))
	headers := map[string]string{"x-goog-api-key": g.apiKey}

	resp, err := g.client.Do(ctx, "POST", endpoint, headers, body)
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return "", decodeAPIError(resp.StatusCode(), resp.Body())
	}

	var out generateResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", fmt.Errorf("decode gemini response: %w", err)
	}
	return out.text()
}

func decodeAPIError(code int, body []byte) error {
	apiErr := &APIError{StatusCode: code}
	var payload errorResponse
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		apiErr.Status = payload.Error.Status
		apiErr.Message = payload.Error.Message
		return apiErr
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 512 {
		msg = msg[:512] + "..."
	}
	if msg == "" {
		msg = "<empty>"
	}
	apiErr.Message = msg
	return apiErr
}

// Generative Language API wire types.

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

func (r generateResponse) text() (string, error) {
	if len(r.Candidates) == 0 {
		if r.PromptFeedback != nil && r.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("%w: prompt blocked (%s)", ErrNoCandidates, r.PromptFeedback.BlockReason)
		}
		return "", ErrNoCandidates
	}
	var b strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("%w: empty text", ErrNoCandidates)
	}
	return text, nil
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
