// Package prediction relays aggregated transaction data to an external
// chat-completion API and returns the model's narrative reply. No forecasting
// happens here: the component shapes the prompt, issues one blocking request
// and classifies failures by upstream status.
package prediction

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"finview/internal/summary"
)

// DefaultModel is the model identifier sent with every prediction request.
const DefaultModel = "google/gemini-2.5-flash"

// apiKeyEnv names the process-wide credential the advisor reads at request
// time. It is a server-held secret and never reaches the calling client.
const apiKeyEnv = "AI_API_KEY"

// ChatCompleter is the slice of the chat-completion client the advisor needs.
// Tests substitute a fake; production uses the go-openai client pointed at
// the configured gateway.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config carries the advisor's upstream settings.
type Config struct {
	// GatewayURL is the base URL of the chat-completion endpoint.
	GatewayURL string

	// Model overrides DefaultModel when set.
	Model string

	// APIKey returns the bearer credential. When nil the advisor reads the
	// AI_API_KEY environment variable on every request.
	APIKey func() string

	// Client overrides the per-request go-openai client. Used by tests.
	Client ChatCompleter
}

// Advisor builds prediction prompts and relays them upstream. It is stateless
// and safe for concurrent use: every invocation is independent, with no
// retries and no caching of prior predictions.
type Advisor struct {
	gatewayURL string
	model      string
	apiKey     func() string
	client     ChatCompleter
	log        zerolog.Logger
}

// NewAdvisor creates an advisor from cfg.
func NewAdvisor(cfg Config, log zerolog.Logger) *Advisor {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	apiKey := cfg.APIKey
	if apiKey == nil {
		apiKey = func() string { return os.Getenv(apiKeyEnv) }
	}
	return &Advisor{
		gatewayURL: cfg.GatewayURL,
		model:      model,
		apiKey:     apiKey,
		client:     cfg.Client,
		log:        log,
	}
}

// Predict aggregates records, sends the system and user turns upstream and
// returns the first choice's message text.
//
// An empty record list returns ErrNoData without any network call. Upstream
// 429 and 402 map to ErrRateLimited and ErrPaymentRequired; other non-2xx
// statuses are logged and map to ErrUpstream. Everything else (missing
// credential, network failure, malformed response) is returned as-is.
func (a *Advisor) Predict(ctx context.Context, records []summary.Record) (string, error) {
	if len(records) == 0 {
		return "", ErrNoData
	}

	agg := summary.Aggregate(records)
	userPrompt := buildUserPrompt(agg, len(records))

	client := a.client
	if client == nil {
		key := a.apiKey()
		if key == "" {
			return "", fmt.Errorf("%s is not configured", apiKeyEnv)
		}
		cc := openai.DefaultConfig(key)
		if a.gatewayURL != "" {
			cc.BaseURL = a.gatewayURL
		}
		client = openai.NewClientWithConfig(cc)
	}

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		if status, body, ok := upstreamStatus(err); ok {
			switch status {
			case http.StatusTooManyRequests:
				return "", ErrRateLimited
			case http.StatusPaymentRequired:
				return "", ErrPaymentRequired
			default:
				a.log.Error().Int("status", status).Str("body", body).Msg("AI gateway error")
				return "", ErrUpstream
			}
		}
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from model")
	}
	return resp.Choices[0].Message.Content, nil
}

// upstreamStatus extracts the HTTP status and error body from a go-openai
// error, for both parsed API errors and raw request errors.
func upstreamStatus(err error) (int, string, bool) {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return apiErr.HTTPStatusCode, apiErr.Message, true
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return reqErr.HTTPStatusCode, string(reqErr.Body), true
	}
	return 0, "", false
}
