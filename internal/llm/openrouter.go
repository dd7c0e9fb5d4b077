package llm

import (
	"alcyxob/bmi-coach/internal/config"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

// Default request timeout for provider calls.
const DefaultRequestTimeout = 45 * time.Second

// openRouterGateway implements the Gateway interface against an
// OpenAI-compatible chat-completions endpoint (OpenRouter by default).
type openRouterGateway struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	model      string
	appURL     string
	appTitle   string
}

// NewOpenRouterGateway creates a new Gateway instance from configuration.
// A missing API key is not a startup error: the gateway stays constructible
// and reports KindUnavailable on each call instead.
func NewOpenRouterGateway(cfg config.LLMConfig) Gateway {
	apiKey := cfg.APIKey
	if apiKey == "" {
		// Deployment environments often configure the key directly.
		apiKey = os.Getenv("OPENROUTER_API_KEY")
	}
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	log.Printf("LLM gateway initialized for model %s (API key present: %t)", cfg.Model, apiKey != "")

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return &openRouterGateway{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   cfg.Endpoint,
		apiKey:     apiKey,
		model:      cfg.Model,
		appURL:     cfg.AppURL,
		appTitle:   cfg.AppTitle,
	}
}

// chatRequest is the OpenAI-compatible request format.
type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

// chatResponse is the OpenAI-compatible response format. Some providers fill
// choices[].message.content, some older ones choices[].text.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		Text string `json:"text"`
	} `json:"choices"`
}

// Complete sends a single chat-completion request and extracts the first
// choice's content. All failure modes come back as *GatewayError.
func (g *openRouterGateway) Complete(ctx context.Context, messages []Message, temperature float64, maxTokens int) (string, error) {
	if g.apiKey == "" {
		return "", &GatewayError{Kind: KindUnavailable}
	}

	body, err := json.Marshal(chatRequest{
		Model:       g.model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", &GatewayError{Kind: KindNetwork, Detail: "encode request: " + err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &GatewayError{Kind: KindNetwork, Detail: err.Error()}
	}

	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")
	// Recommended by OpenRouter for request attribution.
	if g.appURL != "" {
		req.Header.Set("HTTP-Referer", g.appURL)
	}
	if g.appTitle != "" {
		req.Header.Set("X-Title", g.appTitle)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", &GatewayError{Kind: KindTimeout}
		}
		return "", &GatewayError{Kind: KindNetwork, Detail: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &GatewayError{Kind: KindNetwork, Detail: "read response: " + err.Error()}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &GatewayError{
			Kind:   KindUpstream,
			Status: resp.StatusCode,
			Detail: string(respBody),
		}
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", &GatewayError{Kind: KindMalformed, Detail: string(respBody)}
	}

	if len(parsed.Choices) > 0 {
		choice := parsed.Choices[0]
		if content := strings.TrimSpace(choice.Message.Content); content != "" {
			return content, nil
		}
		if text := strings.TrimSpace(choice.Text); text != "" {
			return text, nil
		}
	}

	// Keep the raw payload so the unexpected shape can be diagnosed.
	return "", &GatewayError{Kind: KindMalformed, Detail: string(respBody)}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
