package llm

import (
	"context"
	"errors"
	"fmt"
)

// Message is one chat-completion message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Message role constants.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Gateway defines the interface for outbound calls to the language-model
// provider. It is the only component permitted to talk to the provider.
// Implementations perform a single synchronous request per call and never
// retry; callers may re-invoke on failure.
type Gateway interface {
	Complete(ctx context.Context, messages []Message, temperature float64, maxTokens int) (string, error)
}

// ErrorKind classifies Gateway failures.
type ErrorKind string

const (
	// KindUnavailable means no API credential is configured.
	KindUnavailable ErrorKind = "unavailable"
	// KindUpstream means the provider answered with a non-2xx status.
	KindUpstream ErrorKind = "upstream"
	// KindTimeout means the bounded request deadline elapsed.
	KindTimeout ErrorKind = "timeout"
	// KindNetwork means the request failed before an HTTP response arrived.
	KindNetwork ErrorKind = "network"
	// KindMalformed means the response had no extractable completion content.
	KindMalformed ErrorKind = "malformed"
)

// GatewayError is the typed failure result of a Gateway call. Every failure
// mode is surfaced through this one type so callers can branch on Kind
// instead of guessing from response text.
type GatewayError struct {
	Kind   ErrorKind
	Status int    // HTTP status for KindUpstream, 0 otherwise
	Detail string // diagnostic body, raw payload or transport detail
}

func (e *GatewayError) Error() string {
	switch e.Kind {
	case KindUnavailable:
		return "ai coach is unavailable: no API key configured"
	case KindUpstream:
		return fmt.Sprintf("ai coach upstream error (HTTP %d): %s", e.Status, e.Detail)
	case KindTimeout:
		return "ai coach request timed out"
	case KindNetwork:
		return fmt.Sprintf("ai coach network error: %s", e.Detail)
	case KindMalformed:
		return fmt.Sprintf("ai coach returned an unexpected response format: %s", e.Detail)
	default:
		return fmt.Sprintf("ai coach error: %s", e.Detail)
	}
}

// AsGatewayError unwraps err into a *GatewayError if it is one.
func AsGatewayError(err error) (*GatewayError, bool) {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr, true
	}
	return nil, false
}
