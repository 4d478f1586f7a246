// Package llm provides completion-service clients for the narration, comment
// and chat flows. All providers speak a common chat-message contract and are
// wrapped with circuit breaker protection and per-request timeouts.
package llm

import "context"

// Message roles accepted by every provider.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged entry in a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompleteOptions carries the sampling parameters for a completion call.
// Zero values mean "use the client default".
type CompleteOptions struct {
	MaxTokens   int
	Temperature float64
}

// ChatCompleter is the interface for LLM chat completion. Implementations
// must honor ctx cancellation and bound each call with a timeout.
type ChatCompleter interface {
	Complete(ctx context.Context, messages []Message, opts CompleteOptions) (string, error)
	GetModel() string
}
