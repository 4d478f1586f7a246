package session

import "github.com/scrypster/eigentalk/internal/llm"

// history is the per-session chat transcript. The full transcript is kept
// for the lifetime of the session; only the most recent window of entries
// is sent to the completion service (context-window control).
type history struct {
	messages []llm.Message
}

// Append adds a role-tagged message to the end of the transcript.
func (h *history) Append(role, content string) {
	h.messages = append(h.messages, llm.Message{Role: role, Content: content})
}

// Tail returns the n most recent messages, oldest first. When the
// transcript is shorter than n, the whole transcript is returned. The
// returned slice aliases the transcript and must not be mutated.
func (h *history) Tail(n int) []llm.Message {
	if n <= 0 || len(h.messages) == 0 {
		return nil
	}
	if len(h.messages) <= n {
		return h.messages
	}
	return h.messages[len(h.messages)-n:]
}

// Len reports the total number of messages retained.
func (h *history) Len() int {
	return len(h.messages)
}

// Clear discards the transcript. Called on every matrix event: a new visual
// context invalidates the grounding of earlier chat turns.
func (h *history) Clear() {
	h.messages = nil
}
