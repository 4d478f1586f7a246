// Package session implements the per-connection conversation state for the
// matrix visualization: concept tracking, transition detection, prompt
// assembly and event dispatch. One Session exists per WebSocket connection
// and is only ever touched by that connection's handler goroutine, so no
// locking is needed; events must be applied strictly in arrival order.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/scrypster/eigentalk/internal/llm"
)

// Inbound event kinds. Anything else is silently ignored.
const (
	KindMatrix  = "matrix"
	KindComment = "comment"
	KindChat    = "chat"
)

// Outbound message kinds.
const (
	KindReply     = "reply"
	KindChatReply = "chat-reply"
	KindError     = "error"
)

// Error codes attached to outbound error messages.
const (
	CodeBadMessage       = "BAD_MESSAGE"
	CodeCompletionFailed = "COMPLETION_FAILED"
	CodeRateLimited      = "RATE_LIMITED"
)

// Reply is an outbound message for the client.
type Reply struct {
	Kind     string `json:"kind"`
	Text     string `json:"text,omitempty"`
	TargetID string `json:"targetId,omitempty"`
	Error    string `json:"error,omitempty"`
	Code     string `json:"code,omitempty"`
}

// ErrorReply builds an outbound error message. Per-message errors are
// reported this way instead of closing the connection.
func ErrorReply(code, msg string) *Reply {
	return &Reply{Kind: KindError, Error: msg, Code: code}
}

// Options tunes a session. Zero values fall back to the defaults the
// original deployment used.
type Options struct {
	HistoryWindow int     // chat entries sent to the model (default 6)
	MaxTokens     int     // max output tokens per completion (default 1000)
	Temperature   float64 // sampling temperature (default 0.6)
}

// Session holds the mutable per-connection state and dispatches inbound
// events to the right prompt builder and the completion service.
type Session struct {
	id        uuid.UUID
	completer llm.ChatCompleter
	opts      Options

	concepts      map[string]bool
	prev          snapshot
	lastMatrix    *MatrixEvent
	lastNarrative string
	chat          history
}

// New creates a session in its initial state: no concepts explained, no
// matrix seen yet, previous scalars at det=1, disc=1, not collapsed.
func New(completer llm.ChatCompleter, opts Options) *Session {
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = 6
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 1000
	}
	if opts.Temperature == 0 {
		opts.Temperature = 0.6
	}
	return &Session{
		id:        uuid.New(),
		completer: completer,
		opts:      opts,
		concepts:  make(map[string]bool),
		prev:      snapshot{Det: 1, Disc: 1, Collapsed: false},
	}
}

// ID returns the session identifier used in log lines.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// HistoryLen reports the number of retained chat messages.
func (s *Session) HistoryLen() int {
	return s.chat.Len()
}

// LastNarrative returns the text produced for the most recent matrix event.
func (s *Session) LastNarrative() string {
	return s.lastNarrative
}

// Concepts returns a copy of the set of concepts explained so far.
func (s *Session) Concepts() map[string]bool {
	out := make(map[string]bool, len(s.concepts))
	for k, v := range s.concepts {
		out[k] = v
	}
	return out
}

// envelope carries only the discriminating tag of an inbound message.
type envelope struct {
	Kind string `json:"kind"`
}

// commentEvent is the inbound payload for a comment on the narration text.
type commentEvent struct {
	Kind       string  `json:"kind"`
	Snippet    string  `json:"snippet"`
	Paragraph  *string `json:"paragraph"`
	IsFollowup bool    `json:"isFollowup"`
	Text       string  `json:"text"`
	TargetID   string  `json:"targetId"`
}

// chatEvent is the inbound payload for a free-form chat message.
type chatEvent struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// HandleRaw decodes one inbound message and processes it. It returns the
// reply to send, or nil when the event produces no reply (unrecognized
// kind). Malformed messages and completion failures yield a typed error
// reply; the session stays usable either way.
func (s *Session) HandleRaw(ctx context.Context, raw []byte) *Reply {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("session %s: invalid JSON: %v", s.id, err)
		return ErrorReply(CodeBadMessage, "invalid JSON")
	}

	switch env.Kind {
	case KindMatrix:
		return s.handleMatrix(ctx, raw)
	case KindComment:
		return s.handleComment(ctx, raw)
	case KindChat:
		return s.handleChat(ctx, raw)
	default:
		// Unknown kinds are ignored so old clients can send extra
		// message types without breaking the loop.
		log.Printf("session %s: ignoring unknown kind %q", s.id, env.Kind)
		return nil
	}
}

// handleMatrix narrates a new matrix. The new visual context invalidates
// prior chat grounding, so the history is cleared first. Concepts and the
// tracked scalars are recorded together with the prompt that uses them,
// before the completion call: the definitions were emitted either way, and
// repeating them after a transient failure would read oddly.
func (s *Session) handleMatrix(ctx context.Context, raw []byte) *Reply {
	var ev MatrixEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		log.Printf("session %s: bad matrix event: %v", s.id, err)
		return ErrorReply(CodeBadMessage, "bad matrix event")
	}

	s.chat.Clear()

	introduce := conceptsToIntroduce(s.concepts, ev.Disc)
	prompt := NarrationPrompt(ev, describeTransitions(s.prev, ev), definitionsFor(introduce))

	for _, id := range introduce {
		s.concepts[id] = true
	}
	s.prev = snapshot{Det: ev.Det, Disc: ev.Disc, Collapsed: ev.Collapsed}

	text, err := s.complete(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}})
	if err != nil {
		log.Printf("ERROR: session %s: narration completion failed: %v", s.id, err)
		return ErrorReply(CodeCompletionFailed, "completion service unavailable")
	}

	s.lastMatrix = &ev
	s.lastNarrative = text
	return &Reply{Kind: KindMatrix, Text: text}
}

// handleComment answers a comment on a highlighted piece of narration.
// Read-only with respect to session state apart from its implicit use of
// the last matrix event and narration.
func (s *Session) handleComment(ctx context.Context, raw []byte) *Reply {
	var ev commentEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		log.Printf("session %s: bad comment event: %v", s.id, err)
		return ErrorReply(CodeBadMessage, "bad comment event")
	}
	if ev.Text == "" || ev.TargetID == "" {
		return ErrorReply(CodeBadMessage, "comment requires text and targetId")
	}

	paragraph := s.lastNarrative
	if ev.Paragraph != nil {
		paragraph = *ev.Paragraph
	}

	prompt := CommentPrompt(s.lastMatrix, ev.Snippet, paragraph, ev.Text, ev.IsFollowup)

	text, err := s.complete(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}})
	if err != nil {
		log.Printf("ERROR: session %s: comment completion failed: %v", s.id, err)
		return ErrorReply(CodeCompletionFailed, "completion service unavailable")
	}

	return &Reply{Kind: KindReply, TargetID: ev.TargetID, Text: text}
}

// handleChat answers a free-form question. The user message is appended to
// the transcript before truncation, so it is always part of the window sent
// to the model; the assistant reply is appended afterwards.
func (s *Session) handleChat(ctx context.Context, raw []byte) *Reply {
	var ev chatEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		log.Printf("session %s: bad chat event: %v", s.id, err)
		return ErrorReply(CodeBadMessage, "bad chat event")
	}
	if ev.Text == "" {
		return ErrorReply(CodeBadMessage, "chat requires text")
	}

	s.chat.Append(llm.RoleUser, ev.Text)

	tail := s.chat.Tail(s.opts.HistoryWindow)
	messages := make([]llm.Message, 0, len(tail)+1)
	messages = append(messages, llm.Message{
		Role:    llm.RoleSystem,
		Content: ChatSystemPrompt(s.lastMatrix, s.lastNarrative),
	})
	messages = append(messages, tail...)

	text, err := s.complete(ctx, messages)
	if err != nil {
		log.Printf("ERROR: session %s: chat completion failed: %v", s.id, err)
		return ErrorReply(CodeCompletionFailed, "completion service unavailable")
	}

	s.chat.Append(llm.RoleAssistant, text)
	return &Reply{Kind: KindChatReply, Text: text}
}

func (s *Session) complete(ctx context.Context, messages []llm.Message) (string, error) {
	text, err := s.completer.Complete(ctx, messages, llm.CompleteOptions{
		MaxTokens:   s.opts.MaxTokens,
		Temperature: s.opts.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("complete: %w", err)
	}
	return text, nil
}
