package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mohamedaboabdallah/Q-A-using-RAG/internal/api"
)

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Message is one entry in the conversation. Immutable once appended.
type Message struct {
	ID        string    `json:"id"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	IsError   bool      `json:"is_error,omitempty"`
}

// Store persists the full message sequence. Every mutation replaces the
// snapshot wholesale before the mutation is considered complete.
type Store interface {
	SaveConversation([]Message) error
	LoadConversation() ([]Message, bool, error)
}

// Querier is the slice of the gateway the log needs.
type Querier interface {
	Query(ctx context.Context, message string) (string, error)
}

var (
	// ErrEmptyMessage rejects empty or whitespace-only input before any
	// network call.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrSendPending rejects a new send while a prior one has not resolved;
	// sends are serialized so replies can never interleave out of order.
	ErrSendPending = errors.New("a send is already pending")
)

const greeting = "Hello! Ask me anything about your uploaded documents."

// Log is the ordered, append-only conversation history with durable
// persistence and serialized send semantics.
type Log struct {
	store   Store
	querier Querier

	messages []Message
	pending  string // turn ID of the outstanding send, "" when none
}

func NewLog(store Store, querier Querier) *Log {
	return &Log{store: store, querier: querier}
}

// Load restores the persisted snapshot. A missing or malformed snapshot is
// treated as absent: the log starts fresh with the greeting.
func (l *Log) Load() {
	msgs, ok, err := l.store.LoadConversation()
	if err != nil || !ok || len(msgs) == 0 {
		l.messages = []Message{l.greet()}
		return
	}
	l.messages = msgs
}

// Send appends the user message immediately, awaits the backend reply, and
// appends exactly one assistant message: the reply on success, an
// error-flagged description on failure. The failed turn is never dropped or
// retried automatically.
func (l *Log) Send(ctx context.Context, text string) error {
	turnID, err := l.Begin(text)
	if err != nil {
		return err
	}
	reply, qerr := l.querier.Query(ctx, strings.TrimSpace(text))
	return l.Resolve(turnID, reply, qerr)
}

// Begin validates the input, appends the user message, and marks a send
// pending. The returned turn ID correlates the eventual Resolve; a resolve
// for a superseded turn is discarded.
func (l *Log) Begin(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", ErrEmptyMessage
	}
	if l.pending != "" {
		return "", ErrSendPending
	}

	msg := Message{
		ID:        uuid.New().String(),
		Sender:    SenderUser,
		Text:      trimmed,
		Timestamp: time.Now(),
	}
	l.messages = append(l.messages, msg)
	if err := l.store.SaveConversation(l.messages); err != nil {
		// The append never happened as far as a restart is concerned; keep
		// memory consistent with the snapshot.
		l.messages = l.messages[:len(l.messages)-1]
		return "", err
	}
	turnID := uuid.New().String()
	l.pending = turnID
	return turnID, nil
}

// Resolve completes the pending send identified by turnID with either a
// reply or a failure. Late results for a turn that is no longer pending are
// dropped.
func (l *Log) Resolve(turnID, reply string, callErr error) error {
	if turnID == "" || turnID != l.pending {
		return nil
	}
	l.pending = ""

	msg := Message{
		ID:        uuid.New().String(),
		Sender:    SenderAssistant,
		Timestamp: time.Now(),
	}
	if callErr != nil {
		msg.Text = api.Describe(callErr)
		msg.IsError = true
	} else {
		msg.Text = reply
	}
	l.messages = append(l.messages, msg)
	return l.store.SaveConversation(l.messages)
}

// Clear resets the sequence to the initial greeting and replaces the
// persisted snapshot. Any pending send becomes stale and its resolve is
// discarded.
func (l *Log) Clear() error {
	l.pending = ""
	l.messages = []Message{l.greet()}
	return l.store.SaveConversation(l.messages)
}

// Messages returns a copy of the current sequence.
func (l *Log) Messages() []Message {
	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Pending reports whether a send is outstanding.
func (l *Log) Pending() bool {
	return l.pending != ""
}

func (l *Log) greet() Message {
	return Message{
		ID:        uuid.New().String(),
		Sender:    SenderAssistant,
		Text:      greeting,
		Timestamp: time.Now(),
	}
}
