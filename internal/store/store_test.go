package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mohamedaboabdallah/Q-A-using-RAG/internal/chat"
	"github.com/mohamedaboabdallah/Q-A-using-RAG/internal/session"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	fileStore, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	sqliteStore, err := NewSQLiteStore(t.TempDir())
	if err != nil {
		t.Fatalf("sqlite store: %v", err)
	}
	t.Cleanup(func() { sqliteStore.Close() })
	return map[string]Store{"file": fileStore, "sqlite": sqliteStore}
}

func TestSessionRoundTrip(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := st.LoadSession(); err != nil || ok {
				t.Fatalf("fresh store: ok=%v err=%v", ok, err)
			}
			sess := session.Session{
				Token:     "tok-123",
				Username:  "alice",
				IssuedAt:  time.Now().UTC().Truncate(time.Second),
				ExpiresAt: time.Now().UTC().Add(time.Hour).Truncate(time.Second),
			}
			if err := st.SaveSession(sess); err != nil {
				t.Fatalf("save: %v", err)
			}
			got, ok, err := st.LoadSession()
			if err != nil || !ok {
				t.Fatalf("load: ok=%v err=%v", ok, err)
			}
			if got.Token != sess.Token || got.Username != sess.Username {
				t.Fatalf("got %+v, want %+v", got, sess)
			}
			if !got.ExpiresAt.Equal(sess.ExpiresAt) {
				t.Fatalf("expires = %v, want %v", got.ExpiresAt, sess.ExpiresAt)
			}
			if err := st.ClearSession(); err != nil {
				t.Fatalf("clear: %v", err)
			}
			if err := st.ClearSession(); err != nil {
				t.Fatalf("second clear: %v", err)
			}
			if _, ok, _ := st.LoadSession(); ok {
				t.Fatal("session survived clear")
			}
		})
	}
}

func TestConversationRoundTripPreservesOrder(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := st.LoadConversation(); err != nil || ok {
				t.Fatalf("fresh store: ok=%v err=%v", ok, err)
			}
			msgs := []chat.Message{
				{ID: "1", Sender: chat.SenderAssistant, Text: "Hello!", Timestamp: time.Now().UTC().Truncate(time.Second)},
				{ID: "2", Sender: chat.SenderUser, Text: "Summarize", Timestamp: time.Now().UTC().Truncate(time.Second)},
				{ID: "3", Sender: chat.SenderAssistant, Text: "timed out", Timestamp: time.Now().UTC().Truncate(time.Second), IsError: true},
			}
			if err := st.SaveConversation(msgs); err != nil {
				t.Fatalf("save: %v", err)
			}
			got, ok, err := st.LoadConversation()
			if err != nil || !ok {
				t.Fatalf("load: ok=%v err=%v", ok, err)
			}
			if len(got) != len(msgs) {
				t.Fatalf("got %d messages, want %d", len(got), len(msgs))
			}
			for i := range msgs {
				if got[i].ID != msgs[i].ID || got[i].Sender != msgs[i].Sender ||
					got[i].Text != msgs[i].Text || got[i].IsError != msgs[i].IsError {
					t.Fatalf("message %d = %+v, want %+v", i, got[i], msgs[i])
				}
			}

			// Wholesale replace: a shorter save leaves no trace of old rows.
			if err := st.SaveConversation(msgs[:1]); err != nil {
				t.Fatalf("save shorter: %v", err)
			}
			got, _, _ = st.LoadConversation()
			if len(got) != 1 {
				t.Fatalf("replace left %d messages, want 1", len(got))
			}
		})
	}
}

func TestUploadCompletedFlag(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if st.UploadCompleted() {
				t.Fatal("flag set on fresh store")
			}
			if err := st.SetUploadCompleted(true); err != nil {
				t.Fatalf("set: %v", err)
			}
			if !st.UploadCompleted() {
				t.Fatal("flag not persisted")
			}
			if err := st.SetUploadCompleted(false); err != nil {
				t.Fatalf("unset: %v", err)
			}
			if st.UploadCompleted() {
				t.Fatal("flag not cleared")
			}
		})
	}
}

func TestFileStoreTreatsMalformedSnapshotAsAbsent(t *testing.T) {
	dir := t.TempDir()
	st, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "conversation.json"), []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, ok, err := st.LoadConversation(); err != nil || ok {
		t.Fatalf("malformed snapshot: ok=%v err=%v, want absent", ok, err)
	}
}
