package store

import (
	"github.com/mohamedaboabdallah/Q-A-using-RAG/internal/chat"
	"github.com/mohamedaboabdallah/Q-A-using-RAG/internal/session"
)

// Store is the full snapshot surface the application wires up: session
// credential, conversation sequence, and local flags. FileStore and
// SQLiteStore both satisfy it.
type Store interface {
	session.Store
	chat.Store
	SetUploadCompleted(done bool) error
	UploadCompleted() bool
}

var (
	_ Store = (*FileStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)
