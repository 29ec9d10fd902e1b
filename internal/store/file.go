package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/mohamedaboabdallah/Q-A-using-RAG/internal/chat"
	"github.com/mohamedaboabdallah/Q-A-using-RAG/internal/session"
)

// FileStore is the JSON-on-disk snapshot store.
//
// Layout:
//
//	<root>/session.json       current credential
//	<root>/conversation.json  full message sequence
//	<root>/state.json         local flags (upload completed)
//
// Every write replaces the target file wholesale via a temp file and rename,
// so a restart never observes a partial snapshot.
type FileStore struct {
	mu   sync.Mutex
	root string
}

type localState struct {
	UploadCompleted bool `json:"upload_completed"`
}

func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{root: root}, nil
}

func (s *FileStore) sessionPath() string      { return filepath.Join(s.root, "session.json") }
func (s *FileStore) conversationPath() string { return filepath.Join(s.root, "conversation.json") }
func (s *FileStore) statePath() string        { return filepath.Join(s.root, "state.json") }

func (s *FileStore) SaveSession(sess session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replace(s.sessionPath(), sess)
}

func (s *FileStore) LoadSession() (session.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sess session.Session
	ok, err := s.read(s.sessionPath(), &sess)
	return sess, ok, err
}

func (s *FileStore) ClearSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.sessionPath())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *FileStore) SaveConversation(msgs []chat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replace(s.conversationPath(), msgs)
}

func (s *FileStore) LoadConversation() ([]chat.Message, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var msgs []chat.Message
	ok, err := s.read(s.conversationPath(), &msgs)
	if !ok || err != nil {
		return nil, false, err
	}
	return msgs, true, nil
}

func (s *FileStore) SetUploadCompleted(done bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replace(s.statePath(), localState{UploadCompleted: done})
}

func (s *FileStore) UploadCompleted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	var st localState
	ok, err := s.read(s.statePath(), &st)
	if !ok || err != nil {
		return false
	}
	return st.UploadCompleted
}

// read decodes path into v. A missing or malformed file reports ok=false
// rather than an error: persisted state is best-effort and the caller
// starts fresh.
func (s *FileStore) read(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, nil
	}
	return true, nil
}

func (s *FileStore) replace(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
