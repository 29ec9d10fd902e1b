package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mohamedaboabdallah/Q-A-using-RAG/internal/chat"
	"github.com/mohamedaboabdallah/Q-A-using-RAG/internal/session"
)

// SQLiteStore keeps the same snapshot contract as FileStore in a single
// SQLite database. Conversation writes replace the whole sequence in one
// transaction, preserving the no-partial-write guarantee.
type SQLiteStore struct {
	mu     sync.Mutex
	dbPath string

	once sync.Once
	db   *sql.DB
	err  error
}

func NewSQLiteStore(root string) (*SQLiteStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &SQLiteStore{dbPath: filepath.Join(root, "docchat.db")}, nil
}

func (s *SQLiteStore) open() (*sql.DB, error) {
	s.once.Do(func() {
		db, err := sql.Open("sqlite", s.dbPath)
		if err != nil {
			s.err = err
			return
		}
		schema := []string{
			`CREATE TABLE IF NOT EXISTS session (
				id INTEGER PRIMARY KEY CHECK (id = 1),
				token TEXT NOT NULL,
				username TEXT NOT NULL,
				issued_at TEXT NOT NULL,
				expires_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS messages (
				seq INTEGER PRIMARY KEY AUTOINCREMENT,
				id TEXT NOT NULL,
				sender TEXT NOT NULL,
				text TEXT NOT NULL,
				timestamp TEXT NOT NULL,
				is_error INTEGER NOT NULL DEFAULT 0
			)`,
			`CREATE TABLE IF NOT EXISTS flags (
				name TEXT PRIMARY KEY,
				value INTEGER NOT NULL
			)`,
		}
		for _, stmt := range schema {
			if _, err := db.Exec(stmt); err != nil {
				s.err = fmt.Errorf("init schema: %w", err)
				db.Close()
				return
			}
		}
		s.db = db
	})
	return s.db, s.err
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) SaveSession(sess session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	db, err := s.open()
	if err != nil {
		return err
	}
	_, err = db.Exec(
		`INSERT INTO session (id, token, username, issued_at, expires_at)
		 VALUES (1, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			token = excluded.token,
			username = excluded.username,
			issued_at = excluded.issued_at,
			expires_at = excluded.expires_at`,
		sess.Token, sess.Username,
		sess.IssuedAt.UTC().Format(time.RFC3339Nano),
		formatOptionalTime(sess.ExpiresAt),
	)
	return err
}

func (s *SQLiteStore) LoadSession() (session.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	db, err := s.open()
	if err != nil {
		return session.Session{}, false, err
	}
	var sess session.Session
	var issued, expires string
	row := db.QueryRow(`SELECT token, username, issued_at, expires_at FROM session WHERE id = 1`)
	if err := row.Scan(&sess.Token, &sess.Username, &issued, &expires); err != nil {
		if err == sql.ErrNoRows {
			return session.Session{}, false, nil
		}
		return session.Session{}, false, err
	}
	sess.IssuedAt, _ = time.Parse(time.RFC3339Nano, issued)
	if expires != "" {
		sess.ExpiresAt, _ = time.Parse(time.RFC3339Nano, expires)
	}
	return sess, true, nil
}

func (s *SQLiteStore) ClearSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	db, err := s.open()
	if err != nil {
		return err
	}
	_, err = db.Exec(`DELETE FROM session WHERE id = 1`)
	return err
}

func (s *SQLiteStore) SaveConversation(msgs []chat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	db, err := s.open()
	if err != nil {
		return err
	}
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec(`DELETE FROM messages`); err != nil {
		return err
	}
	for _, m := range msgs {
		if _, err := tx.Exec(
			`INSERT INTO messages (id, sender, text, timestamp, is_error) VALUES (?, ?, ?, ?, ?)`,
			m.ID, string(m.Sender), m.Text,
			m.Timestamp.UTC().Format(time.RFC3339Nano),
			boolToInt(m.IsError),
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) LoadConversation() ([]chat.Message, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	db, err := s.open()
	if err != nil {
		return nil, false, err
	}
	rows, err := db.Query(`SELECT id, sender, text, timestamp, is_error FROM messages ORDER BY seq`)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	var msgs []chat.Message
	for rows.Next() {
		var m chat.Message
		var sender, ts string
		var isErr int
		if err := rows.Scan(&m.ID, &sender, &m.Text, &ts, &isErr); err != nil {
			// A damaged row means a damaged snapshot; start fresh rather
			// than surface half a conversation.
			return nil, false, nil
		}
		m.Sender = chat.Sender(sender)
		m.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		m.IsError = isErr != 0
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, false, nil
	}
	if len(msgs) == 0 {
		return nil, false, nil
	}
	return msgs, true, nil
}

func (s *SQLiteStore) SetUploadCompleted(done bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	db, err := s.open()
	if err != nil {
		return err
	}
	_, err = db.Exec(
		`INSERT INTO flags (name, value) VALUES ('upload_completed', ?)
		 ON CONFLICT(name) DO UPDATE SET value = excluded.value`,
		boolToInt(done),
	)
	return err
}

func (s *SQLiteStore) UploadCompleted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	db, err := s.open()
	if err != nil {
		return false
	}
	var value int
	row := db.QueryRow(`SELECT value FROM flags WHERE name = 'upload_completed'`)
	if err := row.Scan(&value); err != nil {
		return false
	}
	return value != 0
}

func formatOptionalTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
