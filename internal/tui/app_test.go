package tui

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/bubbletea"

	"github.com/mohamedaboabdallah/Q-A-using-RAG/internal/api"
	"github.com/mohamedaboabdallah/Q-A-using-RAG/internal/chat"
	"github.com/mohamedaboabdallah/Q-A-using-RAG/internal/config"
	"github.com/mohamedaboabdallah/Q-A-using-RAG/internal/files"
	"github.com/mohamedaboabdallah/Q-A-using-RAG/internal/logging"
	"github.com/mohamedaboabdallah/Q-A-using-RAG/internal/session"
	"github.com/mohamedaboabdallah/Q-A-using-RAG/internal/store"
	"github.com/mohamedaboabdallah/Q-A-using-RAG/internal/upload"
)

func newTestApp(t *testing.T, handler http.Handler) (*App, *upload.Pipeline) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.SettleDelayMS = 1

	snapshots, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	sessions := session.NewManager(snapshots, logging.Discard())
	if err := sessions.Set("tok", "alice"); err != nil {
		t.Fatalf("set session: %v", err)
	}

	client := api.NewClient(cfg.BaseURL, time.Second, time.Second, sessions, logging.Discard())
	client.SetOnUnauthorized(sessions.Invalidate)

	pipeline := upload.NewPipeline(upload.Limits{
		MaxFileSizeBytes:  cfg.MaxFileSizeBytes,
		AllowedExtensions: cfg.AllowedExtensions,
	})
	registry := files.NewRegistry(client, logging.Discard())
	registry.SetRetryPolicy(3, 0)

	conversation := chat.NewLog(snapshots, client)
	conversation.Load()

	app := New(Deps{
		Config:   cfg,
		Client:   client,
		Sessions: sessions,
		Pipeline: pipeline,
		Registry: registry,
		Log:      conversation,
		Store:    snapshots,
		Logger:   logging.Discard(),
	})
	return app, pipeline
}

// drain executes a command tree and collects the produced messages.
func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, drain(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func TestUploadSuccessRefreshesOnceThenNavigatesToChat(t *testing.T) {
	app, pipeline := newTestApp(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/files" {
			t.Errorf("unexpected call: %s", r.URL.Path)
		}
		io.WriteString(w, `{"files":[{"id":1,"filename":"report.pdf","uploaded_at":"2026-03-01T12:00:00Z"}]}`)
	}))
	app.view = session.ViewUpload

	if _, err := pipeline.Select("report.pdf", 3<<20); err != nil {
		t.Fatalf("select: %v", err)
	}
	jobID, err := pipeline.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	_, cmd := app.Update(uploadDoneMsg{jobID: jobID, receipt: api.UploadReceipt{Message: "File processed successfully"}})
	if job, _ := pipeline.Job(); job.State != upload.StateSucceeded {
		t.Fatalf("job state = %v", job.State)
	}
	if !app.deps.Store.UploadCompleted() {
		t.Fatal("upload-completed flag not persisted")
	}

	var refreshes, settles int
	for _, msg := range drain(cmd) {
		switch msg := msg.(type) {
		case filesRefreshedMsg:
			refreshes++
			if msg.err != nil {
				t.Fatalf("refresh: %v", msg.err)
			}
		case settleElapsedMsg:
			settles++
			app.Update(msg)
		}
	}
	if refreshes != 1 {
		t.Fatalf("refreshes = %d, want exactly 1", refreshes)
	}
	if settles != 1 {
		t.Fatalf("settle signals = %d, want exactly 1", settles)
	}
	if app.view != session.ViewChat {
		t.Fatalf("view = %v, want chat after settle delay", app.view)
	}
}

func TestStaleSettleSignalDoesNotNavigate(t *testing.T) {
	app, pipeline := newTestApp(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"files":[]}`)
	}))
	app.view = session.ViewUpload

	pipeline.Select("a.txt", 100)
	staleID, _ := pipeline.Begin()
	pipeline.Fail(staleID, &api.Error{Kind: api.KindServer})

	app.Update(settleElapsedMsg{jobID: staleID})
	if app.view != session.ViewUpload {
		t.Fatalf("view = %v, stale settle must not navigate", app.view)
	}
}

func TestUnauthorizedChatResultForcesLogin(t *testing.T) {
	app, _ := newTestApp(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":"Token expired"}`)
	}))
	app.view = session.ViewChat

	turnID, err := app.deps.Log.Begin("hello")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	// The gateway hook fires during the failed call; simulate the full path.
	msgs := drain(app.sendQuery(turnID, "hello"))
	if len(msgs) != 1 {
		t.Fatalf("got %d messages", len(msgs))
	}
	app.Update(msgs[0])

	if app.view != session.ViewLogin {
		t.Fatalf("view = %v, want login after authorization loss", app.view)
	}
	if _, ok := app.deps.Sessions.Get(); ok {
		t.Fatal("session survived authorization loss")
	}
	last := app.deps.Log.Messages()
	if !last[len(last)-1].IsError {
		t.Fatal("failed turn missing error message")
	}
}

func TestAuthResultLandsOnUploadViewFirst(t *testing.T) {
	app, _ := newTestApp(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"files":[]}`)
	}))
	app.view = session.ViewLogin
	app.deps.Sessions.Clear()

	app.Update(authResultMsg{creds: api.Credentials{Token: "tok2", Username: "alice"}})
	if app.view != session.ViewUpload {
		t.Fatalf("view = %v, want upload for a first-time user", app.view)
	}
}

func TestAuthResultSkipsToChatWhenUploadCompleted(t *testing.T) {
	app, _ := newTestApp(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"files":[]}`)
	}))
	app.view = session.ViewLogin
	app.deps.Sessions.Clear()
	if err := app.deps.Store.SetUploadCompleted(true); err != nil {
		t.Fatalf("flag: %v", err)
	}

	_, cmd := app.Update(authResultMsg{creds: api.Credentials{Token: "tok2", Username: "alice"}})
	if app.view != session.ViewChat {
		t.Fatalf("view = %v, want chat shortcut", app.view)
	}
	drain(cmd)
}
