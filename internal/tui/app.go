package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
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

// Deps is everything the TUI drives. The core components carry all the
// session, upload, and conversation logic; the TUI only feeds them events.
type Deps struct {
	Config   config.Config
	Client   *api.Client
	Sessions *session.Manager
	Pipeline *upload.Pipeline
	Registry *files.Registry
	Log      *chat.Log
	Store    store.Store
	Logger   *logging.Logger
}

// App is the root model. All state transitions run on the bubbletea update
// loop; the only suspension points are the tea.Cmd goroutines that call
// through the gateway.
type App struct {
	deps Deps

	view   session.View
	notice string

	login  loginModel
	upload uploadModel
	chat   chatModel

	width  int
	height int
}

func New(deps Deps) *App {
	a := &App{
		deps:   deps,
		login:  newLoginModel(),
		upload: newUploadModel(),
		chat:   newChatModel(),
		width:  80,
		height: 24,
	}
	a.view = a.initialView()
	return a
}

func (a *App) initialView() session.View {
	if _, ok := a.deps.Sessions.Get(); !ok {
		return session.ViewLogin
	}
	return a.mainView()
}

// mainView is where "redirect to main" lands: the chat once at least one
// upload has completed, the upload screen otherwise.
func (a *App) mainView() session.View {
	if a.deps.Store.UploadCompleted() {
		return session.ViewChat
	}
	return session.ViewUpload
}

// navigate runs every view change through the session gate.
func (a *App) navigate(target session.View) {
	var sess *session.Session
	if s, ok := a.deps.Sessions.Get(); ok {
		sess = &s
	}
	switch session.Decide(sess, target) {
	case session.Allow:
		a.view = target
	case session.RedirectToLogin:
		a.view = session.ViewLogin
	case session.RedirectToMain:
		a.view = a.mainView()
	}
}

// forceLogin is the global authorization-loss reaction: the gateway hook has
// already cleared the session; all that is left is to land on the login view.
func (a *App) forceLogin() {
	a.notice = "Your session has expired. Please log in again."
	a.login = newLoginModel()
	a.view = session.ViewLogin
}

func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.login.Init(), a.upload.Init(), a.chat.Init()}
	// A restored session counts as session entry: refresh the registry once.
	if a.view != session.ViewLogin {
		cmds = append(cmds, a.refreshFiles())
	}
	return tea.Batch(cmds...)
}

// Messages produced by gateway-calling commands. Each carries the ID of the
// job or turn it belongs to so late results for superseded work are dropped.
type (
	authResultMsg struct {
		creds api.Credentials
		err   error
	}
	fileChosenMsg struct {
		path string
		size int64
	}
	uploadProgressMsg struct {
		jobID string
		ratio float64
	}
	uploadDoneMsg struct {
		jobID   string
		receipt api.UploadReceipt
		err     error
	}
	settleElapsedMsg struct {
		jobID string
	}
	filesRefreshedMsg struct {
		records []api.DocumentRecord
		err     error
	}
	chatResultMsg struct {
		turnID string
		reply  string
		err    error
	}
	logoutMsg struct{}
)

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.login.setSize(msg.Width)
		a.upload.setSize(msg.Width, msg.Height)
		a.chat.setSize(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

	case authResultMsg:
		return a.handleAuthResult(msg)

	case fileChosenMsg:
		return a.handleFileChosen(msg)

	case uploadProgressMsg:
		a.deps.Pipeline.Progress(msg.jobID, msg.ratio)
		return a, a.waitForProgress(msg.jobID)

	case uploadDoneMsg:
		return a.handleUploadDone(msg)

	case settleElapsedMsg:
		// Navigate only if the finished job is still the current one.
		if job, ok := a.deps.Pipeline.Job(); ok && job.ID == msg.jobID && job.State == upload.StateSucceeded {
			a.navigate(session.ViewChat)
		}
		return a, nil

	case filesRefreshedMsg:
		if msg.err != nil && api.KindOf(msg.err) == api.KindUnauthorized {
			a.forceLogin()
		}
		return a, nil

	case chatResultMsg:
		_ = a.deps.Log.Resolve(msg.turnID, msg.reply, msg.err)
		a.chat.waiting = a.deps.Log.Pending()
		if msg.err != nil && api.KindOf(msg.err) == api.KindUnauthorized {
			a.forceLogin()
		}
		return a, nil

	case logoutMsg:
		// Logout clears the credential only; the conversation snapshot
		// survives for the next login.
		a.deps.Sessions.Clear()
		a.login = newLoginModel()
		a.notice = "Logged out."
		a.view = session.ViewLogin
		return a, nil
	}

	switch a.view {
	case session.ViewLogin, session.ViewRegister:
		return a.updateLogin(msg)
	case session.ViewUpload:
		return a.updateUpload(msg)
	default:
		return a.updateChat(msg)
	}
}

func (a *App) handleAuthResult(msg authResultMsg) (tea.Model, tea.Cmd) {
	a.login.submitting = false
	if msg.err != nil {
		a.login.errText = api.Describe(msg.err)
		return a, nil
	}
	if err := a.deps.Sessions.Set(msg.creds.Token, msg.creds.Username); err != nil {
		a.login.errText = fmt.Sprintf("could not persist session: %v", err)
		return a, nil
	}
	a.notice = ""
	a.deps.Log.Load()
	a.navigate(a.mainView())
	// Session entry: one bounded-retry refresh of the document cache.
	return a, a.refreshFiles()
}

func (a *App) handleFileChosen(msg fileChosenMsg) (tea.Model, tea.Cmd) {
	job, err := a.deps.Pipeline.Select(msg.path, msg.size)
	if errors.Is(err, upload.ErrBusy) {
		a.upload.notice = "An upload is already in progress."
		return a, nil
	}
	a.upload.notice = ""
	if job.State != upload.StateReady {
		return a, nil
	}
	jobID, err := a.deps.Pipeline.Begin()
	if err != nil {
		a.upload.notice = err.Error()
		return a, nil
	}
	ch := make(chan float64, 32)
	a.upload.progressCh = ch
	return a, tea.Batch(a.startUpload(jobID, msg.path, ch), a.waitForProgress(jobID))
}

func (a *App) handleUploadDone(msg uploadDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		a.deps.Pipeline.Fail(msg.jobID, msg.err)
		if api.KindOf(msg.err) == api.KindUnauthorized {
			a.forceLogin()
		}
		return a, nil
	}
	a.deps.Pipeline.Succeed(msg.jobID, msg.receipt)
	if job, ok := a.deps.Pipeline.Job(); !ok || job.ID != msg.jobID || job.State != upload.StateSucceeded {
		// A stale acknowledgement for a superseded job: nothing to do.
		return a, nil
	}
	if err := a.deps.Store.SetUploadCompleted(true); err != nil {
		a.deps.Logger.Error("persist upload flag", map[string]interface{}{"error": err.Error()})
	}
	return a, tea.Batch(a.refreshFiles(), a.settle(msg.jobID))
}

// startUpload runs the transfer off the update loop and reports progress
// through the channel the update loop drains.
func (a *App) startUpload(jobID, path string, ch chan float64) tea.Cmd {
	return func() tea.Msg {
		defer close(ch)
		f, err := os.Open(path)
		if err != nil {
			return uploadDoneMsg{jobID: jobID, err: &api.Error{Kind: api.KindValidation, Message: fmt.Sprintf("cannot open file: %v", err)}}
		}
		defer f.Close()
		receipt, err := a.deps.Client.Upload(context.Background(), filepath.Base(path), f, func(ratio float64) {
			select {
			case ch <- ratio:
			default:
			}
		})
		return uploadDoneMsg{jobID: jobID, receipt: receipt, err: err}
	}
}

func (a *App) waitForProgress(jobID string) tea.Cmd {
	ch := a.upload.progressCh
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ratio, ok := <-ch
		if !ok {
			return nil
		}
		return uploadProgressMsg{jobID: jobID, ratio: ratio}
	}
}

func (a *App) settle(jobID string) tea.Cmd {
	return tea.Tick(a.deps.Config.SettleDelay(), func(time.Time) tea.Msg {
		return settleElapsedMsg{jobID: jobID}
	})
}

func (a *App) refreshFiles() tea.Cmd {
	return func() tea.Msg {
		records, err := a.deps.Registry.Refresh(context.Background())
		return filesRefreshedMsg{records: records, err: err}
	}
}

func (a *App) View() string {
	switch a.view {
	case session.ViewLogin, session.ViewRegister:
		return a.viewLogin()
	case session.ViewUpload:
		return a.viewUpload()
	default:
		return a.viewChat()
	}
}
