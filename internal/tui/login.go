package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbletea"

	"github.com/mohamedaboabdallah/Q-A-using-RAG/internal/api"
)

type loginModel struct {
	username    textinput.Model
	password    textinput.Model
	registering bool
	focus       int
	submitting  bool
	errText     string
	width       int
}

func newLoginModel() loginModel {
	username := textinput.New()
	username.Placeholder = "username"
	username.CharLimit = 64
	username.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 128
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return loginModel{username: username, password: password, width: 80}
}

func (m loginModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *loginModel) setSize(width int) {
	m.width = width
}

func (m *loginModel) cycleFocus(delta int) {
	m.focus = (m.focus + delta + 2) % 2
	if m.focus == 0 {
		m.username.Focus()
		m.password.Blur()
	} else {
		m.username.Blur()
		m.password.Focus()
	}
}

func (a *App) updateLogin(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "down":
			a.login.cycleFocus(1)
			return a, nil
		case "shift+tab", "up":
			a.login.cycleFocus(-1)
			return a, nil
		case "ctrl+t":
			a.login.registering = !a.login.registering
			a.login.errText = ""
			return a, nil
		case "enter":
			if a.login.submitting {
				return a, nil
			}
			username := strings.TrimSpace(a.login.username.Value())
			password := a.login.password.Value()
			if username == "" || password == "" {
				a.login.errText = "Username and password are required."
				return a, nil
			}
			a.login.errText = ""
			a.login.submitting = true
			return a, a.authenticate(username, password, a.login.registering)
		}
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	a.login.username, cmd = a.login.username.Update(msg)
	cmds = append(cmds, cmd)
	a.login.password, cmd = a.login.password.Update(msg)
	cmds = append(cmds, cmd)
	return a, tea.Batch(cmds...)
}

func (a *App) authenticate(username, password string, register bool) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		var creds api.Credentials
		var err error
		if register {
			creds, err = a.deps.Client.Register(ctx, username, password)
		} else {
			creds, err = a.deps.Client.Login(ctx, username, password)
		}
		return authResultMsg{creds: creds, err: err}
	}
}

func (a *App) viewLogin() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("Document Q&A"))
	b.WriteString("\n\n")

	action := "Sign in"
	if a.login.registering {
		action = "Create account"
	}
	b.WriteString(titleStyle.Render(action))
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("Username"))
	b.WriteString("\n")
	b.WriteString(inputStyle.Render(a.login.username.View()))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Password"))
	b.WriteString("\n")
	b.WriteString(inputStyle.Render(a.login.password.View()))
	b.WriteString("\n\n")

	if a.login.submitting {
		b.WriteString(labelStyle.Render("Signing in..."))
		b.WriteString("\n")
	}
	if a.login.errText != "" {
		b.WriteString(errorStyle.Render(a.login.errText))
		b.WriteString("\n")
	}
	if a.notice != "" {
		b.WriteString(noticeStyle.Render(a.notice))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter submit • tab next field • ctrl+t toggle login/register • ctrl+c quit"))
	return b.String()
}
