package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbletea"

	"github.com/mohamedaboabdallah/Q-A-using-RAG/internal/chat"
	"github.com/mohamedaboabdallah/Q-A-using-RAG/internal/session"
)

type chatModel struct {
	input   textarea.Model
	spin    spinner.Model
	waiting bool
	notice  string
	width   int
	height  int
}

func newChatModel() chatModel {
	ta := textarea.New()
	ta.Placeholder = "Ask about your documents..."
	ta.Focus()
	ta.CharLimit = 4000
	ta.SetWidth(80)
	ta.SetHeight(3)
	ta.Prompt = "▍ "

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return chatModel{input: ta, spin: sp, width: 80, height: 24}
}

func (m chatModel) Init() tea.Cmd {
	return textarea.Blink
}

func (m *chatModel) setSize(width, height int) {
	m.width = width
	m.height = height
	m.input.SetWidth(width - 8)
}

func (a *App) updateChat(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			return a.submitChat()
		case "ctrl+l":
			if err := a.deps.Log.Clear(); err != nil {
				a.chat.notice = fmt.Sprintf("could not clear conversation: %v", err)
			} else {
				a.chat.notice = ""
			}
			a.chat.waiting = false
			return a, nil
		case "ctrl+u":
			a.navigate(session.ViewUpload)
			return a, nil
		case "ctrl+d":
			return a, func() tea.Msg { return logoutMsg{} }
		}

	case spinner.TickMsg:
		if a.chat.waiting {
			var cmd tea.Cmd
			a.chat.spin, cmd = a.chat.spin.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	var cmd tea.Cmd
	a.chat.input, cmd = a.chat.input.Update(msg)
	return a, cmd
}

func (a *App) submitChat() (tea.Model, tea.Cmd) {
	text := a.chat.input.Value()
	turnID, err := a.deps.Log.Begin(text)
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		a.chat.notice = "Type a message first."
		return a, nil
	case errors.Is(err, chat.ErrSendPending):
		a.chat.notice = "Still waiting for the previous reply."
		return a, nil
	case err != nil:
		a.chat.notice = fmt.Sprintf("could not record message: %v", err)
		return a, nil
	}
	a.chat.notice = ""
	a.chat.waiting = true
	a.chat.input.Reset()
	return a, tea.Batch(a.sendQuery(turnID, text), a.chat.spin.Tick)
}

func (a *App) sendQuery(turnID, text string) tea.Cmd {
	return func() tea.Msg {
		reply, err := a.deps.Client.Query(context.Background(), strings.TrimSpace(text))
		return chatResultMsg{turnID: turnID, reply: reply, err: err}
	}
}

func (a *App) viewChat() string {
	var b strings.Builder

	username := ""
	if sess, ok := a.deps.Sessions.Get(); ok {
		username = sess.Username
	}
	header := fmt.Sprintf("Document Q&A • %s", username)
	if docs, loaded := a.deps.Registry.Documents(); loaded {
		header += fmt.Sprintf(" • %d document(s)", len(docs))
	}
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n\n")

	for _, msg := range a.deps.Log.Messages() {
		b.WriteString(a.renderChatMessage(msg))
		b.WriteString("\n")
	}

	if a.chat.waiting {
		b.WriteString(a.chat.spin.View())
		b.WriteString(labelStyle.Render(" Thinking..."))
		b.WriteString("\n")
	}
	if a.chat.notice != "" {
		b.WriteString(noticeStyle.Render(a.chat.notice))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(inputStyle.Render(a.chat.input.View()))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter send • ctrl+l clear • ctrl+u upload • ctrl+d log out • ctrl+c quit"))
	return b.String()
}

func (a *App) renderChatMessage(msg chat.Message) string {
	ts := msg.Timestamp.Format("15:04:05")
	switch {
	case msg.Sender == chat.SenderUser:
		return fmt.Sprintf("%s\n%s", userHeaderStyle.Render("You • "+ts), msg.Text)
	case msg.IsError:
		return fmt.Sprintf("%s\n%s", errorStyle.Render("Assistant • "+ts), errorStyle.Render(msg.Text))
	default:
		return fmt.Sprintf("%s\n%s", assistantHeaderStyle.Render("Assistant • "+ts), msg.Text)
	}
}
