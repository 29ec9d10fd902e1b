package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbletea"

	"github.com/mohamedaboabdallah/Q-A-using-RAG/internal/session"
	"github.com/mohamedaboabdallah/Q-A-using-RAG/internal/upload"
)

type uploadModel struct {
	picker     filepicker.Model
	bar        progress.Model
	notice     string
	progressCh chan float64
	width      int
	height     int
}

func newUploadModel() uploadModel {
	fp := filepicker.New()
	if home, err := os.UserHomeDir(); err == nil {
		fp.CurrentDirectory = home
	}
	fp.Height = 10

	return uploadModel{
		picker: fp,
		bar:    progress.New(progress.WithDefaultGradient()),
		width:  80,
		height: 24,
	}
}

func (m uploadModel) Init() tea.Cmd {
	return m.picker.Init()
}

func (m *uploadModel) setSize(width, height int) {
	m.width = width
	m.height = height
	m.bar.Width = width - 10
}

func (a *App) updateUpload(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+d":
			return a, func() tea.Msg { return logoutMsg{} }
		case "ctrl+g":
			// Shortcut into the conversation once documents exist.
			if a.deps.Store.UploadCompleted() {
				a.navigate(session.ViewChat)
				return a, nil
			}
			a.upload.notice = "Upload a document first."
			return a, nil
		}
	}

	var cmd tea.Cmd
	a.upload.picker, cmd = a.upload.picker.Update(msg)

	if didSelect, path := a.upload.picker.DidSelectFile(msg); didSelect {
		chosen := path
		return a, tea.Batch(cmd, func() tea.Msg {
			info, err := os.Stat(chosen)
			if err != nil {
				return fileChosenMsg{path: chosen, size: 0}
			}
			return fileChosenMsg{path: chosen, size: info.Size()}
		})
	}
	return a, cmd
}

func (a *App) viewUpload() string {
	var b strings.Builder

	username := ""
	if sess, ok := a.deps.Sessions.Get(); ok {
		username = sess.Username
	}
	b.WriteString(headerStyle.Render(fmt.Sprintf("Document Q&A • %s", username)))
	b.WriteString("\n\n")
	b.WriteString(titleStyle.Render("Upload a document"))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render(fmt.Sprintf("Allowed: %s, up to %d MB",
		strings.Join(a.deps.Config.AllowedExtensions, ", "),
		a.deps.Config.MaxFileSizeBytes>>20)))
	b.WriteString("\n\n")

	b.WriteString(a.upload.picker.View())
	b.WriteString("\n")

	if job, ok := a.deps.Pipeline.Job(); ok {
		b.WriteString(a.renderJob(job))
		b.WriteString("\n")
	}

	if a.upload.notice != "" {
		b.WriteString(noticeStyle.Render(a.upload.notice))
		b.WriteString("\n")
	}

	if docs, loaded := a.deps.Registry.Documents(); loaded && len(docs) > 0 {
		b.WriteString("\n")
		b.WriteString(labelStyle.Render(fmt.Sprintf("Your documents (%d):", len(docs))))
		b.WriteString("\n")
		for _, d := range docs {
			b.WriteString(labelStyle.Render("  " + d.Filename))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter select file • ctrl+g go to chat • ctrl+d log out • ctrl+c quit"))
	return b.String()
}

func (a *App) renderJob(job upload.Job) string {
	switch job.State {
	case upload.StateInvalid:
		return errorStyle.Render(job.Message)
	case upload.StateTransferring:
		return fmt.Sprintf("Uploading %s\n%s %3.0f%%", job.FileName, a.upload.bar.ViewAs(job.Progress/100), job.Progress)
	case upload.StateConfirming:
		return fmt.Sprintf("Uploading %s\n%s waiting for confirmation...", job.FileName, a.upload.bar.ViewAs(1))
	case upload.StateSucceeded:
		msg := job.Message
		if msg == "" {
			msg = "File processed successfully"
		}
		return successStyle.Render(fmt.Sprintf("%s: %s", job.FileName, msg))
	case upload.StateFailed:
		return errorStyle.Render(job.Message)
	default:
		return labelStyle.Render(fmt.Sprintf("Selected %s", job.FileName))
	}
}
