package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nkarpov/roombook/pkg/client"
)

type pwField int

const (
	pwFieldCurrent pwField = iota
	pwFieldNew
	pwFieldConfirm
	numPwFields
)

type passwordChangedMsg struct {
	err error
}

// passwordModel is the change-password form.
type passwordModel struct {
	api        *client.Client
	fields     [numPwFields]string
	focus      pwField
	submitting bool
	done       bool
	errMsg     string
}

func newPasswordModel(api *client.Client) passwordModel {
	return passwordModel{api: api}
}

func (m passwordModel) Init() tea.Cmd {
	return nil
}

func (m passwordModel) Update(msg tea.Msg) (passwordModel, tea.Cmd) {
	switch msg := msg.(type) {
	case passwordChangedMsg:
		m.submitting = false
		if msg.err != nil {
			m.errMsg = client.Classify(msg.err).Message
			return m, nil
		}
		m.fields = [numPwFields]string{}
		m.focus = pwFieldCurrent
		m.done = true
		return m, nil

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		m.done = false
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m passwordModel) updateKeys(msg tea.KeyMsg) (passwordModel, tea.Cmd) {
	m.errMsg = ""
	switch msg.String() {
	case "tab", "down":
		m.focus = (m.focus + 1) % numPwFields
	case "shift+tab", "up":
		m.focus = (m.focus - 1 + numPwFields) % numPwFields
	case "enter":
		if m.focus == numPwFields-1 {
			return m.submit()
		}
		m.focus++
	case "ctrl+s":
		return m.submit()
	default:
		m.fields[m.focus] = editRune(m.fields[m.focus], msg.String())
	}
	return m, nil
}

func (m passwordModel) submit() (passwordModel, tea.Cmd) {
	current := m.fields[pwFieldCurrent]
	next := m.fields[pwFieldNew]
	confirm := m.fields[pwFieldConfirm]

	switch {
	case current == "":
		m.errMsg = "current password is required"
		return m, nil
	case next != confirm:
		m.errMsg = "new passwords do not match"
		return m, nil
	case len(next) < 6:
		m.errMsg = "new password must be at least 6 characters"
		return m, nil
	}

	m.submitting = true
	api := m.api
	return m, func() tea.Msg {
		err := api.ChangePassword(context.Background(), client.ChangePasswordRequest{
			CurrentPassword: current,
			NewPassword:     next,
		})
		return passwordChangedMsg{err: err}
	}
}

func (m passwordModel) View() string {
	var b strings.Builder

	fmt.Fprintf(&b, " %s\n\n", sectionHeaderStyle.Render("Change password"))

	labels := [numPwFields]string{"current", "new", "confirm"}
	for f := pwField(0); f < numPwFields; f++ {
		b.WriteString(renderLoginField(labels[f], m.fields[f], f == m.focus, true))
	}

	b.WriteString("\n")
	switch {
	case m.submitting:
		b.WriteString(" " + dimStyle.Render("saving..."))
	case m.errMsg != "":
		b.WriteString(" " + errorStyle.Render(m.errMsg))
	case m.done:
		b.WriteString(" " + okStyle.Render("password changed"))
	}

	return b.String()
}
