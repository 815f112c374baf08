package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nkarpov/roombook/internal/session"
	"github.com/nkarpov/roombook/pkg/client"
	"github.com/nkarpov/roombook/pkg/domain"
)

type loginField int

const (
	loginFieldUsername loginField = iota
	loginFieldPassword
	numLoginFields
)

type regField int

const (
	regFieldEmail regField = iota
	regFieldUsername
	regFieldFullName
	regFieldPassword
	regFieldConfirm
	numRegFields
)

type loggedInMsg struct {
	err error
}

type registeredMsg struct {
	user *domain.User
	err  error
}

// loginModel is the unauthenticated entry view: a sign-in form, with a
// registration form one keypress away.
type loginModel struct {
	store *session.Store
	api   *client.Client

	registering bool
	fields      [numLoginFields]string
	regFields   [numRegFields]string
	focus       int
	submitting  bool
	errMsg      string
	statusMsg   string
	width       int
	height      int
}

func newLoginModel(store *session.Store, api *client.Client) loginModel {
	return loginModel{store: store, api: api}
}

func (m loginModel) Init() tea.Cmd {
	return nil
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case loggedInMsg:
		m.submitting = false
		if msg.err != nil {
			if errors.Is(msg.err, session.ErrAuthentication) {
				m.errMsg = "authentication failed — check username and password"
			} else {
				m.errMsg = client.Classify(msg.err).Message
			}
			return m, nil
		}
		return m, nil

	case registeredMsg:
		m.submitting = false
		if msg.err != nil {
			m.errMsg = client.Classify(msg.err).Message
			return m, nil
		}
		m.registering = false
		m.focus = 0
		m.fields[loginFieldUsername] = msg.user.Username
		m.fields[loginFieldPassword] = ""
		m.statusMsg = "account created — sign in"
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		m.statusMsg = ""
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m loginModel) updateKeys(msg tea.KeyMsg) (loginModel, tea.Cmd) {
	key := msg.String()
	m.errMsg = ""

	numFields := int(numLoginFields)
	if m.registering {
		numFields = int(numRegFields)
	}

	switch key {
	case "tab", "down":
		m.focus = (m.focus + 1) % numFields
		return m, nil
	case "shift+tab", "up":
		m.focus = (m.focus - 1 + numFields) % numFields
		return m, nil
	case "ctrl+r":
		m.registering = !m.registering
		m.focus = 0
		return m, nil
	case "enter":
		if m.focus == numFields-1 {
			return m.submit()
		}
		m.focus++
		return m, nil
	case "ctrl+s":
		return m.submit()
	}

	if m.registering {
		m.regFields[m.focus] = editRune(m.regFields[m.focus], key)
	} else {
		m.fields[m.focus] = editRune(m.fields[m.focus], key)
	}
	return m, nil
}

func (m loginModel) submit() (loginModel, tea.Cmd) {
	if m.registering {
		return m.submitRegister()
	}

	username := strings.TrimSpace(m.fields[loginFieldUsername])
	password := m.fields[loginFieldPassword]
	if username == "" || password == "" {
		m.errMsg = "username and password are required"
		return m, nil
	}

	m.submitting = true
	store := m.store
	return m, func() tea.Msg {
		return loggedInMsg{err: store.Login(context.Background(), username, password)}
	}
}

func (m loginModel) submitRegister() (loginModel, tea.Cmd) {
	email := strings.TrimSpace(m.regFields[regFieldEmail])
	username := strings.TrimSpace(m.regFields[regFieldUsername])
	password := m.regFields[regFieldPassword]
	confirm := m.regFields[regFieldConfirm]

	switch {
	case email == "" || username == "":
		m.errMsg = "email and username are required"
		return m, nil
	case password != confirm:
		m.errMsg = "passwords do not match"
		return m, nil
	case len(password) < 6:
		m.errMsg = "password must be at least 6 characters"
		return m, nil
	}

	req := client.RegisterRequest{Email: email, Username: username, Password: password}
	if full := strings.TrimSpace(m.regFields[regFieldFullName]); full != "" {
		req.FullName = &full
	}

	m.submitting = true
	api := m.api
	return m, func() tea.Msg {
		user, err := api.Register(context.Background(), req)
		return registeredMsg{user: user, err: err}
	}
}

func (m loginModel) View() string {
	var b strings.Builder

	if m.registering {
		fmt.Fprintf(&b, " %s\n\n", sectionHeaderStyle.Render("Create account"))
		labels := [numRegFields]string{"email", "username", "full name", "password", "confirm"}
		for f := regField(0); f < numRegFields; f++ {
			b.WriteString(renderLoginField(labels[f], m.regFields[f], int(f) == m.focus, f == regFieldPassword || f == regFieldConfirm))
		}
	} else {
		fmt.Fprintf(&b, " %s\n\n", sectionHeaderStyle.Render("Sign in"))
		labels := [numLoginFields]string{"username", "password"}
		for f := loginField(0); f < numLoginFields; f++ {
			b.WriteString(renderLoginField(labels[f], m.fields[f], int(f) == m.focus, f == loginFieldPassword))
		}
	}

	b.WriteString("\n")
	switch {
	case m.submitting:
		b.WriteString(" " + dimStyle.Render("signing in..."))
	case m.errMsg != "":
		b.WriteString(" " + errorStyle.Render(m.errMsg))
	case m.statusMsg != "":
		b.WriteString(" " + okStyle.Render(m.statusMsg))
	}

	return b.String()
}

func renderLoginField(label, value string, focused, masked bool) string {
	cursor := " "
	style := metaStyle
	if focused {
		cursor = inputPromptStyle.Render(">")
		style = selectedStyle
	}
	display := value
	if masked {
		display = strings.Repeat("*", len([]rune(value)))
	}
	if focused {
		display += "█"
	} else if display == "" {
		display = inputPlaceholderStyle.Render("·")
	}
	return fmt.Sprintf(" %s %s: %s\n", cursor, style.Render(fmt.Sprintf("%-9s", label)), display)
}
