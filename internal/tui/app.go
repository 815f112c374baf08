package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nkarpov/roombook/internal/catalog"
	"github.com/nkarpov/roombook/internal/session"
	"github.com/nkarpov/roombook/pkg/client"
)

type view int

const (
	viewReservations view = iota
	viewLocations
	viewRooms
	viewResForm
	viewPassword
)

type appState int

const (
	stateBooting appState = iota
	stateLogin
	stateMain
)

// sessionReadyMsg carries the result of the startup session probe.
type sessionReadyMsg struct {
	err error
}

// App is the root Bubbletea model. Protected views are suppressed until the
// session probe resolves; the refresh counter is the only signal crossing
// from the form to the list.
type App struct {
	api   *client.Client
	store *session.Store
	cache *catalog.Cache

	state appState
	view  view

	login        loginModel
	reservations reservationsModel
	resform      resFormModel
	locations    locationsModel
	rooms        roomsModel
	password     passwordModel

	refreshSeq int
	pageSize   int
	helpOpen   bool
	bootErr    string
	width      int
	height     int
	version    string
}

// NewApp creates the TUI application.
func NewApp(api *client.Client, store *session.Store, pageSize int, version string) App {
	return App{
		api:          api,
		store:        store,
		cache:        catalog.New(api),
		login:        newLoginModel(store, api),
		reservations: newReservationsModel(api, pageSize),
		locations:    newLocationsModel(api),
		rooms:        newRoomsModel(api),
		password:     newPasswordModel(api),
		pageSize:     pageSize,
		version:      version,
	}
}

func (a App) Init() tea.Cmd {
	store := a.store
	return func() tea.Msg {
		return sessionReadyMsg{err: store.Initialize(context.Background())}
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Chrome: header(2) + tabs(1) + help(1) = 4 lines
		bodyMsg := tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - 4}
		a.login, _ = a.login.Update(bodyMsg)
		a.reservations, _ = a.reservations.Update(bodyMsg)
		a.resform, _ = a.resform.Update(bodyMsg)
		a.locations, _ = a.locations.Update(bodyMsg)
		a.rooms, _ = a.rooms.Update(bodyMsg)
		return a, nil

	case sessionReadyMsg:
		if msg.err != nil {
			a.state = stateLogin
			a.bootErr = "session check failed — sign in to continue"
			return a, nil
		}
		if a.store.IsAuthenticated() {
			a.state = stateMain
			a.view = viewReservations
			return a, a.reservations.Init()
		}
		a.state = stateLogin
		return a, nil

	case loggedInMsg:
		a.login, _ = a.login.Update(msg)
		if msg.err == nil {
			a.state = stateMain
			a.view = viewReservations
			a.reservations = newReservationsModel(a.api, a.pageSize)
			a.propagateSize()
			return a, a.reservations.Init()
		}
		return a, nil

	case reservationSavedMsg:
		if msg.err != nil {
			a.resform, _ = a.resform.Update(msg)
			return a, nil
		}
		// Successful mutation: bump the counter and let the list decide
		// whether the observed increase warrants a refetch.
		a.refreshSeq++
		a.view = viewReservations
		var cmd tea.Cmd
		a.reservations, cmd = a.reservations.Update(refreshMsg{seq: a.refreshSeq})
		return a, cmd

	case tea.KeyMsg:
		return a.updateKeys(msg)
	}

	return a.route(msg)
}

func (a *App) propagateSize() {
	if a.width == 0 {
		return
	}
	bodyMsg := tea.WindowSizeMsg{Width: a.width, Height: a.height - 4}
	a.reservations, _ = a.reservations.Update(bodyMsg)
	a.resform, _ = a.resform.Update(bodyMsg)
	a.locations, _ = a.locations.Update(bodyMsg)
	a.rooms, _ = a.rooms.Update(bodyMsg)
}

func (a App) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The help overlay swallows every key while open.
	if a.helpOpen {
		switch msg.String() {
		case "?", "esc", "q":
			a.helpOpen = false
		case "ctrl+c":
			return a, tea.Quit
		}
		return a, nil
	}

	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	switch a.state {
	case stateBooting:
		return a, nil

	case stateLogin:
		if msg.String() == "esc" {
			return a, tea.Quit
		}
		var cmd tea.Cmd
		a.login, cmd = a.login.Update(msg)
		return a, cmd
	}

	// Global keys apply only while no field is capturing text.
	if !a.isEditing() {
		switch msg.String() {
		case "q":
			return a, tea.Quit
		case "?":
			a.helpOpen = true
			return a, nil
		case "1":
			if a.view != viewReservations {
				a.view = viewReservations
				return a, a.reservations.Init()
			}
			return a, nil
		case "2":
			if a.view != viewLocations {
				a.view = viewLocations
				a.locations = newLocationsModel(a.api)
				a.propagateSize()
				return a, a.locations.Init()
			}
			return a, nil
		case "3":
			if a.view != viewRooms {
				a.view = viewRooms
				a.rooms = newRoomsModel(a.api)
				a.propagateSize()
				return a, a.rooms.Init()
			}
			return a, nil
		case "p":
			a.view = viewPassword
			a.password = newPasswordModel(a.api)
			return a, nil
		case "s":
			return a.signOut()
		}
	}

	switch a.view {
	case viewReservations:
		// Opening the form is the app's job: it owns the view switch.
		if a.reservations.confirming == nil && !a.reservations.loading {
			switch msg.String() {
			case "n":
				a.view = viewResForm
				a.resform = newResFormModel(a.api, a.cache, nil)
				a.propagateSize()
				return a, a.resform.Init()
			case "e", "enter":
				if sel := a.reservations.selected(); sel != nil {
					a.view = viewResForm
					a.resform = newResFormModel(a.api, a.cache, sel)
					a.propagateSize()
					return a, a.resform.Init()
				}
				return a, nil
			}
		}

	case viewResForm:
		if msg.String() == "esc" {
			a.view = viewReservations
			return a, nil
		}

	case viewPassword:
		if msg.String() == "esc" {
			a.view = viewReservations
			return a, nil
		}
	}

	return a.route(msg)
}

func (a App) signOut() (tea.Model, tea.Cmd) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	a.store.Logout(ctx)
	a.state = stateLogin
	a.view = viewReservations
	a.login = newLoginModel(a.store, a.api)
	a.bootErr = ""
	return a, nil
}

// route forwards a message to the model owning the current view.
func (a App) route(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.state {
	case stateLogin:
		a.login, cmd = a.login.Update(msg)
		return a, cmd
	case stateBooting:
		return a, nil
	}
	switch a.view {
	case viewReservations:
		a.reservations, cmd = a.reservations.Update(msg)
	case viewLocations:
		a.locations, cmd = a.locations.Update(msg)
	case viewRooms:
		a.rooms, cmd = a.rooms.Update(msg)
	case viewResForm:
		a.resform, cmd = a.resform.Update(msg)
	case viewPassword:
		a.password, cmd = a.password.Update(msg)
	}
	return a, cmd
}

func (a App) isEditing() bool {
	switch a.view {
	case viewResForm, viewPassword:
		return true
	case viewLocations:
		return a.locations.editing
	case viewRooms:
		return a.rooms.editing
	}
	return false
}

func (a App) View() string {
	logo := renderLogo()
	logoPad := (a.width - lipgloss.Width(logo)) / 2
	if logoPad < 0 {
		logoPad = 0
	}
	header := strings.Repeat(" ", logoPad) + logo

	identity := ""
	if a.state == stateMain {
		identity = a.store.Identity()
		if a.store.Mode() == session.ModeCookie {
			identity += "  " + metaStyle.Render("(cookie session)")
		}
	}
	if identity != "" {
		line := dimStyle.Render(identity)
		pad := (a.width - lipgloss.Width(line)) / 2
		if pad < 0 {
			pad = 0
		}
		header += "\n" + strings.Repeat(" ", pad) + line
	} else {
		header += "\n"
	}

	var body, help, tabBar string

	switch a.state {
	case stateBooting:
		body = "\n " + dimStyle.Render("checking session...")
		help = " " + helpEntry("ctrl+c", "quit")

	case stateLogin:
		if a.bootErr != "" {
			body = " " + errorStyle.Render(a.bootErr) + "\n\n" + a.login.View()
		} else {
			body = a.login.View()
		}
		help = " " + helpEntry("tab", "next") + "  " + helpEntry("enter", "submit") + "  " + helpEntry("ctrl+r", "register") + "  " + helpEntry("esc", "quit")

	default:
		tabBar = a.renderTabs()
		switch a.view {
		case viewReservations:
			body = a.reservations.View()
			if a.reservations.confirming != nil {
				help = " " + helpEntry("y", "confirm") + "  " + helpEntry("n", "cancel")
			} else {
				help = " " + helpEntry("j/k", "rows") + "  " + helpEntry("h/l", "page") + "  " + helpEntry("n", "new") + "  " + helpEntry("e", "edit") + "  " + helpEntry("d", "delete") + "  " + helpEntry("y", "copy") + "  " + helpEntry("?", "help") + "  " + helpEntry("q", "quit")
			}
		case viewLocations:
			body = a.locations.View()
			help = " " + helpEntry("j/k", "rows") + "  " + helpEntry("n", "new") + "  " + helpEntry("e", "edit") + "  " + helpEntry("d", "delete") + "  " + helpEntry("?", "help") + "  " + helpEntry("q", "quit")
		case viewRooms:
			body = a.rooms.View()
			help = " " + helpEntry("j/k", "rows") + "  " + helpEntry("n", "new") + "  " + helpEntry("e", "edit") + "  " + helpEntry("d", "delete") + "  " + helpEntry("?", "help") + "  " + helpEntry("q", "quit")
		case viewResForm:
			body = a.resform.View()
			help = " " + helpEntry("tab", "next") + "  " + helpEntry("h/l", "cycle") + "  " + helpEntry("ctrl+s", "submit") + "  " + helpEntry("esc", "back")
		case viewPassword:
			body = a.password.View()
			help = " " + helpEntry("tab", "next") + "  " + helpEntry("ctrl+s", "submit") + "  " + helpEntry("esc", "back")
		}
	}

	if a.helpOpen {
		body = helpView()
		help = " " + helpEntry("esc", "close")
	}

	chrome := 3
	if tabBar != "" {
		chrome = 4
	}
	body = strings.TrimRight(truncateToHeight(body, a.height-chrome), "\n")

	if tabBar != "" {
		return fmt.Sprintf("%s\n%s\n%s\n%s", header, tabBar, body, help)
	}
	return fmt.Sprintf("%s\n%s\n%s", header, body, help)
}

func (a App) renderTabs() string {
	type tabEntry struct {
		key  string
		name string
		v    view
	}
	tabs := []tabEntry{
		{"1", "Reservations", viewReservations},
		{"2", "Locations", viewLocations},
		{"3", "Rooms", viewRooms},
	}

	current := a.view
	if current == viewResForm {
		current = viewReservations
	}

	colWidth := a.width / len(tabs)
	var bar strings.Builder
	for _, t := range tabs {
		var label string
		if t.v == current {
			label = accentStyle.Render(t.key) + " " + selectedStyle.Underline(true).Render(t.name)
		} else {
			label = metaStyle.Render(t.key) + " " + dimStyle.Render(t.name)
		}
		labelWidth := lipgloss.Width(label)
		leftPad := (colWidth - labelWidth) / 2
		if leftPad < 0 {
			leftPad = 0
		}
		rightPad := colWidth - labelWidth - leftPad
		if rightPad < 0 {
			rightPad = 0
		}
		bar.WriteString(strings.Repeat(" ", leftPad) + label + strings.Repeat(" ", rightPad))
	}
	return bar.String()
}
