package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nkarpov/roombook/pkg/client"
	"github.com/nkarpov/roombook/pkg/domain"
)

type locField int

const (
	locFieldName locField = iota
	locFieldDesc
	locFieldActive
	numLocFields
)

type locationsLoadedMsg struct {
	locations []domain.Location
	err       error
}

type locationSavedMsg struct {
	loc *domain.Location
	err error
}

type locationDeletedMsg struct {
	err error
}

// locationsModel manages the location catalog: browse, create, edit and
// delete. The form edits one location at a time, inline below the list.
type locationsModel struct {
	api *client.Client

	locations []domain.Location
	cursor    int
	loading   bool

	editing    bool
	editID     int64 // 0 = create
	fields     [numLocFields]string
	active     bool
	focus      locField
	submitting bool

	confirming *domain.Location
	deleting   bool

	errMsg    string
	statusMsg string
	width     int
	height    int
}

func newLocationsModel(api *client.Client) locationsModel {
	return locationsModel{api: api, loading: true, active: true}
}

func (m locationsModel) Init() tea.Cmd {
	return m.load()
}

func (m locationsModel) load() tea.Cmd {
	api := m.api
	return func() tea.Msg {
		locs, err := api.ListLocations(context.Background())
		return locationsLoadedMsg{locations: locs, err: err}
	}
}

func (m locationsModel) Update(msg tea.Msg) (locationsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case locationsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.errMsg = client.Classify(msg.err).Message
			return m, nil
		}
		m.errMsg = ""
		m.locations = msg.locations
		if m.cursor >= len(m.locations) {
			m.cursor = 0
		}
		return m, nil

	case locationSavedMsg:
		m.submitting = false
		if msg.err != nil {
			m.errMsg = client.Classify(msg.err).Message
			return m, nil
		}
		m.editing = false
		m.statusMsg = "location saved"
		m.loading = true
		return m, m.load()

	case locationDeletedMsg:
		m.deleting = false
		m.confirming = nil
		if msg.err != nil {
			m.errMsg = client.Classify(msg.err).Message
			return m, nil
		}
		m.statusMsg = "location deleted"
		m.loading = true
		return m, m.load()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		m.statusMsg = ""
		if m.confirming != nil {
			return m.updateConfirm(msg)
		}
		if m.editing {
			return m.updateForm(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m locationsModel) updateConfirm(msg tea.KeyMsg) (locationsModel, tea.Cmd) {
	if m.deleting {
		return m, nil
	}
	switch msg.String() {
	case "y", "enter":
		m.deleting = true
		api := m.api
		id := m.confirming.ID
		return m, func() tea.Msg {
			return locationDeletedMsg{err: api.DeleteLocation(context.Background(), id)}
		}
	case "n", "esc":
		m.confirming = nil
	}
	return m, nil
}

func (m locationsModel) updateList(msg tea.KeyMsg) (locationsModel, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if m.cursor < len(m.locations)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "n":
		m.editing = true
		m.editID = 0
		m.fields = [numLocFields]string{}
		m.active = true
		m.focus = locFieldName
		m.errMsg = ""
	case "e", "enter":
		if m.cursor < len(m.locations) {
			loc := m.locations[m.cursor]
			m.editing = true
			m.editID = loc.ID
			m.fields[locFieldName] = loc.Name
			m.fields[locFieldDesc] = loc.Description
			m.active = loc.IsActive
			m.focus = locFieldName
			m.errMsg = ""
		}
	case "d":
		if m.cursor < len(m.locations) {
			loc := m.locations[m.cursor]
			m.confirming = &loc
		}
	case "r":
		m.loading = true
		return m, m.load()
	}
	return m, nil
}

func (m locationsModel) updateForm(msg tea.KeyMsg) (locationsModel, tea.Cmd) {
	if m.submitting {
		return m, nil
	}
	switch msg.String() {
	case "esc":
		m.editing = false
		m.errMsg = ""
	case "ctrl+s":
		return m.submit()
	case "tab", "down":
		m.focus = (m.focus + 1) % numLocFields
	case "shift+tab", "up":
		m.focus = (m.focus - 1 + numLocFields) % numLocFields
	default:
		if m.focus == locFieldActive {
			if msg.String() == " " || msg.String() == "enter" {
				m.active = !m.active
			}
			return m, nil
		}
		m.fields[m.focus] = editRune(m.fields[m.focus], msg.String())
	}
	return m, nil
}

func (m locationsModel) submit() (locationsModel, tea.Cmd) {
	name := strings.TrimSpace(m.fields[locFieldName])
	if name == "" {
		m.errMsg = "name is required"
		return m, nil
	}

	req := client.LocationRequest{Name: name, IsActive: m.active}
	if desc := strings.TrimSpace(m.fields[locFieldDesc]); desc != "" {
		req.Description = &desc
	}

	m.submitting = true
	api := m.api
	id := m.editID
	return m, func() tea.Msg {
		var (
			loc *domain.Location
			err error
		)
		if id != 0 {
			loc, err = api.UpdateLocation(context.Background(), id, req)
		} else {
			loc, err = api.CreateLocation(context.Background(), req)
		}
		return locationSavedMsg{loc: loc, err: err}
	}
}

func (m locationsModel) View() string {
	var b strings.Builder

	fmt.Fprintf(&b, " %s\n\n", sectionHeaderStyle.Render("Locations"))

	if m.errMsg != "" {
		fmt.Fprintf(&b, " %s\n\n", errorStyle.Render(m.errMsg))
	}

	switch {
	case m.loading:
		b.WriteString(" " + dimStyle.Render("loading locations...") + "\n")
	case len(m.locations) == 0:
		b.WriteString(" " + dimStyle.Render("no locations yet — press n to create one") + "\n")
	default:
		for i, loc := range m.locations {
			state := okStyle.Render("active")
			if !loc.IsActive {
				state = metaStyle.Render("inactive")
			}
			line := fmt.Sprintf(" %s  %s  %s",
				normalStyle.Render(truncStr(loc.Name, 28)),
				dimStyle.Render(truncStr(loc.Description, 36)),
				state,
			)
			if i == m.cursor && !m.editing {
				line = selectedRowBg.Render("▸" + line)
			} else {
				line = " " + line
			}
			b.WriteString(line + "\n")
		}
	}

	if m.editing {
		title := "New location"
		if m.editID != 0 {
			title = "Edit location"
		}
		fmt.Fprintf(&b, "\n %s\n", sectionHeaderStyle.Render(title))
		labels := [numLocFields]string{"name", "description", "active"}
		for f := locField(0); f < numLocFields; f++ {
			cursor := " "
			style := metaStyle
			if f == m.focus {
				cursor = ">"
				style = selectedStyle
			}
			value := m.fields[f]
			if f == locFieldActive {
				value = "[ ]"
				if m.active {
					value = okStyle.Render("[x]")
				}
			} else if f == m.focus {
				value += "█"
			}
			fmt.Fprintf(&b, " %s %s: %s\n", cursor, style.Render(labels[f]), value)
		}
		if m.submitting {
			b.WriteString("\n " + dimStyle.Render("saving..."))
		}
	}

	if m.statusMsg != "" {
		fmt.Fprintf(&b, "\n %s\n", okStyle.Render(m.statusMsg))
	}

	if m.confirming != nil {
		prompt := fmt.Sprintf("Delete location %s and keep its rooms orphaned?\n", m.confirming.Name)
		label := "y confirm  n cancel"
		if m.deleting {
			label = "deleting..."
		}
		b.WriteString("\n" + overlayStyle.Render(prompt+dimStyle.Render(label)) + "\n")
	}

	return b.String()
}
