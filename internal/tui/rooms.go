package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nkarpov/roombook/pkg/client"
	"github.com/nkarpov/roombook/pkg/domain"
)

type roomField int

const (
	roomFieldLocation roomField = iota
	roomFieldName
	roomFieldDesc
	roomFieldCapacity
	roomFieldActive
	numRoomFields
)

type roomsLoadedMsg struct {
	rooms     []domain.Room
	locations []domain.Location
	err       error
}

type roomSavedMsg struct {
	room *domain.Room
	err  error
}

type roomDeletedMsg struct {
	err error
}

// roomsModel manages the room catalog. The form binds a room to its parent
// location by id; the location name shown while cycling is a projection.
type roomsModel struct {
	api *client.Client

	rooms     []domain.Room
	locations []domain.Location
	cursor    int
	loading   bool

	editing    bool
	editID     int64 // 0 = create
	locationID int64
	name       string
	desc       string
	capacity   string
	active     bool
	focus      roomField
	submitting bool

	confirming *domain.Room
	deleting   bool

	errMsg    string
	statusMsg string
	width     int
	height    int
}

func newRoomsModel(api *client.Client) roomsModel {
	return roomsModel{api: api, loading: true, active: true}
}

func (m roomsModel) Init() tea.Cmd {
	return m.load()
}

func (m roomsModel) load() tea.Cmd {
	api := m.api
	return func() tea.Msg {
		rooms, err := api.ListRooms(context.Background())
		if err != nil {
			return roomsLoadedMsg{err: err}
		}
		locs, err := api.ListLocations(context.Background())
		if err != nil {
			return roomsLoadedMsg{err: err}
		}
		return roomsLoadedMsg{rooms: rooms, locations: locs}
	}
}

func (m roomsModel) Update(msg tea.Msg) (roomsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case roomsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.errMsg = client.Classify(msg.err).Message
			return m, nil
		}
		m.errMsg = ""
		m.rooms = msg.rooms
		m.locations = msg.locations
		if m.cursor >= len(m.rooms) {
			m.cursor = 0
		}
		return m, nil

	case roomSavedMsg:
		m.submitting = false
		if msg.err != nil {
			m.errMsg = client.Classify(msg.err).Message
			return m, nil
		}
		m.editing = false
		m.statusMsg = "room saved"
		m.loading = true
		return m, m.load()

	case roomDeletedMsg:
		m.deleting = false
		m.confirming = nil
		if msg.err != nil {
			m.errMsg = client.Classify(msg.err).Message
			return m, nil
		}
		m.statusMsg = "room deleted"
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

func (m roomsModel) updateConfirm(msg tea.KeyMsg) (roomsModel, tea.Cmd) {
	if m.deleting {
		return m, nil
	}
	switch msg.String() {
	case "y", "enter":
		m.deleting = true
		api := m.api
		id := m.confirming.ID
		return m, func() tea.Msg {
			return roomDeletedMsg{err: api.DeleteRoom(context.Background(), id)}
		}
	case "n", "esc":
		m.confirming = nil
	}
	return m, nil
}

func (m roomsModel) updateList(msg tea.KeyMsg) (roomsModel, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if m.cursor < len(m.rooms)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "n":
		m.editing = true
		m.editID = 0
		m.locationID = 0
		m.name, m.desc, m.capacity = "", "", ""
		m.active = true
		m.focus = roomFieldLocation
		m.errMsg = ""
	case "e", "enter":
		if m.cursor < len(m.rooms) {
			room := m.rooms[m.cursor]
			m.editing = true
			m.editID = room.ID
			m.locationID = room.LocationID
			m.name = room.Name
			m.desc = room.Description
			m.capacity = ""
			if room.Capacity > 0 {
				m.capacity = strconv.Itoa(room.Capacity)
			}
			m.active = room.IsActive
			m.focus = roomFieldName
			m.errMsg = ""
		}
	case "d":
		if m.cursor < len(m.rooms) {
			room := m.rooms[m.cursor]
			m.confirming = &room
		}
	case "r":
		m.loading = true
		return m, m.load()
	}
	return m, nil
}

func (m roomsModel) updateForm(msg tea.KeyMsg) (roomsModel, tea.Cmd) {
	if m.submitting {
		return m, nil
	}
	key := msg.String()
	switch key {
	case "esc":
		m.editing = false
		m.errMsg = ""
	case "ctrl+s":
		return m.submit()
	case "tab", "down":
		m.focus = (m.focus + 1) % numRoomFields
	case "shift+tab", "up":
		m.focus = (m.focus - 1 + numRoomFields) % numRoomFields
	default:
		switch m.focus {
		case roomFieldLocation:
			if key == "h" || key == "l" {
				m.cycleLocation(key == "l")
			}
		case roomFieldActive:
			if key == " " || key == "enter" {
				m.active = !m.active
			}
		case roomFieldName:
			m.name = editRune(m.name, key)
		case roomFieldDesc:
			m.desc = editRune(m.desc, key)
		case roomFieldCapacity:
			m.capacity = editRune(m.capacity, key)
		}
	}
	return m, nil
}

func (m *roomsModel) cycleLocation(forward bool) {
	if len(m.locations) == 0 {
		return
	}
	idx := -1
	for i, loc := range m.locations {
		if loc.ID == m.locationID {
			idx = i
			break
		}
	}
	if forward {
		idx = (idx + 1) % len(m.locations)
	} else if idx <= 0 {
		idx = len(m.locations) - 1
	} else {
		idx--
	}
	m.locationID = m.locations[idx].ID
}

func (m roomsModel) submit() (roomsModel, tea.Cmd) {
	name := strings.TrimSpace(m.name)
	if name == "" {
		m.errMsg = "name is required"
		return m, nil
	}
	if m.locationID == 0 {
		m.errMsg = "location is required (h/l to cycle)"
		return m, nil
	}

	req := client.RoomRequest{Name: name, LocationID: m.locationID, IsActive: m.active}
	if desc := strings.TrimSpace(m.desc); desc != "" {
		req.Description = &desc
	}
	if c := strings.TrimSpace(m.capacity); c != "" {
		n, err := strconv.Atoi(c)
		if err != nil {
			m.errMsg = "capacity must be a number"
			return m, nil
		}
		req.Capacity = &n
	}

	m.submitting = true
	api := m.api
	id := m.editID
	return m, func() tea.Msg {
		var (
			room *domain.Room
			err  error
		)
		if id != 0 {
			room, err = api.UpdateRoom(context.Background(), id, req)
		} else {
			room, err = api.CreateRoom(context.Background(), req)
		}
		return roomSavedMsg{room: room, err: err}
	}
}

func (m roomsModel) locationName(id int64) string {
	for _, loc := range m.locations {
		if loc.ID == id {
			return loc.Name
		}
	}
	return fmt.Sprintf("#%d", id)
}

func (m roomsModel) View() string {
	var b strings.Builder

	fmt.Fprintf(&b, " %s\n\n", sectionHeaderStyle.Render("Rooms"))

	if m.errMsg != "" {
		fmt.Fprintf(&b, " %s\n\n", errorStyle.Render(m.errMsg))
	}

	switch {
	case m.loading:
		b.WriteString(" " + dimStyle.Render("loading rooms...") + "\n")
	case len(m.rooms) == 0:
		b.WriteString(" " + dimStyle.Render("no rooms yet — press n to create one") + "\n")
	default:
		for i, room := range m.rooms {
			locName := m.locationName(room.LocationID)
			if room.Location != nil {
				locName = room.Location.Name
			}
			capacity := ""
			if room.Capacity > 0 {
				capacity = fmt.Sprintf("%d seats", room.Capacity)
			}
			state := okStyle.Render("active")
			if !room.IsActive {
				state = metaStyle.Render("inactive")
			}
			line := fmt.Sprintf(" %s  %s  %s  %s",
				normalStyle.Render(truncStr(locName, 20)),
				accentStyle.Render(truncStr(room.Name, 26)),
				dimStyle.Render(capacity),
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
		title := "New room"
		if m.editID != 0 {
			title = "Edit room"
		}
		fmt.Fprintf(&b, "\n %s\n", sectionHeaderStyle.Render(title))

		renderField := func(f roomField, label, value, hint string) {
			cursor := " "
			style := metaStyle
			if f == m.focus {
				cursor = ">"
				style = selectedStyle
			}
			if f != roomFieldLocation && f != roomFieldActive && f == m.focus {
				value += "█"
			}
			if hint != "" {
				fmt.Fprintf(&b, " %s %s: %s  %s\n", cursor, style.Render(label), value, metaStyle.Render(hint))
			} else {
				fmt.Fprintf(&b, " %s %s: %s\n", cursor, style.Render(label), value)
			}
		}

		locValue := ""
		if m.locationID != 0 {
			locValue = accentStyle.Render(m.locationName(m.locationID))
		}
		renderField(roomFieldLocation, "location", locValue, "(h/l to cycle)")
		renderField(roomFieldName, "name", m.name, "")
		renderField(roomFieldDesc, "description", m.desc, "")
		renderField(roomFieldCapacity, "capacity", m.capacity, "")
		activeBox := "[ ]"
		if m.active {
			activeBox = okStyle.Render("[x]")
		}
		renderField(roomFieldActive, "active", activeBox, "(space to toggle)")

		if m.submitting {
			b.WriteString("\n " + dimStyle.Render("saving..."))
		}
	}

	if m.statusMsg != "" {
		fmt.Fprintf(&b, "\n %s\n", okStyle.Render(m.statusMsg))
	}

	if m.confirming != nil {
		prompt := fmt.Sprintf("Delete room %s?\n", m.confirming.Name)
		label := "y confirm  n cancel"
		if m.deleting {
			label = "deleting..."
		}
		b.WriteString("\n" + overlayStyle.Render(prompt+dimStyle.Render(label)) + "\n")
	}

	return b.String()
}
