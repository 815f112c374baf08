package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nkarpov/roombook/internal/catalog"
	"github.com/nkarpov/roombook/pkg/client"
	"github.com/nkarpov/roombook/pkg/domain"
)

type resField int

const (
	resFieldLocation resField = iota
	resFieldRoom
	resFieldStart
	resFieldEnd
	resFieldCoffee
	resFieldQty
	resFieldDesc
	numResFields
)

// draft is the one reservation candidate being composed or edited. The
// location and room names exist only to drive cascading selection; roomID
// is the resolved relation that actually ships.
type draft struct {
	id         int64 // 0 = create
	location   string
	room       string
	roomID     int64 // 0 = unresolved
	start      string
	end        string
	coffee     bool
	coffeeQty  string
	coffeeDesc string
}

// selectLocation sets the chosen location and unconditionally clears the
// chosen room: room names are scoped to a location, so the previous choice
// is meaningless after a location change.
func (d *draft) selectLocation(name string) {
	d.location = name
	d.room = ""
	d.roomID = 0
}

// selectRoom resolves the room name against the current location. An
// unresolvable pair leaves roomID at zero so validation blocks submission.
func (d *draft) selectRoom(name string, cache *catalog.Cache) {
	d.room = name
	if id, ok := cache.Resolve(d.location, name); ok {
		d.roomID = id
	} else {
		d.roomID = 0
	}
}

// validate returns the first violated rule's message, or "" when the draft
// is submit-ready.
func (d *draft) validate() string {
	if d.roomID == 0 {
		if d.location == "" {
			return "location is required"
		}
		if d.room == "" {
			return "room is required"
		}
		return "the chosen room does not exist at this location"
	}
	if strings.TrimSpace(d.start) == "" {
		return "start is required"
	}
	if strings.TrimSpace(d.end) == "" {
		return "end is required"
	}
	start, err := parseInstant(strings.TrimSpace(d.start))
	if err != nil {
		return "start must look like 2006-01-02 15:04"
	}
	end, err := parseInstant(strings.TrimSpace(d.end))
	if err != nil {
		return "end must look like 2006-01-02 15:04"
	}
	if !start.Before(end) {
		return "end must be after start"
	}
	if d.coffee && strings.TrimSpace(d.coffeeQty) != "" {
		if _, err := strconv.Atoi(strings.TrimSpace(d.coffeeQty)); err != nil {
			return "coffee quantity must be a number"
		}
	}
	return ""
}

// request converts a validated draft into the wire payload. Coffee
// sub-fields are nulled out whenever coffee is not requested, never
// partially populated.
func (d *draft) request() client.ReservationRequest {
	start, _ := parseInstant(strings.TrimSpace(d.start)) //nolint:errcheck // validate ran first
	end, _ := parseInstant(strings.TrimSpace(d.end))     //nolint:errcheck // validate ran first

	coffee := domain.Coffee{Requested: d.coffee}
	if d.coffee {
		if q := strings.TrimSpace(d.coffeeQty); q != "" {
			if n, err := strconv.Atoi(q); err == nil {
				coffee.Quantity = &n
			}
		}
		if desc := strings.TrimSpace(d.coffeeDesc); desc != "" {
			coffee.Description = &desc
		}
	}
	return client.ReservationRequest{
		RoomID: d.roomID,
		Start:  start,
		End:    end,
		Coffee: coffee,
	}
}

type catalogLoadedMsg struct {
	err error
}

type reservationSavedMsg struct {
	res *domain.Reservation
	err error
}

// resFormModel is the reservation form view. It owns exactly one draft at
// a time and refreshes the catalog once per mount.
type resFormModel struct {
	api      *client.Client
	cache    *catalog.Cache
	existing *domain.Reservation

	draft      draft
	focus      resField
	loading    bool
	submitting bool
	errMsg     string
	width      int
	height     int
}

func newResFormModel(api *client.Client, cache *catalog.Cache, existing *domain.Reservation) resFormModel {
	return resFormModel{
		api:      api,
		cache:    cache,
		existing: existing,
		loading:  true,
	}
}

func (m resFormModel) Init() tea.Cmd {
	return m.loadCatalog()
}

func (m resFormModel) loadCatalog() tea.Cmd {
	cache := m.cache
	return func() tea.Msg {
		return catalogLoadedMsg{err: cache.Load(context.Background())}
	}
}

// bind initializes the draft, pre-populating from the existing reservation
// in edit mode. A room missing from the catalog snapshot falls back to the
// raw identifier so editing the other fields stays possible.
func (m *resFormModel) bind() {
	if m.existing == nil {
		m.draft = draft{}
		return
	}
	r := m.existing
	d := draft{
		id:     r.ID,
		roomID: r.RoomID,
		start:  formatInstant(r.Start),
		end:    formatInstant(r.End),
		coffee: r.Coffee.Requested,
	}
	if r.Coffee.Requested {
		if r.Coffee.Quantity != nil {
			d.coffeeQty = strconv.Itoa(*r.Coffee.Quantity)
		}
		if r.Coffee.Description != nil {
			d.coffeeDesc = *r.Coffee.Description
		}
	}
	if room, loc, ok := m.cache.RoomByID(r.RoomID); ok {
		d.location = loc.Name
		d.room = room.Name
	}
	m.draft = d
}

func (m resFormModel) Update(msg tea.Msg) (resFormModel, tea.Cmd) {
	switch msg := msg.(type) {
	case catalogLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.errMsg = "locations and rooms could not be loaded (r to retry)"
			return m, nil
		}
		m.errMsg = ""
		m.bind()
		return m, nil

	case reservationSavedMsg:
		m.submitting = false
		if msg.err != nil {
			c := client.Classify(msg.err)
			m.errMsg = c.Message
			if c.Kind == client.KindConflict && client.NeedsConflictHint(c.Message) {
				m.errMsg += " " + client.ConflictHint
			}
			// The draft survives a rejected submission.
			return m, nil
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.loading && msg.String() != "r" {
			return m, nil
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m resFormModel) updateKeys(msg tea.KeyMsg) (resFormModel, tea.Cmd) {
	key := msg.String()

	if m.errMsg != "" && key != "r" {
		m.errMsg = ""
	}

	switch key {
	case "r":
		if m.loading || !m.cache.Loaded() {
			m.loading = true
			return m, m.loadCatalog()
		}
	case "ctrl+s":
		return m.submit()
	case "tab", "down":
		m.focus = m.nextField(m.focus, 1)
		return m, nil
	case "shift+tab", "up":
		m.focus = m.nextField(m.focus, -1)
		return m, nil
	}

	switch m.focus {
	case resFieldLocation:
		if key == "h" || key == "l" {
			m.cycleLocation(key == "l")
		}
	case resFieldRoom:
		if key == "h" || key == "l" {
			m.cycleRoom(key == "l")
		}
	case resFieldCoffee:
		if key == " " || key == "enter" {
			m.draft.coffee = !m.draft.coffee
		}
	case resFieldStart:
		m.draft.start = editRune(m.draft.start, key)
	case resFieldEnd:
		m.draft.end = editRune(m.draft.end, key)
	case resFieldQty:
		m.draft.coffeeQty = editRune(m.draft.coffeeQty, key)
	case resFieldDesc:
		m.draft.coffeeDesc = editRune(m.draft.coffeeDesc, key)
	}
	return m, nil
}

// nextField advances focus, skipping the coffee sub-fields while coffee is
// not requested.
func (m resFormModel) nextField(f resField, dir int) resField {
	for {
		f = resField((int(f) + dir + int(numResFields)) % int(numResFields))
		if !m.draft.coffee && (f == resFieldQty || f == resFieldDesc) {
			continue
		}
		return f
	}
}

func (m *resFormModel) cycleLocation(forward bool) {
	names := m.cache.LocationNames()
	if len(names) == 0 {
		return
	}
	idx := -1
	for i, n := range names {
		if n == m.draft.location {
			idx = i
			break
		}
	}
	if forward {
		idx = (idx + 1) % len(names)
	} else if idx <= 0 {
		idx = len(names) - 1
	} else {
		idx--
	}
	m.draft.selectLocation(names[idx])
}

func (m *resFormModel) cycleRoom(forward bool) {
	rooms := m.cache.RoomsFor(m.draft.location)
	if len(rooms) == 0 {
		return
	}
	idx := -1
	for i, r := range rooms {
		if r.Name == m.draft.room {
			idx = i
			break
		}
	}
	if forward {
		idx = (idx + 1) % len(rooms)
	} else if idx <= 0 {
		idx = len(rooms) - 1
	} else {
		idx--
	}
	m.draft.selectRoom(rooms[idx].Name, m.cache)
}

func (m resFormModel) submit() (resFormModel, tea.Cmd) {
	if m.submitting {
		return m, nil
	}
	if msg := m.draft.validate(); msg != "" {
		m.errMsg = msg
		return m, nil
	}

	m.submitting = true
	req := m.draft.request()
	api := m.api
	id := m.draft.id
	return m, func() tea.Msg {
		var (
			res *domain.Reservation
			err error
		)
		if id != 0 {
			res, err = api.UpdateReservation(context.Background(), id, req)
		} else {
			res, err = api.CreateReservation(context.Background(), req)
		}
		return reservationSavedMsg{res: res, err: err}
	}
}

func (m resFormModel) View() string {
	var b strings.Builder

	title := "New reservation"
	if m.existing != nil {
		title = "Edit reservation"
	}
	fmt.Fprintf(&b, " %s\n\n", sectionHeaderStyle.Render(title))

	if m.loading {
		b.WriteString(" " + dimStyle.Render("loading locations and rooms...") + "\n")
		return b.String()
	}

	renderField := func(f resField, label, value, hint string) {
		cursor := " "
		style := metaStyle
		if f == m.focus {
			cursor = ">"
			style = selectedStyle
		}
		display := value
		if f == m.focus && hint == "" {
			display += "█"
		}
		if hint != "" {
			fmt.Fprintf(&b, " %s %s: %s  %s\n", cursor, style.Render(label), display, metaStyle.Render(hint))
		} else {
			fmt.Fprintf(&b, " %s %s: %s\n", cursor, style.Render(label), display)
		}
	}

	location := m.draft.location
	room := m.draft.room
	if location == "" && m.draft.roomID != 0 {
		// Stale reference outside the current snapshot.
		room = fmt.Sprintf("room #%d", m.draft.roomID)
		location = warnStyle.Render("(unknown location)")
	}
	renderField(resFieldLocation, "location", accentStyle.Render(location), "(h/l to cycle)")
	renderField(resFieldRoom, "room", accentStyle.Render(room), "(h/l to cycle)")
	renderField(resFieldStart, "start", m.draft.start, "")
	renderField(resFieldEnd, "end", m.draft.end, "")

	coffeeBox := "[ ]"
	if m.draft.coffee {
		coffeeBox = coffeeStyle.Render("[x]")
	}
	renderField(resFieldCoffee, "coffee", coffeeBox, "(space to toggle)")
	if m.draft.coffee {
		renderField(resFieldQty, "  people", m.draft.coffeeQty, "")
		renderField(resFieldDesc, "  notes", m.draft.coffeeDesc, "")
	}

	b.WriteString("\n")
	if m.submitting {
		b.WriteString(" " + dimStyle.Render("saving..."))
	} else if m.errMsg != "" {
		b.WriteString(" " + errorStyle.Render(m.errMsg))
	}

	return b.String()
}
