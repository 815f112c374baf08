package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nkarpov/roombook/pkg/client"
	"github.com/nkarpov/roombook/pkg/domain"
)

// maxPageButtons is how many page buttons the pagination bar shows.
const maxPageButtons = 5

type pageLoadedMsg struct {
	page *domain.Page
	err  error
}

type reservationDeletedMsg struct {
	err error
}

type copyResultMsg struct{ err error }

// refreshMsg tells the list its backing data may be stale. seq is the
// shared monotonic counter; the list refetches only when it grows past the
// last value it observed, so repeated deliveries collapse into one fetch.
type refreshMsg struct {
	seq int
}

// reservationsModel is the paginated reservation list. The displayed window
// is only ever replaced wholesale by a fresh fetch; deletes are never
// applied to it optimistically.
type reservationsModel struct {
	api  *client.Client
	size int

	items      []domain.Reservation
	total      int
	totalPages int
	page       int
	cursor     int

	confirming  *domain.Reservation // non-nil while the delete prompt is up
	deleting    bool
	loading     bool
	lastRefresh int
	errMsg      string
	statusMsg   string
	width       int
	height      int
}

func newReservationsModel(api *client.Client, pageSize int) reservationsModel {
	return reservationsModel{
		api:     api,
		size:    pageSize,
		page:    1,
		loading: true,
	}
}

func (m reservationsModel) Init() tea.Cmd {
	return m.fetch(m.page)
}

func (m reservationsModel) fetch(page int) tea.Cmd {
	api := m.api
	size := m.size
	return func() tea.Msg {
		p, err := api.ListReservations(context.Background(), page, size)
		return pageLoadedMsg{page: p, err: err}
	}
}

func (m reservationsModel) Update(msg tea.Msg) (reservationsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case pageLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.errMsg = client.Classify(msg.err).Message
			return m, nil
		}
		m.errMsg = ""
		m.items = msg.page.Items
		m.total = msg.page.Total
		m.totalPages = msg.page.TotalPages()
		if msg.page.Page > 0 {
			m.page = msg.page.Page
		}
		// A delete elsewhere can empty the current page; fall back to the
		// previous one instead of rendering an empty page when others exist.
		if len(m.items) == 0 && m.page > 1 && m.total > 0 {
			m.page--
			m.loading = true
			return m, m.fetch(m.page)
		}
		if m.cursor >= len(m.items) {
			m.cursor = 0
		}
		return m, nil

	case refreshMsg:
		if msg.seq <= m.lastRefresh {
			return m, nil
		}
		m.lastRefresh = msg.seq
		m.loading = true
		return m, m.fetch(m.page)

	case reservationDeletedMsg:
		m.deleting = false
		m.confirming = nil
		if msg.err != nil {
			m.errMsg = client.Classify(msg.err).Message
			return m, nil
		}
		m.statusMsg = "reservation deleted"
		// Leaving the last row of a later page behind would render empty;
		// step back one page before refetching.
		if len(m.items) == 1 && m.page > 1 {
			m.page--
		}
		m.loading = true
		return m, m.fetch(m.page)

	case copyResultMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("copy failed: %v", msg.err)
		} else {
			m.statusMsg = "copied!"
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		m.statusMsg = ""
		if m.confirming != nil {
			return m.updateConfirm(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m reservationsModel) updateConfirm(msg tea.KeyMsg) (reservationsModel, tea.Cmd) {
	if m.deleting {
		return m, nil
	}
	switch msg.String() {
	case "y", "enter":
		m.deleting = true
		api := m.api
		id := m.confirming.ID
		return m, func() tea.Msg {
			return reservationDeletedMsg{err: api.DeleteReservation(context.Background(), id)}
		}
	case "n", "esc":
		m.confirming = nil
	}
	return m, nil
}

func (m reservationsModel) updateList(msg tea.KeyMsg) (reservationsModel, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "h", "left":
		if m.page > 1 && !m.loading {
			m.page--
			m.cursor = 0
			m.loading = true
			return m, m.fetch(m.page)
		}
	case "l", "right":
		if m.page < m.totalPages && !m.loading {
			m.page++
			m.cursor = 0
			m.loading = true
			return m, m.fetch(m.page)
		}
	case "d":
		if m.cursor < len(m.items) {
			r := m.items[m.cursor]
			m.confirming = &r
		}
	case "y":
		if m.cursor < len(m.items) {
			summary := reservationSummary(m.items[m.cursor])
			return m, func() tea.Msg {
				return copyResultMsg{err: clipboard.WriteAll(summary)}
			}
		}
	case "r":
		m.loading = true
		return m, m.fetch(m.page)
	}
	return m, nil
}

// selected returns the reservation under the cursor, or nil.
func (m reservationsModel) selected() *domain.Reservation {
	if m.cursor < len(m.items) {
		r := m.items[m.cursor]
		return &r
	}
	return nil
}

// pageButtons returns the page numbers to display: all of them while total
// fits in the bar, otherwise a 5-wide window around current, clamped to the
// edges.
func pageButtons(current, total int) []int {
	if total <= 0 {
		return nil
	}
	n := maxPageButtons
	if total < n {
		n = total
	}
	first := 1
	switch {
	case total <= maxPageButtons:
		first = 1
	case current <= 3:
		first = 1
	case current >= total-2:
		first = total - maxPageButtons + 1
	default:
		first = current - 2
	}
	buttons := make([]int, n)
	for i := range buttons {
		buttons[i] = first + i
	}
	return buttons
}

func reservationSummary(r domain.Reservation) string {
	loc, room := reservationPlace(r)
	s := fmt.Sprintf("%s / %s  %s - %s", loc, room, formatInstant(r.Start), formatInstant(r.End))
	if r.Responsible != nil {
		s += "  (" + r.Responsible.DisplayName() + ")"
	}
	return s
}

// reservationPlace extracts display names from the embedded room/location,
// falling back to the raw id when the projection is missing.
func reservationPlace(r domain.Reservation) (string, string) {
	loc, room := "?", fmt.Sprintf("room #%d", r.RoomID)
	if r.Room != nil {
		room = r.Room.Name
		if r.Room.Location != nil {
			loc = r.Room.Location.Name
		}
	}
	return loc, room
}

func (m reservationsModel) View() string {
	var b strings.Builder

	fmt.Fprintf(&b, " %s\n\n", sectionHeaderStyle.Render("Reservations"))

	if m.errMsg != "" {
		fmt.Fprintf(&b, " %s\n\n", errorStyle.Render(m.errMsg))
	}

	switch {
	case m.loading:
		b.WriteString(" " + dimStyle.Render("loading reservations...") + "\n")
	case len(m.items) == 0:
		b.WriteString(" " + dimStyle.Render("no reservations yet — press n to create the first one") + "\n")
	default:
		for i, r := range m.items {
			loc, room := reservationPlace(r)
			coffee := metaStyle.Render("no coffee")
			if r.Coffee.Requested {
				coffee = coffeeStyle.Render("coffee")
			}
			who := ""
			if r.Responsible != nil {
				who = r.Responsible.DisplayName()
			}
			line := fmt.Sprintf(" %s %s  %s → %s  %s  %s",
				normalStyle.Render(truncStr(loc, 18)),
				accentStyle.Render(truncStr(room, 22)),
				formatInstant(r.Start),
				formatInstant(r.End),
				dimStyle.Render(truncStr(who, 20)),
				coffee,
			)
			if i == m.cursor {
				line = selectedRowBg.Render("▸" + line)
			} else {
				line = " " + line
			}
			b.WriteString(line + "\n")
		}

		fmt.Fprintf(&b, "\n %s", metaStyle.Render(fmt.Sprintf("%d reservation(s)", m.total)))
		if m.totalPages > 1 {
			b.WriteString("  ")
			for _, p := range pageButtons(m.page, m.totalPages) {
				label := fmt.Sprintf(" %d ", p)
				if p == m.page {
					b.WriteString(selectedStyle.Render(label))
				} else {
					b.WriteString(metaStyle.Render(label))
				}
			}
			fmt.Fprintf(&b, " %s", metaStyle.Render(fmt.Sprintf("(page %d of %d)", m.page, m.totalPages)))
		}
		b.WriteString("\n")
	}

	if m.statusMsg != "" {
		fmt.Fprintf(&b, "\n %s\n", okStyle.Render(m.statusMsg))
	}

	if m.confirming != nil {
		loc, room := reservationPlace(*m.confirming)
		prompt := fmt.Sprintf("Delete the reservation of %s at %s?\nThis cannot be undone.  ", room, loc)
		label := "y confirm  n cancel"
		if m.deleting {
			label = "deleting..."
		}
		b.WriteString("\n" + overlayStyle.Render(prompt+dimStyle.Render(label)) + "\n")
	}

	return b.String()
}
