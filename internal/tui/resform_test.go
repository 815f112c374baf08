package tui

import (
	"net/http"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nkarpov/roombook/internal/catalog"
	"github.com/nkarpov/roombook/pkg/client"
	"github.com/nkarpov/roombook/pkg/domain"
)

func testCache() *catalog.Cache {
	return catalog.FromSnapshot(
		[]domain.Location{
			{ID: 1, Name: "HQ", IsActive: true},
			{ID: 2, Name: "Annex", IsActive: true},
		},
		[]domain.Room{
			{ID: 10, Name: "Aurora", LocationID: 1, Capacity: 4},
			{ID: 11, Name: "Zastrow", LocationID: 1, Capacity: 12},
			{ID: 12, Name: "Basement", LocationID: 2, Capacity: 30},
		},
	)
}

func TestSelectLocationClearsRoom(t *testing.T) {
	cache := testCache()
	var d draft
	d.selectLocation("HQ")
	d.selectRoom("Aurora", cache)
	if d.roomID != 10 {
		t.Fatalf("roomID = %d, want 10", d.roomID)
	}

	d.selectLocation("Annex")
	if d.room != "" || d.roomID != 0 {
		t.Errorf("after location change: room=%q roomID=%d, want cleared", d.room, d.roomID)
	}
}

func TestSelectRoomUnresolvableLeavesZero(t *testing.T) {
	cache := testCache()
	var d draft
	d.selectLocation("Annex")
	d.selectRoom("Aurora", cache) // Aurora lives at HQ
	if d.roomID != 0 {
		t.Errorf("roomID = %d, want 0 for cross-location pair", d.roomID)
	}
	if got := d.validate(); got != "the chosen room does not exist at this location" {
		t.Errorf("validate = %q", got)
	}
}

func TestValidateFirstFailure(t *testing.T) {
	cases := []struct {
		name string
		d    draft
		want string
	}{
		{"empty", draft{}, "location is required"},
		{"no room", draft{location: "HQ"}, "room is required"},
		{"no start", draft{location: "HQ", room: "Aurora", roomID: 10}, "start is required"},
		{"no end", draft{location: "HQ", room: "Aurora", roomID: 10, start: "2026-03-01 14:00"}, "end is required"},
		{"bad start", draft{location: "HQ", room: "Aurora", roomID: 10, start: "tomorrow", end: "2026-03-01 15:00"}, "start must look like 2006-01-02 15:04"},
		{"bad end", draft{location: "HQ", room: "Aurora", roomID: 10, start: "2026-03-01 14:00", end: "later"}, "end must look like 2006-01-02 15:04"},
		{"start equals end", draft{location: "HQ", room: "Aurora", roomID: 10, start: "2026-03-01 14:00", end: "2026-03-01 14:00"}, "end must be after start"},
		{"end before start", draft{location: "HQ", room: "Aurora", roomID: 10, start: "2026-03-01 15:00", end: "2026-03-01 14:00"}, "end must be after start"},
		{"bad qty", draft{location: "HQ", room: "Aurora", roomID: 10, start: "2026-03-01 14:00", end: "2026-03-01 15:00", coffee: true, coffeeQty: "four"}, "coffee quantity must be a number"},
		{"ok", draft{location: "HQ", room: "Aurora", roomID: 10, start: "2026-03-01 14:00", end: "2026-03-01 15:00"}, ""},
		{"ok with coffee", draft{location: "HQ", room: "Aurora", roomID: 10, start: "2026-03-01 14:00", end: "2026-03-01 15:00", coffee: true, coffeeQty: "4", coffeeDesc: "with milk"}, ""},
	}
	for _, tc := range cases {
		if got := tc.d.validate(); got != tc.want {
			t.Errorf("%s: validate = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestRequestNullsCoffeeWhenNotRequested(t *testing.T) {
	d := draft{
		location: "HQ", room: "Aurora", roomID: 10,
		start: "2026-03-01 14:00", end: "2026-03-01 15:00",
		coffee:    false,
		coffeeQty: "5", coffeeDesc: "leftover text",
	}
	req := d.request()
	if req.Coffee.Requested {
		t.Error("Requested = true, want false")
	}
	if req.Coffee.Quantity != nil || req.Coffee.Description != nil {
		t.Errorf("coffee sub-fields survived: %+v", req.Coffee)
	}
	if !req.Start.Before(req.End) {
		t.Errorf("times not ordered: %v .. %v", req.Start, req.End)
	}
}

func TestRequestCarriesCoffee(t *testing.T) {
	d := draft{
		location: "HQ", room: "Aurora", roomID: 10,
		start: "2026-03-01 14:00", end: "2026-03-01 15:00",
		coffee: true, coffeeQty: "4", coffeeDesc: "with milk",
	}
	req := d.request()
	if req.RoomID != 10 {
		t.Errorf("RoomID = %d, want 10", req.RoomID)
	}
	if !req.Coffee.Requested || req.Coffee.Quantity == nil || *req.Coffee.Quantity != 4 {
		t.Errorf("coffee = %+v", req.Coffee)
	}
	if req.Coffee.Description == nil || *req.Coffee.Description != "with milk" {
		t.Errorf("description = %v", req.Coffee.Description)
	}
}

func TestBindRoundTrip(t *testing.T) {
	qty := 3
	desc := "espresso"
	existing := &domain.Reservation{
		ID:     7,
		RoomID: 11,
		Start:  mustParseInstant(t, "2026-03-01 09:00"),
		End:    mustParseInstant(t, "2026-03-01 10:30"),
		Coffee: domain.Coffee{Requested: true, Quantity: &qty, Description: &desc},
	}

	m := newResFormModel(nil, testCache(), existing)
	m.bind()

	if m.draft.location != "HQ" || m.draft.room != "Zastrow" {
		t.Errorf("bound names = %q/%q", m.draft.location, m.draft.room)
	}

	req := m.draft.request()
	if req.RoomID != existing.RoomID {
		t.Errorf("RoomID = %d, want %d", req.RoomID, existing.RoomID)
	}
	if !req.Start.Equal(existing.Start) || !req.End.Equal(existing.End) {
		t.Errorf("times changed: %v..%v, want %v..%v", req.Start, req.End, existing.Start, existing.End)
	}
	if req.Coffee.Quantity == nil || *req.Coffee.Quantity != qty {
		t.Errorf("quantity = %v, want %d", req.Coffee.Quantity, qty)
	}
}

func TestBindStaleRoomKeepsID(t *testing.T) {
	existing := &domain.Reservation{
		ID:     8,
		RoomID: 999, // not in the snapshot
		Start:  mustParseInstant(t, "2026-03-01 09:00"),
		End:    mustParseInstant(t, "2026-03-01 10:00"),
	}
	m := newResFormModel(nil, testCache(), existing)
	m.bind()

	if m.draft.roomID != 999 {
		t.Errorf("roomID = %d, want 999", m.draft.roomID)
	}
	if m.draft.location != "" || m.draft.room != "" {
		t.Errorf("stale room got names: %q/%q", m.draft.location, m.draft.room)
	}
	// The draft is still submittable: the id stands in for the names.
	if got := m.draft.validate(); got != "" {
		t.Errorf("validate = %q, want ok", got)
	}
}

func TestFocusSkipsCoffeeFieldsWhenOff(t *testing.T) {
	m := newResFormModel(nil, testCache(), nil)
	m.loading = false
	m.bind()

	m.focus = resFieldCoffee
	if got := m.nextField(m.focus, 1); got != resFieldLocation {
		t.Errorf("next after coffee (off) = %v, want location", got)
	}

	m.draft.coffee = true
	if got := m.nextField(resFieldCoffee, 1); got != resFieldQty {
		t.Errorf("next after coffee (on) = %v, want qty", got)
	}
}

func TestConflictMessageGetsHint(t *testing.T) {
	m := newResFormModel(nil, testCache(), nil)
	m.loading = false
	m.submitting = true

	err := &client.HTTPError{
		StatusCode: http.StatusConflict,
		Body:       []byte(`{"detail":"Room already booked for this interval"}`),
	}
	m, _ = m.Update(reservationSavedMsg{err: err})

	want := "Room already booked for this interval " + client.ConflictHint
	if m.errMsg != want {
		t.Errorf("errMsg = %q, want %q", m.errMsg, want)
	}
	if m.submitting {
		t.Error("submitting still set after failure")
	}
}

func TestDraftSurvivesRejectedSubmission(t *testing.T) {
	m := newResFormModel(nil, testCache(), nil)
	m.loading = false
	m.bind()
	m.draft.selectLocation("HQ")
	m.draft.selectRoom("Aurora", m.cache)
	m.draft.start = "2026-03-01 14:00"
	m.draft.end = "2026-03-01 15:00"

	before := m.draft
	m, _ = m.Update(reservationSavedMsg{err: &client.HTTPError{StatusCode: http.StatusConflict}})
	if m.draft != before {
		t.Errorf("draft changed across rejection: %+v != %+v", m.draft, before)
	}
}

func TestCatalogFailureShowsRetry(t *testing.T) {
	m := newResFormModel(nil, testCache(), nil)
	m, _ = m.Update(catalogLoadedMsg{err: catalog.ErrUnavailable})
	if m.errMsg == "" {
		t.Error("no error message on catalog failure")
	}
	if m.loading {
		t.Error("still loading after catalog result")
	}
}

func TestCycleKeysDriveCascade(t *testing.T) {
	m := newResFormModel(nil, testCache(), nil)
	m, _ = m.Update(catalogLoadedMsg{})

	// l on the location field picks the first location alphabetically.
	m.focus = resFieldLocation
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'l'}})
	if m.draft.location != "Annex" {
		t.Fatalf("location = %q, want Annex", m.draft.location)
	}

	m.focus = resFieldRoom
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'l'}})
	if m.draft.room != "Basement" || m.draft.roomID != 12 {
		t.Fatalf("room = %q (#%d), want Basement (#12)", m.draft.room, m.draft.roomID)
	}

	// Moving the location again must drop the resolved room.
	m.focus = resFieldLocation
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'l'}})
	if m.draft.location != "HQ" || m.draft.roomID != 0 || m.draft.room != "" {
		t.Errorf("after cycle: location=%q room=%q roomID=%d", m.draft.location, m.draft.room, m.draft.roomID)
	}
}

func mustParseInstant(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := parseInstant(s)
	if err != nil {
		t.Fatalf("parseInstant(%q): %v", s, err)
	}
	return v
}
