package tui

import (
	"net/http"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nkarpov/roombook/internal/session"
	"github.com/nkarpov/roombook/pkg/client"
	"github.com/nkarpov/roombook/pkg/domain"
)

func testApp() App {
	api := client.New("http://unused")
	store := session.NewStore(api, session.ModeToken, "", nil)
	return NewApp(api, store, 10, "test")
}

func update(t *testing.T, a App, msg tea.Msg) (App, tea.Cmd) {
	t.Helper()
	model, cmd := a.Update(msg)
	out, ok := model.(App)
	if !ok {
		t.Fatalf("Update returned %T, want App", model)
	}
	return out, cmd
}

func TestBootGatesProtectedViews(t *testing.T) {
	a := testApp()
	if a.state != stateBooting {
		t.Fatalf("state = %v, want booting", a.state)
	}

	// Keys do nothing until the session probe resolves.
	a, cmd := update(t, a, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'1'}})
	if cmd != nil || a.state != stateBooting {
		t.Error("booting state reacted to input")
	}

	a, _ = update(t, a, sessionReadyMsg{})
	if a.state != stateLogin {
		t.Errorf("state = %v, want login for an unauthenticated session", a.state)
	}
}

func TestSuccessfulLoginEntersMain(t *testing.T) {
	a := testApp()
	a, _ = update(t, a, sessionReadyMsg{})

	a, cmd := update(t, a, loggedInMsg{})
	if a.state != stateMain || a.view != viewReservations {
		t.Errorf("state = %v view = %v", a.state, a.view)
	}
	if cmd == nil {
		t.Error("no initial fetch scheduled")
	}
}

func TestFailedLoginStaysOnLogin(t *testing.T) {
	a := testApp()
	a, _ = update(t, a, sessionReadyMsg{})

	a, _ = update(t, a, loggedInMsg{err: &client.HTTPError{StatusCode: http.StatusUnauthorized}})
	if a.state != stateLogin {
		t.Errorf("state = %v, want login", a.state)
	}
}

func TestSavedReservationBumpsRefreshAndSwitchesView(t *testing.T) {
	a := testApp()
	a, _ = update(t, a, sessionReadyMsg{})
	a, _ = update(t, a, loggedInMsg{})

	a.view = viewResForm
	a, cmd := update(t, a, reservationSavedMsg{res: &domain.Reservation{ID: 1}})
	if a.view != viewReservations {
		t.Errorf("view = %v, want reservations", a.view)
	}
	if a.refreshSeq != 1 {
		t.Errorf("refreshSeq = %d, want 1", a.refreshSeq)
	}
	if cmd == nil {
		t.Error("refresh did not schedule a fetch")
	}
	if a.reservations.lastRefresh != 1 {
		t.Errorf("lastRefresh = %d, want 1", a.reservations.lastRefresh)
	}
}

func TestFailedSaveStaysOnForm(t *testing.T) {
	a := testApp()
	a, _ = update(t, a, sessionReadyMsg{})
	a, _ = update(t, a, loggedInMsg{})

	a.view = viewResForm
	a, _ = update(t, a, reservationSavedMsg{err: &client.HTTPError{StatusCode: http.StatusConflict}})
	if a.view != viewResForm {
		t.Errorf("view = %v, want form", a.view)
	}
	if a.refreshSeq != 0 {
		t.Errorf("refreshSeq = %d, want 0", a.refreshSeq)
	}
	if a.resform.errMsg == "" {
		t.Error("form has no error message")
	}
}

func TestNewKeyOpensForm(t *testing.T) {
	a := testApp()
	a, _ = update(t, a, sessionReadyMsg{})
	a, _ = update(t, a, loggedInMsg{})
	a.reservations.loading = false

	a, cmd := update(t, a, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	if a.view != viewResForm {
		t.Errorf("view = %v, want form", a.view)
	}
	if cmd == nil {
		t.Error("form mount did not schedule a catalog load")
	}
}

func TestEscLeavesFormWithoutSaving(t *testing.T) {
	a := testApp()
	a, _ = update(t, a, sessionReadyMsg{})
	a, _ = update(t, a, loggedInMsg{})
	a.reservations.loading = false
	a, _ = update(t, a, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})

	a, _ = update(t, a, tea.KeyMsg{Type: tea.KeyEsc})
	if a.view != viewReservations {
		t.Errorf("view = %v, want reservations", a.view)
	}
	if a.refreshSeq != 0 {
		t.Errorf("refreshSeq = %d, abandoning must not refresh", a.refreshSeq)
	}
}

func TestSignOutReturnsToLogin(t *testing.T) {
	a := testApp()
	a, _ = update(t, a, sessionReadyMsg{})
	a, _ = update(t, a, loggedInMsg{})
	a.reservations.loading = false

	a, _ = update(t, a, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})
	if a.state != stateLogin {
		t.Errorf("state = %v, want login", a.state)
	}
	if a.store.IsAuthenticated() {
		t.Error("store still authenticated")
	}
}

func TestHelpOverlayTogglesAndSwallowsKeys(t *testing.T) {
	a := testApp()
	a, _ = update(t, a, sessionReadyMsg{})
	a, _ = update(t, a, loggedInMsg{})
	a.reservations.loading = false

	a, _ = update(t, a, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	if !a.helpOpen {
		t.Fatal("help did not open")
	}

	a, _ = update(t, a, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'2'}})
	if a.view != viewReservations {
		t.Error("tab switch leaked through the overlay")
	}

	a, _ = update(t, a, tea.KeyMsg{Type: tea.KeyEsc})
	if a.helpOpen {
		t.Error("esc did not close help")
	}
}
