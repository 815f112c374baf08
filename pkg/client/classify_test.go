package client

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyNetworkErrorIsTransient(t *testing.T) {
	got := Classify(errors.New("dial tcp: connection refused"))
	assert.Equal(t, KindTransient, got.Kind)
	assert.NotEmpty(t, got.Message)
}

func TestClassifyValidationJoinsEntries(t *testing.T) {
	body := []byte(`{"detail":[
		{"loc":["body","start"],"msg":"field required"},
		{"loc":["body","coffee","quantity"],"msg":"value is not a valid integer"}
	]}`)
	got := ClassifyResponse(http.StatusUnprocessableEntity, body)
	assert.Equal(t, KindValidation, got.Kind)
	assert.Equal(t,
		"body.start: field required\nbody.coffee.quantity: value is not a valid integer",
		got.Message)
}

func TestClassifyValidationPlainDetail(t *testing.T) {
	got := ClassifyResponse(http.StatusBadRequest, []byte(`{"detail":"size must be positive"}`))
	assert.Equal(t, KindValidation, got.Kind)
	assert.Equal(t, "size must be positive", got.Message)
}

func TestClassifyValidationUnparsableBody(t *testing.T) {
	got := ClassifyResponse(http.StatusUnprocessableEntity, []byte("<html>nope</html>"))
	assert.Equal(t, KindValidation, got.Kind)
	assert.NotEmpty(t, got.Message)
}

func TestClassifyConflictUsesDetail(t *testing.T) {
	got := ClassifyResponse(http.StatusConflict, []byte(`{"detail":"Room already booked for this interval"}`))
	assert.Equal(t, KindConflict, got.Kind)
	assert.Equal(t, "Room already booked for this interval", got.Message)
	assert.True(t, NeedsConflictHint(got.Message))
}

func TestClassifyConflictEmptyBodyFallback(t *testing.T) {
	got := ClassifyResponse(http.StatusConflict, nil)
	assert.Equal(t, KindConflict, got.Kind)
	assert.NotEmpty(t, got.Message)
}

func TestClassifyAuth(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		got := ClassifyResponse(status, nil)
		assert.Equal(t, KindAuth, got.Kind, "status %d", status)
	}
}

func TestClassifyServerErrorIsTransient(t *testing.T) {
	got := ClassifyResponse(http.StatusInternalServerError, []byte("boom"))
	assert.Equal(t, KindTransient, got.Kind)
}

func TestClassifyHTTPErrorUnwrapsThroughWrapping(t *testing.T) {
	inner := &HTTPError{StatusCode: http.StatusConflict, Body: []byte(`{"detail":"horário indisponível"}`)}
	wrapped := errors.Join(errors.New("client.CreateReservation"), inner)
	got := Classify(wrapped)
	assert.Equal(t, KindConflict, got.Kind)
	assert.True(t, NeedsConflictHint(got.Message))
}

func TestNeedsConflictHint(t *testing.T) {
	assert.True(t, NeedsConflictHint("Schedule CONFLICT detected"))
	assert.True(t, NeedsConflictHint("sala com reserva existente"))
	assert.False(t, NeedsConflictHint("internal error"))
	assert.False(t, NeedsConflictHint(""))
}
