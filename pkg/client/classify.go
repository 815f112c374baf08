package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind partitions API failures into the outcomes the UI distinguishes.
type Kind int

const (
	// KindTransient covers network failures, timeouts and 5xx responses.
	KindTransient Kind = iota
	// KindValidation is a 422/400 with field-level detail entries.
	KindValidation
	// KindConflict is a 409 scheduling conflict.
	KindConflict
	// KindAuth is a 401/403.
	KindAuth
)

// Classification is a user-facing reading of an API failure.
type Classification struct {
	Kind    Kind
	Message string
}

// ConflictHint is appended to conflict messages that speak the backend's
// scheduling vocabulary, pointing the user at the obvious recovery.
const ConflictHint = "Choose another time range or room and try again."

// validationDetail matches the structured validation body: either a plain
// detail string or a list of {loc, msg} entries.
type validationDetail struct {
	Detail json.RawMessage `json:"detail"`
}

type validationEntry struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// Classify maps an error from any client call to a Classification. It never
// panics and always returns a usable message; errors that carry no HTTP
// response (network failure, timeout) classify as transient.
func Classify(err error) Classification {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		return Classification{Kind: KindTransient, Message: "The server could not be reached. Try again shortly."}
	}
	return ClassifyResponse(httpErr.StatusCode, httpErr.Body)
}

// ClassifyResponse maps an HTTP status and raw response body to a
// Classification.
func ClassifyResponse(status int, body []byte) Classification {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return Classification{Kind: KindAuth, Message: "Authentication failed. Check your credentials and sign in again."}

	case http.StatusConflict:
		msg := detailString(body)
		if msg == "" {
			msg = "The room is already reserved for an overlapping period."
		}
		return Classification{Kind: KindConflict, Message: msg}

	case http.StatusUnprocessableEntity, http.StatusBadRequest:
		if msg := validationMessage(body); msg != "" {
			return Classification{Kind: KindValidation, Message: msg}
		}
		if msg := detailString(body); msg != "" {
			return Classification{Kind: KindValidation, Message: msg}
		}
		return Classification{Kind: KindValidation, Message: "The server rejected the request data."}

	default:
		return Classification{Kind: KindTransient, Message: "Something went wrong on the server. Try again shortly."}
	}
}

// NeedsConflictHint reports whether a conflict message speaks scheduling
// vocabulary, in which case the caller appends ConflictHint. The word list
// mirrors what the backend actually emits, in both its languages; a
// structured error code would replace this sniffing if the backend grew one.
func NeedsConflictHint(message string) bool {
	lower := strings.ToLower(message)
	for _, word := range []string{"conflict", "booked", "reserved", "schedule", "conflito", "reserva", "horário"} {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

// detailString extracts a plain string detail field, if present.
func detailString(body []byte) string {
	var v validationDetail
	if err := json.Unmarshal(body, &v); err != nil || v.Detail == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(v.Detail, &s); err != nil {
		return ""
	}
	return s
}

// validationMessage joins structured validation entries into one message,
// one "path: problem" line per entry.
func validationMessage(body []byte) string {
	var v validationDetail
	if err := json.Unmarshal(body, &v); err != nil || v.Detail == nil {
		return ""
	}
	var entries []validationEntry
	if err := json.Unmarshal(v.Detail, &entries); err != nil || len(entries) == 0 {
		return ""
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		parts := make([]string, 0, len(e.Loc))
		for _, p := range e.Loc {
			parts = append(parts, fmt.Sprintf("%v", p))
		}
		if len(parts) > 0 {
			lines = append(lines, strings.Join(parts, ".")+": "+e.Msg)
		} else {
			lines = append(lines, e.Msg)
		}
	}
	return strings.Join(lines, "\n")
}
