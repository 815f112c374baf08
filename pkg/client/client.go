package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nkarpov/roombook/pkg/domain"
)

// LoginResponse is returned by the password grant exchange.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// RegisterRequest is the payload for creating a new account.
type RegisterRequest struct {
	Email    string  `json:"email"`
	Username string  `json:"username"`
	Password string  `json:"password"`
	FullName *string `json:"full_name,omitempty"`
}

// ChangePasswordRequest is the payload for rotating the current password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// LocationRequest is the payload for creating or updating a location.
type LocationRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	IsActive    bool    `json:"is_active"`
}

// RoomRequest is the payload for creating or updating a room.
type RoomRequest struct {
	Name        string  `json:"name"`
	LocationID  int64   `json:"location_id"`
	Description *string `json:"description,omitempty"`
	Capacity    *int    `json:"capacity,omitempty"`
	IsActive    bool    `json:"is_active"`
}

// ReservationRequest is the payload for creating or updating a reservation.
// Start and End are absolute instants; callers normalize them to UTC.
type ReservationRequest struct {
	RoomID int64         `json:"room_id"`
	Start  time.Time     `json:"start"`
	End    time.Time     `json:"end"`
	Coffee domain.Coffee `json:"coffee"`
}

// Client is the reservation service API client. Exactly one credential
// transport is active: a bearer token attached to every request, or an
// ambient session cookie kept in the client's jar. The two are never mixed.
type Client struct {
	baseURL    string
	token      string
	useCookies bool
	httpClient *http.Client
	log        *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithToken arms the client with a bearer token. Pass "" to disarm.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithCookies switches the client to cookie-mode credentials: a cookie jar
// captures the session cookie set by login and replays it on every request.
func WithCookies() Option {
	return func(c *Client) {
		c.useCookies = true
		jar, err := cookiejar.New(nil)
		if err == nil {
			c.httpClient.Jar = jar
		}
	}
}

// WithLogger attaches a structured logger for request tracing.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a new API client.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the bearer token at runtime. It is a no-op in cookie
// mode, where the jar is the only credential carrier.
func (c *Client) SetToken(token string) {
	if c.useCookies {
		return
	}
	c.token = token
}

// CookieMode reports whether the client sends credentials via cookie jar.
func (c *Client) CookieMode() bool {
	return c.useCookies
}

// --- Auth ---

// Login exchanges a username and password for a session. In token mode the
// response carries the bearer token; in cookie mode the jar captures the
// session cookie and the response body is secondary.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	form.Set("grant_type", "password")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("client.Login: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("login request failed", zap.Error(err))
		return nil, fmt.Errorf("client.Login: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("client.Login: %w", readHTTPError(resp))
	}

	var out LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("client.Login: decode response: %w", err)
	}
	return &out, nil
}

// Me returns the identity bound to the current credentials.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var u domain.User
	if err := c.get(ctx, "/auth/me", &u); err != nil {
		return nil, fmt.Errorf("client.Me: %w", err)
	}
	return &u, nil
}

// Logout ends the server-side session. Only meaningful in cookie mode;
// callers treat a failure as non-fatal.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.doRequest(ctx, http.MethodPost, "/auth/logout", nil, nil); err != nil {
		return fmt.Errorf("client.Logout: %w", err)
	}
	return nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, r RegisterRequest) (*domain.User, error) {
	var u domain.User
	if err := c.post(ctx, "/auth/register", r, &u); err != nil {
		return nil, fmt.Errorf("client.Register: %w", err)
	}
	return &u, nil
}

// ChangePassword rotates the authenticated user's password.
func (c *Client) ChangePassword(ctx context.Context, r ChangePasswordRequest) error {
	if err := c.post(ctx, "/auth/change-password", r, nil); err != nil {
		return fmt.Errorf("client.ChangePassword: %w", err)
	}
	return nil
}

// --- Locations ---

// ListLocations fetches the full location set, unpaged.
func (c *Client) ListLocations(ctx context.Context) ([]domain.Location, error) {
	var locs []domain.Location
	if err := c.get(ctx, "/locations/", &locs); err != nil {
		return nil, fmt.Errorf("client.ListLocations: %w", err)
	}
	return locs, nil
}

// CreateLocation creates a new location.
func (c *Client) CreateLocation(ctx context.Context, r LocationRequest) (*domain.Location, error) {
	var loc domain.Location
	if err := c.post(ctx, "/locations/", r, &loc); err != nil {
		return nil, fmt.Errorf("client.CreateLocation: %w", err)
	}
	return &loc, nil
}

// UpdateLocation updates an existing location.
func (c *Client) UpdateLocation(ctx context.Context, id int64, r LocationRequest) (*domain.Location, error) {
	var loc domain.Location
	if err := c.doRequest(ctx, http.MethodPut, "/locations/"+formatID(id), r, &loc); err != nil {
		return nil, fmt.Errorf("client.UpdateLocation: %w", err)
	}
	return &loc, nil
}

// DeleteLocation deletes a location by id.
func (c *Client) DeleteLocation(ctx context.Context, id int64) error {
	if err := c.doRequest(ctx, http.MethodDelete, "/locations/"+formatID(id), nil, nil); err != nil {
		return fmt.Errorf("client.DeleteLocation: %w", err)
	}
	return nil
}

// --- Rooms ---

// ListRooms fetches the full room set, unpaged. Each room embeds its
// parent location.
func (c *Client) ListRooms(ctx context.Context) ([]domain.Room, error) {
	var rooms []domain.Room
	if err := c.get(ctx, "/rooms/", &rooms); err != nil {
		return nil, fmt.Errorf("client.ListRooms: %w", err)
	}
	return rooms, nil
}

// CreateRoom creates a new room.
func (c *Client) CreateRoom(ctx context.Context, r RoomRequest) (*domain.Room, error) {
	var room domain.Room
	if err := c.post(ctx, "/rooms/", r, &room); err != nil {
		return nil, fmt.Errorf("client.CreateRoom: %w", err)
	}
	return &room, nil
}

// UpdateRoom updates an existing room.
func (c *Client) UpdateRoom(ctx context.Context, id int64, r RoomRequest) (*domain.Room, error) {
	var room domain.Room
	if err := c.doRequest(ctx, http.MethodPut, "/rooms/"+formatID(id), r, &room); err != nil {
		return nil, fmt.Errorf("client.UpdateRoom: %w", err)
	}
	return &room, nil
}

// DeleteRoom deletes a room by id.
func (c *Client) DeleteRoom(ctx context.Context, id int64) error {
	if err := c.doRequest(ctx, http.MethodDelete, "/rooms/"+formatID(id), nil, nil); err != nil {
		return fmt.Errorf("client.DeleteRoom: %w", err)
	}
	return nil
}

// --- Reservations ---

// ListReservations fetches one page of reservations.
func (c *Client) ListReservations(ctx context.Context, page, size int) (*domain.Page, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("size", strconv.Itoa(size))

	var out domain.Page
	if err := c.get(ctx, "/reservations/?"+params.Encode(), &out); err != nil {
		return nil, fmt.Errorf("client.ListReservations: %w", err)
	}
	return &out, nil
}

// CreateReservation creates a new reservation.
func (c *Client) CreateReservation(ctx context.Context, r ReservationRequest) (*domain.Reservation, error) {
	var res domain.Reservation
	if err := c.post(ctx, "/reservations/", r, &res); err != nil {
		return nil, fmt.Errorf("client.CreateReservation: %w", err)
	}
	return &res, nil
}

// UpdateReservation updates an existing reservation.
func (c *Client) UpdateReservation(ctx context.Context, id int64, r ReservationRequest) (*domain.Reservation, error) {
	var res domain.Reservation
	if err := c.doRequest(ctx, http.MethodPut, "/reservations/"+formatID(id), r, &res); err != nil {
		return nil, fmt.Errorf("client.UpdateReservation: %w", err)
	}
	return &res, nil
}

// DeleteReservation deletes a reservation by id.
func (c *Client) DeleteReservation(ctx context.Context, id int64) error {
	if err := c.doRequest(ctx, http.MethodDelete, "/reservations/"+formatID(id), nil, nil); err != nil {
		return fmt.Errorf("client.DeleteReservation: %w", err)
	}
	return nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.doRequest(ctx, http.MethodPost, path, body, out)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)
	if c.token != "" && !c.useCookies {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", reqID),
			zap.Error(err))
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	c.log.Debug("request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", reqID))

	if resp.StatusCode >= 400 {
		return readHTTPError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, out)
}

func readHTTPError(resp *http.Response) error {
	body, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max error body
	if readErr != nil {
		return &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", readErr)}
	}
	return &HTTPError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body)), Body: body}
}
