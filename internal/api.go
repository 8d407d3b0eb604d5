package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Client talks to the eldorado REST API. Versioned resources come back with
// an ETag header; writes carry it back as If-Match.
type Client struct {
	baseURL string
	http    *http.Client
	store   *SessionStore
}

// NewClient builds an API client bound to a session store. The store
// supplies the bearer token; the client never mutates it except through
// explicit calls (login result handling lives in the commands).
func NewClient(baseURL string, store *SessionStore, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		store:   store,
	}
}

// LoginCredentials exchanges login+password for a token pair.
func (c *Client) LoginCredentials(ctx context.Context, login, password string) (TokenPair, error) {
	body := map[string]string{"login": login, "password": password}
	var pair TokenPair
	if err := c.do(ctx, http.MethodPost, "/auth/login-credentials", body, "", &pair, nil); err != nil {
		return TokenPair{}, err
	}
	return pair, nil
}

// RefreshSession exchanges the refresh token for a new access/refresh pair.
// The stored pair is not touched here; callers swap it only on success.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (TokenPair, error) {
	body := map[string]string{"refreshToken": refreshToken}
	var pair TokenPair
	err := c.do(ctx, http.MethodPost, "/auth/refresh-session", body, "", &pair, nil)
	if err == nil {
		return pair, nil
	}

	var ve *ValidationError
	switch {
	case errors.Is(err, ErrUnauthorized), errors.As(err, &ve):
		return TokenPair{}, &RefreshError{Kind: RefreshInvalid, Err: err}
	case isServerUnavailable(err):
		return TokenPair{}, &RefreshError{Kind: RefreshServerUnavailable, Err: err}
	default:
		return TokenPair{}, &RefreshError{Kind: RefreshNetwork, Err: err}
	}
}

// Logout invalidates the session server-side. Best effort; local teardown
// happens regardless of the outcome.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, "", nil, nil)
}

// OwnAccount reads the authenticated account and its version tag.
func (c *Client) OwnAccount(ctx context.Context) (Account, string, error) {
	var acct Account
	var tag string
	if err := c.do(ctx, http.MethodGet, "/accounts/self", nil, "", &acct, &tag); err != nil {
		return Account{}, "", err
	}
	return acct, tag, nil
}

// ModifyOwnAccount writes the account back under the given version tag.
// Returns the fresh tag assigned by the server.
func (c *Client) ModifyOwnAccount(ctx context.Context, acct Account, tag string) (string, error) {
	var newTag string
	if err := c.do(ctx, http.MethodPut, "/accounts/self", acct, tag, nil, &newTag); err != nil {
		return "", err
	}
	return newTag, nil
}

// ListSectors lists the sectors of a parking.
func (c *Client) ListSectors(ctx context.Context, parkingID string) ([]Sector, error) {
	var sectors []Sector
	path := fmt.Sprintf("/parking/%s/sectors", parkingID)
	if err := c.do(ctx, http.MethodGet, path, nil, "", &sectors, nil); err != nil {
		return nil, err
	}
	return sectors, nil
}

// GetSector reads one sector and its version tag.
func (c *Client) GetSector(ctx context.Context, id string) (Sector, string, error) {
	var sector Sector
	var tag string
	path := fmt.Sprintf("/parking/sectors/get/%s", id)
	if err := c.do(ctx, http.MethodGet, path, nil, "", &sector, &tag); err != nil {
		return Sector{}, "", err
	}
	return sector, tag, nil
}

// ModifySector writes a sector back under the given version tag and returns
// the fresh tag. ErrConflict means someone else modified it since the read.
func (c *Client) ModifySector(ctx context.Context, sector Sector, tag string) (string, error) {
	var newTag string
	path := fmt.Sprintf("/parking/sectors/%s", sector.ID)
	if err := c.do(ctx, http.MethodPut, path, sector, tag, nil, &newTag); err != nil {
		return "", err
	}
	return newTag, nil
}

// ActiveReservations lists the caller's active reservations.
func (c *Client) ActiveReservations(ctx context.Context) ([]Reservation, error) {
	var reservations []Reservation
	if err := c.do(ctx, http.MethodGet, "/reservations/active/self", nil, "", &reservations, nil); err != nil {
		return nil, err
	}
	return reservations, nil
}

// do runs one request. ifMatch, when non-empty, is sent as the conditional
// precondition; etagOut, when non-nil, receives the (unquoted) ETag header.
func (c *Client) do(ctx context.Context, method, path string, body any, ifMatch string, out any, etagOut *string) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if ifMatch != "" {
		req.Header.Set("If-Match", ifMatch)
	}
	if token, ok := c.store.AccessToken(); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}

	if etagOut != nil {
		*etagOut = strings.Trim(resp.Header.Get("ETag"), `"`)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response from %s: %w", path, err)
		}
	}
	return nil
}

type apiErrorBody struct {
	Message  string   `json:"message"`
	Messages []string `json:"messages"`
}

func decodeAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var body apiErrorBody
	_ = json.Unmarshal(raw, &body)

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict, http.StatusPreconditionFailed:
		return ErrConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		messages := body.Messages
		if len(messages) == 0 && body.Message != "" {
			messages = []string{body.Message}
		}
		return &ValidationError{Messages: messages}
	}
	if resp.StatusCode >= 500 {
		return &serverError{status: resp.StatusCode, message: body.Message}
	}
	if body.Message != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, body.Message)
	}
	return fmt.Errorf("server returned %d", resp.StatusCode)
}

type serverError struct {
	status  int
	message string
}

func (e *serverError) Error() string {
	if e.message != "" {
		return fmt.Sprintf("server error %d: %s", e.status, e.message)
	}
	return fmt.Sprintf("server error %d", e.status)
}

func isServerUnavailable(err error) bool {
	var se *serverError
	return errors.As(err, &se)
}
