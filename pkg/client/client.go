// Package client is a typed client for the game library API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// APIError is a non-2xx answer.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}

// Me is the authenticated user with its permissions.
type Me struct {
	User
	Permissions []string `json:"permissions"`
}

// Entry is one game in a library.
type Entry struct {
	ID       uint      `json:"id"`
	UserID   uint      `json:"user_id"`
	GameID   uint      `json:"game_id"`
	Title    string    `json:"title"`
	ImageURL string    `json:"image_url"`
	Platform string    `json:"platform"`
	Status   string    `json:"status"`
	Rating   int       `json:"rating"`
	AddedAt  time.Time `json:"added_at"`
}

// NewEntry describes a game to add.
type NewEntry struct {
	UserID   uint   `json:"userId"`
	GameID   uint   `json:"gameId"`
	Title    string `json:"title"`
	ImageURL string `json:"image_url,omitempty"`
	Platform string `json:"platform,omitempty"`
}

// Review is a review as returned by the API.
type Review struct {
	ID             uint   `json:"id"`
	UserID         uint   `json:"user_id"`
	LibraryEntryID uint   `json:"library_entry_id"`
	Rating         int    `json:"rating"`
	Comment        string `json:"comment"`
}

type envelope struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"status_code"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
}

// Client calls the API. The session token is taken from the request context.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	var out AuthResult
	body := map[string]string{"name": name, "email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var out AuthResult
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Me(ctx context.Context) (*Me, error) {
	var out Me
	if err := c.do(ctx, http.MethodGet, "/api/users/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Library(ctx context.Context, userID uint) ([]Entry, error) {
	var out []Entry
	if err := c.do(ctx, http.MethodGet, "/api/library/"+strconv.FormatUint(uint64(userID), 10), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddToLibrary(ctx context.Context, e NewEntry) (*Entry, error) {
	var out Entry
	if err := c.do(ctx, http.MethodPost, "/api/library", e, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateEntry sends only the non-nil fields.
func (c *Client) UpdateEntry(ctx context.Context, id uint, status *string, rating *int) (*Entry, error) {
	body := map[string]interface{}{}
	if status != nil {
		body["status"] = *status
	}
	if rating != nil {
		body["rating"] = *rating
	}

	var out Entry
	if err := c.do(ctx, http.MethodPut, entryPath(id), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RemoveEntry(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, entryPath(id), nil, nil)
}

// SearchGames returns the catalog page as received.
func (c *Client) SearchGames(ctx context.Context, query string, page int) (json.RawMessage, error) {
	q := url.Values{}
	if query != "" {
		q.Set("search", query)
	}
	q.Set("page", strconv.Itoa(page))

	var out json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/games?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateReview(ctx context.Context, entryID uint, rating int, comment string) (*Review, error) {
	var out Review
	body := map[string]interface{}{"libraryEntryId": entryID, "rating": rating, "comment": comment}
	if err := c.do(ctx, http.MethodPost, "/api/reviews", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func entryPath(id uint) string {
	return "/api/library/" + strconv.FormatUint(uint64(id), 10)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s, ok := SessionFrom(ctx); ok && s.LoggedIn() {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return errors.Wrap(err, "decode response")
	}

	if resp.StatusCode >= http.StatusBadRequest {
		msg := env.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return errors.Wrap(json.Unmarshal(env.Data, out), "decode data")
}
