// Package catalog talks to the RAWG game database.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrNoAPIKey is returned when no RAWG key is configured.
	ErrNoAPIKey = errors.New("catalog api key is not configured")

	// ErrNotFound is returned when RAWG answers 404.
	ErrNotFound = errors.New("game not found in catalog")
)

// StatusError is a non-2xx upstream answer.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog responded with status %d", e.StatusCode)
}

// Game is the subset of a RAWG game the local table keeps.
type Game struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	Released        string `json:"released"`
	BackgroundImage string `json:"background_image"`
	DescriptionRaw  string `json:"description_raw"`
	Genres          []struct {
		Name string `json:"name"`
	} `json:"genres"`
	Platforms []struct {
		Platform struct {
			Name string `json:"name"`
		} `json:"platform"`
	} `json:"platforms"`
}

// GenreNames joins the genre names with ", ".
func (g Game) GenreNames() string {
	names := make([]string, 0, len(g.Genres))
	for _, genre := range g.Genres {
		names = append(names, genre.Name)
	}
	return strings.Join(names, ", ")
}

// PlatformNames joins the platform names with ", ", "Unknown" when none are listed.
func (g Game) PlatformNames() string {
	if len(g.Platforms) == 0 {
		return "Unknown"
	}
	names := make([]string, 0, len(g.Platforms))
	for _, p := range g.Platforms {
		names = append(names, p.Platform.Name)
	}
	return strings.Join(names, ", ")
}

type gameList struct {
	Count   int    `json:"count"`
	Results []Game `json:"results"`
}

// Client calls the RAWG REST API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient returns a client for baseURL, e.g. https://api.rawg.io/api.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// Search returns the raw /games page for query. An empty query lists games.
func (c *Client) Search(ctx context.Context, query string, page, pageSize int) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("page_size", strconv.Itoa(pageSize))
	if query != "" {
		params.Set("search", query)
	}

	body, err := c.get(ctx, "/games", params)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, errors.New("catalog returned invalid json")
	}
	return body, nil
}

// ListGames returns one decoded page of the game list.
func (c *Client) ListGames(ctx context.Context, page, pageSize int) ([]Game, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("page_size", strconv.Itoa(pageSize))

	body, err := c.get(ctx, "/games", params)
	if err != nil {
		return nil, err
	}

	var list gameList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("failed to decode game list: %w", err)
	}
	return list.Results, nil
}

// GetGame returns the detail record for id.
func (c *Client) GetGame(ctx context.Context, id uint) (*Game, error) {
	body, err := c.get(ctx, "/games/"+strconv.FormatUint(uint64(id), 10), url.Values{})
	if err != nil {
		return nil, err
	}

	var game Game
	if err := json.Unmarshal(body, &game); err != nil {
		return nil, fmt.Errorf("failed to decode game: %w", err)
	}
	return &game, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog response: %w", err)
	}
	return body, nil
}
