// Package photos searches Pexels for cover images.
package photos

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
)

const (
	DefaultPerPage = 15
	MaxPerPage     = 80

	defaultBaseURL = "https://api.pexels.com/v1"
)

// ErrNoQuery is returned for a blank search.
var ErrNoQuery = errors.New("query is required")

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("pexels api key not configured")

// Request is the fetch-pexels input.
type Request struct {
	Query   string `json:"query" validate:"required,max=200"`
	PerPage int    `json:"per_page"`
}

// ClampPerPage applies the default for zero and clamps to [1, MaxPerPage].
func ClampPerPage(n int) int {
	switch {
	case n == 0:
		return DefaultPerPage
	case n < 1:
		return 1
	case n > MaxPerPage:
		return MaxPerPage
	}
	return n
}

// Src holds the sized image URLs.
type Src struct {
	Original  string `json:"original"`
	Large     string `json:"large"`
	Medium    string `json:"medium"`
	Small     string `json:"small"`
	Landscape string `json:"landscape"`
}

type Photo struct {
	ID           int64  `json:"id"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	URL          string `json:"url"`
	Photographer string `json:"photographer"`
	Alt          string `json:"alt"`
	Src          Src    `json:"src"`
}

// Response is the fetch-pexels output.
type Response struct {
	Photos []Photo `json:"photos"`
}

// Client calls the Pexels search API.
type Client struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

func (c *Client) baseURL() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	return defaultBaseURL
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// Search runs a Pexels photo search.
func (c *Client) Search(ctx context.Context, req Request) (Response, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return Response{}, ErrNoQuery
	}
	if c.APIKey == "" {
		return Response{}, ErrNotConfigured
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", strconv.Itoa(ClampPerPage(req.PerPage)))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL()+"/search?"+params.Encode(), nil)
	if err != nil {
		return Response{}, fmt.Errorf("build pexels request: %w", err)
	}
	httpReq.Header.Set("Authorization", c.APIKey)

	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("pexels request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Response{}, fmt.Errorf("pexels returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Response{}, fmt.Errorf("decode pexels response: %w", err)
	}
	if out.Photos == nil {
		out.Photos = []Photo{}
	}
	return out, nil
}
