// Package functions invokes the functions service over HTTP.
package functions

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

	"github.com/arosenfeld2003/lockstep/internal/api"
	"github.com/arosenfeld2003/lockstep/internal/describe"
	"github.com/arosenfeld2003/lockstep/internal/photos"
	"github.com/arosenfeld2003/lockstep/internal/retry"
	"github.com/arosenfeld2003/lockstep/internal/summary"
	"github.com/arosenfeld2003/lockstep/internal/timeouts"
)

// Error is a non-2xx reply from a function.
type Error struct {
	Function string
	Status   int
	Message  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %d %s", e.Function, e.Status, e.Message)
}

// Client calls the functions service. Every call is bounded by Timeout.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	// Token, when set, supplies a bearer token for each call.
	Token func() (string, error)
}

func (c *Client) GenerateDescription(ctx context.Context, req describe.Request) (describe.Response, error) {
	return invoke[describe.Response](ctx, c, api.PathDescription, req)
}

func (c *Client) GenerateSummary(ctx context.Context, req summary.Request) (summary.Response, error) {
	return invoke[summary.Response](ctx, c, api.PathSummary, req)
}

func (c *Client) FetchPhotos(ctx context.Context, req photos.Request) (photos.Response, error) {
	return invoke[photos.Response](ctx, c, api.PathPhotos, req)
}

func invoke[Resp any](ctx context.Context, c *Client, path string, body any) (Resp, error) {
	name := path[strings.LastIndex(path, "/")+1:]
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = timeouts.FunctionCall
	}
	return retry.WithTimeout(ctx, timeout, name+" timed out", func(ctx context.Context) (Resp, error) {
		var out Resp
		payload, err := json.Marshal(body)
		if err != nil {
			return out, fmt.Errorf("encode %s request: %w", name, err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.BaseURL, "/")+path, bytes.NewReader(payload))
		if err != nil {
			return out, fmt.Errorf("build %s request: %w", name, err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.Token != nil {
			tok, err := c.Token()
			if err != nil {
				return out, err
			}
			if tok != "" {
				req.Header.Set("Authorization", "Bearer "+tok)
			}
		}

		hc := c.HTTPClient
		if hc == nil {
			hc = http.DefaultClient
		}
		resp, err := hc.Do(req)
		if err != nil {
			return out, fmt.Errorf("%s: %w", name, err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return out, fmt.Errorf("read %s response: %w", name, err)
		}
		if resp.StatusCode/100 != 2 {
			var e struct {
				Error string `json:"error"`
			}
			msg := strings.TrimSpace(string(data))
			if json.Unmarshal(data, &e) == nil && e.Error != "" {
				msg = e.Error
			}
			return out, &Error{Function: name, Status: resp.StatusCode, Message: msg}
		}
		if err := json.Unmarshal(data, &out); err != nil {
			return out, fmt.Errorf("decode %s response: %w", name, err)
		}
		return out, nil
	})
}

// IsStatus reports whether err is a function Error with the given status.
func IsStatus(err error, status int) bool {
	var e *Error
	return errors.As(err, &e) && e.Status == status
}
