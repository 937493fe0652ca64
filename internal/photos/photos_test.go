package photos

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampPerPage(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 15},
		{-3, 1},
		{1, 1},
		{40, 40},
		{80, 80},
		{500, 80},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampPerPage(tt.in), "ClampPerPage(%d)", tt.in)
	}
}

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "beach party", r.URL.Query().Get("query"))
		assert.Equal(t, "80", r.URL.Query().Get("per_page"))
		assert.Equal(t, "key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"page":1,"photos":[{"id":42,"width":4000,"height":3000,"url":"https://pexels.com/p/42","photographer":"Jo","alt":"Beach","src":{"original":"o","large":"l","medium":"m","small":"s","landscape":"ls","tiny":"t"}}]}`))
	}))
	defer srv.Close()

	c := &Client{APIKey: "key", BaseURL: srv.URL}
	got, err := c.Search(context.Background(), Request{Query: " beach party ", PerPage: 200})
	require.NoError(t, err)
	require.Len(t, got.Photos, 1)
	assert.Equal(t, int64(42), got.Photos[0].ID)
	assert.Equal(t, "ls", got.Photos[0].Src.Landscape)
}

func TestSearchErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := (&Client{APIKey: "key", BaseURL: srv.URL}).Search(context.Background(), Request{Query: "x"})
	assert.ErrorContains(t, err, "429")

	_, err = (&Client{APIKey: "key"}).Search(context.Background(), Request{Query: "  "})
	assert.True(t, errors.Is(err, ErrNoQuery))

	_, err = (&Client{}).Search(context.Background(), Request{Query: "x"})
	assert.True(t, errors.Is(err, ErrNotConfigured))
}
