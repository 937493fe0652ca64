package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// GeminiConfig configures the Gemini generateContent endpoint.
type GeminiConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// Gemini calls Google's generateContent REST API.
type Gemini struct {
	cfg GeminiConfig
}

// NewGemini builds a Gemini provider.
func NewGemini(cfg GeminiConfig) *Gemini {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	return &Gemini{cfg: cfg}
}

func (g *Gemini) Name() string { return g.cfg.Model }

func (g *Gemini) Generate(ctx context.Context, p Prompt) (string, error) {
	if strings.TrimSpace(g.cfg.APIKey) == "" {
		return "", fmt.Errorf("gemini: %w", ErrNotConfigured)
	}

	type part struct {
		Text string `json:"text"`
	}
	type content struct {
		Role  string `json:"role,omitempty"`
		Parts []part `json:"parts"`
	}
	body := map[string]any{
		"contents": []content{{Role: "user", Parts: []part{{Text: p.User}}}},
	}
	if p.System != "" {
		body["systemInstruction"] = content{Parts: []part{{Text: p.System}}}
	}
	gen := map[string]any{}
	if p.MaxTokens > 0 {
		gen["maxOutputTokens"] = p.MaxTokens
	}
	if p.Temperature > 0 {
		gen["temperature"] = p.Temperature
	}
	if len(gen) > 0 {
		body["generationConfig"] = gen
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal gemini request: %w", err)
	}
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", strings.TrimRight(g.cfg.BaseURL, "/"), g.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.cfg.APIKey)

	res, err := g.cfg.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read gemini response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		msg := gjson.GetBytes(data, "error.message").String()
		if msg == "" {
			msg = strings.TrimSpace(string(data[:min(len(data), 4096)]))
		}
		return "", fmt.Errorf("gemini status %d: %s", res.StatusCode, msg)
	}

	text := gjson.GetBytes(data, "candidates.0.content.parts.0.text").String()
	if strings.TrimSpace(text) == "" {
		reason := gjson.GetBytes(data, "promptFeedback.blockReason").String()
		if reason != "" {
			return "", fmt.Errorf("gemini blocked prompt: %s", reason)
		}
		return "", fmt.Errorf("gemini returned no text")
	}
	return strings.TrimSpace(text), nil
}
