package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIConfig configures the chat completions client.
type OpenAIConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// OpenAI calls the chat completions API.
type OpenAI struct {
	model      string
	configured bool
	client     openai.Client
}

// NewOpenAI builds an OpenAI provider. The client does not retry on its
// own; the router decides what happens after a failure.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = string(openai.ChatModelGPT4oMini)
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	return &OpenAI{
		model:      cfg.Model,
		configured: strings.TrimSpace(cfg.APIKey) != "",
		client:     openai.NewClient(opts...),
	}
}

func (o *OpenAI) Name() string { return o.model }

func (o *OpenAI) Generate(ctx context.Context, p Prompt) (string, error) {
	if !o.configured {
		return "", fmt.Errorf("openai: %w", ErrNotConfigured)
	}

	var messages []openai.ChatCompletionMessageParamUnion
	if p.System != "" {
		messages = append(messages, openai.SystemMessage(p.System))
	}
	messages = append(messages, openai.UserMessage(p.User))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.model),
		Messages: messages,
	}
	if p.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(p.MaxTokens))
	}
	if p.Temperature > 0 {
		params.Temperature = openai.Float(p.Temperature)
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("openai returned no text")
	}
	return text, nil
}
