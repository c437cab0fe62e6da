package ai

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a chat history as exchanged with the browser.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Retry      RetryPolicy
}

// Client talks to an OpenAI-compatible completion endpoint with a fixed
// model. It is safe for concurrent use; build one per process.
type Client struct {
	sdk   openai.Client
	Model string
	Retry RetryPolicy
}

func New(opts Options) *Client {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		// retries belong to the injected policy, not the SDK
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		base := opts.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		reqOpts = append(reqOpts, option.WithBaseURL(base))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}

	retry := opts.Retry
	if retry == nil {
		retry = NoRetry{}
	}

	return &Client{
		sdk:   openai.NewClient(reqOpts...),
		Model: opts.Model,
		Retry: retry,
	}
}

// Generate returns the full completion for a single user prompt.
func (c *Client) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	text, err := c.Retry.Do(ctx, func(ctx context.Context) (string, error) {
		return c.generateOnce(ctx, prompt, temperature)
	})
	if err != nil {
		return "", providerError("generate", err)
	}
	return text, nil
}

func (c *Client) generateOnce(ctx context.Context, prompt string, temperature float64) (string, error) {
	resp, err := c.sdk.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(temperature),
	})
	if err != nil {
		return "", providerError("generate", err)
	}
	if len(resp.Choices) == 0 {
		return "", &ProviderError{Op: "generate", Err: errors.New("provider returned no choices")}
	}
	return resp.Choices[0].Message.Content, nil
}

// StreamChat starts a streaming completion. The system prompt is sent
// first, followed by history in order. Provider failures surface from the
// returned Stream's Err, not from StreamChat itself, except when ctx is
// already done.
func (c *Client) StreamChat(ctx context.Context, system string, history []Message, temperature float64) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, providerError("stream", err)
	}

	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+1)
	msgs = append(msgs, openai.SystemMessage(system))
	for _, m := range history {
		msgs = append(msgs, toParam(m))
	}

	s := c.sdk.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.Model),
		Messages:    msgs,
		Temperature: openai.Float(temperature),
	})
	return &deltaStream{src: s}, nil
}

func toParam(m Message) openai.ChatCompletionMessageParamUnion {
	switch m.Role {
	case RoleAssistant:
		return openai.AssistantMessage(m.Content)
	case RoleSystem:
		return openai.SystemMessage(m.Content)
	default:
		return openai.UserMessage(m.Content)
	}
}
