// Package genai provides best-effort generated phrasing for detour replies and
// re-asks using the OpenAI API. The dialogue engine treats it as strictly
// optional: a missing key, timeout, or API error falls back to scripted text.
package genai

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/debtbridge/DebtBridge/internal/models"
	"github.com/debtbridge/DebtBridge/internal/util"
)

// DefaultTimeout bounds a single generation call so a slow API can never stall
// a dialogue turn.
const DefaultTimeout = 5 * time.Second

const systemPrompt = `You are DebtBridge, a warm, plain-spoken digital debt adviser.
Rephrase the scripted line you are given so it answers the person naturally, in one
or two short sentences. Never give financial advice beyond the scripted content,
never promise outcomes, and always end by steering back to the scripted question.`

// ClientInterface is the surface the engine depends on, so tests can substitute
// a mock and a nil client disables generation entirely.
type ClientInterface interface {
	Generate(ctx context.Context, utterance string, history []models.Turn, promptHint string) (string, error)
}

// completionService is the slice of the OpenAI client the Client actually uses.
type completionService interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// New is declared on the pointer receiver upstream.
var _ completionService = (*openai.ChatCompletionService)(nil)

// Client generates replies via OpenAI chat completions.
type Client struct {
	completions completionService
	model       openai.ChatModel
	timeout     time.Duration
}

// Opts holds configuration options for the GenAI client.
type Opts struct {
	APIKey string
}

// Option defines a configuration option for the GenAI client.
type Option func(*Opts)

// WithAPIKey sets the OpenAI API key.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// NewClient initializes a Client, falling back to the OPENAI_API_KEY
// environment variable when no key option is given.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key not set")
	}
	cli := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	return &Client{
		completions: &cli.Chat.Completions,
		model:       openai.ChatModelGPT4oMini,
		timeout:     util.ParseDurationEnv("OPENAI_TIMEOUT", DefaultTimeout),
	}, nil
}

// Generate produces a conversational rendering of promptHint in response to
// utterance, given the recent transcript. The call is bounded by the client's
// timeout on top of whatever deadline ctx already carries.
func (c *Client) Generate(ctx context.Context, utterance string, history []models.Turn, promptHint string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt),
	}
	for _, turn := range history {
		switch turn.Role {
		case models.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(turn.Body))
		case models.RoleUser:
			messages = append(messages, openai.UserMessage(turn.Body))
		}
	}
	messages = append(messages,
		openai.SystemMessage("Scripted line to deliver: "+promptHint),
		openai.UserMessage(utterance),
	)

	resp, err := c.completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate reply: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("empty completion")
	}
	return text, nil
}
