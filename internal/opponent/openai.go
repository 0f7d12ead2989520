// internal/opponent/openai.go
//
// LLM opponent using the OpenAI chat completions API.

package opponent

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/robalobadob/pheasant/internal/game"
)

// DefaultModel is used when OpenAIConfig.Model is empty.
const DefaultModel = "gpt-3.5-turbo"

const systemPrompt = "You are playing a word game. You need to respond with a valid English word " +
	"that starts with the last two letters of the given word. The word must be at least %d letters " +
	"long and be a real English word. Respond with just the word, nothing else."

// OpenAIConfig configures the OpenAI provider.
type OpenAIConfig struct {
	APIKey     string
	Model      string
	BaseURL    string       // optional, e.g. a proxy or a test server
	MaxRetries int          // retries done by the SDK on 429/5xx; 0 disables
	HTTPClient *http.Client // optional
}

// OpenAI asks a chat model for the next word.
type OpenAI struct {
	client openai.Client
	model  string
}

// NewOpenAI builds the provider. APIKey is required.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("openai: api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	return &OpenAI{client: openai.NewClient(opts...), model: cfg.Model}, nil
}

func (o *OpenAI) RequestMove(ctx context.Context, req game.MoveRequest) (game.Move, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(fmt.Sprintf(systemPrompt, req.MinLength)),
			openai.UserMessage(userPrompt(req)),
		},
		Temperature: openai.Float(0.7),
		MaxTokens:   openai.Int(50),
	})
	if err != nil {
		return game.Move{}, fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return game.Move{}, errors.New("openai: empty response")
	}
	w := parseReply(resp.Choices[0].Message.Content)
	if w == "" {
		return game.NoMove(), nil
	}
	return game.Play(w), nil
}

func userPrompt(req game.MoveRequest) string {
	var b strings.Builder
	if req.RequiredPrefix == "" {
		b.WriteString("Give me any word to start the game")
	} else {
		fmt.Fprintf(&b, "Give me a word that starts with %q", req.RequiredPrefix)
	}
	if len(req.Chain) > 0 {
		b.WriteString(". Do not use any of these words: ")
		b.WriteString(strings.Join(req.Chain, ", "))
	}
	return b.String()
}

// parseReply keeps the first word of the model's answer, without punctuation.
func parseReply(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	w := strings.TrimFunc(fields[0], func(r rune) bool { return !unicode.IsLetter(r) })
	return strings.ToLower(w)
}
