package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Request is one generation. JSON asks for a JSON response; the returned
// text is then the first object found in the reply.
type Request struct {
	Task   Task
	Prompt string
	JSON   bool
}

// Client generates text for the pipeline.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
	Close() error
}

// ErrMissingAPIKey is returned when no key is configured.
var ErrMissingAPIKey = errors.New("API key is required")

// Gemini implements Client over the Google Gemini API.
type Gemini struct {
	client *genai.Client
	config *Config
}

var _ Client = (*Gemini)(nil)

// NewClient connects to Gemini. A nil config uses DefaultConfig.
func NewClient(ctx context.Context, config *Config, apiKey string) (*Gemini, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if config == nil {
		config = DefaultConfig()
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, &ProviderError{Op: "connect", Cause: err}
	}
	return &Gemini{client: client, config: config}, nil
}

// Generate runs req against the task's model.
func (g *Gemini) Generate(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", errors.New("prompt is empty")
	}
	name := g.config.ModelFor(req.Task)
	fail := func(cause error) error {
		return &ProviderError{Op: "generate", Task: req.Task, Model: name, Cause: cause}
	}
	if name == "" {
		return "", fail(errors.New("no model configured"))
	}

	model := g.client.GenerativeModel(name)
	model.SetTemperature(g.config.Temperature)
	if g.config.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(g.config.MaxOutputTokens)
	}
	if req.JSON {
		model.ResponseMIMEType = "application/json"
	}

	if g.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.Timeout)
		defer cancel()
	}
	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return "", fail(err)
	}
	text, err := responseText(resp)
	if err != nil {
		return "", fail(err)
	}
	if !req.JSON {
		return text, nil
	}
	obj := ExtractJSONObject(StripFence(text))
	if obj == "" {
		return "", fail(errors.New("response holds no JSON object"))
	}
	return obj, nil
}

// Close releases the underlying connection.
func (g *Gemini) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
			return "", errors.New("prompt blocked: " + resp.PromptFeedback.BlockReason.String())
		}
		return "", errors.New("no candidates in response")
	}
	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", errors.New("response blocked by safety filters")
	}
	if candidate.Content == nil {
		return "", errors.New("no content in response")
	}
	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", errors.New("no text parts in response")
	}
	return b.String(), nil
}
