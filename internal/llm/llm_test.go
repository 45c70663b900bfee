package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "gemini-2.5-pro", config.ModelFor(TaskReadme))
	assert.Equal(t, "gemini-2.5-flash", config.ModelFor("changelog"))
	assert.Equal(t, 2*time.Minute, config.Timeout)
}

func TestModelFor_Fallback(t *testing.T) {
	config := &Config{
		Models:        map[Task]string{TaskReadme: "large"},
		FallbackModel: "fallback-model",
	}

	assert.Equal(t, "large", config.ModelFor(TaskReadme))
	assert.Equal(t, "fallback-model", config.ModelFor("changelog"))
	assert.Empty(t, (&Config{}).ModelFor(TaskReadme))
}

func TestWithModel(t *testing.T) {
	original := DefaultConfig()
	modified := original.WithModel(TaskReadme, "custom-model")

	assert.Equal(t, "custom-model", modified.ModelFor(TaskReadme))
	assert.Equal(t, "gemini-2.5-pro", original.ModelFor(TaskReadme))
	assert.Equal(t, original.Temperature, modified.Temperature)
	assert.Equal(t, original.MaxOutputTokens, modified.MaxOutputTokens)
}

func TestNewClient_MissingKey(t *testing.T) {
	_, err := NewClient(context.Background(), nil, "")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestProviderError(t *testing.T) {
	cause := errors.New("429 quota exceeded")

	tests := []struct {
		name        string
		err         *ProviderError
		wantError   string
		wantMessage string
	}{
		{
			name:        "readme",
			err:         &ProviderError{Op: "generate", Task: TaskReadme, Model: "gemini-2.5-flash", Cause: cause},
			wantError:   "AI provider generate failed (gemini-2.5-flash): 429 quota exceeded",
			wantMessage: "module README could not be generated: 429 quota exceeded",
		},
		{
			name:        "no task or model",
			err:         &ProviderError{Op: "connect", Cause: cause},
			wantError:   "AI provider connect failed: 429 quota exceeded",
			wantMessage: "documentation could not be generated: 429 quota exceeded",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, cause)
			assert.EqualError(t, tt.err, tt.wantError)
			assert.Equal(t, tt.wantMessage, tt.err.Message())
		})
	}
}

func TestStripFence(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain", input: `{"a": 1}`, expected: `{"a": 1}`},
		{name: "json fence", input: "```json\n{\"a\": 1}\n```", expected: `{"a": 1}`},
		{name: "bare fence", input: "```\n{\"a\": 1}\n```", expected: `{"a": 1}`},
		{name: "markdown fence", input: "```markdown\n# Title\n```", expected: "# Title"},
		{name: "surrounding whitespace", input: "  \n{\"a\": 1}\n ", expected: `{"a": 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripFence(tt.input))
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "bare", input: `{"a": 1}`, expected: `{"a": 1}`},
		{name: "prose around", input: `Here you go: {"a": {"b": 2}} hope it helps`, expected: `{"a": {"b": 2}}`},
		{name: "braces in strings", input: `{"s": "}{", "e": "\"}"}`, expected: `{"s": "}{", "e": "\"}"}`},
		{name: "none", input: "no json here", expected: ""},
		{name: "unbalanced", input: `{"a": 1`, expected: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractJSONObject(tt.input))
		})
	}
}
