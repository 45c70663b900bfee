// Package llm is the client side of the external generative-AI capability.
// Provider failures surface as *ProviderError so callers can record them
// without aborting.
package llm

import "time"

// Task names what a generation is for. Each task maps to a model.
type Task string

// TaskReadme writes a module README from its Blueprint.
const TaskReadme Task = "readme"

func (t Task) describe() string {
	if t == TaskReadme {
		return "module README"
	}
	return "documentation"
}

// Config selects models and sampling for generations. Timeout bounds one
// provider call; zero leaves only the caller's deadline.
type Config struct {
	Models          map[Task]string
	FallbackModel   string
	Temperature     float32
	MaxOutputTokens int32
	Timeout         time.Duration
}

// DefaultConfig returns the Gemini defaults.
func DefaultConfig() *Config {
	return &Config{
		Models:          map[Task]string{TaskReadme: "gemini-2.5-pro"},
		FallbackModel:   "gemini-2.5-flash",
		Temperature:     0.2,
		MaxOutputTokens: 4096,
		Timeout:         2 * time.Minute,
	}
}

// ModelFor returns the model for task, or the fallback when the task has
// none.
func (c *Config) ModelFor(task Task) string {
	if model := c.Models[task]; model != "" {
		return model
	}
	return c.FallbackModel
}

// WithModel returns a copy of c that uses model for task.
func (c *Config) WithModel(task Task, model string) *Config {
	next := *c
	next.Models = make(map[Task]string, len(c.Models)+1)
	for k, v := range c.Models {
		next.Models[k] = v
	}
	next.Models[task] = model
	return &next
}
