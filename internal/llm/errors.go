package llm

import "fmt"

// ProviderError is a failed call to the generative-AI provider. It is always
// recoverable: the caller records Message and continues.
type ProviderError struct {
	Op    string
	Task  Task
	Model string
	Cause error
}

func (e *ProviderError) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("AI provider %s failed (%s): %v", e.Op, e.Model, e.Cause)
	}
	return fmt.Sprintf("AI provider %s failed: %v", e.Op, e.Cause)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// Message is a short human-readable reason suitable for a report.
func (e *ProviderError) Message() string {
	return fmt.Sprintf("%s could not be generated: %v", e.Task.describe(), e.Cause)
}
