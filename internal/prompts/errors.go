package prompts

import "fmt"

// NotFoundError reports a prompt file or prompt name that is not embedded.
type NotFoundError struct {
	File  string
	Name  string
	Cause error
}

func (e *NotFoundError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("prompt file %s not found", e.File)
	}
	return fmt.Sprintf("prompt %q not found in %s", e.Name, e.File)
}

func (e *NotFoundError) Unwrap() error {
	return e.Cause
}
