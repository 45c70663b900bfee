package config

import "fmt"

// EnvError reports a missing or malformed environment setting.
type EnvError struct {
	Var    string
	Reason string
}

func (e *EnvError) Error() string {
	return fmt.Sprintf("%s: %s", e.Var, e.Reason)
}
