package types

import "fmt"

// ValidationError marks a malformed or incomplete request. It is the only
// error class that crosses the core boundary; provider failures are consumed
// internally by the chains.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
