package routing

import (
	"time"

	"github.com/altfuel/shipcost-router/internal/types"
)

// Attempt is the tagged outcome of trying one provider in a chain: either a
// usable quote or a skip with its reason. Making the advance-on-failure step
// a value keeps the chain walk testable in isolation.
type Attempt struct {
	Provider   string            `json:"provider"`
	Quote      *types.RouteQuote `json:"quote,omitempty"`
	SkipReason string            `json:"skip_reason,omitempty"`
	Elapsed    time.Duration     `json:"elapsed"`
}

// Success reports whether the attempt produced a usable quote.
func (a Attempt) Success() bool {
	return a.Quote != nil
}
