package media

import (
	"errors"
	"fmt"
)

// Static errors for the conversion pipeline. Every stage reports failures
// as one of these kinds, possibly wrapped with operation context.
var (
	// ErrInvalidMedia is returned when input bytes cannot be classified,
	// decoded, or probed. Not retried; surfaced to the caller immediately.
	ErrInvalidMedia = errors.New("invalid media: cannot classify or probe input")
	// ErrSizeBudgetExceeded is returned when all bounded search rounds are
	// exhausted without meeting the byte budget.
	ErrSizeBudgetExceeded = errors.New("size budget exceeded after all encoding rounds")
	// ErrTranscodeFailed is returned when an external codec invocation
	// exited non-zero, timed out, or produced no readable output.
	ErrTranscodeFailed = errors.New("transcode failed")
	// ErrResource is returned when temporary storage could not be
	// allocated or released.
	ErrResource = errors.New("temporary storage error")
	// ErrNotAllowed is returned when the transport's authorization decision
	// denies the request.
	ErrNotAllowed = errors.New("sender is not allowed")
)

// BudgetError wraps ErrSizeBudgetExceeded with the smallest attempt found,
// so callers can report how close the search came to the budget.
type BudgetError struct {
	// Limit is the byte budget that could not be met.
	Limit int
	// Best is the smallest attempt produced by the search.
	Best Attempt
}

func (e *BudgetError) Error() string {
	return fmt.Sprintf("%v: best attempt %dx%d = %dB over %dB limit",
		ErrSizeBudgetExceeded, e.Best.Width, e.Best.Height, e.Best.Size, e.Limit)
}

// Unwrap makes errors.Is(err, ErrSizeBudgetExceeded) hold.
func (e *BudgetError) Unwrap() error {
	return ErrSizeBudgetExceeded
}
