package expand

import "errors"

// ErrNotReady is returned when Expand is called before the model lifecycle
// finished initializing. Callers should retry with backoff.
var ErrNotReady = errors.New("model not ready")

// IsNotReady reports whether err indicates the engine is still starting.
func IsNotReady(err error) bool { return errors.Is(err, ErrNotReady) }

// generationFailure wraps an error from the real strategy. It is logged and
// never returned to callers.
type generationFailure struct{ err error }

func (g generationFailure) Error() string { return "generation failure: " + g.err.Error() }

func (g generationFailure) Unwrap() error { return g.err }

var (
	errEmptyGeneration = errors.New("model returned an empty answer")
	errPromptTooLong   = errors.New("prompt template exceeds the token budget")
)
