package manager

import (
	"errors"
	"fmt"
)

// CredentialEnv is the environment variable holding the model hub token.
const CredentialEnv = "HF_TOKEN"

// ConfigurationError reports a missing required setting at startup. It is
// terminal: a process that gets one from Initialize must not serve traffic.
type ConfigurationError struct {
	Key string
	Msg string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Key, e.Msg)
}

// IsConfiguration reports whether err is (or wraps) a ConfigurationError.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// modelLoadError records which stage failed while acquiring real handles.
// It never escapes Initialize; it is logged and turned into the mock state.
type modelLoadError struct {
	stage Stage
	err   error
}

func (e modelLoadError) Error() string { return fmt.Sprintf("model load failed at %s: %v", e.stage, e.err) }

func (e modelLoadError) Unwrap() error { return e.err }

// tooBusyError signals admission queue timeout/overflow.
type tooBusyError struct{ reason string }

func (e tooBusyError) Error() string { return "too busy: " + e.reason }

// IsTooBusy reports whether err indicates backpressure.
func IsTooBusy(err error) bool {
	var tb tooBusyError
	return errors.As(err, &tb)
}

// dependencyUnavailableError signals a missing external dependency (llama.cpp
// support, a model artifact) so callers can tell it apart from bugs.
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string { return e.msg }

// ErrTornDown is returned by an Initialize that was overtaken by Teardown.
var ErrTornDown = errors.New("manager torn down during initialization")

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err indicates a missing/failed runtime dependency.
func IsDependencyUnavailable(err error) bool {
	var de dependencyUnavailableError
	return errors.As(err, &de)
}
