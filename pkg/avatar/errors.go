package avatar

import (
	"errors"
	"fmt"
)

// ErrStopped is resolved into every future pending at an explicit Stop.
// It is a cancellation signal, not a failure; callers check it with
// errors.Is and must not log it as an error.
var ErrStopped = errors.New("avatar: playback stopped")

// DecodeError reports invalid bytes in a single audio chunk. It is
// scoped to that chunk; the session continues.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("avatar: decode: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("avatar: decode: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// FetchError reports an unavailable audio resource. All transport
// failure modes collapse into this one outcome; the orchestrator
// responds with a duration fallback, never by aborting the session.
type FetchError struct {
	Ref string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("avatar: fetch %q: %v", e.Ref, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ModelError reports an invalid animation clip. It is raised
// synchronously before any controller state is mutated.
type ModelError struct {
	Clip   string
	Reason string
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("avatar: clip %q: %s", e.Clip, e.Reason)
}

// IsDecodeError reports whether err is chunk-scoped decode failure.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// IsFetchError reports whether err is a resource-unavailable failure.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}
