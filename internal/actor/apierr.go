package actor

import (
	"errors"

	"github.com/nexuscore/agentruntime/internal/apierr"
)

// ToAPIError maps the actor package's sentinel errors onto the closed
// apierr.Code enum, for whatever boundary translates an actor error into a
// response sent to an external caller. Any other error, including an
// *apierr.Error carrying a different code, maps to CodeInternalError.
func ToAPIError(err error) *apierr.Error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrSessionClosed):
		return apierr.New(apierr.CodeSessionClosed, "this session is no longer active", err)
	case errors.Is(err, ErrQueueFull):
		return apierr.New(apierr.CodeServiceUnavailable, "this session is busy, try again shortly", err).
			WithHint("retry after a short backoff")
	case errors.Is(err, ErrResponseTimeout):
		return apierr.New(apierr.CodeRequestTimeout, "the request took too long to complete", err)
	default:
		return apierr.New(apierr.CodeInternalError, "an internal error occurred", err)
	}
}
