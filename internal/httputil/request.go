package httputil

import (
	"context"
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	"gocloud.dev/gcerrors"

	"github.com/getsentry/simpleperf2firefox/internal/errorutil"
	"github.com/getsentry/simpleperf2firefox/internal/storageutil"
)

// HubFromContext returns the hub of the request, or a clone of the current
// hub when the request wasn't wrapped by the sentry handler.
func HubFromContext(ctx context.Context) *sentry.Hub {
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		return hub
	}
	return sentry.CurrentHub().Clone()
}

// StatusCodeForError maps an error to the status code returned to clients.
// Transient storage errors map to 429 so clients retry.
func StatusCodeForError(err error) int {
	switch {
	case errors.Is(err, errorutil.ErrDataIntegrity):
		return http.StatusBadRequest
	case errors.Is(err, storageutil.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusTooManyRequests
	case gcerrors.Code(err) == gcerrors.FailedPrecondition:
		return http.StatusPreconditionFailed
	}
	return http.StatusInternalServerError
}
