package service

import (
	"errors"
	"net/http"

	appErrors "github.com/noah-isme/sma-result-desk/pkg/errors"
	"github.com/noah-isme/sma-result-desk/pkg/httpclient"
)

// remoteError turns a failed remote call into the error shown to the user:
// the service's own detail when it sent one, otherwise fallback. Typed
// errors such as an expired session pass through unchanged.
func remoteError(err error, fallback string) error {
	if err == nil {
		return nil
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	apiErr, ok := httpclient.AsAPIError(err)
	if !ok {
		return appErrors.Wrap(err, appErrors.ErrRemoteRejected.Code, appErrors.ErrRemoteRejected.Status, fallback)
	}
	message := fallback
	if apiErr.Detail != "" {
		message = apiErr.Detail
	}
	status := appErrors.ErrRemoteRejected.Status
	if apiErr.StatusCode >= http.StatusBadRequest && apiErr.StatusCode < http.StatusInternalServerError {
		status = apiErr.StatusCode
	}
	wrapped := appErrors.Wrap(err, appErrors.ErrRemoteRejected.Code, status, message)
	wrapped.Details = map[string]int{"remote_status": apiErr.StatusCode}
	return wrapped
}
