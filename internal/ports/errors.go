package ports

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-success response from one of the remote systems.
// Adapters return it for every status outside 200/201 so the retry policy
// can classify the failure.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Status, e.Body)
}

// IsAuth reports whether the error is a 403, which means the stored
// credential is no longer accepted and the user must re-authenticate.
func IsAuth(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusForbidden
}

// IsRetryable classifies an error for the per-item retry loops. 429 and
// any other non-auth status are retryable, as are transport failures that
// never produced a status. Only auth failures are final.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return !IsAuth(err)
}
