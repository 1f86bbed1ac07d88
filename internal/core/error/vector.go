package errx

import "net/http"

// WrapVector maps vector index errors to AppError. Retrieval callers treat
// these as "insufficient evidence" rather than surfacing them to users.
func WrapVector(err error) error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusBadGateway, VectorErrorMessage)
}
