package search

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredentials is returned when a provider is created without credentials
	ErrMissingCredentials = errors.New("search provider credentials are required")

	// ErrUnsupportedProvider is returned when an unsupported provider type is specified
	ErrUnsupportedProvider = errors.New("unsupported search provider")

	// ErrUnauthorized is returned when the provider rejects the credentials
	ErrUnauthorized = errors.New("search provider rejected credentials")

	// ErrNetwork wraps transport failures (DNS, connection, timeout)
	ErrNetwork = errors.New("search provider unreachable")

	// ErrRateLimited is returned when rate limits are exceeded
	ErrRateLimited = errors.New("rate limit exceeded")
)

// ProviderError is an error reported by the provider itself rather than the transport.
type ProviderError struct {
	Provider string
	Code     int
	Message  string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s error (%d): %s", e.Provider, e.Code, e.Message)
}

// Unwrap maps well-known provider codes onto the package sentinels.
func (e *ProviderError) Unwrap() error {
	switch {
	case e.Code == 401 || e.Code == 403 || (e.Code >= 40100 && e.Code < 40200) || (e.Code >= 40300 && e.Code < 40400):
		return ErrUnauthorized
	case e.Code == 429 || (e.Code >= 40200 && e.Code < 40300):
		return ErrRateLimited
	}
	return nil
}
