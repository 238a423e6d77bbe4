package airquality

import "errors"

var (
	// ErrMissingParameter is returned when a required query parameter is absent.
	ErrMissingParameter = errors.New("missing parameter")
	// ErrInvalidParameter is returned when a parameter cannot be parsed or is out of range.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrUpstreamUnavailable is returned when the upstream answers but reports a non-ok status.
	ErrUpstreamUnavailable = errors.New("upstream data unavailable")
	// ErrUpstreamError is returned for unexpected upstream status codes or payload shapes.
	ErrUpstreamError = errors.New("upstream error")
	// ErrServiceMisconfigured is returned when a required API key is not configured.
	ErrServiceMisconfigured = errors.New("service misconfigured")
	// ErrServiceError is returned when the geocoding upstream fails.
	ErrServiceError = errors.New("service error")
	// ErrNotFound is returned when a lookup yields no results.
	ErrNotFound = errors.New("not found")
	// ErrNetworkUnreachable is returned when the upstream cannot be reached.
	ErrNetworkUnreachable = errors.New("upstream unreachable")
)
