package types

import "errors"

var (
	// ErrServiceUnavailable marks request-level failures (timeouts, refused
	// connections). The current attempt is dropped; the next tick retries.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrServiceRejected marks validated failures: non-2xx responses, explicit
	// error payloads or an unexpected response shape. Treated as "no
	// opportunity this round".
	ErrServiceRejected = errors.New("service rejected request")

	// ErrConfiguration is fatal at startup.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrFeePriceUnavailable is returned when execution is attempted before
	// the fee monitor has produced its first sample.
	ErrFeePriceUnavailable = errors.New("fee price not yet sampled")

	// ErrFeePriceStale is returned only when a maximum fee price age is
	// configured and the latest sample is older than it.
	ErrFeePriceStale = errors.New("fee price sample is stale")

	// ErrDuplicateSubmission is returned when an identical payload pair was
	// already submitted by this process.
	ErrDuplicateSubmission = errors.New("payload pair already submitted")
)
