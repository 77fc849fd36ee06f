package prediction

import "errors"

// Sentinel errors the HTTP layer maps onto response statuses. Their messages
// are user-displayable as-is; anything else reaching the caller is an
// internal failure whose message is surfaced verbatim.
var (
	// ErrNoData is returned before any network call when there are no
	// transactions to analyze.
	ErrNoData = errors.New("no transaction data to analyze, add some transactions first")

	// ErrRateLimited is returned on an upstream 429. The call is not retried.
	ErrRateLimited = errors.New("rate limits exceeded, please try again later")

	// ErrPaymentRequired is returned on an upstream 402.
	ErrPaymentRequired = errors.New("payment required, please add funds to your AI workspace")

	// ErrUpstream is returned on any other unexpected upstream status after
	// the status and body have been logged.
	ErrUpstream = errors.New("AI gateway error")
)
