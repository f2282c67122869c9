package recommend

import "errors"

// Error taxonomy for a grouping run. Only structural failures abort: invalid
// input before graph construction, and group cycles during ordering.
// Strategy/service failures and rule violations degrade the result instead.
var (
	// ErrInvalidInput indicates malformed or duplicate changed-file records.
	ErrInvalidInput = errors.New("invalid input")
	// ErrExternalService indicates the semantic service failed after
	// retries. Recovered locally; exposed for callers inspecting strategy
	// failures.
	ErrExternalService = errors.New("external service failure")
)
