package model

// ErrorResponse is the body of every JSON error the API returns.
type ErrorResponse struct {
	Error string `json:"error"`
	// RetryAfter is set on rate-limited responses, in seconds.
	RetryAfter int `json:"retry_after,omitempty"`
}
