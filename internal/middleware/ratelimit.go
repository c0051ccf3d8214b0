package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/capitalize-ai/announcement-agent/internal/model"
)

// RateLimit creates rate limiting middleware keyed by user when
// authenticated and by client IP otherwise.
func RateLimit(requestLimit int, windowLength time.Duration) func(http.Handler) http.Handler {
	retrySeconds := int(windowLength.Seconds())
	retryAfter := strconv.Itoa(retrySeconds)

	return httprate.Limit(
		requestLimit,
		windowLength,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			if userID := GetUserID(r.Context()); userID != "" {
				return "user:" + userID, nil
			}
			ip, err := httprate.KeyByIP(r)
			return "ip:" + ip, err
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", retryAfter)
			writeJSONError(w, http.StatusTooManyRequests, model.ErrorResponse{
				Error:      "rate limit exceeded",
				RetryAfter: retrySeconds,
			})
		}),
	)
}
