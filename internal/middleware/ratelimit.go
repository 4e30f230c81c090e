package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go-finance-tracker/internal/ratelimit"
	"go-finance-tracker/pkg/apierror"
)

// RateLimiter is the chain stage in front of the fixed-window limiter.
// It attaches X-RateLimit-* headers to every response it sees, allowed
// or rejected.
type RateLimiter struct {
	limiter       *ratelimit.Limiter
	defaultPolicy ratelimit.Policy
}

func NewRateLimiter(limiter *ratelimit.Limiter, defaultPolicy ratelimit.Policy) *RateLimiter {
	if defaultPolicy.MaxRequests <= 0 {
		defaultPolicy.MaxRequests = 100
	}
	if defaultPolicy.Window <= 0 {
		defaultPolicy.Window = time.Minute
	}

	return &RateLimiter{limiter: limiter, defaultPolicy: defaultPolicy}
}

func (m *RateLimiter) Stage(override *ratelimit.Policy) Stage {
	policy := m.defaultPolicy
	if override != nil {
		policy = *override
	}

	return func(w http.ResponseWriter, r *http.Request) (*http.Request, error) {
		key := ExtractClientKey(r)

		res, err := m.limiter.Consume(r.Context(), key, policy)
		if err != nil {
			// Store failures are absorbed by failover; anything residual
			// fails open rather than blocking traffic.
			return r, nil
		}

		resetSeconds := int64((res.ResetIn + time.Second - 1) / time.Second)
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetSeconds, 10))

		if !res.Allowed {
			retryAfter := strconv.FormatInt(resetSeconds, 10)
			w.Header().Set("Retry-After", retryAfter)
			return r, apierror.RateLimited("too many requests", "retry after "+retryAfter+"s")
		}

		return r, nil
	}
}

// ExtractClientKey identifies the client for rate-limit bucketing:
// X-Forwarded-For first hop, then X-Real-IP, then the socket address.
func ExtractClientKey(r *http.Request) string {
	forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 && strings.TrimSpace(parts[0]) != "" {
			return strings.TrimSpace(parts[0])
		}
	}

	realIP := strings.TrimSpace(r.Header.Get("X-Real-IP"))
	if realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}

	if strings.TrimSpace(r.RemoteAddr) == "" {
		return "unknown"
	}

	return r.RemoteAddr
}
