package middleware

import (
	"errors"
	"net/http"

	"go-finance-tracker/internal/model"
	"go-finance-tracker/internal/ratelimit"
	"go-finance-tracker/pkg/apierror"
)

// Stage examines the request and either lets it continue — possibly with
// an annotated context — or rejects it with a typed error. A stage never
// writes a response body itself; the chain owns the reject path.
type Stage func(w http.ResponseWriter, r *http.Request) (*http.Request, error)

// Options declares a route's protection. The zero value enables rate
// limiting, CSRF and authentication with no role requirement; fields
// switch individual stages off or tighten them.
type Options struct {
	SkipRateLimit bool
	SkipCSRF      bool
	SkipAuth      bool
	Roles         []string
	// RateLimit overrides the chain's default policy for this route.
	RateLimit *ratelimit.Policy
}

// Chain composes the security stages for protected routes. Stage order is
// fixed: rate-limit, CSRF, authentication, role check. Abusive traffic is
// rejected before any cryptographic work, and forged mutations before
// authentication.
type Chain struct {
	rateLimit *RateLimiter
	csrf      *CSRFGuard
	auth      *Authenticator
	metrics   *Metrics
}

func NewChain(rateLimit *RateLimiter, csrf *CSRFGuard, auth *Authenticator, metrics *Metrics) *Chain {
	return &Chain{rateLimit: rateLimit, csrf: csrf, auth: auth, metrics: metrics}
}

// Protect builds the stage list for the given options and returns a
// router middleware executing it in order, stopping at the first failure.
func (c *Chain) Protect(opts Options) func(http.Handler) http.Handler {
	var stages []Stage
	if !opts.SkipRateLimit {
		stages = append(stages, c.rateLimit.Stage(opts.RateLimit))
	}
	if !opts.SkipCSRF {
		stages = append(stages, c.csrf.Stage())
	}
	if !opts.SkipAuth {
		stages = append(stages, c.auth.Stage())
	}
	if len(opts.Roles) > 0 {
		stages = append(stages, RequireRoles(opts.Roles...))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, stage := range stages {
				annotated, err := stage(w, r)
				if err != nil {
					c.reject(w, err)
					return
				}
				r = annotated
			}

			next.ServeHTTP(w, r)
		})
	}
}

// reject is the single formatting boundary mapping stage failures to
// responses. Error kinds map to statuses deterministically; anything
// unclassified is an internal error without detail leakage.
func (c *Chain) reject(w http.ResponseWriter, err error) {
	apiErr := asAPIError(err)

	if c.metrics != nil {
		c.metrics.RejectionsTotal.WithLabelValues(apiErr.Code).Inc()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.HTTPStatus)
	_ = jsonEncode(w, model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Details: apiErr.Details,
		},
	})
}

func asAPIError(err error) *apierror.APIError {
	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	if errors.Is(err, model.ErrSessionNotFound) {
		return apierror.Unauthenticated("session expired or revoked")
	}

	return apierror.New("INTERNAL_ERROR", "unexpected server error", "", http.StatusInternalServerError)
}
