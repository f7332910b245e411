package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/rahmanfadhil/eduvod/api/web"
	"github.com/rahmanfadhil/eduvod/api/weberr"
	"github.com/rahmanfadhil/eduvod/core/claims"
)

// Checker is the injected rate-limit dependency; *rate.Limiter
// satisfies it.
type Checker interface {
	Check(id string) bool
}

// RateLimit bounds per-client request rates. Authenticated requests
// are keyed by user id, anonymous ones by remote address.
func RateLimit(limiter Checker) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			id := ""
			if clm, err := claims.Get(ctx); err == nil {
				id = clm.UserID
			} else if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
				id = host
			} else {
				id = r.RemoteAddr
			}

			if !limiter.Check(id) {
				return weberr.NewError(
					errors.New("client exceeded the rate limit"),
					"too many requests",
					http.StatusTooManyRequests,
				)
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
