package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/rahmanfadhil/eduvod/api/web"
	"github.com/rahmanfadhil/eduvod/api/weberr"
	"github.com/rahmanfadhil/eduvod/core/claims"
)

const (
	userKey = "user_id"
	roleKey = "role"
)

// LoadAndSave adapts the scs middleware to the web.Handler chain and
// copies the session identity into the request claims.
func LoadAndSave(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			var err error

			sh := session.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctx := r.Context()

				if uid := session.GetString(ctx, userKey); uid != "" {
					ctx = claims.Set(ctx, claims.Claims{
						UserID: uid,
						Role:   session.GetString(ctx, roleKey),
					})
				}

				err = handler(ctx, w, r)
			}))

			sh.ServeHTTP(w, r.WithContext(ctx))
			return err
		}
		return h
	}
	return m
}

func Authenticate(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			if _, err := claims.Get(ctx); err != nil {
				return weberr.NotAuthorized(errors.New("user not authenticated"))
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

func Admin(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			if !claims.IsAdmin(ctx) {
				return weberr.NotAuthorized(errors.New("user is not an admin"))
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
