package entitlement

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rahmanfadhil/eduvod/api/web"
	"github.com/rahmanfadhil/eduvod/api/weberr"
	"github.com/rahmanfadhil/eduvod/core/claims"
	"github.com/rahmanfadhil/eduvod/validate"
)

// CartCheck is the validated body of a cart-eligibility request.
type CartCheck struct {
	CourseIDs []string `json:"courseIds" validate:"required,min=1,max=50,dive,uuid4"`
}

// HandleCheck answers purchase eligibility for a single course.
// Denials are data, not errors: the response is always 200 with a
// Decision body.
func HandleCheck(engine *Engine) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(fmt.Errorf("passed id is not valid: %w", err))
		}

		d := engine.EvaluatePurchase(ctx, clm.UserID, id)
		return web.Respond(ctx, w, d, http.StatusOK)
	}
}

func HandleCheckCart(engine *Engine) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		var cc CartCheck
		if err := web.Decode(w, r, &cc); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(cc); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		cd := engine.EvaluateCart(ctx, clm.UserID, cc.CourseIDs)
		return web.Respond(ctx, w, cd, http.StatusOK)
	}
}

// HandleFeatures returns the feature set resolved for the session
// user. An unsubscribed user gets an empty list, not an error.
func HandleFeatures(engine *Engine) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		fs, err := engine.ResolveFeatures(ctx, clm.UserID, clm.Role)
		if err != nil {
			return fmt.Errorf("resolving features of user[%s]: %w", clm.UserID, err)
		}

		return web.Respond(ctx, w, fs, http.StatusOK)
	}
}

// RequireFeature guards an endpoint behind a resolved feature.
func RequireFeature(engine *Engine, feature Feature) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			clm, err := claims.Get(ctx)
			if err != nil {
				return weberr.NotAuthorized(errors.New("user not authenticated"))
			}

			ok, err := engine.HasFeature(ctx, clm.UserID, clm.Role, feature)
			if err != nil {
				return fmt.Errorf("resolving features of user[%s]: %w", clm.UserID, err)
			}
			if !ok {
				return weberr.NotAuthorized(fmt.Errorf("user lacks the %q feature", feature))
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
