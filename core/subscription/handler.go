package subscription

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rahmanfadhil/eduvod/api/web"
	"github.com/rahmanfadhil/eduvod/api/weberr"
	"github.com/rahmanfadhil/eduvod/core/claims"
	"github.com/rahmanfadhil/eduvod/validate"
)

// HandleUpsert lets admins set a user's subscription. Billing-provider
// webhooks would normally drive this; the admin endpoint is the manual
// override.
func HandleUpsert(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var su SubscriptionUp
		if err := web.Decode(w, r, &su); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(su); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		now := time.Now().UTC()
		s := Subscription{
			UserID:    su.UserID,
			Role:      RoleFamily(su.Role),
			Plan:      su.Plan,
			Status:    Status(su.Status),
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := Upsert(ctx, db, s); err != nil {
			return fmt.Errorf("upserting subscription: %w", err)
		}

		return web.Respond(ctx, w, s, http.StatusOK)
	}
}

// HandleShowCurrent returns the session user's subscription for their
// own role family.
func HandleShowCurrent(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		var family RoleFamily
		switch clm.Role {
		case claims.RoleTeacher:
			family = FamilyTeacher
		case claims.RoleStudent:
			family = FamilyStudent
		default:
			return weberr.NotFound(errors.New("admins hold no subscription"))
		}

		s, err := Fetch(ctx, db, clm.UserID, family)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching subscription: %w", err)
		}

		return web.Respond(ctx, w, s, http.StatusOK)
	}
}
