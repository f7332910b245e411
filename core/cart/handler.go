package cart

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
	"github.com/rahmanfadhil/eduvod/core/entitlement"
	"github.com/rahmanfadhil/eduvod/database"
	"github.com/rahmanfadhil/eduvod/validate"
)

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		c, err := Fetch(ctx, db, clm.UserID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return web.Respond(ctx, w, Cart{Items: []Item{}}, http.StatusOK)
			}
			return fmt.Errorf("fetching cart: %w", err)
		}

		if c.Items, err = FetchItems(ctx, db, clm.UserID); err != nil {
			return fmt.Errorf("fetching cart items: %w", err)
		}

		return web.Respond(ctx, w, c, http.StatusOK)
	}
}

func HandleDelete(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		if err := Delete(ctx, db, clm.UserID); err != nil {
			return fmt.Errorf("deleting cart: %w", err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

// HandleCreateItem adds a course to the cart after running it through
// the eligibility engine, so carts mostly hold purchasable items. The
// check repeats at checkout: eligibility can change in between.
func HandleCreateItem(db *sqlx.DB, engine *entitlement.Engine) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		var in ItemNew
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(in); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		if d := engine.EvaluatePurchase(ctx, clm.UserID, in.CourseID); !d.Allowed {
			return weberr.NewError(
				fmt.Errorf("course[%s] is not purchasable: %s", in.CourseID, d.Code),
				d.Reason,
				http.StatusUnprocessableEntity,
			)
		}

		now := time.Now().UTC()
		err = database.Transaction(db, func(tx sqlx.ExtContext) error {
			c := Cart{UserID: clm.UserID, CreatedAt: now, UpdatedAt: now}
			if err := Upsert(ctx, tx, c); err != nil {
				return fmt.Errorf("upserting cart: %w", err)
			}

			it := Item{UserID: clm.UserID, CourseID: in.CourseID, CreatedAt: now, UpdatedAt: now}
			if err := CreateItem(ctx, tx, it); err != nil {
				return fmt.Errorf("creating cart item: %w", err)
			}

			return nil
		})
		if err != nil {
			return fmt.Errorf("adding course[%s] to cart: %w", in.CourseID, err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func HandleDeleteItem(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		courseID := web.Param(r, "course_id")
		if err := validate.CheckID(courseID); err != nil {
			return weberr.BadRequest(fmt.Errorf("passed id is not valid: %w", err))
		}

		if err := DeleteItem(ctx, db, clm.UserID, courseID); err != nil {
			return fmt.Errorf("deleting cart item: %w", err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
