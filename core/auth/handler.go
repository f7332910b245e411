package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/jmoiron/sqlx"
	"github.com/rahmanfadhil/eduvod/api/web"
	"github.com/rahmanfadhil/eduvod/api/weberr"
	"github.com/rahmanfadhil/eduvod/core/claims"
	"github.com/rahmanfadhil/eduvod/core/user"
	"github.com/rahmanfadhil/eduvod/validate"
	"golang.org/x/crypto/bcrypt"
)

type login struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func HandleSignup(db *sqlx.DB, session *scs.SessionManager, activationRequired bool) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var us user.UserSignup
		if err := web.Decode(w, r, &us); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(us); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(us.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("generating password hash: %w", err)
		}

		now := time.Now().UTC()
		usr := user.User{
			ID:           validate.GenerateID(),
			Name:         us.Name,
			Email:        us.Email,
			Role:         claims.RoleStudent,
			PasswordHash: hash,
			Active:       !activationRequired,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := user.Create(ctx, db, usr); err != nil {
			return fmt.Errorf("creating user: %w", err)
		}

		if usr.Active {
			if err := session.RenewToken(ctx); err != nil {
				return fmt.Errorf("renewing session token: %w", err)
			}
			session.Put(ctx, userKey, usr.ID)
			session.Put(ctx, roleKey, usr.Role)
		}

		return web.Respond(ctx, w, usr, http.StatusCreated)
	}
}

func HandleLogin(db *sqlx.DB, session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var lg login
		if err := web.Decode(w, r, &lg); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(lg); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		usr, err := user.FetchByEmail(ctx, db, lg.Email)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.NotAuthorized(errors.New("unknown email"))
			}
			return fmt.Errorf("fetching user by email: %w", err)
		}

		if !usr.Active {
			return weberr.NotAuthorized(errors.New("account is not activated"))
		}

		if err := bcrypt.CompareHashAndPassword(usr.PasswordHash, []byte(lg.Password)); err != nil {
			return weberr.NotAuthorized(errors.New("wrong password"))
		}

		if err := session.RenewToken(ctx); err != nil {
			return fmt.Errorf("renewing session token: %w", err)
		}

		session.Put(ctx, userKey, usr.ID)
		session.Put(ctx, roleKey, usr.Role)

		return web.Respond(ctx, w, usr, http.StatusOK)
	}
}

func HandleLogout(session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if err := session.Destroy(ctx); err != nil {
			return fmt.Errorf("destroying session: %w", err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
