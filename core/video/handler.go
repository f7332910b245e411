package video

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
	"github.com/rahmanfadhil/eduvod/validate"
)

func HandleListByCourse(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		courseID := web.Param(r, "course_id")
		if err := validate.CheckID(courseID); err != nil {
			return weberr.BadRequest(fmt.Errorf("passed id is not valid: %w", err))
		}

		vs, err := FetchByCourse(ctx, db, courseID)
		if err != nil {
			return fmt.Errorf("fetching videos of course[%s]: %w", courseID, err)
		}

		return web.Respond(ctx, w, vs, http.StatusOK)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(fmt.Errorf("passed id is not valid: %w", err))
		}

		v, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching video[%s]: %w", id, err)
		}

		return web.Respond(ctx, w, v, http.StatusOK)
	}
}

// HandleShowFull returns the video including its playback URL. Access
// goes through the entitlement engine: enrollment, course ownership
// or the admin role is required unless the video is a free preview.
func HandleShowFull(db *sqlx.DB, engine *entitlement.Engine) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(fmt.Errorf("passed id is not valid: %w", err))
		}

		v, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching video[%s]: %w", id, err)
		}

		if !v.Free {
			ok, err := engine.CanAccess(ctx, clm.UserID, clm.Role, v.CourseID)
			if err != nil {
				return fmt.Errorf("checking access to course[%s]: %w", v.CourseID, err)
			}
			if !ok {
				return weberr.NotAuthorized(errors.New("user does not own the course"))
			}
		}

		full := struct {
			Video
			URL string `json:"url"`
		}{v, v.URL}

		return web.Respond(ctx, w, full, http.StatusOK)
	}
}

// HandleShowFree serves free-preview videos without authentication.
func HandleShowFree(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(fmt.Errorf("passed id is not valid: %w", err))
		}

		v, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching video[%s]: %w", id, err)
		}

		if !v.Free {
			return weberr.NotAuthorized(errors.New("video is not free"))
		}

		full := struct {
			Video
			URL string `json:"url"`
		}{v, v.URL}

		return web.Respond(ctx, w, full, http.StatusOK)
	}
}

func HandleCreate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var vn VideoNew
		if err := web.Decode(w, r, &vn); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(vn); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		now := time.Now().UTC()
		v := Video{
			ID:          validate.GenerateID(),
			CourseID:    vn.CourseID,
			Index:       vn.Index,
			Name:        vn.Name,
			Description: vn.Description,
			Free:        vn.Free,
			URL:         vn.URL,
			ImageURL:    vn.ImageURL,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := Create(ctx, db, v); err != nil {
			return fmt.Errorf("creating video: %w", err)
		}

		return web.Respond(ctx, w, v, http.StatusCreated)
	}
}

func HandleUpdate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(fmt.Errorf("passed id is not valid: %w", err))
		}

		var vu VideoUp
		if err := web.Decode(w, r, &vu); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(vu); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		v, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching video[%s]: %w", id, err)
		}

		if vu.Index != nil {
			v.Index = *vu.Index
		}
		if vu.Name != nil {
			v.Name = *vu.Name
		}
		if vu.Description != nil {
			v.Description = *vu.Description
		}
		if vu.Free != nil {
			v.Free = *vu.Free
		}
		if vu.URL != nil {
			v.URL = *vu.URL
		}
		if vu.ImageURL != nil {
			v.ImageURL = *vu.ImageURL
		}
		v.UpdatedAt = time.Now().UTC()

		if err := Update(ctx, db, v); err != nil {
			return fmt.Errorf("updating video[%s]: %w", id, err)
		}

		return web.Respond(ctx, w, v, http.StatusOK)
	}
}

// HandleUpdateProgress stores playback progress for enrolled users.
func HandleUpdateProgress(db *sqlx.DB, engine *entitlement.Engine) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(fmt.Errorf("passed id is not valid: %w", err))
		}

		var pu ProgressUp
		if err := web.Decode(w, r, &pu); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(pu); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		v, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching video[%s]: %w", id, err)
		}

		ok, err := engine.CanAccess(ctx, clm.UserID, clm.Role, v.CourseID)
		if err != nil {
			return fmt.Errorf("checking access to course[%s]: %w", v.CourseID, err)
		}
		if !ok && !v.Free {
			return weberr.NotAuthorized(errors.New("user does not own the course"))
		}

		now := time.Now().UTC()
		p := Progress{
			VideoID:   id,
			UserID:    clm.UserID,
			Progress:  pu.Progress,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := UpsertProgress(ctx, db, p); err != nil {
			return fmt.Errorf("updating progress: %w", err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func HandleListProgressByCourse(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		courseID := web.Param(r, "course_id")
		if err := validate.CheckID(courseID); err != nil {
			return weberr.BadRequest(fmt.Errorf("passed id is not valid: %w", err))
		}

		ps, err := FetchProgressByCourse(ctx, db, clm.UserID, courseID)
		if err != nil {
			return fmt.Errorf("fetching progress: %w", err)
		}

		return web.Respond(ctx, w, ps, http.StatusOK)
	}
}
