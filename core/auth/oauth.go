package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	oidc "github.com/coreos/go-oidc/v3/oidc"
	"github.com/jmoiron/sqlx"
	"github.com/rahmanfadhil/eduvod/api/web"
	"github.com/rahmanfadhil/eduvod/api/weberr"
	"github.com/rahmanfadhil/eduvod/core/claims"
	"github.com/rahmanfadhil/eduvod/core/user"
	"github.com/rahmanfadhil/eduvod/random"
	"github.com/rahmanfadhil/eduvod/validate"
	"golang.org/x/oauth2"
)

const stateKey = "oauth_state"

type Provider struct {
	Config   oauth2.Config
	Verifier *oidc.IDTokenVerifier
}

type ProviderConfig struct {
	Name        string
	Client      string
	Secret      string
	URL         string
	RedirectURL string
}

func MakeProviders(ctx context.Context, cfgs []ProviderConfig) (map[string]Provider, error) {
	provs := make(map[string]Provider, len(cfgs))
	for _, cfg := range cfgs {
		prov, err := oidc.NewProvider(ctx, cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("discovering provider[%s]: %w", cfg.Name, err)
		}

		provs[cfg.Name] = Provider{
			Config: oauth2.Config{
				ClientID:     cfg.Client,
				ClientSecret: cfg.Secret,
				RedirectURL:  cfg.RedirectURL,
				Endpoint:     prov.Endpoint(),
				Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
			},
			Verifier: prov.Verifier(&oidc.Config{ClientID: cfg.Client}),
		}
	}
	return provs, nil
}

func HandleOauthLogin(session *scs.SessionManager, provs map[string]Provider) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		prov, ok := provs[web.Param(r, "provider")]
		if !ok {
			return weberr.NotFound(errors.New("unknown oauth provider"))
		}

		state := random.String(32)
		session.Put(ctx, stateKey, state)

		http.Redirect(w, r, prov.Config.AuthCodeURL(state), http.StatusTemporaryRedirect)
		return nil
	}
}

func HandleOauthCallback(db *sqlx.DB, session *scs.SessionManager, provs map[string]Provider, redirectURL string) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		prov, ok := provs[web.Param(r, "provider")]
		if !ok {
			return weberr.NotFound(errors.New("unknown oauth provider"))
		}

		state := session.PopString(ctx, stateKey)
		if state == "" || state != r.URL.Query().Get("state") {
			return weberr.BadRequest(errors.New("oauth state mismatch"))
		}

		tok, err := prov.Config.Exchange(ctx, r.URL.Query().Get("code"))
		if err != nil {
			return fmt.Errorf("exchanging oauth code: %w", err)
		}

		raw, ok := tok.Extra("id_token").(string)
		if !ok {
			return weberr.BadRequest(errors.New("token response misses the id token"))
		}

		idt, err := prov.Verifier.Verify(ctx, raw)
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("verifying id token: %w", err))
		}

		var cs struct {
			Email string `json:"email"`
			Name  string `json:"name"`
		}
		if err := idt.Claims(&cs); err != nil {
			return fmt.Errorf("extracting id token claims: %w", err)
		}

		usr, err := user.FetchByEmail(ctx, db, cs.Email)
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("fetching user by email: %w", err)
			}

			now := time.Now().UTC()
			usr = user.User{
				ID:           validate.GenerateID(),
				Name:         cs.Name,
				Email:        cs.Email,
				Role:         claims.RoleStudent,
				PasswordHash: []byte{},
				Active:       true,
				CreatedAt:    now,
				UpdatedAt:    now,
			}

			if err := user.Create(ctx, db, usr); err != nil {
				return fmt.Errorf("creating oauth user: %w", err)
			}
		}

		if err := session.RenewToken(ctx); err != nil {
			return fmt.Errorf("renewing session token: %w", err)
		}

		session.Put(ctx, userKey, usr.ID)
		session.Put(ctx, roleKey, usr.Role)

		http.Redirect(w, r, redirectURL, http.StatusTemporaryRedirect)
		return nil
	}
}
