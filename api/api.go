package api

import (
	"context"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/plutov/paypal/v4"
	"github.com/rahmanfadhil/eduvod/api/middleware"
	"github.com/rahmanfadhil/eduvod/api/web"
	"github.com/rahmanfadhil/eduvod/config"
	"github.com/rahmanfadhil/eduvod/core/auth"
	"github.com/rahmanfadhil/eduvod/core/cart"
	"github.com/rahmanfadhil/eduvod/core/course"
	"github.com/rahmanfadhil/eduvod/core/entitlement"
	"github.com/rahmanfadhil/eduvod/core/order"
	"github.com/rahmanfadhil/eduvod/core/subscription"
	"github.com/rahmanfadhil/eduvod/core/user"
	"github.com/rahmanfadhil/eduvod/core/video"
	"github.com/sirupsen/logrus"
	stripecl "github.com/stripe/stripe-go/v74/client"
)

type APIConfig struct {
	CorsOrigin         string
	Log                logrus.FieldLogger
	DB                 *sqlx.DB
	Session            *scs.SessionManager
	Limiter            middleware.Checker
	Paypal             *paypal.Client
	Stripe             *stripecl.API
	StripeCfg          config.Stripe
	Providers          map[string]auth.Provider
	LoginRedirectURL   string
	ActivationRequired bool
}

type api struct {
	*mux.Router
	mw  []web.Middleware
	log logrus.FieldLogger
}

func APIMux(cfg APIConfig) http.Handler {
	a := &api{
		Router: mux.NewRouter(),
		log:    cfg.Log,
	}

	a.mw = append(a.mw, auth.LoadAndSave(cfg.Session))
	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, middleware.Logger(cfg.Log))
	a.mw = append(a.mw, middleware.Errors(cfg.Log))
	a.mw = append(a.mw, middleware.Panics())

	if cfg.CorsOrigin != "" {
		a.mw = append(a.mw, middleware.Cors(cfg.CorsOrigin))

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}

		a.Handle(http.MethodOptions, "/{path:.*}", h)
	}

	stores := entitlement.NewStores(cfg.DB)
	engine := entitlement.New(cfg.Log, stores, stores, stores)

	authen := auth.Authenticate(cfg.Session)
	admin := auth.Admin(cfg.Session)
	limited := middleware.RateLimit(cfg.Limiter)
	publisher := entitlement.RequireFeature(engine, entitlement.FeatureCoursePublishing)

	a.Handle(http.MethodPost, "/auth/signup", auth.HandleSignup(cfg.DB, cfg.Session, cfg.ActivationRequired))
	a.Handle(http.MethodPost, "/auth/login", auth.HandleLogin(cfg.DB, cfg.Session))
	a.Handle(http.MethodPost, "/auth/logout", auth.HandleLogout(cfg.Session))
	a.Handle(http.MethodGet, "/auth/oauth-login/{provider}", auth.HandleOauthLogin(cfg.Session, cfg.Providers))
	a.Handle(http.MethodGet, "/auth/oauth-callback/{provider}", auth.HandleOauthCallback(cfg.DB, cfg.Session, cfg.Providers, cfg.LoginRedirectURL))

	a.Handle(http.MethodGet, "/users/current", user.HandleShowCurrent(cfg.DB), authen)
	a.Handle(http.MethodGet, "/users/{id}", user.HandleShow(cfg.DB), authen)
	a.Handle(http.MethodPost, "/users", user.HandleCreate(cfg.DB), authen)

	a.Handle(http.MethodGet, "/courses/owned", course.HandleListOwned(cfg.DB), authen)
	a.Handle(http.MethodGet, "/courses/taught", course.HandleListTaught(cfg.DB), authen)
	a.Handle(http.MethodGet, "/courses/{course_id}/videos", video.HandleListByCourse(cfg.DB))
	a.Handle(http.MethodGet, "/courses/{course_id}/progress", video.HandleListProgressByCourse(cfg.DB), authen)
	a.Handle(http.MethodGet, "/courses/{id}/eligibility", entitlement.HandleCheck(engine), authen, limited)
	a.Handle(http.MethodGet, "/courses/{id}", course.HandleShow(cfg.DB))
	a.Handle(http.MethodGet, "/courses", course.HandleList(cfg.DB))
	a.Handle(http.MethodPost, "/courses", course.HandleCreate(cfg.DB), authen, publisher)
	a.Handle(http.MethodPut, "/courses/{id}", course.HandleUpdate(cfg.DB), authen)
	a.Handle(http.MethodDelete, "/courses/{id}", course.HandleArchive(cfg.DB), authen)

	a.Handle(http.MethodGet, "/features", entitlement.HandleFeatures(engine), authen, limited)

	a.Handle(http.MethodGet, "/videos/{id}/full", video.HandleShowFull(cfg.DB, engine), authen)
	a.Handle(http.MethodGet, "/videos/{id}/free", video.HandleShowFree(cfg.DB))
	a.Handle(http.MethodGet, "/videos/{id}", video.HandleShow(cfg.DB))
	a.Handle(http.MethodPost, "/videos", video.HandleCreate(cfg.DB), admin)
	a.Handle(http.MethodPut, "/videos/{id}/progress", video.HandleUpdateProgress(cfg.DB, engine), authen)
	a.Handle(http.MethodPut, "/videos/{id}", video.HandleUpdate(cfg.DB), admin)

	a.Handle(http.MethodGet, "/cart", cart.HandleShow(cfg.DB), authen)
	a.Handle(http.MethodDelete, "/cart", cart.HandleDelete(cfg.DB), authen)
	a.Handle(http.MethodPost, "/cart/eligibility", entitlement.HandleCheckCart(engine), authen, limited)
	a.Handle(http.MethodPut, "/cart/items", cart.HandleCreateItem(cfg.DB, engine), authen)
	a.Handle(http.MethodDelete, "/cart/items/{course_id}", cart.HandleDeleteItem(cfg.DB), authen)

	a.Handle(http.MethodGet, "/subscriptions/current", subscription.HandleShowCurrent(cfg.DB), authen)
	a.Handle(http.MethodPut, "/subscriptions", subscription.HandleUpsert(cfg.DB), admin)

	a.Handle(http.MethodPost, "/orders/paypal", order.HandlePaypalCheckout(cfg.DB, engine, cfg.Paypal), authen)
	a.Handle(http.MethodPost, "/orders/paypal/{id}/capture", order.HandlePaypalCapture(cfg.DB, cfg.Paypal), authen)
	a.Handle(http.MethodPost, "/orders/stripe", order.HandleStripeCheckout(cfg.DB, engine, cfg.Stripe, cfg.StripeCfg), authen)
	a.Handle(http.MethodPost, "/orders/stripe/capture", order.HandleStripeCapture(cfg.DB, cfg.StripeCfg))

	return a.Router
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {

	handler = web.WrapMiddleware(mw, handler)

	handler = web.WrapMiddleware(a.mw, handler)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		if err := handler(ctx, w, r); err != nil {

			a.log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})

	a.Router.Handle(path, h).Methods(method)
}
