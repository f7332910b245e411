package config

import "time"

type Config struct {
	Web    Web
	DB     DB
	Cors   Cors
	Auth   Auth
	Oauth  Oauth
	Stripe Stripe
	Paypal Paypal
	Rate   Rate
}

type Web struct {
	Address         string        `conf:"default:0.0.0.0:8000"`
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:10s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
}

type DB struct {
	User       string `conf:"default:postgres"`
	Password   string `conf:"default:postgres,mask"`
	Host       string `conf:"default:localhost:5432"`
	Name       string `conf:"default:eduvod"`
	DisableTLS bool   `conf:"default:true"`
}

type Cors struct {
	Origin string
}

type Auth struct {
	ActivationRequired bool `conf:"default:false"`
}

type Oauth struct {
	DiscoveryTimeout time.Duration `conf:"default:30s"`
	LoginRedirectURL string        `conf:"default:http://localhost:3000"`
	Google           OauthProvider
}

type OauthProvider struct {
	Client      string
	Secret      string `conf:"mask"`
	URL         string `conf:"default:https://accounts.google.com"`
	RedirectURL string `conf:"default:http://localhost:8000/auth/oauth-callback/google"`
}

type Stripe struct {
	APISecret     string `conf:"mask"`
	WebhookSecret string `conf:"mask"`
	SuccessURL    string `conf:"default:http://localhost:3000/checkout/success"`
	CancelURL     string `conf:"default:http://localhost:3000/checkout/canceled"`
}

type Paypal struct {
	ClientID string
	Secret   string `conf:"mask"`
	URL      string `conf:"default:https://api.sandbox.paypal.com"`
}

// Rate bounds how often a single client may hit the entitlement
// endpoints. Expiry is expressed in minutes of inactivity before a
// client's bucket is evicted.
type Rate struct {
	Burst     int     `conf:"default:10"`
	Expiry    int     `conf:"default:30"`
	PerSecond float64 `conf:"default:5"`
}
