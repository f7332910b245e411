package test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/jmoiron/sqlx"
	"github.com/ory/dockertest/v3"
	"github.com/plutov/paypal/v4"
	"github.com/rahmanfadhil/eduvod/api"
	"github.com/rahmanfadhil/eduvod/config"
	"github.com/rahmanfadhil/eduvod/core/claims"
	"github.com/rahmanfadhil/eduvod/core/user"
	"github.com/rahmanfadhil/eduvod/database"
	"github.com/rahmanfadhil/eduvod/rate"
	"github.com/rahmanfadhil/eduvod/validate"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	stripecl "github.com/stripe/stripe-go/v74/client"
	"golang.org/x/crypto/bcrypt"
)

var (
	pool     *dockertest.Pool
	resource *dockertest.Resource
	pgHost   string
)

func TestMain(m *testing.M) {
	os.Exit(run(m))
}

func run(m *testing.M) int {
	var err error
	pool, err = dockertest.NewPool("")
	if err != nil || pool.Client.Ping() != nil {
		// No docker: every test calling NewTestEnv will skip.
		pool = nil
		return m.Run()
	}

	resource, err = pool.Run("postgres", "15-alpine", []string{
		"POSTGRES_USER=postgres",
		"POSTGRES_PASSWORD=postgres",
		"POSTGRES_DB=postgres",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not start postgres: %v\n", err)
		return 1
	}
	defer pool.Purge(resource)

	pgHost = "localhost:" + resource.GetPort("5432/tcp")

	if err := pool.Retry(func() error {
		db, err := database.Open(config.DB{
			User: "postgres", Password: "postgres", Host: pgHost, Name: "postgres", DisableTLS: true,
		})
		if err != nil {
			return err
		}
		defer db.Close()
		return db.Ping()
	}); err != nil {
		fmt.Fprintf(os.Stderr, "could not connect to postgres: %v\n", err)
		return 1
	}

	return m.Run()
}

type TestServer struct {
	*httptest.Server
	client *http.Client
}

type TestEnv struct {
	Server *TestServer
	URL    string
	DB     *sqlx.DB

	Paypal *mockPaypal
	Stripe *mockStripe

	WebhookSecret string

	AdminEmail string
	AdminPass  string
	UserEmail  string
	UserPass   string
}

func (te *TestEnv) Client() *http.Client { return te.Server.client }

// NewTestEnv spins a fresh database inside the shared postgres
// container and starts the full API backed by mock payment providers.
func NewTestEnv(t *testing.T, name string) (*TestEnv, error) {
	t.Helper()

	if pool == nil {
		t.Skip("docker is not available, skipping integration test")
	}

	root, err := database.Open(config.DB{
		User: "postgres", Password: "postgres", Host: pgHost, Name: "postgres", DisableTLS: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	defer root.Close()

	name = strings.ToLower(name)
	if _, err := root.Exec("CREATE DATABASE " + name); err != nil {
		return nil, fmt.Errorf("creating database %s: %w", name, err)
	}

	db, err := database.Open(config.DB{
		User: "postgres", Password: "postgres", Host: pgHost, Name: name, DisableTLS: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to database %s: %w", name, err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	env := &TestEnv{
		DB:            db,
		Paypal:        &mockPaypal{},
		Stripe:        &mockStripe{},
		WebhookSecret: "whsec_test",
		AdminEmail:    "admin@test.com",
		AdminPass:     "adminpass123",
		UserEmail:     "user@test.com",
		UserPass:      "userpass123",
	}

	if err := seedUser(db, env.AdminEmail, env.AdminPass, claims.RoleAdmin); err != nil {
		return nil, err
	}
	if err := seedUser(db, env.UserEmail, env.UserPass, claims.RoleStudent); err != nil {
		return nil, err
	}

	ppSrv := httptest.NewServer(env.Paypal.handle())
	t.Cleanup(ppSrv.Close)

	pp, err := paypal.NewClient("test-client", "test-secret", ppSrv.URL)
	if err != nil {
		return nil, fmt.Errorf("building paypal client: %w", err)
	}
	if _, err := pp.GetAccessToken(context.Background()); err != nil {
		return nil, fmt.Errorf("getting paypal token: %w", err)
	}

	stSrv := httptest.NewServer(env.Stripe.handle())
	t.Cleanup(stSrv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL: stripe.String(stSrv.URL),
	})
	strp := &stripecl.API{}
	strp.Init("sk_test_123", &stripe.Backends{API: backend, Connect: backend, Uploads: backend})

	log := logrus.New()
	log.SetOutput(os.Stdout)

	session := scs.New()
	session.Lifetime = time.Hour

	stripeCfg := config.Stripe{
		WebhookSecret: env.WebhookSecret,
		SuccessURL:    "http://localhost/success",
		CancelURL:     "http://localhost/canceled",
	}

	mux := api.APIMux(api.APIConfig{
		Log:       log,
		DB:        db,
		Session:   session,
		Limiter:   rate.NewLimiter(1000, 100, 1000),
		Paypal:    pp,
		Stripe:    strp,
		StripeCfg: stripeCfg,
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("building cookie jar: %w", err)
	}

	env.Server = &TestServer{Server: srv, client: &http.Client{Jar: jar}}
	env.URL = srv.URL

	return env, nil
}

func seedUser(db *sqlx.DB, email string, pass string, role string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.MinCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now().UTC()
	usr := user.User{
		ID:           validate.GenerateID(),
		Name:         strings.Split(email, "@")[0],
		Email:        email,
		Role:         role,
		PasswordHash: hash,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	return user.Create(context.Background(), db, usr)
}

func Login(s *TestServer, email string, pass string) error {
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, pass)

	w, err := s.client.Post(s.Server.URL+"/auth/login", "application/json", strings.NewReader(body))
	if err != nil {
		return err
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusOK {
		return fmt.Errorf("login of %s failed: status code %s", email, w.Status)
	}
	return nil
}

func Logout(s *TestServer) error {
	w, err := s.client.Post(s.Server.URL+"/auth/logout", "application/json", nil)
	if err != nil {
		return err
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusNoContent {
		return fmt.Errorf("logout failed: status code %s", w.Status)
	}
	return nil
}

func decode(w *http.Response, val any) error {
	defer w.Body.Close()
	return json.NewDecoder(w.Body).Decode(val)
}
