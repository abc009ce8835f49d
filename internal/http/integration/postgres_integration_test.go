package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"

	"github.com/geocoder89/supplylens/internal/auth"
	"github.com/geocoder89/supplylens/internal/config"
	"github.com/geocoder89/supplylens/internal/db"
	apphttp "github.com/geocoder89/supplylens/internal/http"
	"github.com/geocoder89/supplylens/internal/http/middlewares"
	"github.com/geocoder89/supplylens/internal/observability"
	"github.com/geocoder89/supplylens/internal/repo/postgres"
	"github.com/geocoder89/supplylens/internal/security"
)

func testConfig() config.Config {
	return config.Config{
		AppName:               "SupplyLens Backend",
		AppVersion:            "1.0.0",
		Env:                   "test",
		JWTSecret:             "test-secret-key",
		AccessTTL:             15 * time.Minute,
		RefreshTTL:            7 * 24 * time.Hour,
		BcryptCost:            bcrypt.MinCost,
		AllowedOrigins:        []string{"*"},
		RateLimitPerMinute:    1000,
		RateLimitAuthPer15Min: 1000,
		MaxBodyBytes:          1 << 20,
	}
}

// setupRouter wires the router against a real database. TEST_DB_DSN must
// point at a disposable postgres; the test is skipped when it is unset.
func setupRouter(t *testing.T) (*gin.Engine, *pgxpool.Pool) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))

	m, err := db.NewMigrator(dsn, logger)
	if err != nil {
		t.Fatalf("migrator: %v", err)
	}
	if err := m.Up(ctx); err != nil {
		t.Fatalf("migrate up: %v", err)
	}

	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("Failed to create pgx pool: %v", err)
	}
	t.Cleanup(pool.Close)

	cfg := testConfig()
	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	limiter := middlewares.NewRateLimiter()
	t.Cleanup(limiter.Close)

	router, err := apphttp.NewRouter(logger, cfg, apphttp.Deps{
		Users:     postgres.NewUsersRepo(pool, prom),
		Alerts:    postgres.NewAlertsRepo(pool, prom),
		Watchlist: postgres.NewWatchlistRepo(pool, prom),
		Tokens:    auth.NewManager(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL),
		Hasher:    security.NewHasher(cfg.BcryptCost),
		Prom:      prom,
		Gatherer:  reg,
		Limiter:   limiter,
		Ping:      pool.Ping,
	})
	if err != nil {
		t.Fatalf("router: %v", err)
	}

	return router, pool
}

func resetDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(), `TRUNCATE alerts, watchlist, users CASCADE`)
	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}

type envelopeResp struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
	Pagination *struct {
		Page  int `json:"page"`
		Total int `json:"total"`
		Pages int `json:"pages"`
	} `json:"pagination"`
}

func doRequest(t *testing.T, router http.Handler, method, path, token string, body any) (*httptest.ResponseRecorder, envelopeResp) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rdr = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelopeResp
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to unmarshal json: %v, body=%s", err, w.Body.String())
	}
	return w, env
}

const password = "Correct-Horse-9"

func login(t *testing.T, router http.Handler, email string) string {
	t.Helper()

	creds := map[string]string{"email": email, "password": password}

	w, env := doRequest(t, router, http.MethodPost, "/api/v1/auth/register", "", creds)
	if w.Code != http.StatusOK || !env.Success {
		t.Fatalf("register got status %d, body=%s", w.Code, w.Body.String())
	}

	w, env = doRequest(t, router, http.MethodPost, "/api/v1/auth/login", "", creds)
	if w.Code != http.StatusOK || !env.Success {
		t.Fatalf("login got status %d, body=%s", w.Code, w.Body.String())
	}

	var tok struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(env.Data, &tok); err != nil || tok.AccessToken == "" {
		t.Fatalf("login expected access_token, body=%s", w.Body.String())
	}
	return tok.AccessToken
}

func TestPostgres_Register_Login_Me_Delete(t *testing.T) {
	router, pool := setupRouter(t)
	resetDB(t, pool)
	defer resetDB(t, pool)

	token := login(t, router, "sam@example.com")

	w, env := doRequest(t, router, http.MethodPost, "/api/v1/auth/register", "", map[string]string{"email": "sam@example.com", "password": password})
	if w.Code != http.StatusOK || env.Success || env.Error == nil || env.Error.Code != "AUTH_USER_EXISTS" {
		t.Fatalf("duplicate register: %d %s", w.Code, w.Body.String())
	}

	w, env = doRequest(t, router, http.MethodGet, "/api/v1/auth/me", token, nil)
	if w.Code != http.StatusOK || !env.Success {
		t.Fatalf("me got status %d, body=%s", w.Code, w.Body.String())
	}

	w, _ = doRequest(t, router, http.MethodPost, "/api/v1/alerts", token, map[string]any{
		"token_symbol": "BTC", "alert_type": "price", "condition": "above", "threshold_value": 50000.5,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("create alert got status %d, body=%s", w.Code, w.Body.String())
	}

	w, env = doRequest(t, router, http.MethodDelete, "/api/v1/auth/me", token, nil)
	if w.Code != http.StatusOK || !env.Success {
		t.Fatalf("delete me got status %d, body=%s", w.Code, w.Body.String())
	}

	var alerts int
	if err := pool.QueryRow(context.Background(), `SELECT COUNT(*) FROM alerts`).Scan(&alerts); err != nil {
		t.Fatalf("count alerts: %v", err)
	}
	if alerts != 0 {
		t.Fatalf("expected alerts to be removed with the user, got %d", alerts)
	}

	w, env = doRequest(t, router, http.MethodGet, "/api/v1/auth/me", token, nil)
	if w.Code != http.StatusUnauthorized || env.Error == nil || env.Error.Code != "AUTH_INVALID_TOKEN" {
		t.Fatalf("me after delete: %d %s", w.Code, w.Body.String())
	}
}

func TestPostgres_WatchlistDuplicate(t *testing.T) {
	router, pool := setupRouter(t)
	resetDB(t, pool)
	defer resetDB(t, pool)

	token := login(t, router, "watcher@example.com")

	item := map[string]any{"token_symbol": "ETH"}

	w, env := doRequest(t, router, http.MethodPost, "/api/v1/watchlist", token, item)
	if w.Code != http.StatusOK || !env.Success {
		t.Fatalf("add got status %d, body=%s", w.Code, w.Body.String())
	}

	// a NULL address collides with itself through the COALESCE index
	w, env = doRequest(t, router, http.MethodPost, "/api/v1/watchlist", token, item)
	if w.Code != http.StatusOK || env.Success || env.Error == nil || env.Error.Code != "WATCHLIST_DUPLICATE" {
		t.Fatalf("duplicate add: %d %s", w.Code, w.Body.String())
	}
}

func TestPostgres_AlertPagination(t *testing.T) {
	router, pool := setupRouter(t)
	resetDB(t, pool)
	defer resetDB(t, pool)

	token := login(t, router, "pager@example.com")

	for i := 0; i < 25; i++ {
		w, _ := doRequest(t, router, http.MethodPost, "/api/v1/alerts", token, map[string]any{
			"token_symbol": fmt.Sprintf("T%02d", i), "alert_type": "price", "condition": "above", "threshold_value": 1,
		})
		if w.Code != http.StatusOK {
			t.Fatalf("create alert %d got status %d, body=%s", i, w.Code, w.Body.String())
		}
	}

	w, env := doRequest(t, router, http.MethodGet, "/api/v1/alerts?page=2&per_page=20", token, nil)
	if w.Code != http.StatusOK || !env.Success || env.Pagination == nil {
		t.Fatalf("list got status %d, body=%s", w.Code, w.Body.String())
	}
	if env.Pagination.Total != 25 || env.Pagination.Pages != 2 || env.Pagination.Page != 2 {
		t.Fatalf("unexpected pagination: %+v", *env.Pagination)
	}

	var items []map[string]any
	if err := json.Unmarshal(env.Data, &items); err != nil {
		t.Fatalf("decode items: %v", err)
	}
	if len(items) != 5 {
		t.Fatalf("expected 5 items on page 2, got %d", len(items))
	}
}
