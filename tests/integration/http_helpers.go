package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"time"

	"github.com/BradenHooton/citypulse/internal/auth"
	"github.com/BradenHooton/citypulse/internal/handlers"
	"github.com/BradenHooton/citypulse/internal/lifecycle"
	"github.com/BradenHooton/citypulse/internal/middleware"
	"github.com/BradenHooton/citypulse/internal/routes"
	"github.com/BradenHooton/citypulse/internal/services"
	pkglogger "github.com/BradenHooton/citypulse/pkg/logger"
)

const testJWTSecret = "test-secret-32-characters-long-for-testing"

// Clock is a settable time source shared by the engine and the token manager
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts a clock at t
func NewClock(t time.Time) *Clock {
	return &Clock{now: t}
}

// Now returns the current reading
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// TestServer wraps httptest.Server with a real store and the production router
type TestServer struct {
	Server      *httptest.Server
	Store       *Store
	Clock       *Clock
	AuthService *services.AuthService
}

// NewTestServer wires every component the way cmd/api does, on top of store
func NewTestServer(store *Store) *TestServer {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	clock := NewClock(time.Now().UTC().Truncate(time.Millisecond))

	engine := lifecycle.NewEngine(lifecycle.DefaultPolicy(), clock.Now)
	tokenManager := auth.NewTokenManager(testJWTSecret, 30*24*time.Hour)
	tokenManager.SetClock(clock.Now)
	auditLogger := pkglogger.NewAuditLogger(logger, "test")

	authService := services.NewAuthService(store.Users, tokenManager, logger, auditLogger)
	reportService := services.NewReportService(store.Reports, engine, logger, auditLogger)

	router := routes.NewRouter(logger, routes.Options{
		Env:           "test",
		AuthRateLimit: middleware.RateLimitConfig{RequestsPerMinute: 1000},
		UserRateLimit: middleware.RateLimitConfig{RequestsPerMinute: 1000},
	}, routes.Handlers{
		Auth:    handlers.NewAuthHandler(authService),
		Reports: handlers.NewReportHandler(reportService),
		Health:  handlers.NewHealthHandler(store.Health, store.Driver, logger),
	}, tokenManager)

	return &TestServer{
		Server:      httptest.NewServer(router),
		Store:       store,
		Clock:       clock,
		AuthService: authService,
	}
}

// Close shuts down the test server
func (ts *TestServer) Close() {
	if ts.Server != nil {
		ts.Server.Close()
	}
}

// Request makes an HTTP request to the test server
func (ts *TestServer) Request(method, path string, body interface{}, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return http.DefaultClient.Do(req)
}

// RequestWithAuth makes an authenticated HTTP request with a bearer token
func (ts *TestServer) RequestWithAuth(method, path, token string, body interface{}) (*http.Response, error) {
	return ts.Request(method, path, body, map[string]string{
		"Authorization": "Bearer " + token,
	})
}

// SignupAndLogin registers an account with role and returns its id and token
func (ts *TestServer) SignupAndLogin(username, password, role string) (userID, token string, err error) {
	resp, err := ts.Request(http.MethodPost, "/auth/signup", map[string]string{
		"username": username,
		"password": password,
		"role":     role,
	}, nil)
	if err != nil {
		return "", "", err
	}
	var signup handlers.SignupResponse
	if err := decodeOK(resp, &signup); err != nil {
		return "", "", fmt.Errorf("signup: %w", err)
	}

	resp, err = ts.Request(http.MethodPost, "/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, nil)
	if err != nil {
		return "", "", err
	}
	var login services.LoginResult
	if err := decodeOK(resp, &login); err != nil {
		return "", "", fmt.Errorf("login: %w", err)
	}

	return signup.UserID, login.Token, nil
}

func decodeOK(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

// ParseJSONResponse parses JSON response body into target
func ParseJSONResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(target)
}

// GetErrorCode extracts the machine-readable code from an error response
func GetErrorCode(resp *http.Response) (string, error) {
	defer resp.Body.Close()
	var errResp struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		return "", err
	}
	return errResp.Error, nil
}
