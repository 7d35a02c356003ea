package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BradenHooton/citypulse/internal/auth"
	"github.com/BradenHooton/citypulse/internal/lifecycle"
	"github.com/BradenHooton/citypulse/internal/models"
	"github.com/BradenHooton/citypulse/internal/services"
	"github.com/BradenHooton/citypulse/internal/voice"
	pkghttp "github.com/BradenHooton/citypulse/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithAuthContext adds user claims to request context for testing authenticated endpoints
func WithAuthContext(req *http.Request, userID, role string) *http.Request {
	claims := &models.TokenClaims{
		Type:   models.TokenTypeAccess,
		UserID: userID,
		Role:   role,
	}
	ctx := context.WithValue(req.Context(), auth.UserContextKey, claims)
	return req.WithContext(ctx)
}

// WithURLParam sets a chi route parameter on the request
func WithURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	RegisterFunc func(ctx context.Context, username, password, role string) (*models.User, error)
	LoginFunc    func(ctx context.Context, username, password string) (*services.LoginResult, error)
}

func (m *MockAuthService) Register(ctx context.Context, username, password, role string) (*models.User, error) {
	if m.RegisterFunc == nil {
		return nil, models.ErrDuplicateUsername
	}
	return m.RegisterFunc(ctx, username, password, role)
}

func (m *MockAuthService) Login(ctx context.Context, username, password string) (*services.LoginResult, error) {
	if m.LoginFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.LoginFunc(ctx, username, password)
}

// MockReportService implements ReportServiceInterface for testing
type MockReportService struct {
	CreateFunc               func(ctx context.Context, citizenID string, input services.CreateReportInput) (*lifecycle.Evaluated, error)
	CreateFromTranscriptFunc func(ctx context.Context, citizenID, transcript string, position *voice.Coordinates) (*services.VoiceReport, error)
	ListMineFunc             func(ctx context.Context, citizenID string) ([]lifecycle.Evaluated, error)
	ListAllFunc              func(ctx context.Context) ([]lifecycle.Evaluated, error)
	ListOverdueFunc          func(ctx context.Context) ([]lifecycle.Evaluated, error)
	ListWarningsFunc         func(ctx context.Context) ([]lifecycle.Evaluated, error)
	UpdateStatusFunc         func(ctx context.Context, officerID, reportID, status string) (*lifecycle.Evaluated, error)
}

func (m *MockReportService) Create(ctx context.Context, citizenID string, input services.CreateReportInput) (*lifecycle.Evaluated, error) {
	if m.CreateFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.CreateFunc(ctx, citizenID, input)
}

func (m *MockReportService) CreateFromTranscript(ctx context.Context, citizenID, transcript string, position *voice.Coordinates) (*services.VoiceReport, error) {
	if m.CreateFromTranscriptFunc == nil {
		return nil, models.ErrUnrecognizedCommand
	}
	return m.CreateFromTranscriptFunc(ctx, citizenID, transcript, position)
}

func (m *MockReportService) ListMine(ctx context.Context, citizenID string) ([]lifecycle.Evaluated, error) {
	if m.ListMineFunc == nil {
		return []lifecycle.Evaluated{}, nil
	}
	return m.ListMineFunc(ctx, citizenID)
}

func (m *MockReportService) ListAll(ctx context.Context) ([]lifecycle.Evaluated, error) {
	if m.ListAllFunc == nil {
		return []lifecycle.Evaluated{}, nil
	}
	return m.ListAllFunc(ctx)
}

func (m *MockReportService) ListOverdue(ctx context.Context) ([]lifecycle.Evaluated, error) {
	if m.ListOverdueFunc == nil {
		return []lifecycle.Evaluated{}, nil
	}
	return m.ListOverdueFunc(ctx)
}

func (m *MockReportService) ListWarnings(ctx context.Context) ([]lifecycle.Evaluated, error) {
	if m.ListWarningsFunc == nil {
		return []lifecycle.Evaluated{}, nil
	}
	return m.ListWarningsFunc(ctx)
}

func (m *MockReportService) UpdateStatus(ctx context.Context, officerID, reportID, status string) (*lifecycle.Evaluated, error) {
	if m.UpdateStatusFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UpdateStatusFunc(ctx, officerID, reportID, status)
}

// MockHealthChecker implements HealthChecker for testing
type MockHealthChecker struct {
	Err error
}

func (m *MockHealthChecker) HealthCheck(ctx context.Context) error {
	return m.Err
}
