package services

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"github.com/BradenHooton/citypulse/internal/models"
	pkglogger "github.com/BradenHooton/citypulse/pkg/logger"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	CreateFunc        func(ctx context.Context, user *models.User) (*models.User, error)
	GetByUsernameFunc func(ctx context.Context, username string) (*models.User, error)
	GetByIDFunc       func(ctx context.Context, id string) (*models.User, error)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

// MockReportRepository implements ReportRepository for testing
type MockReportRepository struct {
	CreateFunc        func(ctx context.Context, input models.NewReport, now time.Time) (*models.Report, error)
	GetByIDFunc       func(ctx context.Context, id string) (*models.Report, error)
	ListByCitizenFunc func(ctx context.Context, citizenID string) ([]*models.Report, error)
	ListAllFunc       func(ctx context.Context) ([]*models.Report, error)
	UpdateStatusFunc  func(ctx context.Context, id string, status models.Status, now time.Time) (*models.Report, error)
}

func (m *MockReportRepository) Create(ctx context.Context, input models.NewReport, now time.Time) (*models.Report, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, input, now)
	}
	return nil, models.ErrInternalServer
}

func (m *MockReportRepository) GetByID(ctx context.Context, id string) (*models.Report, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockReportRepository) ListByCitizen(ctx context.Context, citizenID string) ([]*models.Report, error) {
	if m.ListByCitizenFunc != nil {
		return m.ListByCitizenFunc(ctx, citizenID)
	}
	return []*models.Report{}, nil
}

func (m *MockReportRepository) ListAll(ctx context.Context) ([]*models.Report, error) {
	if m.ListAllFunc != nil {
		return m.ListAllFunc(ctx)
	}
	return []*models.Report{}, nil
}

func (m *MockReportRepository) UpdateStatus(ctx context.Context, id string, status models.Status, now time.Time) (*models.Report, error) {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status, now)
	}
	return nil, models.ErrNotFound
}

// MockTokenIssuer implements TokenIssuer for testing
type MockTokenIssuer struct {
	GenerateTokenFunc func(userID, role string) (string, error)
}

func (m *MockTokenIssuer) GenerateToken(userID, role string) (string, error) {
	if m.GenerateTokenFunc != nil {
		return m.GenerateTokenFunc(userID, role)
	}
	return "token-" + userID, nil
}

// NewTestUser returns a user with the given id, username, role and password hash
func NewTestUser(id, username, role, passwordHash string) *models.User {
	return &models.User{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// NewTestReport returns a report created at createdAt and last updated at updatedAt
func NewTestReport(id, citizenID string, status models.Status, createdAt, updatedAt time.Time) *models.Report {
	return &models.Report{
		ID:          id,
		CitizenID:   citizenID,
		Type:        "pothole",
		Description: "Large pothole near the bus stop",
		Status:      status,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}

// NewTestLoggers returns a discarded service logger and an audit logger writing into buf
func NewTestLoggers(buf *bytes.Buffer) (*slog.Logger, *pkglogger.AuditLogger) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	return logger, pkglogger.NewAuditLogger(slog.New(slog.NewJSONHandler(buf, nil)), "development")
}
