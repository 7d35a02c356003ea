package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BradenHooton/citypulse/internal/lifecycle"
	"github.com/BradenHooton/citypulse/internal/models"
	"github.com/BradenHooton/citypulse/internal/voice"
	pkglogger "github.com/BradenHooton/citypulse/pkg/logger"
)

// ReportRepository defines the report store operations
type ReportRepository interface {
	Create(ctx context.Context, input models.NewReport, now time.Time) (*models.Report, error)
	GetByID(ctx context.Context, id string) (*models.Report, error)
	ListByCitizen(ctx context.Context, citizenID string) ([]*models.Report, error)
	ListAll(ctx context.Context) ([]*models.Report, error)
	UpdateStatus(ctx context.Context, id string, status models.Status, now time.Time) (*models.Report, error)
}

// ReportService owns report creation, listing and triage
type ReportService struct {
	repo        ReportRepository
	engine      *lifecycle.Engine
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewReportService creates a new ReportService
func NewReportService(repo ReportRepository, engine *lifecycle.Engine, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *ReportService {
	return &ReportService{
		repo:        repo,
		engine:      engine,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// CreateReportInput is a citizen's report submission
type CreateReportInput struct {
	Type        string
	Description string
	Lat         *float64
	Lng         *float64
}

// VoiceReport is the outcome of a voice submission
type VoiceReport struct {
	Report  lifecycle.Evaluated
	Command *voice.Command
}

func validatePosition(lat, lng *float64) error {
	if (lat == nil) != (lng == nil) {
		return fmt.Errorf("%w: lat and lng must be given together", models.ErrValidation)
	}
	if lat != nil && (*lat < -90 || *lat > 90) {
		return fmt.Errorf("%w: lat out of range", models.ErrValidation)
	}
	if lng != nil && (*lng < -180 || *lng > 180) {
		return fmt.Errorf("%w: lng out of range", models.ErrValidation)
	}
	return nil
}

// Create stores a new report owned by citizenID
func (s *ReportService) Create(ctx context.Context, citizenID string, input CreateReportInput) (*lifecycle.Evaluated, error) {
	input.Type = strings.TrimSpace(input.Type)
	if input.Type == "" {
		return nil, fmt.Errorf("%w: type is required", models.ErrValidation)
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, fmt.Errorf("%w: description is required", models.ErrValidation)
	}
	if err := validatePosition(input.Lat, input.Lng); err != nil {
		return nil, err
	}

	report, err := s.repo.Create(ctx, models.NewReport{
		CitizenID:   citizenID,
		Type:        input.Type,
		Description: input.Description,
		Lat:         input.Lat,
		Lng:         input.Lng,
	}, s.engine.Now())
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			return nil, err
		}
		s.logger.Error("failed to create report", slog.String("citizen_id", citizenID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("report created",
		slog.String("report_id", report.ID),
		slog.String("citizen_id", citizenID),
		slog.String("type", report.Type),
	)
	return s.evaluate(report), nil
}

// CreateFromTranscript parses a spoken command and files it as a report
func (s *ReportService) CreateFromTranscript(ctx context.Context, citizenID, transcript string, position *voice.Coordinates) (*VoiceReport, error) {
	if position != nil {
		if err := validatePosition(&position.Lat, &position.Lng); err != nil {
			return nil, err
		}
	}

	cmd, err := voice.Parse(transcript, position)
	if err != nil {
		s.logger.Info("voice command not understood", slog.String("citizen_id", citizenID))
		return nil, err
	}

	input := CreateReportInput{Type: cmd.IssueType, Description: cmd.Description}
	if cmd.Coordinates != nil {
		lat, lng := cmd.Coordinates.Lat, cmd.Coordinates.Lng
		input.Lat, input.Lng = &lat, &lng
	}

	created, err := s.Create(ctx, citizenID, input)
	if err != nil {
		return nil, err
	}
	return &VoiceReport{Report: *created, Command: cmd}, nil
}

// ListMine returns the citizen's own reports in submission order
func (s *ReportService) ListMine(ctx context.Context, citizenID string) ([]lifecycle.Evaluated, error) {
	reports, err := s.repo.ListByCitizen(ctx, citizenID)
	if err != nil {
		s.logger.Error("failed to list citizen reports", slog.String("citizen_id", citizenID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return s.engine.EvaluateAll(reports), nil
}

// ListAll returns every report with the owning citizen's username
func (s *ReportService) ListAll(ctx context.Context) ([]lifecycle.Evaluated, error) {
	reports, err := s.listAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.engine.EvaluateAll(reports), nil
}

// ListOverdue returns unresolved reports past the SLA window
func (s *ReportService) ListOverdue(ctx context.Context) ([]lifecycle.Evaluated, error) {
	reports, err := s.listAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.engine.Overdue(reports), nil
}

// ListWarnings returns reports that breached at least one SLA milestone
func (s *ReportService) ListWarnings(ctx context.Context) ([]lifecycle.Evaluated, error) {
	reports, err := s.listAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.engine.WithWarnings(reports), nil
}

func (s *ReportService) listAll(ctx context.Context) ([]*models.Report, error) {
	reports, err := s.repo.ListAll(ctx)
	if err != nil {
		s.logger.Error("failed to list reports", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return reports, nil
}

// UpdateStatus moves a report to the requested status on behalf of an officer.
// The status value is checked before the report is looked up.
func (s *ReportService) UpdateStatus(ctx context.Context, officerID, reportID, requested string) (*lifecycle.Evaluated, error) {
	next, err := models.ParseStatus(requested)
	if err != nil {
		return nil, err
	}

	current, err := s.repo.GetByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get report", slog.String("report_id", reportID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.engine.Transition(current.Status, next); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateStatus(ctx, reportID, next, s.engine.Now())
	if err != nil {
		if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrInvalidStatus) {
			return nil, err
		}
		s.logger.Error("failed to update report status", slog.String("report_id", reportID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogStatusChange(ctx, pkglogger.StatusChange{
		ReportID:  reportID,
		OfficerID: officerID,
		From:      string(current.Status),
		To:        string(next),
	})
	return s.evaluate(updated), nil
}

func (s *ReportService) evaluate(report *models.Report) *lifecycle.Evaluated {
	return &lifecycle.Evaluated{Report: report, SLA: s.engine.Evaluate(report)}
}
