package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/BradenHooton/citypulse/internal/auth"
	"github.com/BradenHooton/citypulse/internal/lifecycle"
	"github.com/BradenHooton/citypulse/internal/models"
	"github.com/BradenHooton/citypulse/internal/services"
	"github.com/BradenHooton/citypulse/internal/voice"
	pkghttp "github.com/BradenHooton/citypulse/pkg/http"
	"github.com/go-chi/chi/v5"
)

// ReportServiceInterface defines the report operations used by the handlers
type ReportServiceInterface interface {
	Create(ctx context.Context, citizenID string, input services.CreateReportInput) (*lifecycle.Evaluated, error)
	CreateFromTranscript(ctx context.Context, citizenID, transcript string, position *voice.Coordinates) (*services.VoiceReport, error)
	ListMine(ctx context.Context, citizenID string) ([]lifecycle.Evaluated, error)
	ListAll(ctx context.Context) ([]lifecycle.Evaluated, error)
	ListOverdue(ctx context.Context) ([]lifecycle.Evaluated, error)
	ListWarnings(ctx context.Context) ([]lifecycle.Evaluated, error)
	UpdateStatus(ctx context.Context, officerID, reportID, status string) (*lifecycle.Evaluated, error)
}

// ReportHandler serves the report endpoints for citizens and officers
type ReportHandler struct {
	service ReportServiceInterface
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(service ReportServiceInterface) *ReportHandler {
	return &ReportHandler{service: service}
}

// Request DTOs

type CreateReportRequest struct {
	Type        string   `json:"type" validate:"required,max=100"`
	Description string   `json:"description" validate:"required,max=2000"`
	Lat         *float64 `json:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lng         *float64 `json:"lng" validate:"omitempty,gte=-180,lte=180"`
}

type VoiceReportRequest struct {
	Transcript string   `json:"transcript" validate:"required,max=1000"`
	Lat        *float64 `json:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lng        *float64 `json:"lng" validate:"omitempty,gte=-180,lte=180"`
}

// UpdateStatusRequest carries the requested status; its value is checked by the service
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// Response DTOs

// ReportResponse is a stored report plus its derived SLA fields
type ReportResponse struct {
	ID                string     `json:"id"`
	CitizenID         string     `json:"citizenId"`
	CitizenUsername   string     `json:"citizenUsername,omitempty"`
	Type              string     `json:"type"`
	Description       string     `json:"description"`
	Lat               *float64   `json:"lat,omitempty"`
	Lng               *float64   `json:"lng,omitempty"`
	Status            string     `json:"status"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
	ResolvedAt        *time.Time `json:"resolvedAt,omitempty"`
	HoursUntilOverdue float64    `json:"hoursUntilOverdue"`
	Overdue           bool       `json:"overdue"`
	Warnings          int        `json:"warnings"`
	Urgency           string     `json:"urgency"`
}

// VoiceReportResponse is the created report and how the transcript was understood
type VoiceReportResponse struct {
	Report  ReportResponse `json:"report"`
	Command *voice.Command `json:"command"`
}

func NewReportResponse(ev lifecycle.Evaluated) ReportResponse {
	r := ev.Report
	return ReportResponse{
		ID:                r.ID,
		CitizenID:         r.CitizenID,
		CitizenUsername:   r.CitizenUsername,
		Type:              r.Type,
		Description:       r.Description,
		Lat:               r.Lat,
		Lng:               r.Lng,
		Status:            string(r.Status),
		CreatedAt:         r.CreatedAt.UTC(),
		UpdatedAt:         r.UpdatedAt.UTC(),
		ResolvedAt:        utcPtr(r.ResolvedAt),
		HoursUntilOverdue: ev.SLA.HoursUntilOverdue,
		Overdue:           ev.SLA.Overdue,
		Warnings:          ev.SLA.Warnings,
		Urgency:           string(ev.SLA.Urgency),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}

func newReportList(evs []lifecycle.Evaluated) []ReportResponse {
	out := make([]ReportResponse, 0, len(evs))
	for _, ev := range evs {
		out = append(out, NewReportResponse(ev))
	}
	return out
}

// writeReportError maps service errors onto the JSON error shape
func writeReportError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		pkghttp.WriteValidationError(w, err.Error())
	case errors.Is(err, models.ErrInvalidStatus):
		pkghttp.WriteError(w, http.StatusBadRequest, pkghttp.CodeInvalidStatus, "Invalid status")
	case errors.Is(err, models.ErrUnrecognizedCommand):
		pkghttp.WriteError(w, http.StatusBadRequest, pkghttp.CodeUnrecognizedCommand,
			"Could not find an issue type and a location in the transcript")
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "Report not found")
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}

// Create handles POST /reports
func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "No token")
		return
	}

	var req CreateReportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteValidationError(w, err.Error())
		return
	}

	created, err := h.service.Create(r.Context(), claims.UserID, services.CreateReportInput{
		Type:        req.Type,
		Description: req.Description,
		Lat:         req.Lat,
		Lng:         req.Lng,
	})
	if err != nil {
		writeReportError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, NewReportResponse(*created))
}

// CreateFromVoice handles POST /reports/voice
func (h *ReportHandler) CreateFromVoice(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "No token")
		return
	}

	var req VoiceReportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteValidationError(w, err.Error())
		return
	}

	if (req.Lat == nil) != (req.Lng == nil) {
		pkghttp.WriteValidationError(w, "lat and lng must be given together")
		return
	}

	var position *voice.Coordinates
	if req.Lat != nil {
		position = &voice.Coordinates{Lat: *req.Lat, Lng: *req.Lng}
	}

	result, err := h.service.CreateFromTranscript(r.Context(), claims.UserID, req.Transcript, position)
	if err != nil {
		writeReportError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, VoiceReportResponse{
		Report:  NewReportResponse(result.Report),
		Command: result.Command,
	})
}

// ListMine handles GET /reports/mine
func (h *ReportHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "No token")
		return
	}

	reports, err := h.service.ListMine(r.Context(), claims.UserID)
	if err != nil {
		writeReportError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, newReportList(reports))
}

// ListAll handles GET /reports
func (h *ReportHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, h.service.ListAll)
}

// ListOverdue handles GET /reports/overdue
func (h *ReportHandler) ListOverdue(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, h.service.ListOverdue)
}

// ListWarnings handles GET /reports/warnings
func (h *ReportHandler) ListWarnings(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, h.service.ListWarnings)
}

func (h *ReportHandler) writeList(w http.ResponseWriter, r *http.Request, list func(context.Context) ([]lifecycle.Evaluated, error)) {
	reports, err := list(r.Context())
	if err != nil {
		writeReportError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, newReportList(reports))
}

// UpdateStatus handles PATCH /reports/{id}/status
func (h *ReportHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "No token")
		return
	}

	var req UpdateStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	updated, err := h.service.UpdateStatus(r.Context(), claims.UserID, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeReportError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, NewReportResponse(*updated))
}
