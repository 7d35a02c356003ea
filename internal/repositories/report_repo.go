package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/citypulse/internal/database"
	"github.com/BradenHooton/citypulse/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReportRepository is the PostgreSQL report store. Reports are listed in
// insertion order, tracked by the identity column seq.
type ReportRepository struct {
	pool *pgxpool.Pool
}

func NewReportRepository(db *database.DB) *ReportRepository {
	return &ReportRepository{pool: db.Pool}
}

const reportColumns = `r.id, r.citizen_id, COALESCE(u.username, ''), r.type, r.description,
		r.lat, r.lng, r.status, r.created_at, r.updated_at, r.resolved_at`

func scanReportRow(scanner rowScanner) (*models.Report, error) {
	var report models.Report
	var status string
	err := scanner.Scan(
		&report.ID, &report.CitizenID, &report.CitizenUsername, &report.Type, &report.Description,
		&report.Lat, &report.Lng, &status, &report.CreatedAt, &report.UpdatedAt,
		&report.ResolvedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	report.Status = models.Status(status)
	return &report, nil
}

func scanReportRows(rows pgx.Rows) ([]*models.Report, error) {
	defer rows.Close()

	reports := make([]*models.Report, 0)
	for rows.Next() {
		report, err := scanReportRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, report)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return reports, nil
}

// Create stores a new report with status not_done and createdAt = updatedAt = now
func (r *ReportRepository) Create(ctx context.Context, input models.NewReport, now time.Time) (*models.Report, error) {
	if _, err := uuid.Parse(input.CitizenID); err != nil {
		return nil, models.ErrValidation
	}

	query := `
		WITH r AS (
			INSERT INTO reports (id, citizen_id, type, description, lat, lng, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
			RETURNING *
		)
		SELECT ` + reportColumns + `
		FROM r LEFT JOIN users u ON u.id = r.citizen_id
	`

	return scanReportRow(r.pool.QueryRow(ctx, query,
		uuid.New().String(), input.CitizenID, input.Type, input.Description,
		input.Lat, input.Lng, string(models.StatusNotDone), now.UTC(),
	))
}

func (r *ReportRepository) GetByID(ctx context.Context, id string) (*models.Report, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, models.ErrNotFound
	}

	query := `
		SELECT ` + reportColumns + `
		FROM reports r LEFT JOIN users u ON u.id = r.citizen_id
		WHERE r.id = $1
	`
	return scanReportRow(r.pool.QueryRow(ctx, query, id))
}

func (r *ReportRepository) ListByCitizen(ctx context.Context, citizenID string) ([]*models.Report, error) {
	if _, err := uuid.Parse(citizenID); err != nil {
		return []*models.Report{}, nil
	}

	query := `
		SELECT ` + reportColumns + `
		FROM reports r LEFT JOIN users u ON u.id = r.citizen_id
		WHERE r.citizen_id = $1
		ORDER BY r.seq
	`

	rows, err := r.pool.Query(ctx, query, citizenID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	return scanReportRows(rows)
}

func (r *ReportRepository) ListAll(ctx context.Context) ([]*models.Report, error) {
	query := `
		SELECT ` + reportColumns + `
		FROM reports r LEFT JOIN users u ON u.id = r.citizen_id
		ORDER BY r.seq
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	return scanReportRows(rows)
}

// UpdateStatus sets the status and refreshes updated_at. updated_at never
// moves backwards, even if now is earlier than the stored value. resolved_at is
// stamped only when the report moves into finished from another status, kept
// on a repeated finished, and cleared when the report is reopened.
func (r *ReportRepository) UpdateStatus(ctx context.Context, id string, status models.Status, now time.Time) (*models.Report, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, models.ErrNotFound
	}

	query := `
		WITH r AS (
			UPDATE reports
			SET status = $2,
				updated_at = GREATEST($3, updated_at),
				resolved_at = CASE
					WHEN $2 <> 'finished' THEN NULL
					WHEN status = 'finished' THEN resolved_at
					ELSE $3
				END
			WHERE id = $1
			RETURNING *
		)
		SELECT ` + reportColumns + `
		FROM r LEFT JOIN users u ON u.id = r.citizen_id
	`

	return scanReportRow(r.pool.QueryRow(ctx, query, id, string(status), now.UTC()))
}
