// Package lifecycle derives SLA state for reports and validates status
// transitions. It owns no state: every value is recomputed from the stored
// createdAt/updatedAt/status fields against the engine clock.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/BradenHooton/citypulse/internal/models"
)

// Urgency buckets a report for the officer board
type Urgency string

const (
	UrgencyOnTrack  Urgency = "on_track"
	UrgencyDueSoon  Urgency = "due_soon"
	UrgencyOverdue  Urgency = "overdue"
	UrgencyResolved Urgency = "resolved"
)

// TransitionTable maps a current status to the statuses it may move to
type TransitionTable map[models.Status]map[models.Status]bool

// PermissiveTransitions allows every status to move to every status, including itself
func PermissiveTransitions() TransitionTable {
	table := make(TransitionTable, len(models.Statuses))
	for _, from := range models.Statuses {
		table[from] = make(map[models.Status]bool, len(models.Statuses))
		for _, to := range models.Statuses {
			table[from][to] = true
		}
	}
	return table
}

// Policy holds the SLA parameters
type Policy struct {
	Window          time.Duration // time from creation until a report is overdue
	WarningInterval time.Duration // each further interval past the window adds a warning
	DueSoon         time.Duration // remaining time at or below which a report is due soon
	Transitions     TransitionTable
}

// DefaultPolicy returns the 48h window with a warning every 24h after it
func DefaultPolicy() Policy {
	return Policy{
		Window:          48 * time.Hour,
		WarningInterval: 24 * time.Hour,
		DueSoon:         12 * time.Hour,
		Transitions:     PermissiveTransitions(),
	}
}

// SLA is the derived, non-persisted view of a report's timer
type SLA struct {
	HoursUntilOverdue float64
	Overdue           bool
	Warnings          int
	Urgency           Urgency
}

// Engine evaluates reports against a policy and a clock
type Engine struct {
	policy Policy
	clock  func() time.Time
}

// NewEngine creates an Engine. A nil clock uses time.Now.
func NewEngine(policy Policy, clock func() time.Time) *Engine {
	if clock == nil {
		clock = time.Now
	}
	if policy.Transitions == nil {
		policy.Transitions = PermissiveTransitions()
	}
	return &Engine{policy: policy, clock: clock}
}

// Now returns the engine's current time
func (e *Engine) Now() time.Time {
	return e.clock()
}

// Evaluate derives the SLA fields of a report at the engine's current time
func (e *Engine) Evaluate(report *models.Report) SLA {
	return e.EvaluateAt(report, e.clock())
}

// EvaluateAt derives the SLA fields of a report at the given instant
func (e *Engine) EvaluateAt(report *models.Report, now time.Time) SLA {
	age := now.Sub(report.CreatedAt)
	sla := SLA{
		HoursUntilOverdue: e.policy.Window.Hours() - age.Hours(),
	}

	finished := report.Status == models.StatusFinished
	sla.Overdue = !finished && sla.HoursUntilOverdue <= 0

	// A finished report stops accruing warnings at the moment it was resolved.
	end := now
	if finished {
		end = resolvedAt(report)
	}
	sla.Warnings = e.warningsUntil(report.CreatedAt, end)

	switch {
	case finished:
		sla.Urgency = UrgencyResolved
	case sla.Overdue:
		sla.Urgency = UrgencyOverdue
	case sla.HoursUntilOverdue <= e.policy.DueSoon.Hours():
		sla.Urgency = UrgencyDueSoon
	default:
		sla.Urgency = UrgencyOnTrack
	}

	return sla
}

// resolvedAt is when a finished report was closed. Records written before the
// resolution time was stored fall back to updatedAt.
func resolvedAt(report *models.Report) time.Time {
	if report.ResolvedAt != nil {
		return *report.ResolvedAt
	}
	return report.UpdatedAt
}

// warningsUntil counts breached milestones between createdAt and end: the
// deadline itself, then one per elapsed warning interval
func (e *Engine) warningsUntil(createdAt, end time.Time) int {
	breach := end.Sub(createdAt) - e.policy.Window
	if breach < 0 {
		return 0
	}
	if e.policy.WarningInterval <= 0 {
		return 1
	}
	return 1 + int(breach/e.policy.WarningInterval)
}

// Transition checks the policy table for a move between two parsed statuses
func (e *Engine) Transition(from, to models.Status) error {
	if !e.policy.Transitions[from][to] {
		return fmt.Errorf("%w: %s cannot move to %s", models.ErrInvalidStatus, from, to)
	}
	return nil
}

// Evaluated pairs a report with its SLA fields at a single instant
type Evaluated struct {
	Report *models.Report
	SLA    SLA
}

// EvaluateAll derives the SLA fields of every report against one reading of the clock
func (e *Engine) EvaluateAll(reports []*models.Report) []Evaluated {
	now := e.clock()
	out := make([]Evaluated, 0, len(reports))
	for _, r := range reports {
		out = append(out, Evaluated{Report: r, SLA: e.EvaluateAt(r, now)})
	}
	return out
}

// Overdue returns the reports that are overdue at the engine's current time
func (e *Engine) Overdue(reports []*models.Report) []Evaluated {
	return filter(e.EvaluateAll(reports), func(sla SLA) bool { return sla.Overdue })
}

// WithWarnings returns the reports that have at least one warning
func (e *Engine) WithWarnings(reports []*models.Report) []Evaluated {
	return filter(e.EvaluateAll(reports), func(sla SLA) bool { return sla.Warnings > 0 })
}

func filter(all []Evaluated, keep func(SLA) bool) []Evaluated {
	out := make([]Evaluated, 0)
	for _, ev := range all {
		if keep(ev.SLA) {
			out = append(out, ev)
		}
	}
	return out
}
