package lifecycle

import (
	"testing"
	"time"

	"github.com/BradenHooton/citypulse/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newReport(status models.Status, createdAt, updatedAt time.Time) *models.Report {
	return &models.Report{
		ID:        "r1",
		CitizenID: "c1",
		Type:      "pothole",
		Status:    status,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestEvaluate_FreshReportIsNotOverdue(t *testing.T) {
	engine := NewEngine(DefaultPolicy(), fixedClock(t0))
	sla := engine.Evaluate(newReport(models.StatusNotDone, t0, t0))

	assert.False(t, sla.Overdue)
	assert.InDelta(t, 48.0, sla.HoursUntilOverdue, 1e-9)
	assert.Equal(t, 0, sla.Warnings)
	assert.Equal(t, UrgencyOnTrack, sla.Urgency)
}

func TestEvaluate_OverdueScenario(t *testing.T) {
	engine := NewEngine(DefaultPolicy(), nil)
	report := newReport(models.StatusNotDone, t0, t0)

	at47 := engine.EvaluateAt(report, t0.Add(47*time.Hour))
	assert.False(t, at47.Overdue)
	assert.InDelta(t, 1.0, at47.HoursUntilOverdue, 1e-9)

	at49 := engine.EvaluateAt(report, t0.Add(49*time.Hour))
	assert.True(t, at49.Overdue)
	assert.InDelta(t, -1.0, at49.HoursUntilOverdue, 1e-9)

	// Officer finishes the report at T0+49h
	report.Status = models.StatusFinished
	report.UpdatedAt = t0.Add(49 * time.Hour)
	report.ResolvedAt = &report.UpdatedAt

	after := engine.EvaluateAt(report, t0.Add(49*time.Hour))
	assert.False(t, after.Overdue)
	assert.Equal(t, UrgencyResolved, after.Urgency)
}

func TestEvaluate_OverdueAtExactDeadline(t *testing.T) {
	engine := NewEngine(DefaultPolicy(), nil)
	sla := engine.EvaluateAt(newReport(models.StatusInProgress, t0, t0), t0.Add(48*time.Hour))

	assert.True(t, sla.Overdue)
	assert.Equal(t, 1, sla.Warnings)
}

func TestEvaluate_FinishedNeverOverdue(t *testing.T) {
	engine := NewEngine(DefaultPolicy(), nil)
	report := newReport(models.StatusFinished, t0, t0.Add(time.Hour))

	for _, age := range []time.Duration{0, 47 * time.Hour, 48 * time.Hour, 30 * 24 * time.Hour} {
		sla := engine.EvaluateAt(report, t0.Add(age))
		assert.False(t, sla.Overdue, "age %s", age)
	}
}

func TestEvaluate_WarningsAccrueEveryInterval(t *testing.T) {
	engine := NewEngine(DefaultPolicy(), nil)
	report := newReport(models.StatusNotDone, t0, t0)

	tests := []struct {
		age      time.Duration
		expected int
	}{
		{47 * time.Hour, 0},
		{48 * time.Hour, 1},
		{71 * time.Hour, 1},
		{72 * time.Hour, 2},
		{95 * time.Hour, 2},
		{96 * time.Hour, 3},
	}

	for _, tt := range tests {
		sla := engine.EvaluateAt(report, t0.Add(tt.age))
		assert.Equal(t, tt.expected, sla.Warnings, "age %s", tt.age)
	}
}

func resolvedReport(createdAt, resolvedAt, updatedAt time.Time) *models.Report {
	report := newReport(models.StatusFinished, createdAt, updatedAt)
	report.ResolvedAt = &resolvedAt
	return report
}

func TestEvaluate_FinishedLateKeepsWarnings(t *testing.T) {
	engine := NewEngine(DefaultPolicy(), nil)
	report := resolvedReport(t0, t0.Add(50*time.Hour), t0.Add(50*time.Hour))

	sla := engine.EvaluateAt(report, t0.Add(30*24*time.Hour))

	assert.False(t, sla.Overdue)
	assert.Equal(t, 1, sla.Warnings)
}

func TestEvaluate_WarningsCountUntilResolvedNotLastUpdate(t *testing.T) {
	engine := NewEngine(DefaultPolicy(), nil)
	// closed at 50h, finished submitted again at 80h
	report := resolvedReport(t0, t0.Add(50*time.Hour), t0.Add(80*time.Hour))

	sla := engine.EvaluateAt(report, t0.Add(100*time.Hour))

	assert.Equal(t, 1, sla.Warnings)
	assert.Equal(t, UrgencyResolved, sla.Urgency)
}

func TestEvaluate_FinishedWithoutResolvedAtUsesUpdatedAt(t *testing.T) {
	engine := NewEngine(DefaultPolicy(), nil)
	report := newReport(models.StatusFinished, t0, t0.Add(75*time.Hour))

	sla := engine.EvaluateAt(report, t0.Add(200*time.Hour))

	assert.Equal(t, 2, sla.Warnings)
}

func TestEvaluate_FinishedOnTimeHasNoWarnings(t *testing.T) {
	engine := NewEngine(DefaultPolicy(), nil)
	report := resolvedReport(t0, t0.Add(10*time.Hour), t0.Add(10*time.Hour))

	sla := engine.EvaluateAt(report, t0.Add(100*time.Hour))

	assert.Equal(t, 0, sla.Warnings)
}

func TestEvaluate_UrgencyProgression(t *testing.T) {
	engine := NewEngine(DefaultPolicy(), nil)
	report := newReport(models.StatusNotDone, t0, t0)

	assert.Equal(t, UrgencyOnTrack, engine.EvaluateAt(report, t0.Add(35*time.Hour)).Urgency)
	assert.Equal(t, UrgencyDueSoon, engine.EvaluateAt(report, t0.Add(36*time.Hour)).Urgency)
	assert.Equal(t, UrgencyDueSoon, engine.EvaluateAt(report, t0.Add(47*time.Hour)).Urgency)
	assert.Equal(t, UrgencyOverdue, engine.EvaluateAt(report, t0.Add(48*time.Hour)).Urgency)
}

func TestEvaluate_CustomWindow(t *testing.T) {
	policy := DefaultPolicy()
	policy.Window = 2 * time.Hour
	policy.WarningInterval = time.Hour
	engine := NewEngine(policy, nil)
	report := newReport(models.StatusNotDone, t0, t0)

	sla := engine.EvaluateAt(report, t0.Add(4*time.Hour))
	assert.True(t, sla.Overdue)
	assert.Equal(t, 3, sla.Warnings)
}

func TestTransition_PermissiveAllowsEveryPair(t *testing.T) {
	engine := NewEngine(DefaultPolicy(), nil)

	for _, from := range models.Statuses {
		for _, to := range models.Statuses {
			require.NoError(t, engine.Transition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestTransition_RejectsUnknownStatus(t *testing.T) {
	engine := NewEngine(DefaultPolicy(), nil)

	for _, bad := range []models.Status{"", "done", "FINISHED"} {
		assert.ErrorIs(t, engine.Transition(models.StatusNotDone, bad), models.ErrInvalidStatus, "status %q", bad)
		assert.ErrorIs(t, engine.Transition(bad, models.StatusFinished), models.ErrInvalidStatus, "status %q", bad)
	}
}

func TestTransition_RestrictedTable(t *testing.T) {
	policy := DefaultPolicy()
	policy.Transitions = TransitionTable{
		models.StatusNotDone:    {models.StatusInProgress: true},
		models.StatusInProgress: {models.StatusFinished: true},
	}
	engine := NewEngine(policy, nil)

	assert.NoError(t, engine.Transition(models.StatusNotDone, models.StatusInProgress))
	assert.ErrorIs(t, engine.Transition(models.StatusFinished, models.StatusNotDone), models.ErrInvalidStatus)
}

func TestOverdueAndWarningFilters(t *testing.T) {
	now := t0.Add(100 * time.Hour)
	engine := NewEngine(DefaultPolicy(), fixedClock(now))

	fresh := newReport(models.StatusNotDone, now.Add(-time.Hour), now.Add(-time.Hour))
	late := newReport(models.StatusInProgress, t0, t0)
	resolvedLate := resolvedReport(t0, t0.Add(60*time.Hour), t0.Add(60*time.Hour))
	resolvedOnTime := resolvedReport(t0, t0.Add(5*time.Hour), t0.Add(5*time.Hour))
	all := []*models.Report{fresh, late, resolvedLate, resolvedOnTime}

	overdue := engine.Overdue(all)
	require.Len(t, overdue, 1)
	assert.Same(t, late, overdue[0].Report)
	assert.True(t, overdue[0].SLA.Overdue)

	warned := engine.WithWarnings(all)
	require.Len(t, warned, 2)
	assert.Same(t, late, warned[0].Report)
	assert.Equal(t, 3, warned[0].SLA.Warnings)
	assert.Same(t, resolvedLate, warned[1].Report)
	assert.Equal(t, 1, warned[1].SLA.Warnings)
}

func TestEvaluateAll_PreservesOrder(t *testing.T) {
	now := t0.Add(50 * time.Hour)
	engine := NewEngine(DefaultPolicy(), fixedClock(now))

	a := newReport(models.StatusNotDone, t0, t0)
	b := newReport(models.StatusFinished, t0, t0.Add(time.Hour))

	got := engine.EvaluateAll([]*models.Report{a, b})
	require.Len(t, got, 2)
	assert.Same(t, a, got[0].Report)
	assert.Equal(t, UrgencyOverdue, got[0].SLA.Urgency)
	assert.Same(t, b, got[1].Report)
	assert.Equal(t, UrgencyResolved, got[1].SLA.Urgency)
}

func TestFilters_EmptyInputReturnsEmptySlice(t *testing.T) {
	engine := NewEngine(DefaultPolicy(), nil)

	assert.NotNil(t, engine.Overdue(nil))
	assert.Empty(t, engine.WithWarnings(nil))
}
