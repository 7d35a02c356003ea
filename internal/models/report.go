package models

import "time"

// Status is the triage state of a report
type Status string

const (
	StatusNotDone    Status = "not_done"
	StatusInProgress Status = "in_progress"
	StatusFinished   Status = "finished"
)

// Statuses lists every valid status in board order
var Statuses = []Status{StatusNotDone, StatusInProgress, StatusFinished}

// ParseStatus converts s to a Status, failing with ErrInvalidStatus for anything
// outside the three known values
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", ErrInvalidStatus
}

// Report is a single citizen-submitted civic issue as stored
type Report struct {
	ID              string
	CitizenID       string
	CitizenUsername string // resolved on read for officer views; empty otherwise
	Type            string
	Description     string
	Lat             *float64
	Lng             *float64
	Status          Status
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ResolvedAt      *time.Time // when the report last moved into finished; nil while unresolved
}

// NewReport carries the citizen-supplied fields of a report about to be created
type NewReport struct {
	CitizenID   string
	Type        string
	Description string
	Lat         *float64
	Lng         *float64
}
