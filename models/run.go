package models

import (
	"time"

	"github.com/google/uuid"
)

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusPartial   RunStatus = "partial"
	RunStatusSkipped   RunStatus = "skipped"
	RunStatusFailed    RunStatus = "failed"
)

type Trigger string

const (
	TriggerManual    Trigger = "manual"
	TriggerAutomated Trigger = "automated"
)

// SyncRun is the history record of one sync attempt.
type SyncRun struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	Trigger       Trigger    `json:"trigger" db:"trigger"`
	Forced        bool       `json:"forced" db:"forced"`
	StartedAt     time.Time  `json:"started_at" db:"started_at"`
	FinishedAt    *time.Time `json:"finished_at" db:"finished_at"`
	Status        RunStatus  `json:"status" db:"status"`
	ListingsFound int        `json:"listings_found" db:"listings_found"`
	ErrorsCount   int        `json:"errors_count" db:"errors_count"`
	ErrorMessage  string     `json:"error_message" db:"error_message"`
	DurationMS    int64      `json:"duration_ms" db:"duration_ms"`
}

// SyncOutcome is what a sync trigger reports back to its caller.
type SyncOutcome struct {
	Success   bool       `json:"success"`
	Skipped   bool       `json:"skipped,omitempty"`
	Message   string     `json:"message,omitempty"`
	LastSync  *time.Time `json:"lastSync,omitempty"`
	Count     int        `json:"count"`
	Locations []string   `json:"locations,omitempty"`
	Duration  int64      `json:"duration"`
	Errors    []string   `json:"errors,omitempty"`
	Error     string     `json:"error,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
	Trigger   Trigger    `json:"trigger"`
	RunID     uuid.UUID  `json:"runId"`
	Changes   *Changes   `json:"changes,omitempty"`
}

// Changes counts listing differences between two consecutive caches.
type Changes struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
	Updated int `json:"updated"`
}

func (c Changes) Empty() bool {
	return c.Added == 0 && c.Removed == 0 && c.Updated == 0
}
