package models

import (
	"time"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Body struct {
		Status  string    `json:"status" example:"healthy" doc:"Service health status"`
		Version string    `json:"version" example:"1.0.0" doc:"API version"`
		Time    time.Time `json:"time" doc:"Current server time"`
	}
}

// GetLatestSweepResponse returns the most recent sweep session, which may
// still be running.
type GetLatestSweepResponse struct {
	Body SweepSession
}

// GetSweepRequest identifies a sweep session by ID
type GetSweepRequest struct {
	ID string `path:"id" doc:"Sweep session ID"`
}

// GetSweepStatusResponse represents the current status of a sweep
type GetSweepStatusResponse struct {
	Body struct {
		ID              string  `json:"id" doc:"Sweep session ID"`
		Status          string  `json:"status" enum:"running,completed,aborted_overflow,aborted_error" doc:"Sweep status"`
		CursorFrequency float64 `json:"cursor_frequency" doc:"Frequency currently under test in Hz"`
		Points          int     `json:"points" doc:"Number of records captured so far"`
		Skipped         int     `json:"skipped" doc:"Number of points skipped after retries"`
		Message         string  `json:"message,omitempty" doc:"Human-readable status message"`
	}
}

// GetSweepRecordsResponse returns the records of a sweep session in capture order
type GetSweepRecordsResponse struct {
	Body struct {
		ID      string   `json:"id" doc:"Sweep session ID"`
		Records []Record `json:"records" doc:"Accepted measurement records"`
	}
}

// ListSweepsRequest carries paging parameters for the archive listing
type ListSweepsRequest struct {
	Limit int `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"Maximum number of sessions to return"`
}

// ListSweepsResponse returns archived sweep sessions, newest first
type ListSweepsResponse struct {
	Body struct {
		Sessions []*SweepSession `json:"sessions"`
	}
}
