package model

import "time"

// StatusCount is one slice of the status breakdown.
type StatusCount struct {
	Label  string         `json:"label"`
	Status DocumentStatus `json:"status"`
	Value  int            `json:"value"`
	Pct    int            `json:"pct"`
}

// StatusSummary counts documents per status at one point in time.
type StatusSummary struct {
	Total       int           `json:"total"`
	Breakdown   []StatusCount `json:"breakdown"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// Count returns the value for status, or 0.
func (s StatusSummary) Count(status DocumentStatus) int {
	for _, c := range s.Breakdown {
		if c.Status == status {
			return c.Value
		}
	}
	return 0
}

// UserBreakdown is the per-owner row of the user report.
type UserBreakdown struct {
	UserID string                 `json:"user_id"`
	Name   string                 `json:"name"`
	Role   Role                   `json:"role"`
	Total  int                    `json:"total"`
	Counts map[DocumentStatus]int `json:"counts"`
}

// Dashboard is the landing-page snapshot.
type Dashboard struct {
	Total           int          `json:"total"`
	Pending         int          `json:"pending"`
	Approved        int          `json:"approved"`
	Profiles        int          `json:"profiles"`
	RecentDocuments []Document   `json:"recent_documents"`
	RecentActivity  []AuditEntry `json:"recent_activity"`
	GeneratedAt     time.Time    `json:"generated_at"`
}

// Report bundles everything the spreadsheet export contains, read from one snapshot.
type Report struct {
	Summary        StatusSummary   `json:"summary"`
	Users          []UserBreakdown `json:"users"`
	RecentActivity []AuditEntry    `json:"recent_activity"`
}
