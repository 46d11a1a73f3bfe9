package domain

import "time"

type PermissionStatus string

const (
	PermissionPending  PermissionStatus = "pending"
	PermissionApproved PermissionStatus = "approved"
	PermissionRejected PermissionStatus = "rejected"
)

// IsReviewOutcome reports whether s can be set by a reviewer.
func (s PermissionStatus) IsReviewOutcome() bool {
	return s == PermissionApproved || s == PermissionRejected
}

// Permission is a member's request to be excused for a range of days.
type Permission struct {
	ID         uint             `json:"id"`
	UserID     uint             `json:"userId"`
	UserName   string           `json:"userName,omitempty"`
	StartDate  Date             `json:"startDate"`
	EndDate    Date             `json:"endDate"`
	Reason     string           `json:"reason"`
	Details    string           `json:"details,omitempty"`
	Status     PermissionStatus `json:"status"`
	ReviewedBy string           `json:"reviewedBy,omitempty"`
	ReviewedAt *time.Time       `json:"reviewedAt,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// Covers reports whether day falls inside [StartDate, EndDate].
func (p Permission) Covers(day Date) bool {
	return !day.BeforeDate(p.StartDate) && !day.AfterDate(p.EndDate)
}

func (p Permission) Overlaps(start, end Date) bool {
	return !end.BeforeDate(p.StartDate) && !start.AfterDate(p.EndDate)
}

// ActivePermission is the view handed to attendance takers.
type ActivePermission struct {
	UserID    uint   `json:"userId"`
	UserName  string `json:"userName"`
	StartDate Date   `json:"startDate"`
	EndDate   Date   `json:"endDate"`
	Reason    string `json:"reason"`
	Details   string `json:"details"`
}
