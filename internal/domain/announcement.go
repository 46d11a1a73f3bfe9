package domain

import "time"

type AnnouncementPhase string

const (
	PhaseActive    AnnouncementPhase = "active"
	PhaseScheduled AnnouncementPhase = "scheduled"
	PhaseExpired   AnnouncementPhase = "expired"
)

type Announcement struct {
	ID        uint       `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	StartTime *time.Time `json:"startTime,omitempty"`
	EndTime   *time.Time `json:"endTime,omitempty"`
	CreatedBy uint       `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Phase is derived from the visibility window, it is never stored.
func (a Announcement) Phase(now time.Time) AnnouncementPhase {
	if a.StartTime != nil && now.Before(*a.StartTime) {
		return PhaseScheduled
	}
	if a.EndTime != nil && !now.Before(*a.EndTime) {
		return PhaseExpired
	}
	return PhaseActive
}

type AnnouncementView struct {
	Announcement
	Phase AnnouncementPhase `json:"status"`
}
