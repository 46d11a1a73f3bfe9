package domain

import (
	"fmt"
	"math"
)

type Status string

const (
	StatusPresent Status = "Present"
	StatusAbsent  Status = "Absent"
	StatusExcused Status = "Excused"

	// StatusNoEvent is only shown by clients for members that are not yet part
	// of any totals. It must never be stored.
	StatusNoEvent Status = "No Event"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusExcused:
		return true
	}
	return false
}

func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.Valid() {
		return "", fmt.Errorf("invalid attendance status %q", s)
	}
	return status, nil
}

// EventSnapshot is the copy of event fields kept inside an attendance record
// so history survives the event being edited or deleted.
type EventSnapshot struct {
	Name string `json:"event"`
	Date Date   `json:"date"`
}

func SnapshotOf(e Event) EventSnapshot {
	return EventSnapshot{Name: e.Name, Date: e.Date}
}

type AttendanceRecord struct {
	EventID uint `json:"eventId"`
	EventSnapshot
	Status Status `json:"status"`
}

// AttendanceBucket holds every attendance record of one user. At most one
// record exists per event.
type AttendanceBucket struct {
	UserID  uint               `json:"userId"`
	Name    string             `json:"name"`
	Records []AttendanceRecord `json:"records"`
}

// Upsert replaces the record for the same event in place, or appends it.
// It reports whether an existing record was replaced.
func (b *AttendanceBucket) Upsert(record AttendanceRecord) bool {
	for i := range b.Records {
		if b.Records[i].EventID == record.EventID {
			b.Records[i] = record
			return true
		}
	}
	b.Records = append(b.Records, record)
	return false
}

func (b AttendanceBucket) Record(eventID uint) (AttendanceRecord, bool) {
	for _, r := range b.Records {
		if r.EventID == eventID {
			return r, true
		}
	}
	return AttendanceRecord{}, false
}

// ResolveEffectiveStatus applies the attendance policy: an active permission
// always yields Excused, otherwise the submitted mark is kept and a missing
// mark becomes Absent.
func ResolveEffectiveStatus(submitted *Status, hasActivePermission bool) Status {
	if hasActivePermission {
		return StatusExcused
	}
	if submitted == nil {
		return StatusAbsent
	}
	return *submitted
}

type AttendanceSummary struct {
	UserID      uint   `json:"userId"`
	Name        string `json:"name"`
	Present     int    `json:"Present"`
	Absent      int    `json:"Absent"`
	Excused     int    `json:"Excused"`
	TotalEvents int    `json:"totalEvents"`
	Percentage  int    `json:"percentage"`
}

// Summarize folds records into counts. Excused counts as attended.
func Summarize(records []AttendanceRecord) AttendanceSummary {
	var s AttendanceSummary
	for _, r := range records {
		switch r.Status {
		case StatusPresent:
			s.Present++
		case StatusAbsent:
			s.Absent++
		case StatusExcused:
			s.Excused++
		default:
			continue
		}
		s.TotalEvents++
	}
	s.Percentage = AttendancePercentage(s.Present, s.Excused, s.TotalEvents)
	return s
}

func AttendancePercentage(present, excused, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(present+excused) / float64(total)))
}

// DetailedAttendance pairs a user with the raw records of their bucket.
type DetailedAttendance struct {
	User    User               `json:"user"`
	Records []AttendanceRecord `json:"records"`
}

type SaveAttendanceResult struct {
	Message      string `json:"message"`
	UpdatedCount int    `json:"updatedCount"`
}

// AttendanceUpsert is one user's share of a per-event save.
type AttendanceUpsert struct {
	UserID uint
	Name   string
	Record AttendanceRecord
}

// UserAttendance is a member's own history with its summary.
type UserAttendance struct {
	Summary AttendanceSummary  `json:"summary"`
	Records []AttendanceRecord `json:"records"`
}
