package domain

import (
	"fmt"
	"time"
)

type EventType string

const (
	EventTypePractice EventType = "Practice"
	EventTypeService  EventType = "Service"
)

func (t EventType) Valid() bool {
	return t == EventTypePractice || t == EventTypeService
}

const ClockLayout = "15:04"

type Event struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Type        EventType `json:"type"`
	Date        Date      `json:"date"`
	StartTime   string    `json:"startTime"`
	EndTime     string    `json:"endTime"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedBy   uint      `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// EndsAt is the instant the event finishes in loc. Events without an end time
// last until the end of their day.
func (e Event) EndsAt(loc *time.Location) time.Time {
	day := e.Date.StartIn(loc)
	if e.EndTime == "" {
		return day.AddDate(0, 0, 1)
	}
	h, m, err := ParseClock(e.EndTime)
	if err != nil {
		return day.AddDate(0, 0, 1)
	}
	return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func (e Event) StartsAt(loc *time.Location) time.Time {
	day := e.Date.StartIn(loc)
	h, m, err := ParseClock(e.StartTime)
	if err != nil {
		return day
	}
	return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func (e Event) HasEnded(now time.Time, loc *time.Location) bool {
	return !now.Before(e.EndsAt(loc))
}

// ParseClock parses an "HH:MM" time of day.
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	return t.Hour(), t.Minute(), nil
}
