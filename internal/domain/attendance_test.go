package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statusPtr(s Status) *Status {
	return &s
}

func TestResolveEffectiveStatus(t *testing.T) {
	tests := []struct {
		name      string
		submitted *Status
		permitted bool
		want      Status
	}{
		{name: "permission overrides present", submitted: statusPtr(StatusPresent), permitted: true, want: StatusExcused},
		{name: "permission overrides absent", submitted: statusPtr(StatusAbsent), permitted: true, want: StatusExcused},
		{name: "permission without mark", permitted: true, want: StatusExcused},
		{name: "mark kept", submitted: statusPtr(StatusPresent), want: StatusPresent},
		{name: "excused mark kept", submitted: statusPtr(StatusExcused), want: StatusExcused},
		{name: "missing mark is absent", want: StatusAbsent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveEffectiveStatus(tt.submitted, tt.permitted))
		})
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"Present", "Absent", "Excused"} {
		status, err := ParseStatus(s)
		require.NoError(t, err)
		assert.Equal(t, Status(s), status)
	}

	for _, s := range []string{"No Event", "present", ""} {
		_, err := ParseStatus(s)
		assert.Error(t, err, s)
	}
}

func TestAttendanceBucket_Upsert(t *testing.T) {
	may1 := SnapshotOf(Event{Name: "Practice", Date: NewDate(2024, 5, 1)})
	may5 := SnapshotOf(Event{Name: "Mass", Date: NewDate(2024, 5, 5)})

	b := AttendanceBucket{UserID: 1, Name: "Ana"}

	assert.False(t, b.Upsert(AttendanceRecord{EventID: 10, EventSnapshot: may1, Status: StatusPresent}))
	assert.False(t, b.Upsert(AttendanceRecord{EventID: 11, EventSnapshot: may5, Status: StatusAbsent}))
	require.Len(t, b.Records, 2)

	assert.True(t, b.Upsert(AttendanceRecord{EventID: 10, EventSnapshot: may1, Status: StatusExcused}))
	require.Len(t, b.Records, 2)

	// replaced in place
	assert.Equal(t, uint(10), b.Records[0].EventID)
	assert.Equal(t, StatusExcused, b.Records[0].Status)
	assert.Equal(t, uint(11), b.Records[1].EventID)

	r, ok := b.Record(11)
	require.True(t, ok)
	assert.Equal(t, "Mass", r.Name)

	_, ok = b.Record(99)
	assert.False(t, ok)
}

func TestSummarize(t *testing.T) {
	records := []AttendanceRecord{
		{EventID: 1, Status: StatusPresent},
		{EventID: 2, Status: StatusPresent},
		{EventID: 3, Status: StatusAbsent},
		{EventID: 4, Status: StatusExcused},
		{EventID: 5, Status: StatusNoEvent},
	}

	s := Summarize(records)
	assert.Equal(t, 2, s.Present)
	assert.Equal(t, 1, s.Absent)
	assert.Equal(t, 1, s.Excused)
	assert.Equal(t, 4, s.TotalEvents)
	assert.Equal(t, 75, s.Percentage)

	assert.Equal(t, AttendanceSummary{}, Summarize(nil))
}

func TestAttendancePercentage(t *testing.T) {
	tests := []struct {
		present, excused, total int
		want                    int
	}{
		{0, 0, 0, 0},
		{1, 0, 3, 33},
		{2, 0, 3, 67},
		{1, 1, 2, 100},
		{0, 1, 8, 13},
		{0, 0, 5, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, AttendancePercentage(tt.present, tt.excused, tt.total), "%+v", tt)
	}
}
