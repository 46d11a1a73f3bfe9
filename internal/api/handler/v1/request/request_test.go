package request

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/choirhub/choir-api/internal/domain"
)

func TestSignupRequest_Validate(t *testing.T) {
	valid := func() SignupRequest {
		return SignupRequest{
			Email:           "alto@choir.org",
			Password:        "singing123",
			ConfirmPassword: "singing123",
			Name:            "Ana",
			VoicePart:       "Alto",
		}
	}

	tests := []struct {
		name    string
		modify  func(*SignupRequest)
		wantErr error
		anyErr  bool
	}{
		{name: "valid", modify: func(r *SignupRequest) {}},
		{name: "bad email", modify: func(r *SignupRequest) { r.Email = "nope" }, anyErr: true},
		{name: "missing name", modify: func(r *SignupRequest) { r.Name = "" }, anyErr: true},
		{name: "unknown voice part", modify: func(r *SignupRequest) { r.VoicePart = "Baritone" }, anyErr: true},
		{
			name: "password without digit",
			modify: func(r *SignupRequest) {
				r.Password = "onlyletters"
				r.ConfirmPassword = "onlyletters"
			},
			wantErr: errInvalidPassword,
		},
		{
			name: "password too short",
			modify: func(r *SignupRequest) {
				r.Password = "ab1"
				r.ConfirmPassword = "ab1"
			},
			wantErr: errInvalidPassword,
		},
		{
			name:    "confirmation mismatch",
			modify:  func(r *SignupRequest) { r.ConfirmPassword = "singing124" },
			wantErr: errConfirmPasswordMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.modify(&req)

			err := req.Validate()
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.anyErr:
				assert.Error(t, err)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestSaveAttendanceRequest_ToStatuses(t *testing.T) {
	statuses, err := SaveAttendanceRequest{"3": "Present", "7": "Absent"}.ToStatuses()
	require.NoError(t, err)
	assert.Equal(t, map[uint]domain.Status{3: domain.StatusPresent, 7: domain.StatusAbsent}, statuses)

	_, err = SaveAttendanceRequest{"abc": "Present"}.ToStatuses()
	assert.Error(t, err)

	_, err = SaveAttendanceRequest{"0": "Present"}.ToStatuses()
	assert.Error(t, err)
}

func TestEventRequest_Validate(t *testing.T) {
	req := EventRequest{Name: "Sunday Mass", Type: "Service", Date: "2024-05-01", StartTime: "09:00", EndTime: "11:00"}
	require.NoError(t, req.Validate())

	event := req.ToDomain()
	assert.Equal(t, domain.NewDate(2024, 5, 1), event.Date)
	assert.Equal(t, domain.EventTypeService, event.Type)

	req.Date = "01/05/2024"
	assert.Error(t, req.Validate())

	req.Date = "2024-05-01"
	req.StartTime = "9am"
	assert.Error(t, req.Validate())

	req.StartTime = "09:00"
	req.Type = "Concert"
	assert.Error(t, req.Validate())
}

func TestCreatePermissionRequest(t *testing.T) {
	req := CreatePermissionRequest{StartDate: "2024-04-28", EndDate: "2024-05-03", Reason: "Family trip"}
	require.NoError(t, req.Validate())

	p := req.ToDomain()
	assert.Equal(t, domain.NewDate(2024, 4, 28), p.StartDate)
	assert.Equal(t, domain.NewDate(2024, 5, 3), p.EndDate)

	req.Reason = ""
	assert.Error(t, req.Validate())
}

func TestContributionRequest(t *testing.T) {
	req := ContributionRequest{Title: "Robes", TargetAmount: "1500.00", DueDate: "2024-06-30"}
	require.NoError(t, req.Validate())

	c := req.ToDomain()
	assert.Equal(t, domain.Money(150000), c.TargetAmount)
	require.NotNil(t, c.DueDate)
	assert.Equal(t, "2024-06-30", c.DueDate.String())

	for _, bad := range []json.Number{"", "0", "-5", "12.345", "1e3"} {
		req.TargetAmount = bad
		assert.Error(t, req.Validate(), bad)
	}
}

func TestPaymentRequest(t *testing.T) {
	var req PaymentRequest
	require.NoError(t, json.Unmarshal([]byte(`{"userId":4,"amount":0.70,"note":"cash"}`), &req))
	require.NoError(t, req.Validate())
	assert.Equal(t, domain.Money(70), req.AmountValue())

	req.Amount = "0.105"
	assert.Error(t, req.Validate())

	req.Amount = "0.10"
	req.UserID = 0
	assert.Error(t, req.Validate())
}
