package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/choirhub/choir-api/internal/api/middleware"
	"github.com/choirhub/choir-api/internal/domain"
	"github.com/choirhub/choir-api/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubUsers map[uint]domain.User

func (s stubUsers) GetUser(_ context.Context, id uint) (domain.User, error) {
	user, ok := s[id]
	if !ok {
		return domain.User{}, service.ErrUserNotFound
	}
	return user, nil
}

var testUsers = stubUsers{
	1: {ID: 1, Name: "Ana", Role: domain.RoleMember, Status: domain.UserStatusApproved},
	2: {ID: 2, Name: "Sari", Role: domain.RoleSecretary, Status: domain.UserStatusApproved},
}

// asUser stands in for VerifyJWT and loads the session like the real chain.
func asUser(id uint) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		func(ctx *gin.Context) {
			ctx.Set(middleware.CtxKeyUserID, id)
			ctx.Next()
		},
		middleware.RequireApproved(testUsers),
	}
}

func serve(r http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Message
}

func TestRenderServiceErr(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{
			name:     "not found",
			err:      fmt.Errorf("s.eventRepo.FindByID -> %w", service.ErrEventNotFound),
			wantCode: http.StatusNotFound,
			wantMsg:  service.ErrEventNotFound.Error(),
		},
		{
			name:     "validation keeps detail without call chain",
			err:      fmt.Errorf("s.x -> %w", fmt.Errorf("user 4: %q: %w", "Late", service.ErrInvalidStatus)),
			wantCode: http.StatusBadRequest,
			wantMsg:  `user 4: "Late": invalid attendance status`,
		},
		{
			name:     "forbidden",
			err:      service.ErrForbidden,
			wantCode: http.StatusForbidden,
			wantMsg:  service.ErrForbidden.Error(),
		},
		{
			name:     "unexpected",
			err:      fmt.Errorf("s.repo.FindAll -> %w", errors.New("pq: connection refused")),
			wantCode: http.StatusInternalServerError,
			wantMsg:  "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/", func(ctx *gin.Context) { renderServiceErr(ctx, "test", tt.err) })

			w := serve(r, http.MethodGet, "/", nil)
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantMsg, errMessage(t, w))
		})
	}
}

func TestParseIDParam(t *testing.T) {
	r := gin.New()
	r.GET("/things/:thingID", func(ctx *gin.Context) {
		id, respErr := parseIDParam(ctx, "thingID")
		if respErr != nil {
			ctx.JSON(respErr.HTTPStatusCode, respErr)
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"id": id})
	})

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/things/12", nil).Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodGet, "/things/0", nil).Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodGet, "/things/-3", nil).Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodGet, "/things/abc", nil).Code)
}

type stubAttendance struct {
	eventID   uint
	submitted map[uint]domain.Status
	err       error
}

func (s *stubAttendance) SaveAttendance(_ context.Context, eventID uint, submitted map[uint]domain.Status) (domain.SaveAttendanceResult, error) {
	s.eventID = eventID
	s.submitted = submitted
	if s.err != nil {
		return domain.SaveAttendanceResult{}, s.err
	}
	return domain.SaveAttendanceResult{Message: "Attendance saved successfully", UpdatedCount: len(submitted)}, nil
}

func (s *stubAttendance) GetAttendanceByEvent(context.Context, uint) (map[uint]domain.Status, error) {
	return map[uint]domain.Status{}, nil
}

func (s *stubAttendance) GetAllAttendances(context.Context) (map[uint]map[uint]domain.Status, error) {
	return map[uint]map[uint]domain.Status{}, nil
}

func (s *stubAttendance) GetDetailedAttendances(context.Context) (map[uint]domain.DetailedAttendance, error) {
	return map[uint]domain.DetailedAttendance{}, nil
}

func (s *stubAttendance) GetAttendanceSummary(_ context.Context, userID uint) (domain.AttendanceSummary, error) {
	return domain.AttendanceSummary{UserID: userID, Present: 1, TotalEvents: 1, Percentage: 100}, nil
}

func (s *stubAttendance) GetAllAttendanceSummaries(context.Context) (map[uint]domain.AttendanceSummary, error) {
	return map[uint]domain.AttendanceSummary{}, nil
}

func (s *stubAttendance) GetMyAttendance(_ context.Context, actor domain.User) (domain.UserAttendance, error) {
	return domain.UserAttendance{Summary: domain.AttendanceSummary{UserID: actor.ID}}, nil
}

func TestAttendanceHandler_HandleSaveAttendance(t *testing.T) {
	svc := &stubAttendance{}
	h := NewAttendanceHandler(svc)
	r := gin.New()
	r.POST("/attendances/event/:eventID", append(asUser(2), h.HandleSaveAttendance)...)

	w := serve(r, http.MethodPost, "/attendances/event/10", map[string]string{"1": "Present", "4": "Absent"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, uint(10), svc.eventID)
	assert.Equal(t, map[uint]domain.Status{1: domain.StatusPresent, 4: domain.StatusAbsent}, svc.submitted)

	var result domain.SaveAttendanceResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 2, result.UpdatedCount)

	w = serve(r, http.MethodPost, "/attendances/event/10", map[string]string{"ana": "Present"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(r, http.MethodPost, "/attendances/event/x", map[string]string{"1": "Present"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.err = fmt.Errorf("s.eventRepo.FindByID -> %w", service.ErrEventNotFound)
	w = serve(r, http.MethodPost, "/attendances/event/11", map[string]string{"1": "Present"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAttendanceHandler_HandleGetAttendanceSummary(t *testing.T) {
	h := NewAttendanceHandler(&stubAttendance{})

	member := gin.New()
	member.GET("/attendances/summary/:userID", append(asUser(1), h.HandleGetAttendanceSummary)...)
	assert.Equal(t, http.StatusOK, serve(member, http.MethodGet, "/attendances/summary/1", nil).Code)
	assert.Equal(t, http.StatusForbidden, serve(member, http.MethodGet, "/attendances/summary/2", nil).Code)

	secretary := gin.New()
	secretary.GET("/attendances/summary/:userID", append(asUser(2), h.HandleGetAttendanceSummary)...)
	w := serve(secretary, http.MethodGet, "/attendances/summary/1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var summary domain.AttendanceSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, uint(1), summary.UserID)
	assert.Equal(t, 100, summary.Percentage)
}

func TestHealthHandler(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("dial tcp: refused") }

	r := gin.New()
	r.GET("/", NewHealthHandler(map[string]HealthCheck{"postgres": ok, "redis": ok}).HandleHealthcheck)
	w := serve(r, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	r = gin.New()
	r.GET("/", NewHealthHandler(map[string]HealthCheck{"postgres": ok, "redis": down}).HandleHealthcheck)
	w = serve(r, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	resp = HealthResponse{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, map[string]string{"postgres": "ok", "redis": "unavailable"}, resp.Checks)
}
