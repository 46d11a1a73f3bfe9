package v1

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/choirhub/choir-api/internal/api/handler/v1/request"
	"github.com/choirhub/choir-api/internal/api/handler/v1/response"
	"github.com/choirhub/choir-api/internal/domain"
)

type AttendanceService interface {
	SaveAttendance(ctx context.Context, eventID uint, submitted map[uint]domain.Status) (domain.SaveAttendanceResult, error)
	GetAttendanceByEvent(ctx context.Context, eventID uint) (map[uint]domain.Status, error)
	GetAllAttendances(ctx context.Context) (map[uint]map[uint]domain.Status, error)
	GetDetailedAttendances(ctx context.Context) (map[uint]domain.DetailedAttendance, error)
	GetAttendanceSummary(ctx context.Context, userID uint) (domain.AttendanceSummary, error)
	GetAllAttendanceSummaries(ctx context.Context) (map[uint]domain.AttendanceSummary, error)
	GetMyAttendance(ctx context.Context, actor domain.User) (domain.UserAttendance, error)
}

type AttendanceHandler struct {
	svc AttendanceService
}

func NewAttendanceHandler(svc AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{
		svc: svc,
	}
}

// HandleSaveAttendance godoc
// @Summary      Save attendance for an event
// @Description  Body maps user ids to Present, Absent or Excused. Approved members missing from the body are recorded Absent and members with an approved permission covering the event date are recorded Excused.
// @Tags         attendances
// @Accept       json
// @Produce      json
// @Param        eventID  path      int                            true  "event ID"
// @Param        request  body      request.SaveAttendanceRequest  true  "statuses by user id"
// @Success      200      {object}  domain.SaveAttendanceResult
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /attendances/event/{eventID} [post]
// @Security BearerAuth
func (h *AttendanceHandler) HandleSaveAttendance(ctx *gin.Context) {
	eventID, respErr := parseIDParam(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.SaveAttendanceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	statuses, err := req.ToStatuses()
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	result, err := h.svc.SaveAttendance(ctx.Request.Context(), eventID, statuses)
	if err != nil {
		renderServiceErr(ctx, "HandleSaveAttendance -> h.svc.SaveAttendance", err)
		return
	}

	ctx.JSON(http.StatusOK, result)
}

// HandleGetAttendanceByEvent godoc
// @Summary      Get attendance of one event
// @Description  Only currently approved members are included.
// @Tags         attendances
// @Produce      json
// @Param        eventID  path      int  true  "event ID"
// @Success      200      {object}  map[string]string
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /attendances/event/{eventID} [get]
// @Security BearerAuth
func (h *AttendanceHandler) HandleGetAttendanceByEvent(ctx *gin.Context) {
	eventID, respErr := parseIDParam(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	statuses, err := h.svc.GetAttendanceByEvent(ctx.Request.Context(), eventID)
	if err != nil {
		renderServiceErr(ctx, "HandleGetAttendanceByEvent -> h.svc.GetAttendanceByEvent", err)
		return
	}

	ctx.JSON(http.StatusOK, statuses)
}

// HandleGetAllAttendances godoc
// @Summary      Get attendance of every event
// @Description  Grouped by event id then user id. Members are not filtered by approval status.
// @Tags         attendances
// @Produce      json
// @Success      200  {object}  map[string]map[string]string
// @Failure      403  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /attendances/all [get]
// @Security BearerAuth
func (h *AttendanceHandler) HandleGetAllAttendances(ctx *gin.Context) {
	all, err := h.svc.GetAllAttendances(ctx.Request.Context())
	if err != nil {
		renderServiceErr(ctx, "HandleGetAllAttendances -> h.svc.GetAllAttendances", err)
		return
	}

	ctx.JSON(http.StatusOK, all)
}

// HandleGetDetailedAttendances godoc
// @Summary      Get attendance history of every member
// @Tags         attendances
// @Produce      json
// @Success      200  {object}  map[string]domain.DetailedAttendance
// @Failure      403  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /attendances/detailed [get]
// @Security BearerAuth
func (h *AttendanceHandler) HandleGetDetailedAttendances(ctx *gin.Context) {
	detailed, err := h.svc.GetDetailedAttendances(ctx.Request.Context())
	if err != nil {
		renderServiceErr(ctx, "HandleGetDetailedAttendances -> h.svc.GetDetailedAttendances", err)
		return
	}

	ctx.JSON(http.StatusOK, detailed)
}

// HandleGetAttendanceSummary godoc
// @Summary      Get a member's attendance summary
// @Description  Members may only read their own summary.
// @Tags         attendances
// @Produce      json
// @Param        userID  path      int  true  "user ID"
// @Success      200     {object}  domain.AttendanceSummary
// @Failure      400     {object}  response.Err
// @Failure      403     {object}  response.Err
// @Failure      404     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /attendances/summary/{userID} [get]
// @Security BearerAuth
func (h *AttendanceHandler) HandleGetAttendanceSummary(ctx *gin.Context) {
	actor, respErr := getUserFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	userID, respErr := parseIDParam(ctx, "userID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if userID != actor.ID && !actor.Role.IsAdminTier() {
		response.RenderErr(ctx, response.ErrPermissionDenied(fmt.Errorf("user %v may not read the summary of user %v", actor.ID, userID)))
		return
	}

	summary, err := h.svc.GetAttendanceSummary(ctx.Request.Context(), userID)
	if err != nil {
		renderServiceErr(ctx, "HandleGetAttendanceSummary -> h.svc.GetAttendanceSummary", err)
		return
	}

	ctx.JSON(http.StatusOK, summary)
}

// HandleGetAllAttendanceSummaries godoc
// @Summary      Get attendance summaries of every member
// @Tags         attendances
// @Produce      json
// @Success      200  {object}  map[string]domain.AttendanceSummary
// @Failure      403  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /attendances/summaries [get]
// @Security BearerAuth
func (h *AttendanceHandler) HandleGetAllAttendanceSummaries(ctx *gin.Context) {
	summaries, err := h.svc.GetAllAttendanceSummaries(ctx.Request.Context())
	if err != nil {
		renderServiceErr(ctx, "HandleGetAllAttendanceSummaries -> h.svc.GetAllAttendanceSummaries", err)
		return
	}

	ctx.JSON(http.StatusOK, summaries)
}

// HandleGetMyAttendance godoc
// @Summary      Get my attendance history
// @Tags         attendances
// @Produce      json
// @Success      200  {object}  domain.UserAttendance
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /attendances/me [get]
// @Security BearerAuth
func (h *AttendanceHandler) HandleGetMyAttendance(ctx *gin.Context) {
	actor, respErr := getUserFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	mine, err := h.svc.GetMyAttendance(ctx.Request.Context(), actor)
	if err != nil {
		renderServiceErr(ctx, "HandleGetMyAttendance -> h.svc.GetMyAttendance", err)
		return
	}

	ctx.JSON(http.StatusOK, mine)
}
