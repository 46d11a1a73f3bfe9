package v1

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/choirhub/choir-api/internal/api/handler/v1/request"
	"github.com/choirhub/choir-api/internal/api/handler/v1/response"
	"github.com/choirhub/choir-api/internal/domain"
)

type EventService interface {
	CreateEvent(ctx context.Context, actor domain.User, event domain.Event) (domain.Event, error)
	GetEvent(ctx context.Context, id uint) (domain.Event, error)
	UpdateEvent(ctx context.Context, id uint, event domain.Event) (domain.Event, error)
	DeleteEvent(ctx context.Context, id uint) error
	ListUpcomingEvents(ctx context.Context) ([]domain.Event, error)
	ListAllEvents(ctx context.Context) ([]domain.Event, error)
	SweepPassedEvents(ctx context.Context) (int, error)
}

type EventHandler struct {
	svc EventService
}

func NewEventHandler(svc EventService) *EventHandler {
	return &EventHandler{
		svc: svc,
	}
}

// HandleListEvents godoc
// @Summary      List upcoming events
// @Description  Ended events without recorded attendance are deleted before listing.
// @Tags         events
// @Produce      json
// @Success      200  {array}   domain.Event
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /events [get]
// @Security BearerAuth
func (h *EventHandler) HandleListEvents(ctx *gin.Context) {
	events, err := h.svc.ListUpcomingEvents(ctx.Request.Context())
	if err != nil {
		renderServiceErr(ctx, "HandleListEvents -> h.svc.ListUpcomingEvents", err)
		return
	}

	ctx.JSON(http.StatusOK, events)
}

// HandleListAllEvents godoc
// @Summary      List every stored event
// @Description  Includes ended events that were kept because attendance references them.
// @Tags         events
// @Produce      json
// @Success      200  {array}   domain.Event
// @Failure      403  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /events/all [get]
// @Security BearerAuth
func (h *EventHandler) HandleListAllEvents(ctx *gin.Context) {
	events, err := h.svc.ListAllEvents(ctx.Request.Context())
	if err != nil {
		renderServiceErr(ctx, "HandleListAllEvents -> h.svc.ListAllEvents", err)
		return
	}

	ctx.JSON(http.StatusOK, events)
}

// HandleSweepEvents godoc
// @Summary      Delete ended events
// @Description  Only events that no attendance record references are deleted.
// @Tags         events
// @Produce      json
// @Success      200  {object}  response.SweepResponse
// @Failure      403  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /events/sweep [post]
// @Security BearerAuth
func (h *EventHandler) HandleSweepEvents(ctx *gin.Context) {
	deleted, err := h.svc.SweepPassedEvents(ctx.Request.Context())
	if err != nil {
		renderServiceErr(ctx, "HandleSweepEvents -> h.svc.SweepPassedEvents", err)
		return
	}

	ctx.JSON(http.StatusOK, response.SweepResponse{Deleted: deleted})
}

// HandleGetEvent godoc
// @Summary      Get an event
// @Tags         events
// @Produce      json
// @Param        eventID  path      int  true  "event ID"
// @Success      200      {object}  domain.Event
// @Failure      400      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID} [get]
// @Security BearerAuth
func (h *EventHandler) HandleGetEvent(ctx *gin.Context) {
	eventID, respErr := parseIDParam(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	event, err := h.svc.GetEvent(ctx.Request.Context(), eventID)
	if err != nil {
		renderServiceErr(ctx, "HandleGetEvent -> h.svc.GetEvent", err)
		return
	}

	ctx.JSON(http.StatusOK, event)
}

// HandleCreateEvent godoc
// @Summary      Create an event
// @Tags         events
// @Accept       json
// @Produce      json
// @Param        request  body      request.EventRequest  true  "event"
// @Success      201      {object}  domain.Event
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events [post]
// @Security BearerAuth
func (h *EventHandler) HandleCreateEvent(ctx *gin.Context) {
	actor, respErr := getUserFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.EventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	event, err := h.svc.CreateEvent(ctx.Request.Context(), actor, req.ToDomain())
	if err != nil {
		renderServiceErr(ctx, "HandleCreateEvent -> h.svc.CreateEvent", err)
		return
	}

	ctx.JSON(http.StatusCreated, event)
}

// HandleUpdateEvent godoc
// @Summary      Update an event
// @Description  Attendance already recorded keeps the old event name and date.
// @Tags         events
// @Accept       json
// @Produce      json
// @Param        eventID  path      int                   true  "event ID"
// @Param        request  body      request.EventRequest  true  "event"
// @Success      200      {object}  domain.Event
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID} [put]
// @Security BearerAuth
func (h *EventHandler) HandleUpdateEvent(ctx *gin.Context) {
	eventID, respErr := parseIDParam(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.EventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	event, err := h.svc.UpdateEvent(ctx.Request.Context(), eventID, req.ToDomain())
	if err != nil {
		renderServiceErr(ctx, "HandleUpdateEvent -> h.svc.UpdateEvent", err)
		return
	}

	ctx.JSON(http.StatusOK, event)
}

// HandleDeleteEvent godoc
// @Summary      Delete an event
// @Tags         events
// @Produce      json
// @Param        eventID  path      int  true  "event ID"
// @Success      200      {object}  response.MessageResponse
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID} [delete]
// @Security BearerAuth
func (h *EventHandler) HandleDeleteEvent(ctx *gin.Context) {
	eventID, respErr := parseIDParam(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if err := h.svc.DeleteEvent(ctx.Request.Context(), eventID); err != nil {
		renderServiceErr(ctx, "HandleDeleteEvent -> h.svc.DeleteEvent", err)
		return
	}

	ctx.JSON(http.StatusOK, response.MessageResponse{Message: "Event deleted successfully"})
}
