package v1

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/choirhub/choir-api/internal/api/handler/v1/request"
	"github.com/choirhub/choir-api/internal/api/handler/v1/response"
	"github.com/choirhub/choir-api/internal/domain"
)

type AnnouncementService interface {
	CreateAnnouncement(ctx context.Context, actor domain.User, a domain.Announcement) (domain.AnnouncementView, error)
	UpdateAnnouncement(ctx context.Context, id uint, a domain.Announcement) (domain.AnnouncementView, error)
	DeleteAnnouncement(ctx context.Context, id uint) error
	GetAnnouncement(ctx context.Context, actor domain.User, id uint) (domain.AnnouncementView, error)
	ListAnnouncements(ctx context.Context, actor domain.User) ([]domain.AnnouncementView, error)
}

type AnnouncementHandler struct {
	svc AnnouncementService
}

func NewAnnouncementHandler(svc AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{
		svc: svc,
	}
}

// HandleListAnnouncements godoc
// @Summary      List announcements
// @Description  Members only see active announcements, officers also see scheduled and expired ones.
// @Tags         announcements
// @Produce      json
// @Success      200  {array}   domain.AnnouncementView
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /announcements [get]
// @Security BearerAuth
func (h *AnnouncementHandler) HandleListAnnouncements(ctx *gin.Context) {
	actor, respErr := getUserFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	announcements, err := h.svc.ListAnnouncements(ctx.Request.Context(), actor)
	if err != nil {
		renderServiceErr(ctx, "HandleListAnnouncements -> h.svc.ListAnnouncements", err)
		return
	}

	ctx.JSON(http.StatusOK, announcements)
}

// HandleGetAnnouncement godoc
// @Summary      Get an announcement
// @Tags         announcements
// @Produce      json
// @Param        announcementID  path      int  true  "announcement ID"
// @Success      200             {object}  domain.AnnouncementView
// @Failure      400             {object}  response.Err
// @Failure      404             {object}  response.Err
// @Failure      500             {object}  response.Err
// @Router       /announcements/{announcementID} [get]
// @Security BearerAuth
func (h *AnnouncementHandler) HandleGetAnnouncement(ctx *gin.Context) {
	actor, respErr := getUserFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	announcementID, respErr := parseIDParam(ctx, "announcementID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	announcement, err := h.svc.GetAnnouncement(ctx.Request.Context(), actor, announcementID)
	if err != nil {
		renderServiceErr(ctx, "HandleGetAnnouncement -> h.svc.GetAnnouncement", err)
		return
	}

	ctx.JSON(http.StatusOK, announcement)
}

// HandleCreateAnnouncement godoc
// @Summary      Create an announcement
// @Tags         announcements
// @Accept       json
// @Produce      json
// @Param        request  body      request.AnnouncementRequest  true  "announcement"
// @Success      201      {object}  domain.AnnouncementView
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /announcements [post]
// @Security BearerAuth
func (h *AnnouncementHandler) HandleCreateAnnouncement(ctx *gin.Context) {
	actor, respErr := getUserFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.AnnouncementRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	announcement, err := h.svc.CreateAnnouncement(ctx.Request.Context(), actor, req.ToDomain())
	if err != nil {
		renderServiceErr(ctx, "HandleCreateAnnouncement -> h.svc.CreateAnnouncement", err)
		return
	}

	ctx.JSON(http.StatusCreated, announcement)
}

// HandleUpdateAnnouncement godoc
// @Summary      Update an announcement
// @Tags         announcements
// @Accept       json
// @Produce      json
// @Param        announcementID  path      int                          true  "announcement ID"
// @Param        request         body      request.AnnouncementRequest  true  "announcement"
// @Success      200             {object}  domain.AnnouncementView
// @Failure      400             {object}  response.Err
// @Failure      403             {object}  response.Err
// @Failure      404             {object}  response.Err
// @Failure      500             {object}  response.Err
// @Router       /announcements/{announcementID} [put]
// @Security BearerAuth
func (h *AnnouncementHandler) HandleUpdateAnnouncement(ctx *gin.Context) {
	announcementID, respErr := parseIDParam(ctx, "announcementID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.AnnouncementRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	announcement, err := h.svc.UpdateAnnouncement(ctx.Request.Context(), announcementID, req.ToDomain())
	if err != nil {
		renderServiceErr(ctx, "HandleUpdateAnnouncement -> h.svc.UpdateAnnouncement", err)
		return
	}

	ctx.JSON(http.StatusOK, announcement)
}

// HandleDeleteAnnouncement godoc
// @Summary      Delete an announcement
// @Tags         announcements
// @Produce      json
// @Param        announcementID  path      int  true  "announcement ID"
// @Success      200             {object}  response.MessageResponse
// @Failure      400             {object}  response.Err
// @Failure      403             {object}  response.Err
// @Failure      404             {object}  response.Err
// @Failure      500             {object}  response.Err
// @Router       /announcements/{announcementID} [delete]
// @Security BearerAuth
func (h *AnnouncementHandler) HandleDeleteAnnouncement(ctx *gin.Context) {
	announcementID, respErr := parseIDParam(ctx, "announcementID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if err := h.svc.DeleteAnnouncement(ctx.Request.Context(), announcementID); err != nil {
		renderServiceErr(ctx, "HandleDeleteAnnouncement -> h.svc.DeleteAnnouncement", err)
		return
	}

	ctx.JSON(http.StatusOK, response.MessageResponse{Message: "Announcement deleted successfully"})
}
