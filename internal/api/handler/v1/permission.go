package v1

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/choirhub/choir-api/internal/api/handler/v1/request"
	"github.com/choirhub/choir-api/internal/api/handler/v1/response"
	"github.com/choirhub/choir-api/internal/domain"
)

type PermissionService interface {
	CreatePermission(ctx context.Context, actor domain.User, permission domain.Permission) (domain.Permission, error)
	GetAllPermissions(ctx context.Context, status domain.PermissionStatus) ([]domain.Permission, error)
	GetUserPermissions(ctx context.Context, actor domain.User) ([]domain.Permission, error)
	UpdatePermissionStatus(ctx context.Context, actor domain.User, id uint, status domain.PermissionStatus) (domain.Permission, error)
	GetActivePermissionsForDate(ctx context.Context, day domain.Date) ([]domain.ActivePermission, error)
	DeletePermission(ctx context.Context, actor domain.User, id uint) error
}

type PermissionHandler struct {
	svc PermissionService
}

func NewPermissionHandler(svc PermissionService) *PermissionHandler {
	return &PermissionHandler{
		svc: svc,
	}
}

// HandleCreatePermission godoc
// @Summary      Request an absence permission
// @Tags         permissions
// @Accept       json
// @Produce      json
// @Param        request  body      request.CreatePermissionRequest  true  "date range and reason"
// @Success      201      {object}  domain.Permission
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /permissions [post]
// @Security BearerAuth
func (h *PermissionHandler) HandleCreatePermission(ctx *gin.Context) {
	actor, respErr := getUserFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.CreatePermissionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	permission, err := h.svc.CreatePermission(ctx.Request.Context(), actor, req.ToDomain())
	if err != nil {
		renderServiceErr(ctx, "HandleCreatePermission -> h.svc.CreatePermission", err)
		return
	}

	ctx.JSON(http.StatusCreated, permission)
}

// HandleGetAllPermissions godoc
// @Summary      List every permission
// @Tags         permissions
// @Produce      json
// @Param        status  query     string  false  "pending, approved or rejected"
// @Success      200     {array}   domain.Permission
// @Failure      400     {object}  response.Err
// @Failure      403     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /permissions [get]
// @Security BearerAuth
func (h *PermissionHandler) HandleGetAllPermissions(ctx *gin.Context) {
	permissions, err := h.svc.GetAllPermissions(ctx.Request.Context(), domain.PermissionStatus(ctx.Query("status")))
	if err != nil {
		renderServiceErr(ctx, "HandleGetAllPermissions -> h.svc.GetAllPermissions", err)
		return
	}

	ctx.JSON(http.StatusOK, permissions)
}

// HandleGetMyPermissions godoc
// @Summary      List my permissions
// @Tags         permissions
// @Produce      json
// @Success      200  {array}   domain.Permission
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /permissions/me [get]
// @Security BearerAuth
func (h *PermissionHandler) HandleGetMyPermissions(ctx *gin.Context) {
	actor, respErr := getUserFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	permissions, err := h.svc.GetUserPermissions(ctx.Request.Context(), actor)
	if err != nil {
		renderServiceErr(ctx, "HandleGetMyPermissions -> h.svc.GetUserPermissions", err)
		return
	}

	ctx.JSON(http.StatusOK, permissions)
}

// HandleUpdatePermissionStatus godoc
// @Summary      Approve or reject a permission
// @Tags         permissions
// @Accept       json
// @Produce      json
// @Param        permissionID  path      int                                    true  "permission ID"
// @Param        request       body      request.UpdatePermissionStatusRequest  true  "approved or rejected"
// @Success      200           {object}  domain.Permission
// @Failure      400           {object}  response.Err
// @Failure      403           {object}  response.Err
// @Failure      404           {object}  response.Err
// @Failure      500           {object}  response.Err
// @Router       /permissions/{permissionID}/status [put]
// @Security BearerAuth
func (h *PermissionHandler) HandleUpdatePermissionStatus(ctx *gin.Context) {
	actor, respErr := getUserFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	permissionID, respErr := parseIDParam(ctx, "permissionID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.UpdatePermissionStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	permission, err := h.svc.UpdatePermissionStatus(ctx.Request.Context(), actor, permissionID, domain.PermissionStatus(req.Status))
	if err != nil {
		renderServiceErr(ctx, "HandleUpdatePermissionStatus -> h.svc.UpdatePermissionStatus", err)
		return
	}

	ctx.JSON(http.StatusOK, permission)
}

// HandleGetActivePermissions godoc
// @Summary      List approved permissions covering a date
// @Description  Used when taking attendance to pre-mark members as Excused.
// @Tags         permissions
// @Produce      json
// @Param        date  path      string  true  "date as YYYY-MM-DD"
// @Success      200   {array}   domain.ActivePermission
// @Failure      400   {object}  response.Err
// @Failure      403   {object}  response.Err
// @Failure      500   {object}  response.Err
// @Router       /permissions/active/{date} [get]
// @Security BearerAuth
func (h *PermissionHandler) HandleGetActivePermissions(ctx *gin.Context) {
	day, err := domain.ParseDate(ctx.Param("date"))
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	active, err := h.svc.GetActivePermissionsForDate(ctx.Request.Context(), day)
	if err != nil {
		renderServiceErr(ctx, "HandleGetActivePermissions -> h.svc.GetActivePermissionsForDate", err)
		return
	}

	ctx.JSON(http.StatusOK, active)
}

// HandleDeletePermission godoc
// @Summary      Delete a permission
// @Description  Owners may withdraw their own pending requests, officers may delete any.
// @Tags         permissions
// @Produce      json
// @Param        permissionID  path      int  true  "permission ID"
// @Success      200           {object}  response.MessageResponse
// @Failure      400           {object}  response.Err
// @Failure      403           {object}  response.Err
// @Failure      404           {object}  response.Err
// @Failure      500           {object}  response.Err
// @Router       /permissions/{permissionID} [delete]
// @Security BearerAuth
func (h *PermissionHandler) HandleDeletePermission(ctx *gin.Context) {
	actor, respErr := getUserFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	permissionID, respErr := parseIDParam(ctx, "permissionID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if err := h.svc.DeletePermission(ctx.Request.Context(), actor, permissionID); err != nil {
		renderServiceErr(ctx, "HandleDeletePermission -> h.svc.DeletePermission", err)
		return
	}

	ctx.JSON(http.StatusOK, response.MessageResponse{Message: "Permission deleted successfully"})
}
