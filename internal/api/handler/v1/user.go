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

type UserService interface {
	GetUser(ctx context.Context, id uint) (domain.User, error)
	ListUsers(ctx context.Context, status domain.UserStatus) ([]domain.User, error)
	UpdateProfile(ctx context.Context, actor domain.User, update domain.ProfileUpdate) (domain.User, error)
	ApproveUser(ctx context.Context, actor domain.User, id uint) (domain.User, error)
	RejectUser(ctx context.Context, actor domain.User, id uint) (domain.User, error)
	UpdateRole(ctx context.Context, actor domain.User, id uint, role domain.Role) (domain.User, error)
	DeleteUser(ctx context.Context, actor domain.User, id uint) error
}

type UserHandler struct {
	svc UserService
}

func NewUserHandler(svc UserService) *UserHandler {
	return &UserHandler{
		svc: svc,
	}
}

// HandleGetMe godoc
// @Summary      Get the current member
// @Tags         users
// @Produce      json
// @Success      200  {object}  domain.User
// @Failure      401  {object}  response.Err
// @Router       /users/me [get]
// @Security BearerAuth
func (h *UserHandler) HandleGetMe(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	ctx.JSON(http.StatusOK, user)
}

// HandleUpdateMe godoc
// @Summary      Update the current member's profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request  body      request.UpdateProfileRequest  true  "fields to change"
// @Success      200      {object}  domain.User
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /users/me [put]
// @Security BearerAuth
func (h *UserHandler) HandleUpdateMe(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.UpdateProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	updated, err := h.svc.UpdateProfile(ctx.Request.Context(), user, req.ToDomain())
	if err != nil {
		renderServiceErr(ctx, "HandleUpdateMe -> h.svc.UpdateProfile", err)
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

// HandleListUsers godoc
// @Summary      List members
// @Tags         users
// @Produce      json
// @Param        status  query     string  false  "pending, approved or rejected"
// @Success      200     {array}   domain.User
// @Failure      400     {object}  response.Err
// @Failure      403     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /users [get]
// @Security BearerAuth
func (h *UserHandler) HandleListUsers(ctx *gin.Context) {
	users, err := h.svc.ListUsers(ctx.Request.Context(), domain.UserStatus(ctx.Query("status")))
	if err != nil {
		renderServiceErr(ctx, "HandleListUsers -> h.svc.ListUsers", err)
		return
	}

	ctx.JSON(http.StatusOK, users)
}

// HandleGetUser godoc
// @Summary      Get a member
// @Description  Members may only read their own account, officers may read any.
// @Tags         users
// @Produce      json
// @Param        userID  path      int  true  "user ID"
// @Success      200     {object}  domain.User
// @Failure      400     {object}  response.Err
// @Failure      403     {object}  response.Err
// @Failure      404     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /users/{userID} [get]
// @Security BearerAuth
func (h *UserHandler) HandleGetUser(ctx *gin.Context) {
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
		response.RenderErr(ctx, response.ErrPermissionDenied(fmt.Errorf("user %v may not read user %v", actor.ID, userID)))
		return
	}

	user, err := h.svc.GetUser(ctx.Request.Context(), userID)
	if err != nil {
		renderServiceErr(ctx, "HandleGetUser -> h.svc.GetUser", err)
		return
	}

	ctx.JSON(http.StatusOK, user)
}

// HandleApproveUser godoc
// @Summary      Approve a registration
// @Tags         users
// @Produce      json
// @Param        userID  path      int  true  "user ID"
// @Success      200     {object}  domain.User
// @Failure      400     {object}  response.Err
// @Failure      403     {object}  response.Err
// @Failure      404     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /users/{userID}/approve [put]
// @Security BearerAuth
func (h *UserHandler) HandleApproveUser(ctx *gin.Context) {
	h.handleStatusChange(ctx, h.svc.ApproveUser, "HandleApproveUser -> h.svc.ApproveUser")
}

// HandleRejectUser godoc
// @Summary      Reject a registration
// @Tags         users
// @Produce      json
// @Param        userID  path      int  true  "user ID"
// @Success      200     {object}  domain.User
// @Failure      400     {object}  response.Err
// @Failure      403     {object}  response.Err
// @Failure      404     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /users/{userID}/reject [put]
// @Security BearerAuth
func (h *UserHandler) HandleRejectUser(ctx *gin.Context) {
	h.handleStatusChange(ctx, h.svc.RejectUser, "HandleRejectUser -> h.svc.RejectUser")
}

func (h *UserHandler) handleStatusChange(
	ctx *gin.Context,
	change func(ctx context.Context, actor domain.User, id uint) (domain.User, error),
	op string,
) {
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

	user, err := change(ctx.Request.Context(), actor, userID)
	if err != nil {
		renderServiceErr(ctx, op, err)
		return
	}

	ctx.JSON(http.StatusOK, user)
}

// HandleUpdateRole godoc
// @Summary      Change a member's role
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        userID   path      int                        true  "user ID"
// @Param        request  body      request.UpdateRoleRequest  true  "new role"
// @Success      200      {object}  domain.User
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /users/{userID}/role [put]
// @Security BearerAuth
func (h *UserHandler) HandleUpdateRole(ctx *gin.Context) {
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

	var req request.UpdateRoleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	user, err := h.svc.UpdateRole(ctx.Request.Context(), actor, userID, domain.Role(req.Role))
	if err != nil {
		renderServiceErr(ctx, "HandleUpdateRole -> h.svc.UpdateRole", err)
		return
	}

	ctx.JSON(http.StatusOK, user)
}

// HandleDeleteUser godoc
// @Summary      Delete a member
// @Description  Attendance history and payment ledgers of the member are kept.
// @Tags         users
// @Produce      json
// @Param        userID  path      int  true  "user ID"
// @Success      200     {object}  response.MessageResponse
// @Failure      400     {object}  response.Err
// @Failure      403     {object}  response.Err
// @Failure      404     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /users/{userID} [delete]
// @Security BearerAuth
func (h *UserHandler) HandleDeleteUser(ctx *gin.Context) {
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

	if err := h.svc.DeleteUser(ctx.Request.Context(), actor, userID); err != nil {
		renderServiceErr(ctx, "HandleDeleteUser -> h.svc.DeleteUser", err)
		return
	}

	ctx.JSON(http.StatusOK, response.MessageResponse{Message: "User deleted successfully"})
}
