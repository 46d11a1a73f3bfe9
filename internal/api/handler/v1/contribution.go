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

type ContributionService interface {
	CreateContribution(ctx context.Context, actor domain.User, c domain.Contribution) (domain.Contribution, error)
	ListContributions(ctx context.Context) ([]domain.Contribution, error)
	GetContribution(ctx context.Context, id uint) (domain.ContributionDetail, error)
	UpdateContribution(ctx context.Context, id uint, c domain.Contribution) (domain.Contribution, error)
	DeleteContribution(ctx context.Context, id uint) error
	AddPayment(ctx context.Context, actor domain.User, contributionID, userID uint, amount domain.Money, note string) (domain.PaymentLedger, error)
	MarkAsPaid(ctx context.Context, actor domain.User, contributionID, userID uint) (domain.PaymentLedger, error)
	GetUserContributions(ctx context.Context, userID uint) ([]domain.UserContribution, error)
}

type ContributionHandler struct {
	svc ContributionService
}

func NewContributionHandler(svc ContributionService) *ContributionHandler {
	return &ContributionHandler{
		svc: svc,
	}
}

// HandleListContributions godoc
// @Summary      List contributions
// @Tags         contributions
// @Produce      json
// @Success      200  {array}   domain.Contribution
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /contributions [get]
// @Security BearerAuth
func (h *ContributionHandler) HandleListContributions(ctx *gin.Context) {
	contributions, err := h.svc.ListContributions(ctx.Request.Context())
	if err != nil {
		renderServiceErr(ctx, "HandleListContributions -> h.svc.ListContributions", err)
		return
	}

	ctx.JSON(http.StatusOK, contributions)
}

// HandleGetContribution godoc
// @Summary      Get a contribution with every member's ledger
// @Tags         contributions
// @Produce      json
// @Param        contributionID  path      int  true  "contribution ID"
// @Success      200             {object}  domain.ContributionDetail
// @Failure      400             {object}  response.Err
// @Failure      403             {object}  response.Err
// @Failure      404             {object}  response.Err
// @Failure      500             {object}  response.Err
// @Router       /contributions/{contributionID} [get]
// @Security BearerAuth
func (h *ContributionHandler) HandleGetContribution(ctx *gin.Context) {
	contributionID, respErr := parseIDParam(ctx, "contributionID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	detail, err := h.svc.GetContribution(ctx.Request.Context(), contributionID)
	if err != nil {
		renderServiceErr(ctx, "HandleGetContribution -> h.svc.GetContribution", err)
		return
	}

	ctx.JSON(http.StatusOK, detail)
}

// HandleCreateContribution godoc
// @Summary      Create a contribution
// @Tags         contributions
// @Accept       json
// @Produce      json
// @Param        request  body      request.ContributionRequest  true  "contribution"
// @Success      201      {object}  domain.Contribution
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /contributions [post]
// @Security BearerAuth
func (h *ContributionHandler) HandleCreateContribution(ctx *gin.Context) {
	actor, respErr := getUserFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.ContributionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	contribution, err := h.svc.CreateContribution(ctx.Request.Context(), actor, req.ToDomain())
	if err != nil {
		renderServiceErr(ctx, "HandleCreateContribution -> h.svc.CreateContribution", err)
		return
	}

	ctx.JSON(http.StatusCreated, contribution)
}

// HandleUpdateContribution godoc
// @Summary      Update a contribution
// @Description  Changing the target amount recomputes the paid flag of every ledger.
// @Tags         contributions
// @Accept       json
// @Produce      json
// @Param        contributionID  path      int                          true  "contribution ID"
// @Param        request         body      request.ContributionRequest  true  "contribution"
// @Success      200             {object}  domain.Contribution
// @Failure      400             {object}  response.Err
// @Failure      403             {object}  response.Err
// @Failure      404             {object}  response.Err
// @Failure      500             {object}  response.Err
// @Router       /contributions/{contributionID} [put]
// @Security BearerAuth
func (h *ContributionHandler) HandleUpdateContribution(ctx *gin.Context) {
	contributionID, respErr := parseIDParam(ctx, "contributionID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.ContributionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	contribution, err := h.svc.UpdateContribution(ctx.Request.Context(), contributionID, req.ToDomain())
	if err != nil {
		renderServiceErr(ctx, "HandleUpdateContribution -> h.svc.UpdateContribution", err)
		return
	}

	ctx.JSON(http.StatusOK, contribution)
}

// HandleDeleteContribution godoc
// @Summary      Delete a contribution and its ledgers
// @Tags         contributions
// @Produce      json
// @Param        contributionID  path      int  true  "contribution ID"
// @Success      200             {object}  response.MessageResponse
// @Failure      400             {object}  response.Err
// @Failure      403             {object}  response.Err
// @Failure      404             {object}  response.Err
// @Failure      500             {object}  response.Err
// @Router       /contributions/{contributionID} [delete]
// @Security BearerAuth
func (h *ContributionHandler) HandleDeleteContribution(ctx *gin.Context) {
	contributionID, respErr := parseIDParam(ctx, "contributionID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if err := h.svc.DeleteContribution(ctx.Request.Context(), contributionID); err != nil {
		renderServiceErr(ctx, "HandleDeleteContribution -> h.svc.DeleteContribution", err)
		return
	}

	ctx.JSON(http.StatusOK, response.MessageResponse{Message: "Contribution deleted successfully"})
}

// HandleAddPayment godoc
// @Summary      Record a payment
// @Tags         contributions
// @Accept       json
// @Produce      json
// @Param        contributionID  path      int                     true  "contribution ID"
// @Param        request         body      request.PaymentRequest  true  "payment"
// @Success      200             {object}  domain.PaymentLedger
// @Failure      400             {object}  response.Err
// @Failure      403             {object}  response.Err
// @Failure      404             {object}  response.Err
// @Failure      500             {object}  response.Err
// @Router       /contributions/{contributionID}/payments [post]
// @Security BearerAuth
func (h *ContributionHandler) HandleAddPayment(ctx *gin.Context) {
	actor, respErr := getUserFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	contributionID, respErr := parseIDParam(ctx, "contributionID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.PaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	ledger, err := h.svc.AddPayment(ctx.Request.Context(), actor, contributionID, req.UserID, req.AmountValue(), req.Note)
	if err != nil {
		renderServiceErr(ctx, "HandleAddPayment -> h.svc.AddPayment", err)
		return
	}

	ctx.JSON(http.StatusOK, ledger)
}

// HandleMarkAsPaid godoc
// @Summary      Mark a member as fully paid
// @Description  Records the outstanding balance as a single payment.
// @Tags         contributions
// @Produce      json
// @Param        contributionID  path      int  true  "contribution ID"
// @Param        userID          path      int  true  "user ID"
// @Success      200             {object}  domain.PaymentLedger
// @Failure      400             {object}  response.Err
// @Failure      403             {object}  response.Err
// @Failure      404             {object}  response.Err
// @Failure      500             {object}  response.Err
// @Router       /contributions/{contributionID}/payments/{userID}/mark-paid [put]
// @Security BearerAuth
func (h *ContributionHandler) HandleMarkAsPaid(ctx *gin.Context) {
	actor, respErr := getUserFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	contributionID, respErr := parseIDParam(ctx, "contributionID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	userID, respErr := parseIDParam(ctx, "userID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	ledger, err := h.svc.MarkAsPaid(ctx.Request.Context(), actor, contributionID, userID)
	if err != nil {
		renderServiceErr(ctx, "HandleMarkAsPaid -> h.svc.MarkAsPaid", err)
		return
	}

	ctx.JSON(http.StatusOK, ledger)
}

// HandleGetUserContributions godoc
// @Summary      List a member's contributions
// @Description  Members may only read their own ledgers.
// @Tags         contributions
// @Produce      json
// @Param        userID  path      int  true  "user ID"
// @Success      200     {array}   domain.UserContribution
// @Failure      400     {object}  response.Err
// @Failure      403     {object}  response.Err
// @Failure      404     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /contributions/user/{userID} [get]
// @Security BearerAuth
func (h *ContributionHandler) HandleGetUserContributions(ctx *gin.Context) {
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
		response.RenderErr(ctx, response.ErrPermissionDenied(fmt.Errorf("user %v may not read the contributions of user %v", actor.ID, userID)))
		return
	}

	contributions, err := h.svc.GetUserContributions(ctx.Request.Context(), userID)
	if err != nil {
		renderServiceErr(ctx, "HandleGetUserContributions -> h.svc.GetUserContributions", err)
		return
	}

	ctx.JSON(http.StatusOK, contributions)
}
