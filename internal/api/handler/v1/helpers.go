package v1

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/choirhub/choir-api/internal/api/handler/v1/response"
	"github.com/choirhub/choir-api/internal/api/middleware"
	"github.com/choirhub/choir-api/internal/domain"
	"github.com/choirhub/choir-api/internal/service"
)

var notFoundErrs = []error{
	service.ErrUserNotFound,
	service.ErrEventNotFound,
	service.ErrAttendanceNotFound,
	service.ErrPermissionNotFound,
	service.ErrAnnouncementNotFound,
	service.ErrSongNotFound,
	service.ErrContributionNotFound,
}

var badRequestErrs = []error{
	service.ErrInvalidStatus,
	service.ErrInvalidDateRange,
	service.ErrOverlappingPermission,
	service.ErrInvalidPermissionStatus,
	service.ErrReasonRequired,
	service.ErrInvalidAmount,
	service.ErrAlreadyPaid,
	service.ErrInvalidEventType,
	service.ErrInvalidEventTime,
	service.ErrInvalidTimeWindow,
	service.ErrInvalidSongCategory,
	service.ErrInvalidRole,
	service.ErrInvalidUserStatus,
	service.ErrUserEmailExists,
	service.ErrSelfAction,
}

// getUserFromContext returns the session user stored by the auth chain.
func getUserFromContext(ctx *gin.Context) (domain.User, *response.Err) {
	user, ok := middleware.SessionUser(ctx)
	if !ok {
		return domain.User{}, response.ErrUnauthorized(errors.New("no session user"))
	}

	return user, nil
}

func parseIDParam(ctx *gin.Context, name string) (uint, *response.Err) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, response.ErrBadRequest(fmt.Errorf("invalid %s %q", name, ctx.Param(name)))
	}

	return uint(id), nil
}

// renderServiceErr maps a service error onto the HTTP taxonomy. op names the
// failing call and is only used for server errors.
func renderServiceErr(ctx *gin.Context, op string, err error) {
	for _, target := range notFoundErrs {
		if errors.Is(err, target) {
			response.RenderErr(ctx, response.ErrMissing(target))
			return
		}
	}

	for _, target := range badRequestErrs {
		if errors.Is(err, target) {
			respErr := response.ErrBadRequest(err)
			respErr.Message = withoutCallChain(err)
			response.RenderErr(ctx, respErr)
			return
		}
	}

	if errors.Is(err, service.ErrForbidden) {
		response.RenderErr(ctx, response.ErrPermissionDenied(service.ErrForbidden))
		return
	}

	response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("%s -> %w", op, err)))
}

// withoutCallChain drops the "s.repo.X -> " prefixes added while the error
// travelled up the layers.
func withoutCallChain(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, " -> "); i >= 0 {
		return msg[i+len(" -> "):]
	}
	return msg
}
