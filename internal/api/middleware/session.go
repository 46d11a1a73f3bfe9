package middleware

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/choirhub/choir-api/internal/api/handler/v1/response"
	"github.com/choirhub/choir-api/internal/domain"
	"github.com/choirhub/choir-api/internal/service"
)

const ctxKeySession = "session_user"

type UserGetter interface {
	GetUser(ctx context.Context, id uint) (domain.User, error)
}

// RequireApproved loads the authenticated user and stores it as the request
// session. Accounts that are not approved are refused. It must run after
// VerifyJWT.
func RequireApproved(users UserGetter) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		userID := ctx.GetUint(CtxKeyUserID)
		if userID == 0 {
			response.RenderErr(ctx, response.ErrUnauthorized(errors.New("no user in context")))
			return
		}

		user, err := users.GetUser(ctx.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, service.ErrUserNotFound) {
				response.RenderErr(ctx, response.ErrUnauthorized(err))
				return
			}

			response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("RequireApproved -> users.GetUser -> %w", err)))
			return
		}

		if !user.IsApproved() {
			response.RenderErr(ctx, response.ErrPermissionDenied(fmt.Errorf("account is %s", user.Status)))
			return
		}

		ctx.Set(ctxKeySession, user)
		ctx.Next()
	}
}

// SessionUser returns the user stored by RequireApproved.
func SessionUser(ctx *gin.Context) (domain.User, bool) {
	value, ok := ctx.Get(ctxKeySession)
	if !ok {
		return domain.User{}, false
	}

	user, ok := value.(domain.User)
	return user, ok
}

// RequireRoles lets only session users holding one of roles through.
func RequireRoles(roles ...domain.Role) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, ok := SessionUser(ctx)
		if !ok {
			response.RenderErr(ctx, response.ErrUnauthorized(errors.New("no session")))
			return
		}

		if !user.Role.In(roles...) {
			response.RenderErr(ctx, response.ErrPermissionDenied(fmt.Errorf("role %s may not access this resource", user.Role)))
			return
		}

		ctx.Next()
	}
}

func RequireAdminTier() gin.HandlerFunc {
	return RequireRoles(domain.AdminRoles...)
}
