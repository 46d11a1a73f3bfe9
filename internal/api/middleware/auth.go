package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/choirhub/choir-api/internal/api/handler/v1/response"
	"github.com/choirhub/choir-api/internal/pkg/jwthelper"
)

const CtxKeyUserID = "user_id"

var errMissingToken = errors.New("missing bearer token")

type Authenticator struct {
	signingKey []byte
}

func NewAuthenticator(signingKey string) *Authenticator {
	return &Authenticator{
		signingKey: []byte(signingKey),
	}
}

// VerifyJWT rejects requests without a valid bearer token and stores the
// token's user id in the context. Websocket clients, which cannot set
// headers, may pass the token in the "token" query parameter.
func (a *Authenticator) VerifyJWT() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := bearerToken(ctx)
		if token == "" {
			response.RenderErr(ctx, response.ErrUnauthorized(errMissingToken))
			return
		}

		claims, err := jwthelper.ParseToken(a.signingKey, token)
		if err != nil {
			response.RenderErr(ctx, response.ErrUnauthorized(err))
			return
		}

		ctx.Set(CtxKeyUserID, claims.UserID)
		ctx.Next()
	}
}

func bearerToken(ctx *gin.Context) string {
	header := ctx.GetHeader("Authorization")
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}

	return ctx.Query("token")
}
