package response

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/choirhub/choir-api/internal/domain"
)

// Err is the error body of every failed request.
type Err struct {
	HTTPStatusCode int    `json:"-"`
	Message        string `json:"message"`
	RequestID      string `json:"request_id,omitempty"`

	err error
}

func (e *Err) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return e.Message
}

func (e *Err) Unwrap() error {
	return e.err
}

// RenderErr writes e and aborts the chain. Server errors are logged here and
// their cause is not sent to the client.
func RenderErr(ctx *gin.Context, e *Err) {
	e.RequestID = requestid.Get(ctx)

	if e.HTTPStatusCode >= http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("request_id", e.RequestID),
			zap.String("method", ctx.Request.Method),
			zap.String("path", ctx.FullPath()),
			zap.Error(e.err),
		)
	}

	ctx.AbortWithStatusJSON(e.HTTPStatusCode, e)
}

func ErrBadRequest(err error) *Err {
	return &Err{
		HTTPStatusCode: http.StatusBadRequest,
		Message:        err.Error(),
		err:            err,
	}
}

func ErrNotFound(resource, field string, value any) *Err {
	return &Err{
		HTTPStatusCode: http.StatusNotFound,
		Message:        fmt.Sprintf("%v with %v %v not found", resource, field, value),
	}
}

// ErrMissing is ErrNotFound for errors that already name the resource.
func ErrMissing(err error) *Err {
	return &Err{
		HTTPStatusCode: http.StatusNotFound,
		Message:        err.Error(),
		err:            err,
	}
}

func ErrUnauthorized(err error) *Err {
	return &Err{
		HTTPStatusCode: http.StatusUnauthorized,
		Message:        "authentication required",
		err:            err,
	}
}

func ErrWrongCredentials(err error) *Err {
	return &Err{
		HTTPStatusCode: http.StatusUnauthorized,
		Message:        "wrong email or password",
		err:            err,
	}
}

func ErrPermissionDenied(err error) *Err {
	return &Err{
		HTTPStatusCode: http.StatusForbidden,
		Message:        err.Error(),
		err:            err,
	}
}

func ErrTooManyRequests() *Err {
	return &Err{
		HTTPStatusCode: http.StatusTooManyRequests,
		Message:        "too many requests, slow down",
	}
}

func ErrInternalServerError(err error) *Err {
	return &Err{
		HTTPStatusCode: http.StatusInternalServerError,
		Message:        "internal server error",
		err:            err,
	}
}

type LoginResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type SweepResponse struct {
	Deleted int `json:"deleted"`
}
