package response

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"realtime-srv/pkg/errors"
)

// NewOKResp returns a new OK response with the given data.
func NewOKResp(data any) Resp {
	return Resp{
		ErrorCode: 0,
		Message:   MessageSuccess,
		Data:      data,
	}
}

// OK sends 200 JSON with data.
func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, NewOKResp(data))
}

// Unauthorized sends 401 response.
func Unauthorized(c *gin.Context) {
	Error(c, errors.NewUnauthorizedHTTPError())
}

// Forbidden sends 403 response.
func Forbidden(c *gin.Context) {
	Error(c, errors.NewForbiddenHTTPError())
}

// Error sends the status and body derived from err and aborts the chain.
func Error(c *gin.Context, err error) {
	statusCode, resp := parseError(err)
	c.AbortWithStatusJSON(statusCode, resp)
}

// ErrorWithMap sends the HTTPError mapped to err, or falls back to Error.
// Wrapped errors match their mapped sentinel.
func ErrorWithMap(c *gin.Context, err error, eMap ErrorMapping) {
	for target, httpErr := range eMap {
		if stderrors.Is(err, target) {
			Error(c, httpErr)
			return
		}
	}
	Error(c, err)
}

func parseError(err error) (int, Resp) {
	var (
		validationErr *errors.ValidationError
		httpErr       *errors.HTTPError
	)
	switch {
	case stderrors.As(err, &validationErr):
		return http.StatusBadRequest, Resp{
			ErrorCode: validationErr.Code,
			Message:   validationErr.Error(),
		}
	case stderrors.As(err, &httpErr):
		statusCode := httpErr.StatusCode
		if statusCode == 0 {
			statusCode = http.StatusBadRequest
		}
		return statusCode, Resp{
			ErrorCode: httpErr.Code,
			Message:   httpErr.Message,
		}
	default:
		return http.StatusInternalServerError, Resp{
			ErrorCode: InternalServerErrorCode,
			Message:   DefaultErrorMessage,
		}
	}
}
