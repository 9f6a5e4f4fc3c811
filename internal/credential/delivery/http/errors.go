package http

import (
	"net/http"

	"realtime-srv/internal/credential"
	"realtime-srv/pkg/errors"
	"realtime-srv/pkg/response"
)

var errMapping = response.ErrorMapping{
	credential.ErrInvalidStreamToken: errors.NewHTTPError(400101, "Invalid or expired stream token", http.StatusBadRequest),
	credential.ErrTokenNotOwned:      errors.NewHTTPError(403101, "Stream token belongs to another user", http.StatusForbidden),
	credential.ErrMissingUserID:      errors.NewHTTPError(400102, "User id is required", http.StatusBadRequest),
}
