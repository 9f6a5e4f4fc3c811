package http

import (
	"realtime-srv/internal/credential"
	"realtime-srv/pkg/log"
)

// Handler serves the credential endpoints.
type Handler struct {
	uc     credential.UseCase
	logger log.Logger
}

func New(uc credential.UseCase, logger log.Logger) *Handler {
	return &Handler{uc: uc, logger: logger}
}
