package response

import "realtime-srv/pkg/errors"

// Resp is the JSON body of every non-stream endpoint.
type Resp struct {
	ErrorCode int    `json:"error_code"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
	Errors    any    `json:"errors,omitempty"`
}

// ErrorMapping maps domain errors to the HTTP error sent for them.
type ErrorMapping map[error]*errors.HTTPError
