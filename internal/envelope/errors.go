package envelope

import "errors"

var (
	// ErrUnknownType is returned when the type tag is missing or not recognized.
	ErrUnknownType = errors.New("envelope: unknown type")

	// ErrMissingData is returned when an envelope has no data object.
	ErrMissingData = errors.New("envelope: missing data")

	// ErrInvalidPayload is returned when the data does not fit its type.
	ErrInvalidPayload = errors.New("envelope: invalid payload")
)
