// Package envelope defines the tagged-union message pushed from the server to
// clients over the realtime stream.
package envelope

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
)

// Envelope is immutable once constructed. It carries no recipient; the
// recipient is implied by the connection it is written to.
type Envelope struct {
	typ  Type
	data Payload
}

// wire is the JSON shape on the stream.
type wire struct {
	Type Type            `json:"type"`
	Data json.RawMessage `json:"data"`
}

// New wraps p in an envelope tagged with p's type.
func New(p Payload) Envelope {
	return Envelope{typ: p.EnvelopeType(), data: p}
}

func (e Envelope) Type() Type { return e.typ }

// Data returns the typed payload. Callers switch on its concrete type:
//
//	switch d := env.Data().(type) {
//	case envelope.Balance:
//	...
//	}
func (e Envelope) Data() Payload { return e.data }

// IsZero reports whether e was never constructed.
func (e Envelope) IsZero() bool { return e.data == nil }

func (e Envelope) MarshalJSON() ([]byte, error) {
	if e.data == nil {
		return nil, ErrMissingData
	}
	data, err := json.Marshal(e.data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s data: %w", e.typ, err)
	}
	return json.Marshal(wire{Type: e.typ, Data: data})
}

// Decode parses and validates one envelope.
func Decode(b []byte) (Envelope, error) {
	var w wire
	if err := json.Unmarshal(b, &w); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if !w.Type.Valid() {
		return Envelope{}, fmt.Errorf("%w: %q", ErrUnknownType, w.Type)
	}
	if len(w.Data) == 0 || bytes.Equal(w.Data, []byte("null")) {
		return Envelope{}, fmt.Errorf("%w: type %s", ErrMissingData, w.Type)
	}

	var (
		p   Payload
		err error
	)
	switch w.Type {
	case TypeNotification:
		p, err = decodeAs[Notification](w.Data)
	case TypeUnreadCount:
		p, err = decodeAs[UnreadCount](w.Data)
	case TypeLogout:
		p, err = decodeAs[Logout](w.Data)
	case TypeTransaction:
		p, err = decodeAs[Transaction](w.Data)
	case TypeBalance:
		p, err = decodeAs[Balance](w.Data)
	case TypeStorage:
		p, err = decodeAs[Storage](w.Data)
	}
	if err != nil {
		return Envelope{}, err
	}
	if err := p.validate(); err != nil {
		return Envelope{}, err
	}
	return New(p), nil
}

func decodeAs[T Payload](raw json.RawMessage) (Payload, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return v, nil
}

// NewStorage builds a storage snapshot, deriving the available bytes and the
// human readable sizes. Available never goes below zero.
func NewStorage(limit, used int64, credit float64) Storage {
	available := max(limit-used, 0)
	return Storage{
		Limit:              limit,
		Used:               used,
		Available:          available,
		LimitFormatted:     humanize.IBytes(uint64(max(limit, 0))),
		UsedFormatted:      humanize.IBytes(uint64(max(used, 0))),
		AvailableFormatted: humanize.IBytes(uint64(available)),
		Credit:             credit,
	}
}
