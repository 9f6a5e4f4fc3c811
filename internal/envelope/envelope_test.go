package envelope

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Storage(t *testing.T) {
	raw := []byte(`{"type":"storage","data":{"limit":2147483648,"used":1073741824,"available":1073741824,"limitFormatted":"2.0 GiB","usedFormatted":"1.0 GiB","availableFormatted":"1.0 GiB","credit":12.5}}`)

	env, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, TypeStorage, env.Type())

	s, ok := env.Data().(Storage)
	require.True(t, ok, "data type = %T", env.Data())
	assert.Equal(t, int64(1073741824), s.Used)
	assert.Equal(t, int64(2147483648), s.Limit)
	assert.Equal(t, 12.5, s.Credit)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{name: "not json", raw: `data`, wantErr: ErrInvalidPayload},
		{name: "unknown type", raw: `{"type":"weather","data":{}}`, wantErr: ErrUnknownType},
		{name: "missing type", raw: `{"data":{}}`, wantErr: ErrUnknownType},
		{name: "missing data", raw: `{"type":"balance"}`, wantErr: ErrMissingData},
		{name: "null data", raw: `{"type":"balance","data":null}`, wantErr: ErrMissingData},
		{name: "wrong shape", raw: `{"type":"balance","data":{"credit":"lots"}}`, wantErr: ErrInvalidPayload},
		{name: "bad transaction status", raw: `{"type":"transaction","data":{"transactionId":"tx-1","status":"refunded"}}`, wantErr: ErrInvalidPayload},
		{name: "transaction without id", raw: `{"type":"transaction","data":{"status":"paid"}}`, wantErr: ErrInvalidPayload},
		{name: "negative unread", raw: `{"type":"unread-count","data":{"count":-1}}`, wantErr: ErrInvalidPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.raw))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestEnvelope_WireShape(t *testing.T) {
	env := New(Transaction{TransactionID: "tx-42", Status: TransactionPaid})

	b, err := json.Marshal(env)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"transaction","data":{"transactionId":"tx-42","status":"paid"}}`, string(b))

	back, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, env, back)
}

func TestEnvelope_ZeroValueDoesNotMarshal(t *testing.T) {
	var env Envelope
	assert.True(t, env.IsZero())
	_, err := json.Marshal(env)
	assert.Error(t, err)
}

func TestLogout_OptionalFields(t *testing.T) {
	env, err := Decode([]byte(`{"type":"logout","data":{}}`))
	require.NoError(t, err)
	assert.Equal(t, Logout{}, env.Data())
}

func TestNewStorage(t *testing.T) {
	s := NewStorage(2147483648, 1073741824, 3)
	assert.Equal(t, int64(1073741824), s.Available)
	assert.Equal(t, "2.0 GiB", s.LimitFormatted)
	assert.Equal(t, "1.0 GiB", s.UsedFormatted)
	assert.Equal(t, "1.0 GiB", s.AvailableFormatted)

	over := NewStorage(100, 150, 0)
	assert.Equal(t, int64(0), over.Available)
}

func TestTransactionStatus_IsTerminal(t *testing.T) {
	assert.False(t, TransactionPending.IsTerminal())
	assert.False(t, TransactionPaid.IsTerminal())
	assert.True(t, TransactionCompleted.IsTerminal())
	assert.True(t, TransactionFailed.IsTerminal())
}
