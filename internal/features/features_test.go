package features

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realtime-srv/internal/envelope"
	"realtime-srv/internal/eventrouter"
	"realtime-srv/pkg/log"
)

func startRouter(t *testing.T) (*eventrouter.Router, *Set) {
	t.Helper()
	r := eventrouter.New(log.NewNop())
	set := NewSet()
	t.Cleanup(set.Register(r))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = r.Run(ctx) }()
	return r, set
}

func TestStorage_UpdatesOnceFromWire(t *testing.T) {
	r, set := startRouter(t)

	env, err := envelope.Decode([]byte(`{"type":"storage","data":{"limit":2147483648,"used":1073741824,"available":1073741824,"limitFormatted":"2.0 GiB","usedFormatted":"1.0 GiB","availableFormatted":"1.0 GiB","credit":0}}`))
	require.NoError(t, err)
	r.Dispatch(env)

	require.Eventually(t, func() bool { return set.Storage.Updates() == 1 }, time.Second, 5*time.Millisecond)
	snap, ok := set.Storage.Snapshot()
	require.True(t, ok)
	assert.Equal(t, int64(1073741824), snap.Used)
	assert.Equal(t, int64(1073741824), snap.Available)

	assert.Never(t, func() bool { return set.Storage.Updates() > 1 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestModules_IgnoreOtherTypes(t *testing.T) {
	set := NewSet()
	env := envelope.New(envelope.Balance{Credit: 10, Message: "top up"})

	set.Storage.HandleEnvelope(env)
	set.Notifications.HandleEnvelope(env)
	set.Transactions.HandleEnvelope(env)
	set.Logout.HandleEnvelope(env)
	set.Balance.HandleEnvelope(env)

	assert.Equal(t, 0, set.Storage.Updates())
	assert.Empty(t, set.Notifications.List())
	_, received := set.Logout.Message()
	assert.False(t, received)

	credit, ok := set.Balance.Credit()
	assert.True(t, ok)
	assert.Equal(t, 10.0, credit)
	assert.Equal(t, "top up", set.Balance.Message())
}

func TestNotifications_NewestFirstAndUnread(t *testing.T) {
	n := NewNotifications(2)
	n.HandleEnvelope(envelope.New(envelope.Notification{ID: "a", Title: "first"}))
	n.HandleEnvelope(envelope.New(envelope.Notification{ID: "b", Title: "second", Read: true}))
	n.HandleEnvelope(envelope.New(envelope.Notification{ID: "c", Title: "third"}))

	list := n.List()
	require.Len(t, list, 2)
	assert.Equal(t, "c", list[0].ID)
	assert.Equal(t, "b", list[1].ID)
	assert.Equal(t, 2, n.Unread())

	// marking a known item read updates it in place and drops the count
	n.HandleEnvelope(envelope.New(envelope.Notification{ID: "c", Title: "third", Read: true}))
	assert.Len(t, n.List(), 2)
	assert.Equal(t, 1, n.Unread())

	n.HandleEnvelope(envelope.New(envelope.UnreadCount{Count: 7}))
	assert.Equal(t, 7, n.Unread())
}

func TestTransactions_WaitUntilTerminal(t *testing.T) {
	tx := NewTransactions()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	result := make(chan envelope.TransactionStatus, 1)
	go func() {
		s, err := tx.Wait(ctx, "tx-1")
		assert.NoError(t, err)
		result <- s
	}()

	tx.HandleEnvelope(envelope.New(envelope.Transaction{TransactionID: "tx-1", Status: envelope.TransactionPending}))
	tx.HandleEnvelope(envelope.New(envelope.Transaction{TransactionID: "tx-2", Status: envelope.TransactionFailed}))
	tx.HandleEnvelope(envelope.New(envelope.Transaction{TransactionID: "tx-1", Status: envelope.TransactionPaid}))
	tx.HandleEnvelope(envelope.New(envelope.Transaction{TransactionID: "tx-1", Status: envelope.TransactionCompleted}))

	select {
	case s := <-result:
		assert.Equal(t, envelope.TransactionCompleted, s)
	case <-ctx.Done():
		t.Fatal("Wait did not return")
	}

	// terminal status is sticky
	tx.HandleEnvelope(envelope.New(envelope.Transaction{TransactionID: "tx-1", Status: envelope.TransactionPending}))
	s, ok := tx.Status("tx-1")
	assert.True(t, ok)
	assert.Equal(t, envelope.TransactionCompleted, s)
}

func TestTransactions_WaitHonoursContext(t *testing.T) {
	tx := NewTransactions()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := tx.Wait(ctx, "never")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLogoutNotice(t *testing.T) {
	l := &LogoutNotice{}
	l.HandleEnvelope(envelope.New(envelope.Logout{}))
	msg, ok := l.Message()
	assert.True(t, ok)
	assert.Equal(t, DefaultLogoutMessage, msg)

	l.HandleEnvelope(envelope.New(envelope.Logout{Reason: "password changed"}))
	msg, _ = l.Message()
	assert.Equal(t, "password changed", msg)
}

func TestSet_RegisterIsIdempotent(t *testing.T) {
	r := eventrouter.New(log.NewNop())
	set := NewSet()
	cancel := set.Register(r)
	set.Register(r)
	assert.Equal(t, 5, r.Len())

	cancel()
	assert.Equal(t, 0, r.Len())
}
