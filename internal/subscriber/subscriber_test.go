package subscriber

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realtime-srv/internal/envelope"
	"realtime-srv/internal/sse"
	"realtime-srv/pkg/log"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

// fakeCreds hands out t1, t2, ... unless fail says otherwise. Only the first
// credential carries refreshAfter; later ones fall back to the default.
type fakeCreds struct {
	mu           sync.Mutex
	calls        int
	refreshAfter time.Duration
	fail         func(call int) bool
}

func (f *fakeCreds) FetchCredential(context.Context) (Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail != nil && f.fail(f.calls) {
		return Credential{}, fmt.Errorf("fetch %d failed", f.calls)
	}
	cred := Credential{Token: fmt.Sprintf("t%d", f.calls)}
	if f.calls == 1 {
		cred.RefreshAfter = f.refreshAfter
	}
	return cred, nil
}

func (f *fakeCreds) setFail(fn func(call int) bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fn
}

type fakeConn struct {
	token  string
	w      *io.PipeWriter
	r      *io.PipeReader
	closed chan struct{}
	once   sync.Once
}

func (c *fakeConn) Read(p []byte) (int, error) { return c.r.Read(p) }

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return c.r.Close()
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *fakeConn) send(t *testing.T, payload string) {
	t.Helper()
	_, err := c.w.Write(sse.Data([]byte(payload)))
	require.NoError(t, err)
}

func (c *fakeConn) sendEnvelope(t *testing.T, env envelope.Envelope) {
	t.Helper()
	b, err := json.Marshal(env)
	require.NoError(t, err)
	c.send(t, string(b))
}

type fakeDialer struct {
	mu    sync.Mutex
	conns []*fakeConn
	fail  bool
	dials int
}

func (d *fakeDialer) Dial(_ context.Context, token string) (io.ReadCloser, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if d.fail {
		return nil, errors.New("connection refused")
	}
	r, w := io.Pipe()
	c := &fakeConn{token: token, r: r, w: w, closed: make(chan struct{})}
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func (d *fakeDialer) conn(i int) *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conns[i]
}

type recordingDispatcher struct {
	mu   sync.Mutex
	envs []envelope.Envelope
}

func (r *recordingDispatcher) Dispatch(env envelope.Envelope) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.envs = append(r.envs, env)
}

func (r *recordingDispatcher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.envs)
}

func (r *recordingDispatcher) last() envelope.Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.envs[len(r.envs)-1]
}

type fakeSession struct {
	mu     sync.Mutex
	reason string
	calls  int
}

func (s *fakeSession) Deauthenticate(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.reason = reason
}

type harness struct {
	sub        *Subscriber
	creds      *fakeCreds
	dialer     *fakeDialer
	dispatcher *recordingDispatcher
	session    *fakeSession
	result     chan error
	cancel     context.CancelFunc
}

func testPolicy() *Policy {
	return &Policy{
		BaseDelay:     20 * time.Millisecond,
		MaxDelay:      80 * time.Millisecond,
		MaxAttempts:   3,
		RecoveryDelay: 200 * time.Millisecond,
	}
}

func newHarness(t *testing.T, creds *fakeCreds) *harness {
	t.Helper()
	return newHarnessConfig(t, creds, Config{Policy: testPolicy()})
}

func newHarnessConfig(t *testing.T, creds *fakeCreds, cfg Config) *harness {
	t.Helper()
	h := &harness{
		creds:      creds,
		dialer:     &fakeDialer{},
		dispatcher: &recordingDispatcher{},
		session:    &fakeSession{},
		result:     make(chan error, 1),
	}
	h.sub = New(h.creds, h.dialer, h.dispatcher, h.session, log.NewNop(), cfg)

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.result <- h.sub.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-h.sub.Done()
	})
	return h
}

func (h *harness) waitOpen(t *testing.T, transportID uint64) {
	t.Helper()
	require.Eventually(t, func() bool {
		st := h.sub.Status()
		return st.State == StateOpen && st.TransportID == transportID
	}, waitFor, tick)
}

func TestConnectAndDispatch(t *testing.T) {
	h := newHarness(t, &fakeCreds{})
	h.sub.SetAuthenticated(true)
	h.waitOpen(t, 1)

	conn := h.dialer.conn(0)
	assert.Equal(t, "t1", conn.token)

	conn.sendEnvelope(t, envelope.New(envelope.Balance{Credit: 42}))
	require.Eventually(t, func() bool { return h.dispatcher.count() == 1 }, waitFor, tick)
	assert.Equal(t, envelope.Balance{Credit: 42}, h.dispatcher.last().Data())

	st := h.sub.Status()
	assert.Equal(t, envelope.TypeBalance, st.LastEventType)
	assert.False(t, st.LastEventAt.IsZero())
	assert.Equal(t, 1, st.PendingTimers) // refresh
	assert.Equal(t, 0, st.Attempt)
}

func TestRepeatedAuthenticationOpensOneStream(t *testing.T) {
	h := newHarness(t, &fakeCreds{})
	h.sub.SetAuthenticated(true)
	h.sub.SetAuthenticated(true)
	h.waitOpen(t, 1)
	h.sub.SetAuthenticated(true)

	assert.Never(t, func() bool { return h.dialer.dialCount() > 1 }, 100*time.Millisecond, tick)
}

func TestMalformedFrameDropped(t *testing.T) {
	h := newHarness(t, &fakeCreds{})
	h.sub.SetAuthenticated(true)
	h.waitOpen(t, 1)

	conn := h.dialer.conn(0)
	conn.send(t, `{"type":"balance"`)
	conn.send(t, `{"type":"mystery","data":{}}`)
	conn.sendEnvelope(t, envelope.New(envelope.UnreadCount{Count: 1}))

	require.Eventually(t, func() bool { return h.dispatcher.count() == 1 }, waitFor, tick)
	assert.Equal(t, envelope.TypeUnreadCount, h.dispatcher.last().Type())
	assert.Equal(t, StateOpen, h.sub.Status().State)
	assert.Equal(t, 1, h.dialer.dialCount())
}

func TestLogoutIsTerminal(t *testing.T) {
	h := newHarness(t, &fakeCreds{})
	h.sub.SetAuthenticated(true)
	h.waitOpen(t, 1)

	conn := h.dialer.conn(0)
	conn.sendEnvelope(t, envelope.New(envelope.Logout{Reason: "signed in elsewhere"}))

	select {
	case err := <-h.result:
		assert.ErrorIs(t, err, ErrLoggedOut)
	case <-time.After(waitFor):
		t.Fatal("Run did not return after logout")
	}

	st := h.sub.Status()
	assert.Equal(t, StateIdle, st.State)
	assert.Equal(t, 0, st.PendingTimers)
	assert.True(t, st.Terminal)
	assert.True(t, st.LoggedOut)

	assert.Equal(t, 1, h.session.calls)
	assert.Equal(t, "signed in elsewhere", h.session.reason)
	require.Equal(t, 1, h.dispatcher.count())
	assert.Equal(t, envelope.TypeLogout, h.dispatcher.last().Type())
	require.Eventually(t, conn.isClosed, waitFor, tick)

	// well past the longest backoff delay
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 1, h.dialer.dialCount())
	h.sub.SetAuthenticated(true)
	assert.Equal(t, 1, h.dialer.dialCount())
}

func TestDeauthenticationTearsDown(t *testing.T) {
	h := newHarness(t, &fakeCreds{})
	h.sub.SetAuthenticated(true)
	h.waitOpen(t, 1)

	h.sub.SetAuthenticated(false)

	select {
	case err := <-h.result:
		assert.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("Run did not return after de-authentication")
	}
	assert.Equal(t, 0, h.sub.Status().PendingTimers)
	assert.Equal(t, 0, h.session.calls)
	require.Eventually(t, h.dialer.conn(0).isClosed, waitFor, tick)
}

func TestReconnectUsesFreshCredential(t *testing.T) {
	h := newHarness(t, &fakeCreds{})
	h.sub.SetAuthenticated(true)
	h.waitOpen(t, 1)

	h.dialer.conn(0).w.CloseWithError(errors.New("connection reset"))

	h.waitOpen(t, 2)
	assert.Equal(t, "t2", h.dialer.conn(1).token)
	assert.Equal(t, 0, h.sub.Status().Attempt)
}

func TestReconnectFallsBackToPreviousCredential(t *testing.T) {
	creds := &fakeCreds{}
	h := newHarness(t, creds)
	h.sub.SetAuthenticated(true)
	h.waitOpen(t, 1)

	creds.setFail(func(int) bool { return true })
	h.dialer.conn(0).w.CloseWithError(errors.New("connection reset"))

	h.waitOpen(t, 2)
	assert.Equal(t, "t1", h.dialer.conn(1).token)
}

func TestCleanEndOfStreamReconnects(t *testing.T) {
	h := newHarness(t, &fakeCreds{})
	h.sub.SetAuthenticated(true)
	h.waitOpen(t, 1)

	require.NoError(t, h.dialer.conn(0).w.Close())
	h.waitOpen(t, 2)
}

func TestBackoffRecoveryTier(t *testing.T) {
	h := newHarness(t, &fakeCreds{})
	h.dialer.mu.Lock()
	h.dialer.fail = true
	h.dialer.mu.Unlock()

	h.sub.SetAuthenticated(true)

	// initial dial plus three fast retries at 20ms, 40ms and 80ms
	require.Eventually(t, func() bool { return h.dialer.dialCount() == 4 }, waitFor, tick)
	require.Eventually(t, func() bool {
		st := h.sub.Status()
		return st.State == StateRetrying && st.PendingTimers == 1 && st.Attempt == 0
	}, waitFor, tick)

	// then one slow recovery attempt after 200ms
	assert.Never(t, func() bool { return h.dialer.dialCount() > 4 }, 120*time.Millisecond, tick)
	require.Eventually(t, func() bool { return h.dialer.dialCount() == 5 }, waitFor, tick)

	// a successful open after that starts from attempt zero
	h.dialer.mu.Lock()
	h.dialer.fail = false
	h.dialer.mu.Unlock()
	require.Eventually(t, func() bool { return h.sub.Status().State == StateOpen }, waitFor, tick)
	assert.Equal(t, 0, h.sub.Status().Attempt)
}

func TestRefreshReopensWithoutDuplicateDelivery(t *testing.T) {
	h := newHarness(t, &fakeCreds{refreshAfter: 30 * time.Millisecond})
	h.sub.SetAuthenticated(true)
	h.waitOpen(t, 1)
	old := h.dialer.conn(0)

	h.waitOpen(t, 2)
	require.Eventually(t, old.isClosed, waitFor, tick)
	current := h.dialer.conn(1)
	assert.Equal(t, "t2", current.token)

	// the replaced stream can no longer deliver
	_, err := old.w.Write(sse.Data([]byte(`{"type":"balance","data":{"credit":1}}`)))
	assert.Error(t, err)

	current.sendEnvelope(t, envelope.New(envelope.Balance{Credit: 2}))
	require.Eventually(t, func() bool { return h.dispatcher.count() == 1 }, waitFor, tick)
	assert.Never(t, func() bool { return h.dispatcher.count() > 1 }, 50*time.Millisecond, tick)
}

func TestStaleTransportInputsIgnored(t *testing.T) {
	h := newHarness(t, &fakeCreds{refreshAfter: 30 * time.Millisecond})
	h.sub.SetAuthenticated(true)
	h.waitOpen(t, 1)
	h.waitOpen(t, 2)

	h.sub.post(transportFrame{id: 1, env: envelope.New(envelope.Balance{Credit: 9})})
	h.sub.post(transportFailed{id: 1, err: errors.New("late error from the old stream")})
	h.sub.post(transportOpened{id: 1})

	assert.Never(t, func() bool {
		st := h.sub.Status()
		return st.State != StateOpen || st.TransportID != 2
	}, 50*time.Millisecond, tick)
	assert.Equal(t, 0, h.dispatcher.count())
}

func TestRefreshFailureKeepsStream(t *testing.T) {
	creds := &fakeCreds{refreshAfter: 20 * time.Millisecond}
	creds.fail = func(call int) bool { return call > 1 }
	h := newHarness(t, creds)
	h.sub.SetAuthenticated(true)
	h.waitOpen(t, 1)

	require.Eventually(t, func() bool {
		creds.mu.Lock()
		defer creds.mu.Unlock()
		return creds.calls >= 2
	}, waitFor, tick)

	assert.Never(t, func() bool { return h.sub.Status().TransportID != 1 }, 60*time.Millisecond, tick)
	assert.Equal(t, 1, h.dialer.dialCount())
	assert.False(t, h.dialer.conn(0).isClosed())
}

func TestInitialFetchFailureStaysIdle(t *testing.T) {
	creds := &fakeCreds{}
	creds.fail = func(call int) bool { return call == 1 }
	h := newHarness(t, creds)

	h.sub.SetAuthenticated(true)
	require.Eventually(t, func() bool {
		creds.mu.Lock()
		defer creds.mu.Unlock()
		return creds.calls == 1
	}, waitFor, tick)
	assert.Never(t, func() bool { return h.dialer.dialCount() > 0 }, 60*time.Millisecond, tick)
	assert.Equal(t, StateIdle, h.sub.Status().State)

	// the next authentication change retries
	h.sub.SetAuthenticated(true)
	h.waitOpen(t, 1)
	assert.Equal(t, "t2", h.dialer.conn(0).token)
}

func TestSilentStreamIsReplaced(t *testing.T) {
	h := newHarnessConfig(t, &fakeCreds{}, Config{Policy: testPolicy(), IdleTimeout: 50 * time.Millisecond})
	h.sub.SetAuthenticated(true)
	h.waitOpen(t, 1)

	require.Eventually(t, h.dialer.conn(0).isClosed, waitFor, tick)
	h.waitOpen(t, 2)
}

func TestHeartbeatsKeepStreamAlive(t *testing.T) {
	h := newHarnessConfig(t, &fakeCreds{}, Config{Policy: testPolicy(), IdleTimeout: 80 * time.Millisecond})
	h.sub.SetAuthenticated(true)
	h.waitOpen(t, 1)

	conn := h.dialer.conn(0)
	for range 10 {
		_, err := conn.w.Write(sse.Comment(sse.HeartbeatComment))
		require.NoError(t, err)
		time.Sleep(20 * time.Millisecond)
	}
	assert.Equal(t, 1, h.dialer.dialCount())
	assert.False(t, conn.isClosed())
}
