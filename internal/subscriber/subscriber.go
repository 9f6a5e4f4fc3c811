// Package subscriber keeps exactly one live realtime stream per
// authenticated session.
//
// A single goroutine (Run) owns all state. Transport signals, credential
// fetch results and timer fires are posted to it as inputs. Every transport
// gets a fresh id and inputs carrying any other id are ignored, so a late
// error from a replaced stream can never tear down its successor.
package subscriber

import (
	"context"
	"sync"
	"time"

	"realtime-srv/internal/envelope"
	"realtime-srv/pkg/log"
)

type transport struct {
	id     uint64
	cancel context.CancelFunc
}

type pendingTimer struct {
	timer *time.Timer
	gen   uint64
}

// Subscriber is the client side state machine:
// Idle -> Connecting -> Open -> Retrying -> Connecting ..., with Idle
// terminal after de-authentication or a server pushed logout.
type Subscriber struct {
	creds      CredentialSource
	dialer     Dialer
	dispatcher Dispatcher
	session    SessionStore
	logger     log.Logger
	policy     *Policy
	refreshDef time.Duration
	idle       time.Duration

	in   chan input
	done chan struct{}

	// owned by the run loop
	ctx           context.Context
	state         State
	authenticated bool
	terminal      bool
	loggedOut     bool
	credential    *Credential
	fetching      bool
	current       *transport
	nextID        uint64
	timers        map[timerKind]*pendingTimer
	timerGen      uint64
	lastType      envelope.Type
	lastAt        time.Time

	statusMu sync.RWMutex
	status   Status
}

// New creates a Subscriber. Call Run, then SetAuthenticated(true).
func New(creds CredentialSource, dialer Dialer, dispatcher Dispatcher, session SessionStore, logger log.Logger, cfg Config) *Subscriber {
	if cfg.Policy == nil {
		cfg.Policy = DefaultPolicy()
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = DefaultRefreshInterval
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	return &Subscriber{
		creds:      creds,
		dialer:     dialer,
		dispatcher: dispatcher,
		session:    session,
		logger:     logger.With("component", "subscriber"),
		policy:     cfg.Policy,
		refreshDef: cfg.RefreshInterval,
		idle:       cfg.IdleTimeout,
		in:         make(chan input, 16),
		done:       make(chan struct{}),
		timers:     make(map[timerKind]*pendingTimer),
	}
}

// SetAuthenticated reports a session state change. true starts the
// subscription when it is idle. false tears everything down for good.
func (s *Subscriber) SetAuthenticated(authenticated bool) {
	s.post(authChanged{authenticated: authenticated})
}

// Status returns the latest snapshot.
func (s *Subscriber) Status() Status {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.status
}

// Done is closed when Run returns.
func (s *Subscriber) Done() <-chan struct{} { return s.done }

// Run processes inputs until ctx is done, the session is de-authenticated
// or the server logs it out. It returns ErrLoggedOut in the last case.
func (s *Subscriber) Run(ctx context.Context) error {
	s.ctx = ctx
	defer close(s.done)
	defer s.teardown()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-s.in:
			s.handle(msg)
			s.publishStatus()
			if s.terminal {
				if s.loggedOut {
					return ErrLoggedOut
				}
				return nil
			}
		}
	}
}

func (s *Subscriber) post(msg input) {
	select {
	case s.in <- msg:
	case <-s.done:
	}
}

func (s *Subscriber) handle(msg input) {
	switch m := msg.(type) {
	case authChanged:
		s.onAuthChanged(m.authenticated)
	case fetchResult:
		s.onFetchResult(m)
	case transportOpened:
		s.onOpened(m.id)
	case transportFrame:
		s.onFrame(m)
	case transportFailed:
		s.onFailed(m)
	case timerFired:
		s.onTimer(m)
	}
}

func (s *Subscriber) onAuthChanged(authenticated bool) {
	s.authenticated = authenticated
	if !authenticated {
		s.logger.Info(s.ctx, "Session de-authenticated, closing stream")
		s.teardown()
		s.terminal = true
		return
	}
	if s.state == StateIdle {
		s.fetchCredential(purposeConnect)
	}
}

func (s *Subscriber) onFetchResult(r fetchResult) {
	s.fetching = false
	if !s.authenticated {
		return
	}
	if r.err != nil {
		s.logger.Warnf(s.ctx, "Credential fetch for %s failed: %v", r.purpose, r.err)
	} else {
		cred := r.cred
		s.credential = &cred
	}

	switch s.state {
	case StateIdle:
		// Retried by the next authentication change, not by us.
		if r.err == nil {
			s.openTransport()
		}
	case StateOpen:
		// A failed refresh leaves the live stream alone. It fails on its own
		// once the old credential expires and recovers through Retrying.
		if r.err == nil {
			s.logger.Info(s.ctx, "Credential refreshed, reopening stream")
			s.openTransport()
		}
	case StateRetrying:
		if s.credential == nil {
			s.state = StateIdle
			return
		}
		s.scheduleReconnect()
	}
}

func (s *Subscriber) onOpened(id uint64) {
	if !s.isCurrent(id) {
		return
	}
	s.state = StateOpen
	s.policy.Reset()
	s.stopTimer(timerReconnect)

	refresh := s.refreshDef
	if s.credential != nil && s.credential.RefreshAfter > 0 {
		refresh = s.credential.RefreshAfter
	}
	s.startTimer(timerRefresh, refresh)
	s.logger.Infof(s.ctx, "Stream %d open", id)
}

func (s *Subscriber) onFrame(f transportFrame) {
	if !s.isCurrent(f.id) {
		return
	}
	s.lastType = f.env.Type()
	s.lastAt = time.Now()

	if logout, ok := f.env.Data().(envelope.Logout); ok {
		s.logger.Infof(s.ctx, "Server logged the session out: %s", logout.Reason)
		s.teardown()
		s.terminal = true
		s.loggedOut = true
		s.authenticated = false
		s.session.Deauthenticate(logout.Reason)
		s.dispatcher.Dispatch(f.env)
		return
	}
	s.dispatcher.Dispatch(f.env)
}

func (s *Subscriber) onFailed(f transportFailed) {
	if !s.isCurrent(f.id) {
		return
	}
	s.logger.Warnf(s.ctx, "Stream %d failed: %v", f.id, f.err)
	s.closeTransport()
	s.stopTimer(timerRefresh)
	s.state = StateRetrying

	// The usual cause is an expired credential, so try a fresh one first.
	// A refresh already in flight serves the same purpose.
	if s.fetching {
		return
	}
	s.fetchCredential(purposeRetry)
}

func (s *Subscriber) onTimer(t timerFired) {
	p, ok := s.timers[t.kind]
	if !ok || p.gen != t.gen {
		return
	}
	delete(s.timers, t.kind)

	switch t.kind {
	case timerReconnect:
		if s.state == StateRetrying && s.credential != nil {
			s.openTransport()
		}
	case timerRefresh:
		if s.state == StateOpen && !s.fetching {
			s.fetchCredential(purposeRefresh)
		}
	}
}

func (s *Subscriber) scheduleReconnect() {
	delay := s.policy.NextBackOff()
	s.logger.Infof(s.ctx, "Reconnecting in %s (attempt %d)", delay, s.policy.Attempt())
	s.startTimer(timerReconnect, delay)
}

func (s *Subscriber) fetchCredential(purpose fetchPurpose) {
	if s.fetching {
		return
	}
	s.fetching = true
	ctx := s.ctx
	go func() {
		cred, err := s.creds.FetchCredential(ctx)
		s.post(fetchResult{purpose: purpose, cred: cred, err: err})
	}()
}

// openTransport closes any current stream, then starts a new one with the
// current credential.
func (s *Subscriber) openTransport() {
	s.closeTransport()

	s.nextID++
	ctx, cancel := context.WithCancel(s.ctx)
	t := &transport{id: s.nextID, cancel: cancel}
	s.current = t
	s.state = StateConnecting

	go s.runTransport(ctx, t.id, s.credential.Token)
}

func (s *Subscriber) closeTransport() {
	if s.current == nil {
		return
	}
	s.current.cancel()
	s.current = nil
}

func (s *Subscriber) isCurrent(id uint64) bool {
	return s.current != nil && s.current.id == id
}

func (s *Subscriber) startTimer(kind timerKind, d time.Duration) {
	s.stopTimer(kind)
	s.timerGen++
	gen := s.timerGen
	s.timers[kind] = &pendingTimer{
		gen: gen,
		timer: time.AfterFunc(d, func() {
			s.post(timerFired{kind: kind, gen: gen})
		}),
	}
}

func (s *Subscriber) stopTimer(kind timerKind) {
	if p, ok := s.timers[kind]; ok {
		p.timer.Stop()
		delete(s.timers, kind)
	}
}

// teardown closes the stream and cancels every timer.
func (s *Subscriber) teardown() {
	s.closeTransport()
	for kind := range s.timers {
		s.stopTimer(kind)
	}
	s.state = StateIdle
	s.publishStatus()
}

func (s *Subscriber) publishStatus() {
	st := Status{
		State:         s.state,
		Attempt:       s.policy.Attempt(),
		PendingTimers: len(s.timers),
		Fetching:      s.fetching,
		Terminal:      s.terminal,
		LoggedOut:     s.loggedOut,
		LastEventType: s.lastType,
		LastEventAt:   s.lastAt,
	}
	if s.current != nil {
		st.TransportID = s.current.id
	}

	s.statusMu.Lock()
	s.status = st
	s.statusMu.Unlock()
}
