package client

import "sync"

// Session is the client's in-memory session. The subscriber drops it when
// the server pushes a logout.
type Session struct {
	mu            sync.RWMutex
	userID        string
	token         string
	authenticated bool
	reason        string
	changes       chan bool
}

// NewSession returns an authenticated session when token is non-empty.
func NewSession(userID, token string) *Session {
	return &Session{
		userID:        userID,
		token:         token,
		authenticated: token != "",
		changes:       make(chan bool, 1),
	}
}

func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// Token returns the session token, empty once de-authenticated.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// Reason returns why the session was dropped.
func (s *Session) Reason() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reason
}

// SignIn replaces the session token and marks the session authenticated.
func (s *Session) SignIn(userID, token string) {
	s.mu.Lock()
	s.userID = userID
	s.token = token
	s.authenticated = token != ""
	s.reason = ""
	authenticated := s.authenticated
	s.mu.Unlock()
	s.notify(authenticated)
}

// Deauthenticate drops the session token. Repeated calls keep the first
// reason.
func (s *Session) Deauthenticate(reason string) {
	s.mu.Lock()
	if !s.authenticated {
		s.mu.Unlock()
		return
	}
	s.token = ""
	s.authenticated = false
	s.reason = reason
	s.mu.Unlock()
	s.notify(false)
}

// Changes delivers the latest authentication state after each change. Only
// the newest value is kept if the reader falls behind.
func (s *Session) Changes() <-chan bool { return s.changes }

func (s *Session) notify(authenticated bool) {
	for {
		select {
		case s.changes <- authenticated:
			return
		default:
		}
		select {
		case <-s.changes:
		default:
		}
	}
}
