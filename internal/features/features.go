// Package features holds the client side state kept up to date by the
// realtime stream. Each module is an eventrouter.Handler that only reacts to
// its own envelope types.
package features

import (
	"realtime-srv/internal/eventrouter"
)

// Set bundles every feature module of one session.
type Set struct {
	Balance       *Balance
	Storage       *Storage
	Notifications *Notifications
	Transactions  *Transactions
	Logout        *LogoutNotice
}

// NewSet creates all feature modules with default settings.
func NewSet() *Set {
	return &Set{
		Balance:       &Balance{},
		Storage:       &Storage{},
		Notifications: NewNotifications(DefaultNotificationLimit),
		Transactions:  NewTransactions(),
		Logout:        &LogoutNotice{},
	}
}

// Register subscribes every module to r and returns a func that removes them.
func (s *Set) Register(r *eventrouter.Router) (cancel func()) {
	cancels := []func(){
		r.Subscribe(s.Balance),
		r.Subscribe(s.Storage),
		r.Subscribe(s.Notifications),
		r.Subscribe(s.Transactions),
		r.Subscribe(s.Logout),
	}
	return func() {
		for _, c := range cancels {
			c()
		}
	}
}
