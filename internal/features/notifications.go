package features

import (
	"slices"
	"sync"

	"realtime-srv/internal/envelope"
)

const DefaultNotificationLimit = 100

// Notifications keeps the most recent notifications, newest first, and the
// unread count. An unread-count envelope overrides the local count.
type Notifications struct {
	mu     sync.RWMutex
	limit  int
	items  []envelope.Notification
	unread int
}

// NewNotifications keeps at most limit items. limit <= 0 uses the default.
func NewNotifications(limit int) *Notifications {
	if limit <= 0 {
		limit = DefaultNotificationLimit
	}
	return &Notifications{limit: limit}
}

func (n *Notifications) HandleEnvelope(env envelope.Envelope) {
	switch d := env.Data().(type) {
	case envelope.Notification:
		n.add(d)
	case envelope.UnreadCount:
		n.mu.Lock()
		n.unread = d.Count
		n.mu.Unlock()
	}
}

func (n *Notifications) add(item envelope.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()

	// A repeated id replaces the old record instead of adding a new one.
	if i := slices.IndexFunc(n.items, func(x envelope.Notification) bool { return x.ID == item.ID }); i >= 0 {
		old := n.items[i]
		n.items = slices.Delete(n.items, i, i+1)
		if !old.Read && item.Read {
			n.unread = max(n.unread-1, 0)
		} else if old.Read && !item.Read {
			n.unread++
		}
	} else if !item.Read {
		n.unread++
	}

	n.items = slices.Insert(n.items, 0, item)
	if len(n.items) > n.limit {
		n.items = n.items[:n.limit]
	}
}

// List returns a copy of the notifications, newest first.
func (n *Notifications) List() []envelope.Notification {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return slices.Clone(n.items)
}

// Unread returns the unread count.
func (n *Notifications) Unread() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.unread
}
