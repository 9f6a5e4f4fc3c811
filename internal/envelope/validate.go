package envelope

import "fmt"

func (n Notification) validate() error {
	if n.ID == "" {
		return fmt.Errorf("%w: notification id is required", ErrInvalidPayload)
	}
	return nil
}

func (u UnreadCount) validate() error {
	if u.Count < 0 {
		return fmt.Errorf("%w: negative unread count %d", ErrInvalidPayload, u.Count)
	}
	return nil
}

func (Logout) validate() error { return nil }

func (t Transaction) validate() error {
	if t.TransactionID == "" {
		return fmt.Errorf("%w: transaction id is required", ErrInvalidPayload)
	}
	if !t.Status.Valid() {
		return fmt.Errorf("%w: transaction status %q", ErrInvalidPayload, t.Status)
	}
	return nil
}

func (Balance) validate() error { return nil }

func (s Storage) validate() error {
	if s.Limit < 0 || s.Used < 0 {
		return fmt.Errorf("%w: negative storage size", ErrInvalidPayload)
	}
	return nil
}
