package envelope

import "time"

// Type tags an envelope and determines the shape of its data.
type Type string

const (
	TypeNotification Type = "notification"
	TypeUnreadCount  Type = "unread-count"
	TypeLogout       Type = "logout"
	TypeTransaction  Type = "transaction"
	TypeBalance      Type = "balance"
	TypeStorage      Type = "storage"
)

// Valid reports whether t is one of the known tags.
func (t Type) Valid() bool {
	switch t {
	case TypeNotification, TypeUnreadCount, TypeLogout, TypeTransaction, TypeBalance, TypeStorage:
		return true
	}
	return false
}

// TransactionStatus is the lifecycle state carried by a transaction envelope.
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionPaid      TransactionStatus = "paid"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
)

func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionPending, TransactionPaid, TransactionCompleted, TransactionFailed:
		return true
	}
	return false
}

// IsTerminal reports whether no further status change is expected.
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionCompleted || s == TransactionFailed
}

// Payload is implemented by the data struct of every envelope type.
// The set is closed: only types in this package implement it.
type Payload interface {
	EnvelopeType() Type
	validate() error
}

// Notification is a full notification record.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId,omitempty"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Kind      string    `json:"kind,omitempty"`
	Link      string    `json:"link,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// UnreadCount carries the user's current unread notification count.
type UnreadCount struct {
	Count int `json:"count"`
}

// Logout asks the client to discard its session.
type Logout struct {
	SessionID string `json:"sessionId,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// Transaction reports a payment transaction state change.
type Transaction struct {
	TransactionID string            `json:"transactionId"`
	Status        TransactionStatus `json:"status"`
}

// Balance reports the user's new credit balance.
type Balance struct {
	Credit  float64 `json:"credit"`
	Message string  `json:"message,omitempty"`
}

// Storage is a snapshot of the user's storage quota. Sizes are bytes.
type Storage struct {
	Limit              int64   `json:"limit"`
	Used               int64   `json:"used"`
	Available          int64   `json:"available"`
	LimitFormatted     string  `json:"limitFormatted"`
	UsedFormatted      string  `json:"usedFormatted"`
	AvailableFormatted string  `json:"availableFormatted"`
	Credit             float64 `json:"credit"`
}

func (Notification) EnvelopeType() Type { return TypeNotification }
func (UnreadCount) EnvelopeType() Type  { return TypeUnreadCount }
func (Logout) EnvelopeType() Type       { return TypeLogout }
func (Transaction) EnvelopeType() Type  { return TypeTransaction }
func (Balance) EnvelopeType() Type      { return TypeBalance }
func (Storage) EnvelopeType() Type      { return TypeStorage }
