package notifications

import "time"

// Type classifies a notification for client rendering.
type Type string

const (
	TypeAnswer       Type = "answer"
	TypeVerification Type = "verification"
	TypeSystem       Type = "system"
)

// Notification is an in-app message for a single user.
type Notification struct {
	ID        int64     `json:"id"        db:"id"`
	UserID    int64     `json:"userId"    db:"user_id"`
	Title     string    `json:"title"     db:"title"`
	Message   string    `json:"message"   db:"message"`
	Type      Type      `json:"type"      db:"type"`
	RelatedID *int64    `json:"relatedId" db:"related_id"`
	IsRead    bool      `json:"isRead"    db:"is_read"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
