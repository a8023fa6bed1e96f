package notifications

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrilink/agrilink/internal/store"
)

// Repository provides notification persistence against PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// ListForUser returns the notifications addressed to userID, newest first.
func (r *Repository) ListForUser(ctx context.Context, userID int64, limit, offset int) ([]*Notification, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, title, message, type, related_id, is_read, created_at
		FROM notifications WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, store.Wrap("list notifications", err)
	}
	defer rows.Close()

	var out []*Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(
			&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.RelatedID,
			&n.IsRead, &n.CreatedAt,
		); err != nil {
			return nil, store.Wrap("list notifications", err)
		}
		out = append(out, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Wrap("list notifications", err)
	}
	return out, nil
}

// Create inserts a notification.
func (r *Repository) Create(ctx context.Context, n *Notification) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO notifications (user_id, title, message, type, related_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		n.UserID, n.Title, n.Message, n.Type, n.RelatedID,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return store.Wrap("create notification", err)
	}
	return nil
}
