package notifications

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/agrilink/agrilink/internal/store"
)

// notificationRepo is the storage interface consumed by Service.
type notificationRepo interface {
	ListForUser(ctx context.Context, userID int64, limit, offset int) ([]*Notification, error)
	Create(ctx context.Context, n *Notification) error
}

// Service implements per-user notification delivery and listing.
type Service struct {
	repo   notificationRepo
	logger *zap.Logger
}

// NewService creates a Service.
func NewService(repo notificationRepo, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// ListForUser returns the caller's notifications, newest first. Storage
// unavailability degrades to an empty list.
func (s *Service) ListForUser(ctx context.Context, userID int64, limit, offset int) ([]*Notification, error) {
	out, err := s.repo.ListForUser(ctx, userID, limit, offset)
	if err != nil {
		if store.Unavailable(err) {
			s.logger.Warn("cannot list notifications: storage unavailable", zap.Error(err))
			return []*Notification{}, nil
		}
		return nil, err
	}
	if out == nil {
		out = []*Notification{}
	}
	return out, nil
}

// Create stores a notification for a user.
func (s *Service) Create(ctx context.Context, n *Notification) error {
	return s.repo.Create(ctx, n)
}

// AnswerCreated notifies the asker of a question that a new answer arrived.
// Satisfies forum.Notifier.
func (s *Service) AnswerCreated(ctx context.Context, askerID, questionID int64, questionTitle string) error {
	return s.Create(ctx, &Notification{
		UserID:    askerID,
		Title:     "New answer on your question",
		Message:   fmt.Sprintf("Your question %q has a new answer.", questionTitle),
		Type:      TypeAnswer,
		RelatedID: &questionID,
	})
}
