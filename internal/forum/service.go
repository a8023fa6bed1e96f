package forum

import (
	"context"

	"go.uber.org/zap"

	"github.com/agrilink/agrilink/internal/store"
)

// forumRepo is the storage interface consumed by Service.
type forumRepo interface {
	ListQuestions(ctx context.Context, category string, limit, offset int) ([]*Question, error)
	GetQuestion(ctx context.Context, id int64) (*Question, error)
	CreateQuestion(ctx context.Context, askedBy int64, in NewQuestion) (*Question, error)
	ListAnswers(ctx context.Context, questionID int64) ([]*Answer, error)
	CreateAnswer(ctx context.Context, questionID, answeredBy int64, content string) (*Answer, error)
}

// Notifier is told about new answers so the asker can be alerted. Delivery is
// best effort; a failing notifier never fails the answer write.
type Notifier interface {
	AnswerCreated(ctx context.Context, askerID, questionID int64, questionTitle string) error
}

// Service implements the community forum operations.
type Service struct {
	repo     forumRepo
	notifier Notifier
	logger   *zap.Logger
}

// NewService creates a Service.
func NewService(repo forumRepo, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// SetNotifier wires answer notifications. Optional.
func (s *Service) SetNotifier(n Notifier) { s.notifier = n }

// ListQuestions returns forum questions, optionally filtered by category.
// Storage unavailability degrades to an empty list.
func (s *Service) ListQuestions(ctx context.Context, category string, limit, offset int) ([]*Question, error) {
	out, err := s.repo.ListQuestions(ctx, category, limit, offset)
	if err != nil {
		if store.Unavailable(err) {
			s.logger.Warn("cannot list questions: storage unavailable", zap.Error(err))
			return []*Question{}, nil
		}
		return nil, err
	}
	if out == nil {
		out = []*Question{}
	}
	return out, nil
}

// GetThread returns a question together with its answers, oldest first.
func (s *Service) GetThread(ctx context.Context, id int64) (*QuestionThread, error) {
	q, err := s.repo.GetQuestion(ctx, id)
	if err != nil {
		if store.Unavailable(err) {
			s.logger.Warn("cannot get question: storage unavailable", zap.Error(err))
			return nil, ErrNotFound
		}
		return nil, err
	}
	answers, err := s.repo.ListAnswers(ctx, id)
	if err != nil {
		if store.Unavailable(err) {
			s.logger.Warn("cannot list answers: storage unavailable", zap.Error(err))
			answers = nil
		} else {
			return nil, err
		}
	}
	if answers == nil {
		answers = []*Answer{}
	}
	return &QuestionThread{Question: q, Answers: answers}, nil
}

// CreateQuestion opens a new question thread asked by askedBy.
func (s *Service) CreateQuestion(ctx context.Context, askedBy int64, in NewQuestion) (*Question, error) {
	return s.repo.CreateQuestion(ctx, askedBy, in)
}

// CreateAnswer posts an answer on questionID and notifies the asker. The
// question transitions to answered if still open.
func (s *Service) CreateAnswer(ctx context.Context, questionID, answeredBy int64, content string) (*Answer, error) {
	q, err := s.repo.GetQuestion(ctx, questionID)
	if err != nil {
		if store.Unavailable(err) {
			s.logger.Warn("cannot get question: storage unavailable", zap.Error(err))
			return nil, ErrNotFound
		}
		return nil, err
	}
	a, err := s.repo.CreateAnswer(ctx, questionID, answeredBy, content)
	if err != nil {
		return nil, err
	}
	if s.notifier != nil && q.AskedBy != answeredBy {
		if err := s.notifier.AnswerCreated(ctx, q.AskedBy, q.ID, q.Title); err != nil {
			s.logger.Warn("answer notification failed",
				zap.Int64("question_id", q.ID), zap.Error(err))
		}
	}
	return a, nil
}
