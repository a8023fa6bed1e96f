package content

import (
	"context"

	"go.uber.org/zap"

	"github.com/agrilink/agrilink/internal/apperr"
	"github.com/agrilink/agrilink/internal/store"
	"github.com/agrilink/agrilink/internal/users"
)

// contentRepo is the storage interface consumed by Service.
type contentRepo interface {
	ListPublishedResources(ctx context.Context, category string, limit, offset int) ([]*Resource, error)
	GetResource(ctx context.Context, id int64) (*Resource, error)
	CreateResource(ctx context.Context, createdBy int64, in NewResource) (*Resource, error)
	SetResourcePublished(ctx context.Context, id int64, published bool) error
	DeleteResource(ctx context.Context, id int64) error

	ListPublishedGuidance(ctx context.Context, limit, offset int) ([]*Guidance, error)
	ListGuidanceByUser(ctx context.Context, userID int64) ([]*Guidance, error)
	CreateGuidance(ctx context.Context, publishedBy int64, in NewGuidance) (*Guidance, error)

	ListPublishedStories(ctx context.Context, limit, offset int) ([]*SuccessStory, error)
	CreateStory(ctx context.Context, farmerID int64, in NewSuccessStory) (*SuccessStory, error)
}

// Service implements the knowledge-base operations. Public reads degrade to
// empty results when storage is unreachable; writes report the failure.
type Service struct {
	repo   contentRepo
	logger *zap.Logger
}

// NewService creates a Service.
func NewService(repo contentRepo, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// ListResources returns published resources, optionally filtered by category.
func (s *Service) ListResources(ctx context.Context, category string, limit, offset int) ([]*Resource, error) {
	out, err := s.repo.ListPublishedResources(ctx, category, limit, offset)
	if err != nil {
		if store.Unavailable(err) {
			s.logger.Warn("cannot list resources: storage unavailable", zap.Error(err))
			return []*Resource{}, nil
		}
		return nil, err
	}
	if out == nil {
		out = []*Resource{}
	}
	return out, nil
}

// GetResource retrieves a single resource. Unavailable storage degrades to an
// absent result.
func (s *Service) GetResource(ctx context.Context, id int64) (*Resource, error) {
	res, err := s.repo.GetResource(ctx, id)
	if err != nil {
		if store.Unavailable(err) {
			s.logger.Warn("cannot get resource: storage unavailable", zap.Error(err))
			return nil, ErrNotFound
		}
		return nil, err
	}
	return res, nil
}

// CreateResource creates an unpublished resource on behalf of caller. Only
// admins and experts may contribute resources.
func (s *Service) CreateResource(ctx context.Context, caller *users.User, in NewResource) (*Resource, error) {
	if caller.Role != users.RoleAdmin && caller.Role != users.RoleExpert {
		return nil, apperr.New(apperr.CodeForbidden, "resource creation requires admin or expert role")
	}
	return s.repo.CreateResource(ctx, caller.ID, in)
}

// DeleteResource removes a resource. Admins may delete any resource; other
// callers only their own.
func (s *Service) DeleteResource(ctx context.Context, caller *users.User, id int64) error {
	if caller.Role != users.RoleAdmin {
		res, err := s.repo.GetResource(ctx, id)
		if err != nil {
			return err
		}
		if res.CreatedBy != caller.ID {
			return apperr.New(apperr.CodeForbidden, "only the resource owner or an admin may delete it")
		}
	}
	return s.repo.DeleteResource(ctx, id)
}

// ListGuidance returns published guidance posts.
func (s *Service) ListGuidance(ctx context.Context, limit, offset int) ([]*Guidance, error) {
	out, err := s.repo.ListPublishedGuidance(ctx, limit, offset)
	if err != nil {
		if store.Unavailable(err) {
			s.logger.Warn("cannot list guidance: storage unavailable", zap.Error(err))
			return []*Guidance{}, nil
		}
		return nil, err
	}
	if out == nil {
		out = []*Guidance{}
	}
	return out, nil
}

// ListGuidanceByExpert returns every guidance post authored by userID,
// published or not.
func (s *Service) ListGuidanceByExpert(ctx context.Context, userID int64) ([]*Guidance, error) {
	out, err := s.repo.ListGuidanceByUser(ctx, userID)
	if err != nil {
		if store.Unavailable(err) {
			s.logger.Warn("cannot list guidance by expert: storage unavailable", zap.Error(err))
			return []*Guidance{}, nil
		}
		return nil, err
	}
	if out == nil {
		out = []*Guidance{}
	}
	return out, nil
}

// CreateGuidance publishes a guidance post authored by publishedBy.
// Authorization (expert only) is enforced by the caller's guard chain.
func (s *Service) CreateGuidance(ctx context.Context, publishedBy int64, in NewGuidance) (*Guidance, error) {
	return s.repo.CreateGuidance(ctx, publishedBy, in)
}

// ListStories returns published success stories.
func (s *Service) ListStories(ctx context.Context, limit, offset int) ([]*SuccessStory, error) {
	out, err := s.repo.ListPublishedStories(ctx, limit, offset)
	if err != nil {
		if store.Unavailable(err) {
			s.logger.Warn("cannot list success stories: storage unavailable", zap.Error(err))
			return []*SuccessStory{}, nil
		}
		return nil, err
	}
	if out == nil {
		out = []*SuccessStory{}
	}
	return out, nil
}

// CreateStory submits an unpublished success story on behalf of farmerID.
// Authorization (farmer only) is enforced by the caller's guard chain.
func (s *Service) CreateStory(ctx context.Context, farmerID int64, in NewSuccessStory) (*SuccessStory, error) {
	return s.repo.CreateStory(ctx, farmerID, in)
}
