package profiles

import (
	"context"

	"go.uber.org/zap"

	"github.com/agrilink/agrilink/internal/apperr"
	"github.com/agrilink/agrilink/internal/store"
)

// profileRepo is the storage interface consumed by Service.
type profileRepo interface {
	UpsertFarmer(ctx context.Context, userID int64, set map[string]any) error
	UpsertExpert(ctx context.Context, userID int64, set map[string]any) error
	GetFarmer(ctx context.Context, userID int64) (*FarmerProfile, error)
	GetExpert(ctx context.Context, userID int64) (*ExpertProfile, error)
	SetExpertVerification(ctx context.Context, userID int64, status VerificationStatus) error
}

// Service implements profile merge writes and reads. Unlike the identity
// upsert there is no allow-list: every supplied field merges verbatim, and
// the owning user id is the key and is never overwritten.
type Service struct {
	repo   profileRepo
	logger *zap.Logger
}

// NewService creates a Service.
func NewService(repo profileRepo, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// UpdateFarmer merges the supplied fields into the farmer profile for userID,
// creating the profile if absent.
func (s *Service) UpdateFarmer(ctx context.Context, userID int64, upd FarmerUpdate) error {
	if userID <= 0 {
		return apperr.New(apperr.CodeInvalidKey, "profile userId is required for upsert")
	}
	return s.repo.UpsertFarmer(ctx, userID, upd.columns())
}

// UpdateExpert merges the supplied fields into the expert profile for userID,
// creating the profile if absent.
func (s *Service) UpdateExpert(ctx context.Context, userID int64, upd ExpertUpdate) error {
	if userID <= 0 {
		return apperr.New(apperr.CodeInvalidKey, "profile userId is required for upsert")
	}
	return s.repo.UpsertExpert(ctx, userID, upd.columns())
}

// GetFarmer retrieves the farmer profile for userID. Storage unavailability
// degrades to an absent result.
func (s *Service) GetFarmer(ctx context.Context, userID int64) (*FarmerProfile, error) {
	p, err := s.repo.GetFarmer(ctx, userID)
	if err != nil {
		if store.Unavailable(err) {
			s.logger.Warn("cannot get farmer profile: storage unavailable", zap.Error(err))
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// GetExpert retrieves the expert profile for userID, with the same
// read-degrade policy.
func (s *Service) GetExpert(ctx context.Context, userID int64) (*ExpertProfile, error) {
	p, err := s.repo.GetExpert(ctx, userID)
	if err != nil {
		if store.Unavailable(err) {
			s.logger.Warn("cannot get expert profile: storage unavailable", zap.Error(err))
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// SetExpertVerification transitions the review state of the expert profile
// owned by userID. Authorization (admin only) is enforced by the caller's
// guard chain.
func (s *Service) SetExpertVerification(ctx context.Context, userID int64, status VerificationStatus) error {
	if userID <= 0 {
		return apperr.New(apperr.CodeInvalidKey, "profile userId is required")
	}
	return s.repo.SetExpertVerification(ctx, userID, status)
}
