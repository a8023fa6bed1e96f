package users

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/agrilink/agrilink/internal/apperr"
	"github.com/agrilink/agrilink/internal/store"
)

// userRepo is the storage interface consumed by Service.
type userRepo interface {
	Upsert(ctx context.Context, openID string, insert, update map[string]any) error
	GetByOpenID(ctx context.Context, openID string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	List(ctx context.Context) ([]*User, error)
}

// Service implements account logic: the identity upsert and user reads.
type Service struct {
	repo        userRepo
	ownerOpenID string
	logger      *zap.Logger
	now         func() time.Time
}

// NewService creates a Service. ownerOpenID is the external identity that is
// promoted to admin on first creation; empty disables the rule.
func NewService(repo userRepo, ownerOpenID string, logger *zap.Logger) *Service {
	return &Service{repo: repo, ownerOpenID: ownerOpenID, logger: logger, now: time.Now}
}

// SetClock overrides the time source. Intended for tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Upsert creates or merges the user identified by in.OpenID. Only the
// allow-listed fields (name, email, login_method, role, last_signed_in)
// participate; a write that would otherwise change nothing still records a
// last_signed_in touch so a sign-in is never a true no-op. Unlike reads,
// storage failures here propagate to the caller — losing the
// identity-establishing write would corrupt the authentication model.
func (s *Service) Upsert(ctx context.Context, in UpsertInput) error {
	if in.OpenID == "" {
		return apperr.New(apperr.CodeInvalidKey, "user openId is required for upsert")
	}

	now := s.now().UTC()
	insert := map[string]any{"open_id": in.OpenID}
	update := map[string]any{}

	assign := func(col string, f store.Field[string]) {
		if f.IsSet() {
			insert[col] = f.Arg()
			update[col] = f.Arg()
		}
	}
	assign("name", in.Name)
	assign("email", in.Email)
	assign("login_method", in.LoginMethod)

	// last_signed_in is NOT NULL; a null field falls through to the default
	// below instead of writing nil.
	if in.LastSignedIn.IsSet() && !in.LastSignedIn.IsNull() {
		insert["last_signed_in"] = in.LastSignedIn.Arg()
		update["last_signed_in"] = in.LastSignedIn.Arg()
	}

	switch {
	case in.Role.IsSet():
		// An explicit role always wins, even for the owner identity.
		insert["role"] = in.Role.Arg()
		update["role"] = in.Role.Arg()
	case s.ownerOpenID != "" && in.OpenID == s.ownerOpenID:
		insert["role"] = RoleAdmin
		update["role"] = RoleAdmin
	}

	if _, ok := insert["last_signed_in"]; !ok {
		insert["last_signed_in"] = now
	}
	// A duplicate-key conflict with nothing to merge must still record a touch.
	if len(update) == 0 {
		update["last_signed_in"] = insert["last_signed_in"]
	}

	if err := s.repo.Upsert(ctx, in.OpenID, insert, update); err != nil {
		s.logger.Error("upsert user failed", zap.String("open_id", in.OpenID), zap.Error(err))
		return err
	}
	return nil
}

// GetByOpenID retrieves a user by external identity. Storage unavailability
// degrades to a not-found result with a warning log.
func (s *Service) GetByOpenID(ctx context.Context, openID string) (*User, error) {
	u, err := s.repo.GetByOpenID(ctx, openID)
	if err != nil {
		if store.Unavailable(err) {
			s.logger.Warn("cannot get user: storage unavailable", zap.Error(err))
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

// GetByID retrieves a user by internal id, with the same read-degrade policy.
func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if store.Unavailable(err) {
			s.logger.Warn("cannot get user: storage unavailable", zap.Error(err))
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

// List returns all users. Storage unavailability degrades to an empty list.
func (s *Service) List(ctx context.Context) ([]*User, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		if store.Unavailable(err) {
			s.logger.Warn("cannot list users: storage unavailable", zap.Error(err))
			return []*User{}, nil
		}
		return nil, err
	}
	if list == nil {
		list = []*User{}
	}
	return list, nil
}
