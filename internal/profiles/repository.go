package profiles

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrilink/agrilink/internal/apperr"
	"github.com/agrilink/agrilink/internal/store"
)

// ErrNotFound is returned when a profile lookup finds no matching record.
var ErrNotFound = apperr.New(apperr.CodeNotFound, "profile not found")

// Repository provides farmer and expert profile persistence against PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// upsertByUser inserts a profile row keyed by user_id or merges the supplied
// columns into the existing one. An empty set still guarantees the row exists.
func (r *Repository) upsertByUser(ctx context.Context, table string, userID int64, set map[string]any) error {
	if len(set) == 0 {
		q := fmt.Sprintf(`INSERT INTO %s (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, table)
		if _, err := r.db.Exec(ctx, q, userID); err != nil {
			return store.Wrap("upsert "+table, err)
		}
		return nil
	}

	setCols := make([]string, 0, len(set))
	for c := range set {
		setCols = append(setCols, c)
	}
	sort.Strings(setCols)

	cols := append([]string{"user_id"}, setCols...)
	args := make([]any, 0, len(cols))
	args = append(args, userID)
	placeholders := make([]string, len(cols))
	for i, c := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		if i > 0 {
			args = append(args, set[c])
		}
	}

	var merge strings.Builder
	for _, c := range setCols {
		fmt.Fprintf(&merge, "%s = EXCLUDED.%s, ", c, c)
	}
	merge.WriteString("updated_at = now()")

	q := fmt.Sprintf(
		`INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (user_id) DO UPDATE SET %s`,
		table, strings.Join(cols, ", "), strings.Join(placeholders, ", "), merge.String(),
	)
	if _, err := r.db.Exec(ctx, q, args...); err != nil {
		return store.Wrap("upsert "+table, err)
	}
	return nil
}

// UpsertFarmer merges the supplied columns into the farmer profile for userID.
func (r *Repository) UpsertFarmer(ctx context.Context, userID int64, set map[string]any) error {
	return r.upsertByUser(ctx, "farmer_profiles", userID, set)
}

// UpsertExpert merges the supplied columns into the expert profile for userID.
func (r *Repository) UpsertExpert(ctx context.Context, userID int64, set map[string]any) error {
	return r.upsertByUser(ctx, "expert_profiles", userID, set)
}

// GetFarmer retrieves the farmer profile owned by userID.
func (r *Repository) GetFarmer(ctx context.Context, userID int64) (*FarmerProfile, error) {
	var p FarmerProfile
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, farm_name, farm_size, crops_grown, location,
		       latitude, longitude, phone, created_at, updated_at
		FROM farmer_profiles WHERE user_id = $1`, userID,
	).Scan(
		&p.ID, &p.UserID, &p.FarmName, &p.FarmSize, &p.CropsGrown, &p.Location,
		&p.Latitude, &p.Longitude, &p.Phone, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, store.Wrap("get farmer profile", err)
	}
	return &p, nil
}

// GetExpert retrieves the expert profile owned by userID.
func (r *Repository) GetExpert(ctx context.Context, userID int64) (*ExpertProfile, error) {
	var p ExpertProfile
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, specialization, qualifications, years_of_experience,
		       organization, verification_status, created_at, updated_at
		FROM expert_profiles WHERE user_id = $1`, userID,
	).Scan(
		&p.ID, &p.UserID, &p.Specialization, &p.Qualifications, &p.YearsOfExperience,
		&p.Organization, &p.VerificationStatus, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, store.Wrap("get expert profile", err)
	}
	return &p, nil
}

// SetExpertVerification transitions the review state of an expert profile.
func (r *Repository) SetExpertVerification(ctx context.Context, userID int64, status VerificationStatus) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE expert_profiles SET verification_status = $2, updated_at = now()
		WHERE user_id = $1`, userID, status,
	)
	if err != nil {
		return store.Wrap("set expert verification", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
