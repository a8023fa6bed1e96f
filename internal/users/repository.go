package users

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrilink/agrilink/internal/apperr"
	"github.com/agrilink/agrilink/internal/store"
)

// ErrNotFound is returned when a user lookup finds no matching record.
var ErrNotFound = apperr.New(apperr.CodeNotFound, "user not found")

const userColumns = `id, open_id, name, email, login_method, role, bio, profile_image, is_active, created_at, updated_at, last_signed_in`

// Repository provides user persistence against PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Upsert inserts a user keyed by open_id, or merges the update set into the
// existing row on conflict. Every update key must also appear in insert so
// the merge can reference EXCLUDED values; the service layer guarantees this.
func (r *Repository) Upsert(ctx context.Context, openID string, insert, update map[string]any) error {
	cols := make([]string, 0, len(insert))
	for c := range insert {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	args := make([]any, 0, len(cols))
	placeholders := make([]string, 0, len(cols))
	for i, c := range cols {
		args = append(args, insert[c])
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
	}

	setCols := make([]string, 0, len(update))
	for c := range update {
		setCols = append(setCols, c)
	}
	sort.Strings(setCols)

	var set strings.Builder
	for _, c := range setCols {
		fmt.Fprintf(&set, "%s = EXCLUDED.%s, ", c, c)
	}
	set.WriteString("updated_at = now()")

	q := fmt.Sprintf(
		`INSERT INTO users (%s) VALUES (%s) ON CONFLICT (open_id) DO UPDATE SET %s`,
		strings.Join(cols, ", "), strings.Join(placeholders, ", "), set.String(),
	)
	if _, err := r.db.Exec(ctx, q, args...); err != nil {
		return store.Wrap("upsert user", err)
	}
	return nil
}

// GetByOpenID retrieves a user by external identity.
func (r *Repository) GetByOpenID(ctx context.Context, openID string) (*User, error) {
	return r.scanOne(ctx, `SELECT `+userColumns+` FROM users WHERE open_id = $1`, openID)
}

// GetByID retrieves a user by internal id.
func (r *Repository) GetByID(ctx context.Context, id int64) (*User, error) {
	return r.scanOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// List returns all users ordered by creation time.
func (r *Repository) List(ctx context.Context) ([]*User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, store.Wrap("list users", err)
	}
	defer rows.Close()

	var out []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, store.Wrap("list users", rows.Err())
}

func (r *Repository) scanOne(ctx context.Context, q string, args ...any) (*User, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, store.Wrap("query user", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, store.Wrap("query user", err)
		}
		return nil, ErrNotFound
	}
	u, err := scanUser(rows)
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return u, rows.Err()
}

func scanUser(rows pgx.Rows) (*User, error) {
	var u User
	if err := rows.Scan(
		&u.ID, &u.OpenID, &u.Name, &u.Email, &u.LoginMethod, &u.Role,
		&u.Bio, &u.ProfileImage, &u.IsActive,
		&u.CreatedAt, &u.UpdatedAt, &u.LastSignedIn,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
