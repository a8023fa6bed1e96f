package content

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrilink/agrilink/internal/apperr"
	"github.com/agrilink/agrilink/internal/store"
)

// ErrNotFound is returned when a content lookup finds no matching record.
var ErrNotFound = apperr.New(apperr.CodeNotFound, "content not found")

// Repository provides resource, guidance and success-story persistence
// against PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const resourceColumns = `id, title, description, content, resource_type, category,
	file_url, file_key, created_by, is_published, view_count, created_at, updated_at`

func scanResource(row pgx.Row) (*Resource, error) {
	var r Resource
	err := row.Scan(
		&r.ID, &r.Title, &r.Description, &r.Content, &r.ResourceType, &r.Category,
		&r.FileURL, &r.FileKey, &r.CreatedBy, &r.IsPublished, &r.ViewCount,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListPublishedResources returns published resources, newest first, optionally
// restricted to a category.
func (r *Repository) ListPublishedResources(ctx context.Context, category string, limit, offset int) ([]*Resource, error) {
	q := `SELECT ` + resourceColumns + ` FROM resources WHERE is_published`
	args := []any{limit, offset}
	if category != "" {
		q += ` AND category = $3`
		args = append(args, category)
	}
	q += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, store.Wrap("list resources", err)
	}
	defer rows.Close()

	var out []*Resource
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, store.Wrap("list resources", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Wrap("list resources", err)
	}
	return out, nil
}

// GetResource retrieves a single resource by id.
func (r *Repository) GetResource(ctx context.Context, id int64) (*Resource, error) {
	res, err := scanResource(r.db.QueryRow(ctx,
		`SELECT `+resourceColumns+` FROM resources WHERE id = $1`, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, store.Wrap("get resource", err)
	}
	return res, nil
}

// CreateResource inserts an unpublished resource and returns it.
func (r *Repository) CreateResource(ctx context.Context, createdBy int64, in NewResource) (*Resource, error) {
	res, err := scanResource(r.db.QueryRow(ctx, `
		INSERT INTO resources (title, description, content, resource_type, category, file_url, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+resourceColumns,
		in.Title, in.Description, in.Content, in.ResourceType, in.Category, in.FileURL, createdBy,
	))
	if err != nil {
		return nil, store.Wrap("create resource", err)
	}
	return res, nil
}

// SetResourcePublished flips the publication flag on a resource.
func (r *Repository) SetResourcePublished(ctx context.Context, id int64, published bool) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE resources SET is_published = $2, updated_at = now() WHERE id = $1`,
		id, published,
	)
	if err != nil {
		return store.Wrap("publish resource", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteResource removes a resource by id.
func (r *Repository) DeleteResource(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM resources WHERE id = $1`, id)
	if err != nil {
		return store.Wrap("delete resource", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const guidanceColumns = `id, title, content, category, published_by, is_published,
	view_count, created_at, updated_at`

func scanGuidance(row pgx.Row) (*Guidance, error) {
	var g Guidance
	err := row.Scan(
		&g.ID, &g.Title, &g.Content, &g.Category, &g.PublishedBy, &g.IsPublished,
		&g.ViewCount, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// ListPublishedGuidance returns published guidance posts, newest first.
func (r *Repository) ListPublishedGuidance(ctx context.Context, limit, offset int) ([]*Guidance, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+guidanceColumns+` FROM guidance
		WHERE is_published ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, store.Wrap("list guidance", err)
	}
	defer rows.Close()

	var out []*Guidance
	for rows.Next() {
		g, err := scanGuidance(rows)
		if err != nil {
			return nil, store.Wrap("list guidance", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Wrap("list guidance", err)
	}
	return out, nil
}

// ListGuidanceByUser returns all guidance authored by userID, newest first.
func (r *Repository) ListGuidanceByUser(ctx context.Context, userID int64) ([]*Guidance, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+guidanceColumns+` FROM guidance
		WHERE published_by = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, store.Wrap("list guidance by user", err)
	}
	defer rows.Close()

	var out []*Guidance
	for rows.Next() {
		g, err := scanGuidance(rows)
		if err != nil {
			return nil, store.Wrap("list guidance by user", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Wrap("list guidance by user", err)
	}
	return out, nil
}

// CreateGuidance inserts a guidance post, published immediately.
func (r *Repository) CreateGuidance(ctx context.Context, publishedBy int64, in NewGuidance) (*Guidance, error) {
	g, err := scanGuidance(r.db.QueryRow(ctx, `
		INSERT INTO guidance (title, content, category, published_by, is_published)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING `+guidanceColumns,
		in.Title, in.Content, in.Category, publishedBy,
	))
	if err != nil {
		return nil, store.Wrap("create guidance", err)
	}
	return g, nil
}

const storyColumns = `id, title, description, farmer_id, image_url, is_published,
	created_at, updated_at`

func scanStory(row pgx.Row) (*SuccessStory, error) {
	var s SuccessStory
	err := row.Scan(
		&s.ID, &s.Title, &s.Description, &s.FarmerID, &s.ImageURL, &s.IsPublished,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListPublishedStories returns published success stories, newest first.
func (r *Repository) ListPublishedStories(ctx context.Context, limit, offset int) ([]*SuccessStory, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+storyColumns+` FROM success_stories
		WHERE is_published ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, store.Wrap("list success stories", err)
	}
	defer rows.Close()

	var out []*SuccessStory
	for rows.Next() {
		s, err := scanStory(rows)
		if err != nil {
			return nil, store.Wrap("list success stories", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Wrap("list success stories", err)
	}
	return out, nil
}

// CreateStory inserts an unpublished success story submitted by farmerID.
func (r *Repository) CreateStory(ctx context.Context, farmerID int64, in NewSuccessStory) (*SuccessStory, error) {
	s, err := scanStory(r.db.QueryRow(ctx, `
		INSERT INTO success_stories (title, description, farmer_id, image_url)
		VALUES ($1, $2, $3, $4)
		RETURNING `+storyColumns,
		in.Title, in.Description, farmerID, in.ImageURL,
	))
	if err != nil {
		return nil, store.Wrap("create success story", err)
	}
	return s, nil
}
