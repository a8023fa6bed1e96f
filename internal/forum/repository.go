package forum

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrilink/agrilink/internal/apperr"
	"github.com/agrilink/agrilink/internal/store"
)

// ErrNotFound is returned when a question lookup finds no matching record.
var ErrNotFound = apperr.New(apperr.CodeNotFound, "question not found")

// Repository provides forum persistence against PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const questionColumns = `id, title, content, category, asked_by, status,
	view_count, created_at, updated_at`

func scanQuestion(row pgx.Row) (*Question, error) {
	var q Question
	err := row.Scan(
		&q.ID, &q.Title, &q.Content, &q.Category, &q.AskedBy, &q.Status,
		&q.ViewCount, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// ListQuestions returns questions, newest first, optionally restricted to a
// category.
func (r *Repository) ListQuestions(ctx context.Context, category string, limit, offset int) ([]*Question, error) {
	q := `SELECT ` + questionColumns + ` FROM forum_questions`
	args := []any{limit, offset}
	if category != "" {
		q += ` WHERE category = $3`
		args = append(args, category)
	}
	q += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, store.Wrap("list questions", err)
	}
	defer rows.Close()

	var out []*Question
	for rows.Next() {
		qu, err := scanQuestion(rows)
		if err != nil {
			return nil, store.Wrap("list questions", err)
		}
		out = append(out, qu)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Wrap("list questions", err)
	}
	return out, nil
}

// GetQuestion retrieves a single question by id.
func (r *Repository) GetQuestion(ctx context.Context, id int64) (*Question, error) {
	q, err := scanQuestion(r.db.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM forum_questions WHERE id = $1`, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, store.Wrap("get question", err)
	}
	return q, nil
}

// CreateQuestion inserts an open question asked by askedBy.
func (r *Repository) CreateQuestion(ctx context.Context, askedBy int64, in NewQuestion) (*Question, error) {
	q, err := scanQuestion(r.db.QueryRow(ctx, `
		INSERT INTO forum_questions (title, content, category, asked_by)
		VALUES ($1, $2, $3, $4)
		RETURNING `+questionColumns,
		in.Title, in.Content, in.Category, askedBy,
	))
	if err != nil {
		return nil, store.Wrap("create question", err)
	}
	return q, nil
}

const answerColumns = `id, question_id, content, answered_by, is_accepted,
	created_at, updated_at`

func scanAnswer(row pgx.Row) (*Answer, error) {
	var a Answer
	err := row.Scan(
		&a.ID, &a.QuestionID, &a.Content, &a.AnsweredBy, &a.IsAccepted,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAnswers returns the answers on a question, oldest first.
func (r *Repository) ListAnswers(ctx context.Context, questionID int64) ([]*Answer, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+answerColumns+` FROM forum_answers
		WHERE question_id = $1 ORDER BY created_at ASC`,
		questionID,
	)
	if err != nil {
		return nil, store.Wrap("list answers", err)
	}
	defer rows.Close()

	var out []*Answer
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, store.Wrap("list answers", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Wrap("list answers", err)
	}
	return out, nil
}

// CreateAnswer inserts an answer on questionID and marks the question
// answered.
func (r *Repository) CreateAnswer(ctx context.Context, questionID, answeredBy int64, content string) (*Answer, error) {
	a, err := scanAnswer(r.db.QueryRow(ctx, `
		INSERT INTO forum_answers (question_id, content, answered_by)
		VALUES ($1, $2, $3)
		RETURNING `+answerColumns,
		questionID, content, answeredBy,
	))
	if err != nil {
		return nil, store.Wrap("create answer", err)
	}
	if _, err := r.db.Exec(ctx, `
		UPDATE forum_questions SET status = 'answered', updated_at = now()
		WHERE id = $1 AND status = 'open'`, questionID,
	); err != nil {
		return nil, store.Wrap("mark question answered", err)
	}
	return a, nil
}
