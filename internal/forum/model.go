package forum

import "time"

// QuestionStatus is the lifecycle state of a forum question.
type QuestionStatus string

const (
	StatusOpen     QuestionStatus = "open"
	StatusAnswered QuestionStatus = "answered"
	StatusClosed   QuestionStatus = "closed"
)

// Question is a community forum thread started by any signed-in user.
type Question struct {
	ID        int64          `json:"id"        db:"id"`
	Title     string         `json:"title"     db:"title"`
	Content   string         `json:"content"   db:"content"`
	Category  *string        `json:"category"  db:"category"`
	AskedBy   int64          `json:"askedBy"   db:"asked_by"`
	Status    QuestionStatus `json:"status"    db:"status"`
	ViewCount int            `json:"viewCount" db:"view_count"`
	CreatedAt time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time      `json:"updatedAt" db:"updated_at"`
}

// Answer is a reply on a question thread.
type Answer struct {
	ID         int64     `json:"id"         db:"id"`
	QuestionID int64     `json:"questionId" db:"question_id"`
	Content    string    `json:"content"    db:"content"`
	AnsweredBy int64     `json:"answeredBy" db:"answered_by"`
	IsAccepted bool      `json:"isAccepted" db:"is_accepted"`
	CreatedAt  time.Time `json:"createdAt"  db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt"  db:"updated_at"`
}

// QuestionThread is a question together with its answers, oldest first.
type QuestionThread struct {
	Question *Question `json:"question"`
	Answers  []*Answer `json:"answers"`
}

// NewQuestion carries the fields accepted when asking a question.
type NewQuestion struct {
	Title    string
	Content  string
	Category *string
}
