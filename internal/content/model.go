package content

import "time"

// ResourceType classifies a knowledge-base resource.
type ResourceType string

const (
	TypeGuide    ResourceType = "guide"
	TypeArticle  ResourceType = "article"
	TypeVideo    ResourceType = "video"
	TypeDocument ResourceType = "document"
	TypeTutorial ResourceType = "tutorial"
)

// ResourceTypes lists the closed set of valid resource types.
var ResourceTypes = []string{"guide", "article", "video", "document", "tutorial"}

// Resource is a knowledge-base entry (guide, article, video, ...). Created
// unpublished; only published resources are publicly listable.
type Resource struct {
	ID           int64        `json:"id"           db:"id"`
	Title        string       `json:"title"        db:"title"`
	Description  *string      `json:"description"  db:"description"`
	Content      *string      `json:"content"      db:"content"`
	ResourceType ResourceType `json:"resourceType" db:"resource_type"`
	Category     *string      `json:"category"     db:"category"`
	FileURL      *string      `json:"fileUrl"      db:"file_url"`
	FileKey      *string      `json:"fileKey"      db:"file_key"`
	CreatedBy    int64        `json:"createdBy"    db:"created_by"`
	IsPublished  bool         `json:"isPublished"  db:"is_published"`
	ViewCount    int          `json:"viewCount"    db:"view_count"`
	CreatedAt    time.Time    `json:"createdAt"    db:"created_at"`
	UpdatedAt    time.Time    `json:"updatedAt"    db:"updated_at"`
}

// Guidance is an expert-published advisory post, published immediately.
type Guidance struct {
	ID          int64     `json:"id"          db:"id"`
	Title       string    `json:"title"       db:"title"`
	Content     string    `json:"content"     db:"content"`
	Category    *string   `json:"category"    db:"category"`
	PublishedBy int64     `json:"publishedBy" db:"published_by"`
	IsPublished bool      `json:"isPublished" db:"is_published"`
	ViewCount   int       `json:"viewCount"   db:"view_count"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt"   db:"updated_at"`
}

// SuccessStory is a showcased farmer outcome, created unpublished.
type SuccessStory struct {
	ID          int64     `json:"id"          db:"id"`
	Title       string    `json:"title"       db:"title"`
	Description *string   `json:"description" db:"description"`
	FarmerID    *int64    `json:"farmerId"    db:"farmer_id"`
	ImageURL    *string   `json:"imageUrl"    db:"image_url"`
	IsPublished bool      `json:"isPublished" db:"is_published"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt"   db:"updated_at"`
}

// NewResource carries the fields accepted when creating a resource.
type NewResource struct {
	Title        string
	Description  *string
	Content      *string
	ResourceType ResourceType
	Category     *string
	FileURL      *string
}

// NewGuidance carries the fields accepted when publishing guidance.
type NewGuidance struct {
	Title    string
	Content  string
	Category *string
}

// NewSuccessStory carries the fields accepted when submitting a story.
type NewSuccessStory struct {
	Title       string
	Description string
	ImageURL    *string
}
