package models

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/segmentio/ksuid"
	"gorm.io/gorm"
)

// Document is a knowledge base entry: a store policy, product note or FAQ.
// KSUIDs are time-ordered, so sorting by ID descending gives newest-first
// without touching created_at - exact-mode search relies on this.
type Document struct {
	ID             string          `json:"id" gorm:"type:char(27);primaryKey"`
	Title          string          `json:"title" gorm:"type:text;not null"`
	Category       string          `json:"category" gorm:"type:varchar(100);index"`
	Outline        string          `json:"outline" gorm:"type:text"`
	Content        string          `json:"content" gorm:"type:text;not null"`
	Embedding      pgvector.Vector `json:"-" gorm:"type:vector(384)"`
	HelpfulCount   int             `json:"helpful_count" gorm:"not null;default:0"`
	UnhelpfulCount int             `json:"unhelpful_count" gorm:"not null;default:0"`
	CreatedAt      time.Time       `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt      gorm.DeletedAt  `json:"deleted_at,omitempty" gorm:"column:deleted_at;index"`
}

// BeforeCreate hook generates KSUID before inserting
func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = ksuid.New().String()
	}
	return nil
}

// EmbedText is the text that gets encoded for semantic search.
// Title carries most of the signal for short policy documents, so it is
// concatenated in front of the content.
func (d *Document) EmbedText() string {
	if d.Title == "" {
		return d.Content
	}
	return d.Title + "\n" + d.Content
}

type DocumentCreate struct {
	Title    string   `json:"title"`
	Category string   `json:"category"`
	Outline  string   `json:"outline"`
	Content  string   `json:"content"`
	Tags     []string `json:"tags"`
}

type DocumentUpdate struct {
	Title    *string   `json:"title,omitempty"`
	Category *string   `json:"category,omitempty"`
	Outline  *string   `json:"outline,omitempty"`
	Content  *string   `json:"content,omitempty"`
	Tags     *[]string `json:"tags,omitempty"`
}

// FeedbackKind selects which counter a feedback call increments.
type FeedbackKind string

const (
	FeedbackHelpful   FeedbackKind = "helpful"
	FeedbackUnhelpful FeedbackKind = "unhelpful"
)
