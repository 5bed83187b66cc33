package models

// Tag is part of the controlled vocabulary attached to documents.
// UsageCount is a lifetime popularity counter: it is incremented on every
// first-time attach and never decremented when associations are removed.
type Tag struct {
	Name       string `json:"name" gorm:"type:varchar(100);primaryKey"`
	UsageCount int    `json:"usage_count" gorm:"not null;default:0"`
}

// DocumentTag is the (document, tag) association row. The composite primary
// key makes duplicate attaches a no-op at the schema level as well.
type DocumentTag struct {
	DocumentID string `json:"document_id" gorm:"type:char(27);primaryKey"`
	TagName    string `json:"tag_name" gorm:"type:varchar(100);primaryKey"`
}

// Category is a filter/boost label. Documents reference it by string
// equality only; deleting a category does not touch documents that carry it.
type Category struct {
	Name string `json:"name" gorm:"type:varchar(100);primaryKey"`
}
