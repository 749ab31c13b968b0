package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Note is the shared document targeted by concurrent edits. Content carries no
// merge semantics: the last committed write wins.
type Note struct {
	ID      string `gorm:"primaryKey;type:uuid" json:"note_id"`
	Title   string `gorm:"not null" json:"title"`
	Content string `json:"content"`

	// CategoryID references a category owned by an external subsystem; it is
	// carried but never dereferenced here.
	CategoryID *string `gorm:"type:uuid" json:"category_id,omitempty"`

	CreatedAt  time.Time `gorm:"index" json:"date_created"`
	LastEdited time.Time `json:"last_edited"`

	Permissions []Permission `gorm:"foreignKey:NoteID;constraint:OnDelete:CASCADE" json:"-"`
}

// BeforeCreate assigns an identifier and stamps the first edit time.
func (n *Note) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.LastEdited.IsZero() {
		n.LastEdited = time.Now().UTC()
	}
	return nil
}
