package models

import (
	"fmt"
	"strings"
	"time"
)

// Level is the ordered authorization scale for a note: read < edit < owner.
// Comparisons must go through AtLeast so that an unknown level string can never
// slip past a check.
type Level string

const (
	LevelRead  Level = "read"
	LevelEdit  Level = "edit"
	LevelOwner Level = "owner"
)

var levelRanks = map[Level]int{
	LevelRead:  1,
	LevelEdit:  2,
	LevelOwner: 3,
}

// ParseLevel normalises and validates a level string.
func ParseLevel(raw string) (Level, error) {
	level := Level(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := levelRanks[level]; !ok {
		return "", fmt.Errorf("unknown permission level %q", raw)
	}
	return level, nil
}

// Rank returns the level's position on the ordered scale; unknown levels rank
// below read.
func (l Level) Rank() int {
	return levelRanks[l]
}

// AtLeast reports whether l grants everything min does.
func (l Level) AtLeast(min Level) bool {
	return l.Rank() >= min.Rank() && min.Rank() > 0
}

// Valid reports whether l is one of the three known levels.
func (l Level) Valid() bool {
	return l.Rank() > 0
}

// Permission maps a user to their level on a single note. Exactly one row
// exists per (user, note) pair, and every live note keeps at least one owner
// row.
type Permission struct {
	UserID string `gorm:"primaryKey;type:uuid" json:"user_id"`
	NoteID string `gorm:"primaryKey;type:uuid" json:"note_id"`
	Level  Level  `gorm:"not null" json:"permission"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}
