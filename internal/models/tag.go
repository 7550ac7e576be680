package models

import "gorm.io/gorm"

// TagCategory groups tags for filtering in the client.
type TagCategory string

const (
	TagCategoryGenre    TagCategory = "genre"
	TagCategoryTheme    TagCategory = "theme"
	TagCategoryGameplay TagCategory = "gameplay"
)

// Tag represents a game tag (e.g., "RPG", "Metroidvania", "Co-op").
type Tag struct {
	gorm.Model
	Name     string      `gorm:"size:100;unique;not null"`
	Category TagCategory `gorm:"size:20;not null;default:'genre'"`
}

// Valid reports whether c is one of the known tag categories.
func (c TagCategory) Valid() bool {
	switch c {
	case TagCategoryGenre, TagCategoryTheme, TagCategoryGameplay:
		return true
	}
	return false
}
