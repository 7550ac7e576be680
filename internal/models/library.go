package models

import "time"

// LibraryStatus is where a game sits in a user's library.
// Any status may move to any other; there is no transition table.
type LibraryStatus string

const (
	StatusPlaying   LibraryStatus = "playing"
	StatusCompleted LibraryStatus = "completed"
	StatusBacklog   LibraryStatus = "backlog"
	StatusDropped   LibraryStatus = "dropped"
	StatusWishlist  LibraryStatus = "wishlist"
)

// Valid reports whether s is one of the known statuses.
func (s LibraryStatus) Valid() bool {
	switch s {
	case StatusPlaying, StatusCompleted, StatusBacklog, StatusDropped, StatusWishlist:
		return true
	}
	return false
}

// UserLibrary is one game in one user's collection.
type UserLibrary struct {
	ID             uint          `gorm:"primarykey"`
	UserID         uint          `gorm:"not null;uniqueIndex:idx_user_game_library;index"`
	GameID         uint          `gorm:"not null;uniqueIndex:idx_user_game_library;index"`
	Status         LibraryStatus `gorm:"size:20;not null;default:'backlog'"`
	IsFavorite     bool          `gorm:"not null;default:false"`
	HoursPlayed    int           `gorm:"not null;default:0"`
	PersonalRating *int
	AddedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time

	Game Game `gorm:"foreignKey:GameID"`
}

// TableName keeps the singular table name used by the rest of the schema.
func (UserLibrary) TableName() string {
	return "user_library"
}
