package aggregate

import (
	"context"

	"gamequest/backend/internal/database"
	"gamequest/backend/internal/models"

	"gorm.io/gorm"
)

const msgAlreadyInLibrary = "Game already in library"

// AddToLibrary puts a game into the user's library. An empty status means backlog.
func (e *Engine) AddToLibrary(ctx context.Context, userID, gameID uint, status models.LibraryStatus) (*models.UserLibrary, error) {
	if status == "" {
		status = models.StatusBacklog
	}
	if !status.Valid() {
		return nil, e.fail("add_to_library", invalid("Invalid library status"))
	}

	db, err := e.db(ctx)
	if err != nil {
		return nil, e.fail("add_to_library", err)
	}
	var count int64
	if err := db.Model(&models.UserLibrary{}).
		Where("user_id = ? AND game_id = ?", userID, gameID).
		Count(&count).Error; err != nil {
		return nil, e.fail("add_to_library", err)
	}
	if count > 0 {
		return nil, e.fail("add_to_library", newError(ErrAlreadyExists, msgAlreadyInLibrary))
	}

	entry := models.UserLibrary{UserID: userID, GameID: gameID, Status: status}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := gameExists(tx, gameID); err != nil {
			return err
		}
		// The pre-check above races with concurrent adds; the unique index decides.
		if err := tx.Create(&entry).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return newError(ErrAlreadyExists, msgAlreadyInLibrary)
			}
			return err
		}
		if err := appendActivity(tx, userID, models.ActivityGameAdded, gameID); err != nil {
			return err
		}
		if status == models.StatusCompleted {
			return appendActivity(tx, userID, models.ActivityGameCompleted, gameID)
		}
		return nil
	})
	if err != nil {
		return nil, e.fail("add_to_library", err)
	}
	return &entry, nil
}

// LibraryPatch holds the optional fields of a library update. Nil means unchanged.
type LibraryPatch struct {
	Status         *models.LibraryStatus
	IsFavorite     *bool
	HoursPlayed    *int
	PersonalRating *int
}

func (p LibraryPatch) validate() error {
	if p.Status != nil && !p.Status.Valid() {
		return invalid("Invalid library status")
	}
	if p.HoursPlayed != nil && *p.HoursPlayed < 0 {
		return invalid("Hours played cannot be negative")
	}
	if p.PersonalRating != nil && (*p.PersonalRating < 1 || *p.PersonalRating > 10) {
		return invalid("Personal rating must be between 1 and 10")
	}
	return nil
}

// UpdateLibraryEntry applies patch to one of the user's entries. Moving an entry
// into completed logs a game_completed activity for the entry's game.
func (e *Engine) UpdateLibraryEntry(ctx context.Context, userID, entryID uint, patch LibraryPatch) (*models.UserLibrary, error) {
	if err := patch.validate(); err != nil {
		return nil, e.fail("update_library_entry", err)
	}

	var entry models.UserLibrary
	err := e.transaction(ctx, func(tx *gorm.DB) error {
		if err := ownedLibraryEntry(tx, userID, entryID, &entry); err != nil {
			return err
		}

		updates := map[string]any{}
		if patch.Status != nil {
			updates["status"] = *patch.Status
		}
		if patch.IsFavorite != nil {
			updates["is_favorite"] = *patch.IsFavorite
		}
		if patch.HoursPlayed != nil {
			updates["hours_played"] = *patch.HoursPlayed
		}
		if patch.PersonalRating != nil {
			updates["personal_rating"] = *patch.PersonalRating
		}
		if len(updates) == 0 {
			return nil
		}

		completing := patch.Status != nil && *patch.Status == models.StatusCompleted && entry.Status != models.StatusCompleted
		if err := tx.Model(&entry).Updates(updates).Error; err != nil {
			return err
		}
		if completing {
			if err := appendActivity(tx, userID, models.ActivityGameCompleted, entry.GameID); err != nil {
				return err
			}
		}
		return tx.First(&entry, entryID).Error
	})
	if err != nil {
		return nil, e.fail("update_library_entry", err)
	}
	return &entry, nil
}

// RemoveFromLibrary deletes one of the user's entries.
func (e *Engine) RemoveFromLibrary(ctx context.Context, userID, entryID uint) error {
	err := e.transaction(ctx, func(tx *gorm.DB) error {
		var entry models.UserLibrary
		if err := ownedLibraryEntry(tx, userID, entryID, &entry); err != nil {
			return err
		}
		return tx.Delete(&entry).Error
	})
	if err != nil {
		return e.fail("remove_from_library", err)
	}
	return nil
}

func ownedLibraryEntry(tx *gorm.DB, userID, entryID uint, entry *models.UserLibrary) error {
	err := tx.First(entry, entryID).Error
	if database.IsNotFound(err) {
		return notFound("Library entry not found")
	}
	if err != nil {
		return err
	}
	if entry.UserID != userID {
		return forbidden("You can only change your own library")
	}
	return nil
}
