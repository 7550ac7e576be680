package models

// All lists every model migrated at startup.
func All() []any {
	return []any{
		&User{},
		&Follower{},
		&Platform{},
		&Tag{},
		&Game{},
		&UserLibrary{},
		&Review{},
		&Achievement{},
		&UserAchievement{},
		&DifficultyVote{},
		&AchievementImage{},
		&Guide{},
		&MapMarker{},
		&Comment{},
		&Vote{},
		&Activity{},
	}
}
