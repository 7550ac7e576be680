package handler

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the health endpoints on r and the API under /api/v1.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/ping", h.Ping)
	r.GET("/healthz", h.Healthz)

	optional := h.auth.OptionalAuthMiddleware()
	required := h.auth.AuthMiddleware()

	apiV1 := r.Group("/api/v1")
	{
		authRoutes := apiV1.Group("/auth")
		{
			authRoutes.POST("/register", h.Register)
			authRoutes.POST("/login", h.Login)
			authRoutes.GET("/me", optional, h.Me)
			authRoutes.POST("/logout", required, h.Logout)
		}

		userRoutes := apiV1.Group("/users")
		{
			userRoutes.GET("", optional, h.SearchUsers)
			userRoutes.PUT("/me", required, h.UpdateMe)
			userRoutes.GET("/:id", optional, h.GetUserByID)
			userRoutes.GET("/:id/followers", optional, h.GetFollowers)
			userRoutes.GET("/:id/following", optional, h.GetFollowing)
			userRoutes.GET("/:id/achievements", optional, h.GetUserAchievements)
			userRoutes.GET("/:id/activities", optional, h.GetUserActivities)

			// Follow routes
			userRoutes.POST("/:id/follow", required, h.Follow)
			userRoutes.POST("/:id/unfollow", required, h.Unfollow)
			userRoutes.GET("/:id/is-following", required, h.IsFollowing)
		}

		gameRoutes := apiV1.Group("/games")
		{
			gameRoutes.GET("", optional, h.GetGames)
			gameRoutes.POST("", required, h.CreateGame)
			gameRoutes.GET("/:id", optional, h.GetGameByID)
			gameRoutes.GET("/:id/reviews", optional, h.GetGameReviews)
			gameRoutes.GET("/:id/achievements", optional, h.GetGameAchievements)
			gameRoutes.GET("/:id/guides", optional, h.GetGameGuides)
		}

		libraryRoutes := apiV1.Group("/library", required)
		{
			libraryRoutes.GET("", h.GetLibrary)
			libraryRoutes.POST("", h.AddToLibrary)
			libraryRoutes.PUT("/:id", h.UpdateLibraryEntry)
			libraryRoutes.DELETE("/:id", h.RemoveFromLibrary)
		}

		reviewRoutes := apiV1.Group("/reviews", required)
		{
			reviewRoutes.POST("", h.CreateReview)
			reviewRoutes.PUT("/:id", h.UpdateReview)
			reviewRoutes.DELETE("/:id", h.DeleteReview)
		}

		achievementRoutes := apiV1.Group("/achievements")
		{
			achievementRoutes.GET("/:id", optional, h.GetAchievement)
			achievementRoutes.POST("", required, h.CreateAchievement)
			achievementRoutes.POST("/:id/unlock", required, h.UnlockAchievement)
			achievementRoutes.POST("/:id/difficulty", required, h.VoteDifficulty)
			achievementRoutes.DELETE("/:id/difficulty", required, h.RemoveDifficultyVote)
			achievementRoutes.POST("/:id/images", required, h.AddAchievementImage)
		}

		guideRoutes := apiV1.Group("/guides")
		{
			guideRoutes.GET("/:id", optional, h.GetGuide)
			guideRoutes.POST("", required, h.CreateGuide)
			guideRoutes.PUT("/:id", required, h.UpdateGuide)
			guideRoutes.POST("/:id/markers", required, h.AddMarker)
		}
		apiV1.DELETE("/markers/:id", required, h.DeleteMarker)

		commentRoutes := apiV1.Group("/comments")
		{
			commentRoutes.GET("", optional, h.GetComments)
			commentRoutes.POST("", required, h.CreateComment)
			commentRoutes.PUT("/:id", required, h.UpdateComment)
			commentRoutes.DELETE("/:id", required, h.DeleteComment)
		}

		voteRoutes := apiV1.Group("/votes", required)
		{
			voteRoutes.POST("", h.CastVote)
			voteRoutes.DELETE("", h.RemoveVote)
			voteRoutes.GET("", h.GetMyVote)
		}

		apiV1.GET("/feed", required, h.GetFeed)

		apiV1.GET("/platforms", optional, h.GetPlatforms)
		apiV1.POST("/platforms", required, h.CreatePlatform)
		apiV1.GET("/tags", optional, h.GetTags)
		apiV1.POST("/tags", required, h.CreateTag)

		// Admin routes (protected by auth and admin check)
		adminRoutes := apiV1.Group("/admin", required, h.auth.AdminMiddleware())
		{
			tags := adminRoutes.Group("/tags")
			{
				tags.PUT("/:id", h.UpdateTag)
				tags.DELETE("/:id", h.DeleteTag)
			}

			adminGameRoutes := adminRoutes.Group("/games")
			{
				adminGameRoutes.PUT("/:id", h.UpdateGame)
				adminGameRoutes.DELETE("/:id", h.DeleteGame)
			}
		}
	}
}
