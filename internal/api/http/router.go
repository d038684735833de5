package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetupRouter(pollController *PollController, allowedOrigins []string, log *slog.Logger) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery(), RequestLogger(log))

	config := cors.DefaultConfig()
	config.AllowOrigins = allowedOrigins
	config.AllowCredentials = true
	config.AllowHeaders = []string{
		"Content-Type",
		"Origin",
		"Accept",
	}
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	router.Use(cors.New(config))

	router.NoMethod(func(ctx *gin.Context) {
		ctx.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})
	router.NoRoute(func(ctx *gin.Context) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if pollController != nil {
		polls := router.Group("/poll")
		polls.GET("", pollController.GetPoll)
		polls.POST("/create", pollController.CreatePoll)
		polls.POST("/vote", pollController.Vote)
		polls.POST("/close", pollController.ClosePoll)
		polls.GET("/results", pollController.Results)
		polls.POST("/timer/start", pollController.StartTimer)
		polls.GET("/timer", pollController.ReadTimer)
		polls.GET("/validate-room", pollController.ValidateRoom)
		polls.GET("/settings", pollController.Settings)
	}

	return router
}
