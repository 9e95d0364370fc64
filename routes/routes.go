package routes

import (
	"net/http"

	"quizboard/handlers"
	"quizboard/middleware"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, quizHandler *handlers.QuizHandler, metricsHandler http.Handler) {
	router.Use(middleware.RequestID())

	// Single dispatch endpoint; the method and body decide the operation.
	router.Any("/", quizHandler.Handle)
	router.Any("/api/quiz", quizHandler.Handle)

	// Event envelope for function-gateway deployments
	router.POST("/invoke", quizHandler.Invoke)

	if metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
