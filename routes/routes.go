package routes

import (
	"net/http"
	"time"

	"cakebox/handlers"
	"cakebox/middleware"
	"cakebox/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterChatRoutes registers the chat widget endpoints.
func RegisterChatRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/chat")
	{
		// Session creation is the only unauthenticated endpoint.
		api.POST("/session", hb.CreateSessionHandler)

		// Everything else requires a widget session token.
		api.Use(middleware.SessionAuthMiddleware())
		api.POST("/message", hb.MessageHandler)
		api.POST("/message/media", hb.MediaMessageHandler)
		api.POST("/message/voice", hb.VoiceMessageHandler)
		api.POST("/order", hb.StartOrderHandler)
		api.POST("/order/confirm", hb.ConfirmOrderHandler)
		api.POST("/session/reset", hb.ResetSessionHandler)
		api.POST("/image/enhance", hb.EnhanceImageHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Hi, I'm the TheCakeBoxLady chat service",
			"health":  utils.GetHealthStatus(),
		})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	// Setup global middleware (e.g., CORS) here.
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterChatRoutes(r, hb)
	RegisterHealthRoute(r)
}
