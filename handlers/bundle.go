package handlers

import "github.com/gin-gonic/gin"

// HandlerBundle aggregates all endpoint handlers for route registration.
type HandlerBundle struct {
	// Chat endpoints.
	CreateSessionHandler gin.HandlerFunc
	MessageHandler       gin.HandlerFunc
	MediaMessageHandler  gin.HandlerFunc
	VoiceMessageHandler  gin.HandlerFunc
	StartOrderHandler    gin.HandlerFunc
	ConfirmOrderHandler  gin.HandlerFunc
	ResetSessionHandler  gin.HandlerFunc
	EnhanceImageHandler  gin.HandlerFunc
}
