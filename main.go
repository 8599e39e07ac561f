// File: cakebox/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cakebox/config"
	"cakebox/database"
	orderRepo "cakebox/database/repository/order"
	"cakebox/handlers"
	"cakebox/middleware"
	"cakebox/routes"
	"cakebox/services/chat"
	"cakebox/services/gateway"
	"cakebox/services/notification"
	"cakebox/services/speech"
	"cakebox/services/storage"
	"cakebox/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitSessionCache()

	ctx := context.Background()

	geminiGateway, err := gateway.NewGeminiGateway(
		ctx,
		config.AppConfig.GeminiAPIKey,
		config.AppConfig.GeminiModel,
		config.AppConfig.GeminiImageModel,
		time.Duration(config.AppConfig.GatewayTimeoutMS)*time.Millisecond,
	)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize Gemini gateway: %v", err)
	}
	defer geminiGateway.Close()

	// Design image hosting is optional; without credentials the inline
	// bytes still reach the model, they just aren't linked in notifications.
	var attachmentStore storage.AttachmentStore
	if cloudStore, err := storage.NewCloudinaryStore(
		config.AppConfig.CloudinaryCloudName,
		config.AppConfig.CloudinaryAPIKey,
		config.AppConfig.CloudinaryAPISecret,
	); err != nil {
		logger.Sugar().Warnf("main: design image hosting disabled: %v", err)
	} else {
		attachmentStore = cloudStore
	}

	transcriber, err := speech.NewGoogleTranscriber(ctx, config.AppConfig.GoogleCredentialsFile)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize speech transcriber: %v", err)
	}
	defer transcriber.Close()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// repositories.
	ordersRepo := orderRepo.NewMongoOrderRepo()

	// services.
	sessionTTL := time.Duration(config.AppConfig.SessionTTLMin) * time.Minute
	sessionStore := chat.NewRedisSessionStore(utils.GetSessionCacheClient(), sessionTTL)

	notifier := notification.NewDefaultOrderNotifier(
		notification.LogMailer{},
		ordersRepo,
		config.AppConfig.OrderRecipient,
	)

	chatService := chat.NewDefaultChatService(sessionStore, geminiGateway, notifier)

	chatHandler := handlers.NewChatHandler(chatService, attachmentStore)
	voiceHandler := handlers.NewVoiceHandler(chatService, transcriber)
	enhanceHandler := handlers.NewEnhanceHandler(geminiGateway, attachmentStore)

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		CreateSessionHandler: chatHandler.CreateSessionHandler,
		MessageHandler:       chatHandler.MessageHandler,
		MediaMessageHandler:  chatHandler.MediaMessageHandler,
		VoiceMessageHandler:  voiceHandler.VoiceMessageHandler,
		StartOrderHandler:    chatHandler.StartOrderHandler,
		ConfirmOrderHandler:  chatHandler.ConfirmOrderHandler,
		ResetSessionHandler:  chatHandler.ResetSessionHandler,
		EnhanceImageHandler:  enhanceHandler.EnhanceImageHandler,
	}

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlerBundle)

	utils.StartHealthMonitor(utils.GetSessionCacheClient(), database.MongoClient)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
