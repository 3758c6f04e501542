package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"docuchat/internal/ai"
	appsvc "docuchat/internal/app"
	"docuchat/internal/bootstrap"
	"docuchat/internal/cache"
	"docuchat/internal/platform/rabbitmq"
	"docuchat/internal/repository"
	"docuchat/internal/transport/http/handler"
	"docuchat/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.MySQL)
	roleRepo := repository.NewRoleRepository(app.MySQL)
	conversationRepo := repository.NewConversationRepository(app.MySQL)
	messageRepo := repository.NewMessageRepository(app.MySQL)
	documentRepo := repository.NewDocumentRepository(app.MySQL)

	historyCache := cache.NewHistoryCache(
		app.Redis,
		time.Duration(app.Config.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(app.Config.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)
	publisher := rabbitmq.NewMessagePublisher(app.MQConn, app.Config.RabbitMQ.MessagePersistQueue)
	inference := ai.NewInferenceClient(
		app.Config.Inference.BaseURL,
		app.Config.Inference.Model,
		time.Duration(app.Config.Inference.TimeoutSeconds)*time.Second,
	)

	authService := appsvc.NewAuthService(
		userRepo,
		roleRepo,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
	)
	conversationService := appsvc.NewConversationService(
		conversationRepo,
		messageRepo,
		documentRepo,
		historyCache,
		app.Blobs,
		app.Logger,
	)
	statsService := appsvc.NewStatsService(userRepo, conversationRepo, messageRepo, documentRepo, roleRepo)

	sessionManager := appsvc.NewSessionManager(appsvc.SessionDeps{
		Conversations: conversationRepo,
		Messages:      messageRepo,
		Documents:     documentRepo,
		Publisher:     publisher,
		Cache:         historyCache,
		Inference:     inference,
		Blobs:         app.Blobs,
		Logger:        app.Logger.With(zap.String("component", "session")),
		Options: appsvc.SessionOptions{
			WelcomeMessage: app.Config.Chat.WelcomeMessage,
			AckDelay:       time.Duration(app.Config.Chat.AckDelayMS) * time.Millisecond,
			HistoryLimit:   app.Config.Chat.HistoryLimit,
			CacheControl:   app.Config.Storage.CacheControl,
		},
	})

	authHandler := handler.NewAuthHandler(authService)
	sessionHandler := handler.NewSessionHandler(sessionManager)
	conversationHandler := handler.NewConversationHandler(conversationService)
	statsHandler := handler.NewStatsHandler(statsService)

	v1 := router.Group("/api/v1")

	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", middleware.AuthJWT(app.Config.Auth.JWTSecret), authHandler.Me)

	sessionGroup := v1.Group("/session")
	sessionGroup.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	sessionGroup.GET("", sessionHandler.State)
	sessionGroup.DELETE("", sessionHandler.Close)
	sessionGroup.POST("/new", sessionHandler.New)
	sessionGroup.POST("/select", sessionHandler.Select)
	sessionGroup.POST("/messages", sessionHandler.SendMessage)
	sessionGroup.POST("/upload", sessionHandler.UploadFile)
	sessionGroup.POST("/url", sessionHandler.SubmitURL)

	conversationGroup := v1.Group("/conversations")
	conversationGroup.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	conversationGroup.GET("", conversationHandler.List)
	conversationGroup.DELETE("/:id", conversationHandler.Delete)

	documentGroup := v1.Group("/documents")
	documentGroup.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	documentGroup.GET("", conversationHandler.ListDocuments)

	adminGroup := v1.Group("/admin")
	adminGroup.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	adminGroup.GET("/stats", statsHandler.Overview)

	return router
}
