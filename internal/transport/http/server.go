package http

import (
	"github.com/gin-gonic/gin"

	"ragdash/internal/bootstrap"
	"ragdash/internal/metrics"
	"ragdash/internal/transport/http/handler"
	"ragdash/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	if app.Config.App.GinMode != "" {
		gin.SetMode(app.Config.App.GinMode)
	}
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.MaxMultipartMemory = app.Config.Upload.MaxSizeBytes

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	documentHandler := handler.NewDocumentHandler(app.Catalog, app.Config.Upload.MaxSizeBytes)
	chatHandler := handler.NewChatHandler(app.Sessions)
	conversationHandler := handler.NewConversationHandler(app.Conversation)
	notificationHandler := handler.NewNotificationHandler(app.Notifications)
	analyticsHandler := handler.NewAnalyticsHandler(app.Analytics)
	authHandler := handler.NewAuthHandler(app.Tokens)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.AdoptBearer(app.Tokens))

	authGroup := v1.Group("/auth")
	authGroup.PUT("/token", authHandler.SetToken)
	authGroup.DELETE("/token", authHandler.ClearToken)
	authGroup.GET("/me", authHandler.Me)

	docGroup := v1.Group("/documents")
	docGroup.GET("", documentHandler.List)
	docGroup.POST("", documentHandler.Upload)
	docGroup.GET("/:id", documentHandler.Get)
	docGroup.DELETE("/:id", documentHandler.Delete)

	chatGroup := v1.Group("/chats")
	chatGroup.GET("", chatHandler.List)
	chatGroup.POST("", chatHandler.Create)
	chatGroup.DELETE("/:id", chatHandler.Delete)
	chatGroup.POST("/:id/select", chatHandler.Select)

	convGroup := v1.Group("/conversation")
	convGroup.GET("", conversationHandler.Get)
	convGroup.POST("/messages", conversationHandler.Ask)
	convGroup.DELETE("", conversationHandler.Clear)

	v1.GET("/uploads", documentHandler.Uploads)
	v1.GET("/notifications", notificationHandler.List)
	v1.GET("/analytics/overview", analyticsHandler.Overview)

	return router
}
