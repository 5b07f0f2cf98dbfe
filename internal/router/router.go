package router

import (
	"time"

	"amoria/config"
	"amoria/internal/handler"
	"amoria/internal/middleware"
	"amoria/internal/repository"
	"amoria/internal/service"
	"amoria/internal/ws"
	"amoria/pkg/llm"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, completer *llm.Client) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	charRepo := repository.NewCharacterRepository(db)
	convRepo := repository.NewConversationRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	creditsHub := ws.NewHub()
	convHub := ws.NewConversationHub()

	// Services
	authSvc := service.NewAuthService(cfg, userRepo, ledgerRepo)
	generationSvc := service.NewGenerationService(&cfg.LLM, convRepo, charRepo, completer, convHub)
	chatSvc := service.NewChatService(db, convRepo, charRepo, ledgerRepo, generationSvc, convHub, creditsHub)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	googleOAuthHandler := handler.NewGoogleOAuthHandler(cfg, authSvc)
	characterHandler := handler.NewCharacterHandler(charRepo)
	chatHandler := handler.NewChatHandler(chatSvc)
	creditsHandler := handler.NewCreditsHandler(ledgerRepo)
	paymentWebhookHandler := handler.NewPaymentWebhookHandler(cfg, db, paymentRepo, ledgerRepo, creditsHub)

	authMw := middleware.AuthRequired(&cfg.JWT)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/google/token", googleOAuthHandler.Token)
		}

		api.GET("/characters", authMw, characterHandler.List)
		api.GET("/characters/:id", authMw, characterHandler.Get)
		api.POST("/characters/:id/like", authMw, characterHandler.Like)
		api.DELETE("/characters/:id/like", authMw, characterHandler.Unlike)
		api.POST("/characters/:id/favorite", authMw, characterHandler.Favorite)
		api.DELETE("/characters/:id/favorite", authMw, characterHandler.Unfavorite)

		api.POST("/conversations", authMw, chatHandler.CreateConversation)
		api.GET("/conversations", authMw, chatHandler.ListConversations)
		api.GET("/conversations/:id/messages", authMw, chatHandler.GetMessages)
		api.POST("/conversations/:id/messages", authMw, chatHandler.SendMessage)
		api.DELETE("/conversations/:id", authMw, chatHandler.DeleteConversation)
		api.POST("/conversations/:id/reset", authMw, chatHandler.ResetConversation)

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("/credits", creditsHandler.GetBalance)
			me.GET("/credits/transactions", creditsHandler.GetTransactions)
			me.GET("/favorites", characterHandler.ListFavorites)
		}

		api.POST("/webhooks/payment", paymentWebhookHandler.Handle)
	}

	r.GET("/ws/chat", handler.UpgradeChatWS(&cfg.JWT, convHub, convRepo))
	r.GET("/ws/credits", handler.UpgradeCreditsWS(&cfg.JWT, creditsHub, ledgerRepo))

	return r
}
