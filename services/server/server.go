package main

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/mgiraldo-dev/go-peer-recognition/shared/account"
	"github.com/mgiraldo-dev/go-peer-recognition/shared/config"
	"github.com/mgiraldo-dev/go-peer-recognition/shared/events"
	"github.com/mgiraldo-dev/go-peer-recognition/shared/middleware"
	"github.com/mgiraldo-dev/go-peer-recognition/shared/oauth"
	"github.com/mgiraldo-dev/go-peer-recognition/shared/onboarding"
	"github.com/mgiraldo-dev/go-peer-recognition/shared/utils"
)

// Server bundles the handler dependencies.
type Server struct {
	db       *gorm.DB
	cfg      *config.Config
	accounts *account.Service
	assigner *onboarding.Assigner
	provider oauth.Provider
	producer *events.Producer
	auth     *middleware.AuthMiddleware
}

// NewServer wires a server from its collaborators.
func NewServer(db *gorm.DB, cfg *config.Config, accounts *account.Service,
	assigner *onboarding.Assigner, provider oauth.Provider, producer *events.Producer) *Server {
	return &Server{
		db:       db,
		cfg:      cfg,
		accounts: accounts,
		assigner: assigner,
		provider: provider,
		producer: producer,
		auth:     middleware.NewAuthMiddleware(db, cfg.JWTSecret),
	}
}

// Router builds the HTTP surface.
func (s *Server) Router() *gin.Engine {
	router := gin.Default()

	router.GET("/health", func(c *gin.Context) {
		utils.OKResponse(c, "Service is healthy", nil)
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Social login: intent in, tokens out.
	social := router.Group("/social/github")
	{
		social.GET("/login", s.handleSocialLogin())
		social.GET("/callback", s.handleSocialCallback())
	}

	api := router.Group("/api")
	{
		api.POST("/register", s.handleRegister())
		api.POST("/verify-email", s.handleVerifyEmail())
		api.POST("/token", s.handleLogin())
		api.POST("/token/refresh", s.handleRefreshToken())
		api.POST("/password-reset", s.handlePasswordResetRequest())
		api.POST("/password-reset/confirm", s.handlePasswordResetConfirm())

		authed := api.Group("")
		authed.Use(s.auth.RequireAuth())
		{
			authed.GET("/profile", s.handleGetProfile())
			authed.PUT("/profile", s.handleUpdateProfile())

			authed.GET("/companies", s.handleListCompanies())
			authed.GET("/companies/:id", s.handleGetCompany())
			authed.GET("/users", s.handleListUsers())
			authed.PUT("/users/:id/role", s.auth.RequireElevated(), s.handleUpdateUserRole())

			authed.GET("/competitions", s.handleListCompetitions())
			authed.POST("/competitions", s.handleCreateCompetition())
			authed.GET("/competitions/:id", s.handleGetCompetition())
			authed.PUT("/competitions/:id", s.handleUpdateCompetition())
			authed.DELETE("/competitions/:id", s.handleDeleteCompetition())

			authed.GET("/votes", s.handleListVotes())
			authed.POST("/votes", s.handleCreateVote())
			authed.GET("/votes/:id", s.handleGetVote())
			authed.PUT("/votes/:id", s.handleUpdateVote())
			authed.DELETE("/votes/:id", s.handleDeleteVote())
			authed.POST("/votes/:id/finalize", s.handleFinalizeVote())
		}
	}

	return router
}
