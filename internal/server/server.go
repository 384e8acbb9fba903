package server

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wind-smp/market-backend/internal/cache"
	"github.com/wind-smp/market-backend/internal/config"
	"github.com/wind-smp/market-backend/internal/handler"
	appmw "github.com/wind-smp/market-backend/internal/middleware"
	"github.com/wind-smp/market-backend/internal/repository"
	"github.com/wind-smp/market-backend/internal/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Server struct {
	e *echo.Echo
}

type bodyValidator struct {
	validate *validator.Validate
}

func (v *bodyValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

func New(cfg *config.Config, log *zap.Logger, db *gorm.DB, listCache *cache.RequestListCache) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &bodyValidator{validate: validator.New()}
	e.Use(middleware.Recover())
	e.Use(appmw.RequestLogger(log))
	e.Use(appmw.Metrics())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{cfg.FrontendBaseURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	listingRepo := repository.NewListingRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	reviewRepo := repository.NewReviewRepository(db)

	authSvc := service.NewAuthService(userRepo, sessionRepo, cfg)
	listingSvc := service.NewListingService(listingRepo)
	requestSvc := service.NewRequestService(requestRepo, listingRepo)
	reviewSvc := service.NewReviewService(reviewRepo, userRepo)
	profileSvc := service.NewProfileService(userRepo, requestRepo)
	adminSvc := service.NewAdminService(userRepo, sessionRepo, cfg)

	authHandler := handler.NewAuthHandler(authSvc, cfg)
	listingHandler := handler.NewListingHandler(listingSvc)
	requestHandler := handler.NewRequestHandler(requestSvc, listCache)
	reviewHandler := handler.NewReviewHandler(reviewSvc)
	profileHandler := handler.NewProfileHandler(profileSvc)
	adminHandler := handler.NewAdminHandler(adminSvc)

	authMw := appmw.NewAuthMiddleware(authSvc, cfg.SessionCookieName)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"ok": "true"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")

	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/logout", authHandler.Logout)
	api.GET("/auth/me", authHandler.Me, authMw.OptionalAuth)
	api.GET("/auth/discord", authHandler.DiscordRedirect)
	api.GET("/auth/discord/callback", authHandler.DiscordCallback)

	api.GET("/requests", requestHandler.List)
	api.POST("/requests", requestHandler.Create, authMw.RequireAuth)
	api.GET("/requests/:id", requestHandler.Get)
	api.POST("/requests/:id/claim", requestHandler.Claim, authMw.RequireAuth)
	api.POST("/requests/:id/release", requestHandler.Release, authMw.RequireAuth)
	api.POST("/requests/:id/mark-delivered", requestHandler.MarkDelivered, authMw.RequireAuth)
	api.POST("/requests/:id/complete", requestHandler.Complete, authMw.RequireAuth)
	api.POST("/requests/:id/dispute", requestHandler.Dispute, authMw.RequireAuth)
	api.POST("/requests/:id/resolve", requestHandler.Resolve, authMw.RequireAuth, authMw.RequireAdmin)
	api.POST("/requests/:id/cancel", requestHandler.Cancel, authMw.RequireAuth)

	api.GET("/me/requests", requestHandler.ListMine, authMw.RequireAuth)
	api.GET("/me/claims", requestHandler.ListClaims, authMw.RequireAuth)
	api.GET("/me/incoming", requestHandler.ListIncoming, authMw.RequireAuth)

	api.GET("/listings", listingHandler.List)
	api.POST("/listings", listingHandler.Create, authMw.RequireAuth)
	api.GET("/listings/:id", listingHandler.Get)
	api.PUT("/listings/:id", listingHandler.Update, authMw.RequireAuth)
	api.DELETE("/listings/:id", listingHandler.Archive, authMw.RequireAuth)

	api.GET("/profiles/me", profileHandler.Me, authMw.RequireAuth)
	api.PUT("/profiles/me", profileHandler.UpdateBio, authMw.RequireAuth)
	api.GET("/profiles/:username", profileHandler.Get)
	api.GET("/profiles/:username/reviews", reviewHandler.List)
	api.POST("/profiles/:username/reviews", reviewHandler.Upsert, authMw.RequireAuth)

	api.GET("/admin/disputes", requestHandler.ListDisputes, authMw.RequireAuth, authMw.RequireAdmin)
	api.POST("/admin/users/:username/ban", adminHandler.SetBan, authMw.RequireAuth, authMw.RequireAdmin)

	return &Server{e: e}
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

// Echo exposes the underlying router for tests.
func (s *Server) Echo() *echo.Echo {
	return s.e
}
