package router

import (
	"github.com/gin-gonic/gin"

	"github.com/identra/identra/internal/api/http/cookie"
	"github.com/identra/identra/internal/api/http/handler"
	"github.com/identra/identra/internal/api/http/middleware"
	"github.com/identra/identra/internal/logger"
	"github.com/identra/identra/internal/model"
	"github.com/identra/identra/internal/oauth"
	"github.com/identra/identra/internal/service"
)

// Router wires handlers and middleware into a gin engine.
type Router struct {
	authService    *service.Auth
	userService    *service.User
	tokenService   *service.TokenLifecycle
	tokenManager   model.TokenManager
	userStore      model.UserStore
	providers      *oauth.Registry
	cookies        *cookie.Manager
	contextManager model.ContextManager
	logger         *logger.Logger
}

// New creates a new Router instance.
func New(
	authService *service.Auth,
	userService *service.User,
	tokenService *service.TokenLifecycle,
	tokenManager model.TokenManager,
	userStore model.UserStore,
	providers *oauth.Registry,
	cookies *cookie.Manager,
	contextManager model.ContextManager,
	logger *logger.Logger,
) *Router {
	return &Router{
		authService:    authService,
		userService:    userService,
		tokenService:   tokenService,
		tokenManager:   tokenManager,
		userStore:      userStore,
		providers:      providers,
		cookies:        cookies,
		contextManager: contextManager,
		logger:         logger,
	}
}

// Register builds the gin engine with logging and authentication
// middleware and all routes.
func (r *Router) Register() *gin.Engine {
	logging := middleware.NewLogging(r.logger)
	authenticate := middleware.NewAuthenticate(r.tokenManager, r.userStore, r.contextManager, r.logger)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logging.Handle())
	engine.Use(authenticate.Handle())

	r.registerAuthRoutes(engine, authenticate)
	r.registerUserRoutes(engine, authenticate)

	return engine
}

func (r *Router) registerAuthRoutes(engine *gin.Engine, authenticate *middleware.Authenticate) {
	authHandler := handler.NewAuth(r.authService, r.tokenService, r.providers, r.cookies, r.contextManager, r.logger)

	auth := engine.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/oauth/:provider", authHandler.OAuthCallback)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", authHandler.Logout)
	auth.POST("/logout-all", authenticate.RequireAuth(), authHandler.LogoutAll)
}

func (r *Router) registerUserRoutes(engine *gin.Engine, authenticate *middleware.Authenticate) {
	userHandler := handler.NewUser(r.userService, r.contextManager, r.logger)

	users := engine.Group("/users", authenticate.RequireAuth())
	users.GET("/me", userHandler.Me)
	users.GET("", userHandler.List)
	users.GET("/:id", userHandler.GetByID)
	users.GET("/email/:email", userHandler.GetByEmail)
	users.PUT("/:id", userHandler.Update)
	users.DELETE("/:id", userHandler.Delete)
}
