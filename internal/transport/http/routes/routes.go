package routes

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Josselin-menguy/ldap-user-manager/internal/infra/config"
	"github.com/Josselin-menguy/ldap-user-manager/internal/transport/http/handlers"
	"github.com/Josselin-menguy/ldap-user-manager/internal/transport/http/middleware"
	"github.com/Josselin-menguy/ldap-user-manager/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth     *usecase.AuthService
	Accounts *usecase.AccountService
	Deletion *usecase.DeletionService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.LoginRateLimiter
	Metrics     *middleware.HTTPMetrics
	Services    ServiceSet
}

// Register configures the Gin engine with routes and middleware. Routes are
// left unprefixed for compatibility with existing frontend clients.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.CustomRecovery(func(c *gin.Context, _ any) {
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			handlers.NewErrorResponse(c, "internal server error"))
	}))
	r.Use(middleware.Correlate())
	r.Use(middleware.AccessLog(deps.Logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	sessionMiddleware := middleware.RequireSession(deps.Services.Auth, deps.Config.Session.CookieName)

	healthHandler := handlers.NewHealthHandler()
	r.GET("/healthz", healthHandler.Status)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authHandler := handlers.NewAuthHandler(deps.Services.Auth, deps.Config.Session.CookieName, deps.Config.Session.CookieSecure)

	loginHandlers := append(buildLoginMiddlewares(deps), authHandler.Login)
	r.POST("/login", loginHandlers...)
	r.POST("/logout", authHandler.Logout)
	r.GET("/check_auth", sessionMiddleware, authHandler.CheckAuth)

	searchHandler := handlers.NewSearchHandler(deps.Services.Accounts)
	r.GET("/search_user", sessionMiddleware, searchHandler.SearchUser)
	r.GET("/search_manager", sessionMiddleware, searchHandler.SearchManager)
	r.GET("/search_group", sessionMiddleware, searchHandler.SearchGroup)

	accountHandler := handlers.NewAccountHandler(deps.Services.Accounts, deps.Services.Deletion)
	r.POST("/create_user", sessionMiddleware, accountHandler.CreateUser)
	r.POST("/delete_user", sessionMiddleware, accountHandler.DeleteUser)
	r.POST("/apply_changes", sessionMiddleware, accountHandler.ApplyChanges)

	registerNoRoute(r, deps.Config.App.StaticDir)

	return r
}

// registerNoRoute serves frontend assets from the static directory when they
// exist, and answers JSON 404 otherwise.
func registerNoRoute(r *gin.Engine, staticDir string) {
	r.NoRoute(func(c *gin.Context) {
		if staticDir != "" && c.Request.Method == http.MethodGet {
			requested := filepath.Join(staticDir, filepath.Clean("/"+c.Request.URL.Path))
			if info, err := os.Stat(requested); err == nil && !info.IsDir() {
				c.File(requested)
				return
			}
		}

		c.JSON(http.StatusNotFound, handlers.NewErrorResponse(c, "this route does not exist"))
	})
}

func buildLoginMiddlewares(deps Dependencies) []gin.HandlerFunc {
	if deps.RateLimiter == nil {
		return nil
	}
	return []gin.HandlerFunc{deps.RateLimiter.Middleware()}
}
