package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/cppla/miniblog/blog"
	"github.com/cppla/miniblog/config"
	"github.com/cppla/miniblog/controllers"
	"github.com/cppla/miniblog/middleware"
	"github.com/cppla/miniblog/utils"
	"github.com/cppla/miniblog/views"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(app *blog.App, renderer *views.Renderer) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(utils.Ginzap(accessLogger(cfg), time.RFC3339, true))
	r.Use(utils.RecoveryWithZap(utils.Logger, false))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		// credentials cannot be combined with a wildcard origin
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))
	r.Use(middleware.RequestMetrics())

	r.SetHTMLTemplate(renderer.Template())
	// two attachments plus the text fields
	r.MaxMultipartMemory = 2*app.MaxMediaBytes() + 1<<20

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok", "remote": app.Remote()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authController := controllers.NewAuthController(app)
	postController := controllers.NewPostController(app)
	prefsController := controllers.NewPrefsController(app)
	notificationController := controllers.NewNotificationController(app)
	authLimit := middleware.RateLimit(cfg.RateLimitPerMinute)

	site := r.Group("/", middleware.SessionLoader(app, true))
	site.GET("", postController.Index)
	site.GET("/login", authController.ShowLogin)
	site.POST("/login", authLimit, authController.SubmitLogin)
	site.GET("/signup", authController.ShowSignup)
	site.POST("/signup", authLimit, authController.SubmitSignup)
	site.POST("/logout", authController.SubmitLogout)

	site.POST("/posts", postController.SubmitPost)
	site.POST("/posts/clear", postController.SubmitClear)
	site.POST("/posts/:id/like", postController.SubmitLike)
	site.POST("/posts/:id/delete", postController.SubmitDelete)
	site.GET("/posts/:id/edit", middleware.LoginRequired(), postController.ShowEdit)
	site.POST("/posts/:id/edit", postController.SubmitEdit)
	site.POST("/posts/:id/comments", postController.SubmitComment)
	site.POST("/posts/:id/comments/:commentId/delete", postController.SubmitDeleteComment)

	site.POST("/prefs/theme", prefsController.SubmitTheme)
	site.POST("/prefs/draft", prefsController.SubmitDraft)

	account := site.Group("", middleware.LoginRequired())
	account.GET("/profile", authController.ShowProfile)
	account.POST("/profile", authController.SubmitProfile)
	account.POST("/profile/delete", authController.SubmitDeleteAccount)
	account.GET("/notifications", notificationController.Show)
	account.POST("/notifications/read", notificationController.SubmitRead)
	account.POST("/notifications/clear", notificationController.SubmitClear)

	api := r.Group("/api/v1", middleware.SessionLoader(app, true))

	authGroup := api.Group("/auth")
	authGroup.POST("/register", authLimit, authController.Register)
	authGroup.POST("/login", authLimit, authController.Login)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)
	authGroup.PATCH("/profile", middleware.AuthRequired(), authController.UpdateProfile)
	authGroup.DELETE("/account", middleware.AuthRequired(), authController.DeleteAccount)

	api.GET("/posts", postController.ListPosts)
	api.GET("/posts/:id", postController.GetPost)
	api.POST("/posts/:id/like", postController.LikePost)
	api.GET("/prefs", prefsController.GetPrefs)
	api.PUT("/prefs/theme", prefsController.SetTheme)
	api.PUT("/prefs/draft", prefsController.SaveDraft)
	api.DELETE("/prefs/draft", prefsController.ClearDraft)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired())
	protected.POST("/posts", postController.CreatePost)
	protected.DELETE("/posts", postController.ClearPosts)
	protected.PUT("/posts/:id", postController.UpdatePost)
	protected.DELETE("/posts/:id", postController.DeletePost)
	protected.POST("/posts/:id/comments", postController.CreateComment)
	protected.DELETE("/posts/:id/comments/:commentId", postController.DeleteComment)
	protected.GET("/users/me/posts", postController.ListMyPosts)
	protected.GET("/notifications", notificationController.List)
	protected.POST("/notifications/read", notificationController.MarkRead)
	protected.DELETE("/notifications", notificationController.Clear)

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
			return
		}
		ctx.String(http.StatusNotFound, "page not found")
	})

	return r
}

// accessLogger writes request logs to their own rolling file. GinPath "-"
// sends them to the application logger.
func accessLogger(cfg config.AppConfig) *zap.Logger {
	if cfg.GinPath == "" || cfg.GinPath == "-" {
		return utils.Logger
	}
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err != nil {
		utils.Sugar.Warnf("gin access log disabled: %v", err)
		return utils.Logger
	}
	return gl
}
