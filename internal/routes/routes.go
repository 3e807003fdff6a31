package routes

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/minhwang72/monsil-wedding/internal/cache"
	"github.com/minhwang72/monsil-wedding/internal/config"
	"github.com/minhwang72/monsil-wedding/internal/handlers"
	"github.com/minhwang72/monsil-wedding/internal/middleware"
	"github.com/minhwang72/monsil-wedding/internal/services"
	"github.com/minhwang72/monsil-wedding/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// App is the wired HTTP surface plus the background pieces main needs to
// run and stop.
type App struct {
	Router *gin.Engine
	Sweep  *services.SweepService

	cache   *cache.Cache
	limiter *middleware.RateLimiter
}

func (a *App) Close() {
	a.cache.Close()
	a.limiter.Close()
}

func Setup(db *gorm.DB, cfg *config.Config) (*App, error) {
	store, err := services.NewFileStore(cfg.File.UploadPath)
	if err != nil {
		return nil, err
	}

	responseCache := cache.New(cfg.Cache.TTL, cfg.Cache.TTL)
	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)

	queryTimeout := cfg.Database.QueryTimeout
	galleryService := services.NewGalleryService(db, store, queryTimeout)
	imageService := services.NewImageService(store, services.ImageOptions{
		MaxSize:      cfg.File.MaxUploadSize,
		MaxDimension: cfg.File.MaxDimension,
		Quality:      cfg.File.JPEGQuality,
	})
	guestbookService := services.NewGuestbookService(db, queryTimeout)
	contactService := services.NewContactService(db, queryTimeout)
	authService := services.NewAuthService(db, queryTimeout)
	sweepService := services.NewSweepService(galleryService, store, cfg.Sweep.GracePeriod,
		cfg.IsAllowedExtension, "images")

	galleryHandler := handlers.NewGalleryHandler(galleryService, responseCache)
	guestbookHandler := handlers.NewGuestbookHandler(guestbookService)
	contactHandler := handlers.NewContactHandler(contactService, responseCache)
	authHandler := handlers.NewAuthHandler(authService, cfg)
	fileHandler := handlers.NewFileHandler(imageService, galleryService, store, responseCache, cfg)
	adminHandler := handlers.NewAdminHandler(sweepService)
	healthHandler := handlers.NewHealthHandler(db)

	router := gin.New()
	router.MaxMultipartMemory = 32 << 20
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	router.Use(middleware.LoggerMiddleware())
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.CORS))
	router.Use(sessions.Sessions(cfg.Session.Name, newSessionStore(cfg.Session)))

	if cfg.Frontend.DistDir != "" {
		router.Use(static.Serve("/", static.LocalFile(cfg.Frontend.DistDir, false)))
	}

	var cached gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if cfg.Cache.Enabled {
		cached = middleware.CacheMiddleware(responseCache)
	}
	limited := middleware.RateLimitMiddleware(limiter)
	adminOnly := middleware.AdminRequired(cfg)

	api := router.Group("/api")
	{
		api.GET("/health", healthHandler.Health)
		api.GET("/uploads/*path", fileHandler.ServeUpload)

		gallery := api.Group("/gallery")
		{
			gallery.GET("", cached, galleryHandler.GetGallery)
			gallery.POST("", adminOnly, galleryHandler.CreateImage)
			gallery.PUT("/reorder", adminOnly, galleryHandler.Reorder)
			gallery.DELETE("", adminOnly, galleryHandler.DeleteImage)
			gallery.DELETE("/:id", adminOnly, galleryHandler.DeleteImage)
		}

		guestbook := api.Group("/guestbook")
		{
			guestbook.GET("", guestbookHandler.GetEntries)
			guestbook.POST("", limited, guestbookHandler.CreateEntry)
			guestbook.DELETE("/:id", limited, middleware.OptionalAdmin(cfg), guestbookHandler.DeleteEntry)
		}

		contacts := api.Group("/contacts")
		{
			contacts.GET("", cached, contactHandler.GetContacts)
			contacts.POST("", adminOnly, contactHandler.SaveContact)
			contacts.DELETE("/:id", adminOnly, contactHandler.DeleteContact)
		}

		admin := api.Group("/admin")
		{
			admin.POST("/login", limited, authHandler.Login)
			admin.POST("/logout", authHandler.Logout)
			admin.GET("/me", adminOnly, authHandler.GetMe)
			admin.POST("/upload", adminOnly, fileHandler.UploadGalleryImage)
			admin.POST("/sweep", adminOnly, adminHandler.SweepOrphans)
		}

		api.POST("/upload/image", adminOnly, fileHandler.UploadImage)
	}

	router.NoRoute(notFound(cfg.Frontend.DistDir))

	return &App{
		Router:  router,
		Sweep:   sweepService,
		cache:   responseCache,
		limiter: limiter,
	}, nil
}

func newSessionStore(cfg config.SessionConfig) sessions.Store {
	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.MaxAge,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return store
}

// notFound answers unknown API paths with the JSON envelope and hands every
// other path to the single page app, when one is configured.
func notFound(distDir string) gin.HandlerFunc {
	index := filepath.Join(distDir, "index.html")
	return func(c *gin.Context) {
		if distDir == "" || strings.HasPrefix(c.Request.URL.Path, "/api/") || c.Request.Method != http.MethodGet {
			utils.NotFound(c, "route not found")
			return
		}
		c.Header("Cache-Control", "no-cache")
		c.File(index)
	}
}
