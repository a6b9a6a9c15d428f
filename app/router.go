// Package app wires the services to the HTTP routes
package app

import (
	"context"
	"fmt"
	"time"

	"startupconnect/api/app/admin"
	"startupconnect/api/app/auth"
	"startupconnect/api/app/campaign"
	"startupconnect/api/app/mentorship"
	"startupconnect/api/app/notification"
	"startupconnect/api/app/pitch"
	"startupconnect/api/app/root"
	"startupconnect/api/app/verification"
	"startupconnect/api/aws"
	"startupconnect/api/db"
	"startupconnect/api/internal"
	"startupconnect/api/internal/model"
	"startupconnect/api/internal/service"
	"startupconnect/api/pkg/middleware"
	"startupconnect/api/pkg/security"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/jellydator/ttlcache/v2"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

var store = persist.NewMemoryStore(time.Minute)

// NewRouter builds every dependency from the loaded config. The returned
// cleanup function flushes pending notifications and stops background jobs.
func NewRouter(ctx context.Context) (*gin.Engine, func(), error) {
	makeLogger()

	gdb, err := db.New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database, %w", err)
	}

	storage, err := newStorage(ctx)
	if err != nil {
		return nil, nil, err
	}

	notifier := service.NewNotifier(gdb, nil)
	dispatcher := service.NewDispatcher(notifier, viper.GetInt("notification.workers"), viper.GetInt("notification.buffer"))
	dispatcher.Start()

	argon := security.NewArgon2id()

	cooldown := ttlcache.NewCache()
	cooldown.SetTTL(viper.GetDuration("verification.resend_cooldown"))
	cooldown.SkipTTLExtensionOnHit(true)

	d := &internal.Deps{
		DB:             gdb,
		Argon:          argon,
		Storage:        storage,
		Accounts:       service.NewAccounts(gdb, argon, nil),
		Verification:   service.NewVerification(gdb, storage, service.WithDispatcher(dispatcher)),
		Notifier:       notifier,
		Dispatcher:     dispatcher,
		Mailer:         service.NewMailer(),
		ResendCooldown: cooldown,
	}

	// Expired tokens pile up slowly, a daily sweep is plenty
	cleaner, err := service.ScheduleTokenCleanup(viper.GetString("verification.cleanup_schedule"), gdb)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to schedule token cleanup, %w", err)
	}

	rateLimit := viper.GetInt("security.rate_limit")
	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: rateLimit,
		Burst:             rateLimit * 2,
	})

	router := NewEngine(d, limiter.Handler())

	cleanup := func() {
		<-cleaner.Stop().Done()
		limiter.Stop()
		dispatcher.Close()
		cooldown.Close()
		zap.L().Sync()
	}

	return router, cleanup, nil
}

func newStorage(ctx context.Context) (service.Storage, error) {
	if viper.GetString("storage.type") == "s3" {
		s3, err := aws.NewS3(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 client, %w", err)
		}
		return service.NewS3Storage(s3), nil
	}

	local, err := service.NewLocalStorage(viper.GetString("storage.local_path"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize local storage, %w", err)
	}
	return local, nil
}

// NewEngine returns the gin engine with the global middleware and every
// route mounted. apiMiddleware runs in front of every /api route.
func NewEngine(d *internal.Deps, apiMiddleware ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     viper.GetStringSlice("host.cors"),
			AllowMethods:     []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "TurnstileToken", middleware.RequestIDHeader},
			ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("user_id", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true
	router.MaxMultipartMemory = 5 << 20

	Mount(router.Group("/api", apiMiddleware...), d)
	return router
}

// Mount registers every endpoint on r
func Mount(r *gin.RouterGroup, d *internal.Deps) {
	jwt := middleware.NewJWTMiddleware(d.DB)
	turnstile := middleware.NewTurnstileMiddleware()
	small := middleware.BodySizeLimiter(1 << 20)
	maxUploadSize := viper.GetInt64("upload.max_size")

	admins := middleware.RequireRoles(model.RoleAdmin)
	submitters := middleware.RequireRoles(model.RoleEntrepreneur, model.RoleInvestor)
	entrepreneurs := middleware.RequireRoles(model.RoleEntrepreneur)
	mentors := middleware.RequireRoles(model.RoleMentor)

	// HEAD /api/heartbeat 		-> Used to check if the server is alive
	r.HEAD("/heartbeat", root.Heartbeat)
	r.GET("/heartbeat", root.Heartbeat)

	a := r.Group("/auth", small)
	{
		// POST /api/auth/register		-> Registers a new user and mails a verification link
		a.POST("/register", turnstile, func(c *gin.Context) { auth.Register(c, d) })

		// POST /api/auth/login		-> Logs in a user and returns a JWT token
		a.POST("/login", func(c *gin.Context) { auth.Login(c, d) })

		// POST /api/auth/verify-email	-> Consumes an email verification token
		a.POST("/verify-email", func(c *gin.Context) { auth.VerifyEmail(c, d) })

		// POST /api/auth/resend-verification	-> Mails a new verification link
		a.POST("/resend-verification", jwt, func(c *gin.Context) { auth.ResendVerification(c, d) })

		// GET /api/auth/me		-> Returns the logged in user
		a.GET("/me", jwt, auth.Me)
	}

	u := r.Group("/users", jwt, small)
	{
		// PATCH /api/users/me/profile	-> Replaces the profile of the logged in user
		u.PATCH("/me/profile", func(c *gin.Context) { auth.UpdateProfile(c, d) })
	}

	v := r.Group("/verification", jwt)
	{
		// GET /api/verification/status		-> Own status and the document under review
		v.GET("/status", func(c *gin.Context) { verification.Status(c, d) })

		// POST /api/verification/submit-domain	-> Claims a company domain
		v.POST("/submit-domain", submitters, small, func(c *gin.Context) { verification.SubmitDomain(c, d) })

		// POST /api/verification/upload-document	-> Uploads a business license or ID
		v.POST("/upload-document", submitters, middleware.BodySizeLimiter(maxUploadSize+(1<<20)), func(c *gin.Context) { verification.UploadDocument(c, d) })
	}

	adm := r.Group("/admin", jwt, admins, small)
	{
		// GET /api/admin/verification/pending		-> The review queue
		adm.GET("/verification/pending", func(c *gin.Context) { admin.PendingQueue(c, d) })

		// GET /api/admin/verification/:userId		-> A user and their submissions
		adm.GET("/verification/:userId", func(c *gin.Context) { admin.History(c, d) })

		// PATCH /api/admin/verification/:userId/decide	-> Accepts or rejects a pending user
		adm.PATCH("/verification/:userId/decide", func(c *gin.Context) { admin.Decide(c, d) })

		// GET /api/admin/documents/:id/file		-> Serves a stored verification document
		adm.GET("/documents/:id/file", func(c *gin.Context) { admin.DocumentFile(c, d) })

		// PATCH /api/admin/users/:userId/verification	-> Sets a status directly
		adm.PATCH("/users/:userId/verification", func(c *gin.Context) { admin.SetVerification(c, d) })

		// PATCH /api/admin/users/:userId/duplicate	-> Flags or clears a duplicate account
		adm.PATCH("/users/:userId/duplicate", func(c *gin.Context) { admin.SetDuplicate(c, d) })

		// PATCH /api/admin/users/:userId/status	-> Activates or deactivates an account
		adm.PATCH("/users/:userId/status", func(c *gin.Context) { admin.SetStatus(c, d) })
	}

	n := r.Group("/notifications", jwt)
	{
		// GET /api/notifications		-> Newest notifications and the unread count
		n.GET("", func(c *gin.Context) { notification.List(c, d) })

		// PATCH /api/notifications/mark-all-read	-> Marks every notification as read
		n.PATCH("/mark-all-read", func(c *gin.Context) { notification.MarkAllRead(c, d) })

		// PATCH /api/notifications/:id/read	-> Marks one notification as read
		n.PATCH("/:id/read", func(c *gin.Context) { notification.MarkRead(c, d) })
	}

	cp := r.Group("/campaigns", small)
	{
		// GET /api/campaigns		-> Active campaigns
		cp.GET("", cacheFor(30), func(c *gin.Context) { campaign.List(c, d) })

		// POST /api/campaigns		-> Opens a campaign and notifies investors and mentors
		cp.POST("", jwt, entrepreneurs, func(c *gin.Context) { campaign.Create(c, d) })
	}

	// POST /api/pitches		-> Pitches an investor
	r.POST("/pitches", jwt, entrepreneurs, small, func(c *gin.Context) { pitch.Create(c, d) })

	m := r.Group("/mentorship/requests", jwt, small)
	{
		// POST /api/mentorship/requests		-> Asks a mentor for mentorship
		m.POST("", entrepreneurs, func(c *gin.Context) { mentorship.Request(c, d) })

		// PATCH /api/mentorship/requests/:id	-> Mentor accepts or rejects a request
		m.PATCH("/:id", mentors, func(c *gin.Context) { mentorship.Answer(c, d) })
	}
}

func makeLogger() {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	if lvl, err := zapcore.ParseLevel(viper.GetString("app.log_level")); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	cfg.DisableStacktrace = true

	log, _ := cfg.Build()
	zap.ReplaceGlobals(log)
}

func cacheFor(sec int) gin.HandlerFunc {
	return cache.CacheByRequestURI(store, time.Second*time.Duration(sec))
}
