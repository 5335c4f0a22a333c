package cmd

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	pubnub "github.com/pubnub/go"
	"github.com/redis/go-redis/v9"

	"ticket-marketplace/config"
	"ticket-marketplace/internal/handlers"
	"ticket-marketplace/internal/services"
	"ticket-marketplace/internal/store"
	_ "ticket-marketplace/migrations"
	"ticket-marketplace/monitoring"
	"ticket-marketplace/security"
	"ticket-marketplace/utils"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if !cfg.AdminEnabled() {
		slog.Warn("ADMIN_ID or ADMIN_PASSWORD_HASH not set, superadmin login disabled")
	}

	// Redis backs rate limiting only and may be absent
	var redisClient redis.Cmdable
	if cfg.RedisURL != "" {
		client, err := utils.NewRedisClient(cfg.RedisURL)
		if err != nil {
			slog.Warn("Redis unavailable, rate limiting disabled", "error", err)
		} else {
			defer client.Close()
			redisClient = client
		}
	}

	// Initialize PubNub
	var notifier services.Notifier = services.NopNotifier{}
	if cfg.PubNubPublishKey != "" {
		pnConfig := pubnub.NewConfig()
		pnConfig.PublishKey = cfg.PubNubPublishKey
		pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
		pnConfig.SecretKey = cfg.PubNubSecretKey
		notifier = services.NewPubNubNotifier(pubnub.NewPubNub(pnConfig))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	monitor := monitoring.NewMonitor()
	guard := services.NewStoreGuard(cfg.StoreTimeout)

	// Initialize stores
	eventStore := store.NewEventStore(app)
	orderStore := store.NewOrderStore(app)
	identityStore := store.NewIdentityStore(app)
	feedbackStore := store.NewFeedbackStore(app)

	// Initialize services
	accessService := services.NewAccessService(identityStore, guard, monitor, cfg)
	accountService := services.NewAccountService(identityStore, eventStore, accessService, guard)
	purchaseService := services.NewPurchaseService(eventStore, orderStore, notifier, guard, monitor)
	eventService := services.NewEventService(eventStore, orderStore, guard)
	analyticsService := services.NewAnalyticsService(eventStore, orderStore, guard)
	adminService := services.NewAdminService(identityStore, eventStore, feedbackStore, guard)
	feedbackService := services.NewFeedbackService(feedbackStore, guard)
	reconcileService := services.NewReconcileService(eventStore, orderStore, guard)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(accessService, accountService)
	accountHandler := handlers.NewAccountHandler(accountService, accessService)
	purchaseHandler := handlers.NewPurchaseHandler(purchaseService, accessService)
	eventHandler := handlers.NewEventHandler(eventService, analyticsService, accountService, accessService)
	adminHandler := handlers.NewAdminHandler(adminService, accessService)
	feedbackHandler := handlers.NewFeedbackHandler(feedbackService, accessService)
	healthHandler := handlers.NewHealthHandler(eventStore, redisClient)

	limiter := security.NewRateLimiter(redisClient, monitor, cfg.RateLimitWindow)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: cfg.IsDevelopment(),
	})

	app.RootCmd.AddCommand(NewHashPasswordCommand())
	app.RootCmd.AddCommand(NewReconcileCommand(reconcileService))

	// Setup graceful shutdown
	go handleShutdown(cancel)

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		go monitor.Run(ctx)
		if cfg.EnableMetrics {
			go func() {
				if err := monitoring.Serve(ctx, cfg.MetricsPort); err != nil {
					slog.Error("Metrics server stopped", "error", err)
				}
			}()
		}

		loginLimit := limiter.Limit("login", cfg.LoginRateLimit, security.ByIP)
		purchaseLimit := limiter.Limit("purchase", cfg.PurchaseRateLimit, handlers.IdentityKey(accessService))

		e.Router.BindFunc(handlers.RequestLogger)

		// Auth endpoints
		e.Router.POST("/api/v1/auth/login", authHandler.Login).BindFunc(loginLimit)
		e.Router.POST("/api/v1/auth/admin/login", authHandler.AdminLogin).BindFunc(loginLimit)
		e.Router.POST("/api/v1/auth/signup/user", authHandler.SignupUser)
		e.Router.POST("/api/v1/auth/signup/venue", authHandler.SignupVenue)
		e.Router.GET("/api/v1/auth/me", authHandler.Me)

		// Purchase endpoints
		e.Router.POST("/purchase", purchaseHandler.Purchase).BindFunc(purchaseLimit)
		e.Router.POST("/api/v1/purchase", purchaseHandler.Purchase).BindFunc(purchaseLimit)
		e.Router.GET("/users/{id}/orders", purchaseHandler.UserOrders)
		e.Router.GET("/api/v1/users/{id}/orders", purchaseHandler.UserOrders)

		// Event endpoints
		e.Router.GET("/api/v1/events", eventHandler.List)
		e.Router.POST("/api/v1/events", eventHandler.Create)
		e.Router.GET("/api/v1/events/{id}", eventHandler.Get)
		e.Router.PATCH("/api/v1/events/{id}", eventHandler.Update)
		e.Router.DELETE("/api/v1/events/{id}", eventHandler.Delete)
		e.Router.POST("/api/v1/events/{id}/image", eventHandler.UploadImage)
		e.Router.GET("/events/{id}/analytics", eventHandler.Analytics)
		e.Router.GET("/api/v1/events/{id}/analytics", eventHandler.Analytics)
		e.Router.GET("/api/v1/events/{id}/orders", eventHandler.Orders)

		// Venue endpoints
		e.Router.GET("/api/v1/venues/me/analytics", eventHandler.MyVenueAnalytics)
		e.Router.GET("/api/v1/venues/{id}/events", eventHandler.VenueEvents)
		e.Router.GET("/api/v1/venues/{id}/contact", eventHandler.VenueContact)

		// Account endpoints
		e.Router.PATCH("/api/v1/account/profile", accountHandler.UpdateProfile)
		e.Router.POST("/api/v1/account/password", accountHandler.ChangePassword)
		e.Router.DELETE("/api/v1/account", accountHandler.Delete)

		// Feedback endpoints
		e.Router.POST("/api/v1/feedback", feedbackHandler.Submit)
		e.Router.GET("/api/v1/feedback/mine", feedbackHandler.Mine)
		e.Router.POST("/api/v1/feedback/mine/read", feedbackHandler.MarkRead)

		// Admin endpoints
		e.Router.GET("/api/v1/admin/users", adminHandler.ListUsers)
		e.Router.GET("/api/v1/admin/venues", adminHandler.ListVenues)
		e.Router.GET("/api/v1/admin/events", adminHandler.ListEvents)
		e.Router.GET("/api/v1/admin/feedback", adminHandler.ListFeedback)
		e.Router.DELETE("/api/v1/admin/users/{id}", adminHandler.DeleteUser)
		e.Router.DELETE("/api/v1/admin/venues/{id}", adminHandler.DeleteVenue)
		e.Router.DELETE("/api/v1/admin/events/{id}", adminHandler.DeleteEvent)
		e.Router.POST("/api/v1/admin/feedback/{id}/respond", adminHandler.RespondFeedback)

		// Health check
		e.Router.GET("/health", healthHandler.Health)

		log.Println("Server routes registered")

		return e.Next()
	})

	// Start server
	return app.Start()
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	cancel()
}
