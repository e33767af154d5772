package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"gighub/internal/artists"
	"gighub/internal/auth"
	"gighub/internal/events"
	"gighub/internal/feed"
	"gighub/internal/follows"
	"gighub/internal/ingest"
	"gighub/internal/notify"
	"gighub/internal/reviews"
	"gighub/internal/search"
	"gighub/internal/wallet"
	"gighub/pkg/database"
	"gighub/pkg/utils"
)

func main() {
	cfg := database.DefaultConfig()
	db := database.MustOpen(cfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	router := gin.Default()

	// Optional: avoid "trusted all proxies" warning
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	// Live feed over websocket
	hub := feed.NewHub()
	router.GET("/ws", feed.WSHandler(hub))

	// UDP push notifications
	registry := notify.NewRegistry()
	notifySrv := notify.NewServer(":7071", registry, log.Default())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": cfg.Path})
	})

	router.GET("/ready", func(c *gin.Context) {
		stats := hub.Stats()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":     "not_ready",
				"db_error":   err.Error(),
				"ws_clients": stats.Clients,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":     "ready",
			"db":         "ok",
			"ws_clients": stats.Clients,
		})
	})

	// Ingestion pipeline
	source := ingest.NewClient(utils.LoadListingsConfig())
	store := ingest.NewSQLStore(db)
	syncer := ingest.NewSyncer(store, source)
	syncCfg := utils.LoadSyncConfig()
	syncer.MaxArtists = syncCfg.MaxArtists
	syncer.GroupSize = syncCfg.GroupSize
	syncer.LimitPerArtist = syncCfg.LimitPerArtist
	syncer.OnArtistSynced = notifySrv.BroadcastNewEvents

	// Public read surface
	eventsRepo := events.NewRepo(db)
	eventsHandler := events.NewHandler(eventsRepo, syncer, hub)
	eventsHandler.RegisterRoutes(router.Group("/events"))

	artistsRepo := artists.NewRepo(db)
	artistsHandler := artists.NewHandler(artistsRepo, eventsRepo)
	artistsHandler.RegisterRoutes(router.Group("/artists"))

	searchHandler := search.NewHandler(search.NewRepo(db))
	searchHandler.RegisterRoutes(router.Group("/search"))

	reviewsRepo := reviews.NewRepo(db)
	reviewsHandler := reviews.NewHandler(reviewsRepo, eventsRepo)
	reviewsHandler.RegisterPublicRoutes(&router.RouterGroup)

	// Auth
	authCfg := utils.LoadAuthConfig()
	tokenSvc := auth.TokenService{
		Secret:   []byte(authCfg.JWTSecret),
		Issuer:   authCfg.JWTIssuer,
		Duration: authCfg.JWTDuration,
	}
	authRepo := auth.NewRepo(db)
	authHandler := auth.NewHandler(authRepo, tokenSvc)
	authHandler.RegisterRoutes(router.Group("/auth"))

	// Protected routes
	protected := router.Group("/users")
	protected.Use(auth.AuthMiddleware(tokenSvc, authRepo))

	protected.GET("/me", func(c *gin.Context) {
		claims := auth.MustGetClaims(c)
		c.JSON(http.StatusOK, gin.H{
			"id":       claims.UserID,
			"username": claims.Username,
			"email":    claims.Email,
		})
	})

	// Sync endpoints (protected)
	eventsHandler.RegisterSyncRoutes(protected)

	followsRepo := follows.NewRepo(db)
	followsHandler := follows.NewHandler(followsRepo, syncer, hub)
	followsHandler.RegisterRoutes(protected)

	walletHandler := wallet.NewHandler(wallet.NewRepo(db), eventsRepo, hub)
	walletHandler.RegisterRoutes(protected)

	reviewsHandler.RegisterProtectedRoutes(protected)

	httpSrv := &http.Server{
		Addr:    ":8080",
		Handler: router,
	}

	errCh := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := notifySrv.Run(); err != nil {
			errCh <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Println("HTTP API server listening on :8080")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("shutdown signal received: %s", sig)
	case err := <-errCh:
		log.Printf("server error: %v", err)
	}

	log.Println("shutting down servers")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	if err := notifySrv.Close(); err != nil {
		log.Printf("notify shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("servers stopped")
}
