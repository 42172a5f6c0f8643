package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"net/url"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/shopx-dev/shopx/internal/config"
	"github.com/shopx-dev/shopx/internal/graphql"
	"github.com/shopx-dev/shopx/internal/kvcache"
	"github.com/shopx-dev/shopx/internal/session"
	"github.com/shopx-dev/shopx/internal/store"
	"github.com/shopx-dev/shopx/internal/usercontext"
)

func main() {
	// 1. Config
	cfg := config.Load()

	// 2. Database
	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	// 3. Redis. A missing cache backend is not fatal: the kvcache layer
	// degrades to its in-process fallback.
	rdb := connectRedis(cfg)
	if rdb != nil {
		defer rdb.Close()
	}
	cache := kvcache.New(rdb)

	// 4. Services
	st := store.New(db)
	sessions := session.NewStore(cache, cfg.SessionTTL, cfg.ImpersonationTTL)
	codec := session.NewCookieCodec(cfg.CustomerCookieName, cfg.SupportCookieName, cfg.SessionTTL, cfg.IsProduction())
	contexts := usercontext.New(cache, st, usercontext.DefaultSnapshotTTL)
	gql := graphql.NewHandler(sessions, codec, st, contexts)

	// 5. Server
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, graphql.SupportSessionHeader},
		AllowCredentials: true,
	}))

	graphqlLimiter := middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(20),
			Burst:     60,
			ExpiresIn: 5 * time.Minute,
		}),
	})
	e.POST("/graphql", gql.Handle, graphqlLimiter)
	e.GET("/graphql", gql.Handle, graphqlLimiter)

	e.GET("/products/:id/image", productImageHandler(st))

	// 6. Run until interrupted, then drain.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := e.Start(":" + strconv.Itoa(cfg.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()
	log.Printf("Server running on http://localhost:%d/graphql", cfg.Port)

	<-ctx.Done()
	log.Println("Shutting down. Closing resources...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

func connectRedis(cfg config.Config) *redis.Client {
	if cfg.RedisDisabled {
		log.Println("Redis disabled by config. Using in-process cache only.")
		return nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Redis not available at %s. Falling back to in-process cache: %v", cfg.RedisAddr, err)
		_ = client.Close()
		return nil
	}
	log.Println("Connected to Redis")
	return client
}

func productImageHandler(st *store.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		productID, err := strconv.Atoi(c.Param("id"))
		if err != nil || productID <= 0 {
			return c.String(http.StatusBadRequest, "Invalid product id")
		}

		image, err := st.GetProductImage(c.Request().Context(), productID)
		if err != nil {
			log.Printf("Error serving product image %d: %v", productID, err)
			return c.NoContent(http.StatusInternalServerError)
		}
		if image == nil {
			return c.String(http.StatusNotFound, "Image not found")
		}

		c.Response().Header().Set("Content-Disposition",
			`inline; filename="`+url.QueryEscape(image.Filename)+`"`)
		c.Response().Header().Set("Cache-Control", "public, max-age=900, must-revalidate")
		return c.Blob(http.StatusOK, image.MimeType, image.Data)
	}
}
