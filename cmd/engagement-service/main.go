package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/princekumarofficial/portfolio-engagement/internal/cache"
	"github.com/princekumarofficial/portfolio-engagement/internal/config"
	"github.com/princekumarofficial/portfolio-engagement/internal/email"
	authhandlers "github.com/princekumarofficial/portfolio-engagement/internal/http/handlers/auth"
	"github.com/princekumarofficial/portfolio-engagement/internal/http/handlers/engagement"
	"github.com/princekumarofficial/portfolio-engagement/internal/http/handlers/newsletter"
	"github.com/princekumarofficial/portfolio-engagement/internal/http/middleware"
	"github.com/princekumarofficial/portfolio-engagement/internal/ratelimit"
	"github.com/princekumarofficial/portfolio-engagement/internal/storage"
	"github.com/princekumarofficial/portfolio-engagement/internal/storage/postgres"
	"github.com/princekumarofficial/portfolio-engagement/internal/types"
)

func main() {
	// load config
	cfg := config.MustLoad()

	// database setup
	pg, err := postgres.NewPostgres(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	slog.Info("Connected to Postgres database")

	var store storage.Storage = pg

	// Redis is optional: with it the rate limiter is shared across
	// instances and hot counts are cached; without it each instance
	// enforces its own in-memory budget.
	var writeLimiter, readLimiter ratelimit.Limiter
	if cfg.Redis.Address != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
			log.Fatal("Failed to connect to Redis:", err)
		}
		slog.Info("Connected to Redis", slog.String("address", cfg.Redis.Address))

		writeLimiter = ratelimit.NewRedisFixedWindow(redisClient, "write", ratelimit.WriteLimit, ratelimit.Window)
		readLimiter = ratelimit.NewRedisFixedWindow(redisClient, "read", ratelimit.ReadLimit, ratelimit.Window)
		store = cache.NewCacheService(store, redisClient)
	} else {
		writeLimiter = ratelimit.NewFixedWindow(ratelimit.WriteLimit, ratelimit.Window)
		readLimiter = ratelimit.NewFixedWindow(ratelimit.ReadLimit, ratelimit.Window)
	}

	sender := email.NewClient(cfg.Email.APIKey, cfg.Email.BaseURL, cfg.Email.From)

	limiters := engagement.Limiters{Write: writeLimiter, Read: readLimiter}
	writeLimited := middleware.RateLimit(writeLimiter)
	authRequired := middleware.AuthMiddleware(cfg.JWTSecret)

	// setup routes
	router := http.NewServeMux()

	router.HandleFunc("POST /api/blog/engagement", engagement.HandleLikes(store, limiters, types.KindBlog))
	router.HandleFunc("POST /api/project/engagement", engagement.HandleLikes(store, limiters, types.KindProject))
	router.Handle("POST /api/blog/views", writeLimited(engagement.HandleTrackView(store, types.KindBlog)))
	router.Handle("POST /api/project/views", writeLimited(engagement.HandleTrackView(store, types.KindProject)))
	router.Handle("POST /api/blog/comments", writeLimited(engagement.HandleComment(store)))

	router.Handle("POST /api/newsletter/subscribe", writeLimited(newsletter.HandleSubscribe(store)))
	router.HandleFunc("POST /api/newsletter/verify-token", newsletter.HandleVerifyToken(store))
	router.HandleFunc("POST /api/newsletter/unsubscribe", newsletter.HandleUnsubscribe(store))
	router.Handle("POST /api/newsletter/notify", authRequired(newsletter.HandleNotify(store, sender, cfg.SiteOrigin)))

	router.Handle("POST /api/auth/send-otp", writeLimited(authhandlers.HandleSendOTP(store, sender)))
	router.HandleFunc("POST /api/auth/verify-otp-reset", authhandlers.HandleVerifyOTPReset(store))
	router.Handle("POST /api/auth/sync-user-role", authRequired(authhandlers.HandleSyncUserRole(store, cfg.AdminEmail)))

	// CORS sits outside the mux so OPTIONS preflights never 404.
	handler := middleware.Recover(middleware.CORS(cfg.SiteOrigin)(router))

	server := http.Server{
		Addr:    cfg.HTTPServer.Address,
		Handler: handler,
		// The notify broadcast does one provider call per subscriber;
		// bound the whole request rather than trusting the loop.
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	log.Println("server started on", cfg.HTTPServer.Address)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %s", err)
		}
	}()

	<-done

	slog.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = server.Shutdown(ctx)
	if err != nil {
		slog.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
		return
	}

	slog.Info("Server stopped")
}
