package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-journal/internal/application/linkpreview"
	"github.com/go-journal/internal/application/notification"
	"github.com/go-journal/internal/application/post"
	"github.com/go-journal/internal/application/subscriber"
	"github.com/go-journal/internal/config"
	"github.com/go-journal/internal/infrastructure/dynamo"
	"github.com/go-journal/internal/infrastructure/localfs"
	redisinfra "github.com/go-journal/internal/infrastructure/redis"
	s3infra "github.com/go-journal/internal/infrastructure/s3"
	"github.com/go-journal/internal/infrastructure/sns"
	"github.com/go-journal/internal/infrastructure/whatsapp"
	"github.com/go-journal/internal/pkg/ratelimit"
	"github.com/go-journal/internal/render"
	transporthttp "github.com/go-journal/internal/transport/http"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()
	ctx := context.Background()

	// Redis backs the subscriber store and the shared subscribe limiter.
	// Without it the limiter degrades to a per-process bucket.
	var redisClient *redis.Client
	if c, err := redisinfra.NewClient(cfg); err == nil {
		redisClient = c
		defer redisClient.Close()
	} else {
		log.Printf("WARN: Redis not available: %v", err)
	}

	var store subscriber.Store
	switch cfg.SubscriberBackend {
	case "dynamo":
		dynamoClient, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			log.Fatalf("dynamo client: %v", err)
		}
		dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)
		store = dynamo.NewSubscriberRepo(dynamoClient, cfg.DynamoTables.Subscribers)
	case "redis":
		if redisClient == nil {
			log.Fatal("SUBSCRIBER_BACKEND=redis requires a reachable Redis")
		}
		store = redisinfra.NewSubscriberRepo(redisClient)
	default:
		log.Fatalf("unknown SUBSCRIBER_BACKEND %q", cfg.SubscriberBackend)
	}

	var limiter ratelimit.Limiter
	if redisClient != nil {
		limiter = redisinfra.NewSlidingWindowLimiter(redisClient, "ratelimit:subscribe", cfg.SubscribeRateLimit, cfg.SubscribeRateWindow)
	} else {
		limiter = ratelimit.NewMemory(cfg.SubscribeRateLimit, cfg.SubscribeRateWindow)
	}

	var messenger notification.Messenger
	switch cfg.MessagingProvider {
	case "sns":
		m, err := sns.NewMessenger(ctx, cfg)
		if err != nil {
			log.Fatalf("sns messenger: %v", err)
		}
		messenger = m
	default:
		messenger = whatsapp.NewClient(cfg.WhatsApp, nil)
	}

	var source post.Source = localfs.NewPostSource(cfg.PostsDir)
	if cfg.PostsS3Bucket != "" {
		s3Client, err := s3infra.NewClient(ctx, cfg)
		if err != nil {
			log.Fatalf("s3 client: %v", err)
		}
		source = s3infra.NewPostSource(s3Client, cfg.PostsS3Bucket, cfg.PostsS3Prefix)
	}
	catalog := post.NewCatalog(source)
	if n, err := catalog.Reload(ctx); err != nil {
		log.Printf("WARN: loading posts: %v", err)
	} else {
		log.Printf("Loaded %d posts", n)
	}

	pages, err := render.NewPages("creature wai")
	if err != nil {
		log.Fatalf("templates: %v", err)
	}

	subscribers := subscriber.NewService(store)
	deps := &transporthttp.Deps{
		Subscribers:      subscribers,
		SubscribeLimiter: limiter,
		Notifier: notification.NewService(subscribers, notification.NewBroadcaster(messenger, cfg.WhatsApp.Language), notification.Options{
			SiteURL:         cfg.SiteURL,
			DefaultTemplate: cfg.WhatsApp.TemplateName,
			NewPostTemplate: cfg.WhatsApp.NewPostTemplate,
		}),
		Links:       linkpreview.NewFetcher(nil),
		LinkLimiter: ratelimit.NewMemory(30, time.Minute),
		Posts:       catalog,
		Pages:       pages,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s, subscribers=%s, messaging=%s)", cfg.AppPort, cfg.AppEnv, cfg.SubscriberBackend, cfg.MessagingProvider)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
