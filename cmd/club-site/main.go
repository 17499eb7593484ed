package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"club-site/internal/auth"
	"club-site/internal/blob"
	"club-site/internal/config"
	"club-site/internal/contact"
	"club-site/internal/content"
	"club-site/internal/db"
	"club-site/internal/docstore"
	"club-site/internal/editor"
	"club-site/internal/event"
	"club-site/internal/httpapi"
	"club-site/internal/livesync"

	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Root context cancelled on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := log.New(os.Stdout, "[club-site] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	// Mongo
	mongoClient, err := db.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		logger.Fatalf("failed to connect to db: %v", err)
	}
	dbInstance := mongoClient.Database(cfg.MongoDBName)

	newsRepo := mustRepository[content.News](dbInstance, content.NewsCollection, logger)
	galleryRepo := mustRepository[content.Gallery](dbInstance, content.GalleriesCollection, logger)
	playerRepo := mustRepository[content.Player](dbInstance, content.PlayersCollection, logger)
	sponsorRepo := mustRepository[content.Sponsor](dbInstance, content.SponsorsCollection, logger)
	logger.Println("content repositories initialised")

	users, err := auth.NewMongoUserStore(dbInstance, logger)
	if err != nil {
		logger.Fatalf("failed to init user store: %v", err)
	}

	// Blob storage (S3 or compatible)
	s3Cfg := blob.S3Config{
		Bucket:         cfg.S3Bucket,
		Region:         cfg.S3Region,
		Endpoint:       cfg.S3Endpoint,
		ForcePathStyle: cfg.S3ForcePathStyle,
		PublicBaseURL:  cfg.S3PublicBaseURL,
	}
	s3Client, err := blob.NewS3Client(s3Cfg)
	if err != nil {
		logger.Fatalf("failed to init s3 client: %v", err)
	}
	blobs := blob.NewS3Store(s3Client, cfg.S3Bucket, s3Cfg.BaseURL(), logger)

	// Event publisher (RabbitMQ), optional
	var publisher event.Publisher
	if cfg.RabbitURI != "" {
		rabbit, err := event.NewRabbitPublisher(cfg.RabbitURI, cfg.RabbitExchange, logger)
		if err != nil {
			logger.Fatalf("failed to init rabbit publisher: %v", err)
		}
		defer rabbit.Close()
		publisher = rabbit
	} else {
		logger.Println("RABBIT_URI not set, content events are only logged")
	}
	events := event.NewService(publisher, logger)

	// Auth
	authService := auth.NewService(users, auth.NewCookieStore([]byte(cfg.SessionSecret), cfg.SessionSecure), auth.NewRegistry(), logger)
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if err := authService.EnsureUser(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			logger.Fatalf("failed to bootstrap admin user: %v", err)
		}
	}

	// Live collection feeds
	newsFeed := livesync.New[content.News](content.NewsCollection.Name, newsRepo, logger)
	galleryFeed := livesync.New[content.Gallery](content.GalleriesCollection.Name, galleryRepo, logger)
	playerFeed := livesync.New[content.Player](content.PlayersCollection.Name, playerRepo, logger)
	sponsorFeed := livesync.New[content.Sponsor](content.SponsorsCollection.Name, sponsorRepo, logger)

	router := httpapi.NewRouter(httpapi.Deps{
		Auth:    authService,
		Contact: contact.NewService(logger),

		News:      editor.NewNewsEditor(newsRepo, blobs, events, logger),
		Galleries: editor.NewGalleryEditor(galleryRepo, blobs, events, cfg.ThumbnailWidth, logger),
		Players:   editor.NewPlayerEditor(playerRepo, blobs, events, logger),
		Sponsors:  editor.NewSponsorEditor(sponsorRepo, blobs, events, logger),

		NewsFeed:      newsFeed,
		GalleriesFeed: galleryFeed,
		PlayersFeed:   playerFeed,
		SponsorsFeed:  sponsorFeed,

		NewsBySlug:      newsRepo,
		GalleriesBySlug: galleryRepo,

		MainSponsors: content.MainSponsors{
			NamingURL: cfg.NamingSponsorURL,
			MainURL:   cfg.MainSponsorURL,
		},
		MaxUploadBytes: cfg.MaxUploadBytes(),
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start background workers. A feed that cannot watch its collection
	// stays empty; the site keeps serving.
	var feeds errgroup.Group
	feeds.Go(func() error { return newsFeed.Run(ctx) })
	feeds.Go(func() error { return galleryFeed.Run(ctx) })
	feeds.Go(func() error { return playerFeed.Run(ctx) })
	feeds.Go(func() error { return sponsorFeed.Run(ctx) })

	go func() {
		logger.Printf("HTTP server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("HTTP server error: %v", err)
		}
	}()

	logger.Println("service started")

	// Block until we receive a signal / ctx cancelled
	<-ctx.Done()
	logger.Println("shutdown signal received, shutting down...")

	// Unified shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	// Graceful HTTP shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Printf("HTTP server shutdown error: %v", err)
	}

	if err := feeds.Wait(); err != nil {
		logger.Printf("live feed stopped with error: %v", err)
	}

	// Graceful Mongo shutdown
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		logger.Printf("mongo disconnect error: %v", err)
	}

	logger.Println("shutdown complete")
}

func mustRepository[T any](database *mongo.Database, spec docstore.Spec, logger *log.Logger) *docstore.Repository[T] {
	repo, err := docstore.NewRepository[T](database, spec, logger)
	if err != nil {
		logger.Fatalf("failed to init %s repository: %v", spec.Name, err)
	}
	return repo
}
