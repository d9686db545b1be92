package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	appoutbox "stayloop/internal/app/outbox"
	svcauth "stayloop/internal/app/services/auth"
	svcbookings "stayloop/internal/app/services/bookings"
	svclistings "stayloop/internal/app/services/listings"
	domainbooking "stayloop/internal/domain/booking"
	domainlistings "stayloop/internal/domain/listings"
	domainuser "stayloop/internal/domain/user"
	"stayloop/internal/infra/broker/kafka"
	"stayloop/internal/infra/config"
	mongodb "stayloop/internal/infra/db/mongo"
	ginserver "stayloop/internal/infra/http/gin"
	"stayloop/internal/infra/obs"
	"stayloop/internal/infra/outbox"
	"stayloop/internal/infra/security"
	"stayloop/internal/infra/storage/memory"
	"stayloop/internal/infra/storage/s3"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration invalid", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	deps, err := buildDependencies(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer deps.close(logger)

	tokens := security.TokenManager{Secret: []byte(cfg.JWTSecret), TTL: cfg.JWTTTL}
	hasher := security.BcryptHasher{}

	authService := &svcauth.Service{
		Users:     deps.users,
		Passwords: hasher,
		Tokens:    tokens,
		Logger:    logger,
	}
	listingService := &svclistings.Service{
		Listings: deps.listings,
		Bookings: deps.bookings,
		Users:    deps.users,
		Uploader: deps.uploader,
		Outbox:   deps.outbox,
		Logger:   logger,
	}
	bookingService := &svcbookings.Service{
		Bookings: deps.bookings,
		Listings: deps.listings,
		Users:    deps.users,
		Outbox:   deps.outbox,
		Logger:   logger,
	}

	handlers := ginserver.Handlers{
		Auth:           ginserver.AuthHandler{Service: authService, Logger: logger},
		Listing:        ginserver.ListingHandler{Service: listingService, Logger: logger},
		Booking:        ginserver.BookingHandler{Service: bookingService, Logger: logger},
		AuthMiddleware: ginserver.AuthMiddleware{Tokens: tokens}.Handle,
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: deps.ready,
	}, handlers)

	if deps.worker != nil {
		go func() {
			if err := deps.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type dependencies struct {
	users    domainuser.Repository
	listings domainlistings.Repository
	bookings domainbooking.Repository
	outbox   appoutbox.Outbox
	uploader s3.Uploader
	worker   *outbox.Worker
	producer *kafka.Producer
	ready    func() error
}

// buildDependencies wires Mongo, Kafka and S3 when configured, falling back
// to in-memory implementations so the service runs with zero external deps
// in dev.
func buildDependencies(cfg config.Config, logger *slog.Logger) (*dependencies, error) {
	deps := &dependencies{
		ready:    func() error { return nil },
		uploader: s3.NoopUploader{},
	}

	if cfg.MongoURI != "" {
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		deps.users = mongodb.NewUserRepository(client.DB)
		deps.listings = mongodb.NewListingRepository(client.DB)
		deps.bookings = mongodb.NewBookingRepository(client.DB)
		deps.ready = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		}

		if len(cfg.KafkaBrokers) > 0 {
			producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
			if err != nil {
				return nil, err
			}
			store := outbox.NewStore(client.DB)
			deps.outbox = store
			deps.producer = producer
			deps.worker = &outbox.Worker{
				Store:       store,
				Producer:    producer,
				Interval:    cfg.OutboxPollInterval,
				TopicPrefix: cfg.KafkaTopicPrefix,
				Backoff:     cfg.RetryBackoff,
			}
		} else {
			deps.outbox = outbox.NewStore(client.DB)
			logger.Warn("kafka brokers not configured, outbox events will accumulate")
		}
	} else {
		logger.Warn("MONGO_URI not set, using in-memory storage")
		deps.users = memory.NewUserRepository()
		deps.listings = memory.NewListingRepository()
		deps.bookings = memory.NewBookingRepository()
		deps.outbox = memory.NewOutbox()
	}

	if cfg.S3AccessKey != "" && cfg.S3Endpoint != "" {
		uploader, err := s3.NewClient(cfg.S3Endpoint, cfg.S3UseSSL, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicEndpoint, logger)
		if err != nil {
			logger.Warn("s3 uploader unavailable", "error", err)
		} else {
			deps.uploader = uploader
		}
	}
	return deps, nil
}

func (d *dependencies) close(logger *slog.Logger) {
	if d.producer != nil {
		if err := d.producer.Close(); err != nil {
			logger.Error("kafka producer close failed", "error", err)
		}
	}
}
