package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-reservations/internal/auth"
	"ms-reservations/internal/availability"
	availability_api "ms-reservations/internal/availability/api"
	"ms-reservations/internal/booking"
	booking_api "ms-reservations/internal/booking/api"
	booking_db "ms-reservations/internal/booking/db"
	"ms-reservations/internal/cart"
	cart_api "ms-reservations/internal/cart/api"
	"ms-reservations/internal/config"
	"ms-reservations/internal/database/migrations"
	"ms-reservations/internal/kafka"
	"ms-reservations/internal/logger"
	"ms-reservations/internal/notification"
	"ms-reservations/internal/passport"
	passport_api "ms-reservations/internal/passport/api"
	"ms-reservations/internal/payment"
	"ms-reservations/internal/store"
)

func verifyConnections(ctx context.Context, cfg *config.Config, log *logger.Logger) (*bun.DB, *redis.Client) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.Database.Username, cfg.Database.Password,
		cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)

	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", dsn)
		if err == nil {
			err = sqldb.Ping()
			if err == nil {
				break
			}
		}
		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)
	log.Info("DATABASE", "✅ PostgreSQL connection successful")

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	log.Info("DATABASE", fmt.Sprintf("✅ Redis connection successful to %s", cfg.Redis.Addr))

	return bunDB, redisClient
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting Reservation Service initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx := context.Background()

	log.Info("APP", "Verifying database connections")
	bunDB, redisClient := verifyConnections(ctx, cfg, log)
	defer bunDB.Close()
	defer redisClient.Close()

	runner := migrations.NewRunner(bunDB, migrations.DefaultOptions(), log)
	if err := runner.RunMigrations(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Migrations failed: %v", err))
	}
	defer runner.Close()

	// --- Kafka ---
	requiredTopics := []string{
		cfg.Kafka.Topics.BookingCreated,
		cfg.Kafka.Topics.BookingCancelled,
	}
	if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, requiredTopics); err != nil {
		log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	} else {
		log.Info("KAFKA", "Required topics ensured successfully")
	}

	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.BookingCreated, cfg.Kafka.Topics.BookingCancelled)
	defer producer.Close()

	// --- Services ---
	dbLayer := &booking_db.DB{Bun: bunDB}
	snapshots := store.NewRedisSnapshots(redisClient, cfg.Redis.SnapshotTTL)

	stripeService, err := payment.NewStripeService(cfg.Stripe, log)
	if err != nil {
		log.Fatal("STRIPE", fmt.Sprintf("Stripe initialization failed: %v", err))
	}

	orchestrator := booking.NewOrchestrator(
		dbLayer,
		passport.IDGenerator{},
		stripeService,
		producer,
		log,
		cfg.Pricing.BasePrice,
		cfg.Pricing.PassportAddOnFee,
	)

	bookingStores := booking.NewManager(snapshots, log)
	cartStores := cart.NewManager(snapshots, log)
	cartCheckout := payment.NewCartCheckout(stripeService, log)

	capacity := availability.NewCachedCapacity(
		availability.NewCapacityClient(cfg.Availability.CapacityBaseURL, &http.Client{Timeout: 10 * time.Second}),
		redisClient,
		cfg.Availability.CacheTTL,
		log,
	)
	resolver := availability.NewResolver(capacity, log, availability.WithWindowDays(cfg.Availability.WindowDays))

	ledger := &passport.Ledger{Bun: bunDB}
	tracker := passport.NewTracker(ledger, log)
	qrGen := passport.NewQRGenerator(cfg.Auth.StampSecret)

	webhook := payment.NewWebhookHandler(dbLayer, cfg.Stripe.WebhookSecret, log)

	bookingHandler := booking_api.NewHandler(bookingStores, orchestrator, dbLayer, producer, log)
	cartHandler := cart_api.NewHandler(cartStores, cartCheckout, log)
	availabilityHandler := availability_api.NewHandler(resolver, log)
	passportHandler := passport_api.NewHandler(tracker, qrGen, log)

	// --- Embedded notification worker ---
	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()
	if cfg.Kafka.Enabled {
		worker := notification.NewWorker(notification.ForConfig(cfg.Email, log), log)
		for _, topic := range requiredTopics {
			consumer := kafka.NewConsumer(cfg.Kafka.Brokers, topic, cfg.Kafka.GroupID, log)
			go consumer.Start(workerCtx, worker.Handle)
			defer consumer.Close()
		}
		log.Info("KAFKA", "Embedded notification worker started")
	}

	// --- Router ---
	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()

	// --- Public Routes ---
	r.Method(http.MethodPost, "/webhooks/stripe", webhook)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// --- Protected Routes ---
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(cfg.Auth.JWTSecret))
		log.Info("AUTH", "JWT middleware applied to protected API routes")

		r.Route("/api/v1", func(r chi.Router) {
			r.Mount("/bookings", bookingHandler.Routes())
			r.Mount("/cart", cartHandler.Routes())
			r.Mount("/availability", availabilityHandler.Routes())
			r.Mount("/passport", passportHandler.Routes())
		})
		log.Info("ROUTER", "Reservation routes registered under /api/v1")
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", "🚀 Reservation Service running on "+cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	stopWorkers()
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "✅ Reservation Service shutdown complete")
	}
}
