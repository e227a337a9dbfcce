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
	"ms-reservations/internal/passport"
	passport_api "ms-reservations/internal/passport/api"
	"ms-reservations/internal/payment"
	"ms-reservations/internal/store"
)

// API-only process: booking events are published to Kafka but consumed by
// the standalone notification worker.
func main() {
	log := logger.NewLogger()
	defer log.Close()

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}

	cfg := config.Load()
	ctx := context.Background()

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.Database.Username, cfg.Database.Password,
		cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)

	sqldb, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
	}
	if err := sqldb.Ping(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
	}
	bunDB := bun.NewDB(sqldb, pgdialect.New())
	defer bunDB.Close()

	runner := migrations.NewRunner(bunDB, migrations.DefaultOptions(), log)
	if err := runner.RunMigrations(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Migrations failed: %v", err))
	}
	defer runner.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	defer redisClient.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.BookingCreated, cfg.Kafka.Topics.BookingCancelled)
	defer producer.Close()

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

	capacity := availability.NewCachedCapacity(
		availability.NewCapacityClient(cfg.Availability.CapacityBaseURL, &http.Client{Timeout: 10 * time.Second}),
		redisClient,
		cfg.Availability.CacheTTL,
		log,
	)
	resolver := availability.NewResolver(capacity, log, availability.WithWindowDays(cfg.Availability.WindowDays))

	ledger := &passport.Ledger{Bun: bunDB}

	bookingHandler := booking_api.NewHandler(booking.NewManager(snapshots, log), orchestrator, dbLayer, producer, log)
	cartHandler := cart_api.NewHandler(cart.NewManager(snapshots, log), payment.NewCartCheckout(stripeService, log), log)
	availabilityHandler := availability_api.NewHandler(resolver, log)
	passportHandler := passport_api.NewHandler(passport.NewTracker(ledger, log), passport.NewQRGenerator(cfg.Auth.StampSecret), log)
	webhook := payment.NewWebhookHandler(dbLayer, cfg.Stripe.WebhookSecret, log)

	r := chi.NewRouter()
	r.Method(http.MethodPost, "/webhooks/stripe", webhook)
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(cfg.Auth.JWTSecret))
		r.Route("/api/v1", func(r chi.Router) {
			r.Mount("/bookings", bookingHandler.Routes())
			r.Mount("/cart", cartHandler.Routes())
			r.Mount("/availability", availabilityHandler.Routes())
			r.Mount("/passport", passportHandler.Routes())
		})
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", "🚀 Reservation API running on "+cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	}
}
