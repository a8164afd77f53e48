package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/go_shop/internal/cache"
	"github.com/fjod/go_shop/internal/config"
	shophttp "github.com/fjod/go_shop/internal/http"
	"github.com/fjod/go_shop/internal/identity"
	"github.com/fjod/go_shop/internal/logger"
	"github.com/fjod/go_shop/internal/payment"
	"github.com/fjod/go_shop/internal/publisher"
	"github.com/fjod/go_shop/internal/repository"
	"github.com/fjod/go_shop/internal/service"
	"github.com/fjod/go_shop/internal/telemetry"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info").WithError(err).Fatal("invalid configuration")
	}
	log := logger.New(cfg.LogLevel)

	ctx := context.Background()

	tp, err := telemetry.InitTracerProvider(ctx, "shop-api", cfg.OTLPEndpoint)
	if err != nil {
		log.WithError(err).Fatal("failed to init tracing")
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.WithError(err).Warn("tracer shutdown failed")
		}
	}()

	// MongoDB: carts, catalog, user profiles
	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to MongoDB")
	}
	defer func() { _ = mongoDB.Client().Disconnect(context.Background()) }()
	log.WithField("uri", cfg.MongoURI).Info("connected to MongoDB")

	// PostgreSQL: orders and shipments
	cred := &repository.Credentials{
		Host:              cfg.DBHost,
		Port:              cfg.DBPort,
		User:              cfg.DBUser,
		Password:          cfg.DBPassword,
		DBName:            cfg.DBName,
		MigrationsDirPath: cfg.MigrationsPath,
	}
	orders, err := repository.NewPostgresRepository(cred)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to PostgreSQL")
	}
	defer orders.Close()
	if err := orders.RunMigrations(cred); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.WithError(err).Fatal("redis connection failed")
	}

	stripeClient := payment.NewStripeClient(cfg.StripeSecretKey, cfg.StripeWebhookSecret, log)

	cognito, err := identity.NewCognitoClient(ctx, cfg.AWSRegion, cfg.CognitoClientID)
	if err != nil {
		log.WithError(err).Fatal("failed to init identity provider")
	}

	events := publisher.NewKafkaPublisher(publisher.NewKafkaWriter(cfg.OrderEventsTopic, cfg.KafkaBrokers...))
	defer func() {
		if err := events.Close(); err != nil {
			log.WithError(err).Warn("error closing event publisher")
		}
	}()

	carts := service.NewCartService(
		repository.NewMongoCartRepository(mongoDB),
		cache.NewRedisCache(redisClient),
		cfg.CartMaxRetries,
		log,
	)
	catalog := service.NewCatalogService(repository.NewMongoProductRepository(mongoDB), log)
	orderService := service.NewOrderService(orders, log)
	purchases := service.NewPurchaseService(stripeClient, log)
	confirmations := service.NewConfirmationService(
		stripeClient,
		orders,
		events,
		cache.NewRedisLedger(redisClient, "stripe-event", cfg.IdempotencyTTL),
		log,
	)
	registrations := service.NewRegistrationService(cognito, repository.NewMongoUserRepository(mongoDB), log)

	router := shophttp.NewRouter(shophttp.Handlers{
		Cart:     shophttp.NewCartHandler(carts, cfg.RequestTimeout, log),
		Catalog:  shophttp.NewCatalogHandler(catalog, cfg.RequestTimeout, log),
		Orders:   shophttp.NewOrdersHandler(orderService, cfg.RequestTimeout, log),
		Purchase: shophttp.NewPurchaseHandler(purchases, confirmations, cfg.RequestTimeout, log),
		Auth:     shophttp.NewAuthHandler(registrations, cfg.RequestTimeout, log),
	}, log)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.HTTPPort).Info("shop API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("failed to serve")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down shop API...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("forced shutdown")
	}
	log.Info("shop API stopped")
}
