package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/fjod/go_shop/internal/cache"
	"github.com/fjod/go_shop/internal/config"
	"github.com/fjod/go_shop/internal/consumer"
	"github.com/fjod/go_shop/internal/health"
	"github.com/fjod/go_shop/internal/logger"
	"github.com/fjod/go_shop/internal/notification"
	"github.com/fjod/go_shop/internal/repository"
	"github.com/fjod/go_shop/internal/telemetry"
	"github.com/redis/go-redis/v9"
)

const serviceName = "email-worker"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info").WithError(err).Fatal("invalid configuration")
	}
	log := logger.New(cfg.LogLevel).WithField("service", serviceName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.InitTracerProvider(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		log.WithError(err).Fatal("failed to init tracing")
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.WithError(err).Warn("tracer shutdown failed")
		}
	}()

	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to MongoDB")
	}
	defer func() { _ = mongoDB.Client().Disconnect(context.Background()) }()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.WithError(err).Fatal("redis connection failed")
	}

	sender, err := notification.NewSendGridSender(cfg.SendGridAPIKey, cfg.SenderEmail, log)
	if err != nil {
		log.WithError(err).Fatal("failed to init email sender")
	}

	dispatcher := notification.NewDispatcher(
		repository.NewMongoUserRepository(mongoDB),
		sender,
		cache.NewRedisLedger(redisClient, "order-email", cfg.IdempotencyTTL),
		cfg.EmailConcurrency,
		log,
	)

	reader := consumer.NewGroupReader(
		cfg.EmailGroupID,
		[]string{cfg.OrderEventsTopic, cfg.OrderEventsRetryTopic},
		cfg.KafkaBrokers...,
	)
	retry := consumer.NewRetryWriter(cfg.OrderEventsRetryTopic, cfg.KafkaBrokers...)
	emailConsumer := consumer.NewEmailConsumer(reader, retry, dispatcher, consumer.Config{
		BatchSize:   cfg.EmailBatchSize,
		BatchWait:   cfg.EmailBatchWait,
		MaxAttempts: cfg.EmailMaxAttempts,
	}, log)

	healthServer := health.NewServer(serviceName)
	go func() {
		log.WithField("port", cfg.GRPCHealthPort).Info("health server listening")
		if err := healthServer.ListenAndServe(cfg.GRPCHealthPort); err != nil {
			log.WithError(err).Error("health server stopped")
		}
	}()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		emailConsumer.Run(ctx)
	}()
	healthServer.SetServing(true)
	log.Info("email worker started")

	<-ctx.Done()
	log.Info("shutting down email worker...")
	healthServer.SetServing(false)
	wg.Wait()
	emailConsumer.Close()
	healthServer.Stop()
	log.Info("email worker stopped")
}
