package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/rental-marketplace/internal/config"
	"github.com/example/rental-marketplace/internal/email"
	"github.com/example/rental-marketplace/internal/infrastructure/kafka"
	"github.com/example/rental-marketplace/internal/infrastructure/store"
	"github.com/example/rental-marketplace/internal/notification"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Notifier] Configuration error: %v", err)
	}
	consumerGroup := "email-notifier"

	log.Println("[Notifier] ========================================")
	log.Println("[Notifier] Rental Marketplace - Email Notifications")
	log.Println("[Notifier] ========================================")
	log.Printf("[Notifier] Kafka: %v", cfg.KafkaBrokers)
	log.Printf("[Notifier] Topic: %s", cfg.KafkaTopic)
	log.Printf("[Notifier] Group: %s", consumerGroup)
	log.Printf("[Notifier] SMTP: %s:%s", cfg.SMTPHost, cfg.SMTPPort)
	log.Printf("[Notifier] From: %s", cfg.SMTPFrom)

	db, err := store.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("[Notifier] Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()
	log.Println("[Notifier] Connected to PostgreSQL")

	userRepo := store.NewUserRepository(db)
	shopRepo := store.NewShopRepository(db)

	emailSvc := email.NewService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom)
	handler := notification.NewHandler(emailSvc, userRepo, shopRepo)

	consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, consumerGroup)
	defer consumer.Close()

	go func() {
		log.Println("[Notifier] Starting event consumer...")
		if err := consumer.Consume(ctx, handler.HandleEvent); err != nil {
			log.Printf("[Notifier] Consumer error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[Notifier] Shutting down...")
	cancel()
}
