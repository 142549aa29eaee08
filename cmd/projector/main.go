package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/example/rental-marketplace/internal/config"
	"github.com/example/rental-marketplace/internal/infrastructure/kafka"
	"github.com/example/rental-marketplace/internal/infrastructure/store"
	"github.com/example/rental-marketplace/internal/projection"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Projector] Configuration error: %v", err)
	}
	consumerGroup := "booking-projector"

	log.Println("[Projector] ========================================")
	log.Println("[Projector] Rental Marketplace - Event Projector")
	log.Println("[Projector] ========================================")
	log.Printf("[Projector] Kafka: %v", cfg.KafkaBrokers)
	log.Printf("[Projector] Topic: %s", cfg.KafkaTopic)
	log.Printf("[Projector] Group: %s", consumerGroup)

	db, err := store.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("[Projector] Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()
	if err := store.EnsureSchema(db); err != nil {
		log.Fatalf("[Projector] Failed to ensure schema: %v", err)
	}
	log.Println("[Projector] Connected to PostgreSQL")

	auditLog := store.NewEventLog(db)

	// The DynamoDB archive is optional. Without a table name every event
	// still lands in the Postgres audit log.
	var archive projection.Archiver
	if cfg.DynamoTable != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			log.Fatalf("[Projector] Failed to load AWS config: %v", err)
		}
		archive = store.NewDynamoArchive(dynamodb.NewFromConfig(awsCfg), cfg.DynamoTable)
		log.Printf("[Projector] Archiving to DynamoDB table %s", cfg.DynamoTable)
	} else {
		log.Println("[Projector] DynamoDB archive disabled")
	}

	projector := projection.NewProjector(auditLog, archive)

	consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, consumerGroup)
	defer consumer.Close()

	go func() {
		log.Println("[Projector] Starting event consumer...")
		if err := consumer.Consume(ctx, projector.HandleEvent); err != nil {
			log.Printf("[Projector] Consumer error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[Projector] Shutting down...")
	cancel()
}
