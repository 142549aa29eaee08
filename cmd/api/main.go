package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/example/rental-marketplace/internal/api"
	"github.com/example/rental-marketplace/internal/auth"
	"github.com/example/rental-marketplace/internal/config"
	"github.com/example/rental-marketplace/internal/domain/booking"
	"github.com/example/rental-marketplace/internal/infrastructure/kafka"
	"github.com/example/rental-marketplace/internal/infrastructure/store"
	"github.com/example/rental-marketplace/internal/inventory"
	"github.com/example/rental-marketplace/internal/payment"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[API] Configuration error: %v", err)
	}

	log.Println("[API] ========================================")
	log.Println("[API] Rental Marketplace API")
	log.Println("[API] ========================================")
	log.Printf("[API] Kafka: %v", cfg.KafkaBrokers)
	log.Printf("[API] Topic: %s", cfg.KafkaTopic)
	log.Printf("[API] Currency: %s", cfg.Currency)

	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer producer.Close()

	db, err := store.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("[API] Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()
	if err := store.EnsureSchema(db); err != nil {
		log.Fatalf("[API] Failed to ensure schema: %v", err)
	}
	log.Println("[API] Connected to PostgreSQL")

	userRepo := store.NewUserRepository(db)
	shopRepo := store.NewShopRepository(db)
	productRepo := store.NewProductRepository(db, cfg.Currency)
	bookingRepo := store.NewBookingRepository(db, cfg.Currency)
	inventoryRepo := store.NewInventoryRepository(db)
	eventLog := store.NewEventLog(db)

	engine := inventory.NewEngine(productRepo, inventoryRepo)
	gateway := payment.NewClient(cfg.GatewayBaseURL, cfg.GatewayAPIKey, cfg.GatewayWebhookSecret)
	bookingSvc := booking.NewService(bookingRepo, productRepo, shopRepo, engine, gateway, producer, cfg.Currency)

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenExpiry)

	handlers := api.NewHandlers(bookingSvc, bookingRepo, productRepo, shopRepo, engine, eventLog, cfg.Currency)
	authHandlers := api.NewAuthHandlers(userRepo, tokens)
	webhookHandler := api.NewWebhookHandler(gateway, bookingSvc)
	router := api.NewRouter(handlers, authHandlers, webhookHandler, tokens)

	var wg sync.WaitGroup

	// Background sweep of approved bookings whose payment window lapsed.
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("[API] Payment hold sweeper running every %s (hold %s)", cfg.SweepInterval, cfg.PaymentHold)
		runExpirySweeper(ctx, bookingRepo, bookingSvc, cfg.PaymentHold, cfg.SweepInterval)
	}()

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		log.Println("[API] ========================================")
		log.Printf("[API] Server started on %s", cfg.HTTPAddr)
		log.Println("[API] ========================================")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("[API] Server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[API] Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)

	wg.Wait()
}

// runExpirySweeper expires approved bookings that were never paid. Each
// booking is expired individually so one failure does not block the
// rest of the batch.
func runExpirySweeper(ctx context.Context, repo *store.BookingRepository, svc *booking.Service, hold, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		cutoff := time.Now().UTC().Add(-hold)
		stale, err := repo.ListApprovedBefore(ctx, cutoff)
		if err != nil {
			log.Printf("[API] Sweeper failed to list stale bookings: %v", err)
			continue
		}
		for _, b := range stale {
			if _, err := svc.Expire(ctx, b.ID); err != nil {
				log.Printf("[API] Sweeper failed to expire booking %s: %v", b.ID, err)
			} else {
				log.Printf("[API] Expired unpaid booking %s (approved %s)", b.ID, b.UpdatedAt.Format(time.RFC3339))
			}
		}
	}
}
