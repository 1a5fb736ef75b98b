package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/Sofoniyastekalegn/Addis-Ticket/internal/booking"
	"github.com/Sofoniyastekalegn/Addis-Ticket/internal/config"
	"github.com/Sofoniyastekalegn/Addis-Ticket/internal/database"
	"github.com/Sofoniyastekalegn/Addis-Ticket/internal/handler"
	"github.com/Sofoniyastekalegn/Addis-Ticket/internal/payment"
	"github.com/Sofoniyastekalegn/Addis-Ticket/internal/queue"
	"github.com/Sofoniyastekalegn/Addis-Ticket/internal/repository"
	"github.com/Sofoniyastekalegn/Addis-Ticket/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	catalog := repository.NewCatalogRepo(db)
	bookings := repository.NewBookingRepo(db)

	var provider payment.Provider
	switch cfg.PaymentDriver {
	case "chapa":
		provider = &payment.ChapaProvider{
			SecretKey:   cfg.ChapaSecretKey,
			CallbackURL: cfg.ChapaCallback,
			ReturnURL:   cfg.ChapaReturnURL,
		}
	default:
		provider = &payment.Simulator{Delay: 500 * time.Millisecond}
	}

	sessions := booking.NewRegistry(cfg.SessionTTL)
	stop := make(chan struct{})
	defer close(stop)
	sessions.StartSweeper(time.Minute, stop)

	// Prune expired refresh tokens in the background.
	go func() {
		t := time.NewTicker(time.Hour)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				if n, err := tokens.DeleteExpired(ctx); err != nil {
					log.Printf("prune refresh tokens: %v", err)
				} else if n > 0 {
					log.Printf("pruned %d expired refresh tokens", n)
				}
				cancel()
			}
		}
	}()

	// Consumes booking.confirmed events; reconnects on broker outages.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("queue consumer stopped: %v", err)
		}
	}()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; caching and rate limiting disabled")
	}

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
	router.RegisterPublic(e, handler.NewCatalogHandler(catalog, bookings), rdb)
	router.RegisterBooking(e,
		handler.NewBookingHandler(catalog, bookings, bookings, provider, sessions, cfg.PaymentTimeout),
		cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
