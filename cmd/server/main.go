package main // Entry point package

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/triporo/booking-api/internal/cache"
	"github.com/triporo/booking-api/internal/config"
	"github.com/triporo/booking-api/internal/database"
	"github.com/triporo/booking-api/internal/handler"
	"github.com/triporo/booking-api/internal/middleware"
	"github.com/triporo/booking-api/internal/pipeline"
	"github.com/triporo/booking-api/internal/provider"
	"github.com/triporo/booking-api/internal/queue"
	"github.com/triporo/booking-api/internal/reconcile"
	"github.com/triporo/booking-api/internal/repository"
	"github.com/triporo/booking-api/internal/reputation"
	"github.com/triporo/booking-api/internal/router"
)

func main() {
	// Load .env if present; real deployments set env vars directly.
	_ = godotenv.Load()
	cfg := config.Load()

	// Redis backs the result cache, the rate limiter and checkout
	// sessions. A nil client degrades each of those independently.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable: caching and rate limiting disabled, sessions held in memory")
	}

	// MySQL holds the persisted booking records. Searching still works
	// without it; only checkout completion is refused.
	var bookingRepo *repository.BookingRepo
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Printf("mysql unavailable: checkout completion disabled: %v", err)
	} else {
		bookingRepo = repository.NewBookingRepo(db)
	}

	inv := provider.New(cfg.ProviderBaseURL, cfg.ProviderClientID, cfg.ProviderClientSecret, cfg.PriceBatchSize)

	searcher := &pipeline.Searcher{
		Provider:   inv,
		Reputation: reputation.New(cfg.ReputationBaseURL),
		Cache:      cache.New(rdb, config.LoadSearchCacheConfig()),
		Timeout:    cfg.SearchTimeout,
	}

	var sessions reconcile.Store
	if rdb != nil {
		sessions = reconcile.NewRedisStore(rdb, time.Duration(cfg.SessionTTLMin)*time.Minute)
	} else {
		sessions = reconcile.NewMemoryStore()
	}
	machine := reconcile.NewMachine(sessions, inv)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterSearch(e, handler.NewSearchHandler(searcher),
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	router.RegisterCheckout(e,
		handler.NewCheckoutHandler(machine, bookingRepo, cfg.SessionSecret, cfg.SessionTTLMin),
		cfg.SessionSecret)
	if bookingRepo != nil {
		router.RegisterBookings(e, handler.NewBookingHandler(bookingRepo))
	}

	// Background consumer mirrors confirmed bookings to logs/booking.log.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
