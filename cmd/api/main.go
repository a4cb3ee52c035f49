package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/coffeeco/order-engine/internal/config"
	"github.com/coffeeco/order-engine/internal/events"
	"github.com/coffeeco/order-engine/internal/httpx"
	kafkax "github.com/coffeeco/order-engine/internal/kafka"
	"github.com/coffeeco/order-engine/internal/orders"
	"github.com/coffeeco/order-engine/internal/payments"
	"github.com/coffeeco/order-engine/internal/postgres"
	"github.com/coffeeco/order-engine/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("db schema: %v", err)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, one per topic
	pCreated := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024)
	pCreated.Start(ctx)
	pStatus := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderStatusChanged, 1024)
	pStatus.Start(ctx)

	// In-process fan-out for the SSE dashboards
	hub := events.NewHub()

	repo := &orders.Repo{DB: db}
	router := httpx.NewRouter()

	oh := &httpx.OrdersHandler{
		Repo:           repo,
		Hub:            hub,
		Producer:       pCreated,
		StatusProducer: pStatus,
		Redis:          rdb,
		Service:        cfg.ServiceName,
		Secret:         cfg.JWTSecret,
	}
	oh.Register(router)

	ph := &httpx.PaymentsHandler{
		Reconciler:     &payments.Reconciler{DB: db},
		Hub:            hub,
		StatusProducer: pStatus,
		Redis:          rdb,
		Service:        cfg.ServiceName,
	}
	ph.Register(router)

	rh := &httpx.RewardsHandler{Ledger: &orders.RewardLedger{DB: db}, Secret: cfg.JWTSecret}
	rh.Register(router)

	ih := &httpx.InventoryHandler{Ledger: &orders.StockLedger{DB: db}, Secret: cfg.JWTSecret}
	ih.Register(router)

	eh := &httpx.EventsHandler{Hub: hub}
	eh.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	pCreated.Close() // close inbox -> flush & close writer
	pStatus.Close()
	cancel() // stop producer loops
	pCreated.WaitClosed()
	pStatus.WaitClosed()
}
