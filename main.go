package main

import (
	"log"
	"os"

	"courier-dispatch/config"
	httpapi "courier-dispatch/internal/api/http"
	"courier-dispatch/internal/service"
	"courier-dispatch/internal/storage"
)

func main() {
	cfg := config.Load()

	db := config.MustInitPostgres()
	defer db.Close()

	rdb := config.MustInitRedis()
	defer rdb.Close()

	kafkaWriter := config.NewKafkaWriter("delivery-events")
	defer kafkaWriter.Close()

	deliveries := storage.NewPostgresRepository(db)
	if err := deliveries.EnsureSchema(); err != nil {
		log.Fatal("Failed to ensure schema:", err)
	}
	drivers := storage.NewDriverRepo(db)
	menus := storage.NewMenuRepo(db)
	orders := storage.NewOrderRepo(db)

	limiter := storage.NewRedisRateLimiter(rdb)
	publisher := storage.NewKafkaPublisher(kafkaWriter)
	engine := service.NewSettlementEngine(cfg.Payouts, cfg.Tiers)
	qr := service.DefaultQRGenerator{BaseURL: os.Getenv("TRACKING_BASE_URL")}

	dispatch := service.NewDispatchService(
		deliveries, drivers, menus, orders, deliveries,
		limiter, publisher, engine, qr, cfg.Dispatch,
	)

	handler := httpapi.NewHandler(dispatch, cfg.JWTSecret)
	httpapi.StartServer(cfg.HTTPAddr, httpapi.NewRouter(handler))
}
