package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // Loads .env files into the process environment
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/restaurant-pos/internal/config"     // Internal config loader
	"github.com/iliyamo/restaurant-pos/internal/database"   // MySQL connection pool
	"github.com/iliyamo/restaurant-pos/internal/handler"    // HTTP handlers
	"github.com/iliyamo/restaurant-pos/internal/queue"      // RabbitMQ sale consumer
	"github.com/iliyamo/restaurant-pos/internal/repository" // Data access layer
	"github.com/iliyamo/restaurant-pos/internal/router"     // Route registration
)

func main() {
	// Load a local .env if present; in production the variables come from
	// the environment and a missing file is not an error.
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment")
	}

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: a nil client disables rate limiting and the
	// response cache without affecting the rest of the service.
	rdb := config.NewRedisClient()

	users := &repository.UserRepo{DB: db}
	tokens := &repository.TokenRepo{DB: db}
	tables := &repository.TableRepo{DB: db}
	products := &repository.ProductRepo{DB: db}
	orders := &repository.OrderRepo{DB: db}
	sales := &repository.SaleRepo{DB: db}

	// The billing workflow talks to storage through narrow interfaces;
	// these adapters bind them to the MySQL repositories.
	store := &repository.BillingStore{Tables: tables, Orders: orders}
	ledger := &repository.BillingLedger{Sales: sales}

	h := router.APIHandlers{
		Tables:   handler.NewTableHandler(tables, orders),
		Orders:   handler.NewOrderHandler(orders, tables, products),
		Products: handler.NewProductHandler(products),
		Sales:    handler.NewSaleHandler(sales),
		Users:    handler.NewUserHandler(&cfg, users),
		Billing:  handler.NewBillingHandler(store, ledger),
	}

	e := echo.New() // Create Echo instance
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
	router.RegisterAPI(e, h, cfg.JWTSecret, rdb, config.LoadRateLimitConfig(), config.LoadCacheConfig())

	// Consume recorded-sale events in the background.  The consumer
	// reconnects on its own, so a broker outage never blocks startup.
	go func() {
		if err := queue.StartSaleConsumer(); err != nil {
			log.Printf("sale consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
