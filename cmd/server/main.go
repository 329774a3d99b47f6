package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"restaurant-pos/internal/ai"
	"restaurant-pos/internal/auth"
	"restaurant-pos/internal/config"
	"restaurant-pos/internal/database"
	"restaurant-pos/internal/handlers"
	"restaurant-pos/internal/metrics"
	"restaurant-pos/internal/middleware"
	"restaurant-pos/internal/notify"
	"restaurant-pos/internal/payqr"
	"restaurant-pos/internal/pos"
	"restaurant-pos/internal/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.Load()

	db, err := database.Connect(cfg.Database, cfg.IsDevelopment())
	if err != nil {
		log.Fatal("Database unavailable: ", err)
	}
	store := database.NewStore(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Shop.DineInTables > 0 || cfg.Shop.TakeawayTables > 0 {
		n, err := store.EnsureTables(ctx, cfg.Shop.DineInTables, cfg.Shop.TakeawayTables)
		if err != nil {
			log.Fatal("Table provisioning failed: ", err)
		}
		log.Printf("Tables ready (%d created)", n)
	}

	// --- Notifications: Redis pub/sub and/or RabbitMQ, both optional ---
	var notifiers notify.Multi
	if cfg.Notify.RedisAddr != "" {
		rdb := notify.NewRedisClient(cfg.Notify.RedisAddr)
		defer rdb.Close()
		notifiers = append(notifiers, notify.NewRedisNotifier(rdb))
		log.Println("Notifications: redis", cfg.Notify.RedisAddr)
	}
	if cfg.Notify.RabbitURL != "" {
		pub, err := notify.NewAMQPPublisher(cfg.Notify.RabbitURL, cfg.Notify.RabbitExchange)
		if err != nil {
			log.Printf("⚠️ RabbitMQ disabled: %v", err)
		} else {
			defer pub.Close()
			notifiers = append(notifiers, pub)
			log.Println("Notifications: rabbitmq exchange", cfg.Notify.RabbitExchange)
		}
	}
	var notifier notify.Notifier = notify.Nop{}
	if len(notifiers) > 0 {
		notifier = notifiers
	}

	var qr payqr.Provider = payqr.Disabled{}
	if cfg.PayQRURL != "" {
		qr = payqr.NewClient(cfg.PayQRURL, 5*time.Second)
	}

	m := metrics.New()
	node := utils.NodeID()
	deps := pos.Deps{
		Store:    store,
		Notifier: notifier,
		Metrics:  m,
		Location: cfg.Shop.Location,
	}

	scheduler := pos.NewDayCloseScheduler(deps, cfg.Shop.DayStartHour, node)
	if err := scheduler.Start(cfg.Shop.CloseCheckSpec); err != nil {
		log.Fatal("Day close scheduler: ", err)
	}

	h := &handlers.Handler{
		Store:             store,
		Tables:            pos.NewTableRegistry(deps),
		Orders:            pos.NewOrderManager(deps, qr),
		Kitchen:           pos.NewKitchenBoard(deps, cfg.Shop.TicketWindow),
		Payments:          pos.NewPaymentProcessor(deps),
		Shop:              scheduler,
		Tokens:            auth.NewTokenManager(cfg.Server.JWTSecret, cfg.Server.JWTExpiration),
		Agent:             ai.NewAgent(cfg.Gemini, store, cfg.Shop.Location),
		Metrics:           m,
		Location:          cfg.Shop.Location,
		AllowRegistration: cfg.Server.AllowRegistration,
		Node:              node,
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.HeaderReqID},
		ExposeHeaders:    []string{"Content-Length", middleware.HeaderReqID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RequestID())
	h.RegisterRoutes(r)

	if cfg.Server.AllowRegistration {
		log.Println("⚠️ WARNING: Registration route is OPEN. Disable this in production!")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("🚀 Server starting on %s (node %s)", cfg.Server.BaseURL, node)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		scheduler.Stop(shutdownCtx)
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("Server failed: ", err)
	}
	log.Println("Server stopped")
}
