package main

import (
	"context"
	"encoding/hex"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rookgm/foodorder/config"
	"github.com/rookgm/foodorder/internal/auth"
	handler "github.com/rookgm/foodorder/internal/handler/http"
	"github.com/rookgm/foodorder/internal/logger"
	"github.com/rookgm/foodorder/internal/middleware"
	"github.com/rookgm/foodorder/internal/notification"
	"github.com/rookgm/foodorder/internal/payments"
	"github.com/rookgm/foodorder/internal/repository"
	"github.com/rookgm/foodorder/internal/repository/postgres"
	"github.com/rookgm/foodorder/internal/service"
	"github.com/rookgm/foodorder/internal/worker"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {

	// create new config
	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// initialize logger
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		log.Fatalf("Error initializing logger: %v", err)
	}
	defer logger.Log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// initialize database
	db, err := postgres.New(ctx, cfg.DatabaseDSN, postgres.Options{
		MaxConns: int32(cfg.DBMaxConns),
		MinConns: int32(cfg.DBMinConns),
	})
	if err != nil {
		logger.Log.Fatal("Error initializing database", zap.Error(err))
	}
	defer db.Close()

	// migrate database
	if err := db.Migrate(); err != nil {
		logger.Log.Fatal("Error migrating database", zap.Error(err))
	}

	tokenKey, err := hex.DecodeString(cfg.TokenKey)
	if err != nil {
		logger.Log.Fatal("Error extracting token key", zap.Error(err))
	}
	token := auth.NewAuthToken(tokenKey)

	// payment providers
	gateway, err := payments.NewManager(
		payments.NewPhonePe(cfg.PhonePeBaseURL, cfg.PaymentTimeout),
		payments.NewCashfree(cfg.CashfreeBaseURL, cfg.PaymentTimeout),
	)
	if err != nil {
		logger.Log.Fatal("Error initializing payment providers", zap.Error(err))
	}

	// dependency injection
	// auth
	userRepo := repository.NewUserRepository(db)
	authService := service.NewAuthService(userRepo, token)
	authHandler := handler.NewAuthHandler(authService)

	// notifications
	notificationRepo := repository.NewNotificationRepository(db)
	dispatcher := notification.NewDispatcher(notificationRepo, cfg.ExpoPushURL, cfg.PaymentTimeout)
	notificationService := service.NewNotificationService(notificationRepo, dispatcher)
	notificationHandler := handler.NewNotificationHandler(notificationService)

	// order
	orderService := service.NewOrderService(service.Repositories{
		Tx:        db,
		Orders:    repository.NewOrderRepository(db),
		Catalog:   repository.NewCatalogRepository(db),
		Payments:  repository.NewPaymentRepository(db),
		Merchants: repository.NewMerchantRepository(db),
	}, gateway, dispatcher, service.OrderOptions{
		CancelWindow: cfg.CancelWindow,
		RedirectURL:  cfg.PaymentRedirectURL,
		CallbackURL:  cfg.PaymentCallbackURL,
	})
	orderHandler := handler.NewOrderHandler(orderService)

	router := chi.NewRouter()

	router.Use(chimw.RequestID)
	router.Use(chimw.Recoverer)
	router.Use(middleware.Logging(logger.Log))

	router.Post("/api/users", authHandler.RegisterUser())
	router.Post("/api/users/login", authHandler.LoginUser())
	router.Post("/api/restaurants/login", authHandler.LoginRestaurant())

	// routes that require authentication
	router.Group(func(group chi.Router) {
		group.Use(handler.AuthMiddleware(token))
		group.Post("/api/users/push-token", authHandler.UpdatePushToken())
		group.Post("/api/orders", orderHandler.PlaceOrder())
		group.Get("/api/orders/pending", orderHandler.ListPendingOrders())
		group.Get("/api/orders/payment/{orderID}", orderHandler.GetPaymentSession())
		group.Get("/api/orders/payment/verify/{orderID}", orderHandler.VerifyPayment())
		group.Post("/api/orders/complete/{orderID}", orderHandler.CompleteOrder())
		group.Post("/api/orders/cancel/{orderID}", orderHandler.CancelOrder())
		group.Get("/api/orders/{days}", orderHandler.ListOrders())
		group.Get("/api/notifications", notificationHandler.ListNotifications())
		group.Post("/api/notifications", notificationHandler.Broadcast())
	})

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Log.Info("Running server", zap.String("addr", cfg.ServerAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		worker.NewPaymentReconciler(orderService, cfg.ReconcileInterval).Run(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		logger.Log.Info("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Log.Error("Server stopped with error", zap.Error(err))
	}
}
