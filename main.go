// main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-storefront/config"
	"go-storefront/controllers"
	"go-storefront/events"
	"go-storefront/middleware"
	"go-storefront/repository"
	"go-storefront/routes"
	"go-storefront/utils"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}
	setupLogging(cfg)

	if err := run(cfg); err != nil {
		logrus.WithError(err).Fatal("Server stopped")
	}
}

func setupLogging(cfg *config.Config) {
	if cfg.IsProd() {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.WithField("level", cfg.LogLevel).Warn("Unknown LOG_LEVEL, using info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to MongoDB
	db, err := repository.Connect(ctx, cfg.Mongo)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Close(closeCtx); err != nil {
			logrus.WithError(err).Error("Error disconnecting from MongoDB")
		}
	}()
	if err := db.EnsureIndexes(ctx); err != nil {
		return err
	}

	rdb := connectRedis(ctx, cfg.Redis)
	if rdb != nil {
		defer rdb.Close()
	}

	// Initialize EmailService
	mailer, err := utils.NewMailer(cfg.Mail)
	if err != nil {
		logrus.WithError(err).Warn("Email is not configured, OTP and order emails will fail")
	}
	emailService := utils.NewEmailService(mailer, cfg.Mail.FromName)

	var gateway utils.PaymentGateway
	if gw, err := utils.NewRazorpayGateway(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret); err != nil {
		logrus.WithError(err).Warn("Payments are disabled")
	} else {
		gateway = gw
	}

	var social utils.IdentityVerifier
	if cfg.Firebase.Enabled() {
		verifier, err := utils.NewFirebaseVerifier(ctx, cfg.Firebase)
		if err != nil {
			logrus.WithError(err).Error("Social sign-in is disabled")
		} else {
			social = verifier
		}
	}

	var publisher events.Publisher
	if cfg.Rabbit.URL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.Rabbit.URL)
		if err != nil {
			return err
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
	} else {
		logrus.Info("RABBIT_URL not set, order emails are sent in-process")
		inProcess := events.NewInProcessPublisher(&events.Notifier{Mailer: emailService})
		defer inProcess.Wait()
		publisher = inProcess
	}

	tokens := utils.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry)
	users := db.Users()

	// Initialize controllers
	userController := controllers.NewUserController(users, db.OTPs(), tokens, emailService, social, cfg.Auth.AdminEmail)
	userController.Development = !cfg.IsProd()
	productController := controllers.NewProductController(db.Products(), utils.NewCache(rdb))
	paymentController := controllers.NewPaymentController(db.Orders(), db.Products(), users, gateway, publisher)

	// Set up the router
	router := mux.NewRouter()
	routes.RegisterRoutes(router, routes.Controllers{
		Users:    userController,
		Products: productController,
		Payments: paymentController,
		Health:   controllers.NewHealthController(db),
	}, tokens, users, middleware.NewRateLimiter(rdb))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           wrap(router, cfg),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.WithField("port", cfg.Port).Info("Server is running")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logrus.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// wrap applies the handlers that must see every request, matched or not
func wrap(router http.Handler, cfg *config.Config) http.Handler {
	h := handlers.CORS(
		handlers.AllowedOrigins(cfg.CORSOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type", middleware.RequestIDHeader}),
		handlers.ExposedHeaders([]string{"RateLimit-Limit", "RateLimit-Remaining", "RateLimit-Reset", middleware.RequestIDHeader}),
	)(router)
	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(logrus.StandardLogger()),
		handlers.PrintRecoveryStack(true),
	)(h)
	h = middleware.RequestLogger(h)
	if cfg.TrustProxy {
		h = handlers.ProxyHeaders(h)
	}
	return h
}

func connectRedis(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logrus.WithError(err).WithField("addr", cfg.Addr).Warn("Redis is unreachable, caching and rate limiting fail open")
	} else {
		logrus.WithField("addr", cfg.Addr).Info("Connected to Redis")
	}
	return rdb
}
