package routes

import (
	"net/http"

	"go-storefront/controllers"
	"go-storefront/middleware"
	"go-storefront/repository"
	"go-storefront/utils"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Controllers groups the handlers mounted on the router
type Controllers struct {
	Users    *controllers.UserController
	Products *controllers.ProductController
	Payments *controllers.PaymentController
	Health   *controllers.HealthController
}

// RegisterRoutes sets up all the routes for the application
func RegisterRoutes(router *mux.Router, c Controllers, tokens *utils.TokenIssuer, users repository.UserStore, limiter *middleware.RateLimiter) {
	router.Use(middleware.Metrics)

	protect := middleware.Protect(tokens, users)
	adminOnly := func(h http.HandlerFunc) http.Handler { return protect(middleware.Admin(h)) }
	limited := func(l middleware.Limit, h http.Handler) http.Handler { return limiter.Handler(l)(h) }

	router.HandleFunc("/", c.Health.Root).Methods(http.MethodGet)
	router.HandleFunc("/health", c.Health.Health).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(limiter.Handler(middleware.GeneralLimit))

	// User routes
	userRoutes := api.PathPrefix("/users").Subrouter()
	userRoutes.Handle("/send-otp", limited(middleware.OTPLimit, http.HandlerFunc(c.Users.SendOTP))).Methods(http.MethodPost)
	userRoutes.HandleFunc("/verify-otp", c.Users.VerifyOTP).Methods(http.MethodPost)
	userRoutes.HandleFunc("/signup", c.Users.Signup).Methods(http.MethodPost)
	userRoutes.Handle("/login", limited(middleware.AuthLimit, http.HandlerFunc(c.Users.Login))).Methods(http.MethodPost)
	userRoutes.Handle("/social-auth", limited(middleware.AuthLimit, http.HandlerFunc(c.Users.SocialAuth))).Methods(http.MethodPost)
	userRoutes.Handle("/profile", protect(http.HandlerFunc(c.Users.GetProfile))).Methods(http.MethodGet)
	userRoutes.Handle("/admin/users", adminOnly(c.Users.ListUsers)).Methods(http.MethodGet)

	// Product routes
	productRoutes := api.PathPrefix("/products").Subrouter()
	productRoutes.HandleFunc("/products", c.Products.GetProducts).Methods(http.MethodGet)
	productRoutes.HandleFunc("/products/{id}", c.Products.GetProductByID).Methods(http.MethodGet)
	productRoutes.Handle("/products", adminOnly(c.Products.CreateProduct)).Methods(http.MethodPost)
	productRoutes.Handle("/products/{id}", adminOnly(c.Products.UpdateProduct)).Methods(http.MethodPut)
	productRoutes.Handle("/products/{id}", adminOnly(c.Products.DeleteProduct)).Methods(http.MethodDelete)

	// Payment routes
	paymentRoutes := api.PathPrefix("/payments").Subrouter()
	paymentRoutes.Handle("/create-order",
		limited(middleware.PaymentLimit, protect(http.HandlerFunc(c.Payments.CreateOrder)))).Methods(http.MethodPost)
	paymentRoutes.Handle("/verify-payment",
		limited(middleware.PaymentLimit, protect(http.HandlerFunc(c.Payments.VerifyPayment)))).Methods(http.MethodPost)
	paymentRoutes.Handle("/orders", protect(http.HandlerFunc(c.Payments.GetUserOrders))).Methods(http.MethodGet)
	paymentRoutes.Handle("/admin/orders", adminOnly(c.Payments.GetAllOrders)).Methods(http.MethodGet)
	paymentRoutes.Handle("/admin/orders/{id}/deliver", adminOnly(c.Payments.DeliverOrder)).Methods(http.MethodPut)
}
