package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"pos-cart-service/internal/api"
	"pos-cart-service/internal/client"
	"pos-cart-service/internal/config"
	"pos-cart-service/internal/pending"
	"pos-cart-service/internal/service"
	"pos-cart-service/internal/session"
)

func main() {
	port := config.Getenv("PORT", "8085")
	backendURL := config.Getenv("ORDER_BACKEND_URL", "http://localhost:8084")
	productURL := config.Getenv("PRODUCT_SERVICE_URL", "http://localhost:8081")
	paymentURL := config.Getenv("PAYMENT_SERVICE_URL", "http://localhost:8086/momo-payment")

	rdb := redis.NewClient(&redis.Options{
		Addr: config.Getenv("REDIS_ADDR", "localhost:6379"),
	})

	kafkaWriter := config.NewKafkaWriter("invoice-topic")

	orders := client.NewOrderClient(backendURL)
	products := client.NewProductClient(productURL)
	gateway := client.NewPaymentClient(paymentURL)

	pendingStore := pending.NewRedisStore(rdb)
	invoices := service.NewKafkaInvoicePublisher(kafkaWriter)

	checkoutService := service.NewCheckoutService(orders, gateway, pendingStore, invoices)
	reconcileService := service.NewReconcileService(orders, pendingStore, invoices)

	sess := session.New()
	handler := api.NewHandler(sess, products, checkoutService, reconcileService)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Resume an interrupted gateway round-trip: if the process restarted with
	// a pending payment marker still set, reconcile it without a result code.
	go func() {
		if _, err := reconcileService.Resolve(ctx, ""); err != nil {
			log.Printf("startup reconciliation: %v", err)
		}
	}()

	e := echo.New()

	limiterConfig := middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(20),
				Burst:     40,
				ExpiresIn: 3 * time.Minute,
			}),
		IdentifierExtractor: func(context echo.Context) (string, error) {
			return context.Request().RemoteAddr, nil
		},
		ErrorHandler: func(context echo.Context, err error) error {
			return context.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
		DenyHandler: func(context echo.Context, identifier string, err error) error {
			return context.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
	}

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RateLimiterWithConfig(limiterConfig))

	handler.Register(e)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"service": "pos-cart-service",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	e.Logger.Fatal(e.Start(":" + port))
}
