package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/zsea1234/ZhiWU-sub000/internal/api/handler"
	"github.com/zsea1234/ZhiWU-sub000/internal/api/middleware"
	"github.com/zsea1234/ZhiWU-sub000/internal/core/domain"
	"github.com/zsea1234/ZhiWU-sub000/internal/core/ports"
)

// Deps carries the wired application services the router exposes.
type Deps struct {
	Auth       ports.AuthService
	Properties ports.PropertyService
	Bookings   ports.BookingService
	Leases     ports.LeaseService
	Payments   ports.PaymentService
	Tickets    ports.TicketService
	Scheduler  ports.Scheduler
	Audit      handler.AuditReader

	Mongo *mongo.Database
	Redis *redis.Client

	JWTSecret string
	Log       zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("rental"))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	propertyHandler := handler.NewPropertyHandler(deps.Properties)
	bookingHandler := handler.NewBookingHandler(deps.Bookings)
	leaseHandler := handler.NewLeaseHandler(deps.Leases)
	paymentHandler := handler.NewPaymentHandler(deps.Payments)
	ticketHandler := handler.NewTicketHandler(deps.Tickets)
	auditHandler := handler.NewAuditHandler(deps.Audit)
	schedulerHandler := handler.NewSchedulerHandler(deps.Scheduler)

	auth := middleware.Auth(deps.JWTSecret)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Mongo, deps.Redis)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())

	// --- Authenticated API ---
	// Per-transition legality and ownership are enforced by the core guard;
	// route-level RBAC only fences the purely administrative surfaces.
	v1 := e.Group("/v1", auth)

	properties := v1.Group("/properties")
	properties.POST("", propertyHandler.Create, middleware.RBAC(domain.RoleLandlord))
	properties.GET("", propertyHandler.List)
	properties.GET("/:id", propertyHandler.Get)
	properties.POST("/:id/verify", propertyHandler.Verify, adminOnly)
	properties.POST("/:id/delist", propertyHandler.Delist)
	properties.POST("/:id/relist", propertyHandler.Relist)
	properties.POST("/:id/begin-maintenance", propertyHandler.BeginMaintenance)
	properties.POST("/:id/end-maintenance", propertyHandler.EndMaintenance)

	bookings := v1.Group("/bookings")
	bookings.POST("", bookingHandler.Create, middleware.RBAC(domain.RoleTenant))
	bookings.GET("", bookingHandler.List)
	bookings.GET("/:id", bookingHandler.Get)
	bookings.POST("/:id/confirm", bookingHandler.Confirm)
	bookings.POST("/:id/cancel", bookingHandler.Cancel)
	bookings.POST("/:id/complete", bookingHandler.Complete)

	leases := v1.Group("/leases")
	leases.POST("", leaseHandler.Create, adminOnly)
	leases.GET("", leaseHandler.List)
	leases.GET("/:id", leaseHandler.Get)
	leases.POST("/:id/finalize", leaseHandler.Finalize)
	leases.POST("/:id/sign", leaseHandler.Sign)
	leases.POST("/:id/terminate", leaseHandler.Terminate)
	leases.GET("/:id/payments", leaseHandler.Payments)

	payments := v1.Group("/payments")
	payments.GET("/:id", paymentHandler.Get)
	payments.POST("/:id/pay", paymentHandler.Pay)
	payments.POST("/:id/confirm", paymentHandler.Confirm)
	payments.POST("/:id/fail", paymentHandler.Fail)
	payments.POST("/:id/refund", paymentHandler.Refund)

	tickets := v1.Group("/tickets")
	tickets.POST("", ticketHandler.Create, middleware.RBAC(domain.RoleTenant))
	tickets.GET("", ticketHandler.List)
	tickets.GET("/:id", ticketHandler.Get)
	tickets.POST("/:id/assign", ticketHandler.Assign)
	tickets.POST("/:id/start", ticketHandler.Start)
	tickets.POST("/:id/complete", ticketHandler.Complete)
	tickets.POST("/:id/cancel", ticketHandler.Cancel)
	tickets.POST("/:id/close", ticketHandler.Close)

	v1.GET("/audit/:entity/:id", auditHandler.Events, adminOnly)
	v1.POST("/scheduler/tick", schedulerHandler.Tick, adminOnly)

	return e
}
