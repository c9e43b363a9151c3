package routes

import (
	"net/http"

	"mechongo/internal/config"
	"mechongo/internal/handlers/customer"
	"mechongo/internal/handlers/mechanic"
	"mechongo/internal/middleware"
	"mechongo/internal/models"
	"mechongo/internal/utils"
	"mechongo/pkg/logger"

	handlers "mechongo/internal/handlers/shared"

	"github.com/gin-gonic/gin"
)

// Dependencies bundles everything the router needs. RateLimiter is optional;
// OTP issuing is not throttled without it.
type Dependencies struct {
	Config      *config.Config
	Logger      *logger.Logger
	RateLimiter middleware.SlidingWindowLimiter

	Bookings  *customer.BookingHandler
	Billing   *customer.BillingHandler
	Jobs      *mechanic.JobHandler
	Tracking  *handlers.TrackingHandler
	Locations *handlers.LocationHandler
}

func NewRouter(deps *Dependencies) *gin.Engine {
	router := gin.New()
	if len(deps.Config.Security.TrustedProxies) > 0 {
		_ = router.SetTrustedProxies(deps.Config.Security.TrustedProxies)
	}

	router.Use(middleware.RecoveryMiddleware(deps.Logger))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(deps.Logger))
	router.Use(middleware.CORSMiddleware(deps.Config.Security.CORSAllowedOrigins))

	auth := middleware.AuthConfig{
		Secret: deps.Config.Security.JWTSecret,
		Issuer: deps.Config.Security.JWTIssuer,
	}

	v1 := router.Group("/api/v1")
	{
		SetupCustomerRoutes(v1, auth, deps)
		SetupMechanicRoutes(v1, auth, deps)
		SetupTrackingRoutes(v1, auth, deps)
	}
	SetupWebSocketRoutes(router, auth, deps)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": deps.Config.App.Version,
		})
	})

	return router
}

func SetupCustomerRoutes(r *gin.RouterGroup, auth middleware.AuthConfig, deps *Dependencies) {
	customerRoutes := r.Group("/customer")
	customerRoutes.Use(middleware.AuthRequired(auth, deps.Logger), middleware.RoleRequired(models.RoleCustomer))
	{
		customerRoutes.POST("/requests", deps.Bookings.Book)
		customerRoutes.GET("/requests/:id", deps.Bookings.GetBooking)
		customerRoutes.POST("/requests/:id/cancel", deps.Bookings.Cancel)
		customerRoutes.GET("/requests/:id/otp", deps.Bookings.GetOTP)
		customerRoutes.GET("/dashboard", deps.Bookings.Dashboard)
		customerRoutes.GET("/history", deps.Bookings.History)
		customerRoutes.POST("/jobs/:id/rating", deps.Bookings.Rate)

		customerRoutes.GET("/payment-methods", deps.Billing.ListPaymentMethods)
		customerRoutes.POST("/payment-methods", deps.Billing.AddPaymentMethod)
		customerRoutes.GET("/invoices", deps.Billing.ListInvoices)
		customerRoutes.POST("/invoices/:id/pay", deps.Billing.PayInvoice)
	}
}

func SetupMechanicRoutes(r *gin.RouterGroup, auth middleware.AuthConfig, deps *Dependencies) {
	mechanicRoutes := r.Group("/mechanic")
	mechanicRoutes.Use(middleware.AuthRequired(auth, deps.Logger), middleware.RoleRequired(models.RoleMechanic))
	{
		mechanicRoutes.GET("/dashboard", deps.Jobs.Dashboard)
		mechanicRoutes.POST("/requests/:id/accept", deps.Jobs.Accept)

		issue := []gin.HandlerFunc{deps.Jobs.IssueOTP}
		if deps.RateLimiter != nil {
			security := deps.Config.Security
			throttle := middleware.RateLimitByUser(deps.RateLimiter, utils.OTPIssueRateLimitKey, security.OTPIssueLimit, security.OTPIssueWindow, deps.Logger)
			issue = append([]gin.HandlerFunc{throttle}, issue...)
		}
		mechanicRoutes.POST("/requests/:id/otp", issue...)

		mechanicRoutes.POST("/requests/:id/start", deps.Jobs.Start)
		mechanicRoutes.POST("/requests/:id/complete", deps.Jobs.Complete)
		mechanicRoutes.POST("/jobs/:id/travel", deps.Jobs.BeginTravel)
		mechanicRoutes.POST("/jobs/:id/stop-sharing", deps.Jobs.StopSharing)
	}
}

func SetupTrackingRoutes(r *gin.RouterGroup, auth middleware.AuthConfig, deps *Dependencies) {
	tracked := r.Group("")
	tracked.Use(middleware.AuthRequired(auth, deps.Logger))
	{
		tracked.GET("/tracking", deps.Tracking.Tracking)
		tracked.GET("/jobs/:id/location", deps.Tracking.JobLocation)
	}
}

// SetupWebSocketRoutes registers the location socket. Anonymous viewers may
// subscribe; only the authenticated mechanic can publish.
func SetupWebSocketRoutes(router *gin.Engine, auth middleware.AuthConfig, deps *Dependencies) {
	ws := router.Group("/ws")
	ws.Use(middleware.OptionalAuth(auth, deps.Logger))
	{
		ws.GET("/mechanic/location/:mechanic_id", deps.Locations.Subscribe)
	}
}
