package routes

import (
	handlers "pawtraits/internal/handlers/shared"
	"pawtraits/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupPublicRoutes sets up the unauthenticated referral code lookups
func SetupPublicRoutes(r *gin.RouterGroup, codeHandler *handlers.ReferralCodeHandler, limiter *middleware.RateLimiter) {
	codes := r.Group("/referral-codes")
	codes.Use(limiter.Middleware())
	{
		codes.GET("/:code", codeHandler.GetCode)
		codes.GET("/:code/qr", codeHandler.QRCode)
	}
}

// SetupReferralRoutes sets up routes available to any authenticated session
func SetupReferralRoutes(
	r *gin.RouterGroup,
	jwtSecret string,
	customerHandler *handlers.CustomerHandler,
	orderHandler *handlers.OrderHandler,
	referralHandler *handlers.ReferralHandler,
) {
	auth := middleware.AuthRequired(jwtSecret)

	customers := r.Group("/customers")
	customers.Use(auth)
	{
		customers.POST("", customerHandler.RegisterCustomer)
		customers.POST("/:id/referral-code", customerHandler.ApplyReferralCode)
		customers.GET("/:id/attribution", customerHandler.GetAttribution)
		customers.GET("/:id/credits", customerHandler.GetCredits)
		customers.GET("/:id/credits/transactions", customerHandler.ListCreditTransactions)
		customers.POST("/:id/credits/use", customerHandler.UseCredit)
	}

	orders := r.Group("/orders")
	orders.Use(auth)
	{
		orders.POST("", orderHandler.CreateOrder)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.PUT("/:id/status", orderHandler.UpdateOrderStatus)
	}

	referrals := r.Group("/referrals")
	referrals.Use(auth)
	{
		referrals.POST("", referralHandler.CreateReferral)
		referrals.PUT("/:id/viewed", referralHandler.MarkViewed)
	}

	me := r.Group("/me")
	me.Use(auth)
	{
		me.GET("/stats", referralHandler.MyStats)
	}
}
