package routes

import (
	"pawtraits/internal/handlers/admin"
	"pawtraits/internal/middleware"
	"pawtraits/pkg/websocket"

	"github.com/gin-gonic/gin"
)

type AdminHandlers struct {
	Owners      *admin.OwnerHandler
	Codes       *admin.ReferralCodeHandler
	Commissions *admin.CommissionHandler
	Reports     *admin.ReportHandler
	Credits     *admin.CreditHandler
	LiveFeed    *websocket.Handler
}

// SetupAdminRoutes sets up the back-office routes. Every route requires an admin session.
func SetupAdminRoutes(r *gin.RouterGroup, jwtSecret string, h AdminHandlers) {
	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.AuthRequired(jwtSecret), middleware.AdminRequired())

	partners := adminGroup.Group("/partners")
	{
		partners.POST("", h.Owners.CreatePartner)
		partners.GET("", h.Owners.ListPartners)
		partners.GET("/:id", h.Owners.GetPartner)
		partners.GET("/:id/payouts", h.Commissions.ListRecipientPayouts)
	}

	influencers := adminGroup.Group("/influencers")
	{
		influencers.POST("", h.Owners.CreateInfluencer)
		influencers.GET("", h.Owners.ListInfluencers)
		influencers.GET("/:id", h.Owners.GetInfluencer)
		influencers.GET("/:id/payouts", h.Commissions.ListRecipientPayouts)
	}

	codes := adminGroup.Group("/referral-codes")
	{
		codes.POST("", h.Codes.CreateCode)
		codes.GET("", h.Codes.ListCodes)
		codes.PUT("/:id/deactivate", h.Codes.DeactivateCode)
	}

	referrals := adminGroup.Group("/referrals")
	{
		referrals.GET("", h.Reports.ListReferrals)
		referrals.GET("/stats", h.Reports.ReferralStats)
		referrals.POST("/expire", h.Reports.ExpireReferrals)
	}

	commissions := adminGroup.Group("/commissions")
	{
		commissions.GET("", h.Commissions.ListCommissions)
		commissions.PUT("/:id/paid", h.Commissions.MarkPaid)
	}

	payouts := adminGroup.Group("/payouts")
	{
		payouts.POST("", h.Commissions.CreatePayout)
		payouts.GET("/:id", h.Commissions.GetPayout)
		payouts.PUT("/:id/reconcile", h.Commissions.ReconcilePayout)
	}

	adminGroup.POST("/reports/commissions", h.Reports.ExportCommissions)
	adminGroup.POST("/credits/:id", h.Credits.AdjustCredit)

	if h.LiveFeed != nil {
		adminGroup.GET("/live", h.LiveFeed.HandleWebSocket)
	}
}
