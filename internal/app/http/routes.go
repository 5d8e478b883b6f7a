package routes

import (
	"net/http"

	analyticsapi "parity-app/internal/api/analytics"
	"parity-app/internal/api/billing"
	clerkwebhooks "parity-app/internal/api/clerkwebhook"
	"parity-app/internal/api/plans"
	productsapi "parity-app/internal/api/products"
	stripewebhooks "parity-app/internal/api/stripewebhook"
	"parity-app/internal/api/users"
	"parity-app/internal/app/http/middleware"
	"parity-app/internal/domain/access"
	domainplans "parity-app/internal/domain/plans"

	"github.com/gin-gonic/gin"
)

// Deps carries the constructed handlers and guards the router needs.
type Deps struct {
	Catalog      *domainplans.Catalog
	Verifier     middleware.TokenVerifier
	Capabilities middleware.CapabilityChecker

	Users         *users.Handler
	Products      *productsapi.Handler
	Banners       *productsapi.BannerHandler
	Billing       *billing.Handler
	Analytics     *analyticsapi.Handler
	StripeWebhook *stripewebhooks.Handler
	ClerkWebhook  *clerkwebhooks.Handler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/api/webhooks/stripe", d.StripeWebhook.StripeWebhook)
	r.POST("/api/webhooks/clerk", d.ClerkWebhook.ClerkWebhook)

	// Embedded on customer sites, no session.
	r.GET("/api/products/:id/banner", d.Banners.GetBanner)
	r.GET("/plans", plans.ListPlans(d.Catalog))

	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware(d.Verifier))
	auth.GET("/me", d.Users.GetCurrentUser)

	productText := middleware.SanitizeText("name", "description")
	auth.GET("/products", d.Products.ListProducts)
	auth.POST("/products", productText, d.Products.CreateProduct)
	auth.GET("/products/:id", d.Products.GetProduct)
	auth.PUT("/products/:id", productText, d.Products.UpdateProduct)
	auth.DELETE("/products/:id", d.Products.DeleteProduct)

	auth.GET("/products/:id/countries", d.Products.GetCountryGroups)
	auth.PUT("/products/:id/countries", d.Products.UpdateCountryDiscounts)

	auth.GET("/products/:id/customization", d.Products.GetCustomization)
	auth.PUT("/products/:id/customization",
		middleware.RequireCapability(d.Capabilities, access.CapabilityCustomizeBanner),
		middleware.SanitizeMarkup("locationMessage"),
		middleware.SanitizeText("classPrefix"),
		d.Products.UpdateCustomization,
	)

	auth.GET("/subscription", d.Billing.GetSubscription)
	auth.POST("/billing/checkout", d.Billing.CreateCheckoutSession)
	auth.POST("/billing/cancel", d.Billing.CreateCancelSession)
	auth.POST("/billing/portal", d.Billing.CreateBillingPortal)

	auth.GET("/analytics/views",
		middleware.RequireCapability(d.Capabilities, access.CapabilityAccessAnalytics),
		d.Analytics.GetViews,
	)
}
