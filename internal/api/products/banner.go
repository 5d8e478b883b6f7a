package productsapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"parity-app/internal/domain/access"
	"parity-app/internal/domain/products"
	"parity-app/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// countryHeader is set by Cloudflare to the visitor's ISO country code.
const countryHeader = "CF-IPCountry"

type BannerFinder interface {
	Lookup(ctx context.Context, productID uuid.UUID, countryCode string) (*repository.Banner, error)
}

type ViewRecorder interface {
	Record(ctx context.Context, productID uuid.UUID, countryID *uuid.UUID, ownerID string, at time.Time) error
}

type BannerEntitlements interface {
	CanShowDiscountBanner(ctx context.Context, userID string, now time.Time) (bool, error)
	HasCapability(ctx context.Context, userID string, capability access.Capability) (bool, error)
}

type BannerHandler struct {
	banners BannerFinder
	views   ViewRecorder
	access  BannerEntitlements
	now     func() time.Time
}

func NewBannerHandler(banners BannerFinder, views ViewRecorder, entitlements BannerEntitlements) *BannerHandler {
	return &BannerHandler{banners: banners, views: views, access: entitlements, now: time.Now}
}

type bannerStyle struct {
	ClassPrefix     *string `json:"classPrefix"`
	BackgroundColor string  `json:"backgroundColor"`
	TextColor       string  `json:"textColor"`
	FontSize        string  `json:"fontSize"`
	BannerContainer string  `json:"bannerContainer"`
	IsSticky        bool    `json:"isSticky"`
}

type bannerResponse struct {
	Message            string      `json:"message"`
	Coupon             string      `json:"coupon"`
	DiscountPercentage int         `json:"discountPercentage"`
	CountryName        string      `json:"countryName"`
	CountryCode        string      `json:"countryCode"`
	Style              bannerStyle `json:"style"`
	ShowBranding       bool        `json:"showBranding"`
}

// GetBanner is called from the seller's site. It answers 204 whenever no
// banner should be shown and records a view otherwise.
func (h *BannerHandler) GetBanner(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		notFound(c)
		return
	}
	referer := c.GetHeader("Referer")
	if referer == "" {
		notFound(c)
		return
	}
	code := c.Query("country")
	if code == "" {
		code = c.GetHeader(countryHeader)
	}
	if code == "" {
		c.Status(http.StatusNoContent)
		return
	}

	ctx := c.Request.Context()
	b, err := h.banners.Lookup(ctx, id, code)
	if errors.Is(err, repository.ErrNotFound) {
		notFound(c)
		return
	}
	if err != nil {
		serverError(c, "Failed to load banner", err)
		return
	}
	if b == nil {
		c.Status(http.StatusNoContent)
		return
	}
	if !(&products.Product{URL: b.ProductURL}).ServesPage(referer) {
		notFound(c)
		return
	}

	now := h.now()
	canShow, err := h.access.CanShowDiscountBanner(ctx, b.OwnerID, now)
	if err != nil && !errors.Is(err, repository.ErrNoSubscription) {
		serverError(c, "Failed to load banner", err)
		return
	}
	if !canShow {
		c.Status(http.StatusNoContent)
		return
	}

	countryID := b.CountryID
	if err := h.views.Record(ctx, b.ProductID, &countryID, b.OwnerID, now); err != nil {
		slog.Error("failed to record product view", "product_id", b.ProductID, "error", err)
	}

	removeBranding, err := h.access.HasCapability(ctx, b.OwnerID, access.CapabilityRemoveBranding)
	if err != nil {
		slog.Warn("branding check failed", "product_id", b.ProductID, "error", err)
	}

	custom := b.Customization
	c.JSON(http.StatusOK, bannerResponse{
		Message:            products.RenderMessage(custom.LocationMessage, b.CountryName, b.Coupon, b.DiscountPercentage),
		Coupon:             b.Coupon,
		DiscountPercentage: products.WholePercent(b.DiscountPercentage),
		CountryName:        b.CountryName,
		CountryCode:        b.CountryCode,
		Style: bannerStyle{
			ClassPrefix:     custom.ClassPrefix,
			BackgroundColor: custom.BackgroundColor,
			TextColor:       custom.TextColor,
			FontSize:        custom.FontSize,
			BannerContainer: custom.BannerContainer,
			IsSticky:        custom.IsSticky,
		},
		ShowBranding: !removeBranding,
	})
}
