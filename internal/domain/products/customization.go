package products

import (
	"html"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultLocationMessage = "Hey! It looks like you are from <b>{country}</b>. We support Parity Purchasing Power, so if you need it, use code <b>“{coupon}”</b> to get <b>{discount}%</b> off."
	DefaultBackgroundColor = "hsl(193, 82%, 31%)"
	DefaultTextColor       = "hsl(0, 0%, 100%)"
	DefaultFontSize        = "1rem"
	DefaultBannerContainer = "body"
)

// Banner template placeholders
const (
	PlaceholderCountry  = "{country}"
	PlaceholderCoupon   = "{coupon}"
	PlaceholderDiscount = "{discount}"
)

type ProductCustomization struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	ClassPrefix *string   `json:"classPrefix"`

	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"productId"`
	Product   *Product  `gorm:"constraint:OnDelete:CASCADE" json:"-"`

	LocationMessage string `gorm:"not null" json:"locationMessage"`
	BackgroundColor string `gorm:"not null" json:"backgroundColor"`
	TextColor       string `gorm:"not null" json:"textColor"`
	FontSize        string `gorm:"not null" json:"fontSize"`
	BannerContainer string `gorm:"not null" json:"bannerContainer"`
	IsSticky        bool   `gorm:"not null" json:"isSticky"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c *ProductCustomization) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// NewCustomization returns the customization every new product starts with.
func NewCustomization(productID uuid.UUID) ProductCustomization {
	return ProductCustomization{
		ProductID:       productID,
		LocationMessage: DefaultLocationMessage,
		BackgroundColor: DefaultBackgroundColor,
		TextColor:       DefaultTextColor,
		FontSize:        DefaultFontSize,
		BannerContainer: DefaultBannerContainer,
		IsSticky:        true,
	}
}

type CustomizationInput struct {
	ClassPrefix     *string `json:"classPrefix"`
	LocationMessage string  `json:"locationMessage" binding:"required"`
	BackgroundColor string  `json:"backgroundColor" binding:"required"`
	TextColor       string  `json:"textColor" binding:"required"`
	FontSize        string  `json:"fontSize" binding:"required"`
	BannerContainer string  `json:"bannerContainer" binding:"required"`
	IsSticky        *bool   `json:"isSticky" binding:"required"`
}

// RenderMessage fills the banner placeholders. The template is trusted markup;
// the substituted values are escaped. The discount is shown as a whole percent.
func RenderMessage(template, country, coupon string, discount float64) string {
	r := strings.NewReplacer(
		PlaceholderCountry, html.EscapeString(country),
		PlaceholderCoupon, html.EscapeString(coupon),
		PlaceholderDiscount, strconv.Itoa(WholePercent(discount)),
	)
	return r.Replace(template)
}

// WholePercent converts a 0-1 fraction to a rounded percentage.
func WholePercent(fraction float64) int {
	return int(math.Round(fraction * 100))
}
