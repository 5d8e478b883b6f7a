package products

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClerkUserID string    `gorm:"column:clerk_user_id;not null;index:products_clerk_user_id_index" json:"-"`
	Name        string    `gorm:"not null" json:"name"`
	URL         string    `gorm:"column:url;not null" json:"url"`
	Description *string   `json:"description,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Details is the seller-editable part of a product.
type Details struct {
	Name        string  `json:"name" binding:"required"`
	URL         string  `json:"url" binding:"required,url"`
	Description *string `json:"description"`
}

// Normalized trims input and drops the trailing slash of the destination URL.
func (d Details) Normalized() Details {
	out := Details{
		Name: strings.TrimSpace(d.Name),
		URL:  strings.TrimSuffix(strings.TrimSpace(d.URL), "/"),
	}
	if d.Description != nil {
		desc := strings.TrimSpace(*d.Description)
		if desc != "" {
			out.Description = &desc
		}
	}
	return out
}

// ServesPage reports whether a page URL belongs to the product's site: the
// product URL itself or any path below it. Query and fragment are ignored.
func (p *Product) ServesPage(pageURL string) bool {
	u, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil || u.Host == "" {
		return false
	}
	u.RawQuery, u.Fragment = "", ""
	page := strings.TrimSuffix(u.String(), "/")
	return page == p.URL || strings.HasPrefix(page, p.URL+"/")
}
