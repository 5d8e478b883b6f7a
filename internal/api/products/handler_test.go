package productsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"parity-app/internal/app/http/middleware"
	"parity-app/internal/domain/access"
	"parity-app/internal/domain/plans"
	"parity-app/internal/domain/products"
	"parity-app/internal/domain/users"
	"parity-app/internal/repository"
	"parity-app/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const jwtSecret = "test-secret"

type env struct {
	db       *gorm.DB
	router   *gin.Engine
	products *repository.Products
	subs     *repository.Subscriptions
	views    *repository.Views
	checker  *access.Checker
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, middleware.RegisterValidators())

	db := testutil.NewDB(t)
	catalog := plans.NewCatalog(plans.PriceIDs{Basic: "price_basic", Standard: "price_standard", Premium: "price_premium"})
	e := &env{
		db:       db,
		products: repository.NewProducts(db, nil),
		subs:     repository.NewSubscriptions(db, nil, catalog),
		views:    repository.NewViews(db, nil),
	}
	e.checker = access.NewChecker(e.subs, e.products, e.views)

	h := NewHandler(e.products, e.checker, repository.NewCountries(db, nil))
	bh := NewBannerHandler(repository.NewBanners(db, nil), e.views, e.checker)

	r := gin.New()
	r.GET("/api/products/:id/banner", bh.GetBanner)

	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware(middleware.NewHMACVerifier(jwtSecret)))
	auth.GET("/products", h.ListProducts)
	auth.POST("/products", h.CreateProduct)
	auth.GET("/products/:id", h.GetProduct)
	auth.PUT("/products/:id", h.UpdateProduct)
	auth.DELETE("/products/:id", h.DeleteProduct)
	auth.GET("/products/:id/countries", h.GetCountryGroups)
	auth.PUT("/products/:id/countries", h.UpdateCountryDiscounts)
	auth.GET("/products/:id/customization", h.GetCustomization)
	auth.PUT("/products/:id/customization",
		middleware.RequireCapability(e.checker, access.CapabilityCustomizeBanner), h.UpdateCustomization)

	e.router = r
	return e
}

func (e *env) subscribe(t *testing.T, userID string, tier plans.Tier) {
	t.Helper()
	ctx := context.Background()
	_, err := e.subs.Create(ctx, userID, plans.TierFree)
	require.NoError(t, err)
	if tier != plans.TierFree {
		_, err = e.subs.ApplyByUserID(ctx, userID, users.State{
			Tier:                     tier,
			StripeCustomerID:         ptr("cus_" + userID),
			StripeSubscriptionID:     ptr("sub_" + userID),
			StripeSubscriptionItemID: ptr("si_" + userID),
		}, time.Now())
		require.NoError(t, err)
	}
}

func ptr[T any](v T) *T { return &v }

func (e *env) do(t *testing.T, userID, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": userID,
			"exp": time.Now().Add(time.Hour).Unix(),
		}).SignedString([]byte(jwtSecret))
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *env) countProducts(t *testing.T, userID string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&products.Product{}).Where("clerk_user_id = ?", userID).Count(&n).Error)
	return n
}

func details(i int) products.Details {
	return products.Details{Name: fmt.Sprintf("Product %d", i), URL: fmt.Sprintf("https://example.com/p%d", i)}
}

func TestCreateProduct_StopsAtTierLimit(t *testing.T) {
	e := newEnv(t)
	e.subscribe(t, "user_1", plans.TierBasic)

	for i := 0; i < 5; i++ {
		w := e.do(t, "user_1", http.MethodPost, "/products", details(i))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := e.do(t, "user_1", http.MethodPost, "/products", details(5))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "error")
	assert.EqualValues(t, 5, e.countProducts(t, "user_1"))
}

func TestCreateProduct_FreeTierAllowsOne(t *testing.T) {
	e := newEnv(t)
	e.subscribe(t, "user_1", plans.TierFree)

	assert.Equal(t, http.StatusCreated, e.do(t, "user_1", http.MethodPost, "/products", details(0)).Code)
	assert.Equal(t, http.StatusForbidden, e.do(t, "user_1", http.MethodPost, "/products", details(1)).Code)
}

func TestCreateProduct_WithoutSubscriptionIsForbidden(t *testing.T) {
	e := newEnv(t)

	assert.Equal(t, http.StatusForbidden, e.do(t, "user_1", http.MethodPost, "/products", details(0)).Code)
	assert.Zero(t, e.countProducts(t, "user_1"))
}

func TestCreateProduct_Validation(t *testing.T) {
	e := newEnv(t)
	e.subscribe(t, "user_1", plans.TierFree)

	w := e.do(t, "user_1", http.MethodPost, "/products", products.Details{Name: "x", URL: "not a url"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, http.StatusUnauthorized, e.do(t, "", http.MethodPost, "/products", details(0)).Code)
}

func createVia(t *testing.T, e *env, userID string) products.Product {
	t.Helper()
	w := e.do(t, userID, http.MethodPost, "/products", details(0))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var p products.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	return p
}

func TestProductCRUD_OwnerScoped(t *testing.T) {
	e := newEnv(t)
	e.subscribe(t, "owner", plans.TierFree)
	e.subscribe(t, "intruder", plans.TierFree)
	p := createVia(t, e, "owner")
	path := "/products/" + p.ID.String()

	assert.Equal(t, http.StatusNotFound, e.do(t, "intruder", http.MethodGet, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do(t, "intruder", http.MethodPut, path, details(9)).Code)
	assert.Equal(t, http.StatusNotFound, e.do(t, "intruder", http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do(t, "owner", http.MethodGet, "/products/not-a-uuid", nil).Code)

	assert.Equal(t, http.StatusOK, e.do(t, "owner", http.MethodPut, path, details(9)).Code)
	w := e.do(t, "owner", http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Product 9")

	w = e.do(t, "owner", http.MethodGet, "/products", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []products.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	assert.Equal(t, http.StatusOK, e.do(t, "owner", http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do(t, "owner", http.MethodGet, path, nil).Code)
}

func TestCountryDiscounts_SaveAndRemove(t *testing.T) {
	e := newEnv(t)
	e.subscribe(t, "user_1", plans.TierFree)
	groupA, groupB := testutil.SeedCountries(t, e.db)
	p := createVia(t, e, "user_1")
	path := "/products/" + p.ID.String() + "/countries"

	w := e.do(t, "user_1", http.MethodPut, path, gin.H{"groups": []gin.H{
		{"countryGroupId": groupA.ID, "coupon": "PPP40", "discountPercentage": 40},
		{"countryGroupId": groupB.ID, "coupon": "PPP10", "discountPercentage": 10},
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.do(t, "user_1", http.MethodPut, path, gin.H{"groups": []gin.H{
		{"countryGroupId": groupB.ID, "coupon": "", "discountPercentage": 0},
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.do(t, "user_1", http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var groups []repository.ProductCountryGroup
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &groups))
	require.Len(t, groups, 2)
	require.NotNil(t, groups[0].Discount)
	assert.Equal(t, "PPP40", groups[0].Discount.Coupon)
	assert.InDelta(t, 0.4, groups[0].Discount.DiscountPercentage, 1e-6)
	assert.Nil(t, groups[1].Discount)

	w = e.do(t, "user_1", http.MethodPut, path, gin.H{"groups": []gin.H{
		{"countryGroupId": groupA.ID, "coupon": "ONLY_COUPON"},
	}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, http.StatusNotFound, e.do(t, "someone", http.MethodGet, path, nil).Code)
}

func TestCountryDiscounts_RejectsUnknownAndRepeatedGroups(t *testing.T) {
	e := newEnv(t)
	e.subscribe(t, "user_1", plans.TierFree)
	groupA, _ := testutil.SeedCountries(t, e.db)
	p := createVia(t, e, "user_1")
	path := "/products/" + p.ID.String() + "/countries"

	w := e.do(t, "user_1", http.MethodPut, path, gin.H{"groups": []gin.H{
		{"countryGroupId": uuid.New(), "coupon": "PPP40", "discountPercentage": 40},
	}})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "unknown country group")

	w = e.do(t, "user_1", http.MethodPut, path, gin.H{"groups": []gin.H{
		{"countryGroupId": groupA.ID, "coupon": "PPP40", "discountPercentage": 40},
		{"countryGroupId": groupA.ID, "coupon": "PPP50", "discountPercentage": 50},
	}})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "more than once")

	var n int64
	require.NoError(t, e.db.Model(&products.CountryGroupDiscount{}).Where("product_id = ?", p.ID).Count(&n).Error)
	assert.Zero(t, n)
}

func TestCustomization_RequiresTier(t *testing.T) {
	e := newEnv(t)
	e.subscribe(t, "free", plans.TierFree)
	e.subscribe(t, "standard", plans.TierStandard)

	body := products.CustomizationInput{
		LocationMessage: "Hello {country}",
		BackgroundColor: "black",
		TextColor:       "white",
		FontSize:        "1rem",
		BannerContainer: "body",
		IsSticky:        ptr(false),
	}

	p := createVia(t, e, "free")
	w := e.do(t, "free", http.MethodPut, "/products/"+p.ID.String()+"/customization", body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	p = createVia(t, e, "standard")
	path := "/products/" + p.ID.String() + "/customization"
	require.Equal(t, http.StatusOK, e.do(t, "standard", http.MethodPut, path, body).Code)

	w = e.do(t, "standard", http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got products.ProductCustomization
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Hello {country}", got.LocationMessage)
	assert.False(t, got.IsSticky)
}

func bannerRequest(e *env, productID uuid.UUID, country, referer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/products/"+productID.String()+"/banner", nil)
	if country != "" {
		req.Header.Set(countryHeader, country)
	}
	if referer != "" {
		req.Header.Set("Referer", referer)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestBanner(t *testing.T) {
	e := newEnv(t)
	e.subscribe(t, "user_1", plans.TierBasic)
	groupA, _ := testutil.SeedCountries(t, e.db)
	p := createVia(t, e, "user_1")
	page := p.URL + "/checkout?x=1"

	assert.Equal(t, http.StatusNoContent, bannerRequest(e, p.ID, "IN", page).Code)

	_, err := e.products.UpdateCountryDiscounts(context.Background(), p.ID, "user_1",
		[]products.DiscountUpsert{{CountryGroupID: groupA.ID, Coupon: "PPP40", DiscountPercentage: 0.4}}, nil)
	require.NoError(t, err)

	w := bannerRequest(e, p.ID, "IN", page)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got bannerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 40, got.DiscountPercentage)
	assert.Equal(t, "India", got.CountryName)
	assert.Contains(t, got.Message, "<b>India</b>")
	assert.Contains(t, got.Message, "<b>40%</b>")
	assert.False(t, got.ShowBranding, "basic tier removes branding")
	assert.True(t, got.Style.IsSticky)

	n, err := e.views.CountSince(context.Background(), "user_1", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	assert.Equal(t, http.StatusNoContent, bannerRequest(e, p.ID, "DE", page).Code)
	assert.Equal(t, http.StatusNoContent, bannerRequest(e, p.ID, "", page).Code)
	assert.Equal(t, http.StatusNotFound, bannerRequest(e, p.ID, "IN", "").Code)
	assert.Equal(t, http.StatusNotFound, bannerRequest(e, p.ID, "IN", "https://other.example/").Code)
	assert.Equal(t, http.StatusNotFound, bannerRequest(e, uuid.New(), "IN", page).Code)
}

type overLimit struct{}

func (overLimit) CanShowDiscountBanner(context.Context, string, time.Time) (bool, error) {
	return false, nil
}

func (overLimit) HasCapability(context.Context, string, access.Capability) (bool, error) {
	return false, nil
}

func TestBanner_HiddenOverVisitLimit(t *testing.T) {
	e := newEnv(t)
	e.subscribe(t, "user_1", plans.TierFree)
	groupA, _ := testutil.SeedCountries(t, e.db)
	p := createVia(t, e, "user_1")
	_, err := e.products.UpdateCountryDiscounts(context.Background(), p.ID, "user_1",
		[]products.DiscountUpsert{{CountryGroupID: groupA.ID, Coupon: "PPP", DiscountPercentage: 0.5}}, nil)
	require.NoError(t, err)

	bh := NewBannerHandler(repository.NewBanners(e.db, nil), e.views, overLimit{})
	r := gin.New()
	r.GET("/api/products/:id/banner", bh.GetBanner)
	e.router = r

	assert.Equal(t, http.StatusNoContent, bannerRequest(e, p.ID, "BR", p.URL).Code)

	n, err := e.views.CountSince(context.Background(), "user_1", time.Time{})
	require.NoError(t, err)
	assert.Zero(t, n)
}
