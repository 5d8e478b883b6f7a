package users

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"parity-app/internal/app/http/middleware"
	"parity-app/internal/domain/access"
	"parity-app/internal/domain/plans"
	domainusers "parity-app/internal/domain/users"
	"parity-app/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type subsStub map[string]*domainusers.UserSubscription

func (s subsStub) Get(_ context.Context, userID string) (*domainusers.UserSubscription, error) {
	if sub, ok := s[userID]; ok {
		return sub, nil
	}
	return nil, repository.ErrNoSubscription
}

func TestGetCurrentUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	catalog := plans.NewCatalog(plans.PriceIDs{Basic: "b", Standard: "s", Premium: "p"})
	h := NewHandler(catalog, subsStub{"user_1": {ClerkUserID: "user_1", Tier: plans.TierStandard}})

	r := gin.New()
	r.GET("/me", func(c *gin.Context) {
		c.Set(middleware.UserIDKey, c.GetHeader("X-User"))
		c.Set(middleware.EmailKey, "a@example.com")
	}, h.GetCurrentUser)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("X-User", "user_1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var me MeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, "a@example.com", me.User.Email)
	assert.Equal(t, "Standard", me.Billing.Tier)
	assert.False(t, me.Billing.HasSubscription)
	assert.ElementsMatch(t, []access.Capability{
		access.CapabilityRemoveBranding, access.CapabilityCustomizeBanner, access.CapabilityAccessAnalytics,
	}, me.Access.Capabilities)
	assert.EqualValues(t, 30, me.Access.MaxNumberOfProducts)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("X-User", "ghost")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
