package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"parity-app/internal/domain/access"
	"parity-app/internal/domain/products"
	"parity-app/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func signHS256(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func authRouter(v TokenVerifier) *gin.Engine {
	r := gin.New()
	r.GET("/me", AuthMiddleware(v), func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c)+"|"+c.GetString(EmailKey))
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	r := authRouter(NewHMACVerifier("secret"))

	valid := signHS256(t, "secret", jwt.MapClaims{
		"sub":   "user_1",
		"email": "a@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	expired := signHS256(t, "secret", jwt.MapClaims{"sub": "user_1", "exp": time.Now().Add(-time.Hour).Unix()})
	noSubject := signHS256(t, "secret", jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	wrongKey := signHS256(t, "other", jwt.MapClaims{"sub": "user_1"})

	tests := []struct {
		name   string
		header string
		code   int
		body   string
	}{
		{"valid", "Bearer " + valid, http.StatusOK, "user_1|a@example.com"},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"not bearer", valid, http.StatusUnauthorized, ""},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, ""},
		{"no subject", "Bearer " + noSubject, http.StatusUnauthorized, ""},
		{"wrong key", "Bearer " + wrongKey, http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.code, w.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, w.Body.String())
			}
		})
	}
}

func echoRouter(mw gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.POST("/echo", mw, func(c *gin.Context) {
		b, _ := io.ReadAll(c.Request.Body)
		c.Data(http.StatusOK, "application/json", b)
	})
	return r
}

func post(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSanitizeText(t *testing.T) {
	r := echoRouter(SanitizeText("name"))

	w := post(r, `{"name":"<script>x</script>Bob's <b>course</b>","url":"https://a.io/?a=1&b=2"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"name":"Bob's course","url":"https://a.io/?a=1&b=2"}`, w.Body.String())

	assert.Equal(t, http.StatusBadRequest, post(r, `{not json`).Code)
}

func TestSanitizeMarkupKeepsEmphasis(t *testing.T) {
	r := echoRouter(SanitizeMarkup("locationMessage"))

	w := post(r, `{"locationMessage":"Hi <b>{country}</b><img src=x onerror=alert(1)><a href=\"x\">link</a>"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"locationMessage":"Hi <b>{country}</b>link"}`, w.Body.String())
}

type fakeChecker struct {
	ok  bool
	err error
}

func (f fakeChecker) HasCapability(context.Context, string, access.Capability) (bool, error) {
	return f.ok, f.err
}

func TestRequireCapability(t *testing.T) {
	tests := []struct {
		name    string
		checker fakeChecker
		code    int
	}{
		{"granted", fakeChecker{ok: true}, http.StatusOK},
		{"denied", fakeChecker{ok: false}, http.StatusForbidden},
		{"no subscription", fakeChecker{err: repository.ErrNoSubscription}, http.StatusForbidden},
		{"store failure", fakeChecker{err: errors.New("db down")}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/x", RequireCapability(tt.checker, access.CapabilityAccessAnalytics), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestRequireCapabilityRejectsUnknownCapability(t *testing.T) {
	assert.Panics(t, func() {
		RequireCapability(fakeChecker{ok: true}, access.Capability("export_data"))
	})
}

func TestCountryDiscountRule(t *testing.T) {
	require.NoError(t, RegisterValidators())

	type form struct {
		Groups []products.CountryDiscountInput `json:"groups" binding:"required,dive"`
	}
	r := gin.New()
	r.POST("/echo", func(c *gin.Context) {
		var f form
		if err := c.ShouldBindJSON(&f); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	ok := `{"groups":[{"countryGroupId":"6f1c1f8e-2b7a-4f63-9d7c-0c1b8f2e4a11","coupon":"PPP","discountPercentage":40}]}`
	removal := `{"groups":[{"countryGroupId":"6f1c1f8e-2b7a-4f63-9d7c-0c1b8f2e4a11","coupon":""}]}`
	couponOnly := `{"groups":[{"countryGroupId":"6f1c1f8e-2b7a-4f63-9d7c-0c1b8f2e4a11","coupon":"PPP"}]}`
	tooBig := `{"groups":[{"countryGroupId":"6f1c1f8e-2b7a-4f63-9d7c-0c1b8f2e4a11","coupon":"PPP","discountPercentage":140}]}`

	assert.Equal(t, http.StatusOK, post(r, ok).Code)
	assert.Equal(t, http.StatusOK, post(r, removal).Code)
	assert.Equal(t, http.StatusBadRequest, post(r, couponOnly).Code)
	assert.Equal(t, http.StatusBadRequest, post(r, tooBig).Code)
}
