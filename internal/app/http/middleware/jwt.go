package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	UserIDKey = "user_id"
	EmailKey  = "email"
)

var ErrMissingSubject = errors.New("token has no subject")

// Identity is the signed-in user a session token belongs to.
type Identity struct {
	UserID string
	Email  string
}

type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (Identity, error)
}

// OIDCVerifier checks session tokens against the identity provider's JWKS.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier builds a verifier for issuer. jwksURL defaults to the
// issuer's /.well-known/jwks.json.
func NewOIDCVerifier(ctx context.Context, issuer, jwksURL string) *OIDCVerifier {
	issuer = strings.TrimSuffix(issuer, "/")
	if jwksURL == "" {
		jwksURL = issuer + "/.well-known/jwks.json"
	}
	keys := oidc.NewRemoteKeySet(ctx, jwksURL)
	return &OIDCVerifier{
		// session tokens carry no audience
		verifier: oidc.NewVerifier(issuer, keys, &oidc.Config{SkipClientIDCheck: true}),
	}
}

func (v *OIDCVerifier) Verify(ctx context.Context, raw string) (Identity, error) {
	tok, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return Identity{}, err
	}
	if tok.Subject == "" {
		return Identity{}, ErrMissingSubject
	}

	var claims struct {
		Email string `json:"email"`
	}
	_ = tok.Claims(&claims)
	return Identity{UserID: tok.Subject, Email: claims.Email}, nil
}

// HMACVerifier accepts HS256 tokens signed with a shared secret. Used for
// local development and tests.
type HMACVerifier struct {
	secret []byte
}

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret)}
}

func (v *HMACVerifier) Verify(_ context.Context, raw string) (Identity, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return Identity{}, fmt.Errorf("invalid token: %w", err)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return Identity{}, ErrMissingSubject
	}
	email, _ := claims["email"].(string)
	return Identity{UserID: sub, Email: email}, nil
}

func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header missing"})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Bearer token malformed"})
			return
		}

		id, err := verifier.Verify(c.Request.Context(), strings.TrimSpace(tokenString))
		if err != nil {
			slog.Debug("session token rejected", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(UserIDKey, id.UserID)
		if id.Email != "" {
			c.Set(EmailKey, id.Email)
		}
		c.Next()
	}
}

// UserID returns the authenticated user's id or "".
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
