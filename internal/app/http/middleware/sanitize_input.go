package middleware

import (
	"bytes"
	"encoding/json"
	"html"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
)

// BannerPolicy keeps the inline emphasis tags banner messages are written with.
func BannerPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("b", "strong", "i", "em")
	return p
}

// SanitizeText strips all markup from the named top-level JSON string fields,
// or from every top-level string field when none are named.
func SanitizeText(fields ...string) gin.HandlerFunc {
	policy := bluemonday.StrictPolicy()
	return sanitizeJSON(func(s string) string {
		return html.UnescapeString(policy.Sanitize(s))
	}, fields)
}

// SanitizeMarkup cleans the named fields with BannerPolicy. The result is HTML.
func SanitizeMarkup(fields ...string) gin.HandlerFunc {
	policy := BannerPolicy()
	return sanitizeJSON(policy.Sanitize, fields)
}

func sanitizeJSON(clean func(string) string, fields []string) gin.HandlerFunc {
	only := make(map[string]bool, len(fields))
	for _, f := range fields {
		only[f] = true
	}

	return func(c *gin.Context) {
		// Only for JSON bodies
		if c.Request.Method != http.MethodPost &&
			c.Request.Method != http.MethodPut &&
			c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		buf, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid body"})
			return
		}
		var body map[string]interface{}
		if err := json.Unmarshal(buf, &body); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Malformed JSON"})
			return
		}

		for k, v := range body {
			if len(only) > 0 && !only[k] {
				continue
			}
			if str, ok := v.(string); ok {
				body[k] = clean(str)
			}
		}

		newBody, _ := json.Marshal(body)
		c.Request.Body = io.NopCloser(bytes.NewBuffer(newBody))
		c.Request.ContentLength = int64(len(newBody))

		c.Next()
	}
}
