package analyticsapi

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"parity-app/internal/app/http/middleware"
	"parity-app/internal/repository"

	"github.com/gin-gonic/gin"
)

const (
	defaultDays = 30
	maxDays     = 365
)

type ViewStats interface {
	ViewsByDay(ctx context.Context, userID string, since, until time.Time) ([]repository.DailyViews, error)
	ViewsByCountry(ctx context.Context, userID string, since time.Time) ([]repository.CountryViews, error)
}

type Handler struct {
	views ViewStats
	now   func() time.Time
}

func NewHandler(views ViewStats) *Handler {
	return &Handler{views: views, now: time.Now}
}

// GetViews reports banner views of the last ?days days (today included).
func (h *Handler) GetViews(c *gin.Context) {
	days := defaultDays
	if s := c.Query("days"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxDays {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be between 1 and 365"})
			return
		}
		days = n
	}

	now := h.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	since := today.AddDate(0, 0, -(days - 1))
	until := today.AddDate(0, 0, 1)

	ctx := c.Request.Context()
	userID := middleware.UserID(c)

	daily, err := h.views.ViewsByDay(ctx, userID, since, until)
	if err != nil {
		serverError(c, err)
		return
	}
	byCountry, err := h.views.ViewsByCountry(ctx, userID, since)
	if err != nil {
		serverError(c, err)
		return
	}

	var total int64
	for _, d := range daily {
		total += d.Views
	}
	c.JSON(http.StatusOK, gin.H{
		"total":     total,
		"daily":     daily,
		"byCountry": byCountry,
	})
}

func serverError(c *gin.Context, err error) {
	slog.Error("failed to load analytics", "error", err)
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load analytics"})
}
