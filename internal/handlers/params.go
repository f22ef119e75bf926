package handlers

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/apperr"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/services"
)

// optionalQuery returns nil for absent or empty query params.
func optionalQuery(c *gin.Context, key string) *string {
	v := c.Query(key)
	if v == "" {
		return nil
	}
	return &v
}

func requiredQueryInt64(c *gin.Context, key string) (int64, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, fmt.Errorf("%w: missing %s", apperr.ErrBadRequest, key)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s", apperr.ErrBadRequest, key)
	}
	return v, nil
}

func queryIntDefault(c *gin.Context, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s", apperr.ErrBadRequest, key)
	}
	return v, nil
}

// parseWindow reads one inclusive date window from the query string.
func parseWindow(c *gin.Context, startKey, endKey, granularity string) (services.Window, error) {
	rawStart := c.Query(startKey)
	rawEnd := c.Query(endKey)
	if rawStart == "" || rawEnd == "" {
		return services.Window{}, fmt.Errorf("%w: %s and %s are required", apperr.ErrBadRequest, startKey, endKey)
	}
	start, err := services.ParseWindowDate(rawStart, granularity, false)
	if err != nil {
		return services.Window{}, err
	}
	end, err := services.ParseWindowDate(rawEnd, granularity, true)
	if err != nil {
		return services.Window{}, err
	}
	if start.After(end) {
		return services.Window{}, fmt.Errorf("%w: %s after %s", apperr.ErrBadRequest, startKey, endKey)
	}
	return services.Window{Start: start, End: end}, nil
}

// chartParams is the common query surface of the dashboard endpoints.
type chartParams struct {
	ProductID   int64
	Window1     services.Window
	Window2     services.Window
	Granularity string
	Source      *string
}

func parseChartParams(c *gin.Context) (*chartParams, error) {
	productID, err := requiredQueryInt64(c, "product_id")
	if err != nil {
		return nil, err
	}

	granularity := c.DefaultQuery("aggregation_type", services.GranularityMonth)
	if !services.ValidGranularity(granularity) {
		return nil, fmt.Errorf("%w: aggregation_type %q", apperr.ErrBadRequest, granularity)
	}

	w1, err := parseWindow(c, "start_date1", "end_date1", granularity)
	if err != nil {
		return nil, err
	}
	w2, err := parseWindow(c, "start_date2", "end_date2", granularity)
	if err != nil {
		return nil, err
	}

	return &chartParams{
		ProductID:   productID,
		Window1:     w1,
		Window2:     w2,
		Granularity: granularity,
		Source:      optionalQuery(c, "source"),
	}, nil
}

// userID reads the acting user from the X-User-ID header or user_id query.
func userID(c *gin.Context) (int64, error) {
	raw := c.GetHeader("X-User-ID")
	if raw == "" {
		raw = c.Query("user_id")
	}
	if raw == "" {
		return 0, fmt.Errorf("%w: missing user id", apperr.ErrBadRequest)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid user id", apperr.ErrBadRequest)
	}
	return id, nil
}
