package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/apperr"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/services"
)

type DashboardHandler struct {
	charts services.ChartService
}

func NewDashboardHandler(charts services.ChartService) *DashboardHandler {
	return &DashboardHandler{charts: charts}
}

func (dh *DashboardHandler) ReviewCount(c *gin.Context) {
	params, err := parseChartParams(c)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	chart, err := dh.charts.ReviewCountChart(c.Request.Context(), nil, params.ProductID, params.Window1, params.Window2, params.Granularity, params.Source)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, chart)
}

func (dh *DashboardHandler) BarChart(c *gin.Context) {
	params, err := parseChartParams(c)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	chart, err := dh.charts.BarChart(c.Request.Context(), nil, params.ProductID, params.Window1, params.Window2, params.Granularity, params.Source)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, chart)
}

func (dh *DashboardHandler) RatingChart(c *gin.Context) {
	params, err := parseChartParams(c)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	chart, err := dh.charts.RatingChart(c.Request.Context(), nil, params.ProductID, params.Window1, params.Window2, params.Granularity, params.Source)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, chart)
}

func (dh *DashboardHandler) ClusterPie(c *gin.Context) {
	params, err := parseChartParams(c)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	chart, err := dh.charts.ClusterPie(c.Request.Context(), nil, params.ProductID, params.Window1, params.Window2, params.Source)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, chart)
}

func (dh *DashboardHandler) TonalityPie(c *gin.Context) {
	params, err := parseChartParams(c)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	chart, err := dh.charts.TonalityPie(c.Request.Context(), nil, params.ProductID, params.Window1, params.Window2, params.Source)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, chart)
}

func (dh *DashboardHandler) ClusterStackedBars(c *gin.Context) {
	params, err := parseChartParams(c)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	chart, err := dh.charts.ClusterStackedBars(c.Request.Context(), nil, params.ProductID, params.Window1, params.Window2, params.Granularity, params.Source)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, chart)
}

func (dh *DashboardHandler) TonalityStackedBars(c *gin.Context) {
	params, err := parseChartParams(c)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	chart, err := dh.charts.TonalityStackedBars(c.Request.Context(), nil, params.ProductID, params.Window1, params.Window2, params.Granularity, params.Source)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, chart)
}

func (dh *DashboardHandler) ChangeChart(c *gin.Context) {
	productID, err := requiredQueryInt64(c, "product_id")
	if err != nil {
		RespondAppError(c, err)
		return
	}
	granularity := c.DefaultQuery("aggregation_type", services.GranularityMonth)
	if !services.ValidGranularity(granularity) {
		RespondAppError(c, fmt.Errorf("%w: aggregation_type %q", apperr.ErrBadRequest, granularity))
		return
	}
	window, err := parseWindow(c, "start_date", "end_date", granularity)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	chart, err := dh.charts.ChangeChart(c.Request.Context(), nil, productID, window, granularity, optionalQuery(c, "source"))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, chart)
}

func (dh *DashboardHandler) SmallBars(c *gin.Context) {
	productID, err := requiredQueryInt64(c, "product_id")
	if err != nil {
		RespondAppError(c, err)
		return
	}
	window, err := parseWindow(c, "start_date", "end_date", services.GranularityDay)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	charts, err := dh.charts.SmallBars(c.Request.Context(), nil, productID, window, optionalQuery(c, "source"))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	if charts == nil {
		charts = []services.SmallBarChart{}
	}
	RespondOK(c, gin.H{"charts": charts})
}
