package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"librepos/internal/core/apperror"
	"librepos/internal/domain/reports"
	"librepos/internal/infrastructure/http/v1/dto"
)

// ReportsHandler handles HTTP requests for reports.
type ReportsHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service *reports.Service) *ReportsHandler {
	return &ReportsHandler{BaseHandler: base, service: service}
}

// DailyTotal handles GET /reports/daily-total?date=YYYY-MM-DD.
// Missing date defaults to today.
func (h *ReportsHandler) DailyTotal(c *gin.Context) {
	ctx := c.Request.Context()

	day := time.Now().UTC()
	if dateStr := c.Query("date"); dateStr != "" {
		parsed, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid date").WithDetail("date", dateStr))
			return
		}
		day = parsed
	}

	total, err := h.service.DailyTotal(ctx, day)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.DailyTotalResponse{
		Date:  day.Format("2006-01-02"),
		Total: total.String(),
	})
}

// SalesSummary handles GET /reports/sales-summary?from=...&to=...
func (h *ReportsHandler) SalesSummary(c *gin.Context) {
	ctx := c.Request.Context()

	from, to, err := parseDateRange(c.Query("from"), c.Query("to"))
	if err != nil {
		h.Error(c, err)
		return
	}

	summary, err := h.service.SalesSummary(ctx, from, to)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromSalesSummary(summary))
}

// Inventory handles GET /reports/inventory with optional category and
// maxStock filters.
func (h *ReportsHandler) Inventory(c *gin.Context) {
	ctx := c.Request.Context()

	filter := reports.InventoryFilter{
		Category: c.Query("category"),
	}
	if maxStock := c.Query("maxStock"); maxStock != "" {
		v := h.ParseIntQuery(c, "maxStock", 0)
		filter.MaxStock = &v
	}

	rows, err := h.service.Inventory(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := dto.FromInventoryRows(rows)
	h.OK(c, dto.ListResponse{Items: items, Count: len(items)})
}
