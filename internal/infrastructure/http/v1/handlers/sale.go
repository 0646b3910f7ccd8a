package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"librepos/internal/core/apperror"
	"librepos/internal/core/id"
	"librepos/internal/domain/sale"
	"librepos/internal/infrastructure/http/v1/dto"
)

// SaleHandler handles HTTP requests for sales.
type SaleHandler struct {
	*BaseHandler
	service *sale.Service
}

// NewSaleHandler creates a new sale handler.
func NewSaleHandler(base *BaseHandler, service *sale.Service) *SaleHandler {
	return &SaleHandler{BaseHandler: base, service: service}
}

// Create handles POST /sales - place a new sale.
//
// A stock adjustment failure after commit still returns the persisted
// sale, with 201 downgraded to the adjustment error so the client
// knows the stock bookkeeping needs attention.
func (h *SaleHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	serviceReq, err := req.ToServiceRequest()
	if err != nil {
		h.Error(c, err)
		return
	}

	placed, err := h.service.PlaceSale(ctx, serviceReq)
	if err != nil {
		if apperror.IsStockAdjustment(err) && placed != nil {
			appErr, _ := apperror.AsAppError(err)
			c.JSON(appErr.HTTPStatus, gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
				"details": appErr.Details,
				"sale":    dto.FromSale(placed),
			})
			return
		}
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromSale(placed))
}

// Get handles GET /sales/:id.
func (h *SaleHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	saleID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	found, err := h.service.GetByID(ctx, saleID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromSale(found))
}

// List handles GET /sales - all sales, or a date range when from/to
// query parameters are present.
func (h *SaleHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	fromStr := c.Query("from")
	toStr := c.Query("to")

	var (
		sales []*sale.Sale
		err   error
	)

	if fromStr != "" || toStr != "" {
		from, to, parseErr := parseDateRange(fromStr, toStr)
		if parseErr != nil {
			h.Error(c, parseErr)
			return
		}
		sales, err = h.service.ListByDateRange(ctx, from, to)
	} else {
		sales, err = h.service.ListAll(ctx)
	}

	if err != nil {
		h.Error(c, err)
		return
	}

	items := dto.FromSales(sales)
	h.OK(c, dto.ListResponse{Items: items, Count: len(items)})
}

// Update handles PUT /sales/:id - always rejected, sales are append-only.
func (h *SaleHandler) Update(c *gin.Context) {
	h.Error(c, h.service.Update(c.Request.Context(), nil))
}

// Delete handles DELETE /sales/:id - always rejected, sales are append-only.
func (h *SaleHandler) Delete(c *gin.Context) {
	h.Error(c, h.service.Delete(c.Request.Context(), id.Nil()))
}

// parseDateRange parses from/to query values. Dates accept RFC 3339 or
// plain YYYY-MM-DD; a bare date expands to the whole day.
func parseDateRange(fromStr, toStr string) (time.Time, time.Time, error) {
	from, err := parseDateParam(fromStr, false)
	if err != nil {
		return time.Time{}, time.Time{}, apperror.NewValidation("invalid from date").
			WithDetail("from", fromStr)
	}

	to, err := parseDateParam(toStr, true)
	if err != nil {
		return time.Time{}, time.Time{}, apperror.NewValidation("invalid to date").
			WithDetail("to", toStr)
	}

	if to.Before(from) {
		return time.Time{}, time.Time{}, apperror.NewValidation("from must not be after to")
	}

	return from, to, nil
}

func parseDateParam(s string, endOfDay bool) (time.Time, error) {
	if s == "" {
		if endOfDay {
			return time.Now().UTC(), nil
		}
		return time.Time{}, nil
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}

	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
