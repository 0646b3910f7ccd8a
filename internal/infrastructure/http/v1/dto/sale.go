package dto

import (
	"time"

	"librepos/internal/core/apperror"
	"librepos/internal/core/id"
	"librepos/internal/domain/sale"
)

// CreateSaleLineRequest is one basket line in a sale request.
type CreateSaleLineRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
}

// CreateSaleRequest for placing a sale.
type CreateSaleRequest struct {
	PaymentMethod string                  `json:"paymentMethod" binding:"required"`
	Timestamp     *time.Time              `json:"timestamp"`
	Lines         []CreateSaleLineRequest `json:"lines" binding:"required"`
}

// ToServiceRequest maps the DTO to the domain request.
func (r CreateSaleRequest) ToServiceRequest() (sale.PlaceSaleRequest, error) {
	req := sale.PlaceSaleRequest{
		PaymentMethod: r.PaymentMethod,
	}
	if r.Timestamp != nil {
		req.Timestamp = *r.Timestamp
	}

	for i, line := range r.Lines {
		productID, err := id.Parse(line.ProductID)
		if err != nil {
			return req, apperror.NewValidation("invalid product id").
				WithDetail("lineNo", i+1).
				WithDetail("productId", line.ProductID)
		}
		req.Lines = append(req.Lines, sale.LineRequest{
			ProductID: productID,
			Quantity:  line.Quantity,
		})
	}

	return req, nil
}

// SaleLineResponse is one line of a persisted sale.
type SaleLineResponse struct {
	ID          string `json:"id"`
	LineNo      int    `json:"lineNo"`
	ProductID   string `json:"productId"`
	ProductName string `json:"productName,omitempty"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unitPrice"`
	Subtotal    string `json:"subtotal"`
}

// SaleResponse is a persisted sale.
type SaleResponse struct {
	ID            string             `json:"id"`
	Number        string             `json:"number"`
	Timestamp     time.Time          `json:"timestamp"`
	Total         string             `json:"total"`
	PaymentMethod string             `json:"paymentMethod"`
	Lines         []SaleLineResponse `json:"lines"`
}

// FromSale creates SaleResponse from a sale.
func FromSale(s *sale.Sale) SaleResponse {
	resp := SaleResponse{
		ID:            s.ID.String(),
		Number:        s.Number,
		Timestamp:     s.Timestamp,
		Total:         s.Total.String(),
		PaymentMethod: s.PaymentMethod,
		Lines:         make([]SaleLineResponse, 0, len(s.Lines)),
	}

	for _, line := range s.Lines {
		lr := SaleLineResponse{
			ID:        line.ID.String(),
			LineNo:    line.LineNo,
			ProductID: line.ProductID.String(),
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice.String(),
			Subtotal:  line.Subtotal().String(),
		}
		if line.Product != nil {
			lr.ProductName = line.Product.Name
		}
		resp.Lines = append(resp.Lines, lr)
	}

	return resp
}

// FromSales creates a slice of SaleResponse.
func FromSales(sales []*sale.Sale) []SaleResponse {
	out := make([]SaleResponse, 0, len(sales))
	for _, s := range sales {
		out = append(out, FromSale(s))
	}
	return out
}
