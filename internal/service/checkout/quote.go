package checkout

import (
	"foodorder/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	defaultTaxRate     = decimal.RequireFromString("0.08")
	defaultDeliveryFee = decimal.RequireFromString("2.99")
)

// Quote is the price breakdown shown before placing an order. Only Subtotal
// is stored on the order.
type Quote struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	Tax         decimal.Decimal `json:"tax"`
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
	Total       decimal.Decimal `json:"total"`
	ItemCount   int             `json:"itemCount"`
}

// Quote prices a set of line items.
func (s *Service) Quote(items []domain.LineItem) Quote {
	subtotal := domain.SumLineItems(items)
	tax := subtotal.Mul(s.taxRate).Round(2)
	count := 0
	for _, li := range items {
		count += li.Quantity
	}
	return Quote{
		Subtotal:    subtotal,
		Tax:         tax,
		DeliveryFee: s.deliveryFee,
		Total:       subtotal.Add(tax).Add(s.deliveryFee),
		ItemCount:   count,
	}
}
