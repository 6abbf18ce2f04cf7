package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PlaceholderImageURL is used for menu items created without an image.
const PlaceholderImageURL = "https://via.placeholder.com/300.png?text=No+Image"

type MenuItem struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"ownerId"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"imageUrl"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// LineItem is one product entry in a cart or an order snapshot.
type LineItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	ImageURL  string          `json:"imageUrl,omitempty"`
	OwnerID   string          `json:"ownerId,omitempty"`
}

func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// LineItemFromMenu snapshots a menu item into a line item of the given quantity.
func LineItemFromMenu(item MenuItem, quantity int) LineItem {
	return LineItem{
		ProductID: item.ID,
		Name:      item.Name,
		UnitPrice: item.Price,
		Quantity:  quantity,
		ImageURL:  item.ImageURL,
		OwnerID:   item.OwnerID,
	}
}

// SumLineItems returns Σ unit price × quantity.
func SumLineItems(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, li := range items {
		total = total.Add(li.Subtotal())
	}
	return total
}
