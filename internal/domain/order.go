package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus int

const (
	OrderPending OrderStatus = iota + 1
	OrderConfirmed
	OrderPreparing
	OrderReady
	OrderDelivered
	OrderCancelled
)

var orderStatusNames = map[OrderStatus]string{
	OrderPending:   "pending",
	OrderConfirmed: "confirmed",
	OrderPreparing: "preparing",
	OrderReady:     "ready",
	OrderDelivered: "delivered",
	OrderCancelled: "cancelled",
}

// OrderStatuses lists every status in workflow order.
var OrderStatuses = []OrderStatus{
	OrderPending, OrderConfirmed, OrderPreparing, OrderReady, OrderDelivered, OrderCancelled,
}

func (s OrderStatus) String() string {
	if name, ok := orderStatusNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s OrderStatus) Valid() bool {
	_, ok := orderStatusNames[s]
	return ok
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	for status, name := range orderStatusNames {
		if name == s {
			return status, nil
		}
	}
	return 0, fmt.Errorf("unknown order status %q", s)
}

func (s OrderStatus) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid order status %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *OrderStatus) UnmarshalText(b []byte) error {
	parsed, err := ParseOrderStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

type Order struct {
	ID             string          `json:"id"`
	CustomerID     string          `json:"customerId"`
	Items          []LineItem      `json:"items"`
	Total          decimal.Decimal `json:"total"`
	Status         OrderStatus     `json:"status"`
	IdempotencyKey string          `json:"-"`
	CreatedAt      time.Time       `json:"timestamp"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// ItemsForOwner returns the lines that belong to one restaurant owner.
func (o Order) ItemsForOwner(ownerID string) []LineItem {
	var out []LineItem
	for _, li := range o.Items {
		if li.OwnerID == ownerID {
			out = append(out, li)
		}
	}
	return out
}

func (o Order) HasOwner(ownerID string) bool {
	for _, li := range o.Items {
		if li.OwnerID == ownerID {
			return true
		}
	}
	return false
}

// OwnerIDs returns the distinct owners referenced by the order, in item order.
func (o Order) OwnerIDs() []string {
	seen := make(map[string]struct{}, len(o.Items))
	var out []string
	for _, li := range o.Items {
		if li.OwnerID == "" {
			continue
		}
		if _, ok := seen[li.OwnerID]; ok {
			continue
		}
		seen[li.OwnerID] = struct{}{}
		out = append(out, li.OwnerID)
	}
	return out
}
