package order

import "github.com/commercekit/service-layer/internal/app/domain/audit"

// Status tracks an order's payment state.
type Status string

const (
	StatusAwaitingPayment Status = "AWAITING_PAYMENT"
	StatusPaid            Status = "PAID"
	StatusNotPaid         Status = "NOT_PAID"
)

// Statuses lists every valid order status.
var Statuses = []Status{StatusAwaitingPayment, StatusPaid, StatusNotPaid}

// Order aggregates items bought by a customer. TotalValue is computed
// server-side from the item totals.
type Order struct {
	audit.Fields
	CustomerID       string `json:"customerId"`
	PaymentProfileID string `json:"paymentProfileId"`
	Status           Status `json:"status"`
	TotalValue       int64  `json:"totalValue"`
	Items            []Item `json:"orderItems,omitempty"`
}

// Item is one product line of an order. UnitValue snapshots the product price
// at order time.
type Item struct {
	audit.Fields
	OrderID    string `json:"orderId"`
	ProductID  string `json:"productId"`
	Quantity   int    `json:"quantity"`
	UnitValue  int64  `json:"unitValue"`
	TotalValue int64  `json:"totalValue"`
}

// Reference renders the record for unique/exists checks.
func (o Order) Reference() map[string]any {
	ref := o.Fields.Reference()
	ref["customerId"] = o.CustomerID
	ref["paymentProfileId"] = o.PaymentProfileID
	ref["status"] = string(o.Status)
	ref["totalValue"] = o.TotalValue
	return ref
}

// Reference renders the item for unique/exists checks.
func (i Item) Reference() map[string]any {
	ref := i.Fields.Reference()
	ref["orderId"] = i.OrderID
	ref["productId"] = i.ProductID
	ref["quantity"] = i.Quantity
	return ref
}
