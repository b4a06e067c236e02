package provider

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"

	"settlement-service/internal/domain"
)

// OrderStatusCompleted is the only capture status the ledger accepts.
// Anything else is treated as a rejected capture.
const OrderStatusCompleted = "COMPLETED"

// CaptureResult is the outcome of capturing an authorized order at the
// gateway. RawResponse is the gateway's payload kept opaque; its schema is
// owned by the gateway and must not constrain our types.
type CaptureResult struct {
	OrderID     string          `json:"order_id"`
	Status      string          `json:"status"`
	PayerID     *string         `json:"payer_id,omitempty"`
	PayerEmail  *string         `json:"payer_email,omitempty"`
	PayerName   *string         `json:"payer_name,omitempty"`
	RawResponse json.RawMessage `json:"raw_response,omitempty"`
}

// Completed reports whether the capture actually went through.
func (r *CaptureResult) Completed() bool {
	return r.Status == OrderStatusCompleted
}

// OrderDetails is the charged amount of an order as the gateway reports it.
type OrderDetails struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency domain.Currency `json:"currency"`
}

// Gateway is the payment-gateway contract the settlement flow consumes.
type Gateway interface {
	Name() string
	CaptureOrder(ctx context.Context, orderID string) (*CaptureResult, error)
	GetOrderDetails(ctx context.Context, orderID string) (*OrderDetails, error)
}
