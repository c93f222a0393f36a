package policy

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/itqan-erp/procurement-api/internal/domain"
)

// QuantityExceededError is returned when a receipt line would push a purchase
// order line past its ordered quantity.
type QuantityExceededError struct {
	ItemID    uuid.UUID
	Requested float64
	Remaining float64
}

func (e *QuantityExceededError) Error() string {
	return fmt.Sprintf("item %s: requested %.2f exceeds remaining %.2f", e.ItemID, e.Requested, e.Remaining)
}

// UnknownItemError is returned when a receipt line names an item that is not
// on the purchase order.
type UnknownItemError struct {
	ItemID uuid.UUID
}

func (e *UnknownItemError) Error() string {
	return fmt.Sprintf("item %s is not on the purchase order", e.ItemID)
}

// ApplyReceipt validates every receipt line against the order and, only if
// all of them fit, increments the received quantities in place. A receipt is
// all-or-nothing: one failing line rejects the whole receipt and no line is
// mutated.
func ApplyReceipt(order *domain.PurchaseOrder, lines []domain.ReceiptLine) error {
	byItem := make(map[uuid.UUID]*domain.POLine, len(order.Lines))
	for i := range order.Lines {
		byItem[order.Lines[i].ItemID] = &order.Lines[i]
	}

	// Validate first so a late failure leaves earlier lines untouched.
	// Duplicate items within one receipt accumulate against the same line.
	incoming := make(map[uuid.UUID]float64, len(lines))
	for _, rl := range lines {
		poLine, ok := byItem[rl.ItemID]
		if !ok {
			return &UnknownItemError{ItemID: rl.ItemID}
		}
		incoming[rl.ItemID] += rl.Quantity
		if poLine.ReceivedQuantity+incoming[rl.ItemID] > poLine.Quantity {
			return &QuantityExceededError{
				ItemID:    rl.ItemID,
				Requested: incoming[rl.ItemID],
				Remaining: poLine.Remaining(),
			}
		}
	}

	for itemID, qty := range incoming {
		byItem[itemID].ReceivedQuantity += qty
	}
	order.Status = DeriveOrderStatus(order)
	return nil
}

// DeriveOrderStatus recomputes the order status from the full set of lines.
// Fully received on every line means RECEIVED, anything received at all
// means PARTIALLY_RECEIVED, otherwise the current status stands.
func DeriveOrderStatus(order *domain.PurchaseOrder) domain.POStatus {
	allReceived := len(order.Lines) > 0
	anyReceived := false
	for i := range order.Lines {
		l := &order.Lines[i]
		if l.ReceivedQuantity > 0 {
			anyReceived = true
		}
		if l.ReceivedQuantity < l.Quantity {
			allReceived = false
		}
	}
	switch {
	case allReceived:
		return domain.POStatusReceived
	case anyReceived:
		return domain.POStatusPartiallyReceived
	default:
		return order.Status
	}
}
