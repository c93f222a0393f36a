package policy

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itqan-erp/procurement-api/internal/domain"
)

func orderWithLines(lines ...domain.POLine) *domain.PurchaseOrder {
	return &domain.PurchaseOrder{
		Status: domain.POStatusApproved,
		Lines:  lines,
	}
}

func TestApplyReceipt_PartialThenFull(t *testing.T) {
	itemA := uuid.New()
	itemB := uuid.New()
	order := orderWithLines(
		domain.POLine{ItemID: itemA, Quantity: 100, Price: 10},
		domain.POLine{ItemID: itemB, Quantity: 50, Price: 20},
	)

	err := ApplyReceipt(order, []domain.ReceiptLine{
		{ItemID: itemA, Quantity: 60},
	})
	require.NoError(t, err)
	assert.Equal(t, 60.0, order.Lines[0].ReceivedQuantity)
	assert.Equal(t, domain.POStatusPartiallyReceived, order.Status)

	err = ApplyReceipt(order, []domain.ReceiptLine{
		{ItemID: itemA, Quantity: 40},
		{ItemID: itemB, Quantity: 50},
	})
	require.NoError(t, err)
	assert.Equal(t, 100.0, order.Lines[0].ReceivedQuantity)
	assert.Equal(t, 50.0, order.Lines[1].ReceivedQuantity)
	assert.Equal(t, domain.POStatusReceived, order.Status)
}

func TestApplyReceipt_OverReceiptRejected(t *testing.T) {
	itemA := uuid.New()
	order := orderWithLines(domain.POLine{ItemID: itemA, Quantity: 100, ReceivedQuantity: 80})

	err := ApplyReceipt(order, []domain.ReceiptLine{{ItemID: itemA, Quantity: 21}})
	require.Error(t, err)

	var exceeded *QuantityExceededError
	require.True(t, errors.As(err, &exceeded))
	assert.Equal(t, itemA, exceeded.ItemID)
	assert.Equal(t, 21.0, exceeded.Requested)
	assert.Equal(t, 20.0, exceeded.Remaining)

	// Nothing was applied.
	assert.Equal(t, 80.0, order.Lines[0].ReceivedQuantity)
}

func TestApplyReceipt_ExactRemainderAccepted(t *testing.T) {
	itemA := uuid.New()
	order := orderWithLines(domain.POLine{ItemID: itemA, Quantity: 100, ReceivedQuantity: 80})

	err := ApplyReceipt(order, []domain.ReceiptLine{{ItemID: itemA, Quantity: 20}})
	require.NoError(t, err)
	assert.Equal(t, 100.0, order.Lines[0].ReceivedQuantity)
	assert.Equal(t, domain.POStatusReceived, order.Status)
}

func TestApplyReceipt_AllOrNothing(t *testing.T) {
	itemA := uuid.New()
	itemB := uuid.New()
	order := orderWithLines(
		domain.POLine{ItemID: itemA, Quantity: 100},
		domain.POLine{ItemID: itemB, Quantity: 10},
	)

	// Second line overshoots, so the valid first line must not be applied.
	err := ApplyReceipt(order, []domain.ReceiptLine{
		{ItemID: itemA, Quantity: 50},
		{ItemID: itemB, Quantity: 11},
	})
	require.Error(t, err)
	assert.Equal(t, 0.0, order.Lines[0].ReceivedQuantity)
	assert.Equal(t, 0.0, order.Lines[1].ReceivedQuantity)
	assert.Equal(t, domain.POStatusApproved, order.Status)
}

func TestApplyReceipt_DuplicateItemLinesAccumulate(t *testing.T) {
	itemA := uuid.New()
	order := orderWithLines(domain.POLine{ItemID: itemA, Quantity: 100})

	err := ApplyReceipt(order, []domain.ReceiptLine{
		{ItemID: itemA, Quantity: 60},
		{ItemID: itemA, Quantity: 50},
	})
	require.Error(t, err)
	assert.Equal(t, 0.0, order.Lines[0].ReceivedQuantity)
}

func TestApplyReceipt_UnknownItemRejected(t *testing.T) {
	order := orderWithLines(domain.POLine{ItemID: uuid.New(), Quantity: 100})

	stranger := uuid.New()
	err := ApplyReceipt(order, []domain.ReceiptLine{{ItemID: stranger, Quantity: 1}})
	require.Error(t, err)

	var unknown *UnknownItemError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, stranger, unknown.ItemID)
}

func TestDeriveOrderStatus_NothingReceivedKeepsStatus(t *testing.T) {
	order := orderWithLines(domain.POLine{ItemID: uuid.New(), Quantity: 10})
	order.Status = domain.POStatusSentToSupplier
	assert.Equal(t, domain.POStatusSentToSupplier, DeriveOrderStatus(order))
}
