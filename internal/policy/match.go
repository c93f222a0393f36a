package policy

import (
	"fmt"
	"math"

	"github.com/itqan-erp/procurement-api/internal/domain"
)

// MatchResult is the verdict of a three-way match run.
type MatchResult struct {
	Status   domain.InvoiceStatus
	GRNValue float64
	Variance float64
	Details  string
}

// Matcher compares an invoice against the received value of its purchase
// order. Tolerance is the absolute variance, in order currency, still
// considered a match.
type Matcher struct {
	Tolerance float64
}

// NewMatcher returns a Matcher with the given variance tolerance.
func NewMatcher(tolerance float64) *Matcher {
	return &Matcher{Tolerance: tolerance}
}

// Match performs the three-way comparison: ordered prices, received
// quantities, invoiced amount. The GRN value is the worth of goods actually
// received, received quantity times ordered price summed over every order
// line. Variance is signed (invoice minus GRN); the tolerance applies to its
// magnitude. Matching is deterministic and idempotent, rerunning on an
// unchanged order and invoice yields the same verdict.
func (m *Matcher) Match(order *domain.PurchaseOrder, invoice *domain.Invoice) MatchResult {
	var grnValue float64
	for i := range order.Lines {
		grnValue += order.Lines[i].ReceivedQuantity * order.Lines[i].Price
	}
	variance := invoice.TotalAmount - grnValue

	res := MatchResult{GRNValue: grnValue, Variance: variance}
	if math.Abs(variance) <= m.Tolerance {
		res.Status = domain.InvoiceStatusMatched
		res.Details = fmt.Sprintf("Success. Variance: %.2f (within limit). GRN Value: %v", variance, grnValue)
	} else {
		res.Status = domain.InvoiceStatusMismatch
		res.Details = fmt.Sprintf("Failed. Invoice: %v, GRN Value: %v. Variance: %.2f", invoice.TotalAmount, grnValue, variance)
	}
	return res
}
