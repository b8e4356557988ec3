// Package allocation recomputes the derived tax and net fields on
// payment entry reference rows.
//
// Deductions are apportioned in two steps: the document's total
// deductions are split across invoice groups by allocated-amount share,
// then each group's share is split across its rows the same way. The
// sum of row deductions always equals the total deductions (up to
// rounding), so nothing is lost or double-counted.
package allocation

import (
	"context"
	"errors"
	"math"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/netcontrib/internal/paymententry/domain"
)

// ErrRowOutOfRange is returned when a scoped recompute targets a row
// index the entry does not have.
var ErrRowOutOfRange = errors.New("reference row index out of range")

// Invoice carries the tax basis of a referenced sales invoice.
type Invoice struct {
	GrandTotal           float64
	TotalTaxesAndCharges float64
}

// TaxRatio returns taxes/grand_total, or 0 when the invoice has no total.
func (i *Invoice) TaxRatio() decimal.Decimal {
	if i == nil || i.GrandTotal <= 0 || !isFinite(i.GrandTotal) {
		return decimal.Zero
	}
	return fromAmount(i.TotalTaxesAndCharges).Div(decimal.NewFromFloat(i.GrandTotal))
}

// InvoiceLookup resolves a referenced invoice. A nil invoice with nil
// error means not found; lookup failures are non-fatal and degrade to
// zero tax.
type InvoiceLookup func(ctx context.Context, referenceID string) (*Invoice, error)

// TotalDeductions sums the deduction rows. Non-finite amounts count as 0.
func TotalDeductions(entry *domain.PaymentEntry) float64 {
	total := decimal.Zero
	for _, d := range entry.Deductions {
		total = total.Add(fromAmount(d.Amount))
	}
	f, _ := total.Float64()
	return f
}

// TotalAllocated sums the allocated amount over all reference rows.
func TotalAllocated(entry *domain.PaymentEntry) float64 {
	total := decimal.Zero
	for _, r := range entry.References {
		total = total.Add(fromAmount(r.AllocatedAmount))
	}
	f, _ := total.Float64()
	return f
}

// Compute recalculates the derived fields on every sales invoice
// reference row of the entry, in place. Rows referencing other
// document types are left untouched.
func Compute(ctx context.Context, entry *domain.PaymentEntry, lookup InvoiceLookup) {
	totals := newTotals(entry)
	for _, group := range groupByInvoice(entry) {
		computeGroup(ctx, entry, group, totals, lookup)
	}
	entry.TotalAllocated = TotalAllocated(entry)
}

// ComputeRow recalculates the derived fields for the single row at
// idx, scoped to that row's invoice group. It produces the same values
// the full Compute would for that row.
func ComputeRow(ctx context.Context, entry *domain.PaymentEntry, idx int, lookup InvoiceLookup) error {
	if idx < 0 || idx >= len(entry.References) {
		return ErrRowOutOfRange
	}
	row := entry.References[idx]
	if !row.IsSalesInvoice() {
		return nil
	}

	totals := newTotals(entry)
	group := make([]int, 0, 2)
	for i, r := range entry.References {
		if r.IsSalesInvoice() && r.ReferenceID == row.ReferenceID {
			group = append(group, i)
		}
	}
	computeGroup(ctx, entry, group, totals, lookup)
	entry.TotalAllocated = TotalAllocated(entry)
	return nil
}

type totals struct {
	deductions decimal.Decimal
	allocated  decimal.Decimal
}

func newTotals(entry *domain.PaymentEntry) totals {
	return totals{
		deductions: decimal.NewFromFloat(TotalDeductions(entry)),
		allocated:  decimal.NewFromFloat(TotalAllocated(entry)),
	}
}

// groupByInvoice collects the indices of sales invoice rows keyed by
// invoice, preserving first-seen order.
func groupByInvoice(entry *domain.PaymentEntry) [][]int {
	order := make([]string, 0, len(entry.References))
	groups := make(map[string][]int, len(entry.References))
	for i, r := range entry.References {
		if !r.IsSalesInvoice() {
			continue
		}
		if _, seen := groups[r.ReferenceID]; !seen {
			order = append(order, r.ReferenceID)
		}
		groups[r.ReferenceID] = append(groups[r.ReferenceID], i)
	}
	out := make([][]int, 0, len(order))
	for _, id := range order {
		out = append(out, groups[id])
	}
	return out
}

func computeGroup(ctx context.Context, entry *domain.PaymentEntry, group []int, t totals, lookup InvoiceLookup) {
	if len(group) == 0 {
		return
	}

	invoiceAllocated := decimal.Zero
	for _, i := range group {
		invoiceAllocated = invoiceAllocated.Add(fromAmount(entry.References[i].AllocatedAmount))
	}

	// invoice_deduction = (invoice_allocated / total_allocated) * total_deductions
	invoiceDeduction := decimal.Zero
	if t.allocated.IsPositive() {
		invoiceDeduction = invoiceAllocated.Div(t.allocated).Mul(t.deductions)
	}

	taxRatio := decimal.Zero
	if lookup != nil {
		invoice, err := lookup(ctx, entry.References[group[0]].ReferenceID)
		if err == nil {
			taxRatio = invoice.TaxRatio()
		}
	}

	for _, i := range group {
		row := &entry.References[i]
		allocated := fromAmount(row.AllocatedAmount)

		rowDeduction := decimal.Zero
		if invoiceAllocated.IsPositive() {
			rowDeduction = allocated.Div(invoiceAllocated).Mul(invoiceDeduction)
		}
		tax := allocated.Mul(taxRatio)

		row.TaxAmountFromAllocated = round2(tax)
		row.NetWithoutTax = round2(allocated.Sub(tax))
		row.NetWithoutTaxWithoutDeductions = round2(allocated.Sub(tax).Sub(rowDeduction))
	}
}

func round2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// fromAmount converts a stored amount, treating NaN and Inf as 0 so a
// corrupt row degrades instead of panicking inside decimal.
func fromAmount(f float64) decimal.Decimal {
	if !isFinite(f) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}
