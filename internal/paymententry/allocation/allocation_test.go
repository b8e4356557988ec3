package allocation

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/smallbiznis/netcontrib/internal/paymententry/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func invoiceRow(id string, allocated float64) domain.PaymentEntryReference {
	return domain.PaymentEntryReference{
		ReferenceType:   domain.ReferenceTypeSalesInvoice,
		ReferenceID:     id,
		AllocatedAmount: allocated,
	}
}

func staticLookup(invoices map[string]*Invoice) InvoiceLookup {
	return func(_ context.Context, referenceID string) (*Invoice, error) {
		return invoices[referenceID], nil
	}
}

func TestComputeSingleInvoiceMultipleRows(t *testing.T) {
	entry := &domain.PaymentEntry{
		References: []domain.PaymentEntryReference{
			invoiceRow("SINV-001", 600),
			invoiceRow("SINV-001", 400),
		},
		Deductions: []domain.PaymentEntryDeduction{{Amount: 50}},
	}
	lookup := staticLookup(map[string]*Invoice{
		"SINV-001": {GrandTotal: 1100, TotalTaxesAndCharges: 110},
	})

	Compute(context.Background(), entry, lookup)

	assert.Equal(t, 60.0, entry.References[0].TaxAmountFromAllocated)
	assert.Equal(t, 540.0, entry.References[0].NetWithoutTax)
	assert.Equal(t, 510.0, entry.References[0].NetWithoutTaxWithoutDeductions)

	assert.Equal(t, 40.0, entry.References[1].TaxAmountFromAllocated)
	assert.Equal(t, 360.0, entry.References[1].NetWithoutTax)
	assert.Equal(t, 340.0, entry.References[1].NetWithoutTaxWithoutDeductions)

	assert.Equal(t, 1000.0, entry.TotalAllocated)
}

func TestComputeZeroTotalAllocated(t *testing.T) {
	entry := &domain.PaymentEntry{
		References: []domain.PaymentEntryReference{
			invoiceRow("SINV-001", 0),
			invoiceRow("SINV-002", 0),
		},
		Deductions: []domain.PaymentEntryDeduction{{Amount: 75}},
	}

	Compute(context.Background(), entry, staticLookup(nil))

	for i, row := range entry.References {
		assert.Equalf(t, 0.0, row.TaxAmountFromAllocated, "row %d tax", i)
		assert.Equalf(t, 0.0, row.NetWithoutTaxWithoutDeductions, "row %d net", i)
	}
}

func TestComputeZeroInvoiceGroup(t *testing.T) {
	// The invoice group sums to zero while the document total does not:
	// the group must receive no deduction share.
	entry := &domain.PaymentEntry{
		References: []domain.PaymentEntryReference{
			{ReferenceType: "Sales Order", ReferenceID: "SO-001", AllocatedAmount: 500},
			invoiceRow("SINV-001", 0),
		},
		Deductions: []domain.PaymentEntryDeduction{{Amount: 30}},
	}

	Compute(context.Background(), entry, staticLookup(nil))

	assert.Equal(t, 0.0, entry.References[1].NetWithoutTaxWithoutDeductions)
	// Non-invoice rows are not touched by the calculator.
	assert.Equal(t, 0.0, entry.References[0].TaxAmountFromAllocated)
	assert.Equal(t, 500.0, entry.TotalAllocated)
}

func TestComputeLookupFailureDegradesToZeroTax(t *testing.T) {
	entry := &domain.PaymentEntry{
		References: []domain.PaymentEntryReference{
			invoiceRow("SINV-404", 250),
		},
		Deductions: []domain.PaymentEntryDeduction{{Amount: 25}},
	}
	lookup := func(_ context.Context, _ string) (*Invoice, error) {
		return nil, errors.New("invoice service unavailable")
	}

	Compute(context.Background(), entry, lookup)

	row := entry.References[0]
	assert.Equal(t, 0.0, row.TaxAmountFromAllocated)
	assert.Equal(t, 250.0, row.NetWithoutTax)
	// The deduction still applies even when tax cannot be resolved.
	assert.Equal(t, 225.0, row.NetWithoutTaxWithoutDeductions)
}

func TestComputeDeductionConservation(t *testing.T) {
	entry := &domain.PaymentEntry{
		References: []domain.PaymentEntryReference{
			invoiceRow("SINV-001", 333.33),
			invoiceRow("SINV-001", 166.67),
			invoiceRow("SINV-002", 421.19),
			invoiceRow("SINV-003", 78.81),
		},
		Deductions: []domain.PaymentEntryDeduction{{Amount: 37.5}, {Amount: 12.49}},
	}
	lookup := staticLookup(map[string]*Invoice{
		"SINV-001": {GrandTotal: 575, TotalTaxesAndCharges: 75},
		"SINV-002": {GrandTotal: 460, TotalTaxesAndCharges: 60},
		"SINV-003": {GrandTotal: 92, TotalTaxesAndCharges: 12},
	})

	Compute(context.Background(), entry, lookup)

	totalDeductions := TotalDeductions(entry)
	deducted := 0.0
	for _, row := range entry.References {
		deducted += row.NetWithoutTax - row.NetWithoutTaxWithoutDeductions
	}
	// Row-level rounding may drift by at most a cent per row.
	assert.InDelta(t, totalDeductions, deducted, 0.01*float64(len(entry.References)))
}

func TestComputeRowMatchesFullCompute(t *testing.T) {
	build := func() *domain.PaymentEntry {
		return &domain.PaymentEntry{
			References: []domain.PaymentEntryReference{
				invoiceRow("SINV-001", 600),
				invoiceRow("SINV-002", 150),
				invoiceRow("SINV-001", 400),
			},
			Deductions: []domain.PaymentEntryDeduction{{Amount: 50}, {Amount: 7.25}},
		}
	}
	lookup := staticLookup(map[string]*Invoice{
		"SINV-001": {GrandTotal: 1100, TotalTaxesAndCharges: 110},
		"SINV-002": {GrandTotal: 172.5, TotalTaxesAndCharges: 22.5},
	})

	full := build()
	Compute(context.Background(), full, lookup)

	for idx := range full.References {
		scoped := build()
		require.NoError(t, ComputeRow(context.Background(), scoped, idx, lookup))

		got := scoped.References[idx]
		want := full.References[idx]
		assert.Equalf(t, want.TaxAmountFromAllocated, got.TaxAmountFromAllocated, "row %d tax", idx)
		assert.Equalf(t, want.NetWithoutTax, got.NetWithoutTax, "row %d net_without_tax", idx)
		assert.Equalf(t, want.NetWithoutTaxWithoutDeductions, got.NetWithoutTaxWithoutDeductions, "row %d net_after_deductions", idx)
	}
}

func TestComputeRowOutOfRange(t *testing.T) {
	entry := &domain.PaymentEntry{
		References: []domain.PaymentEntryReference{invoiceRow("SINV-001", 10)},
	}
	err := ComputeRow(context.Background(), entry, 3, staticLookup(nil))
	assert.ErrorIs(t, err, ErrRowOutOfRange)
}

func TestComputeNonFiniteAmountsTreatedAsZero(t *testing.T) {
	entry := &domain.PaymentEntry{
		References: []domain.PaymentEntryReference{
			invoiceRow("SINV-001", 600),
			invoiceRow("SINV-001", math.NaN()),
			invoiceRow("SINV-002", math.Inf(1)),
		},
		Deductions: []domain.PaymentEntryDeduction{{Amount: 50}},
	}
	lookup := staticLookup(map[string]*Invoice{
		"SINV-001": {GrandTotal: 1100, TotalTaxesAndCharges: 110},
		"SINV-002": {GrandTotal: 230, TotalTaxesAndCharges: 30},
	})

	assert.NotPanics(t, func() { Compute(context.Background(), entry, lookup) })

	// The finite row now carries the whole total and the full deduction.
	assert.Equal(t, 60.0, entry.References[0].TaxAmountFromAllocated)
	assert.Equal(t, 490.0, entry.References[0].NetWithoutTaxWithoutDeductions)

	for _, idx := range []int{1, 2} {
		assert.Equalf(t, 0.0, entry.References[idx].TaxAmountFromAllocated, "row %d tax", idx)
		assert.Equalf(t, 0.0, entry.References[idx].NetWithoutTax, "row %d net", idx)
		assert.Equalf(t, 0.0, entry.References[idx].NetWithoutTaxWithoutDeductions, "row %d net after deductions", idx)
	}
	assert.Equal(t, 600.0, entry.TotalAllocated)
}

func TestTaxRatioNonFiniteGrandTotal(t *testing.T) {
	inv := &Invoice{GrandTotal: math.NaN(), TotalTaxesAndCharges: 10}
	assert.True(t, inv.TaxRatio().IsZero())
}

func TestTotalDeductionsIgnoresNonFinite(t *testing.T) {
	entry := &domain.PaymentEntry{
		Deductions: []domain.PaymentEntryDeduction{
			{Amount: 10},
			{Amount: math.NaN()},
			{Amount: math.Inf(1)},
			{Amount: 2.5},
		},
	}
	assert.Equal(t, 12.5, TotalDeductions(entry))
}
