// Package seed loads sample documents for local development runs.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	paymententrydomain "github.com/smallbiznis/netcontrib/internal/paymententry/domain"
	salesinvoicedomain "github.com/smallbiznis/netcontrib/internal/salesinvoice/domain"
	"gorm.io/gorm"
)

// EnsureSampleData seeds two invoices and one draft payment entry
// allocating across them. Idempotent: existing documents are kept.
func EnsureSampleData(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureInvoice(ctx, tx, node, "SINV-0001", 1100, 110); err != nil {
			return err
		}
		if err := ensureInvoice(ctx, tx, node, "SINV-0002", 2200, 220); err != nil {
			return err
		}
		return ensurePaymentEntry(ctx, tx, node, "PE-0001")
	})
}

func ensureInvoice(ctx context.Context, tx *gorm.DB, node *snowflake.Node, name string, grandTotal, taxes float64) error {
	var count int64
	if err := tx.WithContext(ctx).Model(&salesinvoicedomain.SalesInvoice{}).
		Where("name = ?", name).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	return tx.WithContext(ctx).Create(&salesinvoicedomain.SalesInvoice{
		ID:                   node.Generate(),
		Name:                 name,
		Company:              "Sample Co",
		Customer:             "Sample Customer",
		PostingDate:          time.Now().UTC().AddDate(0, 0, -7),
		GrandTotal:           grandTotal,
		TotalTaxesAndCharges: taxes,
	}).Error
}

func ensurePaymentEntry(ctx context.Context, tx *gorm.DB, node *snowflake.Node, name string) error {
	var count int64
	if err := tx.WithContext(ctx).Model(&paymententrydomain.PaymentEntry{}).
		Where("name = ?", name).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	return tx.WithContext(ctx).Create(&paymententrydomain.PaymentEntry{
		ID:          node.Generate(),
		Name:        name,
		Company:     "Sample Co",
		PaymentType: paymententrydomain.PaymentTypeReceive,
		DocStatus:   paymententrydomain.DocStatusDraft,
		PostingDate: time.Now().UTC(),
		References: []paymententrydomain.PaymentEntryReference{
			{ID: node.Generate(), Idx: 0, ReferenceType: paymententrydomain.ReferenceTypeSalesInvoice, ReferenceID: "SINV-0001", AllocatedAmount: 600},
			{ID: node.Generate(), Idx: 1, ReferenceType: paymententrydomain.ReferenceTypeSalesInvoice, ReferenceID: "SINV-0002", AllocatedAmount: 400},
		},
		Deductions: []paymententrydomain.PaymentEntryDeduction{
			{ID: node.Generate(), Idx: 0, Account: "Bank Charges", Amount: 50},
		},
	}).Error
}
