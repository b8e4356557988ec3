// Package domain contains the sales invoice reference model.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var ErrNotFound = errors.New("sales invoice not found")

// SalesInvoice is read-only reference data consumed by the allocation
// calculator. The invoice lifecycle itself belongs to the host ERP.
type SalesInvoice struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"type:text;not null;uniqueIndex" json:"name"`
	Company     string       `gorm:"type:text" json:"company"`
	Customer    string       `gorm:"type:text" json:"customer"`
	PostingDate time.Time    `gorm:"not null" json:"posting_date"`

	GrandTotal           float64 `gorm:"not null;default:0" json:"grand_total"`
	TotalTaxesAndCharges float64 `gorm:"not null;default:0" json:"total_taxes_and_charges"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (SalesInvoice) TableName() string { return "sales_invoices" }

// Reader resolves invoices by document name. Lookups are fallible and
// callers must treat ErrNotFound as a degradable condition.
type Reader interface {
	GetByName(ctx context.Context, name string) (SalesInvoice, error)
}
