// Package domain contains persistence models for payment entries.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// DocStatus represents the document lifecycle state.
type DocStatus int

const (
	DocStatusDraft     DocStatus = 0
	DocStatusSubmitted DocStatus = 1
	DocStatusCancelled DocStatus = 2
)

// PaymentType is the direction of a payment entry.
type PaymentType string

const (
	PaymentTypeReceive PaymentType = "Receive"
	PaymentTypePay     PaymentType = "Pay"
)

// ReferenceTypeSalesInvoice marks reference rows that settle a sales invoice.
const ReferenceTypeSalesInvoice = "Sales Invoice"

// PaymentEntry represents a received or issued payment with its
// allocation against referenced documents.
type PaymentEntry struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	Name           string       `gorm:"type:text;not null;uniqueIndex" json:"name"`
	Company        string       `gorm:"type:text" json:"company"`
	PaymentType    PaymentType  `gorm:"type:text;not null" json:"payment_type"`
	DocStatus      DocStatus    `gorm:"not null;default:0" json:"docstatus"`
	PostingDate    time.Time    `gorm:"not null" json:"posting_date"`
	TotalAllocated float64      `gorm:"not null;default:0" json:"total_allocated"`

	References []PaymentEntryReference `gorm:"foreignKey:PaymentEntryID;constraint:OnDelete:CASCADE" json:"references"`
	Deductions []PaymentEntryDeduction `gorm:"foreignKey:PaymentEntryID;constraint:OnDelete:CASCADE" json:"deductions"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (PaymentEntry) TableName() string { return "payment_entries" }

// IsSubmitted reports whether the entry is finalized.
func (e PaymentEntry) IsSubmitted() bool { return e.DocStatus == DocStatusSubmitted }

// PaymentEntryReference links a payment entry to a settled document.
// The Tax/Net fields are derived by the allocation calculator and
// persisted alongside the row.
type PaymentEntryReference struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	PaymentEntryID snowflake.ID `gorm:"not null;index" json:"payment_entry_id"`
	Idx            int          `gorm:"not null" json:"idx"`

	ReferenceType   string  `gorm:"type:text;not null" json:"reference_type"`
	ReferenceID     string  `gorm:"type:text" json:"reference_id"`
	AllocatedAmount float64 `gorm:"not null;default:0" json:"allocated_amount"`

	TaxAmountFromAllocated         float64 `gorm:"not null;default:0" json:"tax_amount_from_allocated"`
	NetWithoutTax                  float64 `gorm:"not null;default:0" json:"net_without_tax"`
	NetWithoutTaxWithoutDeductions float64 `gorm:"not null;default:0" json:"net_without_tax_without_deductions"`
}

// TableName sets the database table name.
func (PaymentEntryReference) TableName() string { return "payment_entry_references" }

// IsSalesInvoice reports whether the row references a sales invoice.
func (r PaymentEntryReference) IsSalesInvoice() bool {
	return r.ReferenceType == ReferenceTypeSalesInvoice && r.ReferenceID != ""
}

// PaymentEntryDeduction reduces the payment's effective allocable total.
type PaymentEntryDeduction struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	PaymentEntryID snowflake.ID `gorm:"not null;index" json:"payment_entry_id"`
	Idx            int          `gorm:"not null" json:"idx"`

	Account     string  `gorm:"type:text" json:"account"`
	Description string  `gorm:"type:text" json:"description"`
	Amount      float64 `gorm:"not null;default:0" json:"amount"`
}

// TableName sets the database table name.
func (PaymentEntryDeduction) TableName() string { return "payment_entry_deductions" }
