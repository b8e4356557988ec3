package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound       = errors.New("payment entry not found")
	ErrInvalidRequest = errors.New("invalid payment entry request")
	ErrRowNotFound    = errors.New("reference row not found")
	ErrEntryImmutable = errors.New("payment entry is submitted and cannot be modified")
	ErrNameRequired   = errors.New("payment entry name is required")
)

// ListRequest filters the payment entry listing.
type ListRequest struct {
	PaymentType *PaymentType
	DocStatus   *DocStatus
	PostedFrom  *time.Time
	PostedTo    *time.Time
	Limit       int
}

// ListResponse carries the listing result.
type ListResponse struct {
	Entries []PaymentEntry `json:"entries"`
}

// UpdateReferenceRequest mutates one reference row. Nil fields are untouched.
type UpdateReferenceRequest struct {
	EntryName       string
	RowIdx          int
	ReferenceID     *string
	AllocatedAmount *float64
}

// DeductionInput is one deduction row in a replace request.
type DeductionInput struct {
	Account     string  `json:"account"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// SetDeductionsRequest replaces the entry's deduction rows.
type SetDeductionsRequest struct {
	EntryName  string
	Deductions []DeductionInput
}

// Service manages payment entries and their derived allocation fields.
type Service interface {
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	GetByName(ctx context.Context, name string) (PaymentEntry, error)

	// UpdateReference changes one reference row and recomputes the
	// derived fields of that row's invoice group.
	UpdateReference(ctx context.Context, req UpdateReferenceRequest) (PaymentEntry, error)

	// SetDeductions replaces the deduction rows and recomputes the
	// whole document.
	SetDeductions(ctx context.Context, req SetDeductionsRequest) (PaymentEntry, error)

	// Recompute recalculates every derived field on the entry.
	Recompute(ctx context.Context, name string) (PaymentEntry, error)
}
