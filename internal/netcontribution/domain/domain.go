// Package domain defines the net-contribution trigger contract. The
// recalculation itself runs in an external service; this module only
// orchestrates calls and consumes the status/message envelope.
package domain

import (
	"context"
	"errors"

	paymententrydomain "github.com/smallbiznis/netcontrib/internal/paymententry/domain"
)

// Status is the remote procedure's reported outcome.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

var (
	ErrEndpointNotConfigured = errors.New("net contribution endpoint not configured")
	ErrEntryNotSubmitted     = errors.New("payment entry must be submitted")
	ErrEntryNotReceive       = errors.New("payment entry must have payment type Receive")
	ErrEmptySelection        = errors.New("no payment entries selected")
	ErrNoReceiveEntries      = errors.New("selection contains no Receive payment entries")
	ErrBatchInProgress       = errors.New("another batch run is in progress")
)

// Result is the canonical envelope returned by the recalculation
// procedure.
type Result struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
}

// Client invokes the external recalculation procedure for one payment
// entry. Calls are one-shot; callers must not retry transparently.
type Client interface {
	Calculate(ctx context.Context, paymentEntryName string) (Result, error)
}

// TriggerResponse carries the remote outcome plus the entry reloaded
// after the recalculation.
type TriggerResponse struct {
	Result Result                          `json:"result"`
	Entry  paymententrydomain.PaymentEntry `json:"entry"`
}

// BatchRequest selects entries for a batch run. With Confirm unset the
// service only previews which entries would be processed.
type BatchRequest struct {
	EntryNames []string `json:"entry_names"`
	Confirm    bool     `json:"confirm"`
}

// BatchItem is the outcome of one entry in a batch run.
type BatchItem struct {
	EntryName string `json:"entry_name"`
	Status    Status `json:"status"`
	Message   string `json:"message"`
}

// BatchResult aggregates a completed batch run.
type BatchResult struct {
	Total     int         `json:"total"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Items     []BatchItem `json:"items"`
}

// BatchResponse is either a preview (RequiresConfirm set, Result nil)
// or the outcome of an executed run.
type BatchResponse struct {
	RequiresConfirm bool         `json:"requires_confirm"`
	Eligible        []string     `json:"eligible"`
	Skipped         []string     `json:"skipped,omitempty"`
	Result          *BatchResult `json:"result,omitempty"`
}

// Service triggers net-contribution recalculation for single entries
// and sequential batches.
type Service interface {
	Trigger(ctx context.Context, entryName string) (TriggerResponse, error)
	ProcessBatch(ctx context.Context, req BatchRequest) (BatchResponse, error)
}
