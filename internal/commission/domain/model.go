// Package domain holds the sales commission report contract. The
// commission figures themselves are produced by the external
// net-contribution procedure; this module only reads and presents them.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrFromDateRequired = errors.New("from_date is required")
	ErrToDateRequired   = errors.New("to_date is required")
	ErrDateRange        = errors.New("from_date must not be after to_date")
)

// CommissionRow is one attributed commission line, written by the
// recalculation procedure and read back by the report.
type CommissionRow struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	SalesPerson string       `gorm:"type:text;not null;index" json:"sales_person"`
	Company     string       `gorm:"type:text;index" json:"company"`
	Customer    string       `gorm:"type:text;index" json:"customer"`
	PostingDate time.Time    `gorm:"not null;index" json:"posting_date"`

	ContributionAmount float64 `gorm:"not null;default:0" json:"contribution_amount"`
	CommissionRate     float64 `gorm:"not null;default:0" json:"commission_rate"`
	CommissionAmount   float64 `gorm:"not null;default:0" json:"commission_amount"`

	// PaymentEntries holds the contributing payment entry names as a
	// comma-space delimited list, the shape the formatter expects.
	PaymentEntries string `gorm:"type:text" json:"payment_entries"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (CommissionRow) TableName() string { return "sales_commissions" }

// Filters narrows the report. FromDate and ToDate are required after
// normalization; the link filters are optional.
type Filters struct {
	FromDate    time.Time `json:"from_date"`
	ToDate      time.Time `json:"to_date"`
	Company     string    `json:"company,omitempty"`
	Customer    string    `json:"customer,omitempty"`
	SalesPerson string    `json:"sales_person,omitempty"`
}

// Runner fetches the commission rows matching the filters. Aggregation
// happens upstream; a Runner only selects.
type Runner interface {
	Run(ctx context.Context, filters Filters) ([]CommissionRow, error)
}

// Column describes one report column for the rendering client.
type Column struct {
	FieldName string `json:"fieldname"`
	Label     string `json:"label"`
	FieldType string `json:"fieldtype"`
	Options   string `json:"options,omitempty"`
	Width     int    `json:"width,omitempty"`
}

// ReportRow is a presentation row with the payment entry list already
// rendered as links.
type ReportRow struct {
	SalesPerson        string  `json:"sales_person"`
	Company            string  `json:"company"`
	Customer           string  `json:"customer"`
	ContributionAmount float64 `json:"contribution_amount"`
	CommissionRate     float64 `json:"commission_rate"`
	CommissionAmount   float64 `json:"commission_amount"`
	PaymentEntries     string  `json:"payment_entries"`
}

// Report is the filter-validated, formatted report payload.
type Report struct {
	Filters Filters     `json:"filters"`
	Columns []Column    `json:"columns"`
	Rows    []ReportRow `json:"rows"`
}

// Service validates filters, runs the report and formats the result.
type Service interface {
	FilterSchema() []FilterField
	Run(ctx context.Context, filters Filters) (Report, error)
}

// FilterField describes one report filter for the rendering client.
type FilterField struct {
	FieldName string `json:"fieldname"`
	Label     string `json:"label"`
	FieldType string `json:"fieldtype"`
	Options   string `json:"options,omitempty"`
	Required  bool   `json:"reqd"`
	Default   string `json:"default,omitempty"`
}
