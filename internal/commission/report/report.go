// Package report holds the sales commission report descriptor: the
// filter schema, filter normalization and the cell formatter.
package report

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/smallbiznis/netcontrib/internal/commission/domain"
)

// PaymentEntriesColumn is the one column the formatter rewrites.
const PaymentEntriesColumn = "payment_entries"

const entryDelimiter = ", "

const dateLayout = "2006-01-02"

// Schema returns the report's filter descriptors. Date defaults are
// resolved against now so the client sees concrete values.
func Schema(now time.Time) []domain.FilterField {
	start, end := monthBounds(now)
	return []domain.FilterField{
		{FieldName: "from_date", Label: "From Date", FieldType: "Date", Required: true, Default: start.Format(dateLayout)},
		{FieldName: "to_date", Label: "To Date", FieldType: "Date", Required: true, Default: end.Format(dateLayout)},
		{FieldName: "company", Label: "Company", FieldType: "Link", Options: "Company"},
		{FieldName: "customer", Label: "Customer", FieldType: "Link", Options: "Customer"},
		{FieldName: "sales_person", Label: "Sales Person", FieldType: "Link", Options: "Sales Person"},
	}
}

// Columns returns the report column layout.
func Columns() []domain.Column {
	return []domain.Column{
		{FieldName: "sales_person", Label: "Sales Person", FieldType: "Link", Options: "Sales Person", Width: 160},
		{FieldName: "company", Label: "Company", FieldType: "Link", Options: "Company", Width: 140},
		{FieldName: "customer", Label: "Customer", FieldType: "Link", Options: "Customer", Width: 140},
		{FieldName: "contribution_amount", Label: "Contribution Amount", FieldType: "Currency", Width: 140},
		{FieldName: "commission_rate", Label: "Commission Rate", FieldType: "Percent", Width: 100},
		{FieldName: "commission_amount", Label: "Commission Amount", FieldType: "Currency", Width: 140},
		{FieldName: PaymentEntriesColumn, Label: "Payment Entries", FieldType: "Data", Width: 300},
	}
}

// Normalize fills missing dates with the current month's bounds and
// validates ordering. Zero dates count as missing. The to-date is
// widened to the end of its day so rows posted with a time-of-day on
// the last day still fall inside the range.
func Normalize(filters domain.Filters, now time.Time) (domain.Filters, error) {
	start, end := monthBounds(now)
	if filters.FromDate.IsZero() {
		filters.FromDate = start
	}
	if filters.ToDate.IsZero() {
		filters.ToDate = end
	}
	if filters.ToDate.Before(filters.FromDate) {
		return domain.Filters{}, domain.ErrDateRange
	}
	filters.ToDate = endOfDay(filters.ToDate)

	filters.Company = strings.TrimSpace(filters.Company)
	filters.Customer = strings.TrimSpace(filters.Customer)
	filters.SalesPerson = strings.TrimSpace(filters.SalesPerson)
	return filters, nil
}

// FormatCell rewrites payment_entries values into links to the entry
// detail view; every other column passes through unchanged.
func FormatCell(column, value string) string {
	if column != PaymentEntriesColumn || strings.TrimSpace(value) == "" {
		return value
	}

	// Older rows delimit with a bare comma, newer ones with ", ".
	names := strings.Split(value, ",")
	links := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		links = append(links, fmt.Sprintf(`<a href="/app/payment-entry/%s">%s</a>`,
			html.EscapeString(name), html.EscapeString(name)))
	}
	return strings.Join(links, entryDelimiter)
}

// monthBounds returns the first and last day of now's month, at
// midnight UTC.
func monthBounds(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return start, end
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
