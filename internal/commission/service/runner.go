package service

import (
	"context"

	"github.com/smallbiznis/netcontrib/internal/commission/domain"
	"github.com/smallbiznis/netcontrib/pkg/db/option"
	"github.com/smallbiznis/netcontrib/pkg/repository"
	"gorm.io/gorm"
)

// dbRunner selects commission rows from the store. The rows are
// written upstream by the recalculation procedure.
type dbRunner struct {
	repo repository.Repository[domain.CommissionRow]
}

// NewRunner builds the default database-backed Runner.
func NewRunner(db *gorm.DB) domain.Runner {
	return &dbRunner{repo: repository.ProvideStore[domain.CommissionRow](db)}
}

func (r *dbRunner) Run(ctx context.Context, filters domain.Filters) ([]domain.CommissionRow, error) {
	filter := &domain.CommissionRow{
		Company:     filters.Company,
		Customer:    filters.Customer,
		SalesPerson: filters.SalesPerson,
	}

	options := []option.QueryOption{
		option.ApplyOperator(option.Condition{Field: "posting_date", Operator: option.GTE, Value: filters.FromDate}),
		option.ApplyOperator(option.Condition{Field: "posting_date", Operator: option.LTE, Value: filters.ToDate}),
		option.WithSortBy(option.QuerySortBy{Field: "sales_person", Allow: map[string]bool{"sales_person": true}}),
	}

	rows, err := r.repo.Find(ctx, filter, options...)
	if err != nil {
		return nil, err
	}

	out := make([]domain.CommissionRow, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		out = append(out, *row)
	}
	return out, nil
}
