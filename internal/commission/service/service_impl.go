package service

import (
	"context"

	"github.com/smallbiznis/netcontrib/internal/clock"
	"github.com/smallbiznis/netcontrib/internal/commission/domain"
	"github.com/smallbiznis/netcontrib/internal/commission/report"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Runner domain.Runner
	Clock  clock.Clock
	Log    *zap.Logger
}

type Service struct {
	runner domain.Runner
	clock  clock.Clock
	log    *zap.Logger
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		runner: p.Runner,
		clock:  p.Clock,
		log:    p.Log.Named("commission.service"),
	}
}

func (s *Service) FilterSchema() []domain.FilterField {
	return report.Schema(s.clock.Now())
}

func (s *Service) Run(ctx context.Context, filters domain.Filters) (domain.Report, error) {
	filters, err := report.Normalize(filters, s.clock.Now())
	if err != nil {
		return domain.Report{}, err
	}

	rows, err := s.runner.Run(ctx, filters)
	if err != nil {
		return domain.Report{}, err
	}

	out := make([]domain.ReportRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.ReportRow{
			SalesPerson:        row.SalesPerson,
			Company:            row.Company,
			Customer:           row.Customer,
			ContributionAmount: row.ContributionAmount,
			CommissionRate:     row.CommissionRate,
			CommissionAmount:   row.CommissionAmount,
			PaymentEntries:     report.FormatCell(report.PaymentEntriesColumn, row.PaymentEntries),
		})
	}

	return domain.Report{
		Filters: filters,
		Columns: report.Columns(),
		Rows:    out,
	}, nil
}
