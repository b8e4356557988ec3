package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/bwmarrin/snowflake"
	obsmetrics "github.com/smallbiznis/netcontrib/internal/observability/metrics"
	"github.com/smallbiznis/netcontrib/internal/paymententry/allocation"
	"github.com/smallbiznis/netcontrib/internal/paymententry/domain"
	salesinvoicedomain "github.com/smallbiznis/netcontrib/internal/salesinvoice/domain"
	"github.com/smallbiznis/netcontrib/pkg/db/option"
	"github.com/smallbiznis/netcontrib/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Invoices salesinvoicedomain.Reader
	Metrics  *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     repository.Repository[domain.PaymentEntry]
	invoices salesinvoicedomain.Reader
	metrics  *obsmetrics.Metrics
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("paymententry.service"),
		genID:    p.GenID,
		repo:     repository.ProvideStore[domain.PaymentEntry](p.DB),
		invoices: p.Invoices,
		metrics:  p.Metrics,
	}
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	filter := &domain.PaymentEntry{}
	if req.PaymentType != nil {
		filter.PaymentType = *req.PaymentType
	}

	options := []option.QueryOption{
		option.WithPreload("References", "Deductions"),
		option.WithSortBy(option.QuerySortBy{Field: "posting_date", Desc: true, Allow: map[string]bool{"posting_date": true}}),
	}
	if req.DocStatus != nil {
		// Draft is the zero value, so the status filter cannot ride
		// on the struct query.
		options = append(options, option.ApplyOperator(option.Condition{
			Field:    "doc_status",
			Operator: option.EQ,
			Value:    *req.DocStatus,
		}))
	}
	if req.PostedFrom != nil {
		options = append(options, option.ApplyOperator(option.Condition{
			Field:    "posting_date",
			Operator: option.GTE,
			Value:    *req.PostedFrom,
		}))
	}
	if req.PostedTo != nil {
		options = append(options, option.ApplyOperator(option.Condition{
			Field:    "posting_date",
			Operator: option.LTE,
			Value:    *req.PostedTo,
		}))
	}
	if req.Limit > 0 {
		options = append(options, option.WithLimit(req.Limit))
	}

	items, err := s.repo.Find(ctx, filter, options...)
	if err != nil {
		return domain.ListResponse{}, err
	}

	entries := make([]domain.PaymentEntry, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		sortRows(item)
		entries = append(entries, *item)
	}
	return domain.ListResponse{Entries: entries}, nil
}

func (s *Service) GetByName(ctx context.Context, name string) (domain.PaymentEntry, error) {
	return s.getByName(ctx, name)
}

func (s *Service) UpdateReference(ctx context.Context, req domain.UpdateReferenceRequest) (domain.PaymentEntry, error) {
	entry, err := s.getByName(ctx, req.EntryName)
	if err != nil {
		return domain.PaymentEntry{}, err
	}
	if entry.IsSubmitted() {
		return domain.PaymentEntry{}, domain.ErrEntryImmutable
	}
	if req.RowIdx < 0 || req.RowIdx >= len(entry.References) {
		return domain.PaymentEntry{}, domain.ErrRowNotFound
	}

	row := &entry.References[req.RowIdx]
	if req.ReferenceID != nil {
		row.ReferenceID = strings.TrimSpace(*req.ReferenceID)
	}
	if req.AllocatedAmount != nil {
		row.AllocatedAmount = *req.AllocatedAmount
	}

	if err := allocation.ComputeRow(ctx, &entry, req.RowIdx, s.invoiceLookup()); err != nil {
		if errors.Is(err, allocation.ErrRowOutOfRange) {
			return domain.PaymentEntry{}, domain.ErrRowNotFound
		}
		return domain.PaymentEntry{}, err
	}
	s.metrics.IncAllocationRecompute(ctx, "row")

	if err := s.persist(ctx, &entry, false); err != nil {
		return domain.PaymentEntry{}, err
	}
	return entry, nil
}

func (s *Service) SetDeductions(ctx context.Context, req domain.SetDeductionsRequest) (domain.PaymentEntry, error) {
	entry, err := s.getByName(ctx, req.EntryName)
	if err != nil {
		return domain.PaymentEntry{}, err
	}
	if entry.IsSubmitted() {
		return domain.PaymentEntry{}, domain.ErrEntryImmutable
	}

	deductions := make([]domain.PaymentEntryDeduction, 0, len(req.Deductions))
	for i, d := range req.Deductions {
		deductions = append(deductions, domain.PaymentEntryDeduction{
			ID:             s.genID.Generate(),
			PaymentEntryID: entry.ID,
			Idx:            i,
			Account:        strings.TrimSpace(d.Account),
			Description:    strings.TrimSpace(d.Description),
			Amount:         d.Amount,
		})
	}
	entry.Deductions = deductions

	allocation.Compute(ctx, &entry, s.invoiceLookup())
	s.metrics.IncAllocationRecompute(ctx, "document")

	if err := s.persist(ctx, &entry, true); err != nil {
		return domain.PaymentEntry{}, err
	}
	return entry, nil
}

func (s *Service) Recompute(ctx context.Context, name string) (domain.PaymentEntry, error) {
	entry, err := s.getByName(ctx, name)
	if err != nil {
		return domain.PaymentEntry{}, err
	}

	allocation.Compute(ctx, &entry, s.invoiceLookup())
	s.metrics.IncAllocationRecompute(ctx, "document")

	if err := s.persist(ctx, &entry, false); err != nil {
		return domain.PaymentEntry{}, err
	}
	return entry, nil
}

func (s *Service) getByName(ctx context.Context, name string) (domain.PaymentEntry, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.PaymentEntry{}, domain.ErrNameRequired
	}

	entry, err := s.repo.FindOne(ctx, &domain.PaymentEntry{Name: name},
		option.WithPreload("References", "Deductions"))
	if err != nil {
		return domain.PaymentEntry{}, err
	}
	if entry == nil {
		return domain.PaymentEntry{}, domain.ErrNotFound
	}
	sortRows(entry)
	return *entry, nil
}

// invoiceLookup adapts the invoice reader to the calculator contract:
// not-found and transport failures both degrade to a nil invoice.
func (s *Service) invoiceLookup() allocation.InvoiceLookup {
	return func(ctx context.Context, referenceID string) (*allocation.Invoice, error) {
		invoice, err := s.invoices.GetByName(ctx, referenceID)
		if err != nil {
			if !errors.Is(err, salesinvoicedomain.ErrNotFound) {
				s.log.Warn("invoice lookup failed",
					zap.String("invoice", referenceID),
					zap.Error(err),
				)
			}
			return nil, err
		}
		return &allocation.Invoice{
			GrandTotal:           invoice.GrandTotal,
			TotalTaxesAndCharges: invoice.TotalTaxesAndCharges,
		}, nil
	}
}

// persist writes the recomputed entry inside one transaction. When
// replaceDeductions is set the deduction rows are rewritten wholesale.
func (s *Service) persist(ctx context.Context, entry *domain.PaymentEntry, replaceDeductions bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range entry.References {
			row := &entry.References[i]
			if err := tx.Model(&domain.PaymentEntryReference{}).
				Where("id = ?", row.ID).
				Updates(map[string]any{
					"reference_id":                       row.ReferenceID,
					"allocated_amount":                   row.AllocatedAmount,
					"tax_amount_from_allocated":          row.TaxAmountFromAllocated,
					"net_without_tax":                    row.NetWithoutTax,
					"net_without_tax_without_deductions": row.NetWithoutTaxWithoutDeductions,
				}).Error; err != nil {
				return fmt.Errorf("update reference row %d: %w", i, err)
			}
		}

		if replaceDeductions {
			if err := tx.Where("payment_entry_id = ?", entry.ID).
				Delete(&domain.PaymentEntryDeduction{}).Error; err != nil {
				return fmt.Errorf("clear deductions: %w", err)
			}
			if len(entry.Deductions) > 0 {
				if err := tx.Create(&entry.Deductions).Error; err != nil {
					return fmt.Errorf("create deductions: %w", err)
				}
			}
		}

		if err := tx.Model(&domain.PaymentEntry{}).
			Where("id = ?", entry.ID).
			Update("total_allocated", entry.TotalAllocated).Error; err != nil {
			return fmt.Errorf("update entry totals: %w", err)
		}
		return nil
	})
}

func sortRows(entry *domain.PaymentEntry) {
	sort.SliceStable(entry.References, func(i, j int) bool {
		return entry.References[i].Idx < entry.References[j].Idx
	})
	sort.SliceStable(entry.Deductions, func(i, j int) bool {
		return entry.Deductions[i].Idx < entry.Deductions[j].Idx
	})
}
