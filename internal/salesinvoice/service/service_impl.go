package service

import (
	"context"
	"strings"

	salesinvoicedomain "github.com/smallbiznis/netcontrib/internal/salesinvoice/domain"
	"github.com/smallbiznis/netcontrib/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

type Service struct {
	log  *zap.Logger
	repo repository.Repository[salesinvoicedomain.SalesInvoice]
}

func NewService(p ServiceParam) salesinvoicedomain.Reader {
	return &Service{
		log:  p.Log.Named("salesinvoice.service"),
		repo: repository.ProvideStore[salesinvoicedomain.SalesInvoice](p.DB),
	}
}

func (s *Service) GetByName(ctx context.Context, name string) (salesinvoicedomain.SalesInvoice, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return salesinvoicedomain.SalesInvoice{}, salesinvoicedomain.ErrNotFound
	}

	invoice, err := s.repo.FindOne(ctx, &salesinvoicedomain.SalesInvoice{Name: name})
	if err != nil {
		return salesinvoicedomain.SalesInvoice{}, err
	}
	if invoice == nil {
		return salesinvoicedomain.SalesInvoice{}, salesinvoicedomain.ErrNotFound
	}
	return *invoice, nil
}
