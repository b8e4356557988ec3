package service

import (
	"context"

	"github.com/smallbiznis/netcontrib/internal/locker"
	"github.com/smallbiznis/netcontrib/internal/netcontribution/domain"
	obsmetrics "github.com/smallbiznis/netcontrib/internal/observability/metrics"
	paymententrydomain "github.com/smallbiznis/netcontrib/internal/paymententry/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Client  domain.Client
	Entries paymententrydomain.Service
	Log     *zap.Logger
	Locker  *locker.Locker             `optional:"true"`
	Metrics *obsmetrics.Metrics        `optional:"true"`
}

type Service struct {
	client  domain.Client
	entries paymententrydomain.Service
	log     *zap.Logger
	locker  *locker.Locker
	metrics *obsmetrics.Metrics
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		client:  p.Client,
		entries: p.Entries,
		log:     p.Log.Named("netcontribution.service"),
		locker:  p.Locker,
		metrics: p.Metrics,
	}
}

// Trigger runs the recalculation for one submitted Receive entry. The
// remote call is one-shot; transient failures surface to the caller.
func (s *Service) Trigger(ctx context.Context, entryName string) (domain.TriggerResponse, error) {
	entry, err := s.entries.GetByName(ctx, entryName)
	if err != nil {
		return domain.TriggerResponse{}, err
	}
	if !entry.IsSubmitted() {
		return domain.TriggerResponse{}, domain.ErrEntryNotSubmitted
	}
	if entry.PaymentType != paymententrydomain.PaymentTypeReceive {
		return domain.TriggerResponse{}, domain.ErrEntryNotReceive
	}

	s.log.Info("triggering net contribution recalculation",
		zap.String("payment_entry", entry.Name),
	)

	result, err := s.client.Calculate(ctx, entry.Name)
	if err != nil {
		s.metrics.IncContribRun(ctx, "failure")
		return domain.TriggerResponse{}, err
	}
	s.metrics.IncContribRun(ctx, "success")

	// The procedure mutates the entry's attribution server-side, so
	// hand back a fresh read.
	reloaded, err := s.entries.GetByName(ctx, entry.Name)
	if err != nil {
		return domain.TriggerResponse{}, err
	}

	return domain.TriggerResponse{Result: result, Entry: reloaded}, nil
}
