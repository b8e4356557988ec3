package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/smallbiznis/netcontrib/internal/locker"
	"github.com/smallbiznis/netcontrib/internal/netcontribution/client"
	"github.com/smallbiznis/netcontrib/internal/netcontribution/domain"
	paymententrydomain "github.com/smallbiznis/netcontrib/internal/paymententry/domain"
	"go.uber.org/zap"
)

// batchLockTTL bounds how long a crashed run can block the next one.
const batchLockTTL = 10 * time.Minute

const missingNameMessage = "payment entry name is missing"

// ProcessBatch runs the recalculation over a selection, one entry at a
// time. Without Confirm it only reports which entries would run.
// Item failures are counted and never abort the run.
func (s *Service) ProcessBatch(ctx context.Context, req domain.BatchRequest) (domain.BatchResponse, error) {
	if len(req.EntryNames) == 0 {
		return domain.BatchResponse{}, domain.ErrEmptySelection
	}

	eligible, skipped := s.partitionSelection(ctx, req.EntryNames)
	if len(eligible) == 0 {
		return domain.BatchResponse{}, domain.ErrNoReceiveEntries
	}

	if !req.Confirm {
		return domain.BatchResponse{
			RequiresConfirm: true,
			Eligible:        eligible,
			Skipped:         skipped,
		}, nil
	}

	release, err := s.acquireBatchLock(ctx)
	if err != nil {
		return domain.BatchResponse{}, err
	}
	defer release()

	result := s.run(ctx, eligible)
	return domain.BatchResponse{
		Eligible: eligible,
		Skipped:  skipped,
		Result:   &result,
	}, nil
}

// partitionSelection keeps Receive entries and reports everything else
// as skipped. Unresolvable names stay eligible so the run can count
// them as item failures.
func (s *Service) partitionSelection(ctx context.Context, names []string) (eligible, skipped []string) {
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			eligible = append(eligible, name)
			continue
		}

		entry, err := s.entries.GetByName(ctx, name)
		if err != nil {
			eligible = append(eligible, name)
			continue
		}
		if entry.PaymentType != paymententrydomain.PaymentTypeReceive {
			skipped = append(skipped, name)
			continue
		}
		eligible = append(eligible, name)
	}
	return eligible, skipped
}

// acquireBatchLock takes the single-flight lock when redis is wired in.
// Without redis the run proceeds unguarded.
func (s *Service) acquireBatchLock(ctx context.Context) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}

	key := locker.BatchKey("net-contribution")
	token, ok, err := s.locker.TryLock(ctx, key, batchLockTTL)
	if err != nil {
		if errors.Is(err, locker.ErrNotConfigured) {
			return func() {}, nil
		}
		return nil, err
	}
	if !ok {
		return nil, domain.ErrBatchInProgress
	}

	return func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
			s.log.Warn("release batch lock", zap.Error(err))
		}
	}, nil
}

func (s *Service) run(ctx context.Context, names []string) domain.BatchResult {
	result := domain.BatchResult{
		Total: len(names),
		Items: make([]domain.BatchItem, 0, len(names)),
	}

	for i, name := range names {
		item := s.processItem(ctx, i, len(names), name)
		if item.Status == domain.StatusSuccess {
			result.Succeeded++
		} else {
			result.Failed++
		}
		result.Items = append(result.Items, item)
	}

	s.log.Info("batch net contribution finished",
		zap.Int("total", result.Total),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
	)
	return result
}

func (s *Service) processItem(ctx context.Context, idx, total int, name string) domain.BatchItem {
	if name == "" {
		s.log.Warn("skipping batch item without a name",
			zap.Int("position", idx+1),
		)
		s.metrics.IncBatchItem(ctx, "failure")
		return domain.BatchItem{Status: domain.StatusFailed, Message: missingNameMessage}
	}

	s.log.Info("processing batch item",
		zap.String("payment_entry", name),
		zap.Int("position", idx+1),
		zap.Int("total", total),
	)

	result, err := s.client.Calculate(ctx, name)
	if err != nil {
		s.metrics.IncBatchItem(ctx, "failure")
		return domain.BatchItem{
			EntryName: name,
			Status:    domain.StatusFailed,
			Message:   failureMessage(err),
		}
	}

	s.metrics.IncBatchItem(ctx, "success")
	return domain.BatchItem{
		EntryName: name,
		Status:    domain.StatusSuccess,
		Message:   result.Message,
	}
}

// failureMessage prefers the message the remote payload carried over
// the transport error text.
func failureMessage(err error) string {
	var remote *client.RemoteError
	if errors.As(err, &remote) && remote.Message != "" {
		return remote.Message
	}
	return err.Error()
}
