package service

import (
	"context"
	"testing"

	"github.com/smallbiznis/netcontrib/internal/netcontribution/client"
	"github.com/smallbiznis/netcontrib/internal/netcontribution/domain"
	paymententrydomain "github.com/smallbiznis/netcontrib/internal/paymententry/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func receiveEntry(name string) paymententrydomain.PaymentEntry {
	return paymententrydomain.PaymentEntry{
		Name:        name,
		PaymentType: paymententrydomain.PaymentTypeReceive,
		DocStatus:   paymententrydomain.DocStatusSubmitted,
	}
}

func payEntry(name string) paymententrydomain.PaymentEntry {
	return paymententrydomain.PaymentEntry{
		Name:        name,
		PaymentType: paymententrydomain.PaymentTypePay,
		DocStatus:   paymententrydomain.DocStatusSubmitted,
	}
}

func TestProcessBatch_EmptySelection(t *testing.T) {
	svc := newTriggerService(new(mockClient), new(mockEntries))

	_, err := svc.ProcessBatch(context.Background(), domain.BatchRequest{})
	assert.ErrorIs(t, err, domain.ErrEmptySelection)
}

func TestProcessBatch_NoReceiveEntries(t *testing.T) {
	ctx := context.Background()
	entries := new(mockEntries)
	entries.On("GetByName", ctx, "PE-PAY-1").Return(payEntry("PE-PAY-1"), nil)
	entries.On("GetByName", ctx, "PE-PAY-2").Return(payEntry("PE-PAY-2"), nil)

	svc := newTriggerService(new(mockClient), entries)
	_, err := svc.ProcessBatch(ctx, domain.BatchRequest{
		EntryNames: []string{"PE-PAY-1", "PE-PAY-2"},
	})
	assert.ErrorIs(t, err, domain.ErrNoReceiveEntries)
}

func TestProcessBatch_FiltersToReceiveEntries(t *testing.T) {
	ctx := context.Background()
	entries := new(mockEntries)
	cl := new(mockClient)

	entries.On("GetByName", ctx, "PE-R1").Return(receiveEntry("PE-R1"), nil)
	entries.On("GetByName", ctx, "PE-R2").Return(receiveEntry("PE-R2"), nil)
	entries.On("GetByName", ctx, "PE-P1").Return(payEntry("PE-P1"), nil)
	cl.On("Calculate", ctx, "PE-R1").Return(domain.Result{Status: domain.StatusSuccess}, nil).Once()
	cl.On("Calculate", ctx, "PE-R2").Return(domain.Result{Status: domain.StatusSuccess}, nil).Once()

	svc := newTriggerService(cl, entries)
	resp, err := svc.ProcessBatch(ctx, domain.BatchRequest{
		EntryNames: []string{"PE-R1", "PE-P1", "PE-R2"},
		Confirm:    true,
	})
	require.NoError(t, err)

	require.NotNil(t, resp.Result)
	assert.Equal(t, 2, resp.Result.Total)
	assert.Equal(t, 2, resp.Result.Succeeded)
	assert.Equal(t, []string{"PE-P1"}, resp.Skipped)
	cl.AssertNotCalled(t, "Calculate", ctx, "PE-P1")
}

func TestProcessBatch_PreviewRequiresConfirm(t *testing.T) {
	ctx := context.Background()
	entries := new(mockEntries)
	cl := new(mockClient)
	entries.On("GetByName", ctx, "PE-R1").Return(receiveEntry("PE-R1"), nil)

	svc := newTriggerService(cl, entries)
	resp, err := svc.ProcessBatch(ctx, domain.BatchRequest{
		EntryNames: []string{"PE-R1"},
	})
	require.NoError(t, err)

	assert.True(t, resp.RequiresConfirm)
	assert.Equal(t, []string{"PE-R1"}, resp.Eligible)
	assert.Nil(t, resp.Result)
	cl.AssertNotCalled(t, "Calculate", mock.Anything, mock.Anything)
}

func TestProcessBatch_PartialFailureDoesNotAbort(t *testing.T) {
	ctx := context.Background()
	entries := new(mockEntries)
	cl := new(mockClient)

	entries.On("GetByName", ctx, "PE-R1").Return(receiveEntry("PE-R1"), nil)
	entries.On("GetByName", ctx, "PE-R2").Return(receiveEntry("PE-R2"), nil)
	cl.On("Calculate", ctx, "PE-R1").Return(domain.Result{
		Status:  domain.StatusSuccess,
		Message: "updated",
	}, nil).Once()
	cl.On("Calculate", ctx, "PE-R2").Return(domain.Result{},
		&client.RemoteError{StatusCode: 500, Message: "Document has been modified"}).Once()

	svc := newTriggerService(cl, entries)
	resp, err := svc.ProcessBatch(ctx, domain.BatchRequest{
		EntryNames: []string{"PE-R1", "PE-R2"},
		Confirm:    true,
	})
	require.NoError(t, err)

	require.NotNil(t, resp.Result)
	assert.Equal(t, 1, resp.Result.Succeeded)
	assert.Equal(t, 1, resp.Result.Failed)
	require.Len(t, resp.Result.Items, 2)
	assert.Equal(t, domain.StatusSuccess, resp.Result.Items[0].Status)
	assert.Equal(t, domain.StatusFailed, resp.Result.Items[1].Status)
	assert.Equal(t, "Document has been modified", resp.Result.Items[1].Message)
	cl.AssertExpectations(t)
}

func TestProcessBatch_MissingNameCountedAsFailure(t *testing.T) {
	ctx := context.Background()
	entries := new(mockEntries)
	cl := new(mockClient)

	entries.On("GetByName", ctx, "PE-R1").Return(receiveEntry("PE-R1"), nil)
	cl.On("Calculate", ctx, "PE-R1").Return(domain.Result{Status: domain.StatusSuccess}, nil).Once()

	svc := newTriggerService(cl, entries)
	resp, err := svc.ProcessBatch(ctx, domain.BatchRequest{
		EntryNames: []string{"PE-R1", "  "},
		Confirm:    true,
	})
	require.NoError(t, err)

	require.NotNil(t, resp.Result)
	assert.Equal(t, 2, resp.Result.Total)
	assert.Equal(t, 1, resp.Result.Succeeded)
	assert.Equal(t, 1, resp.Result.Failed)
	assert.Equal(t, missingNameMessage, resp.Result.Items[1].Message)
}
