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
	"go.uber.org/zap"
)

// Mock objects
type mockClient struct {
	mock.Mock
}

func (m *mockClient) Calculate(ctx context.Context, name string) (domain.Result, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(domain.Result), args.Error(1)
}

type mockEntries struct {
	mock.Mock
}

func (m *mockEntries) List(ctx context.Context, req paymententrydomain.ListRequest) (paymententrydomain.ListResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(paymententrydomain.ListResponse), args.Error(1)
}

func (m *mockEntries) GetByName(ctx context.Context, name string) (paymententrydomain.PaymentEntry, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(paymententrydomain.PaymentEntry), args.Error(1)
}

func (m *mockEntries) UpdateReference(ctx context.Context, req paymententrydomain.UpdateReferenceRequest) (paymententrydomain.PaymentEntry, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(paymententrydomain.PaymentEntry), args.Error(1)
}

func (m *mockEntries) SetDeductions(ctx context.Context, req paymententrydomain.SetDeductionsRequest) (paymententrydomain.PaymentEntry, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(paymententrydomain.PaymentEntry), args.Error(1)
}

func (m *mockEntries) Recompute(ctx context.Context, name string) (paymententrydomain.PaymentEntry, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(paymententrydomain.PaymentEntry), args.Error(1)
}

func newTriggerService(c domain.Client, entries paymententrydomain.Service) *Service {
	return NewService(ServiceParam{
		Client:  c,
		Entries: entries,
		Log:     zap.NewNop(),
	}).(*Service)
}

func submittedReceiveEntry(name string) paymententrydomain.PaymentEntry {
	return paymententrydomain.PaymentEntry{
		Name:        name,
		PaymentType: paymententrydomain.PaymentTypeReceive,
		DocStatus:   paymententrydomain.DocStatusSubmitted,
	}
}

func TestTrigger_Success(t *testing.T) {
	ctx := context.Background()
	entries := new(mockEntries)
	cl := new(mockClient)

	entry := submittedReceiveEntry("PE-0001")
	entries.On("GetByName", ctx, "PE-0001").Return(entry, nil).Twice()
	cl.On("Calculate", ctx, "PE-0001").Return(domain.Result{
		Status:  domain.StatusSuccess,
		Message: "Net contribution updated",
	}, nil).Once()

	resp, err := newTriggerService(cl, entries).Trigger(ctx, "PE-0001")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, resp.Result.Status)
	assert.Equal(t, "PE-0001", resp.Entry.Name)

	cl.AssertExpectations(t)
	entries.AssertExpectations(t)
}

func TestTrigger_DraftEntryRejected(t *testing.T) {
	ctx := context.Background()
	entries := new(mockEntries)
	cl := new(mockClient)

	draft := paymententrydomain.PaymentEntry{
		Name:        "PE-0002",
		PaymentType: paymententrydomain.PaymentTypeReceive,
		DocStatus:   paymententrydomain.DocStatusDraft,
	}
	entries.On("GetByName", ctx, "PE-0002").Return(draft, nil).Once()

	_, err := newTriggerService(cl, entries).Trigger(ctx, "PE-0002")
	assert.ErrorIs(t, err, domain.ErrEntryNotSubmitted)
	cl.AssertNotCalled(t, "Calculate", mock.Anything, mock.Anything)
}

func TestTrigger_PayEntryRejected(t *testing.T) {
	ctx := context.Background()
	entries := new(mockEntries)
	cl := new(mockClient)

	pay := paymententrydomain.PaymentEntry{
		Name:        "PE-0003",
		PaymentType: paymententrydomain.PaymentTypePay,
		DocStatus:   paymententrydomain.DocStatusSubmitted,
	}
	entries.On("GetByName", ctx, "PE-0003").Return(pay, nil).Once()

	_, err := newTriggerService(cl, entries).Trigger(ctx, "PE-0003")
	assert.ErrorIs(t, err, domain.ErrEntryNotReceive)
	cl.AssertNotCalled(t, "Calculate", mock.Anything, mock.Anything)
}

func TestTrigger_RemoteFailureSurfaced(t *testing.T) {
	ctx := context.Background()
	entries := new(mockEntries)
	cl := new(mockClient)

	entries.On("GetByName", ctx, "PE-0004").Return(submittedReceiveEntry("PE-0004"), nil).Once()
	remoteErr := &client.RemoteError{StatusCode: 409, Message: "Sales team missing"}
	cl.On("Calculate", ctx, "PE-0004").Return(domain.Result{}, remoteErr).Once()

	_, err := newTriggerService(cl, entries).Trigger(ctx, "PE-0004")
	require.Error(t, err)

	var remote *client.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, "Sales team missing", remote.Message)
}
