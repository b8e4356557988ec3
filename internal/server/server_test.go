package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	commissiondomain "github.com/smallbiznis/netcontrib/internal/commission/domain"
	"github.com/smallbiznis/netcontrib/internal/config"
	"github.com/smallbiznis/netcontrib/internal/netcontribution/client"
	netcontributiondomain "github.com/smallbiznis/netcontrib/internal/netcontribution/domain"
	paymententrydomain "github.com/smallbiznis/netcontrib/internal/paymententry/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEntryService struct {
	entries map[string]paymententrydomain.PaymentEntry
	lastErr error
}

func (f *fakeEntryService) List(ctx context.Context, req paymententrydomain.ListRequest) (paymententrydomain.ListResponse, error) {
	out := make([]paymententrydomain.PaymentEntry, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e)
	}
	return paymententrydomain.ListResponse{Entries: out}, nil
}

func (f *fakeEntryService) GetByName(ctx context.Context, name string) (paymententrydomain.PaymentEntry, error) {
	entry, ok := f.entries[name]
	if !ok {
		return paymententrydomain.PaymentEntry{}, paymententrydomain.ErrNotFound
	}
	return entry, nil
}

func (f *fakeEntryService) UpdateReference(ctx context.Context, req paymententrydomain.UpdateReferenceRequest) (paymententrydomain.PaymentEntry, error) {
	if f.lastErr != nil {
		return paymententrydomain.PaymentEntry{}, f.lastErr
	}
	return f.GetByName(ctx, req.EntryName)
}

func (f *fakeEntryService) SetDeductions(ctx context.Context, req paymententrydomain.SetDeductionsRequest) (paymententrydomain.PaymentEntry, error) {
	if f.lastErr != nil {
		return paymententrydomain.PaymentEntry{}, f.lastErr
	}
	return f.GetByName(ctx, req.EntryName)
}

func (f *fakeEntryService) Recompute(ctx context.Context, name string) (paymententrydomain.PaymentEntry, error) {
	if f.lastErr != nil {
		return paymententrydomain.PaymentEntry{}, f.lastErr
	}
	return f.GetByName(ctx, name)
}

type fakeContribService struct {
	triggerResp netcontributiondomain.TriggerResponse
	triggerErr  error
	batchResp   netcontributiondomain.BatchResponse
	batchErr    error
}

func (f *fakeContribService) Trigger(ctx context.Context, name string) (netcontributiondomain.TriggerResponse, error) {
	return f.triggerResp, f.triggerErr
}

func (f *fakeContribService) ProcessBatch(ctx context.Context, req netcontributiondomain.BatchRequest) (netcontributiondomain.BatchResponse, error) {
	return f.batchResp, f.batchErr
}

type fakeReportService struct {
	report commissiondomain.Report
	err    error
}

func (f *fakeReportService) FilterSchema() []commissiondomain.FilterField {
	return make([]commissiondomain.FilterField, 5)
}

func (f *fakeReportService) Run(ctx context.Context, filters commissiondomain.Filters) (commissiondomain.Report, error) {
	return f.report, f.err
}

func newTestServer(entries *fakeEntryService, contrib *fakeContribService, reports *fakeReportService) *Server {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	return NewServer(ServerParams{
		Gin:        engine,
		Cfg:        config.Config{},
		EntrySvc:   entries,
		ContribSvc: contrib,
		ReportSvc:  reports,
	})
}

func doRequest(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)
	return rec
}

func TestGetPaymentEntry(t *testing.T) {
	entries := &fakeEntryService{entries: map[string]paymententrydomain.PaymentEntry{
		"PE-0001": {Name: "PE-0001", PaymentType: paymententrydomain.PaymentTypeReceive},
	}}
	s := newTestServer(entries, &fakeContribService{}, &fakeReportService{})

	rec := doRequest(t, s, http.MethodGet, "/api/v1/payment-entries/PE-0001", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "PE-0001")

	rec = doRequest(t, s, http.MethodGet, "/api/v1/payment-entries/PE-MISSING", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateReference_Validation(t *testing.T) {
	entries := &fakeEntryService{entries: map[string]paymententrydomain.PaymentEntry{
		"PE-0001": {Name: "PE-0001"},
	}}
	s := newTestServer(entries, &fakeContribService{}, &fakeReportService{})

	// Non-numeric row index.
	rec := doRequest(t, s, http.MethodPut, "/api/v1/payment-entries/PE-0001/references/abc",
		map[string]any{"allocated_amount": 100})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// No fields to update.
	rec = doRequest(t, s, http.MethodPut, "/api/v1/payment-entries/PE-0001/references/0",
		map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateReference_ImmutableEntryConflicts(t *testing.T) {
	entries := &fakeEntryService{
		entries: map[string]paymententrydomain.PaymentEntry{"PE-0001": {Name: "PE-0001"}},
		lastErr: paymententrydomain.ErrEntryImmutable,
	}
	s := newTestServer(entries, &fakeContribService{}, &fakeReportService{})

	rec := doRequest(t, s, http.MethodPut, "/api/v1/payment-entries/PE-0001/references/0",
		map[string]any{"allocated_amount": 100})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestTriggerNetContribution(t *testing.T) {
	contrib := &fakeContribService{
		triggerResp: netcontributiondomain.TriggerResponse{
			Result: netcontributiondomain.Result{
				Status:  netcontributiondomain.StatusSuccess,
				Message: "Net contribution updated",
			},
		},
	}
	s := newTestServer(&fakeEntryService{}, contrib, &fakeReportService{})

	rec := doRequest(t, s, http.MethodPost, "/api/v1/payment-entries/PE-0001/net-contribution", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Net contribution updated")
}

func TestTriggerNetContribution_RemoteFailure(t *testing.T) {
	contrib := &fakeContribService{
		triggerErr: &client.RemoteError{StatusCode: 500, Message: "Sales team missing"},
	}
	s := newTestServer(&fakeEntryService{}, contrib, &fakeReportService{})

	rec := doRequest(t, s, http.MethodPost, "/api/v1/payment-entries/PE-0001/net-contribution", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sales team missing")
}

func TestRunNetContributionBatch(t *testing.T) {
	contrib := &fakeContribService{
		batchResp: netcontributiondomain.BatchResponse{
			RequiresConfirm: true,
			Eligible:        []string{"PE-0001"},
		},
	}
	s := newTestServer(&fakeEntryService{}, contrib, &fakeReportService{})

	rec := doRequest(t, s, http.MethodPost, "/api/v1/payment-entries/net-contribution/batch",
		map[string]any{"entry_names": []string{"PE-0001"}})
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestRunNetContributionBatch_EmptySelection(t *testing.T) {
	contrib := &fakeContribService{batchErr: netcontributiondomain.ErrEmptySelection}
	s := newTestServer(&fakeEntryService{}, contrib, &fakeReportService{})

	rec := doRequest(t, s, http.MethodPost, "/api/v1/payment-entries/net-contribution/batch",
		map[string]any{"entry_names": []string{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSalesCommissionReport(t *testing.T) {
	reports := &fakeReportService{
		report: commissiondomain.Report{
			Filters: commissiondomain.Filters{
				FromDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
				ToDate:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
			},
			Rows: []commissiondomain.ReportRow{{SalesPerson: "Jane Roe"}},
		},
	}
	s := newTestServer(&fakeEntryService{}, &fakeContribService{}, reports)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/reports/sales-commission?sales_person=Jane+Roe", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Jane Roe")

	rec = doRequest(t, s, http.MethodGet, "/api/v1/reports/sales-commission?from_date=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/api/v1/reports/sales-commission/filters", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
