package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"billtracker/internal/core"
	"billtracker/internal/export"
)

type fakeReader struct {
	userID  string
	entries []core.LedgerEntry
}

func (f *fakeReader) Entries() []core.LedgerEntry { return f.entries }

func (f *fakeReader) EntriesFor(w core.Window) []core.LedgerEntry {
	return core.FilterByWindow(f.entries, w, time.Now())
}

func (f *fakeReader) Summary() core.Summary { return core.Summarize(f.entries) }

func (f *fakeReader) SummaryFor(w core.Window) core.Summary {
	return core.Summarize(core.FilterByWindow(f.entries, w, time.Now()))
}

func (f *fakeReader) Recent(n int) []core.LedgerEntry {
	if n > len(f.entries) {
		n = len(f.entries)
	}
	return f.entries[:n]
}

func (f *fakeReader) UserID() string { return f.userID }

type fakeSubmitter struct {
	lastUserID string
	lastDraft  core.Draft
	err        error
}

func (f *fakeSubmitter) Submit(_ context.Context, userID string, d core.Draft) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.lastUserID = userID
	f.lastDraft = d
	return "bill-1", nil
}

type fakeSink struct {
	lastReport export.Report
	err        error
}

func (f *fakeSink) Write(_ context.Context, r export.Report) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.lastReport = r
	return "sheet!A1:E4", nil
}

func sampleEntries() []core.LedgerEntry {
	now := time.Now()
	return []core.LedgerEntry{
		{ID: "a", Title: "Invoice", Amount: core.Money{Cents: 10000}, Type: core.Income, Date: now},
		{ID: "b", Title: "Supplies", Amount: core.Money{Cents: 3000}, Type: core.Expense, Date: now.Add(-time.Second)},
		{ID: "c", Title: "Old sale", Amount: core.Money{Cents: 5000}, Type: core.Income, Date: now.AddDate(-1, 0, 0)},
	}
}

func newTestHandler(reader LedgerReader, submitter BillSubmitter, sink export.Sink) http.Handler {
	return NewServer("127.0.0.1:0", reader, submitter, sink, nil).Handler
}

func TestHealth(t *testing.T) {
	h := newTestHandler(&fakeReader{}, &fakeSubmitter{}, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestSummaryWindows(t *testing.T) {
	reader := &fakeReader{entries: sampleEntries()}
	h := newTestHandler(reader, &fakeSubmitter{}, nil)

	tests := []struct {
		name         string
		query        string
		wantIncome   int64
		wantExpenses int64
	}{
		{name: "default is all time", query: "", wantIncome: 15000, wantExpenses: 3000},
		{name: "yearly", query: "?window=yearly", wantIncome: 10000, wantExpenses: 3000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/summary"+tt.query, nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}

			var got summaryResponse
			if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if got.IncomeCents != tt.wantIncome {
				t.Errorf("income: expected %d, got %d", tt.wantIncome, got.IncomeCents)
			}
			if got.ExpenseCents != tt.wantExpenses {
				t.Errorf("expenses: expected %d, got %d", tt.wantExpenses, got.ExpenseCents)
			}
			if got.ProfitCents != tt.wantIncome-tt.wantExpenses {
				t.Errorf("profit: expected %d, got %d", tt.wantIncome-tt.wantExpenses, got.ProfitCents)
			}
		})
	}
}

func TestSummaryRejectsUnknownWindow(t *testing.T) {
	h := newTestHandler(&fakeReader{}, &fakeSubmitter{}, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/summary?window=weekly", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestEntries(t *testing.T) {
	reader := &fakeReader{entries: sampleEntries()}
	h := newTestHandler(reader, &fakeSubmitter{}, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/entries", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var got []entryResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	if got[0].ID != "a" || got[0].AmountCents != 10000 {
		t.Errorf("unexpected first entry: %+v", got[0])
	}
}

func TestRecentLimit(t *testing.T) {
	reader := &fakeReader{entries: sampleEntries()}
	h := newTestHandler(reader, &fakeSubmitter{}, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/recent?n=2", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var got []entryResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
}

func TestRecentRejectsBadCount(t *testing.T) {
	h := newTestHandler(&fakeReader{}, &fakeSubmitter{}, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/recent?n=zero", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func submitJSON(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/bills", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSubmitJSON(t *testing.T) {
	submitter := &fakeSubmitter{}
	h := newTestHandler(&fakeReader{userID: "user-1"}, submitter, nil)

	rec := submitJSON(t, h, `{"title":"Rent","amount":"450.50","type":"expense","date":"2024-03-01"}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if submitter.lastUserID != "user-1" {
		t.Errorf("expected user-1, got %q", submitter.lastUserID)
	}
	if submitter.lastDraft.Amount.Cents != 45050 {
		t.Errorf("expected 45050 cents, got %d", submitter.lastDraft.Amount.Cents)
	}
	if submitter.lastDraft.Type != core.Expense {
		t.Errorf("expected expense, got %q", submitter.lastDraft.Type)
	}
	if submitter.lastDraft.Date.Format("2006-01-02") != "2024-03-01" {
		t.Errorf("unexpected date %v", submitter.lastDraft.Date)
	}
}

func TestSubmitRejectsBadAmount(t *testing.T) {
	h := newTestHandler(&fakeReader{userID: "user-1"}, &fakeSubmitter{}, nil)

	rec := submitJSON(t, h, `{"title":"Rent","amount":"-3","type":"expense"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSubmitRejectsBadType(t *testing.T) {
	h := newTestHandler(&fakeReader{userID: "user-1"}, &fakeSubmitter{}, nil)

	rec := submitJSON(t, h, `{"title":"Rent","amount":"3","type":"transfer"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSubmitWithoutSession(t *testing.T) {
	h := newTestHandler(&fakeReader{}, &fakeSubmitter{}, nil)

	rec := submitJSON(t, h, `{"title":"Rent","amount":"3","type":"expense"}`)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestSubmitValidationErrorFromService(t *testing.T) {
	submitter := &fakeSubmitter{err: core.ErrEmptyTitle}
	h := newTestHandler(&fakeReader{userID: "user-1"}, submitter, nil)

	rec := submitJSON(t, h, `{"amount":"3","type":"expense"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSubmitBackendFailure(t *testing.T) {
	submitter := &fakeSubmitter{err: errors.New("store unavailable")}
	h := newTestHandler(&fakeReader{userID: "user-1"}, submitter, nil)

	rec := submitJSON(t, h, `{"title":"Rent","amount":"3","type":"expense"}`)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestSubmitMultipartWithAttachment(t *testing.T) {
	submitter := &fakeSubmitter{}
	h := newTestHandler(&fakeReader{userID: "user-1"}, submitter, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("title", "Receipt")
	_ = mw.WriteField("amount", "12,50")
	_ = mw.WriteField("type", "expense")
	fw, err := mw.CreateFormFile("attachment", "receipt.pdf")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := io.WriteString(fw, "pdf bytes"); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/bills", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if submitter.lastDraft.Amount.Cents != 1250 {
		t.Errorf("expected 1250 cents, got %d", submitter.lastDraft.Amount.Cents)
	}
	if submitter.lastDraft.Attachment == nil {
		t.Fatal("expected attachment to be forwarded")
	}
	if submitter.lastDraft.Attachment.Name != "receipt.pdf" {
		t.Errorf("unexpected attachment name %q", submitter.lastDraft.Attachment.Name)
	}
}

func TestExportPreview(t *testing.T) {
	reader := &fakeReader{entries: sampleEntries()}
	h := newTestHandler(reader, &fakeSubmitter{}, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/export?window=monthly", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var got reportResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Label != "This month" {
		t.Errorf("expected label This month, got %q", got.Label)
	}
	if len(got.Rows) != 2 {
		t.Errorf("expected 2 rows, got %d", len(got.Rows))
	}
}

func TestExportWrite(t *testing.T) {
	sink := &fakeSink{}
	reader := &fakeReader{entries: sampleEntries()}
	h := newTestHandler(reader, &fakeSubmitter{}, sink)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/export?window=all", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(sink.lastReport.Rows) != 3 {
		t.Errorf("expected 3 exported rows, got %d", len(sink.lastReport.Rows))
	}

	var got map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got["ref"] != "sheet!A1:E4" {
		t.Errorf("unexpected ref %q", got["ref"])
	}
}

func TestExportWriteWithoutSink(t *testing.T) {
	h := newTestHandler(&fakeReader{}, &fakeSubmitter{}, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/export", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestExportWriteSinkFailure(t *testing.T) {
	sink := &fakeSink{err: errors.New("quota exceeded")}
	h := newTestHandler(&fakeReader{entries: sampleEntries()}, &fakeSubmitter{}, sink)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/export", nil))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}
