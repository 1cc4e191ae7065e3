package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"billtracker/internal/core"
	"billtracker/internal/export"
	"billtracker/internal/log"
	"billtracker/internal/services"
)

type summaryResponse struct {
	Window        string  `json:"window"`
	IncomeCents   int64   `json:"income_cents"`
	ExpenseCents  int64   `json:"expense_cents"`
	ProfitCents   int64   `json:"profit_cents"`
	TotalIncome   float64 `json:"total_income"`
	TotalExpenses float64 `json:"total_expenses"`
	Profit        float64 `json:"profit"`
}

type entryResponse struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Amount        float64 `json:"amount"`
	AmountCents   int64   `json:"amount_cents"`
	Type          string  `json:"type"`
	Note          string  `json:"note,omitempty"`
	Date          string  `json:"date"`
	AttachmentURL string  `json:"attachment_url,omitempty"`
}

func (s *server) handleSummary(w http.ResponseWriter, r *http.Request) {
	window, err := core.ParseWindow(r.URL.Query().Get("window"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sum := s.reader.SummaryFor(window)
	writeJSON(w, http.StatusOK, summaryResponse{
		Window:        string(window),
		IncomeCents:   sum.IncomeCents,
		ExpenseCents:  sum.ExpenseCents,
		ProfitCents:   sum.ProfitCents,
		TotalIncome:   core.Money{Cents: sum.IncomeCents}.Float(),
		TotalExpenses: core.Money{Cents: sum.ExpenseCents}.Float(),
		Profit:        core.Money{Cents: sum.ProfitCents}.Float(),
	})
}

func (s *server) handleEntries(w http.ResponseWriter, r *http.Request) {
	window, err := core.ParseWindow(r.URL.Query().Get("window"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toEntryResponses(s.reader.EntriesFor(window)))
}

func (s *server) handleRecent(w http.ResponseWriter, r *http.Request) {
	n := 5
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "n must be a positive integer")
			return
		}
		n = parsed
	}

	writeJSON(w, http.StatusOK, toEntryResponses(s.reader.Recent(n)))
}

func (s *server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	userID := s.reader.UserID()
	if userID == "" {
		writeError(w, http.StatusConflict, "no active ledger session")
		return
	}

	draft, err := parseDraft(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.submitter.Submit(r.Context(), userID, draft)
	if err != nil {
		if isValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.ErrorContext(r.Context(), "Bill submission failed",
			log.FieldOperation, log.OpSubmit,
			log.FieldUserID, userID,
			log.FieldError, err)
		writeError(w, http.StatusBadGateway, "submission failed")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *server) handleExport(w http.ResponseWriter, r *http.Request) {
	report, ok := s.buildReport(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toReportResponse(report))
}

func (s *server) handleExportWrite(w http.ResponseWriter, r *http.Request) {
	if s.sink == nil {
		writeError(w, http.StatusServiceUnavailable, "no export sink configured")
		return
	}

	report, ok := s.buildReport(w, r)
	if !ok {
		return
	}

	ref, err := s.sink.Write(r.Context(), report)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Report export failed",
			log.FieldOperation, log.OpExport,
			log.FieldWindow, string(report.Window),
			log.FieldError, err)
		writeError(w, http.StatusBadGateway, "export failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"ref": ref})
}

func (s *server) buildReport(w http.ResponseWriter, r *http.Request) (export.Report, bool) {
	window, err := core.ParseWindow(r.URL.Query().Get("window"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return export.Report{}, false
	}
	return export.BuildReport(s.reader.Entries(), window, time.Now()), true
}

func isValidationError(err error) bool {
	return errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrEmptyTitle) ||
		errors.Is(err, core.ErrTitleTooLong) ||
		errors.Is(err, core.ErrInvalidType) ||
		errors.Is(err, core.ErrInvalidDate) ||
		errors.Is(err, services.ErrMissingUser)
}

func toEntryResponses(entries []core.LedgerEntry) []entryResponse {
	out := make([]entryResponse, len(entries))
	for i, e := range entries {
		out[i] = entryResponse{
			ID:            e.ID,
			Title:         e.Title,
			Amount:        e.Amount.Float(),
			AmountCents:   e.Amount.Cents,
			Type:          string(e.Type),
			Note:          e.Note,
			Date:          e.Date.Format("2006-01-02"),
			AttachmentURL: e.AttachmentURL,
		}
	}
	return out
}

type reportResponse struct {
	Window  string          `json:"window"`
	Label   string          `json:"label"`
	Summary summaryResponse `json:"summary"`
	Rows    []reportRow     `json:"rows"`
}

type reportRow struct {
	Title       string  `json:"title"`
	Date        string  `json:"date"`
	Type        string  `json:"type"`
	Amount      float64 `json:"amount"`
	AmountCents int64   `json:"amount_cents"`
	Note        string  `json:"note,omitempty"`
}

func toReportResponse(r export.Report) reportResponse {
	rows := make([]reportRow, len(r.Rows))
	for i, row := range r.Rows {
		rows[i] = reportRow{
			Title:       row.Title,
			Date:        row.Date.Format("2006-01-02"),
			Type:        string(row.Type),
			Amount:      core.Money{Cents: row.AmountCents}.Float(),
			AmountCents: row.AmountCents,
			Note:        row.Note,
		}
	}
	return reportResponse{
		Window: string(r.Window),
		Label:  r.Label(),
		Summary: summaryResponse{
			Window:        string(r.Window),
			IncomeCents:   r.Summary.IncomeCents,
			ExpenseCents:  r.Summary.ExpenseCents,
			ProfitCents:   r.Summary.ProfitCents,
			TotalIncome:   core.Money{Cents: r.Summary.IncomeCents}.Float(),
			TotalExpenses: core.Money{Cents: r.Summary.ExpenseCents}.Float(),
			Profit:        core.Money{Cents: r.Summary.ProfitCents}.Float(),
		},
		Rows: rows,
	}
}
