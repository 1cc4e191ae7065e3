package http

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"billtracker/internal/core"
)

const maxUploadBytes = 10 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

type draftRequest struct {
	Title  string `json:"title"`
	Amount string `json:"amount"`
	Type   string `json:"type"`
	Note   string `json:"note"`
	Date   string `json:"date"`
}

// parseDraft accepts either a JSON body or a multipart form. Only the
// multipart form can carry an attachment.
func parseDraft(r *http.Request) (core.Draft, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return core.Draft{}, fmt.Errorf("invalid content type: %w", err)
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		return parseMultipartDraft(r)
	}

	var req draftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return core.Draft{}, fmt.Errorf("invalid request body: %w", err)
	}
	return draftFromFields(req, nil)
}

func parseMultipartDraft(r *http.Request) (core.Draft, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return core.Draft{}, fmt.Errorf("invalid multipart form: %w", err)
	}

	req := draftRequest{
		Title:  r.FormValue("title"),
		Amount: r.FormValue("amount"),
		Type:   r.FormValue("type"),
		Note:   r.FormValue("note"),
		Date:   r.FormValue("date"),
	}

	var attachment *core.Attachment
	file, header, err := r.FormFile("attachment")
	switch {
	case err == http.ErrMissingFile:
	case err != nil:
		return core.Draft{}, fmt.Errorf("invalid attachment: %w", err)
	default:
		attachment = &core.Attachment{Name: header.Filename, Content: file}
	}

	return draftFromFields(req, attachment)
}

func draftFromFields(req draftRequest, attachment *core.Attachment) (core.Draft, error) {
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.Draft{}, err
	}

	entryType := core.EntryType(req.Type)
	if !entryType.Valid() {
		return core.Draft{}, core.ErrInvalidType
	}

	var date time.Time
	if req.Date != "" {
		date, err = time.Parse("2006-01-02", req.Date)
		if err != nil {
			return core.Draft{}, fmt.Errorf("%w: %q (want YYYY-MM-DD)", core.ErrInvalidDate, req.Date)
		}
	}

	return core.Draft{
		Title:      strings.TrimSpace(req.Title),
		Amount:     core.Money{Cents: cents},
		Type:       entryType,
		Note:       req.Note,
		Date:       date,
		Attachment: attachment,
	}, nil
}
