package handler

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/pkordes/trip-ledger/internal/domain"
)

// ExportServicer produces the flat export rows.
type ExportServicer interface {
	Export(ctx context.Context, tripIndex *int) ([]domain.ExportRow, error)
}

// csvHeaders defines the column names written as the first row of any CSV export.
var csvHeaders = []string{
	"trip_index", "destination", "start_date", "end_date", "budget",
	"expense_index", "date", "category", "amount", "currency", "description",
}

// GetExport handles GET /export.
// Use ?format=csv to receive CSV; default is JSON. ?trip=N limits the export
// to one trip.
func (s *Server) GetExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format != "" && format != "json" && format != "csv" {
		writeError(w, http.StatusUnprocessableEntity, codeValidation, fmt.Sprintf("format must be json or csv, got %q", format))
		return
	}

	var tripIndex *int
	if raw := r.URL.Query().Get("trip"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, codeValidation, fmt.Sprintf("trip must be an integer, got %q", raw))
			return
		}
		tripIndex = &n
	}

	rows, err := s.export.Export(r.Context(), tripIndex)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			notFound(w, err)
			return
		}
		s.internalError(w, r, err)
		return
	}

	if format == "csv" {
		writeCSV(w, rows, exportFilename(tripIndex))
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// writeCSV encodes rows as CSV with a header row and sends it as an attachment.
func writeCSV(w http.ResponseWriter, rows []domain.ExportRow, filename string) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	//nolint:errcheck // bytes.Buffer.Write never returns an error.
	cw.Write(csvHeaders)
	for _, r := range rows {
		//nolint:errcheck
		cw.Write(rowToCSVRecord(r))
	}
	cw.Flush()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func exportFilename(tripIndex *int) string {
	if tripIndex == nil {
		return "trip_expenses.csv"
	}
	return fmt.Sprintf("trip_%d_expenses.csv", *tripIndex)
}

// rowToCSVRecord encodes a domain.ExportRow as a flat string slice.
// Nil optional fields are encoded as empty strings.
func rowToCSVRecord(r domain.ExportRow) []string {
	return []string{
		strconv.Itoa(r.TripIndex),
		r.Destination,
		r.StartDate,
		r.EndDate,
		formatOptionalFloat(r.Budget),
		formatOptionalInt(r.ExpenseIndex),
		r.Date,
		r.Category,
		formatOptionalFloat(r.Amount),
		r.Currency,
		r.Description,
	}
}

func formatOptionalFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func formatOptionalInt(i *int) string {
	if i == nil {
		return ""
	}
	return strconv.Itoa(*i)
}
