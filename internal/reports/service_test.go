package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"

	"github.com/snapmeal/snapmeal-go/internal/apiclient"
	"github.com/snapmeal/snapmeal-go/internal/blob"
	"github.com/snapmeal/snapmeal-go/internal/viewstate"
)

var testWeek = viewstate.Week{Year: 2026, Month: 10, WeekOfMonth: 3, Label: "26년 10월 3주차", StartDate: "2026-10-11", EndDate: "2026-10-17"}

var testSummary = apiclient.ReportSummary{
	ReportDate:       "2026-10-18",
	TotalCalories:    12600,
	TotalProtein:     26,
	TotalFat:         14,
	TotalCarbs:       60,
	NutritionSummary: "탄수화물 섭취가 많은 편입니다.",
	HealthGuidance:   "Drink more water.",
}

func newTestService(t *testing.T) (*Service, *blob.LocalStore) {
	t.Helper()
	store, err := blob.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	return NewService(NewGenerator(""), store, 600, nil), store
}

func TestGenerateCSV(t *testing.T) {
	data, err := NewGenerator("").Generate(testWeek, testSummary, FormatCSV)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	values := make(map[string]string, len(rows))
	for _, r := range rows {
		values[r[0]] = r[1]
	}

	if values["week"] != "26년 10월 3주차" || values["total_calories"] != "12600" {
		t.Fatalf("unexpected csv values %v", values)
	}
	if values["share_탄수화물"] != "60" || values["share_단백질"] != "26" || values["share_지방"] != "14" {
		t.Fatalf("unexpected macro shares %v", values)
	}
}

func TestGeneratePDF(t *testing.T) {
	data, err := NewGenerator("").Generate(testWeek, testSummary, FormatPDF)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("expected PDF header, got %q", data[:8])
	}
}

func TestGeneratePDFMissingFontFallsBack(t *testing.T) {
	data, err := NewGenerator("/nonexistent/font.ttf").Generate(testWeek, testSummary, FormatPDF)
	if err != nil {
		t.Fatalf("expected fallback to built-in font, got %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatal("expected PDF output")
	}
}

func TestExportStoresAndReturnsURL(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	exp, err := svc.Export(ctx, testWeek, testSummary, "CSV")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if exp.Format != FormatCSV || !strings.HasPrefix(exp.ObjectKey, "reports/2026-10-11_2026-10-17_") {
		t.Fatalf("unexpected export %+v", exp)
	}
	if !strings.HasPrefix(exp.DownloadURL, "file://") {
		t.Fatalf("expected file URL, got %s", exp.DownloadURL)
	}

	data, err := store.GetObject(ctx, exp.ObjectKey)
	if err != nil || int64(len(data)) != exp.SizeBytes {
		t.Fatalf("stored object mismatch: len=%d size=%d err=%v", len(data), exp.SizeBytes, err)
	}

	if err := svc.Delete(ctx, exp.ObjectKey); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestExportValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Export(ctx, testWeek, testSummary, "xlsx"); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
	if _, err := svc.Export(ctx, testWeek, apiclient.ReportSummary{}, FormatPDF); !errors.Is(err, ErrEmptyReport) {
		t.Fatalf("expected ErrEmptyReport, got %v", err)
	}
}
