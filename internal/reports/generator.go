package reports

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"

	"github.com/snapmeal/snapmeal-go/internal/apiclient"
	"github.com/snapmeal/snapmeal-go/internal/viewstate"
)

const utf8FontFamily = "ReportUTF8"

// Generator renders a weekly report summary as PDF or CSV.
type Generator struct {
	fontPath string
}

// NewGenerator creates a generator. fontPath is an optional UTF-8 TTF with Hangul glyphs;
// without it PDFs use the built-in Arial and English labels.
func NewGenerator(fontPath string) *Generator {
	return &Generator{fontPath: fontPath}
}

// Generate renders summary for week in the given format.
func (g *Generator) Generate(week viewstate.Week, summary apiclient.ReportSummary, format string) ([]byte, error) {
	switch format {
	case FormatPDF:
		return g.generatePDF(week, summary)
	case FormatCSV:
		return g.generateCSV(week, summary)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidFormat, format)
	}
}

// macroShares splits the weekly grams of carbs, protein and fat into percentages.
func macroShares(s apiclient.ReportSummary) []viewstate.NutrientItem {
	return viewstate.RecomputePercents([]viewstate.NutrientItem{
		{Key: 1, Label: "탄수화물", Grams: s.TotalCarbs, Color: "orange"},
		{Key: 2, Label: "단백질", Grams: s.TotalProtein, Color: "green"},
		{Key: 3, Label: "지방", Grams: s.TotalFat, Color: "blue"},
	})
}

func (g *Generator) generateCSV(week viewstate.Week, s apiclient.ReportSummary) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	rows := [][]string{
		{"field", "value"},
		{"week", week.Label},
		{"start_date", week.StartDate},
		{"end_date", week.EndDate},
		{"report_date", s.ReportDate},
		{"total_calories", formatNumber(s.TotalCalories)},
		{"total_carbs_g", formatNumber(s.TotalCarbs)},
		{"total_protein_g", formatNumber(s.TotalProtein)},
		{"total_fat_g", formatNumber(s.TotalFat)},
	}
	for _, item := range macroShares(s) {
		rows = append(rows, []string{"share_" + item.Label, formatNumber(item.Percent)})
	}
	rows = append(rows,
		[]string{"nutrition_summary", s.NutritionSummary},
		[]string{"calorie_pattern", s.CaloriePattern},
		[]string{"health_guidance", s.HealthGuidance},
		[]string{"recommended_exercise", s.RecommendedExercise},
		[]string{"food_suggestion", s.FoodSuggestion},
	)

	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type pdfLabels struct {
	title, period, totals, calories, carbs, protein, fat, share string
	sections                                                   [5]string
}

var koreanLabels = pdfLabels{
	title:    "주간 식단 리포트",
	period:   "기간",
	totals:   "합계",
	calories: "총 칼로리",
	carbs:    "탄수화물",
	protein:  "단백질",
	fat:      "지방",
	share:    "비율",
	sections: [5]string{"영양 요약", "칼로리 패턴", "건강 가이드", "추천 운동", "추천 음식"},
}

var englishLabels = pdfLabels{
	title:    "Weekly Meal Report",
	period:   "Period",
	totals:   "Totals",
	calories: "Total calories",
	carbs:    "Carbs",
	protein:  "Protein",
	fat:      "Fat",
	share:    "Share",
	sections: [5]string{"Nutrition summary", "Calorie pattern", "Health guidance", "Recommended exercise", "Food suggestion"},
}

func (g *Generator) generatePDF(week viewstate.Week, s apiclient.ReportSummary) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")

	fontName := "Arial"
	labels := englishLabels
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if g.fontPath != "" {
		pdf.AddUTF8Font(utf8FontFamily, "", g.fontPath)
		if pdf.Ok() {
			fontName = utf8FontFamily
			labels = koreanLabels
			tr = func(s string) string { return s }
		} else {
			pdf.ClearError()
		}
	}

	pdf.AddPage()

	pdf.SetFont(fontName, "", 16)
	title := labels.title
	if fontName == utf8FontFamily && week.Label != "" {
		title = week.Label + " " + title
	}
	pdf.Cell(0, 10, tr(title))
	pdf.Ln(10)

	pdf.SetFont(fontName, "", 11)
	pdf.Cell(0, 8, tr(fmt.Sprintf("%s: %s ~ %s", labels.period, week.StartDate, week.EndDate)))
	pdf.Ln(12)

	// Totals table
	pdf.SetFont(fontName, "", 13)
	pdf.Cell(0, 8, tr(labels.totals))
	pdf.Ln(9)

	pdf.SetFont(fontName, "", 10)
	pdf.CellFormat(60, 7, tr(labels.calories), "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 7, formatNumber(s.TotalCalories)+" kcal", "1", 0, "R", false, 0, "")
	pdf.CellFormat(30, 7, "", "1", 1, "C", false, 0, "")

	names := map[int]string{1: labels.carbs, 2: labels.protein, 3: labels.fat}
	for _, item := range macroShares(s) {
		pdf.CellFormat(60, 7, tr(names[item.Key]), "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, viewstate.FormatGrams(item.Grams), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 7, fmt.Sprintf("%s %s%%", tr(labels.share), formatNumber(item.Percent)), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(8)

	texts := [5]string{s.NutritionSummary, s.CaloriePattern, s.HealthGuidance, s.RecommendedExercise, s.FoodSuggestion}
	for i, text := range texts {
		if text == "" {
			continue
		}
		pdf.SetFont(fontName, "", 12)
		pdf.Cell(0, 8, tr(labels.sections[i]))
		pdf.Ln(8)
		pdf.SetFont(fontName, "", 10)
		pdf.MultiCell(0, 5, tr(text), "", "L", false)
		pdf.Ln(4)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
