package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/snapmeal/snapmeal-go/internal/blob"
	"github.com/snapmeal/snapmeal-go/internal/reports"
	"github.com/snapmeal/snapmeal-go/internal/viewstate"
)

func newReportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Weekly nutrition reports",
	}
	cmd.AddCommand(newReportWeeksCmd(a), newReportShowCmd(a), newReportExportCmd(a))
	return cmd
}

func (a *app) browser() *reports.Browser {
	return reports.NewBrowser(a.api, time.Now().In(a.cfg.Location()), a.logger)
}

// loadWeek selects week index i (negative counts back from the latest week) and
// returns the loaded view.
func (a *app) loadWeek(cmd *cobra.Command, i int) (reports.View, error) {
	if err := a.requireSession(); err != nil {
		return reports.View{}, err
	}
	b := a.browser()
	defer b.Close()

	if i < 0 {
		i += len(b.Weeks())
	}
	if err := b.Select(cmd.Context(), i); err != nil {
		return reports.View{}, err
	}
	return b.View(), nil
}

func newReportWeeksCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "weeks",
		Short: "List the weeks of the last two months",
		RunE: func(cmd *cobra.Command, _ []string) error {
			b := a.browser()
			defer b.Close()
			weeks := b.Weeks()
			return a.emit(weeks, func() {
				for i, w := range weeks {
					a.printf("%2d  %s  %s ~ %s\n", i, w.Label, w.StartDate, w.EndDate)
				}
			})
		},
	}
}

func (a *app) printReport(v reports.View) {
	a.printf("%s (%s ~ %s)\n", v.Week.Label, v.Week.StartDate, v.Week.EndDate)
	r := v.Report
	if r == nil || r.Empty() {
		a.printf("  no report for this week\n")
		return
	}
	a.printf("  calories %s  carbs %sg  protein %sg  fat %sg\n",
		kcal(r.TotalCalories), viewstate.FormatGrams(r.TotalCarbs), viewstate.FormatGrams(r.TotalProtein), viewstate.FormatGrams(r.TotalFat))
	for _, s := range []struct{ label, text string }{
		{"summary", r.NutritionSummary},
		{"pattern", r.CaloriePattern},
		{"guidance", r.HealthGuidance},
		{"exercise", r.RecommendedExercise},
		{"food", r.FoodSuggestion},
	} {
		if s.text != "" {
			a.printf("  %-9s %s\n", s.label, s.text)
		}
	}
}

func newReportShowCmd(a *app) *cobra.Command {
	var week int

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the report of one week",
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := a.loadWeek(cmd, week)
			if err != nil {
				return err
			}
			return a.emit(v, func() { a.printReport(v) })
		},
	}
	cmd.Flags().IntVar(&week, "week", -1, "week index from `report weeks`, negative counts back from the latest")
	return cmd
}

func newReportExportCmd(a *app) *cobra.Command {
	var (
		week   int
		format string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render a week's report as PDF or CSV and store it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := a.loadWeek(cmd, week)
			if err != nil {
				return err
			}
			if v.Report == nil {
				if v.Error != "" {
					return errors.New(v.Error)
				}
				return reports.ErrEmptyReport
			}

			store, mode, err := blob.NewBlobStore(cmd.Context(), a.cfg.Blob, a.logger)
			if err != nil {
				return fmt.Errorf("blob store: %w", err)
			}
			svc := reports.NewService(reports.NewGenerator(a.cfg.ExportFontPath), store, a.cfg.Blob.S3.PresignTTLSeconds, a.logger)

			exp, err := svc.Export(cmd.Context(), v.Week, *v.Report, format)
			if err != nil {
				return err
			}
			return a.emit(exp, func() {
				a.printf("exported %s %s (%d bytes, %s)\n", v.Week.Label, exp.Format, exp.SizeBytes, mode)
				a.printf("  %s\n", exp.DownloadURL)
			})
		},
	}
	cmd.Flags().IntVar(&week, "week", -1, "week index from `report weeks`, negative counts back from the latest")
	cmd.Flags().StringVar(&format, "format", reports.FormatPDF, "pdf or csv")
	return cmd
}
