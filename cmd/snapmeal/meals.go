package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/snapmeal/snapmeal-go/internal/apiclient"
	"github.com/snapmeal/snapmeal-go/internal/meals"
	"github.com/snapmeal/snapmeal-go/internal/viewstate"
)

func newMealsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meals",
		Short: "Browse and manage logged meals",
	}
	cmd.AddCommand(
		newMealsListCmd(a),
		newMealsDeleteCmd(a),
		newMealsCalendarCmd(a),
		newMealsEditCmd(a),
	)
	return cmd
}

// recommendedCalories reads the daily target from the profile; a failed lookup yields 0.
func (a *app) recommendedCalories(ctx context.Context) float64 {
	u, err := a.auth.Me(ctx)
	if err != nil {
		a.logger.Printf("WARN meals: recommended_lookup_failed err=%v", err)
		return 0
	}
	return u.RecommendedCalories
}

func (a *app) printDay(s meals.DaySummary) {
	a.printf("%s  %s / %s  %s %s\n", s.Date, kcal(s.Consumed), kcal(s.Recommended), bar(s.Status.FillPercent, 20), s.Status.Level)
	if len(s.Cards) == 0 {
		a.printf("  no meals logged\n")
	}
	for _, c := range s.Cards {
		tops := make([]string, 0, len(c.TopNutrients))
		for _, n := range c.TopNutrients {
			tops = append(tops, n.Label+" "+n.Value)
		}
		slot := c.Meal.MealTime
		if slot == "" {
			slot = "-"
		}
		a.printf("  #%d %-4s %s %s [%s] %s\n", c.Meal.ID, slot, c.Meal.Title, kcal(c.Meal.Calories), c.Tag, strings.Join(tops, ", "))
	}
	if s.Error != "" {
		a.printf("! %s\n", s.Error)
	}
}

func newMealsListCmd(a *app) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the meals of one day",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireSession(); err != nil {
				return err
			}
			if date == "" {
				date = a.today()
			}
			cal := meals.NewCalendar(a.api, a.recommendedCalories(cmd.Context()), a.logger)
			if err := cal.Select(cmd.Context(), date); err != nil {
				return err
			}
			summary := cal.Summary()
			return a.emit(summary, func() { a.printDay(summary) })
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to list (YYYY-MM-DD), defaults to today")
	return cmd
}

func newMealsDeleteCmd(a *app) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "delete <meal-id>",
		Short: "Delete a saved meal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireSession(); err != nil {
				return err
			}
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid meal id %q", args[0])
			}
			if date == "" {
				date = a.today()
			}

			cal := meals.NewCalendar(a.api, a.recommendedCalories(cmd.Context()), a.logger)
			if err := cal.Select(cmd.Context(), date); err != nil {
				return err
			}
			if err := cal.Delete(cmd.Context(), id); err != nil {
				return err
			}
			summary := cal.Summary()
			return a.emit(summary, func() {
				a.printf("deleted meal #%d\n", id)
				a.printDay(summary)
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day the meal belongs to, defaults to today")
	return cmd
}

func newMealsCalendarCmd(a *app) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show calorie marks for every day of a month up to today",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireSession(); err != nil {
				return err
			}
			if date == "" {
				date = a.today()
			}
			first, last, ok := viewstate.MonthRange(date)
			if !ok {
				return fmt.Errorf("invalid date %q", date)
			}
			if today := a.today(); last > today {
				last = today
			}

			ctx := cmd.Context()
			cal := meals.NewCalendar(a.api, a.recommendedCalories(ctx), a.logger)
			day, _ := time.Parse(viewstate.DateLayout, first)
			for d := day.Format(viewstate.DateLayout); d <= last; d = day.Format(viewstate.DateLayout) {
				if err := cal.Select(ctx, d); err != nil && ctx.Err() != nil {
					return err
				}
				day = day.AddDate(0, 0, 1)
			}
			if err := cal.Select(ctx, date); err != nil {
				return err
			}

			marks := cal.Marks()
			return a.emit(marks, func() {
				for _, m := range marks {
					sel := " "
					if m.Selected {
						sel = "*"
					}
					a.printf("%s %s %s (%s)\n", sel, m.Date, m.Level, m.Color)
				}
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "any day of the month, defaults to today")
	return cmd
}

func newMealsEditCmd(a *app) *cobra.Command {
	var (
		date     string
		title    string
		mealTime string
		grams    []string
	)

	cmd := &cobra.Command{
		Use:   "edit [meal-id]",
		Short: "Open a meal (or a new one) in the editor and print the validated draft",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if date == "" {
				date = a.today()
			}

			var meal *apiclient.Meal
			if len(args) == 1 {
				if err := a.requireSession(); err != nil {
					return err
				}
				id, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid meal id %q", args[0])
				}
				list, err := a.api.ListMeals(cmd.Context(), date)
				if err != nil {
					return err
				}
				for i := range list {
					if list[i].ID == id {
						meal = &list[i]
						break
					}
				}
				if meal == nil {
					return fmt.Errorf("meal #%d not found on %s", id, date)
				}
			}

			ed := meals.NewEditor(meal, date)
			if cmd.Flags().Changed("title") {
				ed.SetTitle(title)
			}
			if cmd.Flags().Changed("meal-time") {
				if err := ed.SetMealTime(mealTime); err != nil {
					return err
				}
			}
			for _, kv := range grams {
				key, value, err := parseGrams(kv)
				if err != nil {
					return err
				}
				if err := ed.SetGrams(key, value); err != nil {
					return err
				}
			}
			if err := ed.Validate(); err != nil {
				return err
			}

			draft := ed.Draft()
			return a.emit(draft, func() { a.printDraft(draft, ed.TotalGrams()) })
		},
	}
	f := cmd.Flags()
	f.StringVar(&date, "date", "", "day of the meal, defaults to today")
	f.StringVar(&title, "title", "", "meal title")
	f.StringVar(&mealTime, "meal-time", "", "아침, 점심 or 저녁")
	f.StringSliceVar(&grams, "grams", nil, "nutrient grams as key=value (1 탄수화물, 2 단백질, 3 지방, 4 당류, 5 식이섬유)")
	return cmd
}

func (a *app) printDraft(d meals.Draft, total float64) {
	a.printf("%s [%s] %s\n", d.Title, d.MealTime, d.Date)
	for _, it := range d.Items {
		a.printf("  %d %-6s %6.1fg %5.1f%% %s\n", it.Key, it.Label, it.Grams, it.Percent, bar(it.Percent, 20))
	}
	a.printf("  total %.1fg\n", total)
}

func parseGrams(kv string) (int, float64, error) {
	k, v, ok := strings.Cut(kv, "=")
	if !ok {
		return 0, 0, fmt.Errorf("invalid --grams %q, want key=value", kv)
	}
	key, err := strconv.Atoi(strings.TrimSpace(k))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid nutrient key %q", k)
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid grams %q", v)
	}
	return key, value, nil
}

func newAnalyzeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <image>",
		Short: "Classify a meal photo and upload it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireSession(); err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			img := apiclient.Image{
				Filename:    filepath.Base(args[0]),
				ContentType: imageContentType(args[0]),
				Data:        data,
			}

			analysis, err := meals.NewAnalyzer(a.api, a.logger).Analyze(cmd.Context(), img)
			if err != nil {
				return err
			}

			ed := meals.NewEditor(nil, a.today())
			ed.SetTitle(analysis.MenuName())
			draft := ed.Draft()

			return a.emit(map[string]any{"analysis": analysis, "draft": draft}, func() {
				a.printf("uploaded image_id=%s\n", analysis.ImageID)
				for _, d := range analysis.Detections {
					a.printf("  %s %.0f%%\n", d.ClassName, d.Confidence*100)
				}
				a.printDraft(draft, ed.TotalGrams())
			})
		},
	}
}

func imageContentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".heic":
		return "image/heic"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
