package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// ReportSummary is the weekly nutrition report.
type ReportSummary struct {
	ReportDate          string  `json:"report_date"`
	TotalCalories       float64 `json:"total_calories"`
	TotalProtein        float64 `json:"total_protein"`
	TotalFat            float64 `json:"total_fat"`
	TotalCarbs          float64 `json:"total_carbs"`
	NutritionSummary    string  `json:"nutrition_summary"`
	CaloriePattern      string  `json:"calorie_pattern"`
	HealthGuidance      string  `json:"health_guidance"`
	RecommendedExercise string  `json:"recommended_exercise"`
	FoodSuggestion      string  `json:"food_suggestion"`
}

// Empty reports whether the backend had nothing for the requested week.
func (r ReportSummary) Empty() bool {
	return r.TotalCalories == 0 && r.TotalProtein == 0 && r.TotalFat == 0 && r.TotalCarbs == 0 &&
		r.NutritionSummary == "" && r.CaloriePattern == "" && r.HealthGuidance == ""
}

type reportWire struct {
	ReportDate          Text   `json:"reportDate"`
	TotalCalories       Number `json:"totalCalories"`
	TotalProtein        Number `json:"totalProtein"`
	TotalFat            Number `json:"totalFat"`
	TotalCarbs          Number `json:"totalCarbs"`
	NutritionSummary    Text   `json:"nutritionSummary"`
	CaloriePattern      Text   `json:"caloriePattern"`
	HealthGuidance      Text   `json:"healthGuidance"`
	RecommendedExercise Text   `json:"recommendedExercise"`
	FoodSuggestion      Text   `json:"foodSuggestion"`
}

// MyReport fetches the report for the week [startDate, endDate].
func (c *Client) MyReport(ctx context.Context, startDate, endDate string) (*ReportSummary, error) {
	q := url.Values{}
	if startDate != "" {
		q.Set("startDate", startDate)
	}
	if endDate != "" {
		q.Set("endDate", endDate)
	}

	body, err := c.do(ctx, request{method: http.MethodGet, path: "/reports/me", query: q, auth: true})
	if err != nil {
		return nil, err
	}

	var wire reportWire
	if err := decodeJSON(unwrapObject(body), &wire); err != nil {
		return nil, err
	}

	reportDate := strings.TrimSpace(wire.ReportDate.String())
	if len(reportDate) > 10 {
		reportDate = reportDate[:10]
	}

	return &ReportSummary{
		ReportDate:          reportDate,
		TotalCalories:       wire.TotalCalories.Float(),
		TotalProtein:        wire.TotalProtein.Float(),
		TotalFat:            wire.TotalFat.Float(),
		TotalCarbs:          wire.TotalCarbs.Float(),
		NutritionSummary:    strings.TrimSpace(wire.NutritionSummary.String()),
		CaloriePattern:      strings.TrimSpace(wire.CaloriePattern.String()),
		HealthGuidance:      strings.TrimSpace(wire.HealthGuidance.String()),
		RecommendedExercise: strings.TrimSpace(wire.RecommendedExercise.String()),
		FoodSuggestion:      strings.TrimSpace(wire.FoodSuggestion.String()),
	}, nil
}
