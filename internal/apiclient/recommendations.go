package apiclient

import (
	"context"
	"net/http"
	"strings"
)

// Recommendation is today's calorie target and suggested menus.
type Recommendation struct {
	RecommendedCalories float64
	ConsumedCalories    float64
	Menus               []RecommendedMenu
}

type RecommendedMenu struct {
	Name     string
	Calories float64
	Reason   string
}

type recommendationWire struct {
	RecommendedCalories Number `json:"recommendedCalories"`
	ConsumedCalories    Number `json:"consumedCalories"`
	Recommendations     []struct {
		MenuName Text   `json:"menuName"`
		Calories Number `json:"calories"`
		Reason   Text   `json:"reason"`
	} `json:"recommendations"`
}

func (c *Client) TodayRecommendation(ctx context.Context) (*Recommendation, error) {
	body, err := c.do(ctx, request{method: http.MethodGet, path: "/recommendations/today", auth: true})
	if err != nil {
		return nil, err
	}

	var wire recommendationWire
	if err := decodeJSON(unwrapObject(body), &wire); err != nil {
		return nil, err
	}

	rec := &Recommendation{
		RecommendedCalories: wire.RecommendedCalories.Float(),
		ConsumedCalories:    wire.ConsumedCalories.Float(),
		Menus:               make([]RecommendedMenu, 0, len(wire.Recommendations)),
	}
	for _, m := range wire.Recommendations {
		name := strings.TrimSpace(m.MenuName.String())
		if name == "" {
			continue
		}
		rec.Menus = append(rec.Menus, RecommendedMenu{
			Name:     name,
			Calories: m.Calories.Float(),
			Reason:   strings.TrimSpace(m.Reason.String()),
		})
	}
	return rec, nil
}
