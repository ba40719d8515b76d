package main

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/snapmeal/snapmeal-go/internal/home"
)

func newHomeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "home",
		Short: "Show today's calories, recommendation and active challenges",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireSession(); err != nil {
				return err
			}
			d := home.NewDashboard(a.api, a.cfg.Location(), a.logger)
			snap, err := d.Refresh(cmd.Context())
			if err != nil && len(snap.Errors) == 4 {
				return err
			}

			return a.emit(snap, func() {
				if snap.User != nil {
					a.printf("%s, %s\n", snap.User.Nickname, snap.Date)
				} else {
					a.printf("%s\n", snap.Date)
				}
				a.printf("calories %s / %s %s %s\n",
					kcal(snap.Consumed), kcal(snap.Recommended), bar(snap.Calories.FillPercent, 20), snap.Calories.Level)
				a.printf("meals today: %d\n", len(snap.Meals))
				if snap.Recommendation != nil {
					for _, m := range snap.Recommendation.Menus {
						a.printf("  try %s (%s) %s\n", m.Name, kcal(m.Calories), m.Reason)
					}
				}
				for _, c := range snap.Challenges {
					a.printf("challenge #%d %s [%s] %d/%d streak=%d\n",
						c.Challenge.ID, c.Challenge.Title, c.State, c.Progress.Done, c.Progress.Total, c.Progress.CurrentStreak)
				}

				sections := make([]string, 0, len(snap.Errors))
				for s := range snap.Errors {
					sections = append(sections, s)
				}
				sort.Strings(sections)
				for _, s := range sections {
					a.printf("! %s: %s\n", s, snap.Errors[s])
				}
			})
		},
	}
}

func newRecommendCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "recommend",
		Short: "Show today's recommended menus",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireSession(); err != nil {
				return err
			}
			rec, err := a.api.TodayRecommendation(cmd.Context())
			if err != nil {
				return err
			}
			return a.emit(rec, func() {
				a.printf("consumed %s of %s\n", kcal(rec.ConsumedCalories), kcal(rec.RecommendedCalories))
				if len(rec.Menus) == 0 {
					a.printf("no recommendations yet\n")
				}
				for i, m := range rec.Menus {
					a.printf("%d. %s (%s)\n", i+1, m.Name, kcal(m.Calories))
					if m.Reason != "" {
						a.printf("   %s\n", m.Reason)
					}
				}
			})
		},
	}
}
