package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/snapmeal/snapmeal-go/internal/challenges"
	"github.com/snapmeal/snapmeal-go/internal/viewstate"
)

func newChallengesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "challenges",
		Aliases: []string{"ch"},
		Short:   "Browse and take part in challenges",
	}
	cmd.AddCommand(
		newChallengesListCmd(a),
		newChallengesShowCmd(a),
		newChallengesGenerateCmd(a),
		newChallengesTransitionCmd(a, "join", "Join a challenge", (*challenges.Board).Join),
		newChallengesTransitionCmd(a, "giveup", "Give up a joined challenge", (*challenges.Board).GiveUp),
		newChallengesReviewCmd(a),
	)
	return cmd
}

// loadBoard returns a board refreshed with the given server statuses.
func (a *app) loadBoard(cmd *cobra.Command, statuses []string) (*challenges.Board, error) {
	if err := a.requireSession(); err != nil {
		return nil, err
	}
	b := challenges.NewBoard(a.api, a.cfg.Location(), a.logger)
	if err := b.Refresh(cmd.Context(), statuses...); err != nil {
		return nil, err
	}
	return b, nil
}

func (a *app) printItem(it challenges.Item) {
	pending := ""
	if it.Pending {
		pending = " (saving)"
	}
	a.printf("#%d %s [%s]%s\n", it.Challenge.ID, it.Challenge.Title, it.State, pending)
	a.printf("   %s ~ %s  %s %d/%d streak=%d best=%d\n",
		it.Challenge.StartDate, it.Challenge.EndDate, bar(it.Progress.Percent, 14),
		it.Progress.Done, it.Progress.Total, it.Progress.CurrentStreak, it.Progress.LongestStreak)
}

func parseChallengeID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid challenge id %q", s)
	}
	return id, nil
}

func newChallengesListCmd(a *app) *cobra.Command {
	var statuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List my challenges",
		RunE: func(cmd *cobra.Command, _ []string) error {
			for i, s := range statuses {
				statuses[i] = strings.ToUpper(strings.TrimSpace(s))
			}
			b, err := a.loadBoard(cmd, statuses)
			if err != nil {
				return err
			}
			items := b.Items()
			return a.emit(items, func() {
				if len(items) == 0 {
					a.printf("no challenges, try `snapmeal challenges generate`\n")
				}
				for _, it := range items {
					a.printItem(it)
				}
			})
		},
	}
	cmd.Flags().StringSliceVar(&statuses, "status", nil,
		fmt.Sprintf("server statuses to include (%s, %s, %s, ...)",
			viewstate.ServerStatusPending, viewstate.ServerStatusInProgress, viewstate.ServerStatusCompleted))
	return cmd
}

func newChallengesShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <challenge-id>",
		Short: "Show one challenge with its stamp progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseChallengeID(args[0])
			if err != nil {
				return err
			}
			b, err := a.loadBoard(cmd, nil)
			if err != nil {
				return err
			}
			it, err := b.Detail(id)
			if err != nil {
				return err
			}
			return a.emit(it, func() {
				a.printItem(it)
				if it.Challenge.TargetMenuName != "" {
					a.printf("   target menu: %s\n", it.Challenge.TargetMenuName)
				}
				if it.Challenge.Description != "" {
					a.printf("   %s\n", it.Challenge.Description)
				}
				stamps := make([]string, len(it.Challenge.Stamps))
				for i, ok := range it.Challenge.Stamps {
					stamps[i] = "○"
					if ok {
						stamps[i] = "●"
					}
				}
				a.printf("   stamps %s\n", strings.Join(stamps, " "))
			})
		},
	}
}

func newChallengesGenerateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Generate this week's challenges",
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := a.loadBoard(cmd, nil)
			if err != nil {
				return err
			}
			n, err := b.Generate(cmd.Context())
			if err != nil {
				return err
			}
			items := b.Items()
			return a.emit(map[string]any{"created": n, "challenges": items}, func() {
				a.printf("generated %d challenges\n", n)
				for _, it := range items {
					a.printItem(it)
				}
			})
		},
	}
}

func newChallengesTransitionCmd(a *app, use, short string, apply func(*challenges.Board, context.Context, int64) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <challenge-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseChallengeID(args[0])
			if err != nil {
				return err
			}
			b, err := a.loadBoard(cmd, nil)
			if err != nil {
				return err
			}
			if err := apply(b, cmd.Context(), id); err != nil {
				return err
			}
			it, err := b.Detail(id)
			if err != nil {
				return err
			}
			return a.emit(it, func() { a.printItem(it) })
		},
	}
}

func newChallengesReviewCmd(a *app) *cobra.Command {
	var (
		rating  int
		content string
	)

	cmd := &cobra.Command{
		Use:   "review <challenge-id>",
		Short: "Review a joined challenge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseChallengeID(args[0])
			if err != nil {
				return err
			}
			b, err := a.loadBoard(cmd, nil)
			if err != nil {
				return err
			}
			if err := b.Review(cmd.Context(), id, rating, content); err != nil {
				return err
			}
			a.printf("review saved for #%d\n", id)
			return nil
		},
	}
	cmd.Flags().IntVar(&rating, "rating", 0, "rating from 1 to 5")
	cmd.Flags().StringVar(&content, "content", "", "review text")
	return cmd
}
