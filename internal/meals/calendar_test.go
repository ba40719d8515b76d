package meals

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/snapmeal/snapmeal-go/internal/apiclient"
	"github.com/snapmeal/snapmeal-go/internal/viewstate"
)

type staticToken string

func (s staticToken) AccessToken() (string, bool) { return string(s), s != "" }

type fakeBackend struct {
	mu        sync.Mutex
	mealGets  map[string]int
	deletes   []string
	deleteErr bool
}

func newFakeBackend(t *testing.T) (*fakeBackend, *apiclient.Client) {
	t.Helper()
	fb := &fakeBackend{mealGets: make(map[string]int)}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		defer fb.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/meals":
			date := r.URL.Query().Get("date")
			fb.mealGets[date]++
			_, _ = w.Write([]byte(`[
				{"mealId": 1, "title": "비빔밥", "mealTime": "LUNCH", "calories": 650, "protein": 20, "carbs": 90, "fat": 15},
				{"mealId": 2, "title": "샐러드", "mealTime": "아침", "calories": "250", "protein": 8, "sugar": 4},
				{"mealId": 3, "title": "라면", "mealTime": "DINNER", "calories": 500, "carbs": "n/a", "fat": 16}
			]`))
		case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/meals/"):
			fb.deletes = append(fb.deletes, strings.TrimPrefix(r.URL.Path, "/meals/"))
			if fb.deleteErr {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"message":"삭제 실패"}`))
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	return fb, apiclient.New(srv.URL, staticToken("token"))
}

func TestSelectFetchesExactlyOnce(t *testing.T) {
	fb, client := newFakeBackend(t)
	cal := NewCalendar(client, 2000, nil)

	if err := cal.Select(context.Background(), "2026-10-14"); err != nil {
		t.Fatalf("Select: %v", err)
	}

	if got := fb.mealGets["2026-10-14"]; got != 1 {
		t.Fatalf("expected exactly one fetch, got %d", got)
	}
	if len(fb.mealGets) != 1 {
		t.Fatalf("expected fetches for one date only, got %v", fb.mealGets)
	}
	if len(cal.Meals()) != 3 {
		t.Fatalf("expected 3 meals, got %d", len(cal.Meals()))
	}
}

func TestDeleteRemovesOnlyThatMeal(t *testing.T) {
	fb, client := newFakeBackend(t)
	cal := NewCalendar(client, 2000, nil)
	ctx := context.Background()

	if err := cal.Select(ctx, "2026-10-14"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if err := cal.Delete(ctx, 2); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	meals := cal.Meals()
	if len(meals) != 2 {
		t.Fatalf("expected 2 meals after delete, got %d", len(meals))
	}
	if meals[0].ID != 1 || meals[1].ID != 3 {
		t.Fatalf("expected meals 1 and 3 to remain in order, got %d and %d", meals[0].ID, meals[1].ID)
	}
	if meals[0].Title != "비빔밥" || meals[1].Calories != 500 {
		t.Fatalf("remaining meals were modified: %+v", meals)
	}
	if len(fb.deletes) != 1 || fb.deletes[0] != "2" {
		t.Fatalf("expected DELETE /meals/2, got %v", fb.deletes)
	}
	if fb.mealGets["2026-10-14"] != 1 {
		t.Fatalf("delete must not refetch, got %d fetches", fb.mealGets["2026-10-14"])
	}
}

func TestDeleteFailureKeepsList(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.deleteErr = true
	cal := NewCalendar(client, 2000, nil)
	ctx := context.Background()

	_ = cal.Select(ctx, "2026-10-14")
	if err := cal.Delete(ctx, 1); err == nil {
		t.Fatal("expected delete error")
	}
	if len(cal.Meals()) != 3 {
		t.Fatalf("expected list untouched, got %d meals", len(cal.Meals()))
	}
	if cal.Err() != "삭제 실패" {
		t.Fatalf("expected server message, got %q", cal.Err())
	}
}

func TestSummary(t *testing.T) {
	_, client := newFakeBackend(t)
	cal := NewCalendar(client, 2000, nil)
	_ = cal.Select(context.Background(), "2026-10-14")

	s := cal.Summary()
	if s.Consumed != 1400 {
		t.Fatalf("expected 1400 kcal, got %v", s.Consumed)
	}
	if s.Status.Level != viewstate.CalorieAdequate {
		t.Fatalf("expected 적정, got %s", s.Status.Level)
	}
	if len(s.Cards) != 3 {
		t.Fatalf("expected 3 cards, got %d", len(s.Cards))
	}

	first := s.Cards[0]
	if len(first.TopNutrients) != 2 || first.TopNutrients[0].Label != "탄수화물" || first.TopNutrients[0].Value != "90g" {
		t.Fatalf("unexpected top nutrients: %+v", first.TopNutrients)
	}
	// 650 of a 666.67 per-meal share
	if first.Tag != viewstate.CalorieAdequate {
		t.Fatalf("expected 적정 tag, got %s", first.Tag)
	}

	third := s.Cards[2]
	if len(third.TopNutrients) != 1 || third.TopNutrients[0].Label != "지방" {
		t.Fatalf("expected only fat for non-numeric carbs, got %+v", third.TopNutrients)
	}
}

func TestFetchErrorIsSurfaced(t *testing.T) {
	cal := NewCalendar(apiclient.New("http://127.0.0.1:1", nil), 2000, nil)

	err := cal.Select(context.Background(), "2026-10-14")
	if err == nil {
		t.Fatal("expected error without token")
	}
	if cal.Err() != "로그인이 필요합니다." {
		t.Fatalf("unexpected error message %q", cal.Err())
	}
	if len(cal.Meals()) != 0 {
		t.Fatal("expected empty list on error")
	}
}

func TestMarks(t *testing.T) {
	_, client := newFakeBackend(t)
	cal := NewCalendar(client, 2000, nil)
	ctx := context.Background()

	_ = cal.Select(ctx, "2026-10-14")
	_ = cal.Select(ctx, "2026-10-15")

	marks := cal.Marks()
	if len(marks) != 2 {
		t.Fatalf("expected 2 marks, got %d", len(marks))
	}
	if marks[0].Date != "2026-10-14" || marks[0].Selected {
		t.Fatalf("unexpected first mark %+v", marks[0])
	}
	if !marks[1].Selected {
		t.Fatalf("expected second mark selected %+v", marks[1])
	}
}

type gatedAPI struct {
	release chan struct{}
	started chan string
}

func (g *gatedAPI) ListMeals(ctx context.Context, date string) ([]apiclient.Meal, error) {
	g.started <- date
	if date == "2026-10-01" {
		<-g.release
	}
	return []apiclient.Meal{{ID: 9, Title: date, Date: date}}, nil
}

func (g *gatedAPI) DeleteMeal(ctx context.Context, mealID int64) error { return nil }

func TestStaleSelectResponseDropped(t *testing.T) {
	api := &gatedAPI{release: make(chan struct{}), started: make(chan string, 2)}
	cal := NewCalendar(api, 2000, nil)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		_ = cal.Select(ctx, "2026-10-01")
		close(done)
	}()
	<-api.started

	if err := cal.Select(ctx, "2026-10-02"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	<-api.started
	close(api.release)
	<-done

	meals := cal.Meals()
	if len(meals) != 1 || meals[0].Title != "2026-10-02" {
		t.Fatalf("expected the newer day to win, got %+v", meals)
	}
}

type slowDayAPI struct {
	slowDay string
	release chan struct{}
	started chan string
	deleted []int64
}

func (s *slowDayAPI) ListMeals(ctx context.Context, date string) ([]apiclient.Meal, error) {
	if date == s.slowDay {
		s.started <- date
		<-s.release
		return []apiclient.Meal{{ID: 20, Title: "저녁", Date: date, Calories: 300}}, nil
	}
	return []apiclient.Meal{
		{ID: 1, Title: "아침", Date: date, Calories: 900},
		{ID: 2, Title: "점심", Date: date, Calories: 700},
	}, nil
}

func (s *slowDayAPI) DeleteMeal(ctx context.Context, mealID int64) error {
	s.deleted = append(s.deleted, mealID)
	return nil
}

func TestDeleteWhileNextDayLoadsKeepsDaysApart(t *testing.T) {
	api := &slowDayAPI{slowDay: "2026-10-02", release: make(chan struct{}), started: make(chan string, 1)}
	cal := NewCalendar(api, 2000, nil)
	ctx := context.Background()

	if err := cal.Select(ctx, "2026-10-01"); err != nil {
		t.Fatalf("Select: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- cal.Select(ctx, "2026-10-02") }()
	<-api.started

	loading := cal.Summary()
	if loading.Date != "2026-10-02" || !loading.Loading {
		t.Fatalf("expected the new day to be loading, got date=%s loading=%v", loading.Date, loading.Loading)
	}
	if len(loading.Cards) != 0 || loading.Consumed != 0 {
		t.Fatalf("previous day's meals shown under the new date: %+v", loading.Cards)
	}
	if got := cal.Meals(); len(got) != 0 {
		t.Fatalf("expected no meals while loading, got %+v", got)
	}

	if err := cal.Delete(ctx, 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	cal.mu.Lock()
	first, hasFirst := cal.daily["2026-10-01"]
	_, hasSecond := cal.daily["2026-10-02"]
	cal.mu.Unlock()
	if !hasFirst || first != 700 {
		t.Fatalf("expected 2026-10-01 total 700 after delete, got %v (present=%v)", first, hasFirst)
	}
	if hasSecond {
		t.Fatalf("2026-10-02 total must not be written before its meals load")
	}

	close(api.release)
	if err := <-done; err != nil {
		t.Fatalf("Select: %v", err)
	}

	summary := cal.Summary()
	if summary.Loading || summary.Consumed != 300 || len(summary.Cards) != 1 {
		t.Fatalf("unexpected summary after load: %+v", summary)
	}
	cal.mu.Lock()
	second := cal.daily["2026-10-02"]
	first = cal.daily["2026-10-01"]
	cal.mu.Unlock()
	if second != 300 || first != 700 {
		t.Fatalf("unexpected daily totals: 10-01=%v 10-02=%v", first, second)
	}
}
