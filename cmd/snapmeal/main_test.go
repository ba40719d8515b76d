package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/snapmeal/snapmeal-go/internal/config"
	"github.com/snapmeal/snapmeal-go/internal/meals"
	"github.com/snapmeal/snapmeal-go/internal/storage"
	"github.com/snapmeal/snapmeal-go/internal/viewstate"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("TOKEN_STORE", "memory")
	t.Setenv("API_BASE_URL", "http://127.0.0.1:1")
	t.Setenv("APP_ENV", "local")

	var out bytes.Buffer
	a := &app{out: &out}
	err := execute(a, &out, args...)
	if closeErr := a.close(); closeErr != nil {
		t.Fatalf("close: %v", closeErr)
	}
	return out.String(), err
}

func execute(a *app, out *bytes.Buffer, args ...string) error {
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(out)
	return root.ExecuteContext(context.Background())
}

func TestCloseReleasesTokenStore(t *testing.T) {
	t.Setenv("TOKEN_STORE", "memory")
	t.Setenv("API_BASE_URL", "http://127.0.0.1:1")
	t.Setenv("APP_ENV", "local")

	var out bytes.Buffer
	a := &app{out: &out}
	if err := execute(a, &out, "report", "weeks"); err != nil {
		t.Fatalf("report weeks: %v", err)
	}
	store := a.store
	if store == nil {
		t.Fatal("expected setup to open the token store")
	}

	if err := a.close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, _, err := store.Get(context.Background(), storage.KeyAccessToken); !errors.Is(err, storage.ErrClosed) {
		t.Fatalf("expected closed store, got %v", err)
	}
	if err := a.close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestReportWeeksJSON(t *testing.T) {
	out, err := run(t, "report", "weeks", "--json")
	if err != nil {
		t.Fatalf("report weeks: %v", err)
	}

	var weeks []viewstate.Week
	if err := json.Unmarshal([]byte(out), &weeks); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(weeks) == 0 {
		t.Fatal("expected weeks")
	}
	for _, w := range weeks {
		if viewstate.WeekLabel(w.EndDate) != w.Label {
			t.Fatalf("week %s label %q disagrees with its end date", w.StartDate, w.Label)
		}
	}
}

func TestMealsEditDraft(t *testing.T) {
	out, err := run(t, "meals", "edit", "--date", "2025-10-15", "--title", "비빔밥", "--meal-time", "점심", "--grams", "1=50,2=25", "--json")
	if err != nil {
		t.Fatalf("meals edit: %v", err)
	}

	var d meals.Draft
	if err := json.Unmarshal([]byte(out), &d); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if d.Title != "비빔밥" || d.MealTime != "점심" || d.Date != "2025-10-15" {
		t.Fatalf("unexpected draft %+v", d)
	}
	if d.Items[0].Grams != 50 || d.Items[1].Grams != 25 {
		t.Fatalf("grams not applied: %+v", d.Items)
	}
}

func TestMealsEditRejectsMissingTitle(t *testing.T) {
	if _, err := run(t, "meals", "edit", "--meal-time", "아침"); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestCommandsRequireSession(t *testing.T) {
	for _, args := range [][]string{{"me"}, {"home"}, {"meals", "list"}, {"challenges", "list"}, {"report", "show"}} {
		t.Run(strings.Join(args, "_"), func(t *testing.T) {
			_, err := run(t, args...)
			if err == nil || !strings.Contains(err.Error(), "not signed in") {
				t.Fatalf("expected not signed in, got %v", err)
			}
		})
	}
}

func TestWithdrawNeedsConfirmation(t *testing.T) {
	_, err := run(t, "withdraw")
	if err == nil || !strings.Contains(err.Error(), "--yes") {
		t.Fatalf("expected confirmation error, got %v", err)
	}
}

func TestParseGrams(t *testing.T) {
	cases := []struct {
		in      string
		key     int
		grams   float64
		wantErr bool
	}{
		{"1=30", 1, 30, false},
		{" 4 = 2.5 ", 4, 2.5, false},
		{"1", 0, 0, true},
		{"x=1", 0, 0, true},
		{"1=abc", 0, 0, true},
	}
	for _, tc := range cases {
		key, grams, err := parseGrams(tc.in)
		if (err != nil) != tc.wantErr {
			t.Fatalf("parseGrams(%q) err=%v wantErr=%v", tc.in, err, tc.wantErr)
		}
		if !tc.wantErr && (key != tc.key || grams != tc.grams) {
			t.Fatalf("parseGrams(%q) = %d,%v", tc.in, key, grams)
		}
	}
}

func TestValidateProductionConfig(t *testing.T) {
	cfg := &config.Config{Env: "prod", APIBaseURL: "http://api.example.com", TokenStore: config.TokenStoreMemory}
	err := validateProductionConfig(cfg)
	if err == nil {
		t.Fatal("expected errors")
	}
	if !strings.Contains(err.Error(), "https") || !strings.Contains(err.Error(), "TOKEN_STORE") {
		t.Fatalf("unexpected error %v", err)
	}

	cfg = &config.Config{Env: "prod", APIBaseURL: "https://api.example.com", TokenStore: config.TokenStoreFile}
	if err := validateProductionConfig(cfg); err != nil {
		t.Fatalf("valid prod config rejected: %v", err)
	}

	cfg = &config.Config{Env: "local", APIBaseURL: "http://localhost:8080", TokenStore: config.TokenStoreMemory}
	if err := validateProductionConfig(cfg); err != nil {
		t.Fatalf("local config rejected: %v", err)
	}
}
