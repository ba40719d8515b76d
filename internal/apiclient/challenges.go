package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Challenge is a time-boxed habit goal.
type Challenge struct {
	ID             int64
	Title          string
	Description    string
	TargetMenuName string
	Status         string // raw server status, see viewstate.MapChallengeStatus
	StartDate      string
	EndDate        string
	Stamps         []bool
	Introduction   map[string]any
}

type challengeWire struct {
	ChallengeID    *Number           `json:"challengeId"`
	ID             *Number           `json:"id"`
	Title          Text              `json:"title"`
	Description    Text              `json:"description"`
	TargetMenuName Text              `json:"targetMenuName"`
	Status         Text              `json:"status"`
	StartDate      Text              `json:"startDate"`
	EndDate        Text              `json:"endDate"`
	Stamps         []json.RawMessage `json:"stamps"`
	Introduction   json.RawMessage   `json:"introduction"`
}

func (w challengeWire) toChallenge() (Challenge, bool) {
	var id int64
	switch {
	case w.ChallengeID != nil:
		id = int64(*w.ChallengeID)
	case w.ID != nil:
		id = int64(*w.ID)
	default:
		return Challenge{}, false
	}

	stamps := make([]bool, len(w.Stamps))
	for i, raw := range w.Stamps {
		stamps[i] = truthy(raw)
	}

	intro := map[string]any{}
	if len(bytes.TrimSpace(w.Introduction)) > 0 {
		if err := json.Unmarshal(w.Introduction, &intro); err != nil || intro == nil {
			intro = map[string]any{}
		}
	}

	return Challenge{
		ID:             id,
		Title:          strings.TrimSpace(w.Title.String()),
		Description:    strings.TrimSpace(w.Description.String()),
		TargetMenuName: strings.TrimSpace(w.TargetMenuName.String()),
		Status:         strings.ToUpper(strings.TrimSpace(w.Status.String())),
		StartDate:      dateOnly(w.StartDate.String()),
		EndDate:        dateOnly(w.EndDate.String()),
		Stamps:         stamps,
		Introduction:   intro,
	}, true
}

// ReviewRequest is the body of POST /challenges/{id}/reviews.
type ReviewRequest struct {
	Rating  int    `json:"rating"`
	Content string `json:"content"`
}

func (r ReviewRequest) Validate() error {
	if r.Rating < 1 || r.Rating > 5 {
		return &ValidationError{Field: "rating", Message: "별점은 1~5 사이로 선택해 주세요."}
	}
	content := strings.TrimSpace(r.Content)
	if content == "" {
		return &ValidationError{Field: "content", Message: "후기를 입력해 주세요."}
	}
	if utf8.RuneCountInString(content) > 500 {
		return &ValidationError{Field: "content", Message: "후기는 500자 이하로 입력해 주세요."}
	}
	return nil
}

// MyChallenges lists the user's challenges, optionally filtered by server status.
func (c *Client) MyChallenges(ctx context.Context, statuses ...string) ([]Challenge, error) {
	q := url.Values{}
	if len(statuses) > 0 {
		q.Set("statuses", strings.Join(statuses, ","))
	}

	body, err := c.do(ctx, request{method: http.MethodGet, path: "/challenges/my", query: q, auth: true})
	if err != nil {
		return nil, err
	}
	return c.parseChallenges(body)
}

// GenerateWeekly asks the backend to create this week's challenges.
func (c *Client) GenerateWeekly(ctx context.Context) ([]Challenge, error) {
	body, err := c.do(ctx, request{method: http.MethodPost, path: "/challenges/weekly/generate", auth: true})
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return []Challenge{}, nil
	}
	return c.parseChallenges(body)
}

func (c *Client) Participate(ctx context.Context, challengeID int64) error {
	_, err := c.do(ctx, request{method: http.MethodPost, path: challengePath(challengeID, "participate"), auth: true})
	return err
}

func (c *Client) GiveUp(ctx context.Context, challengeID int64) error {
	_, err := c.do(ctx, request{method: http.MethodPost, path: challengePath(challengeID, "give-up"), auth: true})
	return err
}

func (c *Client) Review(ctx context.Context, challengeID int64, in ReviewRequest) error {
	if err := in.Validate(); err != nil {
		return err
	}
	in.Content = strings.TrimSpace(in.Content)
	req, err := jsonRequest(http.MethodPost, challengePath(challengeID, "reviews"), in, true)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, req)
	return err
}

func (c *Client) parseChallenges(body []byte) ([]Challenge, error) {
	list, ok := unwrapList(body, "data", "challenges", "content")
	if !ok {
		return nil, malformed("challenges response is not a list")
	}

	var wires []challengeWire
	if err := decodeJSON(list, &wires); err != nil {
		return nil, err
	}

	out := make([]Challenge, 0, len(wires))
	for _, w := range wires {
		ch, ok := w.toChallenge()
		if !ok {
			c.logf("WARN api: challenge without id skipped title=%q", w.Title.String())
			continue
		}
		out = append(out, ch)
	}
	return out, nil
}

func challengePath(id int64, action string) string {
	return fmt.Sprintf("/challenges/%s/%s", strconv.FormatInt(id, 10), action)
}

func truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	switch {
	case bytes.Equal(raw, []byte("true")):
		return true
	case len(raw) > 0 && raw[0] == '"':
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "y", "yes", "1", "o":
			return true
		}
		return false
	default:
		v, err := strconv.ParseFloat(string(raw), 64)
		return err == nil && v != 0
	}
}

func dateOnly(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 10 {
		return s[:10]
	}
	return s
}
