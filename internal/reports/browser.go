package reports

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/snapmeal/snapmeal-go/internal/apiclient"
	"github.com/snapmeal/snapmeal-go/internal/viewstate"
)

// API is the subset of the backend client used by the report screen.
type API interface {
	MyReport(ctx context.Context, startDate, endDate string) (*apiclient.ReportSummary, error)
}

// View is what the report screen renders.
type View struct {
	Week    viewstate.Week           `json:"week"`
	Index   int                      `json:"index"`
	Count   int                      `json:"count"`
	Report  *apiclient.ReportSummary `json:"report,omitempty"`
	Loading bool                     `json:"loading"`
	Error   string                   `json:"error,omitempty"`
}

// Browser navigates the weekly reports. Only the latest fetch may update the view:
// moving to another week cancels the fetch in flight, and Close cancels everything.
type Browser struct {
	api    API
	logger Logger

	mu      sync.Mutex
	weeks   []viewstate.Week
	idx     int
	report  *apiclient.ReportSummary
	loading bool
	errMsg  string
	gen     uint64
	cancel  context.CancelFunc
	closed  bool
}

// NewBrowser partitions the weeks around now and starts on the last completed week.
func NewBrowser(api API, now time.Time, logger Logger) *Browser {
	weeks := viewstate.PartitionWeeks(now)
	return &Browser{api: api, logger: logger, weeks: weeks, idx: len(weeks) - 1}
}

func (b *Browser) Weeks() []viewstate.Week {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]viewstate.Week, len(b.weeks))
	copy(out, b.weeks)
	return out
}

// Load fetches the current week.
func (b *Browser) Load(ctx context.Context) error {
	b.mu.Lock()
	idx := b.idx
	b.mu.Unlock()
	return b.Select(ctx, idx)
}

func (b *Browser) Next(ctx context.Context) error {
	b.mu.Lock()
	idx := b.idx + 1
	b.mu.Unlock()
	return b.Select(ctx, idx)
}

func (b *Browser) Prev(ctx context.Context) error {
	b.mu.Lock()
	idx := b.idx - 1
	b.mu.Unlock()
	return b.Select(ctx, idx)
}

// Select moves to week i and fetches its report. A fetch that is superseded before it
// completes returns ErrSuperseded and leaves the view alone.
func (b *Browser) Select(ctx context.Context, i int) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	if i < 0 || i >= len(b.weeks) {
		b.mu.Unlock()
		return ErrOutOfRange
	}

	if b.cancel != nil {
		b.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	b.gen++
	gen := b.gen
	b.cancel = cancel
	b.idx = i
	b.report = nil
	b.errMsg = ""
	b.loading = true
	week := b.weeks[i]
	b.mu.Unlock()

	report, err := b.api.MyReport(fetchCtx, week.StartDate, week.EndDate)

	b.mu.Lock()
	defer b.mu.Unlock()
	cancel()

	if b.closed || gen != b.gen {
		logf(b.logger, "INFO reports: stale response dropped week=%s", week.StartDate)
		return ErrSuperseded
	}

	b.cancel = nil
	b.loading = false
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		logf(b.logger, "WARN reports: fetch_failed week=%s err=%v", week.StartDate, err)
		b.errMsg = apiclient.UserMessage(err)
		return err
	}

	b.report = report
	return nil
}

// View returns a snapshot of the screen state.
func (b *Browser) View() View {
	b.mu.Lock()
	defer b.mu.Unlock()

	v := View{Index: b.idx, Count: len(b.weeks), Loading: b.loading, Error: b.errMsg}
	if b.idx >= 0 && b.idx < len(b.weeks) {
		v.Week = b.weeks[b.idx]
	}
	if b.report != nil {
		r := *b.report
		v.Report = &r
	}
	return v
}

// Close cancels any fetch in flight; later responses are discarded.
func (b *Browser) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
}
