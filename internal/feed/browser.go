package feed

import (
	"context"
	"encoding/binary"
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/nicolastakashi/banshee-console/internal/banshee"
)

// State of the metric browser.
type State int

const (
	// Live charts are rebuilt on every refresh.
	Live State = iota
	// Paused charts keep their data until resumed.
	Paused
)

func (s State) String() string {
	if s == Paused {
		return "paused"
	}
	return "live"
}

// Limits are the index limits the browser offers.
var Limits = []int{1, 30, 50, 100, 500, 1000}

// Pasts are the time shifts the browser offers, newest first.
var Pasts = []time.Duration{
	0,
	3 * time.Hour,
	6 * time.Hour,
	24 * time.Hour,
	48 * time.Hour,
	3 * 24 * time.Hour,
	4 * 24 * time.Hour,
	5 * 24 * time.Hour,
	6 * 24 * time.Hour,
	7 * 24 * time.Hour,
}

// Filter selects the metrics to chart. Project takes precedence over Pattern.
type Filter struct {
	Project int
	Pattern string
	Limit   int
	Sort    string
	Mode    Mode
	Past    time.Duration
}

func (f Filter) Query() banshee.IndexQuery {
	q := banshee.IndexQuery{Limit: f.Limit, Sort: f.Sort}
	if f.Project > 0 {
		q.Project = f.Project
	} else {
		q.Pattern = f.Pattern
	}
	return q
}

// Fingerprint identifies filter states that produce the same chart.
func (f Filter) Fingerprint() uint64 {
	d := xxhash.New()
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(f.Project))
	_, _ = d.Write(b[:])
	if f.Project <= 0 {
		_, _ = d.WriteString(f.Pattern)
	}
	_, _ = d.Write([]byte{0})
	binary.LittleEndian.PutUint64(b[:], uint64(f.Limit))
	_, _ = d.Write(b[:])
	_, _ = d.WriteString(f.Sort)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(string(f.Mode))
	binary.LittleEndian.PutUint64(b[:], uint64(f.Past))
	_, _ = d.Write(b[:])
	return d.Sum64()
}

// Source is what the browser needs from banshee.
type Source interface {
	Fetcher
	MetricIndexes(ctx context.Context, q banshee.IndexQuery) ([]banshee.Index, error)
	Interval(ctx context.Context) (uint32, error)
}

// Browser drives a Chart: it rebuilds on every refresh while live,
// debounces filter changes into a single rebuild and skips a rebuild when
// one for the same filter is already running. A rebuild for another filter
// cancels the running one, and only the newest rebuild may reach the chart.
type Browser struct {
	source   Source
	chart    *Chart
	refresh  time.Duration
	debounce time.Duration
	size     int
	now      func() time.Time

	trigger chan struct{}

	mu       sync.Mutex
	state    State
	filter   Filter
	interval uint32
	timer    *time.Timer
	lastErr  error

	// seq numbers rebuild requests; running is the seq of the rebuild in
	// flight for filter runningFP, 0 when none is.
	seq       uint64
	running   uint64
	runningFP uint64
	cancel    context.CancelFunc
}

type BrowserOption func(*Browser)

func WithRefresh(d time.Duration) BrowserOption {
	return func(b *Browser) {
		b.refresh = d
	}
}

func WithDebounce(d time.Duration) BrowserOption {
	return func(b *Browser) {
		b.debounce = d
	}
}

// WithSize sets the number of steps per feed.
func WithSize(n int) BrowserOption {
	return func(b *Browser) {
		b.size = n
	}
}

func NewBrowser(source Source, chart *Chart, filter Filter, opts ...BrowserOption) *Browser {
	b := &Browser{
		source:   source,
		chart:    chart,
		refresh:  10 * time.Minute,
		debounce: 500 * time.Millisecond,
		size:     120,
		now:      time.Now,
		trigger:  make(chan struct{}, 1),
		filter:   filter,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Browser) Chart() *Chart {
	return b.chart
}

func (b *Browser) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Browser) Filter() Filter {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.filter
}

// Interval is the detection interval in seconds, 0 until the first rebuild loaded it.
func (b *Browser) Interval() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.interval
}

// Err returns the error of the last rebuild, if any.
func (b *Browser) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr
}

// SetFilter replaces the filter. Changes within the debounce delay collapse
// into one rebuild.
func (b *Browser) SetFilter(f Filter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filter = f
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.debounce, b.kick)
}

// Toggle switches between live and paused. Pausing stops pending fetches;
// resuming rebuilds the chart from scratch.
func (b *Browser) Toggle() State {
	b.mu.Lock()
	if b.state == Live {
		b.state = Paused
		b.stopRebuild()
		b.mu.Unlock()
		b.chart.Stop()
		return Paused
	}
	b.state = Live
	b.mu.Unlock()
	b.kick()
	return Live
}

func (b *Browser) kick() {
	select {
	case b.trigger <- struct{}{}:
	default:
	}
}

// Run rebuilds the chart immediately and then on every refresh tick while
// live, and whenever a filter change or resume asks for it. It returns when
// ctx is done.
func (b *Browser) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	ticker := time.NewTicker(b.refresh)
	defer ticker.Stop()

	start := func(reason string) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.rebuild(ctx, reason)
		}()
	}

	start("init")
	for {
		select {
		case <-ctx.Done():
			b.chart.Stop()
			return nil
		case <-ticker.C:
			if b.State() == Live {
				start("refresh")
			}
		case <-b.trigger:
			start("filter")
		}
	}
}

// stopRebuild cancels the rebuild in flight and forgets it, so the next
// request for the same filter is not skipped while it drains. b.mu is held.
func (b *Browser) stopRebuild() {
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
	b.running = 0
}

func (b *Browser) rebuild(ctx context.Context, reason string) {
	b.mu.Lock()
	f := b.filter
	fp := f.Fingerprint()
	if b.running != 0 && b.runningFP == fp {
		b.mu.Unlock()
		slog.Debug("browser.rebuild", "reason", reason, "skipped", "in flight")
		return
	}
	b.stopRebuild()
	b.seq++
	seq := b.seq
	ctx, cancel := context.WithCancel(ctx)
	b.running, b.runningFP, b.cancel = seq, fp, cancel
	b.mu.Unlock()

	defer func() {
		cancel()
		b.mu.Lock()
		if b.running == seq {
			b.running = 0
			b.cancel = nil
		}
		b.mu.Unlock()
	}()

	err := b.load(ctx, seq, f)
	if errors.Is(err, ErrStale) || errors.Is(err, context.Canceled) {
		slog.Debug("browser.rebuild", "reason", reason, "seq", seq, "superseded", true)
		return
	}

	b.mu.Lock()
	if seq == b.seq {
		b.lastErr = err
	}
	b.mu.Unlock()
	if err != nil {
		slog.Error("browser.rebuild", "reason", reason, "err", err)
		return
	}
	slog.Debug("browser.rebuild", "reason", reason, "seq", seq, "generation", b.chart.Generation())
}

func (b *Browser) load(ctx context.Context, seq uint64, f Filter) error {
	interval, err := b.loadInterval(ctx)
	if err != nil {
		return err
	}

	idxs, err := b.source.MetricIndexes(ctx, f.Query())
	if err != nil {
		return err
	}

	mode := f.Mode
	if mode == "" {
		mode = ModeValue
	}
	w := NewWindow(b.now(), f.Past, interval, b.size)
	return b.chart.Rebuild(ctx, seq, idxs, w, mode)
}

func (b *Browser) loadInterval(ctx context.Context) (uint32, error) {
	b.mu.Lock()
	interval := b.interval
	b.mu.Unlock()
	if interval > 0 {
		return interval, nil
	}

	interval, err := b.source.Interval(ctx)
	if err != nil {
		return 0, err
	}
	if interval == 0 {
		interval = 10
	}
	b.mu.Lock()
	b.interval = interval
	b.mu.Unlock()
	return interval, nil
}

// Title is the display state of one feed title.
type Title struct {
	Name      string
	Trend     string
	Class     string
	Graphite  string
	RuleCount int
}

// Titles returns the title of each feed, linking graphite names through
// graphiteURL when it is set.
func (b *Browser) Titles(graphiteURL string) []Title {
	snap := b.chart.Snapshot()
	interval := b.Interval()
	now := b.now()
	titles := make([]Title, 0, len(snap.Series))
	for _, s := range snap.Series {
		idx := s.Index
		t := Title{
			Name:      idx.Name,
			Trend:     TrendText(idx.Score),
			Class:     TrendClass(idx.Score, idx.Stamp, interval, now),
			RuleCount: len(idx.MatchedRules),
		}
		if graphiteURL != "" {
			t.Graphite = GraphiteLink(graphiteURL, idx.Name)
		}
		titles = append(titles, t)
	}
	return titles
}

// Peak returns the largest absolute point of a series, 0 for an empty one.
func Peak(points []float64) float64 {
	var peak float64
	for _, p := range points {
		peak = math.Max(peak, math.Abs(p))
	}
	return peak
}
