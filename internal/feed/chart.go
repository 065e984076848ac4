package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nicolastakashi/banshee-console/internal/banshee"
	"github.com/nicolastakashi/banshee-console/internal/format"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"
)

// Fetcher loads the samples of one metric between two epoch seconds.
type Fetcher interface {
	MetricData(ctx context.Context, name string, start, stop uint32) ([]banshee.Sample, error)
}

// Window is the range a chart covers: Size steps ending at Stop.
type Window struct {
	Stop time.Time
	Step time.Duration
	Size int
}

// NewWindow returns the window ending past before now, with one step per
// detection interval.
func NewWindow(now time.Time, past time.Duration, interval uint32, size int) Window {
	return Window{
		Stop: now.Add(-past),
		Step: time.Duration(interval) * time.Second,
		Size: size,
	}
}

func (w Window) Start() time.Time {
	return w.Stop.Add(-time.Duration(w.Size) * w.Step)
}

func (w Window) String() string {
	return format.Format("%s ~ %s", format.DateToString(w.Start()), format.DateToString(w.Stop))
}

// Series is the plotted state of one metric feed.
type Series struct {
	Index  banshee.Index
	Points []float64
	Err    error
	Loaded bool
}

// Chart holds the feeds of the current rebuild. Every rebuild starts a new
// generation; feeds fetched for an older generation are dropped when they
// arrive, so the last rebuild always wins.
type Chart struct {
	fetcher     Fetcher
	concurrency int
	notify      func()

	mu         sync.Mutex
	seq        uint64
	generation uint64
	cancel     context.CancelFunc
	window     Window
	mode       Mode
	series     []Series

	rebuilds   prometheus.Counter
	staleFeeds prometheus.Counter
	feedErrors prometheus.Counter
}

type ChartOption func(*Chart)

// WithConcurrency bounds the number of feeds fetched at once.
func WithConcurrency(n int) ChartOption {
	return func(c *Chart) {
		c.concurrency = n
	}
}

// WithNotify registers fn to be called after each delivered feed.
func WithNotify(fn func()) ChartOption {
	return func(c *Chart) {
		c.notify = fn
	}
}

func NewChart(f Fetcher, reg prometheus.Registerer, opts ...ChartOption) *Chart {
	c := &Chart{
		fetcher:     f,
		concurrency: 8,
		mode:        ModeValue,
	}
	for _, opt := range opts {
		opt(c)
	}

	factory := promauto.With(reg)
	c.rebuilds = factory.NewCounter(prometheus.CounterOpts{
		Name: "banshee_console_chart_rebuilds_total",
		Help: "Total number of chart rebuilds",
	})
	c.staleFeeds = factory.NewCounter(prometheus.CounterOpts{
		Name: "banshee_console_chart_stale_feeds_total",
		Help: "Total number of feeds dropped because a newer rebuild started",
	})
	c.feedErrors = factory.NewCounter(prometheus.CounterOpts{
		Name: "banshee_console_chart_feed_errors_total",
		Help: "Total number of feeds that failed to load",
	})
	return c
}

// Rebuild replaces the chart with one feed per index and fetches them
// concurrently. seq orders rebuild requests: a request older than one the
// chart already started, or whose ctx is already done, is refused with
// ErrStale. Rebuild cancels the fetches of the previous generation and
// returns ErrStale if a newer rebuild started before it finished.
func (c *Chart) Rebuild(ctx context.Context, seq uint64, idxs []banshee.Index, w Window, mode Mode) error {
	if w.Step < time.Second {
		return ErrInvalidWindow
	}

	gen, ctx, err := c.begin(ctx, seq, idxs, w, mode)
	if err != nil {
		c.staleFeeds.Add(float64(len(idxs)))
		slog.Debug("chart.stale", "seq", seq, "err", err)
		return err
	}
	c.rebuilds.Inc()

	start, stop := w.Start(), w.Stop
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, idx := range idxs {
		g.Go(func() error {
			samples, err := c.fetcher.MetricData(gctx, idx.Name, uint32(start.Unix()), uint32(stop.Unix()))
			s := Series{Index: idx, Loaded: true}
			if err != nil {
				s.Err = err
			} else {
				s.Points, s.Err = Fill(samples, start.UnixMilli(), stop.UnixMilli(), w.Step.Milliseconds(), mode)
			}
			c.deliver(gen, i, s)
			// A failed feed does not stop its siblings.
			return nil
		})
	}
	_ = g.Wait()

	if c.Generation() != gen {
		return ErrStale
	}
	return nil
}

func (c *Chart) begin(ctx context.Context, seq uint64, idxs []banshee.Index, w Window, mode Mode) (uint64, context.Context, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if seq < c.seq {
		return 0, nil, ErrStale
	}
	if err := ctx.Err(); err != nil {
		return 0, nil, fmt.Errorf("%w: %w", ErrStale, err)
	}

	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.seq = seq
	c.generation++
	c.window = w
	c.mode = mode
	c.series = make([]Series, len(idxs))
	for i, idx := range idxs {
		c.series[i] = Series{Index: idx}
	}
	return c.generation, ctx, nil
}

func (c *Chart) deliver(gen uint64, i int, s Series) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.staleFeeds.Inc()
		slog.Debug("chart.stale", "generation", gen, "metric", s.Index.Name)
		return
	}
	if s.Err != nil && !errors.Is(s.Err, context.Canceled) {
		c.feedErrors.Inc()
		slog.Warn("chart.feed", "metric", s.Index.Name, "err", s.Err)
	}
	c.series[i] = s
	c.mu.Unlock()

	if c.notify != nil {
		c.notify()
	}
}

// Stop cancels the fetches of the current generation. Feeds already
// delivered stay on the chart.
func (c *Chart) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Chart) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Snapshot is a copy of the chart state.
type Snapshot struct {
	Generation uint64
	Window     Window
	Mode       Mode
	Series     []Series
}

func (c *Chart) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	series := make([]Series, len(c.series))
	copy(series, c.series)
	return Snapshot{Generation: c.generation, Window: c.window, Mode: c.mode, Series: series}
}
