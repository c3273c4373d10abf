package monitor

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/user/netguard/internal/metrics"
	"github.com/user/netguard/internal/model"
	"github.com/user/netguard/internal/notify"
	"github.com/user/netguard/internal/util"
)

// State is the lifecycle state of a session.
type State int

const (
	Inactive State = iota
	Active
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "inactive"
}

var (
	// ErrSessionClosed is returned by operations issued after Run returned.
	ErrSessionClosed = errors.New("monitor: session closed")
	// ErrNoFetcher is returned by Refresh when no upstream API is configured.
	ErrNoFetcher = errors.New("monitor: no upstream API configured")

	errAlreadyRunning = errors.New("monitor: session already running")
)

// Ticker delivers generation ticks.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc creates a ticker firing every d.
type TickerFunc func(d time.Duration) Ticker

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker wraps time.NewTicker.
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// Fetcher loads authoritative data from the upstream API.
type Fetcher interface {
	FetchTraffic(ctx context.Context) ([]model.TrafficEvent, error)
	FetchStats(ctx context.Context) (model.NetworkStats, error)
	FetchAlerts(ctx context.Context) ([]model.Alert, error)
}

// Options configures a Session. Zero values fall back to DefaultOptions,
// except PromotionThreshold where 0 is a valid gate and only a negative
// value selects the default.
type Options struct {
	TickInterval       time.Duration
	BufferCapacity     int
	AlertCapacity      int
	PromotionThreshold int
	// GuardStaleFetch drops refresh results that arrive after a Stop
	// issued while the refresh was in flight.
	GuardStaleFetch bool

	Generator  *Generator
	Aggregator *Aggregator
	Fetcher    Fetcher
	Notifier   notify.Notifier
	AlertSink  AlertSink
	Metrics    *metrics.Metrics
	NewTicker  TickerFunc
}

// DefaultOptions returns the stock session settings.
func DefaultOptions() Options {
	return Options{
		TickInterval:       3 * time.Second,
		BufferCapacity:     50,
		AlertCapacity:      5,
		PromotionThreshold: 70,
	}
}

// Snapshot is a read-only copy of the session's observable state.
type Snapshot struct {
	State     State
	Loading   bool
	Ticks     uint64
	StartedAt time.Time
	LastError string
	Events    []model.TrafficEvent
	Alerts    []model.Alert
	Stats     model.NetworkStats
}

// Session owns the rolling buffer, alert list and statistics of one
// monitoring run. All mutation happens on the goroutine executing Run;
// other goroutines send it commands and read published snapshots.
type Session struct {
	opts    Options
	cmds    chan func()
	done    chan struct{}
	running atomic.Bool

	// owned by the Run goroutine
	state     State
	ticker    Ticker
	tickC     <-chan time.Time
	epoch     uint64
	ticks     uint64
	inflight  int
	startedAt time.Time
	lastErr   string
	traffic   *Rolling[model.TrafficEvent]
	extractor *AlertExtractor
	stats     model.NetworkStats

	mu   sync.RWMutex
	snap Snapshot
}

// NewSession creates an inactive session. Run must be started before any
// other method is called.
func NewSession(opts Options) *Session {
	def := DefaultOptions()
	if opts.TickInterval <= 0 {
		opts.TickInterval = def.TickInterval
	}
	if opts.BufferCapacity <= 0 {
		opts.BufferCapacity = def.BufferCapacity
	}
	if opts.AlertCapacity <= 0 {
		opts.AlertCapacity = def.AlertCapacity
	}
	if opts.PromotionThreshold < 0 {
		opts.PromotionThreshold = def.PromotionThreshold
	}
	if opts.Generator == nil {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		opts.Generator = NewGenerator(rng, NewRandomClassifier(rng, DefaultMaliciousProbability))
	}
	if opts.Aggregator == nil {
		opts.Aggregator = NewAggregator(rand.New(rand.NewSource(time.Now().UnixNano())))
	}
	if opts.NewTicker == nil {
		opts.NewTicker = NewTimeTicker
	}

	s := &Session{
		opts:      opts,
		cmds:      make(chan func()),
		done:      make(chan struct{}),
		traffic:   NewRolling[model.TrafficEvent](opts.BufferCapacity),
		extractor: NewAlertExtractor(opts.PromotionThreshold, opts.AlertCapacity),
		stats:     model.NewNetworkStats(),
	}
	s.publish()
	return s
}

// Run executes the session loop until ctx is cancelled.
func (s *Session) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return errAlreadyRunning
	}
	defer close(s.done)
	defer s.stopTicker()

	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-s.cmds:
			fn()
		case <-s.tickC:
			s.tick()
		}
	}
}

// Done is closed once Run has returned.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Start activates periodic generation. Starting an active session does
// nothing.
func (s *Session) Start() error {
	return s.do(func() {
		if s.state == Active {
			return
		}
		s.ticker = s.opts.NewTicker(s.opts.TickInterval)
		s.tickC = s.ticker.C()
		s.state = Active
		s.startedAt = time.Now()
		s.opts.Metrics.SetActive(true)
		util.Info("Monitoring started (interval %s)", s.opts.TickInterval)
		s.notify("Monitoring Started", "Real-time network monitoring has been activated.", model.VariantDefault)
		s.publish()
	})
}

// Stop halts generation. No tick is processed after Stop returns.
// Stopping an inactive session does nothing.
func (s *Session) Stop() error {
	return s.do(func() {
		if s.state == Inactive {
			return
		}
		s.stopTicker()
		s.state = Inactive
		s.epoch++
		s.opts.Metrics.SetActive(false)
		util.Info("Monitoring stopped after %d ticks", s.ticks)
		s.notify("Monitoring Stopped", "Network monitoring has been paused.", model.VariantDefault)
		s.publish()
	})
}

// Toggle starts an inactive session or stops an active one.
func (s *Session) Toggle() error {
	var active bool
	if err := s.do(func() { active = s.state == Active }); err != nil {
		return err
	}
	if active {
		return s.Stop()
	}
	return s.Start()
}

// Refresh fetches traffic, stats and alerts concurrently and replaces the
// local copies with whatever succeeded. The first failure is reported as a
// single destructive notification and returned.
func (s *Session) Refresh(ctx context.Context) error {
	if s.opts.Fetcher == nil {
		s.notify("Error", ErrNoFetcher.Error(), model.VariantDestructive)
		return ErrNoFetcher
	}

	var epoch uint64
	if err := s.do(func() {
		epoch = s.epoch
		s.inflight++
		s.publish()
	}); err != nil {
		return err
	}

	var g errgroup.Group
	g.Go(func() error {
		events, err := s.opts.Fetcher.FetchTraffic(ctx)
		if err != nil {
			return err
		}
		return s.apply(epoch, func() {
			s.traffic.Replace(events)
			s.opts.Metrics.SetBufferSize(s.traffic.Len())
		})
	})
	g.Go(func() error {
		stats, err := s.opts.Fetcher.FetchStats(ctx)
		if err != nil {
			return err
		}
		return s.apply(epoch, func() { s.stats = stats.Clone() })
	})
	g.Go(func() error {
		alerts, err := s.opts.Fetcher.FetchAlerts(ctx)
		if err != nil {
			return err
		}
		return s.apply(epoch, func() { s.extractor.Replace(alerts) })
	})
	err := g.Wait()

	_ = s.do(func() {
		s.inflight--
		if err != nil {
			s.lastErr = err.Error()
		} else {
			s.lastErr = ""
		}
		s.publish()
	})

	if err != nil {
		if !errors.Is(err, ErrSessionClosed) {
			util.Warn("Refresh failed: %v", err)
			s.notify("Error", err.Error(), model.VariantDestructive)
		}
		return err
	}
	util.Debug("Refresh complete")
	return nil
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snap
	snap.Events = append([]model.TrafficEvent(nil), s.snap.Events...)
	snap.Alerts = append([]model.Alert(nil), s.snap.Alerts...)
	snap.Stats = s.snap.Stats.Clone()
	return snap
}

// tick generates one event and folds it into the buffer, alerts and stats.
func (s *Session) tick() {
	ev := s.opts.Generator.Next()
	s.traffic.Push(ev)
	s.ticks++

	if alert, ok := s.extractor.Consider(ev); ok {
		s.opts.Metrics.ObservePromotion()
		util.Debug("Promoted alert %s: %s from %s (confidence %d)",
			alert.ID, alert.ThreatType, alert.SourceIP, alert.ConfidenceScore)
		if s.opts.AlertSink != nil {
			if err := s.opts.AlertSink.PublishAlert(alert); err != nil {
				util.Warn("Alert forward failed: %v", err)
			}
		}
	}

	s.opts.Aggregator.Fold(&s.stats, ev, s.extractor.Len())
	s.opts.Metrics.ObserveTick(ev, s.traffic.Len())
	s.publish()
}

// apply runs fn on the loop unless the result is stale.
func (s *Session) apply(epoch uint64, fn func()) error {
	return s.do(func() {
		if s.opts.GuardStaleFetch && s.epoch != epoch {
			util.Debug("Discarding refresh result fetched before stop")
			return
		}
		fn()
		s.publish()
	})
}

// do runs fn on the loop goroutine and waits for it to finish.
func (s *Session) do(fn func()) error {
	ran := make(chan struct{})
	select {
	case s.cmds <- func() { fn(); close(ran) }:
	case <-s.done:
		return ErrSessionClosed
	}
	select {
	case <-ran:
		return nil
	case <-s.done:
		return ErrSessionClosed
	}
}

func (s *Session) stopTicker() {
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
	s.tickC = nil
}

func (s *Session) notify(title, description string, variant model.Variant) {
	if s.opts.Notifier != nil {
		s.opts.Notifier.Notify(notify.New(title, description, variant))
	}
}

func (s *Session) publish() {
	snap := Snapshot{
		State:     s.state,
		Loading:   s.inflight > 0,
		Ticks:     s.ticks,
		StartedAt: s.startedAt,
		LastError: s.lastErr,
		Events:    s.traffic.Items(),
		Alerts:    s.extractor.Alerts(),
		Stats:     s.stats.Clone(),
	}

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}

// Status summarises the snapshot.
func (s Snapshot) Status() model.MonitorStatus {
	st := model.MonitorStatus{
		State:       s.State.String(),
		Loading:     s.Loading,
		Ticks:       s.Ticks,
		Events:      len(s.Events),
		Alerts:      len(s.Alerts),
		ThreatLevel: s.Stats.ThreatLevel,
		LastError:   s.LastError,
	}
	if !s.StartedAt.IsZero() {
		started := s.StartedAt
		st.StartedAt = &started
	}
	return st
}
