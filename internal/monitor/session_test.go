package monitor

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/netguard/internal/client"
	"github.com/user/netguard/internal/model"
	"github.com/user/netguard/internal/notify"
)

type fakeTicker struct {
	ch      chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (f *fakeTicker) C() <-chan time.Time { return f.ch }

func (f *fakeTicker) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeTicker) isStopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

type tickerFactory struct {
	mu      sync.Mutex
	tickers []*fakeTicker
}

func (f *tickerFactory) New(time.Duration) Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTicker{ch: make(chan time.Time)}
	f.tickers = append(f.tickers, t)
	return t
}

func (f *tickerFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tickers)
}

func (f *tickerFactory) last() *fakeTicker {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tickers[len(f.tickers)-1]
}

type stubFetcher struct {
	release  chan struct{}
	traffic  []model.TrafficEvent
	stats    model.NetworkStats
	alerts   []model.Alert
	statsErr error
}

func (f *stubFetcher) wait(ctx context.Context) error {
	if f.release == nil {
		return nil
	}
	select {
	case <-f.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *stubFetcher) FetchTraffic(ctx context.Context) ([]model.TrafficEvent, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return f.traffic, nil
}

func (f *stubFetcher) FetchStats(ctx context.Context) (model.NetworkStats, error) {
	if err := f.wait(ctx); err != nil {
		return model.NetworkStats{}, err
	}
	return f.stats, f.statsErr
}

func (f *stubFetcher) FetchAlerts(ctx context.Context) ([]model.Alert, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return f.alerts, nil
}

type harness struct {
	session  *Session
	tickers  *tickerFactory
	notes    *notify.Recorder
	cancel   context.CancelFunc
	runError chan error
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	h := &harness{
		tickers:  &tickerFactory{},
		notes:    &notify.Recorder{},
		runError: make(chan error, 1),
	}
	opts.NewTicker = h.tickers.New
	opts.Notifier = h.notes
	if opts.Generator == nil {
		opts.Generator = newSeededGenerator(1)
	}
	if opts.Aggregator == nil {
		opts.Aggregator = NewAggregator(rand.New(rand.NewSource(2)))
	}
	h.session = NewSession(opts)

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.runError <- h.session.Run(ctx) }()
	t.Cleanup(cancel)
	return h
}

// tick delivers one tick and waits until the loop has processed it.
func (h *harness) tick(t *testing.T) {
	t.Helper()
	select {
	case h.tickers.last().ch <- time.Now():
	case <-time.After(time.Second):
		t.Fatal("tick not accepted")
	}
	require.NoError(t, h.session.do(func() {}))
}

func alwaysMalicious(score int) *Generator {
	return NewGenerator(rand.New(rand.NewSource(4)), ClassifierFunc(func(model.Flow) model.ClassificationResult {
		return model.ClassificationResult{
			IsMalicious:     true,
			ConfidenceScore: score,
			ThreatType:      model.ThreatDDoS,
			Classification:  model.ClassMalicious,
		}
	}))
}

func TestSession_InitialState(t *testing.T) {
	h := newHarness(t, Options{})

	snap := h.session.Snapshot()
	assert.Equal(t, Inactive, snap.State)
	assert.Empty(t, snap.Events)
	assert.Empty(t, snap.Alerts)
	assert.Equal(t, model.ThreatLow, snap.Stats.ThreatLevel)
	assert.Zero(t, h.tickers.count())
}

func TestSession_ThreeTicksThenStop(t *testing.T) {
	h := newHarness(t, Options{})

	require.NoError(t, h.session.Start())
	ticker := h.tickers.last()
	for i := 0; i < 3; i++ {
		h.tick(t)
	}
	require.NoError(t, h.session.Stop())

	snap := h.session.Snapshot()
	assert.Equal(t, Inactive, snap.State)
	require.Len(t, snap.Events, 3)
	assert.Equal(t, uint64(3), snap.Ticks)
	assert.False(t, snap.Events[0].Timestamp.Before(snap.Events[2].Timestamp))
	assert.True(t, ticker.isStopped())

	select {
	case ticker.ch <- time.Now():
		t.Fatal("tick accepted after stop")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Len(t, h.session.Snapshot().Events, 3)

	notes := h.notes.All()
	require.Len(t, notes, 2)
	assert.Equal(t, "Monitoring Started", notes[0].Title)
	assert.Equal(t, "Monitoring Stopped", notes[1].Title)
}

func TestSession_StartIsIdempotent(t *testing.T) {
	h := newHarness(t, Options{})

	require.NoError(t, h.session.Start())
	require.NoError(t, h.session.Start())

	assert.Equal(t, 1, h.tickers.count())
	assert.Len(t, h.notes.All(), 1)

	h.tick(t)
	assert.Len(t, h.session.Snapshot().Events, 1)
}

func TestSession_StopWhenInactiveIsNoop(t *testing.T) {
	h := newHarness(t, Options{})

	require.NoError(t, h.session.Stop())

	assert.Empty(t, h.notes.All())
	assert.Equal(t, Inactive, h.session.Snapshot().State)
}

func TestSession_Toggle(t *testing.T) {
	h := newHarness(t, Options{})

	require.NoError(t, h.session.Toggle())
	assert.Equal(t, Active, h.session.Snapshot().State)

	require.NoError(t, h.session.Toggle())
	assert.Equal(t, Inactive, h.session.Snapshot().State)

	require.NoError(t, h.session.Toggle())
	assert.Equal(t, Active, h.session.Snapshot().State)
	assert.Equal(t, 2, h.tickers.count())
}

func TestSession_DataRetainedAcrossRestart(t *testing.T) {
	h := newHarness(t, Options{})

	require.NoError(t, h.session.Start())
	h.tick(t)
	h.tick(t)
	require.NoError(t, h.session.Stop())
	require.NoError(t, h.session.Start())
	h.tick(t)

	assert.Len(t, h.session.Snapshot().Events, 3)
}

func TestSession_BufferBounded(t *testing.T) {
	h := newHarness(t, Options{BufferCapacity: 50})

	require.NoError(t, h.session.Start())
	for i := 0; i < 60; i++ {
		h.tick(t)
	}

	snap := h.session.Snapshot()
	assert.Len(t, snap.Events, 50)
	assert.Equal(t, uint64(60), snap.Ticks)
}

func TestSession_AlertsTodayTracksAlertList(t *testing.T) {
	h := newHarness(t, Options{AlertCapacity: 12, Generator: alwaysMalicious(95)})

	require.NoError(t, h.session.Start())
	want := []model.ThreatLevel{
		model.ThreatMedium, model.ThreatMedium, model.ThreatMedium, model.ThreatMedium, model.ThreatMedium,
		model.ThreatHigh, model.ThreatHigh, model.ThreatHigh, model.ThreatHigh, model.ThreatHigh,
		model.ThreatCritical, model.ThreatCritical, model.ThreatCritical,
	}
	for i, level := range want {
		h.tick(t)
		snap := h.session.Snapshot()
		expected := i + 1
		if expected > 12 {
			expected = 12
		}
		assert.Len(t, snap.Alerts, expected)
		assert.Equal(t, expected, snap.Stats.AlertsToday)
		assert.Equal(t, level, snap.Stats.ThreatLevel, "tick %d", i+1)
	}
}

func TestSession_TrafficMonotonic(t *testing.T) {
	h := newHarness(t, Options{})

	require.NoError(t, h.session.Start())
	var prev int64
	for i := 0; i < 100; i++ {
		h.tick(t)
		cur := h.session.Snapshot().Stats.TotalTraffic
		assert.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
}

type sinkFunc func(model.Alert) error

func (f sinkFunc) PublishAlert(a model.Alert) error { return f(a) }

func TestSession_ForwardsPromotedAlerts(t *testing.T) {
	var mu sync.Mutex
	var forwarded []model.Alert
	sink := sinkFunc(func(a model.Alert) error {
		mu.Lock()
		defer mu.Unlock()
		forwarded = append(forwarded, a)
		return errors.New("broker down")
	})
	h := newHarness(t, Options{Generator: alwaysMalicious(90), AlertSink: sink})

	require.NoError(t, h.session.Start())
	h.tick(t)
	h.tick(t)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, forwarded, 2)
	assert.Len(t, h.session.Snapshot().Alerts, 2)
}

func TestSession_ZeroThresholdPromotesAnyMalicious(t *testing.T) {
	h := newHarness(t, Options{PromotionThreshold: 0, Generator: alwaysMalicious(50)})

	require.NoError(t, h.session.Start())
	h.tick(t)

	assert.Len(t, h.session.Snapshot().Alerts, 1)
}

func TestSession_NegativeThresholdUsesDefault(t *testing.T) {
	h := newHarness(t, Options{PromotionThreshold: -1, Generator: alwaysMalicious(50)})

	require.NoError(t, h.session.Start())
	h.tick(t)

	assert.Empty(t, h.session.Snapshot().Alerts)
}

func TestSession_TicksInvalidateRefreshedTopTalkers(t *testing.T) {
	fetcher := &stubFetcher{stats: model.NetworkStats{
		ThreatLevel: model.ThreatLow,
		TopTalkers:  []model.TopTalker{{IP: "192.168.1.44", Bytes: 13937, Packets: 20, Connections: 1}},
	}}
	h := newHarness(t, Options{Fetcher: fetcher})

	require.NoError(t, h.session.Refresh(context.Background()))
	require.Len(t, h.session.Snapshot().Stats.TopTalkers, 1)

	require.NoError(t, h.session.Start())
	h.tick(t)

	snap := h.session.Snapshot()
	assert.Empty(t, snap.Stats.TopTalkers)
	require.Len(t, snap.Events, 1)
	assert.Equal(t, snap.Events[0].SourceIP, TopTalkers(snap.Events, 5)[0].IP)
}

func TestSession_RefreshPartialFailure(t *testing.T) {
	refreshed := []model.TrafficEvent{event(false, 3), event(false, 4)}
	fetcher := &stubFetcher{
		traffic:  refreshed,
		alerts:   []model.Alert{{ID: "remote"}},
		statsErr: &client.FetchError{Endpoint: client.EndpointStats, StatusCode: http.StatusInternalServerError},
	}
	h := newHarness(t, Options{Fetcher: fetcher})

	before := h.session.Snapshot().Stats
	err := h.session.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, client.IsFetchFailure(err))

	snap := h.session.Snapshot()
	assert.Equal(t, refreshed, snap.Events)
	require.Len(t, snap.Alerts, 1)
	assert.Equal(t, "remote", snap.Alerts[0].ID)
	assert.Equal(t, before, snap.Stats)
	assert.False(t, snap.Loading)
	assert.Equal(t, err.Error(), snap.LastError)

	notes := h.notes.All()
	require.Len(t, notes, 1)
	assert.Equal(t, model.VariantDestructive, notes[0].Variant)
	assert.Equal(t, "Error", notes[0].Title)
}

func TestSession_RefreshReplacesStats(t *testing.T) {
	fetcher := &stubFetcher{stats: model.NetworkStats{
		TotalTraffic: 777,
		AlertsToday:  1,
		ThreatLevel:  model.ThreatLow,
	}}
	h := newHarness(t, Options{Fetcher: fetcher})

	require.NoError(t, h.session.Refresh(context.Background()))

	snap := h.session.Snapshot()
	assert.Equal(t, int64(777), snap.Stats.TotalTraffic)
	assert.Equal(t, model.ThreatLow, snap.Stats.ThreatLevel)
	assert.Empty(t, snap.LastError)
	assert.Empty(t, h.notes.All())
}

func TestSession_RefreshTruncatesToCapacity(t *testing.T) {
	var many []model.TrafficEvent
	for i := 0; i < 80; i++ {
		many = append(many, event(false, i))
	}
	h := newHarness(t, Options{Fetcher: &stubFetcher{traffic: many}})

	require.NoError(t, h.session.Refresh(context.Background()))
	assert.Len(t, h.session.Snapshot().Events, 50)
}

func TestSession_RefreshWithoutFetcher(t *testing.T) {
	h := newHarness(t, Options{})

	err := h.session.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrNoFetcher)
	require.Len(t, h.notes.All(), 1)
}

func TestSession_LoadingWhileRefreshing(t *testing.T) {
	fetcher := &stubFetcher{release: make(chan struct{})}
	h := newHarness(t, Options{Fetcher: fetcher})

	done := make(chan error, 1)
	go func() { done <- h.session.Refresh(context.Background()) }()

	require.Eventually(t, func() bool { return h.session.Snapshot().Loading }, time.Second, 5*time.Millisecond)
	close(fetcher.release)
	require.NoError(t, <-done)
	assert.False(t, h.session.Snapshot().Loading)
}

func TestSession_StaleRefreshAfterStop(t *testing.T) {
	tests := []struct {
		name    string
		guard   bool
		applied bool
	}{
		{"unguarded applies late data", false, true},
		{"guarded drops late data", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			late := []model.TrafficEvent{event(false, 1)}
			fetcher := &stubFetcher{release: make(chan struct{}), traffic: late}
			h := newHarness(t, Options{Fetcher: fetcher, GuardStaleFetch: tt.guard})

			require.NoError(t, h.session.Start())
			done := make(chan error, 1)
			go func() { done <- h.session.Refresh(context.Background()) }()
			require.Eventually(t, func() bool { return h.session.Snapshot().Loading }, time.Second, 5*time.Millisecond)

			require.NoError(t, h.session.Stop())
			close(fetcher.release)
			require.NoError(t, <-done)

			events := h.session.Snapshot().Events
			if tt.applied {
				assert.Equal(t, late, events)
			} else {
				assert.Empty(t, events)
			}
		})
	}
}

func TestSession_ClosedAfterRunReturns(t *testing.T) {
	h := newHarness(t, Options{})
	require.NoError(t, h.session.Start())

	h.cancel()
	require.NoError(t, <-h.runError)
	<-h.session.Done()

	assert.ErrorIs(t, h.session.Start(), ErrSessionClosed)
	assert.ErrorIs(t, h.session.Stop(), ErrSessionClosed)
	assert.True(t, h.tickers.last().isStopped())
}

func TestSession_RunTwice(t *testing.T) {
	h := newHarness(t, Options{})
	require.NoError(t, h.session.Start())

	assert.Error(t, h.session.Run(context.Background()))
}
