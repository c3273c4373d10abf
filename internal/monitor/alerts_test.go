package monitor

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/netguard/internal/model"
)

func event(malicious bool, score int) model.TrafficEvent {
	ev := model.TrafficEvent{IsMalicious: malicious, ConfidenceScore: score}
	if malicious {
		ev.ThreatType = model.ThreatBruteForce
		ev.Classification = model.ClassMalicious
	}
	return ev
}

func TestAlertExtractor_Gate(t *testing.T) {
	x := NewAlertExtractor(70, 5)

	tests := []struct {
		name string
		ev   model.TrafficEvent
		want bool
	}{
		{"malicious above threshold", event(true, 71), true},
		{"malicious at threshold", event(true, 70), false},
		{"malicious below threshold", event(true, 10), false},
		{"benign with high score", event(false, 99), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, x.Qualifies(tt.ev))
		})
	}
}

func TestAlertExtractor_EveryAlertQualifies(t *testing.T) {
	g := newSeededGenerator(42)
	x := NewAlertExtractor(70, 10000)

	for i := 0; i < 10000; i++ {
		x.Consider(g.Next())
	}

	require.NotZero(t, x.Len())
	for _, a := range x.Alerts() {
		assert.True(t, a.IsMalicious)
		assert.Greater(t, a.ConfidenceScore, 70)
		assert.NotEmpty(t, a.ID)
		assert.False(t, a.PromotedAt.IsZero())
	}
}

func TestAlertExtractor_BoundedNewestFirst(t *testing.T) {
	x := NewAlertExtractor(70, 5)

	for score := 91; score <= 98; score++ {
		_, ok := x.Consider(event(true, score))
		require.True(t, ok)
	}

	alerts := x.Alerts()
	require.Len(t, alerts, 5)
	assert.Equal(t, 98, alerts[0].ConfidenceScore)
	assert.Equal(t, 94, alerts[4].ConfidenceScore)
}

func TestAlertExtractor_NoDeduplication(t *testing.T) {
	x := NewAlertExtractor(70, 5)
	ev := event(true, 80)

	x.Consider(ev)
	x.Consider(ev)

	alerts := x.Alerts()
	require.Len(t, alerts, 2)
	assert.NotEqual(t, alerts[0].ID, alerts[1].ID)
}

func TestAggregator_FoldsTick(t *testing.T) {
	a := NewAggregator(rand.New(rand.NewSource(9)))
	stats := model.NewNetworkStats()

	var prevTraffic int64
	var prevConns int
	for i := 0; i < 500; i++ {
		ev := event(false, 0)
		ev.Protocol = model.ProtocolUDP
		a.Fold(&stats, ev, 2)

		assert.GreaterOrEqual(t, stats.TotalTraffic, prevTraffic)
		assert.Less(t, stats.TotalTraffic-prevTraffic, int64(10000))
		assert.GreaterOrEqual(t, stats.ActiveConnections, prevConns)
		assert.Less(t, stats.ActiveConnections-prevConns, 50)
		prevTraffic, prevConns = stats.TotalTraffic, stats.ActiveConnections
	}

	assert.Equal(t, 500, stats.Protocols[string(model.ProtocolUDP)])
	assert.Equal(t, 2, stats.AlertsToday)
	assert.Equal(t, model.ThreatMedium, stats.ThreatLevel)
}

func TestAggregator_FoldDropsRefreshedTopTalkers(t *testing.T) {
	a := NewAggregator(rand.New(rand.NewSource(9)))
	stats := model.NewNetworkStats()
	stats.TopTalkers = []model.TopTalker{{IP: "192.168.1.44", Bytes: 13937, Packets: 20, Connections: 1}}

	a.Fold(&stats, event(false, 0), 0)

	assert.Nil(t, stats.TopTalkers)
}

func TestDeriveThreatLevel(t *testing.T) {
	tests := []struct {
		alerts int
		want   model.ThreatLevel
	}{
		{0, model.ThreatMedium},
		{5, model.ThreatMedium},
		{6, model.ThreatHigh},
		{10, model.ThreatHigh},
		{11, model.ThreatCritical},
		{500, model.ThreatCritical},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DeriveThreatLevel(tt.alerts), "alerts=%d", tt.alerts)
	}
}

// The tick path has no low branch: even an empty alert list yields medium.
// Low is only ever seen in initial or refreshed stats.
func TestDeriveThreatLevel_NeverLow(t *testing.T) {
	for n := 0; n <= 1000; n++ {
		require.NotEqual(t, model.ThreatLow, DeriveThreatLevel(n), "alerts=%d", n)
	}
}

func TestTopTalkers(t *testing.T) {
	mk := func(ip string, bytes int64) model.TrafficEvent {
		ev := model.TrafficEvent{}
		ev.SourceIP = ip
		ev.Bytes = bytes
		ev.Packets = 1
		return ev
	}
	events := []model.TrafficEvent{
		mk("192.168.1.2", 100),
		mk("192.168.1.3", 500),
		mk("192.168.1.2", 450),
		mk("192.168.1.4", 550),
	}

	top := TopTalkers(events, 2)
	require.Len(t, top, 2)
	assert.Equal(t, model.TopTalker{IP: "192.168.1.2", Bytes: 550, Packets: 2, Connections: 2}, top[0])
	assert.Equal(t, "192.168.1.4", top[1].IP)

	assert.Empty(t, TopTalkers(nil, 5))
}
