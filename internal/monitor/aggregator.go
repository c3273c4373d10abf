package monitor

import (
	"math/rand"
	"sort"

	"github.com/user/netguard/internal/model"
)

// Aggregator folds generated events into NetworkStats.
type Aggregator struct {
	rng *rand.Rand
}

// NewAggregator creates an aggregator drawing synthetic increments from rng.
func NewAggregator(rng *rand.Rand) *Aggregator {
	return &Aggregator{rng: rng}
}

// Fold applies one tick to stats. Connection and volume growth are
// synthetic; alertCount is the current length of the alert list.
func (a *Aggregator) Fold(stats *model.NetworkStats, ev model.TrafficEvent, alertCount int) {
	stats.ActiveConnections += a.rng.Intn(50)
	stats.TotalTraffic += a.rng.Int63n(10000)

	if stats.Protocols == nil {
		stats.Protocols = make(map[string]int)
	}
	stats.Protocols[string(ev.Protocol)]++

	stats.AlertsToday = alertCount
	stats.ThreatLevel = DeriveThreatLevel(alertCount)

	// A ranking from refreshed stats no longer matches the buffer.
	stats.TopTalkers = nil
}

// DeriveThreatLevel maps an alert count to a threat level. The tick path
// never yields ThreatLow; low only arrives through refreshed stats.
func DeriveThreatLevel(alertCount int) model.ThreatLevel {
	switch {
	case alertCount > 10:
		return model.ThreatCritical
	case alertCount > 5:
		return model.ThreatHigh
	default:
		return model.ThreatMedium
	}
}

// TopTalkers ranks source addresses in events by bytes sent and returns at
// most n of them. Ties are broken by address.
func TopTalkers(events []model.TrafficEvent, n int) []model.TopTalker {
	byIP := make(map[string]*model.TopTalker)
	for _, ev := range events {
		t, ok := byIP[ev.SourceIP]
		if !ok {
			t = &model.TopTalker{IP: ev.SourceIP}
			byIP[ev.SourceIP] = t
		}
		t.Bytes += ev.Bytes
		t.Packets += ev.Packets
		t.Connections++
	}

	out := make([]model.TopTalker, 0, len(byIP))
	for _, t := range byIP {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Bytes != out[j].Bytes {
			return out[i].Bytes > out[j].Bytes
		}
		return out[i].IP < out[j].IP
	})

	if len(out) > n {
		out = out[:n]
	}
	return out
}
