package monitor

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/user/netguard/internal/model"
)

// Address prefixes of the synthetic private ranges.
const (
	SourcePrefix      = "192.168.1."
	DestinationPrefix = "10.0.0."
)

// CandidatePorts are the destination ports a synthetic flow may use.
var CandidatePorts = []int{80, 443, 22, 53, 8080}

// Generator synthesizes one traffic event per call.
type Generator struct {
	rng        *rand.Rand
	classifier Classifier
	now        func() time.Time
}

// NewGenerator creates a generator. A nil classifier means every flow is
// benign.
func NewGenerator(rng *rand.Rand, classifier Classifier) *Generator {
	return &Generator{
		rng:        rng,
		classifier: classifier,
		now:        time.Now,
	}
}

// WithClock replaces the timestamp source.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Next returns a freshly generated and classified event.
func (g *Generator) Next() model.TrafficEvent {
	flow := model.Flow{
		Timestamp:       g.now(),
		SourceIP:        fmt.Sprintf("%s%d", SourcePrefix, g.rng.Intn(254)+1),
		DestinationIP:   fmt.Sprintf("%s%d", DestinationPrefix, g.rng.Intn(254)+1),
		Protocol:        model.Protocols[g.rng.Intn(len(model.Protocols))],
		Port:            CandidatePorts[g.rng.Intn(len(CandidatePorts))],
		Bytes:           g.rng.Int63n(100000),
		Packets:         g.rng.Int63n(100),
		DurationSeconds: g.rng.Float64() * 10,
	}

	var res model.ClassificationResult
	if g.classifier != nil {
		res = g.classifier.Classify(flow)
	}

	return newEvent(flow, res)
}

// newEvent combines a flow and its verdict, dropping threat details from
// benign verdicts.
func newEvent(flow model.Flow, res model.ClassificationResult) model.TrafficEvent {
	ev := model.TrafficEvent{
		Flow:            flow,
		IsMalicious:     res.IsMalicious,
		ConfidenceScore: clampScore(res.ConfidenceScore),
	}
	if res.IsMalicious {
		ev.ThreatType = res.ThreatType
		ev.Classification = res.Classification
		if ev.ThreatType == "" {
			ev.ThreatType = model.ThreatPortScan
		}
		if ev.Classification == "" {
			ev.Classification = model.ClassUnknown
		}
	}
	return ev
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
