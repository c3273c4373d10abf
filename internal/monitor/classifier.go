package monitor

import (
	"math/rand"

	"github.com/user/netguard/internal/model"
)

// DefaultMaliciousProbability is the share of flows the stub flags.
const DefaultMaliciousProbability = 0.2

// Classifier decides whether a flow is malicious. A detection backend
// can replace the random stub without touching the rest of the pipeline.
type Classifier interface {
	Classify(flow model.Flow) model.ClassificationResult
}

// RandomClassifier flags flows as malicious with a fixed probability and
// assigns a random confidence score, threat type and classification.
type RandomClassifier struct {
	rng         *rand.Rand
	probability float64
}

// NewRandomClassifier creates a stub classifier drawing from rng.
func NewRandomClassifier(rng *rand.Rand, probability float64) *RandomClassifier {
	return &RandomClassifier{rng: rng, probability: probability}
}

// Classify implements Classifier.
func (c *RandomClassifier) Classify(model.Flow) model.ClassificationResult {
	res := model.ClassificationResult{
		IsMalicious:     c.rng.Float64() < c.probability,
		ConfidenceScore: c.rng.Intn(100),
	}
	if res.IsMalicious {
		res.ThreatType = model.ThreatTypes[c.rng.Intn(len(model.ThreatTypes))]
		res.Classification = model.Classifications[c.rng.Intn(len(model.Classifications))]
	}
	return res
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(model.Flow) model.ClassificationResult

// Classify implements Classifier.
func (f ClassifierFunc) Classify(flow model.Flow) model.ClassificationResult {
	return f(flow)
}
