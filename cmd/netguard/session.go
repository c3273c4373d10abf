package main

import (
	"math/rand"
	"time"

	"github.com/user/netguard/internal/client"
	"github.com/user/netguard/internal/metrics"
	"github.com/user/netguard/internal/monitor"
	"github.com/user/netguard/internal/notify"
	"github.com/user/netguard/internal/util"
)

// stack bundles a monitoring session with the components wired around it.
type stack struct {
	session *monitor.Session
	metrics *metrics.Metrics
	client  *client.Client
	notes   *notify.Channel
	nats    *notify.NATSForwarder
}

// newStack builds a session from cfg. With withNotes set, notifications
// are also buffered on a channel for the terminal UI.
func newStack(cfg *util.Config, withNotes bool) *stack {
	st := &stack{metrics: metrics.New()}

	notifiers := notify.Multi{notify.NewLogNotifier(nil)}
	if withNotes {
		st.notes = notify.NewChannel(16)
		notifiers = append(notifiers, st.notes)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	opts := monitor.Options{
		TickInterval:       cfg.TickInterval,
		BufferCapacity:     cfg.BufferCapacity,
		AlertCapacity:      cfg.AlertCapacity,
		PromotionThreshold: cfg.PromotionThreshold,
		GuardStaleFetch:    cfg.GuardStaleFetch,
		Generator:          monitor.NewGenerator(rng, monitor.NewRandomClassifier(rng, cfg.MaliciousProbability)),
		Notifier:           notifiers,
		Metrics:            st.metrics,
	}

	if cfg.APIBaseURL != "" {
		st.client = client.New(cfg.APIBaseURL, cfg.AuthToken, cfg.RequestTimeout).WithMetrics(st.metrics)
		opts.Fetcher = st.client
	}

	if cfg.NATSURL != "" {
		fwd, err := notify.NewNATSForwarder(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			util.Warn("Alert forwarding disabled: %v", err)
		} else {
			st.nats = fwd
			opts.AlertSink = fwd
		}
	}

	st.session = monitor.NewSession(opts)
	return st
}

// Close releases external connections.
func (st *stack) Close() {
	if st.nats != nil {
		st.nats.Close()
	}
}
