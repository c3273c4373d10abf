package monitor

import (
	"time"

	"github.com/google/uuid"

	"github.com/user/netguard/internal/model"
)

// AlertSink receives every promoted alert, e.g. to forward it elsewhere.
type AlertSink interface {
	PublishAlert(alert model.Alert) error
}

// AlertExtractor promotes confident malicious events into a bounded list.
type AlertExtractor struct {
	threshold int
	alerts    *Rolling[model.Alert]
	now       func() time.Time
}

// NewAlertExtractor creates an extractor. Events need a confidence score
// strictly above threshold to be promoted.
func NewAlertExtractor(threshold, capacity int) *AlertExtractor {
	return &AlertExtractor{
		threshold: threshold,
		alerts:    NewRolling[model.Alert](capacity),
		now:       time.Now,
	}
}

// Qualifies reports whether ev passes the promotion gate.
func (x *AlertExtractor) Qualifies(ev model.TrafficEvent) bool {
	return ev.IsMalicious && ev.ConfidenceScore > x.threshold
}

// Consider promotes ev if it qualifies and returns the new alert.
func (x *AlertExtractor) Consider(ev model.TrafficEvent) (model.Alert, bool) {
	if !x.Qualifies(ev) {
		return model.Alert{}, false
	}
	alert := model.Alert{
		TrafficEvent: ev,
		ID:           uuid.NewString(),
		PromotedAt:   x.now(),
	}
	x.alerts.Push(alert)
	return alert, true
}

// Replace swaps the alert list for a refreshed one.
func (x *AlertExtractor) Replace(alerts []model.Alert) {
	x.alerts.Replace(alerts)
}

// Alerts returns the current alerts, newest first.
func (x *AlertExtractor) Alerts() []model.Alert {
	return x.alerts.Items()
}

// Len returns the number of alerts held.
func (x *AlertExtractor) Len() int {
	return x.alerts.Len()
}
