package notify

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/user/netguard/internal/model"
	"github.com/user/netguard/internal/util"
)

// publisher is the part of *nats.Conn the forwarder needs.
type publisher interface {
	Publish(subject string, data []byte) error
}

// NATSForwarder publishes promoted alerts as JSON to a NATS subject.
type NATSForwarder struct {
	pub     publisher
	nc      *nats.Conn
	subject string
}

// NewNATSForwarder connects to the NATS server at url.
func NewNATSForwarder(url, subject string) (*NATSForwarder, error) {
	nc, err := nats.Connect(url, nats.Name("netguard"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	util.Info("Connected to NATS server at %s", url)
	return &NATSForwarder{pub: nc, nc: nc, subject: subject}, nil
}

// PublishAlert implements monitor.AlertSink.
func (f *NATSForwarder) PublishAlert(alert model.Alert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to encode alert: %w", err)
	}
	if err := f.pub.Publish(f.subject, data); err != nil {
		return fmt.Errorf("failed to publish alert: %w", err)
	}
	return nil
}

// Close drains and closes the NATS connection.
func (f *NATSForwarder) Close() {
	if f.nc != nil {
		if err := f.nc.Drain(); err != nil {
			util.Warn("NATS drain failed: %v", err)
		}
		util.Info("NATS connection drained and closed.")
	}
}
