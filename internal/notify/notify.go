// Package notify delivers user-facing notifications and forwards alerts.
package notify

import (
	"sync"
	"time"

	"github.com/user/netguard/internal/model"
	"github.com/user/netguard/internal/util"
)

// Notifier receives notifications. Implementations must be safe for
// concurrent use.
type Notifier interface {
	Notify(n model.Notification)
}

// Func adapts a function to the Notifier interface.
type Func func(model.Notification)

// Notify implements Notifier.
func (f Func) Notify(n model.Notification) { f(n) }

// New builds a notification stamped with the current time.
func New(title, description string, variant model.Variant) model.Notification {
	return model.Notification{
		Title:       title,
		Description: description,
		Variant:     variant,
		Time:        time.Now(),
	}
}

// LogNotifier writes notifications to a logger.
type LogNotifier struct {
	logger *util.Logger
}

// NewLogNotifier creates a log notifier. A nil logger uses the default one.
func NewLogNotifier(logger *util.Logger) *LogNotifier {
	if logger == nil {
		logger = util.GetLogger()
	}
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier.
func (l *LogNotifier) Notify(n model.Notification) {
	if n.Variant == model.VariantDestructive {
		l.logger.Error("%s: %s", n.Title, n.Description)
		return
	}
	l.logger.Info("%s: %s", n.Title, n.Description)
}

// Channel buffers notifications for a consumer such as the terminal UI.
// When the buffer is full new notifications are dropped.
type Channel struct {
	ch chan model.Notification
}

// NewChannel creates a channel notifier with the given buffer size.
func NewChannel(size int) *Channel {
	return &Channel{ch: make(chan model.Notification, size)}
}

// Notify implements Notifier.
func (c *Channel) Notify(n model.Notification) {
	select {
	case c.ch <- n:
	default:
	}
}

// C returns the receive side.
func (c *Channel) C() <-chan model.Notification {
	return c.ch
}

// Multi fans a notification out to several notifiers.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(n model.Notification) {
	for _, target := range m {
		if target != nil {
			target.Notify(n)
		}
	}
}

// Recorder keeps every notification it receives. Useful in tests and for
// status output.
type Recorder struct {
	mu    sync.Mutex
	items []model.Notification
}

// Notify implements Notifier.
func (r *Recorder) Notify(n model.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

// All returns a copy of the recorded notifications.
func (r *Recorder) All() []model.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Notification(nil), r.items...)
}
