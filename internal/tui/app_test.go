package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/netguard/internal/model"
	"github.com/user/netguard/internal/monitor"
	"github.com/user/netguard/internal/util"
)

type fakeSession struct {
	snap      monitor.Snapshot
	toggles   int
	refreshes int
	toggleErr error
}

func (f *fakeSession) Toggle() error {
	if f.toggleErr != nil {
		return f.toggleErr
	}
	f.toggles++
	if f.snap.State == monitor.Active {
		f.snap.State = monitor.Inactive
	} else {
		f.snap.State = monitor.Active
	}
	return nil
}

func (f *fakeSession) Refresh(ctx context.Context) error {
	f.refreshes++
	return errors.New("upstream down")
}

func (f *fakeSession) Snapshot() monitor.Snapshot { return f.snap }

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sampleSnapshot() monitor.Snapshot {
	ev := model.TrafficEvent{
		Flow: model.Flow{
			Timestamp:     time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
			SourceIP:      "192.168.1.10",
			DestinationIP: "10.0.0.5",
			Protocol:      model.ProtocolHTTPS,
			Port:          443,
			Bytes:         2048,
		},
		IsMalicious:     true,
		ConfidenceScore: 91,
		ThreatType:      model.ThreatDDoS,
		Classification:  model.ClassMalicious,
	}
	stats := model.NewNetworkStats()
	stats.TotalTraffic = 2048
	stats.ActiveConnections = 1
	stats.AlertsToday = 1
	stats.ThreatLevel = model.ThreatMedium
	stats.Protocols["HTTPS"] = 1

	return monitor.Snapshot{
		State:     monitor.Active,
		Ticks:     7,
		StartedAt: time.Date(2024, 5, 1, 9, 59, 0, 0, time.UTC),
		Events:    []model.TrafficEvent{ev},
		Alerts:    []model.Alert{{TrafficEvent: ev}},
		Stats:     stats,
	}
}

func update(t *testing.T, m appModel, msg tea.Msg) (appModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	am, ok := next.(appModel)
	require.True(t, ok)
	return am, cmd
}

func TestModel_LoadingUntilFirstSnapshot(t *testing.T) {
	m := newModel(&fakeSession{}, nil, util.DefaultConfig())
	assert.Contains(t, m.View(), "Loading")

	m, cmd := update(t, m, snapshotMsg{snap: sampleSnapshot(), at: time.Now()})
	assert.True(t, m.ready)
	assert.NotNil(t, cmd, "a snapshot schedules the next poll")
	assert.NotContains(t, m.View(), "Loading...")
}

func TestModel_ToggleKey(t *testing.T) {
	sess := &fakeSession{}
	m := newModel(sess, nil, util.DefaultConfig())

	m, cmd := update(t, m, key("s"))
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, 1, sess.toggles)

	m, _ = update(t, m, msg)
	assert.Equal(t, monitor.Active, m.snap.State)
}

func TestModel_ToggleErrorIsShown(t *testing.T) {
	sess := &fakeSession{toggleErr: monitor.ErrSessionClosed}
	m := newModel(sess, nil, util.DefaultConfig())
	m, _ = update(t, m, snapshotMsg{snap: sess.snap, at: time.Now()})

	_, cmd := update(t, m, key("s"))
	m, _ = update(t, m, cmd())
	assert.Contains(t, m.View(), "session closed")
}

func TestModel_RefreshKeyReturnsSnapshotOnFailure(t *testing.T) {
	sess := &fakeSession{snap: sampleSnapshot()}
	m := newModel(sess, nil, util.DefaultConfig())

	_, cmd := update(t, m, key("r"))
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, 1, sess.refreshes)

	am, ok := msg.(actionMsg)
	require.True(t, ok)
	assert.Equal(t, uint64(7), am.snap.Ticks)
}

func TestModel_QuitKey(t *testing.T) {
	m := newModel(&fakeSession{}, nil, util.DefaultConfig())
	_, cmd := update(t, m, key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_ToastFromNotifications(t *testing.T) {
	notes := make(chan model.Notification, 1)
	m := newModel(&fakeSession{snap: sampleSnapshot()}, notes, nil)
	m, _ = update(t, m, snapshotMsg{snap: sampleSnapshot(), at: time.Now()})

	notes <- model.Notification{Title: "Monitoring Started", Description: "Generating traffic"}
	msg := waitForNote(notes)()
	m, cmd := update(t, m, msg)
	assert.NotNil(t, cmd, "keeps listening for notifications")
	require.NotNil(t, m.toast)
	assert.Contains(t, m.View(), "Monitoring Started")

	m, _ = update(t, m, snapshotMsg{snap: sampleSnapshot(), at: time.Now().Add(toastTTL + time.Second)})
	assert.Nil(t, m.toast)
}

func TestWaitForNote_NilChannel(t *testing.T) {
	assert.Nil(t, waitForNote(nil))
}

func TestDashboard_View(t *testing.T) {
	d := NewDashboard(sampleSnapshot(), 100, 40)
	out := d.View()

	assert.Contains(t, out, "Monitoring")
	assert.Contains(t, out, "192.168.1.10")
	assert.Contains(t, out, "DDoS")
	assert.Contains(t, out, "2.0 KB")
	assert.Contains(t, out, "MEDIUM")
	assert.Contains(t, out, "HTTPS")
}

func TestDashboard_Empty(t *testing.T) {
	snap := monitor.Snapshot{Stats: model.NewNetworkStats()}
	out := NewDashboard(snap, 80, 24).View()

	assert.Contains(t, out, "Stopped")
	assert.Contains(t, out, "No alerts")
	assert.Contains(t, out, "No traffic yet")
	assert.Contains(t, out, "LOW")
}

func TestRenderBar(t *testing.T) {
	assert.Contains(t, RenderBar(5, 10, 10), "█████░░░░░")
	assert.Contains(t, RenderBar(3, 0, 4), "████")
}
