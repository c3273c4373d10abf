package web

import (
	"html/template"
	"strings"
	"sync"
	"time"

	"github.com/user/netguard/internal/report"
)

var dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <meta http-equiv="refresh" content="{{.Refresh}}">
    <title>NetGuard Monitor</title>
    <style>
        * { box-sizing: border-box; margin: 0; padding: 0; }

        :root {
            --bg-primary: #0a0f0a;
            --bg-card: rgba(0, 40, 0, 0.4);
            --border-color: #1a4a1a;
            --text-primary: #00ff41;
            --text-dim: #336633;
            --danger: #ff3333;
            --warning: #ffaa00;
            --info: #33aaff;
        }

        body {
            font-family: 'JetBrains Mono', 'Fira Code', monospace;
            background: var(--bg-primary);
            color: var(--text-primary);
            padding: 1.5rem;
        }

        header { display: flex; justify-content: space-between; align-items: center; margin-bottom: 1.5rem; }
        h1 { font-size: 1.4rem; letter-spacing: 0.1em; }
        h2 { font-size: 1rem; margin-bottom: 0.75rem; color: var(--text-primary); }

        .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(200px, 1fr)); gap: 1rem; margin-bottom: 1.5rem; }
        .card { background: var(--bg-card); border: 1px solid var(--border-color); border-radius: 6px; padding: 1rem; }
        .card .label { color: var(--text-dim); font-size: 0.75rem; text-transform: uppercase; }
        .card .value { font-size: 1.5rem; margin-top: 0.25rem; }

        table { width: 100%; border-collapse: collapse; font-size: 0.8rem; }
        th, td { text-align: left; padding: 0.4rem 0.6rem; border-bottom: 1px solid var(--border-color); }
        th { color: var(--text-dim); font-weight: normal; text-transform: uppercase; }

        .badge { padding: 0.15rem 0.5rem; border-radius: 3px; font-size: 0.75rem; text-transform: uppercase; }
        .level-low { color: var(--info); border: 1px solid var(--info); }
        .level-medium { color: var(--warning); border: 1px solid var(--warning); }
        .level-high, .level-critical { color: var(--danger); border: 1px solid var(--danger); }
        .malicious { color: var(--danger); }
        .state-active { color: var(--text-primary); }
        .state-inactive { color: var(--text-dim); }
        .empty-state { color: var(--text-dim); padding: 1rem 0; }
        .section { margin-bottom: 1.5rem; }
        footer { color: var(--text-dim); font-size: 0.7rem; }
    </style>
</head>
<body>
    <header>
        <h1>&gt; NETGUARD MONITOR</h1>
        <div>
            <span class="state-{{.Status.State}}">&#9679; {{upper .Status.State}}</span>
            <span class="badge level-{{.Stats.ThreatLevel}}">{{.Stats.ThreatLevel}}</span>
        </div>
    </header>

    <div class="grid">
        <div class="card"><div class="label">Total Traffic</div><div class="value">{{formatBytes .Stats.TotalTraffic}}</div></div>
        <div class="card"><div class="label">Active Connections</div><div class="value">{{.Stats.ActiveConnections}}</div></div>
        <div class="card"><div class="label">Alerts Today</div><div class="value">{{.Stats.AlertsToday}}</div></div>
        <div class="card"><div class="label">Ticks</div><div class="value">{{.Status.Ticks}}</div></div>
    </div>

    <div class="section card">
        <h2>Recent Alerts</h2>
        {{if .Alerts}}
        <table>
            <tr><th>Time</th><th>Threat</th><th>Source</th><th>Destination</th><th>Confidence</th></tr>
            {{range .Alerts}}
            <tr>
                <td>{{clock .Timestamp}}</td>
                <td class="malicious">{{.ThreatType}}</td>
                <td>{{.SourceIP}}</td>
                <td>{{.DestinationIP}}:{{.Port}}</td>
                <td>{{.ConfidenceScore}}%</td>
            </tr>
            {{end}}
        </table>
        {{else}}
        <p class="empty-state">&gt; No alerts</p>
        {{end}}
    </div>

    <div class="section card">
        <h2>Top Talkers</h2>
        {{if .TopTalkers}}
        <table>
            <tr><th>Address</th><th>Volume</th><th>Packets</th><th>Flows</th></tr>
            {{range .TopTalkers}}
            <tr><td>{{.IP}}</td><td>{{formatBytes .Bytes}}</td><td>{{.Packets}}</td><td>{{.Connections}}</td></tr>
            {{end}}
        </table>
        {{else}}
        <p class="empty-state">&gt; No traffic yet</p>
        {{end}}
    </div>

    <div class="section card">
        <h2>Live Traffic</h2>
        {{if .Events}}
        <table>
            <tr><th>Time</th><th>Source</th><th>Destination</th><th>Protocol</th><th>Bytes</th><th>Status</th></tr>
            {{range .Events}}
            <tr>
                <td>{{clock .Timestamp}}</td>
                <td>{{.SourceIP}}</td>
                <td>{{.DestinationIP}}:{{.Port}}</td>
                <td>{{.Protocol}}</td>
                <td>{{formatBytes .Bytes}}</td>
                {{if .IsMalicious}}<td class="malicious">{{.ThreatType}}</td>{{else}}<td>Normal</td>{{end}}
            </tr>
            {{end}}
        </table>
        {{else}}
        <p class="empty-state">&gt; Monitoring is {{.Status.State}}. Start it with POST /api/monitor/start</p>
        {{end}}
    </div>

    <footer>Generated {{.GeneratedAt}} &middot; <a href="/report" style="color:inherit">download report</a></footer>
</body>
</html>`

var (
	dashboardOnce sync.Once
	dashboardTmpl *template.Template
)

func getDashboardTemplate() *template.Template {
	dashboardOnce.Do(func() {
		dashboardTmpl = template.Must(template.New("dashboard").Funcs(template.FuncMap{
			"formatBytes": report.FormatBytes,
			"upper":       strings.ToUpper,
			"clock":       clock,
		}).Parse(dashboardHTML))
	})
	return dashboardTmpl
}

func clock(ts time.Time) string {
	return ts.Format("15:04:05")
}
