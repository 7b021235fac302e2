package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/lambda-sensor/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"hex": func(v uint16) string {
		return fmt.Sprintf("0x%04X", v)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="2">
<title>Lambda Sensor</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.ok { color: green; font-weight: bold; }
.fault { color: red; font-weight: bold; }
.heating { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Lambda Sensor</h1>

<h2>Controller</h2>
<table>
<tr><th>State</th><td class="{{if eq .State "STEADY_STATE_REGULATION"}}ok{{else if eq .State "FAULT_RECOVERY"}}fault{{else}}heating{{end}}">{{.State}}</td></tr>
<tr><th>Diagnostic</th><td class="{{if eq .Diagnostic "Ok"}}ok{{else}}fault{{end}}">{{.Diagnostic}} ({{hex .DiagnosticCode}})</td></tr>
<tr><th>Chip ident</th><td>{{hex .Ident}}</td></tr>
</table>

<h2>Readings</h2>
<table>
<tr><th>Lambda</th><td>{{.Lambda}}</td></tr>
<tr><th>Oxygen</th><td>{{.Oxygen}}</td></tr>
<tr><th>UA_ADC</th><td>{{.UA}}</td></tr>
<tr><th>UR_ADC</th><td>{{.UR}}</td></tr>
<tr><th>UB_ADC</th><td>{{.UB}}</td></tr>
<tr><th>Heater duty</th><td>{{.HeaterDuty}}/255</td></tr>
</table>

<h2>Calibration</h2>
<table>
<tr><th>Captured</th><td>{{if .Calibrated}}yes{{else}}no{{end}}</td></tr>
<tr><th>Optimal UA</th><td>{{.OptimalLambdaSample}}</td></tr>
<tr><th>Optimal UR</th><td>{{.OptimalTemperatureSample}}</td></tr>
</table>

<h2>Counters</h2>
<table>
<tr><th>Reports</th><td>{{.Counts.Reports}}</td></tr>
<tr><th>Error cycles</th><td>{{.Counts.ErrorCycles}}</td></tr>
<tr><th>Fault recoveries</th><td>{{.Counts.FaultRecoveries}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Transport</th><td>{{.Config.Transport}}</td></tr>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Sample interval</th><td>{{.Config.SampleIntervalMs}}ms</td></tr>
<tr><th>Report interval</th><td>{{.Config.ReportIntervalMs}}ms</td></tr>
<tr><th>Log file</th><td>{{if .Config.LogFile}}{{.Config.LogFile}}{{else}}disabled{{end}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but the template needs a plain field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
