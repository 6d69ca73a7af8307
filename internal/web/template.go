package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/meter-node/internal/status"
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
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Meter Node</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Meter Node</h1>
<table>
<tr><th>Meter</th><th>Total</th><th>Pending</th><th>Last delta</th><th>Reports</th></tr>
{{range .Meters}}
<tr><td>{{.Name}}</td><td>{{.Total}}</td><td>{{.Pending}}</td><td>{{.LastDelta}}</td><td>{{.Reports}}</td></tr>
{{end}}
</table>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}} ({{.Config.Broker}})</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}} ms</td></tr>
<tr><th>Report interval</th><td>{{.Config.ReportIntervalMs}} ms</td></tr>
<tr><th>Flush interval</th><td>{{.Config.FlushIntervalMs}} ms</td></tr>
<tr><th>Storage</th><td>{{.Config.StoragePath}}</td></tr>
</table>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	indexTmpl.Execute(w, snap)
}
