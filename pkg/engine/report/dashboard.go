package report

import (
	"fmt"
	"html/template"
	"io"

	"github.com/DrSkyle/pierwatch/pkg/engine/fifo"
	"github.com/DrSkyle/pierwatch/pkg/engine/pier"
)

// maxTableRows caps the violation table; the JSON report keeps every row.
const maxTableRows = 1000

// gapBuckets are the upper bounds (inclusive) of the gap histogram. The
// last bucket is open.
var gapBuckets = []struct {
	label string
	max   int
}{
	{"1", 1},
	{"2-3", 3},
	{"4-7", 7},
	{"8-14", 14},
	{"15-30", 30},
	{"31+", 0},
}

// tripBins is the number of equal-width bins of the tonnes-per-trip histogram.
const tripBins = 15

type chartData struct {
	Clients          []string `json:"clients"`
	ClientViolations []int    `json:"client_violations"`
	ClientMaxGap     []int    `json:"client_max_gap"`

	GapLabels []string `json:"gap_labels"`
	GapCounts []int    `json:"gap_counts"`

	StatusClients []string  `json:"status_clients"`
	Shipped       []float64 `json:"shipped"`
	OnPier        []float64 `json:"on_pier"`
	InTransit     []float64 `json:"in_transit"`

	Months      []string  `json:"months"`
	Accepted    []float64 `json:"accepted"`
	ShippedT    []float64 `json:"shipped_tonnes"`
	Utilization []float64 `json:"utilization"`

	NormAccepted []float64 `json:"norm_accepted"`
	NormShipped  []float64 `json:"norm_shipped"`
	NormTrips    []float64 `json:"norm_trips"`
	NormVessels  []float64 `json:"norm_vessels"`

	TripLabels []string `json:"trip_labels"`
	TripCounts []int    `json:"trip_counts"`
}

type dashboardView struct {
	Doc       Document
	Charts    chartData
	Rows      []fifo.Violation
	Truncated int
}

func gapHistogram(vs []fifo.Violation) ([]string, []int) {
	labels := make([]string, len(gapBuckets))
	counts := make([]int, len(gapBuckets))
	for i, b := range gapBuckets {
		labels[i] = b.label
	}
	for _, v := range vs {
		for i, b := range gapBuckets {
			if b.max == 0 || v.ShipmentDayGap <= b.max {
				counts[i]++
				break
			}
		}
	}
	return labels, counts
}

// normalize scales a series so its largest value is 1. A series with no
// positive value becomes all zeros.
func normalize(series []float64) []float64 {
	out := make([]float64, len(series))
	var peak float64
	for _, v := range series {
		if v > peak {
			peak = v
		}
	}
	if peak <= 0 {
		return out
	}
	for i, v := range series {
		out[i] = v / peak
	}
	return out
}

// tripHistogram bins clients by average tonnes per trip. Bins share one
// width between the smallest and largest average.
func tripHistogram(trips []pier.ClientTrips, bins int) ([]string, []int) {
	if len(trips) == 0 || bins < 1 {
		return []string{}, []int{}
	}
	lo, hi := trips[0].AvgPerTrip, trips[0].AvgPerTrip
	for _, t := range trips[1:] {
		lo = min(lo, t.AvgPerTrip)
		hi = max(hi, t.AvgPerTrip)
	}
	if hi == lo {
		return []string{fmt.Sprintf("%.1f", lo)}, []int{len(trips)}
	}

	width := (hi - lo) / float64(bins)
	labels := make([]string, bins)
	counts := make([]int, bins)
	for i := range labels {
		from := lo + float64(i)*width
		labels[i] = fmt.Sprintf("%.1f-%.1f", from, from+width)
	}
	for _, t := range trips {
		i := int((t.AvgPerTrip - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		counts[i]++
	}
	return labels, counts
}

func buildCharts(doc Document) chartData {
	c := chartData{
		Clients:          []string{},
		ClientViolations: []int{},
		ClientMaxGap:     []int{},
		StatusClients:    []string{},
		Shipped:          []float64{},
		OnPier:           []float64{},
		InTransit:        []float64{},
		Months:           []string{},
		Accepted:         []float64{},
		ShippedT:         []float64{},
		Utilization:      []float64{},
		NormAccepted:     []float64{},
		NormShipped:      []float64{},
		NormTrips:        []float64{},
		NormVessels:      []float64{},
		TripLabels:       []string{},
		TripCounts:       []int{},
	}
	for _, cc := range doc.Summary.Top(15) {
		c.Clients = append(c.Clients, cc.Client)
		c.ClientViolations = append(c.ClientViolations, cc.Violations)
		c.ClientMaxGap = append(c.ClientMaxGap, cc.MaxGapDays)
	}
	c.GapLabels, c.GapCounts = gapHistogram(doc.Violations)

	if doc.Overview != nil {
		for _, s := range doc.Overview.Status {
			c.StatusClients = append(c.StatusClients, s.Client)
			c.Shipped = append(c.Shipped, s.Shipped)
			c.OnPier = append(c.OnPier, s.OnPier)
			c.InTransit = append(c.InTransit, s.InTransit)
		}
		for _, m := range doc.Overview.Months {
			c.Months = append(c.Months, m.Month)
			c.Accepted = append(c.Accepted, m.AcceptedTonnes)
			c.ShippedT = append(c.ShippedT, m.ShippedTonnes)
			c.Utilization = append(c.Utilization, m.Utilization)
		}

		n := len(doc.Overview.Months)
		trips, vessels := make([]float64, n), make([]float64, n)
		for i, m := range doc.Overview.Months {
			trips[i] = float64(m.Trips)
			vessels[i] = float64(m.Vessels)
		}
		c.NormAccepted = normalize(c.Accepted)
		c.NormShipped = normalize(c.ShippedT)
		c.NormTrips = normalize(trips)
		c.NormVessels = normalize(vessels)

		c.TripLabels, c.TripCounts = tripHistogram(doc.Overview.Trips, tripBins)
	}
	return c
}

var dashboardFuncs = template.FuncMap{
	"gap": func(p *float64) string {
		if p == nil {
			return "n/a"
		}
		return fmt.Sprintf("%.1f", *p)
	},
	"tonnes": func(f float64) string { return fmt.Sprintf("%.1f", f) },
	"inc":    func(i int) int { return i + 1 },
}

var dashboardTmpl = template.Must(template.New("dashboard").Funcs(dashboardFuncs).Parse(dashboardHTML))

// WriteDashboard renders the interactive HTML dashboard. All log text is
// escaped by html/template; chart data is embedded as JSON in a script
// context.
func WriteDashboard(w io.Writer, doc Document) error {
	doc = doc.normalized()
	view := dashboardView{
		Doc:    doc,
		Charts: buildCharts(doc),
		Rows:   doc.Violations,
	}
	if len(view.Rows) > maxTableRows {
		view.Truncated = len(view.Rows) - maxTableRows
		view.Rows = view.Rows[:maxTableRows]
	}
	return dashboardTmpl.Execute(w, view)
}

const dashboardHTML = `<!DOCTYPE html>
<html lang="ru">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>PierWatch FIFO Report</title>
    <script src="https://cdn.jsdelivr.net/npm/chart.js"></script>
    <style>
        :root {
            --bg: #050505;
            --surface: rgba(255, 255, 255, 0.03);
            --border: rgba(255, 255, 255, 0.1);
            --primary: #00FF99;
            --secondary: #874BFD;
            --danger: #FF3366;
            --text: #F8FAFC;
            --text-dim: #94A3B8;
        }
        * { box-sizing: border-box; }
        body {
            background: var(--bg);
            color: var(--text);
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
            margin: 0;
            padding: 40px;
            font-size: 14px;
        }
        .header {
            display: flex;
            justify-content: space-between;
            align-items: center;
            margin-bottom: 40px;
            border-bottom: 1px solid var(--border);
            padding-bottom: 20px;
        }
        .logo { font-size: 1.5rem; font-weight: 700; letter-spacing: -1px; }
        .logo span { color: var(--primary); }
        .meta { color: var(--text-dim); text-align: right; }
        .kpi-grid {
            display: grid;
            grid-template-columns: repeat(4, 1fr);
            gap: 20px;
            margin-bottom: 40px;
        }
        .card {
            background: var(--surface);
            border: 1px solid var(--border);
            border-radius: 16px;
            padding: 24px;
        }
        .card h3 { margin: 0 0 10px 0; font-size: 0.75rem; color: var(--text-dim); text-transform: uppercase; letter-spacing: 1.2px; }
        .card .value { font-size: 2.5rem; font-weight: 700; }
        .card .value.bad { color: var(--danger); }
        .card .value.safe { color: var(--primary); }
        .analytics-grid {
            display: grid;
            grid-template-columns: 1fr 1fr;
            gap: 20px;
            margin-bottom: 40px;
        }
        .chart-container {
            background: var(--surface);
            border: 1px solid var(--border);
            border-radius: 16px;
            padding: 24px;
            height: 350px;
        }
        .chart-header { font-size: 0.85rem; font-weight: 600; margin-bottom: 16px; }
        table { width: 100%; border-collapse: collapse; margin-bottom: 40px; }
        th { text-align: left; color: var(--text-dim); font-weight: 500; padding: 10px; border-bottom: 1px solid var(--border); }
        td { padding: 10px; border-bottom: 1px solid var(--border); }
        .badge { padding: 2px 8px; border-radius: 8px; font-size: 0.75rem; }
        .badge.critical { background: var(--danger); }
        .badge.warn { background: #F59E0B; color: #000; }
        .badge.info { background: var(--secondary); }
        .note { color: var(--text-dim); margin-bottom: 40px; }
    </style>
</head>
<body>
    <div class="header">
        <div class="logo">Pier<span>Watch</span> FIFO</div>
        <div class="meta">
            <div>{{.Doc.Source}}</div>
            <div>{{.Doc.GeneratedAt.Format "2006-01-02 15:04 MST"}} &middot; {{.Doc.Tool}}</div>
        </div>
    </div>

    <div class="kpi-grid">
        <div class="card"><h3>FIFO violations</h3><div class="value {{if .Doc.Summary.Total}}bad{{else}}safe{{end}}">{{.Doc.Summary.Total}}</div></div>
        <div class="card"><h3>Clients affected</h3><div class="value">{{len .Doc.Summary.ByClient}}</div></div>
        <div class="card"><h3>Mean gap, days</h3><div class="value">{{gap .Doc.Summary.MeanGapDays}}</div></div>
        <div class="card"><h3>Max gap, days</h3><div class="value">{{.Doc.Summary.MaxGapDays}}</div></div>
    </div>
    <p class="note">{{.Doc.Records}} records, {{.Doc.Eligible}} eligible, {{len .Doc.Issues}} malformed cells.
    {{- with .Doc.MissingColumns}} Missing columns: {{range $i, $c := .}}{{if $i}}, {{end}}{{$c}}{{end}}.{{end}}
    {{- with .Doc.Trend}}{{if .Previous}} Since last run: {{printf "%+d" .ViolationsDelta}} violations ({{.Direction}}).{{end}}{{end}}</p>

    <div class="analytics-grid">
        <div class="chart-container"><div class="chart-header">Violations by client</div><canvas id="clientChart"></canvas></div>
        <div class="chart-container"><div class="chart-header">Shipment gap, days</div><canvas id="gapChart"></canvas></div>
        {{- if .Doc.Overview}}
        <div class="chart-container"><div class="chart-header">Shipped, on pier, in transit (t)</div><canvas id="statusChart"></canvas></div>
        <div class="chart-container"><div class="chart-header">Accepted vs shipped by month (t)</div><canvas id="monthChart"></canvas></div>
        <div class="chart-container"><div class="chart-header">Months compared (share of peak)</div><canvas id="normChart"></canvas></div>
        <div class="chart-container"><div class="chart-header">Clients by tonnes per trip</div><canvas id="tripChart"></canvas></div>
        {{- end}}
    </div>

    <h2>Violations</h2>
    <table>
        <thead><tr><th>#</th><th>Client</th><th>Earlier arrival</th><th>Arrived</th><th>Shipped</th><th>Later arrival</th><th>Arrived</th><th>Shipped</th><th>Gap</th></tr></thead>
        <tbody>
        {{- range $i, $v := .Rows}}
            <tr><td>{{inc $i}}</td><td>{{$v.Client}}</td><td>{{$v.EarlierArrivalCertificate}}</td><td>{{$v.EarlierArrivalDate.String}}</td><td>{{$v.EarlierShipmentDate.String}}</td><td>{{$v.LaterArrivalCertificate}}</td><td>{{$v.LaterArrivalDate.String}}</td><td>{{$v.LaterShipmentDate.String}}</td><td>{{$v.ShipmentDayGap}}</td></tr>
        {{- else}}
            <tr><td colspan="9">No FIFO violations.</td></tr>
        {{- end}}
        </tbody>
    </table>
    {{- if .Truncated}}
    <p class="note">{{.Truncated}} more violations in report.json.</p>
    {{- end}}

    {{- if .Doc.Findings}}
    <h2>Rule findings</h2>
    <table>
        <thead><tr><th>Rule</th><th>Severity</th><th>Client</th><th>Certificates</th><th>Gap</th></tr></thead>
        <tbody>
        {{- range .Doc.Findings}}
            <tr><td>{{.RuleID}}</td><td><span class="badge {{.Severity}}">{{.Severity}}</span></td><td>{{.Client}}</td><td>{{.EarlierCertificate}} / {{.LaterCertificate}}</td><td>{{.GapDays}}</td></tr>
        {{- end}}
        </tbody>
    </table>
    {{- end}}

    {{- if .Doc.Issues}}
    <h2>Malformed cells</h2>
    <table>
        <thead><tr><th>Row</th><th>Field</th><th>Value</th><th>Reason</th></tr></thead>
        <tbody>
        {{- range .Doc.Issues}}
            <tr><td>{{.Row}}</td><td>{{.Field}}</td><td>{{.Value}}</td><td>{{.Reason}}</td></tr>
        {{- end}}
        </tbody>
    </table>
    {{- end}}

    {{- with .Doc.Overview}}
    <h2>Trips by client</h2>
    <table>
        <thead><tr><th>Client</th><th>Trips</th><th>Places</th><th>Tonnes</th><th>Tonnes per trip</th></tr></thead>
        <tbody>
        {{- range .Trips}}
            <tr><td>{{.Client}}</td><td>{{.Trips}}</td><td>{{.Places}}</td><td>{{tonnes .Tonnage}}</td><td>{{tonnes .AvgPerTrip}}</td></tr>
        {{- end}}
        </tbody>
    </table>
    {{- end}}

    <script>
        const data = {{.Charts}};
        Chart.defaults.color = '#94A3B8';
        Chart.defaults.borderColor = 'rgba(255, 255, 255, 0.1)';

        function bar(id, labels, datasets, opts) {
            const el = document.getElementById(id);
            if (!el) { return; }
            new Chart(el, {
                type: 'bar',
                data: { labels: labels || [], datasets: datasets },
                options: Object.assign({ responsive: true, maintainAspectRatio: false }, opts || {})
            });
        }

        bar('clientChart', data.clients, [
            { label: 'Violations', data: data.client_violations, backgroundColor: '#FF3366' },
            { label: 'Max gap', data: data.client_max_gap, backgroundColor: '#874BFD' }
        ], { indexAxis: 'y' });
        bar('gapChart', data.gap_labels, [
            { label: 'Violations', data: data.gap_counts, backgroundColor: '#00FF99' }
        ]);
        bar('statusChart', data.status_clients, [
            { label: 'Shipped', data: data.shipped, backgroundColor: '#F08080' },
            { label: 'On pier', data: data.on_pier, backgroundColor: '#90EE90' },
            { label: 'In transit', data: data.in_transit, backgroundColor: '#ADD8E6' }
        ], { scales: { x: { stacked: true }, y: { stacked: true } } });
        bar('monthChart', data.months, [
            { label: 'Accepted', data: data.accepted, backgroundColor: '#90EE90' },
            { label: 'Shipped', data: data.shipped_tonnes, backgroundColor: '#F08080' }
        ]);
        bar('normChart', data.months, [
            { label: 'Accepted', data: data.norm_accepted, backgroundColor: '#90EE90' },
            { label: 'Shipped', data: data.norm_shipped, backgroundColor: '#F08080' },
            { label: 'Trips', data: data.norm_trips, backgroundColor: '#FFA500' },
            { label: 'Vessels', data: data.norm_vessels, backgroundColor: '#ADD8E6' }
        ], { scales: { y: { max: 1 } } });
        bar('tripChart', data.trip_labels, [
            { label: 'Clients', data: data.trip_counts, backgroundColor: '#90EE90' }
        ], { categoryPercentage: 1.0, barPercentage: 1.0 });
    </script>
</body>
</html>
`
