// ColorStdoutWriter prints human-friendly, colorized snapshots to STDOUT.
package sink

import (
	"fmt"
	"io"
	"os"
	"sync"
	"text/tabwriter"
	"time"

	"network-analyser/internal/telemetry"
)

const (
	colorReset   = "\x1b[0m"
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorBlue    = "\x1b[34m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorGray    = "\x1b[90m"
)

// ColorStdoutWriter prints a short colored report per snapshot.
type ColorStdoutWriter struct {
	sensorID string
	interval time.Duration
	out      io.Writer
	once     sync.Once
}

// NewColorStdoutWriter creates a ColorStdoutWriter writing to os.Stdout.
func NewColorStdoutWriter(sensorID string, interval time.Duration) *ColorStdoutWriter {
	return &ColorStdoutWriter{sensorID: sensorID, interval: interval, out: os.Stdout}
}

func (w *ColorStdoutWriter) printOverview() {
	fmt.Fprintln(w.out, "Network Analyser:")
	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Sensor:\t%s\n", w.sensorID)
	fmt.Fprintf(tw, "Tick Interval:\t%s\n", w.interval)
	tw.Flush()
	fmt.Fprintln(w.out)
}

// Write outputs a snapshot in colorized format.
func (w *ColorStdoutWriter) Write(s telemetry.Snapshot) error {
	w.once.Do(w.printOverview)

	n := s.Network
	fmt.Fprintf(w.out, "%s[%s]%s %s#%d%s ", colorGray, s.GeneratedAt.Format(time.RFC3339), colorReset, colorBlue, s.Sequence, colorReset)
	fmt.Fprintf(w.out, "%sconn=%s%s ", colorCyan, n.ConnectionType, colorReset)
	fmt.Fprintf(w.out, "%ssignal=%d%%%s ", colorMagenta, n.SignalStrength, colorReset)
	fmt.Fprintf(w.out, "%sstatus=%s%s\n", securityColor(n.SecurityStatus), n.SecurityStatus, colorReset)

	in, out, peak := TrafficTotals(s.Traffic)
	fmt.Fprintf(w.out, "  %straffic in=%d out=%d peak=%s%s\n", colorBlue, in, out, peak, colorReset)

	for _, a := range s.Anomalies {
		fmt.Fprintf(w.out, "  %s%-6s%s %s %sfrom %s, %s%s\n",
			severityColor(a.Severity), a.Severity, colorReset,
			a.Title, colorGray, a.SourceIP, a.Timestamp, colorReset)
	}
	for _, m := range s.Security {
		fmt.Fprintf(w.out, "  %s%s=%.1f (%s)%s\n", metricColor(m.Status), m.Category, m.Value, m.Status, colorReset)
	}
	return nil
}

// TrafficTotals sums inbound and outbound volume and returns the label of
// the hour with the highest combined volume.
func TrafficTotals(samples [telemetry.HoursPerDay]telemetry.TrafficSample) (in, out int, peak string) {
	best := -1
	for _, t := range samples {
		in += t.Inbound
		out += t.Outbound
		if v := t.Inbound + t.Outbound; v > best {
			best = v
			peak = t.Time
		}
	}
	return in, out, peak
}

func securityColor(s telemetry.SecurityStatus) string {
	switch s {
	case telemetry.SecurityCritical:
		return colorRed
	case telemetry.SecurityWarning:
		return colorYellow
	}
	return colorGreen
}

func severityColor(s telemetry.Severity) string {
	switch s {
	case telemetry.SeverityHigh:
		return colorRed
	case telemetry.SeverityMedium:
		return colorYellow
	}
	return colorGreen
}

func metricColor(s telemetry.MetricStatus) string {
	switch s {
	case telemetry.MetricCritical:
		return colorRed
	case telemetry.MetricWarning:
		return colorYellow
	}
	return colorGreen
}
