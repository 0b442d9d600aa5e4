package telemetry

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Profile holds the probability knobs of the generator. All draws are
// uniform in [0,1) and compared against these thresholds.
type Profile struct {
	// NetworkWarningProbability is the chance a snapshot reports a warning link.
	NetworkWarningProbability float64
	// NetworkCriticalProbability is the chance of a critical link. Zero by
	// default: the value exists in the domain but is never drawn unless set.
	NetworkCriticalProbability float64

	FirewallWarningThreshold   float64
	SSLWarningThreshold        float64
	IntrusionCriticalThreshold float64
	IntrusionWarningThreshold  float64

	HighSeverityThreshold   float64
	MediumSeverityThreshold float64
}

// DefaultProfile returns the stock dashboard weighting.
func DefaultProfile() Profile {
	return Profile{
		NetworkWarningProbability:  0.2,
		NetworkCriticalProbability: 0,
		FirewallWarningThreshold:   0.8,
		SSLWarningThreshold:        0.8,
		IntrusionCriticalThreshold: 0.9,
		IntrusionWarningThreshold:  0.7,
		HighSeverityThreshold:      0.7,
		MediumSeverityThreshold:    0.5,
	}
}

type anomalyTemplate struct {
	title       string
	description string
}

var anomalyCatalog = [...]anomalyTemplate{
	{"Suspicious Port Scan", "Multiple connection attempts from unknown IP"},
	{"Unusual Traffic Pattern", "Spike in outbound traffic on port 443"},
	{"Potential Data Exfiltration", "Large data transfer to unknown endpoint"},
}

const (
	minSignalStrength = 60
	signalSpan        = 40
	maxInbound        = 100
	maxOutbound       = 80
	maxMinutesAgo     = 10
	sourceSubnet      = "192.168.1"
	sourceHosts       = 255
	maxIntrusions     = 50
)

// Generator synthesizes network telemetry snapshots. It is safe for
// concurrent use.
type Generator struct {
	mu      sync.Mutex
	rand    *rand.Rand
	now     func() time.Time
	profile Profile
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithRand sets the random source, mainly for deterministic tests.
func WithRand(r *rand.Rand) GeneratorOption {
	return func(g *Generator) { g.rand = r }
}

// WithClock sets the wall clock used for traffic labels and anomaly ids.
func WithClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) { g.now = now }
}

// WithProfile overrides the default probability profile.
func WithProfile(p Profile) GeneratorOption {
	return func(g *Generator) { g.profile = p }
}

// NewGenerator creates a generator seeded from the current time.
func NewGenerator(opts ...GeneratorOption) *Generator {
	g := &Generator{
		rand:    rand.New(rand.NewSource(time.Now().UnixNano())),
		now:     time.Now,
		profile: DefaultProfile(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Snapshot builds one complete snapshot. The four parts share one clock reading.
func (g *Generator) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	return Snapshot{
		GeneratedAt: now.UTC(),
		Network:     g.networkStatus(),
		Traffic:     g.traffic(now),
		Anomalies:   g.anomalies(now),
		Security:    g.securityMetrics(),
	}
}

// GenerateNetworkStatus returns a fresh connection status.
func (g *Generator) GenerateNetworkStatus() NetworkStatus {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.networkStatus()
}

// GenerateTraffic returns one synthetic day of hourly traffic.
func (g *Generator) GenerateTraffic() [HoursPerDay]TrafficSample {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.traffic(g.now())
}

// GenerateAnomalies returns a batch of one to three anomalies.
func (g *Generator) GenerateAnomalies() []Anomaly {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.anomalies(g.now())
}

// GenerateSecurityMetrics returns the fixed metric set with fresh values.
func (g *Generator) GenerateSecurityMetrics() [3]SecurityMetric {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.securityMetrics()
}

func (g *Generator) networkStatus() NetworkStatus {
	return NetworkStatus{
		ConnectionType: ConnectionTypes[g.rand.Intn(len(ConnectionTypes))],
		SignalStrength: g.rand.Intn(signalSpan) + minSignalStrength,
		SecurityStatus: networkSecurity(g.rand.Float64(), g.profile),
	}
}

func (g *Generator) traffic(now time.Time) [HoursPerDay]TrafficSample {
	var out [HoursPerDay]TrafficSample
	for i := range out {
		out[i] = TrafficSample{
			Time:     fmt.Sprintf("%02d:%02d", i, now.Minute()),
			Inbound:  g.rand.Intn(maxInbound),
			Outbound: g.rand.Intn(maxOutbound),
		}
	}
	return out
}

func (g *Generator) anomalies(now time.Time) []Anomaly {
	n := g.rand.Intn(MaxAnomalies) + 1
	out := make([]Anomaly, n)
	for i := range out {
		tpl := anomalyCatalog[g.rand.Intn(len(anomalyCatalog))]
		out[i] = Anomaly{
			ID:          fmt.Sprintf("anomaly-%d-%d", now.UnixMilli(), i),
			Severity:    g.severity(),
			Title:       tpl.title,
			Description: tpl.description,
			Timestamp:   fmt.Sprintf("%d minutes ago", g.rand.Intn(maxMinutesAgo)+1),
			SourceIP:    fmt.Sprintf("%s.%d", sourceSubnet, g.rand.Intn(sourceHosts)),
		}
	}
	return out
}

// severity draws a second value only when the first one is not high, so the
// split is roughly 30/35/35.
func (g *Generator) severity() Severity {
	if g.rand.Float64() > g.profile.HighSeverityThreshold {
		return SeverityHigh
	}
	if g.rand.Float64() > g.profile.MediumSeverityThreshold {
		return SeverityMedium
	}
	return SeverityLow
}

func (g *Generator) securityMetrics() [3]SecurityMetric {
	p := g.profile
	firewall := SecurityMetric{
		Category: CategoryFirewall,
		Value:    g.rand.Float64() * 100,
		Status:   thresholdStatus(g.rand.Float64(), p.FirewallWarningThreshold),
	}
	intrusion := SecurityMetric{
		Category: CategoryIntrusion,
		Value:    float64(g.rand.Intn(maxIntrusions)),
	}
	intrusion.Status = intrusionStatus(g.rand.Float64(), g.rand.Float64, p)
	ssl := SecurityMetric{
		Category: CategorySSL,
		Value:    g.rand.Float64() * 100,
		Status:   thresholdStatus(g.rand.Float64(), p.SSLWarningThreshold),
	}
	return [3]SecurityMetric{firewall, intrusion, ssl}
}

// networkSecurity maps a draw onto secure/warning/critical. The top slice of
// the unit interval is critical, the next slice warning.
func networkSecurity(u float64, p Profile) SecurityStatus {
	switch {
	case u >= 1-p.NetworkCriticalProbability:
		return SecurityCritical
	case u >= 1-p.NetworkCriticalProbability-p.NetworkWarningProbability:
		return SecurityWarning
	default:
		return SecuritySecure
	}
}

func thresholdStatus(u, warnAbove float64) MetricStatus {
	if u > warnAbove {
		return MetricWarning
	}
	return MetricGood
}

// intrusionStatus only pulls the second draw when the first is not critical.
func intrusionStatus(u float64, next func() float64, p Profile) MetricStatus {
	if u > p.IntrusionCriticalThreshold {
		return MetricCritical
	}
	if next() > p.IntrusionWarningThreshold {
		return MetricWarning
	}
	return MetricGood
}
