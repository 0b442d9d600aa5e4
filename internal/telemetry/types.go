// Snapshot model emitted once per tick
package telemetry

import (
	"fmt"
	"regexp"
	"time"
)

// HoursPerDay is the number of traffic samples in one snapshot.
const HoursPerDay = 24

// MaxAnomalies bounds the anomaly batch of one snapshot.
const MaxAnomalies = 3

// ConnectionType is the active network link kind.
type ConnectionType string

const (
	ConnectionWireless ConnectionType = "wireless"
	ConnectionWired    ConnectionType = "wired"
	ConnectionVPN      ConnectionType = "vpn"
)

// ConnectionTypes lists every declared connection type.
var ConnectionTypes = []ConnectionType{ConnectionWireless, ConnectionWired, ConnectionVPN}

// SecurityStatus summarizes the link's security posture.
type SecurityStatus string

const (
	SecuritySecure   SecurityStatus = "secure"
	SecurityWarning  SecurityStatus = "warning"
	SecurityCritical SecurityStatus = "critical"
)

// Severity ranks an anomaly.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// MetricStatus is the health of one security metric.
type MetricStatus string

const (
	MetricGood     MetricStatus = "good"
	MetricWarning  MetricStatus = "warning"
	MetricCritical MetricStatus = "critical"
)

// Security metric categories, always emitted in this order.
const (
	CategoryFirewall  = "Firewall Status"
	CategoryIntrusion = "Intrusion Attempts"
	CategorySSL       = "SSL Certificate Health"
)

// SecurityCategories lists the fixed metric set.
var SecurityCategories = [3]string{CategoryFirewall, CategoryIntrusion, CategorySSL}

// NetworkStatus describes the current connection.
type NetworkStatus struct {
	ConnectionType ConnectionType `json:"connection_type"`
	SignalStrength int            `json:"signal_strength"`
	SecurityStatus SecurityStatus `json:"security_status"`
}

// TrafficSample is the traffic volume for one hour of the synthetic day.
type TrafficSample struct {
	Time     string `json:"time"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

// Anomaly is one detected (synthetic) suspicious event.
type Anomaly struct {
	ID          string   `json:"id"`
	Severity    Severity `json:"severity"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Timestamp   string   `json:"timestamp"`
	SourceIP    string   `json:"source_ip"`
}

// SecurityMetric is a scored security health category.
type SecurityMetric struct {
	Category string       `json:"category"`
	Value    float64      `json:"value"`
	Status   MetricStatus `json:"status"`
}

// Snapshot is one atomic bundle of network, traffic, anomaly and security data.
// Snapshots are shared between observers and must be treated as read-only.
type Snapshot struct {
	Sequence    uint64                     `json:"sequence"`
	GeneratedAt time.Time                  `json:"ts"`
	Network     NetworkStatus              `json:"network"`
	Traffic     [HoursPerDay]TrafficSample `json:"traffic"`
	Anomalies   []Anomaly                  `json:"anomalies"`
	Security    [3]SecurityMetric          `json:"security"`
}

var (
	sourceIPPattern  = regexp.MustCompile(`^192\.168\.1\.(25[0-4]|2[0-4][0-9]|1[0-9][0-9]|[1-9]?[0-9])$`)
	timeLabelPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
)

// Validate checks the snapshot invariants. Generated snapshots always pass;
// it exists for snapshots decoded from logs or other processes.
func (s Snapshot) Validate() error {
	n := s.Network
	switch n.ConnectionType {
	case ConnectionWireless, ConnectionWired, ConnectionVPN:
	default:
		return fmt.Errorf("network: unknown connection type %q", n.ConnectionType)
	}
	if n.SignalStrength < 0 || n.SignalStrength > 100 {
		return fmt.Errorf("network: signal strength %d out of range", n.SignalStrength)
	}
	switch n.SecurityStatus {
	case SecuritySecure, SecurityWarning, SecurityCritical:
	default:
		return fmt.Errorf("network: unknown security status %q", n.SecurityStatus)
	}

	for i, t := range s.Traffic {
		if !timeLabelPattern.MatchString(t.Time) || t.Time[:2] != fmt.Sprintf("%02d", i) {
			return fmt.Errorf("traffic[%d]: bad time label %q", i, t.Time)
		}
		if t.Inbound < 0 || t.Outbound < 0 {
			return fmt.Errorf("traffic[%d]: negative volume", i)
		}
	}

	if len(s.Anomalies) < 1 || len(s.Anomalies) > MaxAnomalies {
		return fmt.Errorf("anomalies: count %d out of range", len(s.Anomalies))
	}
	seen := make(map[string]struct{}, len(s.Anomalies))
	for i, a := range s.Anomalies {
		if _, dup := seen[a.ID]; dup || a.ID == "" {
			return fmt.Errorf("anomalies[%d]: missing or duplicate id %q", i, a.ID)
		}
		seen[a.ID] = struct{}{}
		switch a.Severity {
		case SeverityHigh, SeverityMedium, SeverityLow:
		default:
			return fmt.Errorf("anomalies[%d]: unknown severity %q", i, a.Severity)
		}
		if !sourceIPPattern.MatchString(a.SourceIP) {
			return fmt.Errorf("anomalies[%d]: bad source ip %q", i, a.SourceIP)
		}
	}

	for i, m := range s.Security {
		if m.Category != SecurityCategories[i] {
			return fmt.Errorf("security[%d]: expected %q, got %q", i, SecurityCategories[i], m.Category)
		}
		switch m.Status {
		case MetricGood, MetricWarning, MetricCritical:
		default:
			return fmt.Errorf("security[%d]: unknown status %q", i, m.Status)
		}
	}
	return nil
}
