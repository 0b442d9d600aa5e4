package telemetry

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"testing"
	"time"
)

func newTestGenerator(seed int64) *Generator {
	clock := func() time.Time { return time.Date(2024, 5, 1, 13, 37, 0, 0, time.UTC) }
	return NewGenerator(WithRand(rand.New(rand.NewSource(seed))), WithClock(clock))
}

func TestSnapshotValid(t *testing.T) {
	gen := newTestGenerator(1)
	for i := 0; i < 500; i++ {
		snap := gen.Snapshot()
		if err := snap.Validate(); err != nil {
			t.Fatalf("snapshot %d invalid: %v", i, err)
		}
	}
}

func TestGenerateTraffic(t *testing.T) {
	gen := newTestGenerator(2)
	for run := 0; run < 50; run++ {
		samples := gen.GenerateTraffic()
		if len(samples) != HoursPerDay {
			t.Fatalf("expected %d samples, got %d", HoursPerDay, len(samples))
		}
		seen := make(map[string]bool)
		for i, s := range samples {
			want := fmt.Sprintf("%02d:37", i)
			if s.Time != want {
				t.Errorf("sample %d label = %s, want %s", i, s.Time, want)
			}
			if seen[s.Time] {
				t.Errorf("duplicate label %s", s.Time)
			}
			seen[s.Time] = true
			if s.Inbound < 0 || s.Inbound >= 100 {
				t.Errorf("inbound out of range: %d", s.Inbound)
			}
			if s.Outbound < 0 || s.Outbound >= 80 {
				t.Errorf("outbound out of range: %d", s.Outbound)
			}
		}
	}
}

func TestGenerateTrafficDSTTransition(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// 2026-03-08 skips 02:00 local time.
	clock := func() time.Time { return time.Date(2026, 3, 8, 12, 30, 0, 0, loc) }
	gen := NewGenerator(WithRand(rand.New(rand.NewSource(8))), WithClock(clock))

	for i, s := range gen.GenerateTraffic() {
		if want := fmt.Sprintf("%02d:30", i); s.Time != want {
			t.Errorf("sample %d label = %s, want %s", i, s.Time, want)
		}
	}
	if err := gen.Snapshot().Validate(); err != nil {
		t.Fatalf("snapshot on DST day invalid: %v", err)
	}
}

func TestGenerateNetworkStatus(t *testing.T) {
	gen := newTestGenerator(3)
	types := make(map[ConnectionType]int)
	statuses := make(map[SecurityStatus]int)
	for i := 0; i < 2000; i++ {
		n := gen.GenerateNetworkStatus()
		if n.SignalStrength < 60 || n.SignalStrength > 100 {
			t.Fatalf("signal strength out of range: %d", n.SignalStrength)
		}
		types[n.ConnectionType]++
		statuses[n.SecurityStatus]++
	}
	if len(types) != 3 {
		t.Errorf("expected all connection types, got %v", types)
	}
	if statuses[SecurityCritical] != 0 {
		t.Errorf("default profile must not emit critical, got %d", statuses[SecurityCritical])
	}
	if statuses[SecurityWarning] == 0 || statuses[SecuritySecure] == 0 {
		t.Errorf("expected both secure and warning, got %v", statuses)
	}
}

func TestNetworkCriticalProfile(t *testing.T) {
	p := DefaultProfile()
	p.NetworkCriticalProbability = 0.5
	gen := NewGenerator(WithRand(rand.New(rand.NewSource(4))), WithProfile(p))
	critical := 0
	for i := 0; i < 200; i++ {
		if gen.GenerateNetworkStatus().SecurityStatus == SecurityCritical {
			critical++
		}
	}
	if critical == 0 {
		t.Fatalf("expected critical statuses when weighted")
	}
}

func TestNetworkSecurityThresholds(t *testing.T) {
	p := DefaultProfile()
	p.NetworkCriticalProbability = 0.1
	cases := []struct {
		u    float64
		want SecurityStatus
	}{
		{0, SecuritySecure},
		{0.69, SecuritySecure},
		{0.75, SecurityWarning},
		{0.89, SecurityWarning},
		{0.95, SecurityCritical},
	}
	for _, c := range cases {
		if got := networkSecurity(c.u, p); got != c.want {
			t.Errorf("networkSecurity(%v) = %s, want %s", c.u, got, c.want)
		}
	}
}

var anomalyIDPattern = regexp.MustCompile(`^anomaly-\d+-\d$`)

func TestGenerateAnomalies(t *testing.T) {
	gen := newTestGenerator(5)
	counts := make(map[int]int)
	severities := make(map[Severity]int)
	for run := 0; run < 1000; run++ {
		batch := gen.GenerateAnomalies()
		counts[len(batch)]++
		ids := make(map[string]bool)
		for _, a := range batch {
			if !sourceIPPattern.MatchString(a.SourceIP) {
				t.Fatalf("bad source ip %s", a.SourceIP)
			}
			if !anomalyIDPattern.MatchString(a.ID) {
				t.Fatalf("bad id %s", a.ID)
			}
			if ids[a.ID] {
				t.Fatalf("duplicate id %s in batch", a.ID)
			}
			ids[a.ID] = true
			if !strings.HasSuffix(a.Timestamp, " minutes ago") {
				t.Fatalf("bad timestamp %q", a.Timestamp)
			}
			var mins int
			if _, err := fmt.Sscanf(a.Timestamp, "%d minutes ago", &mins); err != nil || mins < 1 || mins > 10 {
				t.Fatalf("minutes out of range in %q", a.Timestamp)
			}
			severities[a.Severity]++
		}
	}
	for n := 1; n <= 3; n++ {
		if counts[n] == 0 {
			t.Errorf("batch size %d never produced", n)
		}
	}
	if len(counts) != 3 {
		t.Errorf("unexpected batch sizes: %v", counts)
	}
	total := severities[SeverityHigh] + severities[SeverityMedium] + severities[SeverityLow]
	high := float64(severities[SeverityHigh]) / float64(total)
	if high < 0.2 || high > 0.4 {
		t.Errorf("high severity share %.2f outside expected band", high)
	}
}

func TestGenerateSecurityMetrics(t *testing.T) {
	gen := newTestGenerator(6)
	for run := 0; run < 500; run++ {
		metrics := gen.GenerateSecurityMetrics()
		for i, m := range metrics {
			if m.Category != SecurityCategories[i] {
				t.Fatalf("metric %d category = %s", i, m.Category)
			}
		}
		if fw := metrics[0]; fw.Status == MetricCritical || fw.Value < 0 || fw.Value >= 100 {
			t.Fatalf("unexpected firewall metric %+v", fw)
		}
		if in := metrics[1]; in.Value != float64(int(in.Value)) || in.Value < 0 || in.Value >= 50 {
			t.Fatalf("unexpected intrusion metric %+v", in)
		}
		if ssl := metrics[2]; ssl.Status == MetricCritical || ssl.Value < 0 || ssl.Value >= 100 {
			t.Fatalf("unexpected ssl metric %+v", ssl)
		}
	}
}

func TestIntrusionStatus(t *testing.T) {
	p := DefaultProfile()
	draw := func(v float64) func() float64 { return func() float64 { return v } }
	cases := []struct {
		first, second float64
		want          MetricStatus
	}{
		{0.95, 0, MetricCritical},
		{0.5, 0.8, MetricWarning},
		{0.5, 0.6, MetricGood},
		{0.9, 0.71, MetricWarning},
	}
	for _, c := range cases {
		if got := intrusionStatus(c.first, draw(c.second), p); got != c.want {
			t.Errorf("intrusionStatus(%v,%v) = %s, want %s", c.first, c.second, got, c.want)
		}
	}
}

func TestThresholdStatus(t *testing.T) {
	p := DefaultProfile()
	if p.SSLWarningThreshold != 0.8 || p.FirewallWarningThreshold != 0.8 {
		t.Fatalf("unexpected default thresholds: ssl %v firewall %v", p.SSLWarningThreshold, p.FirewallWarningThreshold)
	}
	if thresholdStatus(0.85, p.SSLWarningThreshold) != MetricWarning {
		t.Errorf("expected ssl warning above default threshold")
	}
	if thresholdStatus(0.8, p.SSLWarningThreshold) != MetricGood {
		t.Errorf("expected good at threshold")
	}
	if thresholdStatus(0.81, p.FirewallWarningThreshold) != MetricWarning {
		t.Errorf("expected firewall warning above default threshold")
	}
}

func TestValidateRejects(t *testing.T) {
	base := newTestGenerator(7).Snapshot()

	bad := base
	bad.Anomalies = nil
	if err := bad.Validate(); err == nil {
		t.Errorf("expected error for empty anomalies")
	}

	bad = base
	bad.Anomalies = []Anomaly{{ID: "a", Severity: SeverityLow, SourceIP: "10.0.0.1"}}
	if err := bad.Validate(); err == nil {
		t.Errorf("expected error for foreign source ip")
	}

	bad = base
	bad.Traffic[3].Time = "04:00"
	if err := bad.Validate(); err == nil {
		t.Errorf("expected error for out of order traffic")
	}

	bad = base
	bad.Security[0].Category = "Antivirus"
	if err := bad.Validate(); err == nil {
		t.Errorf("expected error for unknown category")
	}
}
