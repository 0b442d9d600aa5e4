package sink

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"network-analyser/internal/config"
	"network-analyser/internal/telemetry"
)

const (
	defaultGreptimePort = 4001
	greptimeTimeout     = 5 * time.Second
)

// greptimeClient is the subset of the ingester client used by the writer.
type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeDBWriter writes snapshots to GreptimeDB via the ingester client.
// Each snapshot becomes rows in four tables sent in a single request.
type GreptimeDBWriter struct {
	client        greptimeClient
	sensorID      string
	networkTable  string
	trafficTable  string
	anomalyTable  string
	securityTable string
	log           *slog.Logger
}

// NewGreptimeDBWriter connects to the endpoint ("host" or "host:port")
// configured in cfg.
func NewGreptimeDBWriter(cfg config.Greptime, sensorID string, log *slog.Logger) (*GreptimeDBWriter, error) {
	host, port, err := splitEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}
	gcfg := greptime.NewConfig(host).WithPort(port).WithDatabase(cfg.Database)
	client, err := greptime.NewClient(gcfg)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &GreptimeDBWriter{
		client:        client,
		sensorID:      sensorID,
		networkTable:  cfg.NetworkTable,
		trafficTable:  cfg.TrafficTable,
		anomalyTable:  cfg.AnomalyTable,
		securityTable: cfg.SecurityTable,
		log:           log.With("component", "greptime"),
	}, nil
}

func splitEndpoint(endpoint string) (string, int, error) {
	if endpoint == "" {
		return "", 0, fmt.Errorf("greptime endpoint is empty")
	}
	host, portStr, err := net.SplitHostPort(endpoint)
	if err != nil {
		return endpoint, defaultGreptimePort, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid greptime port %q: %w", portStr, err)
	}
	return host, port, nil
}

// Write inserts one snapshot.
func (w *GreptimeDBWriter) Write(s telemetry.Snapshot) error {
	network, err := w.networkRows(s)
	if err != nil {
		return err
	}
	traffic, err := w.trafficRows(s)
	if err != nil {
		return err
	}
	anomalies, err := w.anomalyRows(s)
	if err != nil {
		return err
	}
	security, err := w.securityRows(s)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), greptimeTimeout)
	defer cancel()
	if _, err := w.client.Write(ctx, network, traffic, anomalies, security); err != nil {
		w.logger().Error("write failed", "sequence", s.Sequence, "err", err)
		return err
	}
	w.logger().Debug("wrote snapshot", "sequence", s.Sequence)
	return nil
}

func (w *GreptimeDBWriter) logger() *slog.Logger {
	if w.log == nil {
		return slog.Default()
	}
	return w.log
}

func (w *GreptimeDBWriter) networkRows(s telemetry.Snapshot) (*table.Table, error) {
	tbl, err := table.New(w.networkTable)
	if err != nil {
		return nil, err
	}
	if err := addColumns(tbl,
		tagColumn("sensor_id", types.STRING),
		fieldColumn("sequence", types.INT64),
		fieldColumn("connection_type", types.STRING),
		fieldColumn("signal_strength", types.INT64),
		fieldColumn("security_status", types.STRING),
	); err != nil {
		return nil, err
	}
	n := s.Network
	if err := tbl.AddRow(w.sensorID, int64(s.Sequence), string(n.ConnectionType), int64(n.SignalStrength), string(n.SecurityStatus), s.GeneratedAt); err != nil {
		return nil, err
	}
	return tbl, nil
}

func (w *GreptimeDBWriter) trafficRows(s telemetry.Snapshot) (*table.Table, error) {
	tbl, err := table.New(w.trafficTable)
	if err != nil {
		return nil, err
	}
	if err := addColumns(tbl,
		tagColumn("sensor_id", types.STRING),
		tagColumn("hour", types.STRING),
		fieldColumn("sequence", types.INT64),
		fieldColumn("inbound", types.INT64),
		fieldColumn("outbound", types.INT64),
	); err != nil {
		return nil, err
	}
	for _, t := range s.Traffic {
		if err := tbl.AddRow(w.sensorID, t.Time, int64(s.Sequence), int64(t.Inbound), int64(t.Outbound), s.GeneratedAt); err != nil {
			return nil, err
		}
	}
	return tbl, nil
}

func (w *GreptimeDBWriter) anomalyRows(s telemetry.Snapshot) (*table.Table, error) {
	tbl, err := table.New(w.anomalyTable)
	if err != nil {
		return nil, err
	}
	if err := addColumns(tbl,
		tagColumn("sensor_id", types.STRING),
		tagColumn("anomaly_id", types.STRING),
		fieldColumn("sequence", types.INT64),
		fieldColumn("severity", types.STRING),
		fieldColumn("title", types.STRING),
		fieldColumn("description", types.STRING),
		fieldColumn("age", types.STRING),
		fieldColumn("source_ip", types.STRING),
	); err != nil {
		return nil, err
	}
	for _, a := range s.Anomalies {
		if err := tbl.AddRow(w.sensorID, a.ID, int64(s.Sequence), string(a.Severity), a.Title, a.Description, a.Timestamp, a.SourceIP, s.GeneratedAt); err != nil {
			return nil, err
		}
	}
	return tbl, nil
}

func (w *GreptimeDBWriter) securityRows(s telemetry.Snapshot) (*table.Table, error) {
	tbl, err := table.New(w.securityTable)
	if err != nil {
		return nil, err
	}
	if err := addColumns(tbl,
		tagColumn("sensor_id", types.STRING),
		tagColumn("category", types.STRING),
		fieldColumn("sequence", types.INT64),
		fieldColumn("value", types.FLOAT64),
		fieldColumn("status", types.STRING),
	); err != nil {
		return nil, err
	}
	for _, m := range s.Security {
		if err := tbl.AddRow(w.sensorID, m.Category, int64(s.Sequence), m.Value, string(m.Status), s.GeneratedAt); err != nil {
			return nil, err
		}
	}
	return tbl, nil
}

type column struct {
	name string
	typ  types.ColumnType
	tag  bool
}

func tagColumn(name string, typ types.ColumnType) column   { return column{name: name, typ: typ, tag: true} }
func fieldColumn(name string, typ types.ColumnType) column { return column{name: name, typ: typ} }

// addColumns adds cols in order followed by the ts time index.
func addColumns(tbl *table.Table, cols ...column) error {
	for _, c := range cols {
		var err error
		if c.tag {
			err = tbl.AddTagColumn(c.name, c.typ)
		} else {
			err = tbl.AddFieldColumn(c.name, c.typ)
		}
		if err != nil {
			return err
		}
	}
	return tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)
}
