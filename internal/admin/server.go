package admin

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"network-analyser/internal/feed"
	"network-analyser/internal/telemetry"
)

// streamBuffer is the per-client queue length for /stream. Snapshots are
// dropped for clients that fall further behind.
const streamBuffer = 8

// Server exposes the feed over HTTP.
type Server struct {
	Feed            *feed.Service
	SensorID        string
	SnapshotTimeout time.Duration

	gatherer prometheus.Gatherer
	tpl      *template.Template
	mux      *http.ServeMux
	log      *slog.Logger
}

//go:embed templates/index.html
var content embed.FS

// NewServer builds the admin server. A nil gatherer serves the default
// Prometheus registry on /metrics.
func NewServer(svc *feed.Service, sensorID string, gatherer prometheus.Gatherer, log *slog.Logger) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if log == nil {
		log = slog.Default()
	}
	tpl := template.Must(template.New("index.html").ParseFS(content, "templates/index.html"))
	s := &Server{
		Feed:            svc,
		SensorID:        sensorID,
		SnapshotTimeout: 2*svc.Interval() + time.Second,
		gatherer:        gatherer,
		tpl:             tpl,
		log:             log.With("component", "admin"),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/snapshot", s.handleSnapshot)
	mux.HandleFunc("/stream", s.handleStream)
	mux.HandleFunc("/status", s.handleStatus)
	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	s.mux = mux
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Start serves on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("admin server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("admin shutdown: %w", err)
	}
	return nil
}

// Status is the JSON body of /status.
type Status struct {
	ServiceID string `json:"service_id"`
	SensorID  string `json:"sensor_id"`
	State     string `json:"state"`
	Observers int    `json:"observers"`
	Interval  string `json:"tick_interval"`
}

func (s *Server) status() Status {
	return Status{
		ServiceID: s.Feed.ID(),
		SensorID:  s.SensorID,
		State:     s.Feed.State().String(),
		Observers: s.Feed.Observers(),
		Interval:  s.Feed.Interval().String(),
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tpl.Execute(w, s.status()); err != nil {
		s.log.Error("render index", "err", err)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.status())
}

// handleSnapshot subscribes, waits for the next tick and unsubscribes.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	got := make(chan telemetry.Snapshot, 1)
	unsubscribe := s.Feed.Subscribe(func(snap telemetry.Snapshot) {
		select {
		case got <- snap:
		default:
		}
	})
	defer unsubscribe()

	timer := time.NewTimer(s.SnapshotTimeout)
	defer timer.Stop()
	select {
	case snap := <-got:
		writeJSON(w, http.StatusOK, snap)
	case <-timer.C:
		http.Error(w, "timed out waiting for snapshot", http.StatusGatewayTimeout)
	case <-r.Context().Done():
	}
}

// handleStream sends every snapshot as a server-sent event until the client
// disconnects.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	clientID := uuid.NewString()
	log := s.log.With("client", clientID)
	events := make(chan telemetry.Snapshot, streamBuffer)
	dropped := 0
	unsubscribe := s.Feed.Subscribe(func(snap telemetry.Snapshot) {
		select {
		case events <- snap:
		default:
			dropped++
			log.Warn("stream client slow, snapshot dropped", "sequence", snap.Sequence, "dropped", dropped)
		}
	})
	defer unsubscribe()
	log.Info("stream client connected")
	defer log.Info("stream client disconnected")

	fmt.Fprintf(w, "event: ready\ndata: {\"client\":%q}\n\n", clientID)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case snap := <-events:
			data, err := json.Marshal(snap)
			if err != nil {
				log.Error("encode snapshot", "err", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "id: %d\nevent: snapshot\ndata: %s\n\n", snap.Sequence, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
