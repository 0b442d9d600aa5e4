// Package feed distributes generated telemetry snapshots to observers on a
// shared timer. The timer only runs while at least one observer is registered.
package feed

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"network-analyser/internal/telemetry"
)

// DefaultInterval is the tick period used when Config.Interval is unset.
const DefaultInterval = 2 * time.Second

// Source produces one snapshot per call.
type Source interface {
	Snapshot() telemetry.Snapshot
}

// Observer receives every snapshot until it is unsubscribed. Observers are
// invoked synchronously on the tick goroutine and must not block for long.
type Observer func(telemetry.Snapshot)

// State is the lifecycle state of a Service.
type State int

const (
	StateIdle State = iota
	StateActive
)

func (s State) String() string {
	if s == StateActive {
		return "active"
	}
	return "idle"
}

// Config configures a Service. The zero value is usable.
type Config struct {
	Interval time.Duration
	Logger   *slog.Logger
	// OnFault is called with an *ObserverFault whenever an observer panics.
	OnFault func(error)
	Metrics *Metrics
}

type subscription struct {
	id       uint64
	observer Observer
	active   atomic.Bool
}

// Service owns the observer set and the recurring timer.
type Service struct {
	id       string
	src      Source
	interval time.Duration
	log      *slog.Logger
	onFault  func(error)
	metrics  *Metrics

	mu     sync.Mutex
	subs   map[uint64]*subscription
	nextID uint64
	seq    uint64
	cancel context.CancelFunc
}

// NewService creates an idle service drawing snapshots from src.
func NewService(src Source, cfg Config) *Service {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	id := uuid.New().String()
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		id:       id,
		src:      src,
		interval: interval,
		log:      log.With("component", "feed", "service_id", id),
		onFault:  cfg.OnFault,
		metrics:  cfg.Metrics,
		subs:     make(map[uint64]*subscription),
	}
}

// ID returns the unique identifier of this service instance.
func (s *Service) ID() string { return s.id }

// Interval returns the tick period.
func (s *Service) Interval() time.Duration { return s.interval }

// Subscribe registers obs and starts the timer if the service was idle. The
// returned function removes exactly this observer; calling it again is a no-op.
// When called from another goroutine, a delivery that already started may
// still reach the observer once after unsubscribe returns. No new delivery
// starts after that.
func (s *Service) Subscribe(obs Observer) (unsubscribe func()) {
	if obs == nil {
		return func() {}
	}
	sub := &subscription{observer: obs}
	sub.active.Store(true)

	s.mu.Lock()
	s.nextID++
	sub.id = s.nextID
	s.subs[sub.id] = sub
	if s.cancel == nil {
		s.start()
	}
	s.metrics.setObservers(len(s.subs))
	s.mu.Unlock()

	s.log.Debug("observer subscribed", "subscription", sub.id)

	var once sync.Once
	return func() {
		once.Do(func() { s.unsubscribe(sub) })
	}
}

func (s *Service) unsubscribe(sub *subscription) {
	sub.active.Store(false)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[sub.id]; !ok {
		return
	}
	delete(s.subs, sub.id)
	s.metrics.setObservers(len(s.subs))
	s.log.Debug("observer unsubscribed", "subscription", sub.id)
	if len(s.subs) == 0 {
		s.stop()
	}
}

// State reports whether the timer is running.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return StateActive
	}
	return StateIdle
}

// Observers returns the number of registered observers.
func (s *Service) Observers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Close drops every observer and stops the timer.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sub := range s.subs {
		sub.active.Store(false)
		delete(s.subs, id)
	}
	s.metrics.setObservers(0)
	if s.cancel != nil {
		s.stop()
	}
}

// start launches the timer goroutine. Caller must hold s.mu.
func (s *Service) start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.metrics.setActive(true)
	s.log.Info("starting feed", "tick_interval", s.interval)
	go s.run(ctx)
}

// stop cancels the timer goroutine. Caller must hold s.mu.
func (s *Service) stop() {
	s.cancel()
	s.cancel = nil
	s.metrics.setActive(false)
	s.log.Info("stopping feed")
}

func (s *Service) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// tick builds one snapshot and hands it to every observer registered when
// the tick started.
func (s *Service) tick(ctx context.Context) {
	s.mu.Lock()
	if ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	subs := make([]*subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	start := time.Now()
	snap := s.src.Snapshot()
	snap.Sequence = seq

	for _, sub := range subs {
		if !sub.active.Load() {
			continue
		}
		s.deliver(sub, snap)
	}
	s.metrics.observeTick(time.Since(start))
}

func (s *Service) deliver(sub *subscription, snap telemetry.Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			fault := &ObserverFault{Subscription: sub.id, Sequence: snap.Sequence, Value: r}
			s.metrics.incFaults()
			s.log.Error("observer panicked", "subscription", sub.id, "sequence", snap.Sequence, "err", fault)
			if s.onFault != nil {
				s.onFault(fault)
			}
		}
	}()
	sub.observer(snap)
}
