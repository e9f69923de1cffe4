// Package service implements the seating domain: the seat assignment
// engine, layout reconciliation, spreadsheet import and the directory of
// people and ambassadors.  Every operation re-reads the store; the
// package keeps no state between calls.
package service

import (
	"context"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/seat-planner/internal/metrics"
	"github.com/iliyamo/seat-planner/internal/queue"
	"github.com/iliyamo/seat-planner/internal/repository"
)

// EventPublisher delivers seating events after a change commits.
// queue.Publisher is the production implementation.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.SeatingEvent) error
}

// ChangeListener is told whenever committed state changes, for example
// so a cache can drop stale layouts.
type ChangeListener interface {
	StateChanged(ctx context.Context)
}

// ChangeListenerFunc adapts a function to ChangeListener.
type ChangeListenerFunc func(ctx context.Context)

func (f ChangeListenerFunc) StateChanged(ctx context.Context) { f(ctx) }

type Service struct {
	store     repository.Store
	log       logrus.FieldLogger
	metrics   *metrics.Metrics
	events    EventPublisher
	listeners []ChangeListener
	newRand   func(seed int64) *rand.Rand
}

type Option func(*Service)

func WithLogger(l logrus.FieldLogger) Option { return func(s *Service) { s.log = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }

func WithEvents(p EventPublisher) Option { return func(s *Service) { s.events = p } }

func WithChangeListener(l ChangeListener) Option {
	return func(s *Service) { s.listeners = append(s.listeners, l) }
}

// New constructs a Service over store.  It panics when store is nil.
func New(store repository.Store, opts ...Option) *Service {
	if store == nil {
		panic("service: nil store")
	}
	s := &Service{
		store: store,
		log:   logrus.StandardLogger(),
		newRand: func(seed int64) *rand.Rand {
			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			return rand.New(rand.NewSource(seed))
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// changed notifies listeners that committed state moved on.
func (s *Service) changed(ctx context.Context) {
	for _, l := range s.listeners {
		l.StateChanged(ctx)
	}
}

// committed runs after a seating change has been written.  Event
// publishing is best effort: failures are logged and counted, never
// returned.
func (s *Service) committed(ctx context.Context, ev queue.SeatingEvent) {
	s.changed(ctx)
	if s.events == nil {
		return
	}
	err := s.events.Publish(ctx, ev)
	s.metrics.EventPublished(err)
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"event_id":   ev.ID,
			"event_type": ev.Type,
		}).Warn("publish seating event")
	}
}

// finish records the outcome of op and logs internal failures with their
// cause.  It returns err unchanged.
func (s *Service) finish(op string, err error) error {
	if err == nil {
		s.metrics.Operation(op, "ok")
		return nil
	}
	kind := KindOf(err)
	s.metrics.Operation(op, kind.String())
	if kind == KindInternal {
		s.log.WithError(err).WithField("op", op).Error("operation failed")
	}
	return err
}
