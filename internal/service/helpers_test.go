package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/seat-planner/internal/logging"
	"github.com/iliyamo/seat-planner/internal/memstore"
	"github.com/iliyamo/seat-planner/internal/model"
	"github.com/iliyamo/seat-planner/internal/queue"
)

type recorder struct {
	mu      sync.Mutex
	events  []queue.SeatingEvent
	changes int
	err     error
}

func (r *recorder) Publish(_ context.Context, ev queue.SeatingEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recorder) StateChanged(context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes++
}

func (r *recorder) types() []queue.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]queue.EventType, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

type fixture struct {
	svc   *Service
	store *memstore.Store
	rec   *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memstore.New()
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	st.Clock = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	rec := &recorder{}
	svc := New(st,
		WithLogger(logging.Discard()),
		WithEvents(rec),
		WithChangeListener(rec),
	)
	return &fixture{svc: svc, store: st, rec: rec}
}

func intp(n int) *int { return &n }

func (f *fixture) config(t *testing.T, desks, seats int) {
	t.Helper()
	_, err := f.svc.UpdateConfig(context.Background(), ConfigInput{DeskCount: desks, SeatsPerDesk: seats})
	require.NoError(t, err)
}

func (f *fixture) person(t *testing.T, name string) *model.Person {
	t.Helper()
	p, err := f.svc.CreatePerson(context.Background(), PersonInput{Name: name})
	require.NoError(t, err)
	return p
}

func (f *fixture) seat(t *testing.T, personID uint64, desk, seat int) {
	t.Helper()
	_, err := f.svc.AssignSingle(context.Background(), Placement{PersonID: personID, DeskNumber: intp(desk), SeatNumber: intp(seat)})
	require.NoError(t, err)
}

func requireKind(t *testing.T, want Kind, err error) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, want, KindOf(err), "error: %v", err)
}

// seatOf returns the desk/seat where layout shows personID, or ok=false
// when the person is waiting.
func seatOf(l *model.Layout, personID uint64) (desk, seat int, ok bool) {
	for _, d := range l.Desks {
		for _, c := range d.Seats {
			if c.Person != nil && c.Person.ID == personID {
				return c.DeskNumber, c.SeatNumber, true
			}
		}
	}
	return 0, 0, false
}
