// Package memstore is an in-memory repository.Store.  It enforces the
// same constraints as the MySQL schema (one assignment per person, one
// person per desk/seat, foreign keys with their delete actions) and runs
// transactions copy-on-write, so a failing transaction leaves no trace.
// It backs the service and handler tests and `seatctl import --dry-run`.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/iliyamo/seat-planner/internal/model"
	"github.com/iliyamo/seat-planner/internal/repository"
)

// ErrForeignKey mirrors a MySQL foreign key violation.
var ErrForeignKey = errors.New("foreign key constraint fails")

type state struct {
	configs     []model.Config
	ambassadors map[uint64]model.Ambassador
	persons     map[uint64]model.Person
	assignments map[uint64]model.SeatAssignment
	lastID      uint64
}

func (s *state) clone() *state {
	c := &state{
		configs:     append([]model.Config(nil), s.configs...),
		ambassadors: make(map[uint64]model.Ambassador, len(s.ambassadors)),
		persons:     make(map[uint64]model.Person, len(s.persons)),
		assignments: make(map[uint64]model.SeatAssignment, len(s.assignments)),
		lastID:      s.lastID,
	}
	for k, v := range s.ambassadors {
		c.ambassadors[k] = v
	}
	for k, v := range s.persons {
		c.persons[k] = v
	}
	for k, v := range s.assignments {
		c.assignments[k] = v
	}
	return c
}

type failure struct {
	nth int
	err error
}

// Store is safe for concurrent use.  Transactions are serialised.
type Store struct {
	mu    sync.Mutex
	st    *state
	calls map[string]int
	fails map[string]failure

	// Clock stamps created_at and updated_at.  Defaults to time.Now.
	Clock func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		st: &state{
			ambassadors: map[uint64]model.Ambassador{},
			persons:     map[uint64]model.Person{},
			assignments: map[uint64]model.SeatAssignment{},
		},
		calls: map[string]int{},
		fails: map[string]failure{},
		Clock: func() time.Time { return time.Now().UTC() },
	}
}

// FailOn makes the nth call (1-based, counted from now) of the named
// Querier method return err.  It is meant for atomicity tests.
func (s *Store) FailOn(method string, nth int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[method] = 0
	s.fails[method] = failure{nth: nth, err: err}
}

func (s *Store) inject(method string) error {
	f, ok := s.fails[method]
	if !ok {
		return nil
	}
	s.calls[method]++
	if s.calls[method] == f.nth {
		delete(s.fails, method)
		return f.err
	}
	return nil
}

// WithinTx runs fn against a private copy of the data and publishes the
// copy only when fn succeeds.
func (s *Store) WithinTx(ctx context.Context, fn func(q repository.Querier) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.st.clone()
	if err := fn(&tables{st: work, store: s}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.st = work
	return nil
}

func (s *Store) run(fn func(t *tables) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&tables{st: s.st, store: s})
}

// Snapshot returns copies of every assignment row, ordered by id.
func (s *Store) Snapshot() []model.SeatAssignment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.SeatAssignment, 0, len(s.st.assignments))
	for _, a := range s.st.assignments {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// tables implements repository.Querier over one state without locking;
// the caller holds Store.mu.
type tables struct {
	st    *state
	store *Store
}

func (t *tables) now() time.Time { return t.store.Clock() }

func (t *tables) nextID() uint64 {
	t.st.lastID++
	return t.st.lastID
}

func (t *tables) LatestConfig(context.Context) (*model.Config, error) {
	if len(t.st.configs) == 0 {
		return nil, repository.ErrConfigNotFound
	}
	c := t.st.configs[t.latestConfig()]
	return &c, nil
}

func (t *tables) latestConfig() int {
	best := 0
	for i, c := range t.st.configs {
		b := t.st.configs[best]
		if c.UpdatedAt.After(b.UpdatedAt) || (c.UpdatedAt.Equal(b.UpdatedAt) && c.ID > b.ID) {
			best = i
		}
	}
	return best
}

func (t *tables) SaveConfig(_ context.Context, c *model.Config) error {
	if err := t.store.inject("SaveConfig"); err != nil {
		return err
	}
	if c.TableClothColor == "" {
		c.TableClothColor = model.DefaultTableClothColor
	}
	c.UpdatedAt = t.now()
	if len(t.st.configs) == 0 {
		c.ID = t.nextID()
		t.st.configs = append(t.st.configs, *c)
		return nil
	}
	i := t.latestConfig()
	c.ID = t.st.configs[i].ID
	t.st.configs[i] = *c
	return nil
}

func (t *tables) ListAmbassadors(context.Context) ([]model.Ambassador, error) {
	out := make([]model.Ambassador, 0, len(t.st.ambassadors))
	for _, a := range t.st.ambassadors {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (t *tables) ListAmbassadorsByIDs(_ context.Context, ids []uint64) ([]model.Ambassador, error) {
	out := make([]model.Ambassador, 0, len(ids))
	for _, id := range uniqueSorted(ids) {
		if a, ok := t.st.ambassadors[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (t *tables) GetAmbassador(_ context.Context, id uint64) (*model.Ambassador, error) {
	a, ok := t.st.ambassadors[id]
	if !ok {
		return nil, repository.ErrAmbassadorNotFound
	}
	return &a, nil
}

func (t *tables) FindAmbassadorByName(_ context.Context, name string) (*model.Ambassador, error) {
	return t.findAmbassador(func(a model.Ambassador) bool { return a.Name == name })
}

func (t *tables) FindAmbassadorByNameFold(_ context.Context, name string) (*model.Ambassador, error) {
	return t.findAmbassador(func(a model.Ambassador) bool { return strings.EqualFold(a.Name, name) })
}

func (t *tables) findAmbassador(match func(model.Ambassador) bool) (*model.Ambassador, error) {
	var best *model.Ambassador
	for _, a := range t.st.ambassadors {
		if match(a) && (best == nil || a.ID < best.ID) {
			a := a
			best = &a
		}
	}
	if best == nil {
		return nil, repository.ErrAmbassadorNotFound
	}
	return best, nil
}

func (t *tables) CreateAmbassador(_ context.Context, a *model.Ambassador) error {
	if err := t.store.inject("CreateAmbassador"); err != nil {
		return err
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = t.now()
	}
	a.ID = t.nextID()
	t.st.ambassadors[a.ID] = *a
	return nil
}

func (t *tables) RenameAmbassador(_ context.Context, id uint64, name string) error {
	a, ok := t.st.ambassadors[id]
	if !ok {
		return repository.ErrAmbassadorNotFound
	}
	a.Name = name
	t.st.ambassadors[id] = a
	return nil
}

func (t *tables) DeleteAmbassadors(_ context.Context, ids []uint64) (int64, error) {
	if err := t.store.inject("DeleteAmbassadors"); err != nil {
		return 0, err
	}
	var n int64
	for _, id := range uniqueSorted(ids) {
		if _, ok := t.st.ambassadors[id]; !ok {
			continue
		}
		delete(t.st.ambassadors, id)
		n++
		// ON DELETE SET NULL
		for pid, p := range t.st.persons {
			if p.AmbassadorID != nil && *p.AmbassadorID == id {
				p.AmbassadorID = nil
				t.st.persons[pid] = p
			}
		}
	}
	return n, nil
}

func (t *tables) GetPerson(_ context.Context, id uint64) (*model.Person, error) {
	p, ok := t.st.persons[id]
	if !ok {
		return nil, repository.ErrPersonNotFound
	}
	return &p, nil
}

func (t *tables) ListPersonsByIDs(_ context.Context, ids []uint64) ([]model.Person, error) {
	out := make([]model.Person, 0, len(ids))
	for _, id := range uniqueSorted(ids) {
		if p, ok := t.st.persons[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (t *tables) FindPersonByNameFold(_ context.Context, name string) (*model.Person, error) {
	if err := t.store.inject("FindPersonByNameFold"); err != nil {
		return nil, err
	}
	var best *model.Person
	for _, p := range t.st.persons {
		if strings.EqualFold(p.Name, name) && (best == nil || p.ID < best.ID) {
			p := p
			best = &p
		}
	}
	if best == nil {
		return nil, repository.ErrPersonNotFound
	}
	return best, nil
}

func (t *tables) ListPersonViews(context.Context) ([]model.PersonView, error) {
	byPerson := make(map[uint64]model.SeatAssignment, len(t.st.assignments))
	for _, a := range t.st.assignments {
		byPerson[a.PersonID] = a
	}
	out := make([]model.PersonView, 0, len(t.st.persons))
	for _, p := range t.st.persons {
		v := model.PersonView{Person: p}
		if p.AmbassadorID != nil {
			if a, ok := t.st.ambassadors[*p.AmbassadorID]; ok {
				name := a.Name
				v.AmbassadorName = &name
			}
		}
		if a, ok := byPerson[p.ID]; ok {
			v.DeskNumber = a.DeskNumber
			v.SeatNumber = a.SeatNumber
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (t *tables) CreatePerson(_ context.Context, p *model.Person) error {
	if err := t.store.inject("CreatePerson"); err != nil {
		return err
	}
	if p.AmbassadorID != nil {
		if _, ok := t.st.ambassadors[*p.AmbassadorID]; !ok {
			return ErrForeignKey
		}
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = t.now()
	}
	p.ID = t.nextID()
	t.st.persons[p.ID] = *p
	return nil
}

func (t *tables) UpdatePerson(_ context.Context, p *model.Person) error {
	old, ok := t.st.persons[p.ID]
	if !ok {
		return repository.ErrPersonNotFound
	}
	if p.AmbassadorID != nil {
		if _, ok := t.st.ambassadors[*p.AmbassadorID]; !ok {
			return ErrForeignKey
		}
	}
	upd := *p
	upd.CreatedAt = old.CreatedAt
	t.st.persons[p.ID] = upd
	return nil
}

func (t *tables) DeletePersons(_ context.Context, ids []uint64) (int64, error) {
	if err := t.store.inject("DeletePersons"); err != nil {
		return 0, err
	}
	var n int64
	for _, id := range uniqueSorted(ids) {
		if _, ok := t.st.persons[id]; !ok {
			continue
		}
		delete(t.st.persons, id)
		n++
		// ON DELETE CASCADE
		for aid, a := range t.st.assignments {
			if a.PersonID == id {
				delete(t.st.assignments, aid)
			}
		}
	}
	return n, nil
}

func (t *tables) ClearAmbassadorRefs(_ context.Context, ambassadorIDs []uint64) (int64, error) {
	targets := make(map[uint64]bool, len(ambassadorIDs))
	for _, id := range ambassadorIDs {
		targets[id] = true
	}
	var n int64
	for id, p := range t.st.persons {
		if p.AmbassadorID != nil && targets[*p.AmbassadorID] {
			p.AmbassadorID = nil
			t.st.persons[id] = p
			n++
		}
	}
	return n, nil
}

func (t *tables) AssignmentForPerson(_ context.Context, personID uint64) (*model.SeatAssignment, error) {
	for _, a := range t.st.assignments {
		if a.PersonID == personID {
			return &a, nil
		}
	}
	return nil, repository.ErrAssignmentNotFound
}

func (t *tables) OccupantAt(_ context.Context, desk, seat int) (*model.SeatAssignment, error) {
	for _, a := range t.st.assignments {
		if a.Seated() && *a.DeskNumber == desk && *a.SeatNumber == seat {
			return &a, nil
		}
	}
	return nil, repository.ErrAssignmentNotFound
}

func (t *tables) ListAssignmentViews(context.Context) ([]model.AssignmentView, error) {
	out := make([]model.AssignmentView, 0, len(t.st.assignments))
	for _, a := range t.st.assignments {
		p, ok := t.st.persons[a.PersonID]
		if !ok {
			continue
		}
		v := model.AssignmentView{
			SeatAssignment: a,
			Name:           p.Name,
			AmbassadorID:   p.AmbassadorID,
			Position:       p.Position,
			Tel:            p.Tel,
			Background:     p.Background,
			Info:           p.Info,
		}
		if p.AmbassadorID != nil {
			if amb, ok := t.st.ambassadors[*p.AmbassadorID]; ok {
				name := amb.Name
				v.AmbassadorName = &name
			}
		}
		out = append(out, v)
	}
	// NULLs sort first, as in MySQL
	key := func(p *int) int {
		if p == nil {
			return -1
		}
		return *p
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if key(a.DeskNumber) != key(b.DeskNumber) {
			return key(a.DeskNumber) < key(b.DeskNumber)
		}
		if key(a.SeatNumber) != key(b.SeatNumber) {
			return key(a.SeatNumber) < key(b.SeatNumber)
		}
		return a.PersonID < b.PersonID
	})
	return out, nil
}

func (t *tables) DeleteAssignmentsForPersons(_ context.Context, personIDs []uint64) (int64, error) {
	if err := t.store.inject("DeleteAssignmentsForPersons"); err != nil {
		return 0, err
	}
	targets := make(map[uint64]bool, len(personIDs))
	for _, id := range personIDs {
		targets[id] = true
	}
	var n int64
	for id, a := range t.st.assignments {
		if targets[a.PersonID] {
			delete(t.st.assignments, id)
			n++
		}
	}
	return n, nil
}

func (t *tables) InsertAssignment(_ context.Context, a *model.SeatAssignment) error {
	if err := t.store.inject("InsertAssignment"); err != nil {
		return err
	}
	if _, ok := t.st.persons[a.PersonID]; !ok {
		return ErrForeignKey
	}
	for _, other := range t.st.assignments {
		if other.PersonID == a.PersonID {
			return errors.Wrap(repository.ErrConflict, "duplicate person_id")
		}
		if a.Seated() && other.Seated() && *other.DeskNumber == *a.DeskNumber && *other.SeatNumber == *a.SeatNumber {
			return errors.Wrap(repository.ErrConflict, "duplicate desk_number/seat_number")
		}
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = t.now()
	}
	a.ID = t.nextID()
	t.st.assignments[a.ID] = *a
	return nil
}

func uniqueSorted(ids []uint64) []uint64 {
	seen := make(map[uint64]bool, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
