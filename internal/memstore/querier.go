package memstore

import (
	"context"

	"github.com/iliyamo/seat-planner/internal/model"
	"github.com/iliyamo/seat-planner/internal/repository"
)

// Outside a transaction every call runs under the store lock against the
// live data.

func read[T any](s *Store, fn func(t *tables) (T, error)) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&tables{st: s.st, store: s})
}

func (s *Store) LatestConfig(ctx context.Context) (*model.Config, error) {
	return read(s, func(t *tables) (*model.Config, error) { return t.LatestConfig(ctx) })
}

func (s *Store) SaveConfig(ctx context.Context, c *model.Config) error {
	return s.run(func(t *tables) error { return t.SaveConfig(ctx, c) })
}

func (s *Store) ListAmbassadors(ctx context.Context) ([]model.Ambassador, error) {
	return read(s, func(t *tables) ([]model.Ambassador, error) { return t.ListAmbassadors(ctx) })
}

func (s *Store) ListAmbassadorsByIDs(ctx context.Context, ids []uint64) ([]model.Ambassador, error) {
	return read(s, func(t *tables) ([]model.Ambassador, error) { return t.ListAmbassadorsByIDs(ctx, ids) })
}

func (s *Store) GetAmbassador(ctx context.Context, id uint64) (*model.Ambassador, error) {
	return read(s, func(t *tables) (*model.Ambassador, error) { return t.GetAmbassador(ctx, id) })
}

func (s *Store) FindAmbassadorByName(ctx context.Context, name string) (*model.Ambassador, error) {
	return read(s, func(t *tables) (*model.Ambassador, error) { return t.FindAmbassadorByName(ctx, name) })
}

func (s *Store) FindAmbassadorByNameFold(ctx context.Context, name string) (*model.Ambassador, error) {
	return read(s, func(t *tables) (*model.Ambassador, error) { return t.FindAmbassadorByNameFold(ctx, name) })
}

func (s *Store) CreateAmbassador(ctx context.Context, a *model.Ambassador) error {
	return s.run(func(t *tables) error { return t.CreateAmbassador(ctx, a) })
}

func (s *Store) RenameAmbassador(ctx context.Context, id uint64, name string) error {
	return s.run(func(t *tables) error { return t.RenameAmbassador(ctx, id, name) })
}

func (s *Store) DeleteAmbassadors(ctx context.Context, ids []uint64) (int64, error) {
	return read(s, func(t *tables) (int64, error) { return t.DeleteAmbassadors(ctx, ids) })
}

func (s *Store) GetPerson(ctx context.Context, id uint64) (*model.Person, error) {
	return read(s, func(t *tables) (*model.Person, error) { return t.GetPerson(ctx, id) })
}

func (s *Store) ListPersonsByIDs(ctx context.Context, ids []uint64) ([]model.Person, error) {
	return read(s, func(t *tables) ([]model.Person, error) { return t.ListPersonsByIDs(ctx, ids) })
}

func (s *Store) FindPersonByNameFold(ctx context.Context, name string) (*model.Person, error) {
	return read(s, func(t *tables) (*model.Person, error) { return t.FindPersonByNameFold(ctx, name) })
}

func (s *Store) ListPersonViews(ctx context.Context) ([]model.PersonView, error) {
	return read(s, func(t *tables) ([]model.PersonView, error) { return t.ListPersonViews(ctx) })
}

func (s *Store) CreatePerson(ctx context.Context, p *model.Person) error {
	return s.run(func(t *tables) error { return t.CreatePerson(ctx, p) })
}

func (s *Store) UpdatePerson(ctx context.Context, p *model.Person) error {
	return s.run(func(t *tables) error { return t.UpdatePerson(ctx, p) })
}

func (s *Store) DeletePersons(ctx context.Context, ids []uint64) (int64, error) {
	return read(s, func(t *tables) (int64, error) { return t.DeletePersons(ctx, ids) })
}

func (s *Store) ClearAmbassadorRefs(ctx context.Context, ambassadorIDs []uint64) (int64, error) {
	return read(s, func(t *tables) (int64, error) { return t.ClearAmbassadorRefs(ctx, ambassadorIDs) })
}

func (s *Store) AssignmentForPerson(ctx context.Context, personID uint64) (*model.SeatAssignment, error) {
	return read(s, func(t *tables) (*model.SeatAssignment, error) { return t.AssignmentForPerson(ctx, personID) })
}

func (s *Store) OccupantAt(ctx context.Context, desk, seat int) (*model.SeatAssignment, error) {
	return read(s, func(t *tables) (*model.SeatAssignment, error) { return t.OccupantAt(ctx, desk, seat) })
}

func (s *Store) ListAssignmentViews(ctx context.Context) ([]model.AssignmentView, error) {
	return read(s, func(t *tables) ([]model.AssignmentView, error) { return t.ListAssignmentViews(ctx) })
}

func (s *Store) DeleteAssignmentsForPersons(ctx context.Context, personIDs []uint64) (int64, error) {
	return read(s, func(t *tables) (int64, error) { return t.DeleteAssignmentsForPersons(ctx, personIDs) })
}

func (s *Store) InsertAssignment(ctx context.Context, a *model.SeatAssignment) error {
	return s.run(func(t *tables) error { return t.InsertAssignment(ctx, a) })
}

var (
	_ repository.Store   = (*Store)(nil)
	_ repository.Querier = (*tables)(nil)
)
