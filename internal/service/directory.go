package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/iliyamo/seat-planner/internal/model"
	"github.com/iliyamo/seat-planner/internal/queue"
	"github.com/iliyamo/seat-planner/internal/repository"
	"github.com/iliyamo/seat-planner/internal/validation"
)

// DeleteResult reports a committed batch delete.
type DeleteResult struct {
	Deleted int      `json:"deleted"`
	Names   []string `json:"names"`
	// Unlinked counts persons whose ambassador reference was cleared.
	Unlinked int64 `json:"unlinked,omitempty"`
}

// ListAmbassadors returns every ambassador, oldest first.
func (s *Service) ListAmbassadors(ctx context.Context) ([]model.Ambassador, error) {
	out, err := s.store.ListAmbassadors(ctx)
	return out, s.finish("list_ambassadors", fromStore(err, "list ambassadors"))
}

// CreateAmbassador adds an ambassador.  Names are unique case-sensitively.
func (s *Service) CreateAmbassador(ctx context.Context, in AmbassadorInput) (*model.Ambassador, error) {
	a, err := s.createAmbassador(ctx, in)
	return a, s.finish("create_ambassador", err)
}

func (s *Service) createAmbassador(ctx context.Context, in AmbassadorInput) (*model.Ambassador, error) {
	in.normalize()
	if err := rejected(validation.Check(in)); err != nil {
		return nil, err
	}
	a := &model.Ambassador{Name: in.Name}
	err := s.store.WithinTx(ctx, func(q repository.Querier) error {
		if err := nameFree(ctx, q, in.Name, 0); err != nil {
			return err
		}
		return fromStore(q.CreateAmbassador(ctx, a), "create ambassador")
	})
	if err != nil {
		return nil, err
	}
	s.changed(ctx)
	return a, nil
}

// RenameAmbassador changes an ambassador's name.  The new name may not
// belong to another ambassador.
func (s *Service) RenameAmbassador(ctx context.Context, id uint64, in AmbassadorInput) (*model.Ambassador, error) {
	a, err := s.renameAmbassador(ctx, id, in)
	return a, s.finish("rename_ambassador", err)
}

func (s *Service) renameAmbassador(ctx context.Context, id uint64, in AmbassadorInput) (*model.Ambassador, error) {
	in.normalize()
	if err := rejected(validation.Check(in)); err != nil {
		return nil, err
	}
	var a *model.Ambassador
	err := s.store.WithinTx(ctx, func(q repository.Querier) error {
		var err error
		if a, err = q.GetAmbassador(ctx, id); err != nil {
			return ambassadorErr(err, id)
		}
		if err := nameFree(ctx, q, in.Name, id); err != nil {
			return err
		}
		if err := q.RenameAmbassador(ctx, id, in.Name); err != nil {
			return fromStore(err, "rename ambassador")
		}
		a.Name = in.Name
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.changed(ctx)
	return a, nil
}

// DeleteAmbassador removes one ambassador.  Persons that referenced it
// keep existing with a null ambassador.
func (s *Service) DeleteAmbassador(ctx context.Context, id uint64) (*DeleteResult, error) {
	res, err := s.deleteAmbassadors(ctx, []uint64{id})
	return res, s.finish("delete_ambassador", err)
}

// DeleteAmbassadors removes several ambassadors atomically.  Any unknown
// id fails the whole call with NotFound.
func (s *Service) DeleteAmbassadors(ctx context.Context, in IDsInput) (*DeleteResult, error) {
	if err := rejected(validation.Check(in)); err != nil {
		return nil, s.finish("delete_ambassadors", err)
	}
	res, err := s.deleteAmbassadors(ctx, in.IDs)
	return res, s.finish("delete_ambassadors", err)
}

func (s *Service) deleteAmbassadors(ctx context.Context, ids []uint64) (*DeleteResult, error) {
	res := &DeleteResult{}
	err := s.store.WithinTx(ctx, func(q repository.Querier) error {
		found, err := q.ListAmbassadorsByIDs(ctx, ids)
		if err != nil {
			return fromStore(err, "load ambassadors")
		}
		known := make(map[uint64]string, len(found))
		for _, a := range found {
			known[a.ID] = a.Name
		}
		if missing := missingIDs(ids, known); len(missing) > 0 {
			if len(ids) == 1 {
				return notFound("ambassador %d not found", ids[0])
			}
			return notFound("ambassadors not found: %s", joinIDs(missing))
		}
		if res.Unlinked, err = q.ClearAmbassadorRefs(ctx, ids); err != nil {
			return fromStore(err, "clear ambassador references")
		}
		n, err := q.DeleteAmbassadors(ctx, ids)
		if err != nil {
			return fromStore(err, "delete ambassadors")
		}
		res.Deleted = int(n)
		for _, id := range ids {
			res.Names = append(res.Names, known[id])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.committed(ctx, queue.NewEvent(queue.EventAmbassadorsDeleted,
		fmt.Sprintf("deleted %d ambassadors, unlinked %d persons", res.Deleted, res.Unlinked)))
	return res, nil
}

// ListPersons returns every person with ambassador name and stored
// placement, in creation order.
func (s *Service) ListPersons(ctx context.Context) ([]model.PersonView, error) {
	out, err := s.store.ListPersonViews(ctx)
	return out, s.finish("list_persons", fromStore(err, "list persons"))
}

// ListAssignments returns the raw assignment rows joined with persons.
// Stale placements are returned as stored.
func (s *Service) ListAssignments(ctx context.Context) ([]model.AssignmentView, error) {
	out, err := s.store.ListAssignmentViews(ctx)
	return out, s.finish("list_assignments", fromStore(err, "list assignments"))
}

// CreatePerson adds a person in the waiting area.
func (s *Service) CreatePerson(ctx context.Context, in PersonInput) (*model.Person, error) {
	p, err := s.createPerson(ctx, in)
	return p, s.finish("create_person", err)
}

func (s *Service) createPerson(ctx context.Context, in PersonInput) (*model.Person, error) {
	in.normalize()
	if err := rejected(validation.Check(in)); err != nil {
		return nil, err
	}
	p := &model.Person{
		Name:         in.Name,
		AmbassadorID: in.AmbassadorID,
		Position:     in.Position,
		Tel:          in.Tel,
		Background:   in.Background,
		Info:         in.Info,
	}
	err := s.store.WithinTx(ctx, func(q repository.Querier) error {
		if err := ambassadorExists(ctx, q, p.AmbassadorID); err != nil {
			return err
		}
		return fromStore(q.CreatePerson(ctx, p), "create person")
	})
	if err != nil {
		return nil, err
	}
	s.changed(ctx)
	return p, nil
}

// UpdatePerson applies a partial update.  At least one field must be set.
func (s *Service) UpdatePerson(ctx context.Context, id uint64, patch PersonPatch) (*model.Person, error) {
	p, err := s.updatePerson(ctx, id, patch)
	return p, s.finish("update_person", err)
}

func (s *Service) updatePerson(ctx context.Context, id uint64, patch PersonPatch) (*model.Person, error) {
	patch.normalize()
	if patch.empty() {
		return nil, invalid("no fields to update")
	}
	if err := rejected(validation.Check(patch)); err != nil {
		return nil, err
	}
	var p *model.Person
	err := s.store.WithinTx(ctx, func(q repository.Querier) error {
		var err error
		if p, err = q.GetPerson(ctx, id); err != nil {
			if errors.Is(err, repository.ErrPersonNotFound) {
				return notFound("person %d not found", id)
			}
			return fromStore(err, "load person")
		}
		if patch.Name != nil {
			p.Name = *patch.Name
		}
		if patch.AmbassadorID != nil {
			p.AmbassadorID = nil
			if *patch.AmbassadorID != 0 {
				p.AmbassadorID = patch.AmbassadorID
			}
			if err := ambassadorExists(ctx, q, p.AmbassadorID); err != nil {
				return err
			}
		}
		if patch.Position != nil {
			p.Position = nil
			if *patch.Position != 0 {
				p.Position = patch.Position
			}
		}
		if patch.Tel != nil {
			p.Tel = optional(*patch.Tel)
		}
		if patch.Background != nil {
			p.Background = optional(*patch.Background)
		}
		if patch.Info != nil {
			p.Info = optional(*patch.Info)
		}
		return fromStore(q.UpdatePerson(ctx, p), "update person")
	})
	if err != nil {
		return nil, err
	}
	s.changed(ctx)
	return p, nil
}

// DeletePerson removes a person and their seat assignment.
func (s *Service) DeletePerson(ctx context.Context, id uint64) (*DeleteResult, error) {
	res, err := s.deletePersons(ctx, []uint64{id})
	return res, s.finish("delete_person", err)
}

// DeletePersons removes several persons and their seat assignments in
// one transaction.  Any unknown id fails the whole call with NotFound.
func (s *Service) DeletePersons(ctx context.Context, in IDsInput) (*DeleteResult, error) {
	if err := rejected(validation.Check(in)); err != nil {
		return nil, s.finish("delete_persons", err)
	}
	res, err := s.deletePersons(ctx, in.IDs)
	return res, s.finish("delete_persons", err)
}

func (s *Service) deletePersons(ctx context.Context, ids []uint64) (*DeleteResult, error) {
	res := &DeleteResult{}
	err := s.store.WithinTx(ctx, func(q repository.Querier) error {
		found, err := q.ListPersonsByIDs(ctx, ids)
		if err != nil {
			return fromStore(err, "load persons")
		}
		known := make(map[uint64]string, len(found))
		for _, p := range found {
			known[p.ID] = p.Name
		}
		if missing := missingIDs(ids, known); len(missing) > 0 {
			if len(ids) == 1 {
				return notFound("person %d not found", ids[0])
			}
			return notFound("persons not found: %s", joinIDs(missing))
		}
		if _, err := q.DeleteAssignmentsForPersons(ctx, ids); err != nil {
			return fromStore(err, "delete seat assignments")
		}
		n, err := q.DeletePersons(ctx, ids)
		if err != nil {
			return fromStore(err, "delete persons")
		}
		res.Deleted = int(n)
		for _, id := range ids {
			res.Names = append(res.Names, known[id])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	placements := make([]queue.Placement, len(ids))
	for i, id := range ids {
		placements[i] = queue.Placement{PersonID: id}
	}
	s.committed(ctx, queue.NewEvent(queue.EventPersonsDeleted,
		fmt.Sprintf("deleted %s", strings.Join(res.Names, ", ")), placements...))
	return res, nil
}

func nameFree(ctx context.Context, q repository.Querier, name string, self uint64) error {
	a, err := q.FindAmbassadorByName(ctx, name)
	switch {
	case errors.Is(err, repository.ErrAmbassadorNotFound):
		return nil
	case err != nil:
		return fromStore(err, "check ambassador name")
	case a.ID != self:
		return conflict("ambassador %q already exists", name)
	}
	return nil
}

func ambassadorExists(ctx context.Context, q repository.Querier, id *uint64) error {
	if id == nil {
		return nil
	}
	if _, err := q.GetAmbassador(ctx, *id); err != nil {
		if errors.Is(err, repository.ErrAmbassadorNotFound) {
			return invalid("validation failed", validation.FieldError{
				Field:   "ambassador_id",
				Message: fmt.Sprintf("ambassador %d does not exist", *id),
			})
		}
		return fromStore(err, "load ambassador")
	}
	return nil
}

func ambassadorErr(err error, id uint64) error {
	if errors.Is(err, repository.ErrAmbassadorNotFound) {
		return notFound("ambassador %d not found", id)
	}
	return fromStore(err, "load ambassador")
}

func missingIDs(ids []uint64, known map[uint64]string) []uint64 {
	var out []uint64
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

func joinIDs(ids []uint64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatUint(id, 10)
	}
	return strings.Join(parts, ", ")
}
