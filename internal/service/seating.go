package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pkg/errors"

	"github.com/iliyamo/seat-planner/internal/model"
	"github.com/iliyamo/seat-planner/internal/queue"
	"github.com/iliyamo/seat-planner/internal/repository"
	"github.com/iliyamo/seat-planner/internal/validation"
)

// AssignResult is the stored row written by AssignSingle plus a message
// for the operator.
type AssignResult struct {
	Assignment model.SeatAssignment `json:"assignment"`
	Message    string               `json:"message"`
}

// UnassignOutcome tells a real move apart from a no-op.
type UnassignOutcome int

const (
	UnassignMoved UnassignOutcome = iota + 1
	UnassignAlreadyWaiting
)

func (o UnassignOutcome) String() string {
	if o == UnassignAlreadyWaiting {
		return "already_waiting"
	}
	return "moved"
}

// AssignSingle places one person at desk/seat, or in the waiting area
// when both are nil.  A seat held by somebody else is a conflict; the
// occupant is never displaced.
func (s *Service) AssignSingle(ctx context.Context, in Placement) (*AssignResult, error) {
	res, err := s.assignSingle(ctx, in)
	return res, s.finish("assign_single", err)
}

func (s *Service) assignSingle(ctx context.Context, in Placement) (*AssignResult, error) {
	check := validation.Check(in)
	if in.halfSet() {
		check.Add("seat_number", "desk_number and seat_number must both be set or both be null")
	}
	if err := rejected(check); err != nil {
		return nil, err
	}

	var row model.SeatAssignment
	err := s.store.WithinTx(ctx, func(q repository.Querier) error {
		if err := personExists(ctx, q, in.PersonID); err != nil {
			return err
		}
		if in.DeskNumber != nil {
			cfg, err := currentConfig(ctx, q)
			if err != nil {
				return err
			}
			if !cfg.InRange(*in.DeskNumber, *in.SeatNumber) {
				return outOfRange(cfg, "desk_number", in)
			}
			occ, err := q.OccupantAt(ctx, *in.DeskNumber, *in.SeatNumber)
			switch {
			case errors.Is(err, repository.ErrAssignmentNotFound):
			case err != nil:
				return fromStore(err, "check seat occupancy")
			case occ.PersonID != in.PersonID:
				return conflict("desk %d seat %d is occupied", *in.DeskNumber, *in.SeatNumber)
			}
		}
		if _, err := q.DeleteAssignmentsForPersons(ctx, []uint64{in.PersonID}); err != nil {
			return fromStore(err, "remove previous placement")
		}
		row = model.SeatAssignment{PersonID: in.PersonID, DeskNumber: in.DeskNumber, SeatNumber: in.SeatNumber}
		if err := q.InsertAssignment(ctx, &row); err != nil {
			// a concurrent writer took the seat after the occupancy check
			return fromStore(err, "seat was taken by another assignment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	msg := "moved to waiting area"
	if row.Seated() {
		msg = fmt.Sprintf("assigned to desk %d seat %d", *row.DeskNumber, *row.SeatNumber)
	}
	s.committed(ctx, queue.NewEvent(eventFor(row), fmt.Sprintf("person %d %s", row.PersonID, msg), toQueue(in)))
	return &AssignResult{Assignment: row, Message: msg}, nil
}

// AssignBatch commits several placements atomically.  All existing rows
// of the listed persons are deleted before any new row is inserted, so a
// set of persons may trade seats in one call.  Seats are not checked for
// duplicates within the batch; the unique index rejects inconsistent
// input and the whole batch rolls back.
func (s *Service) AssignBatch(ctx context.Context, in BatchInput) (int, error) {
	n, err := s.assignBatch(ctx, in)
	return n, s.finish("assign_batch", err)
}

func (s *Service) assignBatch(ctx context.Context, in BatchInput) (int, error) {
	check := validation.Check(in)
	seen := make(map[uint64]bool, len(in.Placements))
	ids := make([]uint64, 0, len(in.Placements))
	for i, p := range in.Placements {
		if p.halfSet() {
			check.Add(fmt.Sprintf("assignments[%d].seat_number", i), "desk_number and seat_number must both be set or both be null")
		}
		if seen[p.PersonID] {
			check.Add(fmt.Sprintf("assignments[%d].person_id", i), "person "+strconv.FormatUint(p.PersonID, 10)+" is listed more than once")
			continue
		}
		seen[p.PersonID] = true
		ids = append(ids, p.PersonID)
	}
	if err := rejected(check); err != nil {
		return 0, err
	}

	err := s.store.WithinTx(ctx, func(q repository.Querier) error {
		found, err := q.ListPersonsByIDs(ctx, ids)
		if err != nil {
			return fromStore(err, "load persons")
		}
		exists := make(map[uint64]bool, len(found))
		for _, p := range found {
			exists[p.ID] = true
		}
		for i, id := range ids {
			if !exists[id] {
				return invalid(fmt.Sprintf("person %d does not exist", id), validation.FieldError{
					Field:   fmt.Sprintf("assignments[%d].person_id", i),
					Message: fmt.Sprintf("person %d does not exist", id),
				})
			}
		}

		cfg, err := currentConfig(ctx, q)
		if err != nil {
			return err
		}
		for i, p := range in.Placements {
			if p.DeskNumber != nil && !cfg.InRange(*p.DeskNumber, *p.SeatNumber) {
				return outOfRange(cfg, fmt.Sprintf("assignments[%d].desk_number", i), p)
			}
		}

		if _, err := q.DeleteAssignmentsForPersons(ctx, ids); err != nil {
			return fromStore(err, "remove previous placements")
		}
		for _, p := range in.Placements {
			row := model.SeatAssignment{PersonID: p.PersonID, DeskNumber: p.DeskNumber, SeatNumber: p.SeatNumber}
			if err := q.InsertAssignment(ctx, &row); err != nil {
				return fromStore(err, fmt.Sprintf("placement of person %d collides with another seat", p.PersonID))
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	placements := make([]queue.Placement, len(in.Placements))
	for i, p := range in.Placements {
		placements[i] = toQueue(p)
	}
	s.committed(ctx, queue.NewEvent(queue.EventBatchAssigned,
		fmt.Sprintf("%d placements saved", len(in.Placements)), placements...))
	return len(in.Placements), nil
}

// Unassign moves a person to the waiting area.  It is idempotent: a
// person who has no row, a waiting-area row, or a placement outside the
// current grid is reported as UnassignAlreadyWaiting.  A waiting-area
// row is written either way.
func (s *Service) Unassign(ctx context.Context, personID uint64) (UnassignOutcome, error) {
	out, err := s.unassign(ctx, personID)
	return out, s.finish("unassign", err)
}

func (s *Service) unassign(ctx context.Context, personID uint64) (UnassignOutcome, error) {
	if personID == 0 {
		return 0, invalid("validation failed", validation.FieldError{Field: "person_id", Message: "is required"})
	}
	outcome := UnassignAlreadyWaiting
	stale := false
	err := s.store.WithinTx(ctx, func(q repository.Querier) error {
		if err := personExists(ctx, q, personID); err != nil {
			return err
		}
		prev, err := q.AssignmentForPerson(ctx, personID)
		switch {
		case errors.Is(err, repository.ErrAssignmentNotFound):
		case err != nil:
			return fromStore(err, "load placement")
		case prev.Seated():
			cfg, err := currentConfig(ctx, q)
			if err != nil {
				return err
			}
			// A placement outside the current grid already reconciles to
			// the waiting area.
			if cfg.InRange(*prev.DeskNumber, *prev.SeatNumber) {
				outcome = UnassignMoved
			} else {
				stale = true
			}
		}
		if _, err := q.DeleteAssignmentsForPersons(ctx, []uint64{personID}); err != nil {
			return fromStore(err, "remove placement")
		}
		return fromStore(q.InsertAssignment(ctx, &model.SeatAssignment{PersonID: personID}), "write waiting placement")
	})
	if err != nil {
		return 0, err
	}
	switch {
	case outcome == UnassignMoved:
		s.committed(ctx, queue.NewEvent(queue.EventSeatUnassigned,
			fmt.Sprintf("person %d moved to waiting area", personID), queue.Placement{PersonID: personID}))
	case stale:
		s.changed(ctx)
	}
	return outcome, nil
}

func personExists(ctx context.Context, q repository.Querier, id uint64) error {
	if _, err := q.GetPerson(ctx, id); err != nil {
		if errors.Is(err, repository.ErrPersonNotFound) {
			return notFound("person %d not found", id)
		}
		return fromStore(err, "load person")
	}
	return nil
}

// currentConfig returns the authoritative config, or the built-in
// default when none has been saved yet.
func currentConfig(ctx context.Context, q repository.Querier) (model.Config, error) {
	cfg, err := q.LatestConfig(ctx)
	if errors.Is(err, repository.ErrConfigNotFound) {
		return model.DefaultConfig(), nil
	}
	if err != nil {
		return model.Config{}, fromStore(err, "load config")
	}
	return *cfg, nil
}

func outOfRange(cfg model.Config, field string, p Placement) error {
	msg := fmt.Sprintf("desk %d seat %d is outside the %d x %d layout",
		*p.DeskNumber, *p.SeatNumber, cfg.DeskCount, cfg.SeatsPerDesk)
	return invalid(msg, validation.FieldError{Field: field, Message: msg})
}

func eventFor(row model.SeatAssignment) queue.EventType {
	if row.Seated() {
		return queue.EventSeatAssigned
	}
	return queue.EventSeatUnassigned
}

func toQueue(p Placement) queue.Placement {
	return queue.Placement{PersonID: p.PersonID, DeskNumber: p.DeskNumber, SeatNumber: p.SeatNumber}
}
