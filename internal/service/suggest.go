package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/iliyamo/seat-planner/internal/model"
	"github.com/iliyamo/seat-planner/internal/validation"
)

const (
	StrategyRandom       = "random"
	StrategyAlphabetical = "alphabetical"
)

// SuggestInput selects how waiting persons are spread over empty seats.
// Seed makes the random strategy reproducible; zero picks a fresh seed.
type SuggestInput struct {
	Strategy      string `json:"strategy" validate:"omitempty,oneof=random alphabetical"`
	Seed          int64  `json:"seed"`
	AvoidAdjacent bool   `json:"avoid_adjacent"`
}

// Suggestion proposes a seat for one waiting person.
type Suggestion struct {
	PersonID   uint64 `json:"person_id"`
	Name       string `json:"name"`
	DeskNumber int    `json:"desk_number"`
	SeatNumber int    `json:"seat_number"`
	Reason     string `json:"reason"`
}

// SuggestResult lists the proposals.  Nothing is written; a client that
// accepts them submits the placements through AssignBatch.
type SuggestResult struct {
	Strategy    string       `json:"strategy"`
	Suggestions []Suggestion `json:"suggestions"`
	Unplaced    int          `json:"unplaced"`
}

// Placements converts the suggestions into batch input.
func (r *SuggestResult) Placements() BatchInput {
	out := BatchInput{Placements: make([]Placement, len(r.Suggestions))}
	for i, sg := range r.Suggestions {
		d, st := sg.DeskNumber, sg.SeatNumber
		out.Placements[i] = Placement{PersonID: sg.PersonID, DeskNumber: &d, SeatNumber: &st}
	}
	return out
}

// Suggest proposes seats for the waiting roster using only seats that are
// currently empty.  Seated persons are never moved.
func (s *Service) Suggest(ctx context.Context, in SuggestInput) (*SuggestResult, error) {
	if err := rejected(validation.Check(in)); err != nil {
		return nil, s.finish("suggest", err)
	}
	layout, err := s.BuildLayout(ctx)
	if err != nil {
		return nil, err
	}
	strategy := in.Strategy
	if strategy == "" {
		strategy = StrategyRandom
	}

	var out []Suggestion
	if strategy == StrategyAlphabetical {
		out = alphabetical(layout)
	} else {
		out = s.shuffled(layout, in.Seed, in.AvoidAdjacent)
	}
	return &SuggestResult{
		Strategy:    strategy,
		Suggestions: out,
		Unplaced:    len(layout.Waiting) - len(out),
	}, s.finish("suggest", nil)
}

// alphabetical fills empty seats in grid order with waiting persons
// sorted by name.
func alphabetical(layout *model.Layout) []Suggestion {
	people := append([]model.PersonView(nil), layout.Waiting...)
	sort.SliceStable(people, func(i, j int) bool {
		a, b := strings.ToLower(people[i].Name), strings.ToLower(people[j].Name)
		if a != b {
			return a < b
		}
		return people[i].ID < people[j].ID
	})
	seats := layout.EmptySeats()
	n := min(len(people), len(seats))
	out := make([]Suggestion, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Suggestion{
			PersonID:   people[i].ID,
			Name:       people[i].Name,
			DeskNumber: seats[i].DeskNumber,
			SeatNumber: seats[i].SeatNumber,
			Reason:     fmt.Sprintf("alphabetical order, desk %d seat %d", seats[i].DeskNumber, seats[i].SeatNumber),
		})
	}
	return out
}

// shuffled pairs a shuffled roster with shuffled empty seats.  With
// avoidAdjacent each person takes the first remaining seat that is not
// next to one already suggested at the same round desk, when there is one.
func (s *Service) shuffled(layout *model.Layout, seed int64, avoidAdjacent bool) []Suggestion {
	r := s.newRand(seed)
	people := append([]model.PersonView(nil), layout.Waiting...)
	seats := layout.EmptySeats()
	r.Shuffle(len(people), func(i, j int) { people[i], people[j] = people[j], people[i] })
	r.Shuffle(len(seats), func(i, j int) { seats[i], seats[j] = seats[j], seats[i] })

	perDesk := layout.Config.SeatsPerDesk
	taken := map[int][]int{}
	out := make([]Suggestion, 0, min(len(people), len(seats)))
	for _, p := range people {
		if len(seats) == 0 {
			break
		}
		idx := 0
		reason := "random draw"
		if avoidAdjacent && len(out) > 0 {
			if j := firstApart(seats, taken, perDesk); j >= 0 {
				idx = j
				reason = "random draw, not next to another suggestion"
			}
		}
		seat := seats[idx]
		seats = append(seats[:idx], seats[idx+1:]...)
		taken[seat.DeskNumber] = append(taken[seat.DeskNumber], seat.SeatNumber)
		out = append(out, Suggestion{
			PersonID:   p.ID,
			Name:       p.Name,
			DeskNumber: seat.DeskNumber,
			SeatNumber: seat.SeatNumber,
			Reason:     reason,
		})
	}
	return out
}

func firstApart(seats []model.SeatCell, taken map[int][]int, perDesk int) int {
	for i, c := range seats {
		ok := true
		for _, t := range taken[c.DeskNumber] {
			if adjacent(c.SeatNumber, t, perDesk) {
				ok = false
				break
			}
		}
		if ok {
			return i
		}
	}
	return -1
}

// adjacent reports whether two seats of a round desk touch; the first and
// last seat are neighbours.
func adjacent(a, b, perDesk int) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d == 1 || (perDesk > 2 && d == perDesk-1)
}
