package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggest_Alphabetical(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.config(t, 1, 4)
	seated := f.person(t, "Xavier")
	f.seat(t, seated.ID, 1, 1)
	carol, alice, bob := f.person(t, "Carol"), f.person(t, "alice"), f.person(t, "Bob")
	before := f.store.Snapshot()

	res, err := f.svc.Suggest(ctx, SuggestInput{Strategy: StrategyAlphabetical})
	require.NoError(t, err)
	assert.Equal(t, StrategyAlphabetical, res.Strategy)
	assert.Equal(t, 0, res.Unplaced)
	require.Len(t, res.Suggestions, 3)

	want := []struct {
		id   uint64
		seat int
	}{{alice.ID, 2}, {bob.ID, 3}, {carol.ID, 4}}
	for i, w := range want {
		assert.Equal(t, w.id, res.Suggestions[i].PersonID)
		assert.Equal(t, 1, res.Suggestions[i].DeskNumber)
		assert.Equal(t, w.seat, res.Suggestions[i].SeatNumber)
	}
	assert.Equal(t, before, f.store.Snapshot(), "suggestions are not saved")
}

func TestSuggest_RandomIsReproducibleAndUsesEmptySeats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.config(t, 2, 4)
	seated := f.person(t, "Seated")
	f.seat(t, seated.ID, 2, 3)
	for _, n := range []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J"} {
		f.person(t, n)
	}

	first, err := f.svc.Suggest(ctx, SuggestInput{Seed: 7})
	require.NoError(t, err)
	again, err := f.svc.Suggest(ctx, SuggestInput{Strategy: StrategyRandom, Seed: 7})
	require.NoError(t, err)
	assert.Equal(t, first.Suggestions, again.Suggestions)
	assert.Equal(t, StrategyRandom, first.Strategy)

	require.Len(t, first.Suggestions, 7)
	assert.Equal(t, 3, first.Unplaced)
	used := map[[2]int]bool{}
	for _, sg := range first.Suggestions {
		cell := [2]int{sg.DeskNumber, sg.SeatNumber}
		assert.NotEqual(t, [2]int{2, 3}, cell, "occupied seat offered")
		assert.False(t, used[cell], "seat offered twice")
		used[cell] = true
		assert.NotEqual(t, seated.ID, sg.PersonID)
	}

	n, err := f.svc.AssignBatch(ctx, first.Placements())
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	layout, err := f.svc.BuildLayout(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, layout.Stats.OccupiedSeats)
	assert.Equal(t, 3, layout.Stats.WaitingCount)
}

func TestSuggest_AvoidAdjacent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.config(t, 2, 8)
	for _, n := range []string{"A", "B", "C", "D", "E", "F"} {
		f.person(t, n)
	}

	for seed := int64(1); seed <= 20; seed++ {
		res, err := f.svc.Suggest(ctx, SuggestInput{Seed: seed, AvoidAdjacent: true})
		require.NoError(t, err)
		require.Len(t, res.Suggestions, 6)
		for i, a := range res.Suggestions {
			for _, b := range res.Suggestions[i+1:] {
				if a.DeskNumber == b.DeskNumber {
					assert.False(t, adjacent(a.SeatNumber, b.SeatNumber, 8),
						"seed %d: seats %d and %d at desk %d", seed, a.SeatNumber, b.SeatNumber, a.DeskNumber)
				}
			}
		}
	}
}

func TestSuggest_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Suggest(ctx, SuggestInput{})
	requireKind(t, KindNotFound, err)

	f.config(t, 1, 4)
	_, err = f.svc.Suggest(ctx, SuggestInput{Strategy: "by-height"})
	requireKind(t, KindValidation, err)
}

func TestAdjacent(t *testing.T) {
	assert.True(t, adjacent(1, 2, 8))
	assert.True(t, adjacent(8, 1, 8))
	assert.False(t, adjacent(1, 3, 8))
	assert.False(t, adjacent(4, 4, 8))
}
