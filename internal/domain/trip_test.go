package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTripAdd(t *testing.T) {
	trip := NewTrip(1, 400)

	require.NoError(t, trip.Add(DemandChunk{Boxes: 250}))
	require.NoError(t, trip.Add(DemandChunk{Boxes: 150}))
	assert.Equal(t, 400, trip.Load)
	assert.Len(t, trip.Chunks, 2)

	err := trip.Add(DemandChunk{Boxes: 1})
	require.Error(t, err)
	assert.Equal(t, 400, trip.Load, "failed add must not change load")
	assert.Len(t, trip.Chunks, 2)
	assert.False(t, trip.Fits(DemandChunk{Boxes: 1}))
}

func TestTourValidate(t *testing.T) {
	tests := []struct {
		name    string
		seq     []int
		stops   int
		wantErr bool
	}{
		{name: "valid", seq: []int{0, 2, 1, 3, 0}, stops: 3},
		{name: "single stop", seq: []int{0, 1, 0}, stops: 1},
		{name: "too short", seq: []int{0, 1, 2, 0}, stops: 3, wantErr: true},
		{name: "not closed", seq: []int{0, 1, 2, 3, 1}, stops: 3, wantErr: true},
		{name: "duplicate", seq: []int{0, 1, 1, 3, 0}, stops: 3, wantErr: true},
		{name: "out of range", seq: []int{0, 1, 4, 3, 0}, stops: 3, wantErr: true},
		{name: "depot twice", seq: []int{0, 1, 0, 3, 0}, stops: 3, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Tour{Sequence: tc.seq}.Validate(tc.stops)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTourLegs(t *testing.T) {
	assert.Equal(t, 4, Tour{Sequence: []int{0, 1, 2, 3, 0}}.Legs())
	assert.Equal(t, 0, Tour{}.Legs())
}

func TestErrorsMatchSentinels(t *testing.T) {
	var err error = NewInputError("vehicle_capacity", "must be positive")
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.False(t, errors.Is(err, ErrNoFeasibleTour))
	assert.Equal(t, "input error: vehicle_capacity: must be positive", err.Error())

	err = &SolverFailure{Reason: "no feasible arc"}
	assert.True(t, errors.Is(err, ErrNoFeasibleTour))

	var fail *SolverFailure
	assert.True(t, errors.As(err, &fail))
}

func TestCoordinatesIsFinite(t *testing.T) {
	assert.True(t, Coordinates{Lat: 24.7, Lon: 46.6}.IsFinite())
	assert.False(t, Coordinates{Lat: nan(), Lon: 46.6}.IsFinite())
}

func nan() float64 {
	zero := 0.0
	return zero / zero
}
