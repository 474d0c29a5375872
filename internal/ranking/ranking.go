package ranking

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
)

const weightEpsilon = 1e-9

// Weights control how much each factor contributes to a vendor's score.
// They must sum to 1.0.
type Weights struct {
	Availability float64
	Proximity    float64
	Rating       float64
	History      float64
	Load         float64
}

func DefaultWeights() Weights {
	return Weights{
		Availability: 0.30,
		Proximity:    0.25,
		Rating:       0.20,
		History:      0.15,
		Load:         0.10,
	}
}

func (w Weights) Sum() float64 {
	return w.Availability + w.Proximity + w.Rating + w.History + w.Load
}

func (w Weights) Validate() error {
	if w.Availability < 0 || w.Proximity < 0 || w.Rating < 0 || w.History < 0 || w.Load < 0 {
		return fmt.Errorf("weights must be non-negative: %+v", w)
	}
	if sum := w.Sum(); math.Abs(sum-1.0) > weightEpsilon {
		return fmt.Errorf("weights must sum to 1.0, got %g", sum)
	}
	return nil
}

// Factors are a vendor's normalized inputs, each in [0, 1]. Load is inverted
// by the caller: 1 means idle, 0 means fully booked.
type Factors struct {
	Availability float64
	Proximity    float64
	Rating       float64
	History      float64
	Load         float64
}

func (w Weights) Score(f Factors) float64 {
	return w.Availability*f.Availability +
		w.Proximity*f.Proximity +
		w.Rating*f.Rating +
		w.History*f.History +
		w.Load*f.Load
}

type Candidate struct {
	VendorID uuid.UUID
	Factors  Factors
	Score    float64
}

// Rank scores every candidate and returns them ordered best-first. Ties keep
// their input order.
func Rank(w Weights, candidates []Candidate) []Candidate {
	ranked := make([]Candidate, len(candidates))
	copy(ranked, candidates)

	for i := range ranked {
		ranked[i].Score = w.Score(ranked[i].Factors)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	return ranked
}
