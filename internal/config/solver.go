package config

import (
	"time"
	"trip-planner-service/internal/domain"
)

// Solver holds the route-optimization options recognized by the planner.
type Solver struct {
	// Requests with more non-origin stops fail with TooManyLocationsError.
	MaxNonOriginLocations int
	// Dwell applied to stops without an explicit value.
	DefaultDwellMinutes int
	// Minutes in a planning day; every computed time must stay below it.
	DayBoundaryMinutes int
	// Up to this many stops the exact DP runs; above it the heuristic.
	ExactSolveCap int
	// Arriving before a window opens waits for the opening instead of failing.
	AllowEarlyArrival bool
	// Include the closing leg back to the origin in cost and feasibility.
	ReturnToOrigin bool
	// Maximum concurrent collaborator lookups per request.
	MatrixConcurrency int
	// Attempts per lookup, including the first one.
	LookupMaxAttempts int
	// Initial backoff between lookup attempts; doubles each retry.
	LookupBackoff time.Duration
}

func DefaultSolver() Solver {
	return Solver{
		MaxNonOriginLocations: 12,
		DefaultDwellMinutes:   domain.DefaultDwellMinutes,
		DayBoundaryMinutes:    domain.MinutesPerDay,
		ExactSolveCap:         10,
		AllowEarlyArrival:     true,
		ReturnToOrigin:        false,
		MatrixConcurrency:     5,
		LookupMaxAttempts:     4,
		LookupBackoff:         200 * time.Millisecond,
	}
}

// LoadSolver reads solver options from the environment on top of the defaults.
func LoadSolver() (Solver, error) {
	def := DefaultSolver()
	s := Solver{
		MaxNonOriginLocations: GetInt("MAX_NONORIGIN_LOCATIONS", def.MaxNonOriginLocations),
		DefaultDwellMinutes:   GetInt("DEFAULT_DWELL_MINUTES", def.DefaultDwellMinutes),
		DayBoundaryMinutes:    GetInt("DAY_BOUNDARY_MINUTES", def.DayBoundaryMinutes),
		ExactSolveCap:         GetInt("EXACT_SOLVE_CAP", def.ExactSolveCap),
		AllowEarlyArrival:     GetBool("ALLOW_EARLY_ARRIVAL", def.AllowEarlyArrival),
		ReturnToOrigin:        GetBool("RETURN_TO_ORIGIN", def.ReturnToOrigin),
		MatrixConcurrency:     GetInt("MATRIX_CONCURRENCY", def.MatrixConcurrency),
		LookupMaxAttempts:     GetInt("LOOKUP_MAX_ATTEMPTS", def.LookupMaxAttempts),
		LookupBackoff:         GetDuration("LOOKUP_BACKOFF", def.LookupBackoff),
	}
	if err := s.Validate(); err != nil {
		return Solver{}, err
	}
	return s, nil
}

// The exact DP indexes subsets with a bitmask; keep it far from overflow
// and from exhausting memory.
const maxExactSolveCap = 16

func (s Solver) Validate() error {
	switch {
	case s.MaxNonOriginLocations < 0:
		return domain.NewValidationError("MAX_NONORIGIN_LOCATIONS", "must not be negative, got %d", s.MaxNonOriginLocations)
	case s.DefaultDwellMinutes < 1:
		return domain.NewValidationError("DEFAULT_DWELL_MINUTES", "must be positive, got %d", s.DefaultDwellMinutes)
	case s.DayBoundaryMinutes < 1 || s.DayBoundaryMinutes > domain.MinutesPerDay:
		return domain.NewValidationError("DAY_BOUNDARY_MINUTES", "must be within 1..%d, got %d", domain.MinutesPerDay, s.DayBoundaryMinutes)
	case s.ExactSolveCap < 0 || s.ExactSolveCap > maxExactSolveCap:
		return domain.NewValidationError("EXACT_SOLVE_CAP", "must be within 0..%d, got %d", maxExactSolveCap, s.ExactSolveCap)
	case s.MatrixConcurrency < 1:
		return domain.NewValidationError("MATRIX_CONCURRENCY", "must be positive, got %d", s.MatrixConcurrency)
	case s.LookupMaxAttempts < 1:
		return domain.NewValidationError("LOOKUP_MAX_ATTEMPTS", "must be positive, got %d", s.LookupMaxAttempts)
	case s.LookupBackoff < 0:
		return domain.NewValidationError("LOOKUP_BACKOFF", "must not be negative, got %s", s.LookupBackoff)
	}
	return nil
}
