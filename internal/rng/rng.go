package rng

import "math/rand"

// Source supplies the uniform draws behind weighted selection and VIP rolls.
// Injecting it keeps draws deterministically replayable in tests.
type Source interface {
	Float64() float64
}

type systemSource struct{}

// NewSystem returns the process-wide random source. Safe for concurrent use.
func NewSystem() Source {
	return systemSource{}
}

func (systemSource) Float64() float64 {
	return rand.Float64()
}

type seededSource struct {
	r *rand.Rand
}

// NewSeeded returns a reproducible source for tests. Not safe for concurrent use.
func NewSeeded(seed uint64) Source {
	return seededSource{r: rand.New(rand.NewSource(int64(seed)))}
}

func (s seededSource) Float64() float64 {
	return s.r.Float64()
}

// Sequence replays a fixed list of draws, cycling when exhausted. Tests use it
// to force a specific selection or VIP roll outcome.
type Sequence struct {
	values []float64
	next   int
}

func NewSequence(values ...float64) *Sequence {
	return &Sequence{values: values}
}

func (s *Sequence) Float64() float64 {
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}
