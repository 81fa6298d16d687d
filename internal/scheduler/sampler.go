package scheduler

import (
	"math/rand"
	"sync"
)

// Sampler produces a fresh value for a named field.
type Sampler interface {
	Sample(field string) int
}

// SamplerFunc adapts a function to Sampler.
type SamplerFunc func(field string) int

func (f SamplerFunc) Sample(field string) int { return f(field) }

// RandomSampler draws uniform integers in [min, max]. It is safe for
// concurrent use by every page task.
type RandomSampler struct {
	mu  sync.Mutex
	rng *rand.Rand
	min int
	max int
}

func NewRandomSampler(min, max int, seed int64) *RandomSampler {
	if max < min {
		min, max = max, min
	}
	return &RandomSampler{
		rng: rand.New(rand.NewSource(seed)),
		min: min,
		max: max,
	}
}

func (s *RandomSampler) Sample(string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.min + s.rng.Intn(s.max-s.min+1)
}
