// Package generator builds constrained-random stimulus sequences.
package generator

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/verte-zerg/simonrt/internal/model"
	"github.com/verte-zerg/simonrt/internal/stimulus"
)

const defaultMaxAttempts = 100000

var (
	// ErrUnbalanced is returned when the variant counts are not an equal quartile split.
	ErrUnbalanced = errors.New("stimulus counts are not balanced")
	// ErrUnsatisfiable is returned when no ordering can respect the congruent run limit.
	ErrUnsatisfiable = errors.New("congruent run limit cannot be satisfied")
	// ErrRetriesExhausted is returned when the shuffle budget runs out.
	ErrRetriesExhausted = errors.New("no valid sequence found")
)

// Generator produces shuffled trial sequences.
type Generator struct {
	rnd         *rand.Rand
	maxAttempts int
	attempts    int
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a Generator with a fixed seed.
func NewSeeded(seed int64) *Generator {
	return &Generator{
		rnd:         rand.New(rand.NewSource(seed)),
		maxAttempts: defaultMaxAttempts,
	}
}

// WithMaxAttempts overrides the shuffle budget.
func (g *Generator) WithMaxAttempts(n int) *Generator {
	if n > 0 {
		g.maxAttempts = n
	}
	return g
}

// Rand exposes the shared random source so jitter draws follow the same seed.
func (g *Generator) Rand() *rand.Rand {
	return g.rnd
}

// Attempts returns how many shuffles the last Generate call needed.
func (g *Generator) Attempts() int {
	return g.attempts
}

// BalancedCounts splits n trials evenly over the four variants.
func BalancedCounts(n int) (map[stimulus.Variant]int, error) {
	if n <= 0 || n%4 != 0 {
		return nil, fmt.Errorf("%w: %d trials is not a positive multiple of 4", ErrUnbalanced, n)
	}
	counts := make(map[stimulus.Variant]int, len(stimulus.Variants))
	for _, v := range stimulus.Variants {
		counts[v] = n / 4
	}
	return counts, nil
}

// Generate shuffles the multiset described by counts until no run of
// consecutive congruent trials is longer than maxRun.
func (g *Generator) Generate(counts map[stimulus.Variant]int, maxRun int, keys stimulus.KeyMap) ([]model.TrialSpec, error) {
	if err := validateCounts(counts); err != nil {
		return nil, err
	}
	congruent, incongruent := 0, 0
	for v, n := range counts {
		if v.Congruent() {
			congruent += n
		} else {
			incongruent += n
		}
	}
	if !Satisfiable(congruent, incongruent, maxRun) {
		return nil, fmt.Errorf("%w: %d congruent and %d incongruent trials with max run %d",
			ErrUnsatisfiable, congruent, incongruent, maxRun)
	}

	seq := make([]model.TrialSpec, 0, congruent+incongruent)
	for _, v := range stimulus.Variants {
		for i := 0; i < counts[v]; i++ {
			seq = append(seq, model.TrialSpec{Variant: v, CorrectKey: keys.CorrectKey(v)})
		}
	}

	g.attempts = 0
	for g.attempts < g.maxAttempts {
		g.attempts++
		g.rnd.Shuffle(len(seq), func(i, j int) {
			seq[i], seq[j] = seq[j], seq[i]
		})
		if withinRunLimit(seq, maxRun) {
			return seq, nil
		}
	}
	return nil, fmt.Errorf("%w after %d shuffles (max run %d)", ErrRetriesExhausted, g.attempts, maxRun)
}

// Satisfiable reports whether congruent items can be spread over the gaps
// between incongruent items without exceeding maxRun in any gap.
func Satisfiable(congruent, incongruent, maxRun int) bool {
	if congruent == 0 {
		return true
	}
	if maxRun < 1 {
		return false
	}
	return congruent <= maxRun*(incongruent+1)
}

// LongestCongruentRun returns the longest stretch of consecutive congruent trials.
func LongestCongruentRun(seq []model.TrialSpec) int {
	longest, run := 0, 0
	for _, spec := range seq {
		if spec.Variant.Congruent() {
			run++
			if run > longest {
				longest = run
			}
			continue
		}
		run = 0
	}
	return longest
}

func withinRunLimit(seq []model.TrialSpec, maxRun int) bool {
	run := 0
	for _, spec := range seq {
		if !spec.Variant.Congruent() {
			run = 0
			continue
		}
		run++
		if run > maxRun {
			return false
		}
	}
	return true
}

func validateCounts(counts map[stimulus.Variant]int) error {
	if len(counts) != len(stimulus.Variants) {
		return fmt.Errorf("%w: expected counts for %d variants, got %d", ErrUnbalanced, len(stimulus.Variants), len(counts))
	}
	want := -1
	for _, v := range stimulus.Variants {
		n, ok := counts[v]
		if !ok {
			return fmt.Errorf("%w: missing count for %s", ErrUnbalanced, v)
		}
		if n <= 0 {
			return fmt.Errorf("%w: count for %s must be > 0", ErrUnbalanced, v)
		}
		if want == -1 {
			want = n
		}
		if n != want {
			return fmt.Errorf("%w: %s has %d trials, expected %d", ErrUnbalanced, v, n, want)
		}
	}
	return nil
}
