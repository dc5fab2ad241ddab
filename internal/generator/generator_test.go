package generator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/simonrt/internal/model"
	"github.com/verte-zerg/simonrt/internal/stimulus"
)

func countVariants(seq []model.TrialSpec) map[stimulus.Variant]int {
	out := map[stimulus.Variant]int{}
	for _, spec := range seq {
		out[spec.Variant]++
	}
	return out
}

func TestGenerateBalancedAndWithinRunLimit(t *testing.T) {
	tests := []struct {
		name   string
		trials int
		maxRun int
	}{
		{name: "training size", trials: 8, maxRun: 4},
		{name: "tight limit", trials: 12, maxRun: 2},
		{name: "block size", trials: 40, maxRun: 4},
		{name: "limit above length", trials: 16, maxRun: 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewSeeded(7)
			counts, err := BalancedCounts(tt.trials)
			require.NoError(t, err)
			seq, err := g.Generate(counts, tt.maxRun, stimulus.DefaultKeyMap)
			require.NoError(t, err)
			assert.Len(t, seq, tt.trials)
			assert.Equal(t, counts, countVariants(seq))
			assert.LessOrEqual(t, LongestCongruentRun(seq), tt.maxRun)
		})
	}
}

func TestGenerateAssignsCorrectKeyByLabel(t *testing.T) {
	counts, err := BalancedCounts(8)
	require.NoError(t, err)
	seq, err := NewSeeded(1).Generate(counts, 4, stimulus.DefaultKeyMap)
	require.NoError(t, err)
	for _, spec := range seq {
		if spec.Variant.Label == stimulus.LabelLeft {
			assert.Equal(t, stimulus.Key("z"), spec.CorrectKey)
		} else {
			assert.Equal(t, stimulus.Key("m"), spec.CorrectKey)
		}
	}
}

func TestGenerateDeterministicForSeed(t *testing.T) {
	counts, err := BalancedCounts(40)
	require.NoError(t, err)
	a, err := NewSeeded(42).Generate(counts, 3, stimulus.DefaultKeyMap)
	require.NoError(t, err)
	b, err := NewSeeded(42).Generate(counts, 3, stimulus.DefaultKeyMap)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGenerateNoAdjacentCongruentOverManySamples(t *testing.T) {
	counts := map[stimulus.Variant]int{stimulus.LL: 1, stimulus.LR: 1, stimulus.RR: 1, stimulus.RL: 1}
	g := NewSeeded(2024)
	for i := 0; i < 1000; i++ {
		seq, err := g.Generate(counts, 1, stimulus.DefaultKeyMap)
		require.NoError(t, err)
		require.Len(t, seq, 4)
		for j := 1; j < len(seq); j++ {
			if seq[j].Variant.Congruent() && seq[j-1].Variant.Congruent() {
				t.Fatalf("sample %d has adjacent congruent trials: %v", i, seq)
			}
		}
		// 6 placements of two congruent items, 3 of them valid: p=0.5 per shuffle.
		require.LessOrEqual(t, g.Attempts(), 64)
	}
}

func TestGenerateRejectsUnbalancedCounts(t *testing.T) {
	g := NewSeeded(1)
	tests := []struct {
		name   string
		counts map[stimulus.Variant]int
	}{
		{name: "unequal", counts: map[stimulus.Variant]int{stimulus.LL: 2, stimulus.LR: 1, stimulus.RR: 1, stimulus.RL: 1}},
		{name: "missing variant", counts: map[stimulus.Variant]int{stimulus.LL: 1, stimulus.LR: 1, stimulus.RR: 1}},
		{name: "zero", counts: map[stimulus.Variant]int{stimulus.LL: 0, stimulus.LR: 0, stimulus.RR: 0, stimulus.RL: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.Generate(tt.counts, 4, stimulus.DefaultKeyMap)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnbalanced))
		})
	}

	_, err := BalancedCounts(10)
	assert.ErrorIs(t, err, ErrUnbalanced)
}

func TestGenerateFailsFastWhenUnsatisfiable(t *testing.T) {
	counts, err := BalancedCounts(8)
	require.NoError(t, err)
	_, err = NewSeeded(1).Generate(counts, 0, stimulus.DefaultKeyMap)
	assert.ErrorIs(t, err, ErrUnsatisfiable)
}

func TestGenerateReportsExhaustedBudget(t *testing.T) {
	counts, err := BalancedCounts(160)
	require.NoError(t, err)
	_, err = NewSeeded(1).WithMaxAttempts(5).Generate(counts, 1, stimulus.DefaultKeyMap)
	assert.ErrorIs(t, err, ErrRetriesExhausted)
}

func TestSatisfiable(t *testing.T) {
	assert.True(t, Satisfiable(0, 4, 0))
	assert.False(t, Satisfiable(2, 2, 0))
	assert.True(t, Satisfiable(2, 2, 1))
	assert.True(t, Satisfiable(3, 2, 1))
	assert.False(t, Satisfiable(4, 2, 1))
	assert.True(t, Satisfiable(4, 0, 4))
}
