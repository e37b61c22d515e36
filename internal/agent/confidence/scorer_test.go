package confidence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		f    Factors
		want float64
	}{
		{
			name: "perfect inputs",
			f:    Factors{SourceQuality: 1, QueryComplexity: 0, ContextCompleteness: 1, ToolSuccessRate: 1},
			want: 1.0,
		},
		{
			name: "worst inputs",
			f:    Factors{SourceQuality: 0, QueryComplexity: 1, ContextCompleteness: 0, ToolSuccessRate: 0},
			want: 0.0,
		},
		{
			name: "weighted blend",
			f:    Factors{SourceQuality: 0.8, QueryComplexity: 0.5, ContextCompleteness: 0.6, ToolSuccessRate: 1},
			// 0.3*0.8 + 0.2*0.5 + 0.3*0.6 + 0.2*1
			want: 0.72,
		},
		{
			name: "conflict halves the score",
			f:    Factors{SourceQuality: 1, QueryComplexity: 0, ContextCompleteness: 1, ToolSuccessRate: 1, ConflictDetected: true},
			want: 0.5,
		},
		{
			name: "out of range inputs are clamped",
			f:    Factors{SourceQuality: 3, QueryComplexity: -2, ContextCompleteness: 5, ToolSuccessRate: 2},
			want: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Score(tt.f), 1e-9)
		})
	}
}

func TestScoreAlwaysInRange(t *testing.T) {
	for _, f := range []Factors{
		{SourceQuality: -1, QueryComplexity: 2, ContextCompleteness: -3, ToolSuccessRate: 9},
		{SourceQuality: 0.5, ConflictDetected: true},
		{},
	} {
		s := Score(f)
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
	}
}
