package confidence

import logx "github.com/inboundiq/server/pkg/logger"

const (
	sourceQualityWeight   = 0.3
	complexityWeight      = 0.2
	completenessWeight    = 0.3
	toolSuccessWeight     = 0.2
	conflictPenaltyFactor = 0.5
)

// Factors are the normalized inputs to a confidence score, each in [0, 1].
type Factors struct {
	SourceQuality       float64
	QueryComplexity     float64
	ContextCompleteness float64
	ToolSuccessRate     float64
	ConflictDetected    bool
}

// Score blends the factors into a single confidence value in [0, 1].
// Complexity counts against confidence, and a detected source conflict
// halves the result regardless of how strong the rest looks.
func Score(f Factors) float64 {
	s := sourceQualityWeight*clamp(f.SourceQuality) +
		complexityWeight*(1-clamp(f.QueryComplexity)) +
		completenessWeight*clamp(f.ContextCompleteness) +
		toolSuccessWeight*clamp(f.ToolSuccessRate)
	if f.ConflictDetected {
		s *= conflictPenaltyFactor
	}
	s = clamp(s)
	logx.Debug().
		Float64("sourceQuality", f.SourceQuality).
		Float64("queryComplexity", f.QueryComplexity).
		Float64("contextCompleteness", f.ContextCompleteness).
		Float64("toolSuccessRate", f.ToolSuccessRate).
		Bool("conflict", f.ConflictDetected).
		Float64("score", s).
		Msg("confidence scored")
	return s
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
