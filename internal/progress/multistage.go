package progress

import (
	"fmt"
	"math"
	"sync"

	"github.com/clipforge/clipforge/internal/fault"
)

// Stage is one weighted pipeline phase (normalize, compose, encode).
type Stage struct {
	Name   string
	Weight float64
}

// weightTolerance allows for float accumulation when checking that stage
// weights sum to 1.
const weightTolerance = 1e-6

// MultiStage maps several per-stage percentages into one continuous 0-100
// curve. Safe for concurrent use: the engine's progress callback and the
// orchestrator update different stages.
type MultiStage struct {
	mu       sync.Mutex
	weights  map[string]float64
	percents map[string]float64
	current  string
}

// NewMultiStage validates that the stage weights sum to 1.0 and returns an
// aggregator with every stage at zero.
func NewMultiStage(stages []Stage) (*MultiStage, error) {
	if len(stages) == 0 {
		return nil, fault.Validation("invalid_stages", "at least one progress stage is required", nil)
	}

	weights := make(map[string]float64, len(stages))
	percents := make(map[string]float64, len(stages))
	var sum float64
	for _, s := range stages {
		if s.Weight <= 0 {
			return nil, fault.Validation("invalid_stages",
				fmt.Sprintf("stage %q weight %.4f must be positive", s.Name, s.Weight), nil)
		}
		if _, dup := weights[s.Name]; dup {
			return nil, fault.Validation("invalid_stages",
				fmt.Sprintf("duplicate stage %q", s.Name), nil)
		}
		weights[s.Name] = s.Weight
		percents[s.Name] = 0
		sum += s.Weight
	}
	if math.Abs(sum-1.0) > weightTolerance {
		return nil, fault.Validation("invalid_stages",
			fmt.Sprintf("stage weights sum to %.4f, must sum to 1.0", sum), nil)
	}

	return &MultiStage{weights: weights, percents: percents}, nil
}

// Update records a stage's percentage, clamped to [0,100]. Decreases are
// ignored so the overall curve stays monotonic.
func (m *MultiStage) Update(stage string, percent float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.weights[stage]; !ok {
		return fault.Validation("unknown_stage", fmt.Sprintf("unknown progress stage %q", stage), nil)
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	if percent > m.percents[stage] {
		m.percents[stage] = percent
	}
	m.current = stage
	return nil
}

// CompleteStage pins a stage at 100%.
func (m *MultiStage) CompleteStage(stage string) error {
	return m.Update(stage, 100)
}

// Overall is the weighted sum of all stage percentages.
func (m *MultiStage) Overall() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	var overall float64
	for name, weight := range m.weights {
		overall += weight * m.percents[name]
	}
	return overall
}

// CurrentStage is the last stage that received an update.
func (m *MultiStage) CurrentStage() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}
