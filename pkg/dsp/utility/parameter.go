// Package utility holds small per-parameter DSP helpers shared across
// modules.
package utility

import "math"

// SmoothParameter de-zippers a control-rate parameter with a one-pole
// filter, so a sudden target change (e.g. a MIDI CC write) arrives at the
// audio thread as a ramp instead of a step. The analog module's global LFO
// depth is the one parameter driven through a smoother today.
type SmoothParameter struct {
	current   float64
	target    float64
	smoothing float64
}

// NewSmoothParameter creates a smoother whose one-pole time constant is
// smoothingTime seconds at sampleRate: each smoothingTime closes about 63% of
// the remaining distance to a new target.
func NewSmoothParameter(smoothingTime, sampleRate float64) *SmoothParameter {
	smoothing := 1.0 - math.Exp(-1.0/(smoothingTime*sampleRate))
	return &SmoothParameter{
		smoothing: smoothing,
	}
}

// SetTarget sets the value the parameter ramps towards.
func (s *SmoothParameter) SetTarget(target float64) {
	s.target = target
}

// SetImmediate sets the parameter value immediately without smoothing.
func (s *SmoothParameter) SetImmediate(value float64) {
	s.current = value
	s.target = value
}

// Process returns the next smoothed value. Call once per sample.
func (s *SmoothParameter) Process() float64 {
	s.current += (s.target - s.current) * s.smoothing
	return s.current
}

// IsSmoothing reports whether the parameter is still ramping towards its
// target.
func (s *SmoothParameter) IsSmoothing() bool {
	const epsilon = 1e-6
	return math.Abs(s.current-s.target) > epsilon
}

// GetCurrent returns the current smoothed value without advancing it.
func (s *SmoothParameter) GetCurrent() float64 {
	return s.current
}
