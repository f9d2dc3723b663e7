package utility

import (
	"math"
	"testing"
)

func TestSmoothParameterRampsTowardTarget(t *testing.T) {
	smoother := NewSmoothParameter(0.01, 48000)

	smoother.SetImmediate(0.0)
	smoother.SetTarget(1.0)

	if !smoother.IsSmoothing() {
		t.Error("Expected parameter to be smoothing")
	}

	prev := smoother.GetCurrent()
	for i := 0; i < 100; i++ {
		current := smoother.Process()
		if current <= prev {
			t.Errorf("Expected smoothed value to increase: %f -> %f", prev, current)
		}
		prev = current
	}

	for i := 0; i < 10000; i++ {
		smoother.Process()
	}

	final := smoother.GetCurrent()
	if math.Abs(final-1.0) > 0.01 {
		t.Errorf("Expected smoothed value to reach near target: %f", final)
	}
}

func TestSmoothParameterSetImmediateSkipsRamp(t *testing.T) {
	smoother := NewSmoothParameter(0.01, 48000)
	smoother.SetImmediate(0.5)

	if smoother.IsSmoothing() {
		t.Error("Expected no smoothing immediately after SetImmediate")
	}
	if got := smoother.GetCurrent(); got != 0.5 {
		t.Errorf("GetCurrent() = %f, want 0.5", got)
	}
}

func TestSmoothParameterStopsSmoothingOnceSettled(t *testing.T) {
	smoother := NewSmoothParameter(0.001, 48000)
	smoother.SetImmediate(0.0)
	smoother.SetTarget(1.0)

	for i := 0; i < 100000; i++ {
		smoother.Process()
	}

	if smoother.IsSmoothing() {
		t.Error("Expected smoothing to have settled after many samples")
	}
}
