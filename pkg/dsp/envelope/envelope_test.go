package envelope

import (
	"math"
	"testing"
)

func TestADSRAttackReachesFullInExactTime(t *testing.T) {
	sampleRate := 48000.0
	attackSeconds := 0.1
	e := New(sampleRate)
	e.SetADSR(attackSeconds, 0.1, 0.7, 0.1)
	e.Trigger()

	samples := int(attackSeconds * sampleRate)
	var last float32
	for i := 0; i < samples; i++ {
		last = e.Next()
	}
	if math.Abs(float64(last)-1.0) > 1e-6 {
		t.Errorf("after %d samples (%.3fs attack), envelope = %v, want ~1.0", samples, attackSeconds, last)
	}
	if e.GetStage() != StageDecay {
		t.Errorf("stage = %v, want StageDecay once attack completes", e.GetStage())
	}
}

func TestADSRAttackIsLinear(t *testing.T) {
	sampleRate := 48000.0
	e := New(sampleRate)
	e.SetADSR(0.1, 0.1, 0.7, 0.1)
	e.Trigger()

	first := e.Next()
	second := e.Next()
	step := second - first
	for i := 0; i < 100; i++ {
		next := e.Next()
		got := next - second
		if math.Abs(float64(got-step)) > 1e-6 {
			t.Fatalf("attack step not constant: got %v, want %v", got, step)
		}
		second = next
	}
}

func TestADSRDecayReachesSustain(t *testing.T) {
	sampleRate := 48000.0
	sustain := 0.3
	decaySeconds := 0.2
	e := New(sampleRate)
	e.SetADSR(0.01, decaySeconds, sustain, 0.1)
	e.Trigger()

	// Run past attack into decay.
	for e.GetStage() == StageAttack {
		e.Next()
	}
	samples := int(decaySeconds * sampleRate)
	var last float32
	for i := 0; i < samples+2; i++ {
		last = e.Next()
	}
	if math.Abs(float64(last)-sustain) > 1e-6 {
		t.Errorf("after decay, envelope = %v, want sustain %v", last, sustain)
	}
	if e.GetStage() != StageSustain {
		t.Errorf("stage = %v, want StageSustain", e.GetStage())
	}
}

func TestADSRSustainHolds(t *testing.T) {
	sampleRate := 48000.0
	sustain := 0.45
	e := New(sampleRate)
	e.SetADSR(0.001, 0.001, sustain, 0.1)
	e.Trigger()
	for e.GetStage() != StageSustain {
		e.Next()
	}
	for i := 0; i < 1000; i++ {
		v := e.Next()
		if math.Abs(float64(v)-sustain) > 1e-6 {
			t.Fatalf("sustain drifted: got %v, want %v", v, sustain)
		}
	}
}

func TestADSRReleaseReachesZeroInExactTimeRegardlessOfStartValue(t *testing.T) {
	sampleRate := 48000.0
	releaseSeconds := 0.15

	for _, sustain := range []float64{0.2, 0.6, 1.0} {
		e := New(sampleRate)
		e.SetADSR(0.001, 0.001, sustain, releaseSeconds)
		e.Trigger()
		for e.GetStage() != StageSustain {
			e.Next()
		}
		e.Release()

		samples := int(releaseSeconds * sampleRate)
		var last float32
		for i := 0; i < samples+2; i++ {
			last = e.Next()
		}
		if math.Abs(float64(last)) > 1e-6 {
			t.Errorf("sustain %v: after release, envelope = %v, want 0", sustain, last)
		}
		if e.GetStage() != StageIdle {
			t.Errorf("sustain %v: stage = %v, want StageIdle", sustain, e.GetStage())
		}
	}
}

func TestADSRReleaseFromMidAttack(t *testing.T) {
	sampleRate := 48000.0
	e := New(sampleRate)
	e.SetADSR(1.0, 0.1, 0.7, 0.2)
	e.Trigger()
	for i := 0; i < 100; i++ {
		e.Next()
	}
	e.Release()
	if e.GetStage() != StageRelease {
		t.Fatalf("stage = %v, want StageRelease", e.GetStage())
	}
	for i := 0; i < int(0.2*sampleRate)+2; i++ {
		e.Next()
	}
	if e.GetStage() != StageIdle {
		t.Errorf("stage = %v, want StageIdle", e.GetStage())
	}
}

func TestADSRResetReturnsToIdle(t *testing.T) {
	e := New(48000.0)
	e.Trigger()
	e.Next()
	e.Reset()
	if e.IsActive() {
		t.Error("IsActive() = true after Reset")
	}
	if e.GetStage() != StageIdle {
		t.Errorf("stage = %v, want StageIdle", e.GetStage())
	}
	if v := e.Next(); v != 0 {
		t.Errorf("Next() after reset = %v, want 0", v)
	}
}

func TestADSRProcessMultiply(t *testing.T) {
	e := New(48000.0)
	e.SetADSR(0.001, 0.001, 1.0, 0.1)
	e.Trigger()
	for e.GetStage() != StageSustain {
		e.Next()
	}

	buf := make([]float32, 8)
	for i := range buf {
		buf[i] = 2.0
	}
	e.ProcessMultiply(buf)
	for i, v := range buf {
		if math.Abs(float64(v)-2.0) > 1e-5 {
			t.Errorf("buf[%d] = %v, want ~2.0 at full sustain", i, v)
		}
	}
}
