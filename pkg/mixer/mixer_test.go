package mixer

import (
	"math"
	"testing"

	"github.com/auricle/auricle/pkg/param"
)

func TestEQBypassesWhenAllBandsNearZero(t *testing.T) {
	store := param.NewStore()
	eq := NewEQ(48000, 0)
	got := eq.Process(store, 0.5)
	if got != 0.5 {
		t.Errorf("expected bypass passthrough at default (0dB) gains, got %v", got)
	}
}

func TestEQAppliesGainWhenBandNonzero(t *testing.T) {
	store := param.NewStore()
	store.Set("part/0/eq/band/4/gain_db", param.F32(6.0))
	eq := NewEQ(48000, 0)

	// Feed a 1kHz sine (matches band 4's center) and confirm boosted energy.
	var boostedEnergy, flatEnergy float64
	boosted := NewEQ(48000, 0)
	flat := NewEQ(48000, 0)
	flatStore := param.NewStore()
	for i := 0; i < 2000; i++ {
		x := float32(math.Sin(2 * math.Pi * 1000 * float64(i) / 48000))
		b := boosted.Process(store, x)
		f := flat.Process(flatStore, x)
		boostedEnergy += float64(b) * float64(b)
		flatEnergy += float64(f) * float64(f)
	}
	_ = eq
	if boostedEnergy <= flatEnergy {
		t.Errorf("expected boosted band energy %v to exceed flat energy %v", boostedEnergy, flatEnergy)
	}
}

func TestHaasWidenerAdvancesEvenWhenDisabled(t *testing.T) {
	p := NewPart(48000, 0)
	store := param.NewStore()
	// 1000 frames is more than the 15 ms (720-sample) delay at 48 kHz.
	for i := 0; i < 1000; i++ {
		p.Process(store, 1.0, 0.0)
	}
	// haas is 0 by default; turning it on should not expose a stale
	// (silent) buffer because the pointer always advances.
	store.Set("part/0/mix/haas", param.F32(1.0))
	l, _ := p.Process(store, 1.0, 0.0)
	if l == 0 {
		t.Error("expected non-stale haas buffer content once enabled")
	}
}

func TestPartGainClampedToRangeTwo(t *testing.T) {
	p := NewPart(48000, 0)
	store := param.NewStore()
	store.Set("part/0/mix/gain_db", param.F32(40.0)) // far beyond +6dB (linear 2.0)
	l, _ := p.Process(store, 0.1, 0.0)
	if math.Abs(float64(l)) > 0.2*2.0+1e-6 {
		t.Errorf("expected gain to clamp to 2.0x, output too large: %v", l)
	}
}

func TestBusSoftClipsBeyondUnity(t *testing.T) {
	l, r := Bus(5.0, -5.0)
	if l <= 0.99 || l >= 1.0 {
		t.Errorf("expected left to soft-clip near but under 1.0, got %v", l)
	}
	if r >= -0.99 || r <= -1.0 {
		t.Errorf("expected right to soft-clip near but under -1.0, got %v", r)
	}
}
