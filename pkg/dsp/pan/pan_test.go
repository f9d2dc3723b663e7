package pan

import (
	"math"
	"testing"
)

func TestMonoToStereo(t *testing.T) {
	tests := []struct {
		name string
		pan  float32
	}{
		{"Center", 0.0},
		{"Left", -1.0},
		{"Right", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			left, right := MonoToStereo(tt.pan, ConstantPower)

			if left < 0 || left > 1 || right < 0 || right > 1 {
				t.Errorf("Gains out of range: left=%f, right=%f", left, right)
			}

			switch tt.pan {
			case -1.0:
				if left < 0.9 || right > 0.1 {
					t.Errorf("Hard left incorrect: left=%f, right=%f", left, right)
				}
			case 0.0:
				if math.Abs(float64(left-right)) > 0.001 {
					t.Errorf("Center not balanced: left=%f, right=%f", left, right)
				}
				power := left*left + right*right
				if math.Abs(float64(power-1.0)) > 0.01 {
					t.Errorf("Constant power violation at center: %f", power)
				}
			case 1.0:
				if right < 0.9 || left > 0.1 {
					t.Errorf("Hard right incorrect: left=%f, right=%f", left, right)
				}
			}
		})
	}
}

func TestMonoToStereoConstantPowerAcrossRange(t *testing.T) {
	for _, p := range []float32{-1.0, -0.5, -0.25, 0.0, 0.25, 0.5, 1.0} {
		left, right := MonoToStereo(p, ConstantPower)
		power := left*left + right*right
		if math.Abs(float64(power-1.0)) > 0.01 {
			t.Errorf("pan=%f: expected L^2+R^2 == 1, got %f", p, power)
		}
	}
}

func BenchmarkMonoToStereo(b *testing.B) {
	pan := float32(0.5)
	for i := 0; i < b.N; i++ {
		_, _ = MonoToStereo(pan, ConstantPower)
	}
}
