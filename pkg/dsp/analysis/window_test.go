package analysis

import "testing"

func TestApplyHannWindowTapersToZeroAtEdges(t *testing.T) {
	data := make([]float64, 8)
	for i := range data {
		data[i] = 1.0
	}
	windowed := ApplyHannWindow(data)
	if windowed[0] != 0 {
		t.Errorf("expected first sample tapered to 0, got %v", windowed[0])
	}
	if windowed[len(windowed)-1] != 0 {
		t.Errorf("expected last sample tapered to 0, got %v", windowed[len(windowed)-1])
	}
	mid := windowed[len(windowed)/2]
	if mid <= 0.5 {
		t.Errorf("expected window peak near center to exceed 0.5, got %v", mid)
	}
}

func TestApplyHannWindowDoesNotMutateInput(t *testing.T) {
	data := []float64{1, 1, 1, 1}
	orig := append([]float64(nil), data...)
	ApplyHannWindow(data)
	for i := range data {
		if data[i] != orig[i] {
			t.Errorf("input mutated at index %d", i)
		}
	}
}
