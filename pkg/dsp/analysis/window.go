// Package analysis provides windowing for the spectrum sideband: the
// spectrum worker applies ApplyHannWindow before handing a block to its FFT
// so that blocking 2048 samples at a time doesn't leak energy across bins.
package analysis

import "math"

// ApplyHannWindow returns a copy of data with a Hann window applied.
func ApplyHannWindow(data []float64) []float64 {
	n := len(data)
	windowed := make([]float64, n)
	for i := 0; i < n; i++ {
		w := 0.5 * (1.0 - math.Cos(2.0*math.Pi*float64(i)/float64(n-1)))
		windowed[i] = data[i] * w
	}
	return windowed
}
