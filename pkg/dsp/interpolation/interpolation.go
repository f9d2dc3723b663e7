// Package interpolation provides fractional-position sample interpolation
// for the sampler's variable-rate playback.
package interpolation

// Cubic performs 4-point Catmull-Rom cubic interpolation between y1 and y2,
// using y0 and y3 as the neighboring control points. frac is the fractional
// position between y1 and y2 (0.0 to 1.0). The sampler module uses this on
// every rendered sample to read at an arbitrary, note-rate-scaled playback
// position instead of snapping to the nearest integer sample index.
func Cubic(y0, y1, y2, y3, frac float32) float32 {
	c0 := y1
	c1 := 0.5 * (y2 - y0)
	c2 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	c3 := 0.5 * (y3 - y0 + 3*(y1-y2))

	return ((c3*frac+c2)*frac+c1)*frac + c0
}
