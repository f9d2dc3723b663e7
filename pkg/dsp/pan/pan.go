// Package pan implements the equal-power stereo pan law the mixer's per-part
// placement stage uses: for a mono input x and pan position p, the left/right
// gains trace a quarter-circle so L²+R² stays equal to x² at any p, not just
// at center.
package pan

import "math"

// Law selects a panning curve. ConstantPower is the only law the mixer
// exercises; the enum stays so a caller can name the law it wants without
// reaching for a raw function.
type Law int

const (
	ConstantPower Law = iota
)

// MonoToStereo returns the left/right gains for a mono signal panned to pan.
// pan: -1.0 = hard left, 0.0 = center, 1.0 = hard right.
func MonoToStereo(pan float32, law Law) (left, right float32) {
	return constantPowerPan(pan)
}

// constantPowerPan implements equal-power panning via sine/cosine: angle
// sweeps 0..π/2 across the pan range so left²+right² is constant.
func constantPowerPan(pan float32) (left, right float32) {
	angle := (float64(pan) + 1.0) * math.Pi / 4.0
	left = float32(math.Cos(angle))
	right = float32(math.Sin(angle))
	return
}
