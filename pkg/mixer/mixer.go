// Package mixer implements the per-part 8-band EQ, pan/volume/Haas stereo
// placement, soft compression, and the final bus sum.
package mixer

import (
	"fmt"
	"math"

	"github.com/auricle/auricle/pkg/dsp/filter"
	"github.com/auricle/auricle/pkg/dsp/pan"
	"github.com/auricle/auricle/pkg/param"
)

var eqBandCenters = [8]float64{60, 120, 250, 500, 1000, 2000, 4000, 8000}

const eqBandQ = 1.0
const eqGainBypassThreshold = 1e-3
const eqDeltaThreshold = 1e-6

// EQ is an 8-band fixed-center peaking equalizer. The whole chain bypasses
// when every band's gain is within the bypass threshold of 0 dB.
type EQ struct {
	sampleRate float64
	bands      [8]*filter.Biquad
	lastGainDB [8]float64
	keys       [8]param.Key
}

// NewEQ creates the 8-band EQ for part index partIdx with precomputed
// per-band hashed parameter keys.
func NewEQ(sampleRate float64, partIdx int) *EQ {
	eq := &EQ{sampleRate: sampleRate}
	for i := range eq.bands {
		eq.bands[i] = filter.NewBiquad(1)
		eq.lastGainDB[i] = 999
		eq.keys[i] = param.MakeKey(fmt.Sprintf("part/%d/eq/band/%d/gain_db", partIdx, i))
		eq.bands[i].SetPeakingEQ(sampleRate, eqBandCenters[i], eqBandQ, 0.0)
	}
	return eq
}

func (eq *EQ) Process(store *param.Store, x float32) float32 {
	bypass := true
	for i := range eq.bands {
		gainDB := float64(store.F32(eq.keys[i], 0.0))
		if gainDB > 12 {
			gainDB = 12
		} else if gainDB < -12 {
			gainDB = -12
		}
		if math.Abs(gainDB) >= eqGainBypassThreshold {
			bypass = false
		}
		if math.Abs(gainDB-eq.lastGainDB[i]) > eqDeltaThreshold {
			eq.bands[i].SetPeakingEQ(eq.sampleRate, eqBandCenters[i], eqBandQ, gainDB)
			eq.lastGainDB[i] = gainDB
		}
	}
	if bypass {
		return x
	}
	buf := [1]float32{x}
	for _, b := range eq.bands {
		b.Process(buf[:], 0)
	}
	return buf[0]
}

// haasDelay is a fixed ~15ms single-tap delay on the left channel only. The
// write pointer always advances, even when haas=0, so enabling it later
// never exposes stale buffered samples.
type haasDelay struct {
	buf      []float32
	writePos int
}

func newHaasDelay(sampleRate float64) *haasDelay {
	n := int(sampleRate * 0.015)
	if n < 1 {
		n = 1
	}
	return &haasDelay{buf: make([]float32, n)}
}

func (h *haasDelay) process(x float32) float32 {
	delayed := h.buf[h.writePos]
	h.buf[h.writePos] = x
	h.writePos = (h.writePos + 1) % len(h.buf)
	return delayed
}

// softCompress is a simple tanh-drive soft compressor: y = tanh(x*drive)/tanh(drive).
func softCompress(x float32, comp float64) float32 {
	drive := 1.0 + 8.0*comp
	if drive < 1e-6 {
		return x
	}
	return float32(math.Tanh(float64(x)*drive) / math.Tanh(drive))
}

type partKeys struct {
	pan, volume, haas, comp, gainDB param.Key
}

func makePartKeys(partIdx int) partKeys {
	p := func(suffix string) param.Key {
		return param.MakeKey(fmt.Sprintf("part/%d/mix/%s", partIdx, suffix))
	}
	return partKeys{pan: p("pan"), volume: p("volume"), haas: p("haas"), comp: p("comp"), gainDB: p("gain_db")}
}

// Part is the per-part stereo placement stage: pan, volume, Haas widener,
// soft compressor, and global part gain.
type Part struct {
	keys partKeys
	haas *haasDelay
}

// NewPart creates the mixer stage for part index partIdx.
func NewPart(sampleRate float64, partIdx int) *Part {
	return &Part{keys: makePartKeys(partIdx), haas: newHaasDelay(sampleRate)}
}

// Process derives a stereo pair from one mono signal, applies pan/volume,
// widens with Haas delay, soft-compresses, and applies combined device and
// parameter gain (both clamped to [0,2] after conversion from dB).
func (p *Part) Process(store *param.Store, mono float32, deviceGainDB float64) (left, right float32) {
	panNorm := store.F32(p.keys.pan, 0.0)
	volume := store.F32(p.keys.volume, 1.0)
	haasAmt := store.F32(p.keys.haas, 0.0)
	comp := float64(store.F32(p.keys.comp, 0.0))
	paramGainDB := float64(store.F32(p.keys.gainDB, 0.0))

	gainL, gainR := pan.MonoToStereo(panNorm, pan.ConstantPower)
	left = mono * gainL * volume
	right = mono * gainR * volume

	delayed := p.haas.process(left)
	left = (1.0-haasAmt)*left + haasAmt*delayed

	left = softCompress(left, comp)
	right = softCompress(right, comp)

	deviceGain := clampGain(math.Pow(10.0, deviceGainDB/20.0))
	paramGain := clampGain(math.Pow(10.0, paramGainDB/20.0))
	totalGain := float32(deviceGain * paramGain)

	left *= totalGain
	right *= totalGain
	return left, right
}

func clampGain(g float64) float64 {
	if g < 0 {
		return 0
	}
	if g > 2 {
		return 2
	}
	return g
}

// Bus sums all parts and applies a final per-channel tanh soft clip.
func Bus(left, right float32) (float32, float32) {
	return float32(math.Tanh(float64(left))), float32(math.Tanh(float64(right)))
}
