// Package analog implements the six-voice analog-subtractive sound module:
// two phase-accumulator oscillators, a five-row LFO/envelope mod matrix, and
// two assignable state-variable filters per voice.
package analog

import (
	"fmt"

	"github.com/auricle/auricle/pkg/param"
)

// keys holds every hashed parameter path a part's analog module reads,
// precomputed once at construction so the render path never hashes a string.
type keys struct {
	oscAShape, oscALevel, oscADetune, oscAPW, oscAFM param.Key
	oscBShape, oscBLevel, oscBDetune, oscBPW, oscBFM param.Key

	ampA, ampD, ampS, ampR param.Key
	modA, modD, modS, modR param.Key

	lfoShape, lfoRate, lfoAmount, lfoDrive param.Key

	lfoRowDest, lfoRowAmount [5]param.Key
	envRowDest, envRowAmount [5]param.Key

	f1Type, f1Cutoff, f1Q, f1Assign param.Key
	f2Type, f2Cutoff, f2Q, f2Assign param.Key
}

func makeKeys(partIdx int) *keys {
	p := func(suffix string) param.Key {
		return param.MakeKey(fmt.Sprintf("part/%d/%s", partIdx, suffix))
	}
	k := &keys{
		oscAShape: p("oscA/shape"), oscALevel: p("oscA/level"), oscADetune: p("oscA/detune_cents"),
		oscAPW: p("oscA/pulse_width"), oscAFM: p("oscA/fm_to_B"),
		oscBShape: p("oscB/shape"), oscBLevel: p("oscB/level"), oscBDetune: p("oscB/detune_cents"),
		oscBPW: p("oscB/pulse_width"), oscBFM: p("oscB/fm_to_A"),

		ampA: p("amp_env/attack"), ampD: p("amp_env/decay"), ampS: p("amp_env/sustain"), ampR: p("amp_env/release"),
		modA: p("mod_env/attack"), modD: p("mod_env/decay"), modS: p("mod_env/sustain"), modR: p("mod_env/release"),

		lfoShape: p("lfo/shape"), lfoRate: p("lfo/rate_hz"), lfoAmount: p("lfo/amount"), lfoDrive: p("lfo/drive"),

		f1Type: p("filter1/type"), f1Cutoff: p("filter1/cutoff_hz"), f1Q: p("filter1/q"), f1Assign: p("filter1/assign"),
		f2Type: p("filter2/type"), f2Cutoff: p("filter2/cutoff_hz"), f2Q: p("filter2/q"), f2Assign: p("filter2/assign"),
	}
	for row := 0; row < 5; row++ {
		k.lfoRowDest[row] = p(fmt.Sprintf("mod/lfo/row%d/dest", row))
		k.lfoRowAmount[row] = p(fmt.Sprintf("mod/lfo/row%d/amount", row))
		k.envRowDest[row] = p(fmt.Sprintf("mod/env/row%d/dest", row))
		k.envRowAmount[row] = p(fmt.Sprintf("mod/env/row%d/amount", row))
	}
	return k
}
