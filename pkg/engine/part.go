// Package engine wires every synthesis module, the per-part FX/EQ/mixer
// stack, the transport clock, and the control message dispatcher into one
// render graph driven once per output frame.
package engine

import (
	"fmt"
	"math"

	"github.com/auricle/auricle/pkg/fx"
	"github.com/auricle/auricle/pkg/mixer"
	"github.com/auricle/auricle/pkg/modules/acid"
	"github.com/auricle/auricle/pkg/modules/analog"
	"github.com/auricle/auricle/pkg/modules/drum"
	"github.com/auricle/auricle/pkg/modules/karplus"
	"github.com/auricle/auricle/pkg/modules/resonator"
	"github.com/auricle/auricle/pkg/modules/sampler"
	"github.com/auricle/auricle/pkg/param"
	"github.com/auricle/auricle/pkg/playhead"
)

// ModuleKind selects which synthesis engine a part dispatches render and
// note events to. Only the selected module's renderer runs each sample; the
// others remain idle, holding whatever voice state they last had.
type ModuleKind int32

const (
	KindAnalog ModuleKind = iota
	KindAcid
	KindKarplus
	KindResonator
	KindSampler
	KindDrum
)

func moduleKindFromI32(raw int32) ModuleKind {
	if raw < int32(KindAnalog) || raw > int32(KindDrum) {
		return KindAnalog
	}
	return ModuleKind(raw)
}

const numFXSlots = 4

const dryFloor = 1e-9

type fxKeys struct {
	kind [numFXSlots]param.Key
	p1   [numFXSlots]param.Key
	p2   [numFXSlots]param.Key
	mix  [numFXSlots]param.Key
}

func makeFXKeys(partIdx int) fxKeys {
	var k fxKeys
	for i := 0; i < numFXSlots; i++ {
		k.kind[i] = param.MakeKey(fmt.Sprintf("part/%d/fx/%d/kind", partIdx, i))
		k.p1[i] = param.MakeKey(fmt.Sprintf("part/%d/fx/%d/p1", partIdx, i))
		k.p2[i] = param.MakeKey(fmt.Sprintf("part/%d/fx/%d/p2", partIdx, i))
		k.mix[i] = param.MakeKey(fmt.Sprintf("part/%d/fx/%d/mix", partIdx, i))
	}
	return k
}

// Part owns one instance of every synthesis module plus the FX chain, EQ,
// and mixer stage that its dry output always flows through.
type Part struct {
	idx           int
	moduleKindKey param.Key

	analog     *analog.Part
	acidMod    *acid.Module
	karplusMod *karplus.Module
	resMod     *resonator.Module
	samplerMod *sampler.Module
	drumMod    *drum.Module

	fxChain *fx.Chain
	fxKeys  fxKeys
	eq      *mixer.EQ
	mix     *mixer.Part
}

// NewPart builds every module for part index idx at sampleRate.
func NewPart(sampleRate float64, idx int) *Part {
	return &Part{
		idx:           idx,
		moduleKindKey: param.MakeKey(fmt.Sprintf("part/%d/module_kind", idx)),
		analog:        analog.New(sampleRate, idx),
		acidMod:       acid.New(sampleRate, idx),
		karplusMod:    karplus.New(sampleRate, idx),
		resMod:        resonator.New(sampleRate, idx),
		samplerMod:    sampler.New(sampleRate, idx),
		drumMod:       drum.New(sampleRate, idx),
		fxChain:       fx.NewChain(sampleRate),
		fxKeys:        makeFXKeys(idx),
		eq:            mixer.NewEQ(sampleRate, idx),
		mix:           mixer.NewPart(sampleRate, idx),
	}
}

// Kind reports the currently selected module for this part.
func (p *Part) Kind(store *param.Store) ModuleKind {
	return moduleKindFromI32(store.I32(p.moduleKindKey, int32(KindAnalog)))
}

// Sampler exposes the part's sampler module directly, for LoadSample /
// ClearSample control handling regardless of whether it is the currently
// selected module.
func (p *Part) Sampler() *sampler.Module { return p.samplerMod }

// Drum exposes the part's drum module directly, for LoadDrumPack handling.
func (p *Part) Drum() *drum.Module { return p.drumMod }

// NoteOn routes to whichever module is currently selected for this part.
func (p *Part) NoteOn(store *param.Store, note uint8, vel float32) {
	switch p.Kind(store) {
	case KindAnalog:
		p.analog.NoteOn(note, vel)
	case KindAcid:
		p.acidMod.NoteOn(note, vel)
	case KindKarplus:
		p.karplusMod.NoteOn(note, vel)
	case KindResonator:
		p.resMod.NoteOn(note, vel)
	case KindSampler:
		p.samplerMod.NoteOn(note, vel)
	case KindDrum:
		p.drumMod.NoteOn(note, vel)
	}
}

// NoteOff routes to whichever module is currently selected for this part.
func (p *Part) NoteOff(store *param.Store, note uint8) {
	switch p.Kind(store) {
	case KindAnalog:
		p.analog.NoteOff(note)
	case KindAcid:
		p.acidMod.NoteOff(note)
	case KindKarplus:
		p.karplusMod.NoteOff(note)
	case KindResonator:
		p.resMod.NoteOff(note)
	case KindSampler:
		p.samplerMod.NoteOff(note)
	case KindDrum:
		p.drumMod.NoteOff(note)
	}
}

func (p *Part) renderDry(store *param.Store, beatPhase float64) float32 {
	switch p.Kind(store) {
	case KindAnalog:
		return p.analog.RenderSample(store, beatPhase)
	case KindAcid:
		return p.acidMod.RenderSample(store)
	case KindKarplus:
		return p.karplusMod.RenderSample(store)
	case KindResonator:
		return p.resMod.RenderSample(store)
	case KindSampler:
		return p.samplerMod.RenderSample(store, beatPhase)
	case KindDrum:
		return p.drumMod.RenderFrame(store).Mono
	}
	return 0
}

func (p *Part) refreshFXParams(store *param.Store) {
	for i := 0; i < numFXSlots; i++ {
		kind := fx.Kind(store.I32(p.fxKeys.kind[i], int32(fx.KindNone)))
		p1 := store.F32(p.fxKeys.p1[i], 0)
		p2 := store.F32(p.fxKeys.p2[i], 0)
		mix := store.F32(p.fxKeys.mix[i], 0)
		p.fxChain.Slot(i).SetParams(kind, p1, p2, mix)
	}
}

func (p *Part) publishPlayhead(store *param.Store, ph *playhead.Store) {
	if p.Kind(store) != KindSampler {
		ph.Clear(p.idx)
		return
	}
	st, ok := p.samplerMod.Playhead()
	if !ok {
		ph.Clear(p.idx)
		return
	}
	ph.Set(p.idx, playhead.State{
		PositionRel:  st.PositionRel,
		LoopStartRel: st.LoopStartRel,
		LoopEndRel:   st.LoopEndRel,
		LoopMode:     int32(st.LoopMode),
		Direction:    st.Direction,
		Playing:      st.Playing,
	})
}

// Render produces one stereo frame for this part: dispatches to the
// selected module, runs the dry signal through the FX chain, EQ, and mixer
// stage, and publishes a playhead snapshot when the sampler is selected.
//
// When the dry signal is below the silence floor and every FX slot is
// bypassed (no tail to keep decaying), the part skips FX/EQ/mixer entirely
// and emits silence — this is the audio thread's only per-sample cost-saving
// branch, since FX state must otherwise keep running to let tails decay.
func (p *Part) Render(store *param.Store, beatPhase float64, deviceGainDB float64, ph *playhead.Store) (left, right float32) {
	dry := p.renderDry(store, beatPhase)
	p.refreshFXParams(store)

	if math.Abs(float64(dry)) < dryFloor && p.fxChain.AllBypassed() {
		p.publishPlayhead(store, ph)
		return 0, 0
	}

	wet := p.fxChain.Process(dry)
	eqd := p.eq.Process(store, wet)
	left, right = p.mix.Process(store, eqd, deviceGainDB)

	p.publishPlayhead(store, ph)
	return left, right
}
