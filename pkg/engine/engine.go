package engine

import (
	"github.com/auricle/auricle/pkg/control"
	"github.com/auricle/auricle/pkg/mixer"
	"github.com/auricle/auricle/pkg/modules/drum"
	"github.com/auricle/auricle/pkg/modules/sampler"
	"github.com/auricle/auricle/pkg/param"
	"github.com/auricle/auricle/pkg/playhead"
	"github.com/auricle/auricle/pkg/recorder"
	"github.com/auricle/auricle/pkg/transport"
)

const maxMsgsPerBuffer = 1024
const previewGain = 0.3
const previewRootNote = 60
const recordingRingSamples = 1 << 14

// previewPartIdx namespaces the preview sampler's parameter keys away from
// any real part; it is never looked up by index into Graph.parts.
const previewPartIdx = -1

// Graph owns every part, the shared transport clock, the shared playhead
// table, and a dedicated preview sampler used for UI sample audition.
type Graph struct {
	parts      []*Part
	clock      *transport.Clock
	ph         *playhead.Store
	store      *param.Store
	sampleRate float64

	preview       *sampler.Module
	previewActive bool

	rec    *recorder.Recorder
	recErr error

	deviceGainKey param.Key
	msgScratch    []control.Message
}

// New builds a graph of partCount parts at sampleRate, all sharing store.
func New(sampleRate float64, partCount int, store *param.Store) *Graph {
	g := &Graph{
		clock:         transport.New(sampleRate),
		ph:            playhead.New(partCount),
		store:         store,
		sampleRate:    sampleRate,
		preview:       sampler.New(sampleRate, previewPartIdx),
		deviceGainKey: param.MakeKey("device/gain_db"),
	}
	for i := 0; i < partCount; i++ {
		g.parts = append(g.parts, NewPart(sampleRate, i))
	}
	return g
}

// Clock exposes the shared transport clock, for host-level SetBPM/transport
// UI reflection outside the control message path.
func (g *Graph) Clock() *transport.Clock { return g.clock }

// Playhead exposes the shared playhead table for UI polling.
func (g *Graph) Playhead() *playhead.Store { return g.ph }

// Store exposes the shared parameter store, for a UI command handler that
// needs to read current values by path.
func (g *Graph) Store() *param.Store { return g.store }

// RecordingError returns and clears the last error observed opening,
// writing to, or finalizing a recording, or nil if none occurred since the
// last call. Recording failure never interrupts rendering (per the
// command's at-most-logged contract); the host polls this to log it.
func (g *Graph) RecordingError() error {
	err := g.recErr
	g.recErr = nil
	return err
}

// Close releases any in-progress recording, finalizing its WAV header.
// Call once, from the host loop, after the audio stream has stopped.
func (g *Graph) Close() error {
	if g.rec == nil {
		return nil
	}
	err := g.rec.Close()
	g.rec = nil
	return err
}

// DrainControl applies up to maxMsgsPerBuffer pending messages from q,
// mutating parts, params, and transport. Never blocks: DrainUpTo returns
// immediately with whatever is queued, so the audio thread can never stall
// waiting on the control thread.
func (g *Graph) DrainControl(q *control.Queue) {
	msgs := q.DrainUpTo(g.msgScratch[:0], maxMsgsPerBuffer)
	g.msgScratch = msgs
	for _, msg := range msgs {
		g.applyMsg(msg)
	}
}

func (g *Graph) applyMsg(msg control.Message) {
	switch msg.Kind {
	case control.SetParam:
		g.store.Set(msg.Path, msg.Value)

	case control.NoteOn:
		if int(msg.Part) >= len(g.parts) {
			return
		}
		g.parts[msg.Part].NoteOn(g.store, msg.Note, msg.Vel)

	case control.NoteOff:
		if int(msg.Part) >= len(g.parts) {
			return
		}
		g.parts[msg.Part].NoteOff(g.store, msg.Note)

	case control.SetTempo:
		g.clock.SetBPM(float64(msg.BPM))

	case control.Transport:
		g.clock.SetRunning(msg.Playing)

	case control.LoadSample:
		if int(msg.Part) >= len(g.parts) || msg.Decoded == nil {
			return
		}
		g.parts[msg.Part].Sampler().LoadSample(sampler.NewBuffer(msg.Decoded, msg.SampleRate))

	case control.ClearSample:
		if int(msg.Part) >= len(g.parts) {
			return
		}
		g.parts[msg.Part].Sampler().ClearSample()

	case control.LoadDrumPack:
		if int(msg.Part) >= len(g.parts) || msg.DecodedSets == nil {
			return
		}
		samples := make([]*drum.Sample, len(msg.DecodedSets))
		for i, d := range msg.DecodedSets {
			samples[i] = &drum.Sample{Data: d, SampleRate: msg.SampleRate, Length: len(d)}
		}
		g.parts[msg.Part].Drum().LoadPack(samples, msg.DrumPaths)

	case control.PreviewSample:
		if msg.Decoded == nil {
			return
		}
		g.preview.LoadSample(sampler.NewBuffer(msg.Decoded, msg.SampleRate))
		g.preview.NoteOn(previewRootNote, 1.0)
		g.previewActive = true

	case control.StopPreview:
		g.preview.NoteOff(previewRootNote)
		g.previewActive = false

	case control.StartRecording:
		if g.rec != nil {
			if err := g.rec.Close(); err != nil {
				g.recErr = err
			}
		}
		rec, err := recorder.Open(msg.SamplePath, int(g.sampleRate), recordingRingSamples)
		if err != nil {
			g.recErr = err
			g.rec = nil
			return
		}
		g.rec = rec

	case control.StopRecording:
		if g.rec == nil {
			return
		}
		if err := g.rec.Close(); err != nil {
			g.recErr = err
		}
		g.rec = nil

	case control.Quit:
		// Shutdown itself is handled by the host loop that owns the device
		// stream; the render graph only needs to stop tapping the bus,
		// which happens automatically once RenderFrame is no longer called.
	}
}

// RenderFrame advances the transport by one sample, renders every part,
// mixes in the preview sampler, and applies the final bus soft clip. When a
// recording is active, the post-clip mono downmix is posted to the
// recorder's lock-free ring. The caller drains control messages once per
// device buffer via DrainControl, not per frame.
func (g *Graph) RenderFrame() (left, right float32) {
	beatPhase := g.clock.PhaseForNextSample()
	deviceGainDB := float64(g.store.F32(g.deviceGainKey, 0.0))

	var sumL, sumR float32
	for _, p := range g.parts {
		l, r := p.Render(g.store, beatPhase, deviceGainDB, g.ph)
		sumL += l
		sumR += r
	}

	if g.previewActive {
		s := g.preview.RenderSample(g.store, beatPhase) * previewGain
		sumL += s
		sumR += s
		if !g.preview.Active() {
			g.previewActive = false
		}
	}

	left, right = mixer.Bus(sumL, sumR)
	if g.rec != nil {
		g.rec.Post((left + right) * 0.5)
	}
	return left, right
}
