// Package transport implements the global beat clock: a bpm-derived
// phase accumulator shared by every tempo-synced module.
package transport

const (
	MinBPM = 40.0
	MaxBPM = 300.0
)

// Clock holds the sample rate, tempo, and running beat phase.
type Clock struct {
	sampleRate     float64
	bpm            float64
	beatsPerSample float64
	phase          float64
	running        bool
	sampleCounter  uint64

	wrapTap     []uint64
	wrapTapCap  int
}

// New creates a stopped clock at 120 BPM for the given sample rate.
func New(sampleRate float64) *Clock {
	c := &Clock{sampleRate: sampleRate, bpm: 120.0}
	c.recompute()
	return c
}

func clampBPM(bpm float64) float64 {
	if bpm < MinBPM {
		return MinBPM
	}
	if bpm > MaxBPM {
		return MaxBPM
	}
	return bpm
}

func (c *Clock) recompute() {
	c.beatsPerSample = (c.bpm / 60.0) / c.sampleRate
}

// SetBPM clamps to [40,300] and recomputes beats-per-sample immediately.
func (c *Clock) SetBPM(bpm float64) {
	c.bpm = clampBPM(bpm)
	c.recompute()
}

func (c *Clock) BPM() float64 { return c.bpm }

// SetRunning toggles phase advancement without resetting phase.
func (c *Clock) SetRunning(running bool) {
	c.running = running
}

func (c *Clock) Running() bool { return c.running }

// Phase returns the current beat phase in [0,1).
func (c *Clock) Phase() float64 { return c.phase }

// EnableWrapTap allocates a bounded ring buffer recording sample indices of
// wraparound events. Writes silently drop once the buffer is full.
func (c *Clock) EnableWrapTap(capacity int) {
	if capacity < 1 {
		capacity = 1
	}
	c.wrapTapCap = capacity
	c.wrapTap = make([]uint64, 0, capacity)
}

// WrapEvents returns the recorded wraparound sample indices.
func (c *Clock) WrapEvents() []uint64 { return c.wrapTap }

// PhaseForNextSample advances phase by beats-per-sample and returns the new
// value when running; when stopped, returns the held phase unchanged.
func (c *Clock) PhaseForNextSample() float64 {
	if !c.running {
		return c.phase
	}
	c.sampleCounter++
	c.phase += c.beatsPerSample
	if c.phase >= 1.0 {
		c.phase -= 1.0
		if c.wrapTap != nil && len(c.wrapTap) < c.wrapTapCap {
			c.wrapTap = append(c.wrapTap, c.sampleCounter)
		}
	}
	return c.phase
}
