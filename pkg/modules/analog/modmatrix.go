package analog

// Dest identifies one of the six modulation destinations a mod-matrix row
// can route a signed amount into.
type Dest int32

const (
	DestNone Dest = iota
	DestOscACents
	DestOscBCents
	DestOscALevel
	DestOscBLevel
	DestFilter1
	DestFilter2
)

// ModFrame is the per-sample bundle of accumulated modulation contributions,
// recomputed from scratch every sample from the five LFO rows and five
// envelope rows. It carries no state across samples.
type ModFrame struct {
	CentsA, CentsB float32
	LvlA, LvlB     float32
	Filt1, Filt2   float32
}

func (m *ModFrame) add(dest Dest, amount float32) {
	switch dest {
	case DestOscACents:
		m.CentsA += amount
	case DestOscBCents:
		m.CentsB += amount
	case DestOscALevel:
		m.LvlA += amount
	case DestOscBLevel:
		m.LvlB += amount
	case DestFilter1:
		m.Filt1 += amount
	case DestFilter2:
		m.Filt2 += amount
	}
}

// Shape enumerates the eight oscillator waveforms, matching the parameter
// path's i32 encoding.
type Shape int32

const (
	ShapeSine Shape = iota
	ShapeSaw
	ShapeSquare
	ShapeTriangle
	ShapePulse
	ShapeNoiseWhite
	ShapeNoisePink
	ShapeNoiseBrown
)

// FilterType enumerates the four SVF output taps a voice filter can select.
type FilterType int32

const (
	FilterLP FilterType = iota
	FilterHP
	FilterBP
	FilterNotch
)

// FilterAssign selects which oscillator outputs feed a given voice filter.
type FilterAssign int32

const (
	AssignNone FilterAssign = iota
	AssignA
	AssignB
	AssignAB
)
