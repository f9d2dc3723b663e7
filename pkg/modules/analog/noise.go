package analog

// xorshift32 is a minimal deterministic per-voice noise source. Each voice
// seeds its own stream on note-on, so a given seed reproduces identical
// noise.
type xorshift32 struct {
	state uint32

	pinkRows [5]float32
	pinkSum  float32
	pinkIdx  uint32

	brownState float32
}

func newXorshift32(seed uint32) *xorshift32 {
	if seed == 0 {
		seed = 0x9e3779b9
	}
	x := &xorshift32{state: seed}
	for i := range x.pinkRows {
		x.pinkRows[i] = x.whiteUnit()
	}
	return x
}

func (x *xorshift32) next() uint32 {
	x.state ^= x.state << 13
	x.state ^= x.state >> 17
	x.state ^= x.state << 5
	return x.state
}

// whiteUnit returns a sample in [-1, 1].
func (x *xorshift32) whiteUnit() float32 {
	return float32(x.next())/float32(1<<31) - 1.0
}

func (x *xorshift32) white() float32 {
	return x.whiteUnit()
}

// pink approximates a 1/f spectrum with a small Voss-McCartney register bank
// driven by the same xorshift stream.
func (x *xorshift32) pink() float32 {
	x.pinkIdx++
	idx := x.pinkIdx
	row := 0
	for idx&1 == 0 && row < len(x.pinkRows)-1 {
		idx >>= 1
		row++
	}
	x.pinkSum -= x.pinkRows[row]
	x.pinkRows[row] = x.whiteUnit()
	x.pinkSum += x.pinkRows[row]
	out := (x.pinkSum + x.whiteUnit()) / float32(len(x.pinkRows)+1)
	if out > 1 {
		out = 1
	} else if out < -1 {
		out = -1
	}
	return out
}

// brown integrates white noise through a leaky one-pole to bias energy
// toward low frequencies.
func (x *xorshift32) brown() float32 {
	x.brownState += x.whiteUnit() * 0.0625
	x.brownState *= 0.997
	if x.brownState > 1 {
		x.brownState = 1
	} else if x.brownState < -1 {
		x.brownState = -1
	}
	return x.brownState
}

func (x *xorshift32) reseed(seed uint32) {
	if seed == 0 {
		seed = 0x9e3779b9
	}
	x.state = seed
	x.pinkSum = 0
	x.pinkIdx = 0
	x.brownState = 0
	for i := range x.pinkRows {
		x.pinkRows[i] = x.whiteUnit()
	}
}
