// Package recorder captures the mixed mono bus to a 16-bit PCM WAV file.
// It mirrors pkg/logging's ring-buffer-plus-drain-goroutine shape: the
// audio thread only ever posts samples into a lock-free ring, and a
// background goroutine owns the file handle, the go-audio/wav encoder, and
// every blocking write.
package recorder

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const drainInterval = 20 * time.Millisecond

const bitDepth = 16
const pcmFormat = 1 // WAVE_FORMAT_PCM
const fullScale = 32767.0

// Ring is a fixed-capacity single-producer/single-consumer ring buffer of
// mono float32 samples in [-1, 1].
type Ring struct {
	buf      []float32
	capacity uint64
	write    uint64 // monotonically increasing, producer-owned
	read     uint64 // monotonically increasing, consumer-owned
	dropped  uint64
}

// NewRing creates a ring buffer holding at least capacity samples.
func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{buf: make([]float32, capacity), capacity: uint64(capacity)}
}

// Post appends a sample, dropping it if the ring is full. Lock-free: only
// atomic loads/stores on the read/write cursors, safe for exactly one
// producer (the audio thread) and one consumer (the drain goroutine).
func (r *Ring) Post(sample float32) {
	w := atomic.LoadUint64(&r.write)
	rd := atomic.LoadUint64(&r.read)
	if w-rd >= r.capacity {
		atomic.AddUint64(&r.dropped, 1)
		return
	}
	r.buf[w%r.capacity] = sample
	atomic.StoreUint64(&r.write, w+1)
}

// Drain copies out every sample posted since the last Drain call, advancing
// the read cursor. Intended for the single background consumer goroutine.
func (r *Ring) Drain(dst []float32) []float32 {
	w := atomic.LoadUint64(&r.write)
	rd := r.read
	for rd < w {
		dst = append(dst, r.buf[rd%r.capacity])
		rd++
	}
	r.read = rd
	return dst
}

// Dropped reports how many samples were discarded because the ring was
// full when Post was called.
func (r *Ring) Dropped() uint64 { return atomic.LoadUint64(&r.dropped) }

// Recorder pairs a Ring with a background goroutine that encodes drained
// samples as mono 16-bit PCM into a WAV file via go-audio/wav. Post is the
// only method the audio thread ever calls.
type Recorder struct {
	ring    *Ring
	enc     *wav.Encoder
	f       *os.File
	stop    chan struct{}
	done    chan struct{}
	scratch []float32
	intBuf  *audio.IntBuffer
	writeErr error
}

// Open creates path and starts encoding a mono WAV at sampleRate, 16-bit
// PCM, backed by a ring of ringCapacity samples. Samples posted faster than
// the drain goroutine flushes them are dropped; see Dropped.
func Open(path string, sampleRate, ringCapacity int) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("recorder: create %q: %w", path, err)
	}
	enc := wav.NewEncoder(f, sampleRate, bitDepth, 1, pcmFormat)

	r := &Recorder{
		ring: NewRing(ringCapacity),
		enc:  enc,
		f:    f,
		stop: make(chan struct{}),
		done: make(chan struct{}),
		intBuf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
			SourceBitDepth: bitDepth,
		},
	}
	go r.drainLoop()
	return r, nil
}

// Post enqueues one mono bus sample. Safe to call from the audio thread:
// never blocks, never allocates, drops the sample if the drain goroutine
// has fallen behind.
func (r *Recorder) Post(sample float32) { r.ring.Post(sample) }

func (r *Recorder) drainLoop() {
	defer close(r.done)
	ticker := time.NewTicker(drainInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			r.flush()
			return
		case <-ticker.C:
			r.flush()
		}
	}
}

func (r *Recorder) flush() {
	r.scratch = r.ring.Drain(r.scratch[:0])
	if len(r.scratch) == 0 {
		return
	}
	ints := make([]int, len(r.scratch))
	for i, s := range r.scratch {
		ints[i] = quantize16(s)
	}
	r.intBuf.Data = ints
	if err := r.enc.Write(r.intBuf); err != nil && r.writeErr == nil {
		r.writeErr = err
	}
}

func quantize16(sample float32) int {
	v := float64(sample) * fullScale
	if v > fullScale {
		v = fullScale
	} else if v < -fullScale-1 {
		v = -fullScale - 1
	}
	return int(v)
}

// Dropped reports how many samples were discarded because the drain
// goroutine fell behind the audio thread.
func (r *Recorder) Dropped() uint64 { return r.ring.Dropped() }

// Close stops the drain goroutine, flushes whatever remains, finalizes the
// WAV header, and closes the file. Any write error observed by the drain
// goroutine is returned here rather than interrupting recording.
func (r *Recorder) Close() error {
	close(r.stop)
	<-r.done

	encErr := r.enc.Close()
	closeErr := r.f.Close()
	switch {
	case r.writeErr != nil:
		return fmt.Errorf("recorder: write: %w", r.writeErr)
	case encErr != nil:
		return fmt.Errorf("recorder: finalize header: %w", encErr)
	case closeErr != nil:
		return fmt.Errorf("recorder: close file: %w", closeErr)
	}
	return nil
}
