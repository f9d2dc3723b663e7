// Package logging wraps charmbracelet/log behind a lock-free, drop-if-full
// ring buffer so the audio thread can report errors without allocating,
// taking a contended lock, or blocking on I/O in its hot path.
package logging

import (
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

const drainInterval = 10 * time.Millisecond

// Entry is one deferred log line posted from the audio thread.
type Entry struct {
	Level Level
	Msg   string
	Err   error
}

// Level mirrors the subset of charmbracelet/log levels the audio thread
// ever posts.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

// Ring is a fixed-capacity single-producer/single-consumer ring buffer.
// Post is safe to call from the audio thread: it never blocks and silently
// drops the entry if the background drainer has fallen behind and the ring
// is full. Only one producer and one consumer goroutine may use a Ring.
type Ring struct {
	buf      []Entry
	capacity uint64
	write    uint64 // monotonically increasing, producer-owned
	read     uint64 // monotonically increasing, consumer-owned
	dropped  uint64
}

// NewRing creates a ring buffer of the given power-of-two-independent
// capacity (rounded up to at least 1).
func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{buf: make([]Entry, capacity), capacity: uint64(capacity)}
}

// Post appends an entry, dropping it if the ring is full. Lock-free: uses
// only atomic loads/stores on the read/write cursors, safe for exactly one
// producer (the audio thread) and one consumer (the drain goroutine).
func (r *Ring) Post(e Entry) {
	w := atomic.LoadUint64(&r.write)
	rd := atomic.LoadUint64(&r.read)
	if w-rd >= r.capacity {
		atomic.AddUint64(&r.dropped, 1)
		return
	}
	r.buf[w%r.capacity] = e
	atomic.StoreUint64(&r.write, w+1)
}

// Drain copies out every entry posted since the last Drain call, advancing
// the read cursor. Intended for the single background consumer goroutine.
func (r *Ring) Drain(dst []Entry) []Entry {
	w := atomic.LoadUint64(&r.write)
	rd := r.read
	for rd < w {
		dst = append(dst, r.buf[rd%r.capacity])
		rd++
	}
	r.read = rd
	return dst
}

// Dropped reports how many entries have been discarded because the ring
// was full when Post was called.
func (r *Ring) Dropped() uint64 { return atomic.LoadUint64(&r.dropped) }

// Logger pairs a Ring with a background goroutine that drains it into a
// charmbracelet/log logger. The audio thread only ever calls the Post*
// methods; everything else runs on the drain goroutine or at setup time.
type Logger struct {
	ring   *Ring
	logger *log.Logger
	stop   chan struct{}
	done   chan struct{}
	scratch []Entry
}

// New creates a logger writing to w (os.Stderr if nil) at the given level,
// backed by a ring of ringCapacity entries, and starts its drain goroutine.
func New(w io.Writer, level log.Level, ringCapacity int) *Logger {
	if w == nil {
		w = os.Stderr
	}
	charmLogger := log.NewWithOptions(w, log.Options{Level: level, ReportTimestamp: true})

	l := &Logger{
		ring:   NewRing(ringCapacity),
		logger: charmLogger,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go l.drainLoop()
	return l
}

func (l *Logger) drainLoop() {
	defer close(l.done)
	ticker := time.NewTicker(drainInterval)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			l.flush()
			return
		case <-ticker.C:
			l.flush()
		}
	}
}

func (l *Logger) flush() {
	l.scratch = l.ring.Drain(l.scratch[:0])
	for _, e := range l.scratch {
		switch e.Level {
		case LevelWarn:
			l.logger.Warn(e.Msg, "err", e.Err)
		case LevelError:
			l.logger.Error(e.Msg, "err", e.Err)
		default:
			l.logger.Info(e.Msg)
		}
	}
}

// PostInfo/PostWarn/PostError enqueue a deferred log line. Safe to call from
// the audio thread.
func (l *Logger) PostInfo(msg string)             { l.ring.Post(Entry{Level: LevelInfo, Msg: msg}) }
func (l *Logger) PostWarn(msg string, err error)   { l.ring.Post(Entry{Level: LevelWarn, Msg: msg, Err: err}) }
func (l *Logger) PostError(msg string, err error)  { l.ring.Post(Entry{Level: LevelError, Msg: msg, Err: err}) }

// Dropped reports how many entries were discarded because the ring was
// full, a sign the drain goroutine is falling behind.
func (l *Logger) Dropped() uint64 { return l.ring.Dropped() }

// Close stops the drain goroutine after flushing whatever remains.
func (l *Logger) Close() {
	close(l.stop)
	<-l.done
}
