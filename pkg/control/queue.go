package control

import "sync"

// Queue is an unbounded, multi-producer single-consumer FIFO of Messages.
// Producers (command handlers, internal schedulers) never block on Send.
// The consumer (the audio callback) drains with TryRecv/DrainUpTo, which
// never blocks either -- an empty queue returns immediately.
//
// Ordering: within one goroutine's sequence of Send calls, messages are
// observed by the consumer in the same order (FIFO). Across goroutines the
// interleaving is whatever the mutex happened to serialize, which matches
// the "order across producers is unspecified" contract.
type Queue struct {
	mu       sync.Mutex
	messages []Message
}

// NewQueue creates an empty control queue.
func NewQueue() *Queue {
	return &Queue{messages: make([]Message, 0, 256)}
}

// Send enqueues a message. Safe to call from any goroutine; never blocks.
func (q *Queue) Send(m Message) {
	q.mu.Lock()
	q.messages = append(q.messages, m)
	q.mu.Unlock()
}

// TryRecv removes and returns the oldest queued message. ok is false if the
// queue was empty.
func (q *Queue) TryRecv() (m Message, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.messages) == 0 {
		return Message{}, false
	}
	m = q.messages[0]
	copy(q.messages, q.messages[1:])
	q.messages = q.messages[:len(q.messages)-1]
	return m, true
}

// DrainUpTo removes up to max oldest messages and appends them to dst,
// returning the extended slice. It bounds how many messages a control burst
// can force the audio thread to process in one buffer; anything left over
// stays queued for the next call. Passing max <= 0 drains nothing.
func (q *Queue) DrainUpTo(dst []Message, max int) []Message {
	if max <= 0 {
		return dst
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.messages)
	if n > max {
		n = max
	}
	dst = append(dst, q.messages[:n]...)
	copy(q.messages, q.messages[n:])
	q.messages = q.messages[:len(q.messages)-n]
	return dst
}

// Len reports the number of currently queued messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.messages)
}
