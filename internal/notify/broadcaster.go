// Package notify provides a most-recent-value broadcaster used to surface
// session milestones to the host.
package notify

import "sync"

// MailboxCapacity bounds the values pending for one subscriber. When a
// subscriber falls this far behind, the oldest pending value is dropped.
const MailboxCapacity = 128

// Broadcaster holds the latest published value and fans every publication
// out to its subscribers.
//
// Publish never blocks the publisher. Each subscriber owns a FIFO mailbox
// of at most MailboxCapacity values, drained by its own goroutine, so
// callbacks run outside the broadcaster lock and values reach every
// subscriber in emission order. A subscriber that stalls loses its oldest
// pending values, never the newest. A late subscriber receives only the
// latest value, never the history before it.
type Broadcaster[T any] struct {
	mu     sync.Mutex
	latest T
	has    bool
	subs   map[uint64]*subscriber[T]
	nextID uint64
	closed bool
}

// New returns an empty broadcaster.
func New[T any]() *Broadcaster[T] {
	return &Broadcaster[T]{subs: make(map[uint64]*subscriber[T])}
}

// Publish stores v as the latest value and queues it for every current
// subscriber. Publishing after Close is ignored.
func (b *Broadcaster[T]) Publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.latest = v
	b.has = true
	for _, s := range b.subs {
		s.push(v)
	}
}

// Latest returns the most recently published value, if any.
func (b *Broadcaster[T]) Latest() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.latest, b.has
}

// Subscribe registers fn. If a value has been published, fn first receives
// it, followed by every later publication in order. fn is called from a
// goroutine owned by the subscription, never concurrently with itself.
func (b *Broadcaster[T]) Subscribe(fn func(T)) *Subscription {
	s := newSubscriber(fn)

	b.mu.Lock()
	if b.has {
		s.push(b.latest)
	}
	id := b.nextID
	b.nextID++
	if b.closed {
		s.finish()
	} else {
		b.subs[id] = s
	}
	b.mu.Unlock()

	go s.run()

	sub := &Subscription{done: s.done, mailbox: s}
	sub.cancel = func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
		s.stop()
	}
	return sub
}

// Close ends the broadcaster. Values already queued are still delivered,
// after which every subscription reports Done.
func (b *Broadcaster[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, s := range b.subs {
		s.finish()
		delete(b.subs, id)
	}
}

// Subscription is a handle to a registered callback.
type Subscription struct {
	once    sync.Once
	cancel  func()
	done    <-chan struct{}
	mailbox interface{ droppedCount() uint64 }
}

// Cancel stops delivery. Values not yet delivered are dropped. A callback
// already running completes.
func (s *Subscription) Cancel() {
	s.once.Do(s.cancel)
}

// Dropped returns how many values were discarded because the mailbox was
// full.
func (s *Subscription) Dropped() uint64 {
	return s.mailbox.droppedCount()
}

// Done is closed once the subscription's goroutine has exited.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

type subscriber[T any] struct {
	fn   func(T)
	done chan struct{}

	mu        sync.Mutex
	cond      *sync.Cond
	queue     []T
	dropped   uint64
	stopped   bool // cancel: drop the rest
	finishing bool // close: drain, then exit
}

func newSubscriber[T any](fn func(T)) *subscriber[T] {
	s := &subscriber[T]{fn: fn, done: make(chan struct{})}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *subscriber[T]) push(v T) {
	s.mu.Lock()
	if len(s.queue) >= MailboxCapacity {
		var zero T
		s.queue[0] = zero
		s.queue = s.queue[1:]
		s.dropped++
	}
	s.queue = append(s.queue, v)
	s.mu.Unlock()
	s.cond.Signal()
}

func (s *subscriber[T]) droppedCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

func (s *subscriber[T]) stop() {
	s.mu.Lock()
	s.stopped = true
	s.queue = nil
	s.mu.Unlock()
	s.cond.Signal()
}

func (s *subscriber[T]) finish() {
	s.mu.Lock()
	s.finishing = true
	s.mu.Unlock()
	s.cond.Signal()
}

func (s *subscriber[T]) run() {
	defer close(s.done)
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.stopped && !s.finishing {
			s.cond.Wait()
		}
		if s.stopped || len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		v := s.queue[0]
		var zero T
		s.queue[0] = zero
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.fn(v)
	}
}
