// Package progress keeps per-session progress logs and fans new messages out
// to live subscribers.
package progress

import (
	"sync"
	"time"

	"github.com/OFFIS-RIT/dossier/backend/pkg/logger"
)

const (
	DefaultGracePeriod = 60 * time.Second
	DefaultBuffer      = 64
)

// Registry maps session keys to progress sessions. It is safe for concurrent
// use by one writer per session and any number of subscribers.
//
// A Registry should be created using NewRegistry.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*session
	gen      uint64

	grace  time.Duration
	buffer int
}

// NewRegistryParams configures a Registry. Zero values select the defaults.
type NewRegistryParams struct {
	// GracePeriod is how long a retired session stays readable.
	GracePeriod time.Duration
	// Buffer is the channel capacity of each subscription.
	Buffer int
}

// Session is the handle returned by Create and consumed by Retire.
type Session struct {
	Key string
	gen uint64
}

// Subscription is one observer attached to a session. Messages arrive on C
// in recording order; C is closed when the session expires, the registry is
// closed or the subscription is removed.
type Subscription struct {
	key    string
	ch     chan string
	s      *session
	closed bool
}

// C returns the channel live messages are delivered on.
func (s *Subscription) C() <-chan string {
	return s.ch
}

// Key returns the session key the subscription is attached to.
func (s *Subscription) Key() string {
	return s.key
}

type session struct {
	// gen and timer are guarded by Registry.mu
	gen   uint64
	timer *time.Timer

	mu      sync.Mutex
	active  bool
	expired bool
	log     []string
	subs    []*Subscription
}

func NewRegistry(params NewRegistryParams) *Registry {
	grace := params.GracePeriod
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	buffer := params.Buffer
	if buffer <= 0 {
		buffer = DefaultBuffer
	}

	return &Registry{
		sessions: make(map[string]*session),
		grace:    grace,
		buffer:   buffer,
	}
}

func (r *Registry) nextGen() uint64 {
	r.gen++
	return r.gen
}

// Create starts a session for key. Re-creating a key resets its log and
// cancels a pending retirement; subscribers already attached stay attached.
func (r *Registry) Create(key string) Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[key]
	if !ok {
		s = &session{}
		r.sessions[key] = s
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen = r.nextGen()

	s.mu.Lock()
	s.active = true
	s.log = []string{}
	s.mu.Unlock()

	return Session{Key: key, gen: s.gen}
}

// Record appends message to the session log and pushes it to every
// subscriber in the order they attached. Unknown or expired keys are ignored.
// A subscriber whose buffer is full misses the message.
func (r *Registry) Record(key string, message string) {
	r.mu.Lock()
	s := r.sessions[key]
	r.mu.Unlock()
	if s == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active || s.expired {
		return
	}

	s.log = append(s.log, message)
	for _, sub := range s.subs {
		select {
		case sub.ch <- message:
		default:
			logger.Warn("[Progress] Subscriber buffer full, dropping message", "key", key, "message", message)
		}
	}
}

// Log returns a copy of the messages recorded for key so far.
func (r *Registry) Log(key string) []string {
	r.mu.Lock()
	s := r.sessions[key]
	r.mu.Unlock()
	if s == nil {
		return []string{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.log))
	copy(out, s.log)
	return out
}

// Subscribe attaches a new observer to key and returns it together with the
// history recorded so far. Messages recorded after the snapshot are delivered
// on the subscription, none are lost or repeated in between.
//
// Subscribing to a key nobody created yet reserves the session; if no Create
// claims it within the grace period the subscription is closed.
func (r *Registry) Subscribe(key string) (*Subscription, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[key]
	if !ok {
		s = &session{gen: r.nextGen(), log: []string{}}
		r.sessions[key] = s
		s.timer = r.scheduleExpiry(key, s.gen)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sub := &Subscription{
		key: key,
		ch:  make(chan string, r.buffer),
		s:   s,
	}
	s.subs = append(s.subs, sub)

	history := make([]string, len(s.log))
	copy(history, s.log)
	return sub, history
}

// Unsubscribe detaches sub and closes its channel. It is safe to call more
// than once and after the session expired.
func (r *Registry) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	s := sub.s

	s.mu.Lock()
	defer s.mu.Unlock()
	if sub.closed {
		return
	}
	for i, other := range s.subs {
		if other == sub {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			break
		}
	}
	sub.closed = true
	close(sub.ch)
}

// Retire schedules the session for deletion after the grace period. A handle
// from a run that was since replaced by a newer Create is ignored.
func (r *Registry) Retire(handle Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[handle.Key]
	if !ok || s.gen != handle.gen {
		logger.Debug("[Progress] Ignoring stale retire", "key", handle.Key)
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = r.scheduleExpiry(handle.Key, handle.gen)
}

// Close drops every session and closes all subscriptions.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*session)
	for _, s := range sessions {
		if s.timer != nil {
			s.timer.Stop()
			s.timer = nil
		}
	}
	r.mu.Unlock()

	for _, s := range sessions {
		s.expire()
	}
}

func (r *Registry) scheduleExpiry(key string, gen uint64) *time.Timer {
	return time.AfterFunc(r.grace, func() {
		r.mu.Lock()
		s, ok := r.sessions[key]
		if !ok || s.gen != gen {
			r.mu.Unlock()
			return
		}
		delete(r.sessions, key)
		r.mu.Unlock()

		s.expire()
		logger.Debug("[Progress] Session expired", "key", key)
	})
}

func (s *session) expire() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expired = true
	for _, sub := range s.subs {
		sub.closed = true
		close(sub.ch)
	}
	s.subs = nil
}
