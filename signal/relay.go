/*
 * Copyright (C) 2023 The "WalletBridge/connector" Authors.
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */

package signal

import "sync"

// Relay is a hot, multicast value stream. Every subscriber receives each
// published value, a late subscriber immediately receives the last known
// value, and consecutive equal values collapse into one emission when an
// equality function is configured.
type Relay[T any] struct {
	mu     sync.Mutex
	subs   map[uint64]*sink[T]
	nextID uint64
	last   T
	has    bool
	closed bool

	replay   bool
	eq       func(a, b T) bool
	onActive func()
	onIdle   func()
}

// RelayOption configures a Relay.
type RelayOption[T any] func(*Relay[T])

// WithReplay makes late subscribers immediately receive the last value.
func WithReplay[T any]() RelayOption[T] {
	return func(r *Relay[T]) { r.replay = true }
}

// WithEqual de-duplicates consecutive values under the given equality.
func WithEqual[T any](eq func(a, b T) bool) RelayOption[T] {
	return func(r *Relay[T]) { r.eq = eq }
}

// WithHooks installs lifecycle callbacks: onActive fires when the first
// subscriber arrives, onIdle when the last one leaves. Both run outside the
// relay lock.
func WithHooks[T any](onActive, onIdle func()) RelayOption[T] {
	return func(r *Relay[T]) {
		r.onActive = onActive
		r.onIdle = onIdle
	}
}

// NewRelay creates a relay with the given options.
func NewRelay[T any](opts ...RelayOption[T]) *Relay[T] {
	r := &Relay[T]{subs: make(map[uint64]*sink[T])}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Publish delivers a value to all current subscribers. Duplicates of the
// previous value are silently discarded when equality is configured.
func (r *Relay[T]) Publish(v T) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	if r.eq != nil && r.has && r.eq(r.last, v) {
		r.mu.Unlock()
		return
	}
	r.last = v
	r.has = true
	sinks := make([]*sink[T], 0, len(r.subs))
	for _, s := range r.subs {
		sinks = append(sinks, s)
	}
	r.mu.Unlock()

	for _, s := range sinks {
		s.push(v)
	}
}

// Last reports the most recently published value, if any.
func (r *Relay[T]) Last() (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last, r.has
}

// Subscribe attaches a new subscriber to the relay.
func (r *Relay[T]) Subscribe() *Subscription[T] {
	r.mu.Lock()
	sk := newSink[T]()
	if r.closed {
		sk.close()
		r.mu.Unlock()
		return &Subscription[T]{C: sk.ch, sink: sk}
	}
	r.nextID++
	id := r.nextID
	r.subs[id] = sk
	first := len(r.subs) == 1
	replayValue, doReplay := r.last, r.replay && r.has
	onActive := r.onActive
	r.mu.Unlock()

	if doReplay {
		sk.push(replayValue)
	}
	if first && onActive != nil {
		onActive()
	}

	sub := &Subscription[T]{
		C:    sk.ch,
		sink: sk,
		teardown: func() {
			r.mu.Lock()
			delete(r.subs, id)
			idle := len(r.subs) == 0 && !r.closed
			onIdle := r.onIdle
			r.mu.Unlock()

			if idle && onIdle != nil {
				onIdle()
			}
		},
	}
	return sub
}

// Close ends the stream for every subscriber. Further publishes are dropped.
func (r *Relay[T]) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	sinks := make([]*sink[T], 0, len(r.subs))
	for _, s := range r.subs {
		sinks = append(sinks, s)
	}
	r.subs = make(map[uint64]*sink[T])
	r.mu.Unlock()

	for _, s := range sinks {
		s.close()
	}
}
