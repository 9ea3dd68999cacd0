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

// Package signal turns push-style provider notifications into live value
// streams with guaranteed listener release on teardown.
package signal

import (
	"sync"

	"github.com/rs/zerolog/log"
)

const sinkBuffer = 16

// Subscription is a handle to a live value stream. Values arrive on C until
// Unsubscribe is called or the stream ends, after which C is closed.
type Subscription[T any] struct {
	// C delivers the stream values.
	C <-chan T

	sink     *sink[T]
	once     sync.Once
	teardown func()
}

// Unsubscribe releases the underlying provider listeners and closes C.
// Safe to call more than once, repeated calls are no-ops.
func (s *Subscription[T]) Unsubscribe() {
	s.once.Do(func() {
		if s.teardown != nil {
			s.teardown()
		}
		s.sink.close()
	})
}

// sink is the emit side of a subscription channel. It survives emits after
// close by dropping them instead of panicking on a closed channel.
type sink[T any] struct {
	ch     chan T
	mu     sync.Mutex
	closed bool
}

func newSink[T any]() *sink[T] {
	return &sink[T]{ch: make(chan T, sinkBuffer)}
}

func (s *sink[T]) push(v T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	select {
	case s.ch <- v:
		return true
	default:
		log.Warn().Msg("Signal subscriber too slow, dropping value")
		return false
	}
}

func (s *sink[T]) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}
