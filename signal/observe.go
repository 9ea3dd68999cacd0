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

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/walletbridge/connector/provider"
)

// Source describes one live signal of a provider: an initial one-shot fetch
// plus a named push event, both mapped into the same value type.
type Source[T any] struct {
	emitter provider.EventEmitter
	event   string
	fetch   func(ctx context.Context) (T, error)
	mapRaw  func(payload interface{}) (T, bool)
}

// Observe builds a signal source from a provider handle. The handle's event
// emitter capability is probed here - a handle without one yields a source
// that only ever delivers the initial fetch result and then never updates.
func Observe[T any](
	h provider.Handle,
	fetch func(ctx context.Context) (T, error),
	mapRaw func(payload interface{}) (T, bool),
	event string,
) *Source[T] {
	emitter, _ := h.(provider.EventEmitter)
	return &Source[T]{
		emitter: emitter,
		event:   event,
		fetch:   fetch,
		mapRaw:  mapRaw,
	}
}

// Subscribe starts the stream: it registers the event listener, kicks off
// the initial fetch and delivers every mapped value on the subscription
// channel. The initial value may race the first event, whichever resolves
// first is observed first. A failed initial fetch is fatal for the signal -
// the stream ends and the listener is released.
func (s *Source[T]) Subscribe(ctx context.Context) *Subscription[T] {
	sk := newSink[T]()

	var listener provider.Listener
	if s.emitter != nil {
		listener = func(payload interface{}) {
			if v, ok := s.mapRaw(payload); ok {
				sk.push(v)
			}
		}
		s.emitter.On(s.event, listener)
	}

	sub := &Subscription[T]{
		C:    sk.ch,
		sink: sk,
		teardown: func() {
			if s.emitter != nil {
				s.emitter.RemoveListener(s.event, listener)
			}
		},
	}

	go func() {
		v, err := s.fetch(ctx)
		if err != nil {
			log.Warn().Err(err).Msgf("Initial fetch for signal %q failed, ending stream", s.event)
			sub.Unsubscribe()
			return
		}
		sk.push(v)
	}()

	return sub
}
