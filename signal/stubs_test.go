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
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/walletbridge/connector/provider"
)

// emitterStub is a provider handle exposing only the event emitter
// capability, instrumented with listener counts.
type emitterStub struct {
	mu        sync.Mutex
	listeners map[string][]provider.Listener
}

func newEmitterStub() *emitterStub {
	return &emitterStub{listeners: make(map[string][]provider.Listener)}
}

func (e *emitterStub) On(event string, fn provider.Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners[event] = append(e.listeners[event], fn)
}

func (e *emitterStub) RemoveListener(event string, fn provider.Listener) {
	ptr := reflect.ValueOf(fn).Pointer()

	e.mu.Lock()
	defer e.mu.Unlock()
	current := e.listeners[event]
	for i, registered := range current {
		if reflect.ValueOf(registered).Pointer() == ptr {
			e.listeners[event] = append(current[:i], current[i+1:]...)
			return
		}
	}
}

func (e *emitterStub) emit(event string, payload interface{}) {
	e.mu.Lock()
	fns := append([]provider.Listener(nil), e.listeners[event]...)
	e.mu.Unlock()

	for _, fn := range fns {
		fn(payload)
	}
}

func (e *emitterStub) listenerCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	total := 0
	for _, fns := range e.listeners {
		total += len(fns)
	}
	return total
}

func awaitValue[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatal("stream ended unexpectedly")
		}
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for value")
		panic("unreachable")
	}
}

func awaitClosed[T any](t *testing.T, ch <-chan T) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for stream end")
		}
	}
}
