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

package connection

import (
	"context"
	"encoding/json"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/walletbridge/connector/provider"
	"github.com/walletbridge/connector/signal"
)

// walletStub fakes an injected wallet provider: request-based RPC, push
// events with listener-count instrumentation, and optional liveness.
type walletStub struct {
	mu        sync.Mutex
	accounts  []string
	chainHex  string
	live      bool
	closes    int
	listeners map[string][]provider.Listener

	accountsErr error
	chainErr    error
}

func newWalletStub(accounts []string, chainHex string) *walletStub {
	return &walletStub{
		accounts:  accounts,
		chainHex:  chainHex,
		live:      true,
		listeners: make(map[string][]provider.Listener),
	}
}

func (s *walletStub) Request(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch method {
	case provider.MethodAccounts, provider.MethodRequestAccounts:
		if s.accountsErr != nil {
			return nil, s.accountsErr
		}
		return json.Marshal(s.accounts)
	case provider.MethodChainID:
		if s.chainErr != nil {
			return nil, s.chainErr
		}
		return json.Marshal(s.chainHex)
	default:
		return nil, errors.Wrap(provider.ErrUnsupportedOperation, method)
	}
}

func (s *walletStub) On(event string, fn provider.Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], fn)
}

func (s *walletStub) RemoveListener(event string, fn provider.Listener) {
	ptr := reflect.ValueOf(fn).Pointer()

	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.listeners[event]
	for i, registered := range current {
		if reflect.ValueOf(registered).Pointer() == ptr {
			s.listeners[event] = append(current[:i], current[i+1:]...)
			return
		}
	}
}

func (s *walletStub) emit(event string, payload interface{}) {
	s.mu.Lock()
	fns := append([]provider.Listener(nil), s.listeners[event]...)
	s.mu.Unlock()

	for _, fn := range fns {
		fn(payload)
	}
}

func (s *walletStub) listenerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, fns := range s.listeners {
		total += len(fns)
	}
	return total
}

func (s *walletStub) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live
}

func (s *walletStub) setLive(live bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = live
}

func (s *walletStub) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

func resolverFor(s *walletStub) HandleResolver {
	return func(ctx context.Context) (provider.Handle, error) {
		return s, nil
	}
}

func awaitState(t *testing.T, sub *signal.Subscription[State]) State {
	t.Helper()
	select {
	case s, ok := <-sub.C:
		if !ok {
			t.Fatal("state stream ended unexpectedly")
		}
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for state")
		panic("unreachable")
	}
}

func awaitPhase(t *testing.T, sub *signal.Subscription[State], phase Phase) State {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case s, ok := <-sub.C:
			if !ok {
				t.Fatalf("state stream ended waiting for phase %s", phase)
			}
			if s.Phase == phase {
				return s
			}
		case <-deadline:
			t.Fatalf("timed out waiting for phase %s", phase)
		}
	}
}

func assertNoState(t *testing.T, sub *signal.Subscription[State]) {
	t.Helper()
	select {
	case s := <-sub.C:
		t.Fatalf("unexpected state emission %+v", s)
	case <-time.After(100 * time.Millisecond):
	}
}
