/*
 * Copyright (C) 2024 The "WalletBridge/connector" Authors.
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

package pairing

import (
	"context"
	"sync"
)

// Registry owns the single pairing provider of an application. The expensive
// handshake runs at most once: concurrent callers during an in-flight
// handshake all receive the same eventual instance. A failed handshake
// clears the slot so a later call can attempt a fresh pairing.
type Registry struct {
	cfg Config

	mu   sync.Mutex
	call *handshakeCall

	// pair is swappable for tests.
	pair func(ctx context.Context, cfg Config) (*Provider, error)
}

type handshakeCall struct {
	done     chan struct{}
	provider *Provider
	err      error
}

// NewRegistry creates a registry for the given bridge configuration.
func NewRegistry(cfg Config) *Registry {
	return &Registry{cfg: cfg, pair: pairProvider}
}

func pairProvider(ctx context.Context, cfg Config) (*Provider, error) {
	p := NewProvider(cfg)
	if _, err := p.Enable(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// Provider returns the shared pairing provider, performing the handshake on
// first use. The handshake itself is detached from the caller's context so
// one impatient caller cannot kill it for everyone else - the caller's
// context only bounds the wait.
func (r *Registry) Provider(ctx context.Context) (*Provider, error) {
	r.mu.Lock()
	c := r.call
	if c == nil {
		c = &handshakeCall{done: make(chan struct{})}
		r.call = c
		go func() {
			c.provider, c.err = r.pair(context.Background(), r.cfg)
			close(c.done)
			if c.err != nil {
				r.mu.Lock()
				if r.call == c {
					r.call = nil
				}
				r.mu.Unlock()
			}
		}()
	}
	r.mu.Unlock()

	select {
	case <-c.done:
		return c.provider, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Peek returns the provider if the handshake already completed, without
// triggering one.
func (r *Registry) Peek() (*Provider, bool) {
	r.mu.Lock()
	c := r.call
	r.mu.Unlock()

	if c == nil {
		return nil, false
	}
	select {
	case <-c.done:
		if c.err != nil {
			return nil, false
		}
		return c.provider, true
	default:
		return nil, false
	}
}
