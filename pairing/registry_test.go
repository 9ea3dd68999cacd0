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
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func testRegistry(pair func(ctx context.Context, cfg Config) (*Provider, error)) *Registry {
	r := NewRegistry(Config{BridgeURL: "ws://bridge.test"})
	r.pair = pair
	return r
}

func TestRegistrySharesSingleHandshake(t *testing.T) {
	var handshakes int64
	release := make(chan struct{})
	r := testRegistry(func(ctx context.Context, cfg Config) (*Provider, error) {
		atomic.AddInt64(&handshakes, 1)
		<-release
		return NewProvider(cfg), nil
	})

	const callers = 5
	results := make([]*Provider, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := r.Provider(context.Background())
			assert.NoError(t, err)
			results[i] = p
		}(i)
	}

	// Let every caller park on the in-flight handshake before releasing it.
	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(&handshakes) == 1
	}, time.Second, 5*time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt64(&handshakes))
	for i := 1; i < callers; i++ {
		assert.Same(t, results[0], results[i])
	}
}

func TestRegistryRetriesAfterFailedHandshake(t *testing.T) {
	var attempts int64
	r := testRegistry(func(ctx context.Context, cfg Config) (*Provider, error) {
		if atomic.AddInt64(&attempts, 1) == 1 {
			return nil, errors.New("bridge unreachable")
		}
		return NewProvider(cfg), nil
	})

	_, err := r.Provider(context.Background())
	assert.Error(t, err)

	_, ok := r.Peek()
	assert.False(t, ok, "failed handshake must not be peekable")

	assert.Eventually(t, func() bool {
		p, err := r.Provider(context.Background())
		return err == nil && p != nil
	}, time.Second, 5*time.Millisecond)
	assert.EqualValues(t, 2, atomic.LoadInt64(&attempts))
}

func TestRegistryCallerContextBoundsTheWaitOnly(t *testing.T) {
	release := make(chan struct{})
	r := testRegistry(func(ctx context.Context, cfg Config) (*Provider, error) {
		<-release
		return NewProvider(cfg), nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Provider(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	// The handshake itself survived the impatient caller.
	close(release)
	p, err := r.Provider(context.Background())
	assert.NoError(t, err)
	assert.NotNil(t, p)
}

func TestRegistryPeekDoesNotTriggerHandshake(t *testing.T) {
	var handshakes int64
	r := testRegistry(func(ctx context.Context, cfg Config) (*Provider, error) {
		atomic.AddInt64(&handshakes, 1)
		return NewProvider(cfg), nil
	})

	_, ok := r.Peek()
	assert.False(t, ok)
	assert.Zero(t, atomic.LoadInt64(&handshakes))

	_, err := r.Provider(context.Background())
	assert.NoError(t, err)

	p, ok := r.Peek()
	assert.True(t, ok)
	assert.NotNil(t, p)
	assert.EqualValues(t, 1, atomic.LoadInt64(&handshakes))
}
