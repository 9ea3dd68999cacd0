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
	"sync"
)

// Share multicasts a source: all subscribers share one underlying provider
// subscription, consecutive duplicate values collapse into one emission and
// late subscribers immediately receive the last known value. The provider
// listener is registered when the first subscriber arrives and released when
// the last one leaves. When the underlying source ends on its own (a failed
// initial fetch), the shared stream closes for every subscriber.
func Share[T comparable](ctx context.Context, src *Source[T]) *Relay[T] {
	var (
		mu       sync.Mutex
		upstream *Subscription[T]
		relay    *Relay[T]
	)

	onActive := func() {
		mu.Lock()
		defer mu.Unlock()

		if upstream != nil {
			return
		}
		sub := src.Subscribe(ctx)
		upstream = sub
		go func() {
			for v := range sub.C {
				relay.Publish(v)
			}
			// The upstream ended on its own, not through an idle
			// teardown. The shared stream cannot recover, end it for
			// every subscriber.
			mu.Lock()
			ended := upstream == sub
			if ended {
				upstream = nil
			}
			mu.Unlock()
			if ended {
				relay.Close()
			}
		}()
	}

	onIdle := func() {
		mu.Lock()
		defer mu.Unlock()

		if upstream != nil {
			upstream.Unsubscribe()
			upstream = nil
		}
	}

	relay = NewRelay(
		WithReplay[T](),
		WithEqual[T](func(a, b T) bool { return a == b }),
		WithHooks[T](onActive, onIdle),
	)
	return relay
}
