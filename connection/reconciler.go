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
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/walletbridge/connector/eventbus"
	"github.com/walletbridge/connector/provider"
	"github.com/walletbridge/connector/signal"
)

// HandleResolver locates and authorizes the provider handle for one
// connection attempt. It runs lazily when the first subscriber arrives and
// may block on a user-driven authorization prompt - there is no timeout, a
// hung prompt leaves the state at Connecting indefinitely.
type HandleResolver func(ctx context.Context) (provider.Handle, error)

// Reconciler combines the address, chain id and liveness signals of one
// provider into a unified connection state stream.
type Reconciler struct {
	providerID    string
	resolve       HandleResolver
	bus           eventbus.Publisher
	trackLiveness bool
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLiveness adds the explicit session liveness signal. Session-backed
// providers report external disconnects through it.
func WithLiveness() Option {
	return func(r *Reconciler) { r.trackLiveness = true }
}

// NewReconciler creates a reconciler for one provider.
func NewReconciler(providerID string, resolve HandleResolver, bus eventbus.Publisher, opts ...Option) *Reconciler {
	r := &Reconciler{
		providerID: providerID,
		resolve:    resolve,
		bus:        bus,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Stream returns the hot, multicast connection state stream. Work starts
// lazily with the first subscriber and stops when the last one leaves:
// unsubscribing synchronously releases every provider listener registered on
// the stream's behalf. The stream itself never errors, failures surface as
// the Disconnected state.
func (r *Reconciler) Stream(ctx context.Context) *signal.Relay[State] {
	var (
		mu    sync.Mutex
		stop  func()
		relay *signal.Relay[State]
	)

	onActive := func() {
		mu.Lock()
		defer mu.Unlock()

		if stop != nil {
			return
		}
		stop = r.run(ctx, relay)
	}

	onIdle := func() {
		mu.Lock()
		defer mu.Unlock()

		if stop != nil {
			stop()
			stop = nil
		}
	}

	relay = signal.NewRelay(
		signal.WithReplay[State](),
		signal.WithEqual[State](statesEqual),
		signal.WithHooks[State](onActive, onIdle),
	)
	return relay
}

// run starts one connection attempt. The returned stop function cancels the
// attempt and waits for all provider listeners to be released.
func (r *Reconciler) run(parent context.Context, out *signal.Relay[State]) func() {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	emitter := &stateEmitter{reconciler: r, out: out}
	emitter.emit(StateConnecting(r.providerID))

	go func() {
		defer close(done)

		h, err := r.resolve(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Warn().Err(err).Msgf("Connecting to provider %q failed", r.providerID)
				emitter.emit(StateDisconnected())
			}
			return
		}
		if ctx.Err() != nil {
			return
		}

		accSub := signal.Share(ctx, accountSource(h)).Subscribe()
		defer accSub.Unsubscribe()
		chainSub := signal.Share(ctx, chainSource(h)).Subscribe()
		defer chainSub.Unsubscribe()

		var liveC <-chan bool
		if r.trackLiveness {
			liveSub := livenessSource(h).Subscribe(ctx)
			defer liveSub.Unsubscribe()
			liveC = liveSub.C
		}

		disconnect := disconnectCapability(h)

		var (
			acc       account
			haveAcc   bool
			chainID   int64
			haveChain bool
			live      = !r.trackLiveness
		)

		for {
			select {
			case v, ok := <-accSub.C:
				if !ok {
					emitter.emit(StateDisconnected())
					return
				}
				acc, haveAcc = v, true
			case v, ok := <-chainSub.C:
				if !ok {
					emitter.emit(StateDisconnected())
					return
				}
				chainID, haveChain = v, true
			case v, ok := <-liveC:
				if !ok {
					emitter.emit(StateDisconnected())
					return
				}
				live = v
				if !live {
					// Session ended externally. Disconnect and release the
					// per-session listeners.
					emitter.emit(StateDisconnected())
					return
				}
			case <-ctx.Done():
				return
			}

			if !haveAcc || !haveChain {
				continue
			}
			if acc.present && live {
				emitter.emitConnected(&Wallet{
					ChainID:    chainID,
					Address:    acc.addr,
					Provider:   h,
					Disconnect: disconnect,
				})
			} else {
				emitter.emit(StateDisconnected())
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

// stateEmitter funnels derived states into the relay and onto the event
// bus, collapsing consecutive duplicates for both.
type stateEmitter struct {
	reconciler *Reconciler
	out        *signal.Relay[State]

	mu   sync.Mutex
	last *State
}

func (e *stateEmitter) emit(s State) {
	e.mu.Lock()
	if e.last != nil && statesEqual(*e.last, s) {
		e.mu.Unlock()
		return
	}
	e.last = &s
	e.mu.Unlock()

	e.out.Publish(s)
	if e.reconciler.bus != nil {
		e.reconciler.bus.Publish(AppTopicConnectionState, AppEventConnectionState{
			ProviderID: e.reconciler.providerID,
			State:      s,
		})
	}
}

func (e *stateEmitter) emitConnected(w *Wallet) {
	next := StateConnected(w)
	e.mu.Lock()
	changed := e.last == nil || !statesEqual(*e.last, next)
	e.mu.Unlock()

	e.emit(next)
	if changed && e.reconciler.bus != nil {
		e.reconciler.bus.Publish(AppTopicWallet, AppEventWallet{
			ProviderID: e.reconciler.providerID,
			ChainID:    w.ChainID,
			Address:    w.Address.Hex(),
		})
	}
}
