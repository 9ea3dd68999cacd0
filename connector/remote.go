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

package connector

import (
	"context"

	"github.com/walletbridge/connector/connection"
	"github.com/walletbridge/connector/eventbus"
	"github.com/walletbridge/connector/pairing"
	"github.com/walletbridge/connector/provider"
	"github.com/walletbridge/connector/signal"
)

// RemoteID identifies the remote pairing connector kind.
const RemoteID = "walletconnect"

// Remote connects through a wallet paired over the bridge. All observers
// share the single pairing provider owned by the registry.
type Remote struct {
	registry *pairing.Registry
	bus      eventbus.Publisher
}

// NewRemote creates the remote pairing connector.
func NewRemote(registry *pairing.Registry, bus eventbus.Publisher) *Remote {
	return &Remote{registry: registry, bus: bus}
}

// ID returns the stable provider-kind identifier.
func (c *Remote) ID() string {
	return RemoteID
}

// Connection returns the unified connection state stream for the paired
// wallet. The pairing handshake runs lazily with the first subscriber and at
// most once per process, concurrent subscribers share it.
func (c *Remote) Connection(ctx context.Context) *signal.Relay[connection.State] {
	reconciler := connection.NewReconciler(
		c.ID(),
		func(ctx context.Context) (provider.Handle, error) {
			return c.registry.Provider(ctx)
		},
		c.bus,
		connection.WithLiveness(),
	)
	return reconciler.Stream(ctx)
}

// Option always reports the walletconnect family: a pairing session can be
// opened whether or not one exists yet.
func (c *Remote) Option(ctx context.Context) (provider.Family, bool) {
	return provider.FamilyWalletConnect, true
}

// IsAutoConnected reports autoconnect eligibility of the pairing family.
func (c *Remote) IsAutoConnected(ctx context.Context) bool {
	return provider.AutoConnectEligible(provider.FamilyWalletConnect)
}

// IsConnected reports whether a live pairing session exists. It never
// triggers a pairing handshake by itself.
func (c *Remote) IsConnected(ctx context.Context) bool {
	p, ok := c.registry.Peek()
	return ok && p.Connected()
}
