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

// Package connector exposes wallet connection adapters to application code:
// one for providers injected into the process, one for wallets reached
// through a remote pairing session.
package connector

import (
	"context"

	"github.com/pkg/errors"

	"github.com/walletbridge/connector/connection"
	"github.com/walletbridge/connector/provider"
	"github.com/walletbridge/connector/signal"
)

// ErrHandshakeDenied indicates the user or provider rejected authorization,
// including the legacy enable fallback.
var ErrHandshakeDenied = errors.New("wallet authorization denied")

// Connector is a live handle to one kind of wallet provider.
type Connector interface {
	// ID returns the stable provider-kind identifier.
	ID() string
	// Connection returns the hot, multicast connection state stream. The
	// handshake is triggered lazily by the first subscriber. The stream
	// never errors, failed attempts surface as the Disconnected state.
	Connection(ctx context.Context) *signal.Relay[connection.State]
	// Option reports the wallet family this connector would connect to,
	// false when no provider is available.
	Option(ctx context.Context) (provider.Family, bool)
	// IsAutoConnected reports whether the wallet family is eligible for
	// silent reconnection, regardless of current connection status.
	IsAutoConnected(ctx context.Context) bool
	// IsConnected reports whether a wallet is currently authorized.
	IsConnected(ctx context.Context) bool
}

// disconnectedStream is the stream for a connect attempt that failed before
// any signal could be established.
func disconnectedStream() *signal.Relay[connection.State] {
	relay := signal.NewRelay(signal.WithReplay[connection.State]())
	relay.Publish(connection.StateDisconnected())
	return relay
}
