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

// Package connection reconciles the independent wallet signals (address,
// chain id, liveness) into one live stream of connection states.
package connection

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/walletbridge/connector/provider"
)

// Phase represents list of possible connection states
type Phase string

const (
	// Disconnected means no wallet is connected
	Disconnected = Phase("Disconnected")
	// Connecting means that a connection attempt is started but the wallet is not delivered yet
	Connecting = Phase("Connecting")
	// Connected means that a live wallet connection exists
	Connected = Phase("Connected")
)

// State is the unified connection state. Exactly one variant is current at
// any instant: Disconnected carries nothing, Connecting carries the provider
// id, Connected carries the wallet.
type State struct {
	Phase      Phase
	ProviderID string
	Wallet     *Wallet
}

// Wallet is a live connection to one wallet account. Disconnect is a
// capability closure bound to the specific provider instance.
type Wallet struct {
	ChainID    int64
	Address    common.Address
	Provider   provider.Handle
	Disconnect func(ctx context.Context) error
}

// StateDisconnected builds the Disconnected variant.
func StateDisconnected() State {
	return State{Phase: Disconnected}
}

// StateConnecting builds the Connecting variant.
func StateConnecting(providerID string) State {
	return State{Phase: Connecting, ProviderID: providerID}
}

// StateConnected builds the Connected variant.
func StateConnected(w *Wallet) State {
	return State{Phase: Connected, Wallet: w}
}

// statesEqual compares states by phase and wallet identity, ignoring the
// disconnect closure. Used to collapse duplicate emissions.
func statesEqual(a, b State) bool {
	if a.Phase != b.Phase || a.ProviderID != b.ProviderID {
		return false
	}
	if (a.Wallet == nil) != (b.Wallet == nil) {
		return false
	}
	if a.Wallet == nil {
		return true
	}
	return a.Wallet.ChainID == b.Wallet.ChainID && a.Wallet.Address == b.Wallet.Address
}
