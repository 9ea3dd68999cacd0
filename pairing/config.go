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

// Package pairing reaches a wallet through an out-of-band pairing session
// negotiated over a websocket bridge, instead of an in-process provider.
package pairing

import "github.com/pkg/errors"

// Config describes how to reach the pairing bridge and which RPC endpoints
// the paired wallet should use.
type Config struct {
	// BridgeURL is the websocket endpoint the pairing session is negotiated on.
	BridgeURL string
	// RPCKeyOrID is an API key or project id resolving to a hosted RPC endpoint.
	RPCKeyOrID string
	// RPCByChainID maps chain ids to explicit RPC endpoints. Used when no
	// hosted key is configured.
	RPCByChainID map[int64]string
	// DefaultNetworkID is the chain the session starts on.
	DefaultNetworkID int64
}

// Validate reports whether the configuration is complete enough to pair.
func (c Config) Validate() error {
	if c.BridgeURL == "" {
		return errors.New("bridge URL is required")
	}
	if c.RPCKeyOrID == "" && len(c.RPCByChainID) == 0 {
		return errors.New("either an RPC key or an RPC endpoint map is required")
	}
	return nil
}

func (c Config) defaultNetwork() int64 {
	if c.DefaultNetworkID != 0 {
		return c.DefaultNetworkID
	}
	return 1
}
