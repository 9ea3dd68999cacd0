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

package provider

import (
	"context"
	"encoding/json"
)

// Handle is an opaque, externally owned wallet provider. The connector only
// subscribes to and unsubscribes from its events, it never owns the handle's
// lifecycle. Capabilities are discovered with type assertions against the
// optional interfaces below.
type Handle interface{}

// Listener receives a raw event payload from a provider.
type Listener func(payload interface{})

// Requester is the request-based RPC capability of a provider.
type Requester interface {
	Request(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error)
}

// LegacyEnabler is the pre-EIP-1102 authorization capability.
type LegacyEnabler interface {
	Enable(ctx context.Context) ([]string, error)
}

// EventEmitter is the push-notification capability of a provider.
// RemoveListener unregisters by function identity, the same way EventBus
// implementations match handlers.
type EventEmitter interface {
	On(event string, fn Listener)
	RemoveListener(event string, fn Listener)
}

// Closer is an optional shutdown capability.
type Closer interface {
	Close() error
}

// Disconnecter is an optional session shutdown capability.
type Disconnecter interface {
	Disconnect() error
}

// Liveness reports whether a session-backed provider still has a live session.
type Liveness interface {
	Connected() bool
}

// RPC method names understood by Ethereum providers.
const (
	MethodRequestAccounts = "eth_requestAccounts"
	MethodAccounts        = "eth_accounts"
	MethodChainID         = "eth_chainId"
)

// Event names emitted by Ethereum providers.
const (
	EventAccountsChanged = "accountsChanged"
	EventChainChanged    = "chainChanged"
	EventDisconnected    = "disconnected"
)
