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

// Package ethrpc adapts a plain Ethereum JSON-RPC endpoint into a provider
// handle. The endpoint answers request-based calls but has no push
// notifications, so handles from this package expose no event emitter and
// their signal streams never update after the initial fetch.
package ethrpc

import (
	"context"
	"encoding/json"

	"github.com/ethereum/go-ethereum/rpc"
)

// Provider fronts a go-ethereum RPC client as a wallet provider handle.
type Provider struct {
	client *rpc.Client
}

// Dial connects to a JSON-RPC endpoint and wraps it as a provider.
func Dial(ctx context.Context, rawurl string) (*Provider, error) {
	client, err := rpc.DialContext(ctx, rawurl)
	if err != nil {
		return nil, err
	}
	return New(client), nil
}

// New wraps an existing RPC client as a provider.
func New(client *rpc.Client) *Provider {
	return &Provider{client: client}
}

// Request performs a request-based RPC call and returns the raw result.
func (p *Provider) Request(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	var result json.RawMessage
	if err := p.client.CallContext(ctx, &result, method, params...); err != nil {
		return nil, err
	}
	return result, nil
}

// Close shuts the underlying RPC client down.
func (p *Provider) Close() error {
	p.client.Close()
	return nil
}
