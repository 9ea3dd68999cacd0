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
	"encoding/json"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/walletbridge/connector/provider"
	"github.com/walletbridge/connector/signal"
)

// account is the current wallet account signal value. Wallets report account
// lists, only the first entry matters. Comparable so the signal stream can
// de-duplicate.
type account struct {
	addr    common.Address
	present bool
}

func accountOf(list []string) account {
	if len(list) == 0 || list[0] == "" {
		return account{}
	}
	return account{addr: common.HexToAddress(list[0]), present: true}
}

// accountSource observes the wallet's current account: an eth_accounts pull
// plus accountsChanged push events.
func accountSource(h provider.Handle) *signal.Source[account] {
	return signal.Observe(h,
		func(ctx context.Context) (account, error) {
			list, err := requestAccounts(ctx, h, provider.MethodAccounts)
			if err != nil {
				return account{}, err
			}
			return accountOf(list), nil
		},
		func(payload interface{}) (account, bool) {
			list, err := cast.ToStringSliceE(payload)
			if err != nil {
				return account{}, false
			}
			return accountOf(list), true
		},
		provider.EventAccountsChanged,
	)
}

// chainSource observes the wallet's chain id: an eth_chainId pull plus
// chainChanged push events.
func chainSource(h provider.Handle) *signal.Source[int64] {
	return signal.Observe(h,
		func(ctx context.Context) (int64, error) {
			req, ok := h.(provider.Requester)
			if !ok {
				return 0, errors.Wrap(provider.ErrUnsupportedOperation, provider.MethodChainID)
			}
			raw, err := req.Request(ctx, provider.MethodChainID)
			if err != nil {
				return 0, err
			}
			var result interface{}
			if err := json.Unmarshal(raw, &result); err != nil {
				return 0, errors.Wrap(err, "malformed chain id response")
			}
			return parseChainID(result)
		},
		func(payload interface{}) (int64, bool) {
			id, err := parseChainID(payload)
			if err != nil {
				return 0, false
			}
			return id, true
		},
		provider.EventChainChanged,
	)
}

// livenessSource observes session liveness of a pairing-backed provider: a
// Connected() pull plus the disconnected push event, which always means dead.
func livenessSource(h provider.Handle) *signal.Source[bool] {
	return signal.Observe(h,
		func(ctx context.Context) (bool, error) {
			l, ok := h.(provider.Liveness)
			if !ok {
				return false, errors.Wrap(provider.ErrUnsupportedOperation, "liveness query")
			}
			return l.Connected(), nil
		},
		func(payload interface{}) (bool, bool) {
			return false, true
		},
		provider.EventDisconnected,
	)
}

func requestAccounts(ctx context.Context, h provider.Handle, method string) ([]string, error) {
	req, ok := h.(provider.Requester)
	if !ok {
		return nil, errors.Wrap(provider.ErrUnsupportedOperation, method)
	}
	raw, err := req.Request(ctx, method)
	if err != nil {
		return nil, err
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, errors.Wrap(err, "malformed accounts response")
	}
	return list, nil
}

// parseChainID coerces the many shapes wallets report chain ids in (hex
// string, decimal string, number) into one integer.
func parseChainID(v interface{}) (int64, error) {
	if s, ok := v.(string); ok && strings.HasPrefix(s, "0x") {
		id, err := hexutil.DecodeUint64(s)
		if err != nil {
			return 0, errors.Wrap(err, "malformed chain id")
		}
		return int64(id), nil
	}
	id, err := cast.ToInt64E(v)
	if err != nil {
		return 0, errors.Wrap(err, "malformed chain id")
	}
	return id, nil
}

// disconnectCapability builds the wallet disconnect closure once per
// connection attempt. The shutdown method is probed by capability presence:
// explicit close, explicit disconnect, or a no-op when the provider has
// neither.
func disconnectCapability(h provider.Handle) func(ctx context.Context) error {
	switch p := h.(type) {
	case provider.Closer:
		return func(context.Context) error { return p.Close() }
	case provider.Disconnecter:
		return func(context.Context) error { return p.Disconnect() }
	default:
		return func(context.Context) error { return nil }
	}
}
