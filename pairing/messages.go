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

import "encoding/json"

// Bridge message types.
const (
	msgSessionRequest  = "session_request"
	msgSessionApproved = "session_approved"
	msgSessionRejected = "session_rejected"
	msgAccountsChanged = "accounts_changed"
	msgChainChanged    = "chain_changed"
	msgDisconnect      = "disconnect"
	msgRequest         = "request"
	msgResponse        = "response"
)

// envelope is the framing of every bridge message.
type envelope struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type sessionRequestPayload struct {
	RPCKeyOrID   string           `json:"rpcKeyOrId,omitempty"`
	RPCByChainID map[int64]string `json:"rpcByChainId,omitempty"`
	NetworkID    int64            `json:"networkId"`
}

type sessionApprovedPayload struct {
	Accounts []string `json:"accounts"`
	ChainID  int64    `json:"chainId"`
}

type accountsChangedPayload struct {
	Accounts []string `json:"accounts"`
}

type chainChangedPayload struct {
	ChainID int64 `json:"chainId"`
}

type requestPayload struct {
	Method string        `json:"method"`
	Params []interface{} `json:"params,omitempty"`
}

type responsePayload struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

func mustMarshal(v interface{}) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}
