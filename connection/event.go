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

const (
	// AppTopicConnectionState represents the unified connection state change topic
	AppTopicConnectionState = "State change"
	// AppTopicWallet represents wallet account or chain changes
	AppTopicWallet = "Wallet change"
)

// AppEventConnectionState is the struct we'll emit on a AppTopicConnectionState topic event
type AppEventConnectionState struct {
	ProviderID string
	State      State
}

// AppEventWallet is the struct we'll emit on a AppTopicWallet topic event
type AppEventWallet struct {
	ProviderID string
	ChainID    int64
	Address    string
}
