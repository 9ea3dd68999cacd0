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

import "github.com/pkg/errors"

var (
	// ErrNoProvider indicates that neither a primary nor a legacy wallet
	// provider could be located.
	ErrNoProvider = errors.New("no wallet provider available")
	// ErrUnsupportedOperation indicates an RPC capability the provider does
	// not expose. Callers must treat it as fatal for that operation, it is
	// never retried automatically.
	ErrUnsupportedOperation = errors.New("operation not supported by provider")
)
