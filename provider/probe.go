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
	"reflect"
	"strings"
)

// Family is a known wallet implementation. It carries no behavior, it is
// used for classification and autoconnect policy lookups only.
type Family string

const (
	// FamilyMetamask is the MetaMask extension.
	FamilyMetamask = Family("metamask")
	// FamilyTrust is the Trust mobile wallet.
	FamilyTrust = Family("trust")
	// FamilyCoinbase is the Coinbase wallet (WalletLink).
	FamilyCoinbase = Family("coinbase")
	// FamilyStatus is the Status mobile client.
	FamilyStatus = Family("status")
	// FamilyOpera is the wallet built into the Opera browser.
	FamilyOpera = Family("opera")
	// FamilyCipher is the legacy Cipher browser.
	FamilyCipher = Family("cipher")
	// FamilyGeneric is any recognized but unclassified web3 provider.
	FamilyGeneric = Family("web3")
	// FamilyWalletConnect is a remote pairing session.
	FamilyWalletConnect = Family("walletconnect")
)

// Vendor flags providers set on themselves. Each one is probed as an
// optional capability.
type metamaskFlag interface{ IsMetaMask() bool }
type trustFlag interface{ IsTrust() bool }
type coinbaseFlag interface{ IsCoinbaseWallet() bool }
type statusFlag interface{ IsStatus() bool }

// EnvironmentMarker reports the host environment a provider was injected
// from (e.g. "opera"), for wallets recognizable only by their surroundings.
type EnvironmentMarker interface {
	Environment() string
}

// Capabilities is the result of probing a provider handle.
type Capabilities struct {
	Family       Family
	Request      bool
	LegacyEnable bool
	Events       bool
	Close        bool
	Disconnect   bool
	Liveness     bool
}

// Probe inspects a provider handle and reports its family together with the
// capability surface it exposes. It never panics, a nil handle probes to a
// zero Capabilities value.
func Probe(h Handle) Capabilities {
	family, ok := Classify(h)
	if !ok {
		return Capabilities{}
	}

	caps := Capabilities{Family: family}
	_, caps.Request = h.(Requester)
	_, caps.LegacyEnable = h.(LegacyEnabler)
	_, caps.Events = h.(EventEmitter)
	_, caps.Close = h.(Closer)
	_, caps.Disconnect = h.(Disconnecter)
	_, caps.Liveness = h.(Liveness)
	return caps
}

// Classify determines the wallet family of a provider handle. The checks are
// a fixed priority cascade: vendor capability flags first, then environment
// markers, then constructor identity. First match wins, anything recognized
// but unmatched is the generic family. Reports false for a missing handle.
func Classify(h Handle) (Family, bool) {
	if isNil(h) {
		return "", false
	}

	if f, ok := h.(metamaskFlag); ok && f.IsMetaMask() {
		return FamilyMetamask, true
	}
	if f, ok := h.(trustFlag); ok && f.IsTrust() {
		return FamilyTrust, true
	}
	if f, ok := h.(coinbaseFlag); ok && f.IsCoinbaseWallet() {
		return FamilyCoinbase, true
	}
	if f, ok := h.(statusFlag); ok && f.IsStatus() {
		return FamilyStatus, true
	}

	if m, ok := h.(EnvironmentMarker); ok {
		switch strings.ToLower(m.Environment()) {
		case "opera":
			return FamilyOpera, true
		case "status":
			return FamilyStatus, true
		}
	}

	if strings.Contains(strings.ToLower(typeName(h)), "cipher") {
		return FamilyCipher, true
	}

	return FamilyGeneric, true
}

func isNil(h Handle) bool {
	if h == nil {
		return true
	}
	v := reflect.ValueOf(h)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func, reflect.Interface, reflect.Slice:
		return v.IsNil()
	}
	return false
}

func typeName(h Handle) string {
	t := reflect.TypeOf(h)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
