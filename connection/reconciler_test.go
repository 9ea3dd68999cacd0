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
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/walletbridge/connector/provider"
)

func TestReconcilerConnects(t *testing.T) {
	stub := newWalletStub([]string{"0xABC"}, "0x1")
	reconciler := NewReconciler("injected", resolverFor(stub), nil)

	sub := reconciler.Stream(context.Background()).Subscribe()
	defer sub.Unsubscribe()

	first := awaitState(t, sub)
	assert.Equal(t, Connecting, first.Phase)
	assert.Equal(t, "injected", first.ProviderID)

	second := awaitState(t, sub)
	assert.Equal(t, Connected, second.Phase)
	assert.Equal(t, common.HexToAddress("0xABC"), second.Wallet.Address)
	assert.Equal(t, int64(1), second.Wallet.ChainID)
}

func TestReconcilerAccountSequences(t *testing.T) {
	tests := []struct {
		name     string
		sequence [][]string
		phase    Phase
		address  string
	}{
		{"ends non-empty", [][]string{{"0xABC"}, {}, {"0xDEF", "0x999"}}, Connected, "0xDEF"},
		{"ends empty", [][]string{{"0xABC"}, {"0xDEF"}, {}}, Disconnected, ""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			stub := newWalletStub([]string{"0xABC"}, "0x1")
			reconciler := NewReconciler("injected", resolverFor(stub), nil)

			sub := reconciler.Stream(context.Background()).Subscribe()
			defer sub.Unsubscribe()
			awaitPhase(t, sub, Connected)

			for _, accounts := range test.sequence {
				stub.emit(provider.EventAccountsChanged, accounts)
			}

			final := awaitPhase(t, sub, test.phase)
			if test.phase == Connected {
				assert.Equal(t, common.HexToAddress(test.address), final.Wallet.Address)
			} else {
				assert.Nil(t, final.Wallet)
			}
		})
	}
}

func TestReconcilerEmptyAccountsDisconnectsDespiteChain(t *testing.T) {
	stub := newWalletStub([]string{"0xABC"}, "0x1")
	reconciler := NewReconciler("injected", resolverFor(stub), nil)

	sub := reconciler.Stream(context.Background()).Subscribe()
	defer sub.Unsubscribe()
	awaitPhase(t, sub, Connected)

	stub.emit(provider.EventAccountsChanged, []string{})

	state := awaitState(t, sub)
	assert.Equal(t, Disconnected, state.Phase)
}

func TestReconcilerChainChangeDeduplicated(t *testing.T) {
	stub := newWalletStub([]string{"0xABC"}, "0x1")
	reconciler := NewReconciler("injected", resolverFor(stub), nil)

	sub := reconciler.Stream(context.Background()).Subscribe()
	defer sub.Unsubscribe()
	awaitPhase(t, sub, Connected)

	stub.emit(provider.EventChainChanged, "0x1")
	stub.emit(provider.EventChainChanged, "0x1")
	assertNoState(t, sub)

	stub.emit(provider.EventChainChanged, "0x5")
	state := awaitPhase(t, sub, Connected)
	assert.Equal(t, int64(5), state.Wallet.ChainID)
}

func TestReconcilerUnsubscribeReleasesListeners(t *testing.T) {
	stub := newWalletStub([]string{"0xABC"}, "0x1")
	reconciler := NewReconciler("injected", resolverFor(stub), nil)

	sub := reconciler.Stream(context.Background()).Subscribe()
	awaitPhase(t, sub, Connected)
	assert.NotZero(t, stub.listenerCount())

	sub.Unsubscribe()
	assert.Zero(t, stub.listenerCount(), "no residual provider listeners")
	assert.NotPanics(t, sub.Unsubscribe)
}

func TestReconcilerSessionEndReleasesListeners(t *testing.T) {
	stub := newWalletStub([]string{"0xABC"}, "0x1")
	reconciler := NewReconciler("walletconnect", resolverFor(stub), nil, WithLiveness())

	sub := reconciler.Stream(context.Background()).Subscribe()
	defer sub.Unsubscribe()
	awaitPhase(t, sub, Connected)

	stub.setLive(false)
	stub.emit(provider.EventDisconnected, nil)

	state := awaitPhase(t, sub, Disconnected)
	assert.Nil(t, state.Wallet)
	assert.Eventually(t, func() bool { return stub.listenerCount() == 0 },
		2*time.Second, 10*time.Millisecond, "session listeners released after external disconnect")
}

func TestReconcilerSignalFetchFailureDisconnects(t *testing.T) {
	tests := []struct {
		name string
		prep func(s *walletStub)
	}{
		{"chain id fetch unsupported", func(s *walletStub) {
			s.chainErr = errors.Wrap(provider.ErrUnsupportedOperation, provider.MethodChainID)
		}},
		{"accounts fetch unsupported", func(s *walletStub) {
			s.accountsErr = errors.Wrap(provider.ErrUnsupportedOperation, provider.MethodAccounts)
		}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			stub := newWalletStub([]string{"0xABC"}, "0x1")
			test.prep(stub)
			reconciler := NewReconciler("injected", resolverFor(stub), nil)

			sub := reconciler.Stream(context.Background()).Subscribe()
			defer sub.Unsubscribe()

			assert.Equal(t, Connecting, awaitState(t, sub).Phase)
			awaitPhase(t, sub, Disconnected)
			assert.Eventually(t, func() bool { return stub.listenerCount() == 0 },
				2*time.Second, 10*time.Millisecond, "failed signal releases its listeners")
		})
	}
}

func TestReconcilerResolverFailureDisconnects(t *testing.T) {
	reconciler := NewReconciler("injected", func(ctx context.Context) (provider.Handle, error) {
		return nil, errors.New("authorization denied")
	}, nil)

	sub := reconciler.Stream(context.Background()).Subscribe()
	defer sub.Unsubscribe()

	assert.Equal(t, Connecting, awaitState(t, sub).Phase)
	assert.Equal(t, Disconnected, awaitState(t, sub).Phase)
}

func TestReconcilerWalletDisconnectUsesCloseCapability(t *testing.T) {
	stub := newWalletStub([]string{"0xABC"}, "0x1")
	reconciler := NewReconciler("injected", resolverFor(stub), nil)

	sub := reconciler.Stream(context.Background()).Subscribe()
	defer sub.Unsubscribe()
	state := awaitPhase(t, sub, Connected)

	assert.NoError(t, state.Wallet.Disconnect(context.Background()))
	stub.mu.Lock()
	closes := stub.closes
	stub.mu.Unlock()
	assert.Equal(t, 1, closes)
}

func TestReconcilerSingleConnectingBeforeFirstSettledState(t *testing.T) {
	stub := newWalletStub([]string{"0xABC"}, "0x1")
	reconciler := NewReconciler("injected", resolverFor(stub), nil)

	sub := reconciler.Stream(context.Background()).Subscribe()
	defer sub.Unsubscribe()

	var connectingSeen int
	for {
		state := awaitState(t, sub)
		if state.Phase == Connecting {
			connectingSeen++
			continue
		}
		assert.Equal(t, 1, connectingSeen)
		break
	}
}
