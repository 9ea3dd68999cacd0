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

package connector

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/walletbridge/connector/connection"
	"github.com/walletbridge/connector/eventbus"
	"github.com/walletbridge/connector/provider"
	"github.com/walletbridge/connector/signal"
)

// InjectedID identifies the injected provider connector kind.
const InjectedID = "injected"

// Injected connects through a provider registered in the process registry.
type Injected struct {
	registry *provider.Registry
	bus      eventbus.Publisher
}

// NewInjected creates the injected provider connector. A nil registry means
// the process-wide default one.
func NewInjected(registry *provider.Registry, bus eventbus.Publisher) *Injected {
	if registry == nil {
		registry = provider.Default()
	}
	return &Injected{registry: registry, bus: bus}
}

// ID returns the stable provider-kind identifier.
func (c *Injected) ID() string {
	return InjectedID
}

// Connection returns the unified connection state stream for the injected
// provider. Discovery and the authorization handshake run lazily when the
// first subscriber arrives.
func (c *Injected) Connection(ctx context.Context) *signal.Relay[connection.State] {
	if _, err := c.registry.Discover(); err != nil {
		log.Warn().Err(err).Msg("Wallet connect attempt failed")
		return disconnectedStream()
	}
	reconciler := connection.NewReconciler(c.ID(), c.resolveHandle, c.bus)
	return reconciler.Stream(ctx)
}

func (c *Injected) resolveHandle(ctx context.Context) (provider.Handle, error) {
	h, err := c.registry.Discover()
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

// Option reports the family of the discovered provider, false when none is
// injected.
func (c *Injected) Option(ctx context.Context) (provider.Family, bool) {
	h, err := c.registry.Discover()
	if err != nil {
		return "", false
	}
	return provider.Classify(h)
}

// IsAutoConnected reports autoconnect eligibility of the discovered
// provider's family.
func (c *Injected) IsAutoConnected(ctx context.Context) bool {
	family, ok := c.Option(ctx)
	return ok && provider.AutoConnectEligible(family)
}

// IsConnected reports whether the injected provider currently has an
// authorized account. It never triggers an authorization prompt.
func (c *Injected) IsConnected(ctx context.Context) bool {
	h, err := c.registry.Discover()
	if err != nil {
		return false
	}
	accounts, err := authorizedAccounts(ctx, h)
	if err != nil {
		log.Debug().Err(err).Msg("Could not query authorized accounts")
		return false
	}
	return len(accounts) > 0
}

// authorize performs the connect handshake: request authorization when no
// accounts are authorized yet, fall back to the legacy enable call, and when
// the provider has neither capability proceed and let downstream calls fail.
func authorize(ctx context.Context, h provider.Handle) error {
	req, hasRequest := h.(provider.Requester)
	enabler, hasEnable := h.(provider.LegacyEnabler)

	if hasRequest {
		if accounts, err := authorizedAccounts(ctx, h); err == nil && len(accounts) > 0 {
			return nil
		}
		_, err := req.Request(ctx, provider.MethodRequestAccounts)
		if err == nil {
			return nil
		}
		if hasEnable {
			if _, enableErr := enabler.Enable(ctx); enableErr == nil {
				return nil
			}
			return errors.Wrapf(ErrHandshakeDenied, "request rejected (%v) and enable fallback failed", err)
		}
		return errors.Wrapf(ErrHandshakeDenied, "request rejected: %v", err)
	}

	if hasEnable {
		if _, err := enabler.Enable(ctx); err != nil {
			return errors.Wrapf(ErrHandshakeDenied, "enable rejected: %v", err)
		}
		return nil
	}

	// No authorization capability at all. Assume the provider is
	// pre-authorized, downstream calls will fail otherwise.
	return nil
}

func authorizedAccounts(ctx context.Context, h provider.Handle) ([]string, error) {
	req, ok := h.(provider.Requester)
	if !ok {
		return nil, errors.Wrap(provider.ErrUnsupportedOperation, provider.MethodAccounts)
	}
	raw, err := req.Request(ctx, provider.MethodAccounts)
	if err != nil {
		return nil, err
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, errors.Wrap(err, "malformed accounts response")
	}
	return list, nil
}
