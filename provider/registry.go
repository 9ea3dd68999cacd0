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

import "sync"

// LegacyWrapper is the old-style web3 wrapper object which carries the
// actual provider in its CurrentProvider field.
type LegacyWrapper struct {
	CurrentProvider Handle
}

// Registry holds the injected wallet providers known to the process. It is
// the in-process equivalent of the well-known globals a browser extension
// writes into the page.
type Registry struct {
	mu      sync.RWMutex
	primary Handle
	legacy  *LegacyWrapper
}

// NewRegistry creates an empty injected provider registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Inject registers the primary provider handle.
func (r *Registry) Inject(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.primary = h
}

// InjectLegacy registers the legacy wrapper used as a discovery fallback.
func (r *Registry) InjectLegacy(w *LegacyWrapper) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.legacy = w
}

// Discover locates a provider handle: the primary handle takes precedence,
// then the legacy wrapper's current provider. Returns ErrNoProvider when
// neither is present.
func (r *Registry) Discover() (Handle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !isNil(r.primary) {
		return r.primary, nil
	}
	if r.legacy != nil && !isNil(r.legacy.CurrentProvider) {
		return r.legacy.CurrentProvider, nil
	}
	return nil, ErrNoProvider
}

// defaultRegistry mirrors the page-global nature of injected providers.
var defaultRegistry = NewRegistry()

// Default returns the process-wide injected provider registry.
func Default() *Registry {
	return defaultRegistry
}
