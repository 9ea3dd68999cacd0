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

// Families whose providers cannot re-authorize without user interaction, so
// silent reconnection is impossible.
var autoConnectUnsupported = map[Family]struct{}{
	FamilyOpera: {},
}

// Families excluded from silent reconnection by policy even though their
// providers would allow it.
var autoConnectDisabled = map[Family]struct{}{
	FamilyCipher: {},
	FamilyStatus: {},
}

// AutoConnectEligible reports whether a wallet family may be reconnected
// silently, without prompting the user. Both exclusion sets are closed.
func AutoConnectEligible(f Family) bool {
	if _, ok := autoConnectUnsupported[f]; ok {
		return false
	}
	if _, ok := autoConnectDisabled[f]; ok {
		return false
	}
	return true
}
