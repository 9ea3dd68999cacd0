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

package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_simplifiedEventBus_Publish_InvokesSubscribers(t *testing.T) {
	eventBus := New()
	var received string
	eventBus.Subscribe("test topic", func(data string) {
		received = data
	})

	eventBus.Publish("test topic", "test data")

	assert.Equal(t, "test data", received)
}

func Test_simplifiedEventBus_Unsubscribe_StopsDelivery(t *testing.T) {
	eventBus := New()
	var calls int
	handler := func(data string) {
		calls++
	}
	assert.NoError(t, eventBus.Subscribe("wallet topic", handler))

	eventBus.Publish("wallet topic", "one")
	assert.NoError(t, eventBus.Unsubscribe("wallet topic", handler))
	eventBus.Publish("wallet topic", "two")

	assert.Equal(t, 1, calls)
}
