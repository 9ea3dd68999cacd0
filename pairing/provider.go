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

import (
	"context"
	"encoding/json"
	"reflect"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gofrs/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/walletbridge/connector/provider"
)

// ErrSessionRejected indicates the wallet refused the pairing request.
var ErrSessionRejected = errors.New("pairing session rejected by wallet")

// ErrNoSession indicates an operation that needs a live pairing session.
var ErrNoSession = errors.New("no active pairing session")

const dialMaxRetries = 5

// Provider is a wallet provider reached through a pairing bridge. It
// implements the request, event emitter, liveness and disconnect
// capabilities of a provider handle.
type Provider struct {
	cfg Config

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	accounts  []string
	chainID   int64
	listeners map[string][]provider.Listener
	pending   map[string]chan responsePayload
	approval  chan error

	writeMu sync.Mutex
}

// NewProvider creates an unpaired provider. Enable performs the actual
// pairing handshake.
func NewProvider(cfg Config) *Provider {
	return &Provider{
		cfg:       cfg,
		listeners: make(map[string][]provider.Listener),
		pending:   make(map[string]chan responsePayload),
	}
}

// Enable dials the bridge and negotiates a session. It blocks until the
// wallet approves or rejects the request - there is no timeout beyond the
// caller's context, approval is driven by a user on the remote end.
func (p *Provider) Enable(ctx context.Context) ([]string, error) {
	if err := p.cfg.Validate(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	if p.connected {
		accounts := append([]string(nil), p.accounts...)
		p.mu.Unlock()
		return accounts, nil
	}
	p.mu.Unlock()

	conn, err := p.dialBridge(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "could not reach pairing bridge")
	}

	approval := make(chan error, 1)
	p.mu.Lock()
	p.conn = conn
	p.approval = approval
	p.mu.Unlock()

	go p.readLoop(conn)

	request := envelope{
		ID:   newID(),
		Type: msgSessionRequest,
		Payload: mustMarshal(sessionRequestPayload{
			RPCKeyOrID:   p.cfg.RPCKeyOrID,
			RPCByChainID: p.cfg.RPCByChainID,
			NetworkID:    p.cfg.defaultNetwork(),
		}),
	}
	if err := p.write(request); err != nil {
		p.sessionEnded(err)
		return nil, err
	}

	select {
	case err := <-approval:
		if err != nil {
			p.sessionEnded(nil)
			return nil, err
		}
		p.mu.Lock()
		accounts := append([]string(nil), p.accounts...)
		p.mu.Unlock()
		return accounts, nil
	case <-ctx.Done():
		p.sessionEnded(ctx.Err())
		return nil, ctx.Err()
	}
}

func (p *Provider) dialBridge(ctx context.Context) (*websocket.Conn, error) {
	var conn *websocket.Conn
	dial := func() error {
		c, _, err := websocket.DefaultDialer.DialContext(ctx, p.cfg.BridgeURL, nil)
		if err != nil {
			log.Debug().Err(err).Msgf("Bridge dial to %q failed, retrying", p.cfg.BridgeURL)
			return err
		}
		conn = c
		return nil
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 100 * time.Millisecond
	eb.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, dialMaxRetries), ctx)
	if err := backoff.Retry(dial, policy); err != nil {
		return nil, err
	}
	return conn, nil
}

func (p *Provider) readLoop(conn *websocket.Conn) {
	for {
		var env envelope
		if err := conn.ReadJSON(&env); err != nil {
			p.sessionEnded(err)
			return
		}

		switch env.Type {
		case msgSessionApproved:
			var payload sessionApprovedPayload
			if err := json.Unmarshal(env.Payload, &payload); err != nil {
				log.Warn().Err(err).Msg("Malformed session approval")
				continue
			}
			p.mu.Lock()
			p.connected = true
			p.accounts = payload.Accounts
			p.chainID = payload.ChainID
			approval := p.approval
			p.approval = nil
			p.mu.Unlock()
			if approval != nil {
				approval <- nil
			}
		case msgSessionRejected:
			p.mu.Lock()
			approval := p.approval
			p.approval = nil
			p.mu.Unlock()
			if approval != nil {
				approval <- ErrSessionRejected
			}
		case msgAccountsChanged:
			var payload accountsChangedPayload
			if err := json.Unmarshal(env.Payload, &payload); err != nil {
				continue
			}
			p.mu.Lock()
			p.accounts = payload.Accounts
			p.mu.Unlock()
			p.fire(provider.EventAccountsChanged, payload.Accounts)
		case msgChainChanged:
			var payload chainChangedPayload
			if err := json.Unmarshal(env.Payload, &payload); err != nil {
				continue
			}
			p.mu.Lock()
			p.chainID = payload.ChainID
			p.mu.Unlock()
			p.fire(provider.EventChainChanged, payload.ChainID)
		case msgDisconnect:
			p.sessionEnded(nil)
			return
		case msgResponse:
			var payload responsePayload
			if err := json.Unmarshal(env.Payload, &payload); err != nil {
				continue
			}
			p.mu.Lock()
			ch := p.pending[env.ID]
			delete(p.pending, env.ID)
			p.mu.Unlock()
			if ch != nil {
				ch <- payload
			}
		default:
			log.Debug().Msgf("Ignoring unknown bridge message %q", env.Type)
		}
	}
}

// sessionEnded tears the session down and notifies disconnected listeners.
// Idempotent, every exit path of the session funnels through here.
func (p *Provider) sessionEnded(cause error) {
	p.mu.Lock()
	wasConnected := p.connected
	p.connected = false
	conn := p.conn
	p.conn = nil
	approval := p.approval
	p.approval = nil
	pending := p.pending
	p.pending = make(map[string]chan responsePayload)
	p.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	if approval != nil {
		if cause == nil {
			cause = errors.New("session closed before approval")
		}
		approval <- cause
	}
	for _, ch := range pending {
		close(ch)
	}

	if wasConnected {
		if cause != nil {
			log.Warn().Err(cause).Msg("Pairing session ended")
		}
		p.fire(provider.EventDisconnected, nil)
	}
}

// Request answers eth_accounts and eth_chainId from session state, anything
// else is forwarded over the bridge.
func (p *Provider) Request(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	switch method {
	case provider.MethodAccounts, provider.MethodRequestAccounts:
		p.mu.Lock()
		connected := p.connected
		accounts := append([]string(nil), p.accounts...)
		p.mu.Unlock()
		if !connected {
			return nil, ErrNoSession
		}
		return json.Marshal(accounts)
	case provider.MethodChainID:
		p.mu.Lock()
		connected := p.connected
		chainID := p.chainID
		p.mu.Unlock()
		if !connected {
			return nil, ErrNoSession
		}
		return json.Marshal(hexutil.EncodeUint64(uint64(chainID)))
	default:
		return p.forward(ctx, method, params)
	}
}

func (p *Provider) forward(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	id := newID()
	ch := make(chan responsePayload, 1)

	p.mu.Lock()
	if p.conn == nil {
		p.mu.Unlock()
		return nil, ErrNoSession
	}
	p.pending[id] = ch
	p.mu.Unlock()

	env := envelope{
		ID:      id,
		Type:    msgRequest,
		Payload: mustMarshal(requestPayload{Method: method, Params: params}),
	}
	if err := p.write(env); err != nil {
		p.dropPending(id)
		return nil, err
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, ErrNoSession
		}
		if resp.Error != "" {
			return nil, errors.Errorf("bridge request %s failed: %s", method, resp.Error)
		}
		return resp.Result, nil
	case <-ctx.Done():
		p.dropPending(id)
		return nil, ctx.Err()
	}
}

func (p *Provider) dropPending(id string) {
	p.mu.Lock()
	delete(p.pending, id)
	p.mu.Unlock()
}

// Connected reports whether the pairing session is live.
func (p *Provider) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

// Disconnect ends the session. The bridge is notified best-effort and
// disconnected listeners fire exactly as they would for an external kill.
func (p *Provider) Disconnect() error {
	p.mu.Lock()
	active := p.conn != nil || p.connected
	p.mu.Unlock()
	if !active {
		return nil
	}

	if err := p.write(envelope{ID: newID(), Type: msgDisconnect}); err != nil {
		log.Debug().Err(err).Msg("Could not notify bridge about disconnect")
	}
	p.sessionEnded(nil)
	return nil
}

// On registers an event listener.
func (p *Provider) On(event string, fn provider.Listener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners[event] = append(p.listeners[event], fn)
}

// RemoveListener unregisters the first listener matching by function
// identity.
func (p *Provider) RemoveListener(event string, fn provider.Listener) {
	ptr := reflect.ValueOf(fn).Pointer()

	p.mu.Lock()
	defer p.mu.Unlock()
	current := p.listeners[event]
	for i, registered := range current {
		if reflect.ValueOf(registered).Pointer() == ptr {
			p.listeners[event] = append(current[:i], current[i+1:]...)
			break
		}
	}
	if len(p.listeners[event]) == 0 {
		delete(p.listeners, event)
	}
}

// ListenerCount reports registered listeners, all events when event is empty.
func (p *Provider) ListenerCount(event string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if event != "" {
		return len(p.listeners[event])
	}
	total := 0
	for _, fns := range p.listeners {
		total += len(fns)
	}
	return total
}

func (p *Provider) fire(event string, payload interface{}) {
	p.mu.Lock()
	fns := append([]provider.Listener(nil), p.listeners[event]...)
	p.mu.Unlock()

	for _, fn := range fns {
		fn(payload)
	}
}

func (p *Provider) write(env envelope) error {
	p.mu.Lock()
	conn := p.conn
	p.mu.Unlock()
	if conn == nil {
		return ErrNoSession
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return conn.WriteJSON(env)
}

func newID() string {
	return uuid.Must(uuid.NewV4()).String()
}
