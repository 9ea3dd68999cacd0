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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/walletbridge/connector/connection"
	"github.com/walletbridge/connector/connector"
	"github.com/walletbridge/connector/eventbus"
	"github.com/walletbridge/connector/logconfig"
	"github.com/walletbridge/connector/pairing"
	"github.com/walletbridge/connector/provider"
	"github.com/walletbridge/connector/provider/ethrpc"
)

func main() {
	logconfig.Bootstrap()
	app := NewCommand()

	if err := app.Run(os.Args); err != nil {
		log.Error().Err(err).Msg("Failed to execute command: ")
		os.Exit(1)
	}
}

// NewCommand function creates application master command
func NewCommand() *cli.App {
	app := cli.NewApp()
	app.Usage = "Watch a live wallet connection and print state transitions"
	app.Authors = []*cli.Author{
		{Name: `The "WalletBridge/connector" Authors`},
	}
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:  "adapter",
			Usage: "wallet adapter to use: injected or walletconnect",
			Value: connector.InjectedID,
		},
		&cli.StringFlag{
			Name:  "rpc-url",
			Usage: "JSON-RPC endpoint registered as the injected provider",
		},
		&cli.StringFlag{
			Name:  "bridge-url",
			Usage: "pairing bridge websocket endpoint",
		},
		&cli.StringFlag{
			Name:  "rpc-key",
			Usage: "hosted RPC key or project id for the pairing session",
		},
		&cli.Int64Flag{
			Name:  "network-id",
			Usage: "default chain id for the pairing session",
			Value: 1,
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "logging level: trace, debug, info, warn, error",
			Value: zerolog.DebugLevel.String(),
		},
	}
	app.Action = watchConnection
	return app
}

func watchConnection(ctx *cli.Context) error {
	level, err := zerolog.ParseLevel(ctx.String("log-level"))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", ctx.String("log-level"), err)
	}
	logconfig.SetLogLevel(level)

	bus := eventbus.New()
	conn, err := buildConnector(ctx, bus)
	if err != nil {
		return err
	}

	watchCtx, cancel := context.WithCancel(ctx.Context)
	defer cancel()

	stream := conn.Connection(watchCtx)
	sub := stream.Subscribe()
	defer sub.Unsubscribe()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	log.Info().Msgf("Watching %q wallet connection, interrupt to quit", conn.ID())
	for {
		select {
		case state, ok := <-sub.C:
			if !ok {
				return nil
			}
			printState(state)
		case <-interrupt:
			return nil
		}
	}
}

func buildConnector(ctx *cli.Context, bus eventbus.EventBus) (connector.Connector, error) {
	switch adapter := ctx.String("adapter"); adapter {
	case connector.InjectedID:
		if rpcURL := ctx.String("rpc-url"); rpcURL != "" {
			p, err := ethrpc.Dial(ctx.Context, rpcURL)
			if err != nil {
				return nil, err
			}
			provider.Default().Inject(p)
		}
		return connector.NewInjected(nil, bus), nil
	case connector.RemoteID:
		registry := pairing.NewRegistry(pairing.Config{
			BridgeURL:        ctx.String("bridge-url"),
			RPCKeyOrID:       ctx.String("rpc-key"),
			DefaultNetworkID: ctx.Int64("network-id"),
		})
		return connector.NewRemote(registry, bus), nil
	default:
		return nil, fmt.Errorf("unknown adapter %q", adapter)
	}
}

func printState(state connection.State) {
	switch state.Phase {
	case connection.Connected:
		log.Info().Msgf("Connection state: %s address=%s chain=%d",
			state.Phase, state.Wallet.Address.Hex(), state.Wallet.ChainID)
	case connection.Connecting:
		log.Info().Msgf("Connection state: %s provider=%s", state.Phase, state.ProviderID)
	default:
		log.Info().Msgf("Connection state: %s", state.Phase)
	}
}
