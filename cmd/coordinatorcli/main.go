// Package main implements coordinatorcli, a thin HTTP/JSON client over the
// coordinator's API (spec.md §6). Unlike lnd's lncli, which dials a gRPC
// control plane, the coordinator exposes HTTP/JSON + WebSocket only (see
// DESIGN.md's dropped-gRPC-deps entry), so this client speaks plain REST
// instead of building a protobuf client.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
)

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[coordinatorcli] %v\n", err)
	os.Exit(1)
}

func main() {
	app := cli.NewApp()
	app.Name = "coordinatorcli"
	app.Version = "0.1"
	app.Usage = "control plane for the DLC trading coordinator"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "rpcserver",
			Value: "https://localhost:8000",
			Usage: "base URL of the coordinator's HTTP/JSON API",
		},
		cli.BoolFlag{
			Name:  "insecure",
			Usage: "skip TLS certificate verification",
		},
	}
	app.Commands = []cli.Command{
		submitOrderCommand,
		updateOrderCommand,
		cancelOrderCommand,
		listOrdersCommand,
		proposeRevertCommand,
		confirmRevertCommand,
		getSettingsCommand,
		putSettingsCommand,
	}

	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}
