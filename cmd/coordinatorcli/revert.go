package main

import (
	"fmt"
	"io/ioutil"

	"github.com/urfave/cli"
)

var proposeRevertCommand = cli.Command{
	Name:      "proposerevert",
	Usage:     "propose a collaborative revert for a wedged DLC channel",
	ArgsUsage: "channel-id",
	Flags: []cli.Flag{
		cli.Float64Flag{Name: "price", Usage: "oracle-reference price to revert at"},
		cli.Int64Flag{Name: "fee_rate", Value: 2, Usage: "fee rate in sat/vB for the close transaction"},
	},
	Action: proposeRevert,
}

func proposeRevert(ctx *cli.Context) error {
	channelID := ctx.Args().First()
	if channelID == "" {
		return fmt.Errorf("proposerevert requires a channel id argument")
	}

	client := getRESTClient(ctx)
	req := map[string]interface{}{
		"price":            ctx.Float64("price"),
		"fee_rate_sats_vb": ctx.Int64("fee_rate"),
	}

	var proposal map[string]interface{}
	if err := client.post("/api/collaborative_revert/"+channelID, req, &proposal); err != nil {
		return err
	}
	printJSON(proposal)
	return nil
}

var confirmRevertCommand = cli.Command{
	Name:      "confirmrevert",
	Usage:     "submit the trader-signed revert transaction and broadcast it",
	ArgsUsage: "channel-id",
	Flags: []cli.Flag{
		cli.StringFlag{Name: "tx_file", Usage: "path to a file containing the hex-encoded candidate transaction"},
		cli.StringFlag{Name: "signature", Usage: "hex-encoded trader signature on the funding input"},
	},
	Action: confirmRevert,
}

func confirmRevert(ctx *cli.Context) error {
	channelID := ctx.Args().First()
	if channelID == "" {
		return fmt.Errorf("confirmrevert requires a channel id argument")
	}

	txBytes, err := ioutil.ReadFile(ctx.String("tx_file"))
	if err != nil {
		return fmt.Errorf("reading tx_file: %w", err)
	}

	client := getRESTClient(ctx)
	req := map[string]interface{}{
		"transaction": string(txBytes),
		"signature":   ctx.String("signature"),
	}

	var resp map[string]string
	if err := client.post("/api/collaborative_revert/"+channelID+"/confirm", req, &resp); err != nil {
		return err
	}
	printJSON(resp)
	return nil
}
