package main

import "github.com/urfave/cli"

var getSettingsCommand = cli.Command{
	Name:   "getsettings",
	Usage:  "fetch the coordinator's live trading settings",
	Action: getSettings,
}

func getSettings(ctx *cli.Context) error {
	client := getRESTClient(ctx)

	var settings map[string]interface{}
	if err := client.get("/api/admin/settings", &settings); err != nil {
		return err
	}
	printJSON(settings)
	return nil
}

var putSettingsCommand = cli.Command{
	Name:      "putsettings",
	Usage:     "replace the coordinator's live trading settings wholesale",
	ArgsUsage: "",
	Flags: []cli.Flag{
		cli.Int64Flag{Name: "fee_rate", Usage: "default new-order fee rate in sat/vB"},
		cli.Int64Flag{Name: "matching_window", Usage: "matching tie-break window in seconds"},
		cli.StringFlag{Name: "min_quantity", Usage: "minimum accepted order quantity"},
	},
	Action: putSettings,
}

func putSettings(ctx *cli.Context) error {
	client := getRESTClient(ctx)
	req := map[string]interface{}{
		"new_order_fee_rate_sat_per_vbyte": ctx.Int64("fee_rate"),
		"matching_window_seconds":          ctx.Int64("matching_window"),
		"min_order_quantity":               ctx.String("min_quantity"),
	}

	var settings map[string]interface{}
	if err := client.put("/api/admin/settings", req, &settings); err != nil {
		return err
	}
	printJSON(settings)
	return nil
}
