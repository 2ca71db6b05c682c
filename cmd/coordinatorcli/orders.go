package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli"
)

func printJSON(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatal(err)
	}
	fmt.Println(string(b))
}

type orderRecord struct {
	ID        string `json:"id"`
	TraderID  string `json:"trader_id"`
	Direction string `json:"direction"`
	Type      string `json:"type"`
	Price     string `json:"price"`
	Quantity  string `json:"quantity"`
	Symbol    string `json:"symbol"`
	State     string `json:"state"`
}

var submitOrderCommand = cli.Command{
	Name:      "submitorder",
	Usage:     "submit a new market or limit order",
	ArgsUsage: "",
	Flags: []cli.Flag{
		cli.StringFlag{Name: "trader_id", Usage: "hex-encoded trader public key"},
		cli.StringFlag{Name: "type", Usage: "market or limit"},
		cli.StringFlag{Name: "price", Value: "0", Usage: "limit price (ignored for market orders)"},
		cli.StringFlag{Name: "quantity", Usage: "contract quantity"},
		cli.StringFlag{Name: "direction", Usage: "long or short"},
		cli.Float64Flag{Name: "leverage", Value: 1},
		cli.StringFlag{Name: "symbol", Usage: "contract symbol, e.g. btcusd"},
		cli.Int64Flag{Name: "expiry", Usage: "unix timestamp the order expires at"},
	},
	Action: submitOrder,
}

func submitOrder(ctx *cli.Context) error {
	client := getRESTClient(ctx)

	req := map[string]interface{}{
		"trader_id": ctx.String("trader_id"),
		"type":      ctx.String("type"),
		"price":     ctx.String("price"),
		"quantity":  ctx.String("quantity"),
		"direction": ctx.String("direction"),
		"leverage":  ctx.Float64("leverage"),
		"symbol":    ctx.String("symbol"),
		"expiry":    ctx.Int64("expiry"),
	}

	var order orderRecord
	if err := client.post("/api/orderbook/orders", req, &order); err != nil {
		return err
	}
	printJSON(order)
	return nil
}

var updateOrderCommand = cli.Command{
	Name:      "updateorder",
	Usage:     "update the price/quantity of a resting limit order",
	ArgsUsage: "order-id",
	Flags: []cli.Flag{
		cli.StringFlag{Name: "price"},
		cli.StringFlag{Name: "quantity"},
	},
	Action: updateOrder,
}

func updateOrder(ctx *cli.Context) error {
	id := ctx.Args().First()
	if id == "" {
		return fmt.Errorf("updateorder requires an order id argument")
	}

	client := getRESTClient(ctx)
	req := map[string]interface{}{
		"price":    ctx.String("price"),
		"quantity": ctx.String("quantity"),
	}

	var resp map[string]string
	if err := client.put("/api/orderbook/orders/"+id, req, &resp); err != nil {
		return err
	}
	printJSON(resp)
	return nil
}

var cancelOrderCommand = cli.Command{
	Name:      "cancelorder",
	Usage:     "cancel a resting order",
	ArgsUsage: "order-id",
	Action:    cancelOrder,
}

func cancelOrder(ctx *cli.Context) error {
	id := ctx.Args().First()
	if id == "" {
		return fmt.Errorf("cancelorder requires an order id argument")
	}

	client := getRESTClient(ctx)
	if err := client.delete("/api/orderbook/orders/" + id); err != nil {
		return err
	}
	fmt.Println("order cancelled")
	return nil
}

var listOrdersCommand = cli.Command{
	Name:   "listorders",
	Usage:  "list all open orders in the book",
	Action: listOrders,
}

func listOrders(ctx *cli.Context) error {
	client := getRESTClient(ctx)

	var orders []orderRecord
	if err := client.get("/api/orderbook/orders", &orders); err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"ID", "Trader", "Side", "Type", "Price", "Quantity", "Symbol", "State"})
	for _, o := range orders {
		t.AppendRow(table.Row{o.ID, o.TraderID, o.Direction, o.Type, o.Price, o.Quantity, o.Symbol, o.State})
	}
	t.Render()
	return nil
}
