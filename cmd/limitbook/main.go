package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"limitbook"

	"github.com/rs/xid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	tickSizeFlag string
	depthFlag    uint32
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "limitbook",
		Short: "Drive an in-memory limit order book from stdin",
		Long: `limitbook reads order commands from stdin, applies them to a single
in-memory order book, and prints the resulting fills.

Commands:
  limit <buy|sell> <price> <quantity>
  market <buy|sell> <quantity>
  cancel <order-id>
  best
  depth
  quit`,
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.Flags().StringVar(&tickSizeFlag, "tick-size", "0.01", "price grid spacing")
	rootCmd.Flags().Uint32Var(&depthFlag, "depth", 10, "levels shown by the depth command")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	log, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	tickSize, err := decimal.NewFromString(tickSizeFlag)
	if err != nil {
		return fmt.Errorf("parse tick size: %w", err)
	}

	book, err := limitbook.NewOrderBook(tickSize)
	if err != nil {
		return err
	}

	log.Info("book ready", zap.String("tick_size", tickSize.String()))

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}

		reqID := xid.New().String()
		if err := apply(book, log.With(zap.String("req_id", reqID)), line); err != nil {
			fmt.Printf("error: %v\n", err)
		}
	}

	return scanner.Err()
}

func apply(book *limitbook.OrderBook, log *zap.Logger, line string) error {
	fields := strings.Fields(line)

	switch fields[0] {
	case "limit":
		if len(fields) != 4 {
			return fmt.Errorf("usage: limit <buy|sell> <price> <quantity>")
		}
		side, err := parseSide(fields[1])
		if err != nil {
			return err
		}
		price, err := decimal.NewFromString(fields[2])
		if err != nil {
			return fmt.Errorf("parse price: %w", err)
		}
		quantity, err := decimal.NewFromString(fields[3])
		if err != nil {
			return fmt.Errorf("parse quantity: %w", err)
		}

		id, fills, err := book.AddLimitOrder(side, price, quantity)
		if err != nil {
			log.Warn("limit order rejected", zap.Error(err))
			return err
		}

		log.Info("limit order accepted",
			zap.Uint64("order_id", uint64(id)),
			zap.String("side", side.String()),
			zap.Int("fills", len(fills)))
		fmt.Printf("order %d accepted\n", id)
		printFills(fills)

	case "market":
		if len(fields) != 3 {
			return fmt.Errorf("usage: market <buy|sell> <quantity>")
		}
		side, err := parseSide(fields[1])
		if err != nil {
			return err
		}
		quantity, err := decimal.NewFromString(fields[2])
		if err != nil {
			return fmt.Errorf("parse quantity: %w", err)
		}

		fills, err := book.ExecuteMarketOrder(side, quantity)
		if err != nil {
			log.Warn("market order rejected", zap.Error(err))
			return err
		}

		log.Info("market order executed",
			zap.String("side", side.String()),
			zap.Int("fills", len(fills)))
		printFills(fills)

	case "cancel":
		if len(fields) != 2 {
			return fmt.Errorf("usage: cancel <order-id>")
		}
		raw, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return fmt.Errorf("parse order id: %w", err)
		}

		if err := book.CancelLimitOrder(limitbook.OrderID(raw)); err != nil {
			log.Warn("cancel rejected", zap.Uint64("order_id", raw), zap.Error(err))
			return err
		}

		log.Info("order canceled", zap.Uint64("order_id", raw))
		fmt.Printf("order %d canceled\n", raw)

	case "best":
		if bid, vol, ok := book.BestBid(); ok {
			fmt.Printf("best bid %s x %s\n", bid.String(), vol.String())
		} else {
			fmt.Println("best bid -")
		}
		if ask, vol, ok := book.BestAsk(); ok {
			fmt.Printf("best ask %s x %s\n", ask.String(), vol.String())
		} else {
			fmt.Println("best ask -")
		}

	case "depth":
		depth, err := book.Depth(depthFlag)
		if err != nil {
			return err
		}
		for i := len(depth.Asks) - 1; i >= 0; i-- {
			item := depth.Asks[i]
			fmt.Printf("ask %s x %s (%d)\n", item.Price.String(), item.Volume.String(), item.Orders)
		}
		for _, item := range depth.Bids {
			fmt.Printf("bid %s x %s (%d)\n", item.Price.String(), item.Volume.String(), item.Orders)
		}

	default:
		return fmt.Errorf("unknown command %q", fields[0])
	}

	return nil
}

func parseSide(s string) (limitbook.Side, error) {
	switch s {
	case "buy":
		return limitbook.Buy, nil
	case "sell":
		return limitbook.Sell, nil
	}
	return 0, fmt.Errorf("unknown side %q", s)
}

func printFills(fills []limitbook.Fill) {
	for _, fill := range fills {
		fmt.Printf("fill maker=%d qty=%s price=%s\n",
			fill.MakerOrderID, fill.Quantity.String(), fill.Price.String())
	}
}
