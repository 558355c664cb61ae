package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"swapEngine/internal/pool"
	"swapEngine/internal/replay"
)

func runQuote(cmd *cobra.Command, _ []string) error {
	amountInRaw, _ := cmd.Flags().GetString("amount-in")
	reserveInRaw, _ := cmd.Flags().GetString("reserve-in")
	reserveOutRaw, _ := cmd.Flags().GetString("reserve-out")

	amountIn, err := replay.ParseAmount("amount-in", amountInRaw)
	if err != nil {
		return err
	}
	reserveIn, err := replay.ParseAmount("reserve-in", reserveInRaw)
	if err != nil {
		return err
	}
	reserveOut, err := replay.ParseAmount("reserve-out", reserveOutRaw)
	if err != nil {
		return err
	}

	amountOut := pool.GetAmountOut(amountIn, reserveIn, reserveOut)
	fmt.Fprintln(cmd.OutOrStdout(), amountOut.String())
	return nil
}

func runPrice(cmd *cobra.Command, _ []string) error {
	reserveRefRaw, _ := cmd.Flags().GetString("reserve-ref")
	reserveQuoteRaw, _ := cmd.Flags().GetString("reserve-quote")

	reserveRef, err := replay.ParseAmount("reserve-ref", reserveRefRaw)
	if err != nil {
		return err
	}
	reserveQuote, err := replay.ParseAmount("reserve-quote", reserveQuoteRaw)
	if err != nil {
		return err
	}

	price := pool.SpotPrice(reserveRef, reserveQuote)
	fmt.Fprintln(cmd.OutOrStdout(), price.String())
	return nil
}
