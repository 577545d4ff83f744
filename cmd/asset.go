package cmd

import (
	"strings"
	"time"

	"lever/core"
	"lever/pkg/number"

	"github.com/fox-one/pkg/uuid"
	"github.com/spf13/cobra"
)

var addAssetCmd = &cobra.Command{
	Use:     "add-asset",
	Aliases: []string{"aa"},
	Short:   "register a lending market",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		database := provideDatabase()
		defer database.Close()
		assetStore := provideAssetStore(database)

		symbol, e := cmd.Flags().GetString("symbol")
		if e != nil || symbol == "" {
			panic("invalid symbol")
		}
		assetID, e := cmd.Flags().GetString("asset")
		if e != nil || assetID == "" {
			panic("invalid assetID")
		}
		claimAssetID, _ := cmd.Flags().GetString("claim")
		if claimAssetID == "" {
			claimAssetID = uuid.Modify(assetID, "claim")
		}

		asset := &core.Asset{
			AssetID:              assetID,
			Symbol:               strings.ToUpper(symbol),
			ClaimAssetID:         claimAssetID,
			LendFactor:           number.Decimal("50"),
			LiquidationThreshold: number.Decimal("75"),
			ReserveFactor:        number.Decimal("0.1"),
			BaseRate:             number.Decimal("0.02"),
			Multiplier:           number.Decimal("0.15"),
			JumpMultiplier:       number.Decimal("1.2"),
			Kink:                 number.Decimal("0.8"),
			SmoothingFactor:      number.Decimal("1"),
		}

		if err := assetStore.Save(ctx, database, asset); err != nil {
			panic(err)
		}

		cmd.Println("asset added:", asset.Symbol, asset.AssetID, "claim:", asset.ClaimAssetID)
	},
}

var setRateParamsCmd = &cobra.Command{
	Use:   "set-rate-params <asset> <base> <multiplier> <jump> <kink> <min> <max> <smoothing>",
	Short: "update the interest-curve parameters of a market",
	Args:  cobra.ExactArgs(8),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		database := provideDatabase()
		defer database.Close()
		assetSrv := provideAssetService(database, provideAssetStore(database))

		caller, _ := cmd.Flags().GetString("caller")
		params := core.RateParams{
			BaseRate:        number.Decimal(args[1]),
			Multiplier:      number.Decimal(args[2]),
			JumpMultiplier:  number.Decimal(args[3]),
			Kink:            number.Decimal(args[4]),
			MinRate:         number.Decimal(args[5]),
			MaxRate:         number.Decimal(args[6]),
			SmoothingFactor: number.Decimal(args[7]),
		}

		if err := assetSrv.SetRateParams(ctx, caller, args[0], params); err != nil {
			panic(err)
		}

		cmd.Println("rate params updated:", args[0])
	},
}

var setRiskParamsCmd = &cobra.Command{
	Use:   "set-risk-params <asset> <lend-factor> <liquidation-threshold>",
	Short: "update the risk parameters of a market",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		database := provideDatabase()
		defer database.Close()
		assetSrv := provideAssetService(database, provideAssetStore(database))

		caller, _ := cmd.Flags().GetString("caller")
		if err := assetSrv.SetRiskParams(ctx, caller, args[0], number.Decimal(args[1]), number.Decimal(args[2])); err != nil {
			panic(err)
		}

		cmd.Println("risk params updated:", args[0])
	},
}

var setPriceCmd = &cobra.Command{
	Use:   "set-price <asset> <price>",
	Short: "store an underlying price by hand",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		database := provideDatabase()
		defer database.Close()
		oracleSrv := provideOracleService(database, providePriceStore(database))

		if err := oracleSrv.SetUnderlyingPrice(ctx, args[0], number.Decimal(args[1]), time.Now()); err != nil {
			panic(err)
		}

		cmd.Println("price updated:", args[0], args[1])
	},
}

func init() {
	addAssetCmd.Flags().StringP("symbol", "s", "", "asset symbol")
	addAssetCmd.Flags().StringP("asset", "a", "", "asset id")
	addAssetCmd.Flags().StringP("claim", "c", "", "claim token asset id, derived from the asset id when empty")

	setRateParamsCmd.Flags().String("caller", "", "acting admin user id")
	setRiskParamsCmd.Flags().String("caller", "", "acting admin user id")

	rootCmd.AddCommand(addAssetCmd)
	rootCmd.AddCommand(setRateParamsCmd)
	rootCmd.AddCommand(setRiskParamsCmd)
	rootCmd.AddCommand(setPriceCmd)
}
