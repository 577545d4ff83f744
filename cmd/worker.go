package cmd

import (
	"sync"

	"lever/worker"
	"lever/worker/interest"
	"lever/worker/priceoracle"

	"github.com/fox-one/pkg/logger"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "lever job worker",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		log := logger.FromContext(ctx)
		ctx = logger.WithContext(ctx, log)

		database := provideDatabase()
		defer database.Close()

		assetStore := provideAssetStore(database)
		rewardStore := provideRewardStore(database)
		tokenStore := provideTokenStore(database)
		priceStore := providePriceStore(database)
		propertyStore := providePropertyStore(database)

		tokenSrv := provideTokenService(tokenStore)
		oracleSrv := provideOracleService(database, priceStore)
		rewardSrv := provideRewardService(database, assetStore, rewardStore, tokenSrv)

		workers := []worker.Worker{
			interest.New(provideConfig(), assetStore, rewardSrv),
			priceoracle.New(assetStore, propertyStore, oracleSrv),
		}

		wg := sync.WaitGroup{}
		for _, w := range workers {
			wg.Add(1)

			go func(worker worker.Worker) {
				defer wg.Done()
				worker.Run(ctx)
			}(w)
		}

		wg.Wait()
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
