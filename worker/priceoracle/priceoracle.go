package priceoracle

import (
	"context"
	"sync"
	"time"

	"lever/core"
	"lever/worker"

	"github.com/fox-one/pkg/logger"
	"github.com/fox-one/pkg/property"
	"github.com/shopspring/decimal"
)

const checkpointKey = "price_poll_checkpoint"

// Worker price poller. Pulls spot prices from the configured endpoint
// and stores them for the ledger's valuations.
type Worker struct {
	worker.TickWorker
	AssetStore    core.IAssetStore
	PropertyStore property.Store
	OracleSrv     core.IPriceOracleService
}

// New new priceoracle worker
func New(assetStore core.IAssetStore, propertyStore property.Store, oracleSrv core.IPriceOracleService) *Worker {
	return &Worker{
		AssetStore:    assetStore,
		PropertyStore: propertyStore,
		OracleSrv:     oracleSrv,
	}
}

// Run run worker
func (w *Worker) Run(ctx context.Context) error {
	return w.StartTick(ctx, func(ctx context.Context) error {
		return w.onWork(ctx)
	})
}

func (w *Worker) onWork(ctx context.Context) error {
	log := logger.FromContext(ctx).WithField("worker", "priceoracle")

	now := time.Now()

	// another replica polled within the same second
	if v, err := w.PropertyStore.Get(ctx, checkpointKey); err == nil {
		if last := v.Int64(); last >= now.Unix() {
			return nil
		}
	}

	assets, err := w.AssetStore.All(ctx)
	if err != nil {
		log.WithError(err).Errorln("fetch all assets")
		return err
	}

	if len(assets) == 0 {
		return nil
	}

	wg := sync.WaitGroup{}
	for _, asset := range assets {
		wg.Add(1)
		go func(asset *core.Asset) {
			defer wg.Done()

			ticker, err := w.OracleSrv.PullPriceTicker(ctx, asset.AssetID, now)
			if err != nil {
				log.WithError(err).Errorln("pull price ticker:", asset.Symbol)
				return
			}

			if ticker.Price.LessThanOrEqual(decimal.Zero) {
				log.Errorln("invalid ticker price:", asset.Symbol, ":", ticker.Price)
				return
			}

			if err := w.OracleSrv.SetUnderlyingPrice(ctx, asset.AssetID, ticker.Price, now); err != nil {
				log.WithError(err).Errorln("set price:", asset.Symbol)
			}
		}(asset)
	}

	wg.Wait()

	if err := w.PropertyStore.Save(ctx, checkpointKey, now.Unix()); err != nil {
		log.WithError(err).Errorln("property.Save", checkpointKey)
	}

	return nil
}
