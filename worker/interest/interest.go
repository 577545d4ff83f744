package interest

import (
	"context"
	"fmt"
	"time"

	"lever/core"
	"lever/worker"

	"github.com/fox-one/pkg/logger"
	"github.com/robfig/cron/v3"
)

// Worker periodic accrual worker. Ticking keeps every market's stored
// rates and accumulators fresh even while no user interacts with it.
type Worker struct {
	worker.BaseJob
	Config     *core.Config
	AssetStore core.IAssetStore
	RewardSrv  core.IRewardService
}

// New new interest worker
func New(cfg *core.Config, assetStore core.IAssetStore, rewardSrv core.IRewardService) *Worker {
	job := Worker{
		Config:     cfg,
		AssetStore: assetStore,
		RewardSrv:  rewardSrv,
	}

	l, _ := time.LoadLocation(cfg.App.Location)
	job.Cron = cron.New(cron.WithLocation(l))
	spec := fmt.Sprintf("@every %ds", cfg.App.AccrueInterval)
	job.Cron.AddFunc(spec, job.BaseJob.Run)
	job.OnWork = func() error {
		return job.onWork(context.Background())
	}

	return &job
}

// Run run worker until the context is done
func (w *Worker) Run(ctx context.Context) error {
	if err := w.Start(); err != nil {
		return err
	}
	defer w.Stop()

	<-ctx.Done()
	return ctx.Err()
}

func (w *Worker) onWork(ctx context.Context) error {
	log := logger.FromContext(ctx).WithField("worker", "interest")

	assets, err := w.AssetStore.All(ctx)
	if err != nil {
		log.WithError(err).Errorln("fetch all assets")
		return err
	}

	now := time.Now()
	for _, asset := range assets {
		if err := w.RewardSrv.AccrueAndSave(ctx, asset.AssetID, now); err != nil {
			log.WithError(err).Errorln("accrue:", asset.Symbol)
		}
	}

	return nil
}
