package rest

import (
	"net/http"
	"time"

	"lever/core"
	"lever/handler/render"
	"lever/handler/views"

	"github.com/go-chi/chi"
)

func rewardHandler(assetStore core.IAssetStore, rewardStore core.IRewardStore, rewardSrv core.IRewardReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		asset, err := assetStore.Find(ctx, chi.URLParam(r, "asset"))
		if err != nil {
			render.NotFoundRequest(w, core.ErrAssetNotFound)
			return
		}

		state, err := rewardStore.FindState(ctx, asset.AssetID)
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		render.JSON(w, &views.Reward{
			RewardState: *state,
			Pending:     rewardSrv.AccumulatedInterest(asset, state, time.Now()),
		})
	}
}
