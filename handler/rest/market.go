package rest

import (
	"context"
	"net/http"

	"lever/core"
	"lever/handler/render"
	"lever/handler/views"

	"github.com/go-chi/chi"
	"github.com/shopspring/decimal"
)

func allMarketsHandler(assetStore core.IAssetStore, priceStore core.IPriceStore, assetSrv core.IAssetService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		assets, err := assetStore.All(ctx)
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		prices := make(map[string]decimal.Decimal)
		if all, err := priceStore.All(ctx); err == nil {
			for _, p := range all {
				prices[p.AssetID] = p.Price
			}
		}

		markets := make([]*views.Market, 0, len(assets))
		for _, asset := range assets {
			markets = append(markets, marketView(ctx, asset, prices[asset.AssetID], assetSrv))
		}

		render.JSON(w, markets)
	}
}

func marketHandler(assetStore core.IAssetStore, priceStore core.IPriceStore, assetSrv core.IAssetService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		asset, err := assetStore.Find(ctx, chi.URLParam(r, "asset"))
		if err != nil {
			render.NotFoundRequest(w, core.ErrAssetNotFound)
			return
		}

		var price decimal.Decimal
		if p, err := priceStore.Find(ctx, asset.AssetID); err == nil {
			price = p.Price
		}

		render.JSON(w, marketView(ctx, asset, price, assetSrv))
	}
}

func marketView(ctx context.Context, asset *core.Asset, price decimal.Decimal, assetSrv core.IAssetService) *views.Market {
	return &views.Market{
		Asset:           *asset,
		Price:           price,
		UtilizationRate: assetSrv.CurUtilizationRate(ctx, asset),
		BorrowAPY:       assetSrv.CurBorrowRate(ctx, asset),
		SupplyAPY:       assetSrv.CurSupplyRate(ctx, asset),
	}
}
