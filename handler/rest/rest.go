package rest

import (
	"errors"
	"net/http"

	"lever/core"
	"lever/handler/render"

	"github.com/go-chi/chi"
)

// Handle handle rest api request
func Handle(
	assetStore core.IAssetStore,
	positionStore core.IPositionStore,
	rewardStore core.IRewardStore,
	priceStore core.IPriceStore,
	tokenStore core.ITokenStore,
	assetSrv core.IAssetService,
	rewardSrv core.IRewardReader,
	ledgerSrv core.ILedgerService,
) http.Handler {
	router := chi.NewRouter()

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.NotFoundRequest(w, errors.New("not found"))
	})

	router.Get("/markets/all", allMarketsHandler(assetStore, priceStore, assetSrv))
	router.Get("/markets/{asset}", marketHandler(assetStore, priceStore, assetSrv))
	router.Get("/accounts/{user}", accountHandler(positionStore, ledgerSrv))
	router.Get("/rewards/{asset}", rewardHandler(assetStore, rewardStore, rewardSrv))
	router.Get("/transfers", transfersHandler(tokenStore))

	return router
}
