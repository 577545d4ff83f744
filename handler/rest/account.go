package rest

import (
	"errors"
	"net/http"

	"lever/core"
	"lever/handler/render"
	"lever/handler/views"

	"github.com/go-chi/chi"
)

func accountHandler(positionStore core.IPositionStore, ledgerSrv core.ILedgerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID := chi.URLParam(r, "user")
		if userID == "" {
			render.BadRequest(w, errors.New("empty user id"))
			return
		}

		positions, err := positionStore.FindByUser(ctx, userID)
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		hf, err := ledgerSrv.HealthFactor(ctx, userID)
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		power, err := ledgerSrv.BorrowingPowerUSD(ctx, userID)
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		render.JSON(w, &views.Account{
			UserID:            userID,
			Positions:         positions,
			HealthFactor:      hf,
			BorrowingPowerUSD: power,
		})
	}
}
