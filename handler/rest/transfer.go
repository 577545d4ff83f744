package rest

import (
	"errors"
	"net/http"
	"strconv"

	"lever/core"
	"lever/handler/render"
)

const maxTransferLimit = 500

func transfersHandler(tokenStore core.ITokenStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		accountID := r.URL.Query().Get("account")
		if accountID == "" {
			render.BadRequest(w, errors.New("empty account"))
			return
		}

		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				render.BadRequest(w, errors.New("invalid limit"))
				return
			}
			if n > maxTransferLimit {
				n = maxTransferLimit
			}
			limit = n
		}

		transfers, err := tokenStore.ListTransfers(ctx, accountID, limit)
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		render.JSON(w, transfers)
	}
}
