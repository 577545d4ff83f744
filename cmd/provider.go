package cmd

import (
	"lever/core"
	assetservice "lever/service/asset"
	ledgerservice "lever/service/ledger"
	oracleservice "lever/service/oracle"
	rewardservice "lever/service/reward"
	tokenservice "lever/service/token"
	assetstore "lever/store/asset"
	positionstore "lever/store/position"
	pricestore "lever/store/price"
	rewardstore "lever/store/reward"
	tokenstore "lever/store/token"

	"github.com/fox-one/pkg/property"
	"github.com/fox-one/pkg/store/db"
	propertystore "github.com/fox-one/pkg/store/property"
)

func provideDatabase() *db.DB {
	return db.MustOpen(cfg.DB)
}

func provideConfig() *core.Config {
	return &cfg
}

func provideAssetStore(db *db.DB) core.IAssetStore {
	return assetstore.New(db)
}

func providePositionStore(db *db.DB) core.IPositionStore {
	return positionstore.New(db)
}

func provideRewardStore(db *db.DB) core.IRewardStore {
	return rewardstore.New(db)
}

func provideTokenStore(db *db.DB) core.ITokenStore {
	return tokenstore.New(db)
}

func providePriceStore(db *db.DB) core.IPriceStore {
	return pricestore.New(db)
}

func providePropertyStore(db *db.DB) property.Store {
	return propertystore.New(db)
}

func provideTokenService(tokenStore core.ITokenStore) core.ITokenService {
	return tokenservice.New(tokenStore, core.EngineAccountID)
}

func provideAssetService(db *db.DB, assetStore core.IAssetStore) core.IAssetService {
	return assetservice.New(provideConfig(), db, assetStore)
}

func provideOracleService(db *db.DB, priceStore core.IPriceStore) core.IPriceOracleService {
	return oracleservice.New(provideConfig(), db, priceStore)
}

func provideRewardService(db *db.DB, assetStore core.IAssetStore, rewardStore core.IRewardStore, tokenSrv core.ITokenService) core.IRewardService {
	return rewardservice.New(db, assetStore, rewardStore, tokenSrv)
}

func provideLedgerService(
	db *db.DB,
	assetStore core.IAssetStore,
	positionStore core.IPositionStore,
	rewardStore core.IRewardStore,
	tokenSrv core.ITokenService,
	rewardSrv core.IRewardService,
	oracleSrv core.IPriceOracleService,
) core.ILedgerService {
	return ledgerservice.New(db, assetStore, positionStore, rewardStore, tokenSrv, rewardSrv, oracleSrv)
}
