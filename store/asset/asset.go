package asset

import (
	"context"
	"errors"

	"lever/core"

	"github.com/fox-one/pkg/store/db"
)

type assetStore struct {
	db *db.DB
}

// New new asset store
func New(db *db.DB) core.IAssetStore {
	return &assetStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.Asset{})
		if err := tx.AutoMigrate(core.Asset{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *assetStore) Save(ctx context.Context, tx *db.DB, asset *core.Asset) error {
	return tx.Update().Create(asset).Error
}

func (s *assetStore) Find(ctx context.Context, assetID string) (*core.Asset, error) {
	if assetID == "" {
		return nil, errors.New("invalid asset_id")
	}

	var asset core.Asset
	if err := s.db.View().Where("asset_id=?", assetID).First(&asset).Error; err != nil {
		return nil, err
	}

	return &asset, nil
}

func (s *assetStore) FindBySymbol(ctx context.Context, symbol string) (*core.Asset, error) {
	if symbol == "" {
		return nil, errors.New("invalid symbol")
	}

	var asset core.Asset
	if err := s.db.View().Where("symbol=?", symbol).First(&asset).Error; err != nil {
		return nil, err
	}

	return &asset, nil
}

func (s *assetStore) All(ctx context.Context) ([]*core.Asset, error) {
	var assets []*core.Asset
	if err := s.db.View().Find(&assets).Error; err != nil {
		return nil, err
	}
	return assets, nil
}

func (s *assetStore) AllAsMap(ctx context.Context) (map[string]*core.Asset, error) {
	assets, e := s.All(ctx)
	if e != nil {
		return nil, e
	}

	maps := make(map[string]*core.Asset)
	for _, a := range assets {
		maps[a.AssetID] = a
	}

	return maps, nil
}

func toUpdateParams(asset *core.Asset) map[string]interface{} {
	return map[string]interface{}{
		"lend_factor":           asset.LendFactor,
		"liquidation_threshold": asset.LiquidationThreshold,
		"reserve_factor":        asset.ReserveFactor,
		"total_collateral":      asset.TotalCollateral,
		"total_debt":            asset.TotalDebt,
		"claim_supply":          asset.ClaimSupply,
		"base_rate":             asset.BaseRate,
		"multiplier":            asset.Multiplier,
		"jump_multiplier":       asset.JumpMultiplier,
		"kink":                  asset.Kink,
		"min_rate":              asset.MinRate,
		"max_rate":              asset.MaxRate,
		"smoothing_factor":      asset.SmoothingFactor,
	}
}

func (s *assetStore) Update(ctx context.Context, tx *db.DB, asset *core.Asset) error {
	version := asset.Version
	asset.Version++

	updates := toUpdateParams(asset)
	updates["version"] = asset.Version

	update := tx.Update().Model(core.Asset{}).
		Where("asset_id=? and version=?", asset.AssetID, version).
		Updates(updates)
	if update.Error != nil {
		return update.Error
	}

	if update.RowsAffected == 0 {
		return db.ErrOptimisticLock
	}

	return nil
}
