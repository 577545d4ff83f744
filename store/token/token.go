package token

import (
	"context"

	"lever/core"

	"github.com/fox-one/pkg/store"
	"github.com/fox-one/pkg/store/db"
)

type tokenStore struct {
	db *db.DB
}

// New new token store
func New(db *db.DB) core.ITokenStore {
	return &tokenStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		if err := db.Update().Model(core.TokenBalance{}).AutoMigrate(core.TokenBalance{}).Error; err != nil {
			return err
		}

		if err := db.Update().Model(core.Transfer{}).AutoMigrate(core.Transfer{}).Error; err != nil {
			return err
		}

		return nil
	})
}

// Find returns a zero balance when the account has never held the asset;
// callers check ID == 0.
func (s *tokenStore) Find(ctx context.Context, accountID, assetID string) (*core.TokenBalance, error) {
	var balance core.TokenBalance
	err := s.db.View().Where("account_id=? and asset_id=?", accountID, assetID).First(&balance).Error
	if store.IsErrNotFound(err) {
		return &core.TokenBalance{AccountID: accountID, AssetID: assetID}, nil
	}
	if err != nil {
		return nil, err
	}

	return &balance, nil
}

func (s *tokenStore) Save(ctx context.Context, tx *db.DB, balance *core.TokenBalance) error {
	return tx.Update().Create(balance).Error
}

func (s *tokenStore) Update(ctx context.Context, tx *db.DB, balance *core.TokenBalance) error {
	version := balance.Version
	balance.Version++

	update := tx.Update().Model(core.TokenBalance{}).
		Where("account_id=? and asset_id=? and version=?", balance.AccountID, balance.AssetID, version).
		Updates(map[string]interface{}{
			"balance": balance.Balance,
			"version": balance.Version,
		})
	if update.Error != nil {
		return update.Error
	}

	if update.RowsAffected == 0 {
		return db.ErrOptimisticLock
	}

	return nil
}

func (s *tokenStore) CreateTransfer(ctx context.Context, tx *db.DB, transfer *core.Transfer) error {
	return tx.Update().Create(transfer).Error
}

func (s *tokenStore) ListTransfers(ctx context.Context, accountID string, limit int) ([]*core.Transfer, error) {
	var transfers []*core.Transfer
	query := s.db.View().Order("id desc").Limit(limit)
	if accountID != "" {
		query = query.Where("account_id=? or opponent_id=?", accountID, accountID)
	}
	if err := query.Find(&transfers).Error; err != nil {
		return nil, err
	}
	return transfers, nil
}
