package reward

import (
	"context"

	"lever/core"

	"github.com/fox-one/pkg/store"
	"github.com/fox-one/pkg/store/db"
)

type rewardStore struct {
	db *db.DB
}

// New new reward store
func New(db *db.DB) core.IRewardStore {
	return &rewardStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		if err := db.Update().Model(core.RewardState{}).AutoMigrate(core.RewardState{}).Error; err != nil {
			return err
		}

		if err := db.Update().Model(core.RewardAccount{}).AutoMigrate(core.RewardAccount{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *rewardStore) SaveState(ctx context.Context, tx *db.DB, state *core.RewardState) error {
	return tx.Update().Create(state).Error
}

// FindState returns an empty state when the asset has never accrued;
// callers check ID == 0.
func (s *rewardStore) FindState(ctx context.Context, assetID string) (*core.RewardState, error) {
	var state core.RewardState
	err := s.db.View().Where("asset_id=?", assetID).First(&state).Error
	if store.IsErrNotFound(err) {
		return &core.RewardState{AssetID: assetID}, nil
	}
	if err != nil {
		return nil, err
	}

	return &state, nil
}

func stateUpdateParams(state *core.RewardState) map[string]interface{} {
	return map[string]interface{}{
		"total_supply_tracked":      state.TotalSupplyTracked,
		"interest_per_second":       state.InterestPerSecond,
		"supply_reward_per_second":  state.SupplyRewardPerSecond,
		"virtual_acc_interest":      state.VirtualAccInterest,
		"virtual_acc_supply_reward": state.VirtualAccSupplyReward,
		"total_interest_paid":       state.TotalInterestPaid,
		"total_reward_paid":         state.TotalRewardPaid,
		"last_updated_at":           state.LastUpdatedAt,
	}
}

func (s *rewardStore) UpdateState(ctx context.Context, tx *db.DB, state *core.RewardState) error {
	version := state.Version
	state.Version++

	updates := stateUpdateParams(state)
	updates["version"] = state.Version

	update := tx.Update().Model(core.RewardState{}).
		Where("asset_id=? and version=?", state.AssetID, version).
		Updates(updates)
	if update.Error != nil {
		return update.Error
	}

	if update.RowsAffected == 0 {
		return db.ErrOptimisticLock
	}

	return nil
}

func (s *rewardStore) SaveAccount(ctx context.Context, tx *db.DB, account *core.RewardAccount) error {
	return tx.Update().Create(account).Error
}

// FindAccount returns an empty account when the user has never supplied;
// callers check ID == 0.
func (s *rewardStore) FindAccount(ctx context.Context, userID, assetID string) (*core.RewardAccount, error) {
	var account core.RewardAccount
	err := s.db.View().Where("user_id=? and asset_id=?", userID, assetID).First(&account).Error
	if store.IsErrNotFound(err) {
		return &core.RewardAccount{UserID: userID, AssetID: assetID}, nil
	}
	if err != nil {
		return nil, err
	}

	return &account, nil
}

func (s *rewardStore) FindAccountsByAsset(ctx context.Context, assetID string) ([]*core.RewardAccount, error) {
	var accounts []*core.RewardAccount
	if err := s.db.View().Where("asset_id=?", assetID).Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func accountUpdateParams(account *core.RewardAccount) map[string]interface{} {
	return map[string]interface{}{
		"deposit_notional":   account.DepositNotional,
		"last_reward_update": account.LastRewardUpdate,
		"frozen_reward":      account.FrozenReward,
	}
}

func (s *rewardStore) UpdateAccount(ctx context.Context, tx *db.DB, account *core.RewardAccount) error {
	version := account.Version
	account.Version++

	updates := accountUpdateParams(account)
	updates["version"] = account.Version

	update := tx.Update().Model(core.RewardAccount{}).
		Where("user_id=? and asset_id=? and version=?", account.UserID, account.AssetID, version).
		Updates(updates)
	if update.Error != nil {
		return update.Error
	}

	if update.RowsAffected == 0 {
		return db.ErrOptimisticLock
	}

	return nil
}
