package core

import (
	"context"
	"time"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

// RewardState per-asset accrual accumulators.
//
// The Virtual* and *Paid counters are monotonic: they only ever grow
// across any sequence of calls.
type RewardState struct {
	ID      uint64 `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	AssetID string `sql:"size:36;unique_index:reward_state_idx" json:"asset_id"`

	// 计息用的存款名义总量, 只随 notify 调用变化
	TotalSupplyTracked decimal.Decimal `sql:"type:decimal(32,16)" json:"total_supply_tracked"`

	InterestPerSecond     decimal.Decimal `sql:"type:decimal(32,20)" json:"interest_per_second"`
	SupplyRewardPerSecond decimal.Decimal `sql:"type:decimal(32,20)" json:"supply_reward_per_second"`

	VirtualAccInterest     decimal.Decimal `sql:"type:decimal(32,16)" json:"virtual_acc_interest"`
	VirtualAccSupplyReward decimal.Decimal `sql:"type:decimal(32,16)" json:"virtual_acc_supply_reward"`
	TotalInterestPaid      decimal.Decimal `sql:"type:decimal(32,16)" json:"total_interest_paid"`
	TotalRewardPaid        decimal.Decimal `sql:"type:decimal(32,16)" json:"total_reward_paid"`

	LastUpdatedAt int64 `sql:"default:0" json:"last_updated_at"`

	Version   int64     `sql:"default:0" json:"version"`
	CreatedAt time.Time `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// RewardAccount per-user reward bookkeeping for one asset
type RewardAccount struct {
	ID      uint64 `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	UserID  string `sql:"size:36;unique_index:reward_account_idx" json:"user_id"`
	AssetID string `sql:"size:36;unique_index:reward_account_idx" json:"asset_id"`

	DepositNotional  decimal.Decimal `sql:"type:decimal(32,16)" json:"deposit_notional"`
	LastRewardUpdate int64           `sql:"default:0" json:"last_reward_update"`
	// reward earned but not paid because the pot was short at claim time;
	// carried flat, it does not compound
	FrozenReward decimal.Decimal `sql:"type:decimal(32,16)" json:"frozen_reward"`

	Version   int64     `sql:"default:0" json:"version"`
	CreatedAt time.Time `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// AccruedInterest preview of the pending accrual window
type AccruedInterest struct {
	SecondsElapsed        int64           `json:"seconds_elapsed"`
	InterestAccrued       decimal.Decimal `json:"interest_accrued"`
	InterestPerSecond     decimal.Decimal `json:"interest_per_second"`
	SupplyRewardAccrued   decimal.Decimal `json:"supply_reward_accrued"`
	SupplyRewardPerSecond decimal.Decimal `json:"supply_reward_per_second"`
}

// IRewardStore reward bookkeeping store interface
type IRewardStore interface {
	SaveState(ctx context.Context, tx *db.DB, state *RewardState) error
	FindState(ctx context.Context, assetID string) (*RewardState, error)
	UpdateState(ctx context.Context, tx *db.DB, state *RewardState) error
	SaveAccount(ctx context.Context, tx *db.DB, account *RewardAccount) error
	FindAccount(ctx context.Context, userID, assetID string) (*RewardAccount, error)
	FindAccountsByAsset(ctx context.Context, assetID string) ([]*RewardAccount, error)
	UpdateAccount(ctx context.Context, tx *db.DB, account *RewardAccount) error
}

// IRewardReader read-only reward introspection, safe for arbitrary callers.
//
// Earned uses the stored supply rate and is only as fresh as the last
// accrual; settlement paths must go through the mutating interface, which
// always forces an accrual first.
type IRewardReader interface {
	AccumulatedInterest(asset *Asset, state *RewardState, now time.Time) *AccruedInterest
	Earned(state *RewardState, account *RewardAccount, now time.Time) decimal.Decimal
}

// IRewardService mutating reward-manager interface, held by the ledger
// only. Methods mutate the loaded records in place; the caller persists
// them inside its transaction, so a failed operation drops every effect.
type IRewardService interface {
	IRewardReader

	Accrue(asset *Asset, state *RewardState, now time.Time)
	UserInterestDue(asset *Asset, state *RewardState, position *Position, now time.Time) decimal.Decimal
	SnapshotUserInterest(asset *Asset, state *RewardState, position *Position, now time.Time)
	SettleUserInterest(state *RewardState, position *Position, interestPaid, remaining decimal.Decimal, now time.Time)
	EarnedWithAccrue(asset *Asset, state *RewardState, account *RewardAccount, now time.Time) decimal.Decimal
	GetReward(ctx context.Context, tx *db.DB, asset *Asset, state *RewardState, account *RewardAccount, userID string, now time.Time) (decimal.Decimal, error)
	NotifyDeposit(ctx context.Context, tx *db.DB, asset *Asset, state *RewardState, account *RewardAccount, userID string, amount decimal.Decimal, now time.Time) error
	NotifyWithdraw(ctx context.Context, tx *db.DB, asset *Asset, state *RewardState, account *RewardAccount, userID string, amount decimal.Decimal, now time.Time) error
	AccrueAndSave(ctx context.Context, assetID string, now time.Time) error
}
