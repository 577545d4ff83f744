package core

import (
	"context"
	"time"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

// Position user balances for one asset.
//
// Debt only moves via borrow and the principal part of repay; accrued
// interest is carried in PendingInterest/UnpaidInterest until settled.
type Position struct {
	ID      uint64 `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	UserID  string `sql:"size:36;unique_index:position_idx" json:"user_id"`
	AssetID string `sql:"size:36;unique_index:position_idx" json:"asset_id"`

	Collateral decimal.Decimal `sql:"type:decimal(32,16)" json:"collateral"`
	Debt       decimal.Decimal `sql:"type:decimal(32,16)" json:"debt"`

	// interest snapshotted at the last interaction but not yet settled
	PendingInterest decimal.Decimal `sql:"type:decimal(32,16)" json:"pending_interest"`
	// interest left over from a partial repay
	UnpaidInterest  decimal.Decimal `sql:"type:decimal(32,16)" json:"unpaid_interest"`
	LastInteraction int64           `sql:"default:0" json:"last_interaction"`

	Version   int64     `sql:"default:0" json:"version"`
	CreatedAt time.Time `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// CarriedInterest interest owed from before the current accrual window
func (p *Position) CarriedInterest() decimal.Decimal {
	return p.PendingInterest.Add(p.UnpaidInterest)
}

// IPositionStore position store interface
type IPositionStore interface {
	Save(ctx context.Context, tx *db.DB, position *Position) error
	Find(ctx context.Context, userID, assetID string) (*Position, error)
	FindByUser(ctx context.Context, userID string) ([]*Position, error)
	FindByAsset(ctx context.Context, assetID string) ([]*Position, error)
	Update(ctx context.Context, tx *db.DB, position *Position) error
	Users(ctx context.Context) ([]string, error)
}
