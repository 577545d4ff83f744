package core

import (
	"context"
	"time"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

// Price latest USD price of an asset
type Price struct {
	ID        uint64          `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	AssetID   string          `sql:"size:36;unique_index:price_asset_idx" json:"asset_id"`
	Price     decimal.Decimal `sql:"type:decimal(32,16)" json:"price"`
	UpdatedAt time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// IPriceStore price store interface
type IPriceStore interface {
	Save(ctx context.Context, tx *db.DB, price *Price) error
	Find(ctx context.Context, assetID string) (*Price, error)
	All(ctx context.Context) ([]*Price, error)
}

// IPriceOracleService price oracle capability. A missing or stale price
// aborts the calling operation.
type IPriceOracleService interface {
	GetUnderlyingPrice(ctx context.Context, assetID string, at time.Time) (decimal.Decimal, error)
	PullPriceTicker(ctx context.Context, assetID string, at time.Time) (*Price, error)
	SetUnderlyingPrice(ctx context.Context, assetID string, price decimal.Decimal, at time.Time) error
}
