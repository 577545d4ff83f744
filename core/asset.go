package core

import (
	"context"
	"time"

	"lever/internal/rates"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

// Asset is a configured market: risk parameters, rate-curve parameters
// and the pool totals the ledger maintains for it.
type Asset struct {
	ID           uint64          `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	AssetID      string          `sql:"size:36;unique_index:asset_idx" json:"asset_id"`
	Symbol       string          `sql:"size:20;unique_index:symbol_idx" json:"symbol"`
	ClaimAssetID string          `sql:"size:36;unique_index:claim_asset_idx" json:"claim_asset_id"`
	// 抵押因子: 最大可借贷价值比例, (0, 100]
	LendFactor decimal.Decimal `sql:"type:decimal(20,8)" json:"lend_factor"`
	// 清算阈值, lend_factor <= liquidation_threshold <= 100
	LiquidationThreshold decimal.Decimal `sql:"type:decimal(20,8)" json:"liquidation_threshold"`
	// 平台保留金率 (0, 1)
	ReserveFactor decimal.Decimal `sql:"type:decimal(20,8)" json:"reserve_factor"`

	TotalCollateral decimal.Decimal `sql:"type:decimal(32,16)" json:"total_collateral"`
	TotalDebt       decimal.Decimal `sql:"type:decimal(32,16)" json:"total_debt"`
	// 累计铸造的份额凭证数量
	ClaimSupply decimal.Decimal `sql:"type:decimal(32,16)" json:"claim_supply"`

	// annualized rate-curve parameters
	BaseRate        decimal.Decimal `sql:"type:decimal(20,16)" json:"base_rate"`
	Multiplier      decimal.Decimal `sql:"type:decimal(20,16)" json:"multiplier"`
	JumpMultiplier  decimal.Decimal `sql:"type:decimal(20,16)" json:"jump_multiplier"`
	Kink            decimal.Decimal `sql:"type:decimal(20,16)" json:"kink"`
	MinRate         decimal.Decimal `sql:"type:decimal(20,16)" json:"min_rate"`
	MaxRate         decimal.Decimal `sql:"type:decimal(20,16)" json:"max_rate"`
	SmoothingFactor decimal.Decimal `sql:"type:decimal(20,16)" json:"smoothing_factor"`

	Version   int64     `sql:"default:0" json:"version"`
	CreatedAt time.Time `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// Liquidity free pool liquidity: total_collateral - total_debt
func (a *Asset) Liquidity() decimal.Decimal {
	return a.TotalCollateral.Sub(a.TotalDebt)
}

// CurveParams the asset's annualized rate-curve parameters
func (a *Asset) CurveParams() rates.Params {
	return rates.Params{
		BaseRate:        a.BaseRate,
		Multiplier:      a.Multiplier,
		JumpMultiplier:  a.JumpMultiplier,
		Kink:            a.Kink,
		MinRate:         a.MinRate,
		MaxRate:         a.MaxRate,
		SmoothingFactor: a.SmoothingFactor,
	}
}

// RateParams annualized interest-curve parameters, updated as a batch
type RateParams struct {
	BaseRate        decimal.Decimal `json:"base_rate"`
	Multiplier      decimal.Decimal `json:"multiplier"`
	JumpMultiplier  decimal.Decimal `json:"jump_multiplier"`
	Kink            decimal.Decimal `json:"kink"`
	MinRate         decimal.Decimal `json:"min_rate"`
	MaxRate         decimal.Decimal `json:"max_rate"`
	SmoothingFactor decimal.Decimal `json:"smoothing_factor"`
}

// IAssetStore asset store interface
type IAssetStore interface {
	Save(ctx context.Context, tx *db.DB, asset *Asset) error
	Find(ctx context.Context, assetID string) (*Asset, error)
	FindBySymbol(ctx context.Context, symbol string) (*Asset, error)
	All(ctx context.Context) ([]*Asset, error)
	AllAsMap(ctx context.Context) (map[string]*Asset, error)
	Update(ctx context.Context, tx *db.DB, asset *Asset) error
}

// IAssetService asset service interface
type IAssetService interface {
	CurUtilizationRate(ctx context.Context, asset *Asset) decimal.Decimal
	CurBorrowRate(ctx context.Context, asset *Asset) decimal.Decimal
	CurSupplyRate(ctx context.Context, asset *Asset) decimal.Decimal
	SetRateParams(ctx context.Context, caller string, assetID string, params RateParams) error
	SetRiskParams(ctx context.Context, caller string, assetID string, lendFactor, liquidationThreshold decimal.Decimal) error
}
