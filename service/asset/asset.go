package asset

import (
	"context"

	"lever/core"
	"lever/internal/rates"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

var (
	one     = decimal.New(1, 0)
	hundred = decimal.NewFromInt(100)
)

type assetService struct {
	config     *core.Config
	db         *db.DB
	assetStore core.IAssetStore
}

// New new asset service
func New(cfg *core.Config, database *db.DB, assetStore core.IAssetStore) core.IAssetService {
	return &assetService{
		config:     cfg,
		db:         database,
		assetStore: assetStore,
	}
}

func (s *assetService) CurUtilizationRate(ctx context.Context, asset *core.Asset) decimal.Decimal {
	return rates.UtilizationRate(asset.TotalCollateral, asset.TotalDebt)
}

// CurBorrowRate current annualized borrow APY
func (s *assetService) CurBorrowRate(ctx context.Context, asset *core.Asset) decimal.Decimal {
	utilization := s.CurUtilizationRate(ctx, asset)
	return rates.BorrowRate(utilization, asset.CurveParams())
}

// CurSupplyRate current annualized supply APY after the reserve cut
func (s *assetService) CurSupplyRate(ctx context.Context, asset *core.Asset) decimal.Decimal {
	utilization := s.CurUtilizationRate(ctx, asset)
	borrowRate := rates.BorrowRate(utilization, asset.CurveParams())
	return rates.SupplyRateLessReserve(rates.SupplyRate(borrowRate, utilization), asset.ReserveFactor)
}

// SetRateParams batch update of the curve parameters, admins only.
// Only structural ranges are checked; the economics stay with the operator.
func (s *assetService) SetRateParams(ctx context.Context, caller string, assetID string, params core.RateParams) error {
	if !s.config.IsAdmin(caller) {
		return core.ErrOperationForbidden
	}

	if params.SmoothingFactor.LessThan(decimal.Zero) || params.SmoothingFactor.GreaterThan(one) {
		return core.ErrInvalidParams
	}
	if params.MaxRate.GreaterThan(decimal.Zero) && params.MinRate.GreaterThan(params.MaxRate) {
		return core.ErrInvalidParams
	}
	if params.Kink.LessThan(decimal.Zero) || params.Kink.GreaterThan(one) {
		return core.ErrInvalidParams
	}

	asset, err := s.assetStore.Find(ctx, assetID)
	if err != nil {
		return core.ErrAssetNotFound
	}

	asset.BaseRate = params.BaseRate
	asset.Multiplier = params.Multiplier
	asset.JumpMultiplier = params.JumpMultiplier
	asset.Kink = params.Kink
	asset.MinRate = params.MinRate
	asset.MaxRate = params.MaxRate
	asset.SmoothingFactor = params.SmoothingFactor

	return s.assetStore.Update(ctx, s.db, asset)
}

// SetRiskParams update lend factor and liquidation threshold, admins only.
// Invariant: 0 < lend_factor <= liquidation_threshold <= 100.
func (s *assetService) SetRiskParams(ctx context.Context, caller string, assetID string, lendFactor, liquidationThreshold decimal.Decimal) error {
	if !s.config.IsAdmin(caller) {
		return core.ErrOperationForbidden
	}

	if lendFactor.LessThanOrEqual(decimal.Zero) ||
		lendFactor.GreaterThan(liquidationThreshold) ||
		liquidationThreshold.GreaterThan(hundred) {
		return core.ErrInvalidParams
	}

	asset, err := s.assetStore.Find(ctx, assetID)
	if err != nil {
		return core.ErrAssetNotFound
	}

	asset.LendFactor = lendFactor
	asset.LiquidationThreshold = liquidationThreshold

	return s.assetStore.Update(ctx, s.db, asset)
}

