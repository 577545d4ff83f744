package ledger

import (
	"context"
	"time"

	"lever/core"
	"lever/internal/rates"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

// pickPosition finds the user's position for assetID in the loaded
// slice, appending a fresh one when none exists yet. The returned
// pointer stays inside the slice so later valuation passes see every
// mutation.
func pickPosition(positions *[]*core.Position, userID, assetID string) *core.Position {
	for _, p := range *positions {
		if p.AssetID == assetID {
			return p
		}
	}

	p := &core.Position{UserID: userID, AssetID: assetID}
	*positions = append(*positions, p)
	return p
}

func lendWeight(asset *core.Asset) decimal.Decimal {
	return asset.LendFactor
}

func liquidationWeight(asset *core.Asset) decimal.Decimal {
	return asset.LiquidationThreshold
}

// borrowValueUSD total owed value, debt plus carried interest
func (s *ledgerService) borrowValueUSD(ctx context.Context, positions []*core.Position, now time.Time) (decimal.Decimal, error) {
	borrowed := decimal.Zero
	for _, p := range positions {
		owed := p.Debt.Add(p.CarriedInterest())
		if !owed.IsPositive() {
			continue
		}

		price, err := s.oracleSrv.GetUnderlyingPrice(ctx, p.AssetID, now)
		if err != nil {
			return decimal.Zero, err
		}

		borrowed = borrowed.Add(owed.Mul(price))
	}

	return borrowed, nil
}

// collateralValueUSD collateral value weighted by the per-asset percent
// factor picked by weight
func (s *ledgerService) collateralValueUSD(ctx context.Context, positions []*core.Position, now time.Time, weight func(*core.Asset) decimal.Decimal) (decimal.Decimal, error) {
	value := decimal.Zero
	for _, p := range positions {
		if !p.Collateral.IsPositive() {
			continue
		}

		asset, err := s.assetStore.Find(ctx, p.AssetID)
		if err != nil {
			return decimal.Zero, core.ErrAssetNotFound
		}

		price, err := s.oracleSrv.GetUnderlyingPrice(ctx, p.AssetID, now)
		if err != nil {
			return decimal.Zero, err
		}

		value = value.Add(p.Collateral.Mul(price).Mul(weight(asset)).DivRound(hundred, rates.MaxPrecision))
	}

	return value, nil
}

// computeHealthFactor values the loaded positions. A user with no owed
// value is unconstrained and no collateral price is looked up at all.
func (s *ledgerService) computeHealthFactor(ctx context.Context, positions []*core.Position, now time.Time) (core.HealthFactor, error) {
	borrowed, err := s.borrowValueUSD(ctx, positions, now)
	if err != nil {
		return core.HealthFactor{}, err
	}

	if !borrowed.IsPositive() {
		return core.HealthFactor{Unconstrained: true}, nil
	}

	collateral, err := s.collateralValueUSD(ctx, positions, now, liquidationWeight)
	if err != nil {
		return core.HealthFactor{}, err
	}

	return core.HealthFactor{Value: collateral.DivRound(borrowed, rates.MaxPrecision)}, nil
}

func (s *ledgerService) savePosition(ctx context.Context, tx *db.DB, position *core.Position) error {
	if position.ID == 0 {
		return s.positionStore.Save(ctx, tx, position)
	}
	return s.positionStore.Update(ctx, tx, position)
}

func (s *ledgerService) saveState(ctx context.Context, tx *db.DB, state *core.RewardState) error {
	if state.ID == 0 {
		return s.rewardStore.SaveState(ctx, tx, state)
	}
	return s.rewardStore.UpdateState(ctx, tx, state)
}

func (s *ledgerService) saveAccount(ctx context.Context, tx *db.DB, account *core.RewardAccount) error {
	if account.ID == 0 {
		return s.rewardStore.SaveAccount(ctx, tx, account)
	}
	return s.rewardStore.UpdateAccount(ctx, tx, account)
}

// persist flushes one operation's mutated records; nil records are
// skipped
func (s *ledgerService) persist(ctx context.Context, tx *db.DB, asset *core.Asset, state *core.RewardState, position *core.Position, account *core.RewardAccount) error {
	if asset != nil {
		if err := s.assetStore.Update(ctx, tx, asset); err != nil {
			return err
		}
	}
	if state != nil {
		if err := s.saveState(ctx, tx, state); err != nil {
			return err
		}
	}
	if position != nil {
		if err := s.savePosition(ctx, tx, position); err != nil {
			return err
		}
	}
	if account != nil {
		if err := s.saveAccount(ctx, tx, account); err != nil {
			return err
		}
	}
	return nil
}
