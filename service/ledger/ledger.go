package ledger

import (
	"context"
	"sync"
	"time"

	"lever/core"
	"lever/internal/rates"
	"lever/pkg/number"

	"github.com/fox-one/pkg/logger"
	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

var (
	// the first claim mint locks this floor in the fee sink forever
	MinimumLiquidity = number.Decimal("0.001")
	// collateral discount granted to the liquidator, in percent
	LiquidationBonus = decimal.NewFromInt(10)

	hundred = decimal.NewFromInt(100)
)

type ledgerService struct {
	db            *db.DB
	assetStore    core.IAssetStore
	positionStore core.IPositionStore
	rewardStore   core.IRewardStore
	tokenSrv      core.ITokenService
	rewardSrv     core.IRewardService
	oracleSrv     core.IPriceOracleService

	// 所有写操作串行执行
	mux sync.Mutex

	clock func() time.Time
}

// New new ledger service
func New(
	database *db.DB,
	assetStore core.IAssetStore,
	positionStore core.IPositionStore,
	rewardStore core.IRewardStore,
	tokenSrv core.ITokenService,
	rewardSrv core.IRewardService,
	oracleSrv core.IPriceOracleService,
) core.ILedgerService {
	return &ledgerService{
		db:            database,
		assetStore:    assetStore,
		positionStore: positionStore,
		rewardStore:   rewardStore,
		tokenSrv:      tokenSrv,
		rewardSrv:     rewardSrv,
		oracleSrv:     oracleSrv,
	}
}

func (s *ledgerService) now() time.Time {
	if s.clock != nil {
		return s.clock()
	}
	return time.Now()
}

// inTx runs fn inside a transaction; with no database attached it runs
// fn directly, which keeps the service usable against pure in-memory
// stores.
func (s *ledgerService) inTx(fn func(tx *db.DB) error) error {
	if s.db == nil {
		return fn(nil)
	}
	return s.db.Tx(fn)
}

// Supply deposits amount of the underlying asset and mints claim tokens
// at the pool's current exchange rate.
func (s *ledgerService) Supply(ctx context.Context, userID, assetID string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return core.ErrInvalidAmount
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	log := logger.FromContext(ctx).WithField("ledger", "supply")
	now := s.now()

	asset, err := s.assetStore.Find(ctx, assetID)
	if err != nil {
		return core.ErrAssetNotFound
	}

	state, err := s.rewardStore.FindState(ctx, assetID)
	if err != nil {
		return err
	}

	position, err := s.positionStore.Find(ctx, userID, assetID)
	if err != nil {
		return err
	}

	account, err := s.rewardStore.FindAccount(ctx, userID, assetID)
	if err != nil {
		return err
	}

	return s.inTx(func(tx *db.DB) error {
		s.rewardSrv.SnapshotUserInterest(asset, state, position, now)

		if err := s.tokenSrv.Transfer(ctx, tx, userID, core.EngineAccountID, assetID, amount, "supply"); err != nil {
			return err
		}

		if err := s.rewardSrv.NotifyDeposit(ctx, tx, asset, state, account, userID, amount, now); err != nil {
			return err
		}

		// claim mint against the pool value before this deposit
		minted := amount
		if asset.ClaimSupply.IsPositive() {
			minted = amount.Mul(asset.ClaimSupply).
				DivRound(asset.TotalCollateral, rates.MaxPrecision)
		}

		if asset.ClaimSupply.IsZero() {
			if minted.LessThanOrEqual(MinimumLiquidity) {
				return core.ErrBelowMinimumLiquidity
			}

			if err := s.tokenSrv.Mint(ctx, tx, core.EngineAccountID, core.FeeSinkAccountID, asset.ClaimAssetID, MinimumLiquidity, "supply"); err != nil {
				return err
			}
			if err := s.tokenSrv.Mint(ctx, tx, core.EngineAccountID, userID, asset.ClaimAssetID, minted.Sub(MinimumLiquidity), "supply"); err != nil {
				return err
			}
		} else {
			if err := s.tokenSrv.Mint(ctx, tx, core.EngineAccountID, userID, asset.ClaimAssetID, minted, "supply"); err != nil {
				return err
			}
		}

		asset.TotalCollateral = asset.TotalCollateral.Add(amount)
		asset.ClaimSupply = asset.ClaimSupply.Add(minted)
		position.Collateral = position.Collateral.Add(amount)
		position.LastInteraction = now.Unix()

		if err := s.persist(ctx, tx, asset, state, position, account); err != nil {
			log.WithError(err).Errorln("persist supply")
			return err
		}

		return nil
	})
}

// Withdraw redeems amount of the underlying asset, burning the matching
// share of the user's claim tokens.
func (s *ledgerService) Withdraw(ctx context.Context, userID, assetID string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return core.ErrInvalidAmount
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	log := logger.FromContext(ctx).WithField("ledger", "withdraw")
	now := s.now()

	asset, err := s.assetStore.Find(ctx, assetID)
	if err != nil {
		return core.ErrAssetNotFound
	}

	state, err := s.rewardStore.FindState(ctx, assetID)
	if err != nil {
		return err
	}

	account, err := s.rewardStore.FindAccount(ctx, userID, assetID)
	if err != nil {
		return err
	}

	positions, err := s.positionStore.FindByUser(ctx, userID)
	if err != nil {
		return err
	}
	position := pickPosition(&positions, userID, assetID)

	if position.Collateral.LessThan(amount) {
		return core.ErrInsufficientCollateral
	}

	if asset.Liquidity().LessThan(amount) {
		return core.ErrNoLiquidityAvailable
	}

	burned := amount.Mul(asset.ClaimSupply).
		DivRound(asset.TotalCollateral, rates.MaxPrecision)
	if asset.ClaimSupply.Sub(burned).LessThan(MinimumLiquidity) {
		return core.ErrBelowMinimumLiquidity
	}

	return s.inTx(func(tx *db.DB) error {
		s.rewardSrv.SnapshotUserInterest(asset, state, position, now)

		// accrue against the pre-withdraw pool, then re-value the position
		if err := s.rewardSrv.NotifyWithdraw(ctx, tx, asset, state, account, userID, amount, now); err != nil {
			return err
		}

		asset.TotalCollateral = asset.TotalCollateral.Sub(amount)
		asset.ClaimSupply = asset.ClaimSupply.Sub(burned)
		position.Collateral = position.Collateral.Sub(amount)
		position.LastInteraction = now.Unix()

		hf, err := s.computeHealthFactor(ctx, positions, now)
		if err != nil {
			return err
		}
		if hf.Broken() {
			return core.ErrHealthFactorBroken
		}

		if err := s.tokenSrv.Burn(ctx, tx, core.EngineAccountID, userID, asset.ClaimAssetID, burned, "withdraw"); err != nil {
			return err
		}

		if err := s.tokenSrv.Transfer(ctx, tx, core.EngineAccountID, userID, assetID, amount, "withdraw"); err != nil {
			return err
		}

		if err := s.persist(ctx, tx, asset, state, position, account); err != nil {
			log.WithError(err).Errorln("persist withdraw")
			return err
		}

		return nil
	})
}

// Borrow draws amount of the underlying asset against the user's
// collateral across every market.
func (s *ledgerService) Borrow(ctx context.Context, userID, assetID string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return core.ErrInvalidAmount
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	log := logger.FromContext(ctx).WithField("ledger", "borrow")
	now := s.now()

	asset, err := s.assetStore.Find(ctx, assetID)
	if err != nil {
		return core.ErrAssetNotFound
	}

	state, err := s.rewardStore.FindState(ctx, assetID)
	if err != nil {
		return err
	}

	positions, err := s.positionStore.FindByUser(ctx, userID)
	if err != nil {
		return err
	}
	position := pickPosition(&positions, userID, assetID)

	if asset.Liquidity().LessThan(amount) {
		return core.ErrNoLiquidityAvailable
	}

	return s.inTx(func(tx *db.DB) error {
		// fold the running window into the carry before the debt moves
		s.rewardSrv.SnapshotUserInterest(asset, state, position, now)

		position.Debt = position.Debt.Add(amount)
		asset.TotalDebt = asset.TotalDebt.Add(amount)

		borrowed, err := s.borrowValueUSD(ctx, positions, now)
		if err != nil {
			return err
		}
		limit, err := s.collateralValueUSD(ctx, positions, now, lendWeight)
		if err != nil {
			return err
		}
		if borrowed.GreaterThan(limit) {
			return core.ErrUserCannotBorrow
		}

		if err := s.tokenSrv.Transfer(ctx, tx, core.EngineAccountID, userID, assetID, amount, "borrow"); err != nil {
			return err
		}

		if err := s.persist(ctx, tx, asset, state, position, nil); err != nil {
			log.WithError(err).Errorln("persist borrow")
			return err
		}

		return nil
	})
}

// Repay pays interest first, then principal, and returns the interest
// charged in this call.
func (s *ledgerService) Repay(ctx context.Context, userID, assetID string, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, core.ErrInvalidAmount
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	log := logger.FromContext(ctx).WithField("ledger", "repay")
	now := s.now()

	asset, err := s.assetStore.Find(ctx, assetID)
	if err != nil {
		return decimal.Zero, core.ErrAssetNotFound
	}

	state, err := s.rewardStore.FindState(ctx, assetID)
	if err != nil {
		return decimal.Zero, err
	}

	position, err := s.positionStore.Find(ctx, userID, assetID)
	if err != nil {
		return decimal.Zero, err
	}

	due := s.rewardSrv.UserInterestDue(asset, state, position, now)
	owed := position.Debt.Add(due)
	if !owed.IsPositive() {
		return decimal.Zero, core.ErrNotBorrowed
	}

	if amount.GreaterThan(owed) {
		return decimal.Zero, core.ErrCannotRepayMoreThanBorrowed
	}

	interestPaid := number.Min(amount, due)
	principal := amount.Sub(interestPaid)

	err = s.inTx(func(tx *db.DB) error {
		if interestPaid.IsPositive() {
			if err := s.tokenSrv.Transfer(ctx, tx, userID, core.RewardAccountID(assetID), assetID, interestPaid, "interest"); err != nil {
				return err
			}
		}
		if principal.IsPositive() {
			if err := s.tokenSrv.Transfer(ctx, tx, userID, core.EngineAccountID, assetID, principal, "repay"); err != nil {
				return err
			}
		}

		s.rewardSrv.SettleUserInterest(state, position, interestPaid, due.Sub(interestPaid), now)

		position.Debt = position.Debt.Sub(principal)
		asset.TotalDebt = asset.TotalDebt.Sub(principal)

		if err := s.persist(ctx, tx, asset, state, position, nil); err != nil {
			log.WithError(err).Errorln("persist repay")
			return err
		}

		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}

	return interestPaid, nil
}

// Liquidate repays part of an unhealthy user's debt and seizes the
// matching value of their collateral at a discount.
func (s *ledgerService) Liquidate(ctx context.Context, liquidator, userID, repayAssetID, seizeAssetID string, amountToRepay decimal.Decimal) (*core.LiquidationOutcome, error) {
	if !amountToRepay.IsPositive() {
		return nil, core.ErrInvalidAmount
	}
	if liquidator == userID {
		return nil, core.ErrOperationForbidden
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	log := logger.FromContext(ctx).WithField("ledger", "liquidate")
	now := s.now()

	repayAsset, err := s.assetStore.Find(ctx, repayAssetID)
	if err != nil {
		return nil, core.ErrAssetNotFound
	}

	seizeAsset := repayAsset
	if seizeAssetID != repayAssetID {
		if seizeAsset, err = s.assetStore.Find(ctx, seizeAssetID); err != nil {
			return nil, core.ErrAssetNotFound
		}
	}

	state, err := s.rewardStore.FindState(ctx, repayAssetID)
	if err != nil {
		return nil, err
	}

	seizeState := state
	if seizeAssetID != repayAssetID {
		if seizeState, err = s.rewardStore.FindState(ctx, seizeAssetID); err != nil {
			return nil, err
		}
	}

	seizeAccount, err := s.rewardStore.FindAccount(ctx, userID, seizeAssetID)
	if err != nil {
		return nil, err
	}

	positions, err := s.positionStore.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	repayPosition := pickPosition(&positions, userID, repayAssetID)
	seizePosition := repayPosition
	if seizeAssetID != repayAssetID {
		seizePosition = pickPosition(&positions, userID, seizeAssetID)
	}

	startHF, err := s.computeHealthFactor(ctx, positions, now)
	if err != nil {
		return nil, err
	}
	if !startHF.Liquidatable() {
		return nil, core.ErrCannotLiquidateHealthyUser
	}

	priceRepay, err := s.oracleSrv.GetUnderlyingPrice(ctx, repayAssetID, now)
	if err != nil {
		return nil, err
	}
	priceSeize, err := s.oracleSrv.GetUnderlyingPrice(ctx, seizeAssetID, now)
	if err != nil {
		return nil, err
	}

	outcome := &core.LiquidationOutcome{StartingHealthFactor: startHF}

	err = s.inTx(func(tx *db.DB) error {
		s.rewardSrv.SnapshotUserInterest(repayAsset, state, repayPosition, now)

		if amountToRepay.GreaterThan(repayPosition.Debt) {
			return core.ErrInsufficientDebt
		}

		seized := amountToRepay.Mul(priceRepay).
			DivRound(priceSeize, rates.MaxPrecision)
		if seizePosition.Collateral.LessThan(seized) {
			return core.ErrInsufficientCollateral
		}

		paid := amountToRepay.Mul(hundred.Sub(LiquidationBonus)).
			DivRound(hundred, rates.MaxPrecision)

		if err := s.tokenSrv.Transfer(ctx, tx, liquidator, core.EngineAccountID, repayAssetID, paid, "liquidate"); err != nil {
			return err
		}

		if err := s.rewardSrv.NotifyWithdraw(ctx, tx, seizeAsset, seizeState, seizeAccount, userID, seized, now); err != nil {
			return err
		}

		burned := seized.Mul(seizeAsset.ClaimSupply).
			DivRound(seizeAsset.TotalCollateral, rates.MaxPrecision)
		if err := s.tokenSrv.Burn(ctx, tx, core.EngineAccountID, userID, seizeAsset.ClaimAssetID, burned, "liquidate"); err != nil {
			return err
		}

		if err := s.tokenSrv.Transfer(ctx, tx, core.EngineAccountID, liquidator, seizeAssetID, seized, "seize"); err != nil {
			return err
		}

		repayPosition.Debt = repayPosition.Debt.Sub(amountToRepay)
		repayAsset.TotalDebt = repayAsset.TotalDebt.Sub(amountToRepay)
		seizePosition.Collateral = seizePosition.Collateral.Sub(seized)
		seizeAsset.TotalCollateral = seizeAsset.TotalCollateral.Sub(seized)
		seizeAsset.ClaimSupply = seizeAsset.ClaimSupply.Sub(burned)

		endHF, err := s.computeHealthFactor(ctx, positions, now)
		if err != nil {
			return err
		}

		outcome.SeizedAmount = seized
		outcome.RepaidAmount = amountToRepay
		outcome.PaidByLiquidator = paid
		outcome.EndingHealthFactor = endHF

		if err := s.persist(ctx, tx, repayAsset, state, repayPosition, nil); err != nil {
			log.WithError(err).Errorln("persist liquidate repay side")
			return err
		}
		if seizeAssetID != repayAssetID {
			if err := s.persist(ctx, tx, seizeAsset, seizeState, nil, nil); err != nil {
				log.WithError(err).Errorln("persist liquidate seize asset")
				return err
			}
			if err := s.savePosition(ctx, tx, seizePosition); err != nil {
				return err
			}
		}
		if err := s.saveAccount(ctx, tx, seizeAccount); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return outcome, nil
}

// HealthFactor reads the user's current health factor
func (s *ledgerService) HealthFactor(ctx context.Context, userID string) (core.HealthFactor, error) {
	positions, err := s.positionStore.FindByUser(ctx, userID)
	if err != nil {
		return core.HealthFactor{}, err
	}

	return s.computeHealthFactor(ctx, positions, s.now())
}

// BorrowingPowerUSD remaining borrow capacity in USD
func (s *ledgerService) BorrowingPowerUSD(ctx context.Context, userID string) (decimal.Decimal, error) {
	positions, err := s.positionStore.FindByUser(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}

	now := s.now()
	limit, err := s.collateralValueUSD(ctx, positions, now, lendWeight)
	if err != nil {
		return decimal.Zero, err
	}
	borrowed, err := s.borrowValueUSD(ctx, positions, now)
	if err != nil {
		return decimal.Zero, err
	}

	return number.NonNegative(limit.Sub(borrowed)), nil
}
