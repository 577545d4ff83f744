package reward

import (
	"context"
	"time"

	"lever/core"
	"lever/internal/rates"
	"lever/pkg/number"

	"github.com/fox-one/pkg/logger"
	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

type rewardService struct {
	db          *db.DB
	assetStore  core.IAssetStore
	rewardStore core.IRewardStore
	tokenSrv    core.ITokenService
}

// New new reward service
func New(database *db.DB, assetStore core.IAssetStore, rewardStore core.IRewardStore, tokenSrv core.ITokenService) core.IRewardService {
	return &rewardService{
		db:          database,
		assetStore:  assetStore,
		rewardStore: rewardStore,
		tokenSrv:    tokenSrv,
	}
}

// AccumulatedInterest the pending accrual window: fresh rates from the
// curve and the interest/reward deltas since the last accrual.
func (s *rewardService) AccumulatedInterest(asset *core.Asset, state *core.RewardState, now time.Time) *core.AccruedInterest {
	var elapsed int64
	if state.LastUpdatedAt > 0 && now.Unix() > state.LastUpdatedAt {
		elapsed = now.Unix() - state.LastUpdatedAt
	}

	utilization := rates.UtilizationRate(asset.TotalCollateral, asset.TotalDebt)
	annualRate := rates.BorrowRate(utilization, asset.CurveParams())
	interestPerSecond := rates.PerSecond(annualRate)

	supplyRate := rates.SupplyRate(annualRate, utilization)
	supplyRateLessReserve := rates.SupplyRateLessReserve(supplyRate, asset.ReserveFactor)
	supplyRewardPerSecond := rates.PerSecond(supplyRateLessReserve)

	seconds := decimal.NewFromInt(elapsed)
	interestAccrued := interestPerSecond.Mul(seconds).Mul(asset.TotalDebt).Truncate(rates.MaxPrecision)
	supplyRewardAccrued := supplyRewardPerSecond.Mul(seconds).Mul(state.TotalSupplyTracked).Truncate(rates.MaxPrecision)

	return &core.AccruedInterest{
		SecondsElapsed:        elapsed,
		InterestAccrued:       interestAccrued,
		InterestPerSecond:     interestPerSecond,
		SupplyRewardAccrued:   supplyRewardAccrued,
		SupplyRewardPerSecond: supplyRewardPerSecond,
	}
}

// Accrue folds the elapsed window into the virtual accumulators and
// stores the fresh per-second rates. With zero pool debt both deltas are
// zero and only the clock moves.
func (s *rewardService) Accrue(asset *core.Asset, state *core.RewardState, now time.Time) {
	accrued := s.AccumulatedInterest(asset, state, now)

	state.VirtualAccInterest = state.VirtualAccInterest.Add(accrued.InterestAccrued)
	state.VirtualAccSupplyReward = state.VirtualAccSupplyReward.Add(accrued.SupplyRewardAccrued)
	state.InterestPerSecond = accrued.InterestPerSecond
	state.SupplyRewardPerSecond = accrued.SupplyRewardPerSecond
	state.LastUpdatedAt = now.Unix()
}

// UserInterestDue simple interest over the user's window plus carried
// interest. Forces a global accrual so the stored rate is fresh.
func (s *rewardService) UserInterestDue(asset *core.Asset, state *core.RewardState, position *core.Position, now time.Time) decimal.Decimal {
	s.Accrue(asset, state, now)

	return s.windowInterest(state, position, now).Add(position.CarriedInterest())
}

// SnapshotUserInterest folds the current window into the pending carry
// and re-anchors the user's interaction clock.
func (s *rewardService) SnapshotUserInterest(asset *core.Asset, state *core.RewardState, position *core.Position, now time.Time) {
	due := s.UserInterestDue(asset, state, position, now)

	position.PendingInterest = due
	position.UnpaidInterest = decimal.Zero
	position.LastInteraction = now.Unix()
}

// SettleUserInterest records the outcome of a repay: interestPaid goes
// into the monotonic paid counter, remaining stays carried as unpaid.
func (s *rewardService) SettleUserInterest(state *core.RewardState, position *core.Position, interestPaid, remaining decimal.Decimal, now time.Time) {
	state.TotalInterestPaid = state.TotalInterestPaid.Add(interestPaid)

	position.PendingInterest = decimal.Zero
	position.UnpaidInterest = number.NonNegative(remaining)
	position.LastInteraction = now.Unix()
}

// Earned streamed supply reward plus the frozen carry. Uses the stored
// supply rate: only as fresh as the last accrual.
func (s *rewardService) Earned(state *core.RewardState, account *core.RewardAccount, now time.Time) decimal.Decimal {
	var elapsed int64
	if account.LastRewardUpdate > 0 && now.Unix() > account.LastRewardUpdate {
		elapsed = now.Unix() - account.LastRewardUpdate
	}

	streamed := state.SupplyRewardPerSecond.
		Mul(decimal.NewFromInt(elapsed)).
		Mul(account.DepositNotional).
		Truncate(rates.MaxPrecision)

	return streamed.Add(account.FrozenReward)
}

// EarnedWithAccrue forces an accrual before reading the stream
func (s *rewardService) EarnedWithAccrue(asset *core.Asset, state *core.RewardState, account *core.RewardAccount, now time.Time) decimal.Decimal {
	s.Accrue(asset, state, now)
	return s.Earned(state, account, now)
}

// GetReward settles the user's streamed reward. Payouts are bounded by
// the custody account's liquid balance: a shortfall is frozen flat and
// the user's clock advances regardless, so the frozen part does not
// compound.
func (s *rewardService) GetReward(ctx context.Context, tx *db.DB, asset *core.Asset, state *core.RewardState, account *core.RewardAccount, userID string, now time.Time) (decimal.Decimal, error) {
	reward := s.EarnedWithAccrue(asset, state, account, now)

	account.LastRewardUpdate = now.Unix()
	if reward.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, nil
	}

	custody := core.RewardAccountID(asset.AssetID)
	available, err := s.tokenSrv.BalanceOf(ctx, custody, asset.AssetID)
	if err != nil {
		return decimal.Zero, err
	}

	paid := number.Min(reward, available)
	if paid.GreaterThan(decimal.Zero) {
		if err := s.tokenSrv.Transfer(ctx, tx, custody, userID, asset.AssetID, paid, "reward"); err != nil {
			return decimal.Zero, err
		}
	}

	account.FrozenReward = reward.Sub(paid)
	state.TotalRewardPaid = state.TotalRewardPaid.Add(paid)

	return paid, nil
}

// NotifyDeposit settles the pending reward, then raises the user's
// deposit notional and the tracked supply total.
func (s *rewardService) NotifyDeposit(ctx context.Context, tx *db.DB, asset *core.Asset, state *core.RewardState, account *core.RewardAccount, userID string, amount decimal.Decimal, now time.Time) error {
	s.Accrue(asset, state, now)

	if _, err := s.GetReward(ctx, tx, asset, state, account, userID, now); err != nil {
		return err
	}

	account.DepositNotional = account.DepositNotional.Add(amount)
	state.TotalSupplyTracked = state.TotalSupplyTracked.Add(amount)

	return nil
}

// NotifyWithdraw settles the pending reward, then lowers the user's
// deposit notional and the tracked supply total.
func (s *rewardService) NotifyWithdraw(ctx context.Context, tx *db.DB, asset *core.Asset, state *core.RewardState, account *core.RewardAccount, userID string, amount decimal.Decimal, now time.Time) error {
	s.Accrue(asset, state, now)

	if _, err := s.GetReward(ctx, tx, asset, state, account, userID, now); err != nil {
		return err
	}

	if account.DepositNotional.LessThan(amount) {
		return core.ErrInsufficientBalance
	}

	account.DepositNotional = account.DepositNotional.Sub(amount)
	state.TotalSupplyTracked = number.NonNegative(state.TotalSupplyTracked.Sub(amount))

	return nil
}

func (s *rewardService) inTx(fn func(tx *db.DB) error) error {
	if s.db == nil {
		return fn(nil)
	}
	return s.db.Tx(fn)
}

func (s *rewardService) windowInterest(state *core.RewardState, position *core.Position, now time.Time) decimal.Decimal {
	var elapsed int64
	if position.LastInteraction > 0 && now.Unix() > position.LastInteraction {
		elapsed = now.Unix() - position.LastInteraction
	}

	return state.InterestPerSecond.
		Mul(decimal.NewFromInt(elapsed)).
		Mul(position.Debt).
		Truncate(rates.MaxPrecision)
}

// AccrueAndSave standalone accrual entry used by the interest worker
func (s *rewardService) AccrueAndSave(ctx context.Context, assetID string, now time.Time) error {
	log := logger.FromContext(ctx).WithField("service", "reward")

	asset, err := s.assetStore.Find(ctx, assetID)
	if err != nil {
		return core.ErrAssetNotFound
	}

	state, err := s.rewardStore.FindState(ctx, assetID)
	if err != nil {
		return err
	}

	s.Accrue(asset, state, now)

	return s.inTx(func(tx *db.DB) error {
		if state.ID == 0 {
			if err := s.rewardStore.SaveState(ctx, tx, state); err != nil {
				log.WithError(err).Errorln("save reward state")
				return err
			}
			return nil
		}

		if err := s.rewardStore.UpdateState(ctx, tx, state); err != nil {
			log.WithError(err).Errorln("update reward state")
			return err
		}

		return nil
	})
}
