package ledger

import (
	"context"
	"testing"
	"time"

	"lever/core"
	"lever/internal/rates"
	"lever/pkg/number"
	rewardservice "lever/service/reward"
	tokenservice "lever/service/token"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	t         *testing.T
	assets    *fakeAssetStore
	positions *fakePositionStore
	rewards   *fakeRewardStore
	tokens    *fakeTokenStore
	oracle    *fakeOracle
	ledger    *ledgerService
	now       time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	assets := &fakeAssetStore{assets: make(map[string]*core.Asset)}
	positions := &fakePositionStore{positions: make(map[string]*core.Position)}
	rewards := newFakeRewardStore()
	tokens := newFakeTokenStore()
	oracle := &fakeOracle{prices: make(map[string]decimal.Decimal)}

	tokenSrv := tokenservice.New(tokens, core.EngineAccountID)
	rewardSrv := rewardservice.New(nil, assets, rewards, tokenSrv)
	srv := New(nil, assets, positions, rewards, tokenSrv, rewardSrv, oracle).(*ledgerService)

	env := &testEnv{
		t:         t,
		assets:    assets,
		positions: positions,
		rewards:   rewards,
		tokens:    tokens,
		oracle:    oracle,
		ledger:    srv,
		now:       time.Unix(1700000000, 0),
	}
	srv.clock = func() time.Time { return env.now }

	return env
}

func (e *testEnv) advance(d time.Duration) {
	e.now = e.now.Add(d)
}

func (e *testEnv) addMarket(assetID, symbol, claimAssetID, price string) {
	e.assets.assets[assetID] = &core.Asset{
		ID:                   uint64(len(e.assets.assets) + 1),
		AssetID:              assetID,
		Symbol:               symbol,
		ClaimAssetID:         claimAssetID,
		LendFactor:           number.Decimal("80"),
		LiquidationThreshold: number.Decimal("90"),
		ReserveFactor:        number.Decimal("0.2"),
		BaseRate:             number.Decimal("0.02"),
		Multiplier:           number.Decimal("0.15"),
		JumpMultiplier:       number.Decimal("1.2"),
		Kink:                 number.Decimal("0.8"),
		SmoothingFactor:      number.Decimal("1"),
	}
	e.oracle.prices[assetID] = number.Decimal(price)
}

func (e *testEnv) fund(accountID, assetID, amount string) {
	e.tokens.setBalance(accountID, assetID, number.Decimal(amount))
}

func (e *testEnv) balance(accountID, assetID string) decimal.Decimal {
	balance, err := e.tokens.Find(context.Background(), accountID, assetID)
	require.NoError(e.t, err)
	return balance.Balance
}

func (e *testEnv) asset(assetID string) *core.Asset {
	asset, err := e.assets.Find(context.Background(), assetID)
	require.NoError(e.t, err)
	return asset
}

func (e *testEnv) position(userID, assetID string) *core.Position {
	position, err := e.positions.Find(context.Background(), userID, assetID)
	require.NoError(e.t, err)
	return position
}

func TestSupplyMintsClaims(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addMarket("usd", "USD", "cusd", "1")
	env.fund("alice", "usd", "1000")
	env.fund("bob", "usd", "500")

	require.NoError(t, env.ledger.Supply(ctx, "alice", "usd", number.Decimal("100")))

	assert.True(t, env.balance("alice", "usd").Equal(number.Decimal("900")))
	assert.True(t, env.balance(core.EngineAccountID, "usd").Equal(number.Decimal("100")))
	// the very first mint locks the floor in the fee sink
	assert.True(t, env.balance("alice", "cusd").Equal(number.Decimal("99.999")))
	assert.True(t, env.balance(core.FeeSinkAccountID, "cusd").Equal(MinimumLiquidity))

	asset := env.asset("usd")
	assert.True(t, asset.TotalCollateral.Equal(number.Decimal("100")))
	assert.True(t, asset.ClaimSupply.Equal(number.Decimal("100")))
	assert.True(t, env.position("alice", "usd").Collateral.Equal(number.Decimal("100")))

	// later mints follow the pool's exchange rate
	require.NoError(t, env.ledger.Supply(ctx, "bob", "usd", number.Decimal("50")))
	assert.True(t, env.balance("bob", "cusd").Equal(number.Decimal("50")))
	assert.True(t, env.asset("usd").ClaimSupply.Equal(number.Decimal("150")))

	assert.Equal(t, core.ErrInvalidAmount, env.ledger.Supply(ctx, "alice", "usd", decimal.Zero))
	assert.Equal(t, core.ErrAssetNotFound, env.ledger.Supply(ctx, "alice", "doge", number.Decimal("1")))
	assert.Equal(t, core.ErrInsufficientBalance, env.ledger.Supply(ctx, "bob", "usd", number.Decimal("10000")))
	// the failed debit never reaches the store
	assert.True(t, env.balance("bob", "usd").Equal(number.Decimal("450")))

	env.addMarket("tiny", "TINY", "ctiny", "1")
	env.fund("alice", "tiny", "1")
	assert.Equal(t, core.ErrBelowMinimumLiquidity, env.ledger.Supply(ctx, "alice", "tiny", number.Decimal("0.001")))
}

func TestWithdrawRedeemsClaims(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addMarket("usd", "USD", "cusd", "1")
	env.fund("alice", "usd", "1000")

	require.NoError(t, env.ledger.Supply(ctx, "alice", "usd", number.Decimal("100")))
	require.NoError(t, env.ledger.Withdraw(ctx, "alice", "usd", number.Decimal("40")))

	assert.True(t, env.balance("alice", "usd").Equal(number.Decimal("940")))
	assert.True(t, env.balance("alice", "cusd").Equal(number.Decimal("59.999")))

	asset := env.asset("usd")
	assert.True(t, asset.TotalCollateral.Equal(number.Decimal("60")))
	assert.True(t, asset.ClaimSupply.Equal(number.Decimal("60")))
	assert.True(t, env.position("alice", "usd").Collateral.Equal(number.Decimal("60")))

	assert.Equal(t, core.ErrInsufficientCollateral, env.ledger.Withdraw(ctx, "alice", "usd", number.Decimal("61")))
	// the locked floor can never be redeemed
	assert.Equal(t, core.ErrBelowMinimumLiquidity, env.ledger.Withdraw(ctx, "alice", "usd", number.Decimal("60")))

	require.NoError(t, env.ledger.Withdraw(ctx, "alice", "usd", number.Decimal("59.999")))
	assert.True(t, env.balance("alice", "cusd").IsZero())
	assert.True(t, env.asset("usd").ClaimSupply.Equal(MinimumLiquidity))
}

func TestBorrowAndRepay(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addMarket("usd", "USD", "cusd", "1")
	env.fund("alice", "usd", "1000")

	require.NoError(t, env.ledger.Supply(ctx, "alice", "usd", number.Decimal("100")))

	// 80% lend factor on 100 collateral caps borrowing at 80
	assert.Equal(t, core.ErrUserCannotBorrow, env.ledger.Borrow(ctx, "alice", "usd", number.Decimal("90")))

	require.NoError(t, env.ledger.Borrow(ctx, "alice", "usd", number.Decimal("70")))
	assert.True(t, env.balance("alice", "usd").Equal(number.Decimal("970")))
	assert.True(t, env.position("alice", "usd").Debt.Equal(number.Decimal("70")))
	assert.True(t, env.asset("usd").TotalDebt.Equal(number.Decimal("70")))

	assert.Equal(t, core.ErrNoLiquidityAvailable, env.ledger.Borrow(ctx, "alice", "usd", number.Decimal("40")))

	env.advance(time.Hour)

	// utilization 0.7 on this curve prices the hour at 12.5% annualized
	due := rates.PerSecond(number.Decimal("0.125")).
		Mul(decimal.NewFromInt(3600)).
		Mul(number.Decimal("70")).
		Truncate(rates.MaxPrecision)

	interest, err := env.ledger.Repay(ctx, "alice", "usd", number.Decimal("70").Add(due))
	require.NoError(t, err)
	assert.True(t, interest.Equal(due), "interest %s != %s", interest, due)

	position := env.position("alice", "usd")
	assert.True(t, position.Debt.IsZero())
	assert.True(t, position.CarriedInterest().IsZero())
	assert.True(t, env.asset("usd").TotalDebt.IsZero())
	// interest lands in the reward pot, principal back in the pool
	assert.True(t, env.balance(core.RewardAccountID("usd"), "usd").Equal(due))
	assert.True(t, env.balance(core.EngineAccountID, "usd").Equal(number.Decimal("100")))

	_, err = env.ledger.Repay(ctx, "alice", "usd", number.Decimal("1"))
	assert.Equal(t, core.ErrNotBorrowed, err)

	require.NoError(t, env.ledger.Borrow(ctx, "alice", "usd", number.Decimal("10")))
	_, err = env.ledger.Repay(ctx, "alice", "usd", number.Decimal("100"))
	assert.Equal(t, core.ErrCannotRepayMoreThanBorrowed, err)
}

func TestInterestGrowsWithTime(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addMarket("eth", "ETH", "ceth", "200")
	env.addMarket("btc", "BTC", "cbtc", "3000")
	env.fund("alice", "eth", "100")
	env.fund("bob", "btc", "100")

	require.NoError(t, env.ledger.Supply(ctx, "bob", "btc", number.Decimal("9")))
	require.NoError(t, env.ledger.Supply(ctx, "alice", "eth", number.Decimal("10")))
	require.NoError(t, env.ledger.Borrow(ctx, "alice", "btc", number.Decimal("0.2")))

	// the copy-semantics fakes make this a pure measurement
	dueNow := func() decimal.Decimal {
		asset := env.asset("btc")
		state, err := env.rewards.FindState(ctx, "btc")
		require.NoError(t, err)
		return env.ledger.rewardSrv.UserInterestDue(asset, state, env.position("alice", "btc"), env.now)
	}

	env.advance(24 * time.Hour)
	day1 := dueNow()
	assert.True(t, day1.IsPositive(), "due %s", day1)

	env.advance(24 * time.Hour)
	day2 := dueNow()
	assert.True(t, day2.GreaterThan(day1), "day1 %s day2 %s", day1, day2)
}

func TestRepayInterestFirst(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addMarket("usd", "USD", "cusd", "1")
	env.fund("alice", "usd", "1000")

	require.NoError(t, env.ledger.Supply(ctx, "alice", "usd", number.Decimal("100")))
	require.NoError(t, env.ledger.Borrow(ctx, "alice", "usd", number.Decimal("70")))

	env.advance(time.Hour)

	due := rates.PerSecond(number.Decimal("0.125")).
		Mul(decimal.NewFromInt(3600)).
		Mul(number.Decimal("70")).
		Truncate(rates.MaxPrecision)
	partial := number.Decimal("0.0005")
	require.True(t, partial.LessThan(due))

	interest, err := env.ledger.Repay(ctx, "alice", "usd", partial)
	require.NoError(t, err)

	// everything below the interest due pays interest only
	assert.True(t, interest.Equal(partial))
	position := env.position("alice", "usd")
	assert.True(t, position.Debt.Equal(number.Decimal("70")))
	assert.True(t, position.UnpaidInterest.Equal(due.Sub(partial)))
	assert.True(t, position.PendingInterest.IsZero())
	assert.True(t, env.balance(core.RewardAccountID("usd"), "usd").Equal(partial))

	// the carry clears together with the principal
	interest, err = env.ledger.Repay(ctx, "alice", "usd", number.Decimal("70").Add(due).Sub(partial))
	require.NoError(t, err)
	assert.True(t, interest.Equal(due.Sub(partial)))

	position = env.position("alice", "usd")
	assert.True(t, position.Debt.IsZero())
	assert.True(t, position.CarriedInterest().IsZero())
}

func TestLiquidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addMarket("btc", "BTC", "cbtc", "100")
	env.addMarket("usd", "USD", "cusd", "1")
	env.fund("alice", "btc", "100")
	env.fund("bob", "usd", "10000")
	env.fund("carol", "usd", "2000")

	require.NoError(t, env.ledger.Supply(ctx, "bob", "usd", number.Decimal("10000")))
	require.NoError(t, env.ledger.Supply(ctx, "alice", "btc", number.Decimal("100")))
	require.NoError(t, env.ledger.Borrow(ctx, "alice", "usd", number.Decimal("7000")))

	_, err := env.ledger.Liquidate(ctx, "carol", "alice", "usd", "btc", number.Decimal("1000"))
	assert.Equal(t, core.ErrCannotLiquidateHealthyUser, err)

	// collateral value drops below the liquidation threshold
	require.NoError(t, env.oracle.SetUnderlyingPrice(ctx, "btc", number.Decimal("60"), env.now))

	_, err = env.ledger.Liquidate(ctx, "alice", "alice", "usd", "btc", number.Decimal("1000"))
	assert.Equal(t, core.ErrOperationForbidden, err)

	_, err = env.ledger.Liquidate(ctx, "carol", "alice", "usd", "btc", number.Decimal("100000"))
	assert.Equal(t, core.ErrInsufficientDebt, err)

	_, err = env.ledger.Liquidate(ctx, "carol", "alice", "usd", "btc", number.Decimal("6500"))
	assert.Equal(t, core.ErrInsufficientCollateral, err)

	outcome, err := env.ledger.Liquidate(ctx, "carol", "alice", "usd", "btc", number.Decimal("1000"))
	require.NoError(t, err)

	seized := number.Decimal("1000").DivRound(number.Decimal("60"), rates.MaxPrecision)
	paid := number.Decimal("900")

	assert.True(t, outcome.RepaidAmount.Equal(number.Decimal("1000")))
	assert.True(t, outcome.SeizedAmount.Equal(seized), "seized %s != %s", outcome.SeizedAmount, seized)
	assert.True(t, outcome.PaidByLiquidator.Equal(paid))
	assert.True(t, outcome.StartingHealthFactor.Liquidatable())
	assert.False(t, outcome.EndingHealthFactor.Unconstrained)

	assert.True(t, env.balance("carol", "usd").Equal(number.Decimal("2000").Sub(paid)))
	assert.True(t, env.balance("carol", "btc").Equal(seized))

	assert.True(t, env.position("alice", "usd").Debt.Equal(number.Decimal("6000")))
	assert.True(t, env.position("alice", "btc").Collateral.Equal(number.Decimal("100").Sub(seized)))
	assert.True(t, env.asset("usd").TotalDebt.Equal(number.Decimal("6000")))
	assert.True(t, env.asset("btc").TotalCollateral.Equal(number.Decimal("100").Sub(seized)))
	// the target's claim tokens burn with the seized collateral
	assert.True(t, env.balance("alice", "cbtc").Equal(number.Decimal("99.999").Sub(seized)))
}

func TestHealthFactorAndBorrowingPower(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addMarket("usd", "USD", "cusd", "1")
	env.fund("alice", "usd", "1000")

	require.NoError(t, env.ledger.Supply(ctx, "alice", "usd", number.Decimal("100")))

	hf, err := env.ledger.HealthFactor(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, hf.Unconstrained)
	assert.False(t, hf.Liquidatable())

	power, err := env.ledger.BorrowingPowerUSD(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, power.Equal(number.Decimal("80")))

	require.NoError(t, env.ledger.Borrow(ctx, "alice", "usd", number.Decimal("40")))

	hf, err = env.ledger.HealthFactor(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, hf.Unconstrained)
	// 100 collateral at a 90% threshold over 40 borrowed
	assert.True(t, hf.Value.Equal(number.Decimal("2.25")), "hf %s", hf.Value)

	power, err = env.ledger.BorrowingPowerUSD(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, power.Equal(number.Decimal("40")))
}

func TestWithdrawHealthFactorGuard(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addMarket("usd", "USD", "cusd", "1")
	env.fund("alice", "usd", "1000")

	require.NoError(t, env.ledger.Supply(ctx, "alice", "usd", number.Decimal("100")))
	require.NoError(t, env.ledger.Borrow(ctx, "alice", "usd", number.Decimal("70")))

	// 70 collateral at a 90% threshold cannot carry 70 of debt
	err := env.ledger.Withdraw(ctx, "alice", "usd", number.Decimal("30"))
	assert.Equal(t, core.ErrHealthFactorBroken, err)
}

func TestPoolSolvency(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addMarket("usd", "USD", "cusd", "1")
	env.fund("alice", "usd", "1000")
	env.fund("bob", "usd", "500")

	check := func() {
		asset := env.asset("usd")
		engine := env.balance(core.EngineAccountID, "usd")
		require.True(t, engine.Equal(asset.Liquidity()), "engine %s != liquidity %s", engine, asset.Liquidity())
	}

	require.NoError(t, env.ledger.Supply(ctx, "alice", "usd", number.Decimal("100")))
	check()
	require.NoError(t, env.ledger.Supply(ctx, "bob", "usd", number.Decimal("50")))
	check()
	require.NoError(t, env.ledger.Borrow(ctx, "alice", "usd", number.Decimal("70")))
	check()

	env.advance(time.Hour)
	_, err := env.ledger.Repay(ctx, "alice", "usd", number.Decimal("30"))
	require.NoError(t, err)
	check()

	require.NoError(t, env.ledger.Withdraw(ctx, "bob", "usd", number.Decimal("20")))
	check()
}
