package rates

import (
	"github.com/shopspring/decimal"
)

var (
	// SecondsPerYear seconds per year
	SecondsPerYear = decimal.NewFromInt(31536000)
	// MaxPrecision max precision
	MaxPrecision int32 = 16

	one = decimal.New(1, 0)
)

// Params annualized interest-curve parameters
type Params struct {
	BaseRate        decimal.Decimal
	Multiplier      decimal.Decimal
	JumpMultiplier  decimal.Decimal
	Kink            decimal.Decimal
	MinRate         decimal.Decimal
	MaxRate         decimal.Decimal
	SmoothingFactor decimal.Decimal
}

// UtilizationRate utilization rate
// utilization_rate = total_borrow / total_liquidity, 0 if liquidity is 0
func UtilizationRate(liquidity, borrow decimal.Decimal) decimal.Decimal {
	if liquidity.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}

	return borrow.Div(liquidity).Truncate(MaxPrecision)
}

// BorrowRate annualized borrow rate for the given utilization: linear up
// to the kink, the jump multiplier beyond it, clamped into
// [min_rate, max_rate], then smoothed toward the base rate.
func BorrowRate(utilization decimal.Decimal, p Params) decimal.Decimal {
	var rate decimal.Decimal
	if p.Kink.LessThanOrEqual(decimal.Zero) || utilization.LessThan(p.Kink) {
		rate = p.BaseRate.Add(utilization.Mul(p.Multiplier))
	} else {
		excess := utilization.Sub(p.Kink)
		rate = p.BaseRate.Add(p.Kink.Mul(p.Multiplier)).Add(excess.Mul(p.JumpMultiplier))
	}

	rate = Clamp(rate, p.MinRate, p.MaxRate)

	return Smooth(rate, p.BaseRate, p.SmoothingFactor).Truncate(MaxPrecision)
}

// SupplyRate annualized supply rate before the reserve cut
// supply_rate = borrow_rate * utilization
func SupplyRate(borrowRate, utilization decimal.Decimal) decimal.Decimal {
	return borrowRate.Mul(utilization).Truncate(MaxPrecision)
}

// SupplyRateLessReserve supply rate after the protocol retains the
// reserve-factor fraction of the spread
func SupplyRateLessReserve(supplyRate, reserveFactor decimal.Decimal) decimal.Decimal {
	return supplyRate.Mul(one.Sub(reserveFactor)).Truncate(MaxPrecision)
}

// Clamp clamp rate into [min, max]
func Clamp(rate, min, max decimal.Decimal) decimal.Decimal {
	if rate.LessThan(min) {
		return min
	}
	if max.GreaterThan(decimal.Zero) && rate.GreaterThan(max) {
		return max
	}

	return rate
}

// Smooth exponential-moving-average dampening toward the base rate,
// smoothing in [0, 1]. A factor of 1 keeps the clamped rate untouched.
func Smooth(rate, baseRate, smoothing decimal.Decimal) decimal.Decimal {
	return rate.Mul(smoothing).Add(baseRate.Mul(one.Sub(smoothing)))
}

// PerSecond annual rate to per-second rate
func PerSecond(annualRate decimal.Decimal) decimal.Decimal {
	return annualRate.DivRound(SecondsPerYear, MaxPrecision+4)
}
