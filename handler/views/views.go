package views

import (
	"lever/core"

	"github.com/shopspring/decimal"
)

// Market market view
type Market struct {
	core.Asset
	Price           decimal.Decimal `json:"price"`
	UtilizationRate decimal.Decimal `json:"utilization_rate"`
	BorrowAPY       decimal.Decimal `json:"borrow_apy"`
	SupplyAPY       decimal.Decimal `json:"supply_apy"`
}

// Account user positions plus the aggregate risk numbers
type Account struct {
	UserID            string            `json:"user_id"`
	Positions         []*core.Position  `json:"positions"`
	HealthFactor      core.HealthFactor `json:"health_factor"`
	BorrowingPowerUSD decimal.Decimal   `json:"borrowing_power_usd"`
}

// Reward per-asset accrual state plus the pending window preview
type Reward struct {
	core.RewardState
	Pending *core.AccruedInterest `json:"pending"`
}
