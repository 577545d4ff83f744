package core

import (
	"context"

	"github.com/shopspring/decimal"
)

// HealthFactor risk-adjusted collateral value over borrow value.
//
// A user with no outstanding borrow value has an unconstrained position;
// that case carries no numeric score at all rather than a max sentinel.
type HealthFactor struct {
	Unconstrained bool            `json:"unconstrained"`
	Value         decimal.Decimal `json:"value"`
}

// Liquidatable a bounded health factor below 1 marks the position
func (h HealthFactor) Liquidatable() bool {
	return !h.Unconstrained && h.Value.LessThan(decimal.New(1, 0))
}

// Broken health factor below 1 blocks the acting user's operation
func (h HealthFactor) Broken() bool {
	return h.Liquidatable()
}

// LiquidationOutcome target health factors around a liquidation call
type LiquidationOutcome struct {
	SeizedAmount        decimal.Decimal `json:"seized_amount"`
	RepaidAmount        decimal.Decimal `json:"repaid_amount"`
	PaidByLiquidator    decimal.Decimal `json:"paid_by_liquidator"`
	StartingHealthFactor HealthFactor   `json:"starting_health_factor"`
	EndingHealthFactor   HealthFactor   `json:"ending_health_factor"`
}

// ILedgerService the lending engine. Every mutating operation is atomic:
// it either applies all of its effects or none of them, and operations are
// strictly serialized against each other.
type ILedgerService interface {
	Supply(ctx context.Context, userID, assetID string, amount decimal.Decimal) error
	Withdraw(ctx context.Context, userID, assetID string, amount decimal.Decimal) error
	Borrow(ctx context.Context, userID, assetID string, amount decimal.Decimal) error
	// Repay returns the interest charged in this call
	Repay(ctx context.Context, userID, assetID string, amount decimal.Decimal) (decimal.Decimal, error)
	Liquidate(ctx context.Context, liquidator, userID, repayAssetID, seizeAssetID string, amountToRepay decimal.Decimal) (*LiquidationOutcome, error)
	HealthFactor(ctx context.Context, userID string) (HealthFactor, error)
	BorrowingPowerUSD(ctx context.Context, userID string) (decimal.Decimal, error)
}
