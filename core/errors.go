package core

import "strconv"

// ErrorCode int
type ErrorCode int

const (
	// ErrUnknown unknown
	ErrUnknown ErrorCode = 100000
	// ErrOperationForbidden operation forbidden
	ErrOperationForbidden ErrorCode = 100001
	// ErrInvalidParams invalid parameters
	ErrInvalidParams ErrorCode = 100002

	// ErrAssetNotFound no such asset configured
	ErrAssetNotFound ErrorCode = 100100
	// ErrInvalidAmount invalid amount
	ErrInvalidAmount ErrorCode = 100101
	// ErrInsufficientCollateral insufficient collateral
	ErrInsufficientCollateral ErrorCode = 100102
	// ErrInsufficientDebt insufficient outstanding debt
	ErrInsufficientDebt ErrorCode = 100103
	// ErrNoLiquidityAvailable pool has no free liquidity
	ErrNoLiquidityAvailable ErrorCode = 100104
	// ErrUserCannotBorrow borrow exceeds lend-factor limit or health factor
	ErrUserCannotBorrow ErrorCode = 100105
	// ErrNotBorrowed no outstanding debt on the asset
	ErrNotBorrowed ErrorCode = 100106
	// ErrCannotRepayMoreThanBorrowed repay exceeds principal plus interest due
	ErrCannotRepayMoreThanBorrowed ErrorCode = 100107
	// ErrCannotLiquidateHealthyUser target health factor is not below 1
	ErrCannotLiquidateHealthyUser ErrorCode = 100108
	// ErrHealthFactorBroken operation would leave the caller under-collateralized
	ErrHealthFactorBroken ErrorCode = 100109
	// ErrBelowMinimumLiquidity withdrawal would leave the pool below the locked floor
	ErrBelowMinimumLiquidity ErrorCode = 100110

	// ErrInvalidPrice no fresh oracle price
	ErrInvalidPrice ErrorCode = 100200
	// ErrTransferFailed underlying token transfer failed
	ErrTransferFailed ErrorCode = 100201
	// ErrMintNotAllowed claim token mint/burn caller is not the ledger
	ErrMintNotAllowed ErrorCode = 100202
	// ErrInsufficientBalance token balance too low for the transfer
	ErrInsufficientBalance ErrorCode = 100203
)

func (e ErrorCode) String() string {
	return strconv.Itoa(int(e))
}

func (e ErrorCode) Error() string {
	return e.String()
}
