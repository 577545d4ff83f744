package core

import (
	"context"
	"time"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

// custody account ids. Underlying assets and claim tokens both move
// between plain account ids; the engine and the per-asset reward pots are
// just well-known accounts.
const (
	EngineAccountID  = "engine"
	FeeSinkAccountID = "fee-sink"
)

// RewardAccountID custody account of an asset's reward manager
func RewardAccountID(assetID string) string {
	return "reward:" + assetID
}

// TokenBalance account balance of one token
type TokenBalance struct {
	ID        uint64          `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	AccountID string          `sql:"size:64;unique_index:token_balance_idx" json:"account_id"`
	AssetID   string          `sql:"size:36;unique_index:token_balance_idx" json:"asset_id"`
	Balance   decimal.Decimal `sql:"type:decimal(32,16)" json:"balance"`
	Version   int64           `sql:"default:0" json:"version"`
	CreatedAt time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// Transfer journal entry for every token movement
type Transfer struct {
	ID         uint64          `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	TraceID    string          `sql:"size:36;unique_index:transfer_trace_idx" json:"trace_id"`
	AccountID  string          `sql:"size:64;index:transfer_account_idx" json:"account_id"`
	OpponentID string          `sql:"size:64" json:"opponent_id"`
	AssetID    string          `sql:"size:36" json:"asset_id"`
	Amount     decimal.Decimal `sql:"type:decimal(32,16)" json:"amount"`
	Memo       string          `sql:"size:128" json:"memo"`
	CreatedAt  time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

// ITokenStore token balance store interface
type ITokenStore interface {
	Find(ctx context.Context, accountID, assetID string) (*TokenBalance, error)
	Save(ctx context.Context, tx *db.DB, balance *TokenBalance) error
	Update(ctx context.Context, tx *db.DB, balance *TokenBalance) error
	CreateTransfer(ctx context.Context, tx *db.DB, transfer *Transfer) error
	ListTransfers(ctx context.Context, accountID string, limit int) ([]*Transfer, error)
}

// ITokenService fungible token capability for underlying assets and claim
// tokens. Mint and Burn are restricted to the ledger authority account;
// any failure aborts the calling ledger operation.
type ITokenService interface {
	Transfer(ctx context.Context, tx *db.DB, from, to, assetID string, amount decimal.Decimal, memo string) error
	Mint(ctx context.Context, tx *db.DB, caller, to, assetID string, amount decimal.Decimal, memo string) error
	Burn(ctx context.Context, tx *db.DB, caller, from, assetID string, amount decimal.Decimal, memo string) error
	BalanceOf(ctx context.Context, accountID, assetID string) (decimal.Decimal, error)
}
