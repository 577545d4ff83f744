package token

import (
	"context"
	"time"

	"lever/core"
	"lever/pkg/id"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

type tokenService struct {
	tokenStore core.ITokenStore
	// the only account allowed to mint and burn claim tokens
	authority string
}

// New new token service. authority is the ledger's custody account.
func New(tokenStore core.ITokenStore, authority string) core.ITokenService {
	return &tokenService{
		tokenStore: tokenStore,
		authority:  authority,
	}
}

func (s *tokenService) Transfer(ctx context.Context, tx *db.DB, from, to, assetID string, amount decimal.Decimal, memo string) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return core.ErrInvalidAmount
	}

	if err := s.debit(ctx, tx, from, assetID, amount); err != nil {
		return err
	}

	if err := s.credit(ctx, tx, to, assetID, amount); err != nil {
		return err
	}

	return s.journal(ctx, tx, from, to, assetID, amount, memo)
}

func (s *tokenService) Mint(ctx context.Context, tx *db.DB, caller, to, assetID string, amount decimal.Decimal, memo string) error {
	if caller != s.authority {
		return core.ErrMintNotAllowed
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return core.ErrInvalidAmount
	}

	if err := s.credit(ctx, tx, to, assetID, amount); err != nil {
		return err
	}

	return s.journal(ctx, tx, "", to, assetID, amount, memo)
}

func (s *tokenService) Burn(ctx context.Context, tx *db.DB, caller, from, assetID string, amount decimal.Decimal, memo string) error {
	if caller != s.authority {
		return core.ErrMintNotAllowed
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return core.ErrInvalidAmount
	}

	if err := s.debit(ctx, tx, from, assetID, amount); err != nil {
		return err
	}

	return s.journal(ctx, tx, from, "", assetID, amount, memo)
}

func (s *tokenService) BalanceOf(ctx context.Context, accountID, assetID string) (decimal.Decimal, error) {
	balance, err := s.tokenStore.Find(ctx, accountID, assetID)
	if err != nil {
		return decimal.Zero, err
	}

	return balance.Balance, nil
}

func (s *tokenService) debit(ctx context.Context, tx *db.DB, accountID, assetID string, amount decimal.Decimal) error {
	balance, err := s.tokenStore.Find(ctx, accountID, assetID)
	if err != nil {
		return err
	}

	if balance.Balance.LessThan(amount) {
		return core.ErrInsufficientBalance
	}

	balance.Balance = balance.Balance.Sub(amount)
	return s.tokenStore.Update(ctx, tx, balance)
}

func (s *tokenService) credit(ctx context.Context, tx *db.DB, accountID, assetID string, amount decimal.Decimal) error {
	balance, err := s.tokenStore.Find(ctx, accountID, assetID)
	if err != nil {
		return err
	}

	balance.Balance = balance.Balance.Add(amount)
	if balance.ID == 0 {
		return s.tokenStore.Save(ctx, tx, balance)
	}

	return s.tokenStore.Update(ctx, tx, balance)
}

func (s *tokenService) journal(ctx context.Context, tx *db.DB, from, to, assetID string, amount decimal.Decimal, memo string) error {
	return s.tokenStore.CreateTransfer(ctx, tx, &core.Transfer{
		TraceID:    id.GenTraceID(),
		AccountID:  from,
		OpponentID: to,
		AssetID:    assetID,
		Amount:     amount,
		Memo:       memo,
		CreatedAt:  time.Now(),
	})
}
