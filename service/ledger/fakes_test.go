package ledger

import (
	"context"
	"time"

	"lever/core"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

// the store fakes hand out copies and only absorb writes on Save/Update,
// so a failed operation leaves them untouched the way a rolled-back
// transaction would

type fakeAssetStore struct {
	assets map[string]*core.Asset
}

func cloneAsset(a *core.Asset) *core.Asset {
	c := *a
	return &c
}

func (s *fakeAssetStore) Save(ctx context.Context, tx *db.DB, asset *core.Asset) error {
	s.assets[asset.AssetID] = cloneAsset(asset)
	return nil
}

func (s *fakeAssetStore) Find(ctx context.Context, assetID string) (*core.Asset, error) {
	asset, ok := s.assets[assetID]
	if !ok {
		return nil, core.ErrAssetNotFound
	}
	return cloneAsset(asset), nil
}

func (s *fakeAssetStore) FindBySymbol(ctx context.Context, symbol string) (*core.Asset, error) {
	for _, asset := range s.assets {
		if asset.Symbol == symbol {
			return cloneAsset(asset), nil
		}
	}
	return nil, core.ErrAssetNotFound
}

func (s *fakeAssetStore) All(ctx context.Context) ([]*core.Asset, error) {
	var assets []*core.Asset
	for _, asset := range s.assets {
		assets = append(assets, cloneAsset(asset))
	}
	return assets, nil
}

func (s *fakeAssetStore) AllAsMap(ctx context.Context) (map[string]*core.Asset, error) {
	assets := make(map[string]*core.Asset, len(s.assets))
	for id, asset := range s.assets {
		assets[id] = cloneAsset(asset)
	}
	return assets, nil
}

func (s *fakeAssetStore) Update(ctx context.Context, tx *db.DB, asset *core.Asset) error {
	s.assets[asset.AssetID] = cloneAsset(asset)
	return nil
}

type fakePositionStore struct {
	nextID    uint64
	positions map[string]*core.Position
}

func clonePosition(p *core.Position) *core.Position {
	c := *p
	return &c
}

func (s *fakePositionStore) key(userID, assetID string) string {
	return userID + "/" + assetID
}

func (s *fakePositionStore) Save(ctx context.Context, tx *db.DB, position *core.Position) error {
	s.nextID++
	position.ID = s.nextID
	s.positions[s.key(position.UserID, position.AssetID)] = clonePosition(position)
	return nil
}

func (s *fakePositionStore) Find(ctx context.Context, userID, assetID string) (*core.Position, error) {
	if position, ok := s.positions[s.key(userID, assetID)]; ok {
		return clonePosition(position), nil
	}
	return &core.Position{UserID: userID, AssetID: assetID}, nil
}

func (s *fakePositionStore) FindByUser(ctx context.Context, userID string) ([]*core.Position, error) {
	var positions []*core.Position
	for _, position := range s.positions {
		if position.UserID == userID {
			positions = append(positions, clonePosition(position))
		}
	}
	return positions, nil
}

func (s *fakePositionStore) FindByAsset(ctx context.Context, assetID string) ([]*core.Position, error) {
	var positions []*core.Position
	for _, position := range s.positions {
		if position.AssetID == assetID {
			positions = append(positions, clonePosition(position))
		}
	}
	return positions, nil
}

func (s *fakePositionStore) Update(ctx context.Context, tx *db.DB, position *core.Position) error {
	s.positions[s.key(position.UserID, position.AssetID)] = clonePosition(position)
	return nil
}

func (s *fakePositionStore) Users(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var users []string
	for _, position := range s.positions {
		if !seen[position.UserID] {
			seen[position.UserID] = true
			users = append(users, position.UserID)
		}
	}
	return users, nil
}

type fakeRewardStore struct {
	nextID   uint64
	states   map[string]*core.RewardState
	accounts map[string]*core.RewardAccount
}

func newFakeRewardStore() *fakeRewardStore {
	return &fakeRewardStore{
		states:   make(map[string]*core.RewardState),
		accounts: make(map[string]*core.RewardAccount),
	}
}

func (s *fakeRewardStore) SaveState(ctx context.Context, tx *db.DB, state *core.RewardState) error {
	s.nextID++
	state.ID = s.nextID
	c := *state
	s.states[state.AssetID] = &c
	return nil
}

func (s *fakeRewardStore) FindState(ctx context.Context, assetID string) (*core.RewardState, error) {
	if state, ok := s.states[assetID]; ok {
		c := *state
		return &c, nil
	}
	return &core.RewardState{AssetID: assetID}, nil
}

func (s *fakeRewardStore) UpdateState(ctx context.Context, tx *db.DB, state *core.RewardState) error {
	c := *state
	s.states[state.AssetID] = &c
	return nil
}

func (s *fakeRewardStore) SaveAccount(ctx context.Context, tx *db.DB, account *core.RewardAccount) error {
	s.nextID++
	account.ID = s.nextID
	c := *account
	s.accounts[account.UserID+"/"+account.AssetID] = &c
	return nil
}

func (s *fakeRewardStore) FindAccount(ctx context.Context, userID, assetID string) (*core.RewardAccount, error) {
	if account, ok := s.accounts[userID+"/"+assetID]; ok {
		c := *account
		return &c, nil
	}
	return &core.RewardAccount{UserID: userID, AssetID: assetID}, nil
}

func (s *fakeRewardStore) FindAccountsByAsset(ctx context.Context, assetID string) ([]*core.RewardAccount, error) {
	var accounts []*core.RewardAccount
	for _, account := range s.accounts {
		if account.AssetID == assetID {
			c := *account
			accounts = append(accounts, &c)
		}
	}
	return accounts, nil
}

func (s *fakeRewardStore) UpdateAccount(ctx context.Context, tx *db.DB, account *core.RewardAccount) error {
	c := *account
	s.accounts[account.UserID+"/"+account.AssetID] = &c
	return nil
}

type fakeTokenStore struct {
	nextID    uint64
	balances  map[string]*core.TokenBalance
	transfers []*core.Transfer
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{balances: make(map[string]*core.TokenBalance)}
}

func (s *fakeTokenStore) key(accountID, assetID string) string {
	return accountID + "/" + assetID
}

func cloneBalance(b *core.TokenBalance) *core.TokenBalance {
	c := *b
	return &c
}

func (s *fakeTokenStore) Find(ctx context.Context, accountID, assetID string) (*core.TokenBalance, error) {
	if balance, ok := s.balances[s.key(accountID, assetID)]; ok {
		return cloneBalance(balance), nil
	}
	return &core.TokenBalance{AccountID: accountID, AssetID: assetID}, nil
}

func (s *fakeTokenStore) Save(ctx context.Context, tx *db.DB, balance *core.TokenBalance) error {
	s.nextID++
	balance.ID = s.nextID
	s.balances[s.key(balance.AccountID, balance.AssetID)] = cloneBalance(balance)
	return nil
}

func (s *fakeTokenStore) Update(ctx context.Context, tx *db.DB, balance *core.TokenBalance) error {
	s.balances[s.key(balance.AccountID, balance.AssetID)] = cloneBalance(balance)
	return nil
}

func (s *fakeTokenStore) CreateTransfer(ctx context.Context, tx *db.DB, transfer *core.Transfer) error {
	s.transfers = append(s.transfers, transfer)
	return nil
}

func (s *fakeTokenStore) ListTransfers(ctx context.Context, accountID string, limit int) ([]*core.Transfer, error) {
	var out []*core.Transfer
	for _, t := range s.transfers {
		if t.AccountID == accountID || t.OpponentID == accountID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *fakeTokenStore) setBalance(accountID, assetID string, amount decimal.Decimal) {
	s.nextID++
	s.balances[s.key(accountID, assetID)] = &core.TokenBalance{
		ID:        s.nextID,
		AccountID: accountID,
		AssetID:   assetID,
		Balance:   amount,
	}
}

type fakeOracle struct {
	prices map[string]decimal.Decimal
}

func (s *fakeOracle) GetUnderlyingPrice(ctx context.Context, assetID string, at time.Time) (decimal.Decimal, error) {
	price, ok := s.prices[assetID]
	if !ok {
		return decimal.Zero, core.ErrInvalidPrice
	}
	return price, nil
}

func (s *fakeOracle) PullPriceTicker(ctx context.Context, assetID string, at time.Time) (*core.Price, error) {
	price, err := s.GetUnderlyingPrice(ctx, assetID, at)
	if err != nil {
		return nil, err
	}
	return &core.Price{AssetID: assetID, Price: price, UpdatedAt: at}, nil
}

func (s *fakeOracle) SetUnderlyingPrice(ctx context.Context, assetID string, price decimal.Decimal, at time.Time) error {
	s.prices[assetID] = price
	return nil
}
