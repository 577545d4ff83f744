package position

import (
	"context"

	"lever/core"

	"github.com/fox-one/pkg/store"
	"github.com/fox-one/pkg/store/db"
)

type positionStore struct {
	db *db.DB
}

// New new position store
func New(db *db.DB) core.IPositionStore {
	return &positionStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.Position{})
		if err := tx.AutoMigrate(core.Position{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *positionStore) Save(ctx context.Context, tx *db.DB, position *core.Position) error {
	return tx.Update().Create(position).Error
}

// Find returns an empty position when the (user, asset) pair has never
// interacted; callers check ID == 0.
func (s *positionStore) Find(ctx context.Context, userID, assetID string) (*core.Position, error) {
	var position core.Position
	err := s.db.View().Where("user_id=? and asset_id=?", userID, assetID).First(&position).Error
	if store.IsErrNotFound(err) {
		return &core.Position{UserID: userID, AssetID: assetID}, nil
	}
	if err != nil {
		return nil, err
	}

	return &position, nil
}

func (s *positionStore) FindByUser(ctx context.Context, userID string) ([]*core.Position, error) {
	var positions []*core.Position
	if err := s.db.View().Where("user_id=?", userID).Find(&positions).Error; err != nil {
		return nil, err
	}
	return positions, nil
}

func (s *positionStore) FindByAsset(ctx context.Context, assetID string) ([]*core.Position, error) {
	var positions []*core.Position
	if err := s.db.View().Where("asset_id=?", assetID).Find(&positions).Error; err != nil {
		return nil, err
	}
	return positions, nil
}

func toUpdateParams(position *core.Position) map[string]interface{} {
	return map[string]interface{}{
		"collateral":       position.Collateral,
		"debt":             position.Debt,
		"pending_interest": position.PendingInterest,
		"unpaid_interest":  position.UnpaidInterest,
		"last_interaction": position.LastInteraction,
	}
}

func (s *positionStore) Update(ctx context.Context, tx *db.DB, position *core.Position) error {
	version := position.Version
	position.Version++

	updates := toUpdateParams(position)
	updates["version"] = position.Version

	update := tx.Update().Model(core.Position{}).
		Where("user_id=? and asset_id=? and version=?", position.UserID, position.AssetID, version).
		Updates(updates)
	if update.Error != nil {
		return update.Error
	}

	if update.RowsAffected == 0 {
		return db.ErrOptimisticLock
	}

	return nil
}

func (s *positionStore) Users(ctx context.Context) ([]string, error) {
	var users []string
	if err := s.db.View().Model(core.Position{}).Pluck("distinct(user_id)", &users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
