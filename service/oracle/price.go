package oracle

import (
	"context"
	"fmt"
	"time"

	"lever/core"

	"github.com/bluele/gcache"
	"github.com/fox-one/pkg/store/db"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

type priceService struct {
	config     *core.Config
	db         *db.DB
	priceStore core.IPriceStore
	cache      gcache.Cache
	client     *resty.Client
}

// New new price oracle service
func New(cfg *core.Config, database *db.DB, priceStore core.IPriceStore) core.IPriceOracleService {
	return &priceService{
		config:     cfg,
		db:         database,
		priceStore: priceStore,
		cache:      gcache.New(256).LRU().Build(),
		client: resty.New().
			SetHeader("Content-Type", "application/json").
			SetTimeout(10 * time.Second),
	}
}

// GetUnderlyingPrice latest stored USD price, rejected once older than the
// configured ttl relative to at.
func (s *priceService) GetUnderlyingPrice(ctx context.Context, assetID string, at time.Time) (decimal.Decimal, error) {
	if v, err := s.cache.Get(assetID); err == nil {
		if p, ok := v.(*core.Price); ok && s.fresh(p, at) {
			return p.Price, nil
		}
	}

	price, err := s.priceStore.Find(ctx, assetID)
	if err != nil {
		return decimal.Zero, core.ErrInvalidPrice
	}

	if price.Price.LessThanOrEqual(decimal.Zero) || !s.fresh(price, at) {
		return decimal.Zero, core.ErrInvalidPrice
	}

	_ = s.cache.SetWithExpire(assetID, price, time.Duration(s.ttl())*time.Second)

	return price.Price, nil
}

// PullPriceTicker fetch a spot price from the configured endpoint
func (s *priceService) PullPriceTicker(ctx context.Context, assetID string, at time.Time) (*core.Price, error) {
	var body struct {
		Price decimal.Decimal `json:"price"`
	}

	url := fmt.Sprintf("%s/prices/%s", s.config.PriceOracle.EndPoint, assetID)
	resp, err := s.client.R().SetContext(ctx).SetResult(&body).Get(url)
	if err != nil {
		return nil, err
	}

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("pull price ticker: %s", resp.Status())
	}

	return &core.Price{
		AssetID:   assetID,
		Price:     body.Price,
		UpdatedAt: at,
	}, nil
}

func (s *priceService) SetUnderlyingPrice(ctx context.Context, assetID string, price decimal.Decimal, at time.Time) error {
	if price.LessThanOrEqual(decimal.Zero) {
		return core.ErrInvalidPrice
	}

	record := &core.Price{
		AssetID:   assetID,
		Price:     price,
		UpdatedAt: at,
	}

	if err := s.priceStore.Save(ctx, s.db, record); err != nil {
		return err
	}

	s.cache.Remove(assetID)
	return nil
}

func (s *priceService) fresh(p *core.Price, at time.Time) bool {
	return at.Sub(p.UpdatedAt) <= time.Duration(s.ttl())*time.Second
}

func (s *priceService) ttl() int64 {
	if s.config.App.PriceTTL > 0 {
		return s.config.App.PriceTTL
	}

	return 600
}
