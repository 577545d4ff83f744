package core

import (
	"github.com/fox-one/pkg/store/db"
)

// Config lever config
type Config struct {
	App         App         `json:"app"`
	DB          db.Config   `json:"db"`
	PriceOracle PriceOracle `json:"price_oracle"`
	Admins      []string    `json:"admins"`
}

// IsAdmin check if the user is admin
func (c *Config) IsAdmin(userID string) bool {
	for _, a := range c.Admins {
		if a == userID {
			return true
		}
	}

	return false
}

// App app config
type App struct {
	Location string `json:"location"`
	// seconds a stored oracle price stays usable
	PriceTTL int64 `json:"price_ttl" valid:"range(1|86400)"`
	// accrual worker tick interval in seconds
	AccrueInterval int64 `json:"accrue_interval"`
}

// PriceOracle price oracle config
type PriceOracle struct {
	EndPoint string `json:"end_point"`
}
