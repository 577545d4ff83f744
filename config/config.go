package config

import (
	"fmt"

	"lever/core"

	"github.com/asaskevich/govalidator"
	configUtil "github.com/fox-one/pkg/config"
)

// Load load config file
func Load(configFile string, config *core.Config) error {
	configUtil.AutomaticLoadEnv("LEVER")
	if err := configUtil.LoadYaml(configFile, config); err != nil {
		return err
	}

	defaultConfig(config)

	if _, err := govalidator.ValidateStruct(config); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	return nil
}

func defaultConfig(cfg *core.Config) {
	if cfg.App.Location == "" {
		cfg.App.Location = "UTC"
	}

	if cfg.App.PriceTTL <= 0 {
		cfg.App.PriceTTL = 600
	}

	if cfg.App.AccrueInterval <= 0 {
		cfg.App.AccrueInterval = 60
	}
}
