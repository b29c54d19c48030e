package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL     = "https://api.gopax.co.kr"
	defaultHTTPTimeout = 10 * time.Second
)

// Config : 어댑터 설정. 시작 시 한 번 만들어 각 컴포넌트에 명시적으로 전달한다.
type Config struct {
	APIKey    string `yaml:"api_key"`
	SecretKey string `yaml:"secret_key"`
	BaseURL   string `yaml:"base_url"`

	HTTPTimeoutSec int `yaml:"http_timeout_sec"`

	// 시장가 매수 시 price 인자를 요구할지 여부. 기본값 true.
	CreateMarketBuyOrderRequiresPrice *bool `yaml:"create_market_buy_order_requires_price"`
}

// Load reads the yaml file at path (missing file is fine) and then applies
// GOPAX_* environment variables on top. A .env file is honored when present.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		raw, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if v := strings.TrimSpace(os.Getenv("GOPAX_API_KEY")); v != "" {
		cfg.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("GOPAX_SECRET_KEY")); v != "" {
		cfg.SecretKey = v
	}
	if v := strings.TrimSpace(os.Getenv("GOPAX_BASE_URL")); v != "" {
		cfg.BaseURL = v
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return cfg, nil
}

func (c Config) HTTPTimeout() time.Duration {
	if c.HTTPTimeoutSec > 0 {
		return time.Duration(c.HTTPTimeoutSec) * time.Second
	}
	return defaultHTTPTimeout
}

func (c Config) MarketBuyRequiresPrice() bool {
	if c.CreateMarketBuyOrderRequiresPrice == nil {
		return true
	}
	return *c.CreateMarketBuyOrderRequiresPrice
}
