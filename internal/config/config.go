package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Exchange ExchangeConfig
	Pricing  PricingConfig
	Storage  StorageConfig
	Engine   EngineConfig
	Ledger   LedgerConfig
	API      APIConfig
	Runtime  RuntimeConfig
}

type ExchangeConfig struct {
	BaseUrl   string
	AccessKey string
	SecretKey string
	Market    string
	Timeout   time.Duration
	RateLimit float64
	RateBurst int
}

type PricingConfig struct {
	RateURL string
	Timeout time.Duration
}

type StorageConfig struct {
	OrderState    string
	CashBalance   string
	TradingConfig string
}

type EngineConfig struct {
	Interval              time.Duration
	PauseOnExternalCancel string
	ReconcileOnStart      bool
}

type LedgerConfig struct {
	InitialMoney float64
}

type APIConfig struct {
	Listen string
	Token  string
}

type RuntimeConfig struct {
	Log LogConfig
}

type LogConfig struct {
	Level      string
	Format     string
	File       string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

const (
	PauseGlobal = "global"
	PauseTask   = "task"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("exchange.base_url", "https://api.upbit.com")
	v.SetDefault("exchange.access_key", "${UPBIT_ACC_KEY}")
	v.SetDefault("exchange.secret_key", "${UPBIT_SEC_KEY}")
	v.SetDefault("exchange.market", "KRW-USDT")
	v.SetDefault("exchange.timeout", "10s")
	v.SetDefault("exchange.rate_limit", 8)
	v.SetDefault("exchange.rate_burst", 8)

	v.SetDefault("pricing.rate_url", "https://rate-history.vercel.app/api/rate-history")
	v.SetDefault("pricing.timeout", "10s")

	v.SetDefault("storage.order_state", "data/orderState.json")
	v.SetDefault("storage.cash_balance", "data/cashBalance.json")
	v.SetDefault("storage.trading_config", "data/config.json")

	v.SetDefault("engine.interval", "10s")
	v.SetDefault("engine.pause_on_external_cancel", PauseGlobal)
	v.SetDefault("engine.reconcile_on_start", true)

	v.SetDefault("ledger.initial_money", 0)

	v.SetDefault("api.listen", "127.0.0.1:3000")

	v.SetDefault("runtime.log.level", "info")
	v.SetDefault("runtime.log.format", "text")
	v.SetDefault("runtime.log.file", "stdout")
	v.SetDefault("runtime.log.max_size", 50)
	v.SetDefault("runtime.log.max_backups", 5)
	v.SetDefault("runtime.log.max_age", 30)
}

// Load читает конфигурацию. Пустой path означает поиск configs/config.*.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("KIMCHI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("configs")
		v.SetConfigName("config")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("Не удалось прочитать конфигурацию: %w", err)
		}
	}

	cfg := &Config{}

	cfg.Exchange = ExchangeConfig{
		BaseUrl:   v.GetString("exchange.base_url"),
		AccessKey: envSub(v, "exchange.access_key"),
		SecretKey: envSub(v, "exchange.secret_key"),
		Market:    v.GetString("exchange.market"),
		Timeout:   v.GetDuration("exchange.timeout"),
		RateLimit: v.GetFloat64("exchange.rate_limit"),
		RateBurst: v.GetInt("exchange.rate_burst"),
	}

	cfg.Pricing = PricingConfig{
		RateURL: v.GetString("pricing.rate_url"),
		Timeout: v.GetDuration("pricing.timeout"),
	}

	cfg.Storage = StorageConfig{
		OrderState:    v.GetString("storage.order_state"),
		CashBalance:   v.GetString("storage.cash_balance"),
		TradingConfig: v.GetString("storage.trading_config"),
	}

	cfg.Engine = EngineConfig{
		Interval:              v.GetDuration("engine.interval"),
		PauseOnExternalCancel: strings.ToLower(v.GetString("engine.pause_on_external_cancel")),
		ReconcileOnStart:      v.GetBool("engine.reconcile_on_start"),
	}

	cfg.Ledger = LedgerConfig{
		InitialMoney: v.GetFloat64("ledger.initial_money"),
	}

	cfg.API = APIConfig{
		Listen: v.GetString("api.listen"),
		Token:  envSub(v, "api.token"),
	}

	cfg.Runtime = RuntimeConfig{
		Log: LogConfig{
			Level:      v.GetString("runtime.log.level"),
			Format:     v.GetString("runtime.log.format"),
			File:       v.GetString("runtime.log.file"),
			MaxSize:    v.GetInt("runtime.log.max_size"),
			MaxBackups: v.GetInt("runtime.log.max_backups"),
			MaxAge:     v.GetInt("runtime.log.max_age"),
			Compress:   v.GetBool("runtime.log.compress"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Engine.Interval <= 0 {
		return fmt.Errorf("Некорректный engine.interval: %s", c.Engine.Interval)
	}
	switch c.Engine.PauseOnExternalCancel {
	case PauseGlobal, PauseTask:
	default:
		return fmt.Errorf("Некорректный engine.pause_on_external_cancel: %q", c.Engine.PauseOnExternalCancel)
	}
	if c.Exchange.Market == "" {
		return fmt.Errorf("Не задан exchange.market.")
	}
	return nil
}

var envPattern = regexp.MustCompile(`\$\{(\w+)\}`)

func envSub(v *viper.Viper, key string) string {
	val := v.GetString(key)
	if val == "" {
		return ""
	}

	return envPattern.ReplaceAllStringFunc(val, func(match string) string {
		envKey := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		return os.Getenv(envKey)
	})
}
