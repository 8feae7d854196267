package config

import (
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

type Config struct {
	BotToken        string `envconfig:"BOT_TOKEN"`
	ProductsChannel string `envconfig:"PRODUCTS_CHANNEL" default:"@ShopProducts"`
	OrdersChannel   string `envconfig:"ORDERS_CHANNEL" default:"@ShopOrders"`
	Currency        string `envconfig:"CURRENCY" default:"руб."`

	DataDir      string `envconfig:"DATA_DIR" default:"."`
	ProductsFile string `envconfig:"PRODUCTS_FILE" default:"products.json"`
	AdminsFile   string `envconfig:"ADMINS_FILE" default:"admins.json"`
	SequenceFile string `envconfig:"SEQUENCE_FILE" default:"sequence.json"`
	DefaultAdmin string `envconfig:"DEFAULT_ADMIN" default:"@Grigorii_Ilonovich"`

	Port             int    `envconfig:"PORT" default:"10000"`
	ExternalHostname string `envconfig:"RENDER_EXTERNAL_HOSTNAME"`
	WebhookPath      string `envconfig:"WEBHOOK_PATH" default:"/webhook"`
	Workers          int    `envconfig:"WORKERS" default:"4"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile  string `envconfig:"LOG_FILE"`
}

func Load() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, errors.Wrap(err, "read environment")
	}
	return &c, nil
}

// RequireToken fails when no bot token is configured; offline commands skip it.
func (c *Config) RequireToken() error {
	if c.BotToken == "" {
		return errors.New("BOT_TOKEN is not set")
	}
	return nil
}

func (c *Config) ProductsPath() string {
	return c.resolve(c.ProductsFile)
}

func (c *Config) AdminsPath() string {
	return c.resolve(c.AdminsFile)
}

func (c *Config) SequencePath() string {
	return c.resolve(c.SequenceFile)
}

// WebhookURL is the public URL Telegram posts updates to, empty without a hostname.
func (c *Config) WebhookURL() string {
	if c.ExternalHostname == "" {
		return ""
	}
	return "https://" + c.ExternalHostname + c.WebhookPath
}

func (c *Config) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}
