package trader

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/listing-trader/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like "60s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid duration %q", raw)
	}

	*d = Duration(parsed)

	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Config holds the trading parameters of the orchestrator.
type Config struct {
	// TradeAmount is the target notional in quote currency committed per
	// trade, before leverage.
	TradeAmount float64 `yaml:"trade_amount" validate:"gt=0"`
	// ProfitTargetPct is the take-profit distance in percent of fill price.
	ProfitTargetPct float64 `yaml:"profit_target_pct" validate:"gt=0"`
	// StopLossPct is the stop-loss distance in percent of fill price.
	StopLossPct float64 `yaml:"stop_loss_pct" validate:"gt=0"`
	// Leverage is the futures leverage multiplier.
	Leverage int `yaml:"leverage" validate:"gte=1"`
	// MaxHoldHours is the ceiling on position hold time before force-close.
	MaxHoldHours float64 `yaml:"max_hold_hours" validate:"gt=0"`
	// MaxRetryMinutes is the window after which a failing entry is abandoned.
	MaxRetryMinutes int `yaml:"max_retry_minutes" validate:"gte=1"`
	// QuoteAsset is the settlement asset used for balance lookups.
	QuoteAsset string `yaml:"quote_asset" validate:"required"`

	// MonitorInterval is the period of the max-hold position monitor.
	MonitorInterval Duration `yaml:"monitor_interval" validate:"gt=0"`
	// ReconcileInterval is the period of the completion reconciler.
	ReconcileInterval Duration `yaml:"reconcile_interval" validate:"gt=0"`
	// RetryInterval is the period of the retry scheduler.
	RetryInterval Duration `yaml:"retry_interval" validate:"gt=0"`
	// RequestTimeout bounds each broker API call.
	RequestTimeout Duration `yaml:"request_timeout" validate:"gt=0"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		TradeAmount:       1000,
		ProfitTargetPct:   15,
		StopLossPct:       2,
		Leverage:          3,
		MaxHoldHours:      2,
		MaxRetryMinutes:   1440,
		QuoteAsset:        "USDT",
		MonitorInterval:   Duration(60 * time.Second),
		ReconcileInterval: Duration(10 * time.Minute),
		RetryInterval:     Duration(60 * time.Second),
		RequestTimeout:    Duration(15 * time.Second),
	}
}

// LoadConfig reads a YAML config file over the defaults and validates the
// result. An empty path returns the defaults.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config file %s", path)
		}

		if err := yaml.Unmarshal(data, &config); err != nil {
			return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to parse config file %s", path)
		}
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

// Validate validates the Config struct.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid trading config", err)
	}

	return nil
}

// MaxHold returns the maximum hold time as a duration.
func (c *Config) MaxHold() time.Duration {
	return time.Duration(c.MaxHoldHours * float64(time.Hour))
}

// MaxRetryWindow returns the retry expiry window as a duration.
func (c *Config) MaxRetryWindow() time.Duration {
	return time.Duration(c.MaxRetryMinutes) * time.Minute
}
