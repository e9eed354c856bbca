package broker

import (
	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/listing-trader/pkg/errors"
)

// BinanceBrokerConfig contains credentials for the Binance futures API.
type BinanceBrokerConfig struct {
	ApiKey    string `json:"apiKey"    yaml:"api_key"    validate:"required"`
	SecretKey string `json:"secretKey" yaml:"secret_key" validate:"required"`
	// BaseURL overrides the API endpoint. Takes precedence over the testnet
	// flag when set.
	BaseURL string `json:"baseUrl" yaml:"base_url"`
}

// Validate validates the BinanceBrokerConfig struct.
func (c *BinanceBrokerConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid binance broker config", err)
	}

	return nil
}
