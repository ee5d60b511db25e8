package config

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/spf13/viper"
)

// AppConfig holds the configuration for the application.
// Tags used:
// - mapstructure: used by viper to unmarshal
// - default: default value to set if missing
// - required: if "true", error if missing
type AppConfig struct {
	// Environment specifies the runtime environment (e.g., development, production).
	Environment string `mapstructure:"APP_ENV" default:"development"`
	// LogLevel defines the logging verbosity (e.g., debug, info, error).
	LogLevel string `mapstructure:"LOG_LEVEL" default:"info"`
	// ServerPort is the port where the server will listen.
	ServerPort int `mapstructure:"SERVER_PORT" default:"8080"`

	// Zbozi holds the shop credentials for the conversion endpoint.
	Zbozi ZboziConfig `mapstructure:",squash"`

	// HTTP holds the outbound transport settings.
	HTTP HTTPConfig `mapstructure:",squash"`

	// Proxy holds the optional outbound proxy.
	Proxy ProxyConfig `mapstructure:",squash"`

	// WooCommerce holds the optional order source.
	WooCommerce WooCommerceConfig `mapstructure:",squash"`
}

// WooCommerceConfig holds the credentials for the WooCommerce Store.
// Reporting by WooCommerce order ID is enabled only when URL is set.
type WooCommerceConfig struct {
	// URL is the base URL of the WooCommerce store.
	URL string `mapstructure:"WC_URL"`
	// ConsumerKey is the public key for API access.
	ConsumerKey string `mapstructure:"WC_CONSUMER_KEY"`
	// ConsumerSecret is the secret key for API access.
	ConsumerSecret string `mapstructure:"WC_CONSUMER_SECRET"`
}

// Enabled reports whether a store is configured.
func (c WooCommerceConfig) Enabled() bool {
	return c.URL != ""
}

// ZboziConfig holds the credentials issued to the shop by Zbozi.cz.
type ZboziConfig struct {
	// ShopID is the numeric shop identifier used in the endpoint path.
	ShopID string `mapstructure:"ZBOZI_SHOP_ID" required:"true"`
	// PrivateKey is the shared secret sent with every conversion.
	PrivateKey string `mapstructure:"ZBOZI_PRIVATE_KEY" required:"true"`
	// Sandbox routes conversions to sandbox.zbozi.cz.
	Sandbox bool `mapstructure:"ZBOZI_SANDBOX" default:"false"`
}

// HTTPConfig holds outbound HTTP client settings.
type HTTPConfig struct {
	// TimeoutSeconds bounds a single conversion request.
	TimeoutSeconds int `mapstructure:"HTTP_TIMEOUT_SECONDS" default:"10"`
	// CAFile is an optional PEM bundle added to the system trust roots.
	CAFile string `mapstructure:"HTTP_CA_FILE"`
}

// Timeout returns TimeoutSeconds as a time.Duration.
func (c HTTPConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ProxyConfig holds the outbound proxy connection details.
type ProxyConfig struct {
	Enabled  bool   `mapstructure:"PROXY_ENABLED" default:"false"`
	Host     string `mapstructure:"PROXY_HOST"`
	Port     int    `mapstructure:"PROXY_PORT"`
	Username string `mapstructure:"PROXY_USERNAME"`
	Password string `mapstructure:"PROXY_PASSWORD"`
}

// Load loads configuration from .env files and environment variables.
func Load(path string) (*AppConfig, error) {
	v := viper.New()

	v.AutomaticEnv()

	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config AppConfig

	if err := processTags(v, &config); err != nil {
		return nil, err
	}

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := validateRequired(&config); err != nil {
		return nil, err
	}

	if config.WooCommerce.Enabled() && (config.WooCommerce.ConsumerKey == "" || config.WooCommerce.ConsumerSecret == "") {
		return nil, errors.New("missing required configuration: WC_CONSUMER_KEY and WC_CONSUMER_SECRET are required when WC_URL is set")
	}

	if config.HTTP.TimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid configuration: HTTP_TIMEOUT_SECONDS must be positive, got %d", config.HTTP.TimeoutSeconds)
	}

	return &config, nil
}

// processTags binds every tagged field to its env key and registers defaults.
func processTags(v *viper.Viper, config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := processTags(v, val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		key := field.Tag.Get("mapstructure")
		defaultValue := field.Tag.Get("default")

		if key != "" {
			if err := v.BindEnv(key); err != nil {
				return fmt.Errorf("failed to bind %s: %w", key, err)
			}
		}

		if key != "" && defaultValue != "" {
			v.SetDefault(key, defaultValue)
		}
	}
	return nil
}

// validateRequired checks if fields marked as required have non-zero values.
func validateRequired(config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := validateRequired(val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		if field.Tag.Get("required") == "true" && isZero(val.Field(i)) {
			return fmt.Errorf("missing required configuration: %s", field.Tag.Get("mapstructure"))
		}
	}
	return nil
}

func isZero(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return v.String() == ""
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Bool:
		return !v.Bool()
	default:
		return v.IsZero()
	}
}
