package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrMissingUsername is returned when no username was given by argument, flag or env.
var ErrMissingUsername = errors.New("no username provided")

// ClientConfig holds client connection settings.
type ClientConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	LogLevel string `mapstructure:"log_level"`
	// WriteWait bounds one socket write attempt; hitting it counts as would-block.
	WriteWait time.Duration `mapstructure:"write_wait"`
	// RetryInterval is how long the loop waits before retrying a blocked write.
	RetryInterval time.Duration `mapstructure:"retry_interval"`
}

// DefaultClient returns client defaults.
func DefaultClient() ClientConfig {
	return ClientConfig{
		Host:          "127.0.0.1",
		Port:          12345,
		LogLevel:      "warn",
		WriteWait:     50 * time.Millisecond,
		RetryInterval: 20 * time.Millisecond,
	}
}

// Address joins host and port.
func (c ClientConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// NewClientViper prepares a viper instance with client defaults and CHAT_* env lookup.
func NewClientViper() *viper.Viper {
	cfg := DefaultClient()

	v := viper.New()
	v.SetDefault("host", cfg.Host)
	v.SetDefault("port", cfg.Port)
	v.SetDefault("username", cfg.Username)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("write_wait", cfg.WriteWait)
	v.SetDefault("retry_interval", cfg.RetryInterval)

	v.SetEnvPrefix("CHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// ResolveClient builds the client config.
// Precedence: defaults < CHAT_* env < flags bound into v < positional args (host, port, username).
func ResolveClient(v *viper.Viper, args []string) (ClientConfig, error) {
	cfg := DefaultClient()
	if len(args) > 3 {
		return cfg, fmt.Errorf("too many arguments: %d", len(args))
	}

	keys := []string{"host", "port", "username"}
	for i, arg := range args {
		if arg == "" {
			continue
		}
		v.Set(keys[i], arg)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal client config: %w", err)
	}

	cfg.Host = strings.TrimSpace(cfg.Host)
	cfg.Username = strings.TrimSpace(cfg.Username)
	switch {
	case cfg.Host == "":
		return cfg, errors.New("host is empty")
	case cfg.Port <= 0 || cfg.Port > 65535:
		return cfg, fmt.Errorf("invalid port %d", cfg.Port)
	case cfg.Username == "":
		return cfg, ErrMissingUsername
	}
	return cfg, nil
}
