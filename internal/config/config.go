package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	AdminAddr         string        `mapstructure:"admin_addr" yaml:"admin_addr"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	NameMaxLen        int           `mapstructure:"name_max_len" yaml:"name_max_len"`
	LineMaxBytes      int           `mapstructure:"line_max_bytes" yaml:"line_max_bytes"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	AuditDBPath       string        `mapstructure:"audit_db_path" yaml:"audit_db_path"`
}

// Default returns configuration with reasonable starter defaults.
// The admin HTTP surface and the audit journal are off unless configured.
func Default() Config {
	return Config{
		Addr:              "0.0.0.0:12345",
		LogLevel:          "info",
		NameMaxLen:        32,
		LineMaxBytes:      4096,
		WriteTimeout:      10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
	}
}
