package config

import (
	"fmt"
	"strings"
	"time"
)

// RedisConfig is optional. Without it location samples are broadcast only
// to subscribers of this instance and OTP issuance is not rate limited.
type RedisConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// LocationChannelPrefix namespaces the pub/sub channels that carry
	// location frames between instances.
	LocationChannelPrefix string `yaml:"location_channel_prefix"`
}

func loadRedisConfig() *RedisConfig {
	return &RedisConfig{
		Enabled:               getEnvAsBool("REDIS_ENABLED", false),
		Host:                  getEnv("REDIS_HOST", "localhost"),
		Port:                  getEnvAsInt("REDIS_PORT", 6379),
		Password:              getEnv("REDIS_PASSWORD", ""),
		DB:                    getEnvAsInt("REDIS_DB", 0),
		PoolSize:              getEnvAsInt("REDIS_POOL_SIZE", 10),
		MinIdleConns:          getEnvAsInt("REDIS_MIN_IDLE_CONNS", 3),
		DialTimeout:           getEnvAsDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		ReadTimeout:           getEnvAsDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		WriteTimeout:          getEnvAsDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		LocationChannelPrefix: getEnv("REDIS_LOCATION_CHANNEL_PREFIX", "mechanic_location:"),
	}
}

func (c *RedisConfig) validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Host == "" || c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("REDIS_HOST and a valid REDIS_PORT are required when REDIS_ENABLED is set")
	}
	if c.LocationChannelPrefix == "" || strings.ContainsAny(c.LocationChannelPrefix, "*?[") {
		return fmt.Errorf("REDIS_LOCATION_CHANNEL_PREFIX must be non-empty and free of glob characters")
	}
	return nil
}
