package config

import (
	"fmt"
	"time"
)

const (
	defaultJWTSecret = "change-me-in-production"
	// OTP codes are always six digits; the customer-facing format depends on it.
	requiredOTPLength = 6
)

type SecurityConfig struct {
	JWTSecret          string        `yaml:"jwt_secret"`
	JWTIssuer          string        `yaml:"jwt_issuer"`
	OTPLength          int           `yaml:"otp_length"`
	OTPExpiry          time.Duration `yaml:"otp_expiry"`
	OTPIssueLimit      int           `yaml:"otp_issue_limit"`
	OTPIssueWindow     time.Duration `yaml:"otp_issue_window"`
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins"`
	TrustedProxies     []string      `yaml:"trusted_proxies"`
}

func loadSecurityConfig() *SecurityConfig {
	return &SecurityConfig{
		JWTSecret:          getEnv("JWT_SECRET", defaultJWTSecret),
		JWTIssuer:          getEnv("JWT_ISSUER", ""),
		OTPLength:          getEnvAsInt("OTP_LENGTH", requiredOTPLength),
		OTPExpiry:          getEnvAsDuration("OTP_EXPIRY", 5*time.Minute),
		OTPIssueLimit:      getEnvAsInt("OTP_ISSUE_LIMIT", 5),
		OTPIssueWindow:     getEnvAsDuration("OTP_ISSUE_WINDOW", time.Minute),
		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		TrustedProxies:     getEnvAsSlice("TRUSTED_PROXIES", nil),
	}
}

func (c *SecurityConfig) validate(environment string) error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if environment == "production" && c.JWTSecret == defaultJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if c.OTPLength != requiredOTPLength {
		return fmt.Errorf("OTP_LENGTH must be %d, got %d", requiredOTPLength, c.OTPLength)
	}
	if c.OTPExpiry <= 0 {
		return fmt.Errorf("OTP_EXPIRY must be positive")
	}
	if c.OTPIssueLimit <= 0 || c.OTPIssueWindow <= 0 {
		return fmt.Errorf("OTP_ISSUE_LIMIT and OTP_ISSUE_WINDOW must be positive")
	}
	return nil
}
