package utils

import "time"

// Application Constants
const (
	AppName = "MechOnGo"

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100
	MinPageSize     = 1

	// OTP
	OTPLength = 6

	// Rate Limiting
	OTPIssueRateLimitKey = "rate_limit:otp_issue"

	// Request context keys
	ContextUserIDKey    = "user_id"
	ContextUserRoleKey  = "user_role"
	ContextRequestIDKey = "request_id"

	RequestIDHeader = "X-Request-ID"

	// Location frames
	LocationTimestampFormat = time.RFC3339
)

// Response statuses
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error codes
const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeRateLimited     = "RATE_LIMITED"
	CodeInternalError   = "INTERNAL_ERROR"
)

// Error messages
const (
	ErrValidationFailed = "Validation failed"
	ErrInternalServer   = "Internal server error"
	ErrUnauthorized     = "Authentication required"
	ErrForbidden        = "Access denied"
	ErrTooManyRequests  = "Too many requests, please try again later"
	ErrInvalidID        = "Invalid identifier"
)
