package constants

import "errors"

// Configuration errors.
var (
	ErrAuthURLRequired   = errors.New("auth URL is required")
	ErrNoCredentials     = errors.New("no credentials configured")
	ErrInsecureOnlyInDev = errors.New("insecure TLS is only allowed in development environments (set OSTACK_DEV_MODE=true)")
)

// Authentication errors.
var (
	ErrNoSubjectToken      = errors.New("keystone response carries no X-Subject-Token header")
	ErrAuthenticationFail  = errors.New("authentication failed")
	ErrTokenCannotRefresh  = errors.New("static token cannot be refreshed")
	ErrNoCatalogInResponse = errors.New("token response carries no service catalog")
)

// Transfer errors.
var (
	ErrChecksumMismatch = errors.New("checksum mismatch")
)
