package model

import "time"

// Shared defaults used by both the dashboard and stub binaries.
const (
	// DefaultPollInterval is the status poll cadence for the watched symbol.
	DefaultPollInterval = 1 * time.Second

	// MaxSeriesPoints caps each symbol's rolling price history.
	MaxSeriesPoints = 300

	// OTPTTL is how long a one-time login code stays valid after issuance.
	OTPTTL = 60 * time.Second

	// OTPMaxAttempts locks the code after this many failed checks.
	OTPMaxAttempts = 5

	// OTPLockDuration is how long an email stays locked out.
	OTPLockDuration = 5 * time.Minute

	// DefaultAPIBase is where the dashboard looks for the trading API.
	DefaultAPIBase = "http://127.0.0.1:8780/api"

	// DefaultStubAddr is the stub server's listen address.
	DefaultStubAddr = "127.0.0.1:8780"
)
