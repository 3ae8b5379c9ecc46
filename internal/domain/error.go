package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrOperationFailed    = errors.New("database operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")

	// Recurring billing business-rule violations. These stop processing for
	// one subscription cleanly and are never escalated to the scheduler.
	ErrRecurringNotActive       = errors.New("recurring subscription is not active")
	ErrNoRecurringSubscription  = errors.New("user does not have a recurring subscription")
	ErrMissingInstrument        = errors.New("missing payment instrument")
	ErrInstrumentNotActive      = errors.New("payment instrument is not active")
	ErrChargeNotDue             = errors.New("next charge date is unset or in the future")
	ErrAlreadyChargedThisCycle  = errors.New("last successful charge already covers this cycle")
	ErrTooManyChargeAttempts    = errors.New("too many charge attempts")
	ErrPaymentAlreadyExists     = errors.New("successful payment already exists for this cycle")
	ErrUnsupportedProvider      = errors.New("unsupported payment provider")
	ErrActiveSubscriptionExists = errors.New("user already has an active subscription")
)

// IsBusinessViolation reports whether err is an expected billing precondition
// failure rather than an infrastructure problem.
func IsBusinessViolation(err error) bool {
	for _, e := range []error{
		ErrRecurringNotActive,
		ErrNoRecurringSubscription,
		ErrMissingInstrument,
		ErrInstrumentNotActive,
		ErrChargeNotDue,
		ErrAlreadyChargedThisCycle,
		ErrTooManyChargeAttempts,
		ErrPaymentAlreadyExists,
		ErrActiveSubscriptionExists,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
