package domain

import (
	"errors"
	"fmt"
)

// ErrorCategory groups registry errors by how a caller is expected to react.
type ErrorCategory string

const (
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryState         ErrorCategory = "state"
	CategoryArithmetic    ErrorCategory = "arithmetic"
	CategoryPrecondition  ErrorCategory = "precondition"
	CategoryUnknown       ErrorCategory = "unknown"
)

// Error is a registry failure with a stable numeric code.
type Error struct {
	Code     int
	Name     string
	Category ErrorCategory
	Message  string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%v (%v)", e.Name, e.Code)
	}
	return fmt.Sprintf("%v (%v): %v", e.Name, e.Code, e.Message)
}

// Is matches errors by code, so wrapped copies still compare equal to the sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func newError(code int, name string, category ErrorCategory, message string) *Error {
	return &Error{Code: code, Name: name, Category: category, Message: message}
}

var (
	ErrorInvalidVotingMint                 = newError(6002, "InvalidVotingMint", CategoryPrecondition, "governing token mint does not match the registrar")
	ErrorOutOfBoundsDepositEntryIndex      = newError(6006, "OutOfBoundsDepositEntryIndex", CategoryState, "deposit entry index is out of bounds")
	ErrorInsufficientUnlockedTokens        = newError(6008, "InsufficientUnlockedTokens", CategoryState, "amount exceeds unlocked tokens")
	ErrorInvalidLockupPeriod               = newError(6010, "InvalidLockupPeriod", CategoryConfiguration, "lockup period exceeds the maximum")
	ErrorVoterWeightOverflow               = newError(6026, "VoterWeightOverflow", CategoryArithmetic, "vote weight does not fit 64 bits")
	ErrorLockupSaturationMustBePositive    = newError(6027, "LockupSaturationMustBePositive", CategoryConfiguration, "lockup saturation must be positive")
	ErrorInternalProgram                   = newError(6029, "InternalProgramError", CategoryState, "deposit entry is in the wrong state")
	ErrorInsufficientLockedTokens          = newError(6030, "InsufficientLockedTokens", CategoryState, "amount exceeds locked tokens")
	ErrorInternalBadLockupVoteWeight       = newError(6034, "InternalErrorBadLockupVoteWeight", CategoryArithmetic, "locked vote weight exceeds its maximum")
	ErrorDepositStartTooFarInFuture        = newError(6035, "DepositStartTooFarInFuture", CategoryConfiguration, "lockup start is too far in the future")
	ErrorNodeDepositReservedEntryIndex     = newError(6038, "NodeDepositReservedEntryIndex", CategoryState, "deposit entry index is reserved for the primary deposit")
	ErrorInactiveDepositEntry              = newError(6039, "InactiveDepositEntry", CategoryState, "deposit entry is inactive")
	ErrorNotOrdinaryDepositEntry           = newError(6040, "NotOrdinaryDepositEntry", CategoryState, "deposit entry is not an ordinary constant deposit")
	ErrorNodeDepositUnreleasableAtPresent  = newError(6042, "NodeDepositUnreleasableAtPresent", CategoryState, "primary deposit is still locked")
	ErrorZeroDepositAmount                 = newError(6044, "ZeroDepositAmount", CategoryConfiguration, "amount must be positive")
	ErrorNodeSecurityDepositMustBePositive = newError(6045, "NodeSecurityDepositMustBePositive", CategoryConfiguration, "primary deposit amount must be positive")
	ErrorDuplicateNodeDeposit              = newError(6046, "DuplicateNodeDeposit", CategoryState, "primary deposit is already active")
	ErrorActiveDepositEntryIndex           = newError(6047, "ActiveDepositEntryIndex", CategoryState, "target deposit entry is already active")
	ErrorInvalidLockupDuration             = newError(6048, "InvalidLockupDuration", CategoryConfiguration, "lockup duration is shorter than the minimum")
	ErrorCanNotShortenLockupDuration       = newError(6049, "CanNotShortenLockupDuration", CategoryState, "lockup duration can not be shortened")
	ErrorGoverningTokenNonZero             = newError(6050, "GoverningTokenNonZero", CategoryState, "voter still holds deposits or claimable rewards")
	ErrorArithmeticOverflow                = newError(6051, "ArithmeticOverflow", CategoryArithmetic, "checked arithmetic overflowed")
	ErrorRewardAccrualOutOfOrder           = newError(6052, "RewardAccrualOutOfOrder", CategoryPrecondition, "registrar rewards are not accrued for this timestamp")
	ErrorInsufficientClaimableReward       = newError(6053, "InsufficientClaimableReward", CategoryState, "amount exceeds claimable reward")
)

// CategoryOf reports the category of a registry error anywhere in err's chain.
func CategoryOf(err error) ErrorCategory {
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}
	return CategoryUnknown
}
