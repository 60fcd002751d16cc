package domain

import (
	"github.com/holiman/uint256"
)

// DepositEntry is one lockable balance slot of a voter.
//
// AmountInitiallyLockedNative is the amount locked when the lockup last
// restarted. Withdrawals do not reduce it, so it may exceed
// AmountDepositedNative once some of it vested and was withdrawn.
type DepositEntry struct {
	Lockup                      Lockup `json:"lockup"`
	AmountDepositedNative       uint64 `json:"amount_deposited_native"`
	AmountInitiallyLockedNative uint64 `json:"amount_initially_locked_native"`
	IsActive                    bool   `json:"is_active"`
}

// NewDepositEntry returns an active, empty entry under the given lockup.
func NewDepositEntry(lockup Lockup) DepositEntry {
	return DepositEntry{
		Lockup:   lockup,
		IsActive: true,
	}
}

// Deactivate resets the entry to its zero value.
func (d *DepositEntry) Deactivate() error {
	if !d.IsActive {
		return ErrorInternalProgram
	}
	*d = DepositEntry{}
	return nil
}

// Deposit moves already vested funds out of the locked base, adds amount to
// both counters and restarts the lockup at now when it started earlier.
func (d *DepositEntry) Deposit(now int64, amount uint64) error {
	if !d.IsActive {
		return ErrorInternalProgram
	}

	vested, err := d.Vested(now)
	if err != nil {
		return err
	}
	initiallyLocked, err := checkedSub(d.AmountInitiallyLockedNative, vested)
	if err != nil {
		return err
	}
	initiallyLocked, err = checkedAdd(initiallyLocked, amount)
	if err != nil {
		return err
	}
	deposited, err := checkedAdd(d.AmountDepositedNative, amount)
	if err != nil {
		return err
	}

	lockup := d.Lockup
	if lockup.StartTs < now {
		lockup, err = NewLockup(lockup.Kind, now, now)
		if err != nil {
			return err
		}
	}

	d.AmountInitiallyLockedNative = initiallyLocked
	d.AmountDepositedNative = deposited
	d.Lockup = lockup
	return nil
}

// Withdraw takes amount out of the unlocked part of the entry.
func (d *DepositEntry) Withdraw(now int64, amount uint64) error {
	if !d.IsActive {
		return ErrorInternalProgram
	}

	unlocked, err := d.AmountUnlocked(now)
	if err != nil {
		return err
	}
	if amount > unlocked {
		return ErrorInsufficientUnlockedTokens
	}

	d.AmountDepositedNative -= amount
	return nil
}

// Vested is the part of the initially locked amount that is no longer locked.
func (d DepositEntry) Vested(now int64) (uint64, error) {
	if !d.IsActive {
		return 0, ErrorInternalProgram
	}

	if d.Lockup.Expired(now) {
		return d.AmountInitiallyLockedNative, nil
	}
	if !d.Lockup.IsVesting() {
		return 0, nil
	}

	periodCurrent := d.Lockup.PeriodCurrent(now)
	periodsTotal := d.Lockup.PeriodsTotal()
	if periodCurrent == 0 {
		return 0, nil
	}
	if periodCurrent >= periodsTotal {
		return d.AmountInitiallyLockedNative, nil
	}
	return mulDiv(d.AmountInitiallyLockedNative, periodCurrent, periodsTotal)
}

func (d DepositEntry) AmountLocked(now int64) (uint64, error) {
	vested, err := d.Vested(now)
	if err != nil {
		return 0, err
	}
	return checkedSub(d.AmountInitiallyLockedNative, vested)
}

func (d DepositEntry) AmountUnlocked(now int64) (uint64, error) {
	locked, err := d.AmountLocked(now)
	if err != nil {
		return 0, err
	}
	return checkedSub(d.AmountDepositedNative, locked)
}

// VotingPower is the baseline weight of the deposited amount plus the
// lockup bonus of the initially locked amount.
//
// A cliff lockup earns max_bonus * min(seconds_left, saturation) / saturation.
// A vesting lockup behaves like one cliff per remaining period, each holding
// an equal share of the locked amount.
func (d DepositEntry) VotingPower(cfg VotingConfig, now int64) (uint64, error) {
	if !d.IsActive {
		return 0, ErrorInternalProgram
	}

	baseline, err := cfg.BaselineVoteWeight(d.AmountDepositedNative)
	if err != nil {
		return 0, err
	}
	maxLocked, err := cfg.MaxExtraLockupVoteWeight(d.AmountInitiallyLockedNative)
	if err != nil {
		return 0, err
	}
	locked, err := d.VotingPowerLocked(now, maxLocked, cfg.LockupSaturationSecs)
	if err != nil {
		return 0, err
	}
	if locked > maxLocked {
		return 0, ErrorInternalBadLockupVoteWeight
	}

	power, err := checkedAdd(baseline, locked)
	if err != nil {
		return 0, ErrorVoterWeightOverflow
	}
	return power, nil
}

// VotingPowerLocked is the lockup bonus alone.
func (d DepositEntry) VotingPowerLocked(now int64, maxLocked uint64, saturationSecs uint64) (uint64, error) {
	if !d.IsActive {
		return 0, ErrorInternalProgram
	}

	if d.Lockup.Expired(now) || maxLocked == 0 {
		return 0, nil
	}
	if saturationSecs == 0 {
		return 0, ErrorLockupSaturationMustBePositive
	}
	if d.Lockup.IsVesting() {
		return d.votingPowerLinearVesting(now, maxLocked, saturationSecs)
	}
	return d.votingPowerCliff(now, maxLocked, saturationSecs)
}

func (d DepositEntry) votingPowerCliff(now int64, maxLocked uint64, saturationSecs uint64) (uint64, error) {
	remaining := d.Lockup.SecondsLeft(now)
	if remaining > saturationSecs {
		remaining = saturationSecs
	}
	return mulDiv(maxLocked, remaining, saturationSecs)
}

// votingPowerLinearVesting sums the cliffs in closed form. With s the seconds
// to the closest cliff and p the period length, cliff k (1-based) has
// min(s + (k-1)*p, saturation) seconds left. The first q cliffs are below
// saturation and the remaining r are saturated, so
//
//	lockup_secs = q*s + p*q*(q-1)/2 + r*saturation
//	weight      = max * lockup_secs / (periods_total * saturation)
func (d DepositEntry) votingPowerLinearVesting(now int64, maxLocked uint64, saturationSecs uint64) (uint64, error) {
	periodsLeft := d.Lockup.PeriodsLeft(now)
	periodsTotal := d.Lockup.PeriodsTotal()
	periodSecs := d.Lockup.Kind.PeriodSecs()

	if periodsLeft == 0 {
		return 0, nil
	}

	fullPeriodsSecs, err := checkedMul(periodSecs, periodsLeft-1)
	if err != nil {
		return 0, err
	}
	secsToClosestCliff, err := checkedSub(d.Lockup.SecondsLeft(now), fullPeriodsSecs)
	if err != nil {
		return 0, err
	}

	if secsToClosestCliff >= saturationSecs {
		return maxLocked, nil
	}

	denominator, err := checkedMul(periodsTotal, saturationSecs)
	if err != nil {
		return 0, err
	}

	saturationPeriods := (saturationSecs - secsToClosestCliff + periodSecs) / periodSecs
	q := saturationPeriods
	if periodsLeft < q {
		q = periodsLeft
	}
	r := periodsLeft - q

	fractional, err := checkedMul(q, secsToClosestCliff)
	if err != nil {
		return 0, err
	}
	sumFullPeriods, err := checkedMul(q, saturatingSub(q, 1))
	if err != nil {
		return 0, err
	}
	full, err := checkedMul(sumFullPeriods/2, periodSecs)
	if err != nil {
		return 0, err
	}
	saturated, err := checkedMul(r, saturationSecs)
	if err != nil {
		return 0, err
	}

	var lockupSecs uint256.Int
	lockupSecs.Add(uint256.NewInt(fractional), uint256.NewInt(full))
	lockupSecs.Add(&lockupSecs, uint256.NewInt(saturated))

	if denominator == 0 {
		return 0, ErrorArithmeticOverflow
	}
	var weight uint256.Int
	weight.MulDivOverflow(uint256.NewInt(maxLocked), &lockupSecs, uint256.NewInt(denominator))
	if !weight.IsUint64() {
		return 0, ErrorArithmeticOverflow
	}
	return weight.Uint64(), nil
}
