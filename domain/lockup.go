package domain

import (
	"fmt"
	"math"
	"strings"
)

const (
	SecsPerDay   uint64 = 86_400
	SecsPerMonth uint64 = 365 * SecsPerDay / 12

	// MaxLockupPeriods is 200 years of daily periods.
	MaxLockupPeriods uint64 = 365 * 200

	MaxLockupInFutureSecs int64 = 100 * 365 * 24 * 60 * 60
)

type LockupTimeUnit uint8

const (
	LockupTimeUnitDay LockupTimeUnit = iota
	LockupTimeUnitMonth
)

func (u LockupTimeUnit) Seconds() uint64 {
	if u == LockupTimeUnitMonth {
		return SecsPerMonth
	}
	return SecsPerDay
}

func (u LockupTimeUnit) String() string {
	if u == LockupTimeUnitMonth {
		return "month"
	}
	return "day"
}

func (u LockupTimeUnit) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

func (u *LockupTimeUnit) UnmarshalText(text []byte) error {
	parsed, err := ParseLockupTimeUnit(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

func ParseLockupTimeUnit(s string) (LockupTimeUnit, error) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "day", "days", "d":
		return LockupTimeUnitDay, nil
	case "month", "months", "m":
		return LockupTimeUnitMonth, nil
	}
	return LockupTimeUnitDay, fmt.Errorf("unknown lockup time unit '%v'", s)
}

type LockupTimeDuration struct {
	Periods uint64         `json:"periods" yaml:"periods"`
	Unit    LockupTimeUnit `json:"unit" yaml:"unit"`
}

// Seconds is the checked product of periods and the unit length.
func (d LockupTimeDuration) Seconds() (uint64, error) {
	return checkedMul(d.Periods, d.Unit.Seconds())
}

func (d LockupTimeDuration) String() string {
	return fmt.Sprintf("%v %v(s)", d.Periods, d.Unit)
}

type LockupKindType uint8

// The zero LockupKind is Constant with a zero day duration, which is also the default lockup.
const (
	LockupKindConstant LockupKindType = iota
	LockupKindDaily
	LockupKindMonthly
)

var lockupKindNames = map[LockupKindType]string{
	LockupKindConstant: "constant",
	LockupKindDaily:    "daily",
	LockupKindMonthly:  "monthly",
}

func (t LockupKindType) String() string {
	return lockupKindNames[t]
}

func (t LockupKindType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *LockupKindType) UnmarshalText(text []byte) error {
	for kind, name := range lockupKindNames {
		if name == string(text) {
			*t = kind
			return nil
		}
	}
	return fmt.Errorf("unknown lockup kind '%v'", string(text))
}

type LockupKind struct {
	Type     LockupKindType     `json:"type" yaml:"type"`
	Duration LockupTimeDuration `json:"duration" yaml:"duration"`
}

func Daily(days uint64) LockupKind {
	return LockupKind{
		Type:     LockupKindDaily,
		Duration: LockupTimeDuration{Periods: days, Unit: LockupTimeUnitDay},
	}
}

func Monthly(months uint64) LockupKind {
	return LockupKind{
		Type:     LockupKindMonthly,
		Duration: LockupTimeDuration{Periods: months, Unit: LockupTimeUnitMonth},
	}
}

func Constant(duration LockupTimeDuration) LockupKind {
	return LockupKind{
		Type:     LockupKindConstant,
		Duration: duration,
	}
}

func (k LockupKind) Periods() uint64 {
	return k.Duration.Periods
}

func (k LockupKind) PeriodSecs() uint64 {
	return k.Duration.Unit.Seconds()
}

// IsVesting is false only for Constant lockups.
func (k LockupKind) IsVesting() bool {
	return k.Type == LockupKindDaily || k.Type == LockupKindMonthly
}

// Lockup is a lockup kind anchored at a start time.
// Build it with NewLockup, NewLockupFromDuration or use the zero value.
type Lockup struct {
	Kind    LockupKind `json:"kind" yaml:"kind"`
	StartTs int64      `json:"start_ts" yaml:"start_ts"`
}

// NewLockup checks that start lies less than 100 years after now and that the
// number of periods is within MaxLockupPeriods.
func NewLockup(kind LockupKind, now, start int64) (Lockup, error) {
	if now > math.MaxInt64-MaxLockupInFutureSecs {
		return Lockup{}, ErrorArithmeticOverflow
	}
	if now+MaxLockupInFutureSecs <= start {
		return Lockup{}, ErrorDepositStartTooFarInFuture
	}
	if kind.Periods() > MaxLockupPeriods {
		return Lockup{}, ErrorInvalidLockupPeriod
	}
	return Lockup{Kind: kind, StartTs: start}, nil
}

// NewLockupFromDuration builds the vesting lockup matching the duration's unit.
func NewLockupFromDuration(duration LockupTimeDuration, now, start int64) (Lockup, error) {
	if duration.Unit == LockupTimeUnitMonth {
		return NewLockup(Monthly(duration.Periods), now, start)
	}
	return NewLockup(Daily(duration.Periods), now, start)
}

// Validate rejects lockups whose end timestamp can not be represented.
func (l Lockup) Validate() error {
	if l.Kind.Periods() > MaxLockupPeriods {
		return ErrorInvalidLockupPeriod
	}
	secs, err := l.Kind.Duration.Seconds()
	if err != nil {
		return err
	}
	if l.StartTs > math.MaxInt64-int64(secs) {
		return ErrorArithmeticOverflow
	}
	return nil
}

func (l Lockup) IsVesting() bool {
	return l.Kind.IsVesting()
}

func (l Lockup) EndTs() int64 {
	secs, _ := l.Kind.Duration.Seconds()
	return l.StartTs + int64(secs)
}

func (l Lockup) Expired(now int64) bool {
	return l.SecondsLeft(now) == 0
}

// SecondsLeft is measured from now for vesting lockups. A Constant lockup
// always reports its whole duration, counted from its own start.
func (l Lockup) SecondsLeft(now int64) uint64 {
	if !l.IsVesting() {
		now = l.StartTs
	}
	end := l.EndTs()
	if now >= end {
		return 0
	}
	return uint64(end) - uint64(now)
}

func (l Lockup) PeriodsLeft(now int64) uint64 {
	periodSecs := l.Kind.PeriodSecs()
	if periodSecs == 0 {
		return 0
	}
	if now < l.StartTs {
		return l.PeriodsTotal()
	}
	return (l.SecondsLeft(now) + periodSecs - 1) / periodSecs
}

func (l Lockup) PeriodCurrent(now int64) uint64 {
	return saturatingSub(l.PeriodsTotal(), l.PeriodsLeft(now))
}

func (l Lockup) PeriodsTotal() uint64 {
	return l.Kind.Periods()
}
