package domain

import (
	"math"
	"time"
)

const (
	// ScaledFactorBase is the denominator of the voting factors.
	ScaledFactorBase uint64 = 1_000_000_000

	TotalRewardAmount                uint64 = 770_000_000_000_000
	FullRewardPermanentlyLockedFloor uint64 = 195_000_000_000_000
	RewardRotationPeriodSecs         uint64 = 365 * SecsPerDay
	AnnualRewardPercent              uint64 = 12
)

// VotingConfig converts native amounts into vote weight. Factors are in
// 1/ScaledFactorBase units.
type VotingConfig struct {
	BaselineVoteWeightScaledFactor       uint64 `json:"baseline_vote_weight_scaled_factor" yaml:"baseline_vote_weight_scaled_factor"`
	MaxExtraLockupVoteWeightScaledFactor uint64 `json:"max_extra_lockup_vote_weight_scaled_factor" yaml:"max_extra_lockup_vote_weight_scaled_factor"`
	LockupSaturationSecs                 uint64 `json:"lockup_saturation_secs" yaml:"lockup_saturation_secs"`
}

func (c VotingConfig) Validate() error {
	if c.LockupSaturationSecs == 0 {
		return ErrorLockupSaturationMustBePositive
	}
	return nil
}

func applyFactor(base uint64, factor uint64) (uint64, error) {
	weight, err := mulDiv(base, factor, ScaledFactorBase)
	if err != nil {
		return 0, ErrorVoterWeightOverflow
	}
	return weight, nil
}

// BaselineVoteWeight is the weight every deposited token has, locked or not.
func (c VotingConfig) BaselineVoteWeight(amountNative uint64) (uint64, error) {
	return applyFactor(amountNative, c.BaselineVoteWeightScaledFactor)
}

// MaxExtraLockupVoteWeight is the bonus reached at or beyond saturation.
func (c VotingConfig) MaxExtraLockupVoteWeight(amountNative uint64) (uint64, error) {
	return applyFactor(amountNative, c.MaxExtraLockupVoteWeightScaledFactor)
}

type DepositConfig struct {
	OrdinaryDepositMinLockupDuration LockupTimeDuration `json:"ordinary_deposit_min_lockup_duration" yaml:"ordinary_deposit_min_lockup_duration"`
	PrimaryDepositLockupDuration     LockupTimeDuration `json:"primary_deposit_lockup_duration" yaml:"primary_deposit_lockup_duration"`
	PrimaryDepositAmount             uint64             `json:"primary_deposit_amount" yaml:"primary_deposit_amount"`
}

func (c DepositConfig) Validate() error {
	if c.PrimaryDepositAmount == 0 {
		return ErrorNodeSecurityDepositMustBePositive
	}
	if c.PrimaryDepositLockupDuration.Periods > MaxLockupPeriods ||
		c.OrdinaryDepositMinLockupDuration.Periods > MaxLockupPeriods {
		return ErrorInvalidLockupPeriod
	}
	return nil
}

// Registrar holds the configuration and the reward engine of one governance group.
// Revision is bumped on every stored change.
type Registrar struct {
	Address            string `json:"address"`
	Realm              string `json:"realm"`
	RealmAuthority     string `json:"realm_authority"`
	GoverningTokenMint string `json:"governing_token_mint"`

	VotingConfig  VotingConfig  `json:"voting_config"`
	DepositConfig DepositConfig `json:"deposit_config"`

	CurrentRewardAmountPerSecond       FixedPoint `json:"current_reward_amount_per_second"`
	LastRewardAmountPerSecondRotatedTs int64      `json:"last_reward_amount_per_second_rotated_ts"`
	RewardAccrualTs                    int64      `json:"reward_accrual_ts"`
	RewardIndex                        FixedPoint `json:"reward_index"`
	IssuedRewardAmount                 uint64     `json:"issued_reward_amount"`
	PermanentlyLockedAmount            uint64     `json:"permanently_locked_amount"`

	// TimeOffset shifts the registrar clock. Used to move time in tests.
	TimeOffset int64 `json:"time_offset"`
	Revision   int64 `json:"revision"`
}

// NewRegistrar validates both configurations, runs the first accrual at now
// and checks that the maximum vote weight of supply fits 64 bits.
func NewRegistrar(address, realm, realmAuthority, mint string,
	votingConfig VotingConfig, depositConfig DepositConfig,
	supply uint64, now int64) (*Registrar, error) {

	if err := votingConfig.Validate(); err != nil {
		return nil, err
	}
	if err := depositConfig.Validate(); err != nil {
		return nil, err
	}

	registrar := &Registrar{
		Address:            address,
		Realm:              realm,
		RealmAuthority:     realmAuthority,
		GoverningTokenMint: mint,
		VotingConfig:       votingConfig,
		DepositConfig:      depositConfig,
	}

	if err := registrar.AccrueRewards(now); err != nil {
		return nil, err
	}
	if _, err := registrar.MaxVoteWeight(supply); err != nil {
		return nil, err
	}
	return registrar, nil
}

// ClockUnixTimestamp is the registrar's notion of now.
func (r *Registrar) ClockUnixTimestamp(wall time.Time) (int64, error) {
	ts := wall.Unix()
	if (r.TimeOffset > 0 && ts > math.MaxInt64-r.TimeOffset) ||
		(r.TimeOffset < 0 && ts < math.MinInt64-r.TimeOffset) {
		return 0, ErrorArithmeticOverflow
	}
	return ts + r.TimeOffset, nil
}

// MaxVoteWeight is the weight of the whole supply at full lockup bonus.
func (r *Registrar) MaxVoteWeight(supply uint64) (uint64, error) {
	baseline, err := r.VotingConfig.BaselineVoteWeight(supply)
	if err != nil {
		return 0, err
	}
	extra, err := r.VotingConfig.MaxExtraLockupVoteWeight(supply)
	if err != nil {
		return 0, err
	}
	sum, err := checkedAdd(baseline, extra)
	if err != nil {
		return 0, ErrorVoterWeightOverflow
	}
	return sum, nil
}

// UpdateVotingConfig replaces the voting config only if it validates and the
// maximum vote weight of supply still fits.
func (r *Registrar) UpdateVotingConfig(cfg VotingConfig, supply uint64) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	updated := *r
	updated.VotingConfig = cfg
	if _, err := updated.MaxVoteWeight(supply); err != nil {
		return err
	}
	r.VotingConfig = cfg
	return nil
}

func (r *Registrar) UpdateDepositConfig(cfg DepositConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	r.DepositConfig = cfg
	return nil
}

// PendingRewardIndexDelta is the index growth between the last accrual and now,
// without applying it.
func (r *Registrar) PendingRewardIndexDelta(now int64) (FixedPoint, error) {
	if now < r.RewardAccrualTs {
		return FixedPoint{}, ErrorRewardAccrualOutOfOrder
	}
	if r.PermanentlyLockedAmount == 0 {
		return FixedPoint{}, nil
	}

	elapsed := uint64(now) - uint64(r.RewardAccrualTs)
	denominator := r.PermanentlyLockedAmount
	if denominator < FullRewardPermanentlyLockedFloor {
		denominator = FullRewardPermanentlyLockedFloor
	}

	delta, err := r.CurrentRewardAmountPerSecond.MulScalar(elapsed)
	if err != nil {
		return FixedPoint{}, err
	}
	return delta.DivScalar(denominator)
}

// AccrueRewards advances the reward index to now and rotates the emission
// rate once a rotation period has passed. A second call with the same now
// changes nothing. The registrar is left untouched on error.
func (r *Registrar) AccrueRewards(now int64) error {
	if now == r.RewardAccrualTs {
		return nil
	}

	delta, err := r.PendingRewardIndexDelta(now)
	if err != nil {
		return err
	}
	index, err := r.RewardIndex.Add(delta)
	if err != nil {
		return err
	}
	issuedFixed, err := delta.MulScalar(r.PermanentlyLockedAmount)
	if err != nil {
		return err
	}
	issuedDelta, err := issuedFixed.Truncate()
	if err != nil {
		return err
	}
	issued, err := checkedAdd(r.IssuedRewardAmount, issuedDelta)
	if err != nil {
		return err
	}

	updated := *r
	updated.RewardIndex = index
	updated.IssuedRewardAmount = issued
	updated.RewardAccrualTs = now
	if err := updated.rotateRewardRateIfNeeded(now); err != nil {
		return err
	}

	*r = updated
	return nil
}

// rotateRewardRateIfNeeded pays out AnnualRewardPercent of the still unissued
// pool over the next rotation period.
func (r *Registrar) rotateRewardRateIfNeeded(now int64) error {
	if r.LastRewardAmountPerSecondRotatedTs > math.MaxInt64-int64(RewardRotationPeriodSecs) {
		return ErrorArithmeticOverflow
	}
	if now < r.LastRewardAmountPerSecondRotatedTs+int64(RewardRotationPeriodSecs) {
		return nil
	}

	remaining := saturatingSub(TotalRewardAmount, r.IssuedRewardAmount)
	annual, err := mulDiv(remaining, AnnualRewardPercent, 100)
	if err != nil {
		return err
	}
	rate, err := NewFixedPoint(annual).DivScalar(RewardRotationPeriodSecs)
	if err != nil {
		return err
	}

	r.CurrentRewardAmountPerSecond = rate
	r.LastRewardAmountPerSecondRotatedTs = now
	return nil
}
