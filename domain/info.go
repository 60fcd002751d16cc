package domain

type VestingInfo struct {
	// Rate is the amount vested at each period boundary.
	Rate          uint64 `json:"rate" yaml:"rate"`
	NextTimestamp uint64 `json:"next_timestamp" yaml:"next_timestamp"`
}

type DepositEntryInfo struct {
	Index               int          `json:"index" yaml:"index"`
	Lockup              Lockup       `json:"lockup" yaml:"lockup"`
	AmountLocked        uint64       `json:"amount_locked" yaml:"amount_locked"`
	AmountUnlocked      uint64       `json:"amount_unlocked" yaml:"amount_unlocked"`
	VotingPower         uint64       `json:"voting_power" yaml:"voting_power"`
	VotingPowerBaseline uint64       `json:"voting_power_baseline" yaml:"voting_power_baseline"`
	Vesting             *VestingInfo `json:"vesting,omitempty" yaml:"vesting,omitempty"`
}

// VoterInfo is a read-only snapshot of a voter at one timestamp.
type VoterInfo struct {
	Authority           string             `json:"authority" yaml:"authority"`
	Registrar           string             `json:"registrar" yaml:"registrar"`
	Timestamp           int64              `json:"timestamp" yaml:"timestamp"`
	VotingPower         uint64             `json:"voting_power" yaml:"voting_power"`
	VotingPowerBaseline uint64             `json:"voting_power_baseline" yaml:"voting_power_baseline"`
	RewardAmount        uint64             `json:"reward_amount" yaml:"reward_amount"`
	DepositEntries      []DepositEntryInfo `json:"deposit_entries" yaml:"deposit_entries"`
}

// NewVoterInfo computes the snapshot without touching either record. The
// reward amount includes what the next accrual at now would add.
func NewVoterInfo(voter *Voter, registrar *Registrar, now int64) (*VoterInfo, error) {
	info := &VoterInfo{
		Authority:      voter.Authority,
		Registrar:      voter.Registrar,
		Timestamp:      now,
		DepositEntries: make([]DepositEntryInfo, 0, VoterDepositEntryCount),
	}

	for index, d := range voter.Deposits {
		if !d.IsActive {
			continue
		}
		entry, err := newDepositEntryInfo(index, d, registrar, now)
		if err != nil {
			return nil, err
		}
		info.DepositEntries = append(info.DepositEntries, *entry)
	}

	var err error
	if info.VotingPower, err = voter.Weight(now, registrar); err != nil {
		return nil, err
	}
	if info.VotingPowerBaseline, err = voter.WeightBaseline(registrar); err != nil {
		return nil, err
	}
	if info.RewardAmount, err = estimateReward(voter, registrar, now); err != nil {
		return nil, err
	}
	return info, nil
}

func newDepositEntryInfo(index int, d DepositEntry, registrar *Registrar, now int64) (*DepositEntryInfo, error) {
	var err error
	info := &DepositEntryInfo{Index: index, Lockup: d.Lockup}

	if info.AmountLocked, err = d.AmountLocked(now); err != nil {
		return nil, err
	}
	if info.AmountUnlocked, err = d.AmountUnlocked(now); err != nil {
		return nil, err
	}
	if info.VotingPower, err = d.VotingPower(registrar.VotingConfig, now); err != nil {
		return nil, err
	}
	if info.VotingPowerBaseline, err = registrar.VotingConfig.BaselineVoteWeight(d.AmountDepositedNative); err != nil {
		return nil, err
	}

	if d.Lockup.IsVesting() && d.Lockup.PeriodsTotal() > 0 {
		periodsLeft := d.Lockup.PeriodsLeft(now)
		untilLast, err := checkedMul(saturatingSub(periodsLeft, 1), d.Lockup.Kind.PeriodSecs())
		if err != nil {
			return nil, err
		}
		endTs := d.Lockup.EndTs()
		var next uint64
		if endTs > 0 {
			next = saturatingSub(uint64(endTs), untilLast)
		}
		info.Vesting = &VestingInfo{
			Rate:          d.AmountInitiallyLockedNative / d.Lockup.PeriodsTotal(),
			NextTimestamp: next,
		}
	}
	return info, nil
}

func estimateReward(voter *Voter, registrar *Registrar, now int64) (uint64, error) {
	delta, err := registrar.PendingRewardIndexDelta(now)
	if err != nil {
		return 0, err
	}
	index, err := registrar.RewardIndex.Add(delta)
	if err != nil {
		return 0, err
	}
	if index.Cmp(voter.RewardIndex) <= 0 {
		return voter.RewardClaimableAmount, nil
	}
	pending, err := index.Sub(voter.RewardIndex)
	if err != nil {
		return 0, err
	}
	locked, err := voter.PermanentlyLocked(now)
	if err != nil {
		return 0, err
	}
	earnedFixed, err := pending.MulScalar(locked)
	if err != nil {
		return 0, err
	}
	earned, err := earnedFixed.Truncate()
	if err != nil {
		return 0, err
	}
	return checkedAdd(voter.RewardClaimableAmount, earned)
}
