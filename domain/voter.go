package domain

const (
	VoterDepositEntryCount = 10

	// PrimaryDepositEntryIndex is the slot reserved for the primary deposit.
	PrimaryDepositEntryIndex = 0
)

// Voter is one depositor's set of deposit slots within a registrar.
// RewardIndex is the registrar reward index the claimable amount was last settled at.
type Voter struct {
	Authority             string                               `json:"authority"`
	Registrar             string                               `json:"registrar"`
	Deposits              [VoterDepositEntryCount]DepositEntry `json:"deposits"`
	RewardIndex           FixedPoint                           `json:"reward_index"`
	RewardClaimableAmount uint64                               `json:"reward_claimable_amount"`
	Revision              int64                                `json:"revision"`
}

func NewVoter(authority string, registrar *Registrar) *Voter {
	return &Voter{
		Authority:   authority,
		Registrar:   registrar.Address,
		RewardIndex: registrar.RewardIndex,
	}
}

func (v *Voter) DepositEntryAt(index int) (DepositEntry, error) {
	if index < 0 || index >= len(v.Deposits) {
		return DepositEntry{}, ErrorOutOfBoundsDepositEntryIndex
	}
	return v.Deposits[index], nil
}

func (v *Voter) depositEntryAtMut(index int) (*DepositEntry, error) {
	if index < 0 || index >= len(v.Deposits) {
		return nil, ErrorOutOfBoundsDepositEntryIndex
	}
	return &v.Deposits[index], nil
}

func (v *Voter) IsActive(index int) (bool, error) {
	d, err := v.DepositEntryAt(index)
	if err != nil {
		return false, err
	}
	return d.IsActive, nil
}

// atomically runs op against copies of the voter and the registrar and keeps
// the result only when op succeeds.
func (v *Voter) atomically(registrar *Registrar, op func(voter *Voter, registrar *Registrar) error) error {
	voter := *v
	reg := *registrar
	if err := op(&voter, &reg); err != nil {
		return err
	}
	*v = voter
	*registrar = reg
	return nil
}

// accrueRewards settles the claimable reward against the registrar index.
// The registrar must already be accrued up to now.
func (v *Voter) accrueRewards(now int64, registrar *Registrar) error {
	if now != registrar.RewardAccrualTs {
		return ErrorRewardAccrualOutOfOrder
	}
	if registrar.RewardIndex.Cmp(v.RewardIndex) <= 0 {
		return nil
	}

	locked, err := v.PermanentlyLocked(now)
	if err != nil {
		return err
	}
	delta, err := registrar.RewardIndex.Sub(v.RewardIndex)
	if err != nil {
		return err
	}
	earnedFixed, err := delta.MulScalar(locked)
	if err != nil {
		return err
	}
	earned, err := earnedFixed.Truncate()
	if err != nil {
		return err
	}
	claimable, err := checkedAdd(v.RewardClaimableAmount, earned)
	if err != nil {
		return err
	}

	v.RewardClaimableAmount = claimable
	v.RewardIndex = registrar.RewardIndex
	return nil
}

// adjustPermanentlyLocked moves the registrar aggregate by amount for Constant entries.
func adjustPermanentlyLocked(registrar *Registrar, lockup Lockup, amount uint64, increase bool) error {
	if lockup.IsVesting() {
		return nil
	}
	var err error
	if increase {
		registrar.PermanentlyLockedAmount, err = checkedAdd(registrar.PermanentlyLockedAmount, amount)
	} else {
		registrar.PermanentlyLockedAmount, err = checkedSub(registrar.PermanentlyLockedAmount, amount)
	}
	return err
}

// Activate opens an inactive slot with the given lockup.
func (v *Voter) Activate(index int, now int64, lockup Lockup, registrar *Registrar) error {
	return v.atomically(registrar, func(voter *Voter, reg *Registrar) error {
		d, err := voter.depositEntryAtMut(index)
		if err != nil {
			return err
		}
		if d.IsActive {
			return ErrorInternalProgram
		}
		if err := voter.accrueRewards(now, reg); err != nil {
			return err
		}
		*d = NewDepositEntry(lockup)
		return nil
	})
}

// Deactivate closes an active slot. Whatever it still holds under a
// Constant lockup leaves the registrar aggregate.
func (v *Voter) Deactivate(index int, now int64, registrar *Registrar) error {
	return v.atomically(registrar, func(voter *Voter, reg *Registrar) error {
		d, err := voter.depositEntryAtMut(index)
		if err != nil {
			return err
		}
		if !d.IsActive {
			return ErrorInternalProgram
		}
		if err := voter.accrueRewards(now, reg); err != nil {
			return err
		}
		lockup, amount := d.Lockup, d.AmountDepositedNative
		if err := d.Deactivate(); err != nil {
			return err
		}
		return adjustPermanentlyLocked(reg, lockup, amount, false)
	})
}

func (v *Voter) Deposit(index int, now int64, amount uint64, registrar *Registrar) error {
	return v.atomically(registrar, func(voter *Voter, reg *Registrar) error {
		d, err := voter.depositEntryAtMut(index)
		if err != nil {
			return err
		}
		if err := voter.accrueRewards(now, reg); err != nil {
			return err
		}
		if err := d.Deposit(now, amount); err != nil {
			return err
		}
		return adjustPermanentlyLocked(reg, d.Lockup, amount, true)
	})
}

// Withdraw returns the amount left deposited in the slot.
func (v *Voter) Withdraw(index int, now int64, amount uint64, registrar *Registrar) (uint64, error) {
	var remaining uint64
	err := v.atomically(registrar, func(voter *Voter, reg *Registrar) error {
		d, err := voter.depositEntryAtMut(index)
		if err != nil {
			return err
		}
		if err := voter.accrueRewards(now, reg); err != nil {
			return err
		}
		if err := d.Withdraw(now, amount); err != nil {
			return err
		}
		remaining = d.AmountDepositedNative
		return adjustPermanentlyLocked(reg, d.Lockup, amount, false)
	})
	return remaining, err
}

// ClaimReward pays out the whole claimable amount, or just amount when given.
func (v *Voter) ClaimReward(now int64, amount *uint64, registrar *Registrar) (uint64, error) {
	var claimed uint64
	err := v.atomically(registrar, func(voter *Voter, reg *Registrar) error {
		if err := voter.accrueRewards(now, reg); err != nil {
			return err
		}
		claimed = voter.RewardClaimableAmount
		if amount != nil {
			if *amount > claimed {
				return ErrorInsufficientClaimableReward
			}
			claimed = *amount
		}
		voter.RewardClaimableAmount -= claimed
		return nil
	})
	if err != nil {
		return 0, err
	}
	return claimed, nil
}

// Weight is the full vote weight of the voter at now.
func (v *Voter) Weight(now int64, registrar *Registrar) (uint64, error) {
	var sum uint64
	for _, d := range v.Deposits {
		if !d.IsActive {
			continue
		}
		power, err := d.VotingPower(registrar.VotingConfig, now)
		if err != nil {
			return 0, err
		}
		if sum, err = checkedAdd(sum, power); err != nil {
			return 0, ErrorVoterWeightOverflow
		}
	}
	return sum, nil
}

// WeightBaseline is the vote weight when ignoring any lockup bonus.
func (v *Voter) WeightBaseline(registrar *Registrar) (uint64, error) {
	var sum uint64
	for _, d := range v.Deposits {
		if !d.IsActive {
			continue
		}
		power, err := registrar.VotingConfig.BaselineVoteWeight(d.AmountDepositedNative)
		if err != nil {
			return 0, err
		}
		if sum, err = checkedAdd(sum, power); err != nil {
			return 0, ErrorVoterWeightOverflow
		}
	}
	return sum, nil
}

func (v *Voter) AmountDepositedNative() (uint64, error) {
	var sum uint64
	var err error
	for _, d := range v.Deposits {
		if sum, err = checkedAdd(sum, d.AmountDepositedNative); err != nil {
			return 0, err
		}
	}
	return sum, nil
}

func (v *Voter) sumActive(vesting bool, amount func(d DepositEntry) (uint64, error)) (uint64, error) {
	var sum uint64
	for _, d := range v.Deposits {
		if !d.IsActive || d.Lockup.IsVesting() != vesting {
			continue
		}
		value, err := amount(d)
		if err != nil {
			return 0, err
		}
		if sum, err = checkedAdd(sum, value); err != nil {
			return 0, err
		}
	}
	return sum, nil
}

// PermanentlyLocked is the locked amount held under Constant lockups.
func (v *Voter) PermanentlyLocked(now int64) (uint64, error) {
	return v.sumActive(false, func(d DepositEntry) (uint64, error) {
		return d.AmountLocked(now)
	})
}

func (v *Voter) VestingLocked(now int64) (uint64, error) {
	return v.sumActive(true, func(d DepositEntry) (uint64, error) {
		return d.AmountLocked(now)
	})
}

func (v *Voter) VestingUnlocked(now int64) (uint64, error) {
	return v.sumActive(true, func(d DepositEntry) (uint64, error) {
		return d.AmountUnlocked(now)
	})
}
