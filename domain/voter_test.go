package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const t0 = int64(1_700_000_000)

func testVotingConfig() VotingConfig {
	return VotingConfig{
		BaselineVoteWeightScaledFactor:       1_000_000_000,
		MaxExtraLockupVoteWeightScaledFactor: 2_000_000_000,
		LockupSaturationSecs:                 uint64(365 * day),
	}
}

func testDepositConfig() DepositConfig {
	return DepositConfig{
		OrdinaryDepositMinLockupDuration: LockupTimeDuration{Periods: 30, Unit: LockupTimeUnitDay},
		PrimaryDepositLockupDuration:     LockupTimeDuration{Periods: 12, Unit: LockupTimeUnitMonth},
		PrimaryDepositAmount:             10_000,
	}
}

func newTestRegistrar(t *testing.T) *Registrar {
	registrar, err := NewRegistrar("registrar", "realm", "authority", "mint",
		testVotingConfig(), testDepositConfig(), 1_000_000_000, t0)
	require.NoError(t, err)
	return registrar
}

func constantLockup(t *testing.T, days uint64, now int64) Lockup {
	lockup, err := NewLockup(Constant(LockupTimeDuration{Periods: days, Unit: LockupTimeUnitDay}), now, now)
	require.NoError(t, err)
	return lockup
}

func assertConservation(t *testing.T, registrar *Registrar, voters ...*Voter) {
	t.Helper()
	var sum uint64
	for _, v := range voters {
		for _, d := range v.Deposits {
			if d.IsActive && !d.Lockup.IsVesting() {
				sum += d.AmountDepositedNative
			}
		}
	}
	assert.Equal(t, sum, registrar.PermanentlyLockedAmount)
}

func TestVoterInitialization(t *testing.T) {
	registrar := newTestRegistrar(t)
	registrar.RewardIndex = NewFixedPoint(7)
	voter := NewVoter("voter", registrar)

	assert.Equal(t, "registrar", voter.Registrar)
	assert.Equal(t, NewFixedPoint(7), voter.RewardIndex)

	for i := range voter.Deposits {
		d, err := voter.DepositEntryAt(i)
		require.NoError(t, err)
		assert.Equal(t, voter.Deposits[i], d)
		active, err := voter.IsActive(i)
		require.NoError(t, err)
		assert.False(t, active)
	}

	_, err := voter.DepositEntryAt(VoterDepositEntryCount)
	assert.ErrorIs(t, err, ErrorOutOfBoundsDepositEntryIndex)
	_, err = voter.IsActive(VoterDepositEntryCount)
	assert.ErrorIs(t, err, ErrorOutOfBoundsDepositEntryIndex)
	_, err = voter.DepositEntryAt(-1)
	assert.ErrorIs(t, err, ErrorOutOfBoundsDepositEntryIndex)
}

func TestVoterActivateDeactivate(t *testing.T) {
	registrar := newTestRegistrar(t)
	voter := NewVoter("voter", registrar)
	var lockup Lockup

	assert.ErrorIs(t, voter.Activate(VoterDepositEntryCount, t0, lockup, registrar), ErrorOutOfBoundsDepositEntryIndex)
	assert.ErrorIs(t, voter.Deactivate(VoterDepositEntryCount, t0, registrar), ErrorOutOfBoundsDepositEntryIndex)

	require.NoError(t, voter.Activate(0, t0, lockup, registrar))
	active, err := voter.IsActive(0)
	require.NoError(t, err)
	assert.True(t, active)

	before := *voter
	assert.ErrorIs(t, voter.Activate(0, t0, lockup, registrar), ErrorInternalProgram)
	assert.Equal(t, before, *voter)

	require.NoError(t, voter.Deactivate(0, t0, registrar))
	active, err = voter.IsActive(0)
	require.NoError(t, err)
	assert.False(t, active)

	before = *voter
	assert.ErrorIs(t, voter.Deactivate(0, t0, registrar), ErrorInternalProgram)
	assert.Equal(t, before, *voter)
}

func TestVoterRequiresAccruedRegistrar(t *testing.T) {
	registrar := newTestRegistrar(t)
	voter := NewVoter("voter", registrar)
	require.NoError(t, voter.Activate(1, t0, constantLockup(t, 30, t0), registrar))

	beforeVoter, beforeRegistrar := *voter, *registrar
	err := voter.Deposit(1, t0+10, 100, registrar)
	assert.ErrorIs(t, err, ErrorRewardAccrualOutOfOrder)
	assert.Equal(t, CategoryPrecondition, CategoryOf(err))
	assert.Equal(t, beforeVoter, *voter)
	assert.Equal(t, beforeRegistrar, *registrar)

	require.NoError(t, registrar.AccrueRewards(t0+10))
	require.NoError(t, voter.Deposit(1, t0+10, 100, registrar))
}

func TestVoterConservation(t *testing.T) {
	registrar := newTestRegistrar(t)
	alice := NewVoter("alice", registrar)
	bob := NewVoter("bob", registrar)
	now := t0

	require.NoError(t, alice.Activate(1, now, constantLockup(t, 30, now), registrar))
	require.NoError(t, alice.Deposit(1, now, 5_000, registrar))
	assertConservation(t, registrar, alice, bob)

	vesting, err := NewLockup(Daily(10), now, now)
	require.NoError(t, err)
	require.NoError(t, bob.Activate(2, now, vesting, registrar))
	require.NoError(t, bob.Deposit(2, now, 7_000, registrar))
	require.NoError(t, bob.Activate(3, now, constantLockup(t, 60, now), registrar))
	require.NoError(t, bob.Deposit(3, now, 3_000, registrar))
	assertConservation(t, registrar, alice, bob)
	assert.Equal(t, uint64(8_000), registrar.PermanentlyLockedAmount)

	now += 5 * day
	require.NoError(t, registrar.AccrueRewards(now))
	remaining, err := bob.Withdraw(2, now, 3_500, registrar)
	require.NoError(t, err)
	assert.Equal(t, uint64(3_500), remaining)
	assertConservation(t, registrar, alice, bob)

	require.NoError(t, alice.Deposit(1, now, 1_000, registrar))
	assertConservation(t, registrar, alice, bob)

	require.NoError(t, alice.Deactivate(1, now, registrar))
	assertConservation(t, registrar, alice, bob)
	assert.Equal(t, uint64(3_000), registrar.PermanentlyLockedAmount)

	// a failing withdraw on a constant slot keeps both records intact
	beforeBob, beforeRegistrar := *bob, *registrar
	_, err = bob.Withdraw(3, now, 1, registrar)
	assert.ErrorIs(t, err, ErrorInsufficientUnlockedTokens)
	assert.Equal(t, beforeBob, *bob)
	assert.Equal(t, beforeRegistrar, *registrar)
}

func TestVoterRewardSettlement(t *testing.T) {
	registrar := newTestRegistrar(t)
	voter := NewVoter("voter", registrar)
	require.NoError(t, voter.Activate(1, t0, constantLockup(t, 30, t0), registrar))
	require.NoError(t, voter.Deposit(1, t0, 1_001, registrar))

	delta, err := NewFixedPoint(3).DivScalar(2)
	require.NoError(t, err)
	registrar.RewardIndex, err = voter.RewardIndex.Add(delta)
	require.NoError(t, err)

	// any mutating call settles floor(1.5 * 1001)
	require.NoError(t, voter.Deposit(1, t0, 0, registrar))
	assert.Equal(t, uint64(1_501), voter.RewardClaimableAmount)
	assert.Equal(t, registrar.RewardIndex, voter.RewardIndex)

	require.NoError(t, voter.Deposit(1, t0, 0, registrar))
	assert.Equal(t, uint64(1_501), voter.RewardClaimableAmount)
}

func TestVoterClaimReward(t *testing.T) {
	registrar := newTestRegistrar(t)
	voter := NewVoter("voter", registrar)
	voter.RewardClaimableAmount = 900

	part := uint64(400)
	claimed, err := voter.ClaimReward(t0, &part, registrar)
	require.NoError(t, err)
	assert.Equal(t, uint64(400), claimed)
	assert.Equal(t, uint64(500), voter.RewardClaimableAmount)

	tooMuch := uint64(501)
	_, err = voter.ClaimReward(t0, &tooMuch, registrar)
	assert.ErrorIs(t, err, ErrorInsufficientClaimableReward)
	assert.Equal(t, uint64(500), voter.RewardClaimableAmount)

	claimed, err = voter.ClaimReward(t0, nil, registrar)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), claimed)
	assert.Equal(t, uint64(0), voter.RewardClaimableAmount)
}

func TestVoterWeightAndPartitions(t *testing.T) {
	registrar := newTestRegistrar(t)
	voter := NewVoter("voter", registrar)

	require.NoError(t, voter.Activate(1, t0, constantLockup(t, 365, t0), registrar))
	require.NoError(t, voter.Deposit(1, t0, 1_000, registrar))

	vesting, err := NewLockup(Daily(4), t0, t0)
	require.NoError(t, err)
	require.NoError(t, voter.Activate(2, t0, vesting, registrar))
	require.NoError(t, voter.Deposit(2, t0, 4_000, registrar))

	weight, err := voter.Weight(t0, registrar)
	require.NoError(t, err)
	constantPower, err := voter.Deposits[1].VotingPower(registrar.VotingConfig, t0)
	require.NoError(t, err)
	vestingPower, err := voter.Deposits[2].VotingPower(registrar.VotingConfig, t0)
	require.NoError(t, err)
	assert.Equal(t, constantPower+vestingPower, weight)
	assert.Equal(t, uint64(3_000), constantPower)

	baseline, err := voter.WeightBaseline(registrar)
	require.NoError(t, err)
	assert.Equal(t, uint64(5_000), baseline)

	deposited, err := voter.AmountDepositedNative()
	require.NoError(t, err)
	assert.Equal(t, uint64(5_000), deposited)

	now := t0 + day
	permanent, err := voter.PermanentlyLocked(now)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000), permanent)

	vestingLocked, err := voter.VestingLocked(now)
	require.NoError(t, err)
	assert.Equal(t, uint64(3_000), vestingLocked)

	vestingUnlocked, err := voter.VestingUnlocked(now)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000), vestingUnlocked)
}
