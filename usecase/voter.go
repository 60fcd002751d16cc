package usecase

import (
	"stakeregistry/domain"
	"stakeregistry/interface/exporter"
	"stakeregistry/interface/repository"

	"go.uber.org/zap"
)

type VoterInteractor struct {
	log                 *zap.Logger
	registrarRepository RegistrarRepository
	voterRepository     VoterRepository
	locker              *RegistrarLocker
	settings            Settings
}

func NewVoterInteractor(log *zap.Logger, registrarRepository RegistrarRepository, voterRepository VoterRepository,
	locker *RegistrarLocker, settings Settings) *VoterInteractor {
	interactor := &VoterInteractor{
		log:                 log,
		registrarRepository: registrarRepository,
		voterRepository:     voterRepository,
		locker:              locker,
		settings:            settings,
	}
	return interactor
}

// voterStep mutates the loaded voter and registrar at now and fills the rest of change.
type voterStep func(now int64, voter *domain.Voter, registrar *domain.Registrar, change *repository.Change) error

// execute loads both records, accrues the registrar up to its clock, runs step
// and commits everything together. It is rerun from scratch on a concurrent change.
func (interactor *VoterInteractor) execute(registrarAddress string, authority string, operation string,
	create bool, step voterStep) (*domain.Voter, error) {

	testnet := interactor.settings.TestNet
	registrarAddress, err := NormalizeAddress(registrarAddress, testnet)
	if err != nil {
		return nil, err
	}
	authority, err = NormalizeAddress(authority, testnet)
	if err != nil {
		return nil, err
	}

	unlock := interactor.locker.Lock(registrarAddress)
	defer unlock()

	var registrar *domain.Registrar
	var voter *domain.Voter
	err = retry(interactor.log, interactor.settings, operation, func() error {
		var err error
		registrar, voter, err = interactor.load(registrarAddress, authority)
		if err != nil {
			return err
		}
		if create && voter != nil {
			return ErrorVoterExists
		}
		if !create && voter == nil {
			return ErrorVoterNotFound
		}

		now, err := registrar.ClockUnixTimestamp(interactor.settings.now())
		if err != nil {
			return err
		}
		if err = registrar.AccrueRewards(now); err != nil {
			return err
		}
		if create {
			voter = domain.NewVoter(authority, registrar)
		}

		change := repository.Change{Registrar: registrar, Voter: voter, VoterCreated: create}
		if err = step(now, voter, registrar, &change); err != nil {
			return err
		}
		return interactor.voterRepository.Commit(change)
	})
	if err != nil {
		return nil, err
	}

	interactor.log.Debug("🟢 Voter operation committed", zap.String("operation", operation),
		zap.String("registrar", registrarAddress), zap.String("voter", authority))
	exporter.SetRegistrarGauges(registrar)
	return voter, nil
}

func (interactor *VoterInteractor) load(registrarAddress string, authority string) (*domain.Registrar, *domain.Voter, error) {
	registrar, err := interactor.registrarRepository.Find(registrarAddress)
	if err != nil {
		return nil, nil, err
	}
	if registrar == nil {
		return nil, nil, ErrorRegistrarNotFound
	}
	voter, err := interactor.voterRepository.Find(registrarAddress, authority)
	return registrar, voter, err
}

// view loads both records without changing them and returns the registrar clock.
func (interactor *VoterInteractor) view(registrarAddress string, authority string) (*domain.Registrar, *domain.Voter, int64, error) {
	testnet := interactor.settings.TestNet
	registrarAddress, err := NormalizeAddress(registrarAddress, testnet)
	if err != nil {
		return nil, nil, 0, err
	}
	authority, err = NormalizeAddress(authority, testnet)
	if err != nil {
		return nil, nil, 0, err
	}

	registrar, voter, err := interactor.load(registrarAddress, authority)
	if err != nil {
		return nil, nil, 0, err
	}
	if voter == nil {
		return nil, nil, 0, ErrorVoterNotFound
	}
	now, err := registrar.ClockUnixTimestamp(interactor.settings.now())
	return registrar, voter, now, err
}

func checkMint(registrar *domain.Registrar, mint string, testnet bool) error {
	if mint == "" {
		return nil
	}
	normalized, err := NormalizeAddress(mint, testnet)
	if err != nil {
		return err
	}
	if normalized != registrar.GoverningTokenMint {
		return domain.ErrorInvalidVotingMint
	}
	return nil
}

func constantLockup(duration domain.LockupTimeDuration, now int64) (domain.Lockup, error) {
	return domain.NewLockup(domain.Constant(duration), now, now)
}

// activateAndDeposit opens slot index with lockup and puts amount in it.
func activateAndDeposit(voter *domain.Voter, registrar *domain.Registrar, index int, now int64,
	lockup domain.Lockup, amount uint64) error {
	if err := voter.Activate(index, now, lockup, registrar); err != nil {
		return err
	}
	return voter.Deposit(index, now, amount, registrar)
}

// Create opens an empty voter record under the registrar.
func (interactor *VoterInteractor) Create(registrarAddress string, authority string) (*domain.Voter, error) {
	return interactor.execute(registrarAddress, authority, "create_voter", true,
		func(int64, *domain.Voter, *domain.Registrar, *repository.Change) error {
			return nil
		})
}

// PrimaryDeposit locks the configured primary amount in the primary slot
// under a constant lockup of the configured duration. An empty mint skips the
// mint check.
func (interactor *VoterInteractor) PrimaryDeposit(registrarAddress string, authority string, mint string) (*domain.Voter, error) {
	return interactor.execute(registrarAddress, authority, domain.EventPrimaryDeposit, false,
		func(now int64, voter *domain.Voter, registrar *domain.Registrar, change *repository.Change) error {
			if err := checkMint(registrar, mint, interactor.settings.TestNet); err != nil {
				return err
			}
			active, err := voter.IsActive(domain.PrimaryDepositEntryIndex)
			if err != nil {
				return err
			}
			if active {
				return domain.ErrorDuplicateNodeDeposit
			}

			cfg := registrar.DepositConfig
			lockup, err := constantLockup(cfg.PrimaryDepositLockupDuration, now)
			if err != nil {
				return err
			}
			err = activateAndDeposit(voter, registrar, domain.PrimaryDepositEntryIndex, now, lockup, cfg.PrimaryDepositAmount)
			if err != nil {
				return err
			}

			change.Events = append(change.Events,
				domain.NewEvent(domain.EventPrimaryDeposit, voter, cfg.PrimaryDepositAmount, now).
					WithIndex(domain.PrimaryDepositEntryIndex).
					WithLockup(lockup))
			return nil
		})
}

// PrimaryRelease moves the whole primary deposit, once its lockup ended, into
// target where it vests over the same duration.
func (interactor *VoterInteractor) PrimaryRelease(registrarAddress string, authority string, target int) (*domain.Voter, error) {
	return interactor.execute(registrarAddress, authority, domain.EventPrimaryReleaseDeposit, false,
		func(now int64, voter *domain.Voter, registrar *domain.Registrar, change *repository.Change) error {
			primary, err := voter.DepositEntryAt(domain.PrimaryDepositEntryIndex)
			if err != nil {
				return err
			}
			if !primary.IsActive {
				return domain.ErrorInactiveDepositEntry
			}
			if err = checkReleaseTarget(voter, target); err != nil {
				return err
			}
			if primary.Lockup.IsVesting() {
				return domain.ErrorInternalProgram
			}
			if now < primary.Lockup.EndTs() {
				return domain.ErrorNodeDepositUnreleasableAtPresent
			}

			amount := primary.AmountDepositedNative
			lockup, err := domain.NewLockupFromDuration(primary.Lockup.Kind.Duration, now, now)
			if err != nil {
				return err
			}
			if err = voter.Deactivate(domain.PrimaryDepositEntryIndex, now, registrar); err != nil {
				return err
			}
			if err = activateAndDeposit(voter, registrar, target, now, lockup, amount); err != nil {
				return err
			}

			change.Events = append(change.Events,
				domain.NewEvent(domain.EventPrimaryReleaseDeposit, voter, amount, now).
					WithIndex(domain.PrimaryDepositEntryIndex).
					WithTarget(target).
					WithLockup(lockup))
			return nil
		})
}

func checkReleaseTarget(voter *domain.Voter, target int) error {
	if target == domain.PrimaryDepositEntryIndex {
		return domain.ErrorNodeDepositReservedEntryIndex
	}
	active, err := voter.IsActive(target)
	if err != nil {
		return err
	}
	if active {
		return domain.ErrorActiveDepositEntryIndex
	}
	return nil
}

// OrdinaryDeposit adds amount to an ordinary constant slot. An inactive slot is
// opened with duration. A longer duration relocks everything the slot holds
// from now on, so a zero amount only extends the lockup. An empty mint skips
// the mint check.
func (interactor *VoterInteractor) OrdinaryDeposit(registrarAddress string, authority string, mint string,
	index int, amount uint64, duration domain.LockupTimeDuration) (*domain.Voter, error) {
	return interactor.execute(registrarAddress, authority, domain.EventOrdinaryDeposit, false,
		func(now int64, voter *domain.Voter, registrar *domain.Registrar, change *repository.Change) error {
			if err := checkMint(registrar, mint, interactor.settings.TestNet); err != nil {
				return err
			}
			if index == domain.PrimaryDepositEntryIndex {
				return domain.ErrorNodeDepositReservedEntryIndex
			}
			requested, err := duration.Seconds()
			if err != nil {
				return err
			}
			minimum, err := registrar.DepositConfig.OrdinaryDepositMinLockupDuration.Seconds()
			if err != nil {
				return err
			}
			if requested < minimum {
				return domain.ErrorInvalidLockupDuration
			}

			entry, err := voter.DepositEntryAt(index)
			if err != nil {
				return err
			}
			lockup, err := constantLockup(duration, now)
			if err != nil {
				return err
			}

			switch {
			case !entry.IsActive:
				err = activateAndDeposit(voter, registrar, index, now, lockup, amount)

			case entry.Lockup.IsVesting() || entry.AmountDepositedNative != entry.AmountInitiallyLockedNative:
				return domain.ErrorNotOrdinaryDepositEntry

			case entry.Lockup.Kind.Duration == duration:
				err = voter.Deposit(index, now, amount, registrar)
				lockup = voter.Deposits[index].Lockup

			default:
				current, err := entry.Lockup.Kind.Duration.Seconds()
				if err != nil {
					return err
				}
				if requested < current {
					return domain.ErrorCanNotShortenLockupDuration
				}
				total := entry.AmountDepositedNative + amount
				if total < amount {
					return domain.ErrorArithmeticOverflow
				}
				if err = voter.Deactivate(index, now, registrar); err != nil {
					return err
				}
				if err = activateAndDeposit(voter, registrar, index, now, lockup, total); err != nil {
					return err
				}
			}
			if err != nil {
				return err
			}

			change.Events = append(change.Events,
				domain.NewEvent(domain.EventOrdinaryDeposit, voter, amount, now).
					WithIndex(index).
					WithLockup(lockup))
			return nil
		})
}

// OrdinaryRelease takes amount out of an ordinary constant slot and lets it
// vest in target over the slot's duration. What stays behind keeps a constant
// lockup restarted at now. A slot released in full is closed first, so it may
// be its own target.
func (interactor *VoterInteractor) OrdinaryRelease(registrarAddress string, authority string,
	index int, target int, amount uint64) (*domain.Voter, error) {
	return interactor.execute(registrarAddress, authority, domain.EventOrdinaryReleaseDeposit, false,
		func(now int64, voter *domain.Voter, registrar *domain.Registrar, change *repository.Change) error {
			if amount == 0 {
				return domain.ErrorZeroDepositAmount
			}
			if index == domain.PrimaryDepositEntryIndex || target == domain.PrimaryDepositEntryIndex {
				return domain.ErrorNodeDepositReservedEntryIndex
			}
			entry, err := voter.DepositEntryAt(index)
			if err != nil {
				return err
			}
			if !entry.IsActive {
				return domain.ErrorInactiveDepositEntry
			}
			if entry.Lockup.IsVesting() {
				return domain.ErrorNotOrdinaryDepositEntry
			}
			if entry.AmountDepositedNative < amount {
				return domain.ErrorInsufficientLockedTokens
			}

			duration := entry.Lockup.Kind.Duration
			remaining := entry.AmountDepositedNative - amount
			if err = voter.Deactivate(index, now, registrar); err != nil {
				return err
			}
			if remaining > 0 {
				kept, err := constantLockup(duration, now)
				if err != nil {
					return err
				}
				if err = activateAndDeposit(voter, registrar, index, now, kept, remaining); err != nil {
					return err
				}
			}
			if err = checkReleaseTarget(voter, target); err != nil {
				return err
			}

			vesting, err := domain.NewLockupFromDuration(duration, now, now)
			if err != nil {
				return err
			}
			if err = activateAndDeposit(voter, registrar, target, now, vesting, amount); err != nil {
				return err
			}

			change.Events = append(change.Events,
				domain.NewEvent(domain.EventOrdinaryReleaseDeposit, voter, amount, now).
					WithIndex(index).
					WithTarget(target).
					WithLockup(vesting))
			return nil
		})
}

// Withdraw takes unlocked tokens out of a slot and closes the slot once empty.
func (interactor *VoterInteractor) Withdraw(registrarAddress string, authority string, index int, amount uint64) (*domain.Voter, error) {
	return interactor.execute(registrarAddress, authority, domain.EventWithdraw, false,
		func(now int64, voter *domain.Voter, registrar *domain.Registrar, change *repository.Change) error {
			active, err := voter.IsActive(index)
			if err != nil {
				return err
			}
			if !active {
				return domain.ErrorInactiveDepositEntry
			}

			remaining, err := voter.Withdraw(index, now, amount, registrar)
			if err != nil {
				return err
			}
			if remaining == 0 {
				if err = voter.Deactivate(index, now, registrar); err != nil {
					return err
				}
			}

			change.Events = append(change.Events,
				domain.NewEvent(domain.EventWithdraw, voter, amount, now).WithIndex(index))
			return nil
		})
}

// ClaimReward pays out the claimable reward, or only amount when it is given.
func (interactor *VoterInteractor) ClaimReward(registrarAddress string, authority string, amount *uint64) (uint64, error) {
	var claimed uint64
	_, err := interactor.execute(registrarAddress, authority, domain.EventClaimReward, false,
		func(now int64, voter *domain.Voter, registrar *domain.Registrar, change *repository.Change) error {
			var err error
			claimed, err = voter.ClaimReward(now, amount, registrar)
			if err != nil {
				return err
			}
			if claimed > 0 {
				change.Events = append(change.Events, domain.NewEvent(domain.EventClaimReward, voter, claimed, now))
			}
			return nil
		})
	if err != nil {
		return 0, err
	}
	return claimed, nil
}

// Close removes a voter that holds neither deposits nor claimable rewards.
func (interactor *VoterInteractor) Close(registrarAddress string, authority string) error {
	_, err := interactor.execute(registrarAddress, authority, "close_voter", false,
		func(now int64, voter *domain.Voter, registrar *domain.Registrar, change *repository.Change) error {
			deposited, err := voter.AmountDepositedNative()
			if err != nil {
				return err
			}
			if deposited != 0 || voter.RewardClaimableAmount != 0 {
				return domain.ErrorGoverningTokenNonZero
			}
			change.VoterClosed = true
			return nil
		})
	return err
}

// CurrentVotingWeight is the voter's weight at the registrar clock.
func (interactor *VoterInteractor) CurrentVotingWeight(registrarAddress string, authority string) (uint64, error) {
	registrar, voter, now, err := interactor.view(registrarAddress, authority)
	if err != nil {
		return 0, err
	}
	return voter.Weight(now, registrar)
}

// Info describes the voter at the registrar clock, including the reward the
// next accrual would add.
func (interactor *VoterInteractor) Info(registrarAddress string, authority string) (*domain.VoterInfo, error) {
	registrar, voter, now, err := interactor.view(registrarAddress, authority)
	if err != nil {
		return nil, err
	}
	return domain.NewVoterInfo(voter, registrar, now)
}

func (interactor *VoterInteractor) FindByRegistrar(registrarAddress string) ([]domain.Voter, error) {
	registrarAddress, err := NormalizeAddress(registrarAddress, interactor.settings.TestNet)
	if err != nil {
		return nil, err
	}
	return interactor.voterRepository.FindByRegistrar(registrarAddress)
}
