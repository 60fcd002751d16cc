package usecase

import (
	"stakeregistry/domain"
	"stakeregistry/interface/exporter"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type CreateRegistrarArgs struct {
	Address            string
	Realm              string
	RealmAuthority     string
	GoverningTokenMint string
	VotingConfig       domain.VotingConfig
	DepositConfig      domain.DepositConfig
}

type RegistrarInteractor struct {
	log                 *zap.Logger
	registrarRepository RegistrarRepository
	locker              *RegistrarLocker
	settings            Settings
}

func NewRegistrarInteractor(log *zap.Logger, registrarRepository RegistrarRepository, locker *RegistrarLocker, settings Settings) *RegistrarInteractor {
	interactor := &RegistrarInteractor{
		log:                 log,
		registrarRepository: registrarRepository,
		locker:              locker,
		settings:            settings,
	}
	return interactor
}

func (interactor *RegistrarInteractor) normalize(addresses ...*string) error {
	for _, address := range addresses {
		normalized, err := NormalizeAddress(*address, interactor.settings.TestNet)
		if err != nil {
			return err
		}
		*address = normalized
	}
	return nil
}

// Create stores a new registrar whose reward engine starts at the current time.
// supply is the governing token supply the maximum vote weight is checked against.
func (interactor *RegistrarInteractor) Create(args CreateRegistrarArgs, supply uint64) (*domain.Registrar, error) {
	if err := interactor.normalize(&args.Address, &args.Realm, &args.RealmAuthority, &args.GoverningTokenMint); err != nil {
		return nil, err
	}

	unlock := interactor.locker.Lock(args.Address)
	defer unlock()

	var registrar *domain.Registrar
	err := retry(interactor.log, interactor.settings, "create_registrar", func() error {
		existing, err := interactor.registrarRepository.Find(args.Address)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrorRegistrarExists
		}

		registrar, err = domain.NewRegistrar(args.Address, args.Realm, args.RealmAuthority, args.GoverningTokenMint,
			args.VotingConfig, args.DepositConfig, supply, interactor.settings.now().Unix())
		if err != nil {
			return err
		}
		return interactor.registrarRepository.Insert(registrar)
	})
	if err != nil {
		return nil, err
	}

	interactor.log.Info("🟢 Registrar created", zap.String("registrar", registrar.Address),
		zap.String("realm", registrar.Realm), zap.String("mint", registrar.GoverningTokenMint))
	exporter.SetRegistrarGauges(registrar)
	return registrar, nil
}

// update accrues the registrar up to its clock, applies change and stores the
// result. The whole step is rerun when another writer got there first.
func (interactor *RegistrarInteractor) update(address string, operation string,
	change func(wall time.Time, now int64, registrar *domain.Registrar) error) (*domain.Registrar, error) {

	if err := interactor.normalize(&address); err != nil {
		return nil, err
	}

	unlock := interactor.locker.Lock(address)
	defer unlock()

	var registrar *domain.Registrar
	err := retry(interactor.log, interactor.settings, operation, func() error {
		var err error
		registrar, err = interactor.registrarRepository.Find(address)
		if err != nil {
			return err
		}
		if registrar == nil {
			return ErrorRegistrarNotFound
		}

		wall := interactor.settings.now()
		now, err := registrar.ClockUnixTimestamp(wall)
		if err != nil {
			return err
		}
		if err = registrar.AccrueRewards(now); err != nil {
			return err
		}
		if err = change(wall, now, registrar); err != nil {
			return err
		}
		return interactor.registrarRepository.Update(registrar)
	})
	if err != nil {
		return nil, err
	}

	exporter.SetRegistrarGauges(registrar)
	return registrar, nil
}

func (interactor *RegistrarInteractor) UpdateVotingConfig(address string, cfg domain.VotingConfig, supply uint64) (*domain.Registrar, error) {
	return interactor.update(address, "configure_voting", func(wall time.Time, now int64, registrar *domain.Registrar) error {
		return registrar.UpdateVotingConfig(cfg, supply)
	})
}

func (interactor *RegistrarInteractor) UpdateDepositConfig(address string, cfg domain.DepositConfig) (*domain.Registrar, error) {
	return interactor.update(address, "configure_deposit", func(wall time.Time, now int64, registrar *domain.Registrar) error {
		return registrar.UpdateDepositConfig(cfg)
	})
}

// SetTimeOffset moves the registrar clock. Moving it before the last accrual is refused.
func (interactor *RegistrarInteractor) SetTimeOffset(address string, offset int64) (*domain.Registrar, error) {
	return interactor.update(address, "set_time_offset", func(wall time.Time, now int64, registrar *domain.Registrar) error {
		previous := registrar.TimeOffset
		registrar.TimeOffset = offset
		shifted, err := registrar.ClockUnixTimestamp(wall)
		if err == nil && shifted < registrar.RewardAccrualTs {
			err = domain.ErrorRewardAccrualOutOfOrder
		}
		if err != nil {
			registrar.TimeOffset = previous
			return err
		}
		return nil
	})
}

// Accrue runs the reward accrual of one registrar up to its clock.
func (interactor *RegistrarInteractor) Accrue(address string) (*domain.Registrar, error) {
	return interactor.update(address, "accrue_rewards", func(time.Time, int64, *domain.Registrar) error {
		return nil
	})
}

// AccrueAll accrues every registrar and returns how many succeeded. A failing
// registrar does not stop the others.
func (interactor *RegistrarInteractor) AccrueAll() (int, error) {
	registrars, err := interactor.registrarRepository.FindAll()
	if err != nil {
		return 0, errors.Wrap(err, "loading registrars")
	}

	accrued := 0
	var errs error
	for _, registrar := range registrars {
		if _, err := interactor.Accrue(registrar.Address); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		accrued++
	}
	return accrued, errs
}

func (interactor *RegistrarInteractor) Find(address string) (*domain.Registrar, error) {
	if err := interactor.normalize(&address); err != nil {
		return nil, err
	}
	registrar, err := interactor.registrarRepository.Find(address)
	if err != nil {
		return nil, err
	}
	if registrar == nil {
		return nil, ErrorRegistrarNotFound
	}
	return registrar, nil
}

func (interactor *RegistrarInteractor) MaxVoteWeight(address string, supply uint64) (uint64, error) {
	registrar, err := interactor.Find(address)
	if err != nil {
		return 0, err
	}
	return registrar.MaxVoteWeight(supply)
}
