package usecase

import (
	"fmt"
	"stakeregistry/domain"
	"stakeregistry/interface/exporter"
	"stakeregistry/interface/repository"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/tonkeeper/tongo"
	"go.uber.org/zap"
)

var (
	ErrorInvalidAddress    = fmt.Errorf("invalid account address")
	ErrorRegistrarExists   = fmt.Errorf("registrar already exists")
	ErrorRegistrarNotFound = fmt.Errorf("registrar not found")
	ErrorVoterExists       = fmt.Errorf("voter already exists")
	ErrorVoterNotFound     = fmt.Errorf("voter not found")
)

// Settings are shared by the interactors.
type Settings struct {
	// MaxCommitRetry bounds how often a step is rerun after a concurrent change.
	MaxCommitRetry int
	TestNet        bool
	// Clock is the wall clock, time.Now when nil.
	Clock func() time.Time
}

func (s Settings) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock()
}

type RegistrarRepository interface {
	Insert(r *domain.Registrar) error
	Find(address string) (*domain.Registrar, error)
	FindAll() ([]domain.Registrar, error)
	Update(r *domain.Registrar) error
}

type VoterRepository interface {
	Find(registrar string, authority string) (*domain.Voter, error)
	FindByRegistrar(registrar string) ([]domain.Voter, error)
	Commit(change repository.Change) error
}

type EventRepository interface {
	FindByVoter(registrar string, voter string) ([]domain.Event, error)
	FindAfter(id int64, limit int) ([]domain.Event, error)
}

type MemoRepository interface {
	Find(key string) (*domain.Memo, error)
	Merge(key string, memo domain.Memorable) (*domain.Memo, error)
}

// NormalizeAddress parses a user friendly account address and renders it in
// the bounceable form of the network, so an account has a single spelling.
func NormalizeAddress(address string, testnet bool) (string, error) {
	accid, err := tongo.AccountIDFromBase64Url(strings.TrimSpace(address))
	if err != nil {
		return "", errors.Wrapf(ErrorInvalidAddress, "'%v'", address)
	}
	return accid.ToHuman(true, testnet), nil
}

// retry runs step again after a concurrent change, at most MaxCommitRetry
// more times, and accounts for the outcome in the logs and metrics.
func retry(log *zap.Logger, settings Settings, operation string, step func() error) error {
	for attempt := 1; ; attempt++ {
		err := step()
		if errors.Is(err, repository.ErrorStaleRevision) && attempt <= settings.MaxCommitRetry {
			log.Warn("🟡 Concurrent change, retrying", zap.String("operation", operation), zap.Int("attempt", attempt))
			exporter.IncCommitRetryCount(operation)
			continue
		}
		if err != nil {
			log.Error("🔴 Operation failed", zap.String("operation", operation),
				zap.String("category", string(domain.CategoryOf(err))), zap.Error(err))
			exporter.IncErrorCount(err)
			return errors.Wrap(err, operation)
		}
		exporter.IncOperationCount(operation)
		return nil
	}
}

// RegistrarLocker serializes the work on each registrar. Accrual and the voter
// operation that follows it must not interleave with another writer.
type RegistrarLocker struct {
	mutex sync.Mutex
	locks map[string]*registrarLock
}

type registrarLock struct {
	sync.Mutex
	users int
}

func NewRegistrarLocker() *RegistrarLocker {
	return &RegistrarLocker{locks: make(map[string]*registrarLock)}
}

// Lock blocks until address is free and returns the matching unlock.
func (locker *RegistrarLocker) Lock(address string) func() {
	locker.mutex.Lock()
	lock, ok := locker.locks[address]
	if !ok {
		lock = &registrarLock{}
		locker.locks[address] = lock
	}
	lock.users++
	locker.mutex.Unlock()

	lock.Lock()
	return func() {
		lock.Unlock()

		locker.mutex.Lock()
		lock.users--
		if lock.users == 0 {
			delete(locker.locks, address)
		}
		locker.mutex.Unlock()
	}
}
