package usecase

import (
	"encoding/json"
	"fmt"
	"sort"
	"stakeregistry/domain"
	"stakeregistry/interface/repository"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	t0  = int64(1_700_000_000)
	day = int64(domain.SecsPerDay)

	registrarAddress = "EQABAQEBAQEBAQEBAQEBAQEBAQEBAQEBAQEBAQEBAQEBAc3j"
	realmAddress     = "EQACAgICAgICAgICAgICAgICAgICAgICAgICAgICAgICAsoi"
	authorityAddress = "EQADAwMDAwMDAwMDAwMDAwMDAwMDAwMDAwMDAwMDAwMDA8id"
	mintAddress      = "EQAEBAQEBAQEBAQEBAQEBAQEBAQEBAQEBAQEBAQEBAQEBMWg"
	voterAddress     = "EQAFBQUFBQUFBQUFBQUFBQUFBQUFBQUFBQUFBQUFBQUFBccf"
)

// memoryStore keeps records in memory with the same revision rules as the
// Postgres repositories.
type memoryStore struct {
	mutex      sync.Mutex
	registrars map[string]domain.Registrar
	voters     map[string]domain.Voter
	events     []domain.Event
	memos      map[string]string
	merges     []string
	lastLimit  int

	// concurrentWrites makes that many next writes find a newer registrar revision.
	concurrentWrites int
	writes           int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		registrars: make(map[string]domain.Registrar),
		voters:     make(map[string]domain.Voter),
		memos:      make(map[string]string),
	}
}

func voterKey(registrar string, authority string) string {
	return registrar + "/" + authority
}

// interfere simulates another writer that committed address first.
func (s *memoryStore) interfere(address string) {
	if s.concurrentWrites == 0 {
		return
	}
	s.concurrentWrites--
	if r, ok := s.registrars[address]; ok {
		r.Revision++
		s.registrars[address] = r
	}
}

func (s *memoryStore) Insert(r *domain.Registrar) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, ok := s.registrars[r.Address]; ok {
		return fmt.Errorf("duplicate key value violates unique constraint")
	}
	r.Revision = 0
	s.registrars[r.Address] = *r
	return nil
}

func (s *memoryStore) Find(address string) (*domain.Registrar, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	r, ok := s.registrars[address]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (s *memoryStore) FindAll() ([]domain.Registrar, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	all := make([]domain.Registrar, 0, len(s.registrars))
	for _, r := range s.registrars {
		all = append(all, r)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Address < all[j].Address })
	return all, nil
}

func (s *memoryStore) Update(r *domain.Registrar) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.writes++
	s.interfere(r.Address)
	if s.registrars[r.Address].Revision != r.Revision {
		return repository.ErrorStaleRevision
	}
	r.Revision++
	s.registrars[r.Address] = *r
	return nil
}

type voterStore struct{ *memoryStore }

func (s voterStore) Find(registrar string, authority string) (*domain.Voter, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	v, ok := s.voters[voterKey(registrar, authority)]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (s voterStore) FindByRegistrar(registrar string) ([]domain.Voter, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	all := make([]domain.Voter, 0)
	for _, v := range s.voters {
		if v.Registrar == registrar {
			all = append(all, v)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Authority < all[j].Authority })
	return all, nil
}

func (s voterStore) Commit(change repository.Change) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.writes++

	r := change.Registrar
	s.interfere(r.Address)
	if s.registrars[r.Address].Revision != r.Revision {
		return repository.ErrorStaleRevision
	}
	v := change.Voter
	key := voterKey(v.Registrar, v.Authority)
	stored, exists := s.voters[key]
	if change.VoterCreated == exists || (exists && stored.Revision != v.Revision) {
		return repository.ErrorStaleRevision
	}

	r.Revision++
	s.registrars[r.Address] = *r
	switch {
	case change.VoterClosed:
		delete(s.voters, key)
	case change.VoterCreated:
		v.Revision = 0
		s.voters[key] = *v
	default:
		v.Revision++
		s.voters[key] = *v
	}
	for _, event := range change.Events {
		event.Id = int64(len(s.events) + 1)
		event.CreatedAt = time.Unix(event.Timestamp, 0)
		s.events = append(s.events, event)
	}
	return nil
}

type eventStore struct{ *memoryStore }

func (s eventStore) FindByVoter(registrar string, voter string) ([]domain.Event, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	list := make([]domain.Event, 0)
	for _, event := range s.events {
		if event.Registrar == registrar && event.Voter == voter {
			list = append(list, event)
		}
	}
	return list, nil
}

func (s eventStore) FindAfter(id int64, limit int) ([]domain.Event, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.lastLimit = limit
	list := make([]domain.Event, 0)
	for _, event := range s.events {
		if event.Id > id && len(list) < limit {
			list = append(list, event)
		}
	}
	return list, nil
}

type memoStore struct{ *memoryStore }

func (s memoStore) Find(key string) (*domain.Memo, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	memo, ok := s.memos[key]
	if !ok {
		return nil, nil
	}
	return &domain.Memo{Key: key, Memo: memo}, nil
}

func (s memoStore) Merge(key string, memo domain.Memorable) (*domain.Memo, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	jstr, err := memo.ToJson()
	if err != nil {
		return nil, err
	}
	s.merges = append(s.merges, jstr)

	stored := make(map[string]json.RawMessage)
	if current, ok := s.memos[key]; ok {
		if err = json.Unmarshal([]byte(current), &stored); err != nil {
			return nil, err
		}
	}
	fields := make(map[string]json.RawMessage)
	if err = json.Unmarshal([]byte(jstr), &fields); err != nil {
		return nil, err
	}
	for name, value := range fields {
		stored[name] = value
	}
	merged, err := json.Marshal(stored)
	if err != nil {
		return nil, err
	}
	s.memos[key] = string(merged)
	return &domain.Memo{Key: key, Memo: string(merged), UpdatedAt: time.Now()}, nil
}

type fakeClock struct {
	mutex sync.Mutex
	now   time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.now
}

func (c *fakeClock) Advance(seconds int64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.now = c.now.Add(time.Duration(seconds) * time.Second)
}

type fixture struct {
	store      *memoryStore
	clock      *fakeClock
	registrars *RegistrarInteractor
	voters     *VoterInteractor
	events     *EventInteractor
	memos      *MemoInteractor
}

func testVotingConfig() domain.VotingConfig {
	return domain.VotingConfig{
		BaselineVoteWeightScaledFactor:       domain.ScaledFactorBase,
		MaxExtraLockupVoteWeightScaledFactor: 2 * domain.ScaledFactorBase,
		LockupSaturationSecs:                 365 * domain.SecsPerDay,
	}
}

func testDepositConfig() domain.DepositConfig {
	return domain.DepositConfig{
		OrdinaryDepositMinLockupDuration: domain.LockupTimeDuration{Periods: 30, Unit: domain.LockupTimeUnitDay},
		PrimaryDepositLockupDuration:     domain.LockupTimeDuration{Periods: 12, Unit: domain.LockupTimeUnitMonth},
		PrimaryDepositAmount:             10_000,
	}
}

func testRegistrarArgs() CreateRegistrarArgs {
	return CreateRegistrarArgs{
		Address:            registrarAddress,
		Realm:              realmAddress,
		RealmAuthority:     authorityAddress,
		GoverningTokenMint: mintAddress,
		VotingConfig:       testVotingConfig(),
		DepositConfig:      testDepositConfig(),
	}
}

func newFixture(t *testing.T) *fixture {
	store := newMemoryStore()
	clock := &fakeClock{now: time.Unix(t0, 0)}
	settings := Settings{MaxCommitRetry: 3, Clock: clock.Now}
	log := zaptest.NewLogger(t)
	locker := NewRegistrarLocker()

	return &fixture{
		store:      store,
		clock:      clock,
		registrars: NewRegistrarInteractor(log, store, locker, settings),
		voters:     NewVoterInteractor(log, store, voterStore{store}, locker, settings),
		events:     NewEventInteractor(eventStore{store}, settings),
		memos:      NewMemoInteractor(memoStore{store}),
	}
}

// newVoterFixture has a registrar and an empty voter in place.
func newVoterFixture(t *testing.T) *fixture {
	f := newFixture(t)
	_, err := f.registrars.Create(testRegistrarArgs(), 1_000_000_000)
	require.NoError(t, err)
	_, err = f.voters.Create(registrarAddress, voterAddress)
	require.NoError(t, err)
	return f
}

func (f *fixture) registrar(t *testing.T) domain.Registrar {
	r, ok := f.store.registrars[registrarAddress]
	require.True(t, ok)
	return r
}

func (f *fixture) voter(t *testing.T) domain.Voter {
	v, ok := f.store.voters[voterKey(registrarAddress, voterAddress)]
	require.True(t, ok)
	return v
}
