package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"stakeregistry/domain"
	"strings"
	"testing"
	"time"

	"github.com/behrang/sqlbatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const t0 = int64(1_700_000_000)

// fakeBatch answers read commands from rows and fails calls with the queued errors.
type fakeBatch struct {
	rows    [][]interface{}
	errs    []error
	batches [][]sqlbatch.Command
	opts    []*sql.TxOptions
}

func (f *fakeBatch) Batch(opts *sql.TxOptions, commands []sqlbatch.Command) ([]interface{}, error) {
	f.batches = append(f.batches, commands)
	f.opts = append(f.opts, opts)
	results := make([]interface{}, len(commands))

	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return results, err
		}
	}

	var err error
	for i, command := range commands {
		switch {
		case command.ReadOne != nil:
			if len(f.rows) == 0 {
				continue
			}
			if results[i], err = command.ReadOne(scanRow(f.rows[0])); err != nil {
				return results, err
			}
		case command.ReadAll != nil:
			all := command.Init
			for _, row := range f.rows {
				if all, err = command.ReadAll(all, scanRow(row)); err != nil {
					return results, err
				}
			}
			results[i] = all
		}
	}
	return results, nil
}

func scanRow(row []interface{}) func(...interface{}) error {
	return func(dest ...interface{}) error {
		if len(dest) != len(row) {
			return fmt.Errorf("scanning %v columns into %v targets", len(row), len(dest))
		}
		for i, d := range dest {
			switch p := d.(type) {
			case sql.Scanner:
				if err := p.Scan(row[i]); err != nil {
					return err
				}
			case *string:
				*p = row[i].(string)
			case *[]byte:
				*p = row[i].([]byte)
			case *int64:
				*p = row[i].(int64)
			case *uint64:
				*p = row[i].(uint64)
			case *time.Time:
				*p = row[i].(time.Time)
			default:
				return fmt.Errorf("unsupported scan target %T", d)
			}
		}
		return nil
	}
}

func newTestRegistrar(t *testing.T) *domain.Registrar {
	registrar, err := domain.NewRegistrar("registrar", "realm", "authority", "mint",
		domain.VotingConfig{
			BaselineVoteWeightScaledFactor:       domain.ScaledFactorBase,
			MaxExtraLockupVoteWeightScaledFactor: 2 * domain.ScaledFactorBase,
			LockupSaturationSecs:                 365 * domain.SecsPerDay,
		},
		domain.DepositConfig{
			OrdinaryDepositMinLockupDuration: domain.LockupTimeDuration{Periods: 30, Unit: domain.LockupTimeUnitDay},
			PrimaryDepositLockupDuration:     domain.LockupTimeDuration{Periods: 12, Unit: domain.LockupTimeUnitMonth},
			PrimaryDepositAmount:             10_000,
		},
		1_000_000_000, t0)
	require.NoError(t, err)
	return registrar
}

func registrarRow(t *testing.T, r *domain.Registrar) []interface{} {
	votingJson, err := json.Marshal(r.VotingConfig)
	require.NoError(t, err)
	depositJson, err := json.Marshal(r.DepositConfig)
	require.NoError(t, err)
	return []interface{}{
		r.Address, r.Realm, r.RealmAuthority, r.GoverningTokenMint, votingJson, depositJson,
		[]byte(r.CurrentRewardAmountPerSecond.String()), r.LastRewardAmountPerSecondRotatedTs, r.RewardAccrualTs,
		[]byte(r.RewardIndex.String()), r.IssuedRewardAmount, r.PermanentlyLockedAmount, r.TimeOffset, r.Revision,
	}
}

func voterRow(t *testing.T, v *domain.Voter) []interface{} {
	depositsJson, err := json.Marshal(v.Deposits)
	require.NoError(t, err)
	return []interface{}{
		v.Registrar, v.Authority, depositsJson, []byte(v.RewardIndex.String()), v.RewardClaimableAmount, v.Revision,
	}
}

func TestRegistrarFind(t *testing.T) {
	registrar := newTestRegistrar(t)
	registrar.PermanentlyLockedAmount = 5_000
	require.NoError(t, registrar.AccrueRewards(t0+int64(domain.SecsPerDay)))
	registrar.Revision = 3

	fake := &fakeBatch{rows: [][]interface{}{registrarRow(t, registrar)}}
	found, err := NewRegistrarRepository(fake).Find("registrar")
	require.NoError(t, err)
	assert.Equal(t, registrar, found)
	assert.Equal(t, &BatchOptionNormalReadOnly, fake.opts[0])

	found, err = NewRegistrarRepository(&fakeBatch{}).Find("missing")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestRegistrarFindAll(t *testing.T) {
	first := newTestRegistrar(t)
	second := newTestRegistrar(t)
	second.Address = "other"

	fake := &fakeBatch{rows: [][]interface{}{registrarRow(t, first), registrarRow(t, second)}}
	all, err := NewRegistrarRepository(fake).FindAll()
	require.NoError(t, err)
	assert.Equal(t, []domain.Registrar{*first, *second}, all)
}

func TestRegistrarUpdateBumpsRevision(t *testing.T) {
	registrar := newTestRegistrar(t)
	registrar.Revision = 7
	registrar.IssuedRewardAmount = 18_446_744_073_709_551_615

	fake := &fakeBatch{}
	require.NoError(t, NewRegistrarRepository(fake).Update(registrar))
	assert.Equal(t, int64(8), registrar.Revision)

	command := fake.batches[0][0]
	assert.Equal(t, sqlRegistrarUpdate, command.Query)
	assert.Equal(t, int64(7), command.Args[1])
	assert.Equal(t, "18446744073709551615", command.Args[8])
	assert.Equal(t, int64(1), command.Affect)
}

func TestRegistrarUpdateDetectsStaleRevision(t *testing.T) {
	registrar := newTestRegistrar(t)
	stored := *registrar
	stored.Revision = 1

	fake := &fakeBatch{
		errs: []error{fmt.Errorf("affected 0 rows")},
		rows: [][]interface{}{registrarRow(t, &stored)},
	}
	err := NewRegistrarRepository(fake).Update(registrar)
	assert.ErrorIs(t, err, ErrorStaleRevision)
	assert.Equal(t, int64(0), registrar.Revision)

	boom := fmt.Errorf("connection refused")
	fake = &fakeBatch{
		errs: []error{boom},
		rows: [][]interface{}{registrarRow(t, registrar)},
	}
	err = NewRegistrarRepository(fake).Update(registrar)
	assert.ErrorIs(t, err, boom)
}

func TestVoterFind(t *testing.T) {
	registrar := newTestRegistrar(t)
	voter := domain.NewVoter("voter", registrar)
	lockup, err := domain.NewLockup(domain.Daily(4), t0, t0)
	require.NoError(t, err)
	require.NoError(t, voter.Activate(2, t0, lockup, registrar))
	require.NoError(t, voter.Deposit(2, t0, 4_000, registrar))
	voter.Revision = 2

	fake := &fakeBatch{rows: [][]interface{}{voterRow(t, voter)}}
	repo := NewVoterRepository(fake)
	found, err := repo.Find("registrar", "voter")
	require.NoError(t, err)
	assert.Equal(t, voter, found)

	all, err := repo.FindByRegistrar("registrar")
	require.NoError(t, err)
	assert.Equal(t, []domain.Voter{*voter}, all)
}

func TestVoterCommit(t *testing.T) {
	registrar := newTestRegistrar(t)
	voter := domain.NewVoter("voter", registrar)
	event := domain.NewEvent(domain.EventClaimReward, voter, 10, t0).WithIndex(1)

	fake := &fakeBatch{}
	repo := NewVoterRepository(fake)
	require.NoError(t, repo.Commit(Change{Registrar: registrar, Voter: voter, VoterCreated: true}))
	assert.Equal(t, int64(1), registrar.Revision)
	assert.Equal(t, int64(0), voter.Revision)

	require.NoError(t, repo.Commit(Change{Registrar: registrar, Voter: voter, Events: []domain.Event{event}}))
	assert.Equal(t, int64(2), registrar.Revision)
	assert.Equal(t, int64(1), voter.Revision)

	require.NoError(t, repo.Commit(Change{Registrar: registrar, Voter: voter, VoterClosed: true}))

	require.Len(t, fake.batches, 3)
	assert.Equal(t, sqlVoterInsert, fake.batches[0][1].Query)

	update := fake.batches[1]
	require.Len(t, update, 3)
	assert.Equal(t, sqlRegistrarUpdate, update[0].Query)
	assert.Equal(t, sqlVoterUpdate, update[1].Query)
	assert.Equal(t, int64(0), update[1].Args[2])
	assert.Equal(t, sqlEventInsert, update[2].Query)
	assert.Equal(t, domain.EventClaimReward, update[2].Args[0])
	assert.Equal(t, "10", update[2].Args[3])
	assert.True(t, strings.Contains(string(update[2].Args[4].([]byte)), `"deposit_entry_index":1`))

	assert.Equal(t, sqlVoterDelete, fake.batches[2][1].Query)
}

func TestVoterCommitDetectsStaleVoter(t *testing.T) {
	registrar := newTestRegistrar(t)
	voter := domain.NewVoter("voter", registrar)
	stored := *voter
	stored.Revision = 4

	fake := &fakeBatch{errs: []error{fmt.Errorf("affected 0 rows")}}
	repo := NewVoterRepository(fake)
	fake.rows = [][]interface{}{voterRow(t, &stored)}

	err := repo.Commit(Change{Voter: voter})
	assert.ErrorIs(t, err, ErrorStaleRevision)
	assert.Equal(t, int64(0), voter.Revision)
}

func TestEventFindByVoter(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	fake := &fakeBatch{rows: [][]interface{}{
		{int64(1), domain.EventWithdraw, "registrar", "voter", uint64(25), []byte(`{"deposit_entry_index":3}`), t0, created},
	}}

	events, err := NewEventRepository(fake).FindByVoter("registrar", "voter")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventWithdraw, events[0].Type)
	assert.Equal(t, uint64(25), events[0].Amount)
	require.NotNil(t, events[0].Info.DepositEntryIndex)
	assert.Equal(t, 3, *events[0].Info.DepositEntryIndex)
	assert.Nil(t, events[0].Info.Lockup)
	assert.Equal(t, created, events[0].CreatedAt)

	_, err = NewEventRepository(fake).FindAfter(10, 50)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{int64(10), 50}, fake.batches[1][0].Args)
}

func TestMemoMergeAndFind(t *testing.T) {
	memo := &domain.SchedulerMemo{StopRequested: true, LastAccrualTs: t0}
	jstr, err := memo.ToJson()
	require.NoError(t, err)
	updated := time.Unix(t0, 0)
	fake := &fakeBatch{rows: [][]interface{}{{"scheduler", []byte(jstr), updated}}}
	repo := NewMemoRepository(fake)

	stored, err := repo.Merge("scheduler", memo)
	require.NoError(t, err)
	assert.Equal(t, "scheduler", stored.Key)
	assert.Equal(t, updated, stored.UpdatedAt)
	assert.Equal(t, []interface{}{"scheduler", jstr}, fake.batches[0][0].Args)
	assert.Equal(t, sqlMemoFind, fake.batches[0][1].Query)
	assert.Contains(t, fake.batches[0][0].Query, "memo = memos.memo || excluded.memo")

	_, err = repo.Merge("scheduler", &domain.MemoFields{"stop_requested": false})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"scheduler", `{"stop_requested":false}`}, fake.batches[1][0].Args)

	var decoded domain.SchedulerMemo
	require.NoError(t, decoded.FromJson(stored.Memo))
	assert.Equal(t, *memo, decoded)

	found, err := NewMemoRepository(&fakeBatch{}).Find("scheduler")
	require.NoError(t, err)
	assert.Nil(t, found)
}
