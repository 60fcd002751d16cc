package repository

import (
	"encoding/json"
	"stakeregistry/domain"

	"github.com/behrang/sqlbatch"
)

const (
	registrarColumns = `
		address, realm, realm_authority, governing_token_mint, voting_config, deposit_config,
		current_reward_amount_per_second, last_reward_amount_per_second_rotated_ts, reward_accrual_ts,
		reward_index, issued_reward_amount, permanently_locked_amount, time_offset, revision
`

	sqlRegistrarInsert = `
	insert into registrars (` + registrarColumns + `)
		values (
			$1, $2, $3, $4, $5::jsonb, $6::jsonb, $7, $8, $9, $10, $11, $12, $13, 0
		)
`

	sqlRegistrarUpdate = `
	update registrars
		set voting_config = $3::jsonb,
			deposit_config = $4::jsonb,
			current_reward_amount_per_second = $5,
			last_reward_amount_per_second_rotated_ts = $6,
			reward_accrual_ts = $7,
			reward_index = $8,
			issued_reward_amount = $9,
			permanently_locked_amount = $10,
			time_offset = $11,
			revision = revision + 1
	where address = $1 and revision = $2
`

	sqlRegistrarFind = `
	select ` + registrarColumns + `
	from registrars
	where address = $1
`

	sqlRegistrarFindAll = `
	select ` + registrarColumns + `
	from registrars
	order by address
`
)

type RegistrarRepository struct {
	batchHandler BatchHandler
}

func NewRegistrarRepository(db BatchHandler) *RegistrarRepository {
	return &RegistrarRepository{batchHandler: db}
}

func scanRegistrar(scan func(...interface{}) error) (domain.Registrar, error) {
	r := domain.Registrar{}
	var votingJson, depositJson []byte
	err := scan(
		&r.Address, &r.Realm, &r.RealmAuthority, &r.GoverningTokenMint, &votingJson, &depositJson,
		&r.CurrentRewardAmountPerSecond, &r.LastRewardAmountPerSecondRotatedTs, &r.RewardAccrualTs,
		&r.RewardIndex, &r.IssuedRewardAmount, &r.PermanentlyLockedAmount, &r.TimeOffset, &r.Revision,
	)
	if err != nil {
		return r, err
	}
	if err = json.Unmarshal(votingJson, &r.VotingConfig); err != nil {
		return r, err
	}
	err = json.Unmarshal(depositJson, &r.DepositConfig)
	return r, err
}

func readRegistrar(scan func(...interface{}) error) (interface{}, error) {
	r, err := scanRegistrar(scan)
	return &r, err
}

func readAllRegistrars(all interface{}, scan func(...interface{}) error) (interface{}, error) {
	r, err := scanRegistrar(scan)

	list := all.([]domain.Registrar)
	list = append(list, r)
	return list, err
}

func registrarConfigs(r *domain.Registrar) ([]byte, []byte, error) {
	votingJson, err := json.Marshal(r.VotingConfig)
	if err != nil {
		return nil, nil, err
	}
	depositJson, err := json.Marshal(r.DepositConfig)
	return votingJson, depositJson, err
}

// registrarUpdateCommand stores r only if nobody changed it since it was read.
func registrarUpdateCommand(r *domain.Registrar) (sqlbatch.Command, error) {
	votingJson, depositJson, err := registrarConfigs(r)
	if err != nil {
		return sqlbatch.Command{}, err
	}
	return sqlbatch.Command{
		Query: sqlRegistrarUpdate,
		Args: []interface{}{
			r.Address, r.Revision, votingJson, depositJson,
			r.CurrentRewardAmountPerSecond, r.LastRewardAmountPerSecondRotatedTs, r.RewardAccrualTs,
			r.RewardIndex, amount(r.IssuedRewardAmount), amount(r.PermanentlyLockedAmount), r.TimeOffset,
		},
		Affect: 1,
	}, nil
}

func (repo *RegistrarRepository) Insert(r *domain.Registrar) error {
	votingJson, depositJson, err := registrarConfigs(r)
	if err != nil {
		return err
	}
	_, err = repo.batchHandler.Batch(&BatchOptionNormal, []sqlbatch.Command{
		{
			Query: sqlRegistrarInsert,
			Args: []interface{}{
				r.Address, r.Realm, r.RealmAuthority, r.GoverningTokenMint, votingJson, depositJson,
				r.CurrentRewardAmountPerSecond, r.LastRewardAmountPerSecondRotatedTs, r.RewardAccrualTs,
				r.RewardIndex, amount(r.IssuedRewardAmount), amount(r.PermanentlyLockedAmount), r.TimeOffset,
			},
			Affect: 1,
		},
	})
	if err == nil {
		r.Revision = 0
	}
	return err
}

func (repo *RegistrarRepository) Find(address string) (*domain.Registrar, error) {
	results, err := repo.batchHandler.Batch(&BatchOptionNormalReadOnly, []sqlbatch.Command{
		{
			Query:   sqlRegistrarFind,
			Args:    []interface{}{address},
			ReadOne: readRegistrar,
		},
	})
	if err != nil || len(results) == 0 {
		return nil, ignoreNoRows(err)
	}
	result, _ := results[0].(*domain.Registrar)
	if result == nil || result.Address == "" {
		return nil, nil
	}
	return result, nil
}

func (repo *RegistrarRepository) FindAll() ([]domain.Registrar, error) {
	results, err := repo.batchHandler.Batch(&BatchOptionNormalReadOnly, []sqlbatch.Command{
		{
			Query:   sqlRegistrarFindAll,
			Init:    make([]domain.Registrar, 0),
			ReadAll: readAllRegistrars,
		},
	})
	if err != nil || len(results) == 0 {
		return nil, err
	}
	result, _ := results[0].([]domain.Registrar)
	return result, nil
}

// Update stores r with a revision check and bumps r.Revision on success.
func (repo *RegistrarRepository) Update(r *domain.Registrar) error {
	command, err := registrarUpdateCommand(r)
	if err != nil {
		return err
	}
	_, err = repo.batchHandler.Batch(&BatchOptionNormal, []sqlbatch.Command{command})
	if err != nil {
		return repo.staleOr(r.Address, r.Revision, err)
	}
	r.Revision++
	return nil
}

// staleOr reports ErrorStaleRevision when the stored revision moved past the
// one the caller read, and err otherwise.
func (repo *RegistrarRepository) staleOr(address string, revision int64, err error) error {
	current, findErr := repo.Find(address)
	if findErr == nil && current != nil && current.Revision != revision {
		return ErrorStaleRevision
	}
	return err
}
