package repository

import (
	"encoding/json"
	"stakeregistry/domain"

	"github.com/behrang/sqlbatch"
)

const (
	voterColumns = `
		registrar, authority, deposits, reward_index, reward_claimable_amount, revision
`

	sqlVoterInsert = `
	insert into voters (` + voterColumns + `)
		values (
			$1, $2, $3::jsonb, $4, $5, 0
		)
`

	sqlVoterUpdate = `
	update voters
		set deposits = $4::jsonb,
			reward_index = $5,
			reward_claimable_amount = $6,
			revision = revision + 1
	where registrar = $1 and authority = $2 and revision = $3
`

	sqlVoterDelete = `
	delete from voters
	where registrar = $1 and authority = $2 and revision = $3
`

	sqlVoterFind = `
	select ` + voterColumns + `
	from voters
	where registrar = $1 and authority = $2
`

	sqlVoterFindByRegistrar = `
	select ` + voterColumns + `
	from voters
	where registrar = $1
	order by authority
`
)

// Change is everything one registry operation writes. All of it is stored in
// one transaction or not at all.
type Change struct {
	Registrar *domain.Registrar
	Voter     *domain.Voter

	// VoterCreated inserts the voter instead of updating it.
	VoterCreated bool
	// VoterClosed deletes the voter.
	VoterClosed bool

	Events []domain.Event
}

type VoterRepository struct {
	batchHandler BatchHandler
	registrars   *RegistrarRepository
}

func NewVoterRepository(db BatchHandler) *VoterRepository {
	return &VoterRepository{batchHandler: db, registrars: NewRegistrarRepository(db)}
}

func scanVoter(scan func(...interface{}) error) (domain.Voter, error) {
	r := domain.Voter{}
	var depositsJson []byte
	err := scan(
		&r.Registrar, &r.Authority, &depositsJson, &r.RewardIndex, &r.RewardClaimableAmount, &r.Revision,
	)
	if err != nil {
		return r, err
	}
	err = json.Unmarshal(depositsJson, &r.Deposits)
	return r, err
}

func readVoter(scan func(...interface{}) error) (interface{}, error) {
	r, err := scanVoter(scan)
	return &r, err
}

func readAllVoters(all interface{}, scan func(...interface{}) error) (interface{}, error) {
	r, err := scanVoter(scan)

	list := all.([]domain.Voter)
	list = append(list, r)
	return list, err
}

func voterCommand(v *domain.Voter, created bool, closed bool) (sqlbatch.Command, error) {
	if closed {
		return sqlbatch.Command{
			Query:  sqlVoterDelete,
			Args:   []interface{}{v.Registrar, v.Authority, v.Revision},
			Affect: 1,
		}, nil
	}

	depositsJson, err := json.Marshal(v.Deposits)
	if err != nil {
		return sqlbatch.Command{}, err
	}
	if created {
		return sqlbatch.Command{
			Query: sqlVoterInsert,
			Args: []interface{}{
				v.Registrar, v.Authority, depositsJson, v.RewardIndex, amount(v.RewardClaimableAmount),
			},
			Affect: 1,
		}, nil
	}
	return sqlbatch.Command{
		Query: sqlVoterUpdate,
		Args: []interface{}{
			v.Registrar, v.Authority, v.Revision, depositsJson, v.RewardIndex, amount(v.RewardClaimableAmount),
		},
		Affect: 1,
	}, nil
}

// Commit stores a change with revision checks on the registrar and the voter.
// Revisions of the stored records are bumped on success.
func (repo *VoterRepository) Commit(change Change) error {
	commands := make([]sqlbatch.Command, 0, 2+len(change.Events))

	if change.Registrar != nil {
		command, err := registrarUpdateCommand(change.Registrar)
		if err != nil {
			return err
		}
		commands = append(commands, command)
	}
	if change.Voter != nil {
		command, err := voterCommand(change.Voter, change.VoterCreated, change.VoterClosed)
		if err != nil {
			return err
		}
		commands = append(commands, command)
	}
	for _, event := range change.Events {
		command, err := eventInsertCommand(event)
		if err != nil {
			return err
		}
		commands = append(commands, command)
	}

	_, err := repo.batchHandler.Batch(&BatchOptionNormal, commands)
	if err != nil {
		return repo.staleOr(change, err)
	}

	if change.Registrar != nil {
		change.Registrar.Revision++
	}
	if change.Voter != nil {
		if change.VoterCreated {
			change.Voter.Revision = 0
		} else {
			change.Voter.Revision++
		}
	}
	return nil
}

func (repo *VoterRepository) staleOr(change Change, err error) error {
	if change.Registrar != nil {
		if stale := repo.registrars.staleOr(change.Registrar.Address, change.Registrar.Revision, err); stale == ErrorStaleRevision {
			return stale
		}
	}
	if change.Voter != nil && !change.VoterCreated {
		current, findErr := repo.Find(change.Voter.Registrar, change.Voter.Authority)
		if findErr == nil && (current == nil || current.Revision != change.Voter.Revision) {
			return ErrorStaleRevision
		}
	}
	return err
}

func (repo *VoterRepository) Find(registrar string, authority string) (*domain.Voter, error) {
	results, err := repo.batchHandler.Batch(&BatchOptionNormalReadOnly, []sqlbatch.Command{
		{
			Query:   sqlVoterFind,
			Args:    []interface{}{registrar, authority},
			ReadOne: readVoter,
		},
	})
	if err != nil || len(results) == 0 {
		return nil, ignoreNoRows(err)
	}
	result, _ := results[0].(*domain.Voter)
	if result == nil || result.Authority == "" {
		return nil, nil
	}
	return result, nil
}

func (repo *VoterRepository) FindByRegistrar(registrar string) ([]domain.Voter, error) {
	results, err := repo.batchHandler.Batch(&BatchOptionNormalReadOnly, []sqlbatch.Command{
		{
			Query:   sqlVoterFindByRegistrar,
			Args:    []interface{}{registrar},
			Init:    make([]domain.Voter, 0),
			ReadAll: readAllVoters,
		},
	})
	if err != nil || len(results) == 0 {
		return nil, err
	}
	result, _ := results[0].([]domain.Voter)
	return result, nil
}
